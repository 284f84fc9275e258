package numutil

import "math"

// IsNumber reports whether v is one of the numeric Go kinds a row value can hold.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// IsZero reports whether v is a numeric zero. Negative zero counts as zero.
func IsZero(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int8:
		return n == 0
	case int16:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case uint:
		return n == 0
	case uint8:
		return n == 0
	case uint16:
		return n == 0
	case uint32:
		return n == 0
	case uint64:
		return n == 0
	case float32:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

// IsNaN reports whether v is a floating-point NaN.
func IsNaN(v any) bool {
	switch n := v.(type) {
	case float32:
		return math.IsNaN(float64(n))
	case float64:
		return math.IsNaN(n)
	}
	return false
}

// Float64 converts any numeric kind to float64. The second return is false
// for non-numeric values.
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
