package numutil_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tablescribe/tablescribe/internal/numutil"
)

func TestIsNumber(t *testing.T) {
	assert.True(t, numutil.IsNumber(5))
	assert.True(t, numutil.IsNumber(int64(5)))
	assert.True(t, numutil.IsNumber(uint8(5)))
	assert.True(t, numutil.IsNumber(5.5))
	assert.True(t, numutil.IsNumber(float32(5.5)))

	assert.False(t, numutil.IsNumber("5"))
	assert.False(t, numutil.IsNumber(true))
	assert.False(t, numutil.IsNumber(nil))
}

func TestIsZero(t *testing.T) {
	assert.True(t, numutil.IsZero(0))
	assert.True(t, numutil.IsZero(uint32(0)))
	assert.True(t, numutil.IsZero(0.0))
	assert.True(t, numutil.IsZero(math.Copysign(0, -1)))

	assert.False(t, numutil.IsZero(1))
	assert.False(t, numutil.IsZero("0"))
	assert.False(t, numutil.IsZero(nil))
}

func TestIsNaN(t *testing.T) {
	assert.True(t, numutil.IsNaN(math.NaN()))
	assert.True(t, numutil.IsNaN(float32(math.NaN())))

	assert.False(t, numutil.IsNaN(0.0))
	assert.False(t, numutil.IsNaN(math.Inf(1)))
	assert.False(t, numutil.IsNaN("NaN"))
}

func TestFloat64(t *testing.T) {
	got, ok := numutil.Float64(int64(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, got)

	got, ok = numutil.Float64(float32(1.5))
	assert.True(t, ok)
	assert.Equal(t, 1.5, got)

	_, ok = numutil.Float64("7")
	assert.False(t, ok)
}
