package schema

import (
	"fmt"
	"time"

	"github.com/tablescribe/tablescribe/internal/numutil"
	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

// isoMillis renders RFC 3339 with fixed millisecond precision; parsing
// accepts any fractional-second width.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// newDateNode builds the Date variant. Rows carry time.Time values; the
// stored representation is either an ISO-8601 string or integer epoch
// milliseconds, and reading validates that the stored form parses back.
func newDateNode(name string, ks *KeySchema) (node, error) {
	var converter Converter
	switch ks.DateFormat {
	case FormatISO8601:
		converter = Converter{
			ToStorage: func(value any) (any, error) {
				t, ok := value.(time.Time)
				if !ok {
					return nil, fmt.Errorf("column %s must be a time.Time, got %T", name, value)
				}
				return t.UTC().Format(isoMillis), nil
			},
			FromStorage: func(value any) (any, error) {
				s, ok := value.(string)
				if !ok {
					return nil, fmt.Errorf("column %s stored value must be a string, got %T", name, value)
				}
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return nil, fmt.Errorf("column %s stored value is not a valid date: %w", name, err)
				}
				return t, nil
			},
		}
	case FormatTimestamp:
		converter = Converter{
			ToStorage: func(value any) (any, error) {
				t, ok := value.(time.Time)
				if !ok {
					return nil, fmt.Errorf("column %s must be a time.Time, got %T", name, value)
				}
				return t.UnixMilli(), nil
			},
			FromStorage: func(value any) (any, error) {
				ms, ok := numutil.Float64(value)
				if !ok {
					return nil, fmt.Errorf("column %s stored value must be a number, got %T", name, value)
				}
				return time.UnixMilli(int64(ms)).UTC(), nil
			},
		}
	default:
		return nil, fmt.Errorf("%w: column %s has unknown date format %q", tserrors.ErrInvalidSchema, name, ks.DateFormat)
	}

	n := newLeafNode(name, ks, "")
	n.listTyped = false
	n.typeCheck = func(value any) string {
		if _, ok := value.(time.Time); !ok {
			return fmt.Sprintf("column %s must be a time.Time, got %T", name, value)
		}
		return ""
	}
	n.processors = append([]Converter{converter}, ks.Process...)
	return n, nil
}
