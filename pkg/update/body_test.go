package update_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tablescribe/tablescribe/pkg/update"
)

func TestTransferUndefinedToRemove(t *testing.T) {
	body := update.Body{
		Set: map[string]any{
			"param2": nil,
			"param6": 0,
			"param7": false,
			"param9": math.NaN(),
		},
	}
	body.TransferUndefinedToRemove()

	assert.Equal(t, map[string]any{"param6": 0, "param7": false}, body.Set)
	assert.Equal(t, []string{"param2", "param9"}, body.Remove)
}

func TestTransferKeepsStorableFalsyValues(t *testing.T) {
	negZero := math.Copysign(0, -1)
	body := update.Body{
		Set: map[string]any{
			"a": negZero,
			"b": 0.0,
			"c": false,
			"d": "kept",
		},
	}
	body.TransferUndefinedToRemove()

	assert.Len(t, body.Set, 4)
	assert.Empty(t, body.Remove)
}

func TestTransferEmptyString(t *testing.T) {
	body := update.Body{Set: map[string]any{"a": ""}}
	body.TransferUndefinedToRemove()

	assert.Empty(t, body.Set)
	assert.Equal(t, []string{"a"}, body.Remove)
}

func TestTransferDoesNotDuplicateRemoveEntries(t *testing.T) {
	body := update.Body{
		Set:    map[string]any{"a": nil},
		Remove: []string{"a"},
	}
	body.TransferUndefinedToRemove()

	assert.Equal(t, []string{"a"}, body.Remove)
}

func TestCloneIsolatesCaller(t *testing.T) {
	body := update.Body{
		Set:    map[string]any{"a": 1},
		Remove: []string{"b"},
	}
	clone := body.Clone()
	clone.Set["c"] = 2
	clone.Remove = append(clone.Remove, "d")

	assert.Len(t, body.Set, 1)
	assert.Equal(t, []string{"b"}, body.Remove)
}
