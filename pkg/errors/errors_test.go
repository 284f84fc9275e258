package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

func TestErrorFormatting(t *testing.T) {
	err := tserrors.NewError("compile", "users", tserrors.ErrMissingPrimaryKey)
	assert.Equal(t, "tablescribe: compile failed for table users: missing primary key", err.Error())

	err = tserrors.NewError("load", "", tserrors.ErrInvalidSchema)
	assert.Equal(t, "tablescribe: load failed: invalid schema declaration", err.Error())
}

func TestErrorUnwrapChain(t *testing.T) {
	wrapped := fmt.Errorf("%w: column a", tserrors.ErrInvalidSchema)
	err := tserrors.NewError("compile", "users", wrapped)

	assert.ErrorIs(t, err, tserrors.ErrInvalidSchema)
	assert.NotErrorIs(t, err, tserrors.ErrMissingPrimaryKey)
}

func TestPredicates(t *testing.T) {
	conflict := fmt.Errorf("%w: %q in both set and remove", tserrors.ErrConflictingPath, "a")
	assert.True(t, tserrors.IsConflictingPath(conflict))
	assert.False(t, tserrors.IsConflictingPath(tserrors.ErrInvalidPath))

	invalid := tserrors.NewError("compile", "t", tserrors.ErrInvalidPath)
	assert.True(t, tserrors.IsInvalidPath(invalid))
	assert.False(t, tserrors.IsInvalidPath(conflict))
}
