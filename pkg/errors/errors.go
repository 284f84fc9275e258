// Package errors defines error types and utilities for tablescribe
package errors

import (
	"errors"
	"fmt"
)

// Common errors that can occur while compiling schemas and expressions
var (
	// ErrMissingPrimaryKey is returned when a table schema declares no primary column
	ErrMissingPrimaryKey = errors.New("missing primary key")

	// ErrDuplicatePrimaryKey is returned when more than one column is marked primary
	ErrDuplicatePrimaryKey = errors.New("duplicate primary key definition")

	// ErrDuplicateSortKey is returned when more than one column is marked sort
	ErrDuplicateSortKey = errors.New("duplicate sort key definition")

	// ErrInvalidSchema is returned when a column declaration is internally inconsistent
	ErrInvalidSchema = errors.New("invalid schema declaration")

	// ErrInvalidPath is returned when an attribute path fails syntax validation
	ErrInvalidPath = errors.New("invalid attribute path")

	// ErrAliasCollision is returned when a merged expression's name alias cannot be
	// represented as a single local alias (the foreign alias hid a nested path)
	ErrAliasCollision = errors.New("merged alias expands to a nested path")

	// ErrConflictingPath is returned when an update body lists one path in more
	// than one of its set/remove/append/prepend sections
	ErrConflictingPath = errors.New("path appears in multiple update sections")

	// ErrAppendNotList is returned when an append targets a multi-type column
	// with no list representation
	ErrAppendNotList = errors.New("append target is not list-typed")

	// ErrUnsupportedType is returned when a runtime value type has no schema mapping
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnmarshalableValue is returned when a filter or update value cannot be
	// converted to a DynamoDB attribute value
	ErrUnmarshalableValue = errors.New("value cannot be marshaled")

	// ErrBuilderState is returned when a builder operation is applied in the
	// wrong state, e.g. a comparison without a preceding attribute
	ErrBuilderState = errors.New("invalid builder state")
)

// Error represents a detailed compile error with context
type Error struct {
	Err   error
	Op    string
	Table string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "tablescribe: compile failed"
	}
	if e.Table != "" {
		return fmt.Sprintf("tablescribe: %s failed for table %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("tablescribe: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is checks if the error matches the target error
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error
func NewError(op, table string, err error) *Error {
	return &Error{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// IsConflictingPath checks if an error indicates an update-body path conflict
func IsConflictingPath(err error) bool {
	return errors.Is(err, ErrConflictingPath)
}

// IsInvalidPath checks if an error indicates a malformed attribute path
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}
