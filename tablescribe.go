// Package tablescribe compiles declarative per-column schemas and structured
// put/update requests into DynamoDB's expression language.
//
// Import path:
//
//	import "github.com/tablescribe/tablescribe"
//
// The root package is a thin facade; the expression compiler lives in
// pkg/expression, the update compiler in pkg/update, and the schema engine
// in pkg/schema. Everything compiles synchronously with no shared mutable
// state, so one Table can serve concurrent callers.
package tablescribe

import (
	"github.com/tablescribe/tablescribe/pkg/expression"
	"github.com/tablescribe/tablescribe/pkg/schema"
	"github.com/tablescribe/tablescribe/pkg/update"
)

type (
	// Re-export the core types for convenience.
	Table      = schema.Table
	Column     = schema.Column
	KeySchema  = schema.KeySchema
	Converter  = schema.Converter
	UpdateBody = update.Body
	Compiled   = expression.Compiled
)

// Column type and date format discriminants.
const (
	TypeString  = schema.TypeString
	TypeNumber  = schema.TypeNumber
	TypeBoolean = schema.TypeBoolean
	TypeList    = schema.TypeList
	TypeMap     = schema.TypeMap

	FormatISO8601   = schema.FormatISO8601
	FormatTimestamp = schema.FormatTimestamp
)

// Re-export schema options and converter helpers.
var (
	WithRedaction = schema.WithRedaction
	ToStorageOnly = schema.ToStorageOnly
)

// NewTable compiles a declared table schema.
func NewTable(name string, columns []Column, opts ...schema.Option) (*Table, error) {
	return schema.New(name, columns, opts...)
}

// LoadTableYAML compiles a table from a YAML declaration.
func LoadTableYAML(data []byte, opts ...schema.Option) (*Table, error) {
	return schema.LoadYAML(data, opts...)
}

// Scan starts a FilterExpression builder for scan requests.
func Scan(name string) *expression.AttributeStep { return expression.Scan(name) }

// Condition starts a ConditionExpression builder for conditional writes.
func Condition(name string) *expression.AttributeStep { return expression.Condition(name) }

// Index starts a KeyConditionExpression builder for query requests.
func Index(name string) *expression.AttributeStep { return expression.Index(name) }

// Filter starts a FilterExpression builder for query requests.
func Filter(name string) *expression.AttributeStep { return expression.Filter(name) }

// CompileUpdate compiles an update body into an update expression.
func CompileUpdate(body UpdateBody) (*update.Compiled, error) {
	return update.Compile(body)
}
