// Package schema validates and bidirectionally converts typed row data
// against declarative per-column schemas.
package schema

import (
	"github.com/gosimple/slug"
)

// Type is the declared column type discriminant.
type Type string

// Declared column types. They mirror the store's attribute type tags.
const (
	TypeString  Type = "S"
	TypeNumber  Type = "N"
	TypeBoolean Type = "BOOL"
	TypeList    Type = "L"
	TypeMap     Type = "M"
)

// DateFormat selects the stored representation of a date column.
type DateFormat string

const (
	// FormatISO8601 stores RFC 3339 strings in UTC with millisecond precision
	FormatISO8601 DateFormat = "ISO-8601"
	// FormatTimestamp stores integer epoch milliseconds
	FormatTimestamp DateFormat = "Timestamp"
)

// Converter is one step of a column's processor pipeline. ToStorage runs on
// write; FromStorage runs on read in the same pipeline order. A nil
// FromStorage is a passthrough, making the conversion one-way.
type Converter struct {
	ToStorage   func(value any) (any, error)
	FromStorage func(value any) (any, error)
}

// ToStorageOnly wraps a bare function as a one-way converter.
func ToStorageOnly(fn func(value any) (any, error)) Converter {
	return Converter{ToStorage: fn}
}

// KeySchema declares one column. The active variant is resolved at table
// construction time: Schemas selects a multi-type column, KeyAttribute a
// mapped list, DateFormat a date, otherwise Type picks the leaf kind and an
// empty Type accepts any value. A KeySchema is never mutated after the table
// is built.
type KeySchema struct {
	Type     Type `yaml:"type"`
	Primary  bool `yaml:"primary"`
	Sort     bool `yaml:"sort"`
	Required bool `yaml:"required"`
	Constant bool `yaml:"constant"`

	// Process is the ordered converter pipeline, applied after any built-in
	// conversion such as slugging. Not expressible in YAML declarations.
	Process []Converter `yaml:"-"`

	// String columns. Format is a regular expression, or the named format
	// "uuid". InvalidCharacters is a banned character set.
	Format            string   `yaml:"format"`
	InvalidCharacters string   `yaml:"invalidCharacters"`
	Enum              []string `yaml:"enum"`
	Slugify           bool     `yaml:"slugify"`

	// SlugFunc overrides the default slug normalizer for this column. The
	// default is github.com/gosimple/slug.Make.
	SlugFunc func(string) string `yaml:"-"`

	// Date columns.
	DateFormat DateFormat `yaml:"dateFormat"`

	// Map columns.
	Attributes                 map[string]*KeySchema `yaml:"attributes"`
	OnlyAllowDefinedAttributes bool                  `yaml:"onlyAllowDefinedAttributes"`

	// Mapped-list columns: an array of objects stored re-keyed by this
	// element field so nested elements can be patched by key.
	KeyAttribute string `yaml:"keyAttribute"`

	// Multi-type columns: one partial schema per accepted representation.
	Schemas map[Type]*KeySchema `yaml:"schemas"`
}

func (ks *KeySchema) slugger() func(string) string {
	if ks.SlugFunc != nil {
		return ks.SlugFunc
	}
	return slug.Make
}

// clone returns a shallow copy so the table can force primary/sort flag
// implications without mutating the caller's declaration.
func (ks *KeySchema) clone() *KeySchema {
	out := *ks
	return &out
}
