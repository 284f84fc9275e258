package schema

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

// yamlTable is the on-disk declaration shape. Columns decode through a raw
// node so the document's column order survives; a plain map would lose it.
type yamlTable struct {
	Table   string    `yaml:"table"`
	Redact  string    `yaml:"redact"`
	Columns yaml.Node `yaml:"columns"`
}

// LoadYAML compiles a table from a YAML declaration such as:
//
//	table: users
//	redact: "^secret"
//	columns:
//	  id: {type: S, primary: true, format: uuid}
//	  name: {type: S, required: true}
//	  createdAt: {dateFormat: ISO-8601}
//
// Converter pipelines and slug overrides are code-level concerns and cannot
// be declared in YAML.
func LoadYAML(data []byte, opts ...Option) (*Table, error) {
	var doc yamlTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, tserrors.NewError("load", "", fmt.Errorf("%w: %v", tserrors.ErrInvalidSchema, err))
	}
	if doc.Table == "" {
		return nil, tserrors.NewError("load", "", fmt.Errorf("%w: missing table name", tserrors.ErrInvalidSchema))
	}
	if doc.Columns.Kind != yaml.MappingNode {
		return nil, tserrors.NewError("load", doc.Table,
			fmt.Errorf("%w: columns must be a mapping", tserrors.ErrInvalidSchema))
	}

	columns := make([]Column, 0, len(doc.Columns.Content)/2)
	for i := 0; i+1 < len(doc.Columns.Content); i += 2 {
		name := doc.Columns.Content[i].Value
		ks := &KeySchema{}
		if err := doc.Columns.Content[i+1].Decode(ks); err != nil {
			return nil, tserrors.NewError("load", doc.Table,
				fmt.Errorf("%w: column %s: %v", tserrors.ErrInvalidSchema, name, err))
		}
		columns = append(columns, Column{Name: name, Schema: ks})
	}

	if doc.Redact != "" {
		pattern, err := regexp.Compile(doc.Redact)
		if err != nil {
			return nil, tserrors.NewError("load", doc.Table,
				fmt.Errorf("%w: redact pattern: %v", tserrors.ErrInvalidSchema, err))
		}
		opts = append(opts, WithRedaction(pattern))
	}

	return New(doc.Table, columns, opts...)
}
