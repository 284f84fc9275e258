package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/schema"
	"github.com/tablescribe/tablescribe/pkg/update"
)

const usersYAML = `
table: users
redact: "^secret"
columns:
  id: {type: S, primary: true, format: uuid}
  name: {type: S, required: true}
  state: {type: S, enum: [active, disabled]}
  secretToken: {type: S}
  createdAt: {dateFormat: ISO-8601}
`

func TestLoadYAML(t *testing.T) {
	table, err := schema.LoadYAML([]byte(usersYAML))
	require.NoError(t, err)

	assert.Equal(t, "users", table.Name())
	assert.Equal(t, "id", table.PrimaryKey())

	errs := table.ValidateObject(map[string]any{
		"id":    "9f2c1a34-7b6d-4e8f-a1b2-c3d4e5f60718",
		"name":  "zoe",
		"state": "active",
	})
	assert.Empty(t, errs)
}

func TestLoadYAMLPreservesColumnOrder(t *testing.T) {
	// validation errors come out in declared column order
	doc := `
table: t
columns:
  zeta: {type: S, required: true}
  alpha: {type: S, required: true, primary: true}
`
	table, err := schema.LoadYAML([]byte(doc))
	require.NoError(t, err)

	errs := table.ValidateObject(map[string]any{})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "zeta")
	assert.Contains(t, errs[1], "alpha")
}

func TestLoadYAMLRedaction(t *testing.T) {
	table, err := schema.LoadYAML([]byte(usersYAML))
	require.NoError(t, err)

	out, err := table.ConvertObjectFromSchema(map[string]any{
		"id":          "a",
		"secretToken": "hunter2",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "secretToken")
	assert.Contains(t, out, "id")
}

func TestLoadYAMLNestedDeclarations(t *testing.T) {
	doc := `
table: teams
columns:
  id: {type: S, primary: true}
  members:
    keyAttribute: handle
    attributes:
      handle: {type: S}
      role: {type: S, enum: [admin, viewer]}
`
	table, err := schema.LoadYAML([]byte(doc))
	require.NoError(t, err)

	errs := table.ValidateUpdateObject(update.Body{
		Set: map[string]any{"members.zoe.role": "boss"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must be one of admin, viewer")
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "{{"},
		{name: "missing table name", doc: "columns:\n  id: {type: S, primary: true}\n"},
		{name: "columns not a mapping", doc: "table: t\ncolumns: [a, b]\n"},
		{name: "bad redact pattern", doc: "table: t\nredact: '^['\ncolumns:\n  id: {type: S, primary: true}\n"},
		{name: "unknown type", doc: "table: t\ncolumns:\n  id: {type: X, primary: true}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.LoadYAML([]byte(tt.doc))
			assert.ErrorIs(t, err, tserrors.ErrInvalidSchema)
		})
	}
}
