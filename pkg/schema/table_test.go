package schema_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/schema"
	"github.com/tablescribe/tablescribe/pkg/update"
)

// newTestTable prepends an "id" primary column so tests declare only the
// columns they exercise.
func newTestTable(t *testing.T, columns []schema.Column, opts ...schema.Option) *schema.Table {
	t.Helper()
	all := append([]schema.Column{
		{Name: "id", Schema: &schema.KeySchema{Type: schema.TypeString, Primary: true}},
	}, columns...)
	table, err := schema.New("test-table", all, opts...)
	require.NoError(t, err)
	return table
}

func TestNewRequiresExactlyOnePrimary(t *testing.T) {
	_, err := schema.New("t", []schema.Column{
		{Name: "a", Schema: &schema.KeySchema{Type: schema.TypeString}},
	})
	assert.ErrorIs(t, err, tserrors.ErrMissingPrimaryKey)

	_, err = schema.New("t", []schema.Column{
		{Name: "a", Schema: &schema.KeySchema{Type: schema.TypeString, Primary: true}},
		{Name: "b", Schema: &schema.KeySchema{Type: schema.TypeString, Primary: true}},
	})
	assert.ErrorIs(t, err, tserrors.ErrDuplicatePrimaryKey)
}

func TestNewRejectsSecondSortKey(t *testing.T) {
	_, err := schema.New("t", []schema.Column{
		{Name: "a", Schema: &schema.KeySchema{Type: schema.TypeString, Primary: true}},
		{Name: "b", Schema: &schema.KeySchema{Type: schema.TypeString, Sort: true}},
		{Name: "c", Schema: &schema.KeySchema{Type: schema.TypeString, Sort: true}},
	})
	assert.ErrorIs(t, err, tserrors.ErrDuplicateSortKey)
}

func TestKeyColumnsResolvedAtConstruction(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "ts", Schema: &schema.KeySchema{Type: schema.TypeNumber, Sort: true}},
	})
	assert.Equal(t, "test-table", table.Name())
	assert.Equal(t, "id", table.PrimaryKey())
	assert.Equal(t, "ts", table.SortKey())
}

func TestPrimaryKeyIsImplicitlyRequired(t *testing.T) {
	table := newTestTable(t, nil)

	errs := table.ValidateObject(map[string]any{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "id is required")

	assert.Empty(t, table.ValidateObject(map[string]any{"id": "abc"}))
}

func TestPrimaryKeyIsImplicitlyConstant(t *testing.T) {
	table := newTestTable(t, nil)

	errs := table.ValidateUpdateObject(update.Body{Set: map[string]any{"id": "x"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "constant")

	// and constant columns are trimmed from compiled updates
	out, err := table.ConvertUpdateObjectToSchema(update.Body{Set: map[string]any{"id": "x"}})
	require.NoError(t, err)
	assert.Empty(t, out.Set)
}

func TestConstantFlagDoesNotLeakIntoCallerSchema(t *testing.T) {
	ks := &schema.KeySchema{Type: schema.TypeString, Primary: true}
	_, err := schema.New("t", []schema.Column{{Name: "id", Schema: ks}})
	require.NoError(t, err)

	assert.False(t, ks.Constant)
	assert.False(t, ks.Required)
}

func TestValidateObjectConcatenatesColumnErrors(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "count", Schema: &schema.KeySchema{Type: schema.TypeNumber, Required: true}},
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString}},
	})

	errs := table.ValidateObject(map[string]any{"id": "abc", "label": 5})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "count is required")
	assert.Contains(t, errs[1], "label must be of type S")
}

func TestValidateObjectIgnoresUndeclaredColumns(t *testing.T) {
	table := newTestTable(t, nil)
	assert.Empty(t, table.ValidateObject(map[string]any{"id": "abc", "extra": 1}))
}

func TestConvertObjectToSchemaDropsUndeclared(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString}},
	})

	out, err := table.ConvertObjectToSchema(map[string]any{
		"id":    "abc",
		"label": "x",
		"extra": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "abc", "label": "x"}, out)
}

func TestConvertObjectRunsProcessPipeline(t *testing.T) {
	double := schema.Converter{
		ToStorage:   func(v any) (any, error) { return v.(int) * 2, nil },
		FromStorage: func(v any) (any, error) { return v.(int) / 2, nil },
	}
	table := newTestTable(t, []schema.Column{
		{Name: "count", Schema: &schema.KeySchema{Type: schema.TypeNumber, Process: []schema.Converter{double}}},
	})

	stored, err := table.ConvertObjectToSchema(map[string]any{"id": "a", "count": 3})
	require.NoError(t, err)
	assert.Equal(t, 6, stored["count"])

	restored, err := table.ConvertObjectFromSchema(stored)
	require.NoError(t, err)
	assert.Equal(t, 3, restored["count"])
}

func TestConvertObjectFromSchemaRedacts(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "secretToken", Schema: &schema.KeySchema{Type: schema.TypeString}},
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString}},
	}, schema.WithRedaction(regexp.MustCompile(`^secret`)))

	out, err := table.ConvertObjectFromSchema(map[string]any{
		"id":          "a",
		"secretToken": "hunter2",
		"label":       "x",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "a", "label": "x"}, out)
}

func TestConvertUpdateObjectTrimsAndConverts(t *testing.T) {
	upper := schema.ToStorageOnly(func(v any) (any, error) { return v.(string) + "!", nil })
	table := newTestTable(t, []schema.Column{
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString, Process: []schema.Converter{upper}}},
		{Name: "frozen", Schema: &schema.KeySchema{Type: schema.TypeString, Constant: true}},
	})

	out, err := table.ConvertUpdateObjectToSchema(update.Body{
		Set:    map[string]any{"label": "x", "frozen": "y", "ghost": "z"},
		Remove: []string{"frozen", "ghost", "label"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"label": "x!"}, out.Set)
	assert.Equal(t, []string{"label"}, out.Remove)
}

func TestConvertUpdateObjectDoesNotMutateCaller(t *testing.T) {
	table := newTestTable(t, nil)
	body := update.Body{Set: map[string]any{"id": "x", "extra": 1}}

	_, err := table.ConvertUpdateObjectToSchema(body)
	require.NoError(t, err)
	assert.Len(t, body.Set, 2)
}

func TestValidateUpdateRequiredColumnCannotBeRemoved(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString, Required: true}},
	})

	errs := table.ValidateUpdateObject(update.Body{Remove: []string{"label"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "required and cannot be removed")

	// removing a nested path inside a required column is fine
	assert.Empty(t, table.ValidateUpdateObject(update.Body{Remove: []string{"label[0]"}}))
}

func TestValidateUpdateAppendNeedsListColumn(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "tags", Schema: &schema.KeySchema{Type: schema.TypeList}},
		{Name: "label", Schema: &schema.KeySchema{Type: schema.TypeString}},
	})

	assert.Empty(t, table.ValidateUpdateObject(update.Body{
		Append: map[string][]any{"tags": {"a"}},
	}))

	errs := table.ValidateUpdateObject(update.Body{
		Prepend: map[string][]any{"label": {"a"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not list-typed")
}

func TestValidateUpdateNestedMapPaths(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "meta", Schema: &schema.KeySchema{
			Type: schema.TypeMap,
			Attributes: map[string]*schema.KeySchema{
				"kind": {Type: schema.TypeString, Enum: []string{"a", "b"}},
			},
			OnlyAllowDefinedAttributes: true,
		}},
	})

	assert.Empty(t, table.ValidateUpdateObject(update.Body{
		Set: map[string]any{"meta.kind": "a"},
	}))

	errs := table.ValidateUpdateObject(update.Body{
		Set: map[string]any{"meta.kind": "z"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must be one of a, b")

	errs = table.ValidateUpdateObject(update.Body{
		Set: map[string]any{"meta.undeclared": 1},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not declared")
}

func TestMapColumnValidatesNestedValues(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "meta", Schema: &schema.KeySchema{
			Type: schema.TypeMap,
			Attributes: map[string]*schema.KeySchema{
				"count": {Type: schema.TypeNumber, Required: true},
			},
			OnlyAllowDefinedAttributes: true,
		}},
	})

	assert.Empty(t, table.ValidateObject(map[string]any{
		"id":   "a",
		"meta": map[string]any{"count": 1},
	}))

	errs := table.ValidateObject(map[string]any{
		"id":   "a",
		"meta": map[string]any{"stray": true},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "meta.count is required")
	assert.Contains(t, errs[1], "meta.stray is not declared")
}

func TestMapColumnPassthroughWithoutOnlyDefined(t *testing.T) {
	table := newTestTable(t, []schema.Column{
		{Name: "meta", Schema: &schema.KeySchema{
			Type: schema.TypeMap,
			Attributes: map[string]*schema.KeySchema{
				"kind": {Type: schema.TypeString},
			},
		}},
	})

	out, err := table.ConvertObjectToSchema(map[string]any{
		"id":   "a",
		"meta": map[string]any{"kind": "x", "stray": 7},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kind": "x", "stray": 7}, out["meta"])
}

func TestNewRejectsNilColumnSchema(t *testing.T) {
	_, err := schema.New("t", []schema.Column{{Name: "a"}})
	assert.ErrorIs(t, err, tserrors.ErrInvalidSchema)
}
