package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/update"
)

// Column binds a name to its declaration. Tables take a slice so the
// declared column order survives; Go maps would shuffle it.
type Column struct {
	Name   string
	Schema *KeySchema
}

// Table compiles a declared table schema into one node per column and
// applies table-wide trimming and redaction rules. Built once, read-only
// afterwards, safe for unsynchronized concurrent use.
type Table struct {
	name    string
	columns []Column
	nodes   map[string]node
	primary string
	sortKey string
	redact  *regexp.Regexp
}

// Option configures a Table.
type Option func(*Table)

// WithRedaction drops columns whose name matches the pattern when converting
// a stored row back out, keeping read paths from leaking write-only columns.
func WithRedaction(pattern *regexp.Regexp) Option {
	return func(t *Table) { t.redact = pattern }
}

// New compiles a table schema. Exactly one column must be marked primary and
// at most one sort; both are implicitly constant and required.
func New(name string, columns []Column, opts ...Option) (*Table, error) {
	t := &Table{
		name:  name,
		nodes: make(map[string]node, len(columns)),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, col := range columns {
		if col.Schema == nil {
			return nil, tserrors.NewError("compile", name,
				fmt.Errorf("%w: column %s has no declaration", tserrors.ErrInvalidSchema, col.Name))
		}
		ks := col.Schema
		if ks.Primary {
			if t.primary != "" {
				return nil, tserrors.NewError("compile", name, tserrors.ErrDuplicatePrimaryKey)
			}
			t.primary = col.Name
		}
		if ks.Sort {
			if t.sortKey != "" {
				return nil, tserrors.NewError("compile", name, tserrors.ErrDuplicateSortKey)
			}
			t.sortKey = col.Name
		}
		if ks.Primary || ks.Sort {
			ks = ks.clone()
			ks.Constant = true
			ks.Required = true
		}

		compiled, err := compileNode(col.Name, ks)
		if err != nil {
			return nil, tserrors.NewError("compile", name, err)
		}
		t.columns = append(t.columns, Column{Name: col.Name, Schema: ks})
		t.nodes[col.Name] = compiled
	}

	if t.primary == "" {
		return nil, tserrors.NewError("compile", name, tserrors.ErrMissingPrimaryKey)
	}
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// PrimaryKey returns the primary column name, resolved at construction.
func (t *Table) PrimaryKey() string { return t.primary }

// SortKey returns the sort column name, or "" when none is declared.
func (t *Table) SortKey() string { return t.sortKey }

// ValidateObject fans the row across every column node and concatenates the
// error lists. Undeclared columns are not validated; conversion drops them.
func (t *Table) ValidateObject(row map[string]any) []string {
	var errs []string
	for _, col := range t.columns {
		value, present := row[col.Name]
		errs = append(errs, t.nodes[col.Name].validateValue(value, present)...)
	}
	return errs
}

// ValidateUpdateObject checks every path of an update body against its
// column node, concatenating the error lists.
func (t *Table) ValidateUpdateObject(body update.Body) []string {
	var errs []string
	walkBody(body, func(op updateOp, path string, value any) {
		root, rest, indexed, err := t.resolve(path)
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		if root == nil {
			return
		}
		errs = append(errs, root.validateUpdate(op, rest, indexed, value)...)
	})
	return errs
}

// ConvertObjectToSchema normalizes a row for storage: undeclared columns are
// discarded and every declared column runs its converter pipeline.
func (t *Table) ConvertObjectToSchema(row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for _, col := range t.columns {
		value, present := row[col.Name]
		if !present {
			continue
		}
		converted, err := t.nodes[col.Name].toStorage(value)
		if err != nil {
			return nil, tserrors.NewError("convert", t.name, err)
		}
		out[col.Name] = converted
	}
	return out, nil
}

// ConvertObjectFromSchema converts a stored row back to its application
// shape, dropping undeclared columns and any column matching the redaction
// pattern.
func (t *Table) ConvertObjectFromSchema(row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for _, col := range t.columns {
		value, present := row[col.Name]
		if !present {
			continue
		}
		if t.redact != nil && t.redact.MatchString(col.Name) {
			continue
		}
		converted, err := t.nodes[col.Name].fromStorage(value)
		if err != nil {
			return nil, tserrors.NewError("convert", t.name, err)
		}
		out[col.Name] = converted
	}
	return out, nil
}

// ConvertUpdateObjectToSchema normalizes an update body for compilation:
// undeclared and constant columns are discarded from every section and the
// remaining values run their column's converter pipeline. The input body is
// never mutated.
func (t *Table) ConvertUpdateObjectToSchema(body update.Body) (update.Body, error) {
	out := body.Clone()

	if out.Set != nil {
		filtered := make(map[string]any, len(out.Set))
		for path, value := range out.Set {
			converted, keep, err := t.convertUpdatePath(opSet, path, value)
			if err != nil {
				return update.Body{}, err
			}
			if keep {
				filtered[path] = converted
			}
		}
		out.Set = filtered
	}

	if out.Append != nil {
		filtered := make(map[string][]any, len(out.Append))
		for path, values := range out.Append {
			converted, keep, err := t.convertUpdatePath(opAppend, path, values)
			if err != nil {
				return update.Body{}, err
			}
			if keep {
				filtered[path] = asList(converted, values)
			}
		}
		out.Append = filtered
	}

	if out.Prepend != nil {
		filtered := make(map[string][]any, len(out.Prepend))
		for path, values := range out.Prepend {
			converted, keep, err := t.convertUpdatePath(opPrepend, path, values)
			if err != nil {
				return update.Body{}, err
			}
			if keep {
				filtered[path] = asList(converted, values)
			}
		}
		out.Prepend = filtered
	}

	if out.Remove != nil {
		filtered := make([]string, 0, len(out.Remove))
		for _, path := range out.Remove {
			if t.keeps(path) {
				filtered = append(filtered, path)
			}
		}
		out.Remove = filtered
	}

	return out, nil
}

// convertUpdatePath converts one path's value. The second return is false
// when the path's column is undeclared or constant and must be trimmed.
func (t *Table) convertUpdatePath(op updateOp, path string, value any) (any, bool, error) {
	if !t.keeps(path) {
		return nil, false, nil
	}
	root, rest, indexed, err := t.resolve(path)
	if err != nil {
		return nil, false, tserrors.NewError("convert", t.name, err)
	}
	if root == nil {
		return nil, false, nil
	}
	converted, err := root.convertUpdate(op, rest, indexed, value)
	if err != nil {
		return nil, false, tserrors.NewError("convert", t.name, err)
	}
	return converted, true, nil
}

func asList(converted any, fallback []any) []any {
	if list, ok := converted.([]any); ok {
		return list
	}
	return fallback
}

// keeps reports whether a path survives table-wide trimming: its root column
// must be declared and not constant.
func (t *Table) keeps(path string) bool {
	root := rootSegment(path)
	for _, col := range t.columns {
		if col.Name == root {
			return !col.Schema.Constant
		}
	}
	return false
}

// resolve splits a path and returns the root column node plus the remaining
// segments. An undeclared root resolves to nil without error; trimming
// discards it.
func (t *Table) resolve(path string) (node, []string, bool, error) {
	segments := strings.Split(path, ".")
	root, indexed, err := splitSegment(segments[0])
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err)
	}
	n, declared := t.nodes[root]
	if !declared {
		return nil, nil, false, nil
	}
	return n, segments[1:], indexed, nil
}

func rootSegment(path string) string {
	root := path
	if i := strings.IndexByte(root, '.'); i >= 0 {
		root = root[:i]
	}
	if i := strings.IndexByte(root, '['); i >= 0 {
		root = root[:i]
	}
	return root
}

func walkBody(body update.Body, visit func(op updateOp, path string, value any)) {
	for _, path := range sortedMapKeys(body.Set) {
		visit(opSet, path, body.Set[path])
	}
	for _, path := range body.Remove {
		visit(opRemove, path, nil)
	}
	for _, path := range sortedListKeys(body.Append) {
		visit(opAppend, path, body.Append[path])
	}
	for _, path := range sortedListKeys(body.Prepend) {
		visit(opPrepend, path, body.Prepend[path])
	}
}

func sortedListKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
