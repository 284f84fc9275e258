package schema

import (
	"fmt"
	"reflect"

	"github.com/tablescribe/tablescribe/internal/numutil"
	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

// updateOp identifies which update-body section a path came from.
type updateOp int

const (
	opSet updateOp = iota
	opRemove
	opAppend
	opPrepend
)

func (o updateOp) String() string {
	switch o {
	case opSet:
		return "set"
	case opRemove:
		return "remove"
	case opAppend:
		return "append"
	default:
		return "prepend"
	}
}

// node is the capability interface shared by every schema variant. The
// variant set is closed: adding a column type means adding one variant here,
// never touching dispatch sites. Validation reports human-readable strings;
// structural problems return errors.
type node interface {
	displayName() string

	// Row operations. present distinguishes a missing column from a nil value.
	validateValue(value any, present bool) []string
	toStorage(value any) (any, error)
	fromStorage(value any) (any, error)

	// Update operations. rest holds the path segments below this node's
	// column; indexed marks a [i] suffix on the node's own segment.
	validateUpdate(op updateOp, rest []string, indexed bool, value any) []string
	convertUpdate(op updateOp, rest []string, indexed bool, value any) (any, error)
}

// compileNode resolves a KeySchema declaration into its variant.
func compileNode(name string, ks *KeySchema) (node, error) {
	switch {
	case len(ks.Schemas) > 0:
		return newMultiNode(name, ks)
	case ks.KeyAttribute != "":
		return newMappedListNode(name, ks)
	case ks.DateFormat != "":
		return newDateNode(name, ks)
	}

	switch ks.Type {
	case TypeString:
		return newStringNode(name, ks)
	case TypeNumber, TypeBoolean, TypeList:
		return newLeafNode(name, ks, ks.Type), nil
	case TypeMap:
		if len(ks.Attributes) > 0 {
			return newMapNode(name, ks)
		}
		return newLeafNode(name, ks, TypeMap), nil
	case "":
		return newLeafNode(name, ks, ""), nil
	default:
		return nil, fmt.Errorf("%w: column %s has unknown type %q", tserrors.ErrInvalidSchema, name, ks.Type)
	}
}

// runtimeType maps a Go runtime value onto the store's type tags: strings to
// S, numbers to N, booleans to BOOL, slices to L, maps to M.
func runtimeType(value any) (Type, bool) {
	switch value.(type) {
	case string:
		return TypeString, true
	case bool:
		return TypeBoolean, true
	case map[string]any:
		return TypeMap, true
	case []any:
		return TypeList, true
	}
	if numutil.IsNumber(value) {
		return TypeNumber, true
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeList, true
	case reflect.Map:
		return TypeMap, true
	}
	return "", false
}

// baseNode implements the Normal variant and backs every leaf type. It owns
// an ordered validator pipeline and an ordered converter pipeline; read and
// write both walk the converters left to right, reads calling FromStorage
// with nil entries passing through.
type baseNode struct {
	name       string
	schema     *KeySchema
	typeCheck  func(value any) string
	validators []func(value any) []string
	processors []Converter
	listTyped  bool
}

func newLeafNode(name string, ks *KeySchema, t Type) *baseNode {
	n := &baseNode{
		name:       name,
		schema:     ks,
		processors: ks.Process,
		listTyped:  t == TypeList || t == "",
	}
	if t != "" {
		n.typeCheck = runtimeCheck(name, t)
	}
	return n
}

func runtimeCheck(name string, want Type) func(value any) string {
	return func(value any) string {
		got, ok := runtimeType(value)
		if !ok {
			return fmt.Sprintf("column %s has unsupported value type %T", name, value)
		}
		if got != want {
			return fmt.Sprintf("column %s must be of type %s, got %s", name, want, got)
		}
		return ""
	}
}

func (n *baseNode) displayName() string { return n.name }

func (n *baseNode) validateValue(value any, present bool) []string {
	if !present {
		if n.schema.Required {
			return []string{fmt.Sprintf("column %s is required", n.name)}
		}
		return nil
	}
	if n.typeCheck != nil {
		if msg := n.typeCheck(value); msg != "" {
			return []string{msg}
		}
	}
	var errs []string
	for _, validate := range n.validators {
		errs = append(errs, validate(value)...)
	}
	return errs
}

func (n *baseNode) toStorage(value any) (any, error) {
	var err error
	for _, p := range n.processors {
		if p.ToStorage == nil {
			continue
		}
		value, err = p.ToStorage(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", n.name, err)
		}
	}
	return value, nil
}

func (n *baseNode) fromStorage(value any) (any, error) {
	var err error
	for _, p := range n.processors {
		if p.FromStorage == nil {
			continue
		}
		value, err = p.FromStorage(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", n.name, err)
		}
	}
	return value, nil
}

func (n *baseNode) validateUpdate(op updateOp, rest []string, indexed bool, value any) []string {
	if n.schema.Constant {
		return []string{fmt.Sprintf("column %s is constant and cannot be updated", n.name)}
	}
	switch op {
	case opRemove:
		if n.schema.Required && len(rest) == 0 && !indexed {
			return []string{fmt.Sprintf("column %s is required and cannot be removed", n.name)}
		}
	case opAppend, opPrepend:
		if !n.listTyped {
			return []string{fmt.Sprintf("column %s is not list-typed and cannot be %sed to", n.name, op)}
		}
	case opSet:
		if len(rest) == 0 && !indexed {
			return n.validateValue(value, true)
		}
	}
	return nil
}

func (n *baseNode) convertUpdate(op updateOp, rest []string, indexed bool, value any) (any, error) {
	switch op {
	case opAppend, opPrepend:
		if !n.listTyped {
			return nil, fmt.Errorf("%w: column %s", tserrors.ErrAppendNotList, n.name)
		}
	case opSet:
		if len(rest) == 0 && !indexed {
			return n.toStorage(value)
		}
	}
	return value, nil
}
