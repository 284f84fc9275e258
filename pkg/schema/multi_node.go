package schema

import (
	"fmt"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

// multiNode is the MultiType variant: one child per accepted representation,
// dispatching on the runtime type of each value it sees. Children never
// cross-validate; a string value only ever meets the S child.
type multiNode struct {
	name     string
	schema   *KeySchema
	children map[Type]node
}

func newMultiNode(name string, ks *KeySchema) (node, error) {
	n := &multiNode{
		name:     name,
		schema:   ks,
		children: make(map[Type]node, len(ks.Schemas)),
	}
	for t, partial := range ks.Schemas {
		childSchema := &KeySchema{Type: t}
		if partial != nil {
			childSchema = partial.clone()
			childSchema.Type = t
			// presence and mutability are decided at the multi level
			childSchema.Required = false
			childSchema.Constant = false
		}
		child, err := compileNode(name, childSchema)
		if err != nil {
			return nil, err
		}
		n.children[t] = child
	}
	return n, nil
}

func (n *multiNode) displayName() string { return n.name }

func (n *multiNode) dispatch(value any) (node, error) {
	rt, ok := runtimeType(value)
	if !ok {
		return nil, fmt.Errorf("%w: column %s has unsupported value type %T", tserrors.ErrUnsupportedType, n.name, value)
	}
	child, ok := n.children[rt]
	if !ok {
		return nil, fmt.Errorf("%w: column %s does not accept type %s", tserrors.ErrUnsupportedType, n.name, rt)
	}
	return child, nil
}

func (n *multiNode) validateValue(value any, present bool) []string {
	if !present {
		if n.schema.Required {
			return []string{fmt.Sprintf("column %s is required", n.name)}
		}
		return nil
	}
	child, err := n.dispatch(value)
	if err != nil {
		return []string{err.Error()}
	}
	return child.validateValue(value, true)
}

func (n *multiNode) toStorage(value any) (any, error) {
	child, err := n.dispatch(value)
	if err != nil {
		return nil, err
	}
	return child.toStorage(value)
}

func (n *multiNode) fromStorage(value any) (any, error) {
	child, err := n.dispatch(value)
	if err != nil {
		return nil, err
	}
	return child.fromStorage(value)
}

func (n *multiNode) validateUpdate(op updateOp, rest []string, indexed bool, value any) []string {
	if n.schema.Constant {
		return []string{fmt.Sprintf("column %s is constant and cannot be updated", n.name)}
	}
	switch op {
	case opRemove:
		// removal is type-agnostic; any child may stand for the column
		if n.schema.Required && len(rest) == 0 && !indexed {
			return []string{fmt.Sprintf("column %s is required and cannot be removed", n.name)}
		}
		return nil
	case opAppend, opPrepend:
		child, ok := n.children[TypeList]
		if !ok {
			return []string{fmt.Sprintf("column %s is not list-typed and cannot be %sed to", n.name, op)}
		}
		return child.validateUpdate(op, rest, indexed, value)
	}

	if len(rest) > 0 || indexed {
		if child, ok := n.children[TypeMap]; ok {
			return child.validateUpdate(op, rest, indexed, value)
		}
		return nil
	}
	child, err := n.dispatch(value)
	if err != nil {
		return []string{err.Error()}
	}
	return child.validateUpdate(op, rest, indexed, value)
}

func (n *multiNode) convertUpdate(op updateOp, rest []string, indexed bool, value any) (any, error) {
	switch op {
	case opRemove:
		return value, nil
	case opAppend, opPrepend:
		child, ok := n.children[TypeList]
		if !ok {
			return nil, fmt.Errorf("%w: column %s", tserrors.ErrAppendNotList, n.name)
		}
		return child.convertUpdate(op, rest, indexed, value)
	}

	if len(rest) > 0 || indexed {
		if child, ok := n.children[TypeMap]; ok {
			return child.convertUpdate(op, rest, indexed, value)
		}
		return value, nil
	}
	child, err := n.dispatch(value)
	if err != nil {
		return nil, err
	}
	return child.convertUpdate(op, rest, indexed, value)
}
