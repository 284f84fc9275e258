package schema

import (
	"fmt"
	"sort"

	"github.com/tablescribe/tablescribe/pkg/validation"
)

// mapNode is the Map variant: a map leaf plus one child node per declared
// nested attribute, applying the same operations recursively.
type mapNode struct {
	baseNode
	children map[string]node
	order    []string
	only     bool
}

func newMapNode(name string, ks *KeySchema) (node, error) {
	n := &mapNode{
		baseNode: *newLeafNode(name, ks, TypeMap),
		children: make(map[string]node, len(ks.Attributes)),
		only:     ks.OnlyAllowDefinedAttributes,
	}
	for attr, child := range ks.Attributes {
		childSchema := child
		if childSchema == nil {
			childSchema = &KeySchema{}
		}
		compiled, err := compileNode(name+"."+attr, childSchema)
		if err != nil {
			return nil, err
		}
		n.children[attr] = compiled
		n.order = append(n.order, attr)
	}
	sort.Strings(n.order)
	return n, nil
}

func (n *mapNode) validateValue(value any, present bool) []string {
	errs := n.baseNode.validateValue(value, present)
	if !present || len(errs) > 0 {
		return errs
	}

	nested, ok := value.(map[string]any)
	if !ok {
		// baseNode's runtime check accepts any map kind; children need string keys
		return []string{fmt.Sprintf("column %s must be a map with string keys", n.name)}
	}

	for _, attr := range n.order {
		childValue, childPresent := nested[attr]
		errs = append(errs, n.children[attr].validateValue(childValue, childPresent)...)
	}
	if n.only {
		for _, key := range sortedMapKeys(nested) {
			if _, declared := n.children[key]; !declared {
				errs = append(errs, fmt.Sprintf("column %s.%s is not declared", n.name, key))
			}
		}
	}
	return errs
}

func (n *mapNode) toStorage(value any) (any, error) {
	return n.convertNested(value, node.toStorage, n.baseNode.toStorage)
}

func (n *mapNode) fromStorage(value any) (any, error) {
	return n.convertNested(value, node.fromStorage, n.baseNode.fromStorage)
}

// convertNested applies the per-child conversion, then the node's own
// converter pipeline on the rebuilt map. Undeclared keys pass through
// unchanged unless only-defined trimming is on.
func (n *mapNode) convertNested(value any, convert func(node, any) (any, error), self func(any) (any, error)) (any, error) {
	nested, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("column %s must be a map with string keys, got %T", n.name, value)
	}

	out := make(map[string]any, len(nested))
	for key, childValue := range nested {
		child, declared := n.children[key]
		if !declared {
			if !n.only {
				out[key] = childValue
			}
			continue
		}
		converted, err := convert(child, childValue)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return self(out)
}

func (n *mapNode) validateUpdate(op updateOp, rest []string, indexed bool, value any) []string {
	if len(rest) == 0 {
		return n.baseNode.validateUpdate(op, rest, indexed, value)
	}
	if n.schema.Constant {
		return []string{fmt.Sprintf("column %s is constant and cannot be updated", n.name)}
	}

	attr, childIndexed, err := splitSegment(rest[0])
	if err != nil {
		return []string{fmt.Sprintf("column %s: %v", n.name, err)}
	}
	child, declared := n.children[attr]
	if !declared {
		if n.only {
			return []string{fmt.Sprintf("column %s.%s is not declared", n.name, attr)}
		}
		return nil
	}
	return child.validateUpdate(op, rest[1:], childIndexed, value)
}

func (n *mapNode) convertUpdate(op updateOp, rest []string, indexed bool, value any) (any, error) {
	if len(rest) == 0 {
		return n.baseNode.convertUpdate(op, rest, indexed, value)
	}

	attr, childIndexed, err := splitSegment(rest[0])
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", n.name, err)
	}
	child, declared := n.children[attr]
	if !declared {
		return value, nil
	}
	return child.convertUpdate(op, rest[1:], childIndexed, value)
}

func splitSegment(segment string) (name string, indexed bool, err error) {
	name, suffix, err := validation.SplitIndex(segment)
	if err != nil {
		return "", false, err
	}
	return name, suffix != "", nil
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
