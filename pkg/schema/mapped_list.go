package schema

import (
	"fmt"
	"sort"

	"github.com/tablescribe/tablescribe/internal/numutil"
)

// orderAttribute is the synthetic field a mapped list injects on write so
// the original array order can be restored on read.
const orderAttribute = "__order"

// mappedListNode is the MappedList variant: an array-of-objects column
// stored as a map keyed by a declared element field, so one element can be
// patched by key instead of by positional index. Per-element work delegates
// to a Map node over the same attribute declarations.
type mappedListNode struct {
	name    string
	schema  *KeySchema
	element node
	keyAttr string
}

func newMappedListNode(name string, ks *KeySchema) (node, error) {
	element, err := compileNode(name+"[]", &KeySchema{
		Type:                       TypeMap,
		Attributes:                 ks.Attributes,
		OnlyAllowDefinedAttributes: ks.OnlyAllowDefinedAttributes,
	})
	if err != nil {
		return nil, err
	}
	return &mappedListNode{
		name:    name,
		schema:  ks,
		element: element,
		keyAttr: ks.KeyAttribute,
	}, nil
}

func (n *mappedListNode) displayName() string { return n.name }

func (n *mappedListNode) validateValue(value any, present bool) []string {
	if !present {
		if n.schema.Required {
			return []string{fmt.Sprintf("column %s is required", n.name)}
		}
		return nil
	}

	elements, ok := value.([]any)
	if !ok {
		return []string{fmt.Sprintf("column %s must be a list of objects, got %T", n.name, value)}
	}

	var errs []string
	for i, element := range elements {
		object, ok := element.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("column %s[%d] must be an object, got %T", n.name, i, element))
			continue
		}
		if _, hasKey := object[n.keyAttr]; !hasKey {
			errs = append(errs, fmt.Sprintf("column %s[%d] is missing key attribute %s", n.name, i, n.keyAttr))
		}
		errs = append(errs, n.element.validateValue(object, true)...)
	}
	return errs
}

func (n *mappedListNode) toStorage(value any) (any, error) {
	elements, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("column %s must be a list of objects, got %T", n.name, value)
	}

	out := make(map[string]any, len(elements))
	for i, element := range elements {
		object, ok := element.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %s[%d] must be an object, got %T", n.name, i, element)
		}
		keyValue, hasKey := object[n.keyAttr]
		if !hasKey {
			return nil, fmt.Errorf("column %s[%d] is missing key attribute %s", n.name, i, n.keyAttr)
		}
		key := fmt.Sprint(keyValue)
		if _, exists := out[key]; exists {
			return nil, fmt.Errorf("column %s has duplicate key %q", n.name, key)
		}

		converted, err := n.element.toStorage(object)
		if err != nil {
			return nil, err
		}
		stored, ok := converted.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %s[%d] converted to %T, expected object", n.name, i, converted)
		}
		stored[orderAttribute] = i
		out[key] = stored
	}
	return out, nil
}

func (n *mappedListNode) fromStorage(value any) (any, error) {
	stored, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("column %s stored value must be a map, got %T", n.name, value)
	}

	type entry struct {
		object map[string]any
		order  float64
	}
	entries := make([]entry, 0, len(stored))
	for _, key := range sortedMapKeys(stored) {
		object, ok := stored[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %s element %q must be an object, got %T", n.name, key, stored[key])
		}
		converted, err := n.element.fromStorage(object)
		if err != nil {
			return nil, err
		}
		restored, ok := converted.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %s element %q converted to %T, expected object", n.name, key, converted)
		}
		order, _ := numutil.Float64(restored[orderAttribute])
		delete(restored, orderAttribute)
		entries = append(entries, entry{object: restored, order: order})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.object
	}
	return out, nil
}

func (n *mappedListNode) validateUpdate(op updateOp, rest []string, indexed bool, value any) []string {
	if n.schema.Constant {
		return []string{fmt.Sprintf("column %s is constant and cannot be updated", n.name)}
	}
	switch op {
	case opRemove:
		if n.schema.Required && len(rest) == 0 && !indexed {
			return []string{fmt.Sprintf("column %s is required and cannot be removed", n.name)}
		}
		return nil
	case opAppend, opPrepend:
		return []string{fmt.Sprintf("column %s is stored as a keyed map and cannot be %sed to", n.name, op)}
	}

	if len(rest) == 0 {
		if indexed {
			return nil
		}
		return n.validateValue(value, true)
	}
	// rest[0] addresses one element by its key attribute value
	return n.element.validateUpdate(op, rest[1:], false, value)
}

func (n *mappedListNode) convertUpdate(op updateOp, rest []string, indexed bool, value any) (any, error) {
	switch op {
	case opRemove:
		return value, nil
	case opAppend, opPrepend:
		return nil, fmt.Errorf("column %s is stored as a keyed map and cannot be %sed to", n.name, op)
	}

	if len(rest) == 0 && !indexed {
		return n.toStorage(value)
	}
	if len(rest) == 0 {
		return value, nil
	}
	return n.element.convertUpdate(op, rest[1:], false, value)
}
