package update

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/validation"
)

// emptyListAlias seeds list_append targets that do not exist yet.
const emptyListAlias = ":emptyList"

// Compiled is the wire-facing result of compiling an update body. The
// expression reads "set <clauses> remove <clauses>" with either clause
// omitted when empty; the attribute maps are nil when no alias was allocated.
type Compiled struct {
	UpdateExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
}

// Compile preprocesses and compiles an update body into one update
// expression. Name aliases are "#a<i>" and value aliases ":a<i>", each
// counter strictly increasing across the whole compile. Sections compile in
// the order set, append, prepend, remove; within the map-backed sections
// paths compile in sorted order so alias numbers are a pure function of the
// body. The caller's body is never mutated.
func Compile(body Body) (*Compiled, error) {
	b := body.Clone()
	b.TransferUndefinedToRemove()

	if err := checkConflicts(b); err != nil {
		return nil, err
	}

	c := &compiler{
		names:       make(map[string]string),
		nameAliases: make(map[string]string),
		values:      make(map[string]types.AttributeValue),
	}

	for _, path := range sortedKeys(b.Set) {
		ref, err := c.pathRef(path)
		if err != nil {
			return nil, err
		}
		valueRef, err := c.valueRef(b.Set[path])
		if err != nil {
			return nil, err
		}
		c.setClauses = append(c.setClauses, fmt.Sprintf("%s = %s", ref, valueRef))
	}

	for _, path := range sortedKeys(b.Append) {
		ref, err := c.pathRef(path)
		if err != nil {
			return nil, err
		}
		valueRef, err := c.valueRef(b.Append[path])
		if err != nil {
			return nil, err
		}
		c.setClauses = append(c.setClauses,
			fmt.Sprintf("%s = list_append(if_not_exists(%s, %s), %s)", ref, ref, c.emptyListRef(), valueRef))
	}

	for _, path := range sortedKeys(b.Prepend) {
		ref, err := c.pathRef(path)
		if err != nil {
			return nil, err
		}
		valueRef, err := c.valueRef(b.Prepend[path])
		if err != nil {
			return nil, err
		}
		c.setClauses = append(c.setClauses,
			fmt.Sprintf("%s = list_append(%s, if_not_exists(%s, %s))", ref, valueRef, ref, c.emptyListRef()))
	}

	for _, path := range b.Remove {
		ref, err := c.pathRef(path)
		if err != nil {
			return nil, err
		}
		c.removeClauses = append(c.removeClauses, ref)
	}

	return c.compiled(), nil
}

type compiler struct {
	names         map[string]string
	nameAliases   map[string]string
	values        map[string]types.AttributeValue
	setClauses    []string
	removeClauses []string
	nameCounter   int
	valueCounter  int
}

// pathRef aliases every dot-separated segment of a path, keeping a trailing
// [i] index verbatim on its segment's alias. Repeated segments reuse their alias.
func (c *compiler) pathRef(path string) (string, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err)
	}

	segments := strings.Split(path, ".")
	refs := make([]string, len(segments))
	for i, segment := range segments {
		name, suffix, err := validation.SplitIndex(segment)
		if err != nil {
			return "", fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err)
		}
		refs[i] = c.nameRef(name) + suffix
	}
	return strings.Join(refs, "."), nil
}

func (c *compiler) nameRef(name string) string {
	if alias, ok := c.nameAliases[name]; ok {
		return alias
	}
	alias := fmt.Sprintf("#a%d", c.nameCounter)
	c.nameCounter++
	c.names[alias] = name
	c.nameAliases[name] = alias
	return alias
}

func (c *compiler) valueRef(value any) (string, error) {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tserrors.ErrUnmarshalableValue, err)
	}
	alias := fmt.Sprintf(":a%d", c.valueCounter)
	c.valueCounter++
	c.values[alias] = av
	return alias, nil
}

func (c *compiler) emptyListRef() string {
	if _, ok := c.values[emptyListAlias]; !ok {
		c.values[emptyListAlias] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	}
	return emptyListAlias
}

func (c *compiler) compiled() *Compiled {
	var clauses []string
	if len(c.setClauses) > 0 {
		clauses = append(clauses, "set "+strings.Join(c.setClauses, ", "))
	}
	if len(c.removeClauses) > 0 {
		clauses = append(clauses, "remove "+strings.Join(c.removeClauses, ", "))
	}

	out := &Compiled{UpdateExpression: strings.Join(clauses, " ")}
	if len(c.names) > 0 {
		out.ExpressionAttributeNames = c.names
	}
	if len(c.values) > 0 {
		out.ExpressionAttributeValues = c.values
	}
	return out
}

// checkConflicts rejects a path listed in more than one section. The source
// of truth for which section wins would otherwise be silent and ambiguous.
func checkConflicts(b Body) error {
	seen := make(map[string]string)
	note := func(path, section string) error {
		if prev, ok := seen[path]; ok {
			return fmt.Errorf("%w: %q in both %s and %s", tserrors.ErrConflictingPath, path, prev, section)
		}
		seen[path] = section
		return nil
	}

	for _, path := range sortedKeys(b.Set) {
		if err := note(path, "set"); err != nil {
			return err
		}
	}
	for _, path := range b.Remove {
		if err := note(path, "remove"); err != nil {
			return err
		}
	}
	for _, path := range sortedKeys(b.Append) {
		if err := note(path, "append"); err != nil {
			return err
		}
	}
	for _, path := range sortedKeys(b.Prepend) {
		if err := note(path, "prepend"); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
