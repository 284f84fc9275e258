package expression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/validation"
)

// Aliaser assigns collision-free placeholder aliases to raw attribute names
// and values within one compile session. Name aliases are formatted
// "#<prefix>NC<i>" and value aliases ":<prefix>VC<i>"; the prefix namespaces
// independently built expressions so they can be merged without collisions.
type Aliaser struct {
	prefix       string
	names        map[string]string // alias -> raw segment
	nameAliases  map[string]string // raw segment -> alias
	values       map[string]types.AttributeValue // alias -> value
	valueAliases map[string]string // dedup key -> alias
	nameCounter  int
	valueCounter int
}

// NewAliaser creates an empty aliaser for the given namespace prefix.
func NewAliaser(prefix string) *Aliaser {
	return &Aliaser{
		prefix:       prefix,
		names:        make(map[string]string),
		nameAliases:  make(map[string]string),
		values:       make(map[string]types.AttributeValue),
		valueAliases: make(map[string]string),
	}
}

// AddName registers a dotted attribute path and returns one alias per
// segment. A raw segment receives exactly one alias per aliaser; repeated
// segments reuse it. A trailing [i] list index stays verbatim on the alias.
func (a *Aliaser) AddName(raw string) ([]string, error) {
	if err := validation.ValidatePath(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err)
	}

	segments := strings.Split(raw, ".")
	aliases := make([]string, len(segments))
	for i, segment := range segments {
		name, suffix, err := validation.SplitIndex(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err)
		}
		aliases[i] = a.addSegment(name) + suffix
	}
	return aliases, nil
}

func (a *Aliaser) addSegment(name string) string {
	if alias, ok := a.nameAliases[name]; ok {
		return alias
	}
	alias := fmt.Sprintf("#%sNC%d", a.prefix, a.nameCounter)
	a.nameCounter++
	a.names[alias] = name
	a.nameAliases[name] = alias
	return alias
}

// AddValue registers a raw value and returns its alias. Scalar values are
// deduplicated on a type-aware key so a numeric 5 and the string "5" never
// share an alias; composite values always allocate a fresh alias.
func (a *Aliaser) AddValue(value any) (string, error) {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tserrors.ErrUnmarshalableValue, err)
	}
	return a.addAttributeValue(av), nil
}

func (a *Aliaser) addAttributeValue(av types.AttributeValue) string {
	key, dedup := dedupKey(av)
	if dedup {
		if alias, ok := a.valueAliases[key]; ok {
			return alias
		}
	}
	alias := fmt.Sprintf(":%sVC%d", a.prefix, a.valueCounter)
	a.valueCounter++
	a.values[alias] = av
	if dedup {
		a.valueAliases[key] = alias
	}
	return alias
}

// dedupKey derives a type-aware deduplication key from a marshaled value.
// Only scalar members dedup; lists, maps, sets, and binary values do not.
func dedupKey(av types.AttributeValue) (string, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S|" + v.Value, true
	case *types.AttributeValueMemberN:
		return "N|" + v.Value, true
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("BOOL|%t", v.Value), true
	case *types.AttributeValueMemberNULL:
		return "NULL", true
	}
	return "", false
}

// Names returns the alias-to-raw-name map, nil when no name was registered.
// DynamoDB rejects requests carrying empty attribute maps.
func (a *Aliaser) Names() map[string]string {
	if len(a.names) == 0 {
		return nil
	}
	return a.names
}

// Values returns the alias-to-value map, nil when no value was registered.
func (a *Aliaser) Values() map[string]types.AttributeValue {
	if len(a.values) == 0 {
		return nil
	}
	return a.values
}

// Merge re-registers every alias of a previously compiled expression into
// this aliaser and returns the foreign-to-local remapping for both names and
// values. A foreign name alias whose raw name splits into more than one local
// alias cannot be represented and fails the merge.
func (a *Aliaser) Merge(prev *Compiled) (changedNames, changedValues map[string]string, err error) {
	changedNames = make(map[string]string)
	changedValues = make(map[string]string)

	for _, alias := range sortedKeys(prev.ExpressionAttributeNames) {
		raw := prev.ExpressionAttributeNames[alias]
		local, addErr := a.AddName(raw)
		if addErr != nil {
			return nil, nil, addErr
		}
		if len(local) != 1 {
			return nil, nil, fmt.Errorf("%w: alias %s maps to %q", tserrors.ErrAliasCollision, alias, raw)
		}
		changedNames[alias] = local[0]
	}

	for _, alias := range sortedKeys(prev.ExpressionAttributeValues) {
		changedValues[alias] = a.addAttributeValue(prev.ExpressionAttributeValues[alias])
	}
	return changedNames, changedValues, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
