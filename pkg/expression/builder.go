package expression

import (
	"fmt"
	"sort"
	"strings"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/validation"
)

// builder carries the shared compile state for one expression. Steps hold a
// pointer to it and hand off to the next step type; the first error sticks
// and surfaces from Query.
type builder struct {
	kind    Kind
	aliaser *Aliaser
	expr    strings.Builder
	err     error
}

// AttributeStep is the builder state holding a pending attribute, waiting
// for a comparator.
type AttributeStep struct {
	b       *builder
	nameRef string
}

// ClauseStep is the builder state after a complete clause, waiting for a
// conjunction or the terminal Query call.
type ClauseStep struct {
	b *builder
}

// Scan starts a FilterExpression builder for scan requests.
func Scan(name string) *AttributeStep { return start(KindScan, name) }

// Condition starts a ConditionExpression builder for conditional writes.
func Condition(name string) *AttributeStep { return start(KindCondition, name) }

// Index starts a KeyConditionExpression builder. Key conditions use raw
// attribute names; the key-condition grammar disallows nested name aliases.
func Index(name string) *AttributeStep { return start(KindIndex, name) }

// Filter starts a FilterExpression builder for query requests.
func Filter(name string) *AttributeStep { return start(KindFilter, name) }

// ScanFrom continues from a previously compiled expression. With inclusive
// set, the prior text is parenthesized so it evaluates as one group before
// further conjunctions apply.
func ScanFrom(prev *Compiled, inclusive bool) *ClauseStep {
	return from(KindScan, prev, inclusive)
}

// ConditionFrom continues a condition expression from a compiled one.
func ConditionFrom(prev *Compiled, inclusive bool) *ClauseStep {
	return from(KindCondition, prev, inclusive)
}

// IndexFrom continues a key-condition expression from a compiled one.
func IndexFrom(prev *Compiled, inclusive bool) *ClauseStep {
	return from(KindIndex, prev, inclusive)
}

// FilterFrom continues a filter expression from a compiled one.
func FilterFrom(prev *Compiled, inclusive bool) *ClauseStep {
	return from(KindFilter, prev, inclusive)
}

func start(kind Kind, name string) *AttributeStep {
	b := &builder{kind: kind, aliaser: NewAliaser(kind.prefix())}
	return b.attribute(name)
}

func from(kind Kind, prev *Compiled, inclusive bool) *ClauseStep {
	b := &builder{kind: kind, aliaser: NewAliaser(kind.prefix())}
	step := &ClauseStep{b: b}
	if prev == nil || prev.Text() == "" {
		return step
	}
	text, err := b.merge(prev)
	if err != nil {
		b.fail(err)
		return step
	}
	if inclusive {
		text = "(" + text + ")"
	}
	b.expr.WriteString(text)
	return step
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) attribute(name string) *AttributeStep {
	step := &AttributeStep{b: b}
	if b.kind == KindIndex {
		if err := validation.ValidatePath(name); err != nil {
			b.fail(fmt.Errorf("%w: %v", tserrors.ErrInvalidPath, err))
			return step
		}
		step.nameRef = name
		return step
	}
	aliases, err := b.aliaser.AddName(name)
	if err != nil {
		b.fail(err)
		return step
	}
	step.nameRef = strings.Join(aliases, ".")
	return step
}

// merge folds a compiled expression's aliases into this builder and returns
// its text with every foreign alias rewritten to the local one. Replacement
// runs in a single pass with longest aliases first, so #NC1 never clobbers
// the prefix of #NC10 and alias swaps cannot corrupt each other.
func (b *builder) merge(prev *Compiled) (string, error) {
	changedNames, changedValues, err := b.aliaser.Merge(prev)
	if err != nil {
		return "", err
	}

	pairs := make([][2]string, 0, len(changedNames)+len(changedValues))
	for from, to := range changedNames {
		if from != to {
			pairs = append(pairs, [2]string{from, to})
		}
	}
	for from, to := range changedValues {
		if from != to {
			pairs = append(pairs, [2]string{from, to})
		}
	}
	if len(pairs) == 0 {
		return prev.Text(), nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i][0]) != len(pairs[j][0]) {
			return len(pairs[i][0]) > len(pairs[j][0])
		}
		return pairs[i][0] < pairs[j][0]
	})
	oldnew := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		oldnew = append(oldnew, p[0], p[1])
	}
	return strings.NewReplacer(oldnew...).Replace(prev.Text()), nil
}

// Equals appends "<attr>=<value>".
func (s *AttributeStep) Equals(value any) *ClauseStep { return s.compare("=", value) }

// DoesNotEqual appends "<attr><><value>".
func (s *AttributeStep) DoesNotEqual(value any) *ClauseStep { return s.compare("<>", value) }

// Contains appends "contains(<attr>,<value>)".
func (s *AttributeStep) Contains(value any) *ClauseStep {
	valueRef, ok := s.addValue(value)
	if ok {
		s.b.expr.WriteString(fmt.Sprintf("contains(%s,%s)", s.nameRef, valueRef))
	}
	return &ClauseStep{b: s.b}
}

// Exists appends "attribute_exists(<attr>)".
func (s *AttributeStep) Exists() *ClauseStep {
	if s.b.err == nil {
		s.b.expr.WriteString(fmt.Sprintf("attribute_exists(%s)", s.nameRef))
	}
	return &ClauseStep{b: s.b}
}

// DoesNotExist appends "attribute_not_exists(<attr>)".
func (s *AttributeStep) DoesNotExist() *ClauseStep {
	if s.b.err == nil {
		s.b.expr.WriteString(fmt.Sprintf("attribute_not_exists(%s)", s.nameRef))
	}
	return &ClauseStep{b: s.b}
}

// IsBetween appends "<attr> BETWEEN <lo> AND <hi>".
func (s *AttributeStep) IsBetween(lo, hi any) *ClauseStep {
	loRef, ok := s.addValue(lo)
	if !ok {
		return &ClauseStep{b: s.b}
	}
	hiRef, ok := s.addValue(hi)
	if ok {
		s.b.expr.WriteString(fmt.Sprintf("%s BETWEEN %s AND %s", s.nameRef, loRef, hiRef))
	}
	return &ClauseStep{b: s.b}
}

// EqualsAny appends OR-joined equals clauses over the same attribute, one
// value alias per element. A lone value, or a one-element slice, collapses
// to a plain equals clause.
func (s *AttributeStep) EqualsAny(values ...any) *ClauseStep {
	return s.spread(" OR ", func(valueRef string) string {
		return s.nameRef + "=" + valueRef
	}, values)
}

// DoesNotEqualAll appends AND-joined not-equals clauses over the same attribute.
func (s *AttributeStep) DoesNotEqualAll(values ...any) *ClauseStep {
	return s.spread(" AND ", func(valueRef string) string {
		return s.nameRef + "<>" + valueRef
	}, values)
}

// ContainsAny appends OR-joined contains clauses over the same attribute.
func (s *AttributeStep) ContainsAny(values ...any) *ClauseStep {
	return s.spread(" OR ", func(valueRef string) string {
		return fmt.Sprintf("contains(%s,%s)", s.nameRef, valueRef)
	}, values)
}

func (s *AttributeStep) compare(op string, value any) *ClauseStep {
	valueRef, ok := s.addValue(value)
	if ok {
		s.b.expr.WriteString(s.nameRef + op + valueRef)
	}
	return &ClauseStep{b: s.b}
}

func (s *AttributeStep) spread(sep string, clause func(valueRef string) string, values []any) *ClauseStep {
	values = flattenValues(values)
	if len(values) == 0 {
		s.b.fail(fmt.Errorf("%w: value list cannot be empty", tserrors.ErrBuilderState))
		return &ClauseStep{b: s.b}
	}
	clauses := make([]string, 0, len(values))
	for _, v := range values {
		valueRef, ok := s.addValue(v)
		if !ok {
			return &ClauseStep{b: s.b}
		}
		clauses = append(clauses, clause(valueRef))
	}
	s.b.expr.WriteString(strings.Join(clauses, sep))
	return &ClauseStep{b: s.b}
}

func (s *AttributeStep) addValue(value any) (string, bool) {
	if s.b.err != nil {
		return "", false
	}
	valueRef, err := s.b.aliaser.AddValue(value)
	if err != nil {
		s.b.fail(err)
		return "", false
	}
	return valueRef, true
}

// flattenValues unwraps a single slice argument so callers can pass either a
// lone value, several values, or one slice of values.
func flattenValues(values []any) []any {
	if len(values) != 1 {
		return values
	}
	switch v := values[0].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	}
	return values
}

// And appends " AND " and re-enters the attribute state on a new name.
func (s *ClauseStep) And(name string) *AttributeStep {
	if s.b.err == nil && s.b.expr.Len() > 0 {
		s.b.expr.WriteString(" AND ")
	}
	return s.b.attribute(name)
}

// Or appends " OR " and re-enters the attribute state on a new name.
func (s *ClauseStep) Or(name string) *AttributeStep {
	if s.b.err == nil && s.b.expr.Len() > 0 {
		s.b.expr.WriteString(" OR ")
	}
	return s.b.attribute(name)
}

// AndExpression merges a previously compiled expression as an AND-joined
// sub-clause, re-aliased into this builder. A nil or empty expression is
// treated as absent and the left side stands alone.
func (s *ClauseStep) AndExpression(prev *Compiled) *ClauseStep {
	return s.splice(" AND ", prev)
}

// OrExpression merges a previously compiled expression as an OR-joined sub-clause.
func (s *ClauseStep) OrExpression(prev *Compiled) *ClauseStep {
	return s.splice(" OR ", prev)
}

func (s *ClauseStep) splice(sep string, prev *Compiled) *ClauseStep {
	if s.b.err != nil || prev == nil || prev.Text() == "" {
		return s
	}
	text, err := s.b.merge(prev)
	if err != nil {
		s.b.fail(err)
		return s
	}
	if s.b.expr.Len() > 0 {
		s.b.expr.WriteString(sep)
	}
	s.b.expr.WriteString(text)
	return s
}

// Query terminates the builder and returns the compiled expression, or the
// first error recorded during construction.
func (s *ClauseStep) Query() (*Compiled, error) {
	if s.b.err != nil {
		return nil, s.b.err
	}
	c := &Compiled{
		ExpressionAttributeNames:  s.b.aliaser.Names(),
		ExpressionAttributeValues: s.b.aliaser.Values(),
	}
	s.b.kind.apply(c, s.b.expr.String())
	return c, nil
}
