// Package expression compiles filter, condition, and key-condition
// expressions for DynamoDB requests.
//
// Builders are fluent state machines over two step types: an attribute step
// that expects a comparator, and a clause step that expects a conjunction or
// the terminal Query call. The type system enforces token order, so a
// comparison can never precede its attribute.
package expression

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// Kind selects the builder flavor. Flavors differ only by the populated
// output field and by their alias namespace prefix.
type Kind int

const (
	// KindScan compiles a FilterExpression for scan requests
	KindScan Kind = iota
	// KindCondition compiles a ConditionExpression for conditional writes
	KindCondition
	// KindIndex compiles a KeyConditionExpression for query requests
	KindIndex
	// KindFilter compiles a FilterExpression for query requests
	KindFilter
)

func (k Kind) prefix() string {
	switch k {
	case KindScan:
		return "___scan_"
	case KindCondition:
		return "___cond_"
	case KindIndex:
		return "___index_"
	default:
		return "___filter_"
	}
}

// Compiled is the wire-facing result of a builder. Exactly one of the three
// expression strings is populated, depending on the builder flavor. The
// attribute maps are nil when empty; DynamoDB rejects empty maps.
type Compiled struct {
	FilterExpression          string
	ConditionExpression       string
	KeyConditionExpression    string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
}

// Text returns whichever expression string this compile populated.
func (c *Compiled) Text() string {
	if c == nil {
		return ""
	}
	switch {
	case c.FilterExpression != "":
		return c.FilterExpression
	case c.ConditionExpression != "":
		return c.ConditionExpression
	default:
		return c.KeyConditionExpression
	}
}

func (k Kind) apply(c *Compiled, text string) {
	switch k {
	case KindCondition:
		c.ConditionExpression = text
	case KindIndex:
		c.KeyConditionExpression = text
	default:
		c.FilterExpression = text
	}
}
