// Package request assembles DynamoDB request inputs from compiled schema and
// expression artifacts. Assembly is pure construction: transport, retries,
// and table management belong to the store client, not here.
package request

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
	"github.com/tablescribe/tablescribe/pkg/expression"
	"github.com/tablescribe/tablescribe/pkg/schema"
	"github.com/tablescribe/tablescribe/pkg/update"
)

// MarshalRow converts a schema-normalized row into attribute values.
func MarshalRow(row map[string]any) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tserrors.ErrUnmarshalableValue, err)
	}
	return item, nil
}

// Put builds a PutItem input from a validated, schema-converted row. An
// optional condition guards the write.
func Put(t *schema.Table, row map[string]any, condition *expression.Compiled) (*dynamodb.PutItemInput, error) {
	converted, err := t.ConvertObjectToSchema(row)
	if err != nil {
		return nil, err
	}
	item, err := MarshalRow(converted)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.Name()),
		Item:      item,
	}
	if condition != nil {
		input.ConditionExpression = aws.String(condition.ConditionExpression)
		input.ExpressionAttributeNames = condition.ExpressionAttributeNames
		input.ExpressionAttributeValues = condition.ExpressionAttributeValues
	}
	return input, nil
}

// Update builds an UpdateItem input: the body is schema-converted, compiled,
// and paired with the row key.
func Update(t *schema.Table, key map[string]any, body update.Body) (*dynamodb.UpdateItemInput, error) {
	converted, err := t.ConvertUpdateObjectToSchema(body)
	if err != nil {
		return nil, err
	}
	compiled, err := update.Compile(converted)
	if err != nil {
		return nil, err
	}
	marshaledKey, err := MarshalRow(key)
	if err != nil {
		return nil, err
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.Name()),
		Key:                       marshaledKey,
		UpdateExpression:          aws.String(compiled.UpdateExpression),
		ExpressionAttributeNames:  compiled.ExpressionAttributeNames,
		ExpressionAttributeValues: compiled.ExpressionAttributeValues,
	}, nil
}

// Delete builds a DeleteItem input from a row key and optional condition.
func Delete(t *schema.Table, key map[string]any, condition *expression.Compiled) (*dynamodb.DeleteItemInput, error) {
	marshaledKey, err := MarshalRow(key)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name()),
		Key:       marshaledKey,
	}
	if condition != nil {
		input.ConditionExpression = aws.String(condition.ConditionExpression)
		input.ExpressionAttributeNames = condition.ExpressionAttributeNames
		input.ExpressionAttributeValues = condition.ExpressionAttributeValues
	}
	return input, nil
}

// Query builds a Query input from a compiled key condition and optional filter.
func Query(t *schema.Table, keyCondition, filter *expression.Compiled) (*dynamodb.QueryInput, error) {
	if keyCondition == nil || keyCondition.KeyConditionExpression == "" {
		return nil, fmt.Errorf("%w: query requires a key condition", tserrors.ErrBuilderState)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name()),
		KeyConditionExpression:    aws.String(keyCondition.KeyConditionExpression),
		ExpressionAttributeNames:  keyCondition.ExpressionAttributeNames,
		ExpressionAttributeValues: keyCondition.ExpressionAttributeValues,
	}
	if filter != nil && filter.FilterExpression != "" {
		input.FilterExpression = aws.String(filter.FilterExpression)
		mergeAliases(&input.ExpressionAttributeNames, &input.ExpressionAttributeValues, filter)
	}
	return input, nil
}

// Scan builds a Scan input from an optional compiled filter.
func Scan(t *schema.Table, filter *expression.Compiled) *dynamodb.ScanInput {
	input := &dynamodb.ScanInput{TableName: aws.String(t.Name())}
	if filter != nil && filter.FilterExpression != "" {
		input.FilterExpression = aws.String(filter.FilterExpression)
		input.ExpressionAttributeNames = filter.ExpressionAttributeNames
		input.ExpressionAttributeValues = filter.ExpressionAttributeValues
	}
	return input
}

// mergeAliases folds a second compiled expression's alias maps into request
// maps. Distinct builder prefixes make collisions impossible.
func mergeAliases(names *map[string]string, values *map[string]types.AttributeValue, c *expression.Compiled) {
	if len(c.ExpressionAttributeNames) > 0 {
		if *names == nil {
			*names = make(map[string]string, len(c.ExpressionAttributeNames))
		}
		for alias, raw := range c.ExpressionAttributeNames {
			(*names)[alias] = raw
		}
	}
	if len(c.ExpressionAttributeValues) > 0 {
		if *values == nil {
			*values = make(map[string]types.AttributeValue, len(c.ExpressionAttributeValues))
		}
		for alias, av := range c.ExpressionAttributeValues {
			(*values)[alias] = av
		}
	}
}
