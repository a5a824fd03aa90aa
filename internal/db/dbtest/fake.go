// Package dbtest is an in-memory stand-in for the DynamoDB tables this app uses.
// Tables are keyed by the string attribute PK. Condition and update expressions
// cover only the forms the app writes.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string]item

	// Err, when set, is returned from every call.
	Err error
}

func New() *Fake {
	return &Fake{tables: map[string]map[string]item{}}
}

// Item returns a copy of the stored item or nil.
func (f *Fake) Item(table, pk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.tables[table][pk]
	if !ok {
		return nil
	}
	return clone(it)
}

func (f *Fake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *Fake) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	it, ok := f.tables[aws.ToString(in.TableName)][pk]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: clone(it)}, nil
}

func (f *Fake) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	pk, err := keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	tbl := f.table(aws.ToString(in.TableName))
	if err := check(tbl[pk], aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	tbl[pk] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	tbl := f.table(aws.ToString(in.TableName))
	cur := tbl[pk]
	if err := check(cur, aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	if cur == nil {
		cur = clone(in.Key)
	}
	expr := strings.TrimSpace(aws.ToString(in.UpdateExpression))
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("dbtest: unsupported update %q", expr)
	}
	for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		name, val, ok := strings.Cut(assign, "=")
		if !ok {
			return nil, fmt.Errorf("dbtest: bad assignment %q", assign)
		}
		v, ok := in.ExpressionAttributeValues[strings.TrimSpace(val)]
		if !ok {
			return nil, fmt.Errorf("dbtest: missing value %s", val)
		}
		cur[strings.TrimSpace(name)] = v
	}
	tbl[pk] = cur
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	tbl := f.table(aws.ToString(in.TableName))
	if err := check(tbl[pk], aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	delete(tbl, pk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) table(name string) map[string]item {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]item{}
		f.tables[name] = t
	}
	return t
}

func keyOf(m item) (string, error) {
	s, ok := m["PK"].(*types.AttributeValueMemberS)
	if !ok || s.Value == "" {
		return "", errors.New("dbtest: missing PK")
	}
	return s.Value, nil
}

func clone(m item) item {
	out := make(item, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

// check evaluates clauses joined by OR.
func check(cur item, expr string, vals map[string]types.AttributeValue) error {
	if expr == "" {
		return nil
	}
	for _, clause := range strings.Split(expr, " OR ") {
		ok, err := eval(cur, strings.TrimSpace(clause), vals)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return conditionFailed()
}

func eval(cur item, clause string, vals map[string]types.AttributeValue) (bool, error) {
	switch {
	case strings.HasPrefix(clause, "attribute_not_exists(") && strings.HasSuffix(clause, ")"):
		name := strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")")
		_, exists := cur[name]
		return !exists, nil
	case strings.HasPrefix(clause, "attribute_exists(") && strings.HasSuffix(clause, ")"):
		name := strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")")
		_, exists := cur[name]
		return exists, nil
	case strings.Contains(clause, " < "):
		name, ref, _ := strings.Cut(clause, " < ")
		a, aok := num(cur[strings.TrimSpace(name)])
		b, bok := num(vals[strings.TrimSpace(ref)])
		return aok && bok && a < b, nil
	case strings.Contains(clause, " = "):
		name, ref, _ := strings.Cut(clause, " = ")
		a, aok := cur[strings.TrimSpace(name)].(*types.AttributeValueMemberS)
		b, bok := vals[strings.TrimSpace(ref)].(*types.AttributeValueMemberS)
		return aok && bok && a.Value == b.Value, nil
	default:
		return false, fmt.Errorf("dbtest: unsupported condition %q", clause)
	}
}

func num(av types.AttributeValue) (float64, bool) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.Value, 64)
	return f, err == nil
}
