package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/value"
)

// DynamoDB item attribute names.
const (
	attrPartition = "pk"
	attrKey       = "sk"
	attrValue     = "value"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoDBStore.
type DynamoDBAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBStore keeps one record per item in a DynamoDB table. All records
// of a store share the partition key; the record key is the sort key. Open
// reads the whole partition and Close writes only what changed.
type DynamoDBStore struct {
	table
	client    DynamoDBAPI
	tableName string
	partition string
	observer  observability.Observer
}

func NewDynamoDBStore(client DynamoDBAPI, tableName, partition string, opts ...Option) *DynamoDBStore {
	o := buildOptions(opts)
	return &DynamoDBStore{
		table:     newTable("dynamodb:" + tableName + "/" + partition),
		client:    client,
		tableName: tableName,
		partition: partition,
		observer:  o.observer,
	}
}

func (s *DynamoDBStore) Open(ctx context.Context) error {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPartition,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: s.partition},
		},
	})

	records := value.NewMapping()
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("%w: query %s: %v", ErrIO, s.tableName, err)
		}
		for _, item := range page.Items {
			key, v, err := decodeItem(item)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, s.tableName, err)
			}
			records.Set(key, v)
		}
	}

	s.load(records)
	observability.Emit(ctx, s.observer, EventOpen, observability.LevelInfo, "storage.dynamodb", map[string]any{
		"table":     s.tableName,
		"partition": s.partition,
		"records":   records.Len(),
	})
	return nil
}

// Close puts every changed record and deletes every removed one. Keys that
// were flushed before a failure are not written again when Close is retried.
func (s *DynamoDBStore) Close(ctx context.Context) error {
	if !s.isOpen() {
		return nil
	}

	toSave, toDelete := s.pending()
	saved := make(map[string]value.Value, len(toSave))
	var deleted []string
	defer func() { s.settle(saved, deleted) }()

	for key, v := range toSave {
		av, err := attributevalue.Marshal(v.Any())
		if err != nil {
			return fmt.Errorf("%w: marshal %s: %v", ErrIO, key, err)
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item: map[string]types.AttributeValue{
				attrPartition: &types.AttributeValueMemberS{Value: s.partition},
				attrKey:       &types.AttributeValueMemberS{Value: key},
				attrValue:     av,
			},
		})
		if err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrIO, key, err)
		}
		saved[key] = v
	}

	for _, key := range toDelete {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       s.itemKey(key),
		})
		if err != nil {
			return fmt.Errorf("%w: delete %s: %v", ErrIO, key, err)
		}
		deleted = append(deleted, key)
	}

	s.close()
	observability.Emit(ctx, s.observer, EventClose, observability.LevelInfo, "storage.dynamodb", map[string]any{
		"table":   s.tableName,
		"saved":   len(saved),
		"deleted": len(deleted),
	})
	return nil
}

func (s *DynamoDBStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartition: &types.AttributeValueMemberS{Value: s.partition},
		attrKey:       &types.AttributeValueMemberS{Value: key},
	}
}

func decodeItem(item map[string]types.AttributeValue) (string, value.Value, error) {
	sk, ok := item[attrKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", value.Value{}, fmt.Errorf("item without string %q attribute", attrKey)
	}

	var raw any
	if av, ok := item[attrValue]; ok {
		if err := attributevalue.Unmarshal(av, &raw); err != nil {
			return "", value.Value{}, fmt.Errorf("key %q: %w", sk.Value, err)
		}
	}

	v, err := value.FromAny(raw)
	if err != nil {
		return "", value.Value{}, fmt.Errorf("key %q: %w", sk.Value, err)
	}
	return sk.Value, v, nil
}
