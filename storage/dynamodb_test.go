package storage_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tailored-agentic-units/dotstore/storage"
	"github.com/tailored-agentic-units/dotstore/value"
)

type fakeDynamoDB struct {
	pageSize   int
	partitions map[string]map[string]map[string]types.AttributeValue
	queries    int
	puts       []string
	deletes    []string
	putErr     error
	queryErr   error
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{
		pageSize:   1,
		partitions: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func (f *fakeDynamoDB) seed(t *testing.T, pk, sk string, v any) {
	t.Helper()
	av, err := attributevalue.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	f.put(map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: pk},
		"sk":    &types.AttributeValueMemberS{Value: sk},
		"value": av,
	})
}

func (f *fakeDynamoDB) put(item map[string]types.AttributeValue) {
	pk := item["pk"].(*types.AttributeValueMemberS).Value
	sk := item["sk"].(*types.AttributeValueMemberS).Value
	if f.partitions[pk] == nil {
		f.partitions[pk] = make(map[string]map[string]types.AttributeValue)
	}
	f.partitions[pk][sk] = item
}

func (f *fakeDynamoDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	items := f.partitions[pk]
	keys := make([]string, 0, len(items))
	for sk := range items {
		keys = append(keys, sk)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := in.ExclusiveStartKey["sk"].(*types.AttributeValueMemberS).Value
		start = sort.SearchStrings(keys, after) + 1
	}
	end := min(start+f.pageSize, len(keys))

	out := &dynamodb.QueryOutput{}
	for _, sk := range keys[start:end] {
		out.Items = append(out.Items, items[sk])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
			"sk": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put(in.Item)
	f.puts = append(f.puts, in.Item["sk"].(*types.AttributeValueMemberS).Value)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	pk := in.Key["pk"].(*types.AttributeValueMemberS).Value
	sk := in.Key["sk"].(*types.AttributeValueMemberS).Value
	delete(f.partitions[pk], sk)
	f.deletes = append(f.deletes, sk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoDBStore_Open_LoadsPartitionAcrossPages(t *testing.T) {
	client := newFakeDynamoDB()
	client.seed(t, "docs", "a", "first")
	client.seed(t, "docs", "b", map[string]any{"n": 2})
	client.seed(t, "docs", "c", nil)
	client.seed(t, "other", "x", "elsewhere")

	s := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, s)

	if client.queries != 3 {
		t.Errorf("got %d queries, want 3 pages", client.queries)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("Keys() = %v, want [a b c]", keys)
	}
	if got := mustGet(t, s, "b"); got.String() != `{"n":2}` {
		t.Errorf("Get(b) = %s, want {\"n\":2}", got)
	}
	if has, _ := s.Has("c"); !has {
		t.Error("Has(c) = false, want true for a null record")
	}
	if has, _ := s.Has("x"); has {
		t.Error("Has(x) = true, record belongs to another partition")
	}
}

func TestDynamoDBStore_Close_FlushesChanges(t *testing.T) {
	client := newFakeDynamoDB()
	client.seed(t, "docs", "keep", "unchanged")
	client.seed(t, "docs", "drop", "gone soon")

	s := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, s)

	mustSet(t, s, "new", value.MustFromAny(map[string]any{"tags": []any{"x", "y"}}))
	if err := s.Delete("drop"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	mustClose(t, s)

	if len(client.puts) != 1 || client.puts[0] != "new" {
		t.Errorf("puts = %v, want [new]", client.puts)
	}
	if len(client.deletes) != 1 || client.deletes[0] != "drop" {
		t.Errorf("deletes = %v, want [drop]", client.deletes)
	}

	reopened := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, reopened)
	if got := mustGet(t, reopened, "new"); got.String() != `{"tags":["x","y"]}` {
		t.Errorf("Get(new) = %s, want {\"tags\":[\"x\",\"y\"]}", got)
	}
	if has, _ := reopened.Has("drop"); has {
		t.Error("Has(drop) = true after flush")
	}
}

func TestDynamoDBStore_Close_Clear(t *testing.T) {
	client := newFakeDynamoDB()
	client.seed(t, "docs", "a", 1)
	client.seed(t, "docs", "b", 2)

	s := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, s)
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	mustClose(t, s)

	if len(client.deletes) != 2 {
		t.Errorf("deletes = %v, want [a b]", client.deletes)
	}
	if len(client.partitions["docs"]) != 0 {
		t.Errorf("partition still holds %d items", len(client.partitions["docs"]))
	}
}

func TestDynamoDBStore_Close_NoChanges(t *testing.T) {
	client := newFakeDynamoDB()
	client.seed(t, "docs", "a", 1)

	s := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, s)
	mustClose(t, s)

	if len(client.puts) != 0 || len(client.deletes) != 0 {
		t.Errorf("puts = %v, deletes = %v; want none", client.puts, client.deletes)
	}
}

func TestDynamoDBStore_Close_PutFailureKeepsOpen(t *testing.T) {
	client := newFakeDynamoDB()
	s := storage.NewDynamoDBStore(client, "table", "docs")
	mustOpen(t, s)
	mustSet(t, s, "a", value.Int(1))

	client.putErr = errors.New("throttled")
	if err := s.Close(context.Background()); !errors.Is(err, storage.ErrIO) {
		t.Fatalf("Close() error = %v, want ErrIO", err)
	}
	if _, err := s.Get("a"); err != nil {
		t.Fatalf("Get() after failed Close() error = %v", err)
	}

	client.putErr = nil
	mustClose(t, s)
	if len(client.puts) != 1 {
		t.Errorf("puts = %v, want [a]", client.puts)
	}
}

func TestDynamoDBStore_Open_QueryFailure(t *testing.T) {
	client := newFakeDynamoDB()
	client.queryErr = errors.New("unavailable")

	s := storage.NewDynamoDBStore(client, "table", "docs")
	if err := s.Open(context.Background()); !errors.Is(err, storage.ErrIO) {
		t.Errorf("Open() error = %v, want ErrIO", err)
	}
}

func TestDynamoDBStore_Open_MalformedItem(t *testing.T) {
	client := newFakeDynamoDB()
	client.partitions["docs"] = map[string]map[string]types.AttributeValue{
		"bad": {
			"pk": &types.AttributeValueMemberS{Value: "docs"},
			"sk": &types.AttributeValueMemberN{Value: "1"},
		},
	}

	s := storage.NewDynamoDBStore(client, "table", "docs")
	if err := s.Open(context.Background()); !errors.Is(err, storage.ErrInvalidFormat) {
		t.Errorf("Open() error = %v, want ErrInvalidFormat", err)
	}
}

func TestDynamoDBStore_BeforeOpen(t *testing.T) {
	s := storage.NewDynamoDBStore(newFakeDynamoDB(), "table", "docs")

	if err := s.Set("a", value.Int(1)); !errors.Is(err, storage.ErrNotOpened) {
		t.Errorf("Set() error = %v, want ErrNotOpened", err)
	}
}
