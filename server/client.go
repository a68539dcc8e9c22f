package server

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/dotstore/value"
)

// Client calls a document service.
type Client struct {
	get, has, set, del, clear, dump, sel, eval, list *connect.Client[structpb.Struct, structpb.Value]
}

// NewClient creates a Client for the service at baseURL (for example
// "http://127.0.0.1:8420"). A nil httpClient uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	newClient := func(procedure string) *connect.Client[structpb.Struct, structpb.Value] {
		return connect.NewClient[structpb.Struct, structpb.Value](httpClient, baseURL+procedure, opts...)
	}
	return &Client{
		get:   newClient(GetProcedure),
		has:   newClient(HasProcedure),
		set:   newClient(SetProcedure),
		del:   newClient(DeleteProcedure),
		clear: newClient(ClearProcedure),
		dump:  newClient(DumpProcedure),
		sel:   newClient(SelectProcedure),
		eval:  newClient(EvalProcedure),
		list:  newClient(ListProcedure),
	}
}

func (c *Client) Get(ctx context.Context, doc, path string, def value.Value) (value.Value, error) {
	fields := docFields(doc, path)
	fields[FieldDefault] = value.ToProto(def)
	return call(ctx, c.get, fields)
}

func (c *Client) Has(ctx context.Context, doc, path string) (bool, error) {
	v, err := call(ctx, c.has, docFields(doc, path))
	if err != nil {
		return false, err
	}
	b, _ := v.AsBool()
	return b, nil
}

func (c *Client) Set(ctx context.Context, doc, path string, v value.Value) error {
	fields := docFields(doc, path)
	fields[FieldValue] = value.ToProto(v)
	_, err := call(ctx, c.set, fields)
	return err
}

func (c *Client) Delete(ctx context.Context, doc, path string) error {
	_, err := call(ctx, c.del, docFields(doc, path))
	return err
}

func (c *Client) Clear(ctx context.Context, doc string) error {
	_, err := call(ctx, c.clear, docFields(doc, ""))
	return err
}

func (c *Client) Dump(ctx context.Context, doc string) (value.Value, error) {
	return call(ctx, c.dump, docFields(doc, ""))
}

// Select runs a JSONPath query against doc and returns the matched nodes.
func (c *Client) Select(ctx context.Context, doc, expr string) ([]value.Value, error) {
	fields := docFields(doc, "")
	fields[FieldExpr] = structpb.NewStringValue(expr)
	v, err := call(ctx, c.sel, fields)
	if err != nil {
		return nil, err
	}
	m, ok := v.AsMapping()
	if !ok {
		return nil, nil
	}
	nodes := make([]value.Value, 0, m.Len())
	for _, node := range m.All() {
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (c *Client) Eval(ctx context.Context, doc, expression string) (value.Value, error) {
	fields := docFields(doc, "")
	fields[FieldExpr] = structpb.NewStringValue(expression)
	return call(ctx, c.eval, fields)
}

// List returns the names of stored documents.
func (c *Client) List(ctx context.Context) ([]string, error) {
	v, err := call(ctx, c.list, map[string]*structpb.Value{})
	if err != nil {
		return nil, err
	}
	m, ok := v.AsMapping()
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, m.Len())
	for _, item := range m.All() {
		s, _ := item.AsString()
		names = append(names, s)
	}
	return names, nil
}

func docFields(doc, path string) map[string]*structpb.Value {
	fields := map[string]*structpb.Value{
		FieldDocument: structpb.NewStringValue(doc),
	}
	if path != "" {
		fields[FieldPath] = structpb.NewStringValue(path)
	}
	return fields
}

func call(ctx context.Context, client *connect.Client[structpb.Struct, structpb.Value], fields map[string]*structpb.Value) (value.Value, error) {
	res, err := client.CallUnary(ctx, connect.NewRequest(&structpb.Struct{Fields: fields}))
	if err != nil {
		return value.Null(), err
	}
	return value.FromProto(res.Msg), nil
}
