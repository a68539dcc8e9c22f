package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/dotstore/document"
	"github.com/tailored-agentic-units/dotstore/dotpath"
	"github.com/tailored-agentic-units/dotstore/query"
	"github.com/tailored-agentic-units/dotstore/value"
)

// errInvalidArgument marks malformed requests.
var errInvalidArgument = errors.New("invalid argument")

type (
	request  = connect.Request[structpb.Struct]
	response = connect.Response[structpb.Value]
)

// service implements the document procedures over a shared collection.
// Mutations commit to the store immediately.
type service struct {
	docs *document.Collection
}

func (s *service) Get(_ context.Context, req *request) (*response, error) {
	d, path, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	def := value.FromProto(req.Msg.GetFields()[FieldDefault])
	return reply(d.Get(path, def)), nil
}

func (s *service) Has(_ context.Context, req *request) (*response, error) {
	d, path, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	return reply(value.Bool(d.Has(path))), nil
}

func (s *service) Set(_ context.Context, req *request) (*response, error) {
	d, path, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	raw, ok := req.Msg.GetFields()[FieldValue]
	if !ok {
		return nil, invalidArgument("missing field %q", FieldValue)
	}
	if err := d.Set(path, value.FromProto(raw)); err != nil {
		return nil, toConnectError(err)
	}
	return reply(value.Null()), nil
}

func (s *service) Delete(_ context.Context, req *request) (*response, error) {
	d, path, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := d.Delete(path); err != nil {
		return nil, toConnectError(err)
	}
	return reply(value.Null()), nil
}

func (s *service) Clear(_ context.Context, req *request) (*response, error) {
	d, _, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := d.Clear(); err != nil {
		return nil, toConnectError(err)
	}
	return reply(value.Null()), nil
}

func (s *service) Dump(_ context.Context, req *request) (*response, error) {
	d, _, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	return reply(d.Dump()), nil
}

func (s *service) Select(_ context.Context, req *request) (*response, error) {
	d, _, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	expr, err := stringField(req.Msg, FieldExpr, true)
	if err != nil {
		return nil, err
	}
	nodes, err := d.Select(expr)
	if err != nil {
		return nil, toConnectError(err)
	}
	return reply(value.List(nodes...)), nil
}

func (s *service) Eval(_ context.Context, req *request) (*response, error) {
	d, _, err := s.open(req.Msg)
	if err != nil {
		return nil, err
	}
	expr, err := stringField(req.Msg, FieldExpr, true)
	if err != nil {
		return nil, err
	}
	result, err := d.Eval(expr)
	if err != nil {
		return nil, toConnectError(err)
	}
	return reply(result), nil
}

func (s *service) List(_ context.Context, _ *request) (*response, error) {
	keys, err := s.docs.Keys()
	if err != nil {
		return nil, toConnectError(err)
	}
	items := make([]value.Value, len(keys))
	for i, key := range keys {
		items[i] = value.String(key)
	}
	return reply(value.List(items...)), nil
}

func (s *service) open(msg *structpb.Struct) (*document.Document, string, error) {
	name, err := stringField(msg, FieldDocument, true)
	if err != nil {
		return nil, "", err
	}
	path, err := stringField(msg, FieldPath, false)
	if err != nil {
		return nil, "", err
	}
	d, err := s.docs.Document(name)
	if err != nil {
		return nil, "", toConnectError(err)
	}
	return d, path, nil
}

func stringField(msg *structpb.Struct, name string, required bool) (string, error) {
	raw, ok := msg.GetFields()[name]
	if !ok {
		if required {
			return "", invalidArgument("missing field %q", name)
		}
		return "", nil
	}
	s, ok := raw.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalidArgument("field %q must be a string", name)
	}
	if required && s.StringValue == "" {
		return "", invalidArgument("field %q must not be empty", name)
	}
	return s.StringValue, nil
}

func reply(v value.Value) *response {
	return connect.NewResponse(value.ToProto(v))
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: "+format, append([]any{errInvalidArgument}, args...)...))
}

// toConnectError maps domain errors onto RPC codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, dotpath.ErrUnresolvablePath):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, query.ErrInvalidQuery), errors.Is(err, query.ErrInvalidExpression), errors.Is(err, value.ErrUnsupportedType), errors.Is(err, value.ErrNonFinite):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
