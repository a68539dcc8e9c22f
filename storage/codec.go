package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/tailored-agentic-units/dotstore/value"
)

// codec converts the whole record set to and from a file body.
type codec interface {
	name() string
	decode(data []byte) (*value.Mapping, error)
	encode(records *value.Mapping) ([]byte, error)
}

type jsonCodec struct{}

func (jsonCodec) name() string { return "json" }

func (jsonCodec) decode(data []byte) (*value.Mapping, error) {
	v, err := value.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.AsMapping()
	if !ok {
		return nil, fmt.Errorf("top level is %s, not an object", v.Kind())
	}
	return m, nil
}

func (jsonCodec) encode(records *value.Mapping) ([]byte, error) {
	return records.MarshalJSON()
}

type yamlCodec struct{}

func (yamlCodec) name() string { return "yaml" }

func (yamlCodec) decode(data []byte) (*value.Mapping, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	v, err := fromYAML(doc)
	if err != nil {
		return nil, err
	}
	m, ok := v.AsMapping()
	if !ok {
		return nil, fmt.Errorf("top level is %s, not a mapping", v.Kind())
	}
	return m, nil
}

func (yamlCodec) encode(records *value.Mapping) ([]byte, error) {
	return yaml.Marshal(toYAML(value.Map(records)))
}

func fromYAML(in any) (value.Value, error) {
	switch v := in.(type) {
	case yaml.MapSlice:
		m := value.NewMapping()
		for _, item := range v {
			key := fmt.Sprint(item.Key)
			child, err := fromYAML(item.Value)
			if err != nil {
				return value.Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m.Set(key, child)
		}
		return value.Map(m), nil
	case []any:
		items := make([]value.Value, 0, len(v))
		for i, item := range v {
			child, err := fromYAML(item)
			if err != nil {
				return value.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, child)
		}
		return value.List(items...), nil
	case time.Time:
		return value.String(v.Format(time.RFC3339Nano)), nil
	}
	return value.FromAny(in)
}

func toYAML(v value.Value) any {
	switch v.Kind() {
	case value.KindMapping:
		m, _ := v.AsMapping()
		if m.IsList() {
			out := make([]any, 0, m.Len())
			for _, item := range m.All() {
				out = append(out, toYAML(item))
			}
			return out
		}
		out := make(yaml.MapSlice, 0, m.Len())
		for key, item := range m.All() {
			out = append(out, yaml.MapItem{Key: key, Value: toYAML(item)})
		}
		return out
	case value.KindNumber:
		n, _ := v.AsNumber()
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	}
	return v.Any()
}
