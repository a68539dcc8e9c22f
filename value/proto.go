package value

import (
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto converts v into a protobuf well-known Value. List-like mappings
// become ListValues.
func ToProto(v Value) *structpb.Value {
	switch v.kind {
	case KindBool:
		return structpb.NewBoolValue(v.b)
	case KindNumber:
		return structpb.NewNumberValue(v.n)
	case KindString:
		return structpb.NewStringValue(v.s)
	case KindMapping:
		if v.m.IsList() {
			list := &structpb.ListValue{Values: make([]*structpb.Value, 0, v.m.Len())}
			for _, item := range v.m.All() {
				list.Values = append(list.Values, ToProto(item))
			}
			return structpb.NewListValue(list)
		}
		return structpb.NewStructValue(ToProtoStruct(v.m))
	}
	return structpb.NewNullValue()
}

// ToProtoStruct converts a mapping into a protobuf Struct.
func ToProtoStruct(m *Mapping) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, m.Len())}
	for key, item := range m.All() {
		out.Fields[key] = ToProto(item)
	}
	return out
}

// FromProto converts a protobuf Value. Struct fields carry no order on the
// wire, so their keys are inserted sorted.
func FromProto(pv *structpb.Value) Value {
	if pv == nil {
		return Null()
	}
	switch k := pv.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue)
	case *structpb.Value_NumberValue:
		return Number(k.NumberValue)
	case *structpb.Value_StringValue:
		return String(k.StringValue)
	case *structpb.Value_StructValue:
		return Map(FromProtoStruct(k.StructValue))
	case *structpb.Value_ListValue:
		items := make([]Value, 0, len(k.ListValue.GetValues()))
		for _, item := range k.ListValue.GetValues() {
			items = append(items, FromProto(item))
		}
		return List(items...)
	}
	return Null()
}

// FromProtoStruct converts a protobuf Struct into a mapping with sorted keys.
func FromProtoStruct(s *structpb.Struct) *Mapping {
	m := NewMapping()
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		m.Set(key, FromProto(fields[key]))
	}
	return m
}
