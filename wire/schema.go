package wire

import (
	"fmt"

	"github.com/anirudhraja/iwalite/registry"
	"github.com/anirudhraja/iwalite/schema"
)

// DecodeWithSchema decodes m into a map keyed by field name using msg.
// Repeated and map fields become slices and maps; singular fields take
// their last occurrence. Fields absent from the schema are skipped, and
// fields of unresolved types are returned as raw bytes.
func DecodeWithSchema(m *Message, msg *schema.Message, reg *registry.Registry) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, n := range m.Fields() {
		field := msg.FieldByNumber(int32(n))
		if field == nil {
			continue
		}

		if field.Type.Kind == schema.KindMap {
			value, err := decodeMapField(m, n, &field.Type, reg)
			if err != nil {
				return nil, fmt.Errorf("failed to decode map field %s: %w", field.Name, err)
			}
			result[field.Name] = value
			continue
		}

		values, err := decodeTypedField(m, n, &field.Type, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", field.Name, err)
		}
		if len(values) == 0 {
			continue
		}
		if field.Label == schema.LabelRepeated {
			result[field.Name] = values
		} else {
			result[field.Name] = values[len(values)-1]
		}
	}

	return result, nil
}

// decodeTypedField routes to the accessor matching the declared field type.
// Returned errors carry n in their field path.
func decodeTypedField(m *Message, n FieldNumber, fieldType *schema.FieldType, reg *registry.Registry) ([]interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return decodePrimitive(m, n, fieldType.PrimitiveType)
	case schema.KindEnum:
		f, err := m.Uint64(n)
		if err != nil {
			return nil, err
		}
		var enum *schema.Enum
		if reg != nil {
			enum, _ = reg.GetEnum(fieldType.EnumType)
		}
		return convert(f, func(v uint64) interface{} {
			if enum != nil {
				if name, ok := enum.ValueName(int32(v)); ok {
					return name
				}
			}
			return int32(v)
		}), nil
	case schema.KindMessage:
		if reg == nil {
			return nil, wrapWithField(fmt.Errorf("no registry to resolve %s", fieldType.MessageType), n)
		}
		nested, err := reg.GetMessage(fieldType.MessageType)
		if err != nil {
			return nil, wrapWithField(err, n)
		}
		f, err := m.Message(n)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, 0, f.Len())
		for _, child := range f.values {
			v, err := DecodeWithSchema(child, nested, reg)
			if err != nil {
				return nil, wrapWithField(err, n)
			}
			values = append(values, v)
		}
		return values, nil
	default:
		f, err := m.Bytes(n)
		if err != nil {
			return nil, err
		}
		return convert(f, func(v []byte) interface{} { return v }), nil
	}
}

// decodePrimitive decodes a primitive type using the appropriate accessor
func decodePrimitive(m *Message, n FieldNumber, primitiveType schema.PrimitiveType) ([]interface{}, error) {
	switch primitiveType {
	case schema.TypeInt32:
		return decodeAs(m.Uint64, n, func(v uint64) interface{} { return int32(v) })
	case schema.TypeInt64:
		return decodeAs(m.Uint64, n, func(v uint64) interface{} { return int64(v) })
	case schema.TypeUint32:
		return decodeAs(m.Uint32, n, func(v uint32) interface{} { return v })
	case schema.TypeUint64:
		return decodeAs(m.Uint64, n, func(v uint64) interface{} { return v })
	case schema.TypeSint32:
		return decodeAs(m.Sint32, n, func(v int32) interface{} { return v })
	case schema.TypeSint64:
		return decodeAs(m.Sint64, n, func(v int64) interface{} { return v })
	case schema.TypeBool:
		return decodeAs(m.Bool, n, func(v bool) interface{} { return v })
	case schema.TypeFixed64:
		return decodeAs(m.Fixed64, n, func(v uint64) interface{} { return v })
	case schema.TypeSfixed64:
		return decodeAs(m.Fixed64, n, func(v uint64) interface{} { return int64(v) })
	case schema.TypeDouble:
		return decodeAs(m.Double, n, func(v float64) interface{} { return v })
	case schema.TypeFixed32:
		return decodeAs(m.Fixed32, n, func(v uint32) interface{} { return v })
	case schema.TypeSfixed32:
		return decodeAs(m.Fixed32, n, func(v uint32) interface{} { return int32(v) })
	case schema.TypeFloat:
		return decodeAs(m.Float, n, func(v float32) interface{} { return v })
	case schema.TypeString:
		return decodeAs(m.String, n, func(v string) interface{} { return v })
	case schema.TypeBytes:
		return decodeAs(m.Bytes, n, func(v []byte) interface{} { return v })
	default:
		return nil, wrapWithField(fmt.Errorf("unsupported primitive type %s", primitiveType), n)
	}
}

// decodeMapField decodes the repeated entry messages of a map field
func decodeMapField(m *Message, n FieldNumber, fieldType *schema.FieldType, reg *registry.Registry) (map[string]interface{}, error) {
	entries, err := m.Message(n)
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, entries.Len())
	for _, entry := range entries.values {
		keys, err := decodeTypedField(entry, 1, fieldType.MapKey, reg)
		if err != nil {
			return nil, wrapWithField(fmt.Errorf("failed to decode map key: %w", err), n)
		}
		values, err := decodeTypedField(entry, 2, fieldType.MapValue, reg)
		if err != nil {
			return nil, wrapWithField(fmt.Errorf("failed to decode map value: %w", err), n)
		}

		var key, value interface{} = "", nil
		if len(keys) > 0 {
			key = keys[len(keys)-1]
		}
		if len(values) > 0 {
			value = values[len(values)-1]
		}
		result[fmt.Sprint(key)] = value
	}
	return result, nil
}

func decodeAs[T any](accessor func(FieldNumber) (*Field[T], error), n FieldNumber, conv func(T) interface{}) ([]interface{}, error) {
	f, err := accessor(n)
	if err != nil {
		return nil, err
	}
	return convert(f, conv), nil
}

func convert[T any](f *Field[T], conv func(T) interface{}) []interface{} {
	values := make([]interface{}, 0, f.Len())
	for _, v := range f.values {
		values = append(values, conv(v))
	}
	return values
}
