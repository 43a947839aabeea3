package wire

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/iwalite/registry"
	"github.com/anirudhraja/iwalite/schema"
)

func primitiveField(name string, number int32, t schema.PrimitiveType, label schema.FieldLabel) *schema.Field {
	return &schema.Field{
		Name:   name,
		Number: number,
		Label:  label,
		Type: schema.FieldType{
			Kind:          schema.KindPrimitive,
			PrimitiveType: t,
		},
	}
}

func TestDecodeWithSchema_Primitives(t *testing.T) {
	msg := &schema.Message{
		Name: "Primitives",
		Fields: []*schema.Field{
			primitiveField("test_int32", 1, schema.TypeInt32, schema.LabelOptional),
			primitiveField("test_int64", 2, schema.TypeInt64, schema.LabelOptional),
			primitiveField("test_uint32", 3, schema.TypeUint32, schema.LabelOptional),
			primitiveField("test_sint32", 4, schema.TypeSint32, schema.LabelOptional),
			primitiveField("test_bool", 5, schema.TypeBool, schema.LabelOptional),
			primitiveField("test_double", 6, schema.TypeDouble, schema.LabelOptional),
			primitiveField("test_sfixed32", 7, schema.TypeSfixed32, schema.LabelOptional),
			primitiveField("test_string", 8, schema.TypeString, schema.LabelOptional),
			primitiveField("test_bytes", 9, schema.TypeBytes, schema.LabelOptional),
			primitiveField("test_float", 10, schema.TypeFloat, schema.LabelOptional),
		},
	}

	minusOne := int32(-1)
	var b []byte
	b = appendVarintField(b, 1, uint64(minusOne)) // sign-extended to 10 bytes
	b = appendVarintField(b, 2, uint64(1)<<40)
	b = appendVarintField(b, 3, 7)
	b = appendVarintField(b, 4, protowire.EncodeZigZag(-3))
	b = appendVarintField(b, 5, 1)
	b = appendFixed64Field(b, 6, math.Float64bits(1.25))
	b = appendFixed32Field(b, 7, uint32(minusOne))
	b = appendBytesField(b, 8, []byte("first"))
	b = appendBytesField(b, 8, []byte("last"))
	b = appendBytesField(b, 9, []byte{1, 2})
	b = appendFixed32Field(b, 10, math.Float32bits(0.5))
	b = appendVarintField(b, 99, 1) // not in the schema

	result, err := DecodeWithSchema(Parse(b), msg, nil)
	if err != nil {
		t.Fatalf("DecodeWithSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"test_int32":    int32(-1),
		"test_int64":    int64(1) << 40,
		"test_uint32":   uint32(7),
		"test_sint32":   int32(-3),
		"test_bool":     true,
		"test_double":   1.25,
		"test_sfixed32": int32(-1),
		"test_string":   "last",
		"test_bytes":    []byte{1, 2},
		"test_float":    float32(0.5),
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestDecodeWithSchema_Repeated(t *testing.T) {
	msg := &schema.Message{
		Name: "Repeated",
		Fields: []*schema.Field{
			primitiveField("ids", 1, schema.TypeUint64, schema.LabelRepeated),
			primitiveField("names", 2, schema.TypeString, schema.LabelRepeated),
			primitiveField("empty", 3, schema.TypeUint32, schema.LabelRepeated),
		},
	}

	var b []byte
	b = appendBytesField(b, 1, packVarints(10, 20))
	b = appendBytesField(b, 1, packVarints(30))
	b = appendBytesField(b, 2, []byte("a"))
	b = appendBytesField(b, 2, []byte("b"))
	b = appendBytesField(b, 3, nil)

	result, err := DecodeWithSchema(Parse(b), msg, nil)
	if err != nil {
		t.Fatalf("DecodeWithSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"ids":   []interface{}{uint64(10), uint64(20), uint64(30)},
		"names": []interface{}{"a", "b"},
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestDecodeWithSchema_Map(t *testing.T) {
	msg := &schema.Message{
		Name: "WithMap",
		Fields: []*schema.Field{
			{
				Name:   "counts",
				Number: 1,
				Label:  schema.LabelRepeated,
				Type: schema.FieldType{
					Kind:     schema.KindMap,
					MapKey:   &schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString},
					MapValue: &schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeInt32},
				},
			},
		},
	}

	entry := func(key string, value uint64) []byte {
		var e []byte
		e = appendBytesField(e, 1, []byte(key))
		e = appendVarintField(e, 2, value)
		return e
	}

	var b []byte
	b = appendBytesField(b, 1, entry("a", 1))
	b = appendBytesField(b, 1, entry("b", 2))
	b = appendBytesField(b, 1, appendVarintField(nil, 2, 3)) // default key

	result, err := DecodeWithSchema(Parse(b), msg, nil)
	if err != nil {
		t.Fatalf("DecodeWithSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"counts": map[string]interface{}{
			"a": int32(1),
			"b": int32(2),
			"":  int32(3),
		},
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestDecodeWithSchema_EnumWithoutRegistry(t *testing.T) {
	msg := &schema.Message{
		Name: "WithEnum",
		Fields: []*schema.Field{
			{
				Name:   "status",
				Number: 1,
				Type:   schema.FieldType{Kind: schema.KindEnum, EnumType: "test.Status"},
			},
			{
				Name:   "unknown",
				Number: 2,
				Type:   schema.FieldType{Kind: schema.KindUnresolved, TypeName: "Missing"},
			},
		},
	}

	var b []byte
	b = appendVarintField(b, 1, 2)
	b = appendBytesField(b, 2, []byte{0xAB})

	result, err := DecodeWithSchema(Parse(b), msg, nil)
	if err != nil {
		t.Fatalf("DecodeWithSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"status":  int32(2),
		"unknown": []byte{0xAB},
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestDecodeWithSchema_Errors(t *testing.T) {
	t.Run("message without registry", func(t *testing.T) {
		msg := &schema.Message{
			Name: "Outer",
			Fields: []*schema.Field{
				{
					Name:   "inner",
					Number: 3,
					Type:   schema.FieldType{Kind: schema.KindMessage, MessageType: "test.Inner"},
				},
			},
		}
		_, err := DecodeWithSchema(Parse(appendBytesField(nil, 3, nil)), msg, nil)
		if err == nil {
			t.Fatal("Expected error")
		}
		var fieldErr *FieldError
		if !errors.As(err, &fieldErr) || fieldErr.FieldPath[0] != "3" {
			t.Errorf("Expected error at field 3, got %v", err)
		}
	})

	t.Run("wire type mismatch", func(t *testing.T) {
		msg := &schema.Message{
			Name: "Mismatch",
			Fields: []*schema.Field{
				primitiveField("name", 1, schema.TypeString, schema.LabelOptional),
			},
		}
		_, err := DecodeWithSchema(Parse(appendFixed64Field(nil, 1, 1)), msg, nil)
		if !errors.Is(err, ErrWireTypeMismatch) {
			t.Errorf("Expected ErrWireTypeMismatch, got %v", err)
		}
	})
}

const nestedProto = `syntax = "proto2";
package test;

enum Status {
  STATUS_UNKNOWN = 0;
  STATUS_ACTIVE = 1;
}

message Reference {
  required uint64 identifier = 1;
}

message Shape {
  optional string name = 1;
  repeated Reference children = 2;
  optional Status status = 3;
  map<string, Reference> named = 4;
}
`

func loadNestedRegistry(t *testing.T) *registry.Registry {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shape.proto"), []byte(nestedProto), 0o644); err != nil {
		t.Fatal(err)
	}
	reg := registry.NewRegistry([]string{dir})
	if err := reg.LoadSchemaFromFile("shape.proto"); err != nil {
		t.Fatalf("LoadSchemaFromFile failed: %v", err)
	}
	return reg
}

func TestDecodeWithSchema_Nested(t *testing.T) {
	reg := loadNestedRegistry(t)
	msg, err := reg.GetMessage("test.Shape")
	if err != nil {
		t.Fatal(err)
	}

	named := appendBytesField(nil, 1, []byte("main"))
	named = appendBytesField(named, 2, appendVarintField(nil, 1, 9))

	var b []byte
	b = appendBytesField(b, 1, []byte("square"))
	b = appendBytesField(b, 2, appendVarintField(nil, 1, 7))
	b = appendBytesField(b, 2, appendVarintField(nil, 1, 8))
	b = appendVarintField(b, 3, 1)
	b = appendBytesField(b, 4, named)

	result, err := DecodeWithSchema(Parse(b), msg, reg)
	if err != nil {
		t.Fatalf("DecodeWithSchema failed: %v", err)
	}

	expected := map[string]interface{}{
		"name": "square",
		"children": []interface{}{
			map[string]interface{}{"identifier": uint64(7)},
			map[string]interface{}{"identifier": uint64(8)},
		},
		"status": "STATUS_ACTIVE",
		"named": map[string]interface{}{
			"main": map[string]interface{}{"identifier": uint64(9)},
		},
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestDecodeWithSchema_NestedErrorPath(t *testing.T) {
	reg := loadNestedRegistry(t)
	msg, err := reg.GetMessage("Shape")
	if err != nil {
		t.Fatal(err)
	}

	// identifier encoded as fixed64 inside the second child
	var b []byte
	b = appendBytesField(b, 2, appendVarintField(nil, 1, 7))
	b = appendBytesField(b, 2, appendFixed64Field(nil, 1, 7))

	_, err = DecodeWithSchema(Parse(b), msg, reg)
	if !errors.Is(err, ErrWireTypeMismatch) {
		t.Fatalf("Expected ErrWireTypeMismatch, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("Expected FieldError, got %T", err)
	}
	if got := fieldErr.FieldPath; !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("Expected path 2.1, got %v", got)
	}
}
