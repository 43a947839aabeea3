package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ===== WIRE FORMAT TYPES =====

// WireType represents the 3-bit wire type suffix of a tag
type WireType int32

const (
	WireVarint  = WireType(protowire.VarintType)  // uint32, uint64, sint32, sint64, bool
	WireFixed64 = WireType(protowire.Fixed64Type) // fixed64, double
	WireBytes   = WireType(protowire.BytesType)   // string, bytes, nested messages, packed scalars
	WireFixed32 = WireType(protowire.Fixed32Type) // fixed32, float
)

// Valid reports whether the wire type is one the decoder understands.
// Group wire types (3, 4) are not supported.
func (w WireType) Valid() bool {
	switch w {
	case WireVarint, WireFixed64, WireBytes, WireFixed32:
		return true
	default:
		return false
	}
}

func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wiretype(%d)", int32(w))
	}
}

// FieldNumber represents a field number
type FieldNumber uint64

// Tag represents a field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Range is one occurrence of a field value inside the input, tag excluded.
// For length-delimited fields Start points at the length prefix.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// Kind identifies the accessor family a field was decoded with.
type Kind int

const (
	KindInvalid Kind = iota
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindBool
	KindFixed64
	KindDouble
	KindFixed32
	KindFloat
	KindString
	KindBytes
	KindMessage
)

var kindNames = map[Kind]string{
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindSint32:  "sint32",
	KindSint64:  "sint64",
	KindBool:    "bool",
	KindFixed64: "fixed64",
	KindDouble:  "double",
	KindFixed32: "fixed32",
	KindFloat:   "float",
	KindString:  "string",
	KindBytes:   "bytes",
	KindMessage: "message",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// WireType returns the wire type a value of this kind is natively encoded with.
func (k Kind) WireType() WireType {
	switch k {
	case KindUint32, KindUint64, KindSint32, KindSint64, KindBool:
		return WireVarint
	case KindFixed64, KindDouble:
		return WireFixed64
	case KindFixed32, KindFloat:
		return WireFixed32
	default:
		return WireBytes
	}
}

// Scalar reports whether values of this kind may appear packed.
func (k Kind) Scalar() bool {
	return k.WireType() != WireBytes
}
