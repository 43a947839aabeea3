package wire

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Message is a lazily decoded view of one message payload.
//
// Construction runs a single structural scan that records, per field number,
// the wire type of its first occurrence and the byte range of every
// occurrence. Values are decoded on the first typed access and memoized. A
// field number is decoded under exactly one accessor family for the
// lifetime of the message.
//
// A Message does not own its stream. Nested messages share the stream of
// their parent, and every access moves the shared read position, so a
// Message and everything derived from it must be used from one goroutine at
// a time.
type Message struct {
	stream Stream
	cfg    Config
	fields map[FieldNumber]*entry
	scan   scanResult
}

// NewMessage decodes the structure of a message of the given length that
// starts at the current position of s, using the package configuration.
// It never fails; see ScanError.
func NewMessage(s Stream, length int64) *Message {
	return newMessage(s, length, config)
}

// NewMessageWithConfig is NewMessage with an explicit configuration.
func NewMessageWithConfig(s Stream, length int64, cfg Config) *Message {
	return newMessage(s, length, cfg)
}

// Parse decodes the structure of a message occupying all of data.
func Parse(data []byte) *Message {
	return NewMessage(NewMemoryStream(data), int64(len(data)))
}

func newMessage(s Stream, length int64, cfg Config) *Message {
	res := scan(s, length, &cfg)
	return &Message{
		stream: s,
		cfg:    cfg,
		fields: res.index,
		scan:   res,
	}
}

// ScanError returns a *ScanError if the structural scan stopped before the
// end of the message, and nil otherwise. Fields indexed before the stop are
// fully usable.
func (m *Message) ScanError() error {
	if m.scan.err == nil {
		return nil
	}
	return &ScanError{Offset: m.scan.offset, Err: m.scan.err}
}

// Fields returns the indexed field numbers in ascending order.
func (m *Message) Fields() []FieldNumber {
	numbers := make([]FieldNumber, 0, len(m.fields))
	for n := range m.fields {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers
}

// Has reports whether the field number occurs in the message.
func (m *Message) Has(n FieldNumber) bool {
	_, ok := m.fields[n]
	return ok
}

// WireType returns the wire type recorded for field number n.
func (m *Message) WireType(n FieldNumber) (WireType, bool) {
	e, ok := m.fields[n]
	if !ok {
		return 0, false
	}
	return e.wireType, true
}

// Ranges returns the byte ranges of every occurrence of field number n.
func (m *Message) Ranges(n FieldNumber) []Range {
	e, ok := m.fields[n]
	if !ok {
		return nil
	}
	return slices.Clone(e.ranges)
}

// Stream returns the stream the message reads from.
func (m *Message) Stream() Stream {
	return m.stream
}

// ===== TYPED ACCESSORS =====
//
// Every accessor returns a non-nil field. An absent field number yields an
// empty field and no error. A wire type mismatch yields an empty field and an
// error wrapping ErrWireTypeMismatch. A malformed occurrence yields the
// values decoded from the other occurrences together with a *FieldError.

func (m *Message) Uint32(n FieldNumber) (*Field[uint32], error) {
	return getField(m, n, uint32Codec)
}

func (m *Message) Uint64(n FieldNumber) (*Field[uint64], error) {
	return getField(m, n, uint64Codec)
}

// Sint32 decodes zigzag-encoded varints.
func (m *Message) Sint32(n FieldNumber) (*Field[int32], error) {
	return getField(m, n, sint32Codec)
}

// Sint64 decodes zigzag-encoded varints.
func (m *Message) Sint64(n FieldNumber) (*Field[int64], error) {
	return getField(m, n, sint64Codec)
}

func (m *Message) Bool(n FieldNumber) (*Field[bool], error) {
	return getField(m, n, boolCodec)
}

func (m *Message) Fixed64(n FieldNumber) (*Field[uint64], error) {
	return getField(m, n, fixed64Codec)
}

func (m *Message) Double(n FieldNumber) (*Field[float64], error) {
	return getField(m, n, doubleCodec)
}

func (m *Message) Fixed32(n FieldNumber) (*Field[uint32], error) {
	return getField(m, n, fixed32Codec)
}

func (m *Message) Float(n FieldNumber) (*Field[float32], error) {
	return getField(m, n, floatCodec)
}

func (m *Message) String(n FieldNumber) (*Field[string], error) {
	return getField(m, n, stringCodec)
}

func (m *Message) Bytes(n FieldNumber) (*Field[[]byte], error) {
	return getField(m, n, bytesCodec)
}

// Message decodes every occurrence of field number n as a nested message.
func (m *Message) Message(n FieldNumber) (*Field[*Message], error) {
	return getField(m, n, messageCodec)
}

func getField[T any](m *Message, n FieldNumber, c *codec[T]) (*Field[T], error) {
	e, ok := m.fields[n]
	if !ok {
		return &Field[T]{kind: c.kind}, nil
	}

	packed := false
	if e.wireType != c.kind.WireType() {
		if e.wireType != WireBytes || !c.kind.Scalar() {
			return &Field[T]{kind: c.kind}, m.mismatch(n, fmt.Errorf("%w: %s field accessed as %s", ErrWireTypeMismatch, e.wireType, c.kind))
		}
		packed = true
	}

	if e.view != nil {
		f, ok := e.view.(*Field[T])
		if !ok || f.kind != c.kind {
			return &Field[T]{kind: c.kind}, m.mismatch(n, fmt.Errorf("%w: field decoded as %s, accessed as %s", ErrWireTypeMismatch, e.view.Kind(), c.kind))
		}
		return f, e.err
	}

	f, err := materialize(m, e, c, packed)
	e.view, e.err = f, wrapWithField(err, n)
	return f, e.err
}

func (m *Message) mismatch(n FieldNumber, err error) error {
	m.cfg.logger().Debug("field access rejected",
		zap.Uint64("field", uint64(n)),
		zap.Error(err))
	return wrapWithField(err, n)
}
