package wire

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

type fieldView interface {
	Kind() Kind
}

// Field is the decoded view of one field number under one accessor family.
// Values are kept in document order; packed occurrences contribute one value
// per packed element.
type Field[T any] struct {
	kind   Kind
	values []T
}

// Kind returns the accessor family the field was decoded with.
func (f *Field[T]) Kind() Kind { return f.kind }

// Present reports whether the field has at least one value.
func (f *Field[T]) Present() bool { return len(f.values) > 0 }

// Len returns the number of decoded values.
func (f *Field[T]) Len() int { return len(f.values) }

// At returns the i-th value. It panics if i is out of range.
func (f *Field[T]) At(i int) T { return f.values[i] }

// Get returns the first value, or the zero value and false for an empty field.
func (f *Field[T]) Get() (T, bool) {
	if len(f.values) == 0 {
		var zero T
		return zero, false
	}
	return f.values[0], true
}

// GetOr returns the first value, or def for an empty field.
func (f *Field[T]) GetOr(def T) T {
	if v, ok := f.Get(); ok {
		return v
	}
	return def
}

// Values returns a copy of all values.
func (f *Field[T]) Values() []T { return slices.Clone(f.values) }

// codec decodes one value of an accessor family
type codec[T any] struct {
	kind   Kind
	decode func(d *Decoder, parent *Message) (T, error)
}

var (
	uint32Codec = &codec[uint32]{KindUint32, func(d *Decoder, _ *Message) (uint32, error) {
		return NewVarintDecoder(d).DecodeUint32()
	}}
	uint64Codec = &codec[uint64]{KindUint64, func(d *Decoder, _ *Message) (uint64, error) {
		return NewVarintDecoder(d).DecodeVarint()
	}}
	sint32Codec = &codec[int32]{KindSint32, func(d *Decoder, _ *Message) (int32, error) {
		return NewVarintDecoder(d).DecodeSint32()
	}}
	sint64Codec = &codec[int64]{KindSint64, func(d *Decoder, _ *Message) (int64, error) {
		return NewVarintDecoder(d).DecodeSint64()
	}}
	boolCodec = &codec[bool]{KindBool, func(d *Decoder, _ *Message) (bool, error) {
		return NewVarintDecoder(d).DecodeBool()
	}}
	fixed64Codec = &codec[uint64]{KindFixed64, func(d *Decoder, _ *Message) (uint64, error) {
		return NewFixedDecoder(d).DecodeFixed64()
	}}
	doubleCodec = &codec[float64]{KindDouble, func(d *Decoder, _ *Message) (float64, error) {
		return NewFixedDecoder(d).DecodeFloat64()
	}}
	fixed32Codec = &codec[uint32]{KindFixed32, func(d *Decoder, _ *Message) (uint32, error) {
		return NewFixedDecoder(d).DecodeFixed32()
	}}
	floatCodec = &codec[float32]{KindFloat, func(d *Decoder, _ *Message) (float32, error) {
		return NewFixedDecoder(d).DecodeFloat32()
	}}
	stringCodec = &codec[string]{KindString, func(d *Decoder, _ *Message) (string, error) {
		return NewBytesDecoder(d).DecodeString()
	}}
	bytesCodec = &codec[[]byte]{KindBytes, func(d *Decoder, _ *Message) ([]byte, error) {
		return NewBytesDecoder(d).DecodeBytes()
	}}
	messageCodec = &codec[*Message]{KindMessage, decodeNestedMessage}
)

// decodeNestedMessage builds a child message over a length-delimited payload
// and leaves the decoder positioned after the payload.
func decodeNestedMessage(d *Decoder, parent *Message) (*Message, error) {
	length, err := NewBytesDecoder(d).DecodeLength()
	if err != nil {
		return nil, err
	}
	end := d.Pos() + length
	child := newMessage(d.stream, length, parent.cfg)
	if _, err := d.stream.Seek(end, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeekFailure, err)
	}
	return child, nil
}

// materialize decodes every range of e with c. A failing occurrence is
// abandoned and decoding resumes with the next one.
func materialize[T any](m *Message, e *entry, c *codec[T], packed bool) (*Field[T], error) {
	f := &Field[T]{kind: c.kind}
	var errs []error

	for _, r := range e.ranges {
		if _, err := m.stream.Seek(r.Start, io.SeekStart); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrSeekFailure, err))
			continue
		}
		d := NewDecoder(m.stream, r.End)
		if packed {
			// the length prefix is part of the recorded range
			if _, err := d.DecodeVarint(); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		for !d.Done() {
			v, err := c.decode(d, m)
			if err != nil {
				errs = append(errs, fmt.Errorf("occurrence at offset %d: %w", r.Start, err))
				break
			}
			f.values = append(f.values, v)
		}
	}

	return f, errors.Join(errs...)
}
