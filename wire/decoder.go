package wire

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Decoder is a cursor over a Stream bounded by an end offset. All reads go
// through the shared stream position.
type Decoder struct {
	stream Stream
	end    int64
}

// NewDecoder creates a decoder reading s from its current position up to end.
// An end beyond the stream is clamped to the stream size.
func NewDecoder(s Stream, end int64) *Decoder {
	if size := s.Size(); end > size {
		end = size
	}
	return &Decoder{
		stream: s,
		end:    end,
	}
}

// Pos returns the current stream offset.
func (d *Decoder) Pos() int64 {
	return d.stream.Tell()
}

// End returns the boundary of the decoder.
func (d *Decoder) End() int64 {
	return d.end
}

// Remaining returns the number of bytes left before the boundary.
func (d *Decoder) Remaining() int64 {
	if rem := d.end - d.stream.Tell(); rem > 0 {
		return rem
	}
	return 0
}

// Done reports whether the boundary or the end of the stream is reached.
func (d *Decoder) Done() bool {
	return d.Remaining() == 0 || d.stream.IsEnd()
}

func (d *Decoder) readByte() (byte, error) {
	if d.Remaining() == 0 {
		return 0, fmt.Errorf("%w: read past offset %d", ErrTruncatedInput, d.end)
	}
	b, err := d.stream.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return b, nil
}

func (d *Decoder) readFull(buf []byte) error {
	if rem := d.Remaining(); int64(len(buf)) > rem {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedInput, len(buf), rem)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return nil
}

func (d *Decoder) skip(n int64) error {
	if rem := d.Remaining(); n > rem {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedInput, n, rem)
	}
	if _, err := d.stream.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return nil
}

// skipField skips a field value based on wire type
func (d *Decoder) skipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		return NewVarintDecoder(d).SkipVarint()
	case WireFixed64:
		return NewFixedDecoder(d).SkipFixed64()
	case WireBytes:
		return NewBytesDecoder(d).SkipBytes()
	case WireFixed32:
		return NewFixedDecoder(d).SkipFixed32()
	default:
		return fmt.Errorf("%w: %d", ErrInvalidWireType, wireType)
	}
}

// ===== STRUCTURAL SCAN =====

// entry is the index record of one field number
type entry struct {
	wireType WireType
	ranges   []Range
	view     fieldView // nil until first typed access
	err      error     // materialization error, kept with the view
}

// scanResult is the partial index built by scan together with the offset
// where scanning stopped and the reason, if it stopped early.
type scanResult struct {
	index  map[FieldNumber]*entry
	offset int64
	err    error
}

// scan indexes the top-level fields of a message of the given length that
// starts at the current stream position. It never fails: a decode error
// stops the scan and everything indexed before it is kept.
func scan(s Stream, length int64, cfg *Config) scanResult {
	start := s.Tell()
	end := start + length
	if length < 0 || end < start {
		end = s.Size()
	}
	d := NewDecoder(s, end)
	res := scanResult{index: make(map[FieldNumber]*entry)}

	for !d.Done() {
		fieldStart := d.Pos()
		if err := d.scanField(res.index, cfg); err != nil {
			res.offset = fieldStart
			res.err = err
			cfg.logger().Debug("message scan stopped",
				zap.Int64("offset", fieldStart),
				zap.Int("fields", len(res.index)),
				zap.Error(err))
			return res
		}
	}
	res.offset = d.Pos()
	return res
}

// scanField records one tag/value pair
func (d *Decoder) scanField(index map[FieldNumber]*entry, cfg *Config) error {
	tag, err := d.DecodeVarint()
	if err != nil {
		return fmt.Errorf("failed to decode tag: %w", err)
	}
	fieldNumber, wireType := ParseTag(Tag(tag))

	start := d.Pos()
	if err := d.skipField(wireType); err != nil {
		return wrapWithField(err, fieldNumber)
	}
	end := d.Pos()
	if end > d.end {
		return wrapWithField(ErrTruncatedInput, fieldNumber)
	}

	e, ok := index[fieldNumber]
	if ok && e.wireType != wireType {
		cfg.logger().Debug("wire type does not match previously seen",
			zap.Uint64("field", uint64(fieldNumber)),
			zap.Stringer("wire_type", wireType),
			zap.Stringer("previous", e.wireType))
		if cfg.StrictWireTypeOnScan {
			return wrapWithField(fmt.Errorf("%w: %s, previously %s", ErrWireTypeMismatch, wireType, e.wireType), fieldNumber)
		}
		return nil
	}
	if !ok {
		e = &entry{wireType: wireType}
		index[fieldNumber] = e
	}
	e.ranges = append(e.ranges, Range{Start: start, End: end})
	return nil
}
