package wire

import (
	"fmt"
	"io"
)

// BytesDecoder handles length-delimited decoding operations
type BytesDecoder struct {
	decoder *Decoder
}

// NewBytesDecoder creates a new bytes decoder
func NewBytesDecoder(d *Decoder) *BytesDecoder {
	return &BytesDecoder{decoder: d}
}

// DecodeLength decodes the length prefix of a length-delimited value and
// checks that the payload fits the decoder boundary.
func (bd *BytesDecoder) DecodeLength() (int64, error) {
	length, err := bd.decoder.DecodeVarint()
	if err != nil {
		return 0, fmt.Errorf("failed to decode bytes length: %w", err)
	}
	if rem := bd.decoder.Remaining(); length > uint64(rem) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedInput, length, rem)
	}
	return int64(length), nil
}

// DecodeBytes decodes a length-delimited byte array
func (bd *BytesDecoder) DecodeBytes() ([]byte, error) {
	length, err := bd.DecodeLength()
	if err != nil {
		return nil, err
	}

	data := make([]byte, length)
	if err := bd.decoder.readFull(data); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeString decodes a length-delimited string. The payload is not
// checked for valid UTF-8.
func (bd *BytesDecoder) DecodeString() (string, error) {
	data, err := bd.DecodeBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SkipBytes skips over a length-delimited payload by seeking past it
func (bd *BytesDecoder) SkipBytes() error {
	d := bd.decoder
	length, err := d.DecodeVarint()
	if err != nil {
		return err
	}

	if rem := d.Remaining(); length > uint64(rem) {
		return fmt.Errorf("%w: cannot skip %d bytes: only %d available", ErrSeekFailure, length, rem)
	}
	if _, err := d.stream.Seek(int64(length), io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: %v", ErrSeekFailure, err)
	}
	return nil
}
