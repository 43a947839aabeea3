package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decoding errors. None of them escapes the message it occurs in: scan
// failures end up in a ScanError, accessor failures are returned to the
// caller of the accessor.
var (
	// ErrTruncatedInput is returned when a read runs past the message boundary
	// or the end of the stream.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrWireTypeMismatch is returned when a field is accessed with a family
	// incompatible with its wire type or with the family it was decoded with.
	ErrWireTypeMismatch = errors.New("wire type mismatch")
	// ErrInvalidWireType is returned for tags carrying an unknown wire type.
	ErrInvalidWireType = errors.New("invalid wire type")
	// ErrSeekFailure is returned when a length-delimited payload cannot be
	// skipped within the input.
	ErrSeekFailure = errors.New("seek failure")
)

// FieldError represents a decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["3", "5", "1"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at field %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapWithField prefixes the field path of err with field
func wrapWithField(err error, field FieldNumber) error {
	if err == nil {
		return nil
	}

	name := strconv.FormatUint(uint64(field), 10)
	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{name}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{name},
		Err:       err,
	}
}

// ScanError reports where the structural scan of a message stopped.
type ScanError struct {
	Offset int64 // absolute stream offset of the unparsed remainder
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan stopped at offset %d: %v", e.Offset, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
