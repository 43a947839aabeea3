package wire

import (
	"errors"
	"fmt"
	"io"
)

var errSeekOutOfRange = errors.New("seek out of range")

// Stream is a seekable byte source. Every Message decoded from a stream
// shares its read position, so calls on messages sharing a stream must not
// be interleaved from several goroutines.
type Stream interface {
	io.Reader
	io.ByteReader
	io.Seeker

	// Tell returns the current read position.
	Tell() int64
	// Size returns the total number of bytes in the stream.
	Size() int64
	// IsEnd reports whether the read position is at the end of the stream.
	IsEnd() bool
}

// MemoryStream is a Stream over an in-memory buffer
type MemoryStream struct {
	buf []byte
	pos int64
}

// NewMemoryStream creates a stream reading buf. The buffer is not copied.
func NewMemoryStream(buf []byte) *MemoryStream {
	return &MemoryStream{buf: buf}
}

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) ReadByte() (byte, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	b := m.buf[m.pos]
	m.pos++
	return b, nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	pos, err := resolveSeek(m.pos, int64(len(m.buf)), offset, whence)
	if err != nil {
		return m.pos, err
	}
	m.pos = pos
	return pos, nil
}

func (m *MemoryStream) Tell() int64 { return m.pos }
func (m *MemoryStream) Size() int64 { return int64(len(m.buf)) }
func (m *MemoryStream) IsEnd() bool { return m.pos >= int64(len(m.buf)) }

// Bytes returns the underlying buffer.
func (m *MemoryStream) Bytes() []byte { return m.buf }

// ReaderStream adapts an io.ReadSeeker of known size to a Stream
type ReaderStream struct {
	r    io.ReadSeeker
	pos  int64
	size int64
	one  [1]byte
}

// NewReaderStream wraps r. The size is found by seeking to the end; the read
// position is restored afterwards.
func NewReaderStream(r io.ReadSeeker) (*ReaderStream, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream position: %w", err)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream size: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to restore stream position: %w", err)
	}
	return &ReaderStream{r: r, pos: pos, size: size}, nil
}

// NewSectionStream creates a stream over n bytes of r starting at off.
// Offsets reported by the stream are relative to off.
func NewSectionStream(r io.ReaderAt, off, n int64) *ReaderStream {
	return &ReaderStream{r: io.NewSectionReader(r, off, n), size: n}
}

func (s *ReaderStream) Read(p []byte) (int, error) {
	if s.pos >= s.size {
		return 0, io.EOF
	}
	if rem := s.size - s.pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := s.r.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *ReaderStream) ReadByte() (byte, error) {
	n, err := s.Read(s.one[:])
	if n == 1 {
		return s.one[0], nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return 0, err
}

func (s *ReaderStream) Seek(offset int64, whence int) (int64, error) {
	pos, err := resolveSeek(s.pos, s.size, offset, whence)
	if err != nil {
		return s.pos, err
	}
	if _, err := s.r.Seek(pos, io.SeekStart); err != nil {
		return s.pos, err
	}
	s.pos = pos
	return pos, nil
}

func (s *ReaderStream) Tell() int64 { return s.pos }
func (s *ReaderStream) Size() int64 { return s.size }
func (s *ReaderStream) IsEnd() bool { return s.pos >= s.size }

func resolveSeek(cur, size, offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = cur + offset
	case io.SeekEnd:
		pos = size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	// a hostile length may wrap cur+offset below zero
	if pos < 0 || pos > size {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", errSeekOutOfRange, pos, size)
	}
	return pos, nil
}
