// Package iwa reads the archive layer of IWA document members: the Snappy
// chunk framing of a member and the index of archived objects stored in the
// decompressed stream.
package iwa

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
)

// ErrBadChunk is returned for a malformed compressed chunk.
var ErrBadChunk = errors.New("bad chunk")

// chunk header: type byte followed by a 24-bit little-endian length
const chunkHeaderLen = 4

// Decompress reads a whole member. A member is a sequence of chunks, each a
// zero type byte, a 3-byte little-endian length and a raw Snappy block
// without checksum.
func Decompress(r io.Reader) ([]byte, error) {
	var out []byte
	var hdr [chunkHeaderLen]byte

	for chunk := 0; ; chunk++ {
		if _, err := io.ReadFull(r, hdr[:1]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		if _, err := io.ReadFull(r, hdr[1:]); err != nil {
			return nil, fmt.Errorf("%w %d: truncated header: %v", ErrBadChunk, chunk, err)
		}
		if hdr[0] != 0 {
			return nil, fmt.Errorf("%w %d: unknown type %#x", ErrBadChunk, chunk, hdr[0])
		}

		length := int(hdr[1]) | int(hdr[2])<<8 | int(hdr[3])<<16
		block := make([]byte, length)
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("%w %d: need %d bytes: %v", ErrBadChunk, chunk, length, err)
		}

		decoded, err := snappy.Decode(nil, block)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrBadChunk, chunk, err)
		}
		out = append(out, decoded...)
	}
}
