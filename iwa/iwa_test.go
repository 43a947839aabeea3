package iwa

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/iwalite/wire"
)

// chunk frames data as one compressed member chunk
func chunk(data []byte) []byte {
	block := snappy.Encode(nil, data)
	n := len(block)
	return append([]byte{0, byte(n), byte(n >> 8), byte(n >> 16)}, block...)
}

type testMessage struct {
	typ      uint32
	versions []uint64
	refs     []uint64
	dataRefs []uint64
	payload  []byte
}

func packed(values []uint64) []byte {
	var b []byte
	for _, v := range values {
		b = protowire.AppendVarint(b, v)
	}
	return b
}

func messageInfo(m testMessage) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.typ))
	if len(m.versions) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, packed(m.versions))
	}
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(len(m.payload)))
	if len(m.refs) > 0 {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, packed(m.refs))
	}
	if len(m.dataRefs) > 0 {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, packed(m.dataRefs))
	}
	return b
}

// record encodes an ArchiveInfo for id followed by the message payloads
func record(id uint64, msgs ...testMessage) []byte {
	var info []byte
	info = protowire.AppendTag(info, 1, protowire.VarintType)
	info = protowire.AppendVarint(info, id)
	for _, m := range msgs {
		info = protowire.AppendTag(info, 2, protowire.BytesType)
		info = protowire.AppendBytes(info, messageInfo(m))
	}
	info = protowire.AppendTag(info, 3, protowire.VarintType)
	info = protowire.AppendVarint(info, 0)

	b := protowire.AppendVarint(nil, uint64(len(info)))
	b = append(b, info...)
	for _, m := range msgs {
		b = append(b, m.payload...)
	}
	return b
}

func stringPayload(s string) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func TestDecompress(t *testing.T) {
	first := bytes.Repeat([]byte("keynote "), 100)
	second := []byte("pages")

	member := append(chunk(first), chunk(second)...)
	out, err := Decompress(bytes.NewReader(member))
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, first...), second...), out)

	out, err = Decompress(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDecompress_BadChunk(t *testing.T) {
	valid := chunk([]byte("numbers"))

	tests := []struct {
		name  string
		input []byte
	}{
		{"unknown type", append([]byte{1}, valid[1:]...)},
		{"truncated header", []byte{0, 5}},
		{"short block", valid[:len(valid)-2]},
		{"corrupt block", []byte{0, 3, 0, 0, 0xFF, 0xFF, 0xFF}},
		{"bad second chunk", append(append([]byte{}, valid...), 0x07)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(bytes.NewReader(tt.input))
			require.ErrorIs(t, err, ErrBadChunk)
		})
	}
}

func TestReadObjects(t *testing.T) {
	first := record(1, testMessage{
		typ:      100,
		versions: []uint64{1, 0, 5},
		refs:     []uint64{2, 3},
		dataRefs: []uint64{7},
		payload:  stringPayload("hello"),
	})
	second := record(2,
		testMessage{typ: 200, refs: []uint64{1}, payload: stringPayload("abc")},
		testMessage{typ: 201, refs: []uint64{4}, payload: stringPayload("z")},
	)
	stream := append(append([]byte{}, first...), second...)

	s := wire.NewMemoryStream(stream)
	objects, err := ReadObjects(s, wire.Config{})
	require.NoError(t, err)
	require.Len(t, objects, 2)

	obj := objects[0]
	require.Equal(t, uint64(1), obj.ID)
	require.Equal(t, uint32(100), obj.Type)
	require.Equal(t, []uint32{1, 0, 5}, obj.Versions)
	require.Equal(t, []uint64{2, 3}, obj.ObjectRefs)
	require.Equal(t, []uint64{7}, obj.DataRefs)
	payloadLen := int64(len(stringPayload("hello")))
	require.Equal(t, []wire.Range{{Start: int64(len(first)) - payloadLen, End: int64(len(first))}}, obj.Payloads)

	obj = objects[1]
	require.Equal(t, uint64(2), obj.ID)
	require.Equal(t, uint32(200), obj.Type)
	require.Empty(t, obj.Versions)
	require.Equal(t, []uint64{1, 4}, obj.ObjectRefs)
	require.Len(t, obj.Payloads, 2)
	require.Equal(t, int64(len(stream)), obj.Payloads[1].End)
	require.Equal(t, obj.Payloads[0].End, obj.Payloads[1].Start)

	for i, want := range []string{"hello", "abc"} {
		m, err := objects[i].Message(s, wire.Config{})
		require.NoError(t, err)
		f, err := m.String(1)
		require.NoError(t, err)
		require.Equal(t, want, f.GetOr(""))
	}
}

func TestReadObjects_Compressed(t *testing.T) {
	stream := record(9, testMessage{typ: 1, payload: stringPayload("slide")})
	member := append(chunk(stream[:3]), chunk(stream[3:])...)

	data, err := Decompress(bytes.NewReader(member))
	require.NoError(t, err)

	s := wire.NewMemoryStream(data)
	objects, err := ReadObjects(s, wire.Config{})
	require.NoError(t, err)
	require.Len(t, objects, 1)

	m, err := objects[0].Message(s, wire.Config{})
	require.NoError(t, err)
	f, err := m.String(1)
	require.NoError(t, err)
	require.Equal(t, "slide", f.GetOr(""))
}

func TestReadObjects_SkipsRecordsWithoutObject(t *testing.T) {
	// an ArchiveInfo holding only should_merge
	info := protowire.AppendTag(nil, 3, protowire.VarintType)
	info = protowire.AppendVarint(info, 1)
	empty := append(protowire.AppendVarint(nil, uint64(len(info))), info...)

	stream := append(empty, record(5, testMessage{typ: 3, payload: stringPayload("x")})...)

	objects, err := ReadObjects(wire.NewMemoryStream(stream), wire.Config{})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, uint64(5), objects[0].ID)
}

func TestReadObjects_Truncated(t *testing.T) {
	good := record(1, testMessage{typ: 1, payload: stringPayload("kept")})
	bad := record(2, testMessage{typ: 1, payload: stringPayload("lost")})
	stream := append(append([]byte{}, good...), bad[:len(bad)-2]...)

	objects, err := ReadObjects(wire.NewMemoryStream(stream), wire.Config{})
	require.ErrorIs(t, err, wire.ErrTruncatedInput)
	require.Len(t, objects, 1)
	require.Equal(t, uint64(1), objects[0].ID)
}

func TestReadObjects_BadInfoLength(t *testing.T) {
	stream := protowire.AppendVarint(nil, 50)
	stream = append(stream, 0x08, 0x01)

	objects, err := ReadObjects(wire.NewMemoryStream(stream), wire.Config{})
	require.ErrorIs(t, err, wire.ErrTruncatedInput)
	require.Empty(t, objects)
}

func TestObject_NoPayload(t *testing.T) {
	obj := Object{ID: 3}
	_, err := obj.Message(wire.NewMemoryStream(nil), wire.Config{})
	require.ErrorIs(t, err, ErrNoPayload)
}
