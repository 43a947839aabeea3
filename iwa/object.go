package iwa

import (
	"errors"
	"fmt"
	"io"

	"github.com/anirudhraja/iwalite/wire"
	"go.uber.org/zap"
)

// ErrNoPayload is returned when an object carries no message payload.
var ErrNoPayload = errors.New("object has no payload")

// ArchiveInfo fields
const (
	archiveIdentifier   wire.FieldNumber = 1
	archiveMessageInfos wire.FieldNumber = 2
)

// MessageInfo fields
const (
	messageType       wire.FieldNumber = 1
	messageVersion    wire.FieldNumber = 2
	messageLength     wire.FieldNumber = 3
	messageObjectRefs wire.FieldNumber = 5
	messageDataRefs   wire.FieldNumber = 6
)

// Object is one archived object of a member stream.
type Object struct {
	ID         uint64
	Type       uint32
	Versions   []uint32
	ObjectRefs []uint64
	DataRefs   []uint64
	// Payloads holds one range per message of the object, in stream order.
	// The first one is the object itself.
	Payloads []wire.Range
}

// Message decodes the first payload of the object from s, the stream the
// object was read from.
func (o *Object) Message(s wire.Stream, cfg wire.Config) (*wire.Message, error) {
	if len(o.Payloads) == 0 {
		return nil, fmt.Errorf("object %d: %w", o.ID, ErrNoPayload)
	}
	r := o.Payloads[0]
	if _, err := s.Seek(r.Start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("object %d: %w: %v", o.ID, wire.ErrSeekFailure, err)
	}
	return wire.NewMessageWithConfig(s, r.Len(), cfg), nil
}

// ReadObjects indexes the objects of a decompressed member, reading s from
// its current position to the end. The stream is a sequence of records: a
// varint length, an ArchiveInfo message of that length, then the payloads
// announced by the ArchiveInfo.
//
// Indexing stops at the first record that does not fit the stream; the
// objects read before it are returned together with the error. Records
// without identifier or message infos are skipped.
func ReadObjects(s wire.Stream, cfg wire.Config) ([]Object, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var objects []Object
	for !s.IsEnd() {
		recordStart := s.Tell()
		d := wire.NewDecoder(s, s.Size())
		length, err := wire.NewBytesDecoder(d).DecodeLength()
		if err != nil {
			return objects, fmt.Errorf("archive info at offset %d: %w", recordStart, err)
		}

		// reading the info moves the stream; payloads start right after it
		infoStart := s.Tell()
		info := wire.NewMessageWithConfig(s, length, cfg)
		obj, found, lengths, err := readArchiveInfo(info)
		if err != nil {
			return objects, fmt.Errorf("archive info at offset %d: %w", recordStart, err)
		}

		offset := infoStart + length
		for _, n := range lengths {
			obj.Payloads = append(obj.Payloads, wire.Range{Start: offset, End: offset + int64(n)})
			offset += int64(n)
		}
		if offset > s.Size() {
			return objects, fmt.Errorf("object %d at offset %d: %w: payload ends at %d, stream size %d",
				obj.ID, recordStart, wire.ErrTruncatedInput, offset, s.Size())
		}

		if found && len(obj.Payloads) > 0 {
			objects = append(objects, obj)
		} else {
			log.Debug("skipping archive info without object",
				zap.Int64("offset", recordStart),
				zap.Uint64("id", obj.ID))
		}

		if _, err := s.Seek(offset, io.SeekStart); err != nil {
			return objects, fmt.Errorf("%w: %v", wire.ErrSeekFailure, err)
		}
	}
	return objects, nil
}

// readArchiveInfo extracts the object description and the payload lengths
func readArchiveInfo(info *wire.Message) (Object, bool, []uint32, error) {
	var obj Object

	ids, err := info.Uint64(archiveIdentifier)
	if err != nil {
		return obj, false, nil, err
	}
	obj.ID = ids.GetOr(0)

	infos, err := info.Message(archiveMessageInfos)
	if err != nil {
		return obj, false, nil, err
	}

	lengths := make([]uint32, 0, infos.Len())
	for i := 0; i < infos.Len(); i++ {
		mi := infos.At(i)

		length, err := mi.Uint32(messageLength)
		if err != nil {
			return obj, false, nil, err
		}
		lengths = append(lengths, length.GetOr(0))

		refs, err := mi.Uint64(messageObjectRefs)
		if err != nil {
			return obj, false, nil, err
		}
		obj.ObjectRefs = append(obj.ObjectRefs, refs.Values()...)

		data, err := mi.Uint64(messageDataRefs)
		if err != nil {
			return obj, false, nil, err
		}
		obj.DataRefs = append(obj.DataRefs, data.Values()...)

		if i > 0 {
			continue
		}
		typ, err := mi.Uint32(messageType)
		if err != nil {
			return obj, false, nil, err
		}
		obj.Type = typ.GetOr(0)

		versions, err := mi.Uint32(messageVersion)
		if err != nil {
			return obj, false, nil, err
		}
		obj.Versions = versions.Values()
	}
	return obj, ids.Present(), lengths, nil
}
