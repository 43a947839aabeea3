package iwalite

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/anirudhraja/iwalite/iwa"
	"github.com/anirudhraja/iwalite/registry"
	"github.com/anirudhraja/iwalite/wire"
)

// DefaultCacheSize is the number of decompressed members kept in memory.
const DefaultCacheSize = 16

// ErrObjectNotFound is returned for an object identifier that no member holds.
var ErrObjectNotFound = errors.New("object not found")

// Options configures a Document
type Options struct {
	CacheSize int
	Config    wire.Config
	Registry  *registry.Registry
}

// Option modifies Options
type Option func(*Options)

// WithCacheSize sets the number of decompressed members kept in memory.
func WithCacheSize(n int) Option {
	return func(o *Options) { o.CacheSize = n }
}

// WithConfig sets the decoder configuration used for every message.
func WithConfig(cfg wire.Config) Option {
	return func(o *Options) { o.Config = cfg }
}

// WithRegistry sets the schema registry used by Decode.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

type objectRef struct {
	member string
	object iwa.Object
}

// Document is an IWA document container: a zip archive whose .iwa members
// hold archived objects. A Document is not safe for concurrent use.
type Document struct {
	opts    Options
	log     *zap.Logger
	closer  io.Closer
	members map[string]*zip.File
	names   []string
	objects map[uint64]objectRef
	cache   *lru.Cache[string, *wire.MemoryStream]
}

// Open opens the document at path.
func Open(path string, opts ...Option) (*Document, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	d, err := newDocument(&rc.Reader, opts)
	if err != nil {
		rc.Close()
		return nil, err
	}
	d.closer = rc
	return d, nil
}

// New reads a document from r.
func New(r io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return newDocument(zr, opts)
}

func newDocument(zr *zip.Reader, opts []Option) (*Document, error) {
	o := Options{
		CacheSize: DefaultCacheSize,
		Config:    wire.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New[string, *wire.MemoryStream](max(o.CacheSize, 1))
	if err != nil {
		return nil, err
	}

	d := &Document{
		opts:    o,
		log:     o.Config.Logger,
		members: make(map[string]*zip.File),
		objects: make(map[uint64]objectRef),
		cache:   cache,
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".iwa") {
			d.members[f.Name] = f
			d.names = append(d.names, f.Name)
		}
	}
	slices.Sort(d.names)

	for _, name := range d.names {
		if err := d.indexMember(name); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// indexMember records the objects of one member. A damaged member keeps
// the objects read before the damage.
func (d *Document) indexMember(name string) error {
	s, err := d.member(name)
	if err != nil {
		return err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return err
	}

	objects, err := iwa.ReadObjects(s, d.opts.Config)
	if err != nil {
		d.log.Warn("member index is incomplete",
			zap.String("member", name),
			zap.Int("objects", len(objects)),
			zap.Error(err))
	}

	for _, obj := range objects {
		if prev, ok := d.objects[obj.ID]; ok {
			d.log.Warn("duplicate object identifier",
				zap.Uint64("id", obj.ID),
				zap.String("member", name),
				zap.String("previous", prev.member))
			continue
		}
		d.objects[obj.ID] = objectRef{member: name, object: obj}
	}
	return nil
}

// member returns the decompressed stream of a member
func (d *Document) member(name string) (*wire.MemoryStream, error) {
	if s, ok := d.cache.Get(name); ok {
		return s, nil
	}

	f, ok := d.members[name]
	if !ok {
		return nil, fmt.Errorf("member not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open member %s: %w", name, err)
	}
	defer rc.Close()

	data, err := iwa.Decompress(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress member %s: %w", name, err)
	}

	s := wire.NewMemoryStream(data)
	d.cache.Add(name, s)
	return s, nil
}

// Close releases the underlying file, if the document was opened by path.
func (d *Document) Close() error {
	d.cache.Purge()
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// Members returns the names of the .iwa members, sorted.
func (d *Document) Members() []string {
	return slices.Clone(d.names)
}

// ObjectIDs returns the identifiers of all indexed objects in ascending order.
func (d *Document) ObjectIDs() []uint64 {
	ids := make([]uint64, 0, len(d.objects))
	for id := range d.objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Object returns the index record of an object and the member holding it.
func (d *Document) Object(id uint64) (iwa.Object, string, error) {
	ref, ok := d.objects[id]
	if !ok {
		return iwa.Object{}, "", fmt.Errorf("%w: %d", ErrObjectNotFound, id)
	}
	return ref.object, ref.member, nil
}

// Message decodes the structure of an object's payload.
func (d *Document) Message(id uint64) (*wire.Message, error) {
	ref, ok := d.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrObjectNotFound, id)
	}
	s, err := d.member(ref.member)
	if err != nil {
		return nil, err
	}
	return ref.object.Message(s, d.opts.Config)
}

// Decode decodes an object with the schema of messageType from the registry.
func (d *Document) Decode(id uint64, messageType string) (map[string]interface{}, error) {
	if d.opts.Registry == nil {
		return nil, fmt.Errorf("no registry configured")
	}
	msg, err := d.opts.Registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}

	m, err := d.Message(id)
	if err != nil {
		return nil, err
	}
	return wire.DecodeWithSchema(m, msg, d.opts.Registry)
}

// Registry returns the schema registry, or nil.
func (d *Document) Registry() *registry.Registry { return d.opts.Registry }
