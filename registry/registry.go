package registry

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/anirudhraja/iwalite/schema"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"
)

// Registry allows us to store the schema of the messages stored in a document. We look this up when we decode a message by name.
type Registry struct {
	ProtoDirectories []string

	files           map[string]*schema.ProtoFile        // path -> file
	messages        map[string]*schema.Message          // fully qualified name -> message
	enums           map[string]*schema.Enum             // fully qualified name -> enum
	parsedProtoBody map[string]*protoparserparser.Proto // path -> parsed file
	protoEntities   map[string]*protoFileEntity         // path -> import relations
}

type protoFileEntity struct {
	imports []string
}

// NewRegistry creates a registry resolving .proto files and their imports
// in protoDirectories. An empty list resolves paths as given.
func NewRegistry(protoDirectories []string) *Registry {
	if len(protoDirectories) == 0 {
		protoDirectories = []string{""}
	}
	return &Registry{
		ProtoDirectories: protoDirectories,
		files:            make(map[string]*schema.ProtoFile),
		messages:         make(map[string]*schema.Message),
		enums:            make(map[string]*schema.Enum),
		parsedProtoBody:  make(map[string]*protoparserparser.Proto),
		protoEntities:    make(map[string]*protoFileEntity),
	}
}

// LoadSchemaFromFile loads a .proto file and everything it imports
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	paths, err := r.getAllProtoInfo(protoFile)
	if err != nil {
		return fmt.Errorf("failed to load proto file %s: %w", protoFile, err)
	}

	for _, path := range paths {
		if _, loaded := r.files[path]; loaded {
			continue
		}
		pf, err := buildProtoFile(path, r.parsedProtoBody[path])
		if err != nil {
			return fmt.Errorf("failed to build %s: %w", path, err)
		}
		r.files[path] = pf
		r.registerNames(pf)
	}

	r.resolveReferences()
	return nil
}

// buildProtoFile converts a parsed file into schema definitions
func buildProtoFile(path string, proto *protoparserparser.Proto) (*schema.ProtoFile, error) {
	pf := &schema.ProtoFile{
		Name:   filepath.Base(path),
		Syntax: "proto2", // default when no syntax statement is present
	}
	if proto.Syntax != nil && proto.Syntax.ProtobufVersion != "" {
		pf.Syntax = proto.Syntax.ProtobufVersion
	}

	// Pass 1: package and imports, which scope everything else
	for _, body := range proto.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Package:
			pf.Package = b.Name
		case *protoparserparser.Import:
			pf.Imports = append(pf.Imports, &schema.Import{Path: strings.Trim(b.Location, `"`)})
		}
	}

	// Pass 2: top-level messages and enums
	for _, body := range proto.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Message:
			msg, err := buildMessage(pf.Package, b)
			if err != nil {
				return nil, err
			}
			pf.Messages = append(pf.Messages, msg)
		case *protoparserparser.Enum:
			enum, err := buildEnum(pf.Package, b)
			if err != nil {
				return nil, err
			}
			pf.Enums = append(pf.Enums, enum)
		}
	}
	return pf, nil
}

func buildMessage(scope string, pm *protoparserparser.Message) (*schema.Message, error) {
	msg := &schema.Message{
		Name:     pm.MessageName,
		FullName: getFullName(scope, pm.MessageName),
	}

	for _, body := range pm.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			label := schema.LabelOptional
			if b.IsRepeated {
				label = schema.LabelRepeated
			}
			field, err := newField(b.FieldName, b.FieldNumber, b.Type, label)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", msg.FullName, err)
			}
			msg.Fields = append(msg.Fields, field)
		case *protoparserparser.MapField:
			field, err := newField(b.MapName, b.FieldNumber, b.Type, schema.LabelRepeated)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", msg.FullName, err)
			}
			key, ok := schema.LookupPrimitive(b.KeyType)
			if !ok {
				return nil, fmt.Errorf("message %s: invalid map key type %s", msg.FullName, b.KeyType)
			}
			value := field.Type
			field.Type = schema.FieldType{
				Kind:     schema.KindMap,
				MapKey:   &schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: key},
				MapValue: &value,
			}
			msg.Fields = append(msg.Fields, field)
		case *protoparserparser.Oneof:
			group := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				field, err := newField(of.FieldName, of.FieldNumber, of.Type, schema.LabelOptional)
				if err != nil {
					return nil, fmt.Errorf("message %s: %w", msg.FullName, err)
				}
				group.Fields = append(group.Fields, field)
				msg.Fields = append(msg.Fields, field)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *protoparserparser.Message:
			nested, err := buildMessage(msg.FullName, b)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *protoparserparser.Enum:
			enum, err := buildEnum(msg.FullName, b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, enum)
		}
	}
	return msg, nil
}

func newField(name, number, typeName string, label schema.FieldLabel) (*schema.Field, error) {
	n, err := strconv.ParseInt(number, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("field %s: invalid number %q: %w", name, number, err)
	}
	field := &schema.Field{
		Name:   name,
		Number: int32(n),
		Label:  label,
	}
	if p, ok := schema.LookupPrimitive(typeName); ok {
		field.Type = schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: p}
	} else {
		field.Type = schema.FieldType{Kind: schema.KindUnresolved, TypeName: typeName}
	}
	return field, nil
}

func buildEnum(scope string, pe *protoparserparser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{
		Name:     pe.EnumName,
		FullName: getFullName(scope, pe.EnumName),
	}
	for _, body := range pe.EnumBody {
		if ef, ok := body.(*protoparserparser.EnumField); ok {
			n, err := strconv.ParseInt(ef.Number, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("enum %s: invalid value %s = %q: %w", enum.FullName, ef.Ident, ef.Number, err)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{Name: ef.Ident, Number: int32(n)})
		}
	}
	return enum, nil
}

// registerNames registers all message and enum names of a file
func (r *Registry) registerNames(pf *schema.ProtoFile) {
	for _, msg := range pf.Messages {
		r.registerMessage(msg)
	}
	for _, enum := range pf.Enums {
		r.enums[enum.FullName] = enum
	}
}

func (r *Registry) registerMessage(msg *schema.Message) {
	r.messages[msg.FullName] = msg
	for _, nested := range msg.NestedTypes {
		r.registerMessage(nested)
	}
	for _, enum := range msg.NestedEnums {
		r.enums[enum.FullName] = enum
	}
}

// resolveReferences turns type names into fully qualified message or enum
// references. Names that cannot be resolved stay unresolved.
func (r *Registry) resolveReferences() {
	all := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		all[name] = struct{}{}
	}
	for name := range r.enums {
		all[name] = struct{}{}
	}

	for _, msg := range r.messages {
		for _, field := range msg.Fields {
			t := &field.Type
			if t.Kind == schema.KindMap {
				t = t.MapValue
			}
			r.resolveType(t, msg.FullName, all)
		}
	}
}

func (r *Registry) resolveType(t *schema.FieldType, scope string, all map[string]struct{}) {
	if t.Kind != schema.KindUnresolved {
		return
	}
	name, err := getReferencedType(t.TypeName, scope, all)
	if err != nil {
		return
	}
	if _, ok := r.messages[name]; ok {
		t.Kind = schema.KindMessage
		t.MessageType = name
		return
	}
	t.Kind = schema.KindEnum
	t.EnumType = name
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}

	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}

	// Try without package prefix
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}

	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names, sorted
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ListEnums returns all registered enum names, sorted
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
