// Package schema declares the P7 wire protocol: the typed, named fields
// and messages the server validates every inbound and outbound message
// against. It is the Go analogue of the bundled wired.xml spec document.
package schema

import "fmt"

// FieldType is the wire type of a single field value.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeBool
	TypeDate
	TypeEnum
	TypeList
	TypeBytes
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	case TypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// FieldSpec declares one named field: its wire id, type, and the set of
// enum name/number mappings when Type == TypeEnum.
type FieldSpec struct {
	Name string
	ID   uint32
	Type FieldType
	Enum map[string]int32
}

// MessageSpec declares one named message and the fields it carries.
type MessageSpec struct {
	Name     string
	Fields   map[string]*FieldSpec
	Required []string
}

// Schema is the full set of declared fields and messages, keyed by name.
// A Schema is built once at startup and treated as read-only afterwards,
// matching the teacher's config-document-as-runtime-object pattern in
// internal/config.
type Schema struct {
	Name     string
	Version  string
	Fields   map[string]*FieldSpec
	Messages map[string]*MessageSpec
}

// Field looks up a globally declared field by name.
func (s *Schema) Field(name string) (*FieldSpec, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Message looks up a declared message by name.
func (s *Schema) Message(name string) (*MessageSpec, bool) {
	m, ok := s.Messages[name]
	return m, ok
}

// RegisterField adds a field declaration to the schema. Panics on
// duplicate names, which indicates a programming error in the
// declarations below, not a runtime condition.
func (s *Schema) RegisterField(f *FieldSpec) {
	if _, exists := s.Fields[f.Name]; exists {
		panic(fmt.Sprintf("schema: duplicate field %q", f.Name))
	}
	s.Fields[f.Name] = f
}

// RegisterMessage declares a message and resolves its field list against
// already-registered fields. Panics if a referenced field is unknown.
func (s *Schema) RegisterMessage(name string, required []string, optional ...string) *MessageSpec {
	m := &MessageSpec{Name: name, Fields: make(map[string]*FieldSpec), Required: required}
	for _, n := range append(append([]string{}, required...), optional...) {
		f, ok := s.Fields[n]
		if !ok {
			panic(fmt.Sprintf("schema: message %q references unknown field %q", name, n))
		}
		m.Fields[n] = f
	}
	s.Messages[name] = m
	return m
}
