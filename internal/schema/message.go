package schema

import (
	"fmt"
	"time"
)

// Message is one parsed, schema-validated protocol message: a name plus
// a bag of typed field values. It is the runtime analogue of wi_p7_message_t.
type Message struct {
	Name   string
	Values map[string]any
}

// NewMessage creates an empty outbound message for the given name.
func NewMessage(name string) *Message {
	return &Message{Name: name, Values: make(map[string]any)}
}

func (m *Message) SetString(field, v string) { m.Values[field] = v }
func (m *Message) SetInt32(field string, v int32) { m.Values[field] = v }
func (m *Message) SetUint32(field string, v uint32) { m.Values[field] = v }
func (m *Message) SetInt64(field string, v int64) { m.Values[field] = v }
func (m *Message) SetUint64(field string, v uint64) { m.Values[field] = v }
func (m *Message) SetBool(field string, v bool) { m.Values[field] = v }
func (m *Message) SetDate(field string, v time.Time) { m.Values[field] = v }
func (m *Message) SetEnum(field string, v int32) { m.Values[field] = v }
func (m *Message) SetList(field string, v []string) { m.Values[field] = v }
func (m *Message) SetBytes(field string, v []byte) { m.Values[field] = v }

func (m *Message) String(field string) (string, bool) {
	v, ok := m.Values[field].(string)
	return v, ok
}

func (m *Message) Int32(field string) (int32, bool) {
	v, ok := m.Values[field].(int32)
	return v, ok
}

func (m *Message) Uint32(field string) (uint32, bool) {
	v, ok := m.Values[field].(uint32)
	return v, ok
}

func (m *Message) Int64(field string) (int64, bool) {
	v, ok := m.Values[field].(int64)
	return v, ok
}

func (m *Message) Bool(field string) (bool, bool) {
	v, ok := m.Values[field].(bool)
	return v, ok
}

func (m *Message) Date(field string) (time.Time, bool) {
	v, ok := m.Values[field].(time.Time)
	return v, ok
}

func (m *Message) Bytes(field string) ([]byte, bool) {
	v, ok := m.Values[field].([]byte)
	return v, ok
}

func (m *Message) List(field string) ([]string, bool) {
	v, ok := m.Values[field].([]string)
	return v, ok
}

// Validate checks m against its declared MessageSpec: every required
// field must be present, and every present field's Go value must match
// its declared FieldType. Spec.md §6 requires rejecting messages whose
// required fields are absent; this is that check.
func (s *Schema) Validate(m *Message) error {
	spec, ok := s.Messages[m.Name]
	if !ok {
		return fmt.Errorf("unrecognized_message: %s", m.Name)
	}
	for _, req := range spec.Required {
		if _, present := m.Values[req]; !present {
			return fmt.Errorf("invalid_message: missing required field %q in %s", req, m.Name)
		}
	}
	for name, v := range m.Values {
		field, ok := spec.Fields[name]
		if !ok {
			return fmt.Errorf("invalid_message: unknown field %q in %s", name, m.Name)
		}
		if !typeMatches(field.Type, v) {
			return fmt.Errorf("invalid_message: field %q in %s has wrong type", name, m.Name)
		}
	}
	return nil
}

func typeMatches(t FieldType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInt32, TypeEnum:
		_, ok := v.(int32)
		return ok
	case TypeUint32:
		_, ok := v.(uint32)
		return ok
	case TypeInt64:
		_, ok := v.(int64)
		return ok
	case TypeUint64:
		_, ok := v.(uint64)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeDate:
		_, ok := v.(time.Time)
		return ok
	case TypeList:
		_, ok := v.([]string)
		return ok
	case TypeBytes:
		_, ok := v.([]byte)
		return ok
	}
	return false
}
