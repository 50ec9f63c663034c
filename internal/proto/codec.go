package proto

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/stlalpha/wired/internal/schema"
)

// wireMessage/wireField mirror P7's <p7:message><p7:field name="..."
// ...>value</p7:field></p7:message> element shape (spec.md §6), which
// is why this codec round-trips through encoding/xml rather than a
// custom binary TLV format: P7 is a text protocol, not a packed one.
type wireMessage struct {
	XMLName xml.Name     `xml:"p7:message"`
	Name    string       `xml:"name,attr"`
	Fields  []wireField  `xml:"p7:field"`
}

type wireField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Encode renders m as the XML element P7 sends over the wire, after
// the caller's transform pipeline (compression/encryption/checksum)
// is applied to the returned bytes.
func Encode(m *schema.Message) ([]byte, error) {
	w := wireMessage{Name: m.Name}
	for name, v := range m.Values {
		s, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", name, err)
		}
		w.Fields = append(w.Fields, wireField{Name: name, Value: s})
	}
	return xml.Marshal(w)
}

// Decode parses raw P7 XML into a schema.Message and validates it
// against sch, per spec.md §6: "a message whose fields do not match
// its declared schema is rejected with invalid_message."
func Decode(sch *schema.Schema, raw []byte) (*schema.Message, error) {
	var w wireMessage
	if err := xml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("invalid_message: %w", err)
	}
	spec, ok := sch.Message(w.Name)
	if !ok {
		return nil, fmt.Errorf("unrecognized_message: %s", w.Name)
	}

	m := schema.NewMessage(w.Name)
	for _, f := range w.Fields {
		fieldSpec, ok := spec.Fields[f.Name]
		if !ok {
			return nil, fmt.Errorf("invalid_message: unknown field %q in %s", f.Name, w.Name)
		}
		v, err := decodeValue(fieldSpec.Type, f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid_message: field %q in %s: %w", f.Name, w.Name, err)
		}
		m.Values[f.Name] = v
	}

	if err := sch.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), nil
	case []string:
		return base64.StdEncoding.EncodeToString([]byte(joinNUL(val))), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	default:
		return "", fmt.Errorf("unsupported field value type %T", v)
	}
}

func decodeValue(t schema.FieldType, s string) (any, error) {
	switch t {
	case schema.TypeString:
		return s, nil
	case schema.TypeInt32, schema.TypeEnum:
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	case schema.TypeUint32:
		n, err := strconv.ParseUint(s, 10, 32)
		return uint32(n), err
	case schema.TypeInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err
	case schema.TypeUint64:
		n, err := strconv.ParseUint(s, 10, 64)
		return n, err
	case schema.TypeBool:
		return s == "1", nil
	case schema.TypeDate:
		return time.Parse(time.RFC3339, s)
	case schema.TypeList:
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		return splitNUL(string(raw)), nil
	case schema.TypeBytes:
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("unsupported field type %v", t)
	}
}

// joinNUL/splitNUL encode a string list the way P7 lists its
// sub-elements: NUL-separated, matching the original protocol's list
// field representation (spec.md GLOSSARY: "list fields are NUL-joined").
func joinNUL(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += "\x00"
		}
		out += s
	}
	return out
}

func splitNUL(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
