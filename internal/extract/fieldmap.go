package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Value is an extracted field value. Present is false for an absent field.
type Value struct {
	Text    string
	Present bool
	// Defaulted is set when Text came from a default rule rather than the document.
	Defaulted bool
}

// FieldMap maps every catalogue field to a Value. It always holds an entry for
// every known field, in catalogue order.
type FieldMap struct {
	names  []string
	values map[string]Value
}

// NewFieldMap returns a FieldMap with every name absent.
func NewFieldMap(names ...string) *FieldMap {
	m := &FieldMap{
		names:  make([]string, 0, len(names)),
		values: make(map[string]Value, len(names)),
	}
	for _, n := range names {
		if _, dup := m.values[n]; dup {
			continue
		}
		m.names = append(m.names, n)
		m.values[n] = Value{}
	}
	return m
}

// Set stores an extracted value. Unknown names are ignored and reported as false.
func (m *FieldMap) Set(name, text string) bool {
	return m.put(name, Value{Text: text, Present: true})
}

// Clear marks a field as absent.
func (m *FieldMap) Clear(name string) bool {
	return m.put(name, Value{})
}

func (m *FieldMap) setDefault(name, text string) {
	m.put(name, Value{Text: text, Present: true, Defaulted: true})
}

func (m *FieldMap) put(name string, v Value) bool {
	if _, ok := m.values[name]; !ok {
		return false
	}
	m.values[name] = v
	return true
}

// Get returns the field text and whether it is present.
func (m *FieldMap) Get(name string) (string, bool) {
	v := m.Value(name)
	return v.Text, v.Present
}

// GetOrEmpty returns the field text, or "" when absent.
func (m *FieldMap) GetOrEmpty(name string) string {
	return m.Value(name).Text
}

// Value returns the full Value for name. A nil map reads as all-absent.
func (m *FieldMap) Value(name string) Value {
	if m == nil {
		return Value{}
	}
	return m.values[name]
}

// Names returns the field names in map order.
func (m *FieldMap) Names() []string {
	return slices.Clone(m.names)
}

func (m *FieldMap) Len() int { return len(m.names) }

// Defaulted lists fields whose value came from a default rule.
func (m *FieldMap) Defaulted() []string {
	var out []string
	for _, n := range m.names {
		if m.values[n].Defaulted {
			out = append(out, n)
		}
	}
	return out
}

// MarshalJSON writes an object in map order with null for absent fields.
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, n); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		v := m.values[n]
		if !v.Present {
			buf.WriteString("null")
			continue
		}
		if err := writeJSONString(&buf, v.Text); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString appends s as a JSON string without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON reads an object produced by MarshalJSON, keeping key order.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("field map: expected object, got %v", tok)
	}
	out := NewFieldMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("field map: expected key, got %v", tok)
		}
		var text *string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("field map: %s: %w", name, err)
		}
		if _, dup := out.values[name]; !dup {
			out.names = append(out.names, name)
		}
		if text == nil {
			out.values[name] = Value{}
		} else {
			out.values[name] = Value{Text: *text, Present: true}
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = *out
	return nil
}
