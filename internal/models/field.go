package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Property is one key/value of a declared field, kept in document order.
// Value is nil, string, bool, json.Number, []Property (object) or []any (array).
type Property struct {
	Key   string
	Value any
}

// Field is a declared site field. Its properties are kept verbatim because a
// schema is synthesized from them when no SchemaXml is given.
type Field struct {
	Properties []Property
}

// NewField builds a field from ordered properties.
func NewField(props ...Property) *Field {
	return &Field{Properties: props}
}

// Get returns the value of a property, matching the key case-insensitively.
func (f *Field) Get(key string) (any, bool) {
	for _, p := range f.Properties {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// Text returns a property as text, or "" if absent or not a scalar.
func (f *Field) Text(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		if typed {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

func (f *Field) ID() string           { return f.Text("ID") }
func (f *Field) Type() string         { return f.Text("Type") }
func (f *Field) Title() string        { return f.Text("Title") }
func (f *Field) InternalName() string { return f.Text("InternalName") }
func (f *Field) SchemaXML() string    { return f.Text("SchemaXml") }
func (f *Field) Formula() string      { return f.Text("Formula") }

// Name returns the best available name for log messages.
func (f *Field) Name() string {
	for _, key := range []string{"InternalName", "Name", "Title", "ID"} {
		if v := f.Text(key); v != "" {
			return v
		}
	}
	return "(unnamed field)"
}

// UnmarshalJSON decodes a JSON object keeping property order.
func (f *Field) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return err
	}
	props, ok := v.([]Property)
	if !ok {
		return fmt.Errorf("field must be a JSON object")
	}
	f.Properties = props
	return nil
}

// MarshalJSON encodes the field back to an object in property order.
func (f *Field) MarshalJSON() ([]byte, error) {
	return marshalOrdered(f.Properties)
}

func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		props := []Property{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			props = append(props, Property{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return props, nil
	case '[':
		items := []any{}
		for dec.More() {
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

func marshalOrdered(props []Property) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range props {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch typed := v.(type) {
	case []Property:
		return marshalOrdered(typed)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range typed {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return json.Marshal(v)
}
