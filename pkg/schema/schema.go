package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-formmap/pkg/jsonpos"
)

// Schema is one level of the canonical, JSON-Schema shaped document. The root
// of a persisted schema is an object Schema.
type Schema struct {
	Type                 string
	Description          string
	Properties           Properties
	Required             []string
	AdditionalProperties *bool
	Items                *Schema
}

// Property is a named entry of Schema.Properties.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties keeps object members in declaration order. A nil Properties is
// absent; an empty non-nil one serializes as {}.
type Properties []Property

// Get returns the schema declared for name.
func (p Properties) Get(name string) (*Schema, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return nil, false
}

// Names returns property names in declaration order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for _, prop := range p {
		names = append(names, prop.Name)
	}
	return names
}

// MarshalJSON writes members in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(prop.Schema)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes keywords in a fixed order so generated documents are
// stable across edits.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(`"` + key + `":`)
		buf.Write(raw)
		return nil
	}

	if s.Type != "" {
		if err := write("type", s.Type); err != nil {
			return nil, err
		}
	}
	if s.Description != "" {
		if err := write("description", s.Description); err != nil {
			return nil, err
		}
	}
	if s.Properties != nil {
		if err := write("properties", s.Properties); err != nil {
			return nil, err
		}
	}
	if s.Required != nil {
		if err := write("required", s.Required); err != nil {
			return nil, err
		}
	}
	if s.AdditionalProperties != nil {
		if err := write("additionalProperties", *s.AdditionalProperties); err != nil {
			return nil, err
		}
	}
	if s.Items != nil {
		if err := write("items", s.Items); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes through jsonpos so property order follows the source.
func (s *Schema) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// Indent renders s as two-space indented JSON text.
func (s *Schema) Indent() (string, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("schema: encode: %w", err)
	}
	return string(raw), nil
}

// Validate runs the strict checks over the indented rendering of s.
func (s *Schema) Validate() ValidationResult {
	text, err := s.Indent()
	if err != nil {
		return ValidationResult{Errors: []Issue{{Message: err.Error()}}}
	}
	return Validate(text)
}

// Parse decodes text into a Schema. Keywords with unexpected value types are
// ignored; use Validate to report them.
func Parse(text string) (*Schema, error) {
	tree, err := jsonpos.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	return FromTree(tree, tree.Root())
}

// FromTree decodes the object node id of tree into a Schema.
func FromTree(tree *jsonpos.Tree, id jsonpos.NodeID) (*Schema, error) {
	if tree.Kind(id) != jsonpos.Object {
		return nil, errors.New("schema: document must be a JSON object")
	}
	return decodeNode(tree, id), nil
}

func decodeNode(tree *jsonpos.Tree, id jsonpos.NodeID) *Schema {
	s := &Schema{}
	if v, ok := tree.Get(id, "type"); ok {
		s.Type, _ = tree.StringValue(v)
	}
	if v, ok := tree.Get(id, "description"); ok {
		s.Description, _ = tree.StringValue(v)
	}
	if v, ok := tree.Get(id, "properties"); ok && tree.Kind(v) == jsonpos.Object {
		props := tree.Node(v).Props
		s.Properties = make(Properties, 0, len(props))
		for _, prop := range props {
			if tree.Kind(prop.Value) != jsonpos.Object {
				continue
			}
			s.Properties = append(s.Properties, Property{Name: prop.Key, Schema: decodeNode(tree, prop.Value)})
		}
	}
	if v, ok := tree.Get(id, "required"); ok && tree.Kind(v) == jsonpos.Array {
		elems := tree.Node(v).Elems
		s.Required = make([]string, 0, len(elems))
		for _, elem := range elems {
			if name, ok := tree.StringValue(elem); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if v, ok := tree.Get(id, "additionalProperties"); ok {
		if flag, ok := tree.BoolValue(v); ok {
			s.AdditionalProperties = &flag
		}
	}
	if v, ok := tree.Get(id, "items"); ok && tree.Kind(v) == jsonpos.Object {
		s.Items = decodeNode(tree, v)
	}
	return s
}
