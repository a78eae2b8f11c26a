package schema

import "strings"

// FieldType is the editor-level type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// FieldTypes lists every editor type in display order.
var FieldTypes = []FieldType{TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeObject, TypeArray}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// ValidItemType reports whether t can be used as an array element type.
func (t FieldType) ValidItemType() bool {
	return t.Valid() && t != TypeArray
}

// JSONType returns the JSON Schema keyword for t.
func (t FieldType) JSONType() string {
	if t == TypeFloat {
		return "number"
	}
	if !t.Valid() {
		return string(TypeString)
	}
	return string(t)
}

// FieldTypeFromJSON maps a JSON Schema type keyword to a FieldType. Unknown
// keywords fall back to string.
func FieldTypeFromJSON(jsonType string) FieldType {
	switch strings.TrimSpace(jsonType) {
	case "number", "float":
		return TypeFloat
	case "integer":
		return TypeInteger
	case "boolean":
		return TypeBoolean
	case "object":
		return TypeObject
	case "array":
		return TypeArray
	default:
		return TypeString
	}
}

// Field is the editable, UI-level representation of one schema node.
// NestedFields is only populated for objects; ArrayItemType and
// ArrayObjectFields only for arrays.
type Field struct {
	// ID is editor identity for drag and expand state; never serialized.
	ID                string    `json:"-" yaml:"-"`
	Name              string    `json:"name" yaml:"name"`
	Type              FieldType `json:"type" yaml:"type"`
	Description       string    `json:"description,omitempty" yaml:"description,omitempty"`
	NestedFields      []Field   `json:"nestedFields,omitempty" yaml:"nestedFields,omitempty"`
	ArrayItemType     FieldType `json:"arrayItemType,omitempty" yaml:"arrayItemType,omitempty"`
	ArrayObjectFields []Field   `json:"arrayObjectFields,omitempty" yaml:"arrayObjectFields,omitempty"`
}

// Children returns the subtree owned by f: nested fields for objects, element
// fields for arrays of objects, nil otherwise.
func (f Field) Children() []Field {
	switch {
	case f.Type == TypeObject:
		return f.NestedFields
	case f.Type == TypeArray && f.ArrayItemType == TypeObject:
		return f.ArrayObjectFields
	}
	return nil
}

// HasChildren reports whether f can own child fields.
func (f Field) HasChildren() bool {
	return f.Type == TypeObject || (f.Type == TypeArray && f.ArrayItemType == TypeObject)
}

// WithChildren returns a copy of f owning children in the slot that matches
// its type. Fields without a child slot are returned unchanged.
func (f Field) WithChildren(children []Field) Field {
	switch {
	case f.Type == TypeObject:
		f.NestedFields = children
	case f.Type == TypeArray && f.ArrayItemType == TypeObject:
		f.ArrayObjectFields = children
	}
	return f
}

// CloneFields deep-copies a field list so the result owns every subtree.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].NestedFields = CloneFields(f.NestedFields)
		out[i].ArrayObjectFields = CloneFields(f.ArrayObjectFields)
	}
	return out
}

// DefaultDescription derives a description from a field name.
func DefaultDescription(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
