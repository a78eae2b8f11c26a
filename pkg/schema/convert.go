package schema

import "strings"

// FieldsToSchema builds the canonical document for fields. Every level is a
// strict object: all properties are required and additionalProperties is
// false. Fields with a blank name are skipped so a half-filled editor row
// never produces an empty key.
func FieldsToSchema(fields []Field) *Schema {
	return objectSchema(fields, "")
}

func objectSchema(fields []Field, description string) *Schema {
	closed := false
	s := &Schema{
		Type:                 "object",
		Description:          description,
		Properties:           make(Properties, 0, len(fields)),
		Required:             make([]string, 0, len(fields)),
		AdditionalProperties: &closed,
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		s.Properties = append(s.Properties, Property{Name: f.Name, Schema: fieldSchema(f)})
		s.Required = append(s.Required, f.Name)
	}
	return s
}

func fieldSchema(f Field) *Schema {
	description := f.Description
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription(f.Name)
	}

	switch f.Type {
	case TypeObject:
		return objectSchema(f.NestedFields, description)
	case TypeArray:
		return &Schema{Type: "array", Description: description, Items: itemSchema(f)}
	default:
		return &Schema{Type: f.Type.JSONType(), Description: description}
	}
}

func itemSchema(f Field) *Schema {
	switch f.ArrayItemType {
	case TypeObject:
		return objectSchema(f.ArrayObjectFields, "")
	default:
		if !f.ArrayItemType.ValidItemType() {
			return &Schema{Type: TypeString.JSONType()}
		}
		return &Schema{Type: f.ArrayItemType.JSONType()}
	}
}

// SchemaToFields walks s.Properties in declaration order and rebuilds the
// editable field tree.
func SchemaToFields(s *Schema) []Field {
	if s == nil {
		return nil
	}
	fields := make([]Field, 0, len(s.Properties))
	for _, prop := range s.Properties {
		fields = append(fields, fieldFromSchema(prop.Name, prop.Schema))
	}
	return fields
}

func fieldFromSchema(name string, s *Schema) Field {
	if s == nil {
		return Field{Name: name, Type: TypeString}
	}
	f := Field{
		Name:        name,
		Type:        FieldTypeFromJSON(s.Type),
		Description: s.Description,
	}
	switch f.Type {
	case TypeObject:
		f.NestedFields = SchemaToFields(s)
	case TypeArray:
		f.ArrayItemType = TypeString
		if s.Items != nil {
			f.ArrayItemType = FieldTypeFromJSON(s.Items.Type)
		}
		switch f.ArrayItemType {
		case TypeObject:
			f.ArrayObjectFields = SchemaToFields(s.Items)
		case TypeArray:
			// Validate rejects nested arrays, so only unchecked documents get here.
			f.ArrayItemType = TypeString
		}
	}
	return f
}
