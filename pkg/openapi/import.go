// Package openapi seeds editor fields from OpenAPI component schemas.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formmap/pkg/schema"
)

// ErrComponentNotFound is returned when the requested component schema does
// not exist in the document.
var ErrComponentNotFound = errors.New("openapi: component schema not found")

func load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return doc, nil
}

// Components lists the component schema names of a document, sorted.
func Components(ctx context.Context, raw []byte) ([]string, error) {
	doc, err := load(ctx, raw)
	if err != nil {
		return nil, err
	}
	if doc.Components == nil {
		return nil, nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ImportComponent converts components.schemas[name] into editor fields.
// Properties are ordered by name, allOf members are merged, and nested arrays
// collapse to arrays of strings.
func ImportComponent(ctx context.Context, raw []byte, name string) ([]schema.Field, error) {
	doc, err := load(ctx, raw)
	if err != nil {
		return nil, err
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	c := converter{visiting: make(map[*openapi3.Schema]bool)}
	return c.fields(ref.Value), nil
}

type converter struct {
	visiting map[*openapi3.Schema]bool
}

func (c converter) fields(s *openapi3.Schema) []schema.Field {
	if s == nil || c.visiting[s] {
		return nil
	}
	c.visiting[s] = true
	defer delete(c.visiting, s)

	props := collectProperties(s)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]schema.Field, 0, len(names))
	for _, name := range names {
		out = append(out, c.field(name, props[name]))
	}
	return out
}

func (c converter) field(name string, ref *openapi3.SchemaRef) schema.Field {
	f := schema.Field{Name: name, Type: schema.TypeString}
	if ref == nil || ref.Value == nil {
		return f
	}
	s := ref.Value
	f.Description = strings.TrimSpace(s.Description)
	f.Type = kindOf(s)

	switch f.Type {
	case schema.TypeObject:
		f.NestedFields = c.fields(s)
	case schema.TypeArray:
		f.ArrayItemType = schema.TypeString
		if s.Items != nil && s.Items.Value != nil {
			item := kindOf(s.Items.Value)
			if item != schema.TypeArray {
				f.ArrayItemType = item
			}
			if item == schema.TypeObject {
				f.ArrayObjectFields = c.fields(s.Items.Value)
			}
		}
	}
	return f
}

func collectProperties(s *openapi3.Schema) openapi3.Schemas {
	props := make(openapi3.Schemas, len(s.Properties))
	for _, member := range s.AllOf {
		if member == nil || member.Value == nil {
			continue
		}
		for name, prop := range collectProperties(member.Value) {
			props[name] = prop
		}
	}
	for name, prop := range s.Properties {
		props[name] = prop
	}
	return props
}

func kindOf(s *openapi3.Schema) schema.FieldType {
	types := []string(nil)
	if s.Type != nil {
		types = s.Type.Slice()
	}
	for _, t := range types {
		if t == "null" {
			continue
		}
		return schema.FieldTypeFromJSON(t)
	}
	if len(s.Properties) > 0 || len(s.AllOf) > 0 {
		return schema.TypeObject
	}
	if s.Items != nil {
		return schema.TypeArray
	}
	return schema.TypeString
}
