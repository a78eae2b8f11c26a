// Package mapping binds schema fields from extraction prompts onto the input
// fields of a form.
package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/schema"
)

// Type distinguishes single-source from multi-source mappings.
type Type string

const (
	Direct       Type = "direct"
	Concatenated Type = "concatenated"
)

// DefaultSeparator joins concatenated sources when none is configured.
const DefaultSeparator = " "

// ErrUnknownField is returned when an operation targets a form field that has
// no mapping.
var ErrUnknownField = errors.New("mapping: form field is not mapped")

// Source identifies one schema field of one prompt.
type Source struct {
	PromptID        string `json:"promptId" yaml:"promptId" validate:"required"`
	PromptName      string `json:"promptName" yaml:"promptName"`
	SchemaFieldPath string `json:"schemaFieldPath" yaml:"schemaFieldPath" validate:"required"`
	SchemaFieldName string `json:"schemaFieldName" yaml:"schemaFieldName"`
	SchemaFieldType string `json:"schemaFieldType" yaml:"schemaFieldType" validate:"required"`
}

// SourceFromPath builds a Source for a schema field of a prompt.
func SourceFromPath(promptID, promptName string, p schema.FieldPath) Source {
	return Source{
		PromptID:        promptID,
		PromptName:      promptName,
		SchemaFieldPath: p.Path,
		SchemaFieldName: p.Name,
		SchemaFieldType: string(p.Type),
	}
}

// FieldMapping binds one form field to its ordered sources.
type FieldMapping struct {
	Sources                []Source `json:"sources" yaml:"sources" validate:"min=1,dive"`
	MappingType            Type     `json:"mappingType" yaml:"mappingType" validate:"oneof=direct concatenated"`
	ConcatenationSeparator string   `json:"concatenationSeparator,omitempty" yaml:"concatenationSeparator,omitempty"`
}

// Separator returns the configured separator or the default.
func (fm FieldMapping) Separator() string {
	if fm.ConcatenationSeparator == "" {
		return DefaultSeparator
	}
	return fm.ConcatenationSeparator
}

func (fm FieldMapping) clone() FieldMapping {
	fm.Sources = append([]Source(nil), fm.Sources...)
	return fm
}

// Mappings is the form-owned dictionary keyed by form field key.
type Mappings map[string]FieldMapping

// Clone returns a copy that shares nothing with m.
func (m Mappings) Clone() Mappings {
	out := make(Mappings, len(m))
	for key, fm := range m {
		out[key] = fm.clone()
	}
	return out
}

// Keys returns the mapped form field keys in sorted order.
func (m Mappings) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IncompatibleError reports a schema field type that cannot populate a form
// field type.
type IncompatibleError struct {
	SchemaType string
	FormType   string
	FormKey    string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("mapping: a %s schema field cannot populate %s field %q", e.SchemaType, e.FormType, e.FormKey)
}

// Engine applies mapping transitions using a compatibility table.
type Engine struct {
	compat *Compatibility
}

// Option configures an Engine.
type Option func(*Engine)

// WithCompatibility replaces the default compatibility table.
func WithCompatibility(c *Compatibility) Option {
	return func(e *Engine) {
		if c != nil {
			e.compat = c
		}
	}
}

// NewEngine constructs an engine backed by the default compatibility table.
func NewEngine(options ...Option) *Engine {
	e := &Engine{compat: DefaultCompatibility()}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compatibility exposes the table used by the engine.
func (e *Engine) Compatibility() *Compatibility {
	return e.compat
}

// Drop binds src to field and returns the updated mappings. An unmapped field
// becomes a direct mapping; a mapped one gains the source and becomes
// concatenated. Incompatible pairs are rejected and m is never modified.
func (e *Engine) Drop(m Mappings, field formio.FormField, src Source) (Mappings, error) {
	if strings.TrimSpace(field.Key) == "" {
		return m, errors.New("mapping: form field key is required")
	}
	if !e.compat.Allows(src.SchemaFieldType, field.Type) {
		return m, &IncompatibleError{SchemaType: src.SchemaFieldType, FormType: field.Type, FormKey: field.Key}
	}

	out := m.Clone()
	current, ok := out[field.Key]
	if !ok {
		out[field.Key] = FieldMapping{Sources: []Source{src}, MappingType: Direct}
		return out, nil
	}
	current.Sources = append(current.Sources, src)
	current.MappingType = Concatenated
	if current.ConcatenationSeparator == "" {
		current.ConcatenationSeparator = DefaultSeparator
	}
	out[field.Key] = current
	return out, nil
}

// Drop binds src to field using the default compatibility table.
func Drop(m Mappings, field formio.FormField, src Source) (Mappings, error) {
	return NewEngine().Drop(m, field, src)
}

// RemoveSource removes the source at index from the mapping of key. A
// mapping left with fewer than two sources is deleted entirely.
func RemoveSource(m Mappings, key string, index int) (Mappings, error) {
	current, ok := m[key]
	if !ok {
		return m, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if index < 0 || index >= len(current.Sources) {
		return m, fmt.Errorf("mapping: source index %d out of range for %q", index, key)
	}

	out := m.Clone()
	if len(current.Sources) <= 2 {
		delete(out, key)
		return out, nil
	}
	updated := out[key]
	updated.Sources = append(updated.Sources[:index], updated.Sources[index+1:]...)
	out[key] = updated
	return out, nil
}

// RemoveAll deletes the mapping of key.
func RemoveAll(m Mappings, key string) (Mappings, error) {
	if _, ok := m[key]; !ok {
		return m, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	out := m.Clone()
	delete(out, key)
	return out, nil
}

// SetSeparator changes the separator used to join the sources of key. An
// empty separator restores the default.
func SetSeparator(m Mappings, key, separator string) (Mappings, error) {
	if _, ok := m[key]; !ok {
		return m, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	out := m.Clone()
	updated := out[key]
	updated.ConcatenationSeparator = separator
	out[key] = updated
	return out, nil
}
