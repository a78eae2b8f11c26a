// Package formmap is the top-level entry point for editing strict JSON
// Schemas and mapping their fields onto Form.io forms.
package formmap

import (
	"context"
	"io/fs"

	internalLoader "github.com/goliatone/go-formmap/internal/loader"
	"github.com/goliatone/go-formmap/pkg/editor"
	"github.com/goliatone/go-formmap/pkg/forms"
	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/schema"
	"github.com/goliatone/go-formmap/pkg/sources"
)

// Field aliases schema.Field, the editor's view of one schema node.
type Field = schema.Field

// Schema aliases the canonical JSON Schema document.
type Schema = schema.Schema

// ValidationResult aliases schema.ValidationResult.
type ValidationResult = schema.ValidationResult

// FormField aliases a flattened Form.io input.
type FormField = formio.FormField

// Mappings aliases the per-form field mappings.
type Mappings = mapping.Mappings

// Form aliases a stored form definition.
type Form = forms.Form

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}

// LoadSchema fetches and validates the document at src. The document is
// returned together with its validation result; it is only decoded when valid.
func LoadSchema(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (*Schema, ValidationResult, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, ValidationResult{}, err
	}
	result := doc.Validate()
	if !result.Valid() {
		return nil, result, nil
	}
	s, err := doc.Schema()
	return s, result, err
}

// Validate checks schema text against the structured-output rules.
func Validate(text string) ValidationResult {
	return schema.Validate(text)
}

// NewEditor returns a schema editor holding one blank field.
func NewEditor(options ...editor.Option) *editor.Editor {
	return editor.New(options...)
}

// NewCollector returns a collector gathering prompt schemas from backend.
func NewCollector(backend sources.Backend, options ...sources.Option) *sources.Collector {
	return sources.NewCollector(backend, options...)
}

// NewBuilder starts a mapping session over form.
func NewBuilder(form Form, options ...forms.Option) *forms.Builder {
	return forms.NewBuilder(form, options...)
}

// LoadForms reads every form definition under fsys.
func LoadForms(fsys fs.FS) (*forms.Catalog, error) {
	return forms.LoadFS(fsys)
}

// Prefill resolves the mappings of form against extraction results keyed by
// prompt id.
func Prefill(form Form, results map[string]any) map[string]any {
	return mapping.Prefill(form.FieldMappings, results)
}
