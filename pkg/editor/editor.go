package editor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/pkg/schema"
)

// ErrInvalidSchema blocks saving while the document has validation errors.
var ErrInvalidSchema = errors.New("editor: schema has validation errors")

// Store persists a canonical schema. internal/api.Client implements it.
type Store interface {
	SaveSchema(ctx context.Context, id string, s *schema.Schema) error
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for save failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Editor keeps the structured field list and the raw JSON text in sync. Field
// edits regenerate the text; text edits replace the fields only when the text
// validates cleanly, so an in-progress JSON edit never corrupts the list.
type Editor struct {
	fields   []schema.Field
	text     string
	result   schema.ValidationResult
	expanded map[string]bool
	logger   *zap.Logger
}

// New returns an editor holding a single blank field.
func New(options ...Option) *Editor {
	e := &Editor{
		expanded: make(map[string]bool),
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	e.reset()
	return e
}

func (e *Editor) reset() {
	e.fields = []schema.Field{NewField()}
	e.expanded = make(map[string]bool)
	e.sync()
}

// sync regenerates the JSON view from the field list.
func (e *Editor) sync() {
	s := schema.FieldsToSchema(e.fields)
	text, err := s.Indent()
	if err != nil {
		e.result = schema.ValidationResult{Errors: []schema.Issue{{Message: err.Error()}}}
		return
	}
	e.text = text
	e.result = schema.Validate(text)
}

// Load replaces the editor content with an existing document.
func (e *Editor) Load(s *schema.Schema) {
	fields := AssignIDs(schema.SchemaToFields(s))
	if len(fields) == 0 {
		fields = []schema.Field{NewField()}
	}
	e.fields = fields
	e.expanded = make(map[string]bool)
	e.sync()
}

// Clear discards the content and starts over with one blank field.
func (e *Editor) Clear() {
	e.reset()
}

// Fields returns a copy of the structured view.
func (e *Editor) Fields() []schema.Field {
	return schema.CloneFields(e.fields)
}

// Schema returns the canonical document for the structured view.
func (e *Editor) Schema() *schema.Schema {
	return schema.FieldsToSchema(e.fields)
}

// JSON returns the raw JSON view.
func (e *Editor) JSON() string {
	return e.text
}

// Result returns the validation result of the current JSON view.
func (e *Editor) Result() schema.ValidationResult {
	return e.result
}

// Dispatch applies a to the structured view and regenerates the JSON view. On
// error the editor is left unchanged.
func (e *Editor) Dispatch(a Action) error {
	if a == nil {
		return errors.New("editor: nil action")
	}
	fields, err := a.apply(e.fields)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		fields = []schema.Field{NewField()}
	}
	e.fields = fields
	e.sync()
	return nil
}

// SetJSON replaces the raw view with text. The structured view follows only
// when text parses and validates without errors.
func (e *Editor) SetJSON(text string) schema.ValidationResult {
	e.text = text
	e.result = schema.Validate(text)
	if !e.result.Valid() {
		return e.result
	}

	parsed, err := schema.Parse(text)
	if err != nil {
		e.result = schema.ValidationResult{Errors: []schema.Issue{{Message: err.Error()}}}
		return e.result
	}
	fields := AssignIDs(schema.SchemaToFields(parsed))
	if len(fields) == 0 {
		fields = []schema.Field{NewField()}
	}
	e.fields = fields
	return e.result
}

// ToggleExpanded flips the expanded state of the field with the given ID.
func (e *Editor) ToggleExpanded(id string) {
	if e.expanded[id] {
		delete(e.expanded, id)
		return
	}
	e.expanded[id] = true
}

// Expanded reports whether the field with the given ID is expanded.
func (e *Editor) Expanded(id string) bool {
	return e.expanded[id]
}

// Save validates and persists the current document under id. Nothing in the
// editor changes on failure so the save can be retried.
func (e *Editor) Save(ctx context.Context, store Store, id string) error {
	if store == nil {
		return errors.New("editor: store is nil")
	}
	if err := schema.CheckFields(e.fields); err != nil {
		return err
	}
	if !e.result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSchema, e.result.Errors[0].Message)
	}

	s := e.Schema()
	if err := store.SaveSchema(ctx, id, s); err != nil {
		e.logger.Warn("schema save failed", zap.String("schema", id), zap.Error(err))
		return fmt.Errorf("editor: save schema %q: %w", id, err)
	}
	e.logger.Debug("schema saved", zap.String("schema", id), zap.Int("fields", len(s.Properties)))
	return nil
}
