package forms

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/mapping"
)

// Store persists a form definition. internal/api.Client implements it.
type Store interface {
	SaveForm(ctx context.Context, form *Form) error
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for reconciliation and save events.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithEngine replaces the default mapping engine.
func WithEngine(engine *mapping.Engine) Option {
	return func(b *Builder) {
		if engine != nil {
			b.engine = engine
		}
	}
}

// Builder edits the components and mappings of one form. Mappings follow the
// component tree: every component change is reconciled against the previous
// shape.
type Builder struct {
	form    Form
	tracker *mapping.Tracker
	engine  *mapping.Engine
	logger  *zap.Logger
}

// NewBuilder starts editing a copy of form.
func NewBuilder(form Form, options ...Option) *Builder {
	b := &Builder{
		form:   form.Clone(),
		engine: mapping.NewEngine(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	if b.form.FieldMappings == nil {
		b.form.FieldMappings = mapping.Mappings{}
	}
	b.tracker = mapping.NewTracker(b.form.Fields())
	return b
}

// Form returns a copy of the form being edited.
func (b *Builder) Form() Form {
	return b.form.Clone()
}

// Fields returns the current mappable fields.
func (b *Builder) Fields() []formio.FormField {
	return b.tracker.Fields()
}

// Mappings returns a copy of the current mappings.
func (b *Builder) Mappings() mapping.Mappings {
	return b.form.FieldMappings.Clone()
}

// SetComponents replaces the component tree and repairs mappings whose field
// keys changed.
func (b *Builder) SetComponents(components []formio.Component) mapping.Report {
	b.form.Components = append([]formio.Component(nil), components...)
	next, report := b.tracker.Observe(formio.Flatten(b.form.Components), b.form.FieldMappings)
	b.form.FieldMappings = next
	if report.Changed {
		b.logger.Info("form fields changed",
			zap.String("form", b.form.ID),
			zap.String("mappings", report.Summary()),
		)
	}
	return report
}

// Drop binds src to the form field with the given key.
func (b *Builder) Drop(key string, src mapping.Source) error {
	field, ok := formio.Index(b.tracker.Fields())[key]
	if !ok {
		return fmt.Errorf("forms: form %q has no field %q", b.form.ID, key)
	}
	next, err := b.engine.Drop(b.form.FieldMappings, field, src)
	if err != nil {
		return err
	}
	b.form.FieldMappings = next
	return nil
}

// RemoveSource removes one source of the mapping of key.
func (b *Builder) RemoveSource(key string, index int) error {
	return b.apply(func(m mapping.Mappings) (mapping.Mappings, error) {
		return mapping.RemoveSource(m, key, index)
	})
}

// RemoveAll unmaps key.
func (b *Builder) RemoveAll(key string) error {
	return b.apply(func(m mapping.Mappings) (mapping.Mappings, error) {
		return mapping.RemoveAll(m, key)
	})
}

// SetSeparator changes the separator of the mapping of key.
func (b *Builder) SetSeparator(key, separator string) error {
	return b.apply(func(m mapping.Mappings) (mapping.Mappings, error) {
		return mapping.SetSeparator(m, key, separator)
	})
}

func (b *Builder) apply(fn func(mapping.Mappings) (mapping.Mappings, error)) error {
	next, err := fn(b.form.FieldMappings)
	if err != nil {
		return err
	}
	b.form.FieldMappings = next
	return nil
}

// Save validates the mappings and persists the form. The builder keeps its
// state when the store fails so the save can be retried.
func (b *Builder) Save(ctx context.Context, store Store) error {
	if store == nil {
		return errors.New("forms: store is nil")
	}
	if err := mapping.Validate(b.form.FieldMappings); err != nil {
		return fmt.Errorf("forms: form %q: %w", b.form.ID, err)
	}
	form := b.form.Clone()
	if err := store.SaveForm(ctx, &form); err != nil {
		b.logger.Warn("form save failed", zap.String("form", b.form.ID), zap.Error(err))
		return fmt.Errorf("forms: save form %q: %w", b.form.ID, err)
	}
	b.logger.Debug("form saved", zap.String("form", b.form.ID), zap.Int("mappings", len(form.FieldMappings)))
	return nil
}
