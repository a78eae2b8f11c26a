package editor

import "github.com/goliatone/go-formmap/pkg/schema"

// Action is a single edit applied to the field tree by Editor.Dispatch.
type Action interface {
	apply(fields []schema.Field) ([]schema.Field, error)
}

// AddField appends a blank field under Parent.
type AddField struct {
	Parent Loc
}

func (a AddField) apply(fields []schema.Field) ([]schema.Field, error) {
	return Add(fields, a.Parent, NewField())
}

// RemoveField deletes the field at At.
type RemoveField struct {
	At Loc
}

func (a RemoveField) apply(fields []schema.Field) ([]schema.Field, error) {
	return Remove(fields, a.At)
}

// RenameField sets the name of the field at At.
type RenameField struct {
	At   Loc
	Name string
}

func (a RenameField) apply(fields []schema.Field) ([]schema.Field, error) {
	return Update(fields, a.At, func(f schema.Field) (schema.Field, error) {
		f.Name = a.Name
		return f, nil
	})
}

// SetDescription sets the description of the field at At.
type SetDescription struct {
	At          Loc
	Description string
}

func (a SetDescription) apply(fields []schema.Field) ([]schema.Field, error) {
	return Update(fields, a.At, func(f schema.Field) (schema.Field, error) {
		f.Description = a.Description
		return f, nil
	})
}

// SetFieldType changes the type of the field at At.
type SetFieldType struct {
	At   Loc
	Type schema.FieldType
}

func (a SetFieldType) apply(fields []schema.Field) ([]schema.Field, error) {
	return Update(fields, a.At, func(f schema.Field) (schema.Field, error) {
		return SetType(f, a.Type)
	})
}

// SetArrayItemType changes the element type of the array field at At.
type SetArrayItemType struct {
	At   Loc
	Type schema.FieldType
}

func (a SetArrayItemType) apply(fields []schema.Field) ([]schema.Field, error) {
	return Update(fields, a.At, func(f schema.Field) (schema.Field, error) {
		return SetItemType(f, a.Type)
	})
}

// MoveField reorders the list under Parent.
type MoveField struct {
	Parent Loc
	From   int
	To     int
}

func (a MoveField) apply(fields []schema.Field) ([]schema.Field, error) {
	return Move(fields, a.Parent, a.From, a.To)
}
