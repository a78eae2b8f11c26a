package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-formmap/pkg/schema"
)

var (
	// ErrInvalidLocation is returned when a Loc does not address a field.
	ErrInvalidLocation = errors.New("editor: invalid field location")
	// ErrNotContainer is returned when children are addressed under a field
	// that cannot own any.
	ErrNotContainer = errors.New("editor: field cannot hold nested fields")
	// ErrInvalidType is returned for unsupported field or item types.
	ErrInvalidType = errors.New("editor: unsupported field type")
)

// Loc addresses a field: the first index selects a root field, every further
// index selects a child of the previous one. An empty Loc addresses the root
// list when used as a parent.
type Loc []int

// NewField returns a blank string field with a fresh identity.
func NewField() schema.Field {
	return schema.Field{ID: uuid.NewString(), Type: schema.TypeString}
}

// AssignIDs returns a deep copy of fields where every node has an ID.
func AssignIDs(fields []schema.Field) []schema.Field {
	out := schema.CloneFields(fields)
	assignIDs(out)
	return out
}

func assignIDs(fields []schema.Field) {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = uuid.NewString()
		}
		assignIDs(fields[i].NestedFields)
		assignIDs(fields[i].ArrayObjectFields)
	}
}

// Find returns the field at loc.
func Find(fields []schema.Field, loc Loc) (schema.Field, error) {
	if len(loc) == 0 || loc[0] < 0 || loc[0] >= len(fields) {
		return schema.Field{}, fmt.Errorf("%w: %v", ErrInvalidLocation, []int(loc))
	}
	if len(loc) == 1 {
		return fields[loc[0]], nil
	}
	parent := fields[loc[0]]
	if !parent.HasChildren() {
		return schema.Field{}, ErrNotContainer
	}
	return Find(parent.Children(), loc[1:])
}

// Update returns a new tree where the field at loc is replaced by fn(field).
// Untouched subtrees are shared with the input, which must not be mutated.
func Update(fields []schema.Field, loc Loc, fn func(schema.Field) (schema.Field, error)) ([]schema.Field, error) {
	if len(loc) == 0 || loc[0] < 0 || loc[0] >= len(fields) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, []int(loc))
	}
	out := append([]schema.Field(nil), fields...)
	if len(loc) == 1 {
		updated, err := fn(out[loc[0]])
		if err != nil {
			return nil, err
		}
		out[loc[0]] = updated
		return out, nil
	}

	parent := out[loc[0]]
	if !parent.HasChildren() {
		return nil, ErrNotContainer
	}
	children, err := Update(parent.Children(), loc[1:], fn)
	if err != nil {
		return nil, err
	}
	out[loc[0]] = parent.WithChildren(children)
	return out, nil
}

// UpdateList returns a new tree where the child list under parent is replaced
// by fn(list).
func UpdateList(fields []schema.Field, parent Loc, fn func([]schema.Field) ([]schema.Field, error)) ([]schema.Field, error) {
	if len(parent) == 0 {
		return fn(append([]schema.Field(nil), fields...))
	}
	return Update(fields, parent, func(f schema.Field) (schema.Field, error) {
		if !f.HasChildren() {
			return f, ErrNotContainer
		}
		children, err := fn(append([]schema.Field(nil), f.Children()...))
		if err != nil {
			return f, err
		}
		return f.WithChildren(children), nil
	})
}

// Add appends field to the list under parent.
func Add(fields []schema.Field, parent Loc, field schema.Field) ([]schema.Field, error) {
	return UpdateList(fields, parent, func(list []schema.Field) ([]schema.Field, error) {
		return append(list, field), nil
	})
}

// Remove deletes the field at loc.
func Remove(fields []schema.Field, loc Loc) ([]schema.Field, error) {
	if len(loc) == 0 {
		return nil, ErrInvalidLocation
	}
	idx := loc[len(loc)-1]
	return UpdateList(fields, loc[:len(loc)-1], func(list []schema.Field) ([]schema.Field, error) {
		if idx < 0 || idx >= len(list) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, []int(loc))
		}
		return append(list[:idx], list[idx+1:]...), nil
	})
}

// Move relocates the field at index from to index to within the list under
// parent. The remaining fields keep their relative order.
func Move(fields []schema.Field, parent Loc, from, to int) ([]schema.Field, error) {
	return UpdateList(fields, parent, func(list []schema.Field) ([]schema.Field, error) {
		if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
			return nil, fmt.Errorf("%w: move %d -> %d", ErrInvalidLocation, from, to)
		}
		moved := list[from]
		list = append(list[:from], list[from+1:]...)
		list = append(list[:to], append([]schema.Field{moved}, list[to:]...)...)
		return list, nil
	})
}

// SetType changes the type of f and reshapes the child metadata so an object
// never carries array metadata and vice versa.
func SetType(f schema.Field, t schema.FieldType) (schema.Field, error) {
	if !t.Valid() {
		return f, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	f.Type = t
	switch t {
	case schema.TypeObject:
		f.ArrayItemType = ""
		f.ArrayObjectFields = nil
		if len(f.NestedFields) == 0 {
			f.NestedFields = []schema.Field{NewField()}
		}
	case schema.TypeArray:
		f.NestedFields = nil
		if f.ArrayItemType == "" {
			f.ArrayItemType = schema.TypeString
		}
		return SetItemType(f, f.ArrayItemType)
	default:
		f.NestedFields = nil
		f.ArrayItemType = ""
		f.ArrayObjectFields = nil
	}
	return f, nil
}

// SetItemType changes the element type of an array field.
func SetItemType(f schema.Field, t schema.FieldType) (schema.Field, error) {
	if f.Type != schema.TypeArray {
		return f, fmt.Errorf("%w: item type on %q field", ErrInvalidType, f.Type)
	}
	if !t.ValidItemType() {
		return f, fmt.Errorf("%w: array item %q", ErrInvalidType, t)
	}
	f.ArrayItemType = t
	if t == schema.TypeObject {
		if len(f.ArrayObjectFields) == 0 {
			f.ArrayObjectFields = []schema.Field{NewField()}
		}
	} else {
		f.ArrayObjectFields = nil
	}
	return f, nil
}
