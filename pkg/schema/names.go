package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFieldName is returned when a field has a blank name.
var ErrEmptyFieldName = errors.New("schema: field name is required")

// DuplicateNameError reports two siblings sharing a name, compared
// case-insensitively.
type DuplicateNameError struct {
	Name   string
	Parent string
}

func (e *DuplicateNameError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("schema: duplicate field name %q", e.Name)
	}
	return fmt.Sprintf("schema: duplicate field name %q in %q", e.Name, e.Parent)
}

// InvalidTypeError reports a field whose type, or array item type, is not
// one the editor can represent.
type InvalidTypeError struct {
	Path string
	Type FieldType
	Item bool
}

func (e *InvalidTypeError) Error() string {
	if e.Item {
		return fmt.Sprintf("schema: field %q: unsupported array item type %q", e.Path, e.Type)
	}
	return fmt.Sprintf("schema: field %q: unsupported type %q", e.Path, e.Type)
}

// CheckFields runs every check a field list must pass before it is converted
// or saved: names first, then types.
func CheckFields(fields []Field) error {
	if err := CheckDuplicateNames(fields); err != nil {
		return err
	}
	return checkTypes(fields, "")
}

func checkTypes(fields []Field, parent string) error {
	for _, f := range fields {
		path := join(parent, strings.TrimSpace(f.Name))
		if !f.Type.Valid() {
			return &InvalidTypeError{Path: path, Type: f.Type}
		}
		if f.Type == TypeArray && f.ArrayItemType != "" && !f.ArrayItemType.ValidItemType() {
			return &InvalidTypeError{Path: path, Type: f.ArrayItemType, Item: true}
		}
		if children := f.Children(); len(children) > 0 {
			if err := checkTypes(children, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckDuplicateNames walks fields depth first and reports the first blank or
// duplicated sibling name.
func CheckDuplicateNames(fields []Field) error {
	return checkNames(fields, "")
}

func checkNames(fields []Field, parent string) error {
	seen := make(map[string]bool, len(fields))
	for idx, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			if parent == "" {
				return fmt.Errorf("%w (field %d)", ErrEmptyFieldName, idx+1)
			}
			return fmt.Errorf("%w (field %d of %q)", ErrEmptyFieldName, idx+1, parent)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return &DuplicateNameError{Name: f.Name, Parent: parent}
		}
		seen[key] = true

		if children := f.Children(); len(children) > 0 {
			if err := checkNames(children, join(parent, name)); err != nil {
				return err
			}
		}
	}
	return nil
}
