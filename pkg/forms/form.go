// Package forms holds form definitions together with the field mappings they
// own.
package forms

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formmap/pkg/formio"
	"github.com/goliatone/go-formmap/pkg/mapping"
)

// Form is a form definition as stored by the backend.
type Form struct {
	ID            string             `json:"id" yaml:"id"`
	Title         string             `json:"title,omitempty" yaml:"title,omitempty"`
	Name          string             `json:"name,omitempty" yaml:"name,omitempty"`
	TagIDs        []string           `json:"tagIds,omitempty" yaml:"tagIds,omitempty"`
	Components    []formio.Component `json:"components" yaml:"components"`
	FieldMappings mapping.Mappings   `json:"fieldMappings,omitempty" yaml:"fieldMappings,omitempty"`
}

// Fields flattens the component tree into mappable input fields.
func (f *Form) Fields() []formio.FormField {
	if f == nil {
		return nil
	}
	return formio.Flatten(f.Components)
}

// Clone returns a copy whose mappings and tag list are not shared with f.
func (f Form) Clone() Form {
	f.TagIDs = append([]string(nil), f.TagIDs...)
	f.Components = append([]formio.Component(nil), f.Components...)
	if f.FieldMappings != nil {
		f.FieldMappings = f.FieldMappings.Clone()
	}
	return f
}

// Decode parses a form definition from JSON, falling back to YAML, and checks
// the mappings it carries.
func Decode(data []byte) (*Form, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("forms: empty form definition")
	}

	var form Form
	if err := json.Unmarshal(data, &form); err != nil {
		form = Form{}
		if yerr := yaml.Unmarshal(data, &form); yerr != nil {
			return nil, fmt.Errorf("forms: parse definition: invalid JSON or YAML")
		}
	}
	if err := mapping.Validate(form.FieldMappings); err != nil {
		return nil, fmt.Errorf("forms: form %q: %w", form.ID, err)
	}
	return &form, nil
}

// Encode renders f as indented JSON.
func Encode(f *Form) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("forms: nil form")
	}
	return json.MarshalIndent(f, "", "  ")
}

// Catalog indexes form definitions by ID.
type Catalog struct {
	forms map[string]*Form
}

// LoadFS walks fsys and decodes every JSON or YAML form definition. Forms
// without an ID take the file name without extension.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{forms: make(map[string]*Form)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("forms: read %s: %w", path, err)
		}
		form, err := Decode(data)
		if err != nil {
			return fmt.Errorf("forms: %s: %w", path, err)
		}
		if strings.TrimSpace(form.ID) == "" {
			form.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if _, exists := catalog.forms[form.ID]; exists {
			return fmt.Errorf("forms: duplicate form %q (file %s)", form.ID, path)
		}
		catalog.forms[form.ID] = form
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Form returns the definition registered under id.
func (c *Catalog) Form(id string) (*Form, bool) {
	if c == nil {
		return nil, false
	}
	form, ok := c.forms[id]
	return form, ok
}

// IDs lists the form IDs in sorted order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.forms))
	for id := range c.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isFormFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
