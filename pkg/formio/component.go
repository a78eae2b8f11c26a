// Package formio reads Form.io component trees and flattens them into the
// input fields a mapping can target.
package formio

import (
	"encoding/json"
	"fmt"
)

// Component is one node of a Form.io component tree. Attributes the mapper
// does not need are ignored when decoding.
type Component struct {
	Key        string      `json:"key,omitempty" yaml:"key,omitempty"`
	Type       string      `json:"type,omitempty" yaml:"type,omitempty"`
	Label      string      `json:"label,omitempty" yaml:"label,omitempty"`
	Input      *bool       `json:"input,omitempty" yaml:"input,omitempty"`
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
	Columns    []Column    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows       [][]Column  `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Column is a cell of a columns or table layout.
type Column struct {
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
}

// FormField is a flattened input component.
type FormField struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Type  string   `json:"type"`
	Path  []string `json:"path,omitempty"`
}

// Decode reads a component list. It accepts either a bare array or an object
// with a "components" member, which is how form definitions are exported.
func Decode(data []byte) ([]Component, error) {
	var list []Component
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapper struct {
		Components []Component `json:"components"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("formio: decode components: %w", err)
	}
	return wrapper.Components, nil
}

// children returns every nested component regardless of which slot holds it.
func (c Component) children() []Component {
	out := append([]Component(nil), c.Components...)
	for _, col := range c.Columns {
		out = append(out, col.Components...)
	}
	for _, row := range c.Rows {
		for _, cell := range row {
			out = append(out, cell.Components...)
		}
	}
	return out
}
