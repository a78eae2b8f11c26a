package mapping

import (
	"sort"
	"strings"
	"sync"
)

// Compatibility records which form field types each schema type may populate.
// Lookups are case-insensitive. The zero value allows nothing.
type Compatibility struct {
	mu      sync.RWMutex
	allowed map[string]map[string]bool
}

// NewCompatibility returns an empty table.
func NewCompatibility() *Compatibility {
	return &Compatibility{allowed: make(map[string]map[string]bool)}
}

// DefaultCompatibility returns a table seeded with the built-in pairs.
func DefaultCompatibility() *Compatibility {
	c := NewCompatibility()
	c.registerBuiltins()
	return c
}

// Register allows schemaType to populate each of formTypes.
func (c *Compatibility) Register(schemaType string, formTypes ...string) {
	if c == nil {
		return
	}
	st := normalizeSchemaType(schemaType)
	if st == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allowed == nil {
		c.allowed = make(map[string]map[string]bool)
	}
	set := c.allowed[st]
	if set == nil {
		set = make(map[string]bool)
		c.allowed[st] = set
	}
	for _, ft := range formTypes {
		if ft = normalize(ft); ft != "" {
			set[ft] = true
		}
	}
}

// Allows reports whether schemaType may populate formType.
func (c *Compatibility) Allows(schemaType, formType string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allowed[normalizeSchemaType(schemaType)][normalize(formType)]
}

// FormTypes lists the form field types schemaType may populate, sorted.
func (c *Compatibility) FormTypes(schemaType string) []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.allowed[normalizeSchemaType(schemaType)]
	out := make([]string, 0, len(set))
	for ft := range set {
		out = append(out, ft)
	}
	sort.Strings(out)
	return out
}

func (c *Compatibility) registerBuiltins() {
	c.Register("string",
		"textfield", "textarea", "email", "url", "phoneNumber",
		"select", "radio", "selectboxes", "datetime", "day", "time", "hidden")
	for _, numeric := range []string{"integer", "float"} {
		c.Register(numeric, "number", "textfield", "currency", "select", "radio", "hidden")
	}
	c.Register("boolean", "checkbox", "radio")
	c.Register("array", "select", "selectboxes", "datagrid", "editgrid", "tags")
	c.Register("object", "container", "datagrid", "editgrid")
}

var defaultCompat = DefaultCompatibility()

// IsCompatibleType reports whether schemaType may populate formType under the
// built-in table.
func IsCompatibleType(schemaType, formType string) bool {
	return defaultCompat.Allows(schemaType, formType)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeSchemaType folds the JSON Schema "number" keyword onto float.
func normalizeSchemaType(s string) string {
	s = normalize(s)
	if s == "number" {
		return "float"
	}
	return s
}
