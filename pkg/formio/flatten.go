package formio

import (
	"sort"
	"strings"
)

var layoutTypes = map[string]bool{
	"panel":    true,
	"fieldset": true,
	"columns":  true,
	"tabs":     true,
	"well":     true,
	"table":    true,
}

var staticTypes = map[string]bool{
	"button":      true,
	"htmlelement": true,
	"content":     true,
}

// dataTypes hold their own value; their children are bound through them.
var dataTypes = map[string]bool{
	"container": true,
	"datagrid":  true,
	"editgrid":  true,
}

// Flatten walks components depth first and returns the input fields in
// document order. Layout nodes are traversed but not emitted; static nodes and
// components without a key are skipped.
func Flatten(components []Component) []FormField {
	var out []FormField
	walk(components, nil, &out)
	return out
}

func walk(components []Component, path []string, out *[]FormField) {
	for _, c := range components {
		typ := strings.ToLower(strings.TrimSpace(c.Type))
		switch {
		case dataTypes[typ]:
			emit(c, path, out)
		case typ == "" || layoutTypes[typ]:
			walk(c.children(), appendPath(path, c.Key), out)
		case staticTypes[typ] || (c.Input != nil && !*c.Input):
			continue
		default:
			emit(c, path, out)
			if nested := c.children(); len(nested) > 0 {
				walk(nested, appendPath(path, c.Key), out)
			}
		}
	}
}

func emit(c Component, path []string, out *[]FormField) {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		return
	}
	*out = append(*out, FormField{
		Key:   key,
		Label: CleanLabel(c.Label, key),
		Type:  strings.TrimSpace(c.Type),
		Path:  append([]string(nil), path...),
	})
}

func appendPath(path []string, key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return path
	}
	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	return append(next, key)
}

// Keys returns the sorted field keys.
func Keys(fields []FormField) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	sort.Strings(keys)
	return keys
}

// SameKeys reports whether a and b expose the same set of keys.
func SameKeys(a, b []FormField) bool {
	ka, kb := Keys(a), Keys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

// Index maps keys to fields. The first field wins on duplicate keys.
func Index(fields []FormField) map[string]FormField {
	out := make(map[string]FormField, len(fields))
	for _, f := range fields {
		if _, ok := out[f.Key]; !ok {
			out[f.Key] = f
		}
	}
	return out
}
