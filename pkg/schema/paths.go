package schema

// FieldPath addresses one node of a canonical schema for the mapping panel.
// Children of arrays of objects use the first element as template, e.g.
// "items[0].sku".
type FieldPath struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Depth       int       `json:"depth"`
	ParentPath  string    `json:"parentPath,omitempty"`
}

// Paths flattens s depth first in declaration order.
func Paths(s *Schema) []FieldPath {
	var out []FieldPath
	collectPaths(s, "", "", 0, &out)
	return out
}

func collectPaths(s *Schema, prefix, parent string, depth int, out *[]FieldPath) {
	if s == nil {
		return
	}
	for _, prop := range s.Properties {
		if prop.Schema == nil {
			continue
		}
		path := prop.Name
		if prefix != "" {
			path = prefix + "." + prop.Name
		}
		typ := FieldTypeFromJSON(prop.Schema.Type)
		*out = append(*out, FieldPath{
			Path:        path,
			Name:        prop.Name,
			Type:        typ,
			Description: prop.Schema.Description,
			Depth:       depth,
			ParentPath:  parent,
		})

		switch typ {
		case TypeObject:
			collectPaths(prop.Schema, path, path, depth+1, out)
		case TypeArray:
			if items := prop.Schema.Items; items != nil && FieldTypeFromJSON(items.Type) == TypeObject {
				collectPaths(items, path+"[0]", path, depth+1, out)
			}
		}
	}
}

// HasChildren reports whether p is an object or an array of objects in paths.
func (p FieldPath) HasChildren(paths []FieldPath) bool {
	for _, other := range paths {
		if other.ParentPath == p.Path {
			return true
		}
	}
	return false
}

// Visible filters paths down to the nodes whose every ancestor is expanded.
// It is recomputed on each call.
func Visible(paths []FieldPath, expanded map[string]bool) []FieldPath {
	index := make(map[string]FieldPath, len(paths))
	for _, p := range paths {
		index[p.Path] = p
	}

	out := make([]FieldPath, 0, len(paths))
	for _, p := range paths {
		if ancestorsExpanded(p, index, expanded) {
			out = append(out, p)
		}
	}
	return out
}

func ancestorsExpanded(p FieldPath, index map[string]FieldPath, expanded map[string]bool) bool {
	parent := p.ParentPath
	for steps := 0; parent != ""; steps++ {
		if !expanded[parent] || steps > len(index) {
			return false
		}
		next, ok := index[parent]
		if !ok {
			return false
		}
		parent = next.ParentPath
	}
	return true
}
