package mapping

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Prefill resolves every mapping against extraction results keyed by prompt
// ID and returns the values to place in each form field. Direct mappings carry
// the raw value; concatenated mappings join the non-empty renderings of their
// sources. Fields with no resolvable source are omitted.
func Prefill(m Mappings, results map[string]any) map[string]any {
	docs := make(map[string][]byte, len(results))
	resolve := func(src Source) gjson.Result {
		doc, ok := docs[src.PromptID]
		if !ok {
			doc, _ = json.Marshal(results[src.PromptID])
			docs[src.PromptID] = doc
		}
		return get(doc, src.SchemaFieldPath)
	}

	out := make(map[string]any, len(m))
	for key, fm := range m {
		if fm.MappingType != Concatenated && len(fm.Sources) == 1 {
			if r := resolve(fm.Sources[0]); r.Exists() && r.Type != gjson.Null {
				out[key] = r.Value()
			}
			continue
		}

		parts := make([]string, 0, len(fm.Sources))
		for _, src := range fm.Sources {
			if text := render(resolve(src)); text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			out[key] = strings.Join(parts, fm.Separator())
		}
	}
	return out
}

// Lookup resolves a schema field path such as "items[0].sku" inside a decoded
// JSON value.
func Lookup(value any, path string) (any, bool) {
	doc, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	r := get(doc, path)
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

func get(doc []byte, path string) gjson.Result {
	query, ok := Query(path)
	if !ok || len(doc) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(doc, query)
}

// Query translates a schema field path ("items[0].sku", "matrix[0][1]") into
// gjson syntax ("items.0.sku", "matrix.0.1"). Keys are escaped so wildcard
// and modifier characters in property names match literally.
func Query(path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	var parts []string
	for _, part := range strings.Split(path, ".") {
		name := part
		var indexes []string
		for {
			open := strings.IndexByte(name, '[')
			if open < 0 {
				break
			}
			closing := strings.IndexByte(name[open:], ']')
			if closing < 0 {
				return "", false
			}
			idx, err := strconv.Atoi(name[open+1 : open+closing])
			if err != nil || idx < 0 {
				return "", false
			}
			indexes = append(indexes, strconv.Itoa(idx))
			name = name[:open] + name[open+closing+1:]
		}
		if name == "" && len(indexes) == 0 {
			return "", false
		}
		if name != "" {
			parts = append(parts, gjson.Escape(name))
		}
		parts = append(parts, indexes...)
	}
	return strings.Join(parts, "."), true
}

func render(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return strings.TrimSpace(r.Str)
	case gjson.Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	case gjson.True, gjson.False:
		return strconv.FormatBool(r.Bool())
	case gjson.JSON:
		return r.Raw
	default:
		return ""
	}
}
