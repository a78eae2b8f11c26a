package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formmap/pkg/jsonpos"
)

// Issue is a blocking validation error annotated with the best-known source
// position.
type Issue struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Warning is a non-blocking observation about a schema.
type Warning struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationResult collects every issue found in one pass.
type ValidationResult struct {
	Errors   []Issue   `json:"errors"`
	Warnings []Warning `json:"warnings"`
}

// Valid reports whether the result carries no errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err folds the errors into a single error value, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, issue := range r.Errors {
		if issue.Line > 0 {
			errs = append(errs, fmt.Errorf("line %d: %s", issue.Line, issue.Message))
			continue
		}
		errs = append(errs, errors.New(issue.Message))
	}
	return errors.Join(errs...)
}

var allowedTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

// Validate parses text and checks it against the strict schema rules. Parse
// failures are returned as a single error positioned at the failure.
func Validate(text string) ValidationResult {
	tree, err := jsonpos.Parse(text)
	if err != nil {
		var perr *jsonpos.ParseError
		if errors.As(err, &perr) {
			return ValidationResult{Errors: []Issue{{
				Message: "invalid JSON: " + perr.Message,
				Line:    perr.Line,
				Column:  perr.Column,
			}}}
		}
		return ValidationResult{Errors: []Issue{{Message: err.Error()}}}
	}
	return ValidateTree(tree)
}

// ValidateTree checks a parsed document. At every object level, including
// array items, properties and required must match exactly and
// additionalProperties must be false.
func ValidateTree(tree *jsonpos.Tree) ValidationResult {
	v := &validator{tree: tree}
	root := tree.Root()
	if tree.Kind(root) != jsonpos.Object {
		n := tree.Node(root)
		v.fail("", n.Line, "schema must be a JSON object")
		return v.result
	}
	if typ, ok := v.stringAt(root, "type"); ok && typ != "object" {
		v.fail("", v.lineOf(root, "type"), `root schema must have type "object"`)
	}
	v.checkSchema(root, "")
	return v.result
}

type validator struct {
	tree   *jsonpos.Tree
	result ValidationResult
}

func (v *validator) fail(path string, line int, format string, args ...any) {
	v.result.Errors = append(v.result.Errors, Issue{
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Line:    line,
	})
}

func (v *validator) warn(path string, format string, args ...any) {
	v.result.Warnings = append(v.result.Warnings, Warning{
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

// lineOf returns the line of obj[key], falling back to the line of obj.
func (v *validator) lineOf(obj jsonpos.NodeID, key string) int {
	if line, ok := v.tree.PropertyLine(obj, key); ok {
		return line
	}
	line, _ := v.tree.ObjectLine(obj)
	return line
}

func (v *validator) stringAt(obj jsonpos.NodeID, key string) (string, bool) {
	id, ok := v.tree.Get(obj, key)
	if !ok {
		return "", false
	}
	return v.tree.StringValue(id)
}

func (v *validator) checkSchema(id jsonpos.NodeID, path string) {
	where := describe(path)
	typeID, ok := v.tree.Get(id, "type")
	if !ok {
		line, _ := v.tree.ObjectLine(id)
		v.fail(path, line, `%s is missing "type"`, where)
		return
	}
	typ, ok := v.tree.StringValue(typeID)
	if !ok || !allowedTypes[typ] {
		v.fail(path, v.lineOf(id, "type"), `%s has invalid type %s; expected one of string, integer, number, boolean, object, array`, where, v.render(typeID))
		return
	}

	switch typ {
	case "object":
		v.checkObject(id, path)
	case "array":
		v.checkArray(id, path)
	}
}

func (v *validator) checkObject(id jsonpos.NodeID, path string) {
	where := describe(path)
	objLine, _ := v.tree.ObjectLine(id)

	if apID, ok := v.tree.Get(id, "additionalProperties"); !ok {
		v.fail(path, objLine, `%s must set "additionalProperties" to false`, where)
	} else if flag, isBool := v.tree.BoolValue(apID); !isBool || flag {
		v.fail(path, v.lineOf(id, "additionalProperties"), `%s must set "additionalProperties" to false`, where)
	}

	propsID, hasProps := v.tree.Get(id, "properties")
	if !hasProps {
		v.fail(path, objLine, `%s is missing "properties"`, where)
	} else if v.tree.Kind(propsID) != jsonpos.Object {
		v.fail(path, v.lineOf(id, "properties"), `%s: "properties" must be an object`, where)
		hasProps = false
	}

	var required []string
	reqID, hasReq := v.tree.Get(id, "required")
	reqLine := v.lineOf(id, "required")
	switch {
	case !hasReq:
		v.fail(path, objLine, `%s is missing "required" array`, where)
	case v.tree.Kind(reqID) != jsonpos.Array:
		v.fail(path, reqLine, `%s: "required" must be an array`, where)
		hasReq = false
	default:
		for _, elem := range v.tree.Node(reqID).Elems {
			name, ok := v.tree.StringValue(elem)
			if !ok {
				v.fail(path, v.tree.Node(elem).Line, `%s: "required" entries must be strings`, where)
				continue
			}
			required = append(required, name)
		}
	}

	if !hasProps {
		return
	}

	keys := v.tree.Keys(propsID)
	if len(keys) == 0 {
		v.warn(path, `%s declares no properties`, where)
	}

	if hasReq {
		listed := make(map[string]bool, len(required))
		for _, name := range required {
			listed[name] = true
		}
		declared := make(map[string]bool, len(keys))
		for _, key := range keys {
			declared[key] = true
			if !listed[key] {
				v.fail(join(path, key), v.lineOf(propsID, key), `property %q in %s is not listed in "required"`, key, where)
			}
		}
		for _, name := range required {
			if !declared[name] {
				v.fail(path, reqLine, `required field %q in %s has no matching property`, name, where)
			}
		}
	}

	for _, key := range keys {
		child, _ := v.tree.Get(propsID, key)
		childPath := join(path, key)
		if v.tree.Kind(child) != jsonpos.Object {
			v.fail(childPath, v.lineOf(propsID, key), `property %q must be a schema object`, key)
			continue
		}
		if desc, ok := v.stringAt(child, "description"); !ok || strings.TrimSpace(desc) == "" {
			v.warn(childPath, `property %q has no description`, key)
		}
		v.checkSchema(child, childPath)
	}
}

func (v *validator) checkArray(id jsonpos.NodeID, path string) {
	where := describe(path)
	itemsID, ok := v.tree.Get(id, "items")
	if !ok {
		line, _ := v.tree.ObjectLine(id)
		v.fail(path, line, `%s is an array but is missing "items"`, where)
		return
	}
	if v.tree.Kind(itemsID) != jsonpos.Object {
		v.fail(path, v.lineOf(id, "items"), `%s: "items" must be a schema object`, where)
		return
	}
	if typ, _ := v.stringAt(itemsID, "type"); typ == "array" {
		v.fail(path, v.lineOf(id, "items"), `%s: arrays of arrays are not supported; wrap the inner array in an object`, where)
		return
	}
	v.checkSchema(itemsID, path+"[]")
}

func (v *validator) render(id jsonpos.NodeID) string {
	n := v.tree.Node(id)
	switch n.Kind {
	case jsonpos.String:
		return fmt.Sprintf("%q", n.Str)
	case jsonpos.Number:
		return n.Literal
	default:
		return n.Kind.String()
	}
}

func describe(path string) string {
	if path == "" {
		return "root schema"
	}
	return fmt.Sprintf("%q", path)
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
