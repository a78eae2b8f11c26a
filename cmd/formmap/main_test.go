package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formmap/pkg/forms"
	"github.com/goliatone/go-formmap/pkg/schema"
)

const validSchema = `{
  "type": "object",
  "properties": {
    "customer": {"type": "string", "description": "Customer name"},
    "lines": {
      "type": "array",
      "description": "Invoice lines",
      "items": {
        "type": "object",
        "properties": {"sku": {"type": "string", "description": "SKU"}},
        "required": ["sku"],
        "additionalProperties": false
      }
    }
  },
  "required": ["customer", "lines"],
  "additionalProperties": false
}`

const previousForm = `{
  "id": "f1",
  "components": [{"type": "number", "key": "amt", "label": "Amount"}],
  "fieldMappings": {
    "amt": {"sources": [{"promptId": "p1", "schemaFieldPath": "total", "schemaFieldType": "float"}], "mappingType": "direct"}
  }
}`

const currentForm = `{
  "id": "f1",
  "components": [{"type": "number", "key": "amount_due", "label": "Amount"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FORMMAP_LOGLEVEL", "error")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_UsageAndUnknownCommand(t *testing.T) {
	if _, _, err := runCLI(t); err == nil {
		t.Fatalf("expected error without a command")
	}
	if _, _, err := runCLI(t, "frobnicate"); err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	out, _, err := runCLI(t, "help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"validate", "convert", "paths", "map", "reconcile", "prefill", "import-openapi"} {
		if !strings.Contains(out, name) {
			t.Errorf("usage should list %s:\n%s", name, out)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	out, _, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Version: "+version) {
		t.Fatalf("unexpected version output:\n%s", out)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", validSchema)
	bad := writeFile(t, dir, "bad.json", strings.Replace(validSchema, `"required": ["customer", "lines"]`, `"required": ["customer"]`, 1))

	out, _, err := runCLI(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out, "ok (0 warnings)") {
		t.Fatalf("expected ok line, got:\n%s", out)
	}

	out, _, err = runCLI(t, "validate", bad)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected invalid result, got %v", err)
	}
	if !strings.Contains(out, "error:") || !strings.Contains(out, `"lines"`) {
		t.Fatalf("expected error naming lines, got:\n%s", out)
	}

	out, _, err = runCLI(t, "validate", "--json", bad)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected invalid result, got %v", err)
	}
	var result schema.ValidationResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if result.Valid() {
		t.Fatalf("expected errors in json output")
	}

	if _, _, err := runCLI(t, "validate"); err == nil {
		t.Fatalf("expected missing argument error")
	}
}

func TestConvertCommand_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "schema.json", validSchema)

	out, _, err := runCLI(t, "convert", "--format", "yaml", src)
	if err != nil {
		t.Fatalf("convert schema: %v", err)
	}
	if !strings.Contains(out, "arrayItemType: object") {
		t.Fatalf("expected yaml field list, got:\n%s", out)
	}

	fields := writeFile(t, dir, "fields.yaml", out)
	out, _, err = runCLI(t, "convert", "--from", "fields", fields)
	if err != nil {
		t.Fatalf("convert fields: %v", err)
	}
	if result := schema.Validate(out); !result.Valid() {
		t.Fatalf("expected valid schema, got %+v\n%s", result.Errors, out)
	}

	nested := writeFile(t, dir, "nested.json", `[{"name":"m","type":"array","arrayItemType":"array"}]`)
	if _, _, err := runCLI(t, "convert", "--from", "fields", nested); err == nil || !strings.Contains(err.Error(), "unsupported array item type") {
		t.Fatalf("expected item type error, got %v", err)
	}

	if _, _, err := runCLI(t, "convert", "--from", "xml", src); err == nil {
		t.Fatalf("expected unknown input kind error")
	}
}

func TestPathsCommand(t *testing.T) {
	src := writeFile(t, t.TempDir(), "schema.json", validSchema)
	out, _, err := runCLI(t, "paths", src)
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	for _, want := range []string{"customer (string)", "lines (array)", "  lines[0].sku (string)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestImportOpenAPICommand(t *testing.T) {
	spec := `{
  "openapi": "3.0.3",
  "info": {"title": "T", "version": "1"},
  "paths": {},
  "components": {"schemas": {
    "Person": {"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}},
    "Empty": {"type": "object"}
  }}
}`
	src := writeFile(t, t.TempDir(), "openapi.json", spec)

	out, _, err := runCLI(t, "import-openapi", src)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "Empty\nPerson\n" {
		t.Fatalf("unexpected component list %q", out)
	}

	out, _, err = runCLI(t, "import-openapi", "--component", "Person", src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result := schema.Validate(out); !result.Valid() {
		t.Fatalf("expected valid schema, got %+v", result.Errors)
	}
	if !strings.Contains(out, `"age"`) {
		t.Fatalf("expected age property:\n%s", out)
	}
}

func TestReconcileCommand(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "prev.json", previousForm)
	next := writeFile(t, dir, "next.json", currentForm)

	out, errOut, err := runCLI(t, "reconcile", prev, next)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !strings.Contains(errOut, "1 renamed, 0 removed") {
		t.Fatalf("expected summary on stderr, got %q", errOut)
	}
	form, err := forms.Decode([]byte(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := form.FieldMappings["amount_due"]; !ok || len(form.FieldMappings) != 1 {
		t.Fatalf("expected mapping moved to amount_due, got %+v", form.FieldMappings)
	}

	target := filepath.Join(dir, "out.json")
	if _, _, err := runCLI(t, "reconcile", "-o", target, prev, next); err != nil {
		t.Fatalf("reconcile to file: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestPrefillCommand(t *testing.T) {
	dir := t.TempDir()
	form := writeFile(t, dir, "form.json", previousForm)
	results := writeFile(t, dir, "results.json", `{"p1": {"total": 42.5}}`)

	out, _, err := runCLI(t, "prefill", form, results)
	if err != nil {
		t.Fatalf("prefill: %v", err)
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if values["amt"] != 42.5 {
		t.Fatalf("expected amt=42.5, got %+v", values)
	}
}

func TestMapCommand_RequiresAPI(t *testing.T) {
	t.Setenv("FORMMAP_API_URL", "")
	_, _, err := runCLI(t, "map", "form.json")
	if err == nil || !strings.Contains(err.Error(), "api-url") {
		t.Fatalf("expected api-url error, got %v", err)
	}
}
