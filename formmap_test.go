package formmap

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formmap/pkg/editor"
	"github.com/goliatone/go-formmap/pkg/mapping"
	"github.com/goliatone/go-formmap/pkg/schema"
)

func TestLoadSchema(t *testing.T) {
	fsys := fstest.MapFS{
		"good.json": {Data: []byte(`{"type":"object","properties":{"a":{"type":"string","description":"A"}},"required":["a"],"additionalProperties":false}`)},
		"bad.json":  {Data: []byte(`{"type":"object","properties":{"a":{"type":"string"}},"required":[],"additionalProperties":false}`)},
	}
	ctx := context.Background()

	s, result, err := LoadSchema(ctx, schema.SourceFromFS("good.json"), schema.WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !result.Valid() || s == nil || len(s.Properties) != 1 {
		t.Fatalf("expected decoded schema, got %+v %+v", s, result.Errors)
	}

	s, result, err = LoadSchema(ctx, schema.SourceFromFS("bad.json"), schema.WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Valid() || s != nil {
		t.Fatalf("expected validation errors and no schema")
	}

	if _, _, err := LoadSchema(ctx, schema.SourceFromFS("missing.json"), schema.WithFileSystem(fsys)); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestEditorToPrefill(t *testing.T) {
	e := NewEditor()
	if err := e.Dispatch(editor.RenameField{At: editor.Loc{0}, Name: "customer"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result := Validate(e.JSON()); !result.Valid() {
		t.Fatalf("expected valid editor output, got %+v", result.Errors)
	}

	fsys := fstest.MapFS{
		"invoice.json": {Data: []byte(`{"components":[{"type":"textfield","key":"name","label":"Name"}]}`)},
	}
	catalog, err := LoadForms(fsys)
	if err != nil {
		t.Fatalf("load forms: %v", err)
	}
	form, ok := catalog.Form("invoice")
	if !ok {
		t.Fatalf("expected invoice form, got %v", catalog.IDs())
	}

	paths := schema.Paths(e.Schema())
	b := NewBuilder(*form)
	if err := b.Drop("name", mappingSource("p1", paths[0])); err != nil {
		t.Fatalf("drop: %v", err)
	}

	values := Prefill(b.Form(), map[string]any{"p1": map[string]any{"customer": "Acme"}})
	if values["name"] != "Acme" {
		t.Fatalf("expected prefilled name, got %+v", values)
	}
}

func mappingSource(promptID string, p schema.FieldPath) mapping.Source {
	return mapping.SourceFromPath(promptID, "Invoice", p)
}
