package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formmap/pkg/schema"
)

var ignoreIDs = cmpopts.IgnoreFields(schema.Field{}, "ID")

type memoryStore struct {
	saved map[string]*schema.Schema
	err   error
}

func (m *memoryStore) SaveSchema(_ context.Context, id string, s *schema.Schema) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[string]*schema.Schema)
	}
	m.saved[id] = s
	return nil
}

func mustDispatch(t *testing.T, e *Editor, actions ...Action) {
	t.Helper()
	for _, a := range actions {
		if err := e.Dispatch(a); err != nil {
			t.Fatalf("dispatch %T: %v", a, err)
		}
	}
}

func TestNew_StartsWithBlankField(t *testing.T) {
	e := New()
	fields := e.Fields()
	if len(fields) != 1 || fields[0].Name != "" || fields[0].Type != schema.TypeString || fields[0].ID == "" {
		t.Fatalf("unexpected initial fields %+v", fields)
	}
	if !e.Result().Valid() {
		t.Fatalf("expected initial document to be valid, got %+v", e.Result().Errors)
	}
}

func TestDispatch_BuildsNestedSchema(t *testing.T) {
	e := New()
	mustDispatch(t, e,
		RenameField{At: Loc{0}, Name: "customer"},
		SetFieldType{At: Loc{0}, Type: schema.TypeObject},
		RenameField{At: Loc{0, 0}, Name: "name"},
		AddField{Parent: Loc{0}},
		RenameField{At: Loc{0, 1}, Name: "email"},
		AddField{},
		RenameField{At: Loc{1}, Name: "lines"},
		SetFieldType{At: Loc{1}, Type: schema.TypeArray},
		SetArrayItemType{At: Loc{1}, Type: schema.TypeObject},
		RenameField{At: Loc{1, 0}, Name: "sku"},
		SetDescription{At: Loc{1, 0}, Description: "Stock keeping unit"},
	)

	want := []schema.Field{
		{Name: "customer", Type: schema.TypeObject, NestedFields: []schema.Field{
			{Name: "name", Type: schema.TypeString},
			{Name: "email", Type: schema.TypeString},
		}},
		{Name: "lines", Type: schema.TypeArray, ArrayItemType: schema.TypeObject, ArrayObjectFields: []schema.Field{
			{Name: "sku", Type: schema.TypeString, Description: "Stock keeping unit"},
		}},
	}
	if diff := cmp.Diff(want, e.Fields(), ignoreIDs, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(e.JSON(), `"Stock keeping unit"`) || !strings.Contains(e.JSON(), `"customer"`) {
		t.Fatalf("expected JSON view to follow the field list:\n%s", e.JSON())
	}
	if !e.Result().Valid() {
		t.Fatalf("expected valid document, got %+v", e.Result().Errors)
	}
}

func TestDispatch_ErrorLeavesStateUntouched(t *testing.T) {
	e := New()
	mustDispatch(t, e, RenameField{At: Loc{0}, Name: "a"})
	before := e.JSON()

	if err := e.Dispatch(RenameField{At: Loc{3}, Name: "x"}); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected invalid location, got %v", err)
	}
	if err := e.Dispatch(AddField{Parent: Loc{0}}); !errors.Is(err, ErrNotContainer) {
		t.Fatalf("expected not container, got %v", err)
	}
	if err := e.Dispatch(SetFieldType{At: Loc{0}, Type: "date"}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
	if e.JSON() != before {
		t.Fatalf("expected JSON view unchanged")
	}
}

func TestMove_SplicePreservesOrder(t *testing.T) {
	fields := []schema.Field{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}

	moved, err := Move(fields, nil, 0, 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	names := func(list []schema.Field) string {
		out := make([]string, 0, len(list))
		for _, f := range list {
			out = append(out, f.Name)
		}
		return strings.Join(out, ",")
	}
	if got := names(moved); got != "b,c,a,d" {
		t.Fatalf("expected b,c,a,d, got %s", got)
	}
	if got := names(fields); got != "a,b,c,d" {
		t.Fatalf("expected input untouched, got %s", got)
	}

	back, err := Move(moved, nil, 3, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := names(back); got != "d,b,c,a" {
		t.Fatalf("expected d,b,c,a, got %s", got)
	}

	if _, err := Move(fields, nil, 0, 4); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestSetType_ReshapesChildren(t *testing.T) {
	f := schema.Field{Name: "x", Type: schema.TypeObject, NestedFields: []schema.Field{{Name: "y"}}}

	arr, err := SetType(f, schema.TypeArray)
	if err != nil {
		t.Fatalf("set type: %v", err)
	}
	if arr.NestedFields != nil || arr.ArrayItemType != schema.TypeString {
		t.Fatalf("expected array of strings without nested fields, got %+v", arr)
	}

	scalar, err := SetType(arr, schema.TypeBoolean)
	if err != nil {
		t.Fatalf("set type: %v", err)
	}
	if scalar.ArrayItemType != "" || scalar.ArrayObjectFields != nil {
		t.Fatalf("expected scalar without array metadata, got %+v", scalar)
	}

	if _, err := SetItemType(arr, schema.TypeArray); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected nested array to be rejected, got %v", err)
	}
}

func TestSetJSON_InvalidTextKeepsFields(t *testing.T) {
	e := New()
	mustDispatch(t, e, RenameField{At: Loc{0}, Name: "kept"})

	result := e.SetJSON("{\n  \"type\": \"object\",\n  \"properties\": {\n    \"a\": {\"type\": \"string\"}\n  },\n  \"required\": [],\n  \"additionalProperties\": false\n}")
	if result.Valid() {
		t.Fatalf("expected validation errors")
	}
	if result.Errors[0].Line != 4 {
		t.Fatalf("expected error on line 4, got %+v", result.Errors[0])
	}
	if fields := e.Fields(); len(fields) != 1 || fields[0].Name != "kept" {
		t.Fatalf("expected structured view untouched, got %+v", fields)
	}
	if !strings.Contains(e.JSON(), `"required": []`) {
		t.Fatalf("expected raw text retained")
	}

	if result := e.SetJSON(`{"type":`); result.Valid() {
		t.Fatalf("expected parse error")
	}
	if fields := e.Fields(); fields[0].Name != "kept" {
		t.Fatalf("expected structured view untouched after parse error")
	}
}

func TestSetJSON_ValidTextReplacesFields(t *testing.T) {
	e := New()
	result := e.SetJSON(`{"type":"object","properties":{"total":{"type":"number","description":"Total"}},"required":["total"],"additionalProperties":false}`)
	if !result.Valid() {
		t.Fatalf("expected valid, got %+v", result.Errors)
	}
	fields := e.Fields()
	if len(fields) != 1 || fields[0].Name != "total" || fields[0].Type != schema.TypeFloat || fields[0].ID == "" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestToggleExpanded(t *testing.T) {
	e := New()
	id := e.Fields()[0].ID
	e.ToggleExpanded(id)
	if !e.Expanded(id) {
		t.Fatalf("expected expanded")
	}
	e.ToggleExpanded(id)
	if e.Expanded(id) {
		t.Fatalf("expected collapsed")
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate names", func(t *testing.T) {
		e := New()
		mustDispatch(t, e, RenameField{At: Loc{0}, Name: "Total"}, AddField{}, RenameField{At: Loc{1}, Name: "total"})
		var dup *schema.DuplicateNameError
		if err := e.Save(ctx, &memoryStore{}, "s1"); !errors.As(err, &dup) || dup.Name != "total" {
			t.Fatalf("expected duplicate error, got %v", err)
		}
	})

	t.Run("invalid json blocks save", func(t *testing.T) {
		e := New()
		mustDispatch(t, e, RenameField{At: Loc{0}, Name: "a"})
		e.SetJSON(`{`)
		if err := e.Save(ctx, &memoryStore{}, "s1"); !errors.Is(err, ErrInvalidSchema) {
			t.Fatalf("expected invalid schema error, got %v", err)
		}
	})

	t.Run("store failure keeps state", func(t *testing.T) {
		e := New()
		mustDispatch(t, e, RenameField{At: Loc{0}, Name: "a"})
		before := e.JSON()
		store := &memoryStore{err: errors.New("backend down")}
		if err := e.Save(ctx, store, "s1"); err == nil {
			t.Fatalf("expected store error")
		}
		if e.JSON() != before || e.Fields()[0].Name != "a" {
			t.Fatalf("expected state retained after failed save")
		}
		store.err = nil
		if err := e.Save(ctx, store, "s1"); err != nil {
			t.Fatalf("retry: %v", err)
		}
		if got := store.saved["s1"]; got == nil || len(got.Properties) != 1 {
			t.Fatalf("expected saved schema, got %+v", got)
		}
	})
}

func TestLoadAndClear(t *testing.T) {
	e := New()
	e.Load(schema.FieldsToSchema([]schema.Field{{Name: "a", Type: schema.TypeString, Description: "A"}}))
	if fields := e.Fields(); len(fields) != 1 || fields[0].Name != "a" {
		t.Fatalf("unexpected fields after load %+v", fields)
	}
	e.Clear()
	if fields := e.Fields(); len(fields) != 1 || fields[0].Name != "" {
		t.Fatalf("expected blank field after clear, got %+v", fields)
	}
}

func TestSetJSON_ArrayOfArraysKeepsFields(t *testing.T) {
	e := New()
	mustDispatch(t, e, RenameField{At: Loc{0}, Name: "kept"})

	result := e.SetJSON(`{"type":"object","properties":{"m":{"type":"array","description":"M","items":{"type":"array","items":{"type":"integer"}}}},"required":["m"],"additionalProperties":false}`)
	if result.Valid() {
		t.Fatalf("expected nested arrays to be rejected")
	}
	if fields := e.Fields(); len(fields) != 1 || fields[0].Name != "kept" {
		t.Fatalf("expected structured view untouched, got %+v", fields)
	}
	if !strings.Contains(e.JSON(), `"integer"`) {
		t.Fatalf("expected raw text retained")
	}
}

func TestSave_RejectsUnsupportedTypes(t *testing.T) {
	e := New()
	e.fields = []schema.Field{{ID: "m", Name: "m", Type: schema.TypeArray, ArrayItemType: schema.TypeArray}}
	e.sync()

	store := &memoryStore{}
	var invalid *schema.InvalidTypeError
	if err := e.Save(context.Background(), store, "s1"); !errors.As(err, &invalid) || !invalid.Item {
		t.Fatalf("expected item type error, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected nothing saved")
	}
}
