package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookup(t *testing.T) {
	value := map[string]any{
		"customer": map[string]any{"first": "Ada"},
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
		"matrix": []any{[]any{1.0, 2.0}},
	}

	cases := []struct {
		path string
		want any
		ok   bool
	}{
		{"customer.first", "Ada", true},
		{"items[1].sku", "B-2", true},
		{"matrix[0][1]", 2.0, true},
		{"items[2].sku", nil, false},
		{"customer[0]", nil, false},
		{"missing", nil, false},
		{"items[x]", nil, false},
		{"", nil, false},
	}
	for _, tc := range cases {
		got, ok := Lookup(value, tc.path)
		if ok != tc.ok || !cmp.Equal(tc.want, got) {
			t.Fatalf("Lookup(%q) = %v, %v; want %v, %v", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPrefill(t *testing.T) {
	m := Mappings{
		"amount": {Sources: []Source{total}, MappingType: Direct},
		"name": {
			Sources:                []Source{firstName, lastName},
			MappingType:            Concatenated,
			ConcatenationSeparator: ", ",
		},
		"street": {Sources: []Source{{PromptID: "p2", SchemaFieldPath: "address.street", SchemaFieldType: "string"}}, MappingType: Direct},
	}
	results := map[string]any{
		"p1": map[string]any{
			"total":    42.5,
			"customer": map[string]any{"first": "Ada", "last": " Lovelace "},
		},
	}

	want := map[string]any{
		"amount": 42.5,
		"name":   "Ada, Lovelace",
	}
	if diff := cmp.Diff(want, Prefill(m, results)); diff != "" {
		t.Fatalf("prefill mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefill_SkipsEmptyParts(t *testing.T) {
	m := Mappings{"name": {Sources: []Source{firstName, lastName}, MappingType: Concatenated}}
	results := map[string]any{"p1": map[string]any{"customer": map[string]any{"first": "", "last": "Hopper"}}}

	if diff := cmp.Diff(map[string]any{"name": "Hopper"}, Prefill(m, results)); diff != "" {
		t.Fatalf("prefill mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery(t *testing.T) {
	cases := map[string]string{
		"total":          "total",
		"items[0].sku":   "items.0.sku",
		"matrix[0][1]":   "matrix.0.1",
		"customer.first": "customer.first",
		"a*b":            `a\*b`,
	}
	for path, want := range cases {
		got, ok := Query(path)
		if !ok || got != want {
			t.Errorf("Query(%q) = %q, %v; want %q", path, got, ok, want)
		}
	}
	for _, bad := range []string{"", "items[", "items[-1]", "[0]x."} {
		if _, ok := Query(bad); ok {
			t.Errorf("Query(%q) should fail", bad)
		}
	}
}

func TestLookup_KeysMatchLiterally(t *testing.T) {
	value := map[string]any{"axb": "wild", "net|gross": 12.0}
	if _, ok := Lookup(value, "a*b"); ok {
		t.Fatalf("expected * in a key to match literally")
	}
	got, ok := Lookup(value, "net|gross")
	if !ok || got != 12.0 {
		t.Fatalf("expected literal pipe key, got %v, %v", got, ok)
	}
}

func TestPrefill_RendersNumbersAndObjects(t *testing.T) {
	m := Mappings{"summary": {
		Sources: []Source{
			{PromptID: "p1", SchemaFieldPath: "qty", SchemaFieldType: "integer"},
			{PromptID: "p1", SchemaFieldPath: "paid", SchemaFieldType: "boolean"},
			{PromptID: "p1", SchemaFieldPath: "dims", SchemaFieldType: "object"},
		},
		MappingType: Concatenated,
	}}
	results := map[string]any{"p1": map[string]any{
		"qty":  3.0,
		"paid": true,
		"dims": map[string]any{"h": 2.0, "w": 1.5},
	}}

	if diff := cmp.Diff(map[string]any{"summary": `3 true {"h":2,"w":1.5}`}, Prefill(m, results)); diff != "" {
		t.Fatalf("prefill mismatch (-want +got):\n%s", diff)
	}
}
