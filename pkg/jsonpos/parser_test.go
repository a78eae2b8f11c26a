package jsonpos

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_RecordsObjectAndPropertyLines(t *testing.T) {
	tree, err := Parse("{\n  \"a\": {\n    \"b\": 1\n  }\n}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	root := tree.Root()
	if line, ok := tree.ObjectLine(root); !ok || line != 1 {
		t.Fatalf("expected root object on line 1, got %d (ok=%v)", line, ok)
	}
	if line, ok := tree.PropertyLine(root, "a"); !ok || line != 2 {
		t.Fatalf("expected property a on line 2, got %d (ok=%v)", line, ok)
	}

	nested, ok := tree.Get(root, "a")
	if !ok {
		t.Fatalf("expected property a")
	}
	if line, ok := tree.ObjectLine(nested); !ok || line != 2 {
		t.Fatalf("expected nested object on line 2, got %d (ok=%v)", line, ok)
	}
	if line, ok := tree.PropertyLine(nested, "b"); !ok || line != 3 {
		t.Fatalf("expected property b on line 3, got %d (ok=%v)", line, ok)
	}
}

func TestParse_PropertyLineIsValueLine(t *testing.T) {
	tree, err := Parse("{\"a\":\n\n  [1, 2]}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if line, _ := tree.PropertyLine(tree.Root(), "a"); line != 3 {
		t.Fatalf("expected value line 3, got %d", line)
	}
}

func TestParse_IdenticalObjectsKeepDistinctLines(t *testing.T) {
	tree, err := Parse("[\n{\"x\": 1},\n\n{\"x\": 1}\n]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	elems := tree.Node(tree.Root()).Elems
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	first, _ := tree.ObjectLine(elems[0])
	second, _ := tree.ObjectLine(elems[1])
	if first != 2 || second != 4 {
		t.Fatalf("expected lines 2 and 4, got %d and %d", first, second)
	}
}

func TestParse_Values(t *testing.T) {
	tree, err := Parse(`{"s":"a\"b\\c\/d\n","n":-12.5e1,"z":0,"t":true,"f":false,"nil":null,"arr":[1,"x",[]],"o":{}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := map[string]any{
		"s":   "a\"b\\c/d\n",
		"n":   -125.0,
		"z":   0.0,
		"t":   true,
		"f":   false,
		"nil": nil,
		"arr": []any{1.0, "x", []any{}},
		"o":   map[string]any{},
	}
	if diff := cmp.Diff(want, tree.Value(tree.Root())); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	if got := tree.Keys(tree.Root()); len(got) != 8 || got[0] != "s" || got[7] != "o" {
		t.Fatalf("expected keys in source order, got %v", got)
	}
	n, _ := tree.Get(tree.Root(), "n")
	if lit := tree.Node(n).Literal; lit != "-12.5e1" {
		t.Fatalf("expected literal to be retained, got %q", lit)
	}
}

func TestParse_UnicodeEscapePassThrough(t *testing.T) {
	tree, err := Parse(`"caf\u00e9"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := tree.StringValue(tree.Root()); got != `caf\u00e9` {
		t.Fatalf("expected escape kept verbatim, got %q", got)
	}
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	tree, err := Parse("{\"a\": 1,\n\"a\": 2}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if keys := tree.Keys(tree.Root()); len(keys) != 1 {
		t.Fatalf("expected a single key, got %v", keys)
	}
	id, _ := tree.Get(tree.Root(), "a")
	if tree.Node(id).Number != 2 {
		t.Fatalf("expected later value to win")
	}
	if line, _ := tree.PropertyLine(tree.Root(), "a"); line != 2 {
		t.Fatalf("expected later line 2, got %d", line)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{name: "missing value", input: `{"a": }`, line: 1, column: 7},
		{name: "missing value on later line", input: "{\n  \"a\": 1,\n  \"b\": ]\n}", line: 3, column: 8},
		{name: "trailing comma", input: "{\"a\": 1,\n}", line: 2, column: 1},
		{name: "bad keyword", input: "[tru]", line: 1, column: 2},
		{name: "bad null", input: "{\n\"x\": nul}", line: 2, column: 6},
		{name: "bad number", input: "[-]", line: 1, column: 3},
		{name: "bad fraction", input: "[1.]", line: 1, column: 4},
		{name: "bad exponent", input: "[1e+]", line: 1, column: 5},
		{name: "unterminated string", input: "{\"a\": \"abc", line: 1, column: 11},
		{name: "control char", input: "\"a\nb\"", line: 1, column: 3},
		{name: "invalid escape", input: `"\x"`, line: 1, column: 3},
		{name: "invalid unicode", input: `"\u12G4"`, line: 1, column: 4},
		{name: "unexpected eof", input: "{\"a\": [1, 2", line: 1, column: 12},
		{name: "empty input", input: "  ", line: 1, column: 3},
		{name: "trailing content", input: "{} x", line: 1, column: 4},
		{name: "missing colon", input: `{"a" 1}`, line: 1, column: 6},
		{name: "non string key", input: `{a: 1}`, line: 1, column: 2},
		{name: "leading zero", input: `[01]`, line: 1, column: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("expected error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line != tc.line || perr.Column != tc.column {
				t.Fatalf("expected position %d:%d, got %d:%d (%s)", tc.line, tc.column, perr.Line, perr.Column, perr.Message)
			}
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	input := ""
	for i := 0; i <= MaxDepth; i++ {
		input += "["
	}
	if _, err := Parse(input); err == nil {
		t.Fatalf("expected depth error")
	}
}
