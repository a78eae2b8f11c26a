package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formmap/pkg/schema"
)

const doc = `{"type":"object","properties":{"a":{"type":"string","description":"A"}},"required":["a"],"additionalProperties":false}`

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := New(schema.NewLoaderOptions())
	document, err := l.Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !document.Validate().Valid() {
		t.Fatalf("expected valid document")
	}
}

func TestLoad_FS(t *testing.T) {
	files := fstest.MapFS{"schemas/a.json": {Data: []byte(doc)}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	document, err := l.Load(context.Background(), schema.SourceFromFS("schemas/a.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if document.Location() != "schemas/a.json" {
		t.Fatalf("unexpected location %q", document.Location())
	}

	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFS("schemas/a.json")); err == nil {
		t.Fatalf("expected error without filesystem")
	}
}

func TestLoad_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(doc))
	}))
	defer server.Close()

	src, err := schema.SourceFromURL(server.URL + "/schema.json")
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), src); err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected http to be disabled by default, got %v", err)
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client())))
	document, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if document.Text() != doc {
		t.Fatalf("unexpected payload %q", document.Text())
	}

	missing, err := schema.SourceFromURL(server.URL + "/missing.json")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, err := l.Load(context.Background(), missing); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files := fstest.MapFS{"a.json": {Data: []byte(doc)}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))
	if _, err := l.Load(ctx, schema.SourceFromFS("a.json")); err == nil {
		t.Fatalf("expected context error")
	}
	if _, err := l.Load(ctx, nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}
