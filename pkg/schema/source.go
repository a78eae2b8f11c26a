package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source names one input document of the formmap tools: a strict schema, a
// form definition carrying fieldMappings, a field list, extraction results or
// an OpenAPI document to import from. The loader only needs to know where the
// bytes live; what they mean is decided by the caller.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind tells the loader which backend serves a Source.
type SourceKind string

const (
	// SourceKindFile is a path on the local disk, as given on the CLI.
	SourceKindFile SourceKind = "file"
	// SourceKindFS is a name inside LoaderOptions.FileSystem, used for
	// embedded or test fixtures.
	SourceKindFS SourceKind = "fs"
	// SourceKindURL is an http(s) location, served only when the loader
	// has HTTP enabled.
	SourceKindURL SourceKind = "url"
)

// location is the single Source implementation; the kind selects the backend.
type location struct {
	kind SourceKind
	at   string
}

func (l location) Kind() SourceKind { return l.kind }

func (l location) Location() string { return l.at }

// String renders the source as kind:location for logs and error messages.
func (l location) String() string { return string(l.kind) + ":" + l.at }

// SourceFromFile returns a Source for a disk path, cleaned so that equivalent
// spellings of the same file compare equal.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, at: filepath.Clean(path)}
}

// SourceFromFS returns a Source for name inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, at: name}
}

// SourceFromURL validates raw and returns a URL Source.
func SourceFromURL(raw string) (Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("schema: empty URL source")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("schema: unsupported URL scheme %q", u.Scheme)
	}
	return location{kind: SourceKindURL, at: raw}, nil
}

// ParseSource interprets a CLI argument: http(s) locations become URL sources,
// anything else a file path.
func ParseSource(raw string) (Source, error) {
	arg := strings.TrimSpace(raw)
	if arg == "" {
		return nil, fmt.Errorf("schema: empty source")
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return SourceFromURL(arg)
	}
	return SourceFromFile(arg), nil
}
