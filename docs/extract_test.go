package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSource = `package sample

// Greeter says hello.
// It is very polite.
type Greeter struct {
	Name string
}

// Greet returns a greeting.
func (g *Greeter) Greet() string {
	return "hello " + g.Name
}

// NewGreeter builds a Greeter.
func NewGreeter(name string) *Greeter {
	return &Greeter{Name: name}
}

func internalHelper() {}

// Config holds options.
type Config struct{}
`

func TestExtractFile(t *testing.T) {
	extractor, err := NewExtractor()
	if err != nil {
		t.Fatal(err)
	}

	symbols, err := extractor.ExtractFile(context.Background(), []byte(sampleSource))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("type with multi-line doc", func(t *testing.T) {
		doc, ok := symbols["Greeter"]
		if !ok {
			t.Fatalf("Greeter not extracted; got %v", keys(symbols))
		}
		if !strings.Contains(doc, "Greeter says hello. It is very polite.") {
			t.Errorf("doc comment lost: %q", doc)
		}
		if !strings.Contains(doc, "type Greeter struct") {
			t.Errorf("signature lost: %q", doc)
		}
	})

	t.Run("method prefixed with receiver", func(t *testing.T) {
		doc, ok := symbols["Greeter.Greet"]
		if !ok {
			t.Fatalf("Greeter.Greet not extracted; got %v", keys(symbols))
		}
		if !strings.Contains(doc, "Greet returns a greeting.") {
			t.Errorf("doc comment lost: %q", doc)
		}
	})

	t.Run("function", func(t *testing.T) {
		doc, ok := symbols["NewGreeter"]
		if !ok {
			t.Fatalf("NewGreeter not extracted; got %v", keys(symbols))
		}
		if !strings.Contains(doc, "func NewGreeter(name string) *Greeter") {
			t.Errorf("signature lost: %q", doc)
		}
	})

	t.Run("unexported skipped", func(t *testing.T) {
		if _, ok := symbols["internalHelper"]; ok {
			t.Error("unexported function extracted")
		}
	})

	t.Run("undocumented type keeps signature", func(t *testing.T) {
		doc, ok := symbols["Config"]
		if !ok {
			t.Fatalf("Config not extracted; got %v", keys(symbols))
		}
		if !strings.Contains(doc, "```go") {
			t.Errorf("missing fenced signature: %q", doc)
		}
	})
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("lib.go", "package lib\n\n// Exported does things.\nfunc Exported() {}\n")
	write("lib_test.go", "package lib\n\nfunc TestOnly() {}\n")
	write("internal/hidden.go", "package internal\n\nfunc Hidden() {}\n")
	write("testdata/data.go", "package testdata\n\nfunc Data() {}\n")

	extractor, err := NewExtractor()
	if err != nil {
		t.Fatal(err)
	}
	symbols, err := extractor.ExtractDir(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := symbols["Exported"]; !ok {
		t.Errorf("Exported missing; got %v", keys(symbols))
	}
	for _, bad := range []string{"TestOnly", "Hidden", "Data"} {
		if _, ok := symbols[bad]; ok {
			t.Errorf("%s should not be extracted", bad)
		}
	}
}

func TestExtractDirFirstDefinitionWins(t *testing.T) {
	dir := t.TempDir()
	// Walk order is lexical, so a.go is seen before z.go.
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package p\n\n// First wins.\nfunc Dup() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "z.go"), []byte("package p\n\n// Second loses.\nfunc Dup() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	extractor, err := NewExtractor()
	if err != nil {
		t.Fatal(err)
	}
	symbols, err := extractor.ExtractDir(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(symbols["Dup"], "First wins.") {
		t.Errorf("later definition overwrote earlier one: %q", symbols["Dup"])
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
