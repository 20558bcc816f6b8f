package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yoanbernabeu/golens/project"
)

const sampleGoMod = `module example.com/app

go 1.23

require (
	github.com/direct/dep v1.2.3
	github.com/other/dep v0.9.0
)

require github.com/indirect/dep v0.1.0 // indirect
`

func testProject(t *testing.T) *project.Project {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(sampleGoMod), 0644); err != nil {
		t.Fatal(err)
	}
	proj, err := project.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return proj
}

func TestReadDependencies(t *testing.T) {
	deps, err := readDependencies(testProject(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 direct deps, got %d: %v", len(deps), deps)
	}
	// Sorted by path.
	if deps[0].Path != "github.com/direct/dep" || deps[0].Version != "v1.2.3" {
		t.Errorf("unexpected first dep %+v", deps[0])
	}
	for _, d := range deps {
		if d.Path == "github.com/indirect/dep" {
			t.Error("indirect dependency included")
		}
	}
}

func TestReadDependenciesNoGoMod(t *testing.T) {
	proj, err := project.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := readDependencies(proj); err == nil {
		t.Fatal("expected error without go.mod")
	}
}

func TestLoadIndexWithoutManifest(t *testing.T) {
	proj, err := project.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	index, err := LoadIndex(proj)
	if err != nil {
		t.Fatalf("LoadIndex should degrade, got %v", err)
	}
	if len(index.Dependencies()) != 0 {
		t.Errorf("expected empty index, got %v", index.Dependencies())
	}
}

func TestLoadIndexIgnoresMalformedCache(t *testing.T) {
	proj := testProject(t)
	if err := os.MkdirAll(proj.CacheDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj.CacheDir(), cacheFileName), []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}

	index, err := LoadIndex(proj)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(index.Dependencies()) != 2 {
		t.Errorf("deps should still come from go.mod, got %v", index.Dependencies())
	}
}

func TestSaveCacheRoundTrip(t *testing.T) {
	proj := testProject(t)
	index := &Index{
		deps: []Dependency{{Path: "github.com/direct/dep", Version: "v1.2.3"}},
		docs: map[string]map[string]string{
			"github.com/direct/dep": {"Thing": "docs for Thing"},
		},
	}
	if err := index.SaveCache(proj); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}

	loaded, err := LoadIndex(proj)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	found := loaded.SymbolDocs("github.com/direct/dep", "Thing")
	if len(found) != 1 || found[0].Doc != "docs for Thing" {
		t.Errorf("cache round trip lost docs: %+v", found)
	}
}

func TestSymbolDocs(t *testing.T) {
	index := &Index{
		deps: []Dependency{{Path: "m", Version: "v1.0.0"}},
		docs: map[string]map[string]string{
			"m": {
				"Reader":  "reads",
				"reader":  "internal reads",
				"Writer":  "writes",
				"Scanner": "scans",
			},
		},
	}

	t.Run("exact match wins", func(t *testing.T) {
		found := index.SymbolDocs("m", "Reader")
		if len(found) != 1 || found[0].Symbol != "Reader" {
			t.Errorf("got %+v", found)
		}
	})

	t.Run("case-insensitive fallback", func(t *testing.T) {
		found := index.SymbolDocs("m", "WRITER")
		if len(found) != 1 || found[0].Symbol != "Writer" {
			t.Errorf("got %+v", found)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if found := index.SymbolDocs("m", "Closer"); found != nil {
			t.Errorf("got %+v", found)
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		if found := index.SymbolDocs("nope", "Reader"); found != nil {
			t.Errorf("got %+v", found)
		}
	})
}

func TestSymbolsSorted(t *testing.T) {
	index := &Index{docs: map[string]map[string]string{
		"m": {"Zeta": "z", "Alpha": "a", "Mid": "m"},
	}}
	got := index.Symbols("m")
	want := []string{"Alpha", "Mid", "Zeta"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMarkdownDocs(t *testing.T) {
	index := &Index{docs: map[string]map[string]string{
		"github.com/x/y": {"Alpha": "alpha docs", "Beta": "beta docs"},
	}}

	md, ok := index.MarkdownDocs("github.com/x/y")
	if !ok {
		t.Fatal("expected docs")
	}
	if !strings.Contains(md, "# github.com/x/y") ||
		!strings.Contains(md, "## Alpha") ||
		!strings.Contains(md, "beta docs") {
		t.Errorf("markdown incomplete:\n%s", md)
	}
	if strings.Index(md, "## Alpha") > strings.Index(md, "## Beta") {
		t.Error("symbols not sorted in markdown")
	}

	if _, ok := index.MarkdownDocs("unknown"); ok {
		t.Error("expected no docs for unknown module")
	}
}
