package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/yoanbernabeu/golens/internal/fileutil"
	"github.com/yoanbernabeu/golens/project"
)

const cacheFileName = "docs_cache.json"

// Dependency identifies one required module of the project.
type Dependency struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Index maps module paths to their extracted symbol documentation.
type Index struct {
	deps []Dependency
	// docs maps module path -> symbol name -> doc text.
	docs map[string]map[string]string
}

// cacheFile is the on-disk JSON shape of an Index.
type cacheFile struct {
	Dependencies []Dependency                 `json:"dependencies"`
	Docs         map[string]map[string]string `json:"docs"`
}

// EmptyIndex returns an index with no dependencies and no docs.
func EmptyIndex() *Index {
	return &Index{docs: make(map[string]map[string]string)}
}

// LoadIndex reads the dependency list from go.mod and any previously cached
// docs. A project without go.mod yields an empty index.
func LoadIndex(proj *project.Project) (*Index, error) {
	deps, err := readDependencies(proj)
	if err != nil {
		log.Printf("docs: no resolvable dependency manifest for %s: %v", proj.Root, err)
		return EmptyIndex(), nil
	}

	index := &Index{deps: deps, docs: make(map[string]map[string]string)}

	cachePath := filepath.Join(proj.CacheDir(), cacheFileName)
	data, err := os.ReadFile(cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("docs: failed to read cache at %s: %v", cachePath, err)
		}
		return index, nil
	}
	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		log.Printf("docs: malformed cache at %s, ignoring: %v", cachePath, err)
		return index, nil
	}
	if cached.Docs != nil {
		index.docs = cached.Docs
	}
	return index, nil
}

// BuildIndex extracts documentation for every non-ignored dependency from
// its sources in the module cache.
func BuildIndex(ctx context.Context, proj *project.Project) (*Index, error) {
	deps, err := readDependencies(proj)
	if err != nil {
		return EmptyIndex(), nil
	}

	modCache, err := goModCacheDir()
	if err != nil {
		return nil, err
	}

	extractor, err := NewExtractor()
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]bool, len(proj.IgnoreModules))
	for _, m := range proj.IgnoreModules {
		ignored[m] = true
	}

	index := &Index{deps: deps, docs: make(map[string]map[string]string)}
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ignored[dep.Path] {
			continue
		}
		dir, err := moduleSourceDir(modCache, dep)
		if err != nil {
			log.Printf("docs: skipping %s: %v", dep.Path, err)
			continue
		}
		symbols, err := extractor.ExtractDir(ctx, dir)
		if err != nil {
			log.Printf("docs: extraction failed for %s: %v", dep.Path, err)
			continue
		}
		if len(symbols) > 0 {
			index.docs[dep.Path] = symbols
		}
	}
	return index, nil
}

// SaveCache writes the index to the project cache dir. The write is
// atomic so a crash mid-save cannot leave a truncated cache behind.
func (i *Index) SaveCache(proj *project.Project) error {
	data, err := json.Marshal(cacheFile{Dependencies: i.deps, Docs: i.docs})
	if err != nil {
		return fmt.Errorf("failed to serialize docs cache: %w", err)
	}
	cachePath := filepath.Join(proj.CacheDir(), cacheFileName)
	if err := fileutil.EnsureParentDir(cachePath); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := fileutil.WriteFileAtomically(cachePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write docs cache: %w", err)
	}
	return nil
}

// Dependencies returns the dependency list.
func (i *Index) Dependencies() []Dependency {
	return i.deps
}

// Symbols lists the documented symbol names of one module, sorted.
func (i *Index) Symbols(modulePath string) []string {
	m, ok := i.docs[modulePath]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SymbolDocs returns doc entries whose symbol name matches exactly or
// case-insensitively.
func (i *Index) SymbolDocs(modulePath, symbol string) []SymbolDoc {
	m, ok := i.docs[modulePath]
	if !ok {
		return nil
	}
	if doc, ok := m[symbol]; ok {
		return []SymbolDoc{{Symbol: symbol, Doc: doc}}
	}
	var found []SymbolDoc
	for name, doc := range m {
		if strings.EqualFold(name, symbol) {
			found = append(found, SymbolDoc{Symbol: name, Doc: doc})
		}
	}
	sort.Slice(found, func(a, b int) bool { return found[a].Symbol < found[b].Symbol })
	return found
}

// MarkdownDocs renders all documented symbols of one module as markdown.
func (i *Index) MarkdownDocs(modulePath string) (string, bool) {
	symbols := i.Symbols(modulePath)
	if symbols == nil {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", modulePath)
	for _, name := range symbols {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, i.docs[modulePath][name])
	}
	return b.String(), true
}

// readDependencies parses the project's go.mod require list.
func readDependencies(proj *project.Project) ([]Dependency, error) {
	goModPath := filepath.Join(proj.Root, "go.mod")
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}
	f, err := modfile.Parse(goModPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	var deps []Dependency
	for _, req := range f.Require {
		if req.Indirect {
			continue
		}
		deps = append(deps, Dependency{Path: req.Mod.Path, Version: req.Mod.Version})
	}
	sort.Slice(deps, func(a, b int) bool { return deps[a].Path < deps[b].Path })
	return deps, nil
}

// moduleSourceDir locates a dependency's extracted sources in the module
// cache, using the cache's case-escaped path encoding.
func moduleSourceDir(modCache string, dep Dependency) (string, error) {
	escaped, err := module.EscapePath(dep.Path)
	if err != nil {
		return "", fmt.Errorf("failed to escape module path: %w", err)
	}
	escapedVersion, err := module.EscapeVersion(dep.Version)
	if err != nil {
		return "", fmt.Errorf("failed to escape module version: %w", err)
	}
	dir := filepath.Join(modCache, filepath.FromSlash(escaped)+"@"+escapedVersion)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("module sources not in cache (run go mod download): %w", err)
	}
	return dir, nil
}

func goModCacheDir() (string, error) {
	out, err := exec.Command("go", "env", "GOMODCACHE").Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve GOMODCACHE: %w", err)
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("GOMODCACHE is empty")
	}
	return dir, nil
}
