// Package docs builds a per-project documentation index over the project's
// module dependencies, extracted from their sources in the module cache.
package docs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/yoanbernabeu/golens/project"
)

// Event signals that documentation indexing started or finished for a
// project.
type Event struct {
	Project    string
	IsIndexing bool
}

// SymbolDoc is one extracted symbol with its documentation text.
type SymbolDoc struct {
	Symbol string `json:"symbol"`
	Doc    string `json:"doc"`
}

// Docs owns a project's documentation index. The index is swapped
// atomically on refresh so readers never see a half-built state.
type Docs struct {
	project *project.Project
	events  chan<- Event

	mu    sync.Mutex
	index *Index
}

// New constructs the docs handle and loads any cached index from disk. A
// project without a resolvable go.mod gets an empty index rather than an
// error; documentation is secondary to analysis.
func New(proj *project.Project, events chan<- Event) (*Docs, error) {
	index, err := LoadIndex(proj)
	if err != nil {
		return nil, fmt.Errorf("failed to load docs index: %w", err)
	}
	return &Docs{project: proj, events: events, index: index}, nil
}

// NewEmpty returns a handle with a permanently empty starting index. Used
// as the degraded fallback when New fails.
func NewEmpty(proj *project.Project, events chan<- Event) *Docs {
	return &Docs{project: proj, events: events, index: EmptyIndex()}
}

// UpdateIndex re-extracts documentation for every dependency and swaps the
// index. Start/finish events bracket the work.
func (d *Docs) UpdateIndex(ctx context.Context) error {
	d.emit(true)
	defer d.emit(false)

	index, err := BuildIndex(ctx, d.project)
	if err != nil {
		return fmt.Errorf("failed to update docs index: %w", err)
	}
	if err := index.SaveCache(d.project); err != nil {
		log.Printf("docs: failed to persist cache for %s: %v", d.project.Root, err)
	}

	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
	return nil
}

// Dependencies lists the indexed module paths and versions.
func (d *Docs) Dependencies() []Dependency {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index.Dependencies()
}

// ModuleDocs renders every documented symbol of one dependency as markdown.
func (d *Docs) ModuleDocs(modulePath string) (string, error) {
	d.mu.Lock()
	index := d.index
	d.mu.Unlock()

	if len(index.Dependencies()) == 0 {
		return "", fmt.Errorf("no dependencies indexed; update the docs index first")
	}
	md, ok := index.MarkdownDocs(modulePath)
	if !ok {
		return "", fmt.Errorf("no docs found for module %s", modulePath)
	}
	return md, nil
}

// SymbolDocs returns the documentation entries matching a symbol name in
// one dependency.
func (d *Docs) SymbolDocs(modulePath, symbol string) ([]SymbolDoc, error) {
	d.mu.Lock()
	index := d.index
	d.mu.Unlock()

	if len(index.Dependencies()) == 0 {
		return nil, fmt.Errorf("no dependencies indexed; update the docs index first")
	}
	found := index.SymbolDocs(modulePath, symbol)
	if len(found) == 0 {
		return nil, fmt.Errorf("no docs found for %s in module %s", symbol, modulePath)
	}
	return found, nil
}

func (d *Docs) emit(indexing bool) {
	if d.events == nil {
		return
	}
	select {
	case d.events <- Event{Project: d.project.Root, IsIndexing: indexing}:
	default:
		log.Printf("docs: event channel full, dropping event for %s", d.project.Root)
	}
}
