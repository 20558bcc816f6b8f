// Package registry tracks the set of registered projects, owns their
// analysis sessions, docs indexes and build runners, and merges all of
// their event streams into one notification feed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yoanbernabeu/golens/config"
	"github.com/yoanbernabeu/golens/docs"
	"github.com/yoanbernabeu/golens/gotool"
	"github.com/yoanbernabeu/golens/lsp"
	"github.com/yoanbernabeu/golens/project"
)

const (
	sourceChanBuffer     = 64
	subscriberChanBuffer = 128
)

var (
	// ErrProjectExists is returned when adding a root that is already
	// registered.
	ErrProjectExists = errors.New("project already registered")

	// ErrProjectNotFound is returned when operating on an unregistered
	// root.
	ErrProjectNotFound = errors.New("project not registered")
)

// AnalysisSession is the per-project language analysis surface. The
// production implementation is lsp.Session; tests substitute fakes.
type AnalysisSession interface {
	WaitIndexed(ctx context.Context) error
	OpenFile(ctx context.Context, relative string) error
	Hover(ctx context.Context, relative string, pos lsp.Position) (*lsp.Hover, error)
	TypeDefinition(ctx context.Context, relative string, pos lsp.Position) ([]lsp.Location, error)
	References(ctx context.Context, relative string, pos lsp.Position) ([]lsp.Location, error)
	DocumentSymbols(ctx context.Context, relative string) ([]lsp.SymbolInformation, error)
	SetPaused(pause bool)
	Progress() lsp.IndexingProgress
	Shutdown() error
}

// DocsIndex is the per-project dependency documentation surface.
type DocsIndex interface {
	UpdateIndex(ctx context.Context) error
	Dependencies() []docs.Dependency
	ModuleDocs(modulePath string) (string, error)
	SymbolDocs(modulePath, symbol string) ([]docs.SymbolDoc, error)
}

// BuildRunner runs the build tool against a project.
type BuildRunner interface {
	Check(ctx context.Context, onlyErrors bool) ([]gotool.Message, error)
	Test(ctx context.Context, name string, backtrace bool) ([]gotool.Message, error)
}

// ProjectHandle bundles one registered project with its long-lived
// per-project services. Handles stay valid after removal from the
// registry; in-flight operations finish against a removed handle.
type ProjectHandle struct {
	Project  *project.Project
	Analysis AnalysisSession
	Docs     DocsIndex
	Build    BuildRunner

	docsIndexing atomic.Bool
}

// Describe returns the display snapshot of the handle.
func (h *ProjectHandle) Describe() ProjectDescription {
	return ProjectDescription{
		Name:               h.Project.Name(),
		Root:               h.Project.Root,
		IsIndexingAnalysis: h.Analysis.Progress().IsIndexing,
		IsIndexingDocs:     h.docsIndexing.Load(),
	}
}

type sessionFactory func(proj *project.Project, events chan<- lsp.Event) (AnalysisSession, error)
type docsFactory func(proj *project.Project, events chan<- docs.Event) (DocsIndex, error)
type buildFactory func(proj *project.Project) BuildRunner

// Option configures a Registry.
type Option func(*Registry)

// WithSessionFactory substitutes the analysis session constructor.
func WithSessionFactory(f sessionFactory) Option {
	return func(r *Registry) { r.newSession = f }
}

// WithDocsFactory substitutes the docs index constructor.
func WithDocsFactory(f docsFactory) Option {
	return func(r *Registry) { r.newDocs = f }
}

// WithBuildFactory substitutes the build runner constructor.
func WithBuildFactory(f buildFactory) Option {
	return func(r *Registry) { r.newBuild = f }
}

// WithConfigPath sets the file where the project list is persisted. An
// empty path disables persistence.
func WithConfigPath(path string) Option {
	return func(r *Registry) { r.configPath = path }
}

// Registry is the root object: a keyed set of project handles plus the
// notification bus that merges their event streams.
type Registry struct {
	mu       sync.RWMutex
	projects map[string]*ProjectHandle

	analysisEvents chan lsp.Event
	docsEvents     chan docs.Event
	toolEvents     chan ToolEvent

	subMu sync.Mutex
	subs  []chan Notification

	configPath string

	newSession sessionFactory
	newDocs    docsFactory
	newBuild   buildFactory

	busDone   chan struct{}
	closeOnce sync.Once
}

// New constructs a Registry and starts its notification bus.
func New(opts ...Option) *Registry {
	r := &Registry{
		projects:       make(map[string]*ProjectHandle),
		analysisEvents: make(chan lsp.Event, sourceChanBuffer),
		docsEvents:     make(chan docs.Event, sourceChanBuffer),
		toolEvents:     make(chan ToolEvent, sourceChanBuffer),
		configPath:     config.DefaultPath(),
		busDone:        make(chan struct{}),
	}
	r.newSession = func(proj *project.Project, events chan<- lsp.Event) (AnalysisSession, error) {
		return lsp.NewSession(proj, events)
	}
	r.newDocs = func(proj *project.Project, events chan<- docs.Event) (DocsIndex, error) {
		return docs.New(proj, events)
	}
	r.newBuild = func(proj *project.Project) BuildRunner {
		return gotool.NewRunner(proj)
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.bus()
	return r
}

// Subscribe returns a channel of merged notifications. Slow subscribers
// lose notifications rather than stalling the bus. The channel is closed
// by Close.
func (r *Registry) Subscribe() <-chan Notification {
	ch := make(chan Notification, subscriberChanBuffer)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()
	return ch
}

// PublishToolEvent feeds a tool request/response into the bus. Never
// blocks; a full bus drops the event.
func (r *Registry) PublishToolEvent(ev ToolEvent) {
	select {
	case r.toolEvents <- ev:
	default:
		log.Printf("registry: tool event channel full, dropping %s", ev.Tool)
	}
}

// bus merges the three source streams into the subscriber feed. Each
// source channel goes nil once closed; the bus exits when all three are.
func (r *Registry) bus() {
	defer close(r.busDone)
	analysis := r.analysisEvents
	docsCh := r.docsEvents
	tools := r.toolEvents
	for analysis != nil || docsCh != nil || tools != nil {
		select {
		case ev, ok := <-analysis:
			if !ok {
				analysis = nil
				continue
			}
			r.publish(r.fromAnalysisEvent(ev))
		case ev, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			if h, ok := r.GetProject(ev.Project); ok {
				h.docsIndexing.Store(ev.IsIndexing)
			}
			r.publish(DocsIndexing{Time: time.Now(), Project: ev.Project, IsIndexing: ev.IsIndexing})
		case ev, ok := <-tools:
			if !ok {
				tools = nil
				continue
			}
			r.publish(r.fromToolEvent(ev))
		}
	}
}

func (r *Registry) fromAnalysisEvent(ev lsp.Event) Notification {
	now := time.Now()
	switch ev := ev.(type) {
	case lsp.IndexingEvent:
		return AnalysisIndexing{Time: now, Project: ev.Project, IsIndexing: ev.IsIndexing}
	case lsp.ProgressEvent:
		return AnalysisProgress{Time: now, Progress: ev.Progress}
	case lsp.PauseResumeEvent:
		return AnalysisPauseResume{Time: now, Project: ev.Project, ShouldPause: ev.ShouldPause}
	default:
		return nil
	}
}

func (r *Registry) fromToolEvent(ev ToolEvent) Notification {
	now := time.Now()
	if ev.Kind == ToolEventRequest {
		return ToolRequest{Time: now, ID: ev.ID, Project: ev.Project, Tool: ev.Tool, Payload: ev.Payload}
	}
	return ToolResponse{Time: now, ID: ev.ID, Project: ev.Project, Tool: ev.Tool, Payload: ev.Payload, IsError: ev.IsError}
}

// publish fans a notification out to every subscriber without blocking.
func (r *Registry) publish(n Notification) {
	if n == nil {
		return
	}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// AddProject registers a project: canonicalize the root, spin up its
// analysis session, load its docs index and persist the new list. On any
// failure nothing is registered. A docs load failure degrades to an empty
// index instead of failing the whole add.
func (r *Registry) AddProject(ctx context.Context, root string, ignoreModules []string) (*ProjectHandle, error) {
	proj, err := project.New(root)
	if err != nil {
		return nil, err
	}
	proj.IgnoreModules = ignoreModules

	r.mu.RLock()
	_, exists := r.projects[proj.Root]
	r.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, proj.Root)
	}

	session, err := r.newSession(proj, r.analysisEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to start analysis session for %s: %w", proj.Root, err)
	}

	docsIndex, err := r.newDocs(proj, r.docsEvents)
	if err != nil {
		log.Printf("registry: docs index unavailable for %s, continuing without: %v", proj.Root, err)
		docsIndex = docs.NewEmpty(proj, r.docsEvents)
	}

	handle := &ProjectHandle{
		Project:  proj,
		Analysis: session,
		Docs:     docsIndex,
		Build:    r.newBuild(proj),
	}

	r.mu.Lock()
	if _, exists := r.projects[proj.Root]; exists {
		r.mu.Unlock()
		if err := session.Shutdown(); err != nil {
			log.Printf("registry: shutdown of duplicate session for %s: %v", proj.Root, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, proj.Root)
	}
	r.projects[proj.Root] = handle
	r.mu.Unlock()

	// Docs refresh runs in the background; queries use the cached index
	// until it lands.
	go func() {
		if err := handle.Docs.UpdateIndex(context.Background()); err != nil {
			log.Printf("registry: docs index update failed for %s: %v", proj.Root, err)
		}
	}()

	r.persist()
	r.publish(ProjectAdded{Time: time.Now(), Project: proj.Root})
	r.publish(ProjectList{Time: time.Now(), Projects: r.Snapshots()})
	return handle, nil
}

// RemoveProject unregisters a project and shuts its session down. The
// shutdown happens outside the registry lock so other lookups never wait
// on a dying subprocess.
func (r *Registry) RemoveProject(root string) error {
	key := canonicalKey(root)

	r.mu.Lock()
	handle, ok := r.projects[key]
	if ok {
		delete(r.projects, key)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, root)
	}

	r.persist()
	r.publish(ProjectRemoved{Time: time.Now(), Project: key})
	r.publish(ProjectList{Time: time.Now(), Projects: r.Snapshots()})

	if err := handle.Analysis.Shutdown(); err != nil {
		return fmt.Errorf("shutdown of %s: %w", key, err)
	}
	return nil
}

// GetProject looks a project up by its exact canonical root.
func (r *Registry) GetProject(root string) (*ProjectHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.projects[root]
	return h, ok
}

// GetProjectByPath resolves any path inside a registered project to its
// handle by walking up the directory tree. The registered root itself
// matches too.
func (r *Registry) GetProjectByPath(path string) (*ProjectHandle, bool) {
	dir := canonicalKey(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for {
		if h, ok := r.projects[dir]; ok {
			return h, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

// Snapshots returns a display snapshot of every registered project,
// sorted by root.
func (r *Registry) Snapshots() []ProjectDescription {
	r.mu.RLock()
	handles := make([]*ProjectHandle, 0, len(r.projects))
	for _, h := range r.projects {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	descs := make([]ProjectDescription, 0, len(handles))
	for _, h := range handles {
		descs = append(descs, h.Describe())
	}
	sort.Slice(descs, func(a, b int) bool { return descs[a].Root < descs[b].Root })
	return descs
}

// ToggleIndexingPause flips the pause state of a project's analysis
// indexing.
func (r *Registry) ToggleIndexingPause(root string) error {
	h, ok := r.GetProject(canonicalKey(root))
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, root)
	}
	h.Analysis.SetPaused(!h.Analysis.Progress().IsPaused)
	return nil
}

// ForceIndexDocs triggers a synchronous docs index rebuild for a project.
func (r *Registry) ForceIndexDocs(ctx context.Context, root string) error {
	h, ok := r.GetProject(canonicalKey(root))
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, root)
	}
	return h.Docs.UpdateIndex(ctx)
}

// LoadConfig registers every project from the persisted config, in
// parallel. Roots that no longer exist are logged and skipped; the config
// file keeps them for when the directory comes back.
func (r *Registry) LoadConfig(ctx context.Context) error {
	entries := config.Load(r.configPath)
	var g errgroup.Group
	for _, entry := range entries {
		g.Go(func() error {
			if _, err := os.Stat(entry.Root); err != nil {
				log.Printf("registry: skipping configured project %s: %v", entry.Root, err)
				return nil
			}
			if _, err := r.AddProject(ctx, entry.Root, entry.IgnoreModules); err != nil {
				log.Printf("registry: failed to add configured project %s: %v", entry.Root, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// persist writes the current project list to the config file.
func (r *Registry) persist() {
	if r.configPath == "" {
		return
	}
	r.mu.RLock()
	entries := make([]config.ProjectEntry, 0, len(r.projects))
	for _, h := range r.projects {
		entries = append(entries, config.ProjectEntry{
			Root:          h.Project.Root,
			IgnoreModules: h.Project.IgnoreModules,
		})
	}
	r.mu.RUnlock()
	sort.Slice(entries, func(a, b int) bool { return entries[a].Root < entries[b].Root })

	if err := config.Save(r.configPath, entries); err != nil {
		log.Printf("registry: failed to persist config: %v", err)
	}
}

// ShutdownAll stops every session in parallel and reports the first
// failure. The registry is left empty but usable.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	handles := make([]*ProjectHandle, 0, len(r.projects))
	for _, h := range r.projects {
		handles = append(handles, h)
	}
	r.projects = make(map[string]*ProjectHandle)
	r.mu.Unlock()

	var g errgroup.Group
	for _, h := range handles {
		g.Go(func() error {
			if err := h.Analysis.Shutdown(); err != nil {
				return fmt.Errorf("shutdown of %s: %w", h.Project.Root, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close stops the notification bus and closes subscriber channels. Call
// after ShutdownAll; sessions must not publish past this point.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.analysisEvents)
		close(r.docsEvents)
		close(r.toolEvents)
		<-r.busDone

		r.subMu.Lock()
		for _, ch := range r.subs {
			close(ch)
		}
		r.subs = nil
		r.subMu.Unlock()
	})
}

// canonicalKey best-effort canonicalizes a path the same way project.New
// does, so lookups match registration keys. Falls back to a cleaned
// absolute path when resolution fails.
func canonicalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
