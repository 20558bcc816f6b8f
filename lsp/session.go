// Package lsp manages one gopls subprocess per project: spawn, handshake,
// typed requests, indexing progress tracking and shutdown.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yoanbernabeu/golens/project"
)

// Progress titles gopls has used for its workspace-loading pass. Old and
// new releases name it differently, so all are recognized.
var indexingTitles = map[string]bool{
	"Setting up workspace": true,
	"Loading packages":     true,
	"Indexing":             true,
}

const (
	handshakeTimeout    = 60 * time.Second
	shutdownStepTimeout = 2 * time.Second
	pumpJoinTimeout     = 5 * time.Second
)

// Session owns one gopls process for a project and exposes typed, awaitable
// operations over it. All request methods are safe to call concurrently;
// the connection serializes frames at the wire.
type Session struct {
	project *project.Project
	cmd     *exec.Cmd
	conn    *Conn
	events  chan<- Event

	watcher *ChangeNotifier

	// indexed receives one value per observed indexing completion. The
	// buffer of one means later completions overwrite nothing and are
	// simply dropped, so a waiter never sees a backlog of stale signals.
	indexed     chan struct{}
	indexedOnce atomic.Bool

	progressMu sync.Mutex
	progress   *IndexingProgress
	// indexingTokens maps an in-flight progress token to whether its
	// begin title identified it as an indexing pass.
	indexingTokens map[string]bool

	procDone chan error
}

// NewSession spawns gopls rooted at the project directory, performs the
// initialize handshake and starts the file watcher. Construction returns
// once the handshake completes; indexing continues asynchronously and is
// reported through the event channel.
func NewSession(proj *project.Project, events chan<- Event) (*Session, error) {
	binPath, err := findGopls()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(binPath)
	cmd.Dir = proj.Root
	// Keep gopls stderr visible for diagnosing crashes.
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open gopls stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open gopls stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start gopls: %w", err)
	}

	s := &Session{
		project:        proj,
		cmd:            cmd,
		events:         events,
		indexed:        make(chan struct{}, 1),
		progress:       NewIndexingProgress(proj.Root),
		indexingTokens: make(map[string]bool),
		procDone:       make(chan error, 1),
	}
	s.conn = NewConn(stdout, stdin, s.handleNotification)
	go s.conn.Run()
	go func() { s.procDone <- cmd.Wait() }()

	if err := s.initialize(); err != nil {
		s.forceKill()
		return nil, err
	}

	watcher, err := NewChangeNotifier(s.conn, proj)
	if err != nil {
		s.forceKill()
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	s.watcher = watcher

	return s, nil
}

// initialize performs the LSP capability-negotiation handshake: structured
// progress reporting, flattened symbol listings and markdown hover text.
func (s *Session) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	params := map[string]any{
		"processId": os.Getpid(),
		"workspaceFolders": []map[string]any{
			{"uri": s.project.URI(), "name": "root"},
		},
		"capabilities": map[string]any{
			"window": map[string]any{
				// Required for indexing progress.
				"workDoneProgress": true,
			},
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{
					// Flat symbols are easier to process.
					"hierarchicalDocumentSymbolSupport": false,
				},
				"hover": map[string]any{
					"contentFormat": []string{"markdown"},
				},
			},
		},
	}
	if err := s.conn.Call(ctx, "initialize", params, nil); err != nil {
		return fmt.Errorf("LSP initialize failed: %w", err)
	}
	if err := s.conn.Notify("initialized", struct{}{}); err != nil {
		return fmt.Errorf("sending initialized notification failed: %w", err)
	}
	return nil
}

// Project returns the project this session analyzes.
func (s *Session) Project() *project.Project {
	return s.project
}

// handleNotification runs on the read pump for every server notification.
func (s *Session) handleNotification(method string, params json.RawMessage) {
	switch method {
	case "$/progress":
		s.handleProgress(params)
	case "window/showMessage":
		var p struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(params, &p); err == nil {
			log.Printf("lsp: message from gopls (%d): %s", p.Type, p.Message)
		}
	case "textDocument/publishDiagnostics", "window/logMessage":
		// Diagnostics come from the build tool instead; log spam is dropped.
	}
}

func (s *Session) handleProgress(params json.RawMessage) {
	var p struct {
		Token json.RawMessage `json:"token"`
		Value struct {
			Kind       string   `json:"kind"`
			Title      string   `json:"title"`
			Message    string   `json:"message"`
			Percentage *float64 `json:"percentage"`
		} `json:"value"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		log.Printf("lsp: malformed progress params: %v", err)
		return
	}
	token := string(p.Token)

	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	switch p.Value.Kind {
	case "begin":
		if !indexingTitles[p.Value.Title] {
			return
		}
		s.indexingTokens[token] = true
		s.progress.StartIndexing()
		s.progress.StatusMessage = p.Value.Title
		if p.Value.Percentage != nil {
			s.progress.ProgressPercentage = *p.Value.Percentage
		}
		s.emit(IndexingEvent{Project: s.project.Root, IsIndexing: true})
		s.emit(ProgressEvent{Progress: *s.progress})

	case "report":
		if !s.indexingTokens[token] {
			return
		}
		if p.Value.Message != "" {
			s.progress.StatusMessage = p.Value.Message
		}
		if p.Value.Percentage != nil {
			s.progress.ProgressPercentage = *p.Value.Percentage
		}
		s.emit(ProgressEvent{Progress: *s.progress})

	case "end":
		if !s.indexingTokens[token] {
			return
		}
		delete(s.indexingTokens, token)
		s.progress.CompleteIndexing()
		s.emit(IndexingEvent{Project: s.project.Root, IsIndexing: false})
		s.emit(ProgressEvent{Progress: *s.progress})
		// Release the indexed signal. A full buffer means an earlier
		// completion was never consumed; dropping keeps re-index passes
		// after file edits from building a signal backlog.
		select {
		case s.indexed <- struct{}{}:
		default:
		}
	}
}

// emit publishes an event without ever blocking the read pump.
func (s *Session) emit(ev Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("lsp: event channel full, dropping %T for %s", ev, s.project.Root)
	}
}

// WaitIndexed blocks until the first indexing pass completes, or returns
// immediately if one already has.
func (s *Session) WaitIndexed(ctx context.Context) error {
	if s.indexedOnce.Load() {
		return nil
	}
	select {
	case <-s.indexed:
		s.indexedOnce.Store(true)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for initial index: %w", ctx.Err())
	}
}

// OpenFile sends the file's content to the engine. The first open waits for
// the initial index so positional queries return real data.
func (s *Session) OpenFile(ctx context.Context, relative string) error {
	text, err := os.ReadFile(s.project.AbsPath(relative))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", relative, err)
	}
	params := map[string]any{
		"textDocument": map[string]any{
			"uri":        s.project.FileURI(relative),
			"languageId": "go",
			"version":    0,
			"text":       string(text),
		},
	}
	if err := s.conn.Notify("textDocument/didOpen", params); err != nil {
		return fmt.Errorf("sending didOpen notification failed: %w", err)
	}
	return s.WaitIndexed(ctx)
}

// Hover returns the engine's hover markup at a position, or nil when the
// engine reports no data.
func (s *Session) Hover(ctx context.Context, relative string, pos Position) (*Hover, error) {
	params := TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: s.project.FileURI(relative)},
		Position:     pos,
	}
	var result *Hover
	if err := s.conn.Call(ctx, "textDocument/hover", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// TypeDefinition resolves the type definition locations for the symbol at a
// position. Empty when the engine reports no data.
func (s *Session) TypeDefinition(ctx context.Context, relative string, pos Position) ([]Location, error) {
	params := TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: s.project.FileURI(relative)},
		Position:     pos,
	}
	var raw json.RawMessage
	if err := s.conn.Call(ctx, "textDocument/typeDefinition", params, &raw); err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// References returns all reference locations for the symbol at a position,
// including the declaration.
func (s *Session) References(ctx context.Context, relative string, pos Position) ([]Location, error) {
	params := map[string]any{
		"textDocument": TextDocumentIdentifier{URI: s.project.FileURI(relative)},
		"position":     pos,
		"context":      map[string]any{"includeDeclaration": true},
	}
	var result []Location
	if err := s.conn.Call(ctx, "textDocument/references", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DocumentSymbols returns the flattened symbol listing for a file. The
// handshake disables hierarchical symbols, so a nested response is treated
// as no data.
func (s *Session) DocumentSymbols(ctx context.Context, relative string) ([]SymbolInformation, error) {
	params := map[string]any{
		"textDocument": TextDocumentIdentifier{URI: s.project.FileURI(relative)},
	}
	var raw json.RawMessage
	if err := s.conn.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var flat []SymbolInformation
	if err := json.Unmarshal(raw, &flat); err != nil {
		log.Printf("lsp: unsupported nested document symbols for %s", relative)
		return nil, nil
	}
	// A nested response decodes with empty locations; reject it the same way.
	for _, sym := range flat {
		if sym.Location.URI == "" {
			log.Printf("lsp: unsupported nested document symbols for %s", relative)
			return nil, nil
		}
	}
	return flat, nil
}

// SetPaused flips the pause bookkeeping and acknowledges on the event
// channel. gopls has no native pause; this only affects elapsed-time math
// and status display.
func (s *Session) SetPaused(pause bool) {
	s.progressMu.Lock()
	if pause {
		s.progress.Pause()
	} else {
		s.progress.Resume()
	}
	s.emit(PauseResumeEvent{Project: s.project.Root, ShouldPause: pause})
	s.emit(ProgressEvent{Progress: *s.progress})
	s.progressMu.Unlock()
}

// Progress returns a copy of the current indexing progress.
func (s *Session) Progress() IndexingProgress {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	return *s.progress
}

// Shutdown performs a best-effort graceful teardown: protocol shutdown and
// exit with short timeouts, watcher stop, bounded pump join, process kill
// as a last resort. Failures are collected but never block completion.
func (s *Session) Shutdown() error {
	var errs []error

	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("watcher close: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownStepTimeout)
	if err := s.conn.Call(ctx, "shutdown", nil, nil); err != nil {
		log.Printf("lsp: shutdown request failed for %s: %v", s.project.Root, err)
		errs = append(errs, err)
	}
	cancel()
	if err := s.conn.Notify("exit", nil); err != nil {
		log.Printf("lsp: exit notification failed for %s: %v", s.project.Root, err)
		errs = append(errs, err)
	}
	// Closing stdin makes gopls see EOF even if it ignored the exit.
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}

	select {
	case <-s.conn.Done():
	case <-time.After(pumpJoinTimeout):
		log.Printf("lsp: pump join timed out for %s, killing gopls", s.project.Root)
		errs = append(errs, errors.New("pump join timed out"))
		s.forceKill()
	}

	select {
	case err := <-s.procDone:
		if err != nil {
			log.Printf("lsp: gopls exited with error for %s: %v", s.project.Root, err)
		}
	case <-time.After(pumpJoinTimeout):
		log.Printf("lsp: gopls did not exit for %s, killing", s.project.Root)
		s.forceKill()
		errs = append(errs, errors.New("process join timed out"))
	}

	return errors.Join(errs...)
}

func (s *Session) forceKill() {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// decodeLocations tolerates the three shapes servers use for definition
// responses: a single Location, an array of Locations, or null.
func decodeLocations(raw json.RawMessage) ([]Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var locs []Location
		if err := json.Unmarshal(raw, &locs); err != nil {
			return nil, fmt.Errorf("failed to decode locations: %w", err)
		}
		return locs, nil
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("failed to decode location: %w", err)
	}
	return []Location{loc}, nil
}
