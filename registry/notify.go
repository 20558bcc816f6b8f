package registry

import (
	"fmt"
	"time"

	"github.com/yoanbernabeu/golens/lsp"
)

// Notification is the closed set of events the registry republishes to
// subscribers. The bus is the only place that interprets every variant;
// other consumers need just the project-routing and description
// projections.
type Notification interface {
	// NotificationPath is the root of the project the event belongs to,
	// or "" for registry-wide events. Consumers degrade unresolvable
	// paths to "unknown" rather than failing.
	NotificationPath() string
	// Description is a human-readable one-liner for log display.
	Description() string
	// When is the time the bus observed the event.
	When() time.Time
}

// AnalysisIndexing reports a language-analysis indexing start or finish.
type AnalysisIndexing struct {
	Time       time.Time
	Project    string
	IsIndexing bool
}

// AnalysisProgress carries a detailed indexing progress snapshot.
type AnalysisProgress struct {
	Time     time.Time
	Progress lsp.IndexingProgress
}

// AnalysisPauseResume acknowledges an indexing pause/resume command.
type AnalysisPauseResume struct {
	Time        time.Time
	Project     string
	ShouldPause bool
}

// DocsIndexing reports a documentation indexing start or finish.
type DocsIndexing struct {
	Time       time.Time
	Project    string
	IsIndexing bool
}

// ToolRequest reports an incoming tool invocation.
type ToolRequest struct {
	Time    time.Time
	ID      string
	Project string
	Tool    string
	Payload string
}

// ToolResponse reports a completed tool invocation.
type ToolResponse struct {
	Time    time.Time
	ID      string
	Project string
	Tool    string
	Payload string
	IsError bool
}

// ProjectAdded reports a successful project addition.
type ProjectAdded struct {
	Time    time.Time
	Project string
}

// ProjectRemoved reports a project removal.
type ProjectRemoved struct {
	Time    time.Time
	Project string
}

// ProjectList is a registry-wide snapshot pushed after membership changes.
type ProjectList struct {
	Time     time.Time
	Projects []ProjectDescription
}

func (n AnalysisIndexing) NotificationPath() string    { return n.Project }
func (n AnalysisProgress) NotificationPath() string    { return n.Progress.Project }
func (n AnalysisPauseResume) NotificationPath() string { return n.Project }
func (n DocsIndexing) NotificationPath() string        { return n.Project }
func (n ToolRequest) NotificationPath() string         { return n.Project }
func (n ToolResponse) NotificationPath() string        { return n.Project }
func (n ProjectAdded) NotificationPath() string        { return n.Project }
func (n ProjectRemoved) NotificationPath() string      { return n.Project }
func (n ProjectList) NotificationPath() string         { return "" }

func (n AnalysisIndexing) When() time.Time    { return n.Time }
func (n AnalysisProgress) When() time.Time    { return n.Time }
func (n AnalysisPauseResume) When() time.Time { return n.Time }
func (n DocsIndexing) When() time.Time        { return n.Time }
func (n ToolRequest) When() time.Time         { return n.Time }
func (n ToolResponse) When() time.Time        { return n.Time }
func (n ProjectAdded) When() time.Time        { return n.Time }
func (n ProjectRemoved) When() time.Time      { return n.Time }
func (n ProjectList) When() time.Time         { return n.Time }

func (n AnalysisIndexing) Description() string {
	return "Analysis indexing: " + startedOrFinished(n.IsIndexing)
}

func (n AnalysisProgress) Description() string {
	return "Analysis progress: " + n.Progress.Status()
}

func (n AnalysisPauseResume) Description() string {
	if n.ShouldPause {
		return "Analysis indexing paused"
	}
	return "Analysis indexing resumed"
}

func (n DocsIndexing) Description() string {
	return "Docs indexing: " + startedOrFinished(n.IsIndexing)
}

func (n ToolRequest) Description() string {
	return fmt.Sprintf("Tool request: %s %s", n.Tool, n.Payload)
}

func (n ToolResponse) Description() string {
	if n.IsError {
		return fmt.Sprintf("Tool error: %s %s", n.Tool, n.Payload)
	}
	return fmt.Sprintf("Tool response: %s", n.Tool)
}

func (n ProjectAdded) Description() string {
	return "Project added: " + n.Project
}

func (n ProjectRemoved) Description() string {
	return "Project removed: " + n.Project
}

func (n ProjectList) Description() string {
	return fmt.Sprintf("Project list: %d project(s)", len(n.Projects))
}

func startedOrFinished(started bool) string {
	if started {
		return "started"
	}
	return "finished"
}

// ToolEventKind distinguishes the two tool event directions.
type ToolEventKind int

const (
	ToolEventRequest ToolEventKind = iota
	ToolEventResponse
)

// ToolEvent is what the tool layer feeds into the bus. The bus wraps it as
// a ToolRequest or ToolResponse notification.
type ToolEvent struct {
	Kind    ToolEventKind
	ID      string
	Project string
	Tool    string
	Payload string
	IsError bool
}

// ProjectDescription is a lightweight read-only view of one registered
// project for display.
type ProjectDescription struct {
	Name               string `json:"name"`
	Root               string `json:"root"`
	IsIndexingAnalysis bool   `json:"is_indexing_analysis"`
	IsIndexingDocs     bool   `json:"is_indexing_docs"`
}
