package lsp

import (
	"fmt"
	"time"
)

// Event is the closed set of notifications a Session publishes on its event
// channel. The registry's notification bus is the only consumer that needs
// to interpret every variant.
type Event interface {
	lspEvent()
}

// IndexingEvent signals that the engine's background indexing started or
// finished for a project.
type IndexingEvent struct {
	Project    string
	IsIndexing bool
}

// ProgressEvent carries a snapshot of detailed indexing progress.
type ProgressEvent struct {
	Progress IndexingProgress
}

// PauseResumeEvent acknowledges an explicit pause/resume command. Pausing is
// golens bookkeeping, not part of the language server's vocabulary.
type PauseResumeEvent struct {
	Project     string
	ShouldPause bool
}

func (IndexingEvent) lspEvent()    {}
func (ProgressEvent) lspEvent()    {}
func (PauseResumeEvent) lspEvent() {}

// IndexingProgress tracks one project's indexing timeline. All derived
// values (elapsed time, status message) are pure functions of this state.
type IndexingProgress struct {
	// Project is the root path of the project being indexed.
	Project string

	IsIndexing bool
	IsPaused   bool

	StartedAt   time.Time
	CompletedAt time.Time
	PausedAt    time.Time

	// TotalPausedTime accumulates completed pause intervals.
	TotalPausedTime time.Duration

	// EstimatedFiles and ModuleCount are optional pre-scan hints; zero
	// means unknown.
	EstimatedFiles int
	ModuleCount    int

	// StatusMessage is the engine's free-text progress message, if any.
	StatusMessage string

	// ProgressPercentage is 0-100, negative when unknown.
	ProgressPercentage float64
}

// NewIndexingProgress returns a fresh tracker for a project.
func NewIndexingProgress(projectRoot string) *IndexingProgress {
	return &IndexingProgress{
		Project:            projectRoot,
		ProgressPercentage: -1,
	}
}

// StartIndexing marks the beginning of an indexing pass, resetting any
// previous completion and pause state.
func (p *IndexingProgress) StartIndexing() {
	p.IsIndexing = true
	p.IsPaused = false
	p.StartedAt = time.Now()
	p.CompletedAt = time.Time{}
	p.PausedAt = time.Time{}
	p.TotalPausedTime = 0
	p.ProgressPercentage = -1
}

// CompleteIndexing marks the end of an indexing pass.
func (p *IndexingProgress) CompleteIndexing() {
	p.IsIndexing = false
	p.IsPaused = false
	p.CompletedAt = time.Now()
	p.ProgressPercentage = 100
	p.PausedAt = time.Time{}
}

// Pause records a pause timestamp. No-op unless indexing and not already
// paused.
func (p *IndexingProgress) Pause() {
	if p.IsIndexing && !p.IsPaused {
		p.IsPaused = true
		p.PausedAt = time.Now()
	}
}

// Resume accumulates the elapsed pause interval and clears the pause mark.
// No-op unless currently paused.
func (p *IndexingProgress) Resume() {
	if p.IsIndexing && p.IsPaused {
		if !p.PausedAt.IsZero() {
			p.TotalPausedTime += time.Since(p.PausedAt)
		}
		p.IsPaused = false
		p.PausedAt = time.Time{}
	}
}

// Elapsed returns wall-clock time since the start of indexing minus all
// paused time, or zero if indexing never started.
func (p *IndexingProgress) Elapsed() time.Duration {
	if p.StartedAt.IsZero() {
		return 0
	}
	end := time.Now()
	if !p.CompletedAt.IsZero() {
		end = p.CompletedAt
	}
	d := end.Sub(p.StartedAt) - p.TotalPausedTime
	if p.IsPaused && !p.PausedAt.IsZero() {
		d -= end.Sub(p.PausedAt)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// ElapsedString formats Elapsed as "3s", "2m 5s" or "1h 4m 2s".
func (p *IndexingProgress) ElapsedString() string {
	if p.StartedAt.IsZero() {
		return "not started"
	}
	s := int(p.Elapsed().Seconds())
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60)
	}
}

// Status returns a human-readable one-line summary of the current state.
func (p *IndexingProgress) Status() string {
	if !p.IsIndexing && !p.CompletedAt.IsZero() {
		return fmt.Sprintf("Indexing complete (%s)", p.ElapsedString())
	}
	if p.IsPaused {
		return fmt.Sprintf("Indexing paused - %s", p.ElapsedString())
	}
	if p.StatusMessage != "" {
		if p.ProgressPercentage >= 0 {
			return fmt.Sprintf("%s (%.0f%%) - %s", p.StatusMessage, p.ProgressPercentage, p.ElapsedString())
		}
		return fmt.Sprintf("%s - %s", p.StatusMessage, p.ElapsedString())
	}
	if p.IsIndexing {
		return fmt.Sprintf("Indexing in progress - %s", p.ElapsedString())
	}
	return "Ready"
}
