package lsp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/yoanbernabeu/golens/project"
)

// progressSession builds a Session with just enough state to exercise the
// progress machinery, without a subprocess behind it.
func progressSession(t *testing.T, events chan<- Event) *Session {
	t.Helper()
	proj, err := project.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &Session{
		project:        proj,
		events:         events,
		indexed:        make(chan struct{}, 1),
		progress:       NewIndexingProgress(proj.Root),
		indexingTokens: make(map[string]bool),
	}
}

func progressParams(t *testing.T, token, kind, title, message string, percentage *float64) json.RawMessage {
	t.Helper()
	value := map[string]any{"kind": kind}
	if title != "" {
		value["title"] = title
	}
	if message != "" {
		value["message"] = message
	}
	if percentage != nil {
		value["percentage"] = *percentage
	}
	data, err := json.Marshal(map[string]any{"token": token, "value": value})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleProgressLifecycle(t *testing.T) {
	events := make(chan Event, 16)
	s := progressSession(t, events)

	s.handleProgress(progressParams(t, "t1", "begin", "Setting up workspace", "", nil))
	if !s.Progress().IsIndexing {
		t.Fatal("expected indexing after begin")
	}

	pct := 50.0
	s.handleProgress(progressParams(t, "t1", "report", "", "50/100 packages", &pct))
	if got := s.Progress(); got.StatusMessage != "50/100 packages" || got.ProgressPercentage != 50 {
		t.Errorf("report not applied: %+v", got)
	}

	s.handleProgress(progressParams(t, "t1", "end", "", "", nil))
	if s.Progress().IsIndexing {
		t.Fatal("expected done after end")
	}

	// Event order: indexing(true), progress, progress, indexing(false), progress.
	first := <-events
	if ev, ok := first.(IndexingEvent); !ok || !ev.IsIndexing {
		t.Errorf("unexpected first event %#v", first)
	}
	var sawDone bool
	for len(events) > 0 {
		if ev, ok := (<-events).(IndexingEvent); ok && !ev.IsIndexing {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("no indexing-finished event published")
	}
}

func TestHandleProgressIgnoresUnknownTitles(t *testing.T) {
	events := make(chan Event, 16)
	s := progressSession(t, events)

	s.handleProgress(progressParams(t, "t1", "begin", "Formatting", "", nil))
	if s.Progress().IsIndexing {
		t.Error("unrecognized progress title started indexing")
	}
	// Reports and ends for unregistered tokens are dropped too.
	s.handleProgress(progressParams(t, "t1", "report", "", "x", nil))
	s.handleProgress(progressParams(t, "t1", "end", "", "", nil))
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
	select {
	case <-s.indexed:
		t.Error("unrecognized token released the indexed signal")
	default:
	}
}

func TestWaitIndexed(t *testing.T) {
	t.Run("released by first end", func(t *testing.T) {
		s := progressSession(t, nil)
		s.handleProgress(progressParams(t, "t1", "begin", "Indexing", "", nil))
		s.handleProgress(progressParams(t, "t1", "end", "", "", nil))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.WaitIndexed(ctx); err != nil {
			t.Fatalf("WaitIndexed failed: %v", err)
		}

		// Second wait returns immediately without a fresh signal.
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel2()
		if err := s.WaitIndexed(ctx2); err != nil {
			t.Fatalf("second WaitIndexed failed: %v", err)
		}
	})

	t.Run("times out before any end", func(t *testing.T) {
		s := progressSession(t, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := s.WaitIndexed(ctx); err == nil {
			t.Fatal("expected timeout")
		}
	})

	t.Run("repeat completions do not accumulate", func(t *testing.T) {
		s := progressSession(t, nil)
		for i := 0; i < 3; i++ {
			s.handleProgress(progressParams(t, "t", "begin", "Indexing", "", nil))
			s.handleProgress(progressParams(t, "t", "end", "", "", nil))
		}
		if len(s.indexed) != 1 {
			t.Errorf("indexed signal backlog: %d", len(s.indexed))
		}
	})
}

func TestEmitNeverBlocks(t *testing.T) {
	events := make(chan Event, 1)
	s := progressSession(t, events)

	// Fill the channel, then emit more; the session must not stall.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			s.emit(IndexingEvent{Project: s.project.Root, IsIndexing: true})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full channel")
	}
}

func TestDecodeLocations(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		locs, err := decodeLocations(json.RawMessage("null"))
		if err != nil || locs != nil {
			t.Errorf("got %v, %v", locs, err)
		}
	})

	t.Run("single object", func(t *testing.T) {
		locs, err := decodeLocations(json.RawMessage(`{"uri":"file:///a.go","range":{"start":{"line":1,"character":2},"end":{"line":1,"character":5}}}`))
		if err != nil {
			t.Fatal(err)
		}
		if len(locs) != 1 || locs[0].URI != "file:///a.go" {
			t.Errorf("got %+v", locs)
		}
	})

	t.Run("array", func(t *testing.T) {
		locs, err := decodeLocations(json.RawMessage(`[{"uri":"file:///a.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}},{"uri":"file:///b.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}}]`))
		if err != nil {
			t.Fatal(err)
		}
		if len(locs) != 2 || locs[1].URI != "file:///b.go" {
			t.Errorf("got %+v", locs)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := decodeLocations(json.RawMessage(`"what"`)); err == nil {
			t.Error("expected decode error")
		}
	})
}
