package lsp

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/yoanbernabeu/golens/project"
)

// testNotifier builds a ChangeNotifier with no connection and no live
// fsnotify watcher; done is closed so a stray timer flush is a no-op.
func testNotifier(t *testing.T) *ChangeNotifier {
	t.Helper()
	proj, err := project.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	n := &ChangeNotifier{
		project: proj,
		pending: make(map[string]int),
		done:    make(chan struct{}),
	}
	close(n.done)
	t.Cleanup(func() {
		n.pendingMu.Lock()
		if n.timer != nil {
			n.timer.Stop()
		}
		n.pendingMu.Unlock()
	})
	return n
}

func (n *ChangeNotifier) pendingSnapshot() map[string]int {
	n.pendingMu.Lock()
	defer n.pendingMu.Unlock()
	snapshot := make(map[string]int, len(n.pending))
	for k, v := range n.pending {
		snapshot[k] = v
	}
	return snapshot
}

func TestHandleEventFilters(t *testing.T) {
	n := testNotifier(t)
	root := n.project.Root

	tests := []struct {
		name    string
		event   fsnotify.Event
		forward bool
	}{
		{
			name:    "source file write",
			event:   fsnotify.Event{Name: filepath.Join(root, "pkg", "a.go"), Op: fsnotify.Write},
			forward: true,
		},
		{
			name:    "git internals",
			event:   fsnotify.Event{Name: filepath.Join(root, ".git", "index"), Op: fsnotify.Write},
			forward: false,
		},
		{
			name:    "vendor tree",
			event:   fsnotify.Event{Name: filepath.Join(root, "vendor", "dep", "a.go"), Op: fsnotify.Write},
			forward: false,
		},
		{
			name:    "own cache dir",
			event:   fsnotify.Event{Name: filepath.Join(root, project.CacheDirName, "docs_cache.json"), Op: fsnotify.Write},
			forward: false,
		},
		{
			name:    "hidden directory",
			event:   fsnotify.Event{Name: filepath.Join(root, ".idea", "workspace.xml"), Op: fsnotify.Write},
			forward: false,
		},
		{
			name:    "outside project root",
			event:   fsnotify.Event{Name: filepath.Join(filepath.Dir(root), "other", "a.go"), Op: fsnotify.Write},
			forward: false,
		},
		{
			name:    "chmod only",
			event:   fsnotify.Event{Name: filepath.Join(root, "a.go"), Op: fsnotify.Chmod},
			forward: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n.pendingMu.Lock()
			n.pending = make(map[string]int)
			n.pendingMu.Unlock()

			n.handleEvent(tt.event)

			got := len(n.pendingSnapshot()) > 0
			if got != tt.forward {
				t.Errorf("forwarded=%v, want %v", got, tt.forward)
			}
		})
	}
}

func TestHandleEventGitignore(t *testing.T) {
	n := testNotifier(t)
	n.ignore = ignore.CompileIgnoreLines("*.log", "out/")

	n.handleEvent(fsnotify.Event{Name: filepath.Join(n.project.Root, "debug.log"), Op: fsnotify.Write})
	n.handleEvent(fsnotify.Event{Name: filepath.Join(n.project.Root, "out", "bin"), Op: fsnotify.Write})
	if len(n.pendingSnapshot()) != 0 {
		t.Errorf("gitignored paths forwarded: %v", n.pendingSnapshot())
	}

	n.handleEvent(fsnotify.Event{Name: filepath.Join(n.project.Root, "main.go"), Op: fsnotify.Write})
	if len(n.pendingSnapshot()) != 1 {
		t.Errorf("expected main.go forwarded, got %v", n.pendingSnapshot())
	}
}

func TestDebounceMerge(t *testing.T) {
	n := testNotifier(t)
	path := filepath.Join(n.project.Root, "a.go")

	t.Run("later op replaces earlier", func(t *testing.T) {
		n.debounce(path, FileChangeCreated)
		n.debounce(path, FileChangeChanged)
		if got := n.pendingSnapshot()[path]; got != FileChangeChanged {
			t.Errorf("got %d, want changed", got)
		}
	})

	t.Run("delete wins over later change", func(t *testing.T) {
		n.debounce(path, FileChangeDeleted)
		n.debounce(path, FileChangeChanged)
		if got := n.pendingSnapshot()[path]; got != FileChangeDeleted {
			t.Errorf("got %d, want deleted", got)
		}
	})
}

func TestEventTypeMapping(t *testing.T) {
	n := testNotifier(t)

	tests := []struct {
		op   fsnotify.Op
		want int
	}{
		{fsnotify.Create, FileChangeCreated},
		{fsnotify.Write, FileChangeChanged},
		{fsnotify.Remove, FileChangeDeleted},
		{fsnotify.Rename, FileChangeDeleted},
	}
	for i, tt := range tests {
		path := filepath.Join(n.project.Root, "file", string(rune('a'+i))+".go")
		n.handleEvent(fsnotify.Event{Name: path, Op: tt.op})
		if got := n.pendingSnapshot()[path]; got != tt.want {
			t.Errorf("op %v mapped to %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestShouldSkipDir(t *testing.T) {
	n := testNotifier(t)
	root := n.project.Root

	skip := []string{
		filepath.Join(root, ".git"),
		filepath.Join(root, "vendor"),
		filepath.Join(root, "node_modules"),
		filepath.Join(root, project.CacheDirName),
		filepath.Join(root, ".cache"),
	}
	for _, dir := range skip {
		if !n.shouldSkipDir(dir) {
			t.Errorf("expected %s skipped", dir)
		}
	}
	if n.shouldSkipDir(filepath.Join(root, "internal")) {
		t.Error("internal should be watched")
	}
}
