package lsp

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/yoanbernabeu/golens/project"
)

// debounceWindow batches filesystem events so a bulk edit (checkout, code
// generation) produces one change notification instead of hundreds.
const debounceWindow = 2 * time.Second

// skipDirs are never watched and never forwarded. The cache dir keeps the
// engine's own artifacts from retriggering it.
var skipDirs = map[string]bool{
	".git":               true,
	"vendor":             true,
	"node_modules":       true,
	project.CacheDirName: true,
}

// ChangeNotifier is the bridge between filesystem change events and the
// session's protocol channel. It watches the project root recursively,
// debounces, filters build output, and forwards one batched
// didChangeWatchedFiles notification per flush.
type ChangeNotifier struct {
	conn    *Conn
	project *project.Project
	watcher *fsnotify.Watcher
	ignore  *ignore.GitIgnore
	done    chan struct{}
	closeMu sync.Once

	pendingMu sync.Mutex
	pending   map[string]int
	timer     *time.Timer
}

// NewChangeNotifier starts watching the project root. The project's own
// .gitignore, when present, additionally filters events.
func NewChangeNotifier(conn *Conn, proj *project.Project) (*ChangeNotifier, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	n := &ChangeNotifier{
		conn:    conn,
		project: proj,
		watcher: fsw,
		done:    make(chan struct{}),
		pending: make(map[string]int),
	}

	if gi, err := ignore.CompileIgnoreFile(filepath.Join(proj.Root, ".gitignore")); err == nil {
		n.ignore = gi
	}

	if err := n.addRecursive(proj.Root); err != nil {
		fsw.Close()
		return nil, err
	}

	go n.processEvents()
	return n, nil
}

// Close stops the watcher and flushes nothing further.
func (n *ChangeNotifier) Close() error {
	var err error
	n.closeMu.Do(func() {
		close(n.done)
		n.pendingMu.Lock()
		if n.timer != nil {
			n.timer.Stop()
		}
		n.pendingMu.Unlock()
		err = n.watcher.Close()
	})
	return err
}

func (n *ChangeNotifier) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip inaccessible paths
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && n.shouldSkipDir(path) {
			return filepath.SkipDir
		}
		if err := n.watcher.Add(path); err != nil {
			log.Printf("lsp: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (n *ChangeNotifier) shouldSkipDir(path string) bool {
	base := filepath.Base(path)
	if skipDirs[base] || strings.HasPrefix(base, ".") {
		return true
	}
	return n.isIgnored(path)
}

func (n *ChangeNotifier) isIgnored(path string) bool {
	if n.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(n.project.Root, path)
	if err != nil {
		return false
	}
	return n.ignore.MatchesPath(rel)
}

func (n *ChangeNotifier) processEvents() {
	for {
		select {
		case <-n.done:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			n.handleEvent(event)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("lsp: watcher error: %v", err)
		}
	}
}

func (n *ChangeNotifier) handleEvent(event fsnotify.Event) {
	// Never forward the engine's own artifacts back at it.
	if strings.HasPrefix(event.Name, n.project.CacheDir()) {
		return
	}
	rel, err := filepath.Rel(n.project.Root, event.Name)
	if err != nil {
		return
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirs[part] || strings.HasPrefix(part, ".") {
			return
		}
	}
	if n.isIgnored(event.Name) {
		return
	}

	// Watch newly created directories.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := n.addRecursive(event.Name); err != nil {
				log.Printf("lsp: failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	var changeType int
	switch {
	case event.Has(fsnotify.Create):
		changeType = FileChangeCreated
	case event.Has(fsnotify.Write):
		changeType = FileChangeChanged
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		changeType = FileChangeDeleted
	default:
		return
	}

	n.debounce(event.Name, changeType)
}

func (n *ChangeNotifier) debounce(path string, changeType int) {
	n.pendingMu.Lock()
	defer n.pendingMu.Unlock()

	// Delete wins over earlier create/modify for the same path.
	if existing, ok := n.pending[path]; !ok || existing != FileChangeDeleted {
		n.pending[path] = changeType
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(debounceWindow, n.flush)
}

// flush converts the pending batch into one didChangeWatchedFiles
// notification. Conversion failures are logged and dropped, never fatal.
func (n *ChangeNotifier) flush() {
	n.pendingMu.Lock()
	pending := n.pending
	n.pending = make(map[string]int)
	n.pendingMu.Unlock()

	select {
	case <-n.done:
		return
	default:
	}

	changes := make([]FileEvent, 0, len(pending))
	for path, changeType := range pending {
		rel, err := filepath.Rel(n.project.Root, path)
		if err != nil {
			log.Printf("lsp: dropping unrepresentable path %s: %v", path, err)
			continue
		}
		changes = append(changes, FileEvent{
			URI:  n.project.FileURI(rel),
			Type: changeType,
		})
	}
	if len(changes) == 0 {
		return
	}

	params := map[string]any{"changes": changes}
	if err := n.conn.Notify("workspace/didChangeWatchedFiles", params); err != nil {
		log.Printf("lsp: failed to send watched-files notification: %v", err)
	}
}
