package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

// DefaultQuietPeriod is how long a batch folder must stay unchanged
// before it is picked up.
const DefaultQuietPeriod = 3 * time.Second

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Batch is one inbox folder ready for analysis.
type Batch struct {
	// Name is the folder name, used as the batch id.
	Name      string
	Dir       string
	Documents []domain.RawDocument
}

// Watcher turns each new sub-directory of an inbox into a batch.
// Files copied into a folder keep resetting its quiet timer; the batch
// is emitted once, when the timer finally fires.
type Watcher struct {
	root  string
	quiet time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for root. A non-positive quiet period
// uses DefaultQuietPeriod.
func NewWatcher(root string, quiet time.Duration) *Watcher {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Watcher{root: root, quiet: quiet}
}

// Root returns the inbox directory.
func (w *Watcher) Root() string {
	return w.root
}

// Watch starts watching. The returned channel is closed when ctx is
// cancelled or the watcher is closed. Folders that already exist when
// Watch starts are ignored.
func (w *Watcher) Watch(ctx context.Context) (<-chan Batch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.watcher = fw

	out := make(chan Batch)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- Batch) {
	defer close(out)
	defer func() { _ = fw.Close() }()

	db := newDebouncer(w.quiet)
	defer db.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if dir, ok := w.batchDir(event); ok {
				if event.Has(fsnotify.Create) && event.Name == dir {
					if err := fw.Add(dir); err != nil {
						logger.Warn("cannot watch %s: %v", dir, err)
					}
				}
				db.touch(dir)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("inbox watcher: %v", err)

		case dir := <-db.ready:
			if !db.fire(dir) {
				continue
			}
			_ = fw.Remove(dir)

			batch, err := loadBatch(dir)
			if err != nil {
				logger.Warn("skipping %s: %v", dir, err)
				continue
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// debouncer delivers each folder on ready once it has been quiet for the
// configured period. It is owned by a single loop goroutine; only the
// timer callbacks run elsewhere.
type debouncer struct {
	quiet  time.Duration
	timers map[string]*time.Timer
	done   map[string]bool
	ready  chan string
	quit   chan struct{}

	pending atomic.Int32
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{
		quiet:  quiet,
		timers: make(map[string]*time.Timer),
		done:   make(map[string]bool),
		ready:  make(chan string),
		quit:   make(chan struct{}),
	}
}

// touch restarts the quiet period of dir. Folders already fired are ignored.
func (d *debouncer) touch(dir string) {
	if d.done[dir] {
		return
	}
	if t, ok := d.timers[dir]; ok {
		t.Reset(d.quiet)
		return
	}
	d.timers[dir] = time.AfterFunc(d.quiet, func() {
		d.pending.Add(1)
		defer d.pending.Add(-1)
		select {
		case d.ready <- dir:
		case <-d.quit:
		}
	})
}

// fire marks dir as delivered. A timer reset after it had already fired
// sends dir a second time; fire reports false for that repeat.
func (d *debouncer) fire(dir string) bool {
	if d.done[dir] {
		return false
	}
	d.done[dir] = true
	if t, ok := d.timers[dir]; ok {
		t.Stop()
		delete(d.timers, dir)
	}
	return true
}

// stop cancels pending timers and releases callbacks blocked on ready.
func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
	close(d.quit)
}

// batchDir maps an event to the inbox folder it belongs to. Only direct
// sub-directories of the root are batches; hidden entries are ignored.
func (w *Watcher) batchDir(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || isHidden(rel) {
		return "", false
	}
	top := filepath.Join(w.root, splitFirst(rel))
	if top == event.Name {
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return "", false
		}
	}
	return top, true
}

func splitFirst(rel string) string {
	rel = filepath.ToSlash(rel)
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' {
			return rel[:i]
		}
	}
	return rel
}

func loadBatch(dir string) (Batch, error) {
	docs, err := Load(dir)
	if err != nil {
		return Batch{}, err
	}
	if len(docs) == 0 {
		return Batch{}, domain.ErrEmptyBatch
	}
	return Batch{Name: filepath.Base(dir), Dir: dir, Documents: docs}, nil
}

// Close stops the watcher. Further Watch calls fail.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
