// Package watch observes the artifact directory and turns file changes into
// mount requests. Bursts of changes to one artifact, such as a build writing
// it in several chunks, are coalesced into a single request.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/arukana/neko/internal/plugin"
)

// ErrWatcherClosed is returned by operations on a closed watcher.
var ErrWatcherClosed = errors.New("watch: watcher closed")

// DefaultDelay is how long a path must stay quiet before a request is sent.
const DefaultDelay = 200 * time.Millisecond

// Op is the action a request asks for.
type Op uint8

const (
	// OpRemount asks to mount the artifact again.
	OpRemount Op = iota + 1
	// OpUnmount asks to unmount the plugin whose artifact disappeared.
	OpUnmount
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpRemount:
		return "remount"
	case OpUnmount:
		return "unmount"
	default:
		return "unknown"
	}
}

// Request is one settled change to an artifact.
type Request struct {
	Op   Op
	Name string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithExtension sets the artifact extension, without the dot.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		w.ext = "." + strings.TrimPrefix(ext, ".")
	}
}

// pending is the debounce timer of one name. gen identifies the timer that
// may settle it.
type pending struct {
	timer *time.Timer
	gen   uint64
}

// Watcher reports settled artifact changes in one directory.
type Watcher struct {
	mu sync.Mutex

	dir     string
	ext     string
	delay   time.Duration
	logger  *logrus.Logger
	watcher *fsnotify.Watcher

	pending map[string]*pending
	gen     uint64

	requests chan Request
	errors   chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New watches dir for artifacts.
func New(dir string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		ext:      "." + plugin.LibExt,
		delay:    DefaultDelay,
		logger:   logrus.New(),
		pending:  make(map[string]*pending),
		requests: make(chan Request, 16),
		errors:   make(chan error, 16),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, &plugin.FSError{Op: plugin.OpRead, Path: dir, Err: err}
	}
	w.watcher = fsw

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Requests returns the request channel. It is closed by Close.
func (w *Watcher) Requests() <-chan Request {
	return w.requests
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and drops pending changes.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	close(w.closeCh)
	for name, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, name)
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.closedWg.Wait()

	close(w.requests)
	close(w.errors)
	return err
}

// NameOf returns the plugin name of an artifact path, or false when the
// path is not an artifact.
func (w *Watcher) NameOf(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, w.ext) || strings.HasPrefix(base, ".") {
		return "", false
	}
	name := strings.TrimSuffix(base, w.ext)
	return name, name != ""
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("artifact watcher error")
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	name, ok := w.NameOf(ev.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if old, ok := w.pending[name]; ok {
		old.timer.Stop()
	}
	w.gen++
	gen := w.gen
	path := ev.Name
	p := &pending{gen: gen}
	p.timer = time.AfterFunc(w.delay, func() {
		w.settle(name, path, gen)
	})
	w.pending[name] = p
}

// settle sends the request for name once its path stopped changing. The
// artifact's presence decides between remount and unmount. A timer that was
// superseded by a later change to name sends nothing.
func (w *Watcher) settle(name, path string, gen uint64) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if p, ok := w.pending[name]; !ok || p.gen != gen {
		w.mu.Unlock()
		return
	}
	delete(w.pending, name)
	w.closedWg.Add(1)
	w.mu.Unlock()
	defer w.closedWg.Done()

	req := Request{Op: OpRemount, Name: name}
	if _, err := os.Stat(path); err != nil {
		req.Op = OpUnmount
	}

	w.logger.WithFields(logrus.Fields{
		"plugin": name,
		"op":     req.Op.String(),
	}).Debug("artifact changed")

	select {
	case w.requests <- req:
	case <-w.closeCh:
	}
}
