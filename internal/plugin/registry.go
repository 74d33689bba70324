package plugin

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/arukana/neko/internal/plugin/ffi"
	"github.com/arukana/neko/internal/plugin/state"
)

// Registry owns the shared state and the mounted plugins, kept sorted
// ascending by priority.
//
// Dispatch is synchronous: Call returns once every plugin has seen the
// event, and host-side state mutation happens only between calls.
type Registry struct {
	mu sync.Mutex

	layout Layout
	opener ffi.Opener
	logger *logrus.Logger

	state  *state.State
	pinner runtime.Pinner

	handles []*Handle

	// Event handlers (protected by mu)
	eventHandlers []EventHandler
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener sets the shared object loader.
func WithOpener(opener ffi.Opener) Option {
	return func(r *Registry) {
		r.opener = opener
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// EventHandler observes registry changes. Handlers must not call back into
// the Registry. Panics in handlers are recovered.
type EventHandler func(event RegistryEvent)

// RegistryEvent reports a registry change.
type RegistryEvent struct {
	Type   RegistryEventType
	Plugin string
	Error  error
}

// RegistryEventType is the type of registry event.
type RegistryEventType int

const (
	// EventMounted is emitted when a plugin is mounted.
	EventMounted RegistryEventType = iota
	// EventUnmounted is emitted when a plugin is unmounted by the host.
	EventUnmounted
	// EventPruned is emitted when a plugin that asked to leave is dropped.
	EventPruned
	// EventError is emitted when a plugin found by a scan fails to mount.
	EventError
)

// String returns a string representation of the event type.
func (t RegistryEventType) String() string {
	switch t {
	case EventMounted:
		return "mounted"
	case EventUnmounted:
		return "unmounted"
	case EventPruned:
		return "pruned"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// New returns an empty registry over layout.
func New(layout Layout, opts ...Option) *Registry {
	r := &Registry{
		layout: layout,
		opener: ffi.Default(),
		logger: logrus.New(),
		state:  state.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pinner.Pin(r.state)
	return r
}

// Open creates the managed directories, then mounts every installed plugin.
// A plugin that fails to mount is logged and skipped.
func Open(layout Layout, opts ...Option) (*Registry, error) {
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	r := New(layout, opts...)
	if err := r.MountAll(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// MountAll mounts every checkout found under the git directory with its
// manifest priority. Only failing to list the directory is an error.
func (r *Registry) MountAll() error {
	names, err := r.layout.Installed()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := r.Mount(name); err != nil {
			r.logger.WithError(err).WithField("plugin", name).Warn("skipping plugin")
			r.emitEvent(RegistryEvent{Type: EventError, Plugin: name, Error: err})
		}
	}
	return nil
}

// Layout returns the managed layout.
func (r *Registry) Layout() Layout {
	return r.layout
}

// MountOption configures a single Mount.
type MountOption func(*mountOptions)

type mountOptions struct {
	priority *int64
}

// WithPriority overrides the manifest priority.
func WithPriority(priority int64) MountOption {
	return func(o *mountOptions) {
		o.priority = &priority
	}
}

// Mount loads the artifact of name and inserts it in priority order. A
// plugin already mounted under name is unmounted first, so mounting is
// idempotent. Without WithPriority the priority comes from the manifest.
// A plugin that raises the unmount flag from its install or start hook is
// ended and released at once, and Mount fails with ErrLeftOnMount.
func (r *Registry) Mount(name string, opts ...MountOption) error {
	var o mountOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.unmountLocked(name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	priority := DefaultPriority
	if o.priority != nil {
		priority = *o.priority
	} else {
		m, err := LoadManifest(r.layout.Manifest(name))
		if err != nil {
			return err
		}
		priority = m.Priority
	}

	r.state.ClearUnmount()
	h, err := OpenHandle(r.opener, r.layout.Artifact(name), priority, r.state)
	if err != nil {
		return fmt.Errorf("mount %s: %w", name, err)
	}
	if r.state.IsUnmounted() {
		r.state.ClearUnmount()
		h.End(r.state)
		r.state.ClearUnmount()
		h.Close()

		r.logger.WithField("plugin", name).Warn("plugin left while starting")
		r.emitEventLocked(RegistryEvent{Type: EventPruned, Plugin: name})
		return fmt.Errorf("mount %s: %w", name, ErrLeftOnMount)
	}

	r.handles = append(r.handles, h)
	r.sortLocked()

	r.logger.WithFields(logrus.Fields{
		"plugin":   name,
		"priority": priority,
		"symbols":  len(h.bound),
	}).Info("plugin mounted")
	r.emitEventLocked(RegistryEvent{Type: EventMounted, Plugin: name})
	return nil
}

// Unmount removes and releases the plugin mounted under name without
// running its end or uninstall hooks.
func (r *Registry) Unmount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unmountLocked(name)
}

func (r *Registry) unmountLocked(name string) error {
	h, err := r.removeLocked(name)
	if err != nil {
		return err
	}
	h.Close()

	r.logger.WithField("plugin", name).Info("plugin unmounted")
	r.emitEventLocked(RegistryEvent{Type: EventUnmounted, Plugin: name})
	return nil
}

// Release gracefully unmounts name: its end hook runs, then uninstall when
// uninstall is true, then the handle is released.
func (r *Registry) Release(name string, uninstall bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.removeLocked(name)
	if err != nil {
		return err
	}
	h.End(r.state)
	if uninstall {
		h.Uninstall(r.state)
	}
	r.state.ClearUnmount()
	h.Close()

	r.logger.WithFields(logrus.Fields{
		"plugin":    name,
		"uninstall": uninstall,
	}).Info("plugin released")
	r.emitEventLocked(RegistryEvent{Type: EventUnmounted, Plugin: name})
	return nil
}

func (r *Registry) removeLocked(name string) (*Handle, error) {
	index := -1
	for i, h := range r.handles {
		if h.Name() == name {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	h := r.handles[index]
	r.handles = append(r.handles[:index], r.handles[index+1:]...)
	r.sortLocked()
	return h, nil
}

func (r *Registry) sortLocked() {
	sort.SliceStable(r.handles, func(i, j int) bool {
		return r.handles[i].priority < r.handles[j].priority
	})
}

// Call dispatches ev to every plugin in priority order. A plugin that sets
// the unmount flag during its turn is ended and released after the pass.
// The flag is cleared before each turn, so it only ever names the plugin
// whose callback raised it.
func (r *Registry) Call(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var leaving []*Handle
	for _, h := range r.handles {
		r.state.ClearUnmount()
		h.Dispatch(ev, r.state)
		if r.state.IsUnmounted() {
			r.state.ClearUnmount()
			leaving = append(leaving, h)
		}
	}

	for _, h := range leaving {
		h.End(r.state)
		r.state.ClearUnmount()
		if _, err := r.removeHandleLocked(h); err != nil {
			r.logger.WithError(err).WithField("plugin", h.Name()).Error("prune failed")
			continue
		}
		h.Close()

		r.logger.WithFields(logrus.Fields{
			"plugin": h.Name(),
			"event":  ev.Kind().String(),
		}).Info("plugin pruned")
		r.emitEventLocked(RegistryEvent{Type: EventPruned, Plugin: h.Name()})
	}
}

func (r *Registry) removeHandleLocked(target *Handle) (*Handle, error) {
	for i, h := range r.handles {
		if h == target {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			return h, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", target.Name(), ErrInconsistent)
}

// Command dispatches a command line to every plugin.
func (r *Registry) Command(line string) {
	r.Call(CommandEvent(line))
}

// Close ends every plugin, then releases them in dispatch order.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.handles {
		h.End(r.state)
	}
	r.state.ClearUnmount()
	for _, h := range r.handles {
		h.Close()
	}
	r.handles = nil
	r.pinner.Unpin()
}

// State returns the shared state. Callers must not mutate it while a Call
// is in progress.
func (r *Registry) State() *state.State {
	return r.state
}

// SetTooltipMessage replaces the tooltip text.
func (r *Registry) SetTooltipMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SetTooltipMessage(text)
}

// SetTooltipCardinal moves the tooltip around the persona.
func (r *Registry) SetTooltipCardinal(c state.Relative) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SetTooltipCardinal(c)
}

// SetPersonaSheet selects the persona sprite sheet.
func (r *Registry) SetPersonaSheet(sheet state.Sheet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SetPersonaSheet(sheet)
}

// SetPersonaPosition moves the persona.
func (r *Registry) SetPersonaPosition(p state.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.SetPersonaPosition(p)
}

// Get returns the plugin mounted under name.
func (r *Registry) Get(name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.handles {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// List returns the mounted plugins in dispatch order.
func (r *Registry) List() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Handle, len(r.handles))
	copy(out, r.handles)
	return out
}

// Names returns the mounted plugin names in dispatch order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.handles))
	for i, h := range r.handles {
		out[i] = h.Name()
	}
	return out
}

// Len returns the number of mounted plugins.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Subscribe adds an event handler.
// Returns an unsubscribe function to remove the handler.
func (r *Registry) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	r.mu.Lock()
	r.eventHandlers = append(r.eventHandlers, handler)
	index := len(r.eventHandlers) - 1
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if index < len(r.eventHandlers) {
			r.eventHandlers[index] = nil
		}
	}
}

func (r *Registry) emitEvent(event RegistryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitEventLocked(event)
}

// emitEventLocked calls every handler with panics recovered.
// Must be called with mu held.
func (r *Registry) emitEventLocked(event RegistryEvent) {
	for _, handler := range r.eventHandlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				recover()
			}()
			handler(event)
		}()
	}
}
