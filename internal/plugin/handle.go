package plugin

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"

	"github.com/arukana/neko/internal/plugin/ffi"
	"github.com/arukana/neko/internal/plugin/state"
)

// Handle owns one loaded shared object and its bound callbacks.
//
// Handles order solely by priority. A handle is released exactly once, by
// the registry that mounted it.
type Handle struct {
	priority int64
	path     string
	name     string

	obj       ffi.Object
	callbacks Callbacks
	bound     []string

	slot   *uintptr
	pinner runtime.Pinner

	lifecycle Lifecycle
}

// OpenHandle loads the shared object at path and binds every known symbol.
// Missing symbols leave their callback nil; only the loader itself can fail.
// The install and start hooks run before OpenHandle returns.
func OpenHandle(opener ffi.Opener, path string, priority int64, st *state.State) (*Handle, error) {
	obj, err := opener.Open(path)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		priority: priority,
		path:     path,
		name:     stem(path),
		obj:      obj,
		slot:     new(uintptr),
	}
	h.pinner.Pin(h.slot)
	h.bound = h.callbacks.bind(obj)
	h.lifecycle = LifecycleStarted

	h.invoke(h.callbacks.Install, st)
	h.invoke(h.callbacks.Start, st)
	return h, nil
}

// stem returns the file name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the artifact file stem, the plugin's identifier.
func (h *Handle) Name() string {
	return h.name
}

// Path returns the artifact path.
func (h *Handle) Path() string {
	return h.path
}

// Priority returns the dispatch priority.
func (h *Handle) Priority() int64 {
	return h.priority
}

// Lifecycle returns the current lifecycle state.
func (h *Handle) Lifecycle() Lifecycle {
	return h.lifecycle
}

// Bound returns the names of the exported symbols, in ABI order.
func (h *Handle) Bound() []string {
	out := make([]string, len(h.bound))
	copy(out, h.bound)
	return out
}

// Slot returns the plugin's private slot value.
func (h *Handle) Slot() uintptr {
	return *h.slot
}

func (h *Handle) invoke(fn HookFunc, st *state.State) {
	if fn != nil {
		fn(st, h.slot)
	}
}

// Dispatch invokes at most one callback for ev, chosen by ev.Kind. A kind
// whose callback is not exported invokes nothing.
func (h *Handle) Dispatch(ev Event, st *state.State) {
	if !h.lifecycle.IsUsable() {
		return
	}

	cb := &h.callbacks
	switch ev.Kind() {
	case KindSignal:
		if cb.Signal != nil {
			cb.Signal(st, h.slot, *ev.Signal)
		}
	case KindKeyUnicode:
		if cb.KeyUnicodeDown != nil {
			cb.KeyUnicodeDown(st, h.slot, ev.Key.Code)
		}
	case KindKeyString:
		if cb.KeyStringDown != nil {
			cb.KeyStringDown(st, h.slot, ev.Key.Text)
		}
	case KindKeyRepeat:
		if cb.KeyRepeatDown != nil {
			cb.KeyRepeatDown(st, h.slot, ev.Key.Repeat)
		}
	case KindKeyInterval:
		if cb.KeyIntervalDown != nil {
			cb.KeyIntervalDown(st, h.slot, ev.Key.Interval.Milliseconds())
		}
	case KindMouseDown:
		if cb.MouseDown != nil {
			cb.MouseDown(st, h.slot, ev.Mouse.Code, ev.Mouse.X, ev.Mouse.Y)
		}
	case KindMouseUp:
		if cb.MouseUp != nil {
			cb.MouseUp(st, h.slot, ev.Mouse.Code, ev.Mouse.X, ev.Mouse.Y)
		}
	case KindInput:
		if cb.Input != nil {
			cb.Input(st, h.slot, unsafe.SliceData(ev.Input), uintptr(len(ev.Input)))
		}
	case KindOutput:
		if cb.Output != nil {
			cb.Output(st, h.slot, unsafe.SliceData(ev.Output), uintptr(len(ev.Output)))
		}
	case KindProcess:
		if cb.Process != nil {
			cb.Process(st, h.slot, ev.Process.Name, int32(ev.Process.PID))
		}
	case KindResized:
		if cb.Resized != nil {
			size := *ev.Resized
			cb.Resized(st, h.slot, &size)
		}
	case KindCommand:
		if cb.Command != nil {
			cb.Command(st, h.slot, *ev.Command)
		}
	default:
		h.invoke(cb.Idle, st)
	}
}

// End runs the end hook once.
func (h *Handle) End(st *state.State) {
	if h.lifecycle != LifecycleStarted {
		return
	}
	h.invoke(h.callbacks.End, st)
	h.lifecycle = LifecycleEnded
}

// Uninstall runs the uninstall hook.
func (h *Handle) Uninstall(st *state.State) {
	if h.lifecycle == LifecycleUnloaded {
		return
	}
	h.invoke(h.callbacks.Uninstall, st)
}

// Close releases the OS handle. A loader that fails to release a handle
// leaves the process in an unknown state, so Close panics in that case.
// Later calls are no-ops.
func (h *Handle) Close() {
	if h.obj == nil {
		return
	}
	obj := h.obj
	h.obj = nil
	h.lifecycle = LifecycleUnloaded
	h.callbacks = Callbacks{}

	err := obj.Close()
	h.pinner.Unpin()
	if err != nil {
		panic(fmt.Sprintf("plugin %s: release %s: %v", h.name, h.path, err))
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("Handle{priority: %d, name: %s}", h.priority, h.name)
}
