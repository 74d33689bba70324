package plugin

import (
	"github.com/arukana/neko/internal/plugin/ffi"
	"github.com/arukana/neko/internal/plugin/state"
)

// Exported symbol names. Every symbol is optional.
const (
	SymInstall         = "install"
	SymUninstall       = "uninstall"
	SymStart           = "start"
	SymEnd             = "end"
	SymIdle            = "idle"
	SymProcess         = "process"
	SymCommand         = "command"
	SymKeyUnicodeDown  = "key_unicode_down"
	SymKeyStringDown   = "key_string_down"
	SymKeyRepeatDown   = "key_repeat_down"
	SymKeyIntervalDown = "key_interval_down"
	SymMouseDown       = "mouse_down"
	SymMouseUp         = "mouse_up"
	SymInput           = "input"
	SymOutput          = "output"
	SymSignal          = "signal"
	SymResized         = "resized"
)

// C signatures of the exported symbols. The first two parameters are always
// the shared state and the plugin's private slot.
type (
	// HookFunc is void f(State *, void **).
	HookFunc func(st *state.State, slot *uintptr)
	// ProcessFunc is void f(State *, void **, const char *name, pid_t pid).
	ProcessFunc func(st *state.State, slot *uintptr, name string, pid int32)
	// TextFunc is void f(State *, void **, const char *text).
	TextFunc func(st *state.State, slot *uintptr, text string)
	// CodeFunc is void f(State *, void **, uint64_t code).
	CodeFunc func(st *state.State, slot *uintptr, code uint64)
	// IntervalFunc is void f(State *, void **, int64_t milliseconds).
	IntervalFunc func(st *state.State, slot *uintptr, interval int64)
	// MouseFunc is void f(State *, void **, uint32_t code, uint16_t x, uint16_t y).
	MouseFunc func(st *state.State, slot *uintptr, code uint32, x, y uint16)
	// BytesFunc is void f(State *, void **, const uint8_t *buf, size_t len).
	BytesFunc func(st *state.State, slot *uintptr, buf *byte, n uintptr)
	// SignalFunc is void f(State *, void **, int32_t signal).
	SignalFunc func(st *state.State, slot *uintptr, signal int32)
	// ResizedFunc is void f(State *, void **, const struct winsize *).
	ResizedFunc func(st *state.State, slot *uintptr, size *state.Winsize)
)

// Callbacks is the capability record of a plugin. A nil field means the
// symbol is not exported.
type Callbacks struct {
	Install         HookFunc
	Uninstall       HookFunc
	Start           HookFunc
	End             HookFunc
	Idle            HookFunc
	Process         ProcessFunc
	Command         TextFunc
	KeyUnicodeDown  CodeFunc
	KeyStringDown   TextFunc
	KeyRepeatDown   CodeFunc
	KeyIntervalDown IntervalFunc
	MouseDown       MouseFunc
	MouseUp         MouseFunc
	Input           BytesFunc
	Output          BytesFunc
	Signal          SignalFunc
	Resized         ResizedFunc
}

type binding struct {
	name string
	fptr any
}

func (c *Callbacks) bindings() []binding {
	return []binding{
		{SymInstall, &c.Install},
		{SymUninstall, &c.Uninstall},
		{SymStart, &c.Start},
		{SymEnd, &c.End},
		{SymIdle, &c.Idle},
		{SymProcess, &c.Process},
		{SymCommand, &c.Command},
		{SymKeyUnicodeDown, &c.KeyUnicodeDown},
		{SymKeyStringDown, &c.KeyStringDown},
		{SymKeyRepeatDown, &c.KeyRepeatDown},
		{SymKeyIntervalDown, &c.KeyIntervalDown},
		{SymMouseDown, &c.MouseDown},
		{SymMouseUp, &c.MouseUp},
		{SymInput, &c.Input},
		{SymOutput, &c.Output},
		{SymSignal, &c.Signal},
		{SymResized, &c.Resized},
	}
}

// bind resolves every symbol independently and returns the names found.
func (c *Callbacks) bind(obj ffi.Object) []string {
	var bound []string
	for _, b := range c.bindings() {
		if obj.Bind(b.name, b.fptr) {
			bound = append(bound, b.name)
		}
	}
	return bound
}
