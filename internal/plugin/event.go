package plugin

import (
	"fmt"
	"time"

	"github.com/arukana/neko/internal/plugin/state"
)

// Kind identifies the callback an event is dispatched to.
type Kind int

// Event kinds, in dispatch precedence order.
const (
	KindIdle Kind = iota
	KindSignal
	KindKeyUnicode
	KindKeyString
	KindKeyRepeat
	KindKeyInterval
	KindMouseDown
	KindMouseUp
	KindInput
	KindOutput
	KindProcess
	KindResized
	KindCommand
)

// String returns the name of the callback the kind selects.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return SymIdle
	case KindSignal:
		return SymSignal
	case KindKeyUnicode:
		return SymKeyUnicodeDown
	case KindKeyString:
		return SymKeyStringDown
	case KindKeyRepeat:
		return SymKeyRepeatDown
	case KindKeyInterval:
		return SymKeyIntervalDown
	case KindMouseDown:
		return SymMouseDown
	case KindMouseUp:
		return SymMouseUp
	case KindInput:
		return SymInput
	case KindOutput:
		return SymOutput
	case KindProcess:
		return SymProcess
	case KindResized:
		return SymResized
	case KindCommand:
		return SymCommand
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KeyKind distinguishes the mutually exclusive key payloads.
type KeyKind int

const (
	// KeyUnicode is a single code point.
	KeyUnicode KeyKind = iota
	// KeyString is an escape sequence or a multi-rune paste.
	KeyString
	// KeyRepeat is the same key pressed again within the repeat window.
	KeyRepeat
	// KeyInterval is a key pressed after a pause.
	KeyInterval
)

// Key is a decoded key press.
type Key struct {
	Kind     KeyKind
	Code     uint64
	Text     string
	Repeat   uint64
	Interval time.Duration
}

// Mouse is a decoded mouse button transition, in 1-based cell coordinates.
type Mouse struct {
	Down bool
	Code uint32
	X, Y uint16
}

// Process describes the foreground process of the session.
type Process struct {
	Name string
	PID  int
}

// Event is one host event. Each field is an optional payload; a nil field
// is absent. Dispatch selects a single payload by precedence, so an event
// carrying no payload at all is an idle tick.
type Event struct {
	Signal  *int32
	Key     *Key
	Mouse   *Mouse
	Input   []byte
	Output  []byte
	Process *Process
	Resized *state.Winsize
	Command *string
}

// Kind returns the callback the event dispatches to: signal, then key,
// then mouse, then input, then output, then process, then resized, then
// command, and idle when nothing is set.
func (e Event) Kind() Kind {
	switch {
	case e.Signal != nil:
		return KindSignal
	case e.Key != nil:
		switch e.Key.Kind {
		case KeyString:
			return KindKeyString
		case KeyRepeat:
			return KindKeyRepeat
		case KeyInterval:
			return KindKeyInterval
		default:
			return KindKeyUnicode
		}
	case e.Mouse != nil:
		if e.Mouse.Down {
			return KindMouseDown
		}
		return KindMouseUp
	case e.Input != nil:
		return KindInput
	case e.Output != nil:
		return KindOutput
	case e.Process != nil:
		return KindProcess
	case e.Resized != nil:
		return KindResized
	case e.Command != nil:
		return KindCommand
	default:
		return KindIdle
	}
}

func (e Event) String() string {
	switch e.Kind() {
	case KindSignal:
		return fmt.Sprintf("signal(%d)", *e.Signal)
	case KindKeyUnicode:
		return fmt.Sprintf("key_unicode_down(%d)", e.Key.Code)
	case KindKeyString:
		return fmt.Sprintf("key_string_down(%q)", e.Key.Text)
	case KindKeyRepeat:
		return fmt.Sprintf("key_repeat_down(%d)", e.Key.Repeat)
	case KindKeyInterval:
		return fmt.Sprintf("key_interval_down(%s)", e.Key.Interval)
	case KindMouseDown, KindMouseUp:
		return fmt.Sprintf("%s(%d,%d,%d)", e.Kind(), e.Mouse.Code, e.Mouse.X, e.Mouse.Y)
	case KindInput:
		return fmt.Sprintf("input(%d bytes)", len(e.Input))
	case KindOutput:
		return fmt.Sprintf("output(%d bytes)", len(e.Output))
	case KindProcess:
		return fmt.Sprintf("process(%s,%d)", e.Process.Name, e.Process.PID)
	case KindResized:
		return fmt.Sprintf("resized(%dx%d)", e.Resized.Col, e.Resized.Row)
	case KindCommand:
		return fmt.Sprintf("command(%q)", *e.Command)
	default:
		return "idle"
	}
}

// Idle returns an event with no payload.
func Idle() Event {
	return Event{}
}

// SignalEvent returns an event carrying a signal number.
func SignalEvent(signal int32) Event {
	return Event{Signal: &signal}
}

// UnicodeEvent returns a key press of a single code point.
func UnicodeEvent(r rune) Event {
	return Event{Key: &Key{Kind: KeyUnicode, Code: uint64(r)}}
}

// StringEvent returns a key press producing text.
func StringEvent(text string) Event {
	return Event{Key: &Key{Kind: KeyString, Text: text}}
}

// RepeatEvent returns a key pressed repeat times in a row.
func RepeatEvent(repeat uint64) Event {
	return Event{Key: &Key{Kind: KeyRepeat, Repeat: repeat}}
}

// IntervalEvent returns a key pressed after a pause of d.
func IntervalEvent(d time.Duration) Event {
	return Event{Key: &Key{Kind: KeyInterval, Interval: d}}
}

// MouseEvent returns a mouse button transition.
func MouseEvent(down bool, code uint32, x, y uint16) Event {
	return Event{Mouse: &Mouse{Down: down, Code: code, X: x, Y: y}}
}

// InputEvent returns raw bytes read from the user.
func InputEvent(buf []byte) Event {
	if buf == nil {
		buf = []byte{}
	}
	return Event{Input: buf}
}

// OutputEvent returns raw bytes written by the shell.
func OutputEvent(buf []byte) Event {
	if buf == nil {
		buf = []byte{}
	}
	return Event{Output: buf}
}

// ProcessEvent returns a foreground process change.
func ProcessEvent(name string, pid int) Event {
	return Event{Process: &Process{Name: name, PID: pid}}
}

// ResizedEvent returns a window size change.
func ResizedEvent(size state.Winsize) Event {
	return Event{Resized: &size}
}

// CommandEvent returns a command line addressed to plugins.
func CommandEvent(line string) Event {
	return Event{Command: &line}
}
