package session

import (
	"bytes"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/arukana/neko/internal/plugin"
)

// Decoder turns chunks read from the user's terminal into events. Every
// event it returns carries the raw chunk as input; the decoded payload, when
// there is one, takes precedence at dispatch.
type Decoder struct {
	// Repeat is the window within which the same key counts as a repeat.
	Repeat time.Duration

	// Interval is the pause after which a key reports the elapsed time.
	Interval time.Duration

	last   []byte
	lastAt time.Time
	count  uint64
}

// NewDecoder returns a decoder with the given windows.
func NewDecoder(repeat, interval time.Duration) *Decoder {
	return &Decoder{Repeat: repeat, Interval: interval}
}

// Decode classifies buf read at now.
//
// An SGR mouse report (ESC [ < b ; x ; y M|m) is a mouse press or release.
// Otherwise the chunk is a key: the same key again within the repeat window
// counts repeats, a key after a pause longer than the interval carries the
// pause, a lone code point is a unicode key, and any other valid UTF-8 is a
// string key. Invalid UTF-8 is plain input.
func (d *Decoder) Decode(buf []byte, now time.Time) plugin.Event {
	input := append([]byte(nil), buf...)

	if mouse, ok := parseMouse(buf); ok {
		mouse.Input = input
		return mouse
	}
	if !utf8.Valid(buf) || len(buf) == 0 {
		return plugin.InputEvent(input)
	}

	var ev plugin.Event
	elapsed := now.Sub(d.lastAt)
	switch {
	case !d.lastAt.IsZero() && bytes.Equal(buf, d.last) && elapsed <= d.Repeat:
		d.count++
		ev = plugin.RepeatEvent(d.count)
	case !d.lastAt.IsZero() && d.Interval > 0 && elapsed > d.Interval:
		d.count = 0
		ev = plugin.IntervalEvent(elapsed)
	default:
		d.count = 0
		if r, size := utf8.DecodeRune(buf); size == len(buf) {
			ev = plugin.UnicodeEvent(r)
		} else {
			ev = plugin.StringEvent(string(buf))
		}
	}

	d.last = input
	d.lastAt = now
	ev.Input = input
	return ev
}

// Reset forgets the previous key.
func (d *Decoder) Reset() {
	d.last = nil
	d.lastAt = time.Time{}
	d.count = 0
}

// parseMouse decodes an SGR extended mouse report.
func parseMouse(buf []byte) (plugin.Event, bool) {
	if len(buf) < 9 || !bytes.HasPrefix(buf, []byte("\x1b[<")) {
		return plugin.Event{}, false
	}

	final := buf[len(buf)-1]
	if final != 'M' && final != 'm' {
		return plugin.Event{}, false
	}

	fields := bytes.Split(buf[3:len(buf)-1], []byte(";"))
	if len(fields) != 3 {
		return plugin.Event{}, false
	}

	code, err := strconv.ParseUint(string(fields[0]), 10, 32)
	if err != nil {
		return plugin.Event{}, false
	}
	x, err := strconv.ParseUint(string(fields[1]), 10, 16)
	if err != nil {
		return plugin.Event{}, false
	}
	y, err := strconv.ParseUint(string(fields[2]), 10, 16)
	if err != nil {
		return plugin.Event{}, false
	}

	return plugin.MouseEvent(final == 'M', uint32(code), uint16(x), uint16(y)), true
}
