package state

import (
	"fmt"
	"strings"
)

// MessageCapacity is the number of characters a tooltip can hold.
const MessageCapacity = 1024

// Relative places the tooltip around the persona.
type Relative uint32

// Relative values. The numeric values are part of the ABI.
const (
	Top Relative = iota
	Bottom
	Right
	Left
)

// String returns the relative name.
func (r Relative) String() string {
	switch r {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("relative(%d)", uint32(r))
	}
}

// ParseRelative parses a relative name as produced by Relative.String.
func ParseRelative(s string) (Relative, error) {
	switch strings.ToLower(s) {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	case "right":
		return Right, nil
	case "left":
		return Left, nil
	default:
		return 0, fmt.Errorf("unknown tooltip cardinal %q", s)
	}
}

// Character is one cell of tooltip text. A zero Glyph terminates the message.
type Character struct {
	Glyph     rune
	Attribute uint32
	Color     uint32
}

// Message is the fixed-capacity tooltip buffer.
type Message [MessageCapacity]Character

// Tooltip is the speech bubble attached to the persona.
type Tooltip struct {
	Cardinal Relative
	Message  Message
}

// DefaultTooltip returns the tooltip installed in a fresh State.
func DefaultTooltip() Tooltip {
	return Tooltip{Cardinal: Left}
}

// SetMessage copies text into the buffer, truncating at capacity, and clears
// every cell after it.
func (t *Tooltip) SetMessage(text string) {
	i := 0
	for _, r := range text {
		if i == MessageCapacity {
			break
		}
		t.Message[i] = Character{Glyph: r}
		i++
	}
	for ; i < MessageCapacity; i++ {
		t.Message[i] = Character{}
	}
}

// Text returns the message up to the first empty cell.
func (t *Tooltip) Text() string {
	var b strings.Builder
	for _, c := range t.Message {
		if c.Glyph == 0 {
			break
		}
		b.WriteRune(c.Glyph)
	}
	return b.String()
}

// Height returns the number of lines in the message.
func (t *Tooltip) Height() int {
	return strings.Count(t.Text(), "\n") + 1
}

// Width returns the length, in characters, of the longest line.
func (t *Tooltip) Width() int {
	width := 0
	for _, line := range strings.Split(t.Text(), "\n") {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	return width
}

func (t Tooltip) String() string {
	return fmt.Sprintf("Tooltip{cardinal: %s, message: %q}", t.Cardinal, t.Text())
}
