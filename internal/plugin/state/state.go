package state

import "fmt"

// Version is the layout version written into every State.
const Version uint32 = 1

// State is the blob shared by pointer with every mounted plugin.
type State struct {
	Version uint32
	Persona Persona
	Tooltip Tooltip
	Unmount uint8
	Lock    uint8
}

// New returns a State holding the default persona and tooltip.
func New() *State {
	return &State{
		Version: Version,
		Persona: DefaultPersona(),
		Tooltip: DefaultTooltip(),
	}
}

// IsUnmounted reports whether the current plugin asked to be unmounted.
func (s *State) IsUnmounted() bool {
	return s.Unmount != 0
}

// ClearUnmount resets the unmount request.
func (s *State) ClearUnmount() {
	s.Unmount = 0
}

// IsLocked reports whether a plugin holds the keyboard.
func (s *State) IsLocked() bool {
	return s.Lock != 0
}

// Sheet returns the persona's sheet selector.
func (s *State) Sheet() Sheet {
	return s.Persona.Sheet
}

// Position returns the persona's position.
func (s *State) Position() Position {
	return s.Persona.Position
}

// SetTooltipMessage replaces the tooltip text.
func (s *State) SetTooltipMessage(text string) {
	s.Tooltip.SetMessage(text)
}

// SetTooltipCardinal moves the tooltip around the persona.
func (s *State) SetTooltipCardinal(r Relative) {
	s.Tooltip.Cardinal = r
}

// SetPersonaSheet selects the persona's sprite sheet.
func (s *State) SetPersonaSheet(sheet Sheet) {
	s.Persona.Sheet = sheet
}

// SetPersonaPosition moves the persona.
func (s *State) SetPersonaPosition(p Position) {
	s.Persona.Position = p
}

// Snapshot returns a value copy of the blob.
func (s *State) Snapshot() State {
	return *s
}

func (s *State) String() string {
	return fmt.Sprintf("State{version: %d, persona: %s, tooltip: %s, unmount: %t, lock: %t}",
		s.Version, s.Persona, s.Tooltip, s.IsUnmounted(), s.IsLocked())
}
