package state

import "fmt"

// Sheet selects a sprite sheet in the graphic dictionary.
type Sheet uint32

// Known sheets. SheetNone is the empty default a plugin is expected to
// replace from its start hook.
const (
	SheetNone Sheet = iota
	SheetBust
	SheetBustHappy
	SheetBustAngry
	SheetBustSad
	SheetLotus
	SheetLying
)

// String returns the sheet name.
func (s Sheet) String() string {
	switch s {
	case SheetNone:
		return "none"
	case SheetBust:
		return "bust"
	case SheetBustHappy:
		return "bust-happy"
	case SheetBustAngry:
		return "bust-angry"
	case SheetBustSad:
		return "bust-sad"
	case SheetLotus:
		return "lotus"
	case SheetLying:
		return "lying"
	default:
		return fmt.Sprintf("sheet(%d)", uint32(s))
	}
}

// Tuple pairs a body part with an emotion for one sprite cell.
type Tuple struct {
	Part    uint32
	Emotion uint32
}

// Emotions is the explicit emotion grid of a persona.
type Emotions [MaxDraw][MaxXY]Tuple

// Persona is the character drawn over the terminal.
type Persona struct {
	Sheet    Sheet
	Emotion  Emotions
	Position Position
}

// DefaultPersona returns the persona installed in a fresh State.
func DefaultPersona() Persona {
	return Persona{Position: AtCardinal(UpperRight)}
}

func (p Persona) String() string {
	return fmt.Sprintf("Persona{sheet: %s, position: %s}", p.Sheet, p.Position)
}
