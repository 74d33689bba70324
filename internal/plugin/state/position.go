package state

import "fmt"

// Sprite box dimensions, in terminal cells.
const (
	SpriteWidth  = 10
	SpriteHeight = 16

	// MaxXY is the number of cells in one drawing.
	MaxXY = SpriteWidth * SpriteHeight
	// MaxDraw is the number of drawings held by a persona.
	MaxDraw = 5
)

// Cardinal anchors the persona against the window.
type Cardinal uint32

// Cardinal values. The numeric values are part of the ABI.
const (
	UpperLeft Cardinal = iota
	UpperMiddle
	UpperRight
	MiddleLeft
	MiddleCentral
	MiddleRight
	LowerLeft
	LowerMiddle
	LowerRight
)

// DefaultCardinal is used by Position values built from explicit coordinates.
const DefaultCardinal = LowerRight

// String returns the cardinal name.
func (c Cardinal) String() string {
	switch c {
	case UpperLeft:
		return "upper-left"
	case UpperMiddle:
		return "upper-middle"
	case UpperRight:
		return "upper-right"
	case MiddleLeft:
		return "middle-left"
	case MiddleCentral:
		return "middle-central"
	case MiddleRight:
		return "middle-right"
	case LowerLeft:
		return "lower-left"
	case LowerMiddle:
		return "lower-middle"
	case LowerRight:
		return "lower-right"
	default:
		return fmt.Sprintf("cardinal(%d)", uint32(c))
	}
}

// Winsize mirrors struct winsize from <sys/ioctl.h>.
type Winsize struct {
	Row    uint16
	Col    uint16
	Xpixel uint16
	Ypixel uint16
}

// Coordinate returns the top-left cell of the sprite box for this cardinal.
// Windows that cannot hold the box anchor everything at (0, 0).
func (c Cardinal) Coordinate(size Winsize) (x, y int) {
	width, height := int(size.Col), int(size.Row)
	if width <= SpriteWidth || height <= SpriteHeight {
		return 0, 0
	}

	centerX := width/2 - SpriteWidth/2
	centerY := height/2 - SpriteHeight/2
	right := width - SpriteWidth
	bottom := height - SpriteHeight

	switch c {
	case UpperMiddle:
		return centerX, 0
	case UpperRight:
		return right, 0
	case MiddleLeft:
		return 0, centerY
	case MiddleCentral:
		return centerX, centerY
	case MiddleRight:
		return right, centerY
	case LowerLeft:
		return 0, bottom
	case LowerMiddle:
		return centerX, bottom
	case LowerRight:
		return right, bottom
	default:
		return 0, 0
	}
}

// Position is either a cardinal anchor or explicit cell coordinates.
// A zero Cartesian means the cardinal applies.
type Position struct {
	Cardinal  Cardinal
	Cartesian [2]uint16
}

// AtCardinal returns a position anchored at c.
func AtCardinal(c Cardinal) Position {
	return Position{Cardinal: c}
}

// At returns a position at explicit cell coordinates.
func At(x, y uint16) Position {
	return Position{Cardinal: DefaultCardinal, Cartesian: [2]uint16{x, y}}
}

// IsExplicit reports whether the position carries coordinates.
func (p Position) IsExplicit() bool {
	return p.Cartesian != [2]uint16{}
}

// Coordinate resolves the position against the window size.
func (p Position) Coordinate(size Winsize) (x, y int) {
	if p.IsExplicit() {
		return int(p.Cartesian[0]), int(p.Cartesian[1])
	}
	return p.Cardinal.Coordinate(size)
}

func (p Position) String() string {
	if p.IsExplicit() {
		return fmt.Sprintf("(%d,%d)", p.Cartesian[0], p.Cartesian[1])
	}
	return p.Cardinal.String()
}
