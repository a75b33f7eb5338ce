package board

import "fmt"

// Color represents the color of a stone or player.
type Color uint8

const (
	Black Color = iota
	White
	Empty Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Char returns the single-character form used in position strings.
func (c Color) Char() byte {
	switch c {
	case Black:
		return 'B'
	case White:
		return 'W'
	default:
		return '.'
	}
}

// ParseColor parses "b", "black", "w" or "white" (any case).
func ParseColor(s string) (Color, error) {
	switch s {
	case "b", "B", "black", "Black", "BLACK":
		return Black, nil
	case "w", "W", "white", "White", "WHITE":
		return White, nil
	}
	return Empty, fmt.Errorf("%w: invalid color %q", ErrInvalidPosition, s)
}

// Edges returns the two edges the color tries to connect.
func (c Color) Edges() (Cell, Cell) {
	if c == Black {
		return North, South
	}
	return West, East
}
