// Package board implements Hex board representation using bitsets.
package board

import (
	"fmt"
	"strconv"
)

// MaxSize is the largest supported board dimension.
const MaxSize = 11

// Cell identifies a board cell or one of the four edges.
// Interior cells use row*MaxSize + col, so the index does not depend on the
// board dimensions.
type Cell uint8

// Edge pseudo-cells. Black connects North and South, White connects West
// and East.
const (
	North Cell = MaxSize * MaxSize
	South Cell = North + 1
	West  Cell = North + 2
	East  Cell = North + 3

	// NumCells covers interior cells and edges.
	NumCells = int(East) + 1

	NoCell Cell = 255
)

// NewCell returns the cell at the given column and row (both 0-based).
func NewCell(col, row int) Cell {
	return Cell(row*MaxSize + col)
}

// Col returns the 0-based column.
func (c Cell) Col() int {
	return int(c) % MaxSize
}

// Row returns the 0-based row.
func (c Cell) Row() int {
	return int(c) / MaxSize
}

// String returns the cell name, e.g. "a1" or "c4".
func (c Cell) String() string {
	switch c {
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	case NoCell:
		return "none"
	}
	return string(rune('a'+c.Col())) + strconv.Itoa(c.Row()+1)
}

// ParseCell parses a cell name such as "b3" or an edge name.
func ParseCell(s string) (Cell, error) {
	switch s {
	case "north":
		return North, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	case "east":
		return East, nil
	}
	if len(s) < 2 || len(s) > 3 {
		return NoCell, fmt.Errorf("%w: invalid cell %q", ErrInvalidPosition, s)
	}
	col := int(s[0] - 'a')
	row, err := strconv.Atoi(s[1:])
	if err != nil || col < 0 || col >= MaxSize || row < 1 || row > MaxSize {
		return NoCell, fmt.Errorf("%w: invalid cell %q", ErrInvalidPosition, s)
	}
	return NewCell(col, row-1), nil
}

// FormatCells joins cell names with spaces.
func FormatCells(cells []Cell) string {
	s := ""
	for i, c := range cells {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
