package board

import (
	"math/bits"
	"strings"
)

// Bitset is a set of cells. Bit i corresponds to Cell(i); edges included.
type Bitset [2]uint64

// NewBitset returns a bitset containing the given cells.
func NewBitset(cells ...Cell) Bitset {
	var b Bitset
	for _, c := range cells {
		b = b.Set(c)
	}
	return b
}

// Set returns b with cell c added.
func (b Bitset) Set(c Cell) Bitset {
	b[c>>6] |= 1 << (c & 63)
	return b
}

// Clear returns b with cell c removed.
func (b Bitset) Clear(c Cell) Bitset {
	b[c>>6] &^= 1 << (c & 63)
	return b
}

// Has reports whether c is in the set.
func (b Bitset) Has(c Cell) bool {
	if c == NoCell {
		return false
	}
	return b[c>>6]&(1<<(c&63)) != 0
}

// Count returns the number of cells in the set.
func (b Bitset) Count() int {
	return bits.OnesCount64(b[0]) + bits.OnesCount64(b[1])
}

// Any reports whether the set is non-empty.
func (b Bitset) Any() bool {
	return b[0]|b[1] != 0
}

// None reports whether the set is empty.
func (b Bitset) None() bool {
	return b[0]|b[1] == 0
}

// Or returns the union of b and o.
func (b Bitset) Or(o Bitset) Bitset {
	return Bitset{b[0] | o[0], b[1] | o[1]}
}

// And returns the intersection of b and o.
func (b Bitset) And(o Bitset) Bitset {
	return Bitset{b[0] & o[0], b[1] & o[1]}
}

// AndNot returns b minus o.
func (b Bitset) AndNot(o Bitset) Bitset {
	return Bitset{b[0] &^ o[0], b[1] &^ o[1]}
}

// Intersects reports whether b and o share a cell.
func (b Bitset) Intersects(o Bitset) bool {
	return b[0]&o[0] != 0 || b[1]&o[1] != 0
}

// SubsetOf reports whether every cell of b is in o.
func (b Bitset) SubsetOf(o Bitset) bool {
	return b.AndNot(o).None()
}

// First returns the lowest cell in the set, or NoCell.
func (b Bitset) First() Cell {
	if b[0] != 0 {
		return Cell(bits.TrailingZeros64(b[0]))
	}
	if b[1] != 0 {
		return Cell(64 + bits.TrailingZeros64(b[1]))
	}
	return NoCell
}

// PopFirst removes and returns the lowest cell.
func (b *Bitset) PopFirst() Cell {
	c := b.First()
	if c != NoCell {
		*b = b.Clear(c)
	}
	return c
}

// Cells returns the cells in ascending order.
func (b Bitset) Cells() []Cell {
	cells := make([]Cell, 0, b.Count())
	for b.Any() {
		cells = append(cells, b.PopFirst())
	}
	return cells
}

// String returns the cell names in ascending order.
func (b Bitset) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range b.Cells() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
