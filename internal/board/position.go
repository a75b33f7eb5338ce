package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPosition reports a malformed position, cell or board size.
var ErrInvalidPosition = errors.New("invalid position")

// undoInfo captures everything needed to take back one action.
type undoInfo struct {
	color  Color
	cells  Bitset
	toPlay Color
	hash   uint64
}

// Position represents a Hex position.
type Position struct {
	geo    *Geometry
	stones [2]Bitset
	toPlay Color
	hash   uint64
	undo   []undoInfo
}

// NewPosition creates an empty board with Black to play.
func NewPosition(geo *Geometry) *Position {
	p := &Position{geo: geo, toPlay: Black}
	p.hash = p.ComputeHash()
	return p
}

// FromStones creates a position from stone sets.
func FromStones(geo *Geometry, black, white Bitset, toPlay Color) (*Position, error) {
	if black.Intersects(white) {
		return nil, fmt.Errorf("%w: overlapping stones %s", ErrInvalidPosition, black.And(white))
	}
	if !black.Or(white).SubsetOf(geo.Cells()) {
		return nil, fmt.Errorf("%w: stones off board %s", ErrInvalidPosition, black.Or(white).AndNot(geo.Cells()))
	}
	if toPlay != Black && toPlay != White {
		return nil, fmt.Errorf("%w: invalid side to move", ErrInvalidPosition)
	}
	p := &Position{geo: geo, stones: [2]Bitset{black, white}, toPlay: toPlay}
	p.hash = p.ComputeHash()
	return p, nil
}

// Copy creates a deep copy of the position, history included.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.undo = append([]undoInfo(nil), p.undo...)
	return &newPos
}

// Geometry returns the board geometry.
func (p *Position) Geometry() *Geometry { return p.geo }

// ToPlay returns the color to move.
func (p *Position) ToPlay() Color { return p.toPlay }

// Hash returns the Zobrist key of the position.
func (p *Position) Hash() uint64 { return p.hash }

// Stones returns the stones of color c.
func (p *Position) Stones(c Color) Bitset { return p.stones[c] }

// Occupied returns all stones.
func (p *Position) Occupied() Bitset { return p.stones[Black].Or(p.stones[White]) }

// EmptyCells returns the empty interior cells.
func (p *Position) EmptyCells() Bitset { return p.geo.cells.AndNot(p.Occupied()) }

// NumStones returns the number of stones on the board.
func (p *Position) NumStones() int { return p.Occupied().Count() }

// MoveNumber returns the number of actions played since construction.
func (p *Position) MoveNumber() int { return len(p.undo) }

// ColorAt returns the color of an interior cell. Edges report the color
// that owns them.
func (p *Position) ColorAt(c Cell) Color {
	switch {
	case c == North || c == South:
		return Black
	case c == West || c == East:
		return White
	case p.stones[Black].Has(c):
		return Black
	case p.stones[White].Has(c):
		return White
	}
	return Empty
}

// IsEmpty returns true if c is an empty interior cell.
func (p *Position) IsEmpty(c Cell) bool {
	return p.EmptyCells().Has(c)
}

// Play places a stone for the side to move and passes the turn.
func (p *Position) Play(c Cell) {
	p.PlayColor(p.toPlay, c)
}

// PlayColor places a stone of color col on c; the opponent of col moves
// next.
func (p *Position) PlayColor(col Color, c Cell) {
	p.undo = append(p.undo, undoInfo{color: col, cells: NewBitset(c), toPlay: p.toPlay, hash: p.hash})
	p.stones[col] = p.stones[col].Set(c)
	p.hash ^= zobristStone[col][c]
	if p.toPlay != col.Other() {
		p.hash ^= zobristSideToMove
		p.toPlay = col.Other()
	}
}

// PlayStones places stones of color col on every cell of cells as a single
// undoable action. The side to move is unchanged.
func (p *Position) PlayStones(col Color, cells Bitset) {
	p.undo = append(p.undo, undoInfo{color: col, cells: cells, toPlay: p.toPlay, hash: p.hash})
	p.stones[col] = p.stones[col].Or(cells)
	for cells.Any() {
		p.hash ^= zobristStone[col][cells.PopFirst()]
	}
}

// Undo takes back the last Play, PlayColor or PlayStones.
func (p *Position) Undo() {
	n := len(p.undo) - 1
	u := p.undo[n]
	p.undo = p.undo[:n]
	p.stones[u.color] = p.stones[u.color].AndNot(u.cells)
	p.toPlay = u.toPlay
	p.hash = u.hash
}

// CanPlay validates that c is a legal move.
func (p *Position) CanPlay(c Cell) error {
	if !p.geo.Contains(c) {
		return fmt.Errorf("%w: %s is not on a %dx%d board", ErrInvalidPosition, c, p.geo.width, p.geo.height)
	}
	if !p.IsEmpty(c) {
		return fmt.Errorf("%w: %s is occupied", ErrInvalidPosition, c)
	}
	return nil
}

// ComputeHash computes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	h := zobristSize[p.geo.width][p.geo.height]
	for col := Black; col <= White; col++ {
		s := p.stones[col]
		for s.Any() {
			h ^= zobristStone[col][s.PopFirst()]
		}
	}
	if p.toPlay == White {
		h ^= zobristSideToMove
	}
	return h
}

// Rotated returns the position rotated 180 degrees, without history.
func (p *Position) Rotated() *Position {
	r := &Position{
		geo:    p.geo,
		stones: [2]Bitset{p.geo.RotateSet(p.stones[Black]), p.geo.RotateSet(p.stones[White])},
		toPlay: p.toPlay,
	}
	r.hash = r.ComputeHash()
	return r
}

// Flipped returns the mirror image with colors swapped, without history.
// It is the same game seen from the other side and exists only on square
// boards.
func (p *Position) Flipped() (*Position, bool) {
	if !p.geo.Square() {
		return nil, false
	}
	f := &Position{
		geo:    p.geo,
		stones: [2]Bitset{p.geo.MirrorSet(p.stones[White]), p.geo.MirrorSet(p.stones[Black])},
		toPlay: p.toPlay.Other(),
	}
	f.hash = f.ComputeHash()
	return f, true
}

// IsSelfRotation reports whether the position equals its 180 degree
// rotation.
func (p *Position) IsSelfRotation() bool {
	return p.geo.RotateSet(p.stones[Black]) == p.stones[Black] &&
		p.geo.RotateSet(p.stones[White]) == p.stones[White]
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	return p.Format(Bitset{}, '*')
}

// Format draws the board, marking cells of mark with ch.
func (p *Position) Format(mark Bitset, ch byte) string {
	var sb strings.Builder
	sb.WriteString("\n  ")
	for c := 0; c < p.geo.width; c++ {
		sb.WriteByte(' ')
		sb.WriteByte(byte('a' + c))
	}
	sb.WriteByte('\n')
	for r := 0; r < p.geo.height; r++ {
		fmt.Fprintf(&sb, "%2d%s", r+1, strings.Repeat(" ", r))
		for c := 0; c < p.geo.width; c++ {
			cell := NewCell(c, r)
			sb.WriteByte(' ')
			if col := p.ColorAt(cell); col != Empty {
				sb.WriteByte(col.Char())
			} else if mark.Has(cell) {
				sb.WriteByte(ch)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\nTo play: %s\n", p.toPlay)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.hash)
	return sb.String()
}
