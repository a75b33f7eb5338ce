package board

import "fmt"

// Geometry holds the precomputed adjacency of one board size.
type Geometry struct {
	width, height int
	cells         Bitset
	neighbors     [NumCells]Bitset
}

// geometries holds one table per board size, built at init.
var geometries [MaxSize + 1][MaxSize + 1]*Geometry

func init() {
	for w := 1; w <= MaxSize; w++ {
		for h := 1; h <= MaxSize; h++ {
			geometries[w][h] = buildGeometry(w, h)
		}
	}
}

// Hex adjacency on the rhombus: (dc, dr) offsets.
var neighborOffsets = [6][2]int{{0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}}

func buildGeometry(w, h int) *Geometry {
	g := &Geometry{width: w, height: h}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			g.cells = g.cells.Set(NewCell(c, r))
		}
	}
	link := func(a, b Cell) {
		g.neighbors[a] = g.neighbors[a].Set(b)
		g.neighbors[b] = g.neighbors[b].Set(a)
	}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			cell := NewCell(c, r)
			for _, d := range neighborOffsets {
				nc, nr := c+d[0], r+d[1]
				if nc >= 0 && nc < w && nr >= 0 && nr < h {
					link(cell, NewCell(nc, nr))
				}
			}
			if r == 0 {
				link(cell, North)
			}
			if r == h-1 {
				link(cell, South)
			}
			if c == 0 {
				link(cell, West)
			}
			if c == w-1 {
				link(cell, East)
			}
		}
	}
	return g
}

// NewGeometry returns the geometry for a width x height board.
func NewGeometry(width, height int) (*Geometry, error) {
	if width < 1 || height < 1 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("%w: unsupported board size %dx%d", ErrInvalidPosition, width, height)
	}
	return geometries[width][height], nil
}

// MustGeometry is like NewGeometry but panics on an invalid size.
func MustGeometry(width, height int) *Geometry {
	g, err := NewGeometry(width, height)
	if err != nil {
		panic(err)
	}
	return g
}

// Width returns the number of columns.
func (g *Geometry) Width() int { return g.width }

// Height returns the number of rows.
func (g *Geometry) Height() int { return g.height }

// Square reports whether width equals height.
func (g *Geometry) Square() bool { return g.width == g.height }

// Cells returns all interior cells.
func (g *Geometry) Cells() Bitset { return g.cells }

// Contains reports whether c is an interior cell of this board.
func (g *Geometry) Contains(c Cell) bool { return g.cells.Has(c) }

// Neighbors returns the cells and edges adjacent to c.
func (g *Geometry) Neighbors(c Cell) Bitset { return g.neighbors[c] }

// Distance returns the hex distance between two interior cells.
func (g *Geometry) Distance(a, b Cell) int {
	dq := b.Col() - a.Col()
	dr := b.Row() - a.Row()
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

// DistanceFromCenter measures how far c is from the middle of the board.
// On boards with an even dimension the distances to the two central cells
// are summed so the ordering spirals evenly.
func (g *Geometry) DistanceFromCenter(c Cell) int {
	if g.width&1 == 1 && g.height&1 == 1 {
		return g.Distance(NewCell(g.width/2, g.height/2), c)
	}
	left := NewCell((g.width-1)/2, g.height/2)
	right := NewCell(g.width/2, (g.height-1)/2)
	return g.Distance(left, c) + g.Distance(right, c)
}

// Rotate returns c rotated 180 degrees about the board centre. Colors keep
// their edges under rotation.
func (g *Geometry) Rotate(c Cell) Cell {
	switch c {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	case NoCell:
		return NoCell
	}
	return NewCell(g.width-1-c.Col(), g.height-1-c.Row())
}

// RotateSet rotates every cell of b.
func (g *Geometry) RotateSet(b Bitset) Bitset {
	var out Bitset
	for b.Any() {
		out = out.Set(g.Rotate(b.PopFirst()))
	}
	return out
}

// Mirror reflects c across the long diagonal, swapping the roles of the
// edges. Only meaningful on square boards.
func (g *Geometry) Mirror(c Cell) Cell {
	switch c {
	case North:
		return West
	case West:
		return North
	case South:
		return East
	case East:
		return South
	case NoCell:
		return NoCell
	}
	return NewCell(c.Row(), c.Col())
}

// MirrorSet mirrors every cell of b.
func (g *Geometry) MirrorSet(b Bitset) Bitset {
	var out Bitset
	for b.Any() {
		out = out.Set(g.Mirror(b.PopFirst()))
	}
	return out
}

// Reachable returns the cells reachable from start moving through
// passable cells. Cells in stop are reached but not expanded. start is
// always included.
func (g *Geometry) Reachable(passable, stop Bitset, start Cell) Bitset {
	visited := NewBitset(start)
	queue := []Cell{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c != start && stop.Has(c) {
			continue
		}
		next := g.neighbors[c].And(passable).AndNot(visited)
		visited = visited.Or(next)
		for next.Any() {
			queue = append(queue, next.PopFirst())
		}
	}
	return visited
}

// Connected reports whether a and b are joined by a path through set.
func (g *Geometry) Connected(set Bitset, a, b Cell) bool {
	return g.Reachable(set.Set(b), Bitset{}, a).Has(b)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
