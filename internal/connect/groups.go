package connect

import "github.com/hailam/hexsolver/internal/board"

// groups is a union-find over stones and edges. Stones of one color are
// joined with each other and with that color's edges.
type groups struct {
	parent [board.NumCells]board.Cell
	rank   [board.NumCells]uint8
}

func newGroups(pos *board.Position) *groups {
	g := &groups{}
	for i := range g.parent {
		g.parent[i] = board.Cell(i)
	}
	geo := pos.Geometry()
	for col := board.Black; col <= board.White; col++ {
		e1, e2 := col.Edges()
		stones := pos.Stones(col)
		own := stones.Set(e1).Set(e2)
		for s := stones; s.Any(); {
			c := s.PopFirst()
			for n := geo.Neighbors(c).And(own); n.Any(); {
				g.union(c, n.PopFirst())
			}
		}
	}
	return g
}

func (g *groups) find(c board.Cell) board.Cell {
	for g.parent[c] != c {
		g.parent[c] = g.parent[g.parent[c]]
		c = g.parent[c]
	}
	return c
}

func (g *groups) union(a, b board.Cell) {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return
	}
	switch {
	case g.rank[ra] < g.rank[rb]:
		g.parent[ra] = rb
	case g.rank[ra] > g.rank[rb]:
		g.parent[rb] = ra
	default:
		g.parent[rb] = ra
		g.rank[ra]++
	}
}

// connected reports whether col's edges are in one group.
func (g *groups) connected(col board.Color) bool {
	e1, e2 := col.Edges()
	return g.find(e1) == g.find(e2)
}

// members returns every stone in the group of c.
func (g *groups) members(pos *board.Position, c board.Cell) board.Bitset {
	root := g.find(c)
	var out board.Bitset
	for s := pos.Stones(pos.ColorAt(c)); s.Any(); {
		x := s.PopFirst()
		if g.find(x) == root {
			out = out.Set(x)
		}
	}
	return out
}

// adjacentRoots returns the distinct roots of col's groups next to c.
func (g *groups) adjacentRoots(pos *board.Position, c board.Cell, col board.Color) []board.Cell {
	var roots []board.Cell
	e1, e2 := col.Edges()
	own := pos.Stones(col).Set(e1).Set(e2)
	for n := pos.Geometry().Neighbors(c).And(own); n.Any(); {
		r := g.find(n.PopFirst())
		dup := false
		for _, x := range roots {
			if x == r {
				dup = true
				break
			}
		}
		if !dup {
			roots = append(roots, r)
		}
	}
	return roots
}
