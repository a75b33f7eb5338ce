package solver

import (
	"github.com/hailam/hexsolver/internal/board"
)

// regions splits the board along an opponent group that touches both of
// the mover's edges. Each region holds one of the opponent's edges. ok is
// false when the regions meet, in which case there is nothing to split.
func regions(pos *board.Position, group board.Bitset) (sides [2]board.Bitset, ok bool) {
	geo := pos.Geometry()
	opp := pos.ToPlay().Other()
	empty := pos.EmptyCells()

	passable := empty.Or(pos.Stones(opp)).AndNot(group)
	var stop board.Bitset
	for g := group; g.Any(); {
		stop = stop.Or(geo.Neighbors(g.PopFirst()).And(empty))
	}
	e1, e2 := opp.Edges()
	sides[0] = geo.Reachable(passable, stop, e1).And(geo.Cells())
	sides[1] = geo.Reachable(passable, stop, e2).And(geo.Cells())
	return sides, !sides[0].Intersects(sides[1])
}

// solveDecomposition solves each region on its own with the other region
// filled by opponent stones. The mover wins if it wins either region and
// loses if it loses both. handled is false when the group does not split
// the board.
func (s *DFS) solveDecomposition(v *Variation, sol *solution, group board.Bitset) (win, handled bool) {
	o := s.oracle
	pos := o.Position()
	col := pos.ToPlay()
	opp := col.Other()

	sides, ok := regions(pos, group)
	if !ok {
		return false, false
	}
	s.stats.Decompositions++
	empty := pos.EmptyCells()
	dead := o.Inferior(col).Dead

	var subs [2]solution
	for i := range sides {
		o.PlayStones(opp, sides[i^1].And(empty))
		won, p, terminalNode := terminal(o, col)
		if terminalNode {
			subs[i] = solution{proof: p}
		} else {
			won = s.solveInterior(v, &subs[i])
		}
		o.Undo()
		if s.abort.aborted {
			return false, true
		}
		if won {
			s.stats.DecompositionsWon++
			*sol = subs[i]
			return true, true
		}
	}

	sol.pv = append(append([]board.Cell{}, subs[0].pv...), subs[1].pv...)
	sol.moves = subs[0].moves + subs[1].moves
	sol.proof = subs[0].proof.And(sides[0]).
		Or(subs[1].proof.And(sides[1])).
		Or(pos.Stones(opp)).
		AndNot(dead)
	return false, true
}
