package solver

import (
	"sort"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/proof"
)

// OrderFlags select the move ordering heuristics.
type OrderFlags uint8

const (
	// WithMustplay plays each move and prefers those that leave the
	// opponent a small mustplay.
	WithMustplay OrderFlags = 1 << iota
	// WithResist breaks ties by circuit resistance.
	WithResist
	// FromCenter breaks ties by distance from the centre.
	FromCenter
)

// Move ordering scores. Lower scores are searched first.
const (
	mustplayWeight = 1000
	noThreatWeight = 1000000
	resistBase     = 100
)

type scoredMove struct {
	cell  board.Cell
	score float64
}

// orderMoves sorts the consider set of col, the side to move. Moves whose
// child is already decided are resolved here: a losing child wins the
// node at once, a winning child only narrows consider and widens the
// proof. It returns true when a winning move was found, with sol filled.
func (s *DFS) orderMoves(col board.Color, consider *board.Bitset, sol *solution) ([]board.Cell, bool) {
	o := s.oracle
	pos := o.Position()
	geo := pos.Geometry()
	opp := col.Other()
	dead := o.Inferior(col).Dead

	var losing, union board.Bitset
	intersection := board.Bitset{^uint64(0), ^uint64(0)}
	foldLoss := func(c board.Cell, moves int, p board.Bitset) {
		losing = losing.Set(c)
		intersection = intersection.And(p)
		union = union.Or(p)
		if moves > sol.moves {
			sol.moves = moves
			sol.pv = []board.Cell{c}
		}
	}

	// Children already in the store.
	for _, c := range consider.Cells() {
		o.Play(c)
		child := o.Position()
		rec, ok, err := s.store.Lookup(child)
		if err != nil {
			o.Undo()
			s.fail(err)
			return nil, false
		}
		if ok {
			s.stats.TTHits++
			if !rec.Win {
				sol.proof = proof.MaximumProofSet(child, col, dead)
				sol.moves = rec.NumMoves + 1
				sol.pv = []board.Cell{c}
				o.Undo()
				return nil, true
			}
			foldLoss(c, rec.NumMoves+1, proof.MaximumProofSet(child, opp, dead))
		}
		o.Undo()
	}

	var res *resistanceScores
	if s.opts.Ordering&WithResist != 0 {
		res = s.resistanceScores(pos)
	}

	var scored []scoredMove
	for _, c := range consider.AndNot(losing).Cells() {
		semi, mustplay := false, 0
		if s.opts.Ordering&WithMustplay != 0 {
			o.Play(c)
			oppWin, p, ok := terminal(o, opp)
			if ok {
				o.Undo()
				if !oppWin {
					sol.proof = p
					sol.moves = 1
					sol.pv = []board.Cell{c}
					return nil, true
				}
				foldLoss(c, 1, p)
				continue
			}
			semi = o.SemiCarriers(col).Any()
			mustplay = o.Mustplay(opp).Count()
			o.Undo()
		}

		var tiebreak float64
		switch {
		case res != nil:
			tiebreak = res.tiebreak(c)
		case s.opts.Ordering&FromCenter != 0:
			tiebreak = float64(geo.DistanceFromCenter(c))
		}
		score := noThreatWeight * tiebreak
		if semi {
			score = mustplayWeight*float64(mustplay) + tiebreak
		}
		scored = append(scored, scoredMove{cell: c, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})

	if s.opts.BackupIce {
		if again, initial := considerSet(o, col); again.Count() < consider.Count() {
			*consider = again
			sol.proof = initial
			if again.None() {
				sol.proof = initial.Or(pos.EmptyCells()).AndNot(dead)
				sol.moves = max(sol.moves, 0)
			}
		}
	}
	*consider = consider.And(intersection)
	sol.proof = sol.proof.Or(union)

	moves := make([]board.Cell, len(scored))
	for i, m := range scored {
		moves[i] = m.cell
	}
	return moves, false
}

// resistanceScores wraps a circuit evaluation for move ordering.
type resistanceScores struct {
	cellScore func(board.Cell) float64
}

// tiebreak is small for cells carrying much current.
func (r *resistanceScores) tiebreak(c board.Cell) float64 {
	return resistBase - r.cellScore(c)
}

func (s *DFS) resistanceScores(pos *board.Position) *resistanceScores {
	result, err := s.resist.Evaluate(pos)
	if err != nil {
		s.log.Debug("resistance evaluation failed", "position", pos.Notation(), "error", err)
		return nil
	}
	return &resistanceScores{cellScore: result.CellScore}
}
