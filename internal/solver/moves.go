package solver

import (
	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/connect"
	"github.com/hailam/hexsolver/internal/proof"
)

// terminal checks whether col, to move, has already won or lost. The proof
// is the connection carrier plus the winner's stones and fill-in, minus
// dead cells.
func terminal(o connect.Oracle, col board.Color) (win bool, p board.Bitset, ok bool) {
	pos := o.Position()
	inf := o.Inferior(col)
	if carrier, won := o.WinningConnection(col); won {
		p = carrier.Or(proof.StonesInProof(pos, col, inf.Fillin(col)))
		return true, p.AndNot(inf.Dead), true
	}
	if carrier, lost := o.LosingConnection(col); lost {
		opp := col.Other()
		p = carrier.Or(proof.StonesInProof(pos, opp, inf.Fillin(opp)))
		return false, p.AndNot(inf.Dead), true
	}
	return false, board.Bitset{}, false
}

// considerSet returns the moves col must look at and the opponent's
// initial proof. The mustplay loses dead and captured cells, and prunable
// cells whose witness is still considered. On a position equal to its own
// rotation only one cell of each rotated pair is kept.
func considerSet(o connect.Oracle, col board.Color) (consider, initial board.Bitset) {
	pos := o.Position()
	inf := o.Inferior(col)

	consider = o.Mustplay(col).AndNot(inf.Dead).
		AndNot(inf.Captured[board.Black]).AndNot(inf.Captured[board.White])

	prunable := inf.Prunable().And(consider)
	keep := consider.AndNot(prunable)
	var pruned board.Bitset
	for s := prunable; s.Any(); {
		c := s.PopFirst()
		if inf.Witness[c].Intersects(keep) {
			pruned = pruned.Set(c)
		}
	}
	consider = consider.AndNot(pruned)

	if pos.IsSelfRotation() {
		geo := pos.Geometry()
		for s := consider; s.Any(); {
			c := s.PopFirst()
			if r := geo.Rotate(c); r > c && consider.Has(r) {
				consider = consider.Clear(r)
			}
		}
	}
	return consider, proof.InitialProofForOpponent(o, col, pruned)
}
