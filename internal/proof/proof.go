// Package proof builds, checks and shrinks proof sets.
//
// A proof set for a winner is a set of cells such that the winner still
// wins when every cell outside it belongs to the loser. It never holds
// loser stones or dead cells and always joins the winner's two edges.
package proof

import (
	"errors"
	"fmt"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/connect"
)

// ErrInvalidProof reports a proof set that fails verification.
var ErrInvalidProof = errors.New("invalid proof")

// InvariantError is raised by the solvers, via panic, when a resolved
// node breaks one of the proof invariants. It is never stored.
type InvariantError struct {
	Position string
	Err      error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("solver invariant violated at %s: %v", e.Position, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Verify checks a proof for winner.
func Verify(geo *board.Geometry, proof board.Bitset, winner board.Color, loserStones, dead board.Bitset) error {
	if bad := proof.And(loserStones); bad.Any() {
		return fmt.Errorf("%w: touches loser stones %s", ErrInvalidProof, bad)
	}
	if bad := proof.And(dead); bad.Any() {
		return fmt.Errorf("%w: contains dead cells %s", ErrInvalidProof, bad)
	}
	e1, e2 := winner.Edges()
	if !geo.Connected(proof, e1, e2) {
		return fmt.Errorf("%w: %s does not connect %s to %s", ErrInvalidProof, proof, e1, e2)
	}
	return nil
}

// MaximumProofSet is the largest proof col could need: its stones and every
// empty cell that is not dead.
func MaximumProofSet(pos *board.Position, col board.Color, dead board.Bitset) board.Bitset {
	return pos.Stones(col).Or(pos.EmptyCells()).AndNot(dead)
}

// StonesInProof returns the stones of col together with its fill-in.
func StonesInProof(pos *board.Position, col board.Color, fillin board.Bitset) board.Bitset {
	return pos.Stones(col).Or(fillin)
}

// InitialProofForOpponent is the part of the opponent's proof already known
// before col's moves are tried: the opponent's semi connection carriers,
// stones and captured cells, plus the witnesses of the cells in pruned.
func InitialProofForOpponent(o connect.Oracle, col board.Color, pruned board.Bitset) board.Bitset {
	pos := o.Position()
	opp := col.Other()
	inf := o.Inferior(col)

	p := StonesInProof(pos, opp, inf.Fillin(opp)).Or(o.SemiCarriers(opp))
	for c, w := range inf.Witness {
		if pruned.Has(c) {
			p = p.Or(w)
		}
	}
	return p.AndNot(inf.Dead)
}

// BothEdges keeps the cells of proof reachable over the proof from both of
// winner's edges.
func BothEdges(geo *board.Geometry, proof board.Bitset, winner board.Color) board.Bitset {
	e1, e2 := winner.Edges()
	r1 := geo.Reachable(proof, board.Bitset{}, e1)
	r2 := geo.Reachable(proof, board.Bitset{}, e2)
	return r1.And(r2).And(geo.Cells())
}

// Flip returns the flipped position and the proof mirrored onto it. The
// flipped game is the same game seen from the other side, so the verdict
// for the side to move carries over.
func Flip(pos *board.Position, proof board.Bitset) (*board.Position, board.Bitset, bool) {
	f, ok := pos.Flipped()
	if !ok {
		return nil, board.Bitset{}, false
	}
	return f, pos.Geometry().MirrorSet(proof), true
}
