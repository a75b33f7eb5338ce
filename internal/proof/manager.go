package proof

import (
	"fmt"

	"github.com/hailam/hexsolver/internal/board"
)

// FillinEngine computes fill-in on arbitrary positions.
type FillinEngine interface {
	Fillin(pos *board.Position, col board.Color) board.Bitset
}

// Manager shrinks proofs with a fill-in engine.
type Manager struct {
	engine FillinEngine

	shrinks int
	shrunk int
}

// NewManager creates a manager backed by engine.
func NewManager(engine FillinEngine) *Manager {
	return &Manager{engine: engine}
}

// Shrink removes from proof the cells the winner does not need. Every cell
// outside the proof goes to the loser and the winner keeps only its stones
// inside the proof; cells that then fill in for the loser are dropped, as
// are cells no longer reachable from both of the winner's edges. This
// repeats until nothing changes, so shrinking a shrunk proof is a no-op.
// The result is verified before it is returned.
func (m *Manager) Shrink(pos *board.Position, proof board.Bitset, loser board.Color) (board.Bitset, error) {
	geo := pos.Geometry()
	winner := loser.Other()
	before := proof.Count()

	cur := proof
	for {
		next, err := m.shrinkOnce(pos, cur, loser)
		if err != nil {
			return proof, err
		}
		next = BothEdges(geo, next, winner)
		if next == cur {
			break
		}
		cur = next
	}
	if err := Verify(geo, cur, winner, pos.Stones(loser), board.Bitset{}); err != nil {
		return proof, fmt.Errorf("shrink: %w", err)
	}
	if n := before - cur.Count(); n > 0 {
		m.shrinks++
		m.shrunk += n
	}
	return cur, nil
}

func (m *Manager) shrinkOnce(pos *board.Position, proof board.Bitset, loser board.Color) (board.Bitset, error) {
	geo := pos.Geometry()
	winner := loser.Other()

	var stones [2]board.Bitset
	stones[loser] = geo.Cells().AndNot(proof)
	stones[winner] = pos.Stones(winner).And(proof)
	scratch, err := board.FromStones(geo, stones[board.Black], stones[board.White], loser)
	if err != nil {
		return proof, fmt.Errorf("shrink: %w", err)
	}
	filled := m.engine.Fillin(scratch, loser).And(scratch.EmptyCells())
	return proof.AndNot(filled), nil
}

// Stats returns how many proofs were shrunk and the total cells removed.
func (m *Manager) Stats() (shrinks, shrunk int) {
	return m.shrinks, m.shrunk
}
