// Package connect answers connectivity questions about Hex positions.
//
// The solver only depends on the Oracle interface. GroupOracle is a
// reference implementation built on stone groups: it recognises solid
// chains, single-cell completions and double threats, dead cells, and
// groups that cut the board in two.
package connect

import "github.com/hailam/hexsolver/internal/board"

// Oracle is the connectivity service consumed by the solvers. It wraps a
// working position; Play, PlayStones and Undo must be called in LIFO order.
type Oracle interface {
	// Position returns the working position. Callers must not mutate it
	// directly.
	Position() *board.Position
	Play(c board.Cell)
	PlayStones(col board.Color, cells board.Bitset)
	Undo()

	// WinningConnection reports whether col, to move, already wins. The
	// carrier is the smallest set of empty cells needed to do so.
	WinningConnection(col board.Color) (board.Bitset, bool)
	// LosingConnection reports whether col, to move, already loses
	// because the opponent holds a connection that survives any move.
	LosingConnection(col board.Color) (board.Bitset, bool)
	// Mustplay returns the cells col has to play in to stop an immediate
	// opponent win.
	Mustplay(col board.Color) board.Bitset
	// SemiCarriers returns the union of col's winning semi connection
	// carriers.
	SemiCarriers(col board.Color) board.Bitset
	// Inferior returns the inferior cells for col to move.
	Inferior(col board.Color) InferiorCells
	// Fillin returns the cells of pos that can be given to col without
	// changing the outcome.
	Fillin(pos *board.Position, col board.Color) board.Bitset
	// SplittingGroup returns a group of col that touches both of the
	// opponent's edges.
	SplittingGroup(col board.Color) (board.Bitset, bool)
}

// InferiorCells classifies empty cells that need not be considered.
type InferiorCells struct {
	Dead     board.Bitset
	Captured [2]board.Bitset

	Dominated  board.Bitset
	Reversible board.Bitset
	Vulnerable board.Bitset

	// Witness holds, per pruned dominated, reversible or vulnerable cell,
	// the cells its killer, reverser or dominator relies on.
	Witness map[board.Cell]board.Bitset
}

// Fillin returns the dead cells plus the cells captured by col.
func (ic InferiorCells) Fillin(col board.Color) board.Bitset {
	return ic.Dead.Or(ic.Captured[col])
}

// Prunable returns the dominated, reversible and vulnerable cells.
func (ic InferiorCells) Prunable() board.Bitset {
	return ic.Dominated.Or(ic.Reversible).Or(ic.Vulnerable)
}
