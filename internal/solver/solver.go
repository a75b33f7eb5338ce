// Package solver proves Hex positions.
//
// DFS is a mustplay-driven depth-first search that carries a proof set up
// the tree; DFPN is a depth-first proof-number search. Both read
// connectivity from a connect.Oracle and cache solved positions in a
// store.Positions.
package solver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/connect"
)

// Outcome is the verdict for the side to move.
type Outcome int

const (
	Unknown Outcome = iota
	Win
	Loss
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	}
	return "unknown"
}

// Limits bounds one Solve call. Zero values mean no limit.
type Limits struct {
	Time  time.Duration
	Depth int
}

// Result is the answer of a Solve call.
type Result struct {
	RunID   uuid.UUID
	Outcome Outcome
	// Winner is only meaningful when Outcome is Win or Loss.
	Winner board.Color
	Proof  board.Bitset
	PV     []board.Cell
	// MovesToConnection is the length of the longest forced line.
	MovesToConnection int
	Duration          time.Duration
	Stats             Stats
}

// Solved reports whether the search reached a verdict.
func (r Result) Solved() bool { return r.Outcome != Unknown }

// GameSolver is implemented by DFS and DFPN.
type GameSolver interface {
	Solve(ctx context.Context, pos *board.Position, limits Limits) (Result, error)
	// Stop aborts a running Solve from another goroutine.
	Stop()
}

// OracleFactory creates the connectivity oracle a solver works with. The
// oracle owns pos for the duration of the search.
type OracleFactory func(pos *board.Position) connect.Oracle

// DefaultOracle returns the reference group oracle.
func DefaultOracle(pos *board.Position) connect.Oracle {
	return connect.New(pos)
}

// Move is one step of a variation.
type Move struct {
	Cell board.Cell
	Hash uint64 // position hash before the move
}

// Variation is the line from the root to the current node.
type Variation []Move

// Push appends a move.
func (v *Variation) Push(c board.Cell, hash uint64) {
	*v = append(*v, Move{Cell: c, Hash: hash})
}

// Pop removes the last move.
func (v *Variation) Pop() {
	*v = (*v)[:len(*v)-1]
}

// Cells returns the moves without hashes.
func (v Variation) Cells() []board.Cell {
	cells := make([]board.Cell, len(v))
	for i, m := range v {
		cells[i] = m.Cell
	}
	return cells
}

// outcomeFor converts a win flag for toPlay into a verdict and winner.
func outcomeFor(win bool, toPlay board.Color) (Outcome, board.Color) {
	if win {
		return Win, toPlay
	}
	return Loss, toPlay.Other()
}
