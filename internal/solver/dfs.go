package solver

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/connect"
	"github.com/hailam/hexsolver/internal/proof"
	"github.com/hailam/hexsolver/internal/resistance"
	"github.com/hailam/hexsolver/internal/store"
)

// DFSOptions configure the DFS solver.
type DFSOptions struct {
	UseDecompositions bool
	ShrinkProofs      bool
	// BackupIce recomputes the consider set after move ordering. It only
	// narrows the set for oracles whose inferior-cell analysis can change
	// between calls on the same position; with GroupOracle it does nothing
	// but repeat the work, so it is off by default.
	BackupIce bool
	Ordering  OrderFlags
	// MaxTranspositions caps the proof transpositions stored per state.
	MaxTranspositions int
	Logger            *slog.Logger
}

// DefaultDFSOptions returns the usual settings.
func DefaultDFSOptions() DFSOptions {
	return DFSOptions{
		UseDecompositions: true,
		ShrinkProofs:      true,
		BackupIce:         false,
		Ordering:          WithMustplay | WithResist,
		MaxTranspositions: 1000,
	}
}

// solution is what a search node hands back to its parent.
type solution struct {
	proof board.Bitset
	pv    []board.Cell
	moves int // moves to connection, -1 until set
}

func (s *solution) setPV(c board.Cell, child []board.Cell) {
	s.pv = append([]board.Cell{c}, child...)
}

// DFS is the proof-carrying depth-first solver.
type DFS struct {
	store     *store.Positions[store.DFSRecord]
	newOracle OracleFactory
	opts      DFSOptions
	logger    *slog.Logger
	resist    *resistance.Evaluator
	stopFlag  atomic.Bool

	// Per-search state
	oracle  connect.Oracle
	manager *proof.Manager
	abort   aborter
	stats   Stats
	err     error
	log     *slog.Logger
}

var _ GameSolver = (*DFS)(nil)

// NewDFS creates a DFS solver. A nil factory uses the reference oracle.
func NewDFS(positions *store.Positions[store.DFSRecord], factory OracleFactory, opts DFSOptions) *DFS {
	if factory == nil {
		factory = DefaultOracle
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DFS{
		store:     positions,
		newOracle: factory,
		opts:      opts,
		logger:    logger,
		resist:    resistance.New(),
	}
}

// Stop aborts the current search.
func (s *DFS) Stop() {
	s.stopFlag.Store(true)
}

// Store returns the solved-position store.
func (s *DFS) Store() *store.Positions[store.DFSRecord] {
	return s.store
}

// Solve proves pos for the side to move. An aborted search returns an
// Unknown outcome and no error; store failures are returned as errors.
func (s *DFS) Solve(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	s.stopFlag.Store(false)
	s.abort.reset(ctx, &s.stopFlag, limits)
	s.stats = Stats{}
	s.err = nil

	runID := uuid.New()
	s.log = s.logger.With("run", runID.String(), "algo", "dfs")
	s.oracle = s.newOracle(pos.Copy())
	s.manager = proof.NewManager(s.oracle)
	dbBefore := s.store.Stats().DB
	start := time.Now()

	work := s.oracle.Position()
	toPlay := work.ToPlay()
	res := Result{RunID: runID}

	var sol solution
	var win bool
	rec, ok, err := s.store.Lookup(work)
	switch {
	case err != nil:
		return res, fmt.Errorf("root lookup: %w", err)
	case ok:
		s.stats.TTHits++
		win = rec.Win
		_, winner := outcomeFor(win, toPlay)
		sol.proof = proof.MaximumProofSet(work, winner, s.oracle.Inferior(toPlay).Dead)
		sol.moves = rec.NumMoves
		sol.pv = s.variationFromStore(work)
		s.log.Info("found cached result", "win", win)
	default:
		var v Variation
		win = s.solveState(&v, &sol)
	}

	res.Duration = time.Since(start)
	res.Stats = s.stats
	if s.err != nil {
		return res, s.err
	}
	if s.abort.aborted {
		s.log.Info("search aborted", "reason", s.abort.reason, "states", s.stats.States, "elapsed", res.Duration)
	} else {
		res.Outcome, res.Winner = outcomeFor(win, toPlay)
		res.Proof = sol.proof
		res.PV = sol.pv
		res.MovesToConnection = sol.moves
		s.log.Info("solved", "winner", res.Winner, "moves", res.MovesToConnection,
			"states", s.stats.States, "elapsed", res.Duration)
	}
	shrinks, removed := s.manager.Stats()
	res.Stats.Shrunk, res.Stats.CellsRemoved = uint64(shrinks), uint64(removed)
	dbAfter := s.store.Stats().DB
	observe("dfs", res, dbAfter.Gets-dbBefore.Gets, dbAfter.Writes-dbBefore.Writes)
	return res, nil
}

// variationFromStore follows stored best moves from pos.
func (s *DFS) variationFromStore(pos *board.Position) []board.Cell {
	work := pos.Copy()
	var pv []board.Cell
	for len(pv) < work.Geometry().Cells().Count() {
		rec, ok, err := s.store.Lookup(work)
		if err != nil || !ok || !work.IsEmpty(rec.BestMove) {
			break
		}
		pv = append(pv, rec.BestMove)
		work.Play(rec.BestMove)
	}
	return pv
}

// fail records a store error and aborts the search.
func (s *DFS) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	s.abort.fire("store error")
}

// solveState solves the current position of the oracle.
func (s *DFS) solveState(v *Variation, sol *solution) bool {
	if s.abort.check(true) || s.abort.checkDepth(len(*v)) {
		return false
	}
	o := s.oracle
	pos := o.Position()
	col := pos.ToPlay()
	stones := pos.NumStones()
	s.stats.States++
	before := s.stats.States

	if win, p, ok := terminal(o, col); ok {
		s.stats.Terminal++
		s.stats.Histogram.Terminal[stones]++
		sol.proof, sol.pv, sol.moves = p, nil, 0
		return win
	}

	rec, ok, err := s.store.Lookup(pos)
	if err != nil {
		s.fail(err)
		return false
	}
	if ok {
		s.stats.TTHits++
		_, winner := outcomeFor(rec.Win, col)
		sol.proof = proof.MaximumProofSet(pos, winner, o.Inferior(col).Dead)
		sol.pv, sol.moves = nil, rec.NumMoves
		return rec.Win
	}

	win, handled := false, false
	if s.opts.UseDecompositions {
		if group, split := o.SplittingGroup(col.Other()); split {
			win, handled = s.solveDecomposition(v, sol, group)
		}
	}
	if !handled {
		win = s.solveInterior(v, sol)
	}
	s.handleProof(v, win, sol, s.stats.States-before+1)
	return win
}

// solveInterior expands the consider set of the current position.
func (s *DFS) solveInterior(v *Variation, sol *solution) bool {
	o := s.oracle
	pos := o.Position()
	col := pos.ToPlay()
	stones := pos.NumStones()

	consider, initial := considerSet(o, col)
	sol.proof = initial
	sol.pv = nil
	s.stats.Internal++
	s.stats.Histogram.Internal[stones]++
	s.stats.MovesConsidered += uint64(consider.Count())

	if consider.None() {
		sol.proof = initial.Or(pos.EmptyCells()).AndNot(o.Inferior(col).Dead)
		sol.moves = 0
		return false
	}

	sol.moves = -1
	moves, win := s.orderMoves(col, &consider, sol)
	if win {
		s.stats.Histogram.Winning[stones]++
		return true
	}
	if s.abort.aborted {
		return false
	}

	for i, c := range moves {
		if !consider.Has(c) {
			s.stats.Pruned++
			continue
		}
		var child solution
		v.Push(c, pos.Hash())
		o.Play(c)
		s.stats.Expanded++
		childWin := s.solveState(v, &child)
		o.Undo()
		v.Pop()
		if s.abort.check(false) {
			return false
		}
		if len(*v) == 0 {
			s.log.Debug("root move solved", "cell", c, "win", !childWin, "moves", child.moves+1)
		}

		if !childWin {
			sol.proof = child.proof
			sol.setPV(c, child.pv)
			sol.moves = child.moves + 1
			s.stats.WinningExpanded++
			s.stats.BranchesToWin += uint64(i + 1)
			s.stats.Histogram.Winning[stones]++
			return true
		}
		consider = consider.And(child.proof)
		sol.proof = sol.proof.Or(child.proof)
		if child.moves+1 > sol.moves {
			sol.moves = child.moves + 1
			sol.setPV(c, child.pv)
		}
	}

	if pos.IsSelfRotation() {
		// Rotated moves were skipped; their refutations are the rotated
		// proofs.
		sol.proof = sol.proof.Or(pos.Geometry().RotateSet(sol.proof))
	}
	return false
}

// handleProof verifies, shrinks and stores a resolved node. It panics with
// a *proof.InvariantError when the node breaks a proof invariant.
func (s *DFS) handleProof(v *Variation, win bool, sol *solution, states uint64) {
	if s.abort.aborted {
		return
	}
	o := s.oracle
	pos := o.Position()
	col := pos.ToPlay()
	_, winner := outcomeFor(win, col)
	loser := winner.Other()
	dead := o.Inferior(col).Dead

	if err := proof.Verify(pos.Geometry(), sol.proof, winner, pos.Stones(loser), dead); err != nil {
		s.invariant(v, err)
	}
	if sol.moves < 0 {
		s.invariant(v, fmt.Errorf("moves to connection never set"))
	}
	if s.opts.ShrinkProofs {
		shrunk, err := s.manager.Shrink(pos, sol.proof, loser)
		if err != nil {
			s.invariant(v, err)
		}
		sol.proof = shrunk
	}

	best := board.NoCell
	if len(sol.pv) > 0 {
		best = sol.pv[0]
	}
	rec := store.DFSRecord{Win: win, NumMoves: sol.moves, BestMove: best, NumStates: states}
	if err := s.storeState(pos, rec, sol.proof, winner); err != nil {
		s.fail(fmt.Errorf("store state: %w", err))
	}
}

func (s *DFS) invariant(v *Variation, err error) {
	pos := s.oracle.Position()
	panic(&proof.InvariantError{
		Position: fmt.Sprintf("%s after %s", pos.Notation(), board.FormatCells(v.Cells())),
		Err:      err,
	})
}

// storeState writes the record, and for small states the proof
// transpositions of the position and of its flipped image.
func (s *DFS) storeState(pos *board.Position, rec store.DFSRecord, p board.Bitset, winner board.Color) error {
	if err := s.store.Store(pos, rec); err != nil {
		return err
	}
	limit := s.opts.MaxTranspositions
	if limit <= 0 || pos.NumStones() > s.store.TransStones() {
		return nil
	}
	trans := rec
	if !rec.Win {
		// The loser's reply may sit on a moved stone.
		trans.BestMove = board.NoCell
	}
	if err := s.store.StoreTranspositions(proof.Transpositions(pos, p, winner, limit), trans); err != nil {
		return err
	}
	if f, fp, ok := proof.Flip(pos, p); ok {
		flipped := trans.Transform(pos.Geometry().Mirror)
		return s.store.StoreTranspositions(proof.Transpositions(f, fp, winner.Other(), limit), flipped)
	}
	return nil
}
