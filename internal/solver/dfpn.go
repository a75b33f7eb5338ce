package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/connect"
	"github.com/hailam/hexsolver/internal/proof"
	"github.com/hailam/hexsolver/internal/resistance"
	"github.com/hailam/hexsolver/internal/store"
)

const infinity = store.Infinity

// DFPNOptions configure the DFPN solver.
type DFPNOptions struct {
	// Progressive widening: look at WideningBase + ceil(n*WideningFactor)
	// of the n live children.
	WideningBase   int
	WideningFactor float64
	// Epsilon widens the child delta threshold to delta2*(1+Epsilon).
	Epsilon float64
	// BoundsCorrection only sums the phi of children first reached from
	// this node, which limits double counting across transpositions.
	BoundsCorrection bool
	Logger           *slog.Logger
}

// DefaultDFPNOptions returns the usual settings.
func DefaultDFPNOptions() DFPNOptions {
	return DFPNOptions{WideningBase: 1, WideningFactor: 0.25}
}

// DFPN is a depth-first proof-number solver. It does not build proof sets;
// Result.Proof stays empty.
type DFPN struct {
	store     *store.Positions[store.DFPNRecord]
	newOracle OracleFactory
	opts      DFPNOptions
	logger    *slog.Logger
	resist    *resistance.Evaluator
	stopFlag  atomic.Bool

	// Per-search state
	oracle    connect.Oracle
	abort     aborter
	countdown int
	stats     Stats
	err       error
	log       *slog.Logger
}

var _ GameSolver = (*DFPN)(nil)

// NewDFPN creates a DFPN solver. A nil factory uses the reference oracle.
func NewDFPN(positions *store.Positions[store.DFPNRecord], factory OracleFactory, opts DFPNOptions) *DFPN {
	if factory == nil {
		factory = DefaultOracle
	}
	if opts.WideningBase < 1 {
		opts.WideningBase = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DFPN{
		store:     positions,
		newOracle: factory,
		opts:      opts,
		logger:    logger,
		resist:    resistance.New(),
	}
}

// Stop aborts the current search.
func (s *DFPN) Stop() {
	s.stopFlag.Store(true)
}

// Store returns the proof-number store.
func (s *DFPN) Store() *store.Positions[store.DFPNRecord] {
	return s.store
}

// Solve runs MID from the root with infinite thresholds until the root is
// solved or the search is aborted.
func (s *DFPN) Solve(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	s.stopFlag.Store(false)
	s.abort.reset(ctx, &s.stopFlag, limits)
	s.countdown = 0
	s.stats = Stats{}
	s.err = nil

	runID := uuid.New()
	s.log = s.logger.With("run", runID.String(), "algo", "dfpn")
	s.oracle = s.newOracle(pos.Copy())
	dbBefore := s.store.Stats().DB
	start := time.Now()

	work := s.oracle.Position()
	toPlay := work.ToPlay()
	res := Result{RunID: runID}

	rec, ok, err := s.store.Lookup(work)
	if err != nil {
		return res, fmt.Errorf("root lookup: %w", err)
	}
	if ok && rec.Bounds.IsSolved() {
		s.stats.TTHits++
		s.log.Info("already solved", "bounds", rec.Bounds)
	} else {
		var v Variation
		s.mid(store.Bounds{Phi: infinity, Delta: infinity}, &v)
		if s.err != nil {
			res.Duration = time.Since(start)
			res.Stats = s.stats
			return res, s.err
		}
		rec, ok, err = s.store.Lookup(work)
		if err != nil {
			return res, fmt.Errorf("root lookup: %w", err)
		}
	}

	res.Duration = time.Since(start)
	res.Stats = s.stats
	if ok && rec.Bounds.IsSolved() {
		res.Outcome, res.Winner = outcomeFor(rec.Bounds.IsWinning(), toPlay)
		res.PV = s.variationFromStore(work)
		res.MovesToConnection = len(res.PV)
		s.log.Info("solved", "winner", res.Winner, "states", s.stats.States,
			"mids", s.stats.MIDCalls, "elapsed", res.Duration)
	} else {
		s.log.Info("search aborted", "reason", s.abort.reason, "mids", s.stats.MIDCalls, "elapsed", res.Duration)
	}
	dbAfter := s.store.Stats().DB
	observe("dfpn", res, dbAfter.Gets-dbBefore.Gets, dbAfter.Writes-dbBefore.Writes)
	return res, nil
}

func (s *DFPN) variationFromStore(pos *board.Position) []board.Cell {
	work := pos.Copy()
	var pv []board.Cell
	for len(pv) < work.Geometry().Cells().Count() {
		rec, ok, err := s.store.Lookup(work)
		if err != nil || !ok || !rec.Bounds.IsSolved() || !work.IsEmpty(rec.BestMove) {
			break
		}
		pv = append(pv, rec.BestMove)
		work.Play(rec.BestMove)
	}
	return pv
}

// checkAbort polls the stop flag and context on every call and the clock
// every countdown calls.
func (s *DFPN) checkAbort() bool {
	clock := false
	if s.abort.tm.MaximumTime() > 0 {
		if s.countdown == 0 {
			clock = true
		} else {
			s.countdown--
		}
	}
	if s.abort.check(clock) {
		return true
	}
	if clock {
		if s.stats.MIDCalls < 100 {
			s.countdown = 10
		} else {
			perSec := float64(s.stats.MIDCalls) / s.abort.tm.Elapsed().Seconds()
			s.countdown = int(perSec / 2)
		}
	}
	return false
}

func (s *DFPN) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	s.abort.fire("store error")
}

// parentHash is the hash of the position the variation came from.
func parentHash(v *Variation) uint64 {
	if len(*v) == 0 {
		return 0
	}
	return (*v)[len(*v)-1].Hash
}

// child is the view of a child record inside MID.
type child struct {
	bounds      store.Bounds
	work        uint64
	maxProofSet board.Bitset
	parentHash  uint64
	found       bool
}

// mid expands the current position until its bounds reach thr. It returns
// the work done.
func (s *DFPN) mid(thr store.Bounds, v *Variation) uint64 {
	if s.abort.checkDepth(len(*v)) {
		return 0
	}
	o := s.oracle
	pos := o.Position()
	col := pos.ToPlay()
	hash := pos.Hash()

	var (
		children    []board.Cell
		maxProofSet board.Bitset
		prevWork    uint64
	)
	rec, ok, err := s.store.Lookup(pos)
	if err != nil {
		s.fail(err)
		return 0
	}
	if ok {
		s.stats.TTHits++
		// Terminal leaves carry no children; their bounds are final.
		if rec.Bounds.IsSolved() {
			return 0
		}
		children = append([]board.Cell(nil), rec.Children...)
		maxProofSet = rec.MaxProofSet
		prevWork = rec.Work
	} else {
		s.stats.States++
		maxProofSet = proof.MaximumProofSet(pos, col, o.Inferior(col).Dead)
		if win, _, terminalNode := terminal(o, col); terminalNode {
			s.stats.Terminal++
			s.stats.Histogram.Terminal[pos.NumStones()]++
			bounds := store.Losing()
			if win {
				bounds = store.Winning()
			}
			leaf := store.DFPNRecord{Bounds: bounds, BestMove: board.NoCell, Work: 1,
				MaxProofSet: maxProofSet, ParentHash: parentHash(v)}
			if err := s.store.Put(pos, leaf); err != nil {
				s.fail(err)
			}
			return 1
		}
		s.stats.Internal++
		s.stats.Histogram.Internal[pos.NumStones()]++
		children = s.sortedChildren(col)
		s.stats.MovesConsidered += uint64(len(children))
	}

	s.stats.MIDCalls++
	localWork := uint64(1)

	data := make([]child, len(children))
	for i, c := range children {
		data[i] = s.lookupChild(c, hash)
	}
	maxIndex := s.maxChildIndex(data)

	bestMove := board.NoCell
	var bounds store.Bounds
	for {
		bounds = s.updateBounds(data, maxIndex, hash)
		if thr.Phi <= bounds.Phi || thr.Delta <= bounds.Delta {
			break
		}

		best, delta2 := selectChild(data, maxIndex)
		bestMove = children[best]
		cb := data[best].bounds
		childThr := store.Bounds{
			Phi:   uint32(uint64(thr.Delta) - (uint64(bounds.Delta) - uint64(cb.Phi))),
			Delta: uint32(min(uint64(thr.Phi), s.widen(delta2))),
		}

		v.Push(bestMove, hash)
		o.Play(bestMove)
		localWork += s.mid(childThr, v)
		o.Undo()
		v.Pop()
		if s.abort.aborted {
			break
		}
		data[best] = s.lookupChild(bestMove, hash)
		if data[best].bounds.IsWinning() {
			maxIndex = s.maxChildIndex(data)
		}

		// Siblings outside the child's maximum proof set cannot interfere
		// with its proof. The record may have been evicted from the table.
		var prune board.Bitset
		for _, c := range children {
			if data[best].found && c != bestMove && !data[best].maxProofSet.Has(c) {
				prune = prune.Set(c)
			}
		}
		if prune.Any() {
			s.stats.SiblingPrune += uint64(prune.Count())
			children, data = deleteChildren(children, data, prune)
			maxIndex = s.maxChildIndex(data)
		}

		if s.checkAbort() {
			break
		}
	}
	if s.err != nil {
		return localWork
	}

	switch {
	case bounds.IsLosing():
		var maxWork uint64
		for i, d := range data {
			if d.work > maxWork {
				maxWork, bestMove = d.work, children[i]
			}
		}
	case bounds.IsWinning():
		minWork := uint64(math.MaxUint64)
		for i, d := range data {
			if d.bounds.IsLosing() && d.work < minWork {
				minWork, bestMove = d.work, children[i]
			}
		}
	}
	if bounds.IsSolved() && len(*v) == 0 {
		s.log.Debug("root solved", "bounds", bounds, "best", bestMove)
	}
	if bounds.IsWinning() {
		s.stats.Histogram.Winning[pos.NumStones()]++
	}

	out := store.DFPNRecord{
		Bounds:      bounds,
		Children:    children,
		BestMove:    bestMove,
		Work:        prevWork + localWork,
		MaxProofSet: maxProofSet,
		ParentHash:  parentHash(v),
	}
	if err := s.store.Put(pos, out); err != nil {
		s.fail(err)
	}
	return localWork
}

// sortedChildren returns the consider set ordered by decreasing circuit
// score.
func (s *DFPN) sortedChildren(col board.Color) []board.Cell {
	pos := s.oracle.Position()
	consider, _ := considerSet(s.oracle, col)
	cells := consider.Cells()
	result, err := s.resist.Evaluate(pos)
	if err != nil {
		s.log.Debug("resistance evaluation failed", "position", pos.Notation(), "error", err)
		return cells
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return result.CellScore(cells[i]) > result.CellScore(cells[j])
	})
	return cells
}

// lookupChild reads the record of the position after c. Unknown children
// count as (1, 1) and as reached from here.
func (s *DFPN) lookupChild(c board.Cell, hash uint64) child {
	s.oracle.Play(c)
	rec, ok, err := s.store.Lookup(s.oracle.Position())
	s.oracle.Undo()
	if err != nil {
		s.fail(err)
	}
	if !ok {
		return child{bounds: store.Bounds{Phi: 1, Delta: 1}, parentHash: hash}
	}
	return child{bounds: rec.Bounds, work: rec.Work, maxProofSet: rec.MaxProofSet, parentHash: rec.ParentHash, found: true}
}

// maxChildIndex is the number of leading children open to selection.
func (s *DFPN) maxChildIndex(data []child) int {
	live := 0
	for _, d := range data {
		if !d.bounds.IsWinning() {
			live++
		}
	}
	if live < 2 {
		return len(data)
	}
	look := s.opts.WideningBase + int(math.Ceil(float64(live)*s.opts.WideningFactor))
	look = max(look, 2)
	seen := 0
	for i, d := range data {
		if !d.bounds.IsWinning() {
			seen++
			if seen == look {
				return i + 1
			}
		}
	}
	return len(data)
}

// updateBounds computes the node bounds from its first n children.
func (s *DFPN) updateBounds(data []child, n int, hash uint64) store.Bounds {
	phi, delta := uint64(infinity), uint64(0)
	for _, d := range data[:n] {
		if d.bounds.IsLosing() {
			return store.Winning()
		}
		phi = min(phi, uint64(d.bounds.Delta))
		if s.opts.BoundsCorrection && d.parentHash != hash {
			delta = max(delta, uint64(d.bounds.Phi))
		} else {
			delta += uint64(d.bounds.Phi)
		}
	}
	if phi == 0 {
		return store.Winning()
	}
	return store.Bounds{Phi: uint32(phi), Delta: uint32(min(delta, infinity))}
}

// widen returns the child delta threshold for a second best delta.
func (s *DFPN) widen(delta2 uint64) uint64 {
	t := delta2 + 1
	if s.opts.Epsilon > 0 {
		t = max(t, uint64(math.Ceil(float64(delta2)*(1+s.opts.Epsilon))))
	}
	return t
}

// selectChild returns the child with the smallest delta among the first n
// and the second smallest delta.
func selectChild(data []child, n int) (best int, delta2 uint64) {
	delta1 := uint64(infinity)
	delta2 = infinity
	best = -1
	for i, d := range data[:n] {
		delta := uint64(d.bounds.Delta)
		if delta < delta1 {
			delta2, delta1, best = delta1, delta, i
		} else if delta < delta2 {
			delta2 = delta
		}
		if d.bounds.IsLosing() {
			break
		}
	}
	return best, delta2
}

func deleteChildren(children []board.Cell, data []child, prune board.Bitset) ([]board.Cell, []child) {
	keptCells := children[:0]
	keptData := data[:0]
	for i, c := range children {
		if !prune.Has(c) {
			keptCells = append(keptCells, c)
			keptData = append(keptData, data[i])
		}
	}
	return keptCells, keptData
}
