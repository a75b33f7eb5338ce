package connect

import "github.com/hailam/hexsolver/internal/board"

// analysis is everything GroupOracle derives from one position.
type analysis struct {
	hash      uint64
	groups    *groups
	winning   [2]board.Bitset // empty cells that complete a connection
	connected [2]bool
	dead      board.Bitset
}

// GroupOracle is the reference Oracle. Results are cached per position
// hash until the position changes.
type GroupOracle struct {
	pos   *board.Position
	cache *analysis
}

var _ Oracle = (*GroupOracle)(nil)

// New returns an oracle working on pos. The oracle takes ownership of pos.
func New(pos *board.Position) *GroupOracle {
	return &GroupOracle{pos: pos}
}

// Position returns the working position.
func (o *GroupOracle) Position() *board.Position { return o.pos }

// Play plays c for the side to move.
func (o *GroupOracle) Play(c board.Cell) { o.pos.Play(c) }

// PlayStones fills cells with col as one action.
func (o *GroupOracle) PlayStones(col board.Color, cells board.Bitset) { o.pos.PlayStones(col, cells) }

// Undo takes back the last action.
func (o *GroupOracle) Undo() { o.pos.Undo() }

func (o *GroupOracle) analyze() *analysis {
	if o.cache != nil && o.cache.hash == o.pos.Hash() {
		return o.cache
	}
	o.cache = analyze(o.pos)
	return o.cache
}

func analyze(pos *board.Position) *analysis {
	a := &analysis{hash: pos.Hash(), groups: newGroups(pos)}
	geo := pos.Geometry()
	for col := board.Black; col <= board.White; col++ {
		a.connected[col] = a.groups.connected(col)
	}
	e := [2][2]board.Cell{}
	e[board.Black][0], e[board.Black][1] = board.Black.Edges()
	e[board.White][0], e[board.White][1] = board.White.Edges()

	empty := pos.EmptyCells()
	for cells := empty; cells.Any(); {
		c := cells.PopFirst()
		for col := board.Black; col <= board.White; col++ {
			if a.connected[col] {
				continue
			}
			r1, r2 := a.groups.find(e[col][0]), a.groups.find(e[col][1])
			var touches1, touches2 bool
			for _, r := range a.groups.adjacentRoots(pos, c, col) {
				touches1 = touches1 || r == r1
				touches2 = touches2 || r == r2
			}
			if touches1 && touches2 {
				a.winning[col] = a.winning[col].Set(c)
			}
		}
		if geo.Neighbors(c).Intersects(empty) {
			continue
		}
		if len(a.groups.adjacentRoots(pos, c, board.Black)) <= 1 &&
			len(a.groups.adjacentRoots(pos, c, board.White)) <= 1 {
			a.dead = a.dead.Set(c)
		}
	}
	return a
}

// WinningConnection reports an immediate win for col to move: a solid
// chain, or a single empty cell that completes one.
func (o *GroupOracle) WinningConnection(col board.Color) (board.Bitset, bool) {
	a := o.analyze()
	if a.connected[col] {
		return board.Bitset{}, true
	}
	if w := a.winning[col]; w.Any() {
		return board.NewBitset(w.First()), true
	}
	return board.Bitset{}, false
}

// LosingConnection reports an immediate loss for col to move: the opponent
// is connected or has two disjoint single-cell completions.
func (o *GroupOracle) LosingConnection(col board.Color) (board.Bitset, bool) {
	a := o.analyze()
	opp := col.Other()
	if a.connected[opp] {
		return board.Bitset{}, true
	}
	if w := a.winning[opp]; w.Count() >= 2 {
		first := w.PopFirst()
		return board.NewBitset(first, w.First()), true
	}
	return board.Bitset{}, false
}

// Mustplay returns the opponent's single winning cell, all empty cells when
// the opponent has none, and nothing when the game is already decided.
func (o *GroupOracle) Mustplay(col board.Color) board.Bitset {
	a := o.analyze()
	opp := col.Other()
	switch {
	case a.connected[opp]:
		return board.Bitset{}
	case a.winning[opp].Count() == 1:
		return a.winning[opp]
	case a.winning[opp].Count() > 1:
		return board.Bitset{}
	}
	return o.pos.EmptyCells()
}

// SemiCarriers returns every single-cell completion of col.
func (o *GroupOracle) SemiCarriers(col board.Color) board.Bitset {
	return o.analyze().winning[col]
}

// Inferior returns the dead cells. The reference oracle finds no captured,
// dominated, reversible or vulnerable cells.
func (o *GroupOracle) Inferior(col board.Color) InferiorCells {
	return InferiorCells{Dead: o.analyze().dead}
}

// Fillin returns the dead cells of pos.
func (o *GroupOracle) Fillin(pos *board.Position, col board.Color) board.Bitset {
	return analyze(pos).dead
}

// SplittingGroup returns a group of col, not joined to col's own edges,
// that touches both of the opponent's edges.
func (o *GroupOracle) SplittingGroup(col board.Color) (board.Bitset, bool) {
	a := o.analyze()
	geo := o.pos.Geometry()
	own1, own2 := col.Edges()
	opp1, opp2 := col.Other().Edges()
	root1, root2 := a.groups.find(own1), a.groups.find(own2)

	var seen board.Bitset
	for s := o.pos.Stones(col); s.Any(); {
		c := s.PopFirst()
		r := a.groups.find(c)
		if seen.Has(r) || r == root1 || r == root2 {
			continue
		}
		seen = seen.Set(r)
		members := a.groups.members(o.pos, c)
		var touch board.Bitset
		for m := members; m.Any(); {
			touch = touch.Or(geo.Neighbors(m.PopFirst()))
		}
		if touch.Has(opp1) && touch.Has(opp2) {
			return members, true
		}
	}
	return board.Bitset{}, false
}
