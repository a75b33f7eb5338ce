package solver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/store"
)

func newTestDFPN(opts DFPNOptions) *DFPN {
	opts.Logger = quiet
	positions := store.NewDFPNPositions(store.NewTable[store.DFPNRecord](16), nil,
		store.Settings{})
	return NewDFPN(positions, nil, opts)
}

func TestDFPNMatchesDFS(t *testing.T) {
	for _, notation := range []string{
		"1 b",
		"2/2 b",
		"2/2 w",
		"3/3/3 b",
		"3/3/3 w",
		"1B1/3/3 w",
		"3/1W1/3 b",
		"2W2/1WW1B/2W2 b",
		"1W1/1W1/1W1 b",
	} {
		t.Run(notation, func(t *testing.T) {
			dfs := solve(t, newTestDFS(nil, testOptions()), notation)
			dfpn := solve(t, newTestDFPN(DefaultDFPNOptions()), notation)
			assert.Equal(t, dfs.Winner, dfpn.Winner)
			assert.True(t, dfpn.Proof.None())
		})
	}
}

// fewStonePositions lists the empty board with Black to move, every
// single Black stone with White to move, and every Black and White pair
// with Black to move.
func fewStonePositions(t *testing.T, width, height int) []*board.Position {
	t.Helper()
	geo := board.MustGeometry(width, height)
	all := geo.Cells().Cells()

	var out []*board.Position
	add := func(black, white board.Bitset, toPlay board.Color) {
		pos, err := board.FromStones(geo, black, white, toPlay)
		require.NoError(t, err)
		out = append(out, pos)
	}
	add(board.Bitset{}, board.Bitset{}, board.Black)
	for _, b := range all {
		add(board.NewBitset(b), board.Bitset{}, board.White)
	}
	for _, b := range all {
		for _, w := range all {
			if w != b {
				add(board.NewBitset(b), board.NewBitset(w), board.Black)
			}
		}
	}
	return out
}

func TestDFPNMatchesDFSFewStones(t *testing.T) {
	// Table size used by a default hexsolve run.
	const defaultBits = 20
	tests := []struct {
		width, height int
		bits          uint
		count         int
		long          bool
	}{
		// Tiny tables force unrelated positions to share slots.
		{3, 3, 6, 1 + 9 + 72, false},
		{3, 4, 10, 1 + 12 + 132, true},
		{3, 4, defaultBits, 1 + 12 + 132, true},
		{4, 3, defaultBits, 1 + 12 + 132, true},
		{4, 4, defaultBits, 1 + 16 + 240, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d/bits=%d", tt.width, tt.height, tt.bits), func(t *testing.T) {
			if tt.long && testing.Short() {
				t.Skip("long sweep")
			}
			positions := fewStonePositions(t, tt.width, tt.height)
			require.Len(t, positions, tt.count)

			dfs := newTestDFS(nil, testOptions())
			opts := DefaultDFPNOptions()
			opts.Logger = quiet
			dfpn := NewDFPN(store.NewDFPNPositions(store.NewTable[store.DFPNRecord](tt.bits), nil,
				store.Settings{}), nil, opts)

			ctx := context.Background()
			for _, pos := range positions {
				want, err := dfs.Solve(ctx, pos.Copy(), Limits{})
				require.NoError(t, err)
				require.True(t, want.Solved(), "dfs gave no verdict for %s", pos.Notation())

				got, err := dfpn.Solve(ctx, pos.Copy(), Limits{})
				require.NoError(t, err)
				require.True(t, got.Solved(), "dfpn gave no verdict for %s", pos.Notation())
				require.Equal(t, want.Winner, got.Winner, pos.Notation())
			}
		})
	}
}

func TestDFPNKeepsSolvedLeaf(t *testing.T) {
	tests := []struct {
		name   string
		bounds store.Bounds
	}{
		{"winning", store.Winning()},
		{"losing", store.Losing()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestDFPN(DefaultDFPNOptions())
			s.abort.reset(context.Background(), &s.stopFlag, Limits{})
			s.log = quiet

			// A position far from terminal, recorded as a finished leaf.
			pos := board.MustParsePosition("3/3/3 b")
			leaf := store.DFPNRecord{Bounds: tt.bounds, BestMove: board.NoCell, Work: 1}
			require.NoError(t, s.store.Put(pos, leaf))
			s.oracle = s.newOracle(pos.Copy())

			var v Variation
			work := s.mid(store.Bounds{Phi: infinity, Delta: infinity}, &v)
			assert.Zero(t, work)
			assert.Zero(t, s.stats.MIDCalls)

			rec, ok, err := s.store.Lookup(pos)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.bounds, rec.Bounds)
			assert.Empty(t, rec.Children)
		})
	}
}

func TestDFPNBoundsCorrection(t *testing.T) {
	opts := DefaultDFPNOptions()
	opts.BoundsCorrection = true
	opts.Epsilon = 0.25
	for _, notation := range []string{"3/3/3 b", "3/1W1/3 b"} {
		plain := solve(t, newTestDFPN(DefaultDFPNOptions()), notation)
		corrected := solve(t, newTestDFPN(opts), notation)
		assert.Equal(t, plain.Winner, corrected.Winner, notation)
	}
}

func TestDFPNPrincipalVariation(t *testing.T) {
	res := solve(t, newTestDFPN(DefaultDFPNOptions()), "2/2 b")
	assert.Equal(t, Win, res.Outcome)
	require.NotEmpty(t, res.PV)

	// b1 and a2 are the two bridges to both edges.
	pos := board.MustParsePosition("2/2 b")
	assert.True(t, pos.IsEmpty(res.PV[0]))
	assert.Contains(t, cellList(t, "b1", "a2"), res.PV[0])
	assert.NotZero(t, res.Stats.MIDCalls)
	assert.Equal(t, len(res.PV), res.MovesToConnection)
}

func TestDFPNReusesSolvedRoot(t *testing.T) {
	dfpn := newTestDFPN(DefaultDFPNOptions())
	first := solve(t, dfpn, "3/3/3 b")
	second := solve(t, dfpn, "3/3/3 b")

	assert.Equal(t, first.Winner, second.Winner)
	assert.Zero(t, second.Stats.MIDCalls)
	assert.Equal(t, uint64(1), second.Stats.TTHits)
	assert.Equal(t, first.PV, second.PV)
}

func TestDFPNCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := newTestDFPN(DefaultDFPNOptions()).Solve(ctx, board.MustParsePosition("3/3/3 b"), Limits{})
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Outcome)
}

func TestUpdateBounds(t *testing.T) {
	s := newTestDFPN(DefaultDFPNOptions())
	const here = 7
	open := func(phi, delta uint32) child {
		return child{bounds: store.Bounds{Phi: phi, Delta: delta}, parentHash: here}
	}

	tests := []struct {
		name string
		data []child
		n    int
		want store.Bounds
	}{
		{"sum and min", []child{open(2, 3), open(1, 1)}, 2, store.Bounds{Phi: 1, Delta: 3}},
		{"winning move", []child{open(2, 3), {bounds: store.Losing()}}, 2, store.Winning()},
		{"all refuted", []child{{bounds: store.Winning()}, {bounds: store.Winning()}}, 2, store.Losing()},
		{"widening hides", []child{open(2, 3), {bounds: store.Losing()}}, 1, store.Bounds{Phi: 3, Delta: 2}},
		{"no children", nil, 0, store.Losing()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.updateBounds(tt.data, tt.n, here))
		})
	}

	t.Run("bounds correction", func(t *testing.T) {
		c := newTestDFPN(DFPNOptions{BoundsCorrection: true})
		data := []child{open(2, 3), {bounds: store.Bounds{Phi: 5, Delta: 4}, parentHash: here + 1}}
		assert.Equal(t, store.Bounds{Phi: 3, Delta: 5}, c.updateBounds(data, 2, here))
		assert.Equal(t, store.Bounds{Phi: 3, Delta: 7}, s.updateBounds(data, 2, here))
	})
}

func TestSelectChild(t *testing.T) {
	data := []child{
		{bounds: store.Bounds{Phi: 1, Delta: 5}},
		{bounds: store.Bounds{Phi: 1, Delta: 2}},
		{bounds: store.Bounds{Phi: 1, Delta: 7}},
	}
	best, delta2 := selectChild(data, 3)
	assert.Equal(t, 1, best)
	assert.Equal(t, uint64(5), delta2)

	best, delta2 = selectChild(data[:1], 1)
	assert.Equal(t, 0, best)
	assert.Equal(t, uint64(infinity), delta2)
}

func TestMaxChildIndex(t *testing.T) {
	s := newTestDFPN(DefaultDFPNOptions())
	live := child{bounds: store.Bounds{Phi: 1, Delta: 1}}
	won := child{bounds: store.Winning()}

	data := make([]child, 8)
	for i := range data {
		data[i] = live
	}
	// 1 + ceil(8 * 0.25) = 3
	assert.Equal(t, 3, s.maxChildIndex(data))

	data[1] = won
	// 7 live: 1 + ceil(1.75) = 3, the third live child is at index 3
	assert.Equal(t, 4, s.maxChildIndex(data))

	assert.Equal(t, 2, s.maxChildIndex([]child{won, live}))
	assert.Equal(t, 0, s.maxChildIndex(nil))
}

func TestWiden(t *testing.T) {
	s := newTestDFPN(DefaultDFPNOptions())
	assert.Equal(t, uint64(11), s.widen(10))

	e := newTestDFPN(DFPNOptions{Epsilon: 0.5})
	assert.Equal(t, uint64(15), e.widen(10))
	assert.Equal(t, uint64(2), e.widen(1))
}
