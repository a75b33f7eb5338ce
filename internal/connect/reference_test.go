package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/hexsolver/internal/board"
)

func cell(t *testing.T, s string) board.Cell {
	t.Helper()
	c, err := board.ParseCell(s)
	require.NoError(t, err)
	return c
}

func TestSingleCellBoard(t *testing.T) {
	o := New(board.MustParsePosition("1 b"))

	carrier, ok := o.WinningConnection(board.Black)
	require.True(t, ok)
	assert.Equal(t, board.NewBitset(cell(t, "a1")), carrier)

	_, lost := o.LosingConnection(board.Black)
	assert.False(t, lost)
	assert.Equal(t, board.NewBitset(cell(t, "a1")), o.Mustplay(board.Black))
}

func TestDoubleThreatIsLoss(t *testing.T) {
	// Black b1-b2 completes at a3 or b3.
	o := New(board.MustParsePosition("1B1/1B1/3 w"))

	_, won := o.WinningConnection(board.White)
	assert.False(t, won)

	carrier, lost := o.LosingConnection(board.White)
	require.True(t, lost)
	assert.Equal(t, board.NewBitset(cell(t, "a3"), cell(t, "b3")), carrier)
	assert.Equal(t, board.NewBitset(cell(t, "a3"), cell(t, "b3")), o.SemiCarriers(board.Black))
	assert.True(t, o.Mustplay(board.White).None())
}

func TestSingleThreatRestrictsMustplay(t *testing.T) {
	// Black a1-a2 completes only at a3 because b2 is white.
	o := New(board.MustParsePosition("B2/BW1/3 w"))

	_, lost := o.LosingConnection(board.White)
	assert.False(t, lost)
	assert.Equal(t, board.NewBitset(cell(t, "a3")), o.Mustplay(board.White))
}

func TestSolidChainIsConnected(t *testing.T) {
	o := New(board.MustParsePosition("1B1/1B1/1B1 w"))

	carrier, won := o.WinningConnection(board.Black)
	require.True(t, won)
	assert.True(t, carrier.None())

	_, lost := o.LosingConnection(board.White)
	assert.True(t, lost)
}

func TestDeadCells(t *testing.T) {
	// a1 only touches north and a single white group.
	o := New(board.MustParsePosition("1W1/W2/3 b"))
	dead := o.Inferior(board.Black).Dead
	assert.True(t, dead.Has(cell(t, "a1")))
	assert.False(t, dead.Has(cell(t, "c3")))

	pos := board.MustParsePosition("1W1/W2/3 b")
	assert.Equal(t, dead, o.Fillin(pos, board.White))
}

func TestSplittingGroup(t *testing.T) {
	o := New(board.MustParsePosition("3/BBB/3 w"))

	group, ok := o.SplittingGroup(board.Black)
	require.True(t, ok)
	assert.Equal(t, 3, group.Count())

	_, ok = o.SplittingGroup(board.White)
	assert.False(t, ok)

	// A group joined to north is not a splitting group.
	o = New(board.MustParsePosition("B2/BBB/3 w"))
	_, ok = o.SplittingGroup(board.Black)
	assert.False(t, ok)
}

func TestCacheFollowsPosition(t *testing.T) {
	o := New(board.MustParsePosition("3/3/3 b"))
	_, won := o.WinningConnection(board.Black)
	require.False(t, won)

	o.Play(cell(t, "b1"))
	o.Play(cell(t, "a1"))
	o.Play(cell(t, "b2"))
	carrier, won := o.WinningConnection(board.Black)
	require.True(t, won)
	assert.Equal(t, 1, carrier.Count())

	o.Undo()
	_, won = o.WinningConnection(board.Black)
	assert.False(t, won)
}
