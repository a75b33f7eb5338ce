package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/proof"
	"github.com/hailam/hexsolver/internal/solver"
	"github.com/hailam/hexsolver/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func dfsFactory(db *store.DB) Factory {
	return func(int) (solver.GameSolver, error) {
		positions := store.NewDFSPositions(store.NewTable[store.DFSRecord](12), db,
			store.Settings{MaxStones: 16, TransStones: 4})
		opts := solver.DefaultDFSOptions()
		opts.Logger = quiet
		return solver.NewDFS(positions, nil, opts), nil
	}
}

func parse(t *testing.T, notations ...string) []*board.Position {
	t.Helper()
	positions := make([]*board.Position, len(notations))
	for i, n := range notations {
		positions[i] = board.MustParsePosition(n)
	}
	return positions
}

func TestPoolSolvesInOrder(t *testing.T) {
	notations := []string{"1 b", "2/2 b", "2/2 w", "3/3/3 b", "3/1W1/3 b", "3/1B1/3 w"}
	winners := []board.Color{board.Black, board.Black, board.White, board.Black, board.White, board.Black}

	pool := New(3, dfsFactory(nil), solver.Limits{}, quiet)
	outcomes, err := pool.Run(context.Background(), parse(t, notations...))
	require.NoError(t, err)
	require.Len(t, outcomes, len(notations))

	seen := map[uuid.UUID]bool{}
	for i, out := range outcomes {
		assert.Equal(t, i, out.Job.Index)
		assert.Equal(t, notations[i], out.Job.Position.Notation())
		assert.True(t, out.Result.Solved(), notations[i])
		assert.Equal(t, winners[i], out.Result.Winner, notations[i])
		assert.NotEqual(t, uuid.Nil, out.Job.ID)
		assert.False(t, seen[out.Job.ID], "job ids are unique")
		seen[out.Job.ID] = true
	}
}

func TestPoolSharesDatabase(t *testing.T) {
	db, err := store.OpenDB(store.InMemoryConfig(), store.Settings{MaxStones: 16, TransStones: 4}, store.DFSVersion)
	require.NoError(t, err)
	defer db.Close()

	pool := New(2, dfsFactory(db), solver.Limits{}, quiet)
	positions := parse(t, "3/3/3 b", "3/3/3 b", "3/3/3 w")
	outcomes, err := pool.Run(context.Background(), positions)
	require.NoError(t, err)
	for _, out := range outcomes {
		assert.True(t, out.Result.Solved())
	}
	assert.NotZero(t, db.Stats().Writes)
}

func TestPoolDoesNotMutateInput(t *testing.T) {
	positions := parse(t, "2/2 b")
	_, err := New(1, dfsFactory(nil), solver.Limits{}, quiet).Run(context.Background(), positions)
	require.NoError(t, err)
	assert.Equal(t, "2/2 b", positions[0].Notation())
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := New(2, dfsFactory(nil), solver.Limits{}, quiet).Run(ctx, parse(t, "3/3/3 b", "3/3/3 w"))
	assert.ErrorIs(t, err, context.Canceled)
	for _, out := range outcomes {
		assert.False(t, out.Result.Solved())
	}
}

func TestPoolFactoryError(t *testing.T) {
	boom := errors.New("no table")
	factory := func(int) (solver.GameSolver, error) { return nil, boom }
	_, err := New(2, factory, solver.Limits{}, quiet).Run(context.Background(), parse(t, "1 b"))
	assert.ErrorIs(t, err, boom)
}

// panicky fails its first solve with an invariant violation.
type panicky struct {
	calls atomic.Int32
}

func (p *panicky) Solve(context.Context, *board.Position, solver.Limits) (solver.Result, error) {
	p.calls.Add(1)
	panic(&proof.InvariantError{Position: "1 b", Err: proof.ErrInvalidProof})
}

func (p *panicky) Stop() {}

func TestPoolReportsInvariantViolation(t *testing.T) {
	bad := &panicky{}
	factory := func(int) (solver.GameSolver, error) { return bad, nil }
	_, err := New(1, factory, solver.Limits{}, quiet).Run(context.Background(), parse(t, "1 b", "1 b"))

	var ie *proof.InvariantError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, proof.ErrInvalidProof)
	assert.Equal(t, int32(1), bad.calls.Load())
}

func TestReadPositions(t *testing.T) {
	input := "# openings\n1 b\n\n  2/2 w  \n3/1B1/3 w\n"
	positions, err := ReadPositions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "2/2 w", positions[1].Notation())

	_, err = ReadPositions(strings.NewReader("1 b\n2/2 x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
