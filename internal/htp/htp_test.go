package htp

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/solver"
	"github.com/hailam/hexsolver/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(t *testing.T, dfs solver.GameSolver) *Server {
	t.Helper()
	if dfs == nil {
		opts := solver.DefaultDFSOptions()
		opts.Logger = quiet
		dfs = solver.NewDFS(store.NewDFSPositions(store.NewTable[store.DFSRecord](12), nil, store.Settings{}), nil, opts)
	}
	dfpnOpts := solver.DefaultDFPNOptions()
	dfpnOpts.Logger = quiet
	dfpn := solver.NewDFPN(store.NewDFPNPositions(store.NewTable[store.DFPNRecord](12), nil, store.Settings{}), nil, dfpnOpts)
	return New(board.MustGeometry(3, 3), dfs, dfpn, solver.Limits{}, quiet)
}

// session runs script and returns the replies without their trailing blank
// lines.
func session(t *testing.T, s *Server, script string) []string {
	t.Helper()
	var out strings.Builder
	require.NoError(t, s.Run(strings.NewReader(script), &out))
	replies := strings.Split(strings.TrimSuffix(out.String(), "\n\n"), "\n\n")
	return replies
}

func TestIdentity(t *testing.T) {
	replies := session(t, newServer(t, nil), "name\nversion\n7 protocol_version\n")
	assert.Equal(t, []string{"= hexsolver", "= 1.0", "=7 2"}, replies)
}

func TestListCommands(t *testing.T) {
	replies := session(t, newServer(t, nil), "list_commands\n")
	require.Len(t, replies, 1)
	for _, cmd := range []string{"solve", "dfpn", "play", "undo", "showboard", "quit"} {
		assert.Contains(t, replies[0], cmd)
	}
}

func TestPlayAndUndo(t *testing.T) {
	s := newServer(t, nil)
	replies := session(t, s, "play b b2\nplay w b2\nplay x a1\nplay w z9\nundo\nundo\n")
	require.Len(t, replies, 6)
	assert.Equal(t, "=", replies[0])
	assert.True(t, strings.HasPrefix(replies[1], "? "), "occupied cell")
	assert.True(t, strings.HasPrefix(replies[2], "? "), "bad color")
	assert.True(t, strings.HasPrefix(replies[3], "? "), "bad cell")
	assert.Equal(t, "=", replies[4])
	assert.True(t, strings.HasPrefix(replies[5], "? "), "nothing left to undo")
	assert.Equal(t, "3/3/3 b", s.pos.Notation())
}

func TestBoardSize(t *testing.T) {
	s := newServer(t, nil)
	replies := session(t, s, "boardsize 5 4\nboardsize 12\nboardsize x\n")
	assert.Equal(t, "=", replies[0])
	assert.True(t, strings.HasPrefix(replies[1], "? "))
	assert.True(t, strings.HasPrefix(replies[2], "? "))
	assert.Equal(t, 5, s.pos.Geometry().Width())
	assert.Equal(t, 4, s.pos.Geometry().Height())
}

func TestShowBoard(t *testing.T) {
	replies := session(t, newServer(t, nil), "play b a1\nshowboard\n")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1], "To play: white")
	assert.Contains(t, replies[1], " a b c")
}

func TestSolve(t *testing.T) {
	s := newServer(t, nil)
	replies := session(t, s, "setposition 3/1W1/3 b\nsolve\nsolver_proof\nclear_board\nsolve 5\n")
	require.Len(t, replies, 5)
	assert.True(t, strings.HasPrefix(replies[1], "= white"), replies[1])
	assert.NotEqual(t, "=", replies[2])
	assert.True(t, strings.HasPrefix(replies[2], "= "))
	assert.True(t, strings.HasPrefix(replies[4], "= black "), replies[4])
}

func TestDFPN(t *testing.T) {
	replies := session(t, newServer(t, nil), "boardsize 2\ndfpn\n")
	require.Len(t, replies, 2)
	assert.True(t, strings.HasPrefix(replies[1], "= black "), replies[1])
}

func TestProofBeforeSolve(t *testing.T) {
	replies := session(t, newServer(t, nil), "solver_proof\n")
	assert.True(t, strings.HasPrefix(replies[0], "? "))
}

// blocking never finishes on its own.
type blocking struct {
	started chan struct{}
}

func (b *blocking) Solve(ctx context.Context, _ *board.Position, _ solver.Limits) (solver.Result, error) {
	close(b.started)
	<-ctx.Done()
	return solver.Result{Outcome: solver.Unknown}, nil
}

func (b *blocking) Stop() {}

func TestStopInterruptsSearch(t *testing.T) {
	b := &blocking{started: make(chan struct{})}
	s := newServer(t, b)

	pr, pw := io.Pipe()
	var out strings.Builder
	done := make(chan error)
	go func() { done <- s.Run(pr, &out) }()

	_, err := io.WriteString(pw, "solve\n")
	require.NoError(t, err)
	<-b.started
	_, err = io.WriteString(pw, "stop\nquit\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
	pw.Close()

	assert.Equal(t, "= unknown\n\n=\n\n=\n\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	replies := session(t, newServer(t, nil), "# comment only\nfrobnicate\nquit\nname\n")
	require.Len(t, replies, 2, "input after quit is ignored")
	assert.True(t, strings.HasPrefix(replies[0], "? "))
}
