package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--in-memory", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveCommand(t *testing.T) {
	out, err := run(t, "", "solve", "3/1W1/3", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "white wins")
	assert.Contains(t, out, "proof:")

	out, err = run(t, "", "solve", "--algo", "dfpn", "2/2 b")
	require.NoError(t, err)
	assert.Contains(t, out, "black wins")
	assert.Contains(t, out, "pv:")
}

func TestSolveWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.png")
	_, err := run(t, "", "solve", "--png", path, "3/3/3 b")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestSolveRejectsBadInput(t *testing.T) {
	_, err := run(t, "", "solve", "3/3/3 x")
	assert.Error(t, err)

	_, err = run(t, "", "solve", "--algo", "mcts", "3/3/3 b")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	input := "# small boards\n2/2 b\n2/2 w\n3/3/3 b\n"
	out, err := run(t, input, "batch", "--workers", "2", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5, out)
	assert.Contains(t, lines[1], "black")
	assert.Contains(t, lines[2], "white")
	assert.Contains(t, lines[4], "states")

	_, err = run(t, "2/2 b\n3/3/3 b\n", "batch", "-")
	assert.Error(t, err, "mixed board sizes")
}

func TestHTPCommand(t *testing.T) {
	out, err := run(t, "boardsize 2\nsolve\nquit\n", "htp", "--size", "3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "=\n\n= black "), out)
}

func TestDBCommands(t *testing.T) {
	out, err := run(t, "", "db", "stats", "--width", "3", "--height", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 0")

	_, err = run(t, "", "db", "get", "3/3/3 b")
	assert.ErrorContains(t, err, "not stored")
}
