package solver

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSolveUpdatesMetrics(t *testing.T) {
	wins := solvesTotal.WithLabelValues("dfs", "win")
	states := statesTotal.WithLabelValues("dfs")
	beforeWins := testutil.ToFloat64(wins)
	beforeStates := testutil.ToFloat64(states)

	res := solve(t, newTestDFS(nil, testOptions()), "3/3/3 b")

	assert.Equal(t, beforeWins+1, testutil.ToFloat64(wins))
	assert.Equal(t, beforeStates+float64(res.Stats.States), testutil.ToFloat64(states))
}
