package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solvesTotal counts finished Solve calls by algorithm and outcome
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexsolver_solves_total",
		Help: "Total Solve calls by algorithm and outcome",
	}, []string{"algo", "outcome"})

	// solveDuration tracks wall clock time per Solve call
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hexsolver_solve_duration_seconds",
		Help:    "Solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	}, []string{"algo"})

	// statesTotal counts visited states
	statesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexsolver_states_total",
		Help: "Total states visited by algorithm",
	}, []string{"algo"})

	// ttHitsTotal counts solved-position cache hits
	ttHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexsolver_tt_hits_total",
		Help: "Total transposition hits by algorithm",
	}, []string{"algo"})

	// dbOpsTotal counts database traffic seen by the solvers
	dbOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexsolver_db_ops_total",
		Help: "Total database reads and writes by algorithm",
	}, []string{"algo", "op"})
)

// observe records the metrics of a finished Solve call.
func observe(algo string, r Result, dbReads, dbWrites uint64) {
	solvesTotal.WithLabelValues(algo, r.Outcome.String()).Inc()
	solveDuration.WithLabelValues(algo).Observe(r.Duration.Seconds())
	statesTotal.WithLabelValues(algo).Add(float64(r.Stats.States))
	ttHitsTotal.WithLabelValues(algo).Add(float64(r.Stats.TTHits))
	dbOpsTotal.WithLabelValues(algo, "read").Add(float64(dbReads))
	dbOpsTotal.WithLabelValues(algo, "write").Add(float64(dbWrites))
}
