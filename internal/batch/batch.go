// Package batch solves many positions with a pool of solvers.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/hexsolver/internal/board"
	"github.com/hailam/hexsolver/internal/proof"
	"github.com/hailam/hexsolver/internal/solver"
)

// Factory builds one solver per worker. Solvers may share a database but
// nothing else.
type Factory func(worker int) (solver.GameSolver, error)

// Job is one position to solve.
type Job struct {
	ID       uuid.UUID
	Index    int // position in the input
	Position *board.Position
}

// Outcome pairs a job with its result.
type Outcome struct {
	Job    Job
	Worker int
	Result solver.Result
}

// Pool runs a fixed number of workers.
type Pool struct {
	workers int
	factory Factory
	limits  solver.Limits
	logger  *slog.Logger
}

// New creates a pool. limits apply to each position.
func New(workers int, factory Factory, limits solver.Limits, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{workers: workers, factory: factory, limits: limits, logger: logger}
}

// Run solves every position and returns the outcomes in input order. The
// first worker error cancels the remaining jobs. When ctx is cancelled the
// positions not reached keep an Unknown outcome and ctx.Err() is returned.
func (p *Pool) Run(ctx context.Context, positions []*board.Position) ([]Outcome, error) {
	jobs := make(chan Job)
	outcomes := make([]Outcome, len(positions))
	var mu sync.Mutex
	start := time.Now()

	workers := min(p.workers, max(len(positions), 1))
	solvers := make([]solver.GameSolver, workers)
	for i := range solvers {
		s, err := p.factory(i)
		if err != nil {
			return nil, fmt.Errorf("create solver %d: %w", i, err)
		}
		solvers[i] = s
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i, pos := range positions {
			job := Job{ID: uuid.New(), Index: i, Position: pos.Copy()}
			select {
			case jobs <- job:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w, s := range solvers {
		w, s := w, s
		g.Go(func() error {
			for job := range jobs {
				res, err := p.solve(gctx, s, job)
				if err != nil {
					return fmt.Errorf("job %s (position %d): %w", job.ID, job.Index, err)
				}
				p.logger.Debug("job done", "job", job.ID.String(), "worker", w,
					"outcome", res.Outcome.String(), "states", res.Stats.States)
				mu.Lock()
				outcomes[job.Index] = Outcome{Job: job, Worker: w, Result: res}
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info("batch finished", "positions", len(positions), "workers", workers,
		"elapsed", time.Since(start).String())
	if err != nil {
		return outcomes, err
	}
	for i := range outcomes {
		if outcomes[i].Job.Position == nil {
			outcomes[i].Job = Job{Index: i, Position: positions[i]}
		}
	}
	return outcomes, ctx.Err()
}

// solve turns an invariant panic into an error so one bad position does not
// take the other workers down.
func (p *Pool) solve(ctx context.Context, s solver.GameSolver, job Job) (res solver.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ie *proof.InvariantError
			if e, ok := r.(error); ok && errors.As(e, &ie) {
				err = ie
				return
			}
			panic(r)
		}
	}()
	return s.Solve(ctx, job.Position, p.limits)
}

// ReadPositions parses one position per line. Blank lines and lines
// starting with '#' are skipped.
func ReadPositions(r io.Reader) ([]*board.Position, error) {
	var positions []*board.Position
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		pos, err := board.ParsePosition(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		positions = append(positions, pos)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return positions, nil
}
