package solver

import (
	"context"
	"sync/atomic"
	"time"
)

// TimeManager tracks the wall clock budget of a search.
type TimeManager struct {
	maximumTime time.Duration // 0 means unlimited
	startTime   time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts the clock for a new search.
func (tm *TimeManager) Init(limits Limits) {
	tm.startTime = time.Now()
	tm.maximumTime = limits.Time
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// MaximumTime returns the time budget, 0 if unlimited.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop returns true once the budget is used up.
func (tm *TimeManager) ShouldStop() bool {
	return tm.maximumTime > 0 && tm.Elapsed() >= tm.maximumTime
}

// aborter combines the abort sources of one Solve call. Once it fires it
// stays fired until reset.
type aborter struct {
	ctx      context.Context
	stopFlag *atomic.Bool
	tm       *TimeManager
	depth    int
	reason   string
	aborted  bool
}

func (a *aborter) reset(ctx context.Context, stopFlag *atomic.Bool, limits Limits) {
	a.ctx = ctx
	a.stopFlag = stopFlag
	if a.tm == nil {
		a.tm = NewTimeManager()
	}
	a.tm.Init(limits)
	a.depth = limits.Depth
	a.reason = ""
	a.aborted = false
}

// check polls the external sources. Time is only read when clock is set,
// letting callers throttle it.
func (a *aborter) check(clock bool) bool {
	if a.aborted {
		return true
	}
	switch {
	case a.stopFlag.Load():
		a.fire("stopped")
	case a.ctx.Err() != nil:
		a.fire("context: " + a.ctx.Err().Error())
	case clock && a.tm.ShouldStop():
		a.fire("time limit")
	}
	return a.aborted
}

// checkDepth fires when ply exceeds the depth limit.
func (a *aborter) checkDepth(ply int) bool {
	if a.depth > 0 && ply > a.depth {
		a.fire("depth limit")
	}
	return a.aborted
}

func (a *aborter) fire(reason string) {
	a.aborted = true
	a.reason = reason
}
