// SPDX-License-Identifier: MIT

// Branch-and-bound over LP relaxations.
//
// Rationale (succinct):
//  1. One simplex state lives for the whole search. Node bounds differ only
//     in branched columns, so each node re-enters phase 1 from the previous
//     node's basis instead of from the all-logical basis; a child typically
//     needs a handful of pivots.
//  2. Depth-first order keeps exactly one bound vector alive: bounds are
//     tightened on the way down and restored on the way up.
//  3. Branching: the most fractional integer column (lowest index on ties),
//     nearer side first. The nearer side tends to reach an integral leaf
//     sooner, which gives an incumbent early and strengthens pruning.
//  4. Pruning: a node is dropped when its LP bound ≥ best − max(Eps, Gap·|best|).
//     The LP bound is admissible for its subtree, so with Gap = 0 nothing
//     better than best − Eps is ever discarded.
//  5. Integral leaves commit an incumbent with integers snapped to their
//     rounded values.
//  6. Limits: ctx and the deadline are polled before every node and before
//     every simplex pivot; the node limit before every node. A stop inside a
//     relaxation abandons that node and keeps the incumbent.
//
// Complexity:
//   - Worst case exponential in the number of integer variables.
//   - Per node: one warm-started relaxation, O(m² + nnz(A)) per pivot.
//   - Memory: O(n) for node bounds + the simplex state, O(depth) stack.

package mip

import (
	"context"
	"math"
	"time"
)

// bbEngine holds the search state of one Solve call.
type bbEngine struct {
	m    *Model
	opts Options
	ctx  context.Context
	lp   *simplex

	// Limits
	useDeadline bool
	deadline    time.Time
	stopped     bool

	// Node bounds, mutated on the way down and restored on the way up.
	lower []float64
	upper []float64

	// Integer variable indices in creation order.
	ints []int

	// Incumbent
	best     []float64
	bestObj  float64
	foundAny bool

	nodes     int
	unbounded bool
	err       error
}

func newEngine(ctx context.Context, m *Model, opts Options) *bbEngine {
	e := &bbEngine{
		m:       m,
		opts:    opts,
		ctx:     ctx,
		lp:      newSimplex(m, opts.Tol),
		lower:   make([]float64, len(m.vars)),
		upper:   make([]float64, len(m.vars)),
		bestObj: math.Inf(1),
	}
	for j, v := range m.vars {
		e.lower[j], e.upper[j] = v.lower, v.upper
		if v.integer {
			// Integral bounds tighten the relaxation for free.
			e.lower[j] = math.Ceil(v.lower - opts.IntTol)
			if !math.IsInf(v.upper, 1) {
				e.upper[j] = math.Floor(v.upper + opts.IntTol)
			}
			e.ints = append(e.ints, j)
		}
	}
	if opts.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(opts.TimeLimit)
	}

	return e
}

// interrupted reports (and latches) a cancelled context or a passed
// deadline. The simplex polls it between pivots.
func (e *bbEngine) interrupted() bool {
	if e.stopped {
		return true
	}
	if e.ctx.Err() != nil || (e.useDeadline && !time.Now().Before(e.deadline)) {
		e.stopped = true
	}

	return e.stopped
}

// limitReached reports (and latches) whether the search must stop before
// opening another node.
func (e *bbEngine) limitReached() bool {
	if e.interrupted() {
		return true
	}
	if e.opts.NodeLimit > 0 && e.nodes >= e.opts.NodeLimit {
		e.stopped = true
	}

	return e.stopped
}

// pruneAt is the bound at or above which a node cannot improve the incumbent.
func (e *bbEngine) pruneAt() float64 {
	if !e.foundAny {
		return math.Inf(1)
	}
	tol := e.opts.Eps
	if g := e.opts.Gap * math.Abs(e.bestObj); g > tol {
		tol = g
	}

	return e.bestObj - tol
}

// branchVar returns the most fractional integer variable, or -1 when the
// relaxation is integral.
func (e *bbEngine) branchVar(x []float64) int {
	var (
		pick  = -1
		worst = e.opts.IntTol
	)
	for _, j := range e.ints {
		f := math.Abs(x[j] - math.Round(x[j]))
		if f > worst {
			worst, pick = f, j
		}
	}

	return pick
}

// commit records a new incumbent with integers snapped.
func (e *bbEngine) commit(r relaxation) {
	if e.best == nil {
		e.best = make([]float64, len(r.values))
	}
	copy(e.best, r.values)
	for _, j := range e.ints {
		e.best[j] = math.Round(e.best[j])
	}
	e.bestObj = r.objective
	e.foundAny = true
}

// dfs explores the subtree under the current bounds.
func (e *bbEngine) dfs() {
	if e.err != nil || e.unbounded || e.limitReached() {
		return
	}
	e.nodes++

	r, err := e.lp.solve(e.lower, e.upper, e.interrupted)
	if err != nil {
		e.err = err
		return
	}
	switch r.outcome {
	case lpInfeasible, lpInterrupted:
		return
	case lpUnbounded:
		e.unbounded = true
		return
	}
	if r.objective >= e.pruneAt() {
		return
	}

	j := e.branchVar(r.values)
	if j < 0 {
		e.commit(r)
		return
	}

	v := r.values[j]
	down, up := math.Floor(v), math.Ceil(v)
	oldLo, oldUp := e.lower[j], e.upper[j]
	if v-down >= 0.5 {
		e.lower[j] = up
		e.dfs()
		e.lower[j] = oldLo
		e.upper[j] = down
		e.dfs()
		e.upper[j] = oldUp
	} else {
		e.upper[j] = down
		e.dfs()
		e.upper[j] = oldUp
		e.lower[j] = up
		e.dfs()
		e.lower[j] = oldLo
	}
}

// status maps the final engine state onto a Status.
func (e *bbEngine) status() Status {
	switch {
	case e.err != nil:
		if e.foundAny {
			return StatusFeasible
		}
		return StatusAbnormal
	case e.unbounded:
		return StatusUnbounded
	case e.stopped && e.foundAny:
		return StatusFeasible
	case e.stopped:
		return StatusNotSolved
	case e.foundAny:
		return StatusOptimal
	default:
		return StatusInfeasible
	}
}

// solution packages the engine state. The LP failure, if any, is returned
// alongside a Feasible incumbent so callers can tell it from a limit stop.
func (e *bbEngine) solution(start time.Time) (Solution, error) {
	sol := Solution{
		Status:   e.status(),
		Nodes:    e.nodes,
		WallTime: time.Since(start),
	}
	if e.foundAny {
		sol.Values = e.best
		sol.Objective = e.bestObj
	}

	return sol, e.err
}
