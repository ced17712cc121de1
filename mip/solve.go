// SPDX-License-Identifier: MIT

package mip

import (
	"context"
	"time"
)

// Solve minimizes the objective of m by branch-and-bound over warm-started
// simplex relaxations.
//
// The returned error is non-nil for invalid input (model construction
// errors, ErrBadOptions) and whenever the LP engine failed (ErrNumerical).
// An engine failure after an incumbent was found yields StatusFeasible
// together with the ErrNumerical error; without one, StatusAbnormal. Every
// other outcome, infeasibility and limits included, is reported through
// Solution.Status with a nil error.
func Solve(ctx context.Context, m *Model, opts Options) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	if err := opts.validate(); err != nil {
		return Solution{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	e := newEngine(ctx, m, opts)
	e.dfs()

	return e.solution(start)
}
