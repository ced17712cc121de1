// SPDX-License-Identifier: MIT

// Package solve runs a built formulation once and classifies the outcome.
//
// An optimal solve yields a Result. A solve stopped by a limit or by an LP
// engine failure with an incumbent yields the partial Result and
// ErrNotOptimal (wrapping the engine error, if any). Every other outcome
// yields ErrNoSolution wrapping the solver status. There is no retry.
package solve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katalvlaran/beamopt/logging"
	"github.com/katalvlaran/beamopt/mip"
	"github.com/katalvlaran/beamopt/plan"
)

var (
	// ErrNilFormulation indicates a nil formulation or model.
	ErrNilFormulation = errors.New("solve: formulation is nil")

	// ErrNotOptimal indicates an incumbent without an optimality proof.
	ErrNotOptimal = errors.New("solver claims feasibility but not optimality")

	// ErrNoSolution indicates that no usable solution was produced.
	ErrNoSolution = errors.New("solver ran to completion but did not find an optimal solution")
)

// solveMIP is the branch-and-bound entry point; tests substitute it.
var solveMIP = mip.Solve

// Options bounds the solve. Zero values mean run to completion.
type Options struct {
	TimeLimit time.Duration
	NodeLimit int
	Gap       float64

	// Logger receives start and outcome entries; nil discards them.
	Logger logging.Logger
}

// IndicatorValues are the solved binaries of one volume-fraction rule.
//
// Values[i] = 0 implies dose(Voxels[i]) ≤ threshold (up to the rule's
// slack). The converse does not hold: the indicator row only bounds dose
// from above, so a voxel under the threshold may still carry 1 when that
// costs nothing. Count voxels over the threshold from the dose, not from
// Values.
type IndicatorValues struct {
	Rule   plan.Rule
	Voxels []int
	Values []float64
}

// Result holds the solver's values. They are the ground truth; any dose
// recomputed from Intensities is for presentation only.
type Result struct {
	Status      mip.Status
	Objective   float64
	Intensities []float64
	Penalties   []plan.Penalty
	Slacks      map[plan.Penalty]float64
	Indicators  []IndicatorValues
	Nodes       int
	WallTime    time.Duration
}

// Run solves f once.
//
// Errors:
//   - ErrNilFormulation for nil input;
//   - ErrNotOptimal (with a non-nil partial Result) when a limit stopped the
//     proof after an incumbent was found, or when the LP engine failed after
//     one (the engine error is wrapped too);
//   - ErrNoSolution wrapping the status (and any engine error) otherwise.
func Run(ctx context.Context, f *plan.Formulation, opts Options) (*Result, error) {
	if f == nil || f.Model == nil {
		return nil, ErrNilFormulation
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("solve")

	m := f.Model
	log.Info("solve started",
		logging.Int("vars", m.NumVars()),
		logging.Int("integers", m.NumIntegers()),
		logging.Int("rows", m.NumConstraints()),
		logging.Float64("big_m", f.BigM),
		logging.Duration("time_limit", opts.TimeLimit),
		logging.Int("node_limit", opts.NodeLimit),
	)
	if !f.BigMVerified {
		log.Warn("big-M could not be verified against a finite dose bound", logging.Float64("big_m", f.BigM))
	}

	sol, err := solveMIP(ctx, m, mip.DefaultOptions(
		mip.WithTimeLimit(opts.TimeLimit),
		mip.WithNodeLimit(opts.NodeLimit),
		mip.WithGap(opts.Gap),
	))
	res := &Result{
		Status:   sol.Status,
		Nodes:    sol.Nodes,
		WallTime: sol.WallTime,
	}
	fields := []logging.Field{
		logging.String("status", sol.Status.String()),
		logging.Int("nodes", sol.Nodes),
		logging.Duration("wall", sol.WallTime),
	}

	engineErr := errors.Is(err, mip.ErrNumerical)
	switch {
	case err != nil && !engineErr:
		// Invalid model or options: nothing was solved.
		return nil, fmt.Errorf("solve: %w", err)
	case sol.Status == mip.StatusOptimal:
		extract(res, f, sol)
		log.Info("solve finished", append(fields, logging.Float64("objective", res.Objective))...)

		return res, nil
	case sol.Status == mip.StatusFeasible && engineErr:
		extract(res, f, sol)
		log.Error("LP engine failed, keeping the incumbent",
			append(fields, logging.Float64("objective", res.Objective), logging.Err(err))...)

		return res, fmt.Errorf("%w: %w", ErrNotOptimal, err)
	case sol.Status == mip.StatusFeasible:
		extract(res, f, sol)
		log.Warn("solve stopped before proving optimality", append(fields, logging.Float64("objective", res.Objective))...)

		return res, ErrNotOptimal
	case err != nil:
		log.Error("solve failed", append(fields, logging.Err(err))...)

		return res, fmt.Errorf("%w: status %s: %w", ErrNoSolution, sol.Status, err)
	default:
		log.Error("solve failed", fields...)

		return res, fmt.Errorf("%w: status %s", ErrNoSolution, sol.Status)
	}
}

func extract(res *Result, f *plan.Formulation, sol mip.Solution) {
	res.Objective = sol.Objective
	res.Intensities = make([]float64, len(f.Beamlets))
	for b, x := range f.Beamlets {
		res.Intensities[b] = sol.Value(x)
	}
	res.Penalties = append([]plan.Penalty(nil), f.Penalties...)
	res.Slacks = make(map[plan.Penalty]float64, len(f.Slacks))
	for _, p := range f.Penalties {
		res.Slacks[p] = sol.Value(f.Slacks[p])
	}
	res.Indicators = make([]IndicatorValues, len(f.Indicators))
	for i, set := range f.Indicators {
		vals := make([]float64, len(set.Vars))
		for j, y := range set.Vars {
			vals[j] = sol.Value(y)
		}
		res.Indicators[i] = IndicatorValues{
			Rule:   set.Rule,
			Voxels: append([]int(nil), set.Voxels...),
			Values: vals,
		}
	}
}
