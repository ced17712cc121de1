// SPDX-License-Identifier: MIT

package mip

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrNilModel indicates a nil *Model.
	ErrNilModel = errors.New("mip: model is nil")

	// ErrForeignVar indicates a variable that belongs to another model.
	ErrForeignVar = errors.New("mip: variable does not belong to this model")

	// ErrBadBounds indicates NaN bounds, a -Inf lower bound or lower > upper
	// on a variable or constraint.
	ErrBadBounds = errors.New("mip: invalid bounds")

	// ErrBadCoefficient indicates a NaN or ±Inf coefficient.
	ErrBadCoefficient = errors.New("mip: invalid coefficient")

	// ErrBadOptions indicates negative limits or tolerances.
	ErrBadOptions = errors.New("mip: invalid options")

	// ErrNumerical indicates that the LP engine failed for numerical reasons
	// (singular basis, no convergence within the pivot budget).
	ErrNumerical = errors.New("mip: numerical failure in LP relaxation")
)

// Status classifies the outcome of Solve.
type Status int

const (
	// StatusNotSolved means a limit stopped the search before any incumbent.
	StatusNotSolved Status = iota
	// StatusOptimal means the incumbent is proven optimal.
	StatusOptimal
	// StatusFeasible means an incumbent exists but a limit stopped the proof.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective decreases without bound.
	StatusUnbounded
	// StatusAbnormal means the LP engine failed before any incumbent; see
	// the returned error.
	StatusAbnormal
)

var statusNames = [...]string{
	StatusNotSolved:  "NOT_SOLVED",
	StatusOptimal:    "OPTIMAL",
	StatusFeasible:   "FEASIBLE",
	StatusInfeasible: "INFEASIBLE",
	StatusUnbounded:  "UNBOUNDED",
	StatusAbnormal:   "ABNORMAL",
}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}

	return "UNKNOWN"
}

// HasSolution reports whether Values carries a feasible assignment.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Options configures Solve.
//
//   - TimeLimit: wall-clock budget; 0 means unlimited.
//   - NodeLimit: maximum branch-and-bound nodes; 0 means unlimited.
//   - IntTol: integrality tolerance for integer variables.
//   - Tol: reduced-cost tolerance of the simplex pricing.
//   - Eps: absolute pruning tolerance (prune when bound ≥ best − Eps).
//   - Gap: relative optimality gap; 0 demands a full proof.
type Options struct {
	TimeLimit time.Duration
	NodeLimit int
	IntTol    float64
	Tol       float64
	Eps       float64
	Gap       float64
}

// Option mutates Options.
type Option func(*Options)

// WithTimeLimit sets a wall-clock budget.
func WithTimeLimit(d time.Duration) Option { return func(o *Options) { o.TimeLimit = d } }

// WithNodeLimit caps the number of explored nodes.
func WithNodeLimit(n int) Option { return func(o *Options) { o.NodeLimit = n } }

// WithGap sets the relative optimality gap.
func WithGap(g float64) Option { return func(o *Options) { o.Gap = g } }

// DefaultOptions returns run-to-completion defaults:
//   - TimeLimit: 0 (unlimited)
//   - NodeLimit: 0 (unlimited)
//   - IntTol:    1e-6
//   - Tol:       1e-9
//   - Eps:       1e-9
//   - Gap:       0
func DefaultOptions(opts ...Option) Options {
	o := Options{
		IntTol: 1e-6,
		Tol:    1e-9,
		Eps:    1e-9,
	}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}

func (o Options) validate() error {
	if o.TimeLimit < 0 || o.NodeLimit < 0 || o.IntTol < 0 || o.Tol < 0 || o.Eps < 0 || o.Gap < 0 {
		return ErrBadOptions
	}
	if o.IntTol >= 0.5 {
		return ErrBadOptions
	}

	return nil
}

// Solution is the outcome of Solve.
type Solution struct {
	// Status classifies the outcome.
	Status Status

	// Objective is the objective value of Values (meaningful when HasSolution).
	Objective float64

	// Values holds one value per model variable, indexed by Var.Index.
	Values []float64

	// Nodes is the number of branch-and-bound nodes explored.
	Nodes int

	// WallTime is the time spent inside Solve.
	WallTime time.Duration
}

// IsOptimal reports whether the solution is proven optimal.
func (s *Solution) IsOptimal() bool { return s.Status == StatusOptimal }

// Value returns the value of v, or 0 when v is nil or out of range.
func (s *Solution) Value(v *Var) float64 {
	if v == nil || v.index < 0 || v.index >= len(s.Values) {
		return 0
	}

	return s.Values[v.index]
}
