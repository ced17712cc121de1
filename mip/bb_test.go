package mip

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair: x, y in [0, 1] under x + y ≤ 2 and x − y ∈ [−1, 1].
func pair() *Model {
	m := NewModel("pair")
	x, y := m.NumVar(0, 1, "x"), m.NumVar(0, 1, "y")
	sum := m.Constraint(math.Inf(-1), 2, "sum")
	sum.SetCoefficient(x, 1)
	sum.SetCoefficient(y, 1)
	diff := m.Constraint(-1, 1, "diff")
	diff.SetCoefficient(x, 1)
	diff.SetCoefficient(y, -1)
	m.SetObjectiveCoefficient(x, -1)

	return m
}

// singular puts the same column in both basis positions and forces a
// reinversion on the next relaxation.
func singular(s *simplex) {
	s.head[0], s.head[1] = 0, 0
	s.status[0] = isBasic
	s.pivots = refactorEvery
}

func TestSimplex_SingularBasis(t *testing.T) {
	s := newSimplex(pair(), DefaultOptions().Tol)
	singular(s)
	_, err := s.solve([]float64{0, 0}, []float64{1, 1}, nil)
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestSimplex_WarmStart(t *testing.T) {
	s := newSimplex(pair(), DefaultOptions().Tol)
	r, err := s.solve([]float64{0, 0}, []float64{1, 1}, nil)
	require.NoError(t, err)
	require.Equal(t, lpOptimal, r.outcome)
	assert.InDelta(t, -1.0, r.objective, 1e-12)

	// Tightening x re-enters from the optimal basis.
	r, err = s.solve([]float64{0, 0}, []float64{0.25, 1}, nil)
	require.NoError(t, err)
	require.Equal(t, lpOptimal, r.outcome)
	assert.InDelta(t, -0.25, r.objective, 1e-12)

	r, err = s.solve([]float64{1, 0}, []float64{1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, lpOptimal, r.outcome, "x=1, y=0 sits on the diff bound")

	r, err = s.solve([]float64{0.5, 0.5}, []float64{0.4, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, lpInfeasible, r.outcome, "crossed bounds")
}

func TestSimplex_StopBeforePivot(t *testing.T) {
	s := newSimplex(pair(), DefaultOptions().Tol)
	r, err := s.solve([]float64{0, 0}, []float64{1, 1}, func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, lpInterrupted, r.outcome)
}

// A numerical failure after an incumbent keeps the incumbent and reports
// the cause; without one the outcome is Abnormal.
func TestEngine_NumericalFailure(t *testing.T) {
	m := pair()
	m.vars[0].integer = true
	e := newEngine(context.Background(), m, DefaultOptions())
	e.commit(relaxation{outcome: lpOptimal, values: []float64{1, 0}, objective: -1})
	singular(e.lp)
	e.dfs()

	sol, err := e.solution(time.Now())
	require.ErrorIs(t, err, ErrNumerical)
	assert.Equal(t, StatusFeasible, sol.Status)
	assert.Equal(t, []float64{1, 0}, sol.Values)
	assert.Equal(t, 1, sol.Nodes)

	e = newEngine(context.Background(), pair(), DefaultOptions())
	singular(e.lp)
	e.dfs()
	sol, err = e.solution(time.Now())
	require.ErrorIs(t, err, ErrNumerical)
	assert.Equal(t, StatusAbnormal, sol.Status)
	assert.Nil(t, sol.Values)
}
