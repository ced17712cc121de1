package solve

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
	"github.com/katalvlaran/beamopt/logging"
	"github.com/katalvlaran/beamopt/mip"
	"github.com/katalvlaran/beamopt/plan"
)

func oneBeamlet(t *testing.T) *plan.Formulation {
	t.Helper()
	reg, err := anatomy.NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.Assign(1, anatomy.CTV))
	dm, err := dose.FromRows([][]float64{{1}})
	require.NoError(t, err)
	f, err := plan.Build(reg, dm, plan.Prescription{
		Rules: []plan.Rule{plan.Target(anatomy.CTV, 80, 85)},
	}, plan.BuildOptions{})
	require.NoError(t, err)

	return f
}

// stubSolve replaces the branch-and-bound entry point for one test.
func stubSolve(t *testing.T, fn func(context.Context, *mip.Model, mip.Options) (mip.Solution, error)) {
	t.Helper()
	orig := solveMIP
	solveMIP = fn
	t.Cleanup(func() { solveMIP = orig })
}

func TestRun_EngineFailureKeepsIncumbent(t *testing.T) {
	f := oneBeamlet(t)
	cause := fmt.Errorf("%w: basis inverse: singular", mip.ErrNumerical)
	stubSolve(t, func(_ context.Context, m *mip.Model, _ mip.Options) (mip.Solution, error) {
		vals := make([]float64, m.NumVars())
		vals[f.Beamlets[0].Index()] = 82

		return mip.Solution{Status: mip.StatusFeasible, Values: vals, Nodes: 7, WallTime: time.Millisecond}, cause
	})

	core, logs := observer.New(zapcore.DebugLevel)
	res, err := Run(context.Background(), f, Options{Logger: logging.NewFromCore(core)})
	require.ErrorIs(t, err, ErrNotOptimal)
	require.ErrorIs(t, err, mip.ErrNumerical)
	require.NotNil(t, res)
	assert.Equal(t, mip.StatusFeasible, res.Status)
	assert.Equal(t, []float64{82}, res.Intensities)

	failed := logs.FilterMessage("LP engine failed, keeping the incumbent").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Zero(t, logs.FilterMessage("solve stopped before proving optimality").Len())
}

func TestRun_EngineFailureWithoutIncumbent(t *testing.T) {
	f := oneBeamlet(t)
	stubSolve(t, func(context.Context, *mip.Model, mip.Options) (mip.Solution, error) {
		return mip.Solution{Status: mip.StatusAbnormal}, mip.ErrNumerical
	})

	res, err := Run(context.Background(), f, Options{})
	require.ErrorIs(t, err, ErrNoSolution)
	require.ErrorIs(t, err, mip.ErrNumerical)
	assert.Equal(t, mip.StatusAbnormal, res.Status)
	assert.Nil(t, res.Intensities)
}
