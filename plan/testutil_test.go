package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
	"github.com/katalvlaran/beamopt/mip"
	"github.com/katalvlaran/beamopt/plan"
)

// instance is a registry and a dose matrix whose voxel v has owners[v-1]
// and dose row rows[v-1].
type instance struct {
	reg *anatomy.Registry
	dm  *dose.Matrix
}

func mkInstance(t *testing.T, owners []anatomy.Structure, rows [][]float64) instance {
	t.Helper()
	require.Len(t, rows, len(owners))
	reg, err := anatomy.NewRegistry(len(owners))
	require.NoError(t, err)
	for i, s := range owners {
		require.NoError(t, reg.Assign(i+1, s))
	}
	dm, err := dose.FromRows(rows)
	require.NoError(t, err)

	return instance{reg: reg, dm: dm}
}

func (in instance) build(t *testing.T, presc plan.Prescription, opts plan.BuildOptions) *plan.Formulation {
	t.Helper()
	f, err := plan.Build(in.reg, in.dm, presc, opts)
	require.NoError(t, err)

	return f
}

func solveOptimal(t *testing.T, f *plan.Formulation) mip.Solution {
	t.Helper()
	sol, err := mip.Solve(context.Background(), f.Model, mip.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, mip.StatusOptimal, sol.Status)
	_, viol := f.Model.Evaluate(sol.Values)
	require.LessOrEqual(t, viol, 1e-6, "solution violates the model")

	return sol
}

func findRow(t *testing.T, m *mip.Model, name string) *mip.Constraint {
	t.Helper()
	for _, c := range m.Constraints() {
		if c.Name() == name {
			return c
		}
	}
	require.Failf(t, "row not found", "%s", name)

	return nil
}

// toy: voxels 1,2 target, voxels 3,4 bladder.
func toy(t *testing.T) instance {
	return mkInstance(t,
		[]anatomy.Structure{anatomy.CTV, anatomy.CTV, anatomy.Bladder, anatomy.Bladder},
		[][]float64{
			{1.0, 0.5},
			{0.5, 1.0},
			{0.2, 0.1},
			{0.1, 0.2},
		})
}
