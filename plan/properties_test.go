package plan_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/plan"
)

// TestSolve_Toy: two beamlets, a two-voxel target and a two-voxel organ
// with a max rule that the target dose never reaches.
func TestSolve_Toy(t *testing.T) {
	in := toy(t)
	f := in.build(t, plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 80, 85),
			plan.Max(anatomy.Bladder, 30, "bladder-max"),
		},
		Weights: map[plan.Penalty]float64{"bladder-max": 10},
	}, plan.BuildOptions{})

	sol := solveOptimal(t, f)
	assert.InDelta(t, 0, sol.Objective, 1e-9)
	assert.InDelta(t, 0, sol.Value(f.Slacks["bladder-max"]), 1e-9)

	x := []float64{sol.Value(f.Beamlets[0]), sol.Value(f.Beamlets[1])}
	doses, err := in.dm.Doses(x)
	require.NoError(t, err)
	for _, v := range in.reg.VoxelsOf(anatomy.CTV) {
		assert.GreaterOrEqual(t, doses[v-1], 80-1e-6)
		assert.LessOrEqual(t, doses[v-1], 85+1e-6)
	}
}

// TestSolve_SingleVoxel: d = 1 and target [80, 85] gives x in [80, 85].
func TestSolve_SingleVoxel(t *testing.T) {
	in := mkInstance(t, []anatomy.Structure{anatomy.CTV}, [][]float64{{1}})
	f := in.build(t, plan.Prescription{Rules: []plan.Rule{plan.Target(anatomy.CTV, 80, 85)}}, plan.BuildOptions{})

	sol := solveOptimal(t, f)
	x := sol.Value(f.Beamlets[0])
	assert.GreaterOrEqual(t, x, 80-1e-9)
	assert.LessOrEqual(t, x, 85+1e-9)
	assert.Zero(t, sol.Objective)
}

// TestSolve_Scaling: doubling every dose coefficient with bounds unchanged
// halves the unique optimal intensities.
func TestSolve_Scaling(t *testing.T) {
	owners := []anatomy.Structure{anatomy.CTV, anatomy.CTV, anatomy.Bladder}
	rows := [][]float64{
		{1, 0},
		{0, 1},
		{0.1, 0.1},
	}
	presc := plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 80, 80),
			plan.Max(anatomy.Bladder, 50, "bladder-max"),
		},
		Weights: map[plan.Penalty]float64{"bladder-max": 1},
	}

	in := mkInstance(t, owners, rows)
	f := in.build(t, presc, plan.BuildOptions{})
	base := solveOptimal(t, f)

	doubled := instance{reg: in.reg, dm: in.dm.Scale(2)}
	g := doubled.build(t, presc, plan.BuildOptions{})
	half := solveOptimal(t, g)

	for b := range f.Beamlets {
		assert.InDelta(t, 80, base.Value(f.Beamlets[b]), 1e-6)
		assert.InDelta(t, base.Value(f.Beamlets[b])/2, half.Value(g.Beamlets[b]), 1e-6)
	}
}

// TestSolve_ZeroSlack: thresholds satisfiable without penalty leave every
// slack at zero even with large weights.
func TestSolve_ZeroSlack(t *testing.T) {
	in := mkInstance(t,
		[]anatomy.Structure{anatomy.CTV, anatomy.Bladder, anatomy.Rectum, anatomy.Rectum},
		[][]float64{
			{1, 1},
			{0.2, 0.2},
			{0.1, 0.3},
			{0.3, 0.1},
		})
	f := in.build(t, plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 80, 85),
			plan.Max(anatomy.Bladder, 81, ""),
			plan.Mean(anatomy.Bladder, 50, plan.BladderMean),
			plan.Max(anatomy.Rectum, 79.2, plan.RectumMax),
			plan.Mean(anatomy.Rectum, 40, plan.RectumMean),
		},
		Weights: map[plan.Penalty]float64{plan.BladderMean: 1000, plan.RectumMax: 5, plan.RectumMean: 5},
	}, plan.BuildOptions{})

	sol := solveOptimal(t, f)
	assert.InDelta(t, 0, sol.Objective, 1e-9)
	for _, p := range f.Penalties {
		assert.InDelta(t, 0, sol.Value(f.Slacks[p]), 1e-9, "%s", p)
	}
}

// volumeInstance: one target voxel pinning x = 10, ten bladder voxels of
// which exactly two (voxels 2 and 3) receive 5 Gy and the rest 1 Gy.
func volumeInstance(t *testing.T) instance {
	owners := []anatomy.Structure{anatomy.CTV}
	rows := [][]float64{{1}}
	for i := 0; i < 10; i++ {
		owners = append(owners, anatomy.Bladder)
		d := 0.1
		if i < 2 {
			d = 0.5
		}
		rows = append(rows, []float64{d})
	}

	return mkInstance(t, owners, rows)
}

func volumePrescription(fraction float64) plan.Prescription {
	return plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 10, 10),
			plan.Volume(anatomy.Bladder, fraction, 3, plan.BladderVolume),
		},
		Weights: map[plan.Penalty]float64{plan.BladderVolume: 7},
	}
}

func TestSolve_VolumeFraction(t *testing.T) {
	in := volumeInstance(t)
	f := in.build(t, volumePrescription(0.2), plan.BuildOptions{})
	assert.InDelta(t, 6, f.BigM, 1e-9, "max dose 0.5·10 plus one")

	sol := solveOptimal(t, f)
	assert.InDelta(t, 0, sol.Value(f.Slacks[plan.BladderVolume]), 1e-9)

	doses, err := in.dm.Doses([]float64{sol.Value(f.Beamlets[0])})
	require.NoError(t, err)
	require.Len(t, f.Indicators, 1)
	set := f.Indicators[0]
	for i, v := range set.Voxels {
		want := 0.0
		if doses[v-1] > 3 {
			want = 1
		}
		assert.Equal(t, want, sol.Value(set.Vars[i]), "indicator of voxel %d", v)
	}
}

func TestSolve_VolumeFractionTight(t *testing.T) {
	in := volumeInstance(t)
	f := in.build(t, volumePrescription(0.1), plan.BuildOptions{})

	sol := solveOptimal(t, f)
	// One hot voxel may be flagged; the other needs 5 − 3 = 2 of slack.
	assert.InDelta(t, 2, sol.Value(f.Slacks[plan.BladderVolume]), 1e-6)
	assert.InDelta(t, 14, sol.Objective, 1e-6)
}

func TestBigM_Derived(t *testing.T) {
	in := toy(t)
	presc := plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 80, 85),
			plan.Volume(anatomy.Bladder, 0.5, 10, plan.BladderVolume),
		},
		Weights: map[plan.Penalty]float64{plan.BladderVolume: 1},
	}
	f := in.build(t, presc, plan.BuildOptions{})
	assert.True(t, f.BigMVerified)

	// Any intensity that keeps the target feasible keeps each beamlet under
	// its cap, so the derived M dominates every achievable organ dose.
	caps := []float64{85, 85}
	for _, v := range in.reg.VoxelsOf(anatomy.Bladder) {
		worst, err := in.dm.MaxDose(v, caps)
		require.NoError(t, err)
		assert.Greater(t, f.BigM, worst)
	}

	// The worst excess is 0.3·85 − 10 = 15.5.
	_, err := plan.Build(in.reg, in.dm, presc, plan.BuildOptions{BigM: 15})
	assert.ErrorIs(t, err, plan.ErrBigMTooSmall)

	f = in.build(t, presc, plan.BuildOptions{BigM: 300})
	assert.Equal(t, 300.0, f.BigM)
	assert.True(t, f.BigMVerified)
}

func TestBigM_Underivable(t *testing.T) {
	// Beamlet 1 never reaches the target, so nothing bounds it.
	in := mkInstance(t,
		[]anatomy.Structure{anatomy.CTV, anatomy.Bladder},
		[][]float64{
			{1, 0},
			{0.5, 0.5},
		})
	presc := plan.Prescription{
		Rules: []plan.Rule{
			plan.Target(anatomy.CTV, 80, 85),
			plan.Volume(anatomy.Bladder, 0, 40, ""),
		},
	}

	_, err := plan.Build(in.reg, in.dm, presc, plan.BuildOptions{})
	assert.ErrorIs(t, err, plan.ErrBigMUnderivable)

	f := in.build(t, presc, plan.BuildOptions{BigM: 300})
	assert.False(t, f.BigMVerified)

	f = in.build(t, presc, plan.BuildOptions{MaxIntensity: 100})
	assert.True(t, f.BigMVerified)
	assert.InDelta(t, 0.5*85+0.5*100+1, f.BigM, 1e-9)
}

func TestBigM_NoVolumeRules(t *testing.T) {
	in := toy(t)
	f := in.build(t, plan.Prescription{Rules: []plan.Rule{plan.Target(anatomy.CTV, 80, 85)}}, plan.BuildOptions{})
	assert.Zero(t, f.BigM)
	assert.True(t, f.BigMVerified)
	assert.Empty(t, f.Indicators)
}

// TestBuild_ReferenceProtocol builds the full rule set on a small mixed
// instance and checks the formulation stays within the reference sizes.
func TestBuild_ReferenceProtocol(t *testing.T) {
	owners := []anatomy.Structure{
		anatomy.CTV, anatomy.CTV, anatomy.Bladder, anatomy.Bladder, anatomy.Rectum,
		anatomy.Unspecified, anatomy.LeftFemurHead, anatomy.RightFemurHead,
	}
	rows := make([][]float64, len(owners))
	for v := range rows {
		rows[v] = []float64{1 / float64(v+1), 0.5, 1 - 1/float64(v+2)}
	}
	in := mkInstance(t, owners, rows)

	weights := make(map[plan.Penalty]float64, len(plan.Penalties))
	for i, p := range plan.Penalties {
		weights[p] = float64(i + 1)
	}
	f := in.build(t, plan.Prescription{Rules: plan.ReferenceRules(80.73, 84.78), Weights: weights}, plan.BuildOptions{})

	assert.Len(t, f.Slacks, 9)
	assert.Len(t, f.Indicators, 3)
	assert.Equal(t, 4, f.Model.NumIntegers(), "two bladder, one per femur head")
	assert.True(t, f.BigMVerified)
	assert.False(t, math.IsInf(f.BigM, 0))
}
