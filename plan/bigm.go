// SPDX-License-Identifier: MIT

package plan

import (
	"fmt"
	"math"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
)

// beamletCaps returns an upper bound on every beamlet implied by the model.
// Coefficients are non-negative, so a target voxel v with d[v][b] > 0 and
// upper bound U forces x[b] ≤ U/d[v][b]. Beamlets no target voxel sees fall
// back to maxIntensity, or +Inf when that is 0.
//
// Complexity: O(|target|*B).
func beamletCaps(dm *dose.Matrix, target []int, upper, maxIntensity float64) []float64 {
	var (
		caps = make([]float64, dm.Beamlets())
		fill = math.Inf(1)
	)
	if maxIntensity > 0 {
		fill = maxIntensity
	}
	for b := range caps {
		caps[b] = fill
	}
	for _, v := range target {
		row, _ := dm.Row(v)
		for b, d := range row {
			if d > 0 {
				caps[b] = math.Min(caps[b], upper/d)
			}
		}
	}

	return caps
}

// resolveBigM picks the indicator coefficient for the volume rules.
//
// The worst case of each volume voxel is maxDose(v) under the caps; the row
// D(v) − M·y − s ≤ T must be slack for y = 1, so M ≥ maxDose(v) − T.
// A derived M is the largest maxDose plus one. A configured M is checked
// against the requirement when every maxDose is finite, otherwise it is
// accepted unverified.
func resolveBigM(reg *anatomy.Registry, dm *dose.Matrix, rules []Rule, caps []float64, configured float64) (m float64, verified bool, err error) {
	var (
		need     = math.Inf(-1)
		worst    float64
		finite   = true
		anyRules bool
	)
	for _, r := range rules {
		if r.Kind != VolumeFraction {
			continue
		}
		anyRules = true
		for _, v := range reg.VoxelsOf(r.Structure) {
			d, err := dm.MaxDose(v, caps)
			if err != nil {
				return 0, false, err
			}
			if math.IsInf(d, 1) {
				finite = false
				continue
			}
			worst = math.Max(worst, d)
			need = math.Max(need, d-r.Upper)
		}
	}

	switch {
	case !anyRules:
		return configured, true, nil
	case configured > 0 && !finite:
		return configured, false, nil
	case configured > 0:
		if configured < need {
			return 0, false, fmt.Errorf("M=%g, need ≥ %g: %w", configured, need, ErrBigMTooSmall)
		}

		return configured, true, nil
	case !finite:
		return 0, false, ErrBigMUnderivable
	default:
		return worst + 1, true, nil
	}
}
