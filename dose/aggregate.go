// SPDX-License-Identifier: MIT

package dose

import "fmt"

// VoxelDose returns Σ_b d[voxel][b]·x[b].
func (m *Matrix) VoxelDose(voxel int, x []float64) (float64, error) {
	if len(x) != m.beamlets {
		return 0, ErrDimensionMismatch
	}
	if voxel < 1 || voxel > m.voxels {
		return 0, fmt.Errorf("Matrix.VoxelDose(%d): %w", voxel, ErrVoxelOutOfRange)
	}

	return dot(m.row(voxel), x), nil
}

// Doses returns the total dose of every voxel for intensities x;
// out[v-1] is the dose of voxel v.
//
// Complexity: O(V*B).
func (m *Matrix) Doses(x []float64) ([]float64, error) {
	if len(x) != m.beamlets {
		return nil, ErrDimensionMismatch
	}
	out := make([]float64, m.voxels)
	for v := 1; v <= m.voxels; v++ {
		out[v-1] = dot(m.row(v), x)
	}

	return out, nil
}

// ColumnSums returns, for each beamlet b, Σ_{v∈voxels} d[v][b]. This is the
// coefficient vector of a structure's aggregate (mean) dose row.
//
// Complexity: O(|voxels|*B).
func (m *Matrix) ColumnSums(voxels []int) ([]float64, error) {
	out := make([]float64, m.beamlets)
	for _, v := range voxels {
		if v < 1 || v > m.voxels {
			return nil, fmt.Errorf("Matrix.ColumnSums(%d): %w", v, ErrVoxelOutOfRange)
		}
		for b, x := range m.row(v) {
			out[b] += x
		}
	}

	return out, nil
}

// MaxDose bounds the dose of voxel when each beamlet b is capped by caps[b].
// An infinite cap on a beamlet with a positive coefficient yields +Inf.
func (m *Matrix) MaxDose(voxel int, caps []float64) (float64, error) {
	if len(caps) != m.beamlets {
		return 0, ErrDimensionMismatch
	}
	if voxel < 1 || voxel > m.voxels {
		return 0, fmt.Errorf("Matrix.MaxDose(%d): %w", voxel, ErrVoxelOutOfRange)
	}
	var total float64
	for b, d := range m.row(voxel) {
		if d == 0 {
			continue // 0·Inf would be NaN
		}
		total += d * caps[b]
	}

	return total, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}

	return s
}
