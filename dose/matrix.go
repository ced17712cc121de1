// SPDX-License-Identifier: MIT

package dose

import (
	"fmt"
	"math"
)

const (
	ctxAt  = "At"
	ctxSet = "Set"
)

// Matrix is a dense V×B dose-deposition matrix.
type Matrix struct {
	voxels   int
	beamlets int
	data     []float64 // row-major, len == voxels*beamlets
}

// NewMatrix returns a zero V×B matrix.
//
// Errors: ErrInvalidDimensions.
func NewMatrix(voxels, beamlets int) (*Matrix, error) {
	if voxels <= 0 || beamlets <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Matrix{
		voxels:   voxels,
		beamlets: beamlets,
		data:     make([]float64, voxels*beamlets),
	}, nil
}

// FromRows builds a matrix from rows[v-1][b]. Every row must have the same
// length. Values pass through Set, so NaN/Inf are rejected.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimensions
	}
	m, err := NewMatrix(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != m.beamlets {
			return nil, fmt.Errorf("FromRows: row %d has %d beamlets, want %d: %w",
				i+1, len(row), m.beamlets, ErrDimensionMismatch)
		}
		for b, x := range row {
			if err = m.Set(i+1, b, x); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// Voxels returns V.
func (m *Matrix) Voxels() int { return m.voxels }

// Beamlets returns B.
func (m *Matrix) Beamlets() int { return m.beamlets }

// offset bounds-checks (voxel, beamlet) and returns the flat index.
func (m *Matrix) offset(voxel, beamlet int) (int, error) {
	if voxel < 1 || voxel > m.voxels {
		return 0, ErrVoxelOutOfRange
	}
	if beamlet < 0 || beamlet >= m.beamlets {
		return 0, ErrBeamletOutOfRange
	}

	return (voxel-1)*m.beamlets + beamlet, nil
}

// At returns d[voxel][beamlet].
func (m *Matrix) At(voxel, beamlet int) (float64, error) {
	off, err := m.offset(voxel, beamlet)
	if err != nil {
		return 0, cellErrorf(ctxAt, voxel, beamlet, err)
	}

	return m.data[off], nil
}

// Set stores d[voxel][beamlet] = x. NaN and ±Inf are rejected; negativity is
// checked by Validate so that loaders can report all problems in one pass.
func (m *Matrix) Set(voxel, beamlet int, x float64) error {
	off, err := m.offset(voxel, beamlet)
	if err != nil {
		return cellErrorf(ctxSet, voxel, beamlet, err)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return cellErrorf(ctxSet, voxel, beamlet, ErrNaNInf)
	}
	m.data[off] = x

	return nil
}

// Row returns a copy of the coefficients of voxel.
func (m *Matrix) Row(voxel int) ([]float64, error) {
	if voxel < 1 || voxel > m.voxels {
		return nil, fmt.Errorf("Matrix.Row(%d): %w", voxel, ErrVoxelOutOfRange)
	}
	out := make([]float64, m.beamlets)
	copy(out, m.row(voxel))

	return out, nil
}

// row is the unchecked view used by hot loops inside the module.
func (m *Matrix) row(voxel int) []float64 {
	start := (voxel - 1) * m.beamlets

	return m.data[start : start+m.beamlets]
}

// Validate enforces the numeric policy: every coefficient finite and ≥ 0.
//
// Complexity: O(V*B).
func (m *Matrix) Validate() error {
	var (
		v, b int
		x    float64
	)
	for v = 1; v <= m.voxels; v++ {
		for b = 0; b < m.beamlets; b++ {
			x = m.data[(v-1)*m.beamlets+b]
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return cellErrorf("Validate", v, b, ErrNaNInf)
			}
			if x < 0 {
				return cellErrorf("Validate", v, b, ErrNegativeDose)
			}
		}
	}

	return nil
}

// Scale returns a copy with every coefficient multiplied by alpha.
func (m *Matrix) Scale(alpha float64) *Matrix {
	cp := make([]float64, len(m.data))
	for i, x := range m.data {
		cp[i] = alpha * x
	}

	return &Matrix{voxels: m.voxels, beamlets: m.beamlets, data: cp}
}
