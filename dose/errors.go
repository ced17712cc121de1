// SPDX-License-Identifier: MIT

package dose

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions indicates a non-positive voxel or beamlet count.
	ErrInvalidDimensions = errors.New("dose: dimensions must be > 0")

	// ErrVoxelOutOfRange indicates a voxel id outside 1..V.
	ErrVoxelOutOfRange = errors.New("dose: voxel out of range")

	// ErrBeamletOutOfRange indicates a beamlet index outside 0..B-1.
	ErrBeamletOutOfRange = errors.New("dose: beamlet out of range")

	// ErrNaNInf indicates a NaN or ±Inf coefficient.
	ErrNaNInf = errors.New("dose: NaN or Inf coefficient")

	// ErrNegativeDose indicates a negative coefficient.
	ErrNegativeDose = errors.New("dose: negative coefficient")

	// ErrDimensionMismatch indicates an intensity vector whose length is not B.
	ErrDimensionMismatch = errors.New("dose: dimension mismatch")
)

// cellErrorf attaches method and coordinates to a sentinel.
func cellErrorf(method string, voxel, beamlet int, err error) error {
	return fmt.Errorf("Matrix.%s(%d,%d): %w", method, voxel, beamlet, err)
}
