// SPDX-License-Identifier: MIT

// Package dose stores the dose-deposition matrix of a treatment plan.
//
// A Matrix holds d[v][b]: the dose delivered to voxel v (1-based, 1..V) per unit
// intensity of beamlet b (0-based, 0..B-1). Storage is a single row-major
// buffer (offset = (v-1)*B + b); accessors return errors instead of panicking.
//
// Numeric policy:
//   - Set rejects NaN and ±Inf (ErrNaNInf).
//   - Validate additionally rejects negative coefficients (ErrNegativeDose).
//   - After loading, the matrix is treated as immutable; Scale returns a copy.
//
// Complexity quicksheet:
//   - NewMatrix: O(V*B) zero-init; At/Set: O(1); Row: O(B) copy;
//     ColumnSums: O(|voxels|*B); Doses: O(V*B).
package dose
