// SPDX-License-Identifier: MIT

// Package plan turns a structure registry, a dose-deposition matrix and a
// set of clinical rules into a mixed-integer linear program.
//
// Variables:
//   - x[b] ≥ 0 per beamlet (optionally capped by BuildOptions.MaxIntensity);
//   - one non-negative slack per penalty key, weighted in the objective;
//   - one binary indicator per voxel per VolumeFraction rule.
//
// Rows, for voxel v with D(v) = Σ_b d[v][b]·x[b]:
//
//	TargetBound     lower ≤ D(v) ≤ upper                       (every voxel, hard)
//	MaxDose         0 ≤ D(v) − s ≤ T                           (every voxel)
//	MeanDose        0 ≤ Σ_b (Σ_v d[v][b])·x[b] − N·s ≤ N·mean   (one row, N > 0)
//	VolumeFraction  D(v) − M·y(v) − s ≤ T                      (every voxel)
//	                0 ≤ Σ_v y(v) ≤ F·N                         (one row)
//
// An empty Penalty makes a rule hard: the slack term is omitted.
// The objective is Σ_k w_k·s_k; beamlets and indicators carry no cost.
//
// M is derived from the target rows unless configured, see BuildOptions.
package plan
