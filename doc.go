// Package beamopt computes beamlet intensities for intensity-modulated
// radiotherapy plans.
//
// A plan holds a target volume between a lower and an upper dose bound
// while organs at risk are kept under maximum, mean and dose-volume limits.
// Limits may be hard or soft; soft limits carry a weighted slack and the
// objective minimizes the weighted slack sum.
//
// The module is organized as:
//
//	anatomy/   voxel → structure registry (partition of 1..V)
//	dose/      dose-influence matrix and dose aggregation
//	mip/       mixed-integer linear model and branch-and-bound solver
//	plan/      rule set → MIP formulation, big-M derivation
//	solve/     solve driver with limits, logging and result extraction
//	report/    per-structure statistics, text/markdown/JSON writers, heatmap
//	ingest/    CSV loading of the dose matrix and the structure map
//	config/    plan presets, viper/YAML configuration, env overrides
//	logging/   structured logging over zap
//	cmd/beamopt command line tool
//
// Quick start:
//
//	beamopt init
//	beamopt solve --plan plan1 --dose DoseMatrix.csv --structures Structures.csv
package beamopt
