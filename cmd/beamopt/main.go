// SPDX-License-Identifier: MIT

// Package main provides the beamopt command line tool.
//
// beamopt reads a dose-influence matrix and a voxel structure map, builds the
// beam-intensity MIP for a named plan preset, solves it and reports the dose
// per structure, the beamlet intensities and the penalty slacks.
//
// Usage:
//
//	beamopt init
//	beamopt solve --plan plan2 --dose DoseMatrix.csv --structures Structures.csv
//	beamopt plans
//
// See --help for all available options.
package main

func main() {
	Execute()
}
