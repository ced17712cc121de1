// SPDX-License-Identifier: MIT

// Package config holds the beamopt run configuration: the named plan presets,
// input files, solver limits, report options, logging and model options.
//
// Loading order:
//  1. LoadDotEnv reads .env files into the process environment (godotenv).
//  2. Load reads the YAML file through viper; BEAMOPT_* variables override
//     scalar keys ("solver.time_limit" ← BEAMOPT_SOLVER_TIME_LIMIT).
//  3. ApplyDefaults fills unset fields; Validate checks the result.
//
// A plan is selected by name at invocation time; Selected resolves it.
package config
