// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/katalvlaran/beamopt/logging"
	"github.com/katalvlaran/beamopt/plan"
	"github.com/katalvlaran/beamopt/report"
)

// Defaults.
const (
	DefaultPlan       = "plan1"
	DefaultDoseFile   = "DoseMatrix.csv"
	DefaultStructFile = "Structures.csv"
	DefaultBeamlets   = 60
	DefaultVoxels     = 400
)

// Validation errors returned by Config.Validate.
var (
	ErrUnknownPlan       = errors.New("config: unknown plan")
	ErrInvalidBounds     = errors.New("config: target bounds need 0 <= lower_bound <= upper_bound")
	ErrInvalidWeight     = errors.New("config: weights must be finite and > 0")
	ErrInvalidTimeLimit  = errors.New("config: time limit must be non-negative")
	ErrInvalidNodeLimit  = errors.New("config: node limit must be non-negative")
	ErrInvalidGap        = errors.New("config: gap must be in [0, 1)")
	ErrInvalidInput      = errors.New("config: input needs dose and structure files and beamlets > 0")
	ErrInvalidFormat     = errors.New("config: report format must be text, markdown or json")
	ErrInvalidGridWidth  = errors.New("config: report grid width must be > 0")
	ErrInvalidLogLevel   = errors.New("config: log level must be debug, info, warn or error")
	ErrInvalidModelValue = errors.New("config: big_m and max_intensity must be finite and >= 0")
)

// PlanConfig is one preset: objective weights keyed by penalty name and the
// target dose bounds.
type PlanConfig struct {
	Weights    map[string]float64 `mapstructure:"weights" yaml:"weights"`
	LowerBound float64            `mapstructure:"lower_bound" yaml:"lower_bound"`
	UpperBound float64            `mapstructure:"upper_bound" yaml:"upper_bound"`

	// Structures overrides Input.Structures for this plan.
	Structures string `mapstructure:"structures" yaml:"structures,omitempty"`
}

// InputConfig names the input files and their dimensions.
type InputConfig struct {
	Dose       string `mapstructure:"dose" yaml:"dose"`
	Structures string `mapstructure:"structures" yaml:"structures"`
	Beamlets   int    `mapstructure:"beamlets" yaml:"beamlets"`
	Voxels     int    `mapstructure:"voxels" yaml:"voxels"`
}

// SolverConfig bounds the solve; zero values run to completion.
type SolverConfig struct {
	TimeLimit time.Duration `mapstructure:"time_limit" yaml:"time_limit"`
	NodeLimit int           `mapstructure:"node_limit" yaml:"node_limit"`
	Gap       float64       `mapstructure:"gap" yaml:"gap"`
}

// ReportConfig selects the report writer and the heatmap.
type ReportConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	Heatmap   bool   `mapstructure:"heatmap" yaml:"heatmap"`
	GridWidth int    `mapstructure:"grid_width" yaml:"grid_width"`
}

// ModelConfig carries plan.BuildOptions; zero values derive big-M and
// leave beamlets unbounded.
type ModelConfig struct {
	BigM         float64 `mapstructure:"big_m" yaml:"big_m"`
	MaxIntensity float64 `mapstructure:"max_intensity" yaml:"max_intensity"`
}

// Config is the complete run configuration.
type Config struct {
	Plan   string                `mapstructure:"plan" yaml:"plan"`
	Plans  map[string]PlanConfig `mapstructure:"plans" yaml:"plans"`
	Input  InputConfig           `mapstructure:"input" yaml:"input"`
	Solver SolverConfig          `mapstructure:"solver" yaml:"solver"`
	Report ReportConfig          `mapstructure:"report" yaml:"report"`
	Log    logging.Config        `mapstructure:"log" yaml:"log"`
	Model  ModelConfig           `mapstructure:"model" yaml:"model"`
}

// weightVector keys a positional weight list by the reference penalty order.
func weightVector(w ...float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for i, p := range plan.Penalties {
		out[string(p)] = w[i]
	}

	return out
}

// Presets returns the three reference plans. plan2 and plan3 use the
// alternative structure grouping (second sheet of the structure workbook).
func Presets() map[string]PlanConfig {
	return map[string]PlanConfig{
		"plan1": {
			Weights:    weightVector(1, 1, 5, 5, 1, 150, 150, 1, 1),
			LowerBound: 80.73,
			UpperBound: 84.78,
		},
		"plan2": {
			Weights:    weightVector(1, 1, 1, 1, 200, 5000, 1000, 1000, 600),
			LowerBound: 79.5,
			UpperBound: 85,
			Structures: "Structures-alt.csv",
		},
		"plan3": {
			Weights:    weightVector(1000, 1, 1000, 1000, 200, 200, 200, 100, 100),
			LowerBound: 80.73,
			UpperBound: 84.78,
			Structures: "Structures-alt.csv",
		},
	}
}

// Default returns a complete configuration with the reference presets.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)

	return cfg
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	if cfg.Plan == "" {
		cfg.Plan = DefaultPlan
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = Presets()
	}
	if cfg.Input.Dose == "" {
		cfg.Input.Dose = DefaultDoseFile
	}
	if cfg.Input.Structures == "" {
		cfg.Input.Structures = DefaultStructFile
	}
	if cfg.Input.Beamlets == 0 {
		cfg.Input.Beamlets = DefaultBeamlets
	}
	if cfg.Input.Voxels == 0 {
		cfg.Input.Voxels = DefaultVoxels
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = string(report.FormatText)
	}
	if cfg.Report.GridWidth == 0 {
		cfg.Report.GridWidth = report.DefaultGridWidth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func validNonNegative(x float64) bool { return x >= 0 && !math.IsInf(x, 0) }

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := c.Plans[c.Plan]; !ok {
		return fmt.Errorf("%w: %q (have %v)", ErrUnknownPlan, c.Plan, c.PlanNames())
	}
	for name, p := range c.Plans {
		if !validNonNegative(p.LowerBound) || !validNonNegative(p.UpperBound) || p.LowerBound > p.UpperBound {
			return fmt.Errorf("plan %q: %w", name, ErrInvalidBounds)
		}
		for k, w := range p.Weights {
			if !(w > 0) || math.IsInf(w, 0) {
				return fmt.Errorf("plan %q, weight %q: %w", name, k, ErrInvalidWeight)
			}
		}
	}
	if c.Input.Dose == "" || c.Input.Structures == "" || c.Input.Beamlets <= 0 || c.Input.Voxels < 0 {
		return ErrInvalidInput
	}
	if c.Solver.TimeLimit < 0 {
		return ErrInvalidTimeLimit
	}
	if c.Solver.NodeLimit < 0 {
		return ErrInvalidNodeLimit
	}
	if !(c.Solver.Gap >= 0 && c.Solver.Gap < 1) {
		return ErrInvalidGap
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return ErrInvalidFormat
	}
	if c.Report.GridWidth <= 0 {
		return ErrInvalidGridWidth
	}
	if !logging.ValidLevel(c.Log.Level) {
		return ErrInvalidLogLevel
	}
	if !validNonNegative(c.Model.BigM) || !validNonNegative(c.Model.MaxIntensity) {
		return ErrInvalidModelValue
	}

	return nil
}

// PlanNames returns the preset names in sorted order.
func (c *Config) PlanNames() []string {
	names := make([]string, 0, len(c.Plans))
	for n := range c.Plans {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// Selected returns the active plan.
func (c *Config) Selected() (string, PlanConfig, error) {
	p, ok := c.Plans[c.Plan]
	if !ok {
		return "", PlanConfig{}, fmt.Errorf("%w: %q", ErrUnknownPlan, c.Plan)
	}

	return c.Plan, p, nil
}

// StructureFile returns the structure file of the active plan.
func (c *Config) StructureFile() string {
	if p, ok := c.Plans[c.Plan]; ok && p.Structures != "" {
		return p.Structures
	}

	return c.Input.Structures
}

// Prescription turns the preset into the reference rule set with its weights.
func (p PlanConfig) Prescription() plan.Prescription {
	w := make(map[plan.Penalty]float64, len(p.Weights))
	for k, v := range p.Weights {
		w[plan.Penalty(k)] = v
	}

	return plan.Prescription{
		Rules:   plan.ReferenceRules(p.LowerBound, p.UpperBound),
		Weights: w,
	}
}

// BuildOptions returns the model options.
func (c *Config) BuildOptions() plan.BuildOptions {
	return plan.BuildOptions{BigM: c.Model.BigM, MaxIntensity: c.Model.MaxIntensity}
}
