package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/beamopt/config"
	"github.com/katalvlaran/beamopt/plan"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestDefault_Valid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "plan1", cfg.Plan)
	assert.Equal(t, []string{"plan1", "plan2", "plan3"}, cfg.PlanNames())
	assert.Equal(t, 60, cfg.Input.Beamlets)
	assert.Equal(t, 400, cfg.Input.Voxels)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestPresets_CoverEverySoftRule(t *testing.T) {
	for name, p := range config.Presets() {
		presc := p.Prescription()
		for _, r := range presc.Rules {
			if r.Penalty.Hard() {
				continue
			}
			_, ok := presc.Weights[r.Penalty]
			assert.True(t, ok, "%s: no weight for %s", name, r.Penalty)
		}
		assert.Len(t, presc.Weights, len(plan.Penalties), name)
	}
}

func TestPresets_Values(t *testing.T) {
	ps := config.Presets()
	assert.Equal(t, 150.0, ps["plan1"].Weights[string(plan.LFHMax)])
	assert.Equal(t, 5000.0, ps["plan2"].Weights[string(plan.LFHMax)])
	assert.Equal(t, 79.5, ps["plan2"].LowerBound)
	assert.Equal(t, 1000.0, ps["plan3"].Weights[string(plan.BladderMean)])
	assert.Empty(t, ps["plan1"].Structures)
	assert.NotEmpty(t, ps["plan3"].Structures)
}

func TestSelected_AndStructureFile(t *testing.T) {
	cfg := config.Default()
	name, p, err := cfg.Selected()
	require.NoError(t, err)
	assert.Equal(t, "plan1", name)
	assert.Equal(t, 84.78, p.UpperBound)
	assert.Equal(t, config.DefaultStructFile, cfg.StructureFile())

	cfg.Plan = "plan2"
	assert.Equal(t, "Structures-alt.csv", cfg.StructureFile())

	cfg.Plan = "plan9"
	_, _, err = cfg.Selected()
	assert.ErrorIs(t, err, config.ErrUnknownPlan)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unknown plan", func(c *config.Config) { c.Plan = "nope" }, config.ErrUnknownPlan},
		{"inverted bounds", func(c *config.Config) {
			p := c.Plans["plan1"]
			p.LowerBound = 90
			c.Plans["plan1"] = p
		}, config.ErrInvalidBounds},
		{"zero weight", func(c *config.Config) { c.Plans["plan1"].Weights["rectum-max"] = 0 }, config.ErrInvalidWeight},
		{"negative time", func(c *config.Config) { c.Solver.TimeLimit = -time.Second }, config.ErrInvalidTimeLimit},
		{"negative nodes", func(c *config.Config) { c.Solver.NodeLimit = -1 }, config.ErrInvalidNodeLimit},
		{"gap", func(c *config.Config) { c.Solver.Gap = 1 }, config.ErrInvalidGap},
		{"no dose file", func(c *config.Config) { c.Input.Dose = "" }, config.ErrInvalidInput},
		{"format", func(c *config.Config) { c.Report.Format = "pdf" }, config.ErrInvalidFormat},
		{"grid", func(c *config.Config) { c.Report.GridWidth = -2 }, config.ErrInvalidGridWidth},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }, config.ErrInvalidLogLevel},
		{"big-m", func(c *config.Config) { c.Model.BigM = -5 }, config.ErrInvalidModelValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	p := writeFile(t, "c.yaml", `
plan: tight
plans:
  tight:
    lower_bound: 80
    upper_bound: 82
    weights:
      bladder-mean: 2
input:
  dose: d.csv
  beamlets: 4
solver:
  time_limit: 45s
  node_limit: 100
report:
  format: markdown
model:
  big_m: 300
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "tight", cfg.Plan)
	assert.Equal(t, []string{"tight"}, cfg.PlanNames())
	assert.Equal(t, 2.0, cfg.Plans["tight"].Weights["bladder-mean"])
	assert.Equal(t, "d.csv", cfg.Input.Dose)
	assert.Equal(t, config.DefaultStructFile, cfg.Input.Structures)
	assert.Equal(t, 4, cfg.Input.Beamlets)
	assert.Equal(t, 45*time.Second, cfg.Solver.TimeLimit)
	assert.Equal(t, 100, cfg.Solver.NodeLimit)
	assert.Equal(t, "markdown", cfg.Report.Format)
	assert.Equal(t, 300.0, cfg.BuildOptions().BigM)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BEAMOPT_PLAN", "plan3")
	t.Setenv("BEAMOPT_SOLVER_TIME_LIMIT", "30s")
	t.Setenv("BEAMOPT_SOLVER_NODE_LIMIT", "50")
	t.Setenv("BEAMOPT_REPORT_HEATMAP", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "plan3", cfg.Plan)
	assert.Equal(t, 30*time.Second, cfg.Solver.TimeLimit)
	assert.Equal(t, 50, cfg.Solver.NodeLimit)
	assert.True(t, cfg.Report.Heatmap)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := writeFile(t, "bad.yaml", "plan: plan7\n")
	_, err = config.Load(p)
	assert.ErrorIs(t, err, config.ErrUnknownPlan)
}

func TestWriteTemplate_LoadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, config.WriteTemplate(&buf, config.Default()))
	assert.Contains(t, buf.String(), "# beamopt configuration.")
	assert.Contains(t, buf.String(), "lfh-max: 150")

	p := writeFile(t, "beamopt.yaml", buf.String())
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFindConfigFile(t *testing.T) {
	p := writeFile(t, "x.yaml", "plan: plan1\n")
	got, err := config.FindConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = config.FindConfigFile(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	p := writeFile(t, ".env", "BEAMOPT_LOG_LEVEL=debug\n")
	t.Setenv("BEAMOPT_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("BEAMOPT_LOG_LEVEL"))

	require.NoError(t, config.LoadDotEnv(p, filepath.Join(t.TempDir(), "absent.env")))
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
