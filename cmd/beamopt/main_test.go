package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/beamopt/config"
	"github.com/katalvlaran/beamopt/solve"
)

// fixture writes a 2-beamlet, 4-voxel case: two target voxels, one bladder
// voxel seeing both beamlets and one unspecified voxel. It returns the
// config path.
func fixture(t *testing.T, bladderRow string) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}
	dosePath := write("dose.csv", "voxel,b1,b2\n1,1,0\n2,0,1\n3,"+bladderRow+"\n4,0.1,0.1\n")
	structPath := write("structures.csv", "voxel,structure\n1,CTV\n2,CTV\n3,Bladder\n4,Unspecified region\n")

	return write("beamopt.yaml", "input:\n  dose: "+dosePath+"\n  structures: "+structPath+"\n  beamlets: 2\n  voxels: 4\n")
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"solve", "init", "plans", "version"})
	assert.True(t, cmd.SilenceUsage)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSolve_TextReport(t *testing.T) {
	cfg := fixture(t, "0.5,0.5")
	out, logs, err := run(t, "solve", "--config", cfg)
	require.NoError(t, err, logs)

	assert.Contains(t, out, "Status OPTIMAL")
	assert.Contains(t, out, ", plan plan1")
	assert.Contains(t, out, "Intensity of beamlet 1 is: 80.730000")
	assert.Contains(t, out, "Intensity of beamlet 2 is: 80.730000")
	assert.Contains(t, out, "Value of slack[bladder-mean] is: 30.730000")
	assert.Contains(t, out, "Rectal Solid: no voxels")
	assert.Contains(t, logs, "run_id")
}

func TestSolve_JSONWithHeatmap(t *testing.T) {
	cfg := fixture(t, "0.5,0.5")
	out, logs, err := run(t, "solve", "--config", cfg, "--format", "json", "--heatmap", "--node-limit", "500")
	require.NoError(t, err, logs)

	var got struct {
		RunID       string    `json:"run_id"`
		Plan        string    `json:"plan"`
		Status      string    `json:"status"`
		Intensities []float64 `json:"intensities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, "plan1", got.Plan)
	assert.Equal(t, "OPTIMAL", got.Status)
	require.Len(t, got.Intensities, 2)
	assert.InDelta(t, 80.73, got.Intensities[0], 1e-6)
	assert.Contains(t, logs, "structure boundary")
}

func TestSolve_Infeasible(t *testing.T) {
	// The bladder voxel sees 1.1 times beamlet 1, which the target holds
	// above 80.73, so the hard 81 Gy bladder limit cannot be met.
	cfg := fixture(t, "1.1,0")
	out, _, err := run(t, "solve", "--config", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, solve.ErrNoSolution)
	assert.Contains(t, out, "The problem does not have an optimal solution.")
}

func TestSolve_FlagErrors(t *testing.T) {
	cfg := fixture(t, "0.5,0.5")

	_, _, err := run(t, "solve", "--config", cfg, "--plan", "plan9")
	assert.ErrorIs(t, err, config.ErrUnknownPlan)

	_, _, err = run(t, "solve", "--config", cfg, "--format", "pdf")
	assert.ErrorIs(t, err, config.ErrInvalidFormat)

	_, _, err = run(t, "solve", "--config", cfg, "--voxels", "9")
	assert.Error(t, err)

	_, _, err = run(t, "solve", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "beamopt.yaml")
	out, _, err := run(t, "init", "-o", p)
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration file")

	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, _, err = run(t, "init", "-o", p)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = run(t, "init", "-o", p, "-f")
	assert.NoError(t, err)
}

func TestPlans_ListsPresets(t *testing.T) {
	p := filepath.Join(t.TempDir(), "beamopt.yaml")
	_, _, err := run(t, "init", "-o", p)
	require.NoError(t, err)

	out, _, err := run(t, "plans", "--config", p)
	require.NoError(t, err)
	assert.Contains(t, out, "* plan1: target [80.73, 84.78]")
	assert.Contains(t, out, "  plan2: target [79.5, 85], structures Structures-alt.csv")
	assert.Equal(t, 3+3*9, strings.Count(out, "\n"))
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "beamopt "))
}
