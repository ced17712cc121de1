// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/beamopt/config"
	"github.com/katalvlaran/beamopt/ingest"
	"github.com/katalvlaran/beamopt/logging"
	"github.com/katalvlaran/beamopt/plan"
	"github.com/katalvlaran/beamopt/report"
	"github.com/katalvlaran/beamopt/solve"
)

// NewSolveCmd creates the solve command.
func NewSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Optimize beamlet intensities for one plan",
		Long: `Solve loads the dose matrix and the structure map, builds the model for
the selected plan and solves it.

The report goes to stdout and logs go to stderr. The exit status is 0 only
when the solve is proven optimal; a solution stopped by a limit is still
reported but exits 1.

Examples:
  beamopt solve
  beamopt solve --plan plan2 --format markdown
  beamopt solve --dose d.csv --structures s.csv --time-limit 5m --heatmap`,
		Args: cobra.NoArgs,
		RunE: runSolveCmd,
	}

	f := cmd.Flags()
	f.StringP("plan", "p", "", "Plan preset name")
	f.String("dose", "", "Dose matrix CSV (voxel id, then one column per beamlet)")
	f.String("structures", "", "Structure CSV (voxel id, structure label)")
	f.Int("beamlets", 0, "Number of beamlets in the dose matrix")
	f.Int("voxels", 0, "Expected number of voxels")
	f.StringP("format", "f", "", "Report format: text, markdown or json")
	f.Bool("heatmap", false, "Print the voxel dose heatmap")
	f.Duration("time-limit", 0, "Stop the search after this long (0 = no limit)")
	f.Int("node-limit", 0, "Stop the search after this many nodes (0 = no limit)")
	f.Float64("big-m", 0, "Indicator big-M (0 = derive from the target bound)")
	f.Float64("max-intensity", 0, "Upper bound on every beamlet (0 = unbounded)")

	return cmd
}

// loadConfig resolves and loads the configuration named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	var explicit string
	if fl := cmd.Flag("config"); fl != nil {
		explicit = fl.Value.String()
	}
	path, err := config.FindConfigFile(explicit)
	if err != nil {
		return nil, err
	}

	return config.Load(path)
}

// applyFlags copies explicitly set flags over cfg and revalidates.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}
	set("plan", func() (e error) { cfg.Plan, e = f.GetString("plan"); return })
	set("dose", func() (e error) { cfg.Input.Dose, e = f.GetString("dose"); return })
	set("structures", func() (e error) {
		cfg.Input.Structures, e = f.GetString("structures")
		// An explicit file wins over the preset's own sheet.
		if p, ok := cfg.Plans[cfg.Plan]; ok {
			p.Structures = ""
			cfg.Plans[cfg.Plan] = p
		}
		return
	})
	set("beamlets", func() (e error) { cfg.Input.Beamlets, e = f.GetInt("beamlets"); return })
	set("voxels", func() (e error) { cfg.Input.Voxels, e = f.GetInt("voxels"); return })
	set("format", func() (e error) { cfg.Report.Format, e = f.GetString("format"); return })
	set("heatmap", func() (e error) { cfg.Report.Heatmap, e = f.GetBool("heatmap"); return })
	set("time-limit", func() (e error) { cfg.Solver.TimeLimit, e = f.GetDuration("time-limit"); return })
	set("node-limit", func() (e error) { cfg.Solver.NodeLimit, e = f.GetInt("node-limit"); return })
	set("big-m", func() (e error) { cfg.Model.BigM, e = f.GetFloat64("big-m"); return })
	set("max-intensity", func() (e error) { cfg.Model.MaxIntensity, e = f.GetFloat64("max-intensity"); return })
	if err != nil {
		return err
	}
	if fl := cmd.Flag("verbose"); fl != nil && fl.Value.String() == "true" {
		cfg.Log.Level = "debug"
	}

	return cfg.Validate()
}

func runSolveCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err = applyFlags(cmd, cfg); err != nil {
		return err
	}
	name, preset, err := cfg.Selected()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(logging.String("run_id", runID), logging.String("plan", name))

	ctx := cmd.Context()
	in, err := ingest.Load(ctx, ingest.Source{
		DoseFile:      cfg.Input.Dose,
		StructureFile: cfg.StructureFile(),
		Beamlets:      cfg.Input.Beamlets,
		Voxels:        cfg.Input.Voxels,
	}, log)
	if err != nil {
		return err
	}

	f, err := plan.Build(in.Registry, in.Dose, preset.Prescription(), cfg.BuildOptions())
	if err != nil {
		return fmt.Errorf("plan %s: %w", name, err)
	}
	log.Debug("model built",
		logging.Int("variables", f.Model.NumVars()),
		logging.Int("rows", f.Model.NumConstraints()),
		logging.Float64("big_m", f.BigM))

	res, solveErr := solve.Run(ctx, f, solve.Options{
		TimeLimit: cfg.Solver.TimeLimit,
		NodeLimit: cfg.Solver.NodeLimit,
		Gap:       cfg.Solver.Gap,
		Logger:    log,
	})
	if res == nil || !res.Status.HasSolution() {
		fmt.Fprintln(cmd.OutOrStdout(), "The problem does not have an optimal solution.")
		return solveErr
	}

	if err = writeReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, report.Meta{RunID: runID, Plan: name}, in, f, res); err != nil {
		return err
	}
	// An incumbent without an optimality proof is reported but still fails the run.
	return solveErr
}

// writeReport renders the report, then the heatmap when enabled. With the
// JSON format the heatmap goes to errOut so stdout stays machine readable.
func writeReport(out, errOut io.Writer, cfg *config.Config, meta report.Meta, in *ingest.Inputs, f *plan.Formulation, res *solve.Result) error {
	sum, err := report.Summarize(in.Registry, in.Dose, res.Intensities)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	if _, err = w.Write(report.New(meta, f, res, sum)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !cfg.Report.Heatmap {
		return nil
	}
	h, err := report.NewHeatmap(in.Registry, sum.Doses, report.WithWidth(cfg.Report.GridWidth))
	if err != nil {
		return err
	}
	if format == report.FormatJSON {
		out = errOut
	}
	_, err = h.Write(out)

	return err
}
