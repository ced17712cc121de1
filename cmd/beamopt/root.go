// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beamopt",
		Short: "Radiotherapy beam-intensity optimizer",
		Long: `beamopt computes beamlet intensities for an IMRT plan.

The target volume is held between a lower and an upper dose bound while
penalized organ-at-risk limits (maximum, mean and dose-volume rules) are
traded off through per-rule weights. Weights and bounds come from named
plan presets in the configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default ./beamopt.yaml, then the XDG config dir)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewSolveCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewPlansCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on any error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
