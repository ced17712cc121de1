// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/beamopt/plan"
)

// NewPlansCmd creates the plans command.
func NewPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the configured plan presets",
		Args:  cobra.NoArgs,
		RunE:  runPlansCmd,
	}
}

func runPlansCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, name := range cfg.PlanNames() {
		p := cfg.Plans[name]
		marker := " "
		if name == cfg.Plan {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: target [%g, %g]", marker, name, p.LowerBound, p.UpperBound)
		if p.Structures != "" {
			fmt.Fprintf(&b, ", structures %s", p.Structures)
		}
		b.WriteByte('\n')
		for _, pen := range plan.Penalties {
			w, ok := p.Weights[string(pen)]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "    %-16s %s\n", pen, strconv.FormatFloat(w, 'g', -1, 64))
		}
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())

	return err
}
