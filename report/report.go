// SPDX-License-Identifier: MIT

package report

import (
	"github.com/katalvlaran/beamopt/plan"
	"github.com/katalvlaran/beamopt/solve"
)

// SlackValue is the solved slack of one penalty category.
type SlackValue struct {
	Penalty plan.Penalty `json:"penalty"`
	Weight  float64      `json:"weight"`
	Value   float64      `json:"value"`
}

// Report is the writer-independent view of one solved run.
type Report struct {
	RunID       string           `json:"run_id"`
	Plan        string           `json:"plan"`
	Status      string           `json:"status"`
	Objective   float64          `json:"objective"`
	WallTimeMS  float64          `json:"wall_time_ms"`
	Nodes       int              `json:"nodes"`
	BigM        float64          `json:"big_m"`
	Structures  []StructureStats `json:"structures"`
	Intensities []float64        `json:"intensities"`
	Slacks      []SlackValue     `json:"slacks"`
	Doses       []float64        `json:"doses,omitempty"`
}

// Meta identifies the run.
type Meta struct {
	RunID string
	Plan  string
}

// New assembles a Report. sum may be nil when no solution exists.
func New(meta Meta, f *plan.Formulation, res *solve.Result, sum *Summary) *Report {
	r := &Report{RunID: meta.RunID, Plan: meta.Plan}
	if f != nil {
		r.BigM = f.BigM
	}
	if res != nil {
		r.Status = res.Status.String()
		r.Objective = res.Objective
		r.WallTimeMS = float64(res.WallTime.Microseconds()) / 1000
		r.Nodes = res.Nodes
		r.Intensities = res.Intensities
		for _, p := range res.Penalties {
			sv := SlackValue{Penalty: p, Value: res.Slacks[p]}
			if f != nil {
				sv.Weight = f.Weights[p]
			}
			r.Slacks = append(r.Slacks, sv)
		}
	}
	if sum != nil {
		r.Structures = sum.Structures
		r.Doses = sum.Doses
	}

	return r
}

// ActivePenalties returns the slacks above tol.
func (r *Report) ActivePenalties(tol float64) []SlackValue {
	var out []SlackValue
	for _, s := range r.Slacks {
		if s.Value > tol {
			out = append(out, s)
		}
	}

	return out
}
