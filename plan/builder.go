// SPDX-License-Identifier: MIT

// Formulation builder.
//
// Rationale (succinct):
//  1. Rows are ranged (lo ≤ a·x ≤ hi) and emitted once per voxel; the LP
//     engine carries a ranged row as one basis row, so target bands and
//     two-sided mean rows cost no more than one-sided ones.
//  2. Zero doses are not stored. Dose matrices are sparse away from the
//     beam paths, and the engine works column-wise on non-zeros.
//  3. One slack per penalty key, shared by every row of that rule: a soft
//     Max is a minimax violation, a soft Mean the violation of the average
//     (the row is scaled by N so the slack reads in Gy).
//  4. Beamlet caps become variable bounds, never rows.
//  5. A volume rule couples dose and indicator through big-M only: y = 0
//     forces D(v) − s ≤ T; y = 1 relaxes the row. The row has no lower
//     bound, so y = 1 is allowed for a voxel under T as well. Indicators
//     are an upper bound on the violating set, not its exact membership.
//  6. M is derived from the beamlet caps the target rows imply (bigm.go),
//     which keeps the relaxation as tight as the data allows.
//
// Complexity:
//   - Time: O(V·B) to read the dose rows, O(R·V) rule dispatch.
//   - Memory: O(nnz(D) + V) coefficients and variables.

package plan

import (
	"fmt"
	"math"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
	"github.com/katalvlaran/beamopt/mip"
)

// Build validates its inputs and constructs the MIP for presc.
//
// Steps:
//  1. Validate registry partition, dose sign and shapes.
//  2. Validate rules and weights (one target, every penalty weighted,
//     every weight used, weights > 0).
//  3. Resolve big-M from the beamlet caps implied by the target rule.
//  4. Allocate beamlets, slacks (objective w_k) and indicators.
//  5. Emit the rows of every rule in rule order.
//
// Complexity: O(V*B) rows and coefficients.
func Build(reg *anatomy.Registry, dm *dose.Matrix, presc Prescription, opts BuildOptions) (*Formulation, error) {
	if reg == nil || dm == nil {
		return nil, ErrNilInput
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	if err := dm.Validate(); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	if dm.Voxels() != reg.VoxelCount() {
		return nil, fmt.Errorf("Build: %d dose rows, %d voxels: %w", dm.Voxels(), reg.VoxelCount(), ErrShapeMismatch)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	target, err := validateRules(presc.Rules)
	if err != nil {
		return nil, err
	}
	penalties, err := validateWeights(presc.Rules, presc.Weights)
	if err != nil {
		return nil, err
	}

	caps := beamletCaps(dm, reg.VoxelsOf(target.Structure), target.Upper, opts.MaxIntensity)
	bigM, verified, err := resolveBigM(reg, dm, presc.Rules, caps, opts.BigM)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	b := &builder{
		reg: reg,
		dm:  dm,
		f: &Formulation{
			Model:        mip.NewModel("beamopt"),
			Penalties:    penalties,
			Slacks:       make(map[Penalty]*mip.Var, len(penalties)),
			Weights:      make(map[Penalty]float64, len(penalties)),
			BigM:         bigM,
			BigMVerified: verified,
		},
	}
	b.allocate(opts.MaxIntensity, presc.Weights)
	for _, r := range presc.Rules {
		b.emit(r)
	}
	if err = b.f.Model.Validate(); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	return b.f, nil
}

// validateRules checks every rule and returns the single target rule.
func validateRules(rules []Rule) (Rule, error) {
	var (
		target Rule
		n      int
	)
	for i, r := range rules {
		if _, ok := kindNames[r.Kind]; !ok || !r.Structure.Valid() {
			return Rule{}, fmt.Errorf("rule %d (%s): %w", i, r, ErrInvalidRule)
		}
		if math.IsNaN(r.Upper) || math.IsInf(r.Upper, 0) || r.Upper < 0 {
			return Rule{}, fmt.Errorf("rule %d (%s): %w", i, r, ErrInvalidRule)
		}
		switch r.Kind {
		case TargetBound:
			if math.IsNaN(r.Lower) || r.Lower < 0 || r.Lower > r.Upper {
				return Rule{}, fmt.Errorf("rule %d (%s): %w", i, r, ErrInvalidBounds)
			}
			if !r.Penalty.Hard() {
				return Rule{}, fmt.Errorf("rule %d (%s): target is hard: %w", i, r, ErrInvalidRule)
			}
			target = r
			n++
		case VolumeFraction:
			if math.IsNaN(r.Fraction) || r.Fraction < 0 || r.Fraction > 1 {
				return Rule{}, fmt.Errorf("rule %d (%s): %w", i, r, ErrInvalidRule)
			}
		}
	}
	if n != 1 {
		return Rule{}, fmt.Errorf("%d target rules: %w", n, ErrNoTarget)
	}

	return target, nil
}

// validateWeights pairs rule penalties with weights and returns the
// penalties in order of first use.
func validateWeights(rules []Rule, weights map[Penalty]float64) ([]Penalty, error) {
	var (
		order []Penalty
		seen  = make(map[Penalty]bool)
	)
	for _, r := range rules {
		if r.Penalty.Hard() || seen[r.Penalty] {
			continue
		}
		w, ok := weights[r.Penalty]
		if !ok {
			return nil, fmt.Errorf("penalty %q: %w", r.Penalty, ErrMissingWeight)
		}
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("penalty %q = %g: %w", r.Penalty, w, ErrBadWeight)
		}
		seen[r.Penalty] = true
		order = append(order, r.Penalty)
	}
	for k := range weights {
		if !seen[k] {
			return nil, fmt.Errorf("penalty %q: %w", k, ErrUnknownPenalty)
		}
	}

	return order, nil
}

type builder struct {
	reg *anatomy.Registry
	dm  *dose.Matrix
	f   *Formulation
}

func (b *builder) allocate(maxIntensity float64, weights map[Penalty]float64) {
	var (
		m     = b.f.Model
		upper = math.Inf(1)
	)
	if maxIntensity > 0 {
		upper = maxIntensity
	}
	b.f.Beamlets = make([]*mip.Var, b.dm.Beamlets())
	for i := range b.f.Beamlets {
		b.f.Beamlets[i] = m.NumVar(0, upper, fmt.Sprintf("x[%d]", i))
	}
	for _, p := range b.f.Penalties {
		s := m.NumVar(0, math.Inf(1), fmt.Sprintf("slack[%s]", p))
		m.SetObjectiveCoefficient(s, weights[p])
		b.f.Slacks[p] = s
		b.f.Weights[p] = weights[p]
	}
}

// doseRow creates lo ≤ D(v) ≤ hi with one coefficient per non-zero dose.
func (b *builder) doseRow(v int, lo, hi float64, name string) *mip.Constraint {
	c := b.f.Model.Constraint(lo, hi, name)
	row, _ := b.dm.Row(v)
	for i, d := range row {
		if d != 0 {
			c.SetCoefficient(b.f.Beamlets[i], d)
		}
	}

	return c
}

// withSlack adds −scale·s for a soft rule.
func (b *builder) withSlack(c *mip.Constraint, p Penalty, scale float64) {
	if p.Hard() {
		return
	}
	c.SetCoefficient(b.f.Slacks[p], -scale)
}

// emit appends the rows of r. Rules over an empty structure emit nothing
// except a VolumeFraction count row, which is then trivially 0 ≤ 0.
func (b *builder) emit(r Rule) {
	var (
		m      = b.f.Model
		voxels = b.reg.VoxelsOf(r.Structure)
		tag    = r.Structure.String()
	)
	switch r.Kind {
	case TargetBound:
		for _, v := range voxels {
			b.doseRow(v, r.Lower, r.Upper, fmt.Sprintf("target[%s][%d]", tag, v))
		}

	case MaxDose:
		for _, v := range voxels {
			c := b.doseRow(v, 0, r.Upper, fmt.Sprintf("max[%s][%d]", tag, v))
			b.withSlack(c, r.Penalty, 1)
		}

	case MeanDose:
		n := float64(len(voxels))
		if n == 0 {
			return
		}
		sums, _ := b.dm.ColumnSums(voxels)
		c := m.Constraint(0, n*r.Upper, fmt.Sprintf("mean[%s]", tag))
		for i, d := range sums {
			if d != 0 {
				c.SetCoefficient(b.f.Beamlets[i], d)
			}
		}
		b.withSlack(c, r.Penalty, n)

	case VolumeFraction:
		set := IndicatorSet{Rule: r, Voxels: voxels, Vars: make([]*mip.Var, len(voxels))}
		for i, v := range voxels {
			y := m.BoolVar(fmt.Sprintf("y[%s][%d]", tag, v))
			c := b.doseRow(v, math.Inf(-1), r.Upper, fmt.Sprintf("volume[%s][%d]", tag, v))
			c.SetCoefficient(y, -b.f.BigM)
			b.withSlack(c, r.Penalty, 1)
			set.Vars[i] = y
		}
		count := m.Constraint(0, r.Fraction*float64(len(voxels)), fmt.Sprintf("count[%s]", tag))
		for _, y := range set.Vars {
			count.SetCoefficient(y, 1)
		}
		b.f.Indicators = append(b.f.Indicators, set)
	}
}
