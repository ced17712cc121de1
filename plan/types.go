// SPDX-License-Identifier: MIT

package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/mip"
)

// Sentinel errors returned by Build.
var (
	// ErrNilInput indicates a nil registry or dose matrix.
	ErrNilInput = errors.New("plan: nil registry or dose matrix")

	// ErrShapeMismatch indicates that the dose matrix and registry disagree on V.
	ErrShapeMismatch = errors.New("plan: dose matrix voxel count does not match registry")

	// ErrNoTarget indicates a prescription without exactly one TargetBound rule.
	ErrNoTarget = errors.New("plan: prescription needs exactly one target rule")

	// ErrInvalidBounds indicates target bounds with lower > upper or lower < 0.
	ErrInvalidBounds = errors.New("plan: invalid target bounds")

	// ErrInvalidRule indicates an unknown kind or structure, a negative or
	// non-finite threshold, or a fraction outside [0, 1].
	ErrInvalidRule = errors.New("plan: invalid rule")

	// ErrMissingWeight indicates a rule penalty without a weight.
	ErrMissingWeight = errors.New("plan: penalty has no weight")

	// ErrUnknownPenalty indicates a weight whose key no rule uses.
	ErrUnknownPenalty = errors.New("plan: weight for unknown penalty")

	// ErrBadWeight indicates a weight that is not finite and > 0.
	ErrBadWeight = errors.New("plan: weight must be finite and > 0")

	// ErrBadOptions indicates a negative or non-finite BigM or MaxIntensity.
	ErrBadOptions = errors.New("plan: invalid build options")

	// ErrBigMTooSmall indicates a configured M below the largest achievable
	// excess dose of some volume-fraction voxel.
	ErrBigMTooSmall = errors.New("plan: big-M smaller than achievable excess dose")

	// ErrBigMUnderivable indicates that no finite dose bound exists for some
	// volume-fraction voxel and no M was configured.
	ErrBigMUnderivable = errors.New("plan: big-M cannot be derived, configure BigM or MaxIntensity")
)

// Penalty names a slack category. The empty Penalty marks a hard rule.
type Penalty string

// Reference penalty categories.
const (
	BladderMean    Penalty = "bladder-mean"
	BladderVolume  Penalty = "bladder-volume"
	RectumMax      Penalty = "rectum-max"
	RectumMean     Penalty = "rectum-mean"
	UnspecifiedMax Penalty = "unspecified-max"
	LFHMax         Penalty = "lfh-max"
	LFHVolume      Penalty = "lfh-volume"
	RFHMax         Penalty = "rfh-max"
	RFHVolume      Penalty = "rfh-volume"
)

// Penalties lists the reference categories in their conventional order.
// Weight vectors written positionally follow this order.
var Penalties = []Penalty{
	BladderMean, BladderVolume, RectumMax, RectumMean, UnspecifiedMax,
	LFHMax, LFHVolume, RFHMax, RFHVolume,
}

// Hard reports whether p marks a rule without slack.
func (p Penalty) Hard() bool { return p == "" }

// Kind selects the constraint family of a Rule.
type Kind int

const (
	// TargetBound bounds every voxel's dose in [Lower, Upper]. Always hard.
	TargetBound Kind = iota + 1
	// MeanDose bounds the structure mean by Upper.
	MeanDose
	// MaxDose bounds every voxel's dose by Upper.
	MaxDose
	// VolumeFraction allows at most Fraction of the voxels above Upper.
	VolumeFraction
)

var kindNames = map[Kind]string{
	TargetBound:    "target",
	MeanDose:       "mean",
	MaxDose:        "max",
	VolumeFraction: "volume",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Rule is one clinical constraint on one structure.
type Rule struct {
	Kind      Kind
	Structure anatomy.Structure
	Lower     float64 // TargetBound only
	Upper     float64 // dose bound, mean or threshold T
	Fraction  float64 // VolumeFraction only
	Penalty   Penalty // empty: hard
}

func (r Rule) String() string {
	switch r.Kind {
	case TargetBound:
		return fmt.Sprintf("%s %s [%g, %g]", r.Structure, r.Kind, r.Lower, r.Upper)
	case VolumeFraction:
		return fmt.Sprintf("%s %s ≤%g%% above %g", r.Structure, r.Kind, 100*r.Fraction, r.Upper)
	default:
		return fmt.Sprintf("%s %s ≤ %g", r.Structure, r.Kind, r.Upper)
	}
}

// Target returns a hard two-sided bound on every voxel of s.
func Target(s anatomy.Structure, lower, upper float64) Rule {
	return Rule{Kind: TargetBound, Structure: s, Lower: lower, Upper: upper}
}

// Mean returns a mean-dose rule on s.
func Mean(s anatomy.Structure, mean float64, p Penalty) Rule {
	return Rule{Kind: MeanDose, Structure: s, Upper: mean, Penalty: p}
}

// Max returns a per-voxel max-dose rule on s.
func Max(s anatomy.Structure, limit float64, p Penalty) Rule {
	return Rule{Kind: MaxDose, Structure: s, Upper: limit, Penalty: p}
}

// Volume returns a rule allowing at most fraction of the voxels of s above threshold.
func Volume(s anatomy.Structure, fraction, threshold float64, p Penalty) Rule {
	return Rule{Kind: VolumeFraction, Structure: s, Upper: threshold, Fraction: fraction, Penalty: p}
}

// ReferenceRules returns the prostate protocol with target bounds [lower, upper].
// The Bladder max is hard; all other organ rules carry a reference penalty.
func ReferenceRules(lower, upper float64) []Rule {
	return []Rule{
		Target(anatomy.CTV, lower, upper),
		Max(anatomy.Bladder, 81, ""),
		Mean(anatomy.Bladder, 50, BladderMean),
		Volume(anatomy.Bladder, 0.10, 65, BladderVolume),
		Max(anatomy.Rectum, 79.2, RectumMax),
		Mean(anatomy.Rectum, 40, RectumMean),
		Max(anatomy.Unspecified, 72, UnspecifiedMax),
		Max(anatomy.LeftFemurHead, 50, LFHMax),
		Volume(anatomy.LeftFemurHead, 0.15, 40, LFHVolume),
		Max(anatomy.RightFemurHead, 50, RFHMax),
		Volume(anatomy.RightFemurHead, 0.15, 40, RFHVolume),
	}
}

// Prescription is the rule set and the objective weights of one plan.
type Prescription struct {
	Rules   []Rule
	Weights map[Penalty]float64
}

// BuildOptions tunes the formulation.
//
//   - BigM: indicator coefficient; 0 derives it from the target rows.
//   - MaxIntensity: upper bound on every beamlet; 0 leaves beamlets unbounded.
type BuildOptions struct {
	BigM         float64
	MaxIntensity float64
}

func (o BuildOptions) validate() error {
	for _, v := range []float64{o.BigM, o.MaxIntensity} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrBadOptions
		}
	}

	return nil
}

// IndicatorSet holds the binaries of one VolumeFraction rule;
// Vars[i] belongs to Voxels[i].
//
// y = 0 guarantees D(v) − s ≤ T. y = 1 does not imply D(v) > T: the row
// has no lower bound, so a solution may flag a voxel under the threshold
// when the count row has room.
type IndicatorSet struct {
	Rule   Rule
	Voxels []int
	Vars   []*mip.Var
}

// Formulation is the built model together with handles to its variables.
type Formulation struct {
	Model *mip.Model

	// Beamlets[b] is x[b].
	Beamlets []*mip.Var

	// Penalties lists the slack keys in creation order.
	Penalties []Penalty

	// Slacks and Weights are keyed by penalty.
	Slacks  map[Penalty]*mip.Var
	Weights map[Penalty]float64

	// Indicators holds one set per VolumeFraction rule, in rule order.
	Indicators []IndicatorSet

	// BigM is the indicator coefficient in use (0 without volume rules).
	BigM float64

	// BigMVerified is false when a configured M could not be checked
	// against a finite dose bound.
	BigMVerified bool
}
