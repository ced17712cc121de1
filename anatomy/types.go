// SPDX-License-Identifier: MIT

package anatomy

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the registry.
var (
	// ErrUnknownStructure indicates that a label does not name one of the six structures.
	ErrUnknownStructure = errors.New("anatomy: unknown structure")

	// ErrVoxelOutOfRange indicates a voxel id outside 1..V.
	ErrVoxelOutOfRange = errors.New("anatomy: voxel out of range")

	// ErrDuplicateVoxel indicates that a voxel was assigned to a structure twice.
	ErrDuplicateVoxel = errors.New("anatomy: voxel assigned more than once")

	// ErrUnassignedVoxel indicates that some voxel in 1..V belongs to no structure.
	ErrUnassignedVoxel = errors.New("anatomy: voxel not assigned to any structure")

	// ErrEmptyRegistry indicates a non-positive voxel count.
	ErrEmptyRegistry = errors.New("anatomy: voxel count must be > 0")
)

// Structure names an anatomical structure. The zero value is invalid.
type Structure int

const (
	// CTV is the clinical target volume.
	CTV Structure = iota + 1
	// Bladder is an organ at risk.
	Bladder
	// Rectum is an organ at risk.
	Rectum
	// Unspecified is the tissue not covered by any named organ.
	Unspecified
	// LeftFemurHead is an organ at risk.
	LeftFemurHead
	// RightFemurHead is an organ at risk.
	RightFemurHead
)

// Structures lists all structures in canonical order.
var Structures = []Structure{CTV, Bladder, Rectum, Unspecified, LeftFemurHead, RightFemurHead}

// canonical short names, used in configs and reports.
var names = map[Structure]string{
	CTV:            "ctv",
	Bladder:        "bladder",
	Rectum:         "rectum",
	Unspecified:    "unspecified",
	LeftFemurHead:  "lfh",
	RightFemurHead: "rfh",
}

// display labels as they appear in the structure spreadsheets.
var labels = map[Structure]string{
	CTV:            "CTV",
	Bladder:        "Bladder",
	Rectum:         "Rectal Solid",
	Unspecified:    "Unspecified region",
	LeftFemurHead:  "Left Femur Head",
	RightFemurHead: "Right Femur Head",
}

// String returns the canonical short name ("ctv", "bladder", ...).
func (s Structure) String() string {
	if n, ok := names[s]; ok {
		return n
	}

	return fmt.Sprintf("structure(%d)", int(s))
}

// Label returns the spreadsheet label ("CTV", "Rectal Solid", ...).
func (s Structure) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}

	return s.String()
}

// Valid reports whether s is one of the six known structures.
func (s Structure) Valid() bool {
	_, ok := names[s]

	return ok
}

// ParseStructure resolves a spreadsheet label or a canonical short name.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseStructure(label string) (Structure, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	for _, s := range Structures {
		if key == names[s] || key == strings.ToLower(labels[s]) {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStructure, label)
}
