// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"math"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
)

// StructureStats are the dose statistics of one structure.
// Average and Maximum are 0 for an empty structure.
type StructureStats struct {
	Structure anatomy.Structure `json:"-"`
	Name      string            `json:"name"`
	Label     string            `json:"label"`
	Count     int               `json:"voxels"`
	Average   float64           `json:"average"`
	Maximum   float64           `json:"maximum"`
}

// Summary holds every voxel's dose and the per-structure statistics.
type Summary struct {
	// Doses[v-1] is the dose of voxel v.
	Doses      []float64
	Structures []StructureStats
}

// Summarize recomputes voxel doses for intensities x and aggregates them
// per structure, in anatomy.Structures order.
//
// Complexity: O(V*B).
func Summarize(reg *anatomy.Registry, dm *dose.Matrix, x []float64) (*Summary, error) {
	if reg == nil || dm == nil {
		return nil, fmt.Errorf("report: nil registry or dose matrix")
	}
	if reg.VoxelCount() != dm.Voxels() {
		return nil, fmt.Errorf("report: %d voxels in registry, %d in dose matrix: %w",
			reg.VoxelCount(), dm.Voxels(), dose.ErrDimensionMismatch)
	}
	doses, err := dm.Doses(x)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	sum := &Summary{Doses: doses, Structures: make([]StructureStats, 0, len(anatomy.Structures))}
	for _, s := range anatomy.Structures {
		st := StructureStats{Structure: s, Name: s.String(), Label: s.Label()}
		voxels := reg.VoxelsOf(s)
		st.Count = len(voxels)
		if st.Count > 0 {
			var total float64
			st.Maximum = math.Inf(-1)
			for _, v := range voxels {
				d := doses[v-1]
				total += d
				st.Maximum = math.Max(st.Maximum, d)
			}
			st.Average = total / float64(st.Count)
		}
		sum.Structures = append(sum.Structures, st)
	}

	return sum, nil
}

// Stats returns the statistics of s.
func (s *Summary) Stats(st anatomy.Structure) (StructureStats, bool) {
	for _, x := range s.Structures {
		if x.Structure == st {
			return x, true
		}
	}

	return StructureStats{}, false
}
