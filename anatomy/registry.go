// SPDX-License-Identifier: MIT

package anatomy

import (
	"fmt"
	"sort"
)

// Registry maps each voxel 1..V to its structure.
//
// owner[v-1] holds the structure of voxel v (0 while unassigned). Per-structure
// voxel lists are rebuilt lazily in ascending id order.
type Registry struct {
	owner  []Structure
	sets   map[Structure][]int
	sorted bool
}

// NewRegistry returns an empty registry for voxels 1..voxelCount.
func NewRegistry(voxelCount int) (*Registry, error) {
	if voxelCount <= 0 {
		return nil, ErrEmptyRegistry
	}

	return &Registry{
		owner:  make([]Structure, voxelCount),
		sets:   make(map[Structure][]int, len(Structures)),
		sorted: true,
	}, nil
}

// VoxelCount returns V.
func (r *Registry) VoxelCount() int { return len(r.owner) }

// Assign puts voxel into structure s.
//
// Errors: ErrUnknownStructure, ErrVoxelOutOfRange, ErrDuplicateVoxel.
// Complexity: O(1) amortized.
func (r *Registry) Assign(voxel int, s Structure) error {
	if !s.Valid() {
		return fmt.Errorf("Assign(%d): %w", voxel, ErrUnknownStructure)
	}
	if voxel < 1 || voxel > len(r.owner) {
		return fmt.Errorf("Assign(%d): %w", voxel, ErrVoxelOutOfRange)
	}
	if prev := r.owner[voxel-1]; prev != 0 {
		return fmt.Errorf("Assign(%d): already in %s: %w", voxel, prev, ErrDuplicateVoxel)
	}
	r.owner[voxel-1] = s
	r.sets[s] = append(r.sets[s], voxel)
	r.sorted = false

	return nil
}

// Validate checks the partition invariant: every voxel 1..V belongs to
// exactly one structure. Disjointness is enforced by Assign, so only gaps
// remain to be detected here.
//
// Complexity: O(V).
func (r *Registry) Validate() error {
	for i, s := range r.owner {
		if s == 0 {
			return fmt.Errorf("Validate: voxel %d: %w", i+1, ErrUnassignedVoxel)
		}
	}

	return nil
}

func (r *Registry) ensureSorted() {
	if r.sorted {
		return
	}
	for _, vs := range r.sets {
		sort.Ints(vs)
	}
	r.sorted = true
}

// VoxelsOf returns the voxel ids of s in ascending order. The returned slice
// is a copy.
func (r *Registry) VoxelsOf(s Structure) []int {
	r.ensureSorted()
	src := r.sets[s]
	out := make([]int, len(src))
	copy(out, src)

	return out
}

// Count returns the number of voxels in s.
func (r *Registry) Count(s Structure) int { return len(r.sets[s]) }

// StructureOf returns the structure of voxel, or ErrVoxelOutOfRange /
// ErrUnassignedVoxel.
func (r *Registry) StructureOf(voxel int) (Structure, error) {
	if voxel < 1 || voxel > len(r.owner) {
		return 0, ErrVoxelOutOfRange
	}
	s := r.owner[voxel-1]
	if s == 0 {
		return 0, ErrUnassignedVoxel
	}

	return s, nil
}
