package anatomy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/beamopt/anatomy"
)

// mkRegistry assigns voxels 1..len(owners) in order.
func mkRegistry(t *testing.T, owners ...anatomy.Structure) *anatomy.Registry {
	t.Helper()
	reg, err := anatomy.NewRegistry(len(owners))
	require.NoError(t, err)
	for i, s := range owners {
		require.NoError(t, reg.Assign(i+1, s))
	}

	return reg
}

// TestRegistry_PartitionInvariant checks that the structure sets are disjoint
// and cover 1..V exactly once.
func TestRegistry_PartitionInvariant(t *testing.T) {
	owners := []anatomy.Structure{
		anatomy.Unspecified, anatomy.CTV, anatomy.Bladder, anatomy.CTV,
		anatomy.Rectum, anatomy.LeftFemurHead, anatomy.RightFemurHead, anatomy.Bladder,
	}
	reg := mkRegistry(t, owners...)
	require.NoError(t, reg.Validate())

	seen := make(map[int]anatomy.Structure)
	for _, s := range anatomy.Structures {
		for _, v := range reg.VoxelsOf(s) {
			prev, dup := seen[v]
			assert.False(t, dup, "voxel %d in both %s and %s", v, prev, s)
			seen[v] = s
		}
	}
	assert.Len(t, seen, len(owners), "union must cover every voxel")
	for v := 1; v <= len(owners); v++ {
		assert.Equal(t, owners[v-1], seen[v])
	}
}

// TestRegistry_VoxelsSorted verifies ascending order regardless of assignment order.
func TestRegistry_VoxelsSorted(t *testing.T) {
	reg, err := anatomy.NewRegistry(5)
	require.NoError(t, err)
	for _, v := range []int{5, 2, 4, 1, 3} {
		require.NoError(t, reg.Assign(v, anatomy.CTV))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, reg.VoxelsOf(anatomy.CTV))
	assert.Equal(t, 5, reg.Count(anatomy.CTV))
	assert.Equal(t, 0, reg.Count(anatomy.Bladder))
	assert.Empty(t, reg.VoxelsOf(anatomy.Bladder))
}

func TestRegistry_Errors(t *testing.T) {
	_, err := anatomy.NewRegistry(0)
	assert.ErrorIs(t, err, anatomy.ErrEmptyRegistry)

	reg, err := anatomy.NewRegistry(3)
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Assign(0, anatomy.CTV), anatomy.ErrVoxelOutOfRange)
	assert.ErrorIs(t, reg.Assign(4, anatomy.CTV), anatomy.ErrVoxelOutOfRange)
	assert.ErrorIs(t, reg.Assign(1, anatomy.Structure(42)), anatomy.ErrUnknownStructure)

	require.NoError(t, reg.Assign(1, anatomy.CTV))
	assert.ErrorIs(t, reg.Assign(1, anatomy.Bladder), anatomy.ErrDuplicateVoxel, "overlap must be rejected")

	require.NoError(t, reg.Assign(3, anatomy.Rectum))
	assert.ErrorIs(t, reg.Validate(), anatomy.ErrUnassignedVoxel, "gap at voxel 2")

	_, err = reg.StructureOf(2)
	assert.ErrorIs(t, err, anatomy.ErrUnassignedVoxel)
	s, err := reg.StructureOf(3)
	require.NoError(t, err)
	assert.Equal(t, anatomy.Rectum, s)
}

func TestParseStructure(t *testing.T) {
	cases := map[string]anatomy.Structure{
		"CTV":                anatomy.CTV,
		"Bladder":            anatomy.Bladder,
		"Rectal Solid":       anatomy.Rectum,
		"rectum":             anatomy.Rectum,
		"Unspecified region": anatomy.Unspecified,
		" Left Femur Head ":  anatomy.LeftFemurHead,
		"RFH":                anatomy.RightFemurHead,
	}
	for label, want := range cases {
		got, err := anatomy.ParseStructure(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}

	_, err := anatomy.ParseStructure("Prostate bed")
	assert.ErrorIs(t, err, anatomy.ErrUnknownStructure)
}

func TestStructure_Names(t *testing.T) {
	assert.Equal(t, "lfh", anatomy.LeftFemurHead.String())
	assert.Equal(t, "Rectal Solid", anatomy.Rectum.Label())
	assert.False(t, anatomy.Structure(0).Valid())
	assert.Equal(t, "structure(0)", anatomy.Structure(0).String())
}
