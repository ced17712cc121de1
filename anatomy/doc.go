// SPDX-License-Identifier: MIT

// Package anatomy holds the Structure Registry: the assignment of every voxel
// of a planning grid to exactly one anatomical structure.
//
// The six structures of a prostate plan are fixed:
//
//	CTV              clinical target volume (prescribed dose range)
//	Bladder          organ at risk
//	Rectum           organ at risk ("Rectal Solid" in label sheets)
//	Unspecified      remaining tissue ("Unspecified region")
//	LeftFemurHead    organ at risk
//	RightFemurHead   organ at risk
//
// Voxels are identified by 1-based integers 1..V. A Registry is filled with
// Assign and must pass Validate before it is handed to the model builder:
// the structure voxel sets are pairwise disjoint and their union is exactly
// the range 1..V.
//
// Errors (sentinel):
//
//	– ErrUnknownStructure if a label or name maps to no structure.
//	– ErrVoxelOutOfRange  if a voxel id is outside 1..V.
//	– ErrDuplicateVoxel   if a voxel is assigned twice.
//	– ErrUnassignedVoxel  if Validate finds a gap in 1..V.
//	– ErrEmptyRegistry    if V <= 0.
//
// Example:
//
//	reg, _ := anatomy.NewRegistry(4)
//	_ = reg.Assign(1, anatomy.CTV)
//	_ = reg.Assign(2, anatomy.CTV)
//	_ = reg.Assign(3, anatomy.Bladder)
//	_ = reg.Assign(4, anatomy.Bladder)
//	if err := reg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reg.VoxelsOf(anatomy.CTV)) // [1 2]
package anatomy
