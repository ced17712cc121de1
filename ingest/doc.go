// SPDX-License-Identifier: MIT

// Package ingest reads the two planning inputs from CSV:
//
//	dose file:      voxel,d0,d1,...,d(B-1)   one row per voxel
//	structure file: voxel,label              one row per voxel
//
// Voxel ids are 1-based and may be written as floats ("12.0"), as exported
// by spreadsheets. A first row whose first cell is not numeric is a header.
// Lines starting with '#' are comments.
package ingest
