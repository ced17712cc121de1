// SPDX-License-Identifier: MIT

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
)

// Sentinel errors.
var (
	// ErrMissingEntry indicates a voxel without a row, or a row with too few cells.
	ErrMissingEntry = errors.New("ingest: missing entry")

	// ErrDuplicateEntry indicates a voxel listed twice.
	ErrDuplicateEntry = errors.New("ingest: duplicate voxel row")

	// ErrBadVoxelID indicates a voxel id that is not a positive integer.
	ErrBadVoxelID = errors.New("ingest: invalid voxel id")

	// ErrBadValue indicates a dose cell that is not a number.
	ErrBadValue = errors.New("ingest: invalid dose value")

	// ErrEmpty indicates an input without data rows.
	ErrEmpty = errors.New("ingest: no data rows")
)

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	return cr
}

// readRecords returns all data records, dropping a header and blank records.
func readRecords(r io.Reader) ([][]string, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	out := records[:0]
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if i == 0 {
			if _, err = strconv.ParseFloat(strings.TrimSpace(rec[0]), 64); err != nil {
				continue
			}
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}

	return out, nil
}

// parseVoxelID accepts "12" and "12.0".
func parseVoxelID(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q: %w", s, ErrBadVoxelID)
	}

	return int(f), nil
}

// ReadDoseMatrix parses a dose CSV with beamlets dose columns per row.
// The voxel count is the largest voxel id; every id in 1..V must appear once.
// Extra columns beyond beamlets are ignored.
//
// Errors: ErrEmpty, ErrBadVoxelID, ErrBadValue, ErrMissingEntry,
// ErrDuplicateEntry, dose.ErrInvalidDimensions, dose.ErrNaNInf.
func ReadDoseMatrix(r io.Reader, beamlets int) (*dose.Matrix, error) {
	if beamlets <= 0 {
		return nil, fmt.Errorf("ReadDoseMatrix: %d beamlets: %w", beamlets, dose.ErrInvalidDimensions)
	}
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	var (
		ids    = make([]int, len(records))
		voxels int
	)
	for i, rec := range records {
		if ids[i], err = parseVoxelID(rec[0]); err != nil {
			return nil, fmt.Errorf("ReadDoseMatrix: row %d: %w", i+1, err)
		}
		if ids[i] > voxels {
			voxels = ids[i]
		}
	}
	// Every id in 1..V needs its own row; checked before sizing anything by V.
	if voxels > len(records) {
		return nil, fmt.Errorf("ReadDoseMatrix: voxel ids reach %d with %d rows: %w",
			voxels, len(records), ErrMissingEntry)
	}
	m, err := dose.NewMatrix(voxels, beamlets)
	if err != nil {
		return nil, err
	}

	seen := make([]bool, voxels+1)
	for i, rec := range records {
		v := ids[i]
		if seen[v] {
			return nil, fmt.Errorf("ReadDoseMatrix: voxel %d: %w", v, ErrDuplicateEntry)
		}
		seen[v] = true
		if len(rec) < beamlets+1 {
			return nil, fmt.Errorf("ReadDoseMatrix: voxel %d has %d dose cells, want %d: %w",
				v, len(rec)-1, beamlets, ErrMissingEntry)
		}
		for b := 0; b < beamlets; b++ {
			cell := strings.TrimSpace(rec[b+1])
			if cell == "" {
				return nil, fmt.Errorf("ReadDoseMatrix: voxel %d beamlet %d: %w", v, b, ErrMissingEntry)
			}
			x, perr := strconv.ParseFloat(cell, 64)
			if perr != nil {
				return nil, fmt.Errorf("ReadDoseMatrix: voxel %d beamlet %d %q: %w", v, b, cell, ErrBadValue)
			}
			if err = m.Set(v, b, x); err != nil {
				return nil, err
			}
		}
	}
	for v := 1; v <= voxels; v++ {
		if !seen[v] {
			return nil, fmt.Errorf("ReadDoseMatrix: voxel %d: %w", v, ErrMissingEntry)
		}
	}

	return m, nil
}

// assignment is one parsed row of a structure file.
type assignment struct {
	voxel     int
	structure anatomy.Structure
}

func parseAssignments(r io.Reader) ([]assignment, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	out := make([]assignment, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: no label: %w", i+1, ErrMissingEntry)
		}
		v, err := parseVoxelID(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		s, err := anatomy.ParseStructure(rec[1])
		if err != nil {
			return nil, fmt.Errorf("voxel %d: %w", v, err)
		}
		out = append(out, assignment{voxel: v, structure: s})
	}

	return out, nil
}

func buildRegistry(rows []assignment, voxels int) (*anatomy.Registry, error) {
	reg, err := anatomy.NewRegistry(voxels)
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		if err = reg.Assign(a.voxel, a.structure); err != nil {
			return nil, err
		}
	}
	if err = reg.Validate(); err != nil {
		return nil, err
	}

	return reg, nil
}

// ReadStructures parses a "voxel,label" CSV into a validated registry of
// voxels voxels. Labels go through anatomy.ParseStructure.
//
// Errors: ErrEmpty, ErrBadVoxelID, ErrMissingEntry and the anatomy sentinels.
func ReadStructures(r io.Reader, voxels int) (*anatomy.Registry, error) {
	rows, err := parseAssignments(r)
	if err != nil {
		return nil, fmt.Errorf("ReadStructures: %w", err)
	}
	reg, err := buildRegistry(rows, voxels)
	if err != nil {
		return nil, fmt.Errorf("ReadStructures: %w", err)
	}

	return reg, nil
}
