// SPDX-License-Identifier: MIT

package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/beamopt/anatomy"
	"github.com/katalvlaran/beamopt/dose"
	"github.com/katalvlaran/beamopt/logging"
)

// ErrShapeMismatch indicates that the two files disagree on the voxel count.
var ErrShapeMismatch = errors.New("ingest: dose and structure files disagree on voxel count")

// Source names the input files.
type Source struct {
	DoseFile      string
	StructureFile string

	// Beamlets is the number of dose columns.
	Beamlets int

	// Voxels is the expected voxel count; 0 takes it from the dose file.
	Voxels int
}

// Inputs are the validated planning inputs.
type Inputs struct {
	Registry *anatomy.Registry
	Dose     *dose.Matrix
}

// Load reads the dose matrix and the structure map concurrently. The
// structure file is parsed against the voxel count of the dose file (or
// src.Voxels when set), and the dose matrix is validated before returning.
func Load(ctx context.Context, src Source, log logging.Logger) (*Inputs, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("ingest")
	start := time.Now()

	var (
		dm   *dose.Matrix
		rows []assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := os.Open(src.DoseFile)
		if err != nil {
			return fmt.Errorf("dose file: %w", err)
		}
		defer f.Close()
		if err = gctx.Err(); err != nil {
			return err
		}
		if dm, err = ReadDoseMatrix(f, src.Beamlets); err != nil {
			return fmt.Errorf("%s: %w", src.DoseFile, err)
		}

		return nil
	})
	g.Go(func() error {
		// Assignment waits for V from the dose file; parsing does not.
		f, err := os.Open(src.StructureFile)
		if err != nil {
			return fmt.Errorf("structure file: %w", err)
		}
		defer f.Close()
		if err = gctx.Err(); err != nil {
			return err
		}
		if rows, err = parseAssignments(f); err != nil {
			return fmt.Errorf("%s: %w", src.StructureFile, err)
		}

		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("load failed", logging.Err(err))
		return nil, err
	}

	voxels := dm.Voxels()
	if src.Voxels > 0 && src.Voxels != voxels {
		return nil, fmt.Errorf("%s has %d voxels, want %d: %w", src.DoseFile, voxels, src.Voxels, ErrShapeMismatch)
	}
	reg, err := buildRegistry(rows, voxels)
	if err != nil {
		log.Error("load failed", logging.Err(err))
		return nil, fmt.Errorf("%s: %w", src.StructureFile, err)
	}
	if err = dm.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", src.DoseFile, err)
	}

	fields := []logging.Field{
		logging.Int("voxels", voxels),
		logging.Int("beamlets", dm.Beamlets()),
		logging.Duration("elapsed", time.Since(start)),
	}
	for _, s := range anatomy.Structures {
		fields = append(fields, logging.Int(s.String(), reg.Count(s)))
	}
	log.Info("inputs loaded", fields...)

	return &Inputs{Registry: reg, Dose: dm}, nil
}
