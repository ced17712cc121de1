// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"fmt"
	"io"
)

const rule = "===================================================="

// TextWriter prints the console layout: run line, per-structure averages and
// maxima, beamlet intensities numbered from 1, then slack values.
type TextWriter struct {
	baseWriter
}

// NewTextWriter returns a TextWriter on output.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *TextWriter) Write(r *Report) (int, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run %s, plan %s\n", r.RunID, r.Plan)
	fmt.Fprintf(&buf, "Status %s: problem solved in %.3f milliseconds (%d nodes)\n", r.Status, r.WallTimeMS, r.Nodes)
	fmt.Fprintf(&buf, "Objective value = %f\n", r.Objective)
	for _, s := range r.Structures {
		if s.Count == 0 {
			fmt.Fprintf(&buf, "%s: no voxels\n", s.Label)
			continue
		}
		fmt.Fprintf(&buf, "Average %s dosage = %.4f\n", s.Label, s.Average)
		fmt.Fprintf(&buf, "Maximum %s dosage = %.4f\n", s.Label, s.Maximum)
	}
	buf.WriteString(rule + "\n")
	for b, x := range r.Intensities {
		fmt.Fprintf(&buf, "Intensity of beamlet %d is: %f\n", b+1, x)
	}
	buf.WriteString(rule + "\n")
	for _, s := range r.Slacks {
		fmt.Fprintf(&buf, "Value of slack[%s] is: %f\n", s.Penalty, s.Value)
	}

	return w.output.Write(buf.Bytes())
}
