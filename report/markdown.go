// SPDX-License-Identifier: MIT

package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// activeTol is the slack above which a penalty is reported as active.
const activeTol = 1e-6

// MarkdownWriter renders a Report as GitHub-flavoured Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter returns a MarkdownWriter on output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(r *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, r)
	w.writeStructures(md, r)
	w.writeSlacks(md, r)
	w.writeIntensities(md, r)

	return len(md.String()), md.Build()
}

func f4(x float64) string { return strconv.FormatFloat(x, 'f', 4, 64) }

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Beam Intensity Plan")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Plan", r.Plan},
			{"Status", r.Status},
			{"Objective", f4(r.Objective)},
			{"Nodes", strconv.Itoa(r.Nodes)},
			{"Wall time (ms)", strconv.FormatFloat(r.WallTimeMS, 'f', 3, 64)},
			{"Big-M", f4(r.BigM)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStructures(md *markdown.Markdown, r *Report) {
	md.H2("Dose by Structure")
	md.PlainText("")
	rows := make([][]string, 0, len(r.Structures))
	for _, s := range r.Structures {
		avg, peak := "-", "-"
		if s.Count > 0 {
			avg, peak = f4(s.Average), f4(s.Maximum)
		}
		rows = append(rows, []string{s.Label, strconv.Itoa(s.Count), avg, peak})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Structure", "Voxels", "Average", "Maximum"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSlacks(md *markdown.Markdown, r *Report) {
	md.H2("Penalties")
	md.PlainText("")
	if len(r.Slacks) == 0 {
		md.PlainText("No soft rules in this plan.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(r.Slacks))
	for _, s := range r.Slacks {
		rows = append(rows, []string{string(s.Penalty), f4(s.Weight), f4(s.Value)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Penalty", "Weight", "Slack"},
		Rows:   rows,
	})
	md.PlainText("")

	if active := r.ActivePenalties(activeTol); len(active) > 0 {
		md.Warningf("%d of %d soft rules are violated; see the Slack column.", len(active), len(r.Slacks))
	} else {
		md.Tip("Every soft rule is met without slack.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeIntensities(md *markdown.Markdown, r *Report) {
	md.H2("Beamlet Intensities")
	md.PlainText("")
	rows := make([][]string, 0, len(r.Intensities))
	for b, x := range r.Intensities {
		rows = append(rows, []string{strconv.Itoa(b + 1), f4(x)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Beamlet", "Intensity"},
		Rows:   rows,
	})
	md.PlainText("")
}
