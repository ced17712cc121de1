// SPDX-License-Identifier: MIT

// Package report renders a solved plan: per-structure dose statistics,
// beamlet intensities, penalty slacks and a terminal dose heatmap.
//
// Doses shown here are recomputed from the solved intensities for
// presentation; the solver's values in solve.Result remain authoritative.
//
// Writers:
//   - TextWriter: plain console layout;
//   - MarkdownWriter: tables via github.com/nao1215/markdown;
//   - JSONWriter: encoding/json, optionally indented.
package report
