// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/katalvlaran/beamopt/anatomy"
)

// DefaultGridWidth is the voxel grid width of the reference phantom.
const DefaultGridWidth = 20

// ErrGridWidth indicates a non-positive grid width.
var ErrGridWidth = errors.New("report: heatmap width must be > 0")

// makoPalette runs from dark to light, like seaborn's "mako".
var makoPalette = []lipgloss.Color{
	"#0B0405", "#2E1E3C", "#413D7B", "#37659E",
	"#348FA7", "#40B7AD", "#8AD9B1", "#DEF5E5",
}

// Cell is one voxel of the heatmap grid.
type Cell struct {
	Voxel     int
	Dose      float64
	Structure anatomy.Structure

	// Boundary is set when a horizontal or vertical neighbour belongs to
	// another structure.
	Boundary bool
}

// Heatmap lays voxel doses on a grid of fixed width, voxel 1 at the
// bottom-left. Structure outlines are drawn by emphasizing boundary cells.
type Heatmap struct {
	width   int
	grid    [][]Cell
	max     float64
	palette []lipgloss.Color
}

// HeatmapOption configures a Heatmap.
type HeatmapOption func(*Heatmap)

// WithWidth sets the number of voxels per grid row.
func WithWidth(n int) HeatmapOption { return func(h *Heatmap) { h.width = n } }

// WithPalette replaces the colour ramp (dark to light).
func WithPalette(colors ...lipgloss.Color) HeatmapOption {
	return func(h *Heatmap) {
		if len(colors) > 0 {
			h.palette = colors
		}
	}
}

// NewHeatmap builds the grid for doses (doses[v-1] is voxel v).
func NewHeatmap(reg *anatomy.Registry, doses []float64, opts ...HeatmapOption) (*Heatmap, error) {
	h := &Heatmap{width: DefaultGridWidth, palette: makoPalette}
	for _, opt := range opts {
		opt(h)
	}
	if h.width <= 0 {
		return nil, ErrGridWidth
	}
	if reg == nil || reg.VoxelCount() != len(doses) {
		return nil, fmt.Errorf("report: heatmap needs one dose per registry voxel")
	}

	rows := (len(doses) + h.width - 1) / h.width
	h.grid = make([][]Cell, rows)
	for v := 1; v <= len(doses); v++ {
		s, err := reg.StructureOf(v)
		if err != nil {
			return nil, fmt.Errorf("report: voxel %d: %w", v, err)
		}
		r := (v - 1) / h.width
		h.grid[r] = append(h.grid[r], Cell{Voxel: v, Dose: doses[v-1], Structure: s})
		h.max = math.Max(h.max, doses[v-1])
	}
	h.markBoundaries()

	return h, nil
}

func (h *Heatmap) markBoundaries() {
	at := func(r, c int) (anatomy.Structure, bool) {
		if r < 0 || r >= len(h.grid) || c < 0 || c >= len(h.grid[r]) {
			return 0, false
		}

		return h.grid[r][c].Structure, true
	}
	for r := range h.grid {
		for c := range h.grid[r] {
			self := h.grid[r][c].Structure
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				if s, ok := at(r+d[0], c+d[1]); ok && s != self {
					h.grid[r][c].Boundary = true
					break
				}
			}
		}
	}
}

// Grid returns the cells row by row; Grid()[0] holds voxels 1..width.
func (h *Heatmap) Grid() [][]Cell { return h.grid }

// Max returns the largest dose on the grid.
func (h *Heatmap) Max() float64 { return h.max }

// shade maps a dose onto the palette.
func (h *Heatmap) shade(d float64) int {
	if h.max <= 0 {
		return 0
	}
	i := int(d/h.max*float64(len(h.palette)-1) + 0.5)
	if i < 0 {
		i = 0
	}
	if i >= len(h.palette) {
		i = len(h.palette) - 1
	}

	return i
}

// Write renders the grid with the y-axis inverted (last grid row on top),
// row numbers on the left, column numbers below and a colour legend.
// Colours degrade to plain text when w is not a terminal.
func (h *Heatmap) Write(w io.Writer) (int, error) {
	var (
		buf      bytes.Buffer
		renderer = lipgloss.NewRenderer(w)
		styles   = make([]lipgloss.Style, len(h.palette))
		half     = len(h.palette) / 2
	)
	for i, c := range h.palette {
		fg := lipgloss.Color("#FFFFFF")
		if i >= half {
			fg = lipgloss.Color("#000000")
		}
		styles[i] = renderer.NewStyle().Background(c).Foreground(fg)
	}

	for r := len(h.grid) - 1; r >= 0; r-- {
		fmt.Fprintf(&buf, "%3d ", r+1)
		for _, cell := range h.grid[r] {
			st := styles[h.shade(cell.Dose)]
			if cell.Boundary {
				st = st.Bold(true).Underline(true)
			}
			buf.WriteString(st.Render(fmt.Sprintf(" %6.2f", cell.Dose)))
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("    ")
	for c := 1; c <= h.width; c++ {
		fmt.Fprintf(&buf, " %6d", c)
	}
	buf.WriteByte('\n')

	fmt.Fprintf(&buf, "    scale %.2f ", 0.0)
	for _, st := range styles {
		buf.WriteString(st.Render("  "))
	}
	fmt.Fprintf(&buf, " %.2f Gy; underlined cells lie on a structure boundary\n", h.max)

	return w.Write(buf.Bytes())
}
