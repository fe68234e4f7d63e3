// Package grid defines the two fixed grids the GLCC product is distributed
// on and the coordinate axes, cell bounds and chunk layout derived from them.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownShape is returned when raster dimensions match neither GLCC grid.
var ErrUnknownShape = errors.New("grid: raster shape matches no GLCC projection")

// Radius of the sphere both GLCC projections are defined on, in meters.
const Radius = 6370997.0

// Projection identifies one of the two GLCC map projections.
type Projection int

const (
	Geographic Projection = iota
	GoodeHomolosine
)

func (p Projection) String() string {
	switch p {
	case Geographic:
		return "geographic"
	case GoodeHomolosine:
		return "goode"
	default:
		return fmt.Sprintf("projection(%d)", int(p))
	}
}

// ParseProjection accepts "geographic" or "goode" (also "igh" and
// "goode-homolosine"), case insensitive.
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geographic", "geo", "longlat":
		return Geographic, nil
	case "goode", "igh", "goode-homolosine":
		return GoodeHomolosine, nil
	}
	return 0, fmt.Errorf("unknown projection %q", s)
}

// Spec describes one grid. X and Y bounds are pixel centres in projection
// units.
type Spec struct {
	Projection Projection
	Rows, Cols int
	XMin, XMax float64
	YMin, YMax float64
	// Units of the axes, as a CF units string.
	Units string
	// ToCRS converts axis units to the units of Proj4.
	ToCRS float64
	// Proj4 is the CRS definition the axes are expressed in (after ToCRS).
	Proj4 string
	// ChunkRows and ChunkCols set the default chunk shape.
	ChunkRows, ChunkCols int
	// InterruptRow is the row of the equator interruption line of the Goode
	// grid, zero for the geographic grid.
	InterruptRow int
}

// 30 arc second pixels, 21,600 lines by 43,200 samples.
var geographic = Spec{
	Projection: Geographic,
	Rows:       21600,
	Cols:       43200,
	XMin:       -647985,
	XMax:       647985,
	YMin:       -323985,
	YMax:       323985,
	Units:      "arcsec",
	ToCRS:      1.0 / 3600,
	Proj4:      "+proj=longlat +R=6370997 +no_defs",
	ChunkRows:  2160,
	ChunkCols:  4320,
}

// 1000 m pixels, 17,347 lines by 40,031 samples.
var goode = Spec{
	Projection:   GoodeHomolosine,
	Rows:         17347,
	Cols:         40031,
	XMin:         -20015000,
	XMax:         20015000,
	YMin:         -8673000,
	YMax:         8673000,
	Units:        "m",
	ToCRS:        1,
	Proj4:        "+proj=igh +R=6370997 +units=m +no_defs",
	ChunkRows:    1738,
	ChunkCols:    4010,
	InterruptRow: 8676,
}

// For returns the grid of a projection.
func For(p Projection) (Spec, error) {
	switch p {
	case Geographic:
		return geographic, nil
	case GoodeHomolosine:
		return goode, nil
	}
	return Spec{}, fmt.Errorf("no grid for %s", p)
}

// Detect picks the grid whose dimensions match rows x cols.
func Detect(rows, cols int) (Spec, error) {
	for _, s := range []Spec{geographic, goode} {
		if s.Rows == rows && s.Cols == cols {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %d x %d", ErrUnknownShape, rows, cols)
}

// DetectSize picks the grid whose cell count matches n samples of one byte,
// used for headerless binary files.
func DetectSize(n int64) (Spec, error) {
	for _, s := range []Spec{geographic, goode} {
		if int64(s.Rows)*int64(s.Cols) == n {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %d samples", ErrUnknownShape, n)
}

// Custom returns a grid with the extent of s resampled to rows x cols. It
// keeps the projection, so it is meant for subsets and test fixtures.
func (s Spec) Custom(rows, cols int) Spec {
	s.Rows, s.Cols = rows, cols
	s.ChunkRows = min(s.ChunkRows, rows)
	s.ChunkCols = min(s.ChunkCols, cols)
	s.InterruptRow = 0
	return s
}

// WithChunks overrides the chunk shape.
func (s Spec) WithChunks(rows, cols int) Spec {
	if rows > 0 {
		s.ChunkRows = rows
	}
	if cols > 0 {
		s.ChunkCols = cols
	}
	return s
}

// X returns the x axis, west to east.
func (s Spec) X() []float64 { return Linspace(s.XMin, s.XMax, s.Cols) }

// Y returns the y axis, south to north. Raster rows are stored north to
// south, so data is flipped to line up with this axis.
func (s Spec) Y() []float64 { return Linspace(s.YMin, s.YMax, s.Rows) }

// Linspace returns n evenly spaced samples over [start, stop], endpoints
// included. n == 1 yields start.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	// Avoid accumulated rounding at the far end.
	out[n-1] = stop
	return out
}

// AxisBounds returns the cell edges of a 1-D axis as [lower, upper] pairs.
// Interior edges sit halfway between neighbouring samples and the outer
// edges mirror the first and last spacing. A single sample gets a zero
// width cell.
func AxisBounds(axis []float64) [][2]float64 {
	n := len(axis)
	out := make([][2]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = [2]float64{axis[0], axis[0]}
		return out
	}
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = (axis[i-1] + axis[i]) / 2
	}
	edges[0] = axis[0] - (axis[1]-axis[0])/2
	edges[n] = axis[n-1] + (axis[n-1]-axis[n-2])/2
	for i := range out {
		out[i] = [2]float64{edges[i], edges[i+1]}
	}
	return out
}

// CellSize returns the cell width and height in CRS units, zero along an
// axis with a single sample.
func (s Spec) CellSize() (dx, dy float64) {
	if s.Cols > 1 {
		dx = (s.XMax - s.XMin) / float64(s.Cols-1) * s.ToCRS
	}
	if s.Rows > 1 {
		dy = (s.YMax - s.YMin) / float64(s.Rows-1) * s.ToCRS
	}
	return dx, dy
}

// Extent returns the outer cell edges of the grid in CRS units.
func (s Spec) Extent() (xmin, ymin, xmax, ymax float64) {
	dx, dy := s.CellSize()
	return s.XMin*s.ToCRS - dx/2, s.YMin*s.ToCRS - dy/2,
		s.XMax*s.ToCRS + dx/2, s.YMax*s.ToCRS + dy/2
}

// Window is a rectangular block of cells. Row counts from the south edge
// of the grid, matching the Y axis.
type Window struct {
	Row, Col   int
	Rows, Cols int
}

func (w Window) String() string {
	return fmt.Sprintf("rows %d:%d cols %d:%d", w.Row, w.Row+w.Rows, w.Col, w.Col+w.Cols)
}

// Contains reports whether cell (row, col) is inside w.
func (w Window) Contains(row, col int) bool {
	return row >= w.Row && row < w.Row+w.Rows && col >= w.Col && col < w.Col+w.Cols
}

// Len is the number of cells in w.
func (w Window) Len() int { return w.Rows * w.Cols }

// Full returns the window covering the whole grid.
func (s Spec) Full() Window { return Window{Rows: s.Rows, Cols: s.Cols} }

// Chunks enumerates the chunk windows in row-major order. Edge chunks are
// truncated so the windows cover the grid exactly once.
func (s Spec) Chunks() []Window {
	if s.ChunkRows <= 0 || s.ChunkCols <= 0 {
		return []Window{s.Full()}
	}
	var out []Window
	for r := 0; r < s.Rows; r += s.ChunkRows {
		for c := 0; c < s.Cols; c += s.ChunkCols {
			out = append(out, Window{
				Row:  r,
				Col:  c,
				Rows: min(s.ChunkRows, s.Rows-r),
				Cols: min(s.ChunkCols, s.Cols-c),
			})
		}
	}
	return out
}

// ChunkOf returns the chunk window containing cell (row, col) and its index
// in Chunks.
func (s Spec) ChunkOf(row, col int) (Window, int) {
	if s.ChunkRows <= 0 || s.ChunkCols <= 0 {
		return s.Full(), 0
	}
	across := (s.Cols + s.ChunkCols - 1) / s.ChunkCols
	cr, cc := row/s.ChunkRows, col/s.ChunkCols
	r, c := cr*s.ChunkRows, cc*s.ChunkCols
	return Window{
		Row:  r,
		Col:  c,
		Rows: min(s.ChunkRows, s.Rows-r),
		Cols: min(s.ChunkCols, s.Cols-c),
	}, cr*across + cc
}

// Clip intersects w with the grid.
func (s Spec) Clip(w Window) Window {
	r0, c0 := max(w.Row, 0), max(w.Col, 0)
	r1, c1 := min(w.Row+w.Rows, s.Rows), min(w.Col+w.Cols, s.Cols)
	if r1 <= r0 || c1 <= c0 {
		return Window{Row: r0, Col: c0}
	}
	return Window{Row: r0, Col: c0, Rows: r1 - r0, Cols: c1 - c0}
}
