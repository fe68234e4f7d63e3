// Package plot renders GLCC datasets on the Interrupted Goode Homolosine
// projection.
package plot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"runtime"

	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/akhenakh/glcc/dataset"
	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/raster"
	"github.com/akhenakh/glcc/transform"
)

// Options configures Render. Zero values take the defaults.
type Options struct {
	// Width and Height of the image, 2000 x 1000 by default.
	Width, Height int
	// Stride samples every Stride-th row and column of the raster. Zero
	// picks the stride matching the image resolution.
	Stride  int
	Palette Palette
	// Margin around the map, in pixels, holding the gridline labels.
	Margin int
	// Workers bounds concurrent chunk reads and transforms, GOMAXPROCS by
	// default.
	Workers int
	// Projector replaces PROJ for the raster and gridline transforms.
	Projector transform.ProjectorFunc
	Logger    *slog.Logger
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 2000
	}
	if o.Height <= 0 {
		o.Height = 1000
	}
	if o.Margin <= 0 {
		o.Margin = 40
	}
	if o.Palette == nil {
		o.Palette = DefaultPalette()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// frame maps Goode planar metres to pixels.
type frame struct {
	x0, y1 float64 // upper left corner in metres
	scale  float64 // pixels per metre
	ox, oy float64 // pixel offset of the upper left corner
	w, h   int     // map size in pixels
}

func newFrame(o Options) (frame, error) {
	goode, err := grid.For(grid.GoodeHomolosine)
	if err != nil {
		return frame{}, err
	}
	half := 500.0 // half a Goode pixel, the axes hold cell centres
	x0, x1 := goode.XMin-half, goode.XMax+half
	y0, y1 := goode.YMin-half, goode.YMax+half

	aw, ah := float64(o.Width-2*o.Margin), float64(o.Height-2*o.Margin)
	if aw <= 0 || ah <= 0 {
		return frame{}, fmt.Errorf("image %dx%d too small for margin %d", o.Width, o.Height, o.Margin)
	}
	scale := math.Min(aw/(x1-x0), ah/(y1-y0))
	w, h := int((x1-x0)*scale), int((y1-y0)*scale)
	return frame{
		x0: x0, y1: y1, scale: scale,
		ox: float64(o.Width-w) / 2, oy: float64(o.Height-h) / 2,
		w: w, h: h,
	}, nil
}

func (f frame) pixel(x, y float64) (float64, float64) {
	return f.ox + (x-f.x0)*f.scale, f.oy + (f.y1-y)*f.scale
}

// axes returns the planar coordinates of the map pixel centres.
func (f frame) axes() (xs, ys []float64) {
	xs = make([]float64, f.w)
	for i := range xs {
		xs[i] = f.x0 + (float64(i)+0.5)/f.scale
	}
	ys = make([]float64, f.h)
	for i := range ys {
		ys[i] = f.y1 - (float64(i)+0.5)/f.scale
	}
	return xs, ys
}

// Render draws d in the Interrupted Goode Homolosine projection with a
// 10 by 5 degree graticule.
func Render(ctx context.Context, d *dataset.Dataset, o Options) (image.Image, error) {
	o.defaults()
	f, err := newFrame(o)
	if err != nil {
		return nil, err
	}
	if o.Stride <= 0 {
		o.Stride = max(1, d.Spec.Cols/max(1, f.w))
	}

	sampled, err := sample(ctx, d, o)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.White)
	dc.Clear()

	if err := drawRaster(ctx, img, f, d, sampled, o); err != nil {
		return nil, err
	}
	if err := drawGraticule(dc, f, o); err != nil {
		return nil, err
	}
	o.Logger.Info("rendered plot", "width", o.Width, "height", o.Height, "stride", o.Stride)
	return dc.Image(), nil
}

// sample reads every Stride-th cell of d, rows counting from the south.
func sample(ctx context.Context, d *dataset.Dataset, o Options) (*raster.Grid[uint8], error) {
	s := d.Spec
	rows, cols := (s.Rows+o.Stride-1)/o.Stride, (s.Cols+o.Stride-1)/o.Stride
	out := &raster.Grid[uint8]{Rows: rows, Cols: cols, Data: make([]uint8, rows*cols)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(o.Workers))
	for _, w := range s.Chunks() {
		g.Go(func() error {
			data, err := d.Data(ctx, w)
			if err != nil {
				return err
			}
			// Chunks never share a sampled cell, so writes do not overlap.
			for r := firstMultiple(w.Row, o.Stride); r < w.Row+w.Rows; r += o.Stride {
				for c := firstMultiple(w.Col, o.Stride); c < w.Col+w.Cols; c += o.Stride {
					out.Data[(r/o.Stride)*cols+c/o.Stride] = data.At(r-w.Row, c-w.Col)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// workers is n, or GOMAXPROCS when n is not positive.
func workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

func firstMultiple(from, stride int) int {
	return (from + stride - 1) / stride * stride
}

// drawRaster colours every map pixel with the cell its planar position
// falls in. Pixels in the interruptions come back masked and stay white.
func drawRaster(ctx context.Context, img *image.RGBA, f frame, d *dataset.Dataset, sampled *raster.Grid[uint8], o Options) error {
	goode, err := grid.For(grid.GoodeHomolosine)
	if err != nil {
		return err
	}
	xs, ys := f.axes()
	topts := []transform.Option{
		transform.WithTarget(d.CRS()),
		transform.WithWorkers(o.Workers),
		transform.WithLogger(o.Logger),
	}
	if o.Projector != nil {
		topts = append(topts, transform.WithProjector(o.Projector))
	}
	// The target is the dataset CRS, so the "lat" and "lon" outputs are its
	// northing and easting.
	ty, tx, err := transform.TransformYX(ctx, ys, xs, goode.Proj4, topts...)
	if err != nil {
		return err
	}

	s := d.Spec
	dx := (s.XMax - s.XMin) / float64(s.Cols-1)
	dy := (s.YMax - s.YMin) / float64(s.Rows-1)
	ox, oy := int(math.Round(f.ox)), int(math.Round(f.oy))
	for py := 0; py < f.h; py++ {
		for px := 0; px < f.w; px++ {
			i := py*f.w + px
			if math.IsNaN(tx[i]) || math.IsNaN(ty[i]) {
				continue
			}
			col := int(math.Round((tx[i]/s.ToCRS - s.XMin) / dx))
			row := int(math.Round((ty[i]/s.ToCRS - s.YMin) / dy))
			if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
				continue
			}
			code := sampled.At(row/o.Stride, col/o.Stride)
			if c, ok := o.Palette[int(code)]; ok {
				img.SetRGBA(ox+px, oy+py, c)
			}
		}
	}
	return nil
}

// Graticule spacing in degrees.
const (
	lonStep = 10.0
	latStep = 5.0
)

// drawGraticule draws meridians every 10 degrees and parallels every 5
// degrees as 0.5 px gray lines, each labelled along the map edges.
func drawGraticule(dc *gg.Context, f frame, o Options) error {
	goode, err := grid.For(grid.GoodeHomolosine)
	if err != nil {
		return err
	}
	newProjector := o.Projector
	if newProjector == nil {
		newProjector = func(source, target string) (transform.Projector, error) {
			return transform.NewPROJ(source, target)
		}
	}
	p, err := newProjector(transform.DefaultTarget, goode.Proj4)
	if err != nil {
		return fmt.Errorf("graticule projection: %w", err)
	}
	if c, ok := p.(interface{ Close() error }); ok {
		defer c.Close()
	}

	project := func(lon, lat float64) (float64, float64, bool) {
		x, y, err := p.Forward(lon, lat)
		if err != nil || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return 0, 0, false
		}
		px, py := f.pixel(x, y)
		return px, py, true
	}
	// Consecutive points further apart than this straddle an interruption.
	maxGap := 500e3 * f.scale

	line := func(pt func(t float64) (lon, lat float64), from, to float64) {
		started := false
		var lx, ly float64
		for t := from; t <= to; t += 0.5 {
			x, y, ok := project(pt(t))
			if !ok {
				started = false
				continue
			}
			if started && math.Hypot(x-lx, y-ly) > maxGap {
				started = false
			}
			if started {
				dc.LineTo(x, y)
			} else {
				dc.NewSubPath()
				dc.MoveTo(x, y)
			}
			started, lx, ly = true, x, y
		}
	}

	dc.SetRGB(0.5, 0.5, 0.5)
	dc.SetLineWidth(0.5)
	meridians, parallels := ticks(-180, 180, lonStep), ticks(-90, 90, latStep)
	for _, lon := range meridians {
		line(func(lat float64) (float64, float64) { return lon, lat }, -90, 90)
	}
	for _, lat := range parallels {
		line(func(lon float64) (float64, float64) { return lon, lat }, -180, 180)
	}
	dc.Stroke()

	dc.SetRGB(0.3, 0.3, 0.3)
	bottom := f.oy + float64(f.h) + 4
	for _, lon := range meridians {
		if x, _, ok := project(lon, 0); ok {
			dc.DrawStringAnchored(label(lon, "E", "W"), x, bottom, 0.5, 1)
		}
	}
	for _, lat := range parallels {
		if _, y, ok := project(0, lat); ok {
			dc.DrawStringAnchored(label(lat, "N", "S"), f.ox-4, y, 1, 0.5)
		}
	}
	return nil
}

// ticks returns from, from+step, ... up to but excluding to.
func ticks(from, to, step float64) []float64 {
	var out []float64
	for i := 0; from+float64(i)*step < to; i++ {
		out = append(out, from+float64(i)*step)
	}
	return out
}

// label formats a graticule value, the default font has no degree sign.
func label(v float64, pos, neg string) string {
	switch {
	case v > 0:
		return fmt.Sprintf("%g%s", v, pos)
	case v < 0:
		return fmt.Sprintf("%g%s", -v, neg)
	}
	return "0"
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	return gg.SavePNG(path, img)
}
