package dataset

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/raster"
	"github.com/akhenakh/glcc/transform"
)

// Coords holds one chunk of a derived coordinate pair, row major. Bounds
// have four vertices per cell.
type Coords struct {
	Lat, Lon []float64
}

// Chunk is every variable of a window, rows counting from the south.
type Chunk struct {
	Window grid.Window
	Data   *raster.Grid[uint8]
	X, Y   []float64
	// LatLon is nil without coordinates.
	LatLon *Coords
	// Bounds is nil without bounds.
	Bounds *Coords
}

func (c *Coords) clone() *Coords {
	return &Coords{Lat: slices.Clone(c.Lat), Lon: slices.Clone(c.Lon)}
}

// Chunk materialises the variables of w, clipped to the grid. The chunk
// is a copy the caller may modify.
func (d *Dataset) Chunk(ctx context.Context, w grid.Window) (*Chunk, error) {
	w = d.Spec.Clip(w)
	if w.Len() == 0 {
		return nil, fmt.Errorf("%w: empty window %s", ErrOutside, w)
	}
	c := &Chunk{
		Window: w,
		X:      slices.Clone(d.x[w.Col : w.Col+w.Cols]),
		Y:      slices.Clone(d.y[w.Row : w.Row+w.Rows]),
	}
	var err error
	if c.Data, err = d.Data(ctx, w); err != nil {
		return nil, err
	}
	if d.opts.coords {
		ll, err := d.latLon(ctx, w)
		if err != nil {
			return nil, err
		}
		c.LatLon = ll.clone()
	}
	if d.opts.bounds {
		b, err := d.cellBounds(ctx, w)
		if err != nil {
			return nil, err
		}
		c.Bounds = b.clone()
	}
	return c, nil
}

// Data returns a copy of the category codes of w, clipped to the grid,
// without touching the derived coordinates.
func (d *Dataset) Data(ctx context.Context, w grid.Window) (*raster.Grid[uint8], error) {
	w = d.Spec.Clip(w)
	if w.Len() == 0 {
		return nil, fmt.Errorf("%w: empty window %s", ErrOutside, w)
	}
	g, err := d.data(ctx, w)
	if err != nil {
		return nil, err
	}
	return &raster.Grid[uint8]{Rows: g.Rows, Cols: g.Cols, Data: slices.Clone(g.Data)}, nil
}

// cached returns the value stored under key, computing it once across
// concurrent callers.
func cached[T any](d *Dataset, key string, compute func() (T, error)) (T, error) {
	item := d.cache.Get(key)
	if item != nil && !item.Expired() {
		d.opts.metrics.Cache(true)
		return item.Value().(T), nil
	}
	d.opts.metrics.Cache(false)

	v, err, _ := d.inflight.Do(key, func() (interface{}, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		d.cache.Set(key, v, d.opts.cacheTTL)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (d *Dataset) data(ctx context.Context, w grid.Window) (*raster.Grid[uint8], error) {
	return cached(d, Variable+"/"+w.String(), func() (*raster.Grid[uint8], error) {
		// Band rows run north to south.
		g, err := d.band.ReadWindow(ctx, d.Spec.Rows-w.Row-w.Rows, w.Col, w.Rows, w.Cols)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", w, err)
		}
		g.FlipUD()
		d.opts.metrics.Chunk(Variable)
		return g, nil
	})
}

func (d *Dataset) latLon(ctx context.Context, w grid.Window) (*Coords, error) {
	return cached(d, "lat_lon/"+w.String(), func() (*Coords, error) {
		defer d.opts.metrics.Stage("lat_lon")()
		lat, lon, err := transform.TransformYX(ctx,
			d.y[w.Row:w.Row+w.Rows], d.x[w.Col:w.Col+w.Cols],
			d.opts.crs, d.transformOptions()...)
		if err != nil {
			return nil, err
		}
		d.opts.metrics.Chunk("lat_lon")
		d.opts.metrics.Masked(countNaN(lat))
		return &Coords{Lat: lat, Lon: lon}, nil
	})
}

func (d *Dataset) cellBounds(ctx context.Context, w grid.Window) (*Coords, error) {
	return cached(d, "bounds/"+w.String(), func() (*Coords, error) {
		defer d.opts.metrics.Stage("bounds")()
		lat, lon, err := transform.TransformBounds(ctx,
			d.yb[w.Row:w.Row+w.Rows], d.xb[w.Col:w.Col+w.Cols],
			d.opts.crs, d.transformOptions()...)
		if err != nil {
			return nil, err
		}
		d.opts.metrics.Chunk("bounds")
		return &Coords{Lat: lat, Lon: lon}, nil
	})
}

func (d *Dataset) transformOptions() []transform.Option {
	opts := []transform.Option{
		transform.WithScale(d.Spec.ToCRS),
		transform.WithWorkers(d.opts.workers),
		transform.WithLogger(d.opts.logger),
	}
	if d.opts.projector != nil {
		opts = append(opts, transform.WithProjector(d.opts.projector))
	}
	return opts
}

func countNaN(v []float64) int {
	n := 0
	for _, f := range v {
		if math.IsNaN(f) {
			n++
		}
	}
	return n
}
