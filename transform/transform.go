// Package transform converts planar grid coordinates to latitude and
// longitude.
package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultTarget is the CRS coordinates are transformed to.
const DefaultTarget = "EPSG:4326"

// Projector transforms a single point. Implementations are not expected to
// be safe for concurrent use.
type Projector interface {
	Forward(x, y float64) (lon, lat float64, err error)
}

// ProjectorFunc creates one Projector per worker.
type ProjectorFunc func(source, target string) (Projector, error)

type config struct {
	target       string
	workers      int
	scale        float64
	newProjector ProjectorFunc
	logger       *slog.Logger
}

// Option configures a transform.
type Option func(*config)

// WithTarget overrides DefaultTarget.
func WithTarget(crs string) Option {
	return func(c *config) { c.target = crs }
}

// WithWorkers bounds the number of concurrent workers, each holding its own
// Projector. Values below one mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithScale multiplies input coordinates by s before transforming them,
// for instance 1/3600 for arc seconds to degrees.
func WithScale(s float64) Option {
	return func(c *config) { c.scale = s }
}

// WithProjector replaces the PROJ backed projector.
func WithProjector(f ProjectorFunc) Option {
	return func(c *config) { c.newProjector = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(opts []Option) *config {
	c := &config{
		target: DefaultTarget,
		scale:  1,
		newProjector: func(source, target string) (Projector, error) {
			return NewPROJ(source, target)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// TransformYX transforms the grid spanned by the y and x axes from the
// source CRS. The returned slices are row major with len(y)*len(x)
// elements. Points PROJ fails on, or that come back non finite, are NaN.
func TransformYX(ctx context.Context, y, x []float64, source string, opts ...Option) (lat, lon []float64, err error) {
	c := newConfig(opts)
	nx := len(x)
	lat = make([]float64, len(y)*nx)
	lon = make([]float64, len(y)*nx)

	err = c.rows(ctx, source, len(y), func(p Projector, row int) {
		for col, xv := range x {
			i := row*nx + col
			lon[i], lat[i] = c.forward(p, xv, y[row])
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}

// TransformBounds transforms cell bounds. yBounds and xBounds hold the
// lower and upper edge of every cell along each axis. The result has
// len(yBounds)*len(xBounds)*4 elements: for each cell the four vertices
// counterclockwise from the lower left, (x0,y0) (x1,y0) (x1,y1) (x0,y1).
func TransformBounds(ctx context.Context, yBounds, xBounds [][2]float64, source string, opts ...Option) (lat, lon []float64, err error) {
	c := newConfig(opts)
	nx := len(xBounds)
	lat = make([]float64, len(yBounds)*nx*4)
	lon = make([]float64, len(yBounds)*nx*4)

	err = c.rows(ctx, source, len(yBounds), func(p Projector, row int) {
		yb := yBounds[row]
		for col, xb := range xBounds {
			i := (row*nx + col) * 4
			for v, xy := range Vertices(xb, yb) {
				lon[i+v], lat[i+v] = c.forward(p, xy[0], xy[1])
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}

// Vertices returns the corners of the cell spanned by xb and yb,
// counterclockwise from the lower left.
func Vertices(xb, yb [2]float64) [4][2]float64 {
	return [4][2]float64{
		{xb[0], yb[0]},
		{xb[1], yb[0]},
		{xb[1], yb[1]},
		{xb[0], yb[1]},
	}
}

// ValidLatLon reports whether lat and lon are finite and inside
// [-90,90] x [-180,180].
func ValidLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (c *config) forward(p Projector, x, y float64) (lon, lat float64) {
	lon, lat, err := p.Forward(x*c.scale, y*c.scale)
	if err != nil || !finite(lon) || !finite(lat) {
		return math.NaN(), math.NaN()
	}
	return lon, lat
}

// rows splits [0, n) in contiguous bands, one per worker. Every worker
// owns a Projector for its whole band.
func (c *config) rows(ctx context.Context, source string, n int, fn func(p Projector, row int)) error {
	if n == 0 {
		return nil
	}
	workers := min(c.workers, n)
	band := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += band {
		end := min(start+band, n)
		g.Go(func() error {
			p, err := c.newProjector(source, c.target)
			if err != nil {
				return fmt.Errorf("transform %s to %s: %w", source, c.target, err)
			}
			if closer, ok := p.(io.Closer); ok {
				defer closer.Close()
			}
			for row := start; row < end; row++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fn(p, row)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("transform failed", "source", source, "target", c.target, "error", err)
		}
		return err
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
