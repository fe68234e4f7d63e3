// Package dataset assembles a GLCC band, its grid and legend into a
// labeled dataset with lazily derived geographic coordinates.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/legend"
	"github.com/akhenakh/glcc/metrics"
	"github.com/akhenakh/glcc/raster"
	"github.com/akhenakh/glcc/transform"
)

// Variable is the name of the category data variable.
const Variable = "glcc"

// Description is the dataset description attribute.
const Description = "Global Land Cover Characteristics Data Base Version 2.0."

var (
	// ErrNoCoords is returned by lat/lon accessors when coordinates are
	// not attached.
	ErrNoCoords = errors.New("dataset: lat/lon coordinates not attached")
	// ErrNoBounds is returned by bounds accessors when bounds are not
	// attached.
	ErrNoBounds = errors.New("dataset: cell bounds not attached")
	// ErrOutside is returned for cells outside the grid.
	ErrOutside = errors.New("dataset: cell outside grid")
	// ErrMasked is returned when a cell polygon has a vertex that could
	// not be transformed.
	ErrMasked = errors.New("dataset: cell is masked")
)

type options struct {
	coords       bool
	bounds       bool
	crs          string
	legend       *legend.Legend
	workers      int
	cacheSize    int64
	itemsToPrune uint32
	cacheTTL     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	projector    transform.ProjectorFunc

	// Load only.
	spec       *grid.Spec
	projection *grid.Projection
	blockCache [2]int64
	// fill is the GeoTIFF nodata value, set by Load.
	fill string
}

// Option configures New and Load.
type Option func(*options)

// WithCoords attaches lat and lon coordinates. On by default.
func WithCoords(on bool) Option { return func(o *options) { o.coords = on } }

// WithBounds attaches lat_bounds and lon_bounds. On by default.
func WithBounds(on bool) Option { return func(o *options) { o.bounds = on } }

// WithCRS sets the CRS the x and y axes are expressed in. It defaults to
// the GeoTIFF CRS, or the grid's proj4 definition.
func WithCRS(crs string) Option { return func(o *options) { o.crs = crs } }

// WithLegend replaces the Olson Global Ecosystem legend.
func WithLegend(l *legend.Legend) Option { return func(o *options) { o.legend = l } }

// WithWorkers bounds the transform and histogram workers. Zero or less
// means GOMAXPROCS.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithCache sets the size, in chunks, of the derived chunk cache.
func WithCache(maxSize int64, itemsToPrune uint32) Option {
	return func(o *options) {
		o.cacheSize = maxSize
		o.itemsToPrune = itemsToPrune
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics records chunk and stage metrics in m.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithProjector replaces the PROJ backed coordinate transform.
func WithProjector(f transform.ProjectorFunc) Option {
	return func(o *options) { o.projector = f }
}

// WithGrid makes Load use spec instead of detecting the grid.
func WithGrid(spec grid.Spec) Option { return func(o *options) { o.spec = &spec } }

// WithProjection makes Load use the grid of p instead of detecting it.
func WithProjection(p grid.Projection) Option { return func(o *options) { o.projection = &p } }

// WithBlockCache sizes the GeoTIFF block cache used by Load.
func WithBlockCache(maxSize int64, itemsToPrune uint32) Option {
	return func(o *options) { o.blockCache = [2]int64{maxSize, int64(itemsToPrune)} }
}

func (o options) workerLimit() int {
	if o.workers > 0 {
		return o.workers
	}
	return runtime.GOMAXPROCS(0)
}

func newOptions(opts []Option) options {
	o := options{
		coords:       true,
		bounds:       true,
		legend:       legend.OlsonGlobalEcosystem,
		cacheSize:    16,
		itemsToPrune: 4,
		cacheTTL:     10 * time.Minute,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dataset is a GLCC band on its grid. Rows count from the southern edge:
// row 0 is the southernmost line, matching the ascending y axis. Data and
// derived coordinates are read and computed per chunk on first access.
type Dataset struct {
	Spec   grid.Spec
	Legend *legend.Legend
	// Attrs holds description, proj4 and legend, and _FillValue when the
	// GeoTIFF declares a nodata value.
	Attrs map[string]string
	// CoordAttrs holds the attributes of x, y, lat and lon.
	CoordAttrs map[string]map[string]string

	band   raster.Band
	closer io.Closer
	x, y   []float64
	xb, yb [][2]float64
	opts   options

	cache    *ccache.Cache[any]
	inflight singleflight.Group
}

// New builds a dataset over band, which is in file order with the northern
// line first.
func New(band raster.Band, spec grid.Spec, opts ...Option) (*Dataset, error) {
	return newDataset(band, spec, newOptions(opts))
}

func newDataset(band raster.Band, spec grid.Spec, o options) (*Dataset, error) {
	rows, cols := band.Size()
	if rows != spec.Rows || cols != spec.Cols {
		return nil, fmt.Errorf("%w: band is %d x %d, %s grid is %d x %d",
			raster.ErrShape, rows, cols, spec.Projection, spec.Rows, spec.Cols)
	}
	if o.crs == "" {
		o.crs = spec.Proj4
	}

	d := &Dataset{
		Spec:   spec,
		Legend: o.legend,
		Attrs: map[string]string{
			"description": Description,
			"proj4":       o.crs,
			"legend":      o.legend.Name,
		},
		CoordAttrs: map[string]map[string]string{
			"x": {"axis": "X", "units": spec.Units, "standard_name": "projection_x_coordinate"},
			"y": {"axis": "Y", "units": spec.Units, "standard_name": "projection_y_coordinate"},
		},
		band:  band,
		x:     spec.X(),
		y:     spec.Y(),
		opts:  o,
		cache: ccache.New(ccache.Configure[any]().MaxSize(o.cacheSize).ItemsToPrune(o.itemsToPrune)),
	}
	if o.fill != "" {
		d.Attrs["_FillValue"] = o.fill
	}
	if o.bounds {
		d.xb = grid.AxisBounds(d.x)
		d.yb = grid.AxisBounds(d.y)
		d.CoordAttrs["x"]["bounds"] = "x_bounds"
		d.CoordAttrs["y"]["bounds"] = "y_bounds"
	}
	if o.coords || o.bounds {
		d.CoordAttrs["lat"] = map[string]string{"units": "degrees_north", "standard_name": "latitude"}
		d.CoordAttrs["lon"] = map[string]string{"units": "degrees_east", "standard_name": "longitude"}
	}
	if o.coords {
		o.logger.Info("creating coordinates from crs", "crs", o.crs)
	}
	if o.bounds {
		o.logger.Info("creating bounds from crs", "crs", o.crs)
	}
	return d, nil
}

// WithLatLon returns a view of d with lat and lon attached, transformed
// from crs, and no bounds. The view shares the band but not the cache.
func (d *Dataset) WithLatLon(crs string) (*Dataset, error) {
	o := d.opts
	o.coords, o.bounds, o.crs = true, false, crs
	return newDataset(d.band, d.Spec, o)
}

// Close releases the underlying source when the dataset was opened by
// Load.
func (d *Dataset) Close() error {
	d.cache.Stop()
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// CRS is the CRS of the x and y axes.
func (d *Dataset) CRS() string { return d.opts.crs }

// HasCoords reports whether lat and lon are attached.
func (d *Dataset) HasCoords() bool { return d.opts.coords }

// HasBounds reports whether cell bounds are attached.
func (d *Dataset) HasBounds() bool { return d.opts.bounds }

// X returns the x axis. It must not be modified.
func (d *Dataset) X() []float64 { return d.x }

// Y returns the y axis, south to north. It must not be modified.
func (d *Dataset) Y() []float64 { return d.y }

// Band returns the underlying band, in file order.
func (d *Dataset) Band() raster.Band { return d.band }

// Value returns the category code of a cell.
func (d *Dataset) Value(ctx context.Context, row, col int) (uint8, error) {
	w, err := d.chunkOf(row, col)
	if err != nil {
		return 0, err
	}
	g, err := d.data(ctx, w)
	if err != nil {
		return 0, err
	}
	return g.At(row-w.Row, col-w.Col), nil
}

// Category returns the code of a cell and its class name. Codes missing
// from the legend have an empty name.
func (d *Dataset) Category(ctx context.Context, row, col int) (int, string, error) {
	v, err := d.Value(ctx, row, col)
	if err != nil {
		return 0, "", err
	}
	name, _ := d.Legend.Lookup(int(v))
	return int(v), name, nil
}

// LatLon returns the geographic coordinates of a cell centre. Masked
// cells return NaN.
func (d *Dataset) LatLon(ctx context.Context, row, col int) (lat, lon float64, err error) {
	if !d.opts.coords {
		return 0, 0, ErrNoCoords
	}
	w, err := d.chunkOf(row, col)
	if err != nil {
		return 0, 0, err
	}
	c, err := d.latLon(ctx, w)
	if err != nil {
		return 0, 0, err
	}
	i := (row-w.Row)*w.Cols + col - w.Col
	return c.Lat[i], c.Lon[i], nil
}

// CellBounds returns the four vertices of a cell, counterclockwise from
// the lower left, as lat and lon.
func (d *Dataset) CellBounds(ctx context.Context, row, col int) (lat, lon [4]float64, err error) {
	if !d.opts.bounds {
		return lat, lon, ErrNoBounds
	}
	w, err := d.chunkOf(row, col)
	if err != nil {
		return lat, lon, err
	}
	c, err := d.cellBounds(ctx, w)
	if err != nil {
		return lat, lon, err
	}
	i := ((row-w.Row)*w.Cols + col - w.Col) * 4
	copy(lat[:], c.Lat[i:i+4])
	copy(lon[:], c.Lon[i:i+4])
	return lat, lon, nil
}

func (d *Dataset) chunkOf(row, col int) (grid.Window, error) {
	if !d.Spec.Full().Contains(row, col) {
		return grid.Window{}, fmt.Errorf("%w: (%d, %d)", ErrOutside, row, col)
	}
	w, _ := d.Spec.ChunkOf(row, col)
	return w, nil
}
