package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/akhenakh/glcc/geotiff"
	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/raster"
	"github.com/akhenakh/glcc/source"
)

// Load opens a GLCC GeoTIFF or flat binary file from a local path, an
// http(s) URL or a bucket URL. The grid is detected from the raster shape,
// or from the file size for flat files, unless WithGrid or WithProjection
// is given. The proj4 attribute is the GeoTIFF CRS when the file has one
// and the grid default otherwise. A GeoTIFF whose georeferenced extent
// disagrees with the grid is loaded with a warning, and its nodata value
// becomes the _FillValue attribute. Close the dataset to release the file.
func Load(ctx context.Context, uri string, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)

	done := o.metrics.Stage("read")
	o.logger.Info("reading", "source", source.Name(uri))
	r, err := source.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	band, spec, crs, err := openBand(r, &o)
	done()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", source.Name(uri), err)
	}
	if o.crs == "" {
		o.crs = crs
	}

	o.logger.Info("creating dataset", "projection", spec.Projection.String(), "rows", spec.Rows, "cols", spec.Cols)
	d, err := newDataset(band, spec, o)
	if err != nil {
		r.Close()
		return nil, err
	}
	d.closer = r
	return d, nil
}

func openBand(r source.Reader, o *options) (raster.Band, grid.Spec, string, error) {
	isTIFF, err := sniffTIFF(r)
	if err != nil {
		return nil, grid.Spec{}, "", err
	}
	if !isTIFF {
		spec, err := o.resolveGrid(func() (grid.Spec, error) { return grid.DetectSize(r.Size()) })
		if err != nil {
			return nil, grid.Spec{}, "", err
		}
		band, err := raster.NewFlatBand(r, r.Size(), spec.Rows, spec.Cols)
		if err != nil {
			return nil, grid.Spec{}, "", err
		}
		return band, spec, spec.Proj4, nil
	}

	gopts := []geotiff.Option{geotiff.WithLogger(o.logger)}
	if o.blockCache[0] > 0 {
		gopts = append(gopts, geotiff.WithCache(o.blockCache[0], uint32(o.blockCache[1])))
	}
	tif, err := geotiff.Open(r, gopts...)
	if err != nil {
		return nil, grid.Spec{}, "", err
	}
	band := raster.NewTIFFBand(tif)
	rows, cols := band.Size()
	spec, err := o.resolveGrid(func() (grid.Spec, error) { return grid.Detect(rows, cols) })
	if err != nil {
		return nil, grid.Spec{}, "", err
	}
	checkExtent(tif, spec, o.logger)
	if v, ok := tif.NoData(); ok {
		o.fill = strconv.FormatFloat(v, 'f', -1, 64)
	}
	crs, err := tif.CRS()
	if err != nil {
		if !errors.Is(err, geotiff.ErrNoCRS) {
			o.logger.Warn("ignoring geotiff crs", "error", err)
		}
		crs = spec.Proj4
	}
	return band, spec, crs, nil
}

// checkExtent warns when the georeferenced edges of tif are more than half
// a cell away from the edges of spec. It reports whether they match, and
// treats a raster without georeferencing as matching.
func checkExtent(tif *geotiff.GeoTIFF, spec grid.Spec, logger *slog.Logger) bool {
	b, err := tif.Bounds()
	if err != nil {
		logger.Debug("geotiff has no georeferencing", "error", err)
		return true
	}
	xmin, ymin, xmax, ymax := spec.Extent()
	dx, dy := spec.CellSize()
	got := [4]float64{
		min(b.UpperLeft.X, b.LowerRight.X), min(b.UpperLeft.Y, b.LowerRight.Y),
		max(b.UpperLeft.X, b.LowerRight.X), max(b.UpperLeft.Y, b.LowerRight.Y),
	}
	want := [4]float64{xmin, ymin, xmax, ymax}
	tol := [4]float64{dx / 2, dy / 2, dx / 2, dy / 2}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol[i] {
			logger.Warn("geotiff extent does not match grid",
				"projection", spec.Projection.String(), "bounds", b.String(),
				"want", fmt.Sprintf("%g %g %g %g", xmin, ymin, xmax, ymax))
			return false
		}
	}
	return true
}

func (o options) resolveGrid(detect func() (grid.Spec, error)) (grid.Spec, error) {
	switch {
	case o.spec != nil:
		return *o.spec, nil
	case o.projection != nil:
		return grid.For(*o.projection)
	}
	return detect()
}

// sniffTIFF checks the classic and BigTIFF signatures in both byte orders.
func sniffTIFF(r io.ReaderAt) (bool, error) {
	var magic [4]byte
	n, err := r.ReadAt(magic[:], 0)
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read file signature: %w", err)
	}
	if n < len(magic) {
		return false, nil
	}
	switch {
	case bytes.Equal(magic[:2], []byte("II")):
		return (magic[2] == 42 || magic[2] == 43) && magic[3] == 0, nil
	case bytes.Equal(magic[:2], []byte("MM")):
		return magic[2] == 0 && (magic[3] == 42 || magic[3] == 43), nil
	}
	return false, nil
}
