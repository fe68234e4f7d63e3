package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/glcc/grid"
	"github.com/akhenakh/glcc/internal/tifftest"
	"github.com/akhenakh/glcc/metrics"
	"github.com/akhenakh/glcc/raster"
	"github.com/akhenakh/glcc/transform"
)

// identity passes planar coordinates through and fails in the south west
// quadrant, standing in for an interrupted area.
type identity struct{}

func (identity) Forward(x, y float64) (float64, float64, error) {
	if x < 0 && y < 0 {
		return 0, 0, errors.New("interrupted")
	}
	return x, y, nil
}

func fakeProjector(source, target string) (transform.Projector, error) {
	return identity{}, nil
}

// testSpec is a 4 x 6 Goode grid. x is -20015000 + i*8006000 and y is
// -8673000 + i*5782000.
func testSpec(t *testing.T) grid.Spec {
	t.Helper()
	s, err := grid.For(grid.GoodeHomolosine)
	require.NoError(t, err)
	return s.Custom(4, 6).WithChunks(2, 4)
}

// fileData holds r*6+c at file row r, column c.
func fileData() []byte {
	data := make([]byte, 24)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func testBand(t *testing.T) *raster.MemBand {
	t.Helper()
	g, err := raster.Reshape(fileData(), 4, 6)
	require.NoError(t, err)
	return raster.NewMemBand(g)
}

func newTestDataset(t *testing.T, opts ...Option) *Dataset {
	t.Helper()
	opts = append([]Option{WithProjector(fakeProjector)}, opts...)
	d, err := New(testBand(t), testSpec(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	spec := testSpec(t)

	assert.Equal(t, Description, d.Attrs["description"])
	assert.Equal(t, spec.Proj4, d.Attrs["proj4"])
	assert.Equal(t, "Olson Global Ecosystem Legend", d.Attrs["legend"])
	assert.Equal(t, "X", d.CoordAttrs["x"]["axis"])
	assert.Equal(t, "Y", d.CoordAttrs["y"]["axis"])
	assert.Equal(t, "m", d.CoordAttrs["y"]["units"])
	assert.Equal(t, "latitude", d.CoordAttrs["lat"]["standard_name"])
	assert.Equal(t, spec.Proj4, d.CRS())
	assert.Len(t, d.X(), 6)
	assert.Equal(t, -8673000.0, d.Y()[0])

	// Row 0 is the last line of the file.
	v, err := d.Value(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), v)
	v, err = d.Value(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), v)

	code, name, err := d.Category(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 19, code)
	assert.Equal(t, "EVERGREEN FOREST AND FIELDS", name)

	_, err = d.Value(ctx, 4, 0)
	assert.ErrorIs(t, err, ErrOutside)
	_, err = d.Value(ctx, 0, -1)
	assert.ErrorIs(t, err, ErrOutside)
}

func TestNewShapeMismatch(t *testing.T) {
	s, err := grid.For(grid.GoodeHomolosine)
	require.NoError(t, err)
	_, err = New(testBand(t), s)
	assert.ErrorIs(t, err, raster.ErrShape)
}

func TestLatLon(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)

	lat, lon, err := d.LatLon(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2891000.0, lat)
	assert.Equal(t, 4003000.0, lon)

	lat, lon, err = d.LatLon(ctx, 0, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(lat))
	assert.True(t, math.IsNaN(lon))
}

func TestCellBounds(t *testing.T) {
	d := newTestDataset(t)
	lat, lon, err := d.CellBounds(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{0, 8006000, 8006000, 0}, lon)
	assert.Equal(t, [4]float64{-5782000, -5782000, 0, 0}, lat)
}

func TestCellPolygon(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)

	p, err := d.CellPolygon(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, p, 1)
	ring := p[0]
	require.Len(t, ring, 5)
	assert.Equal(t, orb.Point{0, -5782000}, ring[0])
	assert.Equal(t, orb.Point{8006000, -5782000}, ring[1])
	assert.Equal(t, ring[0], ring[4])
	assert.True(t, ring.Closed())

	// The lower left vertex of (1, 2) is in the failing quadrant.
	_, err = d.CellPolygon(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrMasked)
}

func TestWithoutCoords(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t, WithCoords(false), WithBounds(false))
	assert.False(t, d.HasCoords())
	assert.NotContains(t, d.CoordAttrs, "lat")

	_, _, err := d.LatLon(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrNoCoords)
	_, _, err = d.CellBounds(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrNoBounds)
	_, err = d.FeatureCollection(ctx, grid.Window{Rows: 1, Cols: 1})
	assert.ErrorIs(t, err, ErrNoBounds)

	c, err := d.Chunk(ctx, grid.Window{Rows: 1, Cols: 1})
	require.NoError(t, err)
	assert.Nil(t, c.LatLon)
	assert.Nil(t, c.Bounds)

	v, err := d.WithLatLon(d.CRS())
	require.NoError(t, err)
	defer v.Close()
	assert.True(t, v.HasCoords())
	assert.False(t, v.HasBounds())
	lat, lon, err := v.LatLon(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 8673000.0, lat)
	assert.Equal(t, 20015000.0, lon)
}

func TestChunk(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)

	c, err := d.Chunk(ctx, grid.Window{Row: 1, Col: 2, Rows: 2, Cols: 3})
	require.NoError(t, err)
	assert.Equal(t, []uint8{14, 15, 16, 8, 9, 10}, c.Data.Data)
	assert.Equal(t, d.X()[2:5], c.X)
	assert.Equal(t, d.Y()[1:3], c.Y)
	require.NotNil(t, c.LatLon)
	assert.Len(t, c.LatLon.Lat, 6)
	require.NotNil(t, c.Bounds)
	assert.Len(t, c.Bounds.Lat, 24)

	c, err = d.Chunk(ctx, grid.Window{Row: 3, Col: 4, Rows: 5, Cols: 5})
	require.NoError(t, err)
	assert.Equal(t, grid.Window{Row: 3, Col: 4, Rows: 1, Cols: 2}, c.Window)
	assert.Equal(t, []uint8{4, 5}, c.Data.Data)

	_, err = d.Chunk(ctx, grid.Window{Row: 10, Col: 10, Rows: 1, Cols: 1})
	assert.ErrorIs(t, err, ErrOutside)
}

func TestChunkIsACopy(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	w := grid.Window{Row: 1, Col: 2, Rows: 2, Cols: 3}

	data, err := d.Data(ctx, w)
	require.NoError(t, err)
	data.Data[0] = 99

	c, err := d.Chunk(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, uint8(14), c.Data.Data[0])
	c.Data.Data[1] = 99
	c.X[0] = 1
	c.LatLon.Lat[5] = 1
	c.Bounds.Lon[23] = 1

	v, err := d.Value(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, uint8(15), v)
	assert.Equal(t, testSpec(t).X()[2], d.X()[2])

	again, err := d.Chunk(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, []uint8{14, 15, 16, 8, 9, 10}, again.Data.Data)
	// The last cell of the window is unmasked.
	assert.Equal(t, 2891000.0, again.LatLon.Lat[5])
	assert.Equal(t, 8006000.0, again.Bounds.Lon[23])
}

func TestChunkCache(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	d := newTestDataset(t, WithMetrics(m))

	for col := 0; col < 4; col++ {
		_, err := d.Value(ctx, 0, col)
		require.NoError(t, err)
	}
	_, err = d.Value(ctx, 0, 4)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChunksComputed.WithLabelValues(Variable)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")))

	// Chunk (0, 0) covers x[0:4] and y[0:2]: the south west quadrant has
	// x < 0 and y < 0 for columns 0..2 on both rows.
	_, _, err = d.LatLon(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, testutil.ToFloat64(m.MaskedCells))
}

func TestFeatureCollection(t *testing.T) {
	d := newTestDataset(t)
	fc, err := d.FeatureCollection(context.Background(), grid.Window{Row: 1, Col: 2, Rows: 1, Cols: 2})
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, 1, f.Properties["row"])
	assert.Equal(t, 3, f.Properties["col"])
	assert.Equal(t, 15, f.Properties["code"])
	assert.Equal(t, "SEA WATER", f.Properties["type"])
	assert.Equal(t, "Polygon", f.Geometry.GeoJSONType())

	out, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"type":"FeatureCollection"`)
}

func TestHistogram(t *testing.T) {
	d := newTestDataset(t, WithWorkers(2))
	counts, err := d.Histogram(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 24)
	for i, c := range counts {
		assert.Equal(t, i, c.Code)
		assert.Equal(t, int64(1), c.Cells)
	}
	assert.Equal(t, "SEA WATER", counts[15].Class)
}

func TestSummary(t *testing.T) {
	s := newTestDataset(t).Summary()
	assert.Contains(t, s, "Dimensions:  (y: 4, x: 6, index: 98, vertices: 4)")
	assert.Contains(t, s, "chunksize=(2, 4)")
	assert.Contains(t, s, "lat_bounds")
	assert.Contains(t, s, "description: "+Description)
	assert.Contains(t, s, "proj4: +proj=igh")
}

func TestLoadFlat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gbogeg20.img")
	require.NoError(t, os.WriteFile(path, fileData(), 0o644))

	d, err := Load(ctx, path, WithGrid(testSpec(t)), WithProjector(fakeProjector))
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, testSpec(t).Proj4, d.Attrs["proj4"])
	assert.NotContains(t, d.Attrs, "_FillValue")
	v, err := d.Value(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), v)

	_, err = Load(ctx, path)
	assert.ErrorIs(t, err, grid.ErrUnknownShape)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.img"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadGeoTIFF(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts tifftest.Options
		want string
	}{
		{
			name: "goode geokeys",
			opts: tifftest.Options{
				GeoKeys: []uint16{1, 1, 0, 4,
					1024, 0, 1, 1,
					1026, 34737, 29, 0,
					2057, 34736, 1, 0,
					3072, 0, 1, 32767},
				GeoDoubles: []float64{6370997},
				GeoASCII:   "Interrupted Goode Homolosine|",
			},
			want: "+proj=igh +R=6370997 +units=m +no_defs",
		},
		{
			name: "no geokeys",
			want: testSpec(t).Proj4,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := tc.opts
			o.Width, o.Height, o.Data, o.RowsPerStrip = 6, 4, fileData(), 2
			path := filepath.Join(t.TempDir(), "gigbp2_0g.tif")
			require.NoError(t, os.WriteFile(path, tifftest.Build(o), 0o644))

			d, err := Load(ctx, path, WithGrid(testSpec(t)), WithProjector(fakeProjector), WithBlockCache(4, 1))
			require.NoError(t, err)
			defer d.Close()

			assert.Equal(t, tc.want, d.Attrs["proj4"])
			v, err := d.Value(ctx, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, uint8(18), v)
			v, err = d.Value(ctx, 3, 5)
			require.NoError(t, err)
			assert.Equal(t, uint8(5), v)
		})
	}
}

func TestLoadGeoTIFFExtent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		origin   [2]float64
		wantWarn bool
	}{
		// Outer edges of the 4 x 6 grid are x -24018000 and y 11564000.
		{name: "matching", origin: [2]float64{-24018000, 11564000}},
		{name: "within half a cell", origin: [2]float64{-24018000 + 4000000, 11564000 - 2000000}},
		{name: "shifted", origin: [2]float64{0, 0}, wantWarn: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gigbp2_0g.tif")
			require.NoError(t, os.WriteFile(path, tifftest.Build(tifftest.Options{
				Width: 6, Height: 4, Data: fileData(),
				PixelScale: [2]float64{8006000, 5782000},
				Origin:     tc.origin,
				NoData:     "100",
			}), 0o644))

			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			d, err := Load(ctx, path, WithGrid(testSpec(t)), WithProjector(fakeProjector), WithLogger(logger))
			require.NoError(t, err)
			defer d.Close()

			assert.Equal(t, tc.wantWarn, strings.Contains(logs.String(), "geotiff extent does not match grid"))
			assert.Equal(t, "100", d.Attrs["_FillValue"])
			assert.Contains(t, d.Summary(), "_FillValue: 100")

			v, err := d.WithLatLon(d.CRS())
			require.NoError(t, err)
			defer v.Close()
			assert.Equal(t, "100", v.Attrs["_FillValue"])
		})
	}
}

// peakBand records the largest number of concurrent window reads.
type peakBand struct {
	raster.Band
	cur, peak atomic.Int32
}

func (b *peakBand) ReadWindow(ctx context.Context, row, col, rows, cols int) (*raster.Grid[uint8], error) {
	n := b.cur.Add(1)
	defer b.cur.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return b.Band.ReadWindow(ctx, row, col, rows, cols)
}

func TestHistogramWorkerLimit(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(2))

	for _, tc := range []struct {
		name    string
		workers int
		want    int32
	}{
		{name: "default", workers: 0, want: 2},
		{name: "one", workers: 1, want: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := &peakBand{Band: testBand(t)}
			d, err := New(b, testSpec(t), WithProjector(fakeProjector), WithWorkers(tc.workers))
			require.NoError(t, err)
			defer d.Close()

			counts, err := d.Histogram(context.Background())
			require.NoError(t, err)
			assert.Len(t, counts, 24)
			assert.LessOrEqual(t, b.peak.Load(), tc.want)
		})
	}
}
