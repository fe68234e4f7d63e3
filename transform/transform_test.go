package transform

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/glcc/grid"
)

// swap returns (y, x) as (lon, lat) so tests can tell the axes apart.
type swap struct {
	closed *atomic.Int32
}

func (s swap) Forward(x, y float64) (float64, float64, error) {
	switch {
	case x < 0:
		return 0, 0, errors.New("outside")
	case y > 100:
		return math.Inf(1), 0, nil
	}
	return x, y, nil
}

func (s swap) Close() error {
	s.closed.Add(1)
	return nil
}

func fake(closed *atomic.Int32) Option {
	return WithProjector(func(source, target string) (Projector, error) {
		return swap{closed: closed}, nil
	})
}

func TestTransformYX(t *testing.T) {
	var closed atomic.Int32
	y := []float64{1, 2, 200}
	x := []float64{10, 20, -1, 40}

	lat, lon, err := TransformYX(context.Background(), y, x, "src", fake(&closed), WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, lat, 12)
	require.Len(t, lon, 12)

	// Row 1, column 3.
	assert.Equal(t, 40.0, lon[1*4+3])
	assert.Equal(t, 2.0, lat[1*4+3])

	for row := range y {
		assert.True(t, math.IsNaN(lat[row*4+2]), "error is masked")
		assert.True(t, math.IsNaN(lon[row*4+2]))
	}
	for col := range x {
		assert.True(t, math.IsNaN(lat[2*4+col]), "non finite is masked")
	}
	assert.Equal(t, int32(2), closed.Load())
}

func TestTransformScale(t *testing.T) {
	var closed atomic.Int32
	lat, lon, err := TransformYX(context.Background(), []float64{3600}, []float64{7200}, "src", fake(&closed), WithScale(1.0/3600))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, lon[0], 1e-12)
	assert.InDelta(t, 1.0, lat[0], 1e-12)
}

func TestTransformBounds(t *testing.T) {
	var closed atomic.Int32
	yb := [][2]float64{{0, 1}, {1, 2}}
	xb := [][2]float64{{10, 11}, {11, 12}, {12, 13}}

	lat, lon, err := TransformBounds(context.Background(), yb, xb, "src", fake(&closed))
	require.NoError(t, err)
	require.Len(t, lat, 2*3*4)

	// Cell (1, 2): counterclockwise from the lower left.
	i := (1*3 + 2) * 4
	assert.Equal(t, []float64{12, 13, 13, 12}, lon[i:i+4])
	assert.Equal(t, []float64{1, 1, 2, 2}, lat[i:i+4])
}

func TestTransformEmpty(t *testing.T) {
	lat, lon, err := TransformYX(context.Background(), nil, []float64{1}, "src")
	require.NoError(t, err)
	assert.Empty(t, lat)
	assert.Empty(t, lon)
}

func TestTransformProjectorError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := TransformYX(context.Background(), []float64{1}, []float64{1}, "src",
		WithProjector(func(source, target string) (Projector, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)
}

func TestTransformCanceled(t *testing.T) {
	var closed atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := TransformYX(ctx, []float64{1, 2}, []float64{1}, "src", fake(&closed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVertices(t *testing.T) {
	v := Vertices([2]float64{0, 1}, [2]float64{5, 6})
	assert.Equal(t, [4][2]float64{{0, 5}, {1, 5}, {1, 6}, {0, 6}}, v)
}

func TestValidLatLon(t *testing.T) {
	assert.True(t, ValidLatLon(90, -180))
	assert.False(t, ValidLatLon(90.1, 0))
	assert.False(t, ValidLatLon(0, 180.5))
	assert.False(t, ValidLatLon(math.NaN(), 0))
	assert.False(t, ValidLatLon(0, math.Inf(-1)))
}

func TestPROJGeographic(t *testing.T) {
	const src = "+proj=longlat +R=6370997 +no_defs"
	lat, lon, err := TransformYX(context.Background(),
		[]float64{-323985, 0, 323985},
		[]float64{-647985, 0, 647985},
		src, WithScale(1.0/3600))
	require.NoError(t, err)

	assert.InDelta(t, -90+15.0/3600, lat[0], 1e-3)
	assert.InDelta(t, -180+15.0/3600, lon[0], 1e-3)
	assert.InDelta(t, 0, lat[4], 1e-6)
	assert.InDelta(t, 0, lon[4], 1e-6)
	assert.InDelta(t, 90-15.0/3600, lat[8], 1e-3)
	assert.InDelta(t, 180-15.0/3600, lon[8], 1e-3)
	// Lower right and upper left.
	assert.InDelta(t, -90+15.0/3600, lat[2], 1e-3)
	assert.InDelta(t, 180-15.0/3600, lon[2], 1e-3)
	assert.InDelta(t, 90-15.0/3600, lat[6], 1e-3)
	assert.InDelta(t, -180+15.0/3600, lon[6], 1e-3)
}

func TestGridCornersValidOrMasked(t *testing.T) {
	for _, p := range []grid.Projection{grid.Geographic, grid.GoodeHomolosine} {
		t.Run(p.String(), func(t *testing.T) {
			s, err := grid.For(p)
			require.NoError(t, err)

			lat, lon, err := TransformYX(context.Background(),
				[]float64{s.YMin, s.YMax},
				[]float64{s.XMin, s.XMax},
				s.Proj4, WithScale(s.ToCRS))
			require.NoError(t, err)
			require.Len(t, lat, 4)
			require.Len(t, lon, 4)

			for i := range lat {
				masked := math.IsNaN(lat[i]) && math.IsNaN(lon[i])
				assert.True(t, ValidLatLon(lat[i], lon[i]) || masked,
					"corner %d: lat %v lon %v", i, lat[i], lon[i])
			}
		})
	}
}

func TestPROJGoode(t *testing.T) {
	const src = "+proj=igh +R=6370997 +units=m +no_defs"
	lat, lon, err := TransformYX(context.Background(),
		[]float64{0, 8672500},
		[]float64{0, -20014500},
		src)
	require.NoError(t, err)

	assert.InDelta(t, 0, lat[0], 1e-6)
	assert.InDelta(t, 0, lon[0], 1e-6)

	// The upper left corner is in an interrupted area.
	assert.True(t, math.IsNaN(lat[3]))
	assert.True(t, math.IsNaN(lon[3]))
}

func TestNewPROJInvalid(t *testing.T) {
	_, err := NewPROJ("not a crs", DefaultTarget)
	assert.Error(t, err)
}
