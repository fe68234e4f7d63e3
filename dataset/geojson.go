package dataset

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/akhenakh/glcc/grid"
)

// CellPolygon returns the transformed outline of a cell as a closed ring
// in vertex order. It returns ErrMasked when a vertex is masked.
func (d *Dataset) CellPolygon(ctx context.Context, row, col int) (orb.Polygon, error) {
	lat, lon, err := d.CellBounds(ctx, row, col)
	if err != nil {
		return nil, err
	}
	ring, ok := cellRing(lat[:], lon[:])
	if !ok {
		return nil, ErrMasked
	}
	return orb.Polygon{ring}, nil
}

func cellRing(lat, lon []float64) (orb.Ring, bool) {
	ring := make(orb.Ring, 0, 5)
	for v := 0; v < 4; v++ {
		if math.IsNaN(lat[v]) || math.IsNaN(lon[v]) {
			return nil, false
		}
		ring = append(ring, orb.Point{lon[v], lat[v]})
	}
	return append(ring, ring[0]), true
}

// FeatureCollection returns the cells of w as GeoJSON polygons with row,
// col, code and type properties. Masked cells are left out.
func (d *Dataset) FeatureCollection(ctx context.Context, w grid.Window) (*geojson.FeatureCollection, error) {
	if !d.opts.bounds {
		return nil, ErrNoBounds
	}
	c, err := d.Chunk(ctx, w)
	if err != nil {
		return nil, err
	}
	w = c.Window

	fc := geojson.NewFeatureCollection()
	for r := 0; r < w.Rows; r++ {
		for col := 0; col < w.Cols; col++ {
			i := r*w.Cols + col
			ring, ok := cellRing(c.Bounds.Lat[i*4:i*4+4], c.Bounds.Lon[i*4:i*4+4])
			if !ok {
				continue
			}
			code := int(c.Data.At(r, col))
			name, _ := d.Legend.Lookup(code)

			f := geojson.NewFeature(orb.Polygon{ring})
			f.Properties["row"] = w.Row + r
			f.Properties["col"] = w.Col + col
			f.Properties["code"] = code
			f.Properties["type"] = name
			fc.Append(f)
		}
	}
	return fc, nil
}
