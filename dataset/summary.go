package dataset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Count is the number of cells of one category.
type Count struct {
	Code  int
	Class string
	Cells int64
}

// Histogram counts the cells of every category present in the band,
// ordered by code. Chunks are read concurrently, at most WithWorkers at a
// time.
func (d *Dataset) Histogram(ctx context.Context) ([]Count, error) {
	defer d.opts.metrics.Stage("histogram")()

	var (
		mu    sync.Mutex
		total [256]int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.workerLimit())
	for _, w := range d.Spec.Chunks() {
		g.Go(func() error {
			// Bypass the cache, the histogram touches every chunk once.
			data, err := d.band.ReadWindow(ctx, d.Spec.Rows-w.Row-w.Rows, w.Col, w.Rows, w.Cols)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", w, err)
			}
			var local [256]int64
			for _, v := range data.Data {
				local[v]++
			}
			mu.Lock()
			for i, n := range local {
				total[i] += n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Count
	for code, n := range total {
		if n == 0 {
			continue
		}
		name, _ := d.Legend.Lookup(code)
		out = append(out, Count{Code: code, Class: name, Cells: n})
	}
	return out, nil
}

// Summary renders the dimensions, coordinates, variables and attributes.
func (d *Dataset) Summary() string {
	var b strings.Builder
	s := d.Spec
	fmt.Fprintf(&b, "<glcc.Dataset> %s\n", s.Projection)
	fmt.Fprintf(&b, "Dimensions:  (y: %d, x: %d, index: %d", s.Rows, s.Cols, d.Legend.Len())
	if d.opts.bounds {
		b.WriteString(", vertices: 4")
	}
	b.WriteString(")\n")

	b.WriteString("Coordinates:\n")
	fmt.Fprintf(&b, "  * %-11s (x) float64 %s\n", "x", axisRange(d.x))
	fmt.Fprintf(&b, "  * %-11s (y) float64 %s\n", "y", axisRange(d.y))
	if codes := d.Legend.Codes(); len(codes) > 0 {
		fmt.Fprintf(&b, "  * %-11s (index) int %d ... %d\n", "index", codes[0], codes[len(codes)-1])
	}
	fmt.Fprintf(&b, "    %-11s (index) string\n", "type")
	if d.opts.coords {
		fmt.Fprintf(&b, "    %-11s (y, x) float64 lazy\n", "lat")
		fmt.Fprintf(&b, "    %-11s (y, x) float64 lazy\n", "lon")
	}
	if d.opts.bounds {
		fmt.Fprintf(&b, "    %-11s (y, x, vertices) float64 lazy\n", "lat_bounds")
		fmt.Fprintf(&b, "    %-11s (y, x, vertices) float64 lazy\n", "lon_bounds")
	}

	b.WriteString("Data variables:\n")
	fmt.Fprintf(&b, "    %-11s (y, x) uint8 chunksize=(%d, %d)\n", Variable, s.ChunkRows, s.ChunkCols)

	b.WriteString("Attributes:\n")
	keys := make([]string, 0, len(d.Attrs))
	for k := range d.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s: %s\n", k, d.Attrs[k])
	}
	return b.String()
}

func axisRange(axis []float64) string {
	if len(axis) == 0 {
		return ""
	}
	return fmt.Sprintf("%g ... %g", axis[0], axis[len(axis)-1])
}
