package raster

import (
	"context"
	"fmt"
	"io"

	"github.com/akhenakh/glcc/geotiff"
)

// Band is a single 8-bit raster band in file order: row 0 is the northern
// edge of the grid.
type Band interface {
	Size() (rows, cols int)
	// ReadWindow reads rows x cols samples starting at (row, col).
	ReadWindow(ctx context.Context, row, col, rows, cols int) (*Grid[uint8], error)
}

func checkWindow(b Band, row, col, rows, cols int) error {
	r, c := b.Size()
	if row < 0 || col < 0 || rows < 0 || cols < 0 || row+rows > r || col+cols > c {
		return fmt.Errorf("window (%d,%d)+(%d,%d) outside band %dx%d", row, col, rows, cols, r, c)
	}
	return nil
}

// FlatBand reads a headerless row-major file of one byte samples.
type FlatBand struct {
	r          io.ReaderAt
	rows, cols int
}

// NewFlatBand checks that size matches rows x cols and returns the band.
func NewFlatBand(r io.ReaderAt, size int64, rows, cols int) (*FlatBand, error) {
	if int64(rows)*int64(cols) != size {
		return nil, fmt.Errorf("%w: %d bytes for %d x %d", ErrShape, size, rows, cols)
	}
	return &FlatBand{r: r, rows: rows, cols: cols}, nil
}

func (b *FlatBand) Size() (int, int) { return b.rows, b.cols }

func (b *FlatBand) ReadWindow(ctx context.Context, row, col, rows, cols int) (*Grid[uint8], error) {
	if err := checkWindow(b, row, col, rows, cols); err != nil {
		return nil, err
	}
	g := &Grid[uint8]{Rows: rows, Cols: cols, Data: make([]uint8, rows*cols)}
	// Full width windows are contiguous on disk.
	if cols == b.cols {
		if _, err := b.r.ReadAt(g.Data, int64(row)*int64(b.cols)); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read rows %d:%d: %w", row, row+rows, err)
		}
		return g, nil
	}
	for i := 0; i < rows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		off := int64(row+i)*int64(b.cols) + int64(col)
		if _, err := b.r.ReadAt(g.Row(i), off); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read row %d: %w", row+i, err)
		}
	}
	return g, nil
}

// MemBand serves a band from memory.
type MemBand struct {
	g *Grid[uint8]
}

// NewMemBand wraps g, which is not copied.
func NewMemBand(g *Grid[uint8]) *MemBand { return &MemBand{g: g} }

func (b *MemBand) Size() (int, int) { return b.g.Rows, b.g.Cols }

func (b *MemBand) ReadWindow(_ context.Context, row, col, rows, cols int) (*Grid[uint8], error) {
	if err := checkWindow(b, row, col, rows, cols); err != nil {
		return nil, err
	}
	out := &Grid[uint8]{Rows: rows, Cols: cols, Data: make([]uint8, rows*cols)}
	for i := 0; i < rows; i++ {
		copy(out.Row(i), b.g.Row(row+i)[col:col+cols])
	}
	return out, nil
}

// TIFFBand reads an 8-bit GeoTIFF.
type TIFFBand struct {
	tif *geotiff.GeoTIFF
}

// NewTIFFBand returns the band of tif.
func NewTIFFBand(tif *geotiff.GeoTIFF) *TIFFBand {
	return &TIFFBand{tif: tif}
}

func (b *TIFFBand) Size() (int, int) { return b.tif.Size() }

func (b *TIFFBand) ReadWindow(ctx context.Context, row, col, rows, cols int) (*Grid[uint8], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := b.tif.Window(row, col, rows, cols)
	if err != nil {
		return nil, err
	}
	return Reshape(data, rows, cols)
}

// ReadAll materialises a whole band.
func ReadAll(ctx context.Context, b Band) (*Grid[uint8], error) {
	rows, cols := b.Size()
	return b.ReadWindow(ctx, 0, 0, rows, cols)
}
