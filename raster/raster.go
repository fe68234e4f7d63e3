// Package raster holds 2-D sample arrays and the band readers that fill
// them from GLCC files.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrShape is returned when a sample count does not match the requested
// dimensions.
var ErrShape = errors.New("raster: sample count does not match shape")

// Sample is the set of element types the readers produce.
type Sample interface {
	~uint8 | ~int16
}

// Grid is a row-major 2-D array.
type Grid[T any] struct {
	Rows, Cols int
	Data       []T
}

// Reshape wraps a flat sample slice as a rows x cols grid without copying.
func Reshape[T any](flat []T, rows, cols int) (*Grid[T], error) {
	if rows < 0 || cols < 0 || len(flat) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for %d x %d", ErrShape, len(flat), rows, cols)
	}
	return &Grid[T]{Rows: rows, Cols: cols, Data: flat}, nil
}

// At returns the sample at (row, col).
func (g *Grid[T]) At(row, col int) T { return g.Data[row*g.Cols+col] }

// Row returns row r as a sub slice of Data.
func (g *Grid[T]) Row(r int) []T { return g.Data[r*g.Cols : (r+1)*g.Cols] }

// FlipUD reverses the row order in place. Two flips restore the original.
func (g *Grid[T]) FlipUD() {
	tmp := make([]T, g.Cols)
	for top, bottom := 0, g.Rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		copy(tmp, g.Row(top))
		copy(g.Row(top), g.Row(bottom))
		copy(g.Row(bottom), tmp)
	}
}

// ReadFlat reads n headerless samples stored row major. Multi-byte samples
// are little endian.
func ReadFlat[T Sample](r io.Reader, n int) ([]T, error) {
	out := make([]T, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("failed to read %d samples: %w", n, err)
	}
	return out, nil
}

// ReadFlatFile reads a whole headerless file of 8-bit samples.
func ReadFlatFile(name string) ([]uint8, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ReadFlatInt16File reads a whole headerless file of 16-bit signed little
// endian samples, the layout of the companion elevation rasters.
func ReadFlatInt16File(name string) ([]int16, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size()%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of int16 samples", ErrShape, st.Size())
	}
	return ReadFlat[int16](f, int(st.Size()/2))
}
