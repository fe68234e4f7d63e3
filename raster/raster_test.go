package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(i)
	}
	return out
}

func TestReshape(t *testing.T) {
	g, err := Reshape(seq(6), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), g.At(1, 1))
	assert.Equal(t, []uint8{3, 4, 5}, g.Row(1))

	_, err = Reshape(seq(7), 2, 3)
	assert.ErrorIs(t, err, ErrShape)
}

func TestFlipUD(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"odd rows", 5, 3},
		{"even rows", 4, 4},
		{"single row", 1, 6},
		{"empty", 0, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flat := seq(tc.rows * tc.cols)
			cp := make([]uint8, len(flat))
			copy(cp, flat)
			g, err := Reshape(cp, tc.rows, tc.cols)
			require.NoError(t, err)

			g.FlipUD()
			for r := 0; r < tc.rows; r++ {
				assert.Equal(t, flat[(tc.rows-1-r)*tc.cols:(tc.rows-r)*tc.cols], g.Row(r))
			}

			g.FlipUD()
			assert.Equal(t, flat, g.Data)
		})
	}
}

func TestReadFlat(t *testing.T) {
	got, err := ReadFlat[uint8](bytes.NewReader([]byte{1, 2, 3, 4}), 4)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4}, got)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []int16{-500, 8849}))
	elev, err := ReadFlat[int16](&buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []int16{-500, 8849}, elev)

	_, err = ReadFlat[uint8](bytes.NewReader([]byte{1}), 2)
	assert.Error(t, err)
}

func TestReadFlatFiles(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "glcc.img")
	require.NoError(t, os.WriteFile(name, seq(12), 0o644))

	b, err := ReadFlatFile(name)
	require.NoError(t, err)
	assert.Len(t, b, 12)

	elev, err := ReadFlatInt16File(name)
	require.NoError(t, err)
	assert.Len(t, elev, 6)
	assert.Equal(t, int16(1<<8|0), elev[0])

	odd := filepath.Join(dir, "odd.img")
	require.NoError(t, os.WriteFile(odd, seq(3), 0o644))
	_, err = ReadFlatInt16File(odd)
	assert.ErrorIs(t, err, ErrShape)
}

func TestBandsAgree(t *testing.T) {
	ctx := context.Background()
	data := seq(4 * 5)
	flat, err := NewFlatBand(bytes.NewReader(data), int64(len(data)), 4, 5)
	require.NoError(t, err)
	mem := NewMemBand(&Grid[uint8]{Rows: 4, Cols: 5, Data: data})

	for _, b := range []Band{flat, mem} {
		w, err := b.ReadWindow(ctx, 1, 2, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, []uint8{7, 8, 9, 12, 13, 14}, w.Data)

		all, err := ReadAll(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, data, all.Data)

		_, err = b.ReadWindow(ctx, 3, 0, 2, 1)
		assert.Error(t, err)
	}

	_, err = NewFlatBand(bytes.NewReader(data), 19, 4, 5)
	assert.ErrorIs(t, err, ErrShape)
}
