// Package tifftest writes small little endian GeoTIFF files for tests.
package tifftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"
	"sort"
)

// Options describes the file to build. Data holds Width*Height samples of
// BitsPerSample bits, row major, little endian.
type Options struct {
	Width, Height int
	Data          []byte
	BitsPerSample int // default 8
	SampleFormat  int // default 1 (unsigned)

	// Tiled selects tiles of TileWidth x TileLength, otherwise strips of
	// RowsPerStrip rows.
	Tiled                 bool
	TileWidth, TileLength int
	RowsPerStrip          int

	Compression int // 1, 8 (deflate) or 32773 (packbits); default 1
	Predictor   int // 2 for horizontal differencing (8-bit only)

	// PixelScale and Origin (upper left corner) georeference the image when
	// PixelScale is non zero.
	PixelScale [2]float64
	Origin     [2]float64

	GeoKeys    []uint16
	GeoDoubles []float64
	GeoASCII   string
	NoData     string
}

type entry struct {
	tag   uint16
	ftype uint16
	count uint32
	value []byte
}

type builder struct {
	buf     bytes.Buffer
	entries []entry
}

func (b *builder) add(tag, ftype uint16, count int, value []byte) {
	b.entries = append(b.entries, entry{tag: tag, ftype: ftype, count: uint32(count), value: value})
}

func (b *builder) shorts(tag uint16, v ...uint16) {
	p := make([]byte, 2*len(v))
	for i, s := range v {
		binary.LittleEndian.PutUint16(p[2*i:], s)
	}
	b.add(tag, 3, len(v), p)
}

func (b *builder) longs(tag uint16, v ...uint32) {
	p := make([]byte, 4*len(v))
	for i, s := range v {
		binary.LittleEndian.PutUint32(p[4*i:], s)
	}
	b.add(tag, 4, len(v), p)
}

func (b *builder) doubles(tag uint16, v ...float64) {
	p := make([]byte, 8*len(v))
	for i, s := range v {
		binary.LittleEndian.PutUint64(p[8*i:], math.Float64bits(s))
	}
	b.add(tag, 12, len(v), p)
}

func (b *builder) ascii(tag uint16, s string) {
	p := append([]byte(s), 0)
	b.add(tag, 2, len(p), p)
}

func (b *builder) align() {
	if b.buf.Len()%2 != 0 {
		b.buf.WriteByte(0)
	}
}

// Build encodes the file.
func Build(o Options) []byte {
	if o.BitsPerSample == 0 {
		o.BitsPerSample = 8
	}
	if o.SampleFormat == 0 {
		o.SampleFormat = 1
	}
	if o.Compression == 0 {
		o.Compression = 1
	}
	bpp := o.BitsPerSample / 8

	b := &builder{}
	b.buf.Write([]byte{'I', 'I', 42, 0, 0, 0, 0, 0})

	var blocks [][]byte
	if o.Tiled {
		for ty := 0; ty < o.Height; ty += o.TileLength {
			for tx := 0; tx < o.Width; tx += o.TileWidth {
				tile := make([]byte, o.TileWidth*o.TileLength*bpp)
				for r := 0; r < o.TileLength && ty+r < o.Height; r++ {
					n := min(o.TileWidth, o.Width-tx) * bpp
					src := ((ty+r)*o.Width + tx) * bpp
					copy(tile[r*o.TileWidth*bpp:], o.Data[src:src+n])
				}
				blocks = append(blocks, tile)
			}
		}
	} else {
		rps := o.RowsPerStrip
		if rps == 0 {
			rps = o.Height
		}
		for r := 0; r < o.Height; r += rps {
			end := min(r+rps, o.Height)
			strip := make([]byte, (end-r)*o.Width*bpp)
			copy(strip, o.Data[r*o.Width*bpp:end*o.Width*bpp])
			blocks = append(blocks, strip)
		}
	}

	rowWidth := o.Width
	if o.Tiled {
		rowWidth = o.TileWidth
	}
	offsets := make([]uint32, len(blocks))
	counts := make([]uint32, len(blocks))
	for i, blk := range blocks {
		if o.Predictor == 2 {
			for start := 0; start+rowWidth <= len(blk); start += rowWidth {
				for x := rowWidth - 1; x > 0; x-- {
					blk[start+x] -= blk[start+x-1]
				}
			}
		}
		switch o.Compression {
		case 8:
			var z bytes.Buffer
			w := zlib.NewWriter(&z)
			w.Write(blk)
			w.Close()
			blk = z.Bytes()
		case 32773:
			blk = packBits(blk)
		}
		b.align()
		offsets[i] = uint32(b.buf.Len())
		counts[i] = uint32(len(blk))
		b.buf.Write(blk)
	}

	b.longs(256, uint32(o.Width))
	b.longs(257, uint32(o.Height))
	b.shorts(258, uint16(o.BitsPerSample))
	b.shorts(259, uint16(o.Compression))
	b.shorts(262, 1)
	b.shorts(277, 1)
	if o.Predictor != 0 {
		b.shorts(317, uint16(o.Predictor))
	}
	b.shorts(339, uint16(o.SampleFormat))
	if o.Tiled {
		b.shorts(322, uint16(o.TileWidth))
		b.shorts(323, uint16(o.TileLength))
		b.longs(324, offsets...)
		b.longs(325, counts...)
	} else {
		rps := o.RowsPerStrip
		if rps == 0 {
			rps = o.Height
		}
		b.longs(273, offsets...)
		b.longs(278, uint32(rps))
		b.longs(279, counts...)
	}
	if o.PixelScale[0] != 0 {
		b.doubles(33550, o.PixelScale[0], o.PixelScale[1], 0)
		b.doubles(33922, 0, 0, 0, o.Origin[0], o.Origin[1], 0)
	}
	if len(o.GeoKeys) > 0 {
		b.shorts(34735, o.GeoKeys...)
	}
	if len(o.GeoDoubles) > 0 {
		b.doubles(34736, o.GeoDoubles...)
	}
	if o.GeoASCII != "" {
		b.ascii(34737, o.GeoASCII)
	}
	if o.NoData != "" {
		b.ascii(42113, o.NoData)
	}
	sort.Slice(b.entries, func(i, j int) bool { return b.entries[i].tag < b.entries[j].tag })

	// Out of line values first, then the IFD.
	valueOffsets := make([]uint32, len(b.entries))
	for i, e := range b.entries {
		if len(e.value) > 4 {
			b.align()
			valueOffsets[i] = uint32(b.buf.Len())
			b.buf.Write(e.value)
		}
	}
	b.align()
	ifd := uint32(b.buf.Len())
	binary.Write(&b.buf, binary.LittleEndian, uint16(len(b.entries)))
	for i, e := range b.entries {
		binary.Write(&b.buf, binary.LittleEndian, e.tag)
		binary.Write(&b.buf, binary.LittleEndian, e.ftype)
		binary.Write(&b.buf, binary.LittleEndian, e.count)
		if len(e.value) > 4 {
			binary.Write(&b.buf, binary.LittleEndian, valueOffsets[i])
		} else {
			inline := make([]byte, 4)
			copy(inline, e.value)
			b.buf.Write(inline)
		}
	}
	binary.Write(&b.buf, binary.LittleEndian, uint32(0))

	out := b.buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:], ifd)
	return out
}

// packBits encodes runs of three or more equal bytes as repeats and
// everything else as literals.
func packBits(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && run < 128 && src[i+run] == src[i] {
			run++
		}
		if run >= 3 {
			out = append(out, byte(int8(1-run)), src[i])
			i += run
			continue
		}
		start := i
		for i < len(src) && i-start < 128 {
			if i+2 < len(src) && src[i] == src[i+1] && src[i] == src[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, src[start:i]...)
	}
	return out
}
