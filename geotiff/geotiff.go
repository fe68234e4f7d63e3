package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"
)

// ErrUnsupported is returned for layouts and sample types the reader cannot decode.
var ErrUnsupported = errors.New("geotiff: unsupported")

// head represents the TIFF file header information
type head struct {
	byteOrder binary.ByteOrder // Byte order (little endian or big endian)
	isBigTIFF bool             // Whether this is a BigTIFF file format
	ifdOffset uint64           // Offset to the first Image File Directory (IFD)
}

// iFDEntry represents a single entry in an Image File Directory (IFD)
type iFDEntry struct {
	Tag         Tag       // TIFF tag identifier
	FType       fieldType // Data type of the field
	Count       uint64    // Number of values of the specified type
	ValueOffset uint64    // Offset to the value data, or the value itself if it fits inline
	ValueBytes  []byte    // Inline value data for small values
}

// tagData holds the parsed data for a TIFF tag in various typed formats
type tagData struct {
	fType      fieldType // The field type of this tag data
	length     uint32    // Number of elements in the data
	byteData   []uint8   // Raw byte data (BYTE type)
	asciiData  string    // String data (ASCII type)
	shortData  []uint16  // 16-bit unsigned integer data (SHORT type)
	longData   []uint32  // 32-bit unsigned integer data (LONG type)
	floatData  []float32 // 32-bit floating point data (FLOAT type)
	doubleData []float64 // 64-bit floating point data (DOUBLE type)
	uint64Data []uint64  // 64-bit unsigned integer data (LONG8/IFD8 types)
}

type Tags map[Tag]tagData

// GeoTIFF is a parsed single band 8-bit GeoTIFF. Pixel data is read lazily, one
// block (tile or strip) at a time.
type GeoTIFF struct {
	// reader is the underlying source. It must also implement io.ReaderAt.
	reader io.ReadSeeker

	byteOrder binary.ByteOrder
	tags      Tags
	isBigTIFF bool

	imageWidth  uint32
	imageLength uint32

	// A block is a tile for tiled images and a strip of rowsPerStrip full
	// width rows otherwise.
	tiled        bool
	blockWidth   uint32
	blockLength  uint32
	blockOffsets []uint64
	blockCounts  []uint64
	blocksAcross int
	blocksDown   int

	bitsPerSample   uint16
	samplesPerPixel uint16
	sampleFormat    uint16
	compression     uint16
	predictor       uint16

	// PixelScaleX is the cell width in CRS units.
	PixelScaleX float64
	// PixelScaleY is the cell height in CRS units, negative for north-up images.
	PixelScaleY float64

	// blockCache holds decoded blocks.
	blockCache *ccache.Cache[[]byte]

	// inflightData makes sure a block is fetched and decoded by one goroutine.
	inflightData singleflight.Group

	// inflightPrefetch guards the neighbour prefetch of a tile.
	inflightPrefetch singleflight.Group

	cacheTTL time.Duration
	logger   *slog.Logger
}

// Point is a position in the raster CRS units.
type Point struct{ X, Y float64 }

type CornerCoordinates struct{ UpperLeft, LowerLeft, UpperRight, LowerRight Point }

type Tag uint16

// fieldTypeLen is the length of every field type in bytes
var fieldTypeLen = [...]uint32{
	zeroByte, oneByte, oneByte, twoByte, // 0-3
	fourByte, eightByte, oneByte, oneByte, // 4-7
	twoByte, fourByte, eightByte, fourByte, // 8-11
	eightByte, // 12 (DOUBLE)
	0, 0, 0,   // 13-15 (Reserved)
	eightByte, eightByte, eightByte, // 16-18 (LONG8, SLONG8, IFD8)
}

var fieldTypeToLabel = map[fieldType]string{
	BYTE:      "BYTE",
	ASCII:     "ASCII",
	SHORT:     "SHORT",
	LONG:      "LONG",
	RATIONAL:  "RATIONAL",
	SBYTE:     "SBYTE",
	UNDEFINED: "UNDEFINED",
	SSHORT:    "SSHORT",
	SLONG:     "SLONG",
	SRATIONAL: "SRATIONAL",
	FLOAT:     "FLOAT",
	DOUBLE:    "DOUBLE",
	LONG8:     "LONG8",
	SLONG8:    "SLONG8",
	IFD8:      "IFD8",
}

func (f fieldType) String() string {
	v, ok := fieldTypeToLabel[f]
	if !ok {
		return fmt.Sprintf("unrecognized field type %d", f)
	}
	return v
}

// bytes returns the number of bytes in each data type
//
// returns 0 if unrecognized
func (f fieldType) bytes() uint32 {
	if f == 0 || int(f) >= len(fieldTypeLen) {
		return fieldTypeLen[0]
	}
	return fieldTypeLen[int(f)]
}

func (t Tag) String() string {
	v, ok := tagToLabel[t]
	if !ok {
		return fmt.Sprintf("%d", t)
	}
	return v
}

// Option configures Open.
type Option func(*GeoTIFF)

// WithCache sets the size of the decoded block cache.
func WithCache(maxSize int64, itemsToPrune uint32) Option {
	return func(g *GeoTIFF) {
		g.blockCache = ccache.New(ccache.Configure[[]byte]().MaxSize(maxSize).ItemsToPrune(itemsToPrune))
	}
}

// WithLogger sets the logger used for warnings while parsing.
func WithLogger(l *slog.Logger) Option {
	return func(g *GeoTIFF) { g.logger = l }
}

// Open parses a GeoTIFF file from the provided io.ReadSeeker and returns a GeoTIFF struct
// with all necessary metadata extracted for reading raster data.
func Open(r io.ReadSeeker, opts ...Option) (*GeoTIFF, error) {
	g := &GeoTIFF{
		reader:   r,
		cacheTTL: 10 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.blockCache == nil {
		g.blockCache = ccache.New(ccache.Configure[[]byte]().MaxSize(64).ItemsToPrune(8))
	}

	gTags, header, err := readTags(r, g.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read tiff tags: %w", err)
	}
	g.tags = gTags
	g.byteOrder = header.byteOrder
	g.isBigTIFF = header.isBigTIFF

	if width, ok := g.getUint(ImageWidth); ok {
		g.imageWidth = uint32(width)
	} else {
		return nil, errors.New("missing or invalid tag: ImageWidth")
	}
	if length, ok := g.getUint(ImageLength); ok {
		g.imageLength = uint32(length)
	} else {
		return nil, errors.New("missing or invalid tag: ImageLength")
	}

	if err := g.readLayout(); err != nil {
		return nil, err
	}

	if bps, ok := g.getUint(BitsPerSample); ok {
		g.bitsPerSample = uint16(bps)
	} else {
		g.bitsPerSample = 1 // TIFF default
	}
	if spp, ok := g.getUint(SamplesPerPixel); ok {
		g.samplesPerPixel = uint16(spp)
	} else {
		g.samplesPerPixel = 1
	}
	if g.samplesPerPixel != 1 {
		return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupported, g.samplesPerPixel)
	}
	if sf, ok := g.getUint(SampleFormat); ok {
		g.sampleFormat = uint16(sf)
	} else {
		g.sampleFormat = SampleFormatUint
	}
	if g.bitsPerSample != 8 || g.sampleFormat != SampleFormatUint {
		return nil, fmt.Errorf("%w: %d-bit samples of format %d, want 8-bit unsigned",
			ErrUnsupported, g.bitsPerSample, g.sampleFormat)
	}
	if comp, ok := g.getUint(Compression); ok {
		g.compression = uint16(comp)
	} else {
		g.compression = Uncompressed
	}
	if pred, ok := g.getUint(Predictor); ok {
		g.predictor = uint16(pred)
	} else {
		g.predictor = PredictorNone
	}

	// Rasters without georeferencing are still readable, they just have no bounds.
	if pixelScale, ok := gTags[ModelPixelScale]; ok {
		pixelScaleValues, ok := pixelScale.doubleDataValue()
		if !ok || len(pixelScaleValues) < 2 {
			return nil, errors.New("invalid tag: ModelPixelScale")
		}
		g.PixelScaleX = pixelScaleValues[0]
		g.PixelScaleY = pixelScaleValues[1]
		// Standard GeoTIFF convention for north-up images
		if g.PixelScaleY > 0 {
			g.PixelScaleY = -g.PixelScaleY
		}
	}

	return g, nil
}

// readLayout extracts the tile or strip organisation of the image.
func (g *GeoTIFF) readLayout() error {
	if tWidth, ok := g.getUint(TileWidth); ok {
		g.tiled = true
		g.blockWidth = uint32(tWidth)
		tLength, ok := g.getUint(TileLength)
		if !ok {
			return errors.New("missing or invalid tag: TileLength")
		}
		g.blockLength = uint32(tLength)
		if g.blockOffsets, ok = g.get64bitSlice(TileOffsets); !ok {
			return errors.New("missing or invalid tag: TileOffsets")
		}
		if g.blockCounts, ok = g.get64bitSlice(TileByteCounts); !ok {
			return errors.New("missing or invalid tag: TileByteCounts")
		}
	} else {
		g.blockWidth = g.imageWidth
		g.blockLength = g.imageLength
		if rps, ok := g.getUint(RowsPerStrip); ok && rps > 0 && rps < uint64(g.imageLength) {
			g.blockLength = uint32(rps)
		}
		var ok bool
		if g.blockOffsets, ok = g.get64bitSlice(StripOffsets); !ok {
			return errors.New("missing or invalid tag: StripOffsets")
		}
		if g.blockCounts, ok = g.get64bitSlice(StripByteCounts); !ok {
			return errors.New("missing or invalid tag: StripByteCounts")
		}
	}
	if g.blockWidth == 0 || g.blockLength == 0 {
		return errors.New("invalid block dimensions")
	}
	g.blocksAcross = int(g.imageWidth+g.blockWidth-1) / int(g.blockWidth)
	g.blocksDown = int(g.imageLength+g.blockLength-1) / int(g.blockLength)
	if len(g.blockOffsets) < g.blocksAcross*g.blocksDown || len(g.blockCounts) < len(g.blockOffsets) {
		return fmt.Errorf("expected %d blocks, found %d offsets and %d byte counts",
			g.blocksAcross*g.blocksDown, len(g.blockOffsets), len(g.blockCounts))
	}
	return nil
}

// Size returns the image dimensions in pixels.
func (g *GeoTIFF) Size() (rows, cols int) {
	return int(g.imageLength), int(g.imageWidth)
}

// Tiled reports whether the image is organised in tiles rather than strips.
func (g *GeoTIFF) Tiled() bool { return g.tiled }

// NoData returns the GDAL nodata value, if the file declares one.
func (g *GeoTIFF) NoData() (float64, bool) {
	t, ok := g.tags[GDALNoData]
	if !ok || t.fType != ASCII {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(t.asciiData), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bounds returns the outer edges of the image in CRS units.
func (g *GeoTIFF) Bounds() (*CornerCoordinates, error) {
	tiePointTag, ok := g.tags[ModelTiepoint]
	if !ok {
		return nil, errors.New("missing ModelTiepoint tag")
	}
	tiePointValues, ok := tiePointTag.doubleDataValue()
	if !ok || len(tiePointValues) < 6 {
		return nil, errors.New("invalid ModelTiepoint tag")
	}
	if g.PixelScaleX == 0 {
		return nil, errors.New("missing ModelPixelScale tag")
	}

	tieI, tieJ := tiePointValues[0], tiePointValues[1]
	tieX, tieY := tiePointValues[3], tiePointValues[4]

	// Upper-left corner of the upper-left pixel.
	ulX := tieX - (tieI * g.PixelScaleX)
	ulY := tieY - (tieJ * g.PixelScaleY)

	// PixelScaleY is negative, so totalHeight is too.
	totalWidth := float64(g.imageWidth) * g.PixelScaleX
	totalHeight := float64(g.imageLength) * g.PixelScaleY

	cc := &CornerCoordinates{
		UpperLeft:  Point{X: ulX, Y: ulY},
		LowerLeft:  Point{X: ulX, Y: ulY + totalHeight},
		UpperRight: Point{X: ulX + totalWidth, Y: ulY},
		LowerRight: Point{X: ulX + totalWidth, Y: ulY + totalHeight},
	}
	return cc, nil
}

// readHeader parses the TIFF file header to determine byte order, file format, and IFD location
func readHeader(r io.Reader) (head, error) {
	var h head

	var byteOrderBytes uint16
	if err := binary.Read(r, binary.BigEndian, &byteOrderBytes); err != nil {
		return h, err
	}

	switch byteOrderBytes {
	case littleEndian:
		h.byteOrder = binary.LittleEndian
	case bigEndian:
		h.byteOrder = binary.BigEndian
	default:
		return h, errors.New("invalid byte order")
	}

	var identifier uint16
	if err := binary.Read(r, h.byteOrder, &identifier); err != nil {
		return h, err
	}

	switch identifier {
	case tiffIdentifier:
		var offset32 uint32
		if err := binary.Read(r, h.byteOrder, &offset32); err != nil {
			return h, err
		}
		h.ifdOffset = uint64(offset32)
	case bigTiffIdentifier:
		h.isBigTIFF = true

		var bytesize, reserved uint16
		if err := binary.Read(r, h.byteOrder, &bytesize); err != nil {
			return h, err
		}
		if bytesize != bigTiffBytesize {
			return h, errors.New("invalid BigTIFF bytesize")
		}
		if err := binary.Read(r, h.byteOrder, &reserved); err != nil {
			return h, err
		}
		if err := binary.Read(r, h.byteOrder, &h.ifdOffset); err != nil {
			return h, err
		}
	default:
		return h, fmt.Errorf("invalid tiff identifier: %d", identifier)
	}
	return h, nil
}

func readTags(r io.ReadSeeker, logger *slog.Logger) (Tags, head, error) {
	tags := make(Tags)
	h, err := readHeader(r)
	if err != nil {
		return nil, h, err
	}

	// Only the first IFD holds the full resolution image, later ones are overviews.
	ifdOffset := h.ifdOffset
	if ifdOffset == 0 {
		return nil, h, errors.New("file contains no IFDs")
	}

	if _, err := r.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return nil, h, err
	}

	var numEntries uint64
	if h.isBigTIFF {
		if err := binary.Read(r, h.byteOrder, &numEntries); err != nil {
			return nil, h, err
		}
	} else {
		var numEntries16 uint16
		if err := binary.Read(r, h.byteOrder, &numEntries16); err != nil {
			return nil, h, err
		}
		numEntries = uint64(numEntries16)
	}

	entryLen := 12
	if h.isBigTIFF {
		entryLen = 20
	}
	ifdBlock := make([]byte, entryLen*int(numEntries))
	if _, err := io.ReadFull(r, ifdBlock); err != nil {
		return nil, h, fmt.Errorf("failed to read IFD block: %w", err)
	}
	ifdReader := bytes.NewReader(ifdBlock)

	for i := uint64(0); i < numEntries; i++ {
		var entry iFDEntry
		var tag, ftype uint16
		binary.Read(ifdReader, h.byteOrder, &tag)
		binary.Read(ifdReader, h.byteOrder, &ftype)
		entry.Tag = Tag(tag)
		entry.FType = fieldType(ftype)
		if entry.FType.bytes() == 0 {
			logger.Warn("skipping tag with unrecognized field type", "tag", entry.Tag, "field_type", uint16(entry.FType))
			ifdReader.Seek(int64(entryLen-4), io.SeekCurrent)
			continue
		}

		offsetBytes := make([]byte, 8)
		if h.isBigTIFF {
			binary.Read(ifdReader, h.byteOrder, &entry.Count)
			ifdReader.Read(offsetBytes)
			entry.ValueOffset = h.byteOrder.Uint64(offsetBytes)
		} else {
			var count32 uint32
			binary.Read(ifdReader, h.byteOrder, &count32)
			// Keep the raw 4 bytes, inline values are left aligned.
			ifdReader.Read(offsetBytes[:4])
			entry.Count = uint64(count32)
			entry.ValueOffset = uint64(h.byteOrder.Uint32(offsetBytes[:4]))
		}

		inlineDataSize := uint64(4)
		if h.isBigTIFF {
			inlineDataSize = 8
		}
		if totalBytes := uint64(entry.FType.bytes()) * entry.Count; totalBytes <= inlineDataSize {
			entry.ValueBytes = offsetBytes[:totalBytes]
		}

		tagvalue, err := entry.value(r, h.byteOrder)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				logger.Warn("skipping tag", "tag", entry.Tag, "error", err)
				continue
			}
			return nil, h, fmt.Errorf("tag %s: %w", entry.Tag, err)
		}
		tags[entry.Tag] = *tagvalue
	}

	return tags, h, nil
}

func (ifd *iFDEntry) value(r io.ReadSeeker, byteOrder binary.ByteOrder) (*tagData, error) {
	t := tagData{fType: ifd.FType, length: uint32(ifd.Count)}
	var reader io.Reader
	if ifd.Count == 0 {
		return &t, nil
	}
	if len(ifd.ValueBytes) > 0 {
		reader = bytes.NewReader(ifd.ValueBytes)
	} else {
		readerAt, ok := r.(io.ReaderAt)
		if !ok {
			return nil, errors.New("reader does not implement io.ReaderAt")
		}
		reader = io.NewSectionReader(readerAt, int64(ifd.ValueOffset), int64(ifd.FType.bytes())*int64(ifd.Count))
	}
	switch ifd.FType {
	case BYTE, UNDEFINED:
		t.byteData = make([]uint8, ifd.Count)
		if _, err := io.ReadFull(reader, t.byteData); err != nil {
			return nil, err
		}
	case ASCII:
		p := make([]uint8, ifd.Count)
		if _, err := io.ReadFull(reader, p); err != nil {
			return nil, err
		}
		t.asciiData = string(bytes.Trim(p, "\x00"))
	case SHORT:
		t.shortData = make([]uint16, ifd.Count)
		if err := binary.Read(reader, byteOrder, &t.shortData); err != nil {
			return nil, err
		}
	case LONG:
		t.longData = make([]uint32, ifd.Count)
		if err := binary.Read(reader, byteOrder, &t.longData); err != nil {
			return nil, err
		}
	case FLOAT:
		t.floatData = make([]float32, ifd.Count)
		if err := binary.Read(reader, byteOrder, t.floatData); err != nil {
			return nil, err
		}
	case DOUBLE:
		t.doubleData = make([]float64, ifd.Count)
		if err := binary.Read(reader, byteOrder, &t.doubleData); err != nil {
			return nil, err
		}
	case LONG8, IFD8:
		t.uint64Data = make([]uint64, ifd.Count)
		if err := binary.Read(reader, byteOrder, &t.uint64Data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: field type %s", ErrUnsupported, ifd.FType)
	}
	return &t, nil
}

// Window reads a window of rows x cols pixels starting at (row, col) into a
// row-major slice. Neighbours of every tile read are prefetched.
func (g *GeoTIFF) Window(row, col, rows, cols int) ([]uint8, error) {
	if row < 0 || col < 0 || rows < 0 || cols < 0 ||
		row+rows > int(g.imageLength) || col+cols > int(g.imageWidth) {
		return nil, fmt.Errorf("window (%d,%d)+(%d,%d) outside image %dx%d",
			row, col, rows, cols, g.imageLength, g.imageWidth)
	}

	out := make([]uint8, rows*cols)
	if rows == 0 || cols == 0 {
		return out, nil
	}
	bw, bl := int(g.blockWidth), int(g.blockLength)
	for by := row / bl; by <= (row+rows-1)/bl; by++ {
		for bx := col / bw; bx <= (col+cols-1)/bw; bx++ {
			blockNum := by*g.blocksAcross + bx
			data, err := g.getBlockData(blockNum)
			if err != nil {
				return nil, fmt.Errorf("failed to get data for block %d: %w", blockNum, err)
			}
			if g.tiled {
				g.prefetch(blockNum)
			}

			// Intersection of the block with the window, in image pixels.
			r0 := max(row, by*bl)
			r1 := min(row+rows, (by+1)*bl)
			c0 := max(col, bx*bw)
			c1 := min(col+cols, (bx+1)*bw)
			for r := r0; r < r1; r++ {
				src := (r-by*bl)*bw + (c0 - bx*bw)
				if src+(c1-c0) > len(data) {
					return nil, fmt.Errorf("block %d is short: %d bytes", blockNum, len(data))
				}
				dst := (r-row)*cols + (c0 - col)
				copy(out[dst:dst+c1-c0], data[src:src+c1-c0])
			}
		}
	}
	return out, nil
}

// prefetch triggers a non-blocking fetch of the neighbours of a tile.
func (g *GeoTIFF) prefetch(blockNum int) {
	prefetchKey := fmt.Sprintf("prefetch-%d", blockNum)
	go g.inflightPrefetch.Do(prefetchKey, func() (interface{}, error) {
		g.prefetchNeighbors(blockNum)
		// Allow another prefetch for this tile once cache items may have expired.
		time.AfterFunc(1*time.Minute, func() {
			g.inflightPrefetch.Forget(prefetchKey)
		})
		return nil, nil
	})
}

// getBlockData retrieves a block, decodes it and caches the result.
func (g *GeoTIFF) getBlockData(blockNum int) ([]byte, error) {
	key := strconv.Itoa(blockNum)
	item := g.blockCache.Get(key)
	if item != nil && !item.Expired() {
		return item.Value(), nil
	}

	v, err, _ := g.inflightData.Do(key, func() (interface{}, error) {
		raw, err := g.fetchAndDecompressBlock(blockNum)
		if err != nil {
			return nil, err
		}
		data := g.decode(raw)
		g.blockCache.Set(key, data, g.cacheTTL)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// decode undoes the horizontal predictor of a decompressed block.
func (g *GeoTIFF) decode(raw []byte) []byte {
	if g.predictor == PredictorHorizontal {
		undoHorizontalPrediction(raw, g.blockWidth)
	}
	return raw
}

// fetchAndDecompressBlock performs the I/O to read and decompress a single block.
func (g *GeoTIFF) fetchAndDecompressBlock(blockNum int) ([]byte, error) {
	if blockNum < 0 || blockNum >= len(g.blockOffsets) {
		return nil, fmt.Errorf("block index %d out of bounds", blockNum)
	}

	offset := g.blockOffsets[blockNum]
	byteCount := g.blockCounts[blockNum]
	blockBytes := make([]byte, byteCount)

	readerAt, ok := g.reader.(io.ReaderAt)
	if !ok {
		return nil, errors.New("reader does not support ReadAt for block fetching")
	}
	if _, err := readerAt.ReadAt(blockBytes, int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read block %d from source: %w", blockNum, err)
	}

	switch g.compression {
	case Uncompressed:
		return blockBytes, nil
	case DEFLATE, AdobeDeflate:
		z, err := zlib.NewReader(bytes.NewReader(blockBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create zlib reader for block: %w", err)
		}
		defer z.Close()
		out, err := io.ReadAll(z)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress block data: %w", err)
		}
		return out, nil
	case PackBits:
		return unpackBits(blockBytes)
	default:
		return nil, fmt.Errorf("%w: compression type %d", ErrUnsupported, g.compression)
	}
}

// prefetchNeighbors fetches the neighbours of a tile but does not trigger
// any further prefetching.
func (g *GeoTIFF) prefetchNeighbors(blockNum int) {
	if g.blocksAcross == 0 {
		return
	}

	blockY := blockNum / g.blocksAcross
	blockX := blockNum % g.blocksAcross

	var wg sync.WaitGroup
	for j := -1; j <= 1; j++ {
		for i := -1; i <= 1; i++ {
			if i == 0 && j == 0 {
				continue
			}
			nx, ny := blockX+i, blockY+j
			if nx >= 0 && nx < g.blocksAcross && ny >= 0 && ny < g.blocksDown {
				wg.Add(1)
				go func(num int) {
					defer wg.Done()
					g.getBlockData(num)
				}(ny*g.blocksAcross + nx)
			}
		}
	}
	wg.Wait()
}

func (g *GeoTIFF) getUint(tag Tag) (uint64, bool) {
	t, ok := g.tags[tag]
	if !ok {
		return 0, false
	}
	if t.fType == SHORT && len(t.shortData) > 0 {
		return uint64(t.shortData[0]), true
	}
	if t.fType == LONG && len(t.longData) > 0 {
		return uint64(t.longData[0]), true
	}
	if (t.fType == LONG8 || t.fType == IFD8) && len(t.uint64Data) > 0 {
		return t.uint64Data[0], true
	}
	return 0, false
}

func (g *GeoTIFF) get64bitSlice(tag Tag) ([]uint64, bool) {
	t, ok := g.tags[tag]
	if !ok {
		return nil, false
	}
	switch t.fType {
	case LONG8, IFD8:
		return t.uint64Data, true
	case LONG:
		res := make([]uint64, len(t.longData))
		for i, v := range t.longData {
			res[i] = uint64(v)
		}
		return res, true
	case SHORT:
		res := make([]uint64, len(t.shortData))
		for i, v := range t.shortData {
			res[i] = uint64(v)
		}
		return res, true
	}
	return nil, false
}

func (td tagData) doubleDataValue() ([]float64, bool) {
	if td.fType == DOUBLE {
		return td.doubleData, true
	}
	return nil, false
}

func (p Point) String() string { return fmt.Sprintf("(X: %f, Y: %f)", p.X, p.Y) }

func (cc *CornerCoordinates) String() string {
	return fmt.Sprintf("UL: %s, LR: %s", cc.UpperLeft.String(), cc.LowerRight.String())
}

// undoHorizontalPrediction reverses the horizontal differencing predictor
// row by row. Rows are width samples long.
func undoHorizontalPrediction(data []byte, width uint32) {
	if width == 0 {
		return
	}
	w := int(width)
	for rowStart := 0; rowStart+w <= len(data); rowStart += w {
		for x := 1; x < w; x++ {
			data[rowStart+x] += data[rowStart+x-1]
		}
	}
}

// unpackBits decodes a PackBits compressed block.
func unpackBits(src []byte) ([]byte, error) {
	out := make([]byte, 0, 2*len(src))
	for i := 0; i < len(src); {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(src) {
				return nil, errors.New("packbits: literal run past end of data")
			}
			out = append(out, src[i:i+n+1]...)
			i += n + 1
		case n != -128:
			if i >= len(src) {
				return nil, errors.New("packbits: repeat run past end of data")
			}
			for k := 0; k < 1-n; k++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	return out, nil
}
