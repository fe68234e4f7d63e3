package geotiff

type fieldType uint16

// TIFF field types
const (
	BYTE      fieldType = 1
	ASCII     fieldType = 2
	SHORT     fieldType = 3
	LONG      fieldType = 4
	RATIONAL  fieldType = 5
	SBYTE     fieldType = 6
	UNDEFINED fieldType = 7
	SSHORT    fieldType = 8
	SLONG     fieldType = 9
	SRATIONAL fieldType = 10
	FLOAT     fieldType = 11
	DOUBLE    fieldType = 12
	LONG8     fieldType = 16
	SLONG8    fieldType = 17
	IFD8      fieldType = 18
)

const (
	zeroByte  = 0
	oneByte   = 1
	twoByte   = 2
	fourByte  = 4
	eightByte = 8
)

const (
	littleEndian      = 0x4949 // "II"
	bigEndian         = 0x4D4D // "MM"
	tiffIdentifier    = 42
	bigTiffIdentifier = 43
	bigTiffBytesize   = 8
)

// Baseline and extension tags.
const (
	ImageWidth      Tag = 256
	ImageLength     Tag = 257
	BitsPerSample   Tag = 258
	Compression     Tag = 259
	Photometric     Tag = 262
	StripOffsets    Tag = 273
	SamplesPerPixel Tag = 277
	RowsPerStrip    Tag = 278
	StripByteCounts Tag = 279
	PlanarConfig    Tag = 284
	Predictor       Tag = 317
	TileWidth       Tag = 322
	TileLength      Tag = 323
	TileOffsets     Tag = 324
	TileByteCounts  Tag = 325
	SampleFormat    Tag = 339
)

// GeoTIFF and GDAL tags.
const (
	ModelPixelScale Tag = 33550
	ModelTiepoint   Tag = 33922
	ModelTransform  Tag = 34264
	GeoKeyDirectory Tag = 34735
	GeoDoubleParams Tag = 34736
	GeoASCIIParams  Tag = 34737
	GDALMetadata    Tag = 42112
	GDALNoData      Tag = 42113
)

var tagToLabel = map[Tag]string{
	ImageWidth:      "ImageWidth",
	ImageLength:     "ImageLength",
	BitsPerSample:   "BitsPerSample",
	Compression:     "Compression",
	Photometric:     "PhotometricInterpretation",
	StripOffsets:    "StripOffsets",
	SamplesPerPixel: "SamplesPerPixel",
	RowsPerStrip:    "RowsPerStrip",
	StripByteCounts: "StripByteCounts",
	PlanarConfig:    "PlanarConfiguration",
	Predictor:       "Predictor",
	TileWidth:       "TileWidth",
	TileLength:      "TileLength",
	TileOffsets:     "TileOffsets",
	TileByteCounts:  "TileByteCounts",
	SampleFormat:    "SampleFormat",
	ModelPixelScale: "ModelPixelScale",
	ModelTiepoint:   "ModelTiepoint",
	ModelTransform:  "ModelTransformation",
	GeoKeyDirectory: "GeoKeyDirectory",
	GeoDoubleParams: "GeoDoubleParams",
	GeoASCIIParams:  "GeoAsciiParams",
	GDALMetadata:    "GDAL_METADATA",
	GDALNoData:      "GDAL_NODATA",
}

// Compression schemes
const (
	Uncompressed = 1
	PackBits     = 32773
	DEFLATE      = 8
	AdobeDeflate = 32946
)

// Predictor values
const (
	PredictorNone       = 1
	PredictorHorizontal = 2
)

// SampleFormat values
const (
	SampleFormatUint  = 1
	SampleFormatInt   = 2
	SampleFormatFloat = 3
)

// GeoKey IDs, see the GeoTIFF 1.0 key registry.
const (
	gkModelType         = 1024
	gkRasterType        = 1025
	gkCitation          = 1026
	gkGeographicType    = 2048
	gkGeogCitation      = 2049
	gkGeogSemiMajorAxis = 2057
	gkGeogSemiMinorAxis = 2058
	gkGeogInvFlattening = 2059
	gkProjectedCSType   = 3072
	gkPCSCitation       = 3073
	gkProjCoordTrans    = 3075
	gkProjFalseEasting  = 3082
	gkProjFalseNorthing = 3083
	gkProjCenterLong    = 3088
	userDefined         = 32767
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
	rasterPixelIsPoint  = 2
)
