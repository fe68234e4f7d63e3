package geotiff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoCRS is returned by CRS when the file carries no usable GeoKeys.
var ErrNoCRS = errors.New("geotiff: no coordinate reference system")

// GeoKeys holds the decoded GeoKey directory, keyed by GeoKey ID. Values are
// uint16, float64 or string depending on where the key is stored.
type GeoKeys map[uint16]any

// GeoKeys decodes the GeoKeyDirectory tag together with the double and ASCII
// parameter tags it points into.
func (g *GeoTIFF) GeoKeys() (GeoKeys, error) {
	dir, ok := g.tags[GeoKeyDirectory]
	if !ok || dir.fType != SHORT || len(dir.shortData) < 4 {
		return nil, ErrNoCRS
	}
	doubles := g.tags[GeoDoubleParams].doubleData
	ascii := g.tags[GeoASCIIParams].asciiData

	// Header: KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys
	numKeys := int(dir.shortData[3])
	keys := make(GeoKeys, numKeys)
	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(dir.shortData) {
			return nil, fmt.Errorf("geokey directory truncated at key %d", i)
		}
		id := dir.shortData[base]
		location := Tag(dir.shortData[base+1])
		count := int(dir.shortData[base+2])
		offset := int(dir.shortData[base+3])

		switch location {
		case 0:
			keys[id] = dir.shortData[base+3]
		case GeoDoubleParams:
			if offset >= len(doubles) {
				return nil, fmt.Errorf("geokey %d points past GeoDoubleParams", id)
			}
			keys[id] = doubles[offset]
		case GeoASCIIParams:
			if offset+count > len(ascii)+1 {
				return nil, fmt.Errorf("geokey %d points past GeoAsciiParams", id)
			}
			end := min(offset+count, len(ascii))
			keys[id] = strings.TrimRight(ascii[offset:end], "|\x00")
		case GeoKeyDirectory:
			if offset >= len(dir.shortData) {
				return nil, fmt.Errorf("geokey %d points past GeoKeyDirectory", id)
			}
			keys[id] = dir.shortData[offset]
		default:
			g.logger.Warn("skipping geokey stored in unknown tag", "key", id, "tag", location)
		}
	}
	return keys, nil
}

func (k GeoKeys) short(id uint16) (uint16, bool) {
	v, ok := k[id].(uint16)
	return v, ok
}

func (k GeoKeys) double(id uint16) (float64, bool) {
	v, ok := k[id].(float64)
	return v, ok
}

func (k GeoKeys) text(id uint16) string {
	v, _ := k[id].(string)
	return v
}

// CRS returns a PROJ compatible definition of the raster CRS: "EPSG:<code>"
// when the file references a registered system, otherwise a proj4 string
// rebuilt from the user defined keys. Only geographic systems and the
// Goode Homolosine projection are recognised among user defined ones.
func (g *GeoTIFF) CRS() (string, error) {
	keys, err := g.GeoKeys()
	if err != nil {
		return "", err
	}

	if code, ok := keys.short(gkProjectedCSType); ok && code != 0 && code != userDefined {
		return fmt.Sprintf("EPSG:%d", code), nil
	}

	modelType, _ := keys.short(gkModelType)
	switch modelType {
	case modelTypeGeographic:
		if code, ok := keys.short(gkGeographicType); ok && code != 0 && code != userDefined {
			return fmt.Sprintf("EPSG:%d", code), nil
		}
		return "+proj=longlat " + keys.ellipsoid() + " +no_defs", nil
	case modelTypeProjected:
		citation := strings.ToLower(keys.text(gkPCSCitation) + " " + keys.text(gkCitation))
		if strings.Contains(citation, "goode") || strings.Contains(citation, "homolosine") {
			def := "+proj=igh " + keys.ellipsoid()
			if lon0, ok := keys.double(gkProjCenterLong); ok && lon0 != 0 {
				def += " +lon_0=" + ff(lon0)
			}
			return def + " +units=m +no_defs", nil
		}
		return "", fmt.Errorf("%w: user defined projection %q", ErrUnsupported, strings.TrimSpace(citation))
	default:
		return "", ErrNoCRS
	}
}

// ellipsoid renders the ellipsoid keys as proj4 parameters. A sphere is
// written as +R, the GLCC products use a 6370997 m sphere.
func (k GeoKeys) ellipsoid() string {
	a, ok := k.double(gkGeogSemiMajorAxis)
	if !ok {
		return "+datum=WGS84"
	}
	if b, ok := k.double(gkGeogSemiMinorAxis); ok && b != a {
		return "+a=" + ff(a) + " +b=" + ff(b)
	}
	if rf, ok := k.double(gkGeogInvFlattening); ok && rf != 0 {
		return "+a=" + ff(a) + " +rf=" + ff(rf)
	}
	return "+R=" + ff(a)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
