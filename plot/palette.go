package plot

import (
	"image/color"
	"math"

	"github.com/akhenakh/glcc/legend"
)

// Palette maps category codes to colours. Codes without a colour are
// drawn as background.
type Palette map[int]color.RGBA

var fixed = Palette{
	1:  {R: 0xd7, G: 0x19, B: 0x1c, A: 0xff}, // urban
	8:  {R: 0xf5, G: 0xde, B: 0xb3, A: 0xff}, // bare desert
	12: {R: 0xf0, G: 0xf8, B: 0xff, A: 0xff}, // glacier ice
	14: {R: 0x4f, G: 0x94, B: 0xcd, A: 0xff}, // inland water
	15: {R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}, // sea water
	50: {R: 0xed, G: 0xc9, B: 0xaf, A: 0xff}, // sand desert
}

// DefaultPalette colours every Olson class. Interrupted areas and no data
// are left out.
func DefaultPalette() Palette {
	p := make(Palette)
	for _, code := range legend.OlsonGlobalEcosystem.Codes() {
		if code == 0 || code == legend.NoData {
			continue
		}
		if c, ok := fixed[code]; ok {
			p[code] = c
			continue
		}
		// Golden ratio hue steps keep neighbouring codes apart.
		h := math.Mod(float64(code)*0.618033988749895, 1)
		p[code] = hsv(h, 0.55, 0.45+0.4*math.Mod(float64(code)*0.37, 1))
	}
	return p
}

func hsv(h, s, v float64) color.RGBA {
	i := math.Floor(h * 6)
	f := h*6 - i
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}
