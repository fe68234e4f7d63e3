package transform

import (
	"fmt"

	"github.com/twpayne/go-proj/v11"
)

// PROJ is a Projector backed by a PROJ transformation with its own
// context. Use one per goroutine.
type PROJ struct {
	ctx *proj.Context
	pj  *proj.PJ
}

// NewPROJ creates a transformation from source to target with the axis
// order normalised so x is longitude and y latitude.
func NewPROJ(source, target string) (*PROJ, error) {
	ctx := proj.NewContext()
	pj, err := ctx.NewCRSToCRS(source, target, nil)
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("new crs to crs: %w", err)
	}
	norm, err := pj.NormalizeForVisualization()
	pj.Destroy()
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("normalize for visualization: %w", err)
	}
	return &PROJ{ctx: ctx, pj: norm}, nil
}

// Forward transforms one point.
func (p *PROJ) Forward(x, y float64) (lon, lat float64, err error) {
	c, err := p.pj.Forward(proj.Coord{x, y, 0, 0})
	if err != nil {
		return 0, 0, err
	}
	return c[0], c[1], nil
}

// Close releases the PROJ objects.
func (p *PROJ) Close() error {
	p.pj.Destroy()
	p.ctx.Destroy()
	return nil
}
