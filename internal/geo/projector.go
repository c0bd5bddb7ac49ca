// Package geo projects geographic coordinates to a local planar system so
// that Euclidean distance between projected points approximates ground
// distance at the radii used by the query engine (hundreds of feet).
package geo

import (
	"fmt"
	"sync"

	"github.com/pebbe/proj/v5"
)

// Projector maps EPSG:4326 (longitude, latitude) to planar coordinates.
// The same projector must be applied to stops at ingestion time and to the
// query point, otherwise squared-distance comparisons are meaningless.
type Projector interface {
	Project(lon, lat float64) (x, y float64, err error)
}

// DefaultPipeline projects into EPSG:2263 (NY Long Island state plane,
// US survey feet). Deployments outside New York supply their own local
// metric projection via the projection config key.
const DefaultPipeline = `
    +proj=pipeline
    +step +proj=longlat +ellps=WGS84 +datum=WGS84
    +step +proj=lcc +lat_1=41.03333333333333 +lat_2=40.66666666666666
          +lat_0=40.16666666666666 +lon_0=-74
          +x_0=300000.0000000001 +y_0=0
          +ellps=GRS80 +units=us-ft +no_defs
`

// ProjProjector runs a PROJ transformation pipeline. PJ handles are not
// safe for concurrent use, so Project serializes on a mutex.
type ProjProjector struct {
	mu       sync.Mutex
	ctx      *proj.Context
	pipeline *proj.PJ
}

// NewProjProjector compiles the given PROJ pipeline. Pass an empty string
// for DefaultPipeline.
func NewProjProjector(pipeline string) (*ProjProjector, error) {
	if pipeline == "" {
		pipeline = DefaultPipeline
	}
	ctx := proj.NewContext()
	pj, err := ctx.Create(pipeline)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("create projection pipeline: %w", err)
	}
	return &ProjProjector{ctx: ctx, pipeline: pj}, nil
}

func (p *ProjProjector) Project(lon, lat float64) (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	x, y, _, _, err := p.pipeline.Trans(proj.Fwd, proj.DegToRad(lon), proj.DegToRad(lat), 0, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("project (%f, %f): %w", lon, lat, err)
	}
	return x, y, nil
}

func (p *ProjProjector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pipeline != nil {
		p.pipeline.Close()
		p.pipeline = nil
	}
	if p.ctx != nil {
		p.ctx.Close()
		p.ctx = nil
	}
}
