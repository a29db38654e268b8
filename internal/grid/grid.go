// Package grid partitions the region's bounding box into fixed-size patches
// and answers expanding-ring proximity queries over the places they hold.
package grid

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/geo"
	"github.com/sells-group/synthgeo/internal/place"
)

// DefaultPatchSizeKM is the patch edge length used when none is configured.
const DefaultPatchSizeKM = 20.0

// Config controls grid construction.
type Config struct {
	PatchSizeKM     float64
	UseMeanLatitude bool
}

// Patch is one grid cell. It references places by id.
type Patch struct {
	Row, Col     int
	Households   []place.ID
	Workplaces   []place.ID
	Schools      []place.ID
	Hospitals    []place.ID
	Neighborhood place.ID
}

// Grid is the regional patch matrix.
type Grid struct {
	log  *zap.Logger
	reg  *place.Registry
	proj geo.Projection

	bounds  orb.Bound
	x0, y0  float64
	sizeKM  float64
	rows    int
	cols    int
	patches []Patch
}

// New builds the grid from the registry's final bounding box and indexes
// every household, workplace, school and hospital.
func New(reg *place.Registry, cfg Config) (*Grid, error) {
	if !reg.HasBounds() {
		return nil, eris.New("grid: registry has no located places")
	}
	size := cfg.PatchSizeKM
	if size <= 0 {
		size = DefaultPatchSizeKM
	}

	proj := geo.DefaultProjection()
	if cfg.UseMeanLatitude {
		proj = geo.NewProjection(reg.MeanLatitude())
	}

	b := reg.Bounds()
	g := &Grid{
		log:    zap.L().With(zap.String("component", "grid")),
		reg:    reg,
		proj:   proj,
		bounds: b,
		x0:     proj.X(b.Min[0]),
		y0:     proj.Y(b.Min[1]),
		sizeKM: size,
	}
	g.cols = 1 + int((proj.X(b.Max[0])-g.x0)/size)
	g.rows = 1 + int((proj.Y(b.Max[1])-g.y0)/size)
	g.patches = make([]Patch, g.rows*g.cols)
	for row := range g.rows {
		for col := range g.cols {
			g.patches[row*g.cols+col] = Patch{Row: row, Col: col, Neighborhood: place.None}
		}
	}

	outside := 0
	for _, p := range reg.Places() {
		if !g.insert(p) {
			outside++
		}
	}
	if outside > 0 {
		g.log.Warn("places outside grid extent", zap.Int("count", outside))
	}

	g.log.Info("grid built",
		zap.Int("rows", g.rows),
		zap.Int("cols", g.cols),
		zap.Float64("patch_km", size),
		zap.Float64("km_per_deg_lon", proj.KMPerDegLon),
	)
	return g, nil
}

func (g *Grid) insert(p *place.Place) bool {
	if p.Kind != place.KindHousehold && p.Kind != place.KindWorkplace &&
		p.Kind != place.KindSchool && p.Kind != place.KindHospital {
		return true
	}
	patch, ok := g.PatchAt(p.Lat, p.Lon)
	if !ok {
		return false
	}
	switch p.Kind {
	case place.KindHousehold:
		patch.Households = append(patch.Households, p.ID)
		p.Household.Patch = &place.Patch{Row: patch.Row, Col: patch.Col}
	case place.KindWorkplace:
		patch.Workplaces = append(patch.Workplaces, p.ID)
	case place.KindSchool:
		patch.Schools = append(patch.Schools, p.ID)
	case place.KindHospital:
		patch.Hospitals = append(patch.Hospitals, p.ID)
	}
	return true
}

// Rows is the number of patch rows.
func (g *Grid) Rows() int { return g.rows }

// Cols is the number of patch columns.
func (g *Grid) Cols() int { return g.cols }

// Bounds is the lon/lat extent the grid was built from.
func (g *Grid) Bounds() orb.Bound { return g.bounds }

// Projection is the km-per-degree scaling in use.
func (g *Grid) Projection() geo.Projection { return g.proj }

// RowCol returns the patch coordinates of a point, which may lie outside the
// grid.
func (g *Grid) RowCol(lat, lon float64) (int, int) {
	row := int(math.Floor((g.proj.Y(lat) - g.y0) / g.sizeKM))
	col := int(math.Floor((g.proj.X(lon) - g.x0) / g.sizeKM))
	return row, col
}

// Patch returns the patch at row, col.
func (g *Grid) Patch(row, col int) (*Patch, bool) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil, false
	}
	return &g.patches[row*g.cols+col], true
}

// PatchAt returns the patch containing the point.
func (g *Grid) PatchAt(lat, lon float64) (*Patch, bool) {
	return g.Patch(g.RowCol(lat, lon))
}

// Patches returns every patch in row-major order.
func (g *Grid) Patches() []*Patch {
	out := make([]*Patch, len(g.patches))
	for i := range g.patches {
		out[i] = &g.patches[i]
	}
	return out
}

// ring visits the in-grid patches at Chebyshev distance k from (row, col).
func (g *Grid) ring(row, col, k int, visit func(*Patch)) {
	for r := row - k; r <= row+k; r++ {
		for c := col - k; c <= col+k; c++ {
			if max(abs(r-row), abs(c-col)) != k {
				continue
			}
			if p, ok := g.Patch(r, c); ok {
				visit(p)
			}
		}
	}
}

// maxRing is the ring that covers the whole grid from any starting patch.
func (g *Grid) maxRing() int { return max(g.rows, g.cols) }

// NearbyWorkplace finds the closest ordinary workplace with at least
// minWorkers current workers, searching ring by ring outward from the
// point's patch. The first ring holding any qualifying workplace decides.
func (g *Grid) NearbyWorkplace(lat, lon float64, minWorkers int, exclude place.ID) (*place.Place, bool) {
	row, col, ok := g.origin(lat, lon)
	if !ok {
		return nil, false
	}
	for k := 0; k <= g.maxRing(); k++ {
		var best *place.Place
		bestDist := math.Inf(1)
		g.ring(row, col, k, func(p *Patch) {
			for _, id := range p.Workplaces {
				w := g.reg.Place(id)
				if id == exclude || w.Subtype != place.SubtypeNone || w.WorkerCount() < minWorkers {
					continue
				}
				d := geo.DistanceKM(lat, lon, w.Lat, w.Lon)
				if d < bestDist || (d == bestDist && w.ID < best.ID) {
					best, bestDist = w, d
				}
			}
		})
		if best != nil {
			return best, true
		}
	}
	return nil, false
}

// NearbyHospitals collects hospitals ring by ring until at least minFound are
// gathered or the grid is exhausted. Results are in registry order. Points
// outside the grid search from the nearest edge patch.
func (g *Grid) NearbyHospitals(lat, lon float64, minFound int) []*place.Place {
	row, col := g.RowCol(lat, lon)
	row = min(max(row, 0), g.rows-1)
	col = min(max(col, 0), g.cols-1)

	var ids []place.ID
	for k := 0; k <= g.maxRing() && len(ids) < minFound; k++ {
		g.ring(row, col, k, func(p *Patch) {
			ids = append(ids, p.Hospitals...)
		})
	}
	slices.Sort(ids)

	out := make([]*place.Place, len(ids))
	for i, id := range ids {
		out[i] = g.reg.Place(id)
	}
	return out
}

func (g *Grid) origin(lat, lon float64) (int, int, bool) {
	row, col := g.RowCol(lat, lon)
	if _, ok := g.Patch(row, col); !ok {
		return 0, 0, false
	}
	return row, col, true
}

// MakeNeighborhoods creates one neighborhood place per patch that holds
// households and links each household to it.
func (g *Grid) MakeNeighborhoods() int {
	n := 0
	for i := range g.patches {
		p := &g.patches[i]
		if len(p.Households) == 0 || p.Neighborhood != place.None {
			continue
		}
		lat := g.proj.Lat(g.y0 + (float64(p.Row)+0.5)*g.sizeKM)
		lon := g.proj.Lon(g.x0 + (float64(p.Col)+0.5)*g.sizeKM)
		label := fmt.Sprintf("N-%d-%d", p.Row, p.Col)
		nb := g.reg.AddPlace(label, place.KindNeighborhood, place.SubtypeNone, lon, lat, 0)
		p.Neighborhood = nb.ID
		for _, id := range p.Households {
			g.reg.Place(id).Household.Neighborhood = nb.ID
		}
		n++
	}
	g.log.Info("created neighborhoods", zap.Int("count", n))
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
