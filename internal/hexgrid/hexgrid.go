// Package hexgrid lays out the region cartogram: one uniform pointy-top hexagon
// per region, placed by grid position in longitude/latitude, projected with
// Mercator and scaled to fit a drawing extent.
package hexgrid

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// Grid geometry in degrees. Odd rows shift half a hex east.
const (
	Radius    = 1.0
	OriginLon = -125.0
	OriginLat = 50.0
)

var (
	hexWidth  = math.Sqrt(3) * Radius
	rowHeight = 1.5 * Radius
)

// Extent is the drawing area the projected grid is fitted into.
type Extent struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	MarginX float64 `json:"margin_x"`
	MarginY float64 `json:"margin_y"`
}

// DefaultExtent matches the map canvas: 1000x600 with 5px side margins.
var DefaultExtent = Extent{Width: 1000, Height: 600, MarginX: 5}

func (e Extent) validate() error {
	if e.Width-2*e.MarginX <= 0 || e.Height-2*e.MarginY <= 0 {
		return fmt.Errorf("extent %gx%g leaves no room inside margins", e.Width, e.Height)
	}
	return nil
}

// Point is a projected screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned screen rectangle.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Cell is one region's projected hexagon. Labels go at Centroid, tooltips
// anchor to Bounds.
type Cell struct {
	Region   string            `json:"region"`
	Name     string            `json:"name"`
	Link     string            `json:"link"`
	Centroid Point             `json:"centroid"`
	Bounds   Box               `json:"bounds"`
	Geometry *geojson.Geometry `json:"geometry"`
}

// Center returns the unprojected center of the hexagon at (col, row).
func Center(col, row int) geom.Coord {
	x := OriginLon + float64(col)*hexWidth
	if row%2 != 0 {
		x += hexWidth / 2
	}
	y := OriginLat - float64(row)*rowHeight
	return geom.Coord{x, y}
}

// Hexagon returns the closed lon/lat ring for the cell at (col, row).
func Hexagon(col, row int) *geom.Polygon {
	c := Center(col, row)
	flat := make([]float64, 0, 14)
	for k := 0; k <= 6; k++ {
		a := math.Pi/6 + float64(k%6)*math.Pi/3
		flat = append(flat, c[0]+Radius*math.Cos(a), c[1]+Radius*math.Sin(a))
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}

// mercator projects degrees to unscaled Mercator with y growing downward.
func mercator(lon, lat float64) (float64, float64) {
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	return lambda, -math.Log(math.Tan(math.Pi/4 + phi/2))
}

func mapPolygon(p *geom.Polygon, f func(x, y float64) (float64, float64)) *geom.Polygon {
	src := p.FlatCoords()
	flat := make([]float64, len(src))
	for i := 0; i+1 < len(src); i += 2 {
		flat[i], flat[i+1] = f(src[i], src[i+1])
	}
	return geom.NewPolygonFlat(geom.XY, flat, p.Ends())
}

// Layout projects a hexagon per region and fits the whole grid into extent,
// preserving aspect ratio and centering the result. Cells follow regions'
// order.
func Layout(regions []domain.Region, extent Extent) ([]Cell, error) {
	if len(regions) == 0 {
		return nil, errors.New("layout: no regions")
	}
	if err := extent.validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	projected := make([]*geom.Polygon, len(regions))
	bounds := geom.NewBounds(geom.XY)
	for i, r := range regions {
		projected[i] = mapPolygon(Hexagon(r.Col, r.Row), mercator)
		bounds.Extend(projected[i])
	}

	dx := bounds.Max(0) - bounds.Min(0)
	dy := bounds.Max(1) - bounds.Min(1)
	availW := extent.Width - 2*extent.MarginX
	availH := extent.Height - 2*extent.MarginY
	k := math.Min(availW/dx, availH/dy)
	tx := extent.MarginX + (availW-k*dx)/2 - k*bounds.Min(0)
	ty := extent.MarginY + (availH-k*dy)/2 - k*bounds.Min(1)
	fit := func(x, y float64) (float64, float64) { return k*x + tx, k*y + ty }

	cells := make([]Cell, len(regions))
	for i, r := range regions {
		poly := mapPolygon(projected[i], fit)
		centroid, err := xy.Centroid(poly)
		if err != nil {
			return nil, fmt.Errorf("layout %s: centroid: %w", r.Code, err)
		}
		gj, err := geojson.Encode(poly)
		if err != nil {
			return nil, fmt.Errorf("layout %s: encode: %w", r.Code, err)
		}
		b := poly.Bounds()
		cells[i] = Cell{
			Region:   r.Code,
			Name:     r.Name,
			Link:     r.Link(),
			Centroid: Point{X: centroid.X(), Y: centroid.Y()},
			Bounds:   Box{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)},
			Geometry: gj,
		}
	}
	return cells, nil
}
