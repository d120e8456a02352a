package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EarthRadius is the WGS84 equatorial radius in metres.
const EarthRadius = 6378137.0

var ErrInvalidGeometry = errors.New("geometría no válida")

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return fmt.Errorf("%w: coordenadas NaN", ErrInvalidGeometry)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitud fuera de rango", ErrInvalidGeometry)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitud fuera de rango", ErrInvalidGeometry)
	}
	return nil
}

// Geometry is a GeoJSON Polygon or MultiPolygon in lng/lat order.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type ring [][2]float64
type polygon []ring

func ParseGeometry(raw []byte) (*Geometry, error) {
	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	// accept a bare Feature as well
	if g.Type == "Feature" {
		var f struct {
			Geometry json.RawMessage `json:"geometry"`
		}
		if err := json.Unmarshal(raw, &f); err != nil || len(f.Geometry) == 0 {
			return nil, fmt.Errorf("%w: feature sin geometría", ErrInvalidGeometry)
		}
		return ParseGeometry(f.Geometry)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Geometry) polygons() ([]polygon, error) {
	switch g.Type {
	case "Polygon":
		var p polygon
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return []polygon{p}, nil
	case "MultiPolygon":
		var mp []polygon
		if err := json.Unmarshal(g.Coordinates, &mp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: tipo %q no soportado", ErrInvalidGeometry, g.Type)
	}
}

// Validate checks that every ring is closed, has at least four positions
// and lies within lng/lat bounds.
func (g *Geometry) Validate() error {
	polys, err := g.polygons()
	if err != nil {
		return err
	}
	if len(polys) == 0 {
		return fmt.Errorf("%w: sin polígonos", ErrInvalidGeometry)
	}
	for _, p := range polys {
		if len(p) == 0 {
			return fmt.Errorf("%w: polígono vacío", ErrInvalidGeometry)
		}
		for _, r := range p {
			if len(r) < 4 {
				return fmt.Errorf("%w: un anillo necesita al menos 4 posiciones", ErrInvalidGeometry)
			}
			if r[0] != r[len(r)-1] {
				return fmt.Errorf("%w: anillo no cerrado", ErrInvalidGeometry)
			}
			for _, c := range r {
				if err := (Point{Lat: c[1], Lng: c[0]}).Validate(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// String returns the GeoJSON text of the geometry.
func (g *Geometry) String() string {
	b, _ := json.Marshal(g)
	return string(b)
}

// AreaHa returns the geodesic area of the geometry in hectares, holes
// subtracted.
func AreaHa(g *Geometry) (float64, error) {
	polys, err := g.polygons()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, p := range polys {
		for i, r := range p {
			a := math.Abs(ringArea(r))
			if i == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return total / 10000, nil
}

// ringArea is the spherical area of a ring in m² (signed).
func ringArea(r ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p1 := r[i]
		p2 := r[(i+1)%n]
		p3 := r[(i+2)%n]
		sum += (rad(p3[0]) - rad(p1[0])) * math.Sin(rad(p2[1]))
	}
	return sum * EarthRadius * EarthRadius / 2
}

// Centroid returns the planar centroid of the largest outer ring.
func Centroid(g *Geometry) (Point, error) {
	polys, err := g.polygons()
	if err != nil {
		return Point{}, err
	}
	var best ring
	bestArea := -1.0
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		if a := math.Abs(ringArea(p[0])); a > bestArea {
			best, bestArea = p[0], a
		}
	}
	if len(best) == 0 {
		return Point{}, fmt.Errorf("%w: sin anillo exterior", ErrInvalidGeometry)
	}

	// shift to the first vertex to keep the shoelace sums small
	ox, oy := best[0][0], best[0][1]
	var a, cx, cy float64
	for i := 0; i < len(best)-1; i++ {
		x0, y0 := best[i][0]-ox, best[i][1]-oy
		x1, y1 := best[i+1][0]-ox, best[i+1][1]-oy
		f := x0*y1 - x1*y0
		a += f
		cx += (x0 + x1) * f
		cy += (y0 + y1) * f
	}
	if a == 0 {
		var sx, sy float64
		for _, c := range best[:len(best)-1] {
			sx += c[0]
			sy += c[1]
		}
		n := float64(len(best) - 1)
		return Point{Lat: sy / n, Lng: sx / n}, nil
	}
	a *= 0.5
	return Point{Lat: oy + cy/(6*a), Lng: ox + cx/(6*a)}, nil
}

// DistanceKm is the haversine distance between two points.
func DistanceKm(a, b Point) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h)) / 1000
}

func rad(d float64) float64 { return d * math.Pi / 180 }
