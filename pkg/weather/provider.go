package weather

import (
	"context"
	"errors"

	"cuaderno/entities"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/sigpac"
)

// ErrUnsupportedLocation means the provider cannot serve this location
// (e.g. AEMET without a municipio code) and the next provider should be tried.
var ErrUnsupportedLocation = errors.New("ubicación no soportada por el proveedor")

type Location struct {
	geo.Point
	// Municipio is the 5-digit INE code (PPMMM), required by AEMET.
	Municipio string `json:"municipio,omitempty"`
}

type Current struct {
	Fuente        string  `json:"fuente"`
	Temperatura   float64 `json:"temperatura"` // °C
	Humedad       float64 `json:"humedad"`     // %
	VientoKmh     float64 `json:"viento_kmh"`
	RachaKmh      float64 `json:"racha_kmh,omitempty"`
	Precipitacion float64 `json:"precipitacion_mm"`
	Descripcion   string  `json:"descripcion"`
	Hora          string  `json:"hora"` // RFC3339
}

type Day struct {
	Fecha       string  `json:"fecha"` // YYYY-MM-DD
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	PrecipMM    float64 `json:"precipitacion_mm"`
	ProbPrecip  float64 `json:"prob_precipitacion"` // %
	VientoKmh   float64 `json:"viento_kmh"`
	RachaKmh    float64 `json:"racha_kmh,omitempty"`
	Descripcion string  `json:"descripcion"`
}

type Forecast struct {
	Fuente string `json:"fuente"`
	Dias   []Day  `json:"dias"`
}

// Provider is a weather data source.
type Provider interface {
	Name() string
	Current(ctx context.Context, loc Location) (*Current, error)
	Forecast(ctx context.Context, loc Location, days int) (*Forecast, error)
}

// LocationOf returns the weather location of a parcela: its centroid and,
// when the SIGPAC reference is known, the INE municipio code.
func LocationOf(p *entities.Parcela) (Location, bool) {
	if p == nil || p.Centroide == nil {
		return Location{}, false
	}
	loc := Location{Point: *p.Centroide}
	if ref, err := sigpac.Parse(p.ReferenciaSigpac); err == nil {
		loc.Municipio = ref.Provincia + ref.Municipio
	}
	return loc, true
}
