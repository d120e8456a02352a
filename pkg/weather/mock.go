package weather

import (
	"context"
	"math"
	"time"
)

// Mock returns stable, plausible values derived from the coordinates. It is
// used when no provider key is configured.
type Mock struct {
	now func() time.Time
}

func NewMock() *Mock { return &Mock{now: time.Now} }

func (m *Mock) Name() string { return "mock" }

// base temperature: cooler to the north
func (m *Mock) base(loc Location) float64 {
	return round1(30 - (loc.Lat-36)*1.2)
}

func (m *Mock) Current(_ context.Context, loc Location) (*Current, error) {
	now := m.now().UTC()
	return &Current{
		Fuente:      m.Name(),
		Temperatura: m.base(loc) - 6,
		Humedad:     55,
		VientoKmh:   12,
		Descripcion: "poco nuboso",
		Hora:        now.Truncate(time.Hour).Format(time.RFC3339),
	}, nil
}

func (m *Mock) Forecast(_ context.Context, loc Location, days int) (*Forecast, error) {
	out := &Forecast{Fuente: m.Name()}
	start := m.now().In(madrid)
	b := m.base(loc)
	for i := 0; i < days; i++ {
		w := math.Sin(float64(i))
		out.Dias = append(out.Dias, Day{
			Fecha:       start.AddDate(0, 0, i).Format("2006-01-02"),
			TempMin:     round1(b - 14 + 2*w),
			TempMax:     round1(b - 2 + 2*w),
			PrecipMM:    0,
			ProbPrecip:  10,
			VientoKmh:   round1(10 + 4*w),
			Descripcion: "despejado",
		})
	}
	return out, nil
}
