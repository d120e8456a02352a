package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/pkg/cache"
	"cuaderno/pkg/geo"
)

type fakeProvider struct {
	name  string
	err   error
	days  []Day
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Current(context.Context, Location) (*Current, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Current{Fuente: f.name, Temperatura: 11.5, Humedad: 80, VientoKmh: 7, Descripcion: "niebla"}, nil
}

func (f *fakeProvider) Forecast(_ context.Context, _ Location, days int) (*Forecast, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	d := f.days
	if len(d) > days {
		d = d[:days]
	}
	return &Forecast{Fuente: f.name, Dias: d}, nil
}

func TestService_FallsBackInOrder(t *testing.T) {
	aemet := &fakeProvider{name: "aemet", err: ErrUnsupportedLocation}
	ow := &fakeProvider{name: "openweather", err: errors.New("boom")}
	mock := &fakeProvider{name: "mock"}
	s := NewService([]Provider{aemet, ow, mock}, cache.Noop{}, time.Minute, DefaultThresholds(), zap.NewNop())

	c, err := s.Current(context.Background(), valladolid)
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Fuente)
	assert.Equal(t, 1, aemet.calls)
	assert.Equal(t, 1, ow.calls)
}

func TestService_AllFail(t *testing.T) {
	s := NewService([]Provider{&fakeProvider{name: "a", err: errors.New("down")}}, cache.Noop{}, time.Minute, DefaultThresholds(), zap.NewNop())
	_, err := s.Forecast(context.Background(), valladolid, 3)
	assert.ErrorContains(t, err, "a: down")

	_, err = s.Current(context.Background(), Location{Point: geo.Point{Lat: 120}})
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)
}

func TestService_CachesAndClampsDays(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())
	p := &fakeProvider{name: "mock"}
	for i := 0; i < 10; i++ {
		p.days = append(p.days, Day{Fecha: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), TempMin: 5, TempMax: 12})
	}
	s := NewService([]Provider{p}, c, time.Minute, DefaultThresholds(), zap.NewNop())

	f, err := s.Forecast(context.Background(), valladolid, 30)
	require.NoError(t, err)
	assert.Len(t, f.Dias, MaxDays)
	_, err = s.Forecast(context.Background(), valladolid, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)

	f, err = s.Forecast(context.Background(), valladolid, 0)
	require.NoError(t, err)
	assert.Len(t, f.Dias, DefaultDays)
}

func TestService_AlertsAndSnapshot(t *testing.T) {
	p := &fakeProvider{name: "mock", days: []Day{{Fecha: "2025-01-10", TempMin: -2, TempMax: 6}}}
	s := NewService([]Provider{p}, cache.Noop{}, time.Minute, DefaultThresholds(), zap.NewNop())

	alerts, f, err := s.Alerts(context.Background(), valladolid, 1)
	require.NoError(t, err)
	assert.Equal(t, "mock", f.Fuente)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertHelada, alerts[0].Tipo)

	snap, err := s.Snapshot(context.Background(), valladolid.Point)
	require.NoError(t, err)
	assert.Equal(t, "11.5 °C, humedad 80%, viento 7 km/h, niebla (mock)", snap)
}

func TestProviders_MockAlwaysLast(t *testing.T) {
	ps := Providers("https://aemet", "", "https://ow", "key")
	require.Len(t, ps, 2)
	assert.Equal(t, "openweather", ps[0].Name())
	assert.Equal(t, "mock", ps[1].Name())
}

func TestMock_Forecast(t *testing.T) {
	m := NewMock()
	m.now = func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	f, err := m.Forecast(context.Background(), valladolid, 3)
	require.NoError(t, err)
	require.Len(t, f.Dias, 3)
	assert.Equal(t, "2025-02-01", f.Dias[0].Fecha)
	assert.Less(t, f.Dias[0].TempMin, f.Dias[0].TempMax)
}
