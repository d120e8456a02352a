package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuaderno/entities"
	"cuaderno/pkg/geo"
)

var valladolid = Location{Point: geo.Point{Lat: 41.65, Lng: -4.72}, Municipio: "47186"}

func TestAEMET_TwoStepForecast(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prediccion/especifica/municipio/diaria/47186":
			assert.Equal(t, "k", r.Header.Get("api_key"))
			_, _ = w.Write([]byte(`{"descripcion":"exito","estado":200,"datos":"` + srv.URL + `/datos/1"}`))
		case "/datos/1":
			_, _ = w.Write([]byte(`[{"nombre":"Valladolid","prediccion":{"dia":[
				{"fecha":"2025-01-10T00:00:00","temperatura":{"maxima":7,"minima":-2},
				 "probPrecipitacion":[{"value":0,"periodo":"00-24"},{"value":15,"periodo":"12-24"}],
				 "viento":[{"direccion":"N","velocidad":10},{"direccion":"NE","velocidad":25}],
				 "rachaMax":[{"value":""},{"value":"45"}],
				 "estadoCielo":[{"value":"","descripcion":""},{"value":"11","descripcion":"Despejado"}]},
				{"fecha":"2025-01-11T00:00:00","temperatura":{"maxima":9,"minima":1}}]}}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := NewAEMET(srv.URL, "k")
	f, err := a.Forecast(context.Background(), valladolid, 1)
	require.NoError(t, err)
	require.Len(t, f.Dias, 1)
	d := f.Dias[0]
	assert.Equal(t, "2025-01-10", d.Fecha)
	assert.Equal(t, -2.0, d.TempMin)
	assert.Equal(t, 15.0, d.ProbPrecip)
	assert.Equal(t, 25.0, d.VientoKmh)
	assert.Equal(t, 45.0, d.RachaKmh)
	assert.Equal(t, "Despejado", d.Descripcion)

	_, err = a.Forecast(context.Background(), Location{Point: valladolid.Point}, 1)
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestAEMET_CurrentPicksHour(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/datos/h" {
			_, _ = w.Write([]byte(`[{"prediccion":{"dia":[{"fecha":"2025-06-01T00:00:00",
				"temperatura":[{"value":"18","periodo":"09"},{"value":"21","periodo":"10"}],
				"humedadRelativa":[{"value":"60","periodo":"10"}],
				"precipitacion":[{"value":"0","periodo":"10"}],
				"estadoCielo":[{"descripcion":"Nubes altas","periodo":"10"}],
				"vientoAndRachaMax":[{"direccion":["O"],"velocidad":["14"],"periodo":"10"},{"value":"30","periodo":"10"}]}]}}]`))
			return
		}
		_, _ = w.Write([]byte(`{"estado":200,"datos":"` + srv.URL + `/datos/h"}`))
	}))
	defer srv.Close()

	a := NewAEMET(srv.URL, "k")
	a.now = func() time.Time { return time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC) } // 10:30 in Madrid
	c, err := a.Current(context.Background(), valladolid)
	require.NoError(t, err)
	assert.Equal(t, 21.0, c.Temperatura)
	assert.Equal(t, 60.0, c.Humedad)
	assert.Equal(t, 14.0, c.VientoKmh)
	assert.Equal(t, 30.0, c.RachaKmh)
	assert.Equal(t, "Nubes altas", c.Descripcion)
}

func TestAEMET_ErrorEstado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"descripcion":"API key invalido","estado":401}`))
	}))
	defer srv.Close()
	_, err := NewAEMET(srv.URL, "bad").Forecast(context.Background(), valladolid, 3)
	assert.ErrorContains(t, err, "401")
}

func TestOpenWeather_ForecastAggregatesByDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		// 2025-05-01 10:00Z, 13:00Z and 2025-05-02 10:00Z
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1746093600,"main":{"temp_min":10,"temp_max":15},"wind":{"speed":5},"pop":0.2,"rain":{"3h":1.2},"weather":[{"description":"lluvia ligera"}]},
			{"dt":1746104400,"main":{"temp_min":12,"temp_max":19},"wind":{"speed":12,"gust":15},"pop":0.7,"rain":{"3h":3.4}},
			{"dt":1746180000,"main":{"temp_min":8,"temp_max":14},"wind":{"speed":2},"pop":0}]}`))
	}))
	defer srv.Close()

	f, err := NewOpenWeather(srv.URL, "k").Forecast(context.Background(), valladolid, 5)
	require.NoError(t, err)
	require.Len(t, f.Dias, 2)
	d := f.Dias[0]
	assert.Equal(t, "2025-05-01", d.Fecha)
	assert.Equal(t, 10.0, d.TempMin)
	assert.Equal(t, 19.0, d.TempMax)
	assert.Equal(t, 4.6, d.PrecipMM)
	assert.InDelta(t, 70, d.ProbPrecip, 1e-9)
	assert.Equal(t, 43.2, d.VientoKmh)
	assert.Equal(t, 54.0, d.RachaKmh)
	assert.Equal(t, "lluvia ligera", d.Descripcion)
}

func TestOpenWeather_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "41.65000", r.URL.Query().Get("lat"))
		_, _ = w.Write([]byte(`{"dt":1746093600,"main":{"temp":14.2,"humidity":71},"wind":{"speed":2.5},"weather":[{"description":"nubes"}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenWeather(srv.URL, "k").Current(context.Background(), valladolid)
	require.NoError(t, err)
	assert.Equal(t, 14.2, c.Temperatura)
	assert.Equal(t, 9.0, c.VientoKmh)
	assert.Equal(t, "openweather", c.Fuente)
}

func TestLocationOf(t *testing.T) {
	_, ok := LocationOf(&entities.Parcela{})
	assert.False(t, ok)

	loc, ok := LocationOf(&entities.Parcela{
		Centroide:        &geo.Point{Lat: 41.6, Lng: -4.7},
		ReferenciaSigpac: "47:186:0000:00000:0012:01",
	})
	require.True(t, ok)
	assert.Equal(t, "47186", loc.Municipio)
	assert.Equal(t, 41.6, loc.Lat)
}
