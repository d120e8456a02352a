package weather

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// madrid is the reference zone for grouping forecast days.
var madrid = func() *time.Location {
	if l, err := time.LoadLocation("Europe/Madrid"); err == nil {
		return l
	}
	return time.FixedZone("CET", 3600)
}()

// OpenWeather uses the 2.5 current and 5 day / 3 hour endpoints.
type OpenWeather struct {
	base string
	key  string
}

func NewOpenWeather(baseURL, apiKey string) *OpenWeather {
	return &OpenWeather{base: strings.TrimRight(baseURL, "/"), key: apiKey}
}

func (o *OpenWeather) Name() string { return "openweather" }

func (o *OpenWeather) query(path string, loc Location) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.5f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.5f", loc.Lng))
	q.Set("units", "metric")
	q.Set("lang", "es")
	q.Set("appid", o.key)
	return o.base + path + "?" + q.Encode()
}

func (o *OpenWeather) Current(ctx context.Context, loc Location) (*Current, error) {
	body, err := getJSON(ctx, "openweather", o.query("/weather", loc), nil)
	if err != nil {
		return nil, err
	}
	r := gjson.ParseBytes(body)
	if !r.Get("main.temp").Exists() {
		return nil, fmt.Errorf("openweather: respuesta sin main.temp")
	}
	return &Current{
		Fuente:        o.Name(),
		Temperatura:   r.Get("main.temp").Float(),
		Humedad:       r.Get("main.humidity").Float(),
		VientoKmh:     round1(r.Get("wind.speed").Float() * 3.6),
		RachaKmh:      round1(r.Get("wind.gust").Float() * 3.6),
		Precipitacion: r.Get("rain.1h").Float(),
		Descripcion:   r.Get("weather.0.description").String(),
		Hora:          time.Unix(r.Get("dt").Int(), 0).UTC().Format(time.RFC3339),
	}, nil
}

func (o *OpenWeather) Forecast(ctx context.Context, loc Location, days int) (*Forecast, error) {
	body, err := getJSON(ctx, "openweather", o.query("/forecast", loc), nil)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*Day{}
	for _, it := range gjson.GetBytes(body, "list").Array() {
		key := time.Unix(it.Get("dt").Int(), 0).In(madrid).Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &Day{Fecha: key, TempMin: math.Inf(1), TempMax: math.Inf(-1)}
			byDay[key] = d
		}
		d.TempMin = math.Min(d.TempMin, it.Get("main.temp_min").Float())
		d.TempMax = math.Max(d.TempMax, it.Get("main.temp_max").Float())
		d.PrecipMM += it.Get("rain.3h").Float()
		d.ProbPrecip = math.Max(d.ProbPrecip, it.Get("pop").Float()*100)
		d.VientoKmh = math.Max(d.VientoKmh, round1(it.Get("wind.speed").Float()*3.6))
		d.RachaKmh = math.Max(d.RachaKmh, round1(it.Get("wind.gust").Float()*3.6))
		if d.Descripcion == "" {
			d.Descripcion = it.Get("weather.0.description").String()
		}
	}
	if len(byDay) == 0 {
		return nil, fmt.Errorf("openweather: previsión vacía")
	}
	out := &Forecast{Fuente: o.Name()}
	for _, d := range byDay {
		d.PrecipMM = round1(d.PrecipMM)
		out.Dias = append(out.Dias, *d)
	}
	sort.Slice(out.Dias, func(i, j int) bool { return out.Dias[i].Fecha < out.Dias[j].Fecha })
	if len(out.Dias) > days {
		out.Dias = out.Dias[:days]
	}
	return out, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
