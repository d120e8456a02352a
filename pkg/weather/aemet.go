package weather

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ineCode = regexp.MustCompile(`^\d{5}$`)

// AEMET reads the OpenData municipal forecasts. Every call is two-step: the
// API answers with a "datos" URL that holds the actual payload.
type AEMET struct {
	base string
	key  string
	now  func() time.Time
}

func NewAEMET(baseURL, apiKey string) *AEMET {
	return &AEMET{base: strings.TrimRight(baseURL, "/"), key: apiKey, now: time.Now}
}

func (a *AEMET) Name() string { return "aemet" }

func (a *AEMET) fetch(ctx context.Context, path string) (gjson.Result, error) {
	meta, err := getJSON(ctx, "aemet", a.base+path, map[string]string{"api_key": a.key})
	if err != nil {
		return gjson.Result{}, err
	}
	m := gjson.ParseBytes(meta)
	if st := m.Get("estado").Int(); st != 0 && st != 200 {
		return gjson.Result{}, fmt.Errorf("aemet: estado %d: %s", st, m.Get("descripcion").String())
	}
	datos := m.Get("datos").String()
	if datos == "" {
		return gjson.Result{}, fmt.Errorf("aemet: respuesta sin datos")
	}
	if _, err := url.Parse(datos); err != nil {
		return gjson.Result{}, fmt.Errorf("aemet: url de datos no válida: %w", err)
	}
	body, err := getJSON(ctx, "aemet", datos, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}

func (a *AEMET) Current(ctx context.Context, loc Location) (*Current, error) {
	if !ineCode.MatchString(loc.Municipio) {
		return nil, ErrUnsupportedLocation
	}
	res, err := a.fetch(ctx, "/prediccion/especifica/municipio/horaria/"+loc.Municipio)
	if err != nil {
		return nil, err
	}
	now := a.now().In(madrid)
	today := now.Format("2006-01-02")
	hour := fmt.Sprintf("%02d", now.Hour())

	var day gjson.Result
	for _, d := range res.Get("0.prediccion.dia").Array() {
		if strings.HasPrefix(d.Get("fecha").String(), today) {
			day = d
			break
		}
	}
	if !day.Exists() {
		day = res.Get("0.prediccion.dia.0")
	}
	if !day.Exists() {
		return nil, fmt.Errorf("aemet: predicción horaria vacía")
	}
	at := func(path string) gjson.Result {
		items := day.Get(path).Array()
		for _, it := range items {
			if it.Get("periodo").String() == hour {
				return it
			}
		}
		if len(items) > 0 {
			return items[0]
		}
		return gjson.Result{}
	}
	// vientoAndRachaMax mixes wind entries (direccion+velocidad) and gust entries (value)
	var viento, racha float64
	for _, it := range day.Get("vientoAndRachaMax").Array() {
		if it.Get("periodo").String() != hour {
			continue
		}
		if v := it.Get("velocidad.0"); v.Exists() {
			viento = v.Float()
		} else if v := it.Get("value"); v.Exists() {
			racha = v.Float()
		}
	}
	return &Current{
		Fuente:        a.Name(),
		Temperatura:   at("temperatura").Get("value").Float(),
		Humedad:       at("humedadRelativa").Get("value").Float(),
		VientoKmh:     viento,
		RachaKmh:      racha,
		Precipitacion: at("precipitacion").Get("value").Float(),
		Descripcion:   at("estadoCielo").Get("descripcion").String(),
		Hora:          now.Truncate(time.Hour).Format(time.RFC3339),
	}, nil
}

func (a *AEMET) Forecast(ctx context.Context, loc Location, days int) (*Forecast, error) {
	if !ineCode.MatchString(loc.Municipio) {
		return nil, ErrUnsupportedLocation
	}
	res, err := a.fetch(ctx, "/prediccion/especifica/municipio/diaria/"+loc.Municipio)
	if err != nil {
		return nil, err
	}
	out := &Forecast{Fuente: a.Name()}
	for _, d := range res.Get("0.prediccion.dia").Array() {
		if len(out.Dias) >= days {
			break
		}
		out.Dias = append(out.Dias, Day{
			Fecha:       firstN(d.Get("fecha").String(), 10),
			TempMin:     d.Get("temperatura.minima").Float(),
			TempMax:     d.Get("temperatura.maxima").Float(),
			ProbPrecip:  maxOf(d.Get("probPrecipitacion.#.value")),
			VientoKmh:   maxOf(d.Get("viento.#.velocidad")),
			RachaKmh:    maxOf(d.Get("rachaMax.#.value")),
			Descripcion: firstNonEmpty(d.Get("estadoCielo.#.descripcion")),
		})
	}
	if len(out.Dias) == 0 {
		return nil, fmt.Errorf("aemet: predicción diaria vacía")
	}
	return out, nil
}

func maxOf(r gjson.Result) float64 {
	m := 0.0
	for _, v := range r.Array() {
		if f := v.Float(); f > m {
			m = f
		}
	}
	return m
}

func firstNonEmpty(r gjson.Result) string {
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
