package sigpac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"cuaderno/pkg/geo"
	"cuaderno/pkg/metrics"
)

var ErrNotFound = errors.New("recinto no encontrado en SIGPAC")

// Recinto is the SIGPAC data of one enclosure.
type Recinto struct {
	Referencia    string        `json:"referencia"`
	Partes        Referencia    `json:"partes"`
	Provincia     Provincia     `json:"provincia"`
	Superficie    float64       `json:"superficie"` // ha
	Uso           string        `json:"uso"`
	Pendiente     float64       `json:"pendiente"` // %
	CoefRegadio   float64       `json:"coef_regadio"`
	Admisibilidad float64       `json:"admisibilidad"`
	Incidencias   string        `json:"incidencias,omitempty"`
	Geometria     *geo.Geometry `json:"geometria,omitempty"`
	Centroide     *geo.Point    `json:"centroide,omitempty"`
}

// Client queries the SIGPAC consultation service.
type Client interface {
	Recinto(ctx context.Context, ref Referencia) (*Recinto, error)
	ByPoint(ctx context.Context, p geo.Point) (Referencia, error)
}

type httpClient struct {
	base string
	hc   *http.Client
}

func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.Upstream("sigpac", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		metrics.Upstream("sigpac", nil)
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("sigpac: status %d", resp.StatusCode)
		metrics.Upstream("sigpac", err)
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	metrics.Upstream("sigpac", err)
	return b, err
}

func (c *httpClient) Recinto(ctx context.Context, ref Referencia) (*Recinto, error) {
	n := ref.Ints()
	body, err := c.get(ctx, fmt.Sprintf("/recinfo/%d/%d/%d/%d/%d/%d.geojson", n[0], n[1], n[2], n[3], n[4], n[5]))
	if err != nil {
		return nil, err
	}
	return parseRecinto(ref, body)
}

func parseRecinto(ref Referencia, body []byte) (*Recinto, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("sigpac: respuesta no es JSON")
	}
	feat := gjson.GetBytes(body, "features.0")
	if !feat.Exists() {
		return nil, ErrNotFound
	}
	props := feat.Get("properties")
	r := &Recinto{
		Referencia:    ref.String(),
		Partes:        ref,
		Provincia:     provincias[ref.Provincia],
		Superficie:    props.Get("superficie").Float(),
		Uso:           props.Get("uso_sigpac").String(),
		Pendiente:     props.Get("pendiente_media").Float(),
		CoefRegadio:   props.Get("coef_regadio").Float(),
		Admisibilidad: props.Get("admisibilidad").Float(),
		Incidencias:   props.Get("incidencias").String(),
	}
	if g := feat.Get("geometry"); g.Exists() && g.Type != gjson.Null {
		if geom, err := geo.ParseGeometry([]byte(g.Raw)); err == nil {
			r.Geometria = geom
			if c, err := geo.Centroid(geom); err == nil {
				r.Centroide = &c
			}
		}
	}
	return r, nil
}

func (c *httpClient) ByPoint(ctx context.Context, p geo.Point) (Referencia, error) {
	body, err := c.get(ctx, fmt.Sprintf("/recinfobypoint/4326/%.6f/%.6f.json", p.Lng, p.Lat))
	if err != nil {
		return Referencia{}, err
	}
	rec := gjson.ParseBytes(body)
	if rec.IsArray() {
		rec = rec.Get("0")
	}
	if !rec.Get("provincia").Exists() {
		return Referencia{}, ErrNotFound
	}
	return FromParts(
		int(rec.Get("provincia").Int()),
		int(rec.Get("municipio").Int()),
		int(rec.Get("agregado").Int()),
		int(rec.Get("zona").Int()),
		int(rec.Get("parcela").Int()),
		int(rec.Get("recinto").Int()),
	)
}
