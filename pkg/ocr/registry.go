package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cuaderno/pkg/metrics"
)

var ErrNotRegistered = errors.New("producto no encontrado en el registro")

// RegistryEntry is a row of the plant protection products registry.
type RegistryEntry struct {
	NumeroRegistro string `json:"numero_registro"`
	Nombre         string `json:"nombre"`
	Titular        string `json:"titular,omitempty"`
	Formulado      string `json:"formulado,omitempty"`
	Estado         string `json:"estado,omitempty"`
	Caducidad      string `json:"caducidad,omitempty"`
}

type Registry interface {
	Lookup(ctx context.Context, numero string) (*RegistryEntry, error)
}

// htmlRegistry scrapes the registry search results page.
type htmlRegistry struct {
	base     string
	hc       *http.Client
	maxBytes int64
}

func NewRegistry(baseURL string) Registry {
	return &htmlRegistry{base: baseURL, hc: &http.Client{Timeout: 20 * time.Second}, maxBytes: 2 << 20}
}

func (r *htmlRegistry) Lookup(ctx context.Context, numero string) (*RegistryEntry, error) {
	u, err := url.Parse(r.base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("numero", numero)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		metrics.Upstream("registro", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("registro: status %d", resp.StatusCode)
		metrics.Upstream("registro", err)
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	metrics.Upstream("registro", err)
	if err != nil {
		return nil, err
	}
	return parseRegistry(b, numero)
}

func parseRegistry(page []byte, numero string) (*RegistryEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	want := normNumero(numero)
	var out *RegistryEntry
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := map[string]int{}
		table.Find("tr").First().Find("th,td").Each(func(i int, th *goquery.Selection) {
			if k := column(th.Text()); k != "" {
				if _, dup := cols[k]; !dup {
					cols[k] = i
				}
			}
		})
		if _, ok := cols["numero"]; !ok {
			return true
		}
		table.Find("tr").Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
				return strings.Join(strings.Fields(td.Text()), " ")
			})
			get := func(k string) string {
				if i, ok := cols[k]; ok && i < len(cells) {
					return cells[i]
				}
				return ""
			}
			if normNumero(get("numero")) != want {
				return true
			}
			out = &RegistryEntry{
				NumeroRegistro: get("numero"),
				Nombre:         get("nombre"),
				Titular:        get("titular"),
				Formulado:      get("formulado"),
				Estado:         get("estado"),
				Caducidad:      get("caducidad"),
			}
			return false
		})
		return out == nil
	})
	if out == nil {
		return nil, ErrNotRegistered
	}
	return out, nil
}

// column maps a header text to an entry field.
func column(h string) string {
	h = strings.ToLower(strings.Join(strings.Fields(h), " "))
	switch {
	case strings.Contains(h, "registro") || strings.HasPrefix(h, "nº") || strings.HasPrefix(h, "número"):
		return "numero"
	case strings.Contains(h, "nombre"):
		return "nombre"
	case strings.Contains(h, "titular"):
		return "titular"
	case strings.Contains(h, "formulado") || strings.Contains(h, "formulación"):
		return "formulado"
	case strings.Contains(h, "estado") || strings.Contains(h, "situación"):
		return "estado"
	case strings.Contains(h, "caducidad"):
		return "caducidad"
	}
	return ""
}

func normNumero(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ES-")
	return strings.TrimLeft(s, "0")
}
