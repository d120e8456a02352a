package subscription

import (
	_ "embed"
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FeatureWeatherAlerts = "weather_alerts"
	FeatureOCR           = "ocr"
	FeatureExport        = "export"
	FeatureSync          = "sync"

	FreePlanID = "free"
	Unlimited  = -1
)

//go:embed plans.yaml
var defaultPlans []byte

type Limits struct {
	MaxParcelas       int     `yaml:"max_parcelas" json:"max_parcelas"`
	MaxHectareas      float64 `yaml:"max_hectareas" json:"max_hectareas"`
	MaxActividadesMes int     `yaml:"max_actividades_mes" json:"max_actividades_mes"`
	MaxOCRMes         int     `yaml:"max_ocr_mes" json:"max_ocr_mes"`
}

type Plan struct {
	ID            string   `yaml:"id" json:"id"`
	Nombre        string   `yaml:"nombre" json:"nombre"`
	PrecioMensual float64  `yaml:"precio_mensual" json:"precio_mensual"` // EUR
	Limits        Limits   `yaml:"limits" json:"limits"`
	Features      []string `yaml:"features" json:"features"`
}

func (p Plan) Has(feature string) bool { return slices.Contains(p.Features, feature) }

// Usage is what a user currently consumes against the plan limits.
type Usage struct {
	Parcelas       int64   `json:"parcelas"`
	Hectareas      float64 `json:"hectareas"`
	ActividadesMes int64   `json:"actividades_mes"`
	ActividadesTot int64   `json:"actividades_total"`
	OCRMes         int64   `json:"ocr_mes"`
	PeriodoDesde   string  `json:"periodo_desde"`
}

// Catalogue is the ordered list of plans.
type Catalogue struct {
	plans []Plan
	byID  map[string]Plan
}

func Default() *Catalogue {
	c, err := LoadCatalogue(defaultPlans)
	if err != nil {
		panic(err)
	}
	return c
}

func LoadCatalogue(b []byte) (*Catalogue, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("plans: %w", err)
	}
	c := &Catalogue{plans: doc.Plans, byID: map[string]Plan{}}
	for _, p := range doc.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plans: plan without id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("plans: duplicate id %q", p.ID)
		}
		c.byID[p.ID] = p
	}
	if _, ok := c.byID[FreePlanID]; !ok {
		return nil, fmt.Errorf("plans: %q plan is required", FreePlanID)
	}
	return c, nil
}

func (c *Catalogue) All() []Plan { return slices.Clone(c.plans) }

func (c *Catalogue) Get(id string) (Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalogue) Free() Plan { return c.byID[FreePlanID] }

// MonthStart is the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Within reports whether used+add stays inside limit.
func Within(limit int, used, add int64) bool {
	return limit == Unlimited || used+add <= int64(limit)
}
