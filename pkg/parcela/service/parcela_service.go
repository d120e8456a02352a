package service

import (
	"context"
	"encoding/json"

	"cuaderno/entities"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/parcela/repository"
)

type CreateInput struct {
	Nombre           string          `json:"nombre"`
	Superficie       *float64        `json:"superficie"`
	TipoCultivo      string          `json:"tipo_cultivo"`
	Variedad         string          `json:"variedad"`
	ReferenciaSigpac string          `json:"referencia_sigpac"`
	Provincia        string          `json:"provincia"`
	Municipio        string          `json:"municipio"`
	Geometria        json.RawMessage `json:"geometria"`
	Centroide        *geo.Point      `json:"centroide"`
	Notas            string          `json:"notas"`
}

// UpdateInput only changes non-nil fields.
type UpdateInput struct {
	Nombre           *string         `json:"nombre"`
	Superficie       *float64        `json:"superficie"`
	TipoCultivo      *string         `json:"tipo_cultivo"`
	Variedad         *string         `json:"variedad"`
	ReferenciaSigpac *string         `json:"referencia_sigpac"`
	Provincia        *string         `json:"provincia"`
	Municipio        *string         `json:"municipio"`
	Geometria        json.RawMessage `json:"geometria"`
	Centroide        *geo.Point      `json:"centroide"`
	Notas            *string         `json:"notas"`
	Activa           *bool           `json:"activa"`
}

type AreaResult struct {
	Hectareas float64   `json:"hectareas"`
	Metros2   float64   `json:"metros2"`
	Centroide geo.Point `json:"centroide"`
}

type ParcelaService interface {
	Create(ctx context.Context, uid, org string, in CreateInput) (*entities.Parcela, error)
	Update(ctx context.Context, uid, id string, in UpdateInput) (*entities.Parcela, error)
	Get(ctx context.Context, uid, id string) (*entities.Parcela, error)
	List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Parcela, error)
	Delete(ctx context.Context, uid, id string) error
	Area(ctx context.Context, raw json.RawMessage) (*AreaResult, error)
}
