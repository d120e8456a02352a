package service

import (
	"context"

	"cuaderno/entities"
	"cuaderno/pkg/actividad/repository"
	"cuaderno/pkg/geo"
)

type CreateInput struct {
	ParcelaID        string              `json:"parcela_id"`
	Tipo             string              `json:"tipo"`
	Fecha            string              `json:"fecha"` // YYYY-MM-DD or RFC3339
	Descripcion      string              `json:"descripcion"`
	Productos        []entities.Producto `json:"productos"`
	Cantidad         *float64            `json:"cantidad"`
	Unidad           string              `json:"unidad"`
	Coordenadas      *geo.Point          `json:"coordenadas"`
	Estado           string              `json:"estado"`
	Operario         string              `json:"operario"`
	Maquinaria       string              `json:"maquinaria"`
	CondicionesMeteo string              `json:"condiciones_meteo"`
}

// UpdateInput only changes non-nil fields.
type UpdateInput struct {
	ParcelaID        *string              `json:"parcela_id"`
	Tipo             *string              `json:"tipo"`
	Fecha            *string              `json:"fecha"`
	Descripcion      *string              `json:"descripcion"`
	Productos        *[]entities.Producto `json:"productos"`
	Cantidad         *float64             `json:"cantidad"`
	Unidad           *string              `json:"unidad"`
	Coordenadas      *geo.Point           `json:"coordenadas"`
	Estado           *string              `json:"estado"`
	Operario         *string              `json:"operario"`
	Maquinaria       *string              `json:"maquinaria"`
	CondicionesMeteo *string              `json:"condiciones_meteo"`
}

type ActividadService interface {
	Create(ctx context.Context, uid string, in CreateInput) (*entities.Actividad, error)
	Update(ctx context.Context, uid, id string, in UpdateInput) (*entities.Actividad, error)
	Get(ctx context.Context, uid, id string) (*entities.Actividad, error)
	List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Actividad, error)
	ListByParcela(ctx context.Context, uid, parcelaID string) ([]entities.Actividad, error)
	Delete(ctx context.Context, uid, id string) error
	SetEstado(ctx context.Context, uid, id, estado string) (*entities.Actividad, error)
	Resumen(ctx context.Context, uid, parcelaID string, year int) (*repository.Resumen, error)
}
