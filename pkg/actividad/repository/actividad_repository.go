package repository

import (
	"context"
	"time"

	"cuaderno/entities"
)

type ListFilter struct {
	ParcelaID string
	Tipo      entities.TipoActividad
	Estado    entities.EstadoActividad
	Desde     *time.Time
	Hasta     *time.Time // inclusive day
	Limit     int
	Offset    int
}

type Resumen struct {
	Total     int64            `json:"total"`
	PorTipo   map[string]int64 `json:"por_tipo"`
	PorEstado map[string]int64 `json:"por_estado"`
}

type ActividadRepository interface {
	Create(ctx context.Context, a *entities.Actividad) error
	Update(ctx context.Context, a *entities.Actividad) error
	FindByID(ctx context.Context, id, uid string) (*entities.Actividad, error)
	List(ctx context.Context, uid string, f ListFilter) ([]entities.Actividad, error)
	Delete(ctx context.Context, id, uid string) error
	PatchEstado(ctx context.Context, id, uid string, estado entities.EstadoActividad) error
	Resumen(ctx context.Context, uid, parcelaID string, year int) (*Resumen, error)
}
