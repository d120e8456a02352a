package repository

import (
	"context"

	"cuaderno/entities"
	"cuaderno/pkg/geo"
)

type ListFilter struct {
	Cultivo string
	Q       string // name search
	Limit   int
	Offset  int
}

type ParcelaRepository interface {
	Create(ctx context.Context, p *entities.Parcela) error
	Update(ctx context.Context, p *entities.Parcela) error
	FindByID(ctx context.Context, id, uid string) (*entities.Parcela, error)
	List(ctx context.Context, uid string, f ListFilter) ([]entities.Parcela, error)
	// Delete soft-deletes the parcela and its actividades.
	Delete(ctx context.Context, id, uid string) error
	AreaHa(ctx context.Context, g *geo.Geometry) (float64, error)
}
