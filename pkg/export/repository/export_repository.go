package repository

import (
	"context"
	"time"

	"cuaderno/entities"
)

type ExportRepository interface {
	Parcelas(ctx context.Context, uid, parcelaID string) ([]entities.Parcela, error)
	// Actividades returns the actividades dated in [from, to).
	Actividades(ctx context.Context, uid, parcelaID string, from, to time.Time) ([]entities.Actividad, error)
}
