package repository

import (
	"context"
	"time"

	"cuaderno/entities"
)

type AlertRepository interface {
	ListByUser(ctx context.Context, uid string, since time.Time) ([]entities.WeatherAlert, error)
	// Replace swaps the alerts of a parcela dated on or after from.
	Replace(ctx context.Context, parcelaID string, from time.Time, alerts []entities.WeatherAlert) error
	// ParcelasConCentroide lists active parcelas of every owner that can be located.
	ParcelasConCentroide(ctx context.Context) ([]entities.Parcela, error)
}
