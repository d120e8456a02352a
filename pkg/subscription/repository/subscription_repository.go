package repository

import (
	"context"
	"time"

	"cuaderno/entities"
)

type SubscriptionRepository interface {
	FindByUser(ctx context.Context, uid string) (*entities.UserSubscription, error)
	Save(ctx context.Context, s *entities.UserSubscription) error

	CountParcelas(ctx context.Context, uid string) (int64, error)
	SumHectareas(ctx context.Context, uid string) (float64, error)
	CountActividades(ctx context.Context, uid string, since time.Time) (int64, error)
	CountScans(ctx context.Context, uid string, since time.Time) (int64, error)
}
