package service

import (
	"context"

	"cuaderno/entities"
	"cuaderno/pkg/subscription"
)

// Status is the current plan of a user with its usage.
type Status struct {
	Plan         subscription.Plan          `json:"plan"`
	Subscription *entities.UserSubscription `json:"subscription,omitempty"`
	Usage        subscription.Usage         `json:"usage"`
}

type SubscriptionService interface {
	Plans() []subscription.Plan
	CurrentPlan(ctx context.Context, uid string) (subscription.Plan, *entities.UserSubscription, error)
	Status(ctx context.Context, uid string) (*Status, error)
	Upgrade(ctx context.Context, uid, planID string) (*entities.UserSubscription, error)
	Cancel(ctx context.Context, uid string) (*entities.UserSubscription, error)

	// Limit checks return *apperr.Error (403) when exceeded.
	CheckParcelas(ctx context.Context, uid string, add int, addHa float64) error
	CheckActividades(ctx context.Context, uid string, add int) error
	CheckOCR(ctx context.Context, uid string) error
	RequireFeature(ctx context.Context, uid, feature string) error
}
