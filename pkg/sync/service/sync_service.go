package service

import (
	"context"

	"cuaderno/pkg/sync/repository"
)

type Pull struct {
	Changes   *repository.Changes `json:"changes"`
	Timestamp int64               `json:"timestamp"` // ms
}

type PushResult struct {
	Parcelas    int `json:"parcelas"`
	Actividades int `json:"actividades"`
}

type SyncService interface {
	Pull(ctx context.Context, uid string, lastPulledAt int64) (*Pull, error)
	Push(ctx context.Context, uid string, lastPulledAt int64, ch *repository.Changes) (*PushResult, error)
}
