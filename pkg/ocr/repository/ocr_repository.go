package repository

import (
	"context"

	"cuaderno/entities"
)

type ScanRepository interface {
	Create(ctx context.Context, s *entities.LabelScan) error
	ListByUser(ctx context.Context, uid string, limit int) ([]entities.LabelScan, error)
}
