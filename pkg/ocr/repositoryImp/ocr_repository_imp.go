package repositoryImp

import (
	"context"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/ocr/repository"
)

type scanRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ScanRepository { return &scanRepo{db} }

func (r *scanRepo) Create(ctx context.Context, s *entities.LabelScan) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *scanRepo) ListByUser(ctx context.Context, uid string, limit int) ([]entities.LabelScan, error) {
	var out []entities.LabelScan
	q := r.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}
