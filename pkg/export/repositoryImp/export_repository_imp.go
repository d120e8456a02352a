package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/export/repository"
)

type exportRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ExportRepository { return &exportRepo{db} }

func (r *exportRepo) Parcelas(ctx context.Context, uid, parcelaID string) ([]entities.Parcela, error) {
	q := r.db.WithContext(ctx).Where("propietario_id = ?", uid)
	if parcelaID != "" {
		q = q.Where("id = ?", parcelaID)
	}
	var out []entities.Parcela
	return out, q.Order("nombre ASC").Find(&out).Error
}

func (r *exportRepo) Actividades(ctx context.Context, uid, parcelaID string, from, to time.Time) ([]entities.Actividad, error) {
	q := r.db.WithContext(ctx).Where("propietario_id = ? AND fecha >= ? AND fecha < ?", uid, from, to)
	if parcelaID != "" {
		q = q.Where("parcela_id = ?", parcelaID)
	}
	var out []entities.Actividad
	return out, q.Order("fecha ASC, created_at ASC").Find(&out).Error
}
