package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/weather/repository"
)

type alertRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.AlertRepository { return &alertRepo{db} }

func (r *alertRepo) ListByUser(ctx context.Context, uid string, since time.Time) ([]entities.WeatherAlert, error) {
	var out []entities.WeatherAlert
	err := r.db.WithContext(ctx).
		Where("propietario_id = ? AND fecha >= ?", uid, since).
		Order("fecha ASC, parcela_id ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *alertRepo) Replace(ctx context.Context, parcelaID string, from time.Time, alerts []entities.WeatherAlert) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parcela_id = ? AND fecha >= ?", parcelaID, from).
			Delete(&entities.WeatherAlert{}).Error; err != nil {
			return err
		}
		if len(alerts) == 0 {
			return nil
		}
		return tx.CreateInBatches(alerts, 100).Error
	})
}

func (r *alertRepo) ParcelasConCentroide(ctx context.Context) ([]entities.Parcela, error) {
	var rows []entities.Parcela
	if err := r.db.WithContext(ctx).
		Where("activa = ? AND centroide IS NOT NULL", true).
		Order("propietario_id, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		if p.Centroide != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
