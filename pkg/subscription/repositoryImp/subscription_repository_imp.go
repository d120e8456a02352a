package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/subscription/repository"
)

type subRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SubscriptionRepository { return &subRepo{db} }

// FindByUser returns gorm.ErrRecordNotFound when the user never subscribed.
func (r *subRepo) FindByUser(ctx context.Context, uid string) (*entities.UserSubscription, error) {
	var s entities.UserSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", uid).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subRepo) Save(ctx context.Context, s *entities.UserSubscription) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *subRepo) CountParcelas(ctx context.Context, uid string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Parcela{}).Where("propietario_id = ?", uid).Count(&n).Error
	return n, err
}

func (r *subRepo) SumHectareas(ctx context.Context, uid string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&entities.Parcela{}).
		Where("propietario_id = ?", uid).
		Select("COALESCE(SUM(superficie), 0)").Scan(&total).Error
	return total, err
}

// CountActividades counts actividades created since the given instant; a
// zero time counts all of them.
func (r *subRepo) CountActividades(ctx context.Context, uid string, since time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&entities.Actividad{}).Where("propietario_id = ?", uid)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	return n, q.Count(&n).Error
}

func (r *subRepo) CountScans(ctx context.Context, uid string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.LabelScan{}).
		Where("user_id = ? AND created_at >= ?", uid, since).Count(&n).Error
	return n, err
}
