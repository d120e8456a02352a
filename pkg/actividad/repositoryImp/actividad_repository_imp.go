package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/actividad/repository"
)

type actividadRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ActividadRepository { return &actividadRepo{db} }

func (r *actividadRepo) Create(ctx context.Context, a *entities.Actividad) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *actividadRepo) Update(ctx context.Context, a *entities.Actividad) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *actividadRepo) FindByID(ctx context.Context, id, uid string) (*entities.Actividad, error) {
	var a entities.Actividad
	if err := r.db.WithContext(ctx).Where("id = ? AND propietario_id = ?", id, uid).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *actividadRepo) List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Actividad, error) {
	q := r.db.WithContext(ctx).Where("propietario_id = ?", uid)
	if f.ParcelaID != "" {
		q = q.Where("parcela_id = ?", f.ParcelaID)
	}
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.Desde != nil {
		q = q.Where("fecha >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("fecha < ?", f.Hasta.AddDate(0, 0, 1))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []entities.Actividad
	return out, q.Order("fecha DESC, created_at DESC").Find(&out).Error
}

func (r *actividadRepo) Delete(ctx context.Context, id, uid string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND propietario_id = ?", id, uid).Delete(&entities.Actividad{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *actividadRepo) PatchEstado(ctx context.Context, id, uid string, estado entities.EstadoActividad) error {
	res := r.db.WithContext(ctx).Model(&entities.Actividad{}).
		Where("id = ? AND propietario_id = ?", id, uid).
		Updates(map[string]any{"estado": estado, "updated_at": r.db.NowFunc()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *actividadRepo) Resumen(ctx context.Context, uid, parcelaID string, year int) (*repository.Resumen, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entities.Actividad{}).Where("propietario_id = ?", uid)
		if parcelaID != "" {
			q = q.Where("parcela_id = ?", parcelaID)
		}
		if year > 0 {
			from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			q = q.Where("fecha >= ? AND fecha < ?", from, from.AddDate(1, 0, 0))
		}
		return q
	}
	type row struct {
		K string
		N int64
	}
	out := &repository.Resumen{PorTipo: map[string]int64{}, PorEstado: map[string]int64{}}

	var rows []row
	if err := base().Select("tipo AS k, COUNT(*) AS n").Group("tipo").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, x := range rows {
		out.PorTipo[x.K] = x.N
		out.Total += x.N
	}
	rows = nil
	if err := base().Select("estado AS k, COUNT(*) AS n").Group("estado").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, x := range rows {
		out.PorEstado[x.K] = x.N
	}
	return out, nil
}
