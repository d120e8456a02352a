package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/parcela/repository"
)

type parcelaRepo struct {
	db      *gorm.DB
	postgis bool
}

// New returns the gorm repository. With postgis=true areas are computed by
// the database.
func New(db *gorm.DB, postgis bool) repository.ParcelaRepository {
	return &parcelaRepo{db: db, postgis: postgis}
}

func (r *parcelaRepo) Create(ctx context.Context, p *entities.Parcela) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *parcelaRepo) Update(ctx context.Context, p *entities.Parcela) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *parcelaRepo) FindByID(ctx context.Context, id, uid string) (*entities.Parcela, error) {
	var p entities.Parcela
	if err := r.db.WithContext(ctx).Where("id = ? AND propietario_id = ?", id, uid).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *parcelaRepo) List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Parcela, error) {
	q := r.db.WithContext(ctx).Where("propietario_id = ?", uid)
	if f.Cultivo != "" {
		q = q.Where("LOWER(tipo_cultivo) = ?", strings.ToLower(f.Cultivo))
	}
	if f.Q != "" {
		q = q.Where("LOWER(nombre) LIKE ?", "%"+strings.ToLower(f.Q)+"%")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []entities.Parcela
	return out, q.Order("created_at DESC, id").Find(&out).Error
}

func (r *parcelaRepo) Delete(ctx context.Context, id, uid string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND propietario_id = ?", id, uid).Delete(&entities.Parcela{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("parcela_id = ? AND propietario_id = ?", id, uid).Delete(&entities.Actividad{}).Error
	})
}

// AreaHa uses ST_Area on the geography type when PostGIS is available; the
// GeoJSON is always bound as a parameter.
func (r *parcelaRepo) AreaHa(ctx context.Context, g *geo.Geometry) (float64, error) {
	if !r.postgis {
		return geo.AreaHa(g)
	}
	var ha float64
	err := r.db.WithContext(ctx).
		Raw(`SELECT ST_Area(ST_GeomFromGeoJSON(?)::geography) / 10000 AS ha`, g.String()).
		Scan(&ha).Error
	return ha, err
}
