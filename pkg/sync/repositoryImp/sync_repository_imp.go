package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/sync/repository"
)

type syncRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SyncRepository { return &syncRepo{db} }

func (r *syncRepo) Changed(ctx context.Context, uid string, since time.Time) (*repository.Changes, error) {
	db := r.db.WithContext(ctx)
	since = since.UTC()
	ch := &repository.Changes{
		Parcelas:    repository.TableChanges[entities.Parcela]{Created: []entities.Parcela{}, Updated: []entities.Parcela{}, Deleted: []string{}},
		Actividades: repository.TableChanges[entities.Actividad]{Created: []entities.Actividad{}, Updated: []entities.Actividad{}, Deleted: []string{}},
	}

	if since.IsZero() {
		if err := db.Where("propietario_id = ?", uid).Order("created_at").Find(&ch.Parcelas.Created).Error; err != nil {
			return nil, err
		}
		if err := db.Where("propietario_id = ?", uid).Order("created_at").Find(&ch.Actividades.Created).Error; err != nil {
			return nil, err
		}
		return ch, nil
	}

	var ps []entities.Parcela
	if err := touched(db, uid, since).Find(&ps).Error; err != nil {
		return nil, err
	}
	for _, p := range ps {
		switch {
		case p.DeletedAt.Valid:
			ch.Parcelas.Deleted = append(ch.Parcelas.Deleted, p.ID)
		case p.CreatedAt.After(since):
			ch.Parcelas.Created = append(ch.Parcelas.Created, p)
		default:
			ch.Parcelas.Updated = append(ch.Parcelas.Updated, p)
		}
	}
	var as []entities.Actividad
	if err := touched(db, uid, since).Find(&as).Error; err != nil {
		return nil, err
	}
	for _, a := range as {
		switch {
		case a.DeletedAt.Valid:
			ch.Actividades.Deleted = append(ch.Actividades.Deleted, a.ID)
		case a.CreatedAt.After(since):
			ch.Actividades.Created = append(ch.Actividades.Created, a)
		default:
			ch.Actividades.Updated = append(ch.Actividades.Updated, a)
		}
	}
	return ch, nil
}

func touched(db *gorm.DB, uid string, since time.Time) *gorm.DB {
	return db.Unscoped().
		Where("propietario_id = ?", uid).
		Where("updated_at > ? OR deleted_at > ?", since, since).
		Order("updated_at")
}

type meta struct {
	ID            string
	PropietarioID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt
}

func (m meta) changedAfter(t time.Time) bool {
	return m.UpdatedAt.After(t) || (m.DeletedAt.Valid && m.DeletedAt.Time.After(t))
}

// lookup returns the stored metadata of id, soft-deleted rows included.
func lookup(tx *gorm.DB, model any, id string) (*meta, error) {
	var rows []meta
	if err := tx.Unscoped().Model(model).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// check resolves whether a pushed change on id may be applied.
func check(tx *gorm.DB, table string, model any, uid, id string, since time.Time) (*meta, error) {
	m, err := lookup(tx, model, id)
	if err != nil || m == nil {
		return m, err
	}
	if m.PropietarioID != uid {
		return nil, &repository.Conflict{Table: table, ID: id, Err: repository.ErrForeignID}
	}
	if m.changedAfter(since) {
		return nil, &repository.Conflict{Table: table, ID: id, Err: repository.ErrConflict}
	}
	return m, nil
}

func (r *syncRepo) Apply(ctx context.Context, uid string, since time.Time, ch *repository.Changes) error {
	since = since.UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range append(ch.Parcelas.Created, ch.Parcelas.Updated...) {
			if err := r.upsertParcela(tx, uid, since, p); err != nil {
				return err
			}
		}
		for _, a := range append(ch.Actividades.Created, ch.Actividades.Updated...) {
			if err := r.upsertActividad(tx, uid, since, a); err != nil {
				return err
			}
		}
		for _, id := range ch.Actividades.Deleted {
			m, err := check(tx, "actividades", &entities.Actividad{}, uid, id, since)
			if err != nil {
				return err
			}
			if m == nil || m.DeletedAt.Valid {
				continue
			}
			if err := tx.Where("id = ?", id).Delete(&entities.Actividad{}).Error; err != nil {
				return err
			}
		}
		for _, id := range ch.Parcelas.Deleted {
			m, err := check(tx, "parcelas", &entities.Parcela{}, uid, id, since)
			if err != nil {
				return err
			}
			if m == nil || m.DeletedAt.Valid {
				continue
			}
			if err := tx.Where("id = ?", id).Delete(&entities.Parcela{}).Error; err != nil {
				return err
			}
			if err := tx.Where("parcela_id = ? AND propietario_id = ?", id, uid).Delete(&entities.Actividad{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *syncRepo) upsertParcela(tx *gorm.DB, uid string, since time.Time, p entities.Parcela) error {
	m, err := check(tx, "parcelas", &entities.Parcela{}, uid, p.ID, since)
	if err != nil {
		return err
	}
	p.PropietarioID = uid
	p.UpdatedAt = time.Time{}
	p.DeletedAt = gorm.DeletedAt{}
	if m == nil {
		p.CreatedAt = time.Time{}
		return tx.Create(&p).Error
	}
	if m.DeletedAt.Valid {
		// deleted before the client's pull; the next pull removes it there
		return nil
	}
	p.CreatedAt = m.CreatedAt
	return tx.Save(&p).Error
}

func (r *syncRepo) upsertActividad(tx *gorm.DB, uid string, since time.Time, a entities.Actividad) error {
	m, err := check(tx, "actividades", &entities.Actividad{}, uid, a.ID, since)
	if err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&entities.Parcela{}).Where("id = ? AND propietario_id = ?", a.ParcelaID, uid).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &repository.Conflict{Table: "actividades", ID: a.ID, Err: gorm.ErrRecordNotFound}
	}
	a.PropietarioID = uid
	a.UpdatedAt = time.Time{}
	a.DeletedAt = gorm.DeletedAt{}
	if m == nil {
		a.CreatedAt = time.Time{}
		return tx.Create(&a).Error
	}
	if m.DeletedAt.Valid {
		// deleted before the client's pull; the next pull removes it there
		return nil
	}
	a.CreatedAt = m.CreatedAt
	return tx.Save(&a).Error
}
