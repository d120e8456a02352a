package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/entities"
	actividadSvc "cuaderno/pkg/actividad/serviceImp"
	"cuaderno/pkg/apperr"
	parcelaSvc "cuaderno/pkg/parcela/serviceImp"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/sync/repository"
	"cuaderno/pkg/sync/service"
)

// Plan is the part of the subscription service sync needs.
type Plan interface {
	RequireFeature(ctx context.Context, uid, feature string) error
	CheckParcelas(ctx context.Context, uid string, add int, addHa float64) error
	CheckActividades(ctx context.Context, uid string, add int) error
}

type syncSvc struct {
	r    repository.SyncRepository
	plan Plan
	log  *zap.Logger
	now  func() time.Time
}

func NewSyncService(r repository.SyncRepository, plan Plan, log *zap.Logger) service.SyncService {
	return &syncSvc{r: r, plan: plan, log: log, now: time.Now}
}

func since(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (s *syncSvc) Pull(ctx context.Context, uid string, lastPulledAt int64) (*service.Pull, error) {
	if err := s.plan.RequireFeature(ctx, uid, subscription.FeatureSync); err != nil {
		return nil, err
	}
	// taken before the read so nothing written meanwhile is skipped next time
	ts := s.now().UnixMilli()
	ch, err := s.r.Changed(ctx, uid, since(lastPulledAt))
	if err != nil {
		return nil, err
	}
	return &service.Pull{Changes: ch, Timestamp: ts}, nil
}

func (s *syncSvc) Push(ctx context.Context, uid string, lastPulledAt int64, ch *repository.Changes) (*service.PushResult, error) {
	if err := s.plan.RequireFeature(ctx, uid, subscription.FeatureSync); err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, apperr.Validation("changes es obligatorio")
	}
	if err := s.validate(ch); err != nil {
		return nil, err
	}
	ha := 0.0
	for _, p := range ch.Parcelas.Created {
		ha += p.Superficie
	}
	if err := s.plan.CheckParcelas(ctx, uid, len(ch.Parcelas.Created), ha); err != nil {
		return nil, err
	}
	if err := s.plan.CheckActividades(ctx, uid, len(ch.Actividades.Created)); err != nil {
		return nil, err
	}

	err := s.r.Apply(ctx, uid, since(lastPulledAt), ch)
	var c *repository.Conflict
	switch {
	case errors.As(err, &c) && errors.Is(err, repository.ErrConflict):
		return nil, apperr.Conflict("el registro ha cambiado en el servidor, sincroniza de nuevo").WithDetail(c.Table, c.ID)
	case errors.As(err, &c) && errors.Is(err, repository.ErrForeignID):
		return nil, apperr.Conflict("identificador en uso").WithDetail(c.Table, c.ID)
	case errors.As(err, &c) && errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("parcela no encontrada").WithDetail(c.Table, c.ID)
	case err != nil:
		return nil, err
	}

	res := &service.PushResult{
		Parcelas:    len(ch.Parcelas.Created) + len(ch.Parcelas.Updated) + len(ch.Parcelas.Deleted),
		Actividades: len(ch.Actividades.Created) + len(ch.Actividades.Updated) + len(ch.Actividades.Deleted),
	}
	s.log.Info("sync push applied", zap.String("uid", uid), zap.Int("parcelas", res.Parcelas), zap.Int("actividades", res.Actividades))
	return res, nil
}

// validate applies the REST rules to every pushed record; detail keys carry
// the record's position, updated after created.
func (s *syncSvc) validate(ch *repository.Changes) error {
	verr := apperr.Validation("cambios no válidos")
	parcelas := append(append([]entities.Parcela{}, ch.Parcelas.Created...), ch.Parcelas.Updated...)
	for i := range parcelas {
		f := fmt.Sprintf("parcelas[%d].", i)
		if strings.TrimSpace(parcelas[i].ID) == "" {
			verr.WithDetail(f+"id", "obligatorio")
		}
		parcelaSvc.CheckFields(verr, f, &parcelas[i])
	}
	acts := append(append([]entities.Actividad{}, ch.Actividades.Created...), ch.Actividades.Updated...)
	for i := range acts {
		f := fmt.Sprintf("actividades[%d].", i)
		if strings.TrimSpace(acts[i].ID) == "" {
			verr.WithDetail(f+"id", "obligatorio")
		}
		actividadSvc.CheckFields(verr, f, &acts[i])
	}
	if len(verr.Details) > 0 {
		return verr
	}
	now := s.now()
	for _, list := range [][]entities.Actividad{ch.Actividades.Created, ch.Actividades.Updated} {
		for i := range list {
			if list[i].Estado == "" {
				list[i].Estado = entities.DefaultEstado(list[i].Fecha, now)
			}
		}
	}
	return nil
}
