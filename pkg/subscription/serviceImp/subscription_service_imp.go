package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/subscription/repository"
	"cuaderno/pkg/subscription/service"
)

// MetadataWriter mirrors the plan into the identity provider.
type MetadataWriter interface {
	Enabled() bool
	UpdatePublicMetadata(ctx context.Context, uid string, md map[string]any) error
}

type subSvc struct {
	cat   *subscription.Catalogue
	r     repository.SubscriptionRepository
	clerk MetadataWriter
	log   *zap.Logger
	now   func() time.Time
}

func NewSubscriptionService(cat *subscription.Catalogue, r repository.SubscriptionRepository, clerk MetadataWriter, log *zap.Logger) service.SubscriptionService {
	return &subSvc{cat: cat, r: r, clerk: clerk, log: log, now: time.Now}
}

func (s *subSvc) Plans() []subscription.Plan { return s.cat.All() }

// CurrentPlan resolves the effective plan: no row, an unknown plan id or a
// canceled subscription past its period all mean free.
func (s *subSvc) CurrentPlan(ctx context.Context, uid string) (subscription.Plan, *entities.UserSubscription, error) {
	sub, err := s.r.FindByUser(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.cat.Free(), nil, nil
	}
	if err != nil {
		return subscription.Plan{}, nil, err
	}
	if sub.Estado == entities.SubscriptionCanceled && (sub.RenewsAt == nil || !s.now().Before(*sub.RenewsAt)) {
		return s.cat.Free(), sub, nil
	}
	p, ok := s.cat.Get(sub.PlanID)
	if !ok {
		s.log.Warn("subscription references unknown plan", zap.String("uid", uid), zap.String("plan", sub.PlanID))
		return s.cat.Free(), sub, nil
	}
	return p, sub, nil
}

func (s *subSvc) usage(ctx context.Context, uid string) (subscription.Usage, error) {
	from := subscription.MonthStart(s.now())
	u := subscription.Usage{PeriodoDesde: from.Format("2006-01-02")}
	var err error
	if u.Parcelas, err = s.r.CountParcelas(ctx, uid); err != nil {
		return u, err
	}
	if u.Hectareas, err = s.r.SumHectareas(ctx, uid); err != nil {
		return u, err
	}
	if u.ActividadesMes, err = s.r.CountActividades(ctx, uid, from); err != nil {
		return u, err
	}
	if u.ActividadesTot, err = s.r.CountActividades(ctx, uid, time.Time{}); err != nil {
		return u, err
	}
	if u.OCRMes, err = s.r.CountScans(ctx, uid, from); err != nil {
		return u, err
	}
	return u, nil
}

func (s *subSvc) Status(ctx context.Context, uid string) (*service.Status, error) {
	p, sub, err := s.CurrentPlan(ctx, uid)
	if err != nil {
		return nil, err
	}
	u, err := s.usage(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &service.Status{Plan: p, Subscription: sub, Usage: u}, nil
}

func (s *subSvc) Upgrade(ctx context.Context, uid, planID string) (*entities.UserSubscription, error) {
	p, ok := s.cat.Get(planID)
	if !ok {
		return nil, apperr.InvalidPlan(planID)
	}
	sub, err := s.r.FindByUser(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = &entities.UserSubscription{UserID: uid}
	} else if err != nil {
		return nil, err
	}
	now := s.now()
	sub.PlanID = p.ID
	sub.Estado = entities.SubscriptionActive
	sub.StartedAt = now
	sub.CanceledAt = nil
	sub.RenewsAt = nil
	if p.PrecioMensual > 0 {
		r := now.AddDate(0, 1, 0)
		sub.RenewsAt = &r
	}
	if err := s.r.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.mirror(ctx, uid, p.ID)
	s.log.Info("plan changed", zap.String("uid", uid), zap.String("plan", p.ID))
	return sub, nil
}

func (s *subSvc) Cancel(ctx context.Context, uid string) (*entities.UserSubscription, error) {
	sub, err := s.r.FindByUser(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && sub.PlanID == subscription.FreePlanID) {
		return nil, apperr.BadRequest("no hay una suscripción de pago activa")
	}
	if err != nil {
		return nil, err
	}
	if sub.Estado == entities.SubscriptionCanceled {
		return sub, nil
	}
	now := s.now()
	sub.Estado = entities.SubscriptionCanceled
	sub.CanceledAt = &now
	if err := s.r.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info("subscription canceled", zap.String("uid", uid), zap.String("plan", sub.PlanID))
	return sub, nil
}

func (s *subSvc) mirror(ctx context.Context, uid, planID string) {
	if s.clerk == nil || !s.clerk.Enabled() {
		return
	}
	if err := s.clerk.UpdatePublicMetadata(ctx, uid, map[string]any{"plan": planID}); err != nil {
		s.log.Warn("mirror plan to clerk failed", zap.String("uid", uid), zap.Error(err))
	}
}

func (s *subSvc) CheckParcelas(ctx context.Context, uid string, add int, addHa float64) error {
	p, _, err := s.CurrentPlan(ctx, uid)
	if err != nil {
		return err
	}
	n, err := s.r.CountParcelas(ctx, uid)
	if err != nil {
		return err
	}
	if !subscription.Within(p.Limits.MaxParcelas, n, int64(add)) {
		return apperr.PlanLimit(fmt.Sprintf("el plan %s permite %d parcelas", p.Nombre, p.Limits.MaxParcelas))
	}
	if p.Limits.MaxHectareas != subscription.Unlimited && addHa > 0 {
		ha, err := s.r.SumHectareas(ctx, uid)
		if err != nil {
			return err
		}
		if ha+addHa > p.Limits.MaxHectareas {
			return apperr.PlanLimit(fmt.Sprintf("el plan %s permite %.0f ha", p.Nombre, p.Limits.MaxHectareas))
		}
	}
	return nil
}

func (s *subSvc) CheckActividades(ctx context.Context, uid string, add int) error {
	p, _, err := s.CurrentPlan(ctx, uid)
	if err != nil {
		return err
	}
	n, err := s.r.CountActividades(ctx, uid, subscription.MonthStart(s.now()))
	if err != nil {
		return err
	}
	if !subscription.Within(p.Limits.MaxActividadesMes, n, int64(add)) {
		return apperr.PlanLimit(fmt.Sprintf("el plan %s permite %d actividades al mes", p.Nombre, p.Limits.MaxActividadesMes))
	}
	return nil
}

func (s *subSvc) CheckOCR(ctx context.Context, uid string) error {
	p, _, err := s.CurrentPlan(ctx, uid)
	if err != nil {
		return err
	}
	if !p.Has(subscription.FeatureOCR) {
		return apperr.FeatureDisabled(subscription.FeatureOCR)
	}
	n, err := s.r.CountScans(ctx, uid, subscription.MonthStart(s.now()))
	if err != nil {
		return err
	}
	if !subscription.Within(p.Limits.MaxOCRMes, n, 1) {
		return apperr.PlanLimit(fmt.Sprintf("el plan %s permite %d escaneos al mes", p.Nombre, p.Limits.MaxOCRMes))
	}
	return nil
}

func (s *subSvc) RequireFeature(ctx context.Context, uid, feature string) error {
	p, _, err := s.CurrentPlan(ctx, uid)
	if err != nil {
		return err
	}
	if !p.Has(feature) {
		return apperr.FeatureDisabled(feature)
	}
	return nil
}
