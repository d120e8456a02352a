package serviceImp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/database"
	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/subscription/repositoryImp"
)

type fakeClerk struct {
	enabled bool
	calls   []string
	err     error
}

func (f *fakeClerk) Enabled() bool { return f.enabled }

func (f *fakeClerk) UpdatePublicMetadata(_ context.Context, uid string, md map[string]any) error {
	f.calls = append(f.calls, uid+"="+md["plan"].(string))
	return f.err
}

func setup(t *testing.T) (*subSvc, *gorm.DB, *fakeClerk) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	fc := &fakeClerk{enabled: true}
	s := NewSubscriptionService(subscription.Default(), repositoryImp.New(db), fc, zap.NewNop()).(*subSvc)
	s.now = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	return s, db, fc
}

func TestCurrentPlan_DefaultsToFree(t *testing.T) {
	s, _, _ := setup(t)
	p, sub, err := s.CurrentPlan(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "free", p.ID)
	assert.Nil(t, sub)
}

func TestUpgradeAndCancel(t *testing.T) {
	s, _, fc := setup(t)
	ctx := context.Background()

	_, err := s.Upgrade(ctx, "u1", "gold")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidPlan))

	sub, err := s.Upgrade(ctx, "u1", "pro")
	require.NoError(t, err)
	assert.Equal(t, "pro", sub.PlanID)
	require.NotNil(t, sub.RenewsAt)
	assert.Equal(t, []string{"u1=pro"}, fc.calls)

	p, _, err := s.CurrentPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "pro", p.ID)

	sub, err = s.Cancel(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entities.SubscriptionCanceled, sub.Estado)

	// still pro until the period ends
	p, _, _ = s.CurrentPlan(ctx, "u1")
	assert.Equal(t, "pro", p.ID)

	s.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }
	p, _, _ = s.CurrentPlan(ctx, "u1")
	assert.Equal(t, "free", p.ID)

	_, err = s.Cancel(ctx, "nobody")
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestUpgrade_ClerkFailureIsNotFatal(t *testing.T) {
	s, _, fc := setup(t)
	fc.err = errors.New("clerk down")
	_, err := s.Upgrade(context.Background(), "u1", "basic")
	assert.NoError(t, err)
}

func TestCheckParcelas(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&entities.Parcela{PropietarioID: "u1", Nombre: "p", Superficie: 5}).Error)
	}
	err := s.CheckParcelas(ctx, "u1", 1, 0)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodePlanLimit))

	assert.NoError(t, s.CheckParcelas(ctx, "u2", 1, 10))
	// 50 ha on free
	err = s.CheckParcelas(ctx, "u2", 1, 60)
	assert.True(t, apperr.IsCode(err, apperr.CodePlanLimit))

	_, err = s.Upgrade(ctx, "u1", "basic")
	require.NoError(t, err)
	assert.NoError(t, s.CheckParcelas(ctx, "u1", 1, 0))
}

func TestCheckOCRAndFeatures(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	err := s.CheckOCR(ctx, "u1")
	assert.True(t, apperr.IsCode(err, apperr.CodeFeatureDisabled))
	assert.NoError(t, s.RequireFeature(ctx, "u1", subscription.FeatureSync))
	assert.True(t, apperr.IsCode(s.RequireFeature(ctx, "u1", subscription.FeatureExport), apperr.CodeFeatureDisabled))

	_, err = s.Upgrade(ctx, "u1", "basic")
	require.NoError(t, err)
	assert.NoError(t, s.CheckOCR(ctx, "u1"))
}

func TestStatus_Usage(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	p := entities.Parcela{PropietarioID: "u1", Nombre: "p", Superficie: 12.5}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&entities.Actividad{ParcelaID: p.ID, PropietarioID: "u1", Tipo: entities.Riego, Fecha: s.now(), CreatedAt: s.now()}).Error)
	require.NoError(t, db.Create(&entities.Actividad{ParcelaID: p.ID, PropietarioID: "u1", Tipo: entities.Riego, Fecha: s.now(), CreatedAt: s.now().AddDate(0, -2, 0)}).Error)

	st, err := s.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "free", st.Plan.ID)
	assert.Equal(t, int64(1), st.Usage.Parcelas)
	assert.Equal(t, 12.5, st.Usage.Hectareas)
	assert.Equal(t, int64(1), st.Usage.ActividadesMes)
	assert.Equal(t, int64(2), st.Usage.ActividadesTot)
	assert.Equal(t, "2025-05-01", st.Usage.PeriodoDesde)
}
