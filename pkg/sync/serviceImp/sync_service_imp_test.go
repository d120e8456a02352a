package serviceImp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/sync/repository"
	"cuaderno/pkg/sync/repositoryImp"
)

type fakePlan struct {
	feature  error
	parcelas error
	gotAdd   int
	gotHa    float64
}

func (f *fakePlan) RequireFeature(context.Context, string, string) error { return f.feature }
func (f *fakePlan) CheckParcelas(_ context.Context, _ string, add int, ha float64) error {
	f.gotAdd, f.gotHa = add, ha
	return f.parcelas
}
func (f *fakePlan) CheckActividades(context.Context, string, int) error { return nil }

func setup(t *testing.T, plan *fakePlan) *syncSvc {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, db.Create(&entities.Parcela{ID: "p1", PropietarioID: "u1", Nombre: "La Vega"}).Error)
	return NewSyncService(repositoryImp.New(db), plan, zap.NewNop()).(*syncSvc)
}

func TestPull_Timestamp(t *testing.T) {
	s := setup(t, &fakePlan{})
	fixed := time.Now().Add(time.Minute)
	s.now = func() time.Time { return fixed }
	out, err := s.Pull(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), out.Timestamp)
	assert.Len(t, out.Changes.Parcelas.Created, 1)
}

func TestPush_Validation(t *testing.T) {
	s := setup(t, &fakePlan{})
	ch := &repository.Changes{}
	ch.Parcelas.Created = []entities.Parcela{{ID: "", Nombre: " "}}
	ch.Actividades.Created = []entities.Actividad{{ID: "a", Tipo: "NADA"}}
	_, err := s.Push(context.Background(), "u1", 0, ch)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Contains(t, ae.Details, "parcelas[0].id")
	assert.Contains(t, ae.Details, "parcelas[0].nombre")
	assert.Contains(t, ae.Details, "actividades[0].parcela_id")
	assert.Contains(t, ae.Details, "actividades[0].tipo")

	_, err = s.Push(context.Background(), "u1", 0, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestPush_PlanAndFeature(t *testing.T) {
	plan := &fakePlan{parcelas: apperr.PlanLimit("límite de parcelas")}
	s := setup(t, plan)
	ch := &repository.Changes{}
	ch.Parcelas.Created = []entities.Parcela{{ID: "a", Nombre: "A", Superficie: 1}, {ID: "b", Nombre: "B", Superficie: 2.5}}
	_, err := s.Push(context.Background(), "u1", 0, ch)
	assert.True(t, apperr.IsCode(err, apperr.CodePlanLimit))
	assert.Equal(t, 2, plan.gotAdd)
	assert.Equal(t, 3.5, plan.gotHa)

	s = setup(t, &fakePlan{feature: apperr.FeatureDisabled("sync")})
	_, err = s.Pull(context.Background(), "u1", 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeFeatureDisabled))
}

func TestPush_ConflictAndDefaults(t *testing.T) {
	s := setup(t, &fakePlan{})
	ctx := context.Background()
	stale := time.Now().Add(-time.Hour).UnixMilli()

	ch := &repository.Changes{}
	ch.Parcelas.Updated = []entities.Parcela{{ID: "p1", Nombre: "Otra"}}
	_, err := s.Push(ctx, "u1", stale, ch)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, ae.Code)
	assert.Equal(t, "p1", ae.Details["parcelas"])

	s.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ch = &repository.Changes{}
	ch.Actividades.Created = []entities.Actividad{
		{ID: "a1", ParcelaID: "p1", Tipo: entities.Riego, Fecha: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "a2", ParcelaID: "p1", Tipo: entities.Poda, Fecha: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
	}
	res, err := s.Push(ctx, "u1", time.Now().UnixMilli(), ch)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Actividades)
	assert.Equal(t, entities.Completada, ch.Actividades.Created[0].Estado)
	assert.Equal(t, entities.Planificada, ch.Actividades.Created[1].Estado)
}

func TestPush_RecordRules(t *testing.T) {
	fecha := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	neg := -1.0
	cases := []struct {
		name  string
		ch    func(*repository.Changes)
		field string
	}{
		{"nombre largo", func(ch *repository.Changes) {
			ch.Parcelas.Created = []entities.Parcela{{ID: "px", Nombre: strings.Repeat("a", 300)}}
		}, "parcelas[0].nombre"},
		{"superficie", func(ch *repository.Changes) {
			ch.Parcelas.Created = []entities.Parcela{{ID: "px", Nombre: "X", Superficie: 99999}}
		}, "parcelas[0].superficie"},
		{"sigpac", func(ch *repository.Changes) {
			ch.Parcelas.Updated = []entities.Parcela{{ID: "p1", Nombre: "X", ReferenciaSigpac: "99:bad"}}
		}, "parcelas[0].referencia_sigpac"},
		{"geometria", func(ch *repository.Changes) {
			ch.Parcelas.Created = []entities.Parcela{{ID: "px", Nombre: "X", Geometria: &geo.Geometry{Type: "Point"}}}
		}, "parcelas[0].geometria"},
		{"centroide", func(ch *repository.Changes) {
			ch.Parcelas.Created = []entities.Parcela{{ID: "px", Nombre: "X", Centroide: &geo.Point{Lat: 10, Lng: 200}}}
		}, "parcelas[0].centroide"},
		{"tratamiento sin productos", func(ch *repository.Changes) {
			ch.Actividades.Created = []entities.Actividad{{ID: "a", ParcelaID: "p1", Tipo: entities.Tratamiento, Fecha: fecha}}
		}, "actividades[0].productos"},
		{"dosis negativa", func(ch *repository.Changes) {
			ch.Actividades.Created = []entities.Actividad{{ID: "a", ParcelaID: "p1", Tipo: entities.Tratamiento, Fecha: fecha,
				Productos: []entities.Producto{{Nombre: "Cobre", Dosis: &neg}}}}
		}, "actividades[0].productos[0].dosis"},
		{"cantidad negativa", func(ch *repository.Changes) {
			ch.Actividades.Created = []entities.Actividad{{ID: "a", ParcelaID: "p1", Tipo: entities.Riego, Fecha: fecha, Cantidad: &neg}}
		}, "actividades[0].cantidad"},
		{"sin fecha", func(ch *repository.Changes) {
			ch.Actividades.Updated = []entities.Actividad{{ID: "a", ParcelaID: "p1", Tipo: entities.Riego}}
		}, "actividades[0].fecha"},
		{"coordenadas", func(ch *repository.Changes) {
			ch.Actividades.Created = []entities.Actividad{{ID: "a", ParcelaID: "p1", Tipo: entities.Riego, Fecha: fecha,
				Coordenadas: &geo.Point{Lat: -91, Lng: 0}}}
		}, "actividades[0].coordenadas"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := setup(t, &fakePlan{})
			ch := &repository.Changes{}
			tc.ch(ch)
			_, err := s.Push(context.Background(), "u1", time.Now().UnixMilli(), ch)
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Contains(t, ae.Details, tc.field)
		})
	}
}
