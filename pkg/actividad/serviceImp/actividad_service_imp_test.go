package serviceImp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/entities"
	"cuaderno/pkg/actividad/repositoryImp"
	"cuaderno/pkg/actividad/service"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
	parcelaRepo "cuaderno/pkg/parcela/repositoryImp"
)

type fakeLimits struct{ err error }

func (f fakeLimits) CheckActividades(context.Context, string, int) error { return f.err }

type fakeMeteo struct{ calls int }

func (f *fakeMeteo) Snapshot(context.Context, geo.Point) (string, error) {
	f.calls++
	return "12.0 °C, viento 8 km/h", nil
}

var today = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, limitErr error) (*actividadSvc, *entities.Parcela, *fakeMeteo) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	pr := parcelaRepo.New(db, false)
	p := &entities.Parcela{PropietarioID: "u1", Nombre: "La Vega", Centroide: &geo.Point{Lat: 41.6, Lng: -4.7}}
	require.NoError(t, pr.Create(context.Background(), p))
	m := &fakeMeteo{}
	s := NewActividadService(repositoryImp.New(db), pr, fakeLimits{limitErr}, m, zap.NewNop()).(*actividadSvc)
	s.now = func() time.Time { return today }
	return s, p, m
}

func f(v float64) *float64 { return &v }

func TestCreate_DefaultEstado(t *testing.T) {
	s, p, _ := setup(t, nil)
	ctx := context.Background()

	past, err := s.Create(ctx, "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "riego", Fecha: "2025-05-01", Cantidad: f(120), Unidad: "m3"})
	require.NoError(t, err)
	assert.Equal(t, entities.Completada, past.Estado)
	assert.Equal(t, entities.Riego, past.Tipo)

	future, err := s.Create(ctx, "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "COSECHA", Fecha: "2025-07-01"})
	require.NoError(t, err)
	assert.Equal(t, entities.Planificada, future.Estado)
}

func TestCreate_TratamientoNeedsProducto(t *testing.T) {
	s, p, _ := setup(t, nil)
	_, err := s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "TRATAMIENTO", Fecha: "2025-05-01"})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Contains(t, ae.Details, "productos")

	_, err = s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "TRATAMIENTO", Fecha: "2025-05-01",
		Productos: []entities.Producto{{Nombre: "Azufre", Dosis: f(-2)}}})
	ae, _ = apperr.As(err)
	require.NotNil(t, ae)
	assert.Contains(t, ae.Details, "productos[0].dosis")
}

func TestCreate_ValidationErrors(t *testing.T) {
	s, p, _ := setup(t, nil)
	_, err := s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "BAILAR", Fecha: "ayer",
		Coordenadas: &geo.Point{Lat: 100}})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Details, "tipo")
	assert.Contains(t, ae.Details, "fecha")
	assert.Contains(t, ae.Details, "coordenadas")
}

func TestCreate_ParcelaOwnershipAndLimits(t *testing.T) {
	s, p, _ := setup(t, nil)
	_, err := s.Create(context.Background(), "u2", service.CreateInput{ParcelaID: p.ID, Tipo: "RIEGO", Fecha: "2025-05-01"})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	s.limits = fakeLimits{apperr.PlanLimit("máximo")}
	_, err = s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "RIEGO", Fecha: "2025-05-01"})
	assert.True(t, apperr.IsCode(err, apperr.CodePlanLimit))
}

func TestCreate_MeteoSnapshotForTodayTreatment(t *testing.T) {
	s, p, m := setup(t, nil)
	prod := []entities.Producto{{Nombre: "Cobre"}}
	a, err := s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "TRATAMIENTO", Fecha: "2025-05-20", Productos: prod})
	require.NoError(t, err)
	assert.Equal(t, "12.0 °C, viento 8 km/h", a.CondicionesMeteo)

	_, err = s.Create(context.Background(), "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "TRATAMIENTO", Fecha: "2025-05-10", Productos: prod})
	require.NoError(t, err)
	assert.Equal(t, 1, m.calls)
}

func TestUpdateAndSetEstado(t *testing.T) {
	s, p, _ := setup(t, nil)
	ctx := context.Background()
	a, err := s.Create(ctx, "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "RIEGO", Fecha: "2025-06-01"})
	require.NoError(t, err)

	desc := "riego de apoyo"
	up, err := s.Update(ctx, "u1", a.ID, service.UpdateInput{Descripcion: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, up.Descripcion)
	assert.Equal(t, entities.Riego, up.Tipo)

	trat := "TRATAMIENTO"
	_, err = s.Update(ctx, "u1", a.ID, service.UpdateInput{Tipo: &trat})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	other := "nope"
	_, err = s.Update(ctx, "u1", a.ID, service.UpdateInput{ParcelaID: &other})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	got, err := s.SetEstado(ctx, "u1", a.ID, "en_curso")
	require.NoError(t, err)
	assert.Equal(t, entities.EnCurso, got.Estado)

	_, err = s.SetEstado(ctx, "u1", a.ID, "TERMINADA")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	_, err = s.SetEstado(ctx, "u2", a.ID, "COMPLETADA")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestListByParcelaAndDelete(t *testing.T) {
	s, p, _ := setup(t, nil)
	ctx := context.Background()
	a, err := s.Create(ctx, "u1", service.CreateInput{ParcelaID: p.ID, Tipo: "PODA", Fecha: "2025-02-01"})
	require.NoError(t, err)

	list, err := s.ListByParcela(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = s.ListByParcela(ctx, "u2", p.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	require.NoError(t, s.Delete(ctx, "u1", a.ID))
	assert.True(t, apperr.IsCode(s.Delete(ctx, "u1", a.ID), apperr.CodeNotFound))
}

func TestParseFecha(t *testing.T) {
	d, err := ParseFecha("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseFecha("2025-03-04T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseFecha("04/03/2025")
	assert.Error(t, err)
}
