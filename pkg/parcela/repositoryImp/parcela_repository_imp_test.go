package repositoryImp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cuaderno/database"
	"cuaderno/entities"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/parcela/repository"
)

const square = `{"type":"Polygon","coordinates":[[[-4.73,41.65],[-4.72,41.65],[-4.72,41.66],[-4.73,41.66],[-4.73,41.65]]]}`

func TestRepo_CRUDAndList(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	r := New(db, false)
	ctx := context.Background()

	g, err := geo.ParseGeometry([]byte(square))
	require.NoError(t, err)
	a := &entities.Parcela{PropietarioID: "u1", Nombre: "La Vega", TipoCultivo: "Trigo", Geometria: g}
	b := &entities.Parcela{PropietarioID: "u1", Nombre: "El Olivar", TipoCultivo: "Olivo"}
	other := &entities.Parcela{PropietarioID: "u2", Nombre: "Ajena"}
	for _, p := range []*entities.Parcela{a, b, other} {
		require.NoError(t, r.Create(ctx, p))
		assert.Len(t, p.ID, 36)
	}

	got, err := r.FindByID(ctx, a.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.Geometria)
	assert.Equal(t, "Polygon", got.Geometria.Type)

	_, err = r.FindByID(ctx, a.ID, "u2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := r.List(ctx, "u1", repository.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = r.List(ctx, "u1", repository.ListFilter{Cultivo: "olivo"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "El Olivar", list[0].Nombre)

	list, err = r.List(ctx, "u1", repository.ListFilter{Q: "veg"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = r.List(ctx, "u1", repository.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepo_DeleteCascadesActividades(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	r := New(db, false)
	ctx := context.Background()

	p := &entities.Parcela{PropietarioID: "u1", Nombre: "La Vega"}
	require.NoError(t, r.Create(ctx, p))
	require.NoError(t, db.Create(&entities.Actividad{ParcelaID: p.ID, PropietarioID: "u1", Tipo: entities.Riego, Fecha: time.Now()}).Error)

	assert.ErrorIs(t, r.Delete(ctx, p.ID, "u2"), gorm.ErrRecordNotFound)
	require.NoError(t, r.Delete(ctx, p.ID, "u1"))

	var n int64
	db.Model(&entities.Actividad{}).Where("parcela_id = ?", p.ID).Count(&n)
	assert.Zero(t, n)
	db.Unscoped().Model(&entities.Actividad{}).Where("parcela_id = ?", p.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestRepo_AreaHa_Geodesic(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	g, _ := geo.ParseGeometry([]byte(square))
	ha, err := New(db, false).AreaHa(context.Background(), g)
	require.NoError(t, err)
	assert.InDelta(t, 92.5, ha, 1)
}

func TestRepo_AreaHa_PostGISIsParameterised(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	g, _ := geo.ParseGeometry([]byte(square))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ST_Area(ST_GeomFromGeoJSON($1)::geography) / 10000 AS ha`)).
		WithArgs(g.String()).
		WillReturnRows(sqlmock.NewRows([]string{"ha"}).AddRow(92.61))

	ha, err := New(db, true).AreaHa(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 92.61, ha)
	assert.NoError(t, mock.ExpectationsWereMet())
}
