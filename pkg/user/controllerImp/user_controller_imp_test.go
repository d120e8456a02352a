package controllerImp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/clerk"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/subscription/repositoryImp"
	"cuaderno/pkg/subscription/serviceImp"
)

type fakeUsers struct {
	user *clerk.User
	err  error
}

func (f fakeUsers) Enabled() bool { return true }

func (f fakeUsers) GetUser(context.Context, string) (*clerk.User, error) { return f.user, f.err }

func newServer(t *testing.T, users UserLookup) *echo.Echo {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, db.Create(&entities.Parcela{PropietarioID: "u1", Nombre: "A", Superficie: 2.5}).Error)
	require.NoError(t, db.Create(&entities.Parcela{PropietarioID: "u1", Nombre: "B", Superficie: 1.25}).Error)
	svc := serviceImp.NewSubscriptionService(subscription.Default(), repositoryImp.New(db), clerk.NewClient("", ""), zap.NewNop())
	h := New(svc, users, zap.NewNop())

	e := echo.New()
	e.HTTPErrorHandler = apperr.Handler(zap.NewNop())
	g := e.Group("/api/v1", middleware.DevAuth(true, zap.NewNop()), middleware.RequireUser())
	g.GET("/user/profile", h.Profile)
	g.GET("/user/stats", h.Stats)
	return e
}

func get(e *echo.Echo, path string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(middleware.DevUserHeader, "u1")
	req.Header.Set("X-Dev-Org", "org_1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestProfile(t *testing.T) {
	e := newServer(t, fakeUsers{user: &clerk.User{ID: "u1", Email: "ana@example.es", FirstName: "Ana"}})
	rec, body := get(e, "/api/v1/user/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "u1", data["uid"])
	assert.Equal(t, "org_1", data["org_id"])
	assert.Equal(t, "free", data["plan"])
	assert.Equal(t, "ana@example.es", data["user"].(map[string]any)["email"])
}

func TestProfile_ClerkDown(t *testing.T) {
	e := newServer(t, fakeUsers{err: errors.New("503")})
	rec, body := get(e, "/api/v1/user/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body["data"].(map[string]any), "user")
}

func TestStats(t *testing.T) {
	e := newServer(t, nil)
	rec, body := get(e, "/api/v1/user/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	usage := body["data"].(map[string]any)["usage"].(map[string]any)
	assert.Equal(t, float64(2), usage["parcelas"])
	assert.Equal(t, 3.75, usage["hectareas"])
	assert.Equal(t, float64(0), usage["actividades_mes"])
}
