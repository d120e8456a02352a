package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/sync/repositoryImp"
	"cuaderno/pkg/sync/serviceImp"
)

type plan struct{}

func (plan) RequireFeature(context.Context, string, string) error      { return nil }
func (plan) CheckParcelas(context.Context, string, int, float64) error { return nil }
func (plan) CheckActividades(context.Context, string, int) error       { return nil }

func newServer(t *testing.T) *echo.Echo {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	h := New(serviceImp.NewSyncService(repositoryImp.New(db), plan{}, zap.NewNop()))

	e := echo.New()
	e.HTTPErrorHandler = apperr.Handler(zap.NewNop())
	g := e.Group("/api/v1", middleware.DevAuth(true, zap.NewNop()), middleware.RequireUser())
	g.GET("/sync", h.Pull)
	g.POST("/sync", h.Push)
	return e
}

func call(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.DevUserHeader, "u1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestSync_PushThenPull(t *testing.T) {
	e := newServer(t)

	rec, body := call(e, http.MethodGet, "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	ts := int64(data["timestamp"].(float64))
	parcelas := data["changes"].(map[string]any)["parcelas"].(map[string]any)
	assert.Empty(t, parcelas["created"])
	time.Sleep(2 * time.Millisecond)

	push := `{"changes":{"parcelas":{"created":[{"id":"p-movil","nombre":"Desde el campo","superficie":1.2}],"updated":[],"deleted":[]},
		"actividades":{"created":[{"id":"a-movil","parcela_id":"p-movil","tipo":"RIEGO","fecha":"2024-06-01T08:00:00Z"}],"updated":[],"deleted":[]}}}`
	rec, body = call(e, http.MethodPost, "/api/v1/sync?last_pulled_at="+strconv.FormatInt(ts, 10), push)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cambios aplicados", body["message"])

	rec, body = call(e, http.MethodGet, "/api/v1/sync?last_pulled_at="+strconv.FormatInt(ts, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	changes := body["data"].(map[string]any)["changes"].(map[string]any)
	created := changes["parcelas"].(map[string]any)["created"].([]any)
	require.Len(t, created, 1)
	assert.Equal(t, "p-movil", created[0].(map[string]any)["id"])
	assert.Equal(t, "u1", created[0].(map[string]any)["propietario_id"])
	acts := changes["actividades"].(map[string]any)["created"].([]any)
	require.Len(t, acts, 1)
	assert.Equal(t, "COMPLETADA", acts[0].(map[string]any)["estado"])
}

func TestSync_Conflict(t *testing.T) {
	e := newServer(t)
	rec, _ := call(e, http.MethodPost, "/api/v1/sync",
		`{"changes":{"parcelas":{"created":[{"id":"p1","nombre":"A"}]}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stale := time.Now().Add(-time.Hour).UnixMilli()
	rec, body := call(e, http.MethodPost, "/api/v1/sync?last_pulled_at="+strconv.FormatInt(stale, 10),
		`{"changes":{"parcelas":{"updated":[{"id":"p1","nombre":"B"}]}}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", body["error"])
}

func TestSync_BadInput(t *testing.T) {
	e := newServer(t)
	rec, _ := call(e, http.MethodGet, "/api/v1/sync?last_pulled_at=ayer", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(e, http.MethodPost, "/api/v1/sync", `{"changes":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(e, http.MethodPost, "/api/v1/sync", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
