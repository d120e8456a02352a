package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = Handler(zap.NewNop())
	e.GET("/x", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHandler_AppError(t *testing.T) {
	rec, env := serve(t, func(c echo.Context) error {
		return Validation("datos no válidos").WithDetail("nombre", "obligatorio")
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, CodeValidation, env.Error)
	assert.Equal(t, "obligatorio", env.Details["nombre"])
	assert.NotEmpty(t, env.Timestamp)
}

func TestHandler_WrappedRecordNotFound(t *testing.T) {
	rec, env := serve(t, func(c echo.Context) error {
		return fmt.Errorf("find parcela: %w", gorm.ErrRecordNotFound)
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Error)
}

func TestHandler_EchoHTTPError(t *testing.T) {
	rec, env := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "token caducado")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthorized, env.Error)
	assert.Equal(t, "token caducado", env.Message)
}

func TestHandler_UnknownErrorIsInternal(t *testing.T) {
	rec, env := serve(t, func(c echo.Context) error { return errors.New("boom") })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, env.Error)
	assert.NotContains(t, env.Message, "boom")
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", PlanLimit("límite"))
	assert.True(t, IsCode(err, CodePlanLimit))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("x"), CodePlanLimit))
}
