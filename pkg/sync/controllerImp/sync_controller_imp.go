package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/response"
	"cuaderno/pkg/sync/controller"
	"cuaderno/pkg/sync/repository"
	"cuaderno/pkg/sync/service"
)

type syncCtrl struct{ s service.SyncService }

func New(s service.SyncService) controller.SyncController { return &syncCtrl{s} }

func lastPulledAt(c echo.Context) (int64, error) {
	v := c.QueryParam("last_pulled_at")
	if v == "" || v == "null" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms < 0 {
		return 0, apperr.Validation("last_pulled_at no válido").WithDetail("last_pulled_at", "milisegundos desde epoch")
	}
	return ms, nil
}

// GET /sync?last_pulled_at=
func (h *syncCtrl) Pull(c echo.Context) error {
	ms, err := lastPulledAt(c)
	if err != nil {
		return err
	}
	out, err := h.s.Pull(c.Request().Context(), middleware.UserID(c), ms)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, out)
}

// POST /sync?last_pulled_at=  {changes}
func (h *syncCtrl) Push(c echo.Context) error {
	ms, err := lastPulledAt(c)
	if err != nil {
		return err
	}
	var body struct {
		Changes *repository.Changes `json:"changes"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	out, err := h.s.Push(c.Request().Context(), middleware.UserID(c), ms, body.Changes)
	if err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "cambios aplicados", out)
}
