package controllerImp

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/response"
	"cuaderno/pkg/subscription/controller"
	"cuaderno/pkg/subscription/service"
)

type subCtrl struct{ s service.SubscriptionService }

func New(s service.SubscriptionService) controller.SubscriptionController { return &subCtrl{s} }

func (h *subCtrl) Plans(c echo.Context) error {
	return response.JSON(c, http.StatusOK, h.s.Plans())
}

func (h *subCtrl) Current(c echo.Context) error {
	st, err := h.s.Status(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, st)
}

func (h *subCtrl) Upgrade(c echo.Context) error {
	var body struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	id := strings.TrimSpace(strings.ToLower(body.PlanID))
	if id == "" {
		return apperr.Validation("plan_id es obligatorio").WithDetail("plan_id", "obligatorio")
	}
	sub, err := h.s.Upgrade(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "plan actualizado", sub)
}

func (h *subCtrl) Cancel(c echo.Context) error {
	sub, err := h.s.Cancel(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "la suscripción se cancelará al final del periodo", sub)
}
