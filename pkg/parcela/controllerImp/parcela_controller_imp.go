package controllerImp

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/parcela/controller"
	"cuaderno/pkg/parcela/repository"
	"cuaderno/pkg/parcela/service"
	"cuaderno/pkg/response"
)

type parcelaCtrl struct{ s service.ParcelaService }

func New(s service.ParcelaService) controller.ParcelaController { return &parcelaCtrl{s} }

func (h *parcelaCtrl) List(c echo.Context) error {
	f := repository.ListFilter{Cultivo: c.QueryParam("cultivo"), Q: c.QueryParam("q")}
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))
	out, err := h.s.List(c.Request().Context(), middleware.UserID(c), f)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, out)
}

func (h *parcelaCtrl) Get(c echo.Context) error {
	p, err := h.s.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, p)
}

func (h *parcelaCtrl) Create(c echo.Context) error {
	var in service.CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	p, err := h.s.Create(c.Request().Context(), middleware.UserID(c), middleware.OrgID(c), in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, p)
}

func (h *parcelaCtrl) Update(c echo.Context) error {
	var in service.UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	p, err := h.s.Update(c.Request().Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, p)
}

func (h *parcelaCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "parcela eliminada", echo.Map{"id": c.Param("id")})
}

func (h *parcelaCtrl) Area(c echo.Context) error {
	var body struct {
		Geometria json.RawMessage `json:"geometria"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	res, err := h.s.Area(c.Request().Context(), body.Geometria)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, res)
}
