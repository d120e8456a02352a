package controllerImp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"cuaderno/entities"
	"cuaderno/pkg/actividad/controller"
	"cuaderno/pkg/actividad/repository"
	"cuaderno/pkg/actividad/service"
	"cuaderno/pkg/actividad/serviceImp"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/response"
)

type actividadCtrl struct{ s service.ActividadService }

func New(s service.ActividadService) controller.ActividadController { return &actividadCtrl{s} }

func (h *actividadCtrl) List(c echo.Context) error {
	f := repository.ListFilter{
		ParcelaID: c.QueryParam("parcela_id"),
		Tipo:      entities.TipoActividad(strings.ToUpper(c.QueryParam("tipo"))),
		Estado:    entities.EstadoActividad(strings.ToUpper(c.QueryParam("estado"))),
	}
	var err error
	if f.Desde, err = day(c, "desde"); err != nil {
		return err
	}
	if f.Hasta, err = day(c, "hasta"); err != nil {
		return err
	}
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))
	out, err := h.s.List(c.Request().Context(), middleware.UserID(c), f)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, out)
}

func day(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := serviceImp.ParseFecha(v)
	if err != nil {
		return nil, apperr.Validation(err.Error()).WithDetail(name, "formato YYYY-MM-DD")
	}
	return &t, nil
}

func (h *actividadCtrl) Get(c echo.Context) error {
	a, err := h.s.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, a)
}

func (h *actividadCtrl) Create(c echo.Context) error {
	var in service.CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	a, err := h.s.Create(c.Request().Context(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, a)
}

func (h *actividadCtrl) Update(c echo.Context) error {
	var in service.UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	a, err := h.s.Update(c.Request().Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, a)
}

func (h *actividadCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "actividad eliminada", echo.Map{"id": c.Param("id")})
}

func (h *actividadCtrl) PatchEstado(c echo.Context) error {
	var body struct {
		Estado string `json:"estado"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.BadRequest("JSON no válido")
	}
	a, err := h.s.SetEstado(c.Request().Context(), middleware.UserID(c), c.Param("id"), body.Estado)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, a)
}

func (h *actividadCtrl) Resumen(c echo.Context) error {
	year := 0
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 3000 {
			return apperr.Validation("year no válido").WithDetail("year", "YYYY")
		}
		year = y
	}
	r, err := h.s.Resumen(c.Request().Context(), middleware.UserID(c), c.QueryParam("parcela_id"), year)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, r)
}

// ListByParcela serves /parcelas/:id/actividades.
func (h *actividadCtrl) ListByParcela(c echo.Context) error {
	out, err := h.s.ListByParcela(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, out)
}
