package controllerImp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/response"
	"cuaderno/pkg/sigpac"
)

type SigpacCtrl struct {
	s   *sigpac.Service
	log *zap.Logger
}

func New(s *sigpac.Service, log *zap.Logger) *SigpacCtrl { return &SigpacCtrl{s: s, log: log} }

func (h *SigpacCtrl) Validate(c echo.Context) error {
	v := sigpac.Validate(c.Param("ref"))
	if !v.Valid {
		return apperr.Validation(v.Error).WithDetail("referencia", v.Error)
	}
	return response.JSON(c, http.StatusOK, v)
}

func (h *SigpacCtrl) Provincias(c echo.Context) error {
	return response.JSON(c, http.StatusOK, sigpac.Provincias())
}

func (h *SigpacCtrl) Recinto(c echo.Context) error {
	r, err := h.s.Recinto(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return h.mapErr(err)
	}
	return response.JSON(c, http.StatusOK, r)
}

func (h *SigpacCtrl) Punto(c echo.Context) error {
	lat, err1 := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err1 != nil || err2 != nil {
		return apperr.Validation("lat y lng son obligatorios")
	}
	ref, err := h.s.ByPoint(c.Request().Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		return h.mapErr(err)
	}
	return response.JSON(c, http.StatusOK, sigpac.Validate(ref.String()))
}

func (h *SigpacCtrl) mapErr(err error) error {
	switch {
	case errors.Is(err, sigpac.ErrInvalidReference), errors.Is(err, geo.ErrInvalidGeometry):
		return apperr.Validation(err.Error())
	case errors.Is(err, sigpac.ErrNotFound):
		return apperr.NotFound(err.Error())
	default:
		h.log.Warn("sigpac lookup failed", zap.Error(err))
		return apperr.Upstream("SIGPAC", err)
	}
}
