package controllerImp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/export/controller"
	"cuaderno/pkg/export/service"
	"cuaderno/pkg/export/serviceImp"
	"cuaderno/pkg/middleware"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportCtrl struct{ s service.ExportService }

func New(s service.ExportService) controller.ExportController { return &exportCtrl{s} }

// GET /export/cuaderno?year=YYYY&parcela_id=
func (h *exportCtrl) Cuaderno(c echo.Context) error {
	year := time.Now().UTC().Year()
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2100 {
			return apperr.Validation("año no válido").WithDetail("year", "entre 2000 y 2100")
		}
		year = y
	}
	b, err := h.s.Cuaderno(c.Request().Context(), middleware.UserID(c), year, c.QueryParam("parcela_id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+serviceImp.Filename(year)+`"`)
	return c.Blob(http.StatusOK, mimeXLSX, b)
}
