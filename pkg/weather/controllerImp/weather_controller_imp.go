package controllerImp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/response"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/weather"
	"cuaderno/pkg/weather/controller"
	"cuaderno/pkg/weather/repository"
)

type ParcelaFinder interface {
	FindByID(ctx context.Context, id, uid string) (*entities.Parcela, error)
}

type weatherCtrl struct {
	s        *weather.Service
	alerts   repository.AlertRepository
	parcelas ParcelaFinder
	features weather.FeatureChecker
	log      *zap.Logger
}

func New(s *weather.Service, alerts repository.AlertRepository, parcelas ParcelaFinder, features weather.FeatureChecker, log *zap.Logger) controller.WeatherController {
	return &weatherCtrl{s: s, alerts: alerts, parcelas: parcelas, features: features, log: log}
}

// location reads lat/lng (required) and municipio (optional).
func location(c echo.Context) (weather.Location, error) {
	lat, err1 := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err1 != nil || err2 != nil {
		return weather.Location{}, apperr.Validation("lat y lng son obligatorios").
			WithDetail("lat", "número").WithDetail("lng", "número")
	}
	loc := weather.Location{Point: geo.Point{Lat: lat, Lng: lng}, Municipio: c.QueryParam("municipio")}
	if err := loc.Validate(); err != nil {
		return loc, apperr.Validation(err.Error())
	}
	return loc, nil
}

func days(c echo.Context) int {
	d, _ := strconv.Atoi(c.QueryParam("days"))
	return d
}

func (h *weatherCtrl) upstream(err error) error {
	if errors.Is(err, geo.ErrInvalidGeometry) {
		return apperr.Validation(err.Error())
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	h.log.Warn("weather lookup failed", zap.Error(err))
	return apperr.Upstream("servicio meteorológico", err)
}

func (h *weatherCtrl) Current(c echo.Context) error {
	loc, err := location(c)
	if err != nil {
		return err
	}
	cur, err := h.s.Current(c.Request().Context(), loc)
	if err != nil {
		return h.upstream(err)
	}
	return response.JSON(c, http.StatusOK, cur)
}

func (h *weatherCtrl) Forecast(c echo.Context) error {
	loc, err := location(c)
	if err != nil {
		return err
	}
	f, err := h.s.Forecast(c.Request().Context(), loc, days(c))
	if err != nil {
		return h.upstream(err)
	}
	return response.JSON(c, http.StatusOK, f)
}

// Alerts computes alerts at lat/lng, or without coordinates returns the
// stored alerts of the user's parcelas from today on.
func (h *weatherCtrl) Alerts(c echo.Context) error {
	ctx := c.Request().Context()
	uid := middleware.UserID(c)
	if err := h.features.RequireFeature(ctx, uid, subscription.FeatureWeatherAlerts); err != nil {
		return err
	}
	if c.QueryParam("lat") == "" && c.QueryParam("lng") == "" {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		out, err := h.alerts.ListByUser(ctx, uid, today)
		if err != nil {
			return err
		}
		return response.JSON(c, http.StatusOK, out)
	}
	loc, err := location(c)
	if err != nil {
		return err
	}
	alerts, _, err := h.s.Alerts(ctx, loc, days(c))
	if err != nil {
		return h.upstream(err)
	}
	return response.JSON(c, http.StatusOK, alerts)
}

type parcelaWeather struct {
	ParcelaID string            `json:"parcela_id"`
	Ubicacion weather.Location  `json:"ubicacion"`
	Actual    *weather.Current  `json:"actual"`
	Prevision *weather.Forecast `json:"prevision"`
	Alertas   []weather.Alert   `json:"alertas"`
}

func (h *weatherCtrl) Parcela(c echo.Context) error {
	ctx := c.Request().Context()
	uid := middleware.UserID(c)
	p, err := h.parcelas.FindByID(ctx, c.Param("id"), uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("parcela no encontrada")
	}
	if err != nil {
		return err
	}
	loc, ok := weather.LocationOf(p)
	if !ok {
		return apperr.Validation("la parcela no tiene geometría para localizarla")
	}
	cur, err := h.s.Current(ctx, loc)
	if err != nil {
		return h.upstream(err)
	}
	alerts, f, err := h.s.Alerts(ctx, loc, days(c))
	if err != nil {
		return h.upstream(err)
	}
	if ferr := h.features.RequireFeature(ctx, uid, subscription.FeatureWeatherAlerts); ferr != nil {
		alerts = []weather.Alert{}
	}
	return response.JSON(c, http.StatusOK, parcelaWeather{
		ParcelaID: p.ID,
		Ubicacion: loc,
		Actual:    cur,
		Prevision: f,
		Alertas:   alerts,
	})
}
