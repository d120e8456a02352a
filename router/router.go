package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	actividadCtrl "cuaderno/pkg/actividad/controller"
	exportCtrl "cuaderno/pkg/export/controller"
	healthCtrl "cuaderno/pkg/health/controller"
	"cuaderno/pkg/metrics"
	"cuaderno/pkg/middleware"
	ocrCtrl "cuaderno/pkg/ocr/controller"
	parcelaCtrl "cuaderno/pkg/parcela/controller"
	subscriptionCtrl "cuaderno/pkg/subscription/controller"
	syncCtrl "cuaderno/pkg/sync/controller"
	userCtrl "cuaderno/pkg/user/controller"
	weatherCtrl "cuaderno/pkg/weather/controller"
)

type SigpacController interface {
	Validate(echo.Context) error
	Provincias(echo.Context) error
	Recinto(echo.Context) error
	Punto(echo.Context) error
}

type Controllers struct {
	Health       healthCtrl.HealthController
	Parcela      parcelaCtrl.ParcelaController
	Actividad    actividadCtrl.ActividadController
	Sigpac       SigpacController
	Weather      weatherCtrl.WeatherController
	OCR          ocrCtrl.OCRController
	Subscription subscriptionCtrl.SubscriptionController
	User         userCtrl.UserController
	Export       exportCtrl.ExportController
	Sync         syncCtrl.SyncController
}

// Auth is the authentication chain run on /api/v1 before RequireUser.
type Auth struct {
	Dev   echo.MiddlewareFunc
	Clerk echo.MiddlewareFunc
	Rate  echo.MiddlewareFunc
}

func New(e *echo.Echo, log *zap.Logger, ctl Controllers, auth Auth) *echo.Echo {
	e.Use(middleware.Metrics(), middleware.RequestLog(log))

	e.GET("/health", ctl.Health.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := e.Group("/api/v1")
	v1.GET("/health", ctl.Health.Health)

	chain := []echo.MiddlewareFunc{}
	for _, m := range []echo.MiddlewareFunc{auth.Dev, auth.Clerk, middleware.RequireUser(), auth.Rate} {
		if m != nil {
			chain = append(chain, m)
		}
	}
	api := v1.Group("", chain...)

	api.GET("/parcelas", ctl.Parcela.List)
	api.POST("/parcelas", ctl.Parcela.Create)
	api.POST("/parcelas/area", ctl.Parcela.Area)
	api.GET("/parcelas/:id", ctl.Parcela.Get)
	api.PUT("/parcelas/:id", ctl.Parcela.Update)
	api.DELETE("/parcelas/:id", ctl.Parcela.Delete)
	api.GET("/parcelas/:id/actividades", ctl.Actividad.ListByParcela)

	// resumen before :id
	api.GET("/actividades/resumen", ctl.Actividad.Resumen)
	api.GET("/actividades", ctl.Actividad.List)
	api.POST("/actividades", ctl.Actividad.Create)
	api.GET("/actividades/:id", ctl.Actividad.Get)
	api.PUT("/actividades/:id", ctl.Actividad.Update)
	api.DELETE("/actividades/:id", ctl.Actividad.Delete)
	api.PATCH("/actividades/:id/estado", ctl.Actividad.PatchEstado)

	api.GET("/sigpac/validate/:ref", ctl.Sigpac.Validate)
	api.GET("/sigpac/provincias", ctl.Sigpac.Provincias)
	api.GET("/sigpac/parcela/:ref", ctl.Sigpac.Recinto)
	api.GET("/sigpac/punto", ctl.Sigpac.Punto)

	api.GET("/weather/current", ctl.Weather.Current)
	api.GET("/weather/forecast", ctl.Weather.Forecast)
	api.GET("/weather/alerts", ctl.Weather.Alerts)
	api.GET("/weather/parcelas/:id", ctl.Weather.Parcela)

	api.POST("/ocr/label", ctl.OCR.Label)
	api.GET("/ocr/scans", ctl.OCR.Scans)

	api.GET("/subscription/plans", ctl.Subscription.Plans)
	api.GET("/subscription", ctl.Subscription.Current)
	api.POST("/subscription/upgrade", ctl.Subscription.Upgrade)
	api.POST("/subscription/cancel", ctl.Subscription.Cancel)

	api.GET("/user/profile", ctl.User.Profile)
	api.GET("/user/stats", ctl.User.Stats)

	api.GET("/export/cuaderno", ctl.Export.Cuaderno)

	api.GET("/sync", ctl.Sync.Pull)
	api.POST("/sync", ctl.Sync.Push)
	return e
}
