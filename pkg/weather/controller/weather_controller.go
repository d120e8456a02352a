package controller

import "github.com/labstack/echo/v4"

type WeatherController interface {
	Current(c echo.Context) error
	Forecast(c echo.Context) error
	Alerts(c echo.Context) error
	Parcela(c echo.Context) error
}
