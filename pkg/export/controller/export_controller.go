package controller

import "github.com/labstack/echo/v4"

type ExportController interface {
	Cuaderno(c echo.Context) error
}
