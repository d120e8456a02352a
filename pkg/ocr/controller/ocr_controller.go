package controller

import "github.com/labstack/echo/v4"

type OCRController interface {
	Label(c echo.Context) error
	Scans(c echo.Context) error
}
