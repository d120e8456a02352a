package controller

import "github.com/labstack/echo/v4"

type ParcelaController interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
	Area(c echo.Context) error
}
