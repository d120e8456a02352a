package controller

import "github.com/labstack/echo/v4"

type ActividadController interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
	PatchEstado(c echo.Context) error
	Resumen(c echo.Context) error
	ListByParcela(c echo.Context) error
}
