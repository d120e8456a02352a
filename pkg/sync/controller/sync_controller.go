package controller

import "github.com/labstack/echo/v4"

type SyncController interface {
	Pull(c echo.Context) error
	Push(c echo.Context) error
}
