package controller

import "github.com/labstack/echo/v4"

type UserController interface {
	Profile(c echo.Context) error
	Stats(c echo.Context) error
}
