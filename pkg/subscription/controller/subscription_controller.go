package controller

import "github.com/labstack/echo/v4"

type SubscriptionController interface {
	Plans(c echo.Context) error
	Current(c echo.Context) error
	Upgrade(c echo.Context) error
	Cancel(c echo.Context) error
}
