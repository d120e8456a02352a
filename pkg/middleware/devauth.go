package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const DevUserHeader = "X-Dev-User"

// DevAuth authenticates requests carrying X-Dev-User as that user. Only for
// local development; when enabled=false it passes through.
func DevAuth(enabled bool, log *zap.Logger) echo.MiddlewareFunc {
	if enabled {
		log.Warn("development auth enabled: X-Dev-User is trusted without a token")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			if uid := c.Request().Header.Get(DevUserHeader); uid != "" {
				c.Set(KeyUID, uid)
				if org := c.Request().Header.Get("X-Dev-Org"); org != "" {
					c.Set(KeyOrgID, org)
				}
			}
			return next(c)
		}
	}
}
