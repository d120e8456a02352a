package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/clerk"
)

// TokenVerifier verifies a session token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*clerk.Claims, error)
}

// ClerkAuth requires a valid Clerk session token (Authorization: Bearer or
// the __session cookie). Requests already authenticated by DevAuth pass.
func ClerkAuth(v TokenVerifier, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) != "" {
				return next(c)
			}
			token := bearer(c)
			if token == "" {
				return apperr.Unauthorized("")
			}
			if v == nil {
				return apperr.Unauthorized("autenticación no configurada")
			}
			claims, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
				return &apperr.Error{Status: http.StatusUnauthorized, Code: apperr.CodeUnauthorized, Message: "token no válido o caducado", Err: err}
			}
			c.Set(KeyUID, claims.Subject)
			if claims.OrgID != "" {
				c.Set(KeyOrgID, claims.OrgID)
				c.Set(KeyOrgRole, claims.OrgRole)
			}
			c.Set(KeySessionID, claims.SessionID)
			return next(c)
		}
	}
}

// RequireUser rejects requests without an authenticated user.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return apperr.Unauthorized("")
			}
			return next(c)
		}
	}
}

func bearer(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if ck, err := c.Cookie("__session"); err == nil {
		return ck.Value
	}
	return ""
}
