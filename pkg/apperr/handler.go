package apperr

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Envelope is the body of every error response.
type Envelope struct {
	Success   bool              `json:"success"`
	Error     Code              `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Normalize converts any error into an *Error.
func Normalize(err error) *Error {
	if ae, ok := As(err); ok {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return &Error{Status: he.Code, Code: codeForStatus(he.Code), Message: msg, Err: he.Internal}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: "recurso no encontrado", Err: err}
	}
	return Internal(err)
}

func codeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return CodeUpstream
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeBadRequest
}

// Handler renders errors as the JSON envelope. It is installed as
// echo.Echo.HTTPErrorHandler.
func Handler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := Normalize(err)
		if ae.Status >= 500 {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("code", string(ae.Code)),
				zap.Error(err),
			)
		}
		env := Envelope{
			Success:   false,
			Error:     ae.Code,
			Message:   ae.Message,
			Details:   ae.Details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(ae.Status)
		} else {
			err = c.JSON(ae.Status, env)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
