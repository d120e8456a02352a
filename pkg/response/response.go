package response

import (
	"reflect"
	"time"

	"github.com/labstack/echo/v4"
)

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Count     *int   `json:"count,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// JSON writes {success:true, data}. Slices also get a count and are never
// serialized as null.
func JSON(c echo.Context, status int, data any) error {
	env := Envelope{Success: true, Data: data, Timestamp: now()}
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice {
		n := v.Len()
		env.Count = &n
		if v.IsNil() {
			env.Data = []any{}
		}
	}
	return c.JSON(status, env)
}

func Message(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: msg, Timestamp: now()})
}
