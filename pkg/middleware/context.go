package middleware

import "github.com/labstack/echo/v4"

// Keys set on the echo context by the auth middlewares.
const (
	KeyUID       = "uid"
	KeyOrgID     = "org_id"
	KeyOrgRole   = "org_role"
	KeySessionID = "session_id"
)

// UserID returns the authenticated user id, or "".
func UserID(c echo.Context) string {
	uid, _ := c.Get(KeyUID).(string)
	return uid
}

func OrgID(c echo.Context) string {
	org, _ := c.Get(KeyOrgID).(string)
	return org
}
