package controllerImp

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cuaderno/pkg/clerk"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/response"
	"cuaderno/pkg/subscription/service"
	"cuaderno/pkg/user/controller"
)

// UserLookup fetches the identity provider's profile.
type UserLookup interface {
	Enabled() bool
	GetUser(ctx context.Context, id string) (*clerk.User, error)
}

type userCtrl struct {
	subs  service.SubscriptionService
	users UserLookup
	log   *zap.Logger
}

func New(subs service.SubscriptionService, users UserLookup, log *zap.Logger) controller.UserController {
	return &userCtrl{subs: subs, users: users, log: log}
}

type profile struct {
	UID     string      `json:"uid"`
	OrgID   string      `json:"org_id,omitempty"`
	OrgRole string      `json:"org_role,omitempty"`
	Plan    string      `json:"plan"`
	User    *clerk.User `json:"user,omitempty"`
}

func (h *userCtrl) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	uid := middleware.UserID(c)
	p, _, err := h.subs.CurrentPlan(ctx, uid)
	if err != nil {
		return err
	}
	out := profile{UID: uid, OrgID: middleware.OrgID(c), Plan: p.ID}
	out.OrgRole, _ = c.Get(middleware.KeyOrgRole).(string)
	if h.users != nil && h.users.Enabled() {
		u, err := h.users.GetUser(ctx, uid)
		if err != nil {
			// the profile still works without the Backend API
			h.log.Warn("clerk user lookup failed", zap.String("uid", uid), zap.Error(err))
		} else {
			out.User = u
		}
	}
	return response.JSON(c, http.StatusOK, out)
}

func (h *userCtrl) Stats(c echo.Context) error {
	st, err := h.subs.Status(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, echo.Map{
		"plan":  st.Plan.ID,
		"usage": st.Usage,
	})
}
