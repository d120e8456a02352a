package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/health/controller"
	"cuaderno/pkg/response"
)

var appStart = time.Now()

// Pinger is satisfied by cache.Cache.
type Pinger interface {
	Ping(ctx context.Context) error
	Enabled() bool
}

type healthCtrl struct {
	db      *gorm.DB
	cache   Pinger
	version string
}

func New(db *gorm.DB, cache Pinger, version string) controller.HealthController {
	return &healthCtrl{db: db, cache: cache, version: version}
}

type check struct {
	OK      bool   `json:"ok"`
	Enabled *bool  `json:"enabled,omitempty"`
	Err     string `json:"err,omitempty"`
}

type report struct {
	Status    string           `json:"status"`
	UptimeSec int              `json:"uptime_sec"`
	Checks    map[string]check `json:"checks"`
	Version   string           `json:"version"`
	Time      string           `json:"time"`
}

func (h *healthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := check{OK: true}
	if h.db == nil {
		db = check{Err: "gorm db is nil"}
	} else if sqlDB, err := h.db.DB(); err != nil {
		db = check{Err: "db.DB(): " + err.Error()}
	} else if err := sqlDB.PingContext(ctx); err != nil {
		db = check{Err: "ping: " + err.Error()}
	}

	cc := check{OK: true}
	if h.cache != nil {
		on := h.cache.Enabled()
		cc.Enabled = &on
		if on {
			if err := h.cache.Ping(ctx); err != nil {
				cc = check{Enabled: &on, Err: "ping: " + err.Error()}
			}
		}
	}

	r := report{
		Status:    "ok",
		UptimeSec: int(time.Since(appStart).Seconds()),
		Checks:    map[string]check{"database": db, "cache": cc},
		Version:   h.version,
		Time:      time.Now().UTC().Format(time.RFC3339),
	}
	// a cache outage only degrades; the database is required
	if !cc.OK {
		r.Status = "degraded"
	}
	if !db.OK {
		r.Status = "down"
		return c.JSON(http.StatusServiceUnavailable, response.Envelope{
			Success:   false,
			Data:      r,
			Message:   "servicio no disponible",
			Error:     string(apperr.CodeUnavailable),
			Timestamp: r.Time,
		})
	}
	return response.JSON(c, http.StatusOK, r)
}
