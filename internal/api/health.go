package api

import (
	"net/http"
	"time"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

// IngestStats exposes pipeline counters to the health endpoint.
type IngestStats interface {
	DeviceCount() int64
	EventCount() int64
}

type HealthHandler struct {
	db        *database.DB
	stats     IngestStats
	version   string
	startTime time.Time
}

func NewHealthHandler(db *database.DB, stats IngestStats, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{db: db, stats: stats, version: version, startTime: startTime}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	dbStatus := "ok"
	if err := h.db.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
		code = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":         status,
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"database":       dbStatus,
	}
	if h.stats != nil {
		body["devices_processed"] = h.stats.DeviceCount()
		body["events_recorded"] = h.stats.EventCount()
	}
	WriteJSON(w, code, body)
}
