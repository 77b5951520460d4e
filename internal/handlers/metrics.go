package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/services"
)

// HandleMetrics returns server metrics
func HandleMetrics(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, metrics.Snapshot())
	}
}

// HandleHealth returns server health status
func HandleHealth(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot()
		return e.JSON(http.StatusOK, map[string]any{
			"status":             "healthy",
			"active_connections": snapshot.ActiveConnections,
			"active_games":       snapshot.ActiveGames,
			"uptime_seconds":     snapshot.UptimeSeconds,
		})
	}
}
