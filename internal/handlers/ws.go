package handlers

import (
	"context"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/config"
	"github.com/tripleaaa123/amongusfr/internal/services"
)

// WSHandler upgrades clients onto the game event stream. The stream is
// one-way; client actions all go through the HTTP API.
type WSHandler struct {
	hub     *services.Hub
	games   *services.GameManager
	cfg     *config.Config
	metrics *services.Metrics
}

func NewWSHandler(hub *services.Hub, games *services.GameManager, cfg *config.Config, metrics *services.Metrics) *WSHandler {
	return &WSHandler{hub: hub, games: games, cfg: cfg, metrics: metrics}
}

// GET /ws/{gameId}
func (h *WSHandler) HandleWebSocket(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims := session(e)
	if claims == nil || claims.GameID != gameID {
		return apis.NewForbiddenError("Credential does not grant access to this game.", nil)
	}

	if _, err := h.games.GetGame(gameID); err != nil {
		return apiError(err)
	}
	if h.hub.ConnectionCount(gameID) >= config.MaxConnectionsPerGame {
		return apis.NewApiError(429, "Too many connections for this game.", nil)
	}

	conn, err := websocket.Accept(e.Response, e.Request, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.metrics.IncrementConnectionErrors()
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "")

	if claims.PlayerID != "" {
		h.games.TouchPlayer(claims.PlayerID)
	}

	h.hub.Register(gameID, conn, claims.PlayerID)
	defer h.hub.Unregister(gameID, conn, claims.PlayerID)

	// Drain loop; inbound frames are ignored, the read only detects close.
	ctx := context.Background()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	return nil
}
