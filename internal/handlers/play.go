package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/services"
)

// PlayHandlers covers the running-game actions: sabotages, meetings, votes
// and deaths.
type PlayHandlers struct {
	games      *services.GameManager
	interrupts *services.InterruptCoordinator
	voting     *services.VotingEngine
	hub        *services.Hub
}

func NewPlayHandlers(games *services.GameManager, interrupts *services.InterruptCoordinator, voting *services.VotingEngine, hub *services.Hub) *PlayHandlers {
	return &PlayHandlers{games: games, interrupts: interrupts, voting: voting, hub: hub}
}

// POST /api/games/{gameId}/sabotage
func (h *PlayHandlers) TriggerSabotage(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	it, err := h.interrupts.TriggerSabotage(gameID, claims.PlayerID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"interrupt": it})
}

// POST /api/games/{gameId}/sabotage/complete
func (h *PlayHandlers) CompleteSabotage(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := accessorySession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		InterruptID string  `json:"interrupt_id"`
		Score       float64 `json:"score"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	cleared, err := h.interrupts.CompleteSabotageMini(gameID, claims.AccessoryID, body.InterruptID, body.Score)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"cleared": cleared})
}

// POST /api/games/{gameId}/meetings
func (h *PlayHandlers) CallMeeting(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	it, meeting, err := h.interrupts.CallMeeting(gameID, claims.PlayerID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"interrupt":  it,
		"meeting_id": meeting.Id,
	})
}

// POST /api/games/{gameId}/meetings/{meetingId}/commence-voting
func (h *PlayHandlers) CommenceVoting(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := gameSession(e, gameID)
	if err != nil {
		return err
	}

	// accessories drive meeting control directly; a player caller must be
	// the host, which the coordinator enforces
	it, err := h.interrupts.CommenceVoting(gameID, claims.PlayerID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"interrupt": it})
}

// POST /api/games/{gameId}/meetings/{meetingId}/votes
func (h *PlayHandlers) CastVote(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	meetingID := e.Request.PathValue("meetingId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		Target string `json:"target"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	if err := h.voting.CastVote(gameID, meetingID, claims.PlayerID, body.Target); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

// POST /api/games/{gameId}/meetings/{meetingId}/resolve
func (h *PlayHandlers) ResolveMeeting(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	meetingID := e.Request.PathValue("meetingId")
	if _, err := gameSession(e, gameID); err != nil {
		return err
	}

	result, err := h.voting.Resolve(gameID, meetingID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"result": result})
}

// POST /api/games/{gameId}/kill
func (h *PlayHandlers) MarkDead(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		VictimID string `json:"victim_id"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	winner, ended, err := h.games.MarkDead(gameID, claims.PlayerID, body.VictimID)
	if err != nil {
		return apiError(err)
	}

	h.broadcastDeath(gameID, body.VictimID, winner, ended)
	return e.JSON(http.StatusOK, map[string]any{"ended": ended, "winner": winner})
}

// POST /api/games/{gameId}/who-died
func (h *PlayHandlers) SelectWhoDied(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	if _, err := accessorySession(e, gameID); err != nil {
		return err
	}

	var body struct {
		VictimID string `json:"victim_id"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	winner, ended, err := h.games.SelectWhoDied(gameID, body.VictimID)
	if err != nil {
		return apiError(err)
	}

	h.broadcastDeath(gameID, body.VictimID, winner, ended)
	return e.JSON(http.StatusOK, map[string]any{"ended": ended, "winner": winner})
}

func (h *PlayHandlers) broadcastDeath(gameID, victimID string, winner models.Winner, ended bool) {
	h.hub.Broadcast(gameID, &models.Event{
		Type:    models.EventPlayerDied,
		Payload: map[string]any{"player_id": victimID},
	})
	if ended {
		h.hub.Broadcast(gameID, &models.Event{
			Type:    models.EventGameEnded,
			Payload: map[string]any{"winner": winner},
		})
	}
}
