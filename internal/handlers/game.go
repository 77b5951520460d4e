package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/services"
)

// GameHandlers covers the lobby lifecycle: create, join, configure, start
// and end.
type GameHandlers struct {
	games *services.GameManager
	hub   *services.Hub
}

func NewGameHandlers(games *services.GameManager, hub *services.Hub) *GameHandlers {
	return &GameHandlers{games: games, hub: hub}
}

// POST /api/games
func (h *GameHandlers) CreateGame(e *core.RequestEvent) error {
	var body struct {
		Nickname string `json:"nickname"`
		DeviceID string `json:"device_id"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}
	if body.DeviceID == "" {
		return apis.NewBadRequestError("device_id is required.", nil)
	}

	game, host, token, err := h.games.CreateGame(body.Nickname, body.DeviceID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"game":         gameResponse(game),
		"player":       playerResponse(host, true),
		"rejoin_token": token,
	})
}

// POST /api/games/join
func (h *GameHandlers) JoinGame(e *core.RequestEvent) error {
	var body struct {
		Code     string `json:"code"`
		Nickname string `json:"nickname"`
		DeviceID string `json:"device_id"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}
	if body.DeviceID == "" {
		return apis.NewBadRequestError("device_id is required.", nil)
	}

	game, player, token, err := h.games.JoinGame(body.Code, body.Nickname, body.DeviceID)
	if err != nil {
		return apiError(err)
	}

	h.hub.Broadcast(game.Id, &models.Event{
		Type: models.EventPlayerJoined,
		Payload: map[string]any{
			"player": playerResponse(player, false),
		},
	})

	return e.JSON(http.StatusOK, map[string]any{
		"game":         gameResponse(game),
		"player":       playerResponse(player, true),
		"rejoin_token": token,
	})
}

// POST /api/accessories/join
func (h *GameHandlers) JoinAccessory(e *core.RequestEvent) error {
	var body struct {
		Code string `json:"code"`
		Role string `json:"role"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	game, accessory, token, err := h.games.JoinAccessory(body.Code, body.Role)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"game":         gameResponse(game),
		"accessory_id": accessory.Id,
		"role":         accessory.GetString("role"),
		"token":        token,
	})
}

// GET /api/games/{gameId}
func (h *GameHandlers) GetGame(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims := session(e)
	if claims == nil || claims.GameID != gameID {
		return apis.NewForbiddenError("Credential does not grant access to this game.", nil)
	}

	game, err := h.games.GetGame(gameID)
	if err != nil {
		return apiError(err)
	}
	players, err := h.games.GetPlayers(gameID)
	if err != nil {
		return apiError(err)
	}

	roster := make([]map[string]any, 0, len(players))
	for _, p := range players {
		// A player sees their own role; everyone else's stays hidden
		// until the game ends.
		showRole := game.GetString("status") == string(models.StatusEnded) || p.Id == claims.PlayerID
		roster = append(roster, playerResponse(p, showRole))
	}

	return e.JSON(http.StatusOK, map[string]any{
		"game":    gameResponse(game),
		"players": roster,
	})
}

// POST /api/games/{gameId}/start
func (h *GameHandlers) StartGame(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	game, err := h.games.StartGame(gameID, claims.PlayerID)
	if err != nil {
		return apiError(err)
	}

	h.hub.Broadcast(gameID, &models.Event{
		Type:    models.EventGameStarted,
		Payload: map[string]any{"game": gameResponse(game)},
	})
	return e.JSON(http.StatusOK, map[string]any{"game": gameResponse(game)})
}

// PATCH /api/games/{gameId}/config
func (h *GameHandlers) UpdateConfig(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	cfg := models.DefaultGameConfig()
	if err := e.BindBody(cfg); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}
	if cfg.PhysDigRatio.Physical+cfg.PhysDigRatio.Digital != 100 {
		return apis.NewBadRequestError("phys_dig_ratio must sum to 100.", nil)
	}
	if !models.ValidTiePolicy(cfg.Voting.TiePolicy) {
		return apis.NewBadRequestError("invalid tie policy.", nil)
	}

	if err := h.games.UpdateConfig(gameID, claims.PlayerID, cfg); err != nil {
		return apiError(err)
	}

	h.hub.Broadcast(gameID, &models.Event{
		Type:    models.EventConfigUpdated,
		Payload: map[string]any{"config": cfg},
	})
	return e.JSON(http.StatusOK, map[string]any{"config": cfg})
}

// POST /api/games/{gameId}/end
func (h *GameHandlers) EndGame(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	if err := h.games.EndGame(gameID, claims.PlayerID); err != nil {
		return apiError(err)
	}

	h.hub.Broadcast(gameID, &models.Event{
		Type:    models.EventGameEnded,
		Payload: map[string]any{"winner": models.WinnerNone},
	})
	return e.JSON(http.StatusOK, map[string]any{"status": models.StatusEnded})
}

func gameResponse(game *core.Record) map[string]any {
	return map[string]any{
		"id":             game.Id,
		"code":           game.GetString("code"),
		"accessory_code": game.GetString("accessory_code"),
		"status":         game.GetString("status"),
		"winner":         game.GetString("winner"),
		"host_player_id": game.GetString("host_player_id"),
	}
}

func playerResponse(player *core.Record, includeRole bool) map[string]any {
	resp := map[string]any{
		"id":       player.Id,
		"nickname": player.GetString("nickname"),
		"alive":    player.GetBool("alive"),
	}
	if includeRole {
		resp["role"] = player.GetString("role")
	}
	return resp
}
