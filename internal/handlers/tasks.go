package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/services"
)

// TaskHandlers covers the player-facing task endpoints: listing the hand,
// QR scans and completions.
type TaskHandlers struct {
	tasks *services.TaskAdjudicator
}

func NewTaskHandlers(tasks *services.TaskAdjudicator) *TaskHandlers {
	return &TaskHandlers{tasks: tasks}
}

// GET /api/games/{gameId}/assignments
func (h *TaskHandlers) ListAssignments(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	assignments, err := h.tasks.GetAssignments(gameID, claims.PlayerID)
	if err != nil {
		return apiError(err)
	}

	out := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, map[string]any{
			"id":      a.Id,
			"task_id": a.GetString("task_id"),
			"status":  a.GetString("status"),
		})
	}
	return e.JSON(http.StatusOK, map[string]any{"assignments": out})
}

// POST /api/games/{gameId}/tasks/scan
func (h *TaskHandlers) Scan(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	result, err := h.tasks.Scan(gameID, claims.PlayerID, body.Token)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// POST /api/games/{gameId}/tasks/{taskId}/complete
func (h *TaskHandlers) CompleteDigital(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	taskID := e.Request.PathValue("taskId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		MiniID string  `json:"mini_id"`
		Score  float64 `json:"score"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}

	winner, ended, err := h.tasks.CompleteDigital(gameID, claims.PlayerID, taskID, body.MiniID, body.Score)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ended": ended, "winner": winner})
}

// POST /api/games/{gameId}/tasks/{taskId}/proof
func (h *TaskHandlers) SubmitProof(e *core.RequestEvent) error {
	gameID := e.Request.PathValue("gameId")
	taskID := e.Request.PathValue("taskId")
	claims, err := playerSession(e, gameID)
	if err != nil {
		return err
	}

	var body struct {
		ProofURL string `json:"proof_url"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Invalid request body.", err)
	}
	if body.ProofURL == "" {
		return apis.NewBadRequestError("proof_url is required.", nil)
	}

	winner, ended, err := h.tasks.SubmitProof(gameID, claims.PlayerID, taskID, body.ProofURL)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ended": ended, "winner": winner})
}
