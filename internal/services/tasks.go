package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/security"
)

// TaskAdjudicator validates task progress claims: QR scans for physical
// tasks, mini-game scores for digital ones and photo proofs. Each completion
// re-runs the win evaluator, since a finished hand can end the game.
type TaskAdjudicator struct {
	app    core.App
	tokens *security.TokenManager
	hub    *Hub
}

func NewTaskAdjudicator(app core.App, tokens *security.TokenManager, hub *Hub) *TaskAdjudicator {
	return &TaskAdjudicator{app: app, tokens: tokens, hub: hub}
}

// ScanResult tells the client what to do after a successful scan: submit a
// photo proof, or play the given mini-game.
type ScanResult struct {
	TaskID        string `json:"task_id"`
	AssignmentID  string `json:"assignment_id"`
	RequiresPhoto bool   `json:"requires_photo"`
	MiniID        string `json:"mini_id,omitempty"`
}

// Scan verifies a QR scan token against the player's assignments. A dead
// player scanning a physical task is redirected to a ghost mini-game when
// the game allows it.
func (ta *TaskAdjudicator) Scan(gameID, playerID, token string) (*ScanResult, error) {
	claims, err := ta.tokens.VerifyScan(token)
	if err != nil {
		return nil, err
	}
	if claims.GameID != gameID {
		return nil, ErrTokenMismatch
	}

	var result *ScanResult
	err = ta.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return ErrGameNotRunning
		}

		player, err := tx.FindRecordById("players", playerID)
		if err != nil || player.GetString("game_id") != gameID {
			return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
		}

		task, err := tx.FindRecordById("tasks", claims.TaskID)
		if err != nil || task.GetString("game_id") != gameID {
			return fmt.Errorf("task %s: %w", claims.TaskID, ErrNotFound)
		}
		if task.GetString("qr_id") != claims.QRID {
			return ErrTokenMismatch
		}

		assignment, err := ta.findAssignment(tx, gameID, playerID, task.Id)
		if err != nil {
			return err
		}
		if assignment.GetString("status") == string(models.AssignmentComplete) {
			return ErrAlreadyComplete
		}

		cfg := readGameConfig(game)
		result = &ScanResult{TaskID: task.Id, AssignmentID: assignment.Id}
		switch {
		case task.GetString("type") == string(models.TaskDigital):
			result.MiniID = task.GetString("mini_id")
		case player.GetBool("alive"):
			result.RequiresPhoto = true
		case cfg.GhostTasksEnabled:
			result.MiniID = GhostMiniID
		default:
			return ErrDead
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteDigital accepts a mini-game run for a digital task (or a ghost
// substitute for a physical one) and marks the assignment complete.
func (ta *TaskAdjudicator) CompleteDigital(gameID, playerID, taskID, miniID string, score float64) (models.Winner, bool, error) {
	var winner models.Winner
	var ended bool

	err := ta.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return ErrGameNotRunning
		}

		player, err := tx.FindRecordById("players", playerID)
		if err != nil || player.GetString("game_id") != gameID {
			return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
		}

		task, err := tx.FindRecordById("tasks", taskID)
		if err != nil || task.GetString("game_id") != gameID {
			return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}

		cfg := readGameConfig(game)
		expected := task.GetString("mini_id")
		if task.GetString("type") == string(models.TaskPhysical) {
			// only a dead player may swap a physical task for the ghost mini;
			// the living complete physical tasks with a photo proof
			if player.GetBool("alive") || !cfg.GhostTasksEnabled {
				return ErrMiniMismatch
			}
			expected = GhostMiniID
		}
		if miniID != expected {
			return ErrMiniMismatch
		}
		if limit, ok := MiniScoreCaps[miniID]; ok && score > limit {
			return ErrScoreTooHigh
		}

		assignment, err := ta.findAssignment(tx, gameID, playerID, taskID)
		if err != nil {
			return err
		}
		if assignment.GetString("status") == string(models.AssignmentComplete) {
			return ErrAlreadyComplete
		}
		assignment.Set("status", string(models.AssignmentComplete))
		assignment.Set("score", score)
		assignment.Set("completed_at", time.Now())
		if err := tx.Save(assignment); err != nil {
			return fmt.Errorf("failed to save assignment: %w", err)
		}

		winner, ended, err = EvaluateWin(tx, game)
		return err
	})
	if err != nil {
		return "", false, err
	}

	ta.broadcastCompletion(gameID, playerID, taskID, winner, ended)
	return winner, ended, nil
}

// SubmitProof completes a physical task with a photo proof reference. The
// photo is stored client-side; only its URL is kept for the end screen.
func (ta *TaskAdjudicator) SubmitProof(gameID, playerID, taskID, proofURL string) (models.Winner, bool, error) {
	var winner models.Winner
	var ended bool

	err := ta.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return ErrGameNotRunning
		}

		assignment, err := ta.findAssignment(tx, gameID, playerID, taskID)
		if err != nil {
			return err
		}
		if assignment.GetString("status") == string(models.AssignmentComplete) {
			return ErrAlreadyComplete
		}
		assignment.Set("status", string(models.AssignmentComplete))
		assignment.Set("proof_url", proofURL)
		assignment.Set("completed_at", time.Now())
		if err := tx.Save(assignment); err != nil {
			return fmt.Errorf("failed to save assignment: %w", err)
		}

		winner, ended, err = EvaluateWin(tx, game)
		return err
	})
	if err != nil {
		return "", false, err
	}

	ta.broadcastCompletion(gameID, playerID, taskID, winner, ended)
	return winner, ended, nil
}

// GetAssignments lists a player's hand with task details joined in.
func (ta *TaskAdjudicator) GetAssignments(gameID, playerID string) ([]*core.Record, error) {
	records, err := ta.app.FindRecordsByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId}",
		"created",
		100,
		0,
		map[string]any{"gameId": gameID, "playerId": playerID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return records, nil
}

// findAssignment resolves the player's assignment for a task, preferring a
// pending one (duplicate hands hold several assignments of the same task).
func (ta *TaskAdjudicator) findAssignment(tx core.App, gameID, playerID, taskID string) (*core.Record, error) {
	pending, err := tx.FindFirstRecordByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId} && task_id = {:taskId} && status = {:status}",
		map[string]any{"gameId": gameID, "playerId": playerID, "taskId": taskID, "status": string(models.AssignmentPending)},
	)
	if err == nil {
		return pending, nil
	}
	assignment, err := tx.FindFirstRecordByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId} && task_id = {:taskId}",
		map[string]any{"gameId": gameID, "playerId": playerID, "taskId": taskID},
	)
	if err != nil {
		return nil, fmt.Errorf("assignment: %w", ErrNotFound)
	}
	return assignment, nil
}

func (ta *TaskAdjudicator) broadcastCompletion(gameID, playerID, taskID string, winner models.Winner, ended bool) {
	ta.hub.Broadcast(gameID, &models.Event{
		Type: models.EventTaskCompleted,
		Payload: map[string]any{
			"player_id": playerID,
			"task_id":   taskID,
		},
	})
	if ended {
		ta.hub.Broadcast(gameID, &models.Event{
			Type: models.EventGameEnded,
			Payload: map[string]any{
				"winner": winner,
			},
		})
	}
}
