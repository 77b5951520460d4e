package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
)

// EvaluateWin checks all win conditions against the current roster and task
// state and, when one holds, ends the game. It is called inside the same
// transaction as whatever state change might have triggered it (a kill, a
// task completion, a vote ejection) so the game cannot end twice.
//
// Returns the winner and whether the game just ended. An already ended game
// is a no-op.
func EvaluateWin(tx core.App, game *core.Record) (models.Winner, bool, error) {
	if game.GetString("status") == string(models.StatusEnded) {
		return "", false, nil
	}

	players, err := tx.FindRecordsByFilter(
		"players",
		"game_id = {:gameId}",
		"joined_at",
		100,
		0,
		map[string]any{"gameId": game.Id},
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to get players: %w", err)
	}

	aliveImpostors := 0
	aliveOthers := 0
	for _, p := range players {
		if !p.GetBool("alive") {
			continue
		}
		if p.GetString("role") == string(models.RoleImpostor) {
			aliveImpostors++
		} else {
			aliveOthers++
		}
	}

	// Parity: impostors win the moment they can no longer be outvoted.
	if aliveImpostors > 0 && aliveImpostors >= aliveOthers {
		return endGame(tx, game, models.WinnerImpostors)
	}

	// With impostors eliminated, crew wins once every non-impostor has
	// finished their tasks. A snitch can also win alone by finishing
	// theirs first, even with impostors still alive; the collective crew
	// win takes priority when both hold.
	allCrewDone := true
	snitchDone := false
	for _, p := range players {
		role := p.GetString("role")
		if role == string(models.RoleImpostor) {
			continue
		}
		done, err := playerTasksDone(tx, game.Id, p.Id)
		if err != nil {
			return "", false, err
		}
		if !done {
			allCrewDone = false
		}
		if role == string(models.RoleSnitch) && done {
			snitchDone = true
		}
	}
	if aliveImpostors == 0 && allCrewDone {
		return endGame(tx, game, models.WinnerCrewmates)
	}
	if snitchDone {
		return endGame(tx, game, models.WinnerSnitch)
	}

	return "", false, nil
}

func endGame(tx core.App, game *core.Record, winner models.Winner) (models.Winner, bool, error) {
	game.Set("status", string(models.StatusEnded))
	game.Set("winner", string(winner))
	game.Set("ended_at", time.Now())
	if err := writeInterrupt(game, nil); err != nil {
		return "", false, err
	}
	if err := tx.Save(game); err != nil {
		return "", false, fmt.Errorf("failed to save game end: %w", err)
	}
	return winner, true, nil
}

// playerTasksDone reports whether every assignment of the player is complete.
// A player with no assignments counts as done.
func playerTasksDone(tx core.App, gameID, playerID string) (bool, error) {
	pending, err := tx.FindRecordsByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId} && status = {:status}",
		"",
		1,
		0,
		map[string]any{
			"gameId":   gameID,
			"playerId": playerID,
			"status":   string(models.AssignmentPending),
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to get assignments: %w", err)
	}
	return len(pending) == 0, nil
}
