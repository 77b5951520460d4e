package services_test

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/security"
	"github.com/tripleaaa123/amongusfr/internal/services"
	"github.com/tripleaaa123/amongusfr/internal/testutil"
)

func newAdjudicator(app core.App) *services.TaskAdjudicator {
	return services.NewTaskAdjudicator(app, security.NewTokenManager(testutil.TestSecret), nil)
}

// startedGameWithRatio starts a 4-player game whose task pool is all
// physical or all digital, so every hand is of a known task type.
func startedGameWithRatio(t *testing.T, app core.App, physical int) (*core.Record, []*core.Record) {
	t.Helper()

	gm := testutil.NewGameManager(app)
	game, host, players := createLobby(t, app, 3)

	cfg := models.DefaultGameConfig()
	cfg.PhysDigRatio = models.PhysDigRatio{Physical: physical, Digital: 100 - physical}
	cfg.TasksPerPlayer = 3
	require.NoError(t, gm.UpdateConfig(game.Id, host.Id, cfg))

	_, err := gm.StartGame(game.Id, host.Id)
	require.NoError(t, err)
	return game, players
}

// firstAssignment returns a (task, assignment) pair from the player's hand.
func firstAssignment(t *testing.T, app core.App, gameID, playerID string) (*core.Record, *core.Record) {
	t.Helper()

	assignments, err := app.FindRecordsByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId}",
		"", 1, 0,
		map[string]any{"gameId": gameID, "playerId": playerID})
	require.NoError(t, err)
	require.NotEmpty(t, assignments)

	task, err := app.FindRecordById("tasks", assignments[0].GetString("task_id"))
	require.NoError(t, err)
	return task, assignments[0]
}

func scanToken(t *testing.T, gameID string, task *core.Record) string {
	t.Helper()
	tokens := security.NewTokenManager(testutil.TestSecret)
	token, err := tokens.IssueScan(gameID, task.Id, task.GetString("qr_id"), time.Hour)
	require.NoError(t, err)
	return token
}

func TestScan_PhysicalTask(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 100)
	player := players[0]
	task, assignment := firstAssignment(t, app, game.Id, player.Id)

	result, err := adjudicator.Scan(game.Id, player.Id, scanToken(t, game.Id, task))
	require.NoError(t, err)
	assert.Equal(t, task.Id, result.TaskID)
	assert.Equal(t, assignment.Id, result.AssignmentID)
	assert.True(t, result.RequiresPhoto)
	assert.Empty(t, result.MiniID)
}

func TestScan_Rejections(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 100)
	player := players[0]
	task, _ := firstAssignment(t, app, game.Id, player.Id)
	tokens := security.NewTokenManager(testutil.TestSecret)

	t.Run("garbage token", func(t *testing.T) {
		_, err := adjudicator.Scan(game.Id, player.Id, "not-a-token")
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})

	t.Run("token for another game", func(t *testing.T) {
		token, err := tokens.IssueScan("other-game", task.Id, task.GetString("qr_id"), time.Hour)
		require.NoError(t, err)
		_, err = adjudicator.Scan(game.Id, player.Id, token)
		assert.ErrorIs(t, err, services.ErrTokenMismatch)
	})

	t.Run("tag id does not match the task", func(t *testing.T) {
		token, err := tokens.IssueScan(game.Id, task.Id, "qr_wrong", time.Hour)
		require.NoError(t, err)
		_, err = adjudicator.Scan(game.Id, player.Id, token)
		assert.ErrorIs(t, err, services.ErrTokenMismatch)
	})

	t.Run("foreign signature", func(t *testing.T) {
		forged, err := security.NewTokenManager("wrong-secret").
			IssueScan(game.Id, task.Id, task.GetString("qr_id"), time.Hour)
		require.NoError(t, err)
		_, err = adjudicator.Scan(game.Id, player.Id, forged)
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})

	t.Run("task not in hand", func(t *testing.T) {
		other := otherPlayersTask(t, app, game.Id, player.Id)
		if other == nil {
			t.Skip("all tasks in hand")
		}
		_, err := adjudicator.Scan(game.Id, player.Id, scanToken(t, game.Id, other))
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestScan_GhostSubstitution(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 100)
	player := players[1]
	task, _ := firstAssignment(t, app, game.Id, player.Id)

	record, err := app.FindRecordById("players", player.Id)
	require.NoError(t, err)
	record.Set("alive", false)
	require.NoError(t, app.Save(record))

	t.Run("ghost gets a digital substitute", func(t *testing.T) {
		result, err := adjudicator.Scan(game.Id, player.Id, scanToken(t, game.Id, task))
		require.NoError(t, err)
		assert.False(t, result.RequiresPhoto)
		assert.Equal(t, services.GhostMiniID, result.MiniID)
	})

	t.Run("ghost tasks disabled", func(t *testing.T) {
		testutil.SetGameConfig(t, app, game.Id, func(cfg *models.GameConfig) {
			cfg.GhostTasksEnabled = false
		})
		_, err := adjudicator.Scan(game.Id, player.Id, scanToken(t, game.Id, task))
		assert.ErrorIs(t, err, services.ErrDead)
	})
}

func TestCompleteDigital(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 0)
	player := players[0]
	task, _ := firstAssignment(t, app, game.Id, player.Id)
	miniID := task.GetString("mini_id")

	t.Run("wrong mini-game", func(t *testing.T) {
		wrong := "mg_wires"
		if miniID == wrong {
			wrong = "mg_reaction"
		}
		_, _, err := adjudicator.CompleteDigital(game.Id, player.Id, task.Id, wrong, 100)
		assert.ErrorIs(t, err, services.ErrMiniMismatch)
	})

	t.Run("implausible score", func(t *testing.T) {
		_, _, err := adjudicator.CompleteDigital(game.Id, player.Id, task.Id, miniID, 1e9)
		assert.ErrorIs(t, err, services.ErrScoreTooHigh)
	})

	t.Run("completes once", func(t *testing.T) {
		_, ended, err := adjudicator.CompleteDigital(game.Id, player.Id, task.Id, miniID, 1200)
		require.NoError(t, err)
		assert.False(t, ended)

		assignment := assignmentFor(t, app, player.Id, task.Id)
		assert.Equal(t, string(models.AssignmentComplete), assignment.GetString("status"))
		assert.Equal(t, 1200.0, assignment.GetFloat("score"))

		_, _, err = adjudicator.CompleteDigital(game.Id, player.Id, task.Id, miniID, 900)
		assert.ErrorIs(t, err, services.ErrAlreadyComplete)
	})
}

func TestCompleteDigital_GhostSubstitute(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 100)
	player := players[1]
	task, _ := firstAssignment(t, app, game.Id, player.Id)

	t.Run("alive player cannot skip the photo proof", func(t *testing.T) {
		_, _, err := adjudicator.CompleteDigital(game.Id, player.Id, task.Id, services.GhostMiniID, 1000)
		assert.ErrorIs(t, err, services.ErrMiniMismatch)

		assignment := assignmentFor(t, app, player.Id, task.Id)
		assert.Equal(t, string(models.AssignmentPending), assignment.GetString("status"))
	})

	record, err := app.FindRecordById("players", player.Id)
	require.NoError(t, err)
	record.Set("alive", false)
	require.NoError(t, app.Save(record))

	t.Run("dead player completes through the ghost mini", func(t *testing.T) {
		_, _, err := adjudicator.CompleteDigital(game.Id, player.Id, task.Id, services.GhostMiniID, 1000)
		require.NoError(t, err)

		assignment := assignmentFor(t, app, player.Id, task.Id)
		assert.Equal(t, string(models.AssignmentComplete), assignment.GetString("status"))
	})
}

func TestSubmitProof(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	adjudicator := newAdjudicator(app)
	game, players := startedGameWithRatio(t, app, 100)
	player := players[0]
	task, _ := firstAssignment(t, app, game.Id, player.Id)

	_, ended, err := adjudicator.SubmitProof(game.Id, player.Id, task.Id, "https://example.com/proof.jpg")
	require.NoError(t, err)
	assert.False(t, ended)

	assignment := assignmentFor(t, app, player.Id, task.Id)
	assert.Equal(t, string(models.AssignmentComplete), assignment.GetString("status"))
	assert.Equal(t, "https://example.com/proof.jpg", assignment.GetString("proof_url"))

	_, _, err = adjudicator.SubmitProof(game.Id, player.Id, task.Id, "https://example.com/again.jpg")
	assert.ErrorIs(t, err, services.ErrAlreadyComplete)
}

func assignmentFor(t *testing.T, app core.App, playerID, taskID string) *core.Record {
	t.Helper()

	assignment, err := app.FindFirstRecordByFilter(
		"assignments",
		"player_id = {:playerId} && task_id = {:taskId}",
		map[string]any{"playerId": playerID, "taskId": taskID})
	require.NoError(t, err)
	return assignment
}

// otherPlayersTask finds a task not assigned to the given player, if any.
func otherPlayersTask(t *testing.T, app core.App, gameID, playerID string) *core.Record {
	t.Helper()

	tasks, err := app.FindRecordsByFilter(
		"tasks", "game_id = {:gameId}", "", 100, 0,
		map[string]any{"gameId": gameID})
	require.NoError(t, err)

	for _, task := range tasks {
		_, err := app.FindFirstRecordByFilter(
			"assignments",
			"player_id = {:playerId} && task_id = {:taskId}",
			map[string]any{"playerId": playerID, "taskId": task.Id})
		if err != nil {
			return task
		}
	}
	return nil
}
