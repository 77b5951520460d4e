package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/services"
	"github.com/tripleaaa123/amongusfr/internal/testutil"
)

func TestStartGame_Preconditions(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	gm := testutil.NewGameManager(app)

	t.Run("too few players", func(t *testing.T) {
		game, host, _ := createLobby(t, app, 1) // host + 1
		_, err := gm.StartGame(game.Id, host.Id)
		assert.ErrorIs(t, err, services.ErrNotEnoughPlayers)
	})

	t.Run("only host can start", func(t *testing.T) {
		game, _, players := createLobby(t, app, 3)
		_, err := gm.StartGame(game.Id, players[1].Id)
		assert.ErrorIs(t, err, services.ErrNotHost)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		game, host, _ := createStartedGame(t, app, 3)
		_, err := gm.StartGame(game.Id, host.Id)
		assert.ErrorIs(t, err, services.ErrGameStarted)
	})
}

func TestStartGame_RoleCounts(t *testing.T) {
	tests := []struct {
		name          string
		playerCount   int
		cfgImpostors  int
		cfgSnitches   int
		wantImpostors int
		wantSnitches  int
	}{
		{"three players default", 3, 1, 0, 1, 0},
		{"nine players two impostors one snitch", 9, 2, 1, 2, 1},
		{"impostors clamped to a third", 4, 3, 0, 1, 0},
		{"snitches leave a crewmate", 3, 1, 5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, cleanup := testutil.SetupTestApp(t)
			defer cleanup()

			gm := testutil.NewGameManager(app)
			game, host, _ := createLobby(t, app, tt.playerCount-1)

			cfg := models.DefaultGameConfig()
			cfg.Impostors = tt.cfgImpostors
			cfg.Snitches = tt.cfgSnitches
			require.NoError(t, gm.UpdateConfig(game.Id, host.Id, cfg))

			_, err := gm.StartGame(game.Id, host.Id)
			require.NoError(t, err)

			players, err := gm.GetPlayers(game.Id)
			require.NoError(t, err)

			counts := map[string]int{}
			for _, p := range players {
				counts[p.GetString("role")]++
				assert.True(t, p.GetBool("alive"))
			}
			assert.Equal(t, tt.wantImpostors, counts[string(models.RoleImpostor)])
			assert.Equal(t, tt.wantSnitches, counts[string(models.RoleSnitch)])
			assert.Equal(t,
				tt.playerCount-tt.wantImpostors-tt.wantSnitches,
				counts[string(models.RoleCrewmate)])
		})
	}
}

func TestStartGame_TaskAllocation(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	gm := testutil.NewGameManager(app)
	game, host, players := createLobby(t, app, 3)

	cfg := models.DefaultGameConfig()
	cfg.TaskPoolSize = 10
	cfg.TasksPerPlayer = 5
	cfg.AllowTaskDupes = false
	require.NoError(t, gm.UpdateConfig(game.Id, host.Id, cfg))

	_, err := gm.StartGame(game.Id, host.Id)
	require.NoError(t, err)

	tasks, err := app.FindRecordsByFilter(
		"tasks", "game_id = {:gameId}", "", 100, 0,
		map[string]any{"gameId": game.Id})
	require.NoError(t, err)

	// 60/40 ratio over a pool of 10: 6 physical, 4 digital
	physical, digital := 0, 0
	for _, task := range tasks {
		switch task.GetString("type") {
		case string(models.TaskPhysical):
			physical++
			assert.NotEmpty(t, task.GetString("qr_id"))
		case string(models.TaskDigital):
			digital++
			assert.NotEmpty(t, task.GetString("mini_id"))
		}
	}
	assert.Equal(t, 6, physical)
	assert.Equal(t, 4, digital)

	for _, p := range players {
		assignments, err := app.FindRecordsByFilter(
			"assignments",
			"game_id = {:gameId} && player_id = {:playerId}",
			"", 100, 0,
			map[string]any{"gameId": game.Id, "playerId": p.Id})
		require.NoError(t, err)
		assert.Len(t, assignments, 5)

		// without dupes every slot holds a distinct task
		seen := map[string]bool{}
		for _, a := range assignments {
			assert.Equal(t, string(models.AssignmentPending), a.GetString("status"))
			assert.False(t, seen[a.GetString("task_id")])
			seen[a.GetString("task_id")] = true
		}
	}
}

func TestStartGame_HandClampedToPool(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	gm := testutil.NewGameManager(app)
	game, host, players := createLobby(t, app, 2)

	cfg := models.DefaultGameConfig()
	cfg.TaskPoolSize = 3
	cfg.TasksPerPlayer = 5
	cfg.AllowTaskDupes = false
	require.NoError(t, gm.UpdateConfig(game.Id, host.Id, cfg))

	_, err := gm.StartGame(game.Id, host.Id)
	require.NoError(t, err)

	assignments, err := app.FindRecordsByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId}",
		"", 100, 0,
		map[string]any{"gameId": game.Id, "playerId": players[0].Id})
	require.NoError(t, err)
	assert.Len(t, assignments, 3)
}
