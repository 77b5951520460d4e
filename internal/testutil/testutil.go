// Package testutil provides the shared PocketBase test harness and game
// fixtures used by the service and handler tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/security"
	"github.com/tripleaaa123/amongusfr/internal/services"
	_ "github.com/tripleaaa123/amongusfr/pb_migrations"
)

const TestSecret = "test-secret"

// SetupTestApp creates a test PocketBase app with migrations applied and
// returns it with a cleanup function.
func SetupTestApp(t *testing.T) (core.App, func()) {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	return app, app.Cleanup
}

// NewGameManager builds a game manager with the test signing secret.
func NewGameManager(app core.App) *services.GameManager {
	return services.NewGameManager(app, security.NewTokenManager(TestSecret))
}

// CreateTestGame creates a lobby with a host and returns the game and host
// records.
func CreateTestGame(t *testing.T, app core.App) (*core.Record, *core.Record) {
	t.Helper()

	game, host, _, err := NewGameManager(app).CreateGame("Host", "device-host")
	if err != nil {
		t.Fatalf("Failed to create test game: %v", err)
	}
	return game, host
}

// CreateGameWithPlayers creates a lobby with a host plus extra players.
// Returns the game, the host and the full roster (host first).
func CreateGameWithPlayers(t *testing.T, app core.App, extraPlayers int) (*core.Record, *core.Record, []*core.Record) {
	t.Helper()

	gm := NewGameManager(app)
	game, host, _, err := gm.CreateGame("Host", "device-host")
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	players := []*core.Record{host}
	for i := 0; i < extraPlayers; i++ {
		_, player, _, err := gm.JoinGame(
			game.GetString("code"),
			fmt.Sprintf("Player%d", i+1),
			fmt.Sprintf("device-%d", i+1),
		)
		if err != nil {
			t.Fatalf("Failed to join player %d: %v", i+1, err)
		}
		players = append(players, player)
	}
	return game, host, players
}

// StartTestGame starts a created game as the host and returns the refreshed
// game record.
func StartTestGame(t *testing.T, app core.App, game, host *core.Record) *core.Record {
	t.Helper()

	started, err := NewGameManager(app).StartGame(game.Id, host.Id)
	if err != nil {
		t.Fatalf("Failed to start game: %v", err)
	}
	return started
}

// ForceRole overwrites a player's assigned role, letting tests pin who the
// impostor is after the randomized start.
func ForceRole(t *testing.T, app core.App, playerID string, role models.PlayerRole) {
	t.Helper()

	player, err := app.FindRecordById("players", playerID)
	if err != nil {
		t.Fatalf("Failed to find player: %v", err)
	}
	player.Set("role", string(role))
	if err := app.Save(player); err != nil {
		t.Fatalf("Failed to save player role: %v", err)
	}
}

// ForceRoles deterministically assigns roles to the roster in order: the
// first n get IMPOSTOR, the next m get SNITCH, the rest CREWMATE.
func ForceRoles(t *testing.T, app core.App, players []*core.Record, impostors, snitches int) {
	t.Helper()

	for i, p := range players {
		role := models.RoleCrewmate
		switch {
		case i < impostors:
			role = models.RoleImpostor
		case i < impostors+snitches:
			role = models.RoleSnitch
		}
		ForceRole(t, app, p.Id, role)
	}
}

// SetGameConfig rewrites a game's configuration directly, bypassing the
// lobby-only update rule for tests that tweak a running game.
func SetGameConfig(t *testing.T, app core.App, gameID string, mutate func(*models.GameConfig)) {
	t.Helper()

	game, err := app.FindRecordById("games", gameID)
	if err != nil {
		t.Fatalf("Failed to find game: %v", err)
	}
	cfg := models.DefaultGameConfig()
	mutate(cfg)
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	game.Set("config", string(b))
	if err := app.Save(game); err != nil {
		t.Fatalf("Failed to save game config: %v", err)
	}
}

// CompleteAllTasks marks every assignment of a player complete.
func CompleteAllTasks(t *testing.T, app core.App, gameID, playerID string) {
	t.Helper()

	assignments, err := app.FindRecordsByFilter(
		"assignments",
		"game_id = {:gameId} && player_id = {:playerId}",
		"",
		100,
		0,
		map[string]any{"gameId": gameID, "playerId": playerID},
	)
	if err != nil {
		t.Fatalf("Failed to find assignments: %v", err)
	}
	for _, a := range assignments {
		a.Set("status", string(models.AssignmentComplete))
		if err := app.Save(a); err != nil {
			t.Fatalf("Failed to save assignment: %v", err)
		}
	}
}
