package services_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/testutil"
)

// createLobby creates a game with the host plus extraPlayers players still
// in the lobby.
func createLobby(t *testing.T, app core.App, extraPlayers int) (*core.Record, *core.Record, []*core.Record) {
	t.Helper()
	return testutil.CreateGameWithPlayers(t, app, extraPlayers)
}

// createStartedGame creates a lobby and starts it. Roles are randomized;
// tests that care pin them with testutil.ForceRoles afterwards.
func createStartedGame(t *testing.T, app core.App, extraPlayers int) (*core.Record, *core.Record, []*core.Record) {
	t.Helper()
	game, host, players := testutil.CreateGameWithPlayers(t, app, extraPlayers)
	game = testutil.StartTestGame(t, app, game, host)
	return game, host, players
}
