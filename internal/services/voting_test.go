package services_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/services"
	"github.com/tripleaaa123/amongusfr/internal/testutil"
)

// openMeeting starts a game with the given roster size and opens a meeting
// called by the host. The coordinator's deadline timer is stopped on
// cleanup so tests never race it.
func openMeeting(t *testing.T, app core.App, extraPlayers int) (*core.Record, []*core.Record, *core.Record, *services.VotingEngine) {
	t.Helper()

	game, host, players := createStartedGame(t, app, extraPlayers)

	voting := services.NewVotingEngine(app, nil)
	coordinator := services.NewInterruptCoordinator(app, nil, voting)
	t.Cleanup(coordinator.Stop)

	_, meeting, err := coordinator.CallMeeting(game.Id, host.Id)
	require.NoError(t, err)
	return game, players, meeting, voting
}

func TestCastVote(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 4)
	testutil.ForceRoles(t, app, players, 1, 0)

	t.Run("vote and revote", func(t *testing.T) {
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[0].Id))
		// last write wins
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[2].Id))
	})

	t.Run("abstain allowed by default", func(t *testing.T) {
		assert.NoError(t, voting.CastVote(game.Id, meeting.Id, players[2].Id, ""))
	})

	t.Run("dead players cannot vote", func(t *testing.T) {
		victim, err := app.FindRecordById("players", players[3].Id)
		require.NoError(t, err)
		victim.Set("alive", false)
		require.NoError(t, app.Save(victim))

		err = voting.CastVote(game.Id, meeting.Id, players[3].Id, players[0].Id)
		assert.ErrorIs(t, err, services.ErrDead)
	})

	t.Run("dead players are invalid targets", func(t *testing.T) {
		err := voting.CastVote(game.Id, meeting.Id, players[1].Id, players[3].Id)
		assert.ErrorIs(t, err, services.ErrInvalidTarget)
	})
}

func TestCastVote_AbstainDisabled(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 3)
	testutil.SetGameConfig(t, app, game.Id, func(cfg *models.GameConfig) {
		cfg.Voting.AllowAbstain = false
	})

	err := voting.CastVote(game.Id, meeting.Id, players[1].Id, "")
	assert.ErrorIs(t, err, services.ErrAbstainDisabled)
}

func TestResolve_Majority(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 4) // 5 players
	testutil.ForceRoles(t, app, players, 1, 0)
	impostor := players[0]

	// three votes against the impostor, one skip
	for _, voter := range players[1:4] {
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, voter.Id, impostor.Id))
	}
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[4].Id, ""))

	result, err := voting.Resolve(game.Id, meeting.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonMajority, result.Reason)
	assert.Equal(t, impostor.Id, result.EjectedPlayerID)

	ejected, err := app.FindRecordById("players", impostor.Id)
	require.NoError(t, err)
	assert.False(t, ejected.GetBool("alive"))

	// the meeting released the interrupt slot
	gameRecord, err := app.FindRecordById("games", game.Id)
	require.NoError(t, err)
	assert.Empty(t, gameRecord.GetString("active_interrupt"))
}

func TestResolve_SkipsBlockEjection(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 4) // 5 players
	testutil.ForceRoles(t, app, players, 1, 0)

	// 2 votes for A, 2 skips: skip count ties the top candidate
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[0].Id))
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[2].Id, players[0].Id))
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[3].Id, ""))
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[4].Id, ""))

	result, err := voting.Resolve(game.Id, meeting.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonTieNoEject, result.Reason)
	assert.Empty(t, result.EjectedPlayerID)

	target, err := app.FindRecordById("players", players[0].Id)
	require.NoError(t, err)
	assert.True(t, target.GetBool("alive"))
}

func TestResolve_NoVotes(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, _, meeting, voting := openMeeting(t, app, 3)

	result, err := voting.Resolve(game.Id, meeting.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonTieNoEject, result.Reason)
	assert.Empty(t, result.EjectedPlayerID)
}

func TestResolve_TiePolicies(t *testing.T) {
	t.Run("NO_EJECT", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		game, players, meeting, voting := openMeeting(t, app, 4) // 5 players
		// A:2, B:2, skip:1
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[0].Id, players[1].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[2].Id, players[1].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[3].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[4].Id, players[3].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[3].Id, ""))

		result, err := voting.Resolve(game.Id, meeting.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonTieNoEject, result.Reason)
		assert.Empty(t, result.EjectedPlayerID)
	})

	t.Run("RANDOM_TOP", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		game, players, meeting, voting := openMeeting(t, app, 4)
		testutil.SetGameConfig(t, app, game.Id, func(cfg *models.GameConfig) {
			cfg.Voting.TiePolicy = models.TieRandomTop
		})

		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[0].Id, players[1].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[2].Id, players[1].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[3].Id))
		require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[4].Id, players[3].Id))

		result, err := voting.Resolve(game.Id, meeting.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonRandomTop, result.Reason)
		assert.Contains(t, []string{players[1].Id, players[3].Id}, result.EjectedPlayerID)
	})
}

func TestResolve_Idempotent(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 4)
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[2].Id))
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[3].Id, players[2].Id))

	first, err := voting.Resolve(game.Id, meeting.Id)
	require.NoError(t, err)

	// a second resolve returns the stored result, nobody dies twice
	second, err := voting.Resolve(game.Id, meeting.Id)
	assert.ErrorIs(t, err, services.ErrAlreadyResolved)
	assert.Equal(t, first, second)

	// voting after resolution is rejected
	err = voting.CastVote(game.Id, meeting.Id, players[4].Id, players[2].Id)
	assert.ErrorIs(t, err, services.ErrMeetingClosed)
}

func TestResolve_EjectionEndsGame(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	game, players, meeting, voting := openMeeting(t, app, 2) // 3 players
	testutil.ForceRoles(t, app, players, 1, 0)

	// ejecting a crewmate at 3 alive leaves 1v1: impostors win
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[0].Id, players[2].Id))
	require.NoError(t, voting.CastVote(game.Id, meeting.Id, players[1].Id, players[2].Id))

	result, err := voting.Resolve(game.Id, meeting.Id)
	require.NoError(t, err)
	assert.Equal(t, players[2].Id, result.EjectedPlayerID)

	final, err := app.FindRecordById("games", game.Id)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusEnded), final.GetString("status"))
	assert.Equal(t, string(models.WinnerImpostors), final.GetString("winner"))
}
