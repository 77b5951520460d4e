package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
	"github.com/tripleaaa123/amongusfr/internal/security"
)

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GameManager owns the lifecycle of games, players and accessories. All
// persistent state lives in the database; every transition is applied inside
// a single transaction so no client observes a torn intermediate state.
type GameManager struct {
	app    core.App
	tokens *security.TokenManager
}

func NewGameManager(app core.App, tokens *security.TokenManager) *GameManager {
	return &GameManager{app: app, tokens: tokens}
}

// CreateGame creates a lobby with fresh player and accessory codes and joins
// the creator as the first player (the host). Returns the game, the host
// player and the host's rejoin credential.
func (gm *GameManager) CreateGame(hostNickname, deviceID string) (*core.Record, *core.Record, string, error) {
	if hostNickname == "" {
		hostNickname = "Host"
	}
	nickname, err := security.ValidateNickname(hostNickname)
	if err != nil {
		return nil, nil, "", err
	}

	var game, host *core.Record
	var rejoinToken string

	err = gm.app.RunInTransaction(func(tx core.App) error {
		collection, err := tx.FindCollectionByNameOrId("games")
		if err != nil {
			return fmt.Errorf("failed to find games collection: %w", err)
		}

		code, err := gm.freeJoinCode(tx, "code")
		if err != nil {
			return err
		}
		accessoryCode, err := gm.freeJoinCode(tx, "accessory_code")
		if err != nil {
			return err
		}

		game = core.NewRecord(collection)
		game.Set("status", string(models.StatusLobby))
		game.Set("code", code)
		game.Set("accessory_code", accessoryCode)
		game.Set("created", time.Now())
		if err := writeGameConfig(game, models.DefaultGameConfig()); err != nil {
			return err
		}
		if err := tx.Save(game); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}

		host, rejoinToken, err = gm.addPlayer(tx, game.Id, nickname, deviceID)
		if err != nil {
			return err
		}

		// Host is always a player too; the host id doubles as the
		// permission anchor for start/end/config.
		game.Set("host_player_id", host.Id)
		return tx.Save(game)
	})
	if err != nil {
		return nil, nil, "", err
	}
	return game, host, rejoinToken, nil
}

// GetGame retrieves a game by id.
func (gm *GameManager) GetGame(id string) (*core.Record, error) {
	record, err := gm.app.FindRecordById("games", id)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return record, nil
}

// FindGameByCode resolves a game by its player join code.
func (gm *GameManager) FindGameByCode(code string) (*core.Record, error) {
	return gm.findGameByCodeField(gm.app, "code", code)
}

// FindGameByAccessoryCode resolves a game by its accessory join code. The
// two code fields are separate namespaces and are never cross-matched.
func (gm *GameManager) FindGameByAccessoryCode(code string) (*core.Record, error) {
	return gm.findGameByCodeField(gm.app, "accessory_code", code)
}

// JoinGame adds a player to a lobby. Joining twice from the same device
// resolves to the existing player (rejoin), so a flaky phone does not
// produce duplicate roster entries.
func (gm *GameManager) JoinGame(code, nickname, deviceID string) (*core.Record, *core.Record, string, error) {
	code, err := security.ValidateJoinCode(code)
	if err != nil {
		return nil, nil, "", err
	}
	nickname, err = security.ValidateNickname(nickname)
	if err != nil {
		return nil, nil, "", err
	}

	var game, player *core.Record
	var token string

	err = gm.app.RunInTransaction(func(tx core.App) error {
		var err error
		game, err = gm.findGameByCodeField(tx, "code", code)
		if err != nil {
			return err
		}
		if game.GetString("status") != string(models.StatusLobby) {
			return ErrGameStarted
		}

		if existing, err := tx.FindFirstRecordByFilter(
			"players",
			"game_id = {:gameId} && device_id = {:deviceId}",
			map[string]any{"gameId": game.Id, "deviceId": deviceID},
		); err == nil && existing != nil {
			player = existing
			token = existing.GetString("rejoin_token")
			player.Set("last_seen", time.Now())
			return tx.Save(player)
		}

		player, token, err = gm.addPlayer(tx, game.Id, nickname, deviceID)
		return err
	})
	if err != nil {
		return nil, nil, "", err
	}
	return game, player, token, nil
}

// JoinAccessory binds a companion device to a game by accessory code.
// Accessories may connect in any game phase.
func (gm *GameManager) JoinAccessory(code, role string) (*core.Record, *core.Record, string, error) {
	code, err := security.ValidateJoinCode(code)
	if err != nil {
		return nil, nil, "", err
	}
	if !models.ValidAccessoryRole(role) {
		return nil, nil, "", ErrInvalidRole
	}

	game, err := gm.FindGameByAccessoryCode(code)
	if err != nil {
		return nil, nil, "", err
	}

	collection, err := gm.app.FindCollectionByNameOrId("accessories")
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to find accessories collection: %w", err)
	}

	accessory := core.NewRecord(collection)
	accessory.Set("game_id", game.Id)
	accessory.Set("role", role)
	accessory.Set("connected", true)
	accessory.Set("last_seen", time.Now())
	if err := gm.app.Save(accessory); err != nil {
		return nil, nil, "", fmt.Errorf("failed to save accessory: %w", err)
	}

	token, err := gm.tokens.IssueAccessory(game.Id, accessory.Id)
	if err != nil {
		return nil, nil, "", err
	}
	return game, accessory, token, nil
}

// UpdateConfig replaces the game configuration. Host only, lobby only.
func (gm *GameManager) UpdateConfig(gameID, callerPlayerID string, cfg *models.GameConfig) error {
	return gm.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("host_player_id") != callerPlayerID {
			return ErrNotHost
		}
		if game.GetString("status") != string(models.StatusLobby) {
			return ErrGameStarted
		}
		if err := writeGameConfig(game, cfg); err != nil {
			return err
		}
		return tx.Save(game)
	})
}

// EndGame is the host's manual abort: the game ends with no winner.
func (gm *GameManager) EndGame(gameID, callerPlayerID string) error {
	return gm.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("host_player_id") != callerPlayerID {
			return ErrNotHost
		}
		game.Set("status", string(models.StatusEnded))
		game.Set("winner", string(models.WinnerNone))
		if err := writeInterrupt(game, nil); err != nil {
			return err
		}
		return tx.Save(game)
	})
}

// MarkDead is the impostor self-report kill path: an alive impostor marks a
// victim dead. Runs the win evaluator in the same transaction.
func (gm *GameManager) MarkDead(gameID, callerPlayerID, victimID string) (models.Winner, bool, error) {
	var winner models.Winner
	var ended bool

	err := gm.app.RunInTransaction(func(tx core.App) error {
		caller, err := gm.playerInGame(tx, gameID, callerPlayerID)
		if err != nil {
			return err
		}
		if caller.GetString("role") != string(models.RoleImpostor) {
			return ErrNotImpostor
		}
		if !caller.GetBool("alive") {
			return ErrDead
		}
		winner, ended, err = gm.killPlayer(tx, gameID, victimID)
		return err
	})
	return winner, ended, err
}

// SelectWhoDied is the accessory path to the same death transition.
func (gm *GameManager) SelectWhoDied(gameID, victimID string) (models.Winner, bool, error) {
	var winner models.Winner
	var ended bool

	err := gm.app.RunInTransaction(func(tx core.App) error {
		var err error
		winner, ended, err = gm.killPlayer(tx, gameID, victimID)
		return err
	})
	return winner, ended, err
}

// GetPlayers retrieves all players of a game.
func (gm *GameManager) GetPlayers(gameID string) ([]*core.Record, error) {
	records, err := gm.app.FindRecordsByFilter(
		"players",
		"game_id = {:gameId}",
		"joined_at",
		100,
		0,
		map[string]any{"gameId": gameID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return records, nil
}

// GetPlayer retrieves a player and verifies it belongs to the game.
func (gm *GameManager) GetPlayer(gameID, playerID string) (*core.Record, error) {
	return gm.playerInGame(gm.app, gameID, playerID)
}

// TouchPlayer refreshes a player's last-seen timestamp.
func (gm *GameManager) TouchPlayer(playerID string) {
	record, err := gm.app.FindRecordById("players", playerID)
	if err != nil {
		return
	}
	record.Set("last_seen", time.Now())
	if err := gm.app.Save(record); err != nil {
		log.Printf("failed to touch player %s: %v", playerID, err)
	}
}

func (gm *GameManager) addPlayer(tx core.App, gameID, nickname, deviceID string) (*core.Record, string, error) {
	collection, err := tx.FindCollectionByNameOrId("players")
	if err != nil {
		return nil, "", fmt.Errorf("failed to find players collection: %w", err)
	}

	player := core.NewRecord(collection)
	player.Set("game_id", gameID)
	player.Set("nickname", nickname)
	player.Set("role", string(models.RoleCrewmate)) // placeholder until start
	player.Set("alive", true)
	player.Set("device_id", deviceID)
	player.Set("joined_at", time.Now())
	player.Set("last_seen", time.Now())
	if err := tx.Save(player); err != nil {
		return nil, "", fmt.Errorf("failed to save player: %w", err)
	}

	token, err := gm.tokens.IssueRejoin(gameID, player.Id)
	if err != nil {
		return nil, "", err
	}
	player.Set("rejoin_token", token)
	if err := tx.Save(player); err != nil {
		return nil, "", fmt.Errorf("failed to save player token: %w", err)
	}
	return player, token, nil
}

// killPlayer flips alive to false exactly once and re-checks win conditions.
func (gm *GameManager) killPlayer(tx core.App, gameID, victimID string) (models.Winner, bool, error) {
	victim, err := gm.playerInGame(tx, gameID, victimID)
	if err != nil {
		return "", false, err
	}
	if !victim.GetBool("alive") {
		return "", false, ErrAlreadyDead
	}
	victim.Set("alive", false)
	if err := tx.Save(victim); err != nil {
		return "", false, fmt.Errorf("failed to save victim: %w", err)
	}

	game, err := tx.FindRecordById("games", gameID)
	if err != nil {
		return "", false, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	return EvaluateWin(tx, game)
}

func (gm *GameManager) playerInGame(app core.App, gameID, playerID string) (*core.Record, error) {
	player, err := app.FindRecordById("players", playerID)
	if err != nil || player.GetString("game_id") != gameID {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return player, nil
}

func (gm *GameManager) findGameByCodeField(app core.App, field, code string) (*core.Record, error) {
	record, err := app.FindFirstRecordByFilter(
		"games",
		field+" = {:code}",
		map[string]any{"code": code},
	)
	if err != nil {
		return nil, fmt.Errorf("game with code %s: %w", code, ErrNotFound)
	}
	return record, nil
}

// freeJoinCode generates a short code that is not already used in the given
// games field.
func (gm *GameManager) freeJoinCode(app core.App, field string) (string, error) {
	for attempt := 0; attempt < 20; attempt++ {
		code := randomJoinCode()
		_, err := app.FindFirstRecordByFilter(
			"games",
			field+" = {:code}",
			map[string]any{"code": code},
		)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return code, nil
		case err != nil:
			return "", fmt.Errorf("%s lookup: %w", field, err)
		}
	}
	return "", fmt.Errorf("could not allocate a free %s", field)
}

func randomJoinCode() string {
	b := make([]byte, security.JoinCodeLength)
	for i := range b {
		b[i] = joinCodeAlphabet[rand.IntN(len(joinCodeAlphabet))]
	}
	return string(b)
}
