package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
)

// StartGame moves a lobby into the running phase: roles are assigned, the
// task pool is drawn and every player gets their hand of assignments. The
// whole allocation happens in one transaction, so either the game starts
// fully set up or not at all.
func (gm *GameManager) StartGame(gameID, callerPlayerID string) (*core.Record, error) {
	var game *core.Record

	err := gm.app.RunInTransaction(func(tx core.App) error {
		var err error
		game, err = tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("host_player_id") != callerPlayerID {
			return ErrNotHost
		}
		if game.GetString("status") != string(models.StatusLobby) {
			return ErrGameStarted
		}

		players, err := tx.FindRecordsByFilter(
			"players",
			"game_id = {:gameId}",
			"joined_at",
			100,
			0,
			map[string]any{"gameId": gameID},
		)
		if err != nil {
			return fmt.Errorf("failed to get players: %w", err)
		}
		if len(players) < MinPlayers {
			return ErrNotEnoughPlayers
		}

		cfg := readGameConfig(game)

		if err := assignRoles(tx, players, cfg); err != nil {
			return err
		}

		pool, err := createTaskPool(tx, gameID, cfg)
		if err != nil {
			return err
		}
		if err := assignTasks(tx, gameID, players, pool, cfg); err != nil {
			return err
		}

		game.Set("status", string(models.StatusRunning))
		game.Set("started_at", time.Now())
		return tx.Save(game)
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// assignRoles shuffles the roster and deals impostors first, snitches next,
// crewmates for the rest. Counts are clamped so a small lobby always keeps a
// non-impostor majority and at least one plain crewmate.
func assignRoles(tx core.App, players []*core.Record, cfg *models.GameConfig) error {
	shuffled := make([]*core.Record, len(players))
	copy(shuffled, players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	impostors := min(cfg.Impostors, len(shuffled)/3)
	snitches := min(cfg.Snitches, len(shuffled)-impostors-1)
	if snitches < 0 {
		snitches = 0
	}

	for i, player := range shuffled {
		role := models.RoleCrewmate
		switch {
		case i < impostors:
			role = models.RoleImpostor
		case i < impostors+snitches:
			role = models.RoleSnitch
		}
		player.Set("role", string(role))
		player.Set("alive", true)
		if err := tx.Save(player); err != nil {
			return fmt.Errorf("failed to save player role: %w", err)
		}
	}
	return nil
}

// createTaskPool draws the per-game task pool from the catalogs according to
// the configured size and physical/digital ratio and persists it as task
// records.
func createTaskPool(tx core.App, gameID string, cfg *models.GameConfig) ([]*core.Record, error) {
	collection, err := tx.FindCollectionByNameOrId("tasks")
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks collection: %w", err)
	}

	physCount := cfg.TaskPoolSize * cfg.PhysDigRatio.Physical / 100
	digCount := cfg.TaskPoolSize - physCount
	if physCount > len(PhysicalCatalog) {
		physCount = len(PhysicalCatalog)
	}
	if digCount > len(DigitalCatalog) {
		digCount = len(DigitalCatalog)
	}

	picked := make([]models.CatalogTask, 0, physCount+digCount)
	picked = append(picked, sampleCatalog(PhysicalCatalog, physCount)...)
	picked = append(picked, sampleCatalog(DigitalCatalog, digCount)...)

	pool := make([]*core.Record, 0, len(picked))
	for _, ct := range picked {
		task := core.NewRecord(collection)
		task.Set("game_id", gameID)
		task.Set("label", ct.Label)
		task.Set("type", string(ct.Type))
		task.Set("qr_id", ct.QRID)
		task.Set("mini_id", ct.MiniID)
		task.Set("location", ct.Location)
		if err := tx.Save(task); err != nil {
			return nil, fmt.Errorf("failed to save task: %w", err)
		}
		pool = append(pool, task)
	}
	return pool, nil
}

// assignTasks deals each player their hand from the pool. Without dupes the
// hand is a distinct sample; with dupes each slot is drawn independently.
func assignTasks(tx core.App, gameID string, players []*core.Record, pool []*core.Record, cfg *models.GameConfig) error {
	collection, err := tx.FindCollectionByNameOrId("assignments")
	if err != nil {
		return fmt.Errorf("failed to find assignments collection: %w", err)
	}

	perPlayer := cfg.TasksPerPlayer
	if !cfg.AllowTaskDupes && perPlayer > len(pool) {
		perPlayer = len(pool)
	}

	for _, player := range players {
		var hand []*core.Record
		if cfg.AllowTaskDupes {
			hand = make([]*core.Record, 0, perPlayer)
			for i := 0; i < perPlayer; i++ {
				hand = append(hand, pool[rand.IntN(len(pool))])
			}
		} else {
			shuffled := make([]*core.Record, len(pool))
			copy(shuffled, pool)
			rand.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			hand = shuffled[:perPlayer]
		}

		for _, task := range hand {
			assignment := core.NewRecord(collection)
			assignment.Set("game_id", gameID)
			assignment.Set("player_id", player.Id)
			assignment.Set("task_id", task.Id)
			assignment.Set("status", string(models.AssignmentPending))
			if err := tx.Save(assignment); err != nil {
				return fmt.Errorf("failed to save assignment: %w", err)
			}
		}
	}
	return nil
}

// sampleCatalog picks n distinct tasks from a catalog, all of them when n
// covers the whole catalog.
func sampleCatalog(catalog []models.CatalogTask, n int) []models.CatalogTask {
	if n >= len(catalog) {
		out := make([]models.CatalogTask, len(catalog))
		copy(out, catalog)
		return out
	}
	shuffled := make([]models.CatalogTask, len(catalog))
	copy(shuffled, catalog)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
