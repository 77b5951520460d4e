package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		games := core.NewBaseCollection("games")
		games.ListRule = nil
		games.ViewRule = nil
		games.CreateRule = nil
		games.UpdateRule = nil
		games.DeleteRule = nil

		games.Fields.Add(&core.TextField{
			Name:     "code",
			Required: true,
			Max:      8,
		})

		games.Fields.Add(&core.TextField{
			Name:     "accessory_code",
			Required: true,
			Max:      8,
		})

		games.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"LOBBY", "RUNNING", "ENDED"},
		})

		games.Fields.Add(&core.SelectField{
			Name:      "winner",
			Required:  false,
			MaxSelect: 1,
			Values:    []string{"IMPOSTORS", "CREWMATES", "SNITCH", "NONE"},
		})

		games.Fields.Add(&core.TextField{
			Name: "host_player_id",
			Max:  64,
		})

		// host-tunable settings blob
		games.Fields.Add(&core.JSONField{
			Name:    "config",
			MaxSize: 10240,
		})

		// single global interrupt slot
		games.Fields.Add(&core.JSONField{
			Name:    "active_interrupt",
			MaxSize: 4096,
		})

		games.Fields.Add(&core.DateField{
			Name: "created",
		})
		games.Fields.Add(&core.DateField{
			Name: "started_at",
		})
		games.Fields.Add(&core.DateField{
			Name: "ended_at",
		})

		games.Indexes = []string{
			"CREATE UNIQUE INDEX idx_games_code ON games(code)",
			"CREATE UNIQUE INDEX idx_games_accessory_code ON games(accessory_code)",
			"CREATE INDEX idx_games_status ON games(status)",
		}

		if err := app.Save(games); err != nil {
			return err
		}

		players := core.NewBaseCollection("players")
		players.ListRule = nil
		players.ViewRule = nil
		players.CreateRule = nil
		players.UpdateRule = nil
		players.DeleteRule = nil

		players.Fields.Add(&core.RelationField{
			Name:          "game_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  games.Id,
			CascadeDelete: true,
		})

		players.Fields.Add(&core.TextField{
			Name:     "nickname",
			Required: true,
			Max:      50,
		})

		players.Fields.Add(&core.SelectField{
			Name:      "role",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"CREWMATE", "IMPOSTOR", "SNITCH"},
		})

		players.Fields.Add(&core.BoolField{
			Name: "alive",
		})

		players.Fields.Add(&core.TextField{
			Name:     "device_id",
			Required: true,
			Max:      128,
		})

		players.Fields.Add(&core.TextField{
			Name: "rejoin_token",
			Max:  1024,
		})

		// per-ability cooldown deadlines, unix millis (0 = ready)
		players.Fields.Add(&core.NumberField{
			Name: "sabotage_ready_at",
		})
		players.Fields.Add(&core.NumberField{
			Name: "meeting_ready_at",
		})

		players.Fields.Add(&core.DateField{
			Name:     "joined_at",
			Required: true,
		})
		players.Fields.Add(&core.DateField{
			Name: "last_seen",
		})

		players.Indexes = []string{
			"CREATE INDEX idx_players_game ON players(game_id)",
			"CREATE UNIQUE INDEX idx_players_device ON players(game_id, device_id)",
		}

		if err := app.Save(players); err != nil {
			return err
		}

		tasks := core.NewBaseCollection("tasks")
		tasks.ListRule = nil
		tasks.ViewRule = nil
		tasks.CreateRule = nil
		tasks.UpdateRule = nil
		tasks.DeleteRule = nil

		tasks.Fields.Add(&core.RelationField{
			Name:          "game_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  games.Id,
			CascadeDelete: true,
		})

		tasks.Fields.Add(&core.TextField{
			Name:     "label",
			Required: true,
			Max:      200,
		})

		tasks.Fields.Add(&core.SelectField{
			Name:      "type",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"PHYSICAL", "DIGITAL"},
		})

		tasks.Fields.Add(&core.TextField{
			Name: "qr_id",
			Max:  64,
		})
		tasks.Fields.Add(&core.TextField{
			Name: "mini_id",
			Max:  64,
		})
		tasks.Fields.Add(&core.TextField{
			Name: "location",
			Max:  100,
		})

		tasks.Indexes = []string{
			"CREATE INDEX idx_tasks_game ON tasks(game_id)",
		}

		if err := app.Save(tasks); err != nil {
			return err
		}

		assignments := core.NewBaseCollection("assignments")
		assignments.ListRule = nil
		assignments.ViewRule = nil
		assignments.CreateRule = nil
		assignments.UpdateRule = nil
		assignments.DeleteRule = nil

		assignments.Fields.Add(&core.RelationField{
			Name:          "game_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  games.Id,
			CascadeDelete: true,
		})
		assignments.Fields.Add(&core.RelationField{
			Name:          "player_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  players.Id,
			CascadeDelete: true,
		})
		assignments.Fields.Add(&core.RelationField{
			Name:          "task_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  tasks.Id,
			CascadeDelete: true,
		})

		assignments.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"PENDING", "COMPLETE"},
		})

		assignments.Fields.Add(&core.NumberField{
			Name: "score",
		})
		assignments.Fields.Add(&core.TextField{
			Name: "proof_url",
			Max:  500,
		})
		assignments.Fields.Add(&core.DateField{
			Name: "completed_at",
		})

		assignments.Indexes = []string{
			"CREATE INDEX idx_assignments_player ON assignments(game_id, player_id)",
			"CREATE INDEX idx_assignments_task ON assignments(player_id, task_id)",
		}

		if err := app.Save(assignments); err != nil {
			return err
		}

		meetings := core.NewBaseCollection("meetings")
		meetings.ListRule = nil
		meetings.ViewRule = nil
		meetings.CreateRule = nil
		meetings.UpdateRule = nil
		meetings.DeleteRule = nil

		meetings.Fields.Add(&core.RelationField{
			Name:          "game_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  games.Id,
			CascadeDelete: true,
		})
		meetings.Fields.Add(&core.RelationField{
			Name:          "called_by",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  players.Id,
			CascadeDelete: true,
		})

		meetings.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"OPEN", "RESOLVED"},
		})

		// voter id -> ballot
		meetings.Fields.Add(&core.JSONField{
			Name:    "votes",
			MaxSize: 10240,
		})
		meetings.Fields.Add(&core.JSONField{
			Name:    "result",
			MaxSize: 2048,
		})

		meetings.Fields.Add(&core.DateField{
			Name: "created",
		})

		meetings.Indexes = []string{
			"CREATE INDEX idx_meetings_game ON meetings(game_id)",
		}

		return app.Save(meetings)
	}, func(app core.App) error {
		// Down migration - delete in reverse order
		for _, name := range []string{"meetings", "assignments", "tasks", "players", "games"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil || collection == nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
