package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		games, err := app.FindCollectionByNameOrId("games")
		if err != nil {
			return err
		}

		accessories := core.NewBaseCollection("accessories")
		accessories.ListRule = nil
		accessories.ViewRule = nil
		accessories.CreateRule = nil
		accessories.UpdateRule = nil
		accessories.DeleteRule = nil

		accessories.Fields.Add(&core.RelationField{
			Name:          "game_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  games.Id,
			CascadeDelete: true,
		})

		accessories.Fields.Add(&core.SelectField{
			Name:      "role",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"MASTER", "SLAVE"},
		})

		accessories.Fields.Add(&core.BoolField{
			Name: "connected",
		})

		accessories.Fields.Add(&core.DateField{
			Name: "last_seen",
		})

		accessories.Indexes = []string{
			"CREATE INDEX idx_accessories_game ON accessories(game_id)",
		}

		return app.Save(accessories)
	}, func(app core.App) error {
		accessories, err := app.FindCollectionByNameOrId("accessories")
		if err != nil || accessories == nil {
			return nil
		}
		return app.Delete(accessories)
	})
}
