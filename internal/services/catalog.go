package services

import "github.com/tripleaaa123/amongusfr/internal/models"

// The fixed task catalog the per-game pool is drawn from. Physical tasks
// reference printed QR tags (see cmd/qrgen), digital tasks reference the
// embedded mini-games.
var (
	PhysicalCatalog = []models.CatalogTask{
		{Label: "Throw 3 paper balls into trash", Type: models.TaskPhysical, QRID: "qr_001", Location: "Cafeteria"},
		{Label: "Do 10 pushups", Type: models.TaskPhysical, QRID: "qr_002", Location: "Gym"},
		{Label: "Stack 5 cups", Type: models.TaskPhysical, QRID: "qr_003", Location: "Kitchen"},
		{Label: "Find the hidden key", Type: models.TaskPhysical, QRID: "qr_004", Location: "Storage"},
		{Label: "Water the plant", Type: models.TaskPhysical, QRID: "qr_005", Location: "Greenhouse"},
		{Label: "Take out the trash", Type: models.TaskPhysical, QRID: "qr_006", Location: "Hallway"},
	}

	DigitalCatalog = []models.CatalogTask{
		{Label: "Complete wire matching", Type: models.TaskDigital, MiniID: "mg_wires"},
		{Label: "Test your reaction time", Type: models.TaskDigital, MiniID: "mg_reaction"},
		{Label: "Solve the puzzle", Type: models.TaskDigital, MiniID: "mg_puzzle"},
		{Label: "Memory match", Type: models.TaskDigital, MiniID: "mg_memory"},
	}
)

// MiniScoreCaps caps the client-reported completion score per mini-game.
// Scores are completion times in milliseconds, lower is better; anything
// above the cap is rejected as an invalid run.
var MiniScoreCaps = map[string]float64{
	"mg_wires":    45000,
	"mg_reaction": 1500,
	"mg_puzzle":   90000,
	"mg_memory":   60000,
}

// GhostMiniID is the digital substitute a dead player gets when scanning a
// physical task with ghost tasks enabled.
const GhostMiniID = "mg_wires"

// SabotageScoreCap caps the accessory mini-game score accepted when
// resolving a sabotage (milliseconds, lower is better).
const SabotageScoreCap = 20000
