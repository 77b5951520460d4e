package models

type GameStatus string

const (
	StatusLobby   GameStatus = "LOBBY"
	StatusRunning GameStatus = "RUNNING"
	StatusEnded   GameStatus = "ENDED"
)

type Winner string

const (
	WinnerImpostors Winner = "IMPOSTORS"
	WinnerCrewmates Winner = "CREWMATES"
	WinnerSnitch    Winner = "SNITCH"
	WinnerNone      Winner = "NONE"
)

type InterruptType string

const (
	InterruptSabotage InterruptType = "SABOTAGE"
	InterruptMeeting  InterruptType = "MEETING"
)

// Interrupt is the single global event slot of a game. While it is set,
// no second sabotage or meeting may start. It is stored as a JSON blob on
// the game record so that claiming the slot is part of the same write as
// the rest of the transition.
type Interrupt struct {
	ID        string        `json:"id"`
	Type      InterruptType `json:"type"`
	StartedAt int64         `json:"started_at"` // unix millis
	EndsAt    int64         `json:"ends_at"`    // unix millis

	// Acks tracks the sabotage rendezvous: the interrupt clears only once
	// both the MASTER and SLAVE accessory have reported completion.
	Acks map[AccessoryRole]bool `json:"acks,omitempty"`
}
