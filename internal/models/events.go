package models

// WebSocket event types pushed to phones and accessories after a successful
// state change.
const (
	EventPlayerJoined     = "player_joined"
	EventGameStarted      = "game_started"
	EventConfigUpdated    = "config_updated"
	EventInterruptStarted = "interrupt_started"
	EventInterruptCleared = "interrupt_cleared"
	EventMeetingResolved  = "meeting_resolved"
	EventPlayerDied       = "player_died"
	EventTaskCompleted    = "task_completed"
	EventGameEnded        = "game_ended"
)

// Event is a broadcast message on a game's WebSocket channel.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}
