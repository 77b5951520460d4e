package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto the
// API error taxonomy: not-found (404), permission (403), bad input (400) and
// failed preconditions (409). All of them are terminal; retrying without a
// real-world state change fails identically.
var (
	ErrNotFound = errors.New("not found")

	// permission
	ErrNotHost     = errors.New("only the host can do this")
	ErrNotImpostor = errors.New("only impostors can do this")
	ErrDead        = errors.New("player is dead")

	// bad input
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidTarget = errors.New("invalid target player")
	ErrMiniMismatch  = errors.New("mini-game does not match the task")
	ErrTokenMismatch = errors.New("token does not match this game or task")

	// failed preconditions
	ErrGameStarted      = errors.New("game already started")
	ErrGameNotRunning   = errors.New("game is not running")
	ErrNotEnoughPlayers = errors.New("need at least 3 players")
	ErrInterruptActive  = errors.New("another interrupt is active")
	ErrNoActiveSabotage = errors.New("no active sabotage")
	ErrNoActiveMeeting  = errors.New("no active meeting")
	ErrOnCooldown       = errors.New("ability on cooldown")
	ErrMeetingClosed    = errors.New("meeting is not open for voting")
	ErrAlreadyResolved  = errors.New("meeting already resolved")
	ErrAlreadyDead      = errors.New("player is already dead")
	ErrAlreadyComplete  = errors.New("task already complete")
	ErrScoreTooHigh     = errors.New("score too high")
	ErrAbstainDisabled  = errors.New("abstaining is disabled for this game")
)

// MinPlayers is the smallest roster a game can start with.
const MinPlayers = 3
