package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
)

// InterruptCoordinator serializes the game-wide events that pause normal
// play. A game has a single interrupt slot: while a sabotage or meeting is
// active nothing else may claim it. The slot is claimed and released inside
// database transactions, and each interrupt carries a unique id so that a
// timer firing after the interrupt was replaced recognizes itself as stale.
type InterruptCoordinator struct {
	app    core.App
	hub    *Hub
	voting *VotingEngine

	mu     sync.Mutex
	timers map[string]*time.Timer // keyed by interrupt id
}

func NewInterruptCoordinator(app core.App, hub *Hub, voting *VotingEngine) *InterruptCoordinator {
	return &InterruptCoordinator{
		app:    app,
		hub:    hub,
		voting: voting,
		timers: make(map[string]*time.Timer),
	}
}

// TriggerSabotage starts a sabotage on behalf of an alive impostor. The
// sabotage claims the interrupt slot and arms the deadline timer; if the
// accessories do not resolve it in time the impostors win.
func (ic *InterruptCoordinator) TriggerSabotage(gameID, callerPlayerID string) (*models.Interrupt, error) {
	var it *models.Interrupt
	var sabotageDuration time.Duration

	err := ic.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return ErrGameNotRunning
		}

		caller, err := tx.FindRecordById("players", callerPlayerID)
		if err != nil || caller.GetString("game_id") != gameID {
			return fmt.Errorf("player %s: %w", callerPlayerID, ErrNotFound)
		}
		if caller.GetString("role") != string(models.RoleImpostor) {
			return ErrNotImpostor
		}
		if !caller.GetBool("alive") {
			return ErrDead
		}

		now := nowMillis()
		if now < int64(caller.GetFloat("sabotage_ready_at")) {
			return ErrOnCooldown
		}
		if readInterrupt(game) != nil {
			return ErrInterruptActive
		}

		cfg := readGameConfig(game)
		sabotageDuration = time.Duration(cfg.SabotageDurationMs) * time.Millisecond
		it = &models.Interrupt{
			ID:        uuid.NewString(),
			Type:      models.InterruptSabotage,
			StartedAt: now,
			EndsAt:    now + cfg.SabotageDurationMs,
			Acks:      map[models.AccessoryRole]bool{},
		}
		if err := writeInterrupt(game, it); err != nil {
			return err
		}
		caller.Set("sabotage_ready_at", now+cfg.SabotageCdMs)
		if err := tx.Save(caller); err != nil {
			return fmt.Errorf("failed to save cooldown: %w", err)
		}
		return tx.Save(game)
	})
	if err != nil {
		return nil, err
	}

	interruptID := it.ID
	ic.arm(interruptID, sabotageDuration, func() {
		ic.sabotageTimeout(gameID, interruptID)
	})

	ic.hub.Broadcast(gameID, &models.Event{
		Type: models.EventInterruptStarted,
		Payload: map[string]any{
			"interrupt": it,
		},
	})
	return it, nil
}

// CallMeeting opens an emergency meeting: a meeting record for ballots plus
// the interrupt slot claim. The deadline covers discussion and voting; the
// host or an accessory can cut discussion short with CommenceVoting.
func (ic *InterruptCoordinator) CallMeeting(gameID, callerPlayerID string) (*models.Interrupt, *core.Record, error) {
	var it *models.Interrupt
	var meeting *core.Record
	var totalDuration time.Duration

	err := ic.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return ErrGameNotRunning
		}

		caller, err := tx.FindRecordById("players", callerPlayerID)
		if err != nil || caller.GetString("game_id") != gameID {
			return fmt.Errorf("player %s: %w", callerPlayerID, ErrNotFound)
		}
		if !caller.GetBool("alive") {
			return ErrDead
		}

		now := nowMillis()
		if now < int64(caller.GetFloat("meeting_ready_at")) {
			return ErrOnCooldown
		}
		if readInterrupt(game) != nil {
			return ErrInterruptActive
		}

		cfg := readGameConfig(game)
		totalMs := cfg.MeetingDurationMs + cfg.VotingDurationMs
		totalDuration = time.Duration(totalMs) * time.Millisecond

		collection, err := tx.FindCollectionByNameOrId("meetings")
		if err != nil {
			return fmt.Errorf("failed to find meetings collection: %w", err)
		}
		meeting = core.NewRecord(collection)
		meeting.Set("game_id", gameID)
		meeting.Set("called_by", callerPlayerID)
		meeting.Set("status", string(models.MeetingOpen))
		meeting.Set("created", time.Now())
		if err := writeVotes(meeting, map[string]models.Vote{}); err != nil {
			return err
		}
		if err := tx.Save(meeting); err != nil {
			return fmt.Errorf("failed to save meeting: %w", err)
		}

		it = &models.Interrupt{
			ID:        meeting.Id,
			Type:      models.InterruptMeeting,
			StartedAt: now,
			EndsAt:    now + totalMs,
		}
		if err := writeInterrupt(game, it); err != nil {
			return err
		}
		caller.Set("meeting_ready_at", now+cfg.MeetingCdMs)
		if err := tx.Save(caller); err != nil {
			return fmt.Errorf("failed to save cooldown: %w", err)
		}
		return tx.Save(game)
	})
	if err != nil {
		return nil, nil, err
	}

	meetingID := meeting.Id
	ic.arm(it.ID, totalDuration, func() {
		ic.meetingTimeout(gameID, meetingID)
	})

	ic.hub.Broadcast(gameID, &models.Event{
		Type: models.EventInterruptStarted,
		Payload: map[string]any{
			"interrupt":  it,
			"meeting_id": meeting.Id,
		},
	})
	return it, meeting, nil
}

// CommenceVoting cuts the discussion phase short: the meeting deadline moves
// up to now plus the voting window and the timer is rearmed. The superseded
// timer finds the meeting already resolved when it eventually fires.
//
// An empty callerPlayerID marks an accessory caller, which controls meetings
// without a host check; a player caller must be the host.
func (ic *InterruptCoordinator) CommenceVoting(gameID, callerPlayerID string) (*models.Interrupt, error) {
	var it *models.Interrupt
	var meetingID string
	var votingDuration time.Duration

	err := ic.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		if callerPlayerID != "" && game.GetString("host_player_id") != callerPlayerID {
			return ErrNotHost
		}
		it = readInterrupt(game)
		if it == nil || it.Type != models.InterruptMeeting {
			return ErrNoActiveMeeting
		}
		meetingID = it.ID

		cfg := readGameConfig(game)
		votingDuration = time.Duration(cfg.VotingDurationMs) * time.Millisecond
		now := nowMillis()
		if now+cfg.VotingDurationMs < it.EndsAt {
			it.EndsAt = now + cfg.VotingDurationMs
		}
		if err := writeInterrupt(game, it); err != nil {
			return err
		}
		return tx.Save(game)
	})
	if err != nil {
		return nil, err
	}

	ic.arm(it.ID, votingDuration, func() {
		ic.meetingTimeout(gameID, meetingID)
	})

	ic.hub.Broadcast(gameID, &models.Event{
		Type: models.EventInterruptStarted,
		Payload: map[string]any{
			"interrupt": it,
			"phase":     "VOTING",
		},
	})
	return it, nil
}

// CompleteSabotageMini records one accessory's completion of the sabotage
// mini-game. The sabotage clears only once both accessories have reported.
func (ic *InterruptCoordinator) CompleteSabotageMini(gameID, accessoryID, interruptID string, score float64) (bool, error) {
	var cleared bool

	err := ic.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		it := readInterrupt(game)
		if it == nil || it.Type != models.InterruptSabotage {
			return ErrNoActiveSabotage
		}
		if it.ID != interruptID {
			return ErrNoActiveSabotage
		}
		if score > SabotageScoreCap {
			return ErrScoreTooHigh
		}

		accessory, err := tx.FindRecordById("accessories", accessoryID)
		if err != nil || accessory.GetString("game_id") != gameID {
			return fmt.Errorf("accessory %s: %w", accessoryID, ErrNotFound)
		}

		if it.Acks == nil {
			it.Acks = map[models.AccessoryRole]bool{}
		}
		it.Acks[models.AccessoryRole(accessory.GetString("role"))] = true

		cleared = it.Acks[models.AccessoryMaster] && it.Acks[models.AccessorySlave]
		if cleared {
			if err := writeInterrupt(game, nil); err != nil {
				return err
			}
		} else {
			if err := writeInterrupt(game, it); err != nil {
				return err
			}
		}
		return tx.Save(game)
	})
	if err != nil {
		return false, err
	}

	if cleared {
		ic.disarm(interruptID)
		ic.hub.Broadcast(gameID, &models.Event{
			Type: models.EventInterruptCleared,
			Payload: map[string]any{
				"interrupt_id": interruptID,
				"type":         models.InterruptSabotage,
			},
		})
	}
	return cleared, nil
}

// sabotageTimeout fires when the sabotage deadline passes unresolved. If the
// interrupt is still the one the timer was armed for, the impostors win.
func (ic *InterruptCoordinator) sabotageTimeout(gameID, interruptID string) {
	ic.disarm(interruptID)

	var fired bool
	err := ic.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		it := readInterrupt(game)
		if it == nil || it.ID != interruptID {
			return nil // resolved or replaced in the meantime
		}
		if game.GetString("status") != string(models.StatusRunning) {
			return nil
		}
		fired = true
		_, _, err = endGame(tx, game, models.WinnerImpostors)
		return err
	})
	if err != nil {
		log.Printf("sabotage timeout for game %s: %v", gameID, err)
		return
	}
	if fired {
		ic.hub.Broadcast(gameID, &models.Event{
			Type: models.EventGameEnded,
			Payload: map[string]any{
				"winner": models.WinnerImpostors,
				"reason": "sabotage_timeout",
			},
		})
	}
}

// meetingTimeout resolves the meeting when its deadline passes. Resolution
// is idempotent, so a timer superseded by CommenceVoting or a manual resolve
// is harmless.
func (ic *InterruptCoordinator) meetingTimeout(gameID, meetingID string) {
	ic.disarm(meetingID)
	if _, err := ic.voting.Resolve(gameID, meetingID); err != nil && !errors.Is(err, ErrAlreadyResolved) {
		log.Printf("meeting timeout resolve for game %s: %v", gameID, err)
	}
}

func (ic *InterruptCoordinator) arm(interruptID string, d time.Duration, fn func()) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if t, ok := ic.timers[interruptID]; ok {
		t.Stop()
	}
	ic.timers[interruptID] = time.AfterFunc(d, fn)
}

func (ic *InterruptCoordinator) disarm(interruptID string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if t, ok := ic.timers[interruptID]; ok {
		t.Stop()
		delete(ic.timers, interruptID)
	}
}

// Stop cancels all pending timers, used on shutdown.
func (ic *InterruptCoordinator) Stop() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for id, t := range ic.timers {
		t.Stop()
		delete(ic.timers, id)
	}
}
