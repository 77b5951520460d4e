package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
)

// Helpers for the JSON blobs stored on game and meeting records.

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// readGameConfig parses the config JSON off a game record, falling back to
// the defaults when it is missing or unparseable.
func readGameConfig(game *core.Record) *models.GameConfig {
	raw := game.GetString("config")
	if raw == "" {
		return models.DefaultGameConfig()
	}
	var cfg models.GameConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return models.DefaultGameConfig()
	}
	return &cfg
}

func writeGameConfig(game *core.Record, cfg *models.GameConfig) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	game.Set("config", string(b))
	return nil
}

// readInterrupt parses the active interrupt slot. A nil result means the
// slot is free.
func readInterrupt(game *core.Record) *models.Interrupt {
	raw := game.GetString("active_interrupt")
	if raw == "" || raw == "null" {
		return nil
	}
	var it models.Interrupt
	if err := json.Unmarshal([]byte(raw), &it); err != nil || it.ID == "" {
		return nil
	}
	return &it
}

// writeInterrupt sets or clears the active interrupt slot.
func writeInterrupt(game *core.Record, it *models.Interrupt) error {
	if it == nil {
		game.Set("active_interrupt", "")
		return nil
	}
	b, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to marshal interrupt: %w", err)
	}
	game.Set("active_interrupt", string(b))
	return nil
}

func readVotes(meeting *core.Record) map[string]models.Vote {
	votes := make(map[string]models.Vote)
	raw := meeting.GetString("votes")
	if raw == "" || raw == "null" {
		return votes
	}
	if err := json.Unmarshal([]byte(raw), &votes); err != nil {
		return make(map[string]models.Vote)
	}
	return votes
}

func writeVotes(meeting *core.Record, votes map[string]models.Vote) error {
	b, err := json.Marshal(votes)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}
	meeting.Set("votes", string(b))
	return nil
}

func readMeetingResult(meeting *core.Record) *models.MeetingResult {
	raw := meeting.GetString("result")
	if raw == "" || raw == "null" {
		return nil
	}
	var res models.MeetingResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil
	}
	return &res
}

func writeMeetingResult(meeting *core.Record, res *models.MeetingResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal meeting result: %w", err)
	}
	meeting.Set("result", string(b))
	return nil
}
