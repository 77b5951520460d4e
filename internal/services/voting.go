package services

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/models"
)

// VotingEngine collects ballots during a meeting and resolves them into an
// ejection (or not) exactly once. Votes are last-write-wins per voter and an
// empty target is an abstention.
type VotingEngine struct {
	app core.App
	hub *Hub

	// pickTied selects the index of the ejected player among tied
	// candidates under the RANDOM_TOP policy. Overridable in tests.
	pickTied func(n int) int
}

func NewVotingEngine(app core.App, hub *Hub) *VotingEngine {
	return &VotingEngine{
		app:      app,
		hub:      hub,
		pickTied: rand.IntN,
	}
}

// CastVote records or replaces a voter's ballot in an open meeting.
func (ve *VotingEngine) CastVote(gameID, meetingID, voterID, targetID string) error {
	return ve.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}

		meeting, err := tx.FindRecordById("meetings", meetingID)
		if err != nil || meeting.GetString("game_id") != gameID {
			return fmt.Errorf("meeting %s: %w", meetingID, ErrNotFound)
		}
		if meeting.GetString("status") != string(models.MeetingOpen) {
			return ErrMeetingClosed
		}

		voter, err := tx.FindRecordById("players", voterID)
		if err != nil || voter.GetString("game_id") != gameID {
			return fmt.Errorf("player %s: %w", voterID, ErrNotFound)
		}
		if !voter.GetBool("alive") {
			return ErrDead
		}

		cfg := readGameConfig(game)
		if targetID == "" {
			if !cfg.Voting.AllowAbstain {
				return ErrAbstainDisabled
			}
		} else {
			target, err := tx.FindRecordById("players", targetID)
			if err != nil || target.GetString("game_id") != gameID {
				return ErrInvalidTarget
			}
			if !target.GetBool("alive") {
				return ErrInvalidTarget
			}
		}

		votes := readVotes(meeting)
		votes[voterID] = models.Vote{Target: targetID, TS: nowMillis()}
		if err := writeVotes(meeting, votes); err != nil {
			return err
		}
		return tx.Save(meeting)
	})
}

// Resolve tallies the ballots, applies the tie policy and closes the
// meeting. The first call wins; later calls get the stored result together
// with ErrAlreadyResolved.
func (ve *VotingEngine) Resolve(gameID, meetingID string) (*models.MeetingResult, error) {
	var result *models.MeetingResult
	var ended bool
	var winner models.Winner

	err := ve.app.RunInTransaction(func(tx core.App) error {
		game, err := tx.FindRecordById("games", gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}

		meeting, err := tx.FindRecordById("meetings", meetingID)
		if err != nil || meeting.GetString("game_id") != gameID {
			return fmt.Errorf("meeting %s: %w", meetingID, ErrNotFound)
		}
		if meeting.GetString("status") == string(models.MeetingResolved) {
			result = readMeetingResult(meeting)
			return ErrAlreadyResolved
		}

		cfg := readGameConfig(game)
		result, err = ve.tally(tx, gameID, readVotes(meeting), cfg.Voting.TiePolicy)
		if err != nil {
			return err
		}

		if result.EjectedPlayerID != "" {
			ejected, err := tx.FindRecordById("players", result.EjectedPlayerID)
			if err != nil {
				return fmt.Errorf("player %s: %w", result.EjectedPlayerID, ErrNotFound)
			}
			ejected.Set("alive", false)
			if err := tx.Save(ejected); err != nil {
				return fmt.Errorf("failed to save ejected player: %w", err)
			}
		}

		meeting.Set("status", string(models.MeetingResolved))
		if err := writeMeetingResult(meeting, result); err != nil {
			return err
		}
		if err := tx.Save(meeting); err != nil {
			return fmt.Errorf("failed to save meeting: %w", err)
		}

		// Release the interrupt slot if this meeting still holds it.
		if it := readInterrupt(game); it != nil && it.ID == meetingID {
			if err := writeInterrupt(game, nil); err != nil {
				return err
			}
			if err := tx.Save(game); err != nil {
				return fmt.Errorf("failed to save game: %w", err)
			}
		}

		winner, ended, err = EvaluateWin(tx, game)
		return err
	})
	if err != nil {
		return result, err
	}

	ve.hub.Broadcast(gameID, &models.Event{
		Type: models.EventMeetingResolved,
		Payload: map[string]any{
			"meeting_id": meetingID,
			"result":     result,
		},
	})
	if ended {
		ve.hub.Broadcast(gameID, &models.Event{
			Type: models.EventGameEnded,
			Payload: map[string]any{
				"winner": winner,
			},
		})
	}
	return result, nil
}

// tally counts ballots from alive voters only. Skips tie or beat the top
// candidate, nobody leaves. A unique top candidate is ejected by majority.
// A tie between candidates follows the configured policy.
func (ve *VotingEngine) tally(tx core.App, gameID string, votes map[string]models.Vote, policy models.TiePolicy) (*models.MeetingResult, error) {
	counts := make(map[string]int)
	skips := 0
	for voterID, vote := range votes {
		voter, err := tx.FindRecordById("players", voterID)
		if err != nil || voter.GetString("game_id") != gameID || !voter.GetBool("alive") {
			continue // died since voting, ballot discarded
		}
		if vote.Target == "" {
			skips++
		} else {
			counts[vote.Target]++
		}
	}

	maxVotes := 0
	for _, n := range counts {
		if n > maxVotes {
			maxVotes = n
		}
	}
	if maxVotes == 0 || skips >= maxVotes {
		return &models.MeetingResult{Reason: models.ReasonTieNoEject}, nil
	}

	var top []string
	for id, n := range counts {
		if n == maxVotes {
			top = append(top, id)
		}
	}
	if len(top) == 1 {
		return &models.MeetingResult{EjectedPlayerID: top[0], Reason: models.ReasonMajority}, nil
	}

	if policy == models.TieRandomTop {
		sort.Strings(top)
		return &models.MeetingResult{EjectedPlayerID: top[ve.pickTied(len(top))], Reason: models.ReasonRandomTop}, nil
	}
	return &models.MeetingResult{Reason: models.ReasonTieNoEject}, nil
}
