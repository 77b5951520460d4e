package models

type MeetingStatus string

const (
	MeetingOpen     MeetingStatus = "OPEN"
	MeetingResolved MeetingStatus = "RESOLVED"
)

type TiePolicy string

const (
	TieNoEject   TiePolicy = "NO_EJECT"
	TieRandomTop TiePolicy = "RANDOM_TOP"
)

func ValidTiePolicy(p TiePolicy) bool {
	return p == TieNoEject || p == TieRandomTop
}

type VoteReason string

const (
	ReasonTieNoEject VoteReason = "TIE_NO_EJECT"
	ReasonMajority   VoteReason = "MAJORITY"
	ReasonRandomTop  VoteReason = "RANDOM_TOP"
)

// Vote is one ballot inside a meeting's vote map, keyed by voter id.
// An empty Target is an abstain/skip ballot. Resubmission overwrites the
// previous entry (last write wins).
type Vote struct {
	Target string `json:"target"`
	TS     int64  `json:"ts"` // unix millis
}

// MeetingResult is written exactly once when a meeting resolves.
type MeetingResult struct {
	EjectedPlayerID string     `json:"ejected_player_id,omitempty"`
	Reason          VoteReason `json:"reason"`
}
