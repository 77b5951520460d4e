package models

// PhysDigRatio splits the task pool between physical and digital tasks,
// expressed in percent (physical + digital = 100).
type PhysDigRatio struct {
	Physical int `json:"physical"`
	Digital  int `json:"digital"`
}

// VotingRules configures meeting ballots.
type VotingRules struct {
	AllowAbstain bool      `json:"allow_abstain"`
	TiePolicy    TiePolicy `json:"tie_policy"`
}

// GameConfig is the host-tunable game configuration, stored as JSON on the
// game record. It may only change while the game is in the lobby.
type GameConfig struct {
	Impostors          int          `json:"impostors"`
	Snitches           int          `json:"snitches"`
	SabotageDurationMs int64        `json:"sabotage_duration_ms"`
	MeetingDurationMs  int64        `json:"meeting_duration_ms"`
	VotingDurationMs   int64        `json:"voting_duration_ms"`
	SabotageCdMs       int64        `json:"sabotage_cd_ms"`
	MeetingCdMs        int64        `json:"meeting_cd_ms"`
	TaskPoolSize       int          `json:"task_pool_size"`
	TasksPerPlayer     int          `json:"tasks_per_player"`
	AllowTaskDupes     bool         `json:"allow_task_dupes"`
	PhysDigRatio       PhysDigRatio `json:"phys_dig_ratio"`
	GhostTasksEnabled  bool         `json:"ghost_tasks_enabled"`
	Voting             VotingRules  `json:"voting"`
}

// DefaultGameConfig returns the configuration a freshly created game starts
// with.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Impostors:          1,
		Snitches:           0,
		SabotageDurationMs: 30000,
		MeetingDurationMs:  120000,
		VotingDurationMs:   45000,
		SabotageCdMs:       60000,
		MeetingCdMs:        90000,
		TaskPoolSize:       10,
		TasksPerPlayer:     5,
		AllowTaskDupes:     false,
		PhysDigRatio:       PhysDigRatio{Physical: 60, Digital: 40},
		GhostTasksEnabled:  true,
		Voting:             VotingRules{AllowAbstain: true, TiePolicy: TieNoEject},
	}
}
