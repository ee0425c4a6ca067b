package scorebook

import (
	"sideout/internal/league"
	"sideout/internal/scoring"
	"sideout/internal/util/timeutil"
)

// Event types recorded in the match_events log. The column is free-form by
// contract; these are the values this server writes.
const (
	EventPoint          = "point"
	EventSetStarted     = "set_started"
	EventSetFinished    = "set_finished"
	EventMatchStarted   = "match_started"
	EventMatchFinished  = "match_finished"
	EventMatchCancelled = "match_cancelled"
	EventMatchPostponed = "match_postponed"
)

// MatchEvent mirrors the match_events table: an append-only audit log of
// scoring and administrative actions. Events are recorded as a side effect
// of state changes and never replayed to rebuild state.
type MatchEvent struct {
	ID          string           `gorm:"primaryKey" json:"id"`
	MatchID     *string          `gorm:"index" json:"match_id"`
	SetNumber   *int             `json:"set_number"`
	EventType   string           `json:"event_type"`
	TeamID      *string          `json:"team_id"`
	PlayerID    *string          `json:"player_id"`
	Description *string          `json:"description"`
	HomeScore   *int             `json:"home_score"`
	AwayScore   *int             `json:"away_score"`
	Timestamp   timeutil.UTCTime `gorm:"index" json:"timestamp"`
	CreatedAt   timeutil.UTCTime `json:"created_at"`
}

func (MatchEvent) TableName() string { return "match_events" }

// MatchCard is a match enriched with everything a view needs in one read:
// the joined teams and tournament (nil when the reference dangles) and the
// ordered sets.
type MatchCard struct {
	Match      scoring.Match
	HomeTeam   *league.Team
	AwayTeam   *league.Team
	Tournament *league.Tournament
	Sets       []scoring.Set
}

// CurrentSet returns the in-progress set, or nil.
func (c *MatchCard) CurrentSet() *scoring.Set {
	for i := range c.Sets {
		if c.Sets[i].Status == scoring.SetInProgress {
			return &c.Sets[i]
		}
	}
	return nil
}

type MatchFilter struct {
	Status       scoring.MatchStatus
	TournamentID string
	TeamID       string
	Limit        int
}
