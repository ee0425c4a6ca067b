package scoring

import (
	"fmt"

	"sideout/internal/util/timeutil"
)

// Match mirrors the matches table. Foreign keys are nullable: a referenced
// team or tournament may be deleted out from under a match, and the match
// must survive with a dangling reference.
type Match struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	TournamentID *string           `gorm:"index" json:"tournament_id"`
	HomeTeamID   *string           `gorm:"index" json:"home_team_id"`
	AwayTeamID   *string           `gorm:"index" json:"away_team_id"`
	ScheduledAt  timeutil.UTCTime  `gorm:"index" json:"scheduled_at"`
	Status       MatchStatus       `gorm:"index" json:"status"`
	Venue        *string           `json:"venue"`
	Round        *string           `json:"round"`
	HomeScore    int               `json:"home_score"`
	AwayScore    int               `json:"away_score"`
	CurrentSet   int               `json:"current_set"`
	StartedAt    *timeutil.UTCTime `json:"started_at"`
	FinishedAt   *timeutil.UTCTime `json:"finished_at"`
	CreatedAt    timeutil.UTCTime  `json:"created_at"`
	UpdatedAt    timeutil.UTCTime  `json:"updated_at"`
}

func (Match) TableName() string { return "matches" }

func (m Match) Clone() Match {
	res := m
	res.TournamentID = clonePtr(m.TournamentID)
	res.HomeTeamID = clonePtr(m.HomeTeamID)
	res.AwayTeamID = clonePtr(m.AwayTeamID)
	res.Venue = clonePtr(m.Venue)
	res.Round = clonePtr(m.Round)
	res.StartedAt = clonePtr(m.StartedAt)
	res.FinishedAt = clonePtr(m.FinishedAt)
	return res
}

// Set mirrors the sets table. SetNumber is 1-based and unique per match.
type Set struct {
	ID         string            `gorm:"primaryKey" json:"id"`
	MatchID    *string           `gorm:"index" json:"match_id"`
	SetNumber  int               `json:"set_number"`
	HomePoints int               `json:"home_points"`
	AwayPoints int               `json:"away_points"`
	Status     SetStatus         `json:"status"`
	StartedAt  *timeutil.UTCTime `json:"started_at"`
	FinishedAt *timeutil.UTCTime `json:"finished_at"`
	CreatedAt  timeutil.UTCTime  `json:"created_at"`
	UpdatedAt  timeutil.UTCTime  `json:"updated_at"`
}

func (Set) TableName() string { return "sets" }

func (s Set) Clone() Set {
	res := s
	res.MatchID = clonePtr(s.MatchID)
	res.StartedAt = clonePtr(s.StartedAt)
	res.FinishedAt = clonePtr(s.FinishedAt)
	return res
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	res := *p
	return &res
}

// Rules is the scoring policy. The stored schema does not encode point
// thresholds, so they arrive here as configuration rather than constants.
type Rules struct {
	BestOf            int `toml:"best-of"`
	SetTarget         int `toml:"set-target"`
	DecidingSetTarget int `toml:"deciding-set-target"`
	WinBy             int `toml:"win-by"`
}

func (r *Rules) FillDefaults() {
	if r.BestOf == 0 {
		r.BestOf = 5
	}
	if r.SetTarget == 0 {
		r.SetTarget = 25
	}
	if r.DecidingSetTarget == 0 {
		r.DecidingSetTarget = 15
	}
	if r.WinBy == 0 {
		r.WinBy = 2
	}
}

func (r *Rules) Validate() error {
	if r.BestOf < 0 || r.BestOf%2 == 0 {
		return fmt.Errorf("best-of must be odd")
	}
	if r.SetTarget < 0 || r.DecidingSetTarget < 0 || r.WinBy < 0 {
		return fmt.Errorf("negative scoring rule")
	}
	return nil
}

// SetsToWin is the number of won sets that decides a match.
func (r Rules) SetsToWin() int {
	return r.BestOf/2 + 1
}

// TargetFor returns the point target for the given 1-based set number.
func (r Rules) TargetFor(setNumber int) int {
	if setNumber >= r.BestOf {
		return r.DecidingSetTarget
	}
	return r.SetTarget
}

// SetDecided reports whether the given point tally decides a set under these
// rules, and who took it. This is advisory: the scorekeeper may finish a set
// early or keep it open, matching how the stored model treats thresholds.
func (r Rules) SetDecided(setNumber, homePoints, awayPoints int) (homeWon bool, decided bool) {
	target := r.TargetFor(setNumber)
	diff := homePoints - awayPoints
	if homePoints >= target && diff >= r.WinBy {
		return true, true
	}
	if awayPoints >= target && -diff >= r.WinBy {
		return false, true
	}
	return false, false
}
