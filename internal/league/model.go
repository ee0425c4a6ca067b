package league

import (
	"sideout/internal/util/timeutil"
)

// Team mirrors the teams table.
type Team struct {
	ID          string           `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"index" json:"name"`
	ShortName   *string          `json:"short_name"`
	LogoURL     *string          `json:"logo_url"`
	Country     *string          `json:"country"`
	FoundedYear *int             `json:"founded_year"`
	HomeVenue   *string          `json:"home_venue"`
	CreatedAt   timeutil.UTCTime `json:"created_at"`
	UpdatedAt   timeutil.UTCTime `json:"updated_at"`
}

func (Team) TableName() string { return "teams" }

// DisplayName prefers the short name where present.
func (t *Team) DisplayName() string {
	if t == nil {
		return "Unknown team"
	}
	if t.ShortName != nil && *t.ShortName != "" {
		return *t.ShortName
	}
	return t.Name
}

// Tournament mirrors the tournaments table.
type Tournament struct {
	ID        string            `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"index" json:"name"`
	ShortName *string           `json:"short_name"`
	Country   *string           `json:"country"`
	LogoURL   *string           `json:"logo_url"`
	Season    *string           `json:"season"`
	StartDate *timeutil.UTCTime `json:"start_date"`
	EndDate   *timeutil.UTCTime `json:"end_date"`
	IsActive  bool              `gorm:"index" json:"is_active"`
	CreatedAt timeutil.UTCTime  `json:"created_at"`
	UpdatedAt timeutil.UTCTime  `json:"updated_at"`
}

func (Tournament) TableName() string { return "tournaments" }

// Player mirrors the players table.
type Player struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	TeamID       *string           `gorm:"index" json:"team_id"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	JerseyNumber *int              `json:"jersey_number"`
	Position     *string           `json:"position"`
	HeightCm     *int              `json:"height_cm"`
	DateOfBirth  *timeutil.UTCTime `json:"date_of_birth"`
	Nationality  *string           `json:"nationality"`
	PhotoURL     *string           `json:"photo_url"`
	CreatedAt    timeutil.UTCTime  `json:"created_at"`
	UpdatedAt    timeutil.UTCTime  `json:"updated_at"`
}

func (Player) TableName() string { return "players" }

func (p Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PlayerStats mirrors the player_stats table: per-tournament aggregate
// numbers maintained by an external stats operator.
type PlayerStats struct {
	ID            string           `gorm:"primaryKey" json:"id"`
	PlayerID      *string          `gorm:"index" json:"player_id"`
	TournamentID  *string          `gorm:"index" json:"tournament_id"`
	MatchesPlayed int              `json:"matches_played"`
	PointsScored  int              `json:"points_scored"`
	Aces          int              `json:"aces"`
	Blocks        int              `json:"blocks"`
	Digs          int              `json:"digs"`
	Assists       int              `json:"assists"`
	CreatedAt     timeutil.UTCTime `json:"created_at"`
	UpdatedAt     timeutil.UTCTime `json:"updated_at"`
}

func (PlayerStats) TableName() string { return "player_stats" }
