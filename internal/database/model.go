package database

import (
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/userauth"
	"sideout/internal/util/timeutil"
)

// FavoriteTeam mirrors the user_favorite_teams table. Rows are keyed by the
// (user, team) pair; ID exists only because the wire contract has it.
type FavoriteTeam struct {
	ID        string           `gorm:"primaryKey"`
	UserID    string           `gorm:"index:idx_fav_team,unique"`
	TeamID    string           `gorm:"index:idx_fav_team,unique"`
	CreatedAt timeutil.UTCTime
}

func (FavoriteTeam) TableName() string { return "user_favorite_teams" }

// FavoriteMatch mirrors the user_favorite_matches table.
type FavoriteMatch struct {
	ID        string           `gorm:"primaryKey"`
	UserID    string           `gorm:"index:idx_fav_match,unique"`
	MatchID   string           `gorm:"index:idx_fav_match,unique"`
	CreatedAt timeutil.UTCTime
}

func (FavoriteMatch) TableName() string { return "user_favorite_matches" }

var models = []any{
	&league.Team{},
	&league.Tournament{},
	&league.Player{},
	&league.PlayerStats{},
	&scoring.Match{},
	&scoring.Set{},
	&scorebook.MatchEvent{},
	&userauth.User{},
	&FavoriteTeam{},
	&FavoriteMatch{},
}
