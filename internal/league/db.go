package league

import (
	"context"
	"errors"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
)

type TeamFilter struct {
	// Query matches a substring of the team name, case-insensitively.
	Query   string
	Country string
}

type TournamentFilter struct {
	ActiveOnly bool
	Country    string
}

type DB interface {
	CreateTeam(ctx context.Context, team Team) error
	GetTeam(ctx context.Context, teamID string) (Team, error)
	ListTeams(ctx context.Context, filter TeamFilter) ([]Team, error)
	UpdateTeam(ctx context.Context, team Team) error
	DeleteTeam(ctx context.Context, teamID string) error

	CreateTournament(ctx context.Context, t Tournament) error
	GetTournament(ctx context.Context, tournamentID string) (Tournament, error)
	ListTournaments(ctx context.Context, filter TournamentFilter) ([]Tournament, error)
	UpdateTournament(ctx context.Context, t Tournament) error
	DeleteTournament(ctx context.Context, tournamentID string) error

	CreatePlayer(ctx context.Context, p Player) error
	ListTeamPlayers(ctx context.Context, teamID string) ([]Player, error)
	DeletePlayer(ctx context.Context, playerID string) error
	ListPlayerStats(ctx context.Context, playerID string) ([]PlayerStats, error)
}
