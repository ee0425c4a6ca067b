package league

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"sideout/internal/util/idgen"
	"sideout/internal/util/timeutil"
)

const NameMaxLen = 128

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name not specified")
	}
	if utf8.RuneCountInString(name) > NameMaxLen {
		return fmt.Errorf("name exceeds %v characters", NameMaxLen)
	}
	return nil
}

// Manager owns administrative CRUD over the descriptive entities. Authorization
// is the caller's duty; the manager validates and stamps.
type Manager struct {
	DB
}

func NewManager(db DB) *Manager {
	return &Manager{DB: db}
}

type TeamParams struct {
	Name        string
	ShortName   string
	LogoURL     string
	Country     string
	FoundedYear int
	HomeVenue   string
}

func (p *TeamParams) apply(team *Team) {
	team.Name = p.Name
	team.ShortName = optStr(p.ShortName)
	team.LogoURL = optStr(p.LogoURL)
	team.Country = optStr(p.Country)
	team.FoundedYear = optInt(p.FoundedYear)
	team.HomeVenue = optStr(p.HomeVenue)
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func (m *Manager) CreateTeam(ctx context.Context, p TeamParams) (Team, error) {
	if err := validateName(p.Name); err != nil {
		return Team{}, err
	}
	now := timeutil.NowUTC()
	team := Team{
		ID:        idgen.ID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(&team)
	if err := m.DB.CreateTeam(ctx, team); err != nil {
		return Team{}, err
	}
	return team, nil
}

func (m *Manager) UpdateTeam(ctx context.Context, teamID string, p TeamParams) (Team, error) {
	if err := validateName(p.Name); err != nil {
		return Team{}, err
	}
	team, err := m.GetTeam(ctx, teamID)
	if err != nil {
		return Team{}, err
	}
	p.apply(&team)
	team.UpdatedAt = timeutil.NowUTC()
	if err := m.DB.UpdateTeam(ctx, team); err != nil {
		return Team{}, err
	}
	return team, nil
}

type TournamentParams struct {
	Name      string
	ShortName string
	Country   string
	LogoURL   string
	Season    string
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  bool
}

func (p *TournamentParams) apply(t *Tournament) {
	t.Name = p.Name
	t.ShortName = optStr(p.ShortName)
	t.Country = optStr(p.Country)
	t.LogoURL = optStr(p.LogoURL)
	t.Season = optStr(p.Season)
	t.StartDate = optTime(p.StartDate)
	t.EndDate = optTime(p.EndDate)
	t.IsActive = p.IsActive
}

func optTime(t *time.Time) *timeutil.UTCTime {
	if t == nil {
		return nil
	}
	res := timeutil.UTCTime(t.UTC())
	return &res
}

func (m *Manager) CreateTournament(ctx context.Context, p TournamentParams) (Tournament, error) {
	if err := validateName(p.Name); err != nil {
		return Tournament{}, err
	}
	if err := validateDates(p.StartDate, p.EndDate); err != nil {
		return Tournament{}, err
	}
	now := timeutil.NowUTC()
	t := Tournament{
		ID:        idgen.ID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(&t)
	if err := m.DB.CreateTournament(ctx, t); err != nil {
		return Tournament{}, err
	}
	return t, nil
}

func (m *Manager) UpdateTournament(ctx context.Context, tournamentID string, p TournamentParams) (Tournament, error) {
	if err := validateName(p.Name); err != nil {
		return Tournament{}, err
	}
	if err := validateDates(p.StartDate, p.EndDate); err != nil {
		return Tournament{}, err
	}
	t, err := m.GetTournament(ctx, tournamentID)
	if err != nil {
		return Tournament{}, err
	}
	p.apply(&t)
	t.UpdatedAt = timeutil.NowUTC()
	if err := m.DB.UpdateTournament(ctx, t); err != nil {
		return Tournament{}, err
	}
	return t, nil
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("end date before start date")
	}
	return nil
}

type PlayerParams struct {
	TeamID       string
	FirstName    string
	LastName     string
	JerseyNumber int
	Position     string
	HeightCm     int
	Nationality  string
	PhotoURL     string
	DateOfBirth  *time.Time
}

func (m *Manager) CreatePlayer(ctx context.Context, p PlayerParams) (Player, error) {
	if p.FirstName == "" || p.LastName == "" {
		return Player{}, fmt.Errorf("player name not specified")
	}
	if _, err := m.GetTeam(ctx, p.TeamID); err != nil {
		return Player{}, err
	}
	now := timeutil.NowUTC()
	player := Player{
		ID:           idgen.ID(),
		TeamID:       optStr(p.TeamID),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		JerseyNumber: optInt(p.JerseyNumber),
		Position:     optStr(p.Position),
		HeightCm:     optInt(p.HeightCm),
		Nationality:  optStr(p.Nationality),
		PhotoURL:     optStr(p.PhotoURL),
		DateOfBirth:  optTime(p.DateOfBirth),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.DB.CreatePlayer(ctx, player); err != nil {
		return Player{}, err
	}
	return player, nil
}
