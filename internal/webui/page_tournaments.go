package webui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"sideout/internal/league"
	"sideout/internal/util/sliceutil"
)

type tournamentItemData struct {
	ID      string
	Name    string
	Season  string
	Country string
	Active  bool
	Dates   string
}

func buildTournamentItemData(t league.Tournament) tournamentItemData {
	d := tournamentItemData{
		ID:     t.ID,
		Name:   t.Name,
		Active: t.IsActive,
	}
	if t.Season != nil {
		d.Season = *t.Season
	}
	if t.Country != nil {
		d.Country = *t.Country
	}
	if t.StartDate != nil && t.EndDate != nil {
		const layout = "02 Jan 2006"
		d.Dates = fmt.Sprintf("%v - %v",
			t.StartDate.Local().Format(layout), t.EndDate.Local().Format(layout))
	}
	return d
}

type tournamentsData struct {
	Tournaments []tournamentItemData
	ActiveOnly  bool
}

type tournamentsDataBuilder struct{}

func (tournamentsDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	activeOnly := bc.Req.URL.Query().Get("active") != ""

	tournaments, err := cfg.League.ListTournaments(ctx, league.TournamentFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	return &tournamentsData{
		Tournaments: sliceutil.Map(tournaments, buildTournamentItemData),
		ActiveOnly:  activeOnly,
	}, nil
}

func tournamentsPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, tournamentsDataBuilder{}, "tournaments")
}
