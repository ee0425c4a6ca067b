package webui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/util/httputil"
	"sideout/internal/util/sliceutil"
)

type matchesData struct {
	Matches     []*matchItemData
	Status      string
	Tournaments []tournamentOptionData
	Tournament  string
}

type tournamentOptionData struct {
	ID       string
	Name     string
	Selected bool
}

type matchesDataBuilder struct{}

func (matchesDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req

	query := req.URL.Query()
	filter := scorebook.MatchFilter{
		TournamentID: query.Get("tournament"),
	}
	if s := query.Get("status"); s != "" {
		status := scoring.MatchStatus(s)
		if !status.IsValid() {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad status filter")
		}
		filter.Status = status
	}

	cards, err := cfg.Book.ListMatchCards(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	tournaments, err := cfg.League.ListTournaments(ctx, league.TournamentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	now := time.Now()
	return &matchesData{
		Matches: sliceutil.Map(cards, func(c scorebook.MatchCard) *matchItemData {
			return buildMatchItemData(now, c, bc.Favorites)
		}),
		Status: query.Get("status"),
		Tournaments: sliceutil.Map(tournaments, func(t league.Tournament) tournamentOptionData {
			return tournamentOptionData{
				ID:       t.ID,
				Name:     t.Name,
				Selected: t.ID == filter.TournamentID,
			}
		}),
		Tournament: filter.TournamentID,
	}, nil
}

func matchesPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, matchesDataBuilder{}, "matches")
}
