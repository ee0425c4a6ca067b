package webui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/util/httputil"
	"sideout/internal/util/sliceutil"
)

type tournamentData struct {
	Tournament tournamentItemData
	Matches    []*matchItemData
	IsAdmin    bool
	CSRFField  template.HTML
}

type tournamentDataBuilder struct{}

func (tournamentDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	tournamentID := req.PathValue("tournamentID")

	if req.Method == http.MethodPost {
		if err := requireAdmin(bc); err != nil {
			return nil, err
		}
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		switch req.FormValue("action") {
		case "delete":
			// Matches keep their tournament reference and show up without
			// a tournament caption afterwards.
			if err := cfg.League.DeleteTournament(ctx, tournamentID); err != nil {
				if errors.Is(err, league.ErrTournamentNotFound) {
					return nil, httputil.MakeError(http.StatusNotFound, "tournament not found")
				}
				return nil, fmt.Errorf("delete tournament: %w", err)
			}
			return nil, bc.Redirect("/tournaments")
		default:
			return nil, httputil.MakeError(http.StatusBadRequest, "bad action")
		}
	}

	t, err := cfg.League.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, league.ErrTournamentNotFound) {
			return nil, httputil.MakeError(http.StatusNotFound, "tournament not found")
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}

	cards, err := cfg.Book.ListMatchCards(ctx, scorebook.MatchFilter{TournamentID: tournamentID})
	if err != nil {
		return nil, fmt.Errorf("list tournament matches: %w", err)
	}

	now := time.Now()
	return &tournamentData{
		Tournament: buildTournamentItemData(t),
		Matches: sliceutil.Map(cards, func(c scorebook.MatchCard) *matchItemData {
			return buildMatchItemData(now, c, bc.Favorites)
		}),
		IsAdmin:   bc.FullUser != nil && bc.FullUser.IsAdmin,
		CSRFField: csrf.TemplateField(req),
	}, nil
}

func tournamentPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, tournamentDataBuilder{}, "tournament")
}
