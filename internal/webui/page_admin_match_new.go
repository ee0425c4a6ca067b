package webui

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/util/httputil"
	"sideout/internal/util/sliceutil"
	"sideout/internal/util/slogx"
)

type matchNewData struct {
	Teams       []*teamPartData
	Tournaments []tournamentOptionData
	CSRFField   template.HTML
	Errors      []string
}

type matchNewDataBuilder struct{}

func (matchNewDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	log := bc.Log

	if err := requireAdmin(bc); err != nil {
		return nil, err
	}

	teams, err := cfg.League.ListTeams(ctx, league.TeamFilter{})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	tournaments, err := cfg.League.ListTournaments(ctx, league.TournamentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	data := &matchNewData{
		Teams: sliceutil.Map(teams, func(t league.Team) *teamPartData {
			return buildTeamPartData(&t, false)
		}),
		Tournaments: sliceutil.Map(tournaments, func(t league.Tournament) tournamentOptionData {
			return tournamentOptionData{ID: t.ID, Name: t.Name}
		}),
		CSRFField: csrf.TemplateField(req),
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		var match scoring.Match
		serr := func() string {
			scheduledAt, err := time.ParseInLocation("2006-01-02T15:04", req.FormValue("scheduled-at"), time.Local)
			if err != nil {
				return "bad scheduled time"
			}
			localMatch, err := cfg.Book.CreateMatch(ctx, scorebook.MatchParams{
				TournamentID: req.FormValue("tournament"),
				HomeTeamID:   req.FormValue("home-team"),
				AwayTeamID:   req.FormValue("away-team"),
				ScheduledAt:  scheduledAt,
				Venue:        req.FormValue("venue"),
				Round:        req.FormValue("round"),
			})
			if err != nil {
				log.Warn("failed to create match", slogx.Err(err))
				return "failed to create match: " + err.Error()
			}
			match = localMatch
			return ""
		}()
		if serr != "" {
			data.Errors = []string{serr}
			return data, nil
		}
		return nil, bc.Redirect("/admin/match/" + match.ID)
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func matchNewPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, matchNewDataBuilder{}, "match_new")
}
