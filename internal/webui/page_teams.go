package webui

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"sideout/internal/league"
	"sideout/internal/util/sliceutil"
)

type teamsData struct {
	Teams     []*teamPartData
	Query     string
	CanToggle bool
	CSRFField template.HTML
}

type teamsDataBuilder struct{}

func (teamsDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	query := bc.Req.URL.Query().Get("q")

	teams, err := cfg.League.ListTeams(ctx, league.TeamFilter{Query: query})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return &teamsData{
		Teams: sliceutil.Map(teams, func(t league.Team) *teamPartData {
			return buildTeamPartData(&t, favTeam(bc.Favorites, &t))
		}),
		Query:     query,
		CanToggle: bc.UserInfo != nil,
		CSRFField: csrf.TemplateField(bc.Req),
	}, nil
}

func teamsPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, teamsDataBuilder{}, "teams")
}
