package webui

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"

	"sideout/internal/league"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type teamNewData struct {
	CSRFField template.HTML
	Errors    []string
}

type teamNewDataBuilder struct{}

func (teamNewDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	log := bc.Log

	if err := requireAdmin(bc); err != nil {
		return nil, err
	}

	data := &teamNewData{
		CSRFField: csrf.TemplateField(req),
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		var team league.Team
		serr := func() string {
			p := league.TeamParams{
				Name:      req.FormValue("name"),
				ShortName: req.FormValue("short-name"),
				Country:   req.FormValue("country"),
				HomeVenue: req.FormValue("home-venue"),
				LogoURL:   req.FormValue("logo-url"),
			}
			if y := req.FormValue("founded-year"); y != "" {
				year, err := strconv.Atoi(y)
				if err != nil {
					return "bad founded year"
				}
				p.FoundedYear = year
			}
			localTeam, err := cfg.League.CreateTeam(ctx, p)
			if err != nil {
				log.Warn("failed to create team", slogx.Err(err))
				return "failed to create team: " + err.Error()
			}
			team = localTeam
			return ""
		}()
		if serr != "" {
			data.Errors = []string{serr}
			return data, nil
		}
		return nil, bc.Redirect("/team/" + team.ID)
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func teamNewPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, teamNewDataBuilder{}, "team_new")
}
