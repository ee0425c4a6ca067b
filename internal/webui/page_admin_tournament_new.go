package webui

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"sideout/internal/league"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type tournamentNewData struct {
	CSRFField template.HTML
	Errors    []string
}

type tournamentNewDataBuilder struct{}

func parseOptDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (tournamentNewDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	log := bc.Log

	if err := requireAdmin(bc); err != nil {
		return nil, err
	}

	data := &tournamentNewData{
		CSRFField: csrf.TemplateField(req),
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		var t league.Tournament
		serr := func() string {
			start, err := parseOptDate(req.FormValue("start-date"))
			if err != nil {
				return "bad start date"
			}
			end, err := parseOptDate(req.FormValue("end-date"))
			if err != nil {
				return "bad end date"
			}
			localT, err := cfg.League.CreateTournament(ctx, league.TournamentParams{
				Name:      req.FormValue("name"),
				ShortName: req.FormValue("short-name"),
				Country:   req.FormValue("country"),
				Season:    req.FormValue("season"),
				StartDate: start,
				EndDate:   end,
				IsActive:  req.FormValue("active") != "",
			})
			if err != nil {
				log.Warn("failed to create tournament", slogx.Err(err))
				return "failed to create tournament: " + err.Error()
			}
			t = localT
			return ""
		}()
		if serr != "" {
			data.Errors = []string{serr}
			return data, nil
		}
		return nil, bc.Redirect("/tournament/" + t.ID)
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func tournamentNewPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, tournamentNewDataBuilder{}, "tournament_new")
}
