package webui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type matchAdminData struct {
	Scoreboard  *scoreboardPartData
	Scheduled   string
	Rules       string
	CanScore    bool
	CanStartSet bool
	CanCancel   bool
	CanPostpone bool
	CanResume   bool
	CSRFField   template.HTML
	Errors      []string
}

type matchAdminDataBuilder struct{}

func formatRules(r scoring.Rules) string {
	return fmt.Sprintf("best of %v, sets to %v, deciding set to %v, win by %v",
		r.BestOf, r.SetTarget, r.DecidingSetTarget, r.WinBy)
}

func buildMatchAdminData(req *http.Request, card scorebook.MatchCard, rules scoring.Rules) *matchAdminData {
	m := card.Match
	return &matchAdminData{
		Scoreboard:  buildScoreboardPartData(card),
		Scheduled:   m.ScheduledAt.Local().Format("2006-01-02T15:04"),
		Rules:       formatRules(rules),
		CanScore:    card.CurrentSet() != nil,
		CanStartSet: !m.Status.IsTerminal() && m.Status != scoring.MatchPostponed && card.CurrentSet() == nil,
		CanCancel:   scoring.CanTransition(m.Status, scoring.MatchCancelled),
		CanPostpone: scoring.CanTransition(m.Status, scoring.MatchPostponed),
		CanResume:   scoring.CanTransition(m.Status, scoring.MatchScheduled),
		CSRFField:   csrf.TemplateField(req),
	}
}

// handleAction applies one scorekeeper action and returns a user-facing
// error string when the action is rejected rather than failed.
func handleAction(ctx context.Context, bc builderCtx, matchID string) (string, error) {
	cfg := bc.Config
	req := bc.Req

	var err error
	switch req.FormValue("action") {
	case "start-set":
		_, err = cfg.Book.StartNextSet(ctx, matchID)
	case "points":
		var home, away int
		home, err = strconv.Atoi(req.FormValue("home-points"))
		if err != nil {
			return "bad home points", nil
		}
		away, err = strconv.Atoi(req.FormValue("away-points"))
		if err != nil {
			return "bad away points", nil
		}
		_, err = cfg.Book.UpdatePoints(ctx, matchID, home, away)
	case "finish-set":
		_, err = cfg.Book.FinishSet(ctx, matchID)
	case "cancel":
		_, err = cfg.Book.CancelMatch(ctx, matchID)
	case "postpone":
		_, err = cfg.Book.PostponeMatch(ctx, matchID)
	case "reschedule":
		var at time.Time
		at, err = time.ParseInLocation("2006-01-02T15:04", req.FormValue("scheduled-at"), time.Local)
		if err != nil {
			return "bad scheduled time", nil
		}
		_, err = cfg.Book.RescheduleMatch(ctx, matchID, at)
	case "delete":
		if err := cfg.Book.DeleteMatch(ctx, matchID); err != nil {
			return "", err
		}
		return "", bc.Redirect("/matches")
	default:
		return "", httputil.MakeError(http.StatusBadRequest, "bad action")
	}

	if err != nil {
		var verr *scoring.ValidationError
		switch {
		case errors.As(err, &verr):
			return verr.Msg, nil
		case errors.Is(err, scorebook.ErrBadTransition),
			errors.Is(err, scorebook.ErrNoActiveSet),
			errors.Is(err, scorebook.ErrSetInProgress):
			return err.Error(), nil
		default:
			return "", err
		}
	}
	return "", nil
}

func (matchAdminDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	log := bc.Log
	matchID := req.PathValue("matchID")

	if err := requireAdmin(bc); err != nil {
		return nil, err
	}

	var actionErr string
	if req.Method == http.MethodPost {
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		serr, err := handleAction(ctx, bc, matchID)
		if err != nil {
			if httpErr := (*httputil.Error)(nil); errors.As(err, &httpErr) {
				return nil, err
			}
			if errors.Is(err, scorebook.ErrMatchNotFound) {
				return nil, httputil.MakeError(http.StatusNotFound, "match not found")
			}
			log.Warn("scorekeeper action failed", slogx.Err(err))
			return nil, fmt.Errorf("apply action: %w", err)
		}
		if serr == "" {
			// PRG: a successful action reloads the panel via GET.
			return nil, bc.Redirect("/admin/match/" + matchID)
		}
		actionErr = serr
	}

	card, err := cfg.Book.Card(ctx, matchID)
	if err != nil {
		if errors.Is(err, scorebook.ErrMatchNotFound) {
			return nil, httputil.MakeError(http.StatusNotFound, "match not found")
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	data := buildMatchAdminData(req, card, cfg.Book.Rules())
	if actionErr != "" {
		data.Errors = []string{actionErr}
	}
	return data, nil
}

func matchAdminPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, matchAdminDataBuilder{}, "match_admin")
}
