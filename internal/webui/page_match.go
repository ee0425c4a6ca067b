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

	"sideout/internal/favorites"
	"sideout/internal/scorebook"
	"sideout/internal/util/httputil"
	"sideout/internal/util/sliceutil"
)

type matchData struct {
	Scoreboard *scoreboardPartData
	Tournament string
	Scheduled  *humanTimePartData
	Events     []eventRowData
	Favorite   bool
	CanToggle  bool
	IsAdmin    bool
	CSRFField  template.HTML
}

type matchDataBuilder struct{}

func (matchDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	matchID := bc.Req.PathValue("matchID")

	card, err := cfg.Book.Card(ctx, matchID)
	if err != nil {
		if errors.Is(err, scorebook.ErrMatchNotFound) {
			return nil, httputil.MakeError(http.StatusNotFound, "match not found")
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	events, err := cfg.Book.ListMatchEvents(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}

	now := time.Now()
	d := &matchData{
		Scoreboard: buildScoreboardPartData(card),
		Scheduled:  buildHumanTimePartData(now, card.Match.ScheduledAt.Local()),
		Events: sliceutil.Map(events, func(ev scorebook.MatchEvent) eventRowData {
			return buildEventRowData(now, ev)
		}),
		Favorite:  hasFavorite(bc.Favorites, favorites.KindMatch, matchID),
		CanToggle: bc.UserInfo != nil,
		IsAdmin:   bc.UserInfo != nil && bc.UserInfo.IsAdmin,
		CSRFField: csrf.TemplateField(bc.Req),
	}
	if card.Tournament != nil {
		d.Tournament = card.Tournament.Name
	}
	return d, nil
}

func matchPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, matchDataBuilder{}, "match")
}
