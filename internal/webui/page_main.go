package webui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"sideout/internal/favorites"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/util/sliceutil"
)

type mainData struct {
	Live      []*matchItemData
	Upcoming  []*matchItemData
	Recent    []*matchItemData
	Favorites []*matchItemData
}

type mainDataBuilder struct{}

func (mainDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	now := time.Now()

	build := func(cards []scorebook.MatchCard) []*matchItemData {
		return sliceutil.Map(cards, func(c scorebook.MatchCard) *matchItemData {
			return buildMatchItemData(now, c, bc.Favorites)
		})
	}

	live, err := cfg.Book.ListMatchCards(ctx, scorebook.MatchFilter{Status: scoring.MatchLive})
	if err != nil {
		return nil, fmt.Errorf("list live matches: %w", err)
	}

	upcoming, err := cfg.Book.ListMatchCards(ctx, scorebook.MatchFilter{
		Status: scoring.MatchScheduled,
		Limit:  cfg.opts.UpcomingLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming matches: %w", err)
	}

	recent, err := cfg.Book.ListMatchCards(ctx, scorebook.MatchFilter{Status: scoring.MatchFinished})
	if err != nil {
		return nil, fmt.Errorf("list recent matches: %w", err)
	}
	slices.Reverse(recent)
	if len(recent) > cfg.opts.RecentLimit {
		recent = recent[:cfg.opts.RecentLimit]
	}

	d := &mainData{
		Live:     build(live),
		Upcoming: build(upcoming),
		Recent:   build(recent),
	}

	if bc.Favorites != nil {
		ids := bc.Favorites.List(favorites.KindMatch)
		favCards := sliceutil.FilterMap(ids, func(id string) (scorebook.MatchCard, bool) {
			card, err := cfg.Book.Card(ctx, id)
			if err != nil {
				// The match may be gone; the next toggle resynchronizes.
				bc.Log.Info("skip stale favorite match", slog.String("match_id", id))
				return scorebook.MatchCard{}, false
			}
			return card, true
		})
		d.Favorites = build(favCards)
	}

	return d, nil
}

func mainPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, mainDataBuilder{}, "main")
}
