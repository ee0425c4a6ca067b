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
	"sideout/internal/util/slogx"
)

type playerItemData struct {
	ID       string
	Name     string
	Jersey   *int
	Position string
	Points   int
	Aces     int
	Blocks   int
}

type teamData struct {
	Team      *teamPartData
	Venue     string
	Founded   *int
	Players   []playerItemData
	Matches   []*matchItemData
	CanToggle bool
	IsAdmin   bool
	CSRFField template.HTML
}

type teamDataBuilder struct{}

func (teamDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	log := bc.Log
	req := bc.Req
	teamID := req.PathValue("teamID")

	if req.Method == http.MethodPost {
		if err := requireAdmin(bc); err != nil {
			return nil, err
		}
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		switch req.FormValue("action") {
		case "delete":
			// Matches referencing the team stay behind and render it as
			// an unknown team.
			if err := cfg.League.DeleteTeam(ctx, teamID); err != nil {
				if errors.Is(err, league.ErrTeamNotFound) {
					return nil, httputil.MakeError(http.StatusNotFound, "team not found")
				}
				return nil, fmt.Errorf("delete team: %w", err)
			}
			return nil, bc.Redirect("/teams")
		case "delete-player":
			err := cfg.League.DeletePlayer(ctx, req.FormValue("player-id"))
			if err != nil && !errors.Is(err, league.ErrPlayerNotFound) {
				return nil, fmt.Errorf("delete player: %w", err)
			}
			return nil, bc.Redirect("/team/" + teamID)
		default:
			return nil, httputil.MakeError(http.StatusBadRequest, "bad action")
		}
	}

	team, err := cfg.League.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, league.ErrTeamNotFound) {
			return nil, httputil.MakeError(http.StatusNotFound, "team not found")
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	players, err := cfg.League.ListTeamPlayers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	cards, err := cfg.Book.ListMatchCards(ctx, scorebook.MatchFilter{TeamID: teamID})
	if err != nil {
		return nil, fmt.Errorf("list team matches: %w", err)
	}

	now := time.Now()
	d := &teamData{
		Team:    buildTeamPartData(&team, favTeam(bc.Favorites, &team)),
		Founded: team.FoundedYear,
		Matches: sliceutil.Map(cards, func(c scorebook.MatchCard) *matchItemData {
			return buildMatchItemData(now, c, bc.Favorites)
		}),
		CanToggle: bc.UserInfo != nil,
		IsAdmin:   bc.FullUser != nil && bc.FullUser.IsAdmin,
		CSRFField: csrf.TemplateField(req),
	}
	if team.HomeVenue != nil {
		d.Venue = *team.HomeVenue
	}

	for _, p := range players {
		item := playerItemData{
			ID:     p.ID,
			Name:   p.FullName(),
			Jersey: p.JerseyNumber,
		}
		if p.Position != nil {
			item.Position = *p.Position
		}
		stats, err := cfg.League.ListPlayerStats(ctx, p.ID)
		if err != nil {
			// Stats are decorative, the roster renders without them.
			log.Warn("could not load player stats", slogx.Err(err))
		}
		for _, s := range stats {
			item.Points += s.PointsScored
			item.Aces += s.Aces
			item.Blocks += s.Blocks
		}
		d.Players = append(d.Players, item)
	}

	return d, nil
}

func teamPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, teamDataBuilder{}, "team")
}
