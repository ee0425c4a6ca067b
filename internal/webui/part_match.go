package webui

import (
	"fmt"
	"time"

	"sideout/internal/favorites"
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
)

type matchItemData struct {
	ID         string
	Status     string
	Live       bool
	Finished   bool
	Home       *teamPartData
	Away       *teamPartData
	Score      string
	SetPoints  string
	Tournament string
	Scheduled  *humanTimePartData
	Favorite   bool
}

func hasFavorite(favs *favorites.Store, kind favorites.Kind, id string) bool {
	if favs == nil || id == "" {
		return false
	}
	return favs.Has(kind, id)
}

func favTeam(favs *favorites.Store, team *league.Team) bool {
	if team == nil {
		return false
	}
	return hasFavorite(favs, favorites.KindTeam, team.ID)
}

func buildMatchItemData(now time.Time, card scorebook.MatchCard, favs *favorites.Store) *matchItemData {
	m := card.Match
	d := &matchItemData{
		ID:        m.ID,
		Status:    m.Status.PrettyString(),
		Live:      m.Status == scoring.MatchLive,
		Finished:  m.Status == scoring.MatchFinished,
		Home:      buildTeamPartData(card.HomeTeam, favTeam(favs, card.HomeTeam)),
		Away:      buildTeamPartData(card.AwayTeam, favTeam(favs, card.AwayTeam)),
		Scheduled: buildHumanTimePartData(now, m.ScheduledAt.Local()),
		Favorite:  hasFavorite(favs, favorites.KindMatch, m.ID),
	}
	if m.Status != scoring.MatchScheduled && m.Status != scoring.MatchPostponed {
		d.Score = fmt.Sprintf("%v:%v", m.HomeScore, m.AwayScore)
	}
	if cur := card.CurrentSet(); cur != nil {
		d.SetPoints = fmt.Sprintf("%v:%v", cur.HomePoints, cur.AwayPoints)
	}
	if card.Tournament != nil {
		d.Tournament = card.Tournament.Name
	}
	return d
}
