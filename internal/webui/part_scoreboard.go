package webui

import (
	"fmt"
	"time"

	"sideout/internal/scorebook"
	"sideout/internal/scoring"
)

type setRowData struct {
	Number     int
	HomePoints int
	AwayPoints int
	InProgress bool
	Finished   bool
}

type scoreboardPartData struct {
	MatchID    string
	Status     string
	Live       bool
	Home       *teamPartData
	Away       *teamPartData
	HomeScore  int
	AwayScore  int
	CurrentSet int
	Sets       []setRowData
	Venue      string
	Round      string
}

func buildScoreboardPartData(card scorebook.MatchCard) *scoreboardPartData {
	m := card.Match
	d := &scoreboardPartData{
		MatchID:    m.ID,
		Status:     m.Status.PrettyString(),
		Live:       m.Status == scoring.MatchLive,
		Home:       buildTeamPartData(card.HomeTeam, false),
		Away:       buildTeamPartData(card.AwayTeam, false),
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		CurrentSet: m.CurrentSet,
	}
	if m.Venue != nil {
		d.Venue = *m.Venue
	}
	if m.Round != nil {
		d.Round = *m.Round
	}
	for _, s := range card.Sets {
		d.Sets = append(d.Sets, setRowData{
			Number:     s.SetNumber,
			HomePoints: s.HomePoints,
			AwayPoints: s.AwayPoints,
			InProgress: s.Status == scoring.SetInProgress,
			Finished:   s.Status == scoring.SetFinished,
		})
	}
	return d
}

type eventRowData struct {
	Type        string
	Set         string
	Score       string
	Description string
	At          *humanTimePartData
}

func buildEventRowData(now time.Time, ev scorebook.MatchEvent) eventRowData {
	d := eventRowData{
		Type: ev.EventType,
		At:   buildHumanTimePartData(now, ev.Timestamp.Local()),
	}
	if ev.SetNumber != nil {
		d.Set = fmt.Sprintf("set %v", *ev.SetNumber)
	}
	if ev.HomeScore != nil && ev.AwayScore != nil {
		d.Score = fmt.Sprintf("%v:%v", *ev.HomeScore, *ev.AwayScore)
	}
	if ev.Description != nil {
		d.Description = *ev.Description
	}
	return d
}
