package webui

import (
	"hash/fnv"

	"github.com/lucasb-eyer/go-colorful"

	"sideout/internal/league"
)

type teamPartData struct {
	ID       string
	Name     string
	Country  string
	Color    string
	Favorite bool
}

// teamColor derives a stable badge color from the team id, so a team looks
// the same on every page without storing a color column.
func teamColor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsl(hue, 0.55, 0.45).Hex()
}

func buildTeamPartData(team *league.Team, favorite bool) *teamPartData {
	if team == nil {
		return &teamPartData{
			Name:  "Unknown team",
			Color: "#777777",
		}
	}
	d := &teamPartData{
		ID:       team.ID,
		Name:     team.DisplayName(),
		Color:    teamColor(team.ID),
		Favorite: favorite,
	}
	if team.Country != nil {
		d.Country = *team.Country
	}
	return d
}
