package webui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideout/internal/league"
)

func TestBuildTeamPartDataDangling(t *testing.T) {
	d := buildTeamPartData(nil, false)
	assert.Equal(t, "", d.ID)
	assert.Equal(t, "Unknown team", d.Name)
	assert.Equal(t, "#777777", d.Color)
	assert.False(t, d.Favorite)
}

func TestTeamBadgeRendersDangling(t *testing.T) {
	templ := newTemplator(&Config{})
	tmpl, err := templ.Get("")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&b, "part/team_badge", buildTeamPartData(nil, false)))
	out := b.String()
	assert.Contains(t, out, "Unknown team")
	assert.NotContains(t, out, "<a ")

	b.Reset()
	team := &league.Team{ID: "team-1", Name: "Harbor City Breakers"}
	require.NoError(t, tmpl.ExecuteTemplate(&b, "part/team_badge", buildTeamPartData(team, true)))
	out = b.String()
	assert.Contains(t, out, "/team/team-1")
	assert.Contains(t, out, "Harbor City Breakers")
	assert.Contains(t, out, "fav-star")
}
