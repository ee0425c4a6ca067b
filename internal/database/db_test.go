package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideout/internal/favorites"
	"sideout/internal/league"
	"sideout/internal/scoring"
	"sideout/internal/util/idgen"
	"sideout/internal/util/slogx"
	"sideout/internal/util/timeutil"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(slogx.DiscardLogger(), Options{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func makeTeam(t *testing.T, ctx context.Context, d *DB, name string) league.Team {
	t.Helper()
	now := timeutil.NowUTC()
	team := league.Team{ID: idgen.ID(), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, d.CreateTeam(ctx, team))
	return team
}

func TestDeleteTeamCascades(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	home := makeTeam(t, ctx, d, "Harbor City Breakers")
	away := makeTeam(t, ctx, d, "Northside Spikers")

	now := timeutil.NowUTC()
	player := league.Player{
		ID:        idgen.ID(),
		TeamID:    &home.ID,
		FirstName: "Ada",
		LastName:  "Stone",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, d.CreatePlayer(ctx, player))

	match := scoring.Match{
		ID:          idgen.ID(),
		HomeTeamID:  &home.ID,
		AwayTeamID:  &away.ID,
		ScheduledAt: now,
		Status:      scoring.MatchScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, d.CreateMatch(ctx, match))
	require.NoError(t, d.AddFavorite(ctx, favorites.KindTeam, "user-1", home.ID))

	require.NoError(t, d.DeleteTeam(ctx, home.ID))

	_, err := d.GetTeam(ctx, home.ID)
	assert.ErrorIs(t, err, league.ErrTeamNotFound)

	// The player row survives detached from the deleted team.
	players, err := d.ListTeamPlayers(ctx, home.ID)
	require.NoError(t, err)
	assert.Empty(t, players)

	favs, err := d.ListFavoriteTeams(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, favs)

	// The match keeps its dangling reference and enriches to a nil team.
	card, err := d.GetMatchCard(ctx, match.ID)
	require.NoError(t, err)
	assert.Nil(t, card.HomeTeam)
	require.NotNil(t, card.AwayTeam)
	assert.Equal(t, away.ID, card.AwayTeam.ID)

	assert.ErrorIs(t, d.DeleteTeam(ctx, home.ID), league.ErrTeamNotFound)
}

func TestDeleteTournament(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	now := timeutil.NowUTC()
	tournament := league.Tournament{
		ID:        idgen.ID(),
		Name:      "Spring Cup",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, d.CreateTournament(ctx, tournament))

	match := scoring.Match{
		ID:           idgen.ID(),
		TournamentID: &tournament.ID,
		ScheduledAt:  now,
		Status:       scoring.MatchScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, d.CreateMatch(ctx, match))

	require.NoError(t, d.DeleteTournament(ctx, tournament.ID))
	_, err := d.GetTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, league.ErrTournamentNotFound)

	card, err := d.GetMatchCard(ctx, match.ID)
	require.NoError(t, err)
	assert.Nil(t, card.Tournament)

	assert.ErrorIs(t, d.DeleteTournament(ctx, tournament.ID), league.ErrTournamentNotFound)
}

func TestDeletePlayer(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	team := makeTeam(t, ctx, d, "Harbor City Breakers")

	now := timeutil.NowUTC()
	player := league.Player{
		ID:        idgen.ID(),
		TeamID:    &team.ID,
		FirstName: "Ada",
		LastName:  "Stone",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, d.CreatePlayer(ctx, player))

	require.NoError(t, d.DeletePlayer(ctx, player.ID))
	players, err := d.ListTeamPlayers(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, players)

	assert.ErrorIs(t, d.DeletePlayer(ctx, player.ID), league.ErrPlayerNotFound)
}
