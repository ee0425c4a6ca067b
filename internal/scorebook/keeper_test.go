package scorebook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideout/internal/feed"
	"sideout/internal/scoring"
	"sideout/internal/util/clone"
	"sideout/internal/util/slogx"
)

type fakeDB struct {
	mu      sync.Mutex
	matches map[string]scoring.Match
	sets    map[string][]scoring.Set
	events  map[string][]MatchEvent
	failAll bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		matches: make(map[string]scoring.Match),
		sets:    make(map[string][]scoring.Set),
		events:  make(map[string][]MatchEvent),
	}
}

var errFake = errors.New("fake db error")

func (d *fakeDB) CreateMatch(_ context.Context, match scoring.Match) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return errFake
	}
	d.matches[match.ID] = match.Clone()
	return nil
}

func (d *fakeDB) GetMatch(_ context.Context, matchID string) (scoring.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	match, ok := d.matches[matchID]
	if !ok {
		return scoring.Match{}, ErrMatchNotFound
	}
	return match.Clone(), nil
}

func (d *fakeDB) UpdateMatch(_ context.Context, match scoring.Match) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.matches[match.ID]; !ok {
		return ErrMatchNotFound
	}
	d.matches[match.ID] = match.Clone()
	return nil
}

func (d *fakeDB) DeleteMatch(_ context.Context, matchID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.matches, matchID)
	delete(d.sets, matchID)
	delete(d.events, matchID)
	return nil
}

func (d *fakeDB) ListSets(_ context.Context, matchID string) ([]scoring.Set, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return clone.Slice(d.sets[matchID]), nil
}

func (d *fakeDB) SaveScore(_ context.Context, match scoring.Match, sets []scoring.Set, events []MatchEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return errFake
	}
	d.matches[match.ID] = match.Clone()
	for _, s := range sets {
		stored := d.sets[match.ID]
		found := false
		for i := range stored {
			if stored[i].ID == s.ID {
				stored[i] = s.Clone()
				found = true
				break
			}
		}
		if !found {
			d.sets[match.ID] = append(stored, s.Clone())
		}
	}
	d.events[match.ID] = append(d.events[match.ID], events...)
	return nil
}

func (d *fakeDB) GetMatchCard(ctx context.Context, matchID string) (MatchCard, error) {
	if err := ctx.Err(); err != nil {
		return MatchCard{}, err
	}
	match, err := d.GetMatch(ctx, matchID)
	if err != nil {
		return MatchCard{}, err
	}
	sets, _ := d.ListSets(ctx, matchID)
	return MatchCard{Match: match, Sets: sets}, nil
}

func (d *fakeDB) ListMatchCards(ctx context.Context, _ MatchFilter) ([]MatchCard, error) {
	d.mu.Lock()
	ids := make([]string, 0, len(d.matches))
	for id := range d.matches {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	var res []MatchCard
	for _, id := range ids {
		card, err := d.GetMatchCard(ctx, id)
		if err != nil {
			return nil, err
		}
		res = append(res, card)
	}
	return res, nil
}

func (d *fakeDB) ListMatchEvents(_ context.Context, matchID string) ([]MatchEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MatchEvent{}, d.events[matchID]...), nil
}

func newTestKeeper(t *testing.T) (*Keeper, *fakeDB, *feed.Feed) {
	t.Helper()
	db := newFakeDB()
	f := feed.New()
	t.Cleanup(f.Close)
	k, err := NewKeeper(slogx.DiscardLogger(), db, f, Options{})
	require.NoError(t, err)
	return k, db, f
}

func mustCreate(t *testing.T, k *Keeper) scoring.Match {
	t.Helper()
	match, err := k.CreateMatch(context.Background(), MatchParams{
		HomeTeamID:  "team-home",
		AwayTeamID:  "team-away",
		ScheduledAt: time.Now(),
	})
	require.NoError(t, err)
	return match
}

func eventTypes(events []MatchEvent) []string {
	res := make([]string, len(events))
	for i, ev := range events {
		res[i] = ev.EventType
	}
	return res
}

func TestKeeperRules(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	assert.Equal(t, scoring.Rules{
		BestOf:            5,
		SetTarget:         25,
		DecidingSetTarget: 15,
		WinBy:             2,
	}, k.Rules())
}

func TestCreateMatchValidation(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()

	_, err := k.CreateMatch(ctx, MatchParams{HomeTeamID: "a", ScheduledAt: time.Now()})
	assert.Error(t, err)
	_, err = k.CreateMatch(ctx, MatchParams{HomeTeamID: "a", AwayTeamID: "a", ScheduledAt: time.Now()})
	assert.Error(t, err)
	_, err = k.CreateMatch(ctx, MatchParams{HomeTeamID: "a", AwayTeamID: "b"})
	assert.Error(t, err)

	match := mustCreate(t, k)
	assert.Equal(t, scoring.MatchScheduled, match.Status)
	assert.Equal(t, 0, match.CurrentSet)
	assert.Equal(t, 0, match.HomeScore)
	assert.Nil(t, match.StartedAt)
}

func TestFullMatchFlow(t *testing.T) {
	k, db, f := newTestKeeper(t)
	ctx := context.Background()
	match := mustCreate(t, k)

	sub := f.Subscribe(feed.RowTopic("matches", match.ID))
	defer sub.Close()

	set, err := k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, set.SetNumber)
	assert.Equal(t, scoring.SetInProgress, set.Status)

	got, err := k.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchLive, got.Status)
	assert.Equal(t, 1, got.CurrentSet)
	require.NotNil(t, got.StartedAt)

	select {
	case <-sub.C():
	default:
		t.Fatal("expected a feed notification after set start")
	}

	// Home takes sets 1 and 3, away takes set 2.
	for i, points := range [][2]int{{25, 20}, {23, 25}, {25, 18}} {
		if i > 0 {
			_, err := k.StartNextSet(ctx, match.ID)
			require.NoError(t, err)
		}
		_, err = k.UpdatePoints(ctx, match.ID, points[0], points[1])
		require.NoError(t, err)
		got, err = k.FinishSet(ctx, match.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, scoring.MatchFinished, got.Status)
	assert.Equal(t, 2, got.HomeScore)
	assert.Equal(t, 1, got.AwayScore)
	assert.Equal(t, 3, got.CurrentSet)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.StartedAt.Compare(*got.FinishedAt) <= 0)

	events, err := db.ListMatchEvents(ctx, match.ID)
	require.NoError(t, err)
	assert.Contains(t, eventTypes(events), EventMatchStarted)
	assert.Contains(t, eventTypes(events), EventMatchFinished)

	// The match is over, nothing more may be scored.
	_, err = k.StartNextSet(ctx, match.ID)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestUpdatePointsRejectsDecrease(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()
	match := mustCreate(t, k)

	_, err := k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)
	_, err = k.UpdatePoints(ctx, match.ID, 10, 8)
	require.NoError(t, err)

	_, err = k.UpdatePoints(ctx, match.ID, 9, 8)
	var verr *scoring.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, scoring.CodePointsDecreased, verr.Code)

	// The stored set stays at the last accepted tally.
	sets, err := k.ListSets(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 10, sets[0].HomePoints)
	assert.Equal(t, 8, sets[0].AwayPoints)
}

func TestSetLifecycleGuards(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()
	match := mustCreate(t, k)

	_, err := k.UpdatePoints(ctx, match.ID, 1, 0)
	assert.ErrorIs(t, err, ErrNoActiveSet)
	_, err = k.FinishSet(ctx, match.ID)
	assert.ErrorIs(t, err, ErrNoActiveSet)

	_, err = k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)
	_, err = k.StartNextSet(ctx, match.ID)
	assert.ErrorIs(t, err, ErrSetInProgress)
}

func TestSideTransitions(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()

	match := mustCreate(t, k)
	got, err := k.PostponeMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchPostponed, got.Status)

	_, err = k.StartNextSet(ctx, match.ID)
	assert.ErrorIs(t, err, ErrBadTransition)
	_, err = k.CancelMatch(ctx, match.ID)
	assert.ErrorIs(t, err, ErrBadTransition)

	at := time.Now().Add(48 * time.Hour)
	got, err = k.RescheduleMatch(ctx, match.ID, at)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchScheduled, got.Status)
	assert.Equal(t, at.UTC().Truncate(time.Second), got.ScheduledAt.UTC().Truncate(time.Second))

	// A live match may be cancelled and keeps its frozen score.
	_, err = k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)
	_, err = k.UpdatePoints(ctx, match.ID, 7, 4)
	require.NoError(t, err)
	got, err = k.CancelMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchCancelled, got.Status)

	sets, err := k.ListSets(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 7, sets[0].HomePoints)

	_, err = k.CancelMatch(ctx, match.ID)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestUpdateMatchOnlyBeforeStart(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()
	match := mustCreate(t, k)

	venue := MatchParams{
		HomeTeamID:  "team-home",
		AwayTeamID:  "team-away",
		ScheduledAt: time.Now(),
		Venue:       "Main Arena",
	}
	got, err := k.UpdateMatch(ctx, match.ID, venue)
	require.NoError(t, err)
	require.NotNil(t, got.Venue)
	assert.Equal(t, "Main Arena", *got.Venue)

	_, err = k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)
	_, err = k.UpdateMatch(ctx, match.ID, venue)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestSaveFailureLeavesStateReadable(t *testing.T) {
	k, db, _ := newTestKeeper(t)
	ctx := context.Background()
	match := mustCreate(t, k)
	_, err := k.StartNextSet(ctx, match.ID)
	require.NoError(t, err)

	db.mu.Lock()
	db.failAll = true
	db.mu.Unlock()
	_, err = k.UpdatePoints(ctx, match.ID, 5, 3)
	require.ErrorIs(t, err, errFake)
	db.mu.Lock()
	db.failAll = false
	db.mu.Unlock()

	sets, err := k.ListSets(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 0, sets[0].HomePoints)
}

func TestNotFound(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	ctx := context.Background()
	_, err := k.Card(ctx, "no-such-match")
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = k.StartNextSet(ctx, "no-such-match")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestCardSurvivesCallerHangup(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	match := mustCreate(t, k)

	// The shared read must not inherit the initiating caller's deadline.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	card, err := k.Card(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ID, card.Match.ID)
}
