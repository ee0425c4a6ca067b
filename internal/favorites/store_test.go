package favorites

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideout/internal/util/slogx"
)

var errBackend = errors.New("backend unavailable")

type fakeDB struct {
	mu      sync.Mutex
	teams   map[string]struct{}
	matches map[string]struct{}
	calls   int
	failAll bool
	failOne bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		teams:   make(map[string]struct{}),
		matches: make(map[string]struct{}),
	}
}

func (f *fakeDB) set(kind Kind) map[string]struct{} {
	if kind == KindTeam {
		return f.teams
	}
	return f.matches
}

func (f *fakeDB) fail() bool {
	if f.failAll {
		return true
	}
	if f.failOne {
		f.failOne = false
		return true
	}
	return false
}

func (f *fakeDB) ListFavoriteTeams(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errBackend
	}
	res := make([]string, 0, len(f.teams))
	for id := range f.teams {
		res = append(res, id)
	}
	return res, nil
}

func (f *fakeDB) ListFavoriteMatches(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errBackend
	}
	res := make([]string, 0, len(f.matches))
	for id := range f.matches {
		res = append(res, id)
	}
	return res, nil
}

func (f *fakeDB) AddFavorite(_ context.Context, kind Kind, _ string, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail() {
		return errBackend
	}
	f.set(kind)[entityID] = struct{}{}
	return nil
}

func (f *fakeDB) RemoveFavorite(_ context.Context, kind Kind, _ string, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail() {
		return errBackend
	}
	delete(f.set(kind), entityID)
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeDB) {
	t.Helper()
	db := newFakeDB()
	return NewStore(slogx.DiscardLogger(), db), db
}

func TestToggleAnonymous(t *testing.T) {
	s, db := newTestStore(t)
	err := s.Toggle(context.Background(), KindMatch, "m1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, db.calls, "anonymous toggle must not reach the store")
	assert.False(t, s.Has(KindMatch, "m1"))
}

func TestToggleAddRemove(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "u1"))

	require.NoError(t, s.Toggle(ctx, KindTeam, "t1"))
	assert.True(t, s.Has(KindTeam, "t1"))

	require.NoError(t, s.Toggle(ctx, KindTeam, "t1"))
	assert.False(t, s.Has(KindTeam, "t1"))
	assert.Empty(t, s.List(KindTeam))
}

func TestToggleRollbackOnAddFailure(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "u1"))

	db.failOne = true
	err := s.Toggle(ctx, KindMatch, "m1")
	require.ErrorIs(t, err, errBackend)
	assert.False(t, s.Has(KindMatch, "m1"), "failed add must be rolled back")
}

func TestToggleRollbackOnRemoveFailure(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "u1"))
	require.NoError(t, s.Toggle(ctx, KindMatch, "m1"))

	db.failOne = true
	err := s.Toggle(ctx, KindMatch, "m1")
	require.ErrorIs(t, err, errBackend)
	assert.True(t, s.Has(KindMatch, "m1"), "failed remove must be restored")
}

func TestLoadReplacesWholesale(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	db.teams["t1"] = struct{}{}
	db.teams["t2"] = struct{}{}
	require.NoError(t, s.Load(ctx, "u1"))
	assert.ElementsMatch(t, []string{"t1", "t2"}, s.List(KindTeam))

	// A stale local entry disappears after resync.
	require.NoError(t, s.Toggle(ctx, KindMatch, "m1"))
	db.mu.Lock()
	delete(db.matches, "m1")
	db.mu.Unlock()
	require.NoError(t, s.Load(ctx, "u1"))
	assert.False(t, s.Has(KindMatch, "m1"))
}

func TestReset(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "u1"))
	require.NoError(t, s.Toggle(ctx, KindTeam, "t1"))

	s.Reset()
	assert.False(t, s.Has(KindTeam, "t1"))
	require.ErrorIs(t, s.Toggle(ctx, KindTeam, "t1"), ErrUnauthorized)
}

func TestToggleStress(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "u1"))

	const workers = 8
	const iters = 500
	ids := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iters {
				id := ids[rand.IntN(len(ids))]
				db.mu.Lock()
				db.failOne = rand.IntN(4) == 0
				db.mu.Unlock()
				_ = s.Toggle(ctx, KindMatch, id)
			}
		}()
	}
	wg.Wait()

	// Per-key serialization with rollback keeps the cache agreeing with
	// the last write that actually landed.
	db.mu.Lock()
	stored := make(map[string]struct{}, len(db.matches))
	for id := range db.matches {
		stored[id] = struct{}{}
	}
	db.mu.Unlock()
	for _, id := range ids {
		_, inStore := stored[id]
		assert.Equal(t, inStore, s.Has(KindMatch, id), "cache and store disagree on %v", id)
	}
}
