// Package favorites keeps a session-local mirror of the user's favorite
// teams and matches, reconciled against the database with optimistic
// updates.
package favorites

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"sideout/internal/util/slogx"
)

var ErrUnauthorized = errors.New("sign in to manage favorites")

type Kind int

const (
	KindTeam Kind = iota
	KindMatch
)

func (k Kind) String() string {
	switch k {
	case KindTeam:
		return "team"
	case KindMatch:
		return "match"
	default:
		panic("bad kind")
	}
}

type DB interface {
	ListFavoriteTeams(ctx context.Context, userID string) ([]string, error)
	ListFavoriteMatches(ctx context.Context, userID string) ([]string, error)
	AddFavorite(ctx context.Context, kind Kind, userID, entityID string) error
	RemoveFavorite(ctx context.Context, kind Kind, userID, entityID string) error
}

type key struct {
	kind Kind
	id   string
}

// Store is owned by exactly one client session. Views read it and call
// Toggle; nothing else mutates the cached sets.
type Store struct {
	db  DB
	log *slog.Logger

	mu      sync.RWMutex
	userID  string
	teams   map[string]struct{}
	matches map[string]struct{}

	keyMu sync.Mutex
	keys  map[key]*sync.Mutex
}

func NewStore(log *slog.Logger, db DB) *Store {
	return &Store{
		db:      db,
		log:     log,
		teams:   make(map[string]struct{}),
		matches: make(map[string]struct{}),
		keys:    make(map[key]*sync.Mutex),
	}
}

// Load fetches the user's favorites and replaces the cache wholesale. It is
// a full resynchronization, called on sign-in and on auth state change, not
// an incremental merge.
func (s *Store) Load(ctx context.Context, userID string) error {
	teams, err := s.db.ListFavoriteTeams(ctx, userID)
	if err != nil {
		return fmt.Errorf("list favorite teams: %w", err)
	}
	matches, err := s.db.ListFavoriteMatches(ctx, userID)
	if err != nil {
		return fmt.Errorf("list favorite matches: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.teams = make(map[string]struct{}, len(teams))
	for _, id := range teams {
		s.teams[id] = struct{}{}
	}
	s.matches = make(map[string]struct{}, len(matches))
	for _, id := range matches {
		s.matches[id] = struct{}{}
	}
	return nil
}

// UserID returns the signed-in user the store mirrors, or "" for an
// anonymous store.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Reset drops the cache and turns the store anonymous again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.teams = make(map[string]struct{})
	s.matches = make(map[string]struct{})
}

func (s *Store) set(kind Kind) map[string]struct{} {
	switch kind {
	case KindTeam:
		return s.teams
	case KindMatch:
		return s.matches
	default:
		panic("bad kind")
	}
}

func (s *Store) Has(kind Kind, entityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set(kind)[entityID]
	return ok
}

func (s *Store) List(kind Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, 0, len(s.set(kind)))
	for id := range s.set(kind) {
		res = append(res, id)
	}
	slices.SortFunc(res, func(a, b string) int { return cmp.Compare(a, b) })
	return res
}

// lockKey serializes toggles per entity key, so two rapid toggles on the
// same id cannot interleave their store round-trips and lose an update.
// Key mutexes are never pruned; the map is bounded by the entities a single
// session touches.
func (s *Store) lockKey(k key) func() {
	s.keyMu.Lock()
	m, ok := s.keys[k]
	if !ok {
		m = &sync.Mutex{}
		s.keys[k] = m
	}
	s.keyMu.Unlock()
	m.Lock()
	return m.Unlock
}

// Toggle flips membership of the entity in the user's favorites. The cache
// is updated optimistically and rolled back if the database write fails, so
// an observer only ever sees the pre- or post-toggle state. An anonymous
// store fails fast without touching the database or the cache.
func (s *Store) Toggle(ctx context.Context, kind Kind, entityID string) error {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == "" {
		return ErrUnauthorized
	}

	unlock := s.lockKey(key{kind: kind, id: entityID})
	defer unlock()

	s.mu.Lock()
	_, present := s.set(kind)[entityID]
	if present {
		delete(s.set(kind), entityID)
	} else {
		s.set(kind)[entityID] = struct{}{}
	}
	s.mu.Unlock()

	var err error
	if present {
		err = s.db.RemoveFavorite(ctx, kind, userID, entityID)
	} else {
		err = s.db.AddFavorite(ctx, kind, userID, entityID)
	}
	if err != nil {
		s.mu.Lock()
		if present {
			s.set(kind)[entityID] = struct{}{}
		} else {
			delete(s.set(kind), entityID)
		}
		s.mu.Unlock()
		s.log.Info("favorite toggle rolled back",
			slog.String("kind", kind.String()),
			slog.String("entity_id", entityID),
			slogx.Err(err),
		)
		return fmt.Errorf("toggle %v favorite: %w", kind, err)
	}
	return nil
}
