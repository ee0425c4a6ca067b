package favorites

import (
	"context"
	"log/slog"
	"sync"
)

// Registry hands out one Store per signed-in user. A store is created and
// loaded lazily on first use and lives until Drop, so repeated page renders
// by the same user share the cached sets.
type Registry struct {
	db  DB
	log *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(log *slog.Logger, db DB) *Registry {
	return &Registry{
		db:     db,
		log:    log,
		stores: make(map[string]*Store),
	}
}

func (r *Registry) For(ctx context.Context, userID string) (*Store, error) {
	r.mu.Lock()
	s, ok := r.stores[userID]
	if !ok {
		s = NewStore(r.log, r.db)
		r.stores[userID] = s
	}
	r.mu.Unlock()
	// Loading under the registry lock would serialize unrelated users, so a
	// fresh store may be loaded twice on a race. Load replaces wholesale,
	// which makes that harmless.
	if s.UserID() != userID {
		if err := s.Load(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Drop forgets the user's store. Called on logout and on session
// invalidation; the next For loads fresh state.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	s, ok := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()
	if ok {
		s.Reset()
	}
}
