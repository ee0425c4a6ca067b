package scorebook

import (
	"context"
	"errors"

	"sideout/internal/scoring"
)

var ErrMatchNotFound = errors.New("match not found")

// DB is the persistence surface of the scorebook. SaveScore must apply the
// match, the sets and the event atomically: a reader never observes a set
// update without the matching aggregate recompute.
type DB interface {
	CreateMatch(ctx context.Context, match scoring.Match) error
	GetMatch(ctx context.Context, matchID string) (scoring.Match, error)
	UpdateMatch(ctx context.Context, match scoring.Match) error
	DeleteMatch(ctx context.Context, matchID string) error

	ListSets(ctx context.Context, matchID string) ([]scoring.Set, error)

	SaveScore(ctx context.Context, match scoring.Match, sets []scoring.Set, events []MatchEvent) error

	GetMatchCard(ctx context.Context, matchID string) (MatchCard, error)
	ListMatchCards(ctx context.Context, filter MatchFilter) ([]MatchCard, error)

	ListMatchEvents(ctx context.Context, matchID string) ([]MatchEvent, error)
}
