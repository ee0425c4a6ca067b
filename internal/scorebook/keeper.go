// Package scorebook is the write path of live scoring. The Keeper serializes
// all mutations per match, validates them against the current stored state,
// recomputes the derived match fields and persists the result atomically,
// then wakes the change feed.
package scorebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sideout/internal/feed"
	"sideout/internal/scoring"
	"sideout/internal/util/idgen"
	"sideout/internal/util/timeutil"
)

var (
	ErrBadTransition = errors.New("status transition not allowed")
	ErrNoActiveSet   = errors.New("no set in progress")
	ErrSetInProgress = errors.New("a set is already in progress")
)

type Options struct {
	Rules scoring.Rules `toml:"rules"`
}

func (o *Options) FillDefaults() {
	o.Rules.FillDefaults()
}

type Keeper struct {
	DB
	o    Options
	log  *slog.Logger
	feed *feed.Feed
	sf   singleflight.Group

	keyMu sync.Mutex
	keys  map[string]*sync.Mutex
}

func NewKeeper(log *slog.Logger, db DB, f *feed.Feed, o Options) (*Keeper, error) {
	o.FillDefaults()
	if err := o.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}
	return &Keeper{
		DB:   db,
		o:    o,
		log:  log,
		feed: f,
		keys: make(map[string]*sync.Mutex),
	}, nil
}

func (k *Keeper) Rules() scoring.Rules {
	return k.o.Rules
}

// lockMatch serializes mutations per match. Match mutexes are never pruned;
// the map is bounded by the matches this process has touched.
func (k *Keeper) lockMatch(matchID string) func() {
	k.keyMu.Lock()
	m, ok := k.keys[matchID]
	if !ok {
		m = &sync.Mutex{}
		k.keys[matchID] = m
	}
	k.keyMu.Unlock()
	m.Lock()
	return m.Unlock
}

type MatchParams struct {
	TournamentID string
	HomeTeamID   string
	AwayTeamID   string
	ScheduledAt  time.Time
	Venue        string
	Round        string
}

func (p *MatchParams) validate() error {
	if p.HomeTeamID == "" || p.AwayTeamID == "" {
		return fmt.Errorf("both teams must be specified")
	}
	if p.HomeTeamID == p.AwayTeamID {
		return fmt.Errorf("a team cannot play itself")
	}
	if p.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled time not specified")
	}
	return nil
}

func (p *MatchParams) apply(m *scoring.Match) {
	m.TournamentID = optStr(p.TournamentID)
	m.HomeTeamID = optStr(p.HomeTeamID)
	m.AwayTeamID = optStr(p.AwayTeamID)
	m.ScheduledAt = timeutil.UTCTime(p.ScheduledAt.UTC())
	m.Venue = optStr(p.Venue)
	m.Round = optStr(p.Round)
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateMatch registers a new scheduled match. The aggregate fields start at
// zero: a match with no started sets has score 0:0 and no current set.
func (k *Keeper) CreateMatch(ctx context.Context, p MatchParams) (scoring.Match, error) {
	if err := p.validate(); err != nil {
		return scoring.Match{}, err
	}
	now := timeutil.NowUTC()
	match := scoring.Match{
		ID:        idgen.ID(),
		Status:    scoring.MatchScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(&match)
	if err := k.DB.CreateMatch(ctx, match); err != nil {
		return scoring.Match{}, fmt.Errorf("create match: %w", err)
	}
	k.feed.Publish("matches", match.ID)
	return match, nil
}

// UpdateMatch edits the descriptive fields of a match that has not started
// yet. Live and terminal matches are immutable through this path.
func (k *Keeper) UpdateMatch(ctx context.Context, matchID string, p MatchParams) (scoring.Match, error) {
	if err := p.validate(); err != nil {
		return scoring.Match{}, err
	}
	unlock := k.lockMatch(matchID)
	defer unlock()

	match, err := k.GetMatch(ctx, matchID)
	if err != nil {
		return scoring.Match{}, err
	}
	if match.Status != scoring.MatchScheduled && match.Status != scoring.MatchPostponed {
		return scoring.Match{}, fmt.Errorf("%w: edit %v match", ErrBadTransition, match.Status)
	}
	p.apply(&match)
	match.UpdatedAt = timeutil.NowUTC()
	if err := k.DB.UpdateMatch(ctx, match); err != nil {
		return scoring.Match{}, fmt.Errorf("update match: %w", err)
	}
	k.feed.Publish("matches", match.ID)
	return match, nil
}

// DeleteMatch removes a match together with its sets and events.
func (k *Keeper) DeleteMatch(ctx context.Context, matchID string) error {
	unlock := k.lockMatch(matchID)
	defer unlock()
	if err := k.DB.DeleteMatch(ctx, matchID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	k.feed.Publish("matches", matchID)
	k.feed.Publish("sets", matchID)
	return nil
}

func (k *Keeper) newEvent(match *scoring.Match, eventType string, setNumber int, desc string) MatchEvent {
	now := timeutil.NowUTC()
	ev := MatchEvent{
		ID:        idgen.ID(),
		MatchID:   optStr(match.ID),
		EventType: eventType,
		HomeScore: &match.HomeScore,
		AwayScore: &match.AwayScore,
		Timestamp: now,
		CreatedAt: now,
	}
	if setNumber > 0 {
		ev.SetNumber = &setNumber
	}
	if desc != "" {
		ev.Description = &desc
	}
	return ev
}

// save persists one scoring step and wakes the feed on success.
func (k *Keeper) save(ctx context.Context, match scoring.Match, sets []scoring.Set, events []MatchEvent) error {
	if err := k.DB.SaveScore(ctx, match, sets, events); err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	k.feed.Publish("matches", match.ID)
	k.feed.Publish("sets", match.ID)
	return nil
}

func (k *Keeper) loadState(ctx context.Context, matchID string) (scoring.Match, []scoring.Set, error) {
	match, err := k.GetMatch(ctx, matchID)
	if err != nil {
		return scoring.Match{}, nil, err
	}
	sets, err := k.ListSets(ctx, matchID)
	if err != nil {
		return scoring.Match{}, nil, fmt.Errorf("list sets: %w", err)
	}
	return match, sets, nil
}

// StartNextSet opens the next set of the match. The first started set also
// flips the match live, which is logged as a separate match_started event.
func (k *Keeper) StartNextSet(ctx context.Context, matchID string) (scoring.Set, error) {
	unlock := k.lockMatch(matchID)
	defer unlock()

	match, sets, err := k.loadState(ctx, matchID)
	if err != nil {
		return scoring.Set{}, err
	}
	if match.Status.IsTerminal() || match.Status == scoring.MatchPostponed {
		return scoring.Set{}, fmt.Errorf("%w: start set in %v match", ErrBadTransition, match.Status)
	}
	for _, s := range sets {
		if s.Status == scoring.SetInProgress {
			return scoring.Set{}, ErrSetInProgress
		}
	}

	now := timeutil.NowUTC()
	set := scoring.Set{
		ID:        idgen.ID(),
		MatchID:   optStr(matchID),
		SetNumber: len(sets) + 1,
		Status:    scoring.SetInProgress,
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sets = append(sets, set)

	wasScheduled := match.Status == scoring.MatchScheduled
	next := scoring.NextMatchState(match, sets, k.o.Rules, now)
	next.UpdatedAt = now

	var events []MatchEvent
	if wasScheduled && next.Status == scoring.MatchLive {
		events = append(events, k.newEvent(&next, EventMatchStarted, 0, ""))
	}
	events = append(events, k.newEvent(&next, EventSetStarted, set.SetNumber, ""))

	if err := k.save(ctx, next, []scoring.Set{set}, events); err != nil {
		return scoring.Set{}, err
	}
	return set, nil
}

// UpdatePoints applies a point update to the set currently in progress. The
// proposed tally replaces the stored one after validation; it never merges.
func (k *Keeper) UpdatePoints(ctx context.Context, matchID string, homePoints, awayPoints int) (scoring.Set, error) {
	unlock := k.lockMatch(matchID)
	defer unlock()

	match, sets, err := k.loadState(ctx, matchID)
	if err != nil {
		return scoring.Set{}, err
	}
	cur := activeSet(sets)
	if cur == nil {
		return scoring.Set{}, ErrNoActiveSet
	}

	updated, err := scoring.ValidateSetTransition(*cur, homePoints, awayPoints)
	if err != nil {
		return scoring.Set{}, err
	}
	now := timeutil.NowUTC()
	updated.UpdatedAt = now
	*cur = updated

	next := scoring.NextMatchState(match, sets, k.o.Rules, now)
	next.UpdatedAt = now

	desc := fmt.Sprintf("set %v: %v:%v", updated.SetNumber, homePoints, awayPoints)
	events := []MatchEvent{k.newEvent(&next, EventPoint, updated.SetNumber, desc)}

	if err := k.save(ctx, next, []scoring.Set{updated}, events); err != nil {
		return scoring.Set{}, err
	}
	return updated, nil
}

// FinishSet closes the set currently in progress. There is no point
// threshold check here: the scorekeeper decides when a set ends, and the
// aggregate recompute may in turn finish the whole match.
func (k *Keeper) FinishSet(ctx context.Context, matchID string) (scoring.Match, error) {
	unlock := k.lockMatch(matchID)
	defer unlock()

	match, sets, err := k.loadState(ctx, matchID)
	if err != nil {
		return scoring.Match{}, err
	}
	cur := activeSet(sets)
	if cur == nil {
		return scoring.Match{}, ErrNoActiveSet
	}

	now := timeutil.NowUTC()
	cur.Status = scoring.SetFinished
	cur.FinishedAt = &now
	cur.UpdatedAt = now

	next := scoring.NextMatchState(match, sets, k.o.Rules, now)
	next.UpdatedAt = now

	desc := fmt.Sprintf("set %v: %v:%v", cur.SetNumber, cur.HomePoints, cur.AwayPoints)
	events := []MatchEvent{k.newEvent(&next, EventSetFinished, cur.SetNumber, desc)}
	if next.Status == scoring.MatchFinished {
		events = append(events, k.newEvent(&next, EventMatchFinished, 0,
			fmt.Sprintf("final score %v:%v", next.HomeScore, next.AwayScore)))
	}

	if err := k.save(ctx, next, []scoring.Set{*cur}, events); err != nil {
		return scoring.Match{}, err
	}
	return next, nil
}

// CancelMatch cancels a scheduled or live match. Already recorded sets and
// the score stay frozen as they were at the moment of cancellation.
func (k *Keeper) CancelMatch(ctx context.Context, matchID string) (scoring.Match, error) {
	return k.sideTransition(ctx, matchID, scoring.MatchCancelled, EventMatchCancelled, nil)
}

// PostponeMatch postpones a scheduled match.
func (k *Keeper) PostponeMatch(ctx context.Context, matchID string) (scoring.Match, error) {
	return k.sideTransition(ctx, matchID, scoring.MatchPostponed, EventMatchPostponed, nil)
}

// RescheduleMatch moves a postponed match back onto the schedule at a new
// time.
func (k *Keeper) RescheduleMatch(ctx context.Context, matchID string, at time.Time) (scoring.Match, error) {
	if at.IsZero() {
		return scoring.Match{}, fmt.Errorf("scheduled time not specified")
	}
	return k.sideTransition(ctx, matchID, scoring.MatchScheduled, "", &at)
}

func (k *Keeper) sideTransition(ctx context.Context, matchID string, to scoring.MatchStatus, eventType string, at *time.Time) (scoring.Match, error) {
	unlock := k.lockMatch(matchID)
	defer unlock()

	match, err := k.GetMatch(ctx, matchID)
	if err != nil {
		return scoring.Match{}, err
	}
	if !scoring.CanTransition(match.Status, to) {
		return scoring.Match{}, fmt.Errorf("%w: %v -> %v", ErrBadTransition, match.Status, to)
	}

	now := timeutil.NowUTC()
	match.Status = to
	match.UpdatedAt = now
	if at != nil {
		match.ScheduledAt = timeutil.UTCTime(at.UTC())
	}

	var events []MatchEvent
	if eventType != "" {
		events = append(events, k.newEvent(&match, eventType, 0, ""))
	}
	if err := k.save(ctx, match, nil, events); err != nil {
		return scoring.Match{}, err
	}
	k.log.Info("match transition",
		slog.String("match_id", matchID),
		slog.String("status", string(to)),
	)
	return match, nil
}

func activeSet(sets []scoring.Set) *scoring.Set {
	for i := range sets {
		if sets[i].Status == scoring.SetInProgress {
			return &sets[i]
		}
	}
	return nil
}

// Card reads one enriched match. Concurrent readers of the same match share
// a single database round-trip. The shared read runs on a detached context,
// otherwise the first caller hanging up would fail every waiting reader.
func (k *Keeper) Card(ctx context.Context, matchID string) (MatchCard, error) {
	res, err, _ := k.sf.Do("card/"+matchID, func() (any, error) {
		return k.GetMatchCard(context.WithoutCancel(ctx), matchID)
	})
	if err != nil {
		return MatchCard{}, err
	}
	return res.(MatchCard), nil
}
