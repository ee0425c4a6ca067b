package scoring

import (
	"fmt"

	"sideout/internal/util/timeutil"
)

type ValidationCode int

const (
	CodeNegativePoints ValidationCode = iota
	CodePointsDecreased
	CodeSetAlreadyFinished
	CodeBadSetNumber
	CodeBadStatus
)

func (c ValidationCode) String() string {
	switch c {
	case CodeNegativePoints:
		return "negative points"
	case CodePointsDecreased:
		return "points decreased"
	case CodeSetAlreadyFinished:
		return "set already finished"
	case CodeBadSetNumber:
		return "bad set number"
	case CodeBadStatus:
		return "bad status"
	default:
		return "?"
	}
}

// ValidationError rejects a proposed mutation before it reaches the
// database. It is never applied partially and never clamped.
type ValidationError struct {
	Code ValidationCode
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %v: %v", e.Code, e.Msg)
}

func validationErrorf(code ValidationCode, format string, args ...any) error {
	return &ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// DeriveScore computes the aggregate match score from set outcomes: each
// side's score is the count of finished sets it took. Pure function; an
// empty or nil slice yields (0, 0). Sets that are not finished, and
// finished sets with equal points, count for neither side.
func DeriveScore(sets []Set) (home, away int) {
	for _, s := range sets {
		if s.Status != SetFinished {
			continue
		}
		switch {
		case s.HomePoints > s.AwayPoints:
			home++
		case s.AwayPoints > s.HomePoints:
			away++
		}
	}
	return home, away
}

// ValidateSetTransition checks a proposed point update against the current
// set and returns the updated set on success. Points are monotonically
// non-decreasing within a set and a finished set is immutable.
func ValidateSetTransition(cur Set, homePoints, awayPoints int) (Set, error) {
	if homePoints < 0 || awayPoints < 0 {
		return Set{}, validationErrorf(CodeNegativePoints,
			"proposed points %v:%v", homePoints, awayPoints)
	}
	if cur.Status == SetFinished {
		return Set{}, validationErrorf(CodeSetAlreadyFinished,
			"set %v is finished", cur.SetNumber)
	}
	if homePoints < cur.HomePoints || awayPoints < cur.AwayPoints {
		return Set{}, validationErrorf(CodePointsDecreased,
			"proposed %v:%v, stored %v:%v", homePoints, awayPoints, cur.HomePoints, cur.AwayPoints)
	}
	res := cur.Clone()
	res.HomePoints = homePoints
	res.AwayPoints = awayPoints
	if res.Status == SetNotStarted && (homePoints > 0 || awayPoints > 0) {
		res.Status = SetInProgress
	}
	return res, nil
}

// NextMatchState recomputes the derived fields of a match from its ordered
// sets: status, aggregate score, current set and the started/finished
// stamps. It drives scheduled -> live -> finished only; cancelled and
// postponed matches are left untouched. The function is idempotent: feeding
// its output back with the same sets yields the same match.
func NextMatchState(m Match, sets []Set, rules Rules, now timeutil.UTCTime) Match {
	if m.Status == MatchCancelled || m.Status == MatchPostponed {
		return m
	}

	res := m.Clone()
	res.HomeScore, res.AwayScore = DeriveScore(sets)

	started := 0
	current := 0
	for _, s := range sets {
		if s.Status == SetNotStarted {
			continue
		}
		started++
		if s.SetNumber > current {
			current = s.SetNumber
		}
	}

	if started == 0 {
		res.Status = MatchScheduled
		res.CurrentSet = 0
		res.HomeScore = 0
		res.AwayScore = 0
		return res
	}

	res.CurrentSet = current
	if res.StartedAt == nil {
		t := now
		res.StartedAt = &t
	}

	need := rules.SetsToWin()
	if res.HomeScore >= need || res.AwayScore >= need {
		res.Status = MatchFinished
		if res.FinishedAt == nil {
			t := now
			if res.StartedAt != nil && t.Compare(*res.StartedAt) < 0 {
				t = *res.StartedAt
			}
			res.FinishedAt = &t
		}
		return res
	}

	res.Status = MatchLive
	res.FinishedAt = nil
	return res
}
