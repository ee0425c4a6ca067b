package scoring

// MatchStatus and SetStatus values are stored verbatim in the database and
// rendered to clients, so the strings below are a wire contract. Do not
// rename them.

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
	MatchPostponed MatchStatus = "postponed"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchScheduled, MatchLive, MatchFinished, MatchCancelled, MatchPostponed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave the status.
// Postponed matches can be rescheduled, so postponed is not terminal.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchFinished || s == MatchCancelled
}

func (s MatchStatus) PrettyString() string {
	switch s {
	case MatchScheduled:
		return "Scheduled"
	case MatchLive:
		return "LIVE"
	case MatchFinished:
		return "Finished"
	case MatchCancelled:
		return "Cancelled"
	case MatchPostponed:
		return "Postponed"
	default:
		return "?"
	}
}

// CanTransition reports whether an explicit administrative action may move a
// match from one status to another. The aggregation code never consults this
// table: it only ever drives scheduled -> live -> finished forward.
func CanTransition(from, to MatchStatus) bool {
	if from == to {
		return false
	}
	switch to {
	case MatchCancelled:
		return from == MatchScheduled || from == MatchLive
	case MatchPostponed:
		return from == MatchScheduled
	case MatchScheduled:
		return from == MatchPostponed
	default:
		return false
	}
}

type SetStatus string

const (
	SetNotStarted SetStatus = "not_started"
	SetInProgress SetStatus = "in_progress"
	SetFinished   SetStatus = "finished"
)

func (s SetStatus) IsValid() bool {
	switch s {
	case SetNotStarted, SetInProgress, SetFinished:
		return true
	default:
		return false
	}
}

func (s SetStatus) PrettyString() string {
	switch s {
	case SetNotStarted:
		return "Not started"
	case SetInProgress:
		return "In progress"
	case SetFinished:
		return "Finished"
	default:
		return "?"
	}
}
