package scoring

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"sideout/internal/util/timeutil"
)

func defaultRules() Rules {
	var r Rules
	r.FillDefaults()
	return r
}

func mkSet(num, home, away int, status SetStatus) Set {
	return Set{
		ID:         "s" + string(rune('0'+num)),
		SetNumber:  num,
		HomePoints: home,
		AwayPoints: away,
		Status:     status,
	}
}

func TestDeriveScoreEmpty(t *testing.T) {
	home, away := DeriveScore(nil)
	if home != 0 || away != 0 {
		t.Fatalf("empty sets: expected (0, 0), got (%v, %v)", home, away)
	}
}

func TestDeriveScoreStress(t *testing.T) {
	const iters = 10_000
	for range iters {
		n := rand.IntN(6)
		sets := make([]Set, 0, n)
		expHome, expAway := 0, 0
		for i := range n {
			st := []SetStatus{SetNotStarted, SetInProgress, SetFinished}[rand.IntN(3)]
			h, a := rand.IntN(30), rand.IntN(30)
			if st == SetFinished {
				if h > a {
					expHome++
				} else if a > h {
					expAway++
				}
			}
			sets = append(sets, mkSet(i+1, h, a, st))
		}
		home, away := DeriveScore(sets)
		if home != expHome || away != expAway {
			t.Fatalf("sets %+v: expected (%v, %v), got (%v, %v)", sets, expHome, expAway, home, away)
		}
		if home+away > len(sets) {
			t.Fatalf("score sum %v exceeds set count %v", home+away, len(sets))
		}
		rand.Shuffle(len(sets), func(i, j int) { sets[i], sets[j] = sets[j], sets[i] })
		home2, away2 := DeriveScore(sets)
		if home != home2 || away != away2 {
			t.Fatalf("derive not invariant under reorder: (%v, %v) vs (%v, %v)", home, away, home2, away2)
		}
	}
}

func TestValidateSetTransitionRejectsDecrease(t *testing.T) {
	const iters = 10_000
	for range iters {
		cur := mkSet(1, rand.IntN(30), rand.IntN(30), SetInProgress)
		dh, da := rand.IntN(5)-2, rand.IntN(5)-2
		h, a := cur.HomePoints+dh, cur.AwayPoints+da
		res, err := ValidateSetTransition(cur, h, a)
		wantErr := h < 0 || a < 0 || h < cur.HomePoints || a < cur.AwayPoints
		if wantErr {
			if err == nil {
				t.Fatalf("transition %v:%v -> %v:%v unexpectedly allowed",
					cur.HomePoints, cur.AwayPoints, h, a)
			}
			var vErr *ValidationError
			if !errAs(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("transition %v:%v -> %v:%v unexpectedly rejected: %v",
				cur.HomePoints, cur.AwayPoints, h, a, err)
		}
		if res.HomePoints != h || res.AwayPoints != a {
			t.Fatalf("points not applied: got %v:%v", res.HomePoints, res.AwayPoints)
		}
	}
}

func errAs(err error, target **ValidationError) bool {
	e, ok := err.(*ValidationError)
	if ok {
		*target = e
	}
	return ok
}

func TestValidateSetTransitionFinishedSetImmutable(t *testing.T) {
	cur := mkSet(3, 25, 20, SetFinished)
	for _, pts := range [][2]int{{25, 20}, {26, 20}, {0, 0}, {25, 24}} {
		_, err := ValidateSetTransition(cur, pts[0], pts[1])
		if err == nil {
			t.Fatalf("mutation of finished set to %v:%v allowed", pts[0], pts[1])
		}
		vErr, ok := err.(*ValidationError)
		if !ok || vErr.Code != CodeSetAlreadyFinished {
			t.Fatalf("expected CodeSetAlreadyFinished, got %v", err)
		}
	}
}

func TestValidateSetTransitionStartsSet(t *testing.T) {
	cur := mkSet(1, 0, 0, SetNotStarted)
	res, err := ValidateSetTransition(cur, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != SetInProgress {
		t.Fatalf("expected in_progress, got %v", res.Status)
	}
}

func TestNextMatchStateScenarioFinished(t *testing.T) {
	sets := []Set{
		mkSet(1, 25, 20, SetFinished),
		mkSet(2, 22, 25, SetFinished),
		mkSet(3, 25, 18, SetFinished),
	}
	home, away := DeriveScore(sets)
	if home != 2 || away != 1 {
		t.Fatalf("expected (2, 1), got (%v, %v)", home, away)
	}
	rules := Rules{BestOf: 3, SetTarget: 25, DecidingSetTarget: 15, WinBy: 2}
	now := timeutil.NowUTC()
	m := NextMatchState(Match{ID: "m1", Status: MatchLive}, sets, rules, now)
	if m.Status != MatchFinished {
		t.Fatalf("expected finished, got %v", m.Status)
	}
	if m.FinishedAt == nil || m.StartedAt == nil {
		t.Fatalf("finished match must carry started_at and finished_at")
	}
	if m.FinishedAt.Compare(*m.StartedAt) < 0 {
		t.Fatalf("finished_at before started_at")
	}
	if m.HomeScore != 2 || m.AwayScore != 1 {
		t.Fatalf("expected score 2:1, got %v:%v", m.HomeScore, m.AwayScore)
	}
}

func TestNextMatchStateScenarioLive(t *testing.T) {
	sets := []Set{
		mkSet(1, 25, 20, SetFinished),
		mkSet(2, 10, 8, SetInProgress),
	}
	m := NextMatchState(Match{ID: "m1", Status: MatchScheduled}, sets, defaultRules(), timeutil.NowUTC())
	if m.Status != MatchLive {
		t.Fatalf("expected live, got %v", m.Status)
	}
	if m.CurrentSet != 2 {
		t.Fatalf("expected current_set = 2, got %v", m.CurrentSet)
	}
	if m.HomeScore != 1 || m.AwayScore != 0 {
		t.Fatalf("expected score 1:0, got %v:%v", m.HomeScore, m.AwayScore)
	}
	if m.StartedAt == nil {
		t.Fatalf("live match must carry started_at")
	}
}

func TestNextMatchStateNoSets(t *testing.T) {
	m := NextMatchState(Match{ID: "m1", Status: MatchScheduled}, nil, defaultRules(), timeutil.NowUTC())
	if m.Status != MatchScheduled || m.CurrentSet != 0 || m.HomeScore != 0 || m.AwayScore != 0 {
		t.Fatalf("empty sets must keep match scheduled with zero score, got %+v", m)
	}
}

func TestNextMatchStateLeavesAdminStatuses(t *testing.T) {
	sets := []Set{mkSet(1, 10, 8, SetInProgress)}
	for _, st := range []MatchStatus{MatchCancelled, MatchPostponed} {
		m := NextMatchState(Match{ID: "m1", Status: st}, sets, defaultRules(), timeutil.NowUTC())
		if m.Status != st {
			t.Fatalf("aggregation must not override %v, got %v", st, m.Status)
		}
	}
}

func TestNextMatchStateIdempotent(t *testing.T) {
	const iters = 5_000
	rules := defaultRules()
	for range iters {
		n := rand.IntN(6)
		sets := make([]Set, 0, n)
		for i := range n {
			st := []SetStatus{SetNotStarted, SetInProgress, SetFinished}[rand.IntN(3)]
			sets = append(sets, mkSet(i+1, rand.IntN(30), rand.IntN(30), st))
		}
		now := timeutil.NowUTC()
		m := Match{ID: "m1", Status: MatchScheduled}
		once := NextMatchState(m, sets, rules, now)
		twice := NextMatchState(once, sets, rules, now)
		if !reflect.DeepEqual(derefMatch(once), derefMatch(twice)) {
			t.Fatalf("not idempotent:\nonce  = %+v\ntwice = %+v", derefMatch(once), derefMatch(twice))
		}
	}
}

// derefMatch flattens pointer fields so that DeepEqual compares values, not
// addresses.
func derefMatch(m Match) map[string]any {
	res := map[string]any{
		"status":      m.Status,
		"home_score":  m.HomeScore,
		"away_score":  m.AwayScore,
		"current_set": m.CurrentSet,
	}
	if m.StartedAt != nil {
		res["started_at"] = m.StartedAt.UTC()
	}
	if m.FinishedAt != nil {
		res["finished_at"] = m.FinishedAt.UTC()
	}
	return res
}

func TestRulesSetDecided(t *testing.T) {
	rules := defaultRules()
	for _, tc := range []struct {
		set, home, away  int
		homeWon, decided bool
	}{
		{1, 25, 20, true, true},
		{1, 25, 24, false, false},
		{1, 26, 24, true, true},
		{1, 24, 26, false, true},
		{5, 15, 10, true, true},
		{5, 15, 14, false, false},
		{1, 0, 0, false, false},
	} {
		homeWon, decided := rules.SetDecided(tc.set, tc.home, tc.away)
		if homeWon != tc.homeWon || decided != tc.decided {
			t.Fatalf("set %v at %v:%v: expected (%v, %v), got (%v, %v)",
				tc.set, tc.home, tc.away, tc.homeWon, tc.decided, homeWon, decided)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]MatchStatus]bool{
		{MatchScheduled, MatchCancelled}: true,
		{MatchLive, MatchCancelled}:      true,
		{MatchScheduled, MatchPostponed}: true,
		{MatchPostponed, MatchScheduled}: true,
	}
	all := []MatchStatus{MatchScheduled, MatchLive, MatchFinished, MatchCancelled, MatchPostponed}
	for _, from := range all {
		for _, to := range all {
			if got := CanTransition(from, to); got != allowed[[2]MatchStatus{from, to}] {
				t.Fatalf("CanTransition(%v, %v) = %v", from, to, got)
			}
		}
	}
}
