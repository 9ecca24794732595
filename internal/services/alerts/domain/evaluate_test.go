package domain

import (
	"testing"
	"time"

	scoredom "sigscore/internal/services/scoring/domain"
)

func snapshot(score int) scoredom.AccountScore {
	return scoredom.AccountScore{AccountID: "acct-1", OrgID: "org-1", Score: score, Tier: scoredom.TierFor(score)}
}

// runSeries feeds consecutive snapshots through Evaluate, tracking the state
// flag the way the service does, and returns the indexes that fired
func runSeries(rule Rule, scores []int) []int {
	return runWindowSeries(rule, scores, 1)
}

// runWindowSeries replays a daily snapshot series, handing each observation
// the snapshot from window entries earlier as its baseline; when history is
// shorter than the window the oldest snapshot stands in, mirroring the repo
func runWindowSeries(rule Rule, scores []int, window int) []int {
	var fired []int
	active := false
	var prev *scoredom.AccountScore
	for i, sc := range scores {
		cur := snapshot(sc)
		obs := Observation{Prev: prev, Cur: cur, Now: time.Now().UTC()}
		if i > 0 {
			j := i - window
			if j < 0 {
				j = 0
			}
			b := snapshot(scores[j])
			obs.Baseline = &b
		}
		fire, next := Evaluate(rule, active, obs)
		if fire {
			fired = append(fired, i)
		}
		active = next
		p := cur
		prev = &p
	}
	return fired
}

func TestEvaluate_ThresholdFiresOnceOnCrossing(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreThreshold,
		Conditions: Conditions{CondThreshold: float64(70), CondDirection: DirectionBelow},
	}

	fired := runSeries(rule, []int{85, 85, 85, 60})
	if len(fired) != 1 || fired[0] != 3 {
		t.Fatalf("fired at %v, want exactly [3]", fired)
	}
}

func TestEvaluate_ThresholdRefiresAfterRecovery(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreThreshold,
		Conditions: Conditions{CondThreshold: float64(70), CondDirection: DirectionBelow},
	}

	fired := runSeries(rule, []int{85, 60, 60, 85, 60})
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 4 {
		t.Fatalf("fired at %v, want [1 4]", fired)
	}
}

func TestEvaluate_ThresholdAlreadyPastOnFirstSnapshotStaysQuiet(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreThreshold,
		Conditions: Conditions{CondThreshold: float64(70), CondDirection: DirectionBelow},
	}

	// first observed already under the line: no crossing, no fire; only
	// the later recovery-then-recross transition fires
	fired := runSeries(rule, []int{60, 55, 80, 60})
	if len(fired) != 1 || fired[0] != 3 {
		t.Fatalf("fired at %v, want exactly [3]", fired)
	}
}

func TestEvaluate_ThresholdAbove(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreThreshold,
		Conditions: Conditions{CondThreshold: float64(80), CondDirection: DirectionAbove},
	}

	fired := runSeries(rule, []int{50, 85, 90, 70, 95})
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 4 {
		t.Fatalf("fired at %v, want [1 4]", fired)
	}
}

func TestEvaluate_ScoreDropEdge(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreDrop,
		Conditions: Conditions{CondDropPct: float64(25), CondDays: float64(2)},
	}

	// 100->75 is a 25% drop over the window and fires; recovery clears the
	// edge; a second windowed slide to 70 fires again
	fired := runWindowSeries(rule, []int{100, 75, 100, 100, 100, 70}, 2)
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 5 {
		t.Fatalf("fired at %v, want [1 5]", fired)
	}
}

func TestEvaluate_ScoreDropGradualDeclineFires(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreDrop,
		Conditions: Conditions{CondDropPct: float64(20), CondDays: float64(3)},
	}

	// each step is under 20%, but 80->64 across the window is exactly 20%
	scores := []int{80, 72, 64, 56}
	fired := runWindowSeries(rule, scores, 3)
	if len(fired) != 1 || fired[0] != 2 {
		t.Fatalf("fired at %v, want [2] for the cumulative windowed drop", fired)
	}

	// comparing only consecutive snapshots would miss the decline entirely
	if got := runWindowSeries(rule, scores, 1); len(got) != 0 {
		t.Fatalf("consecutive comparison fired at %v, want none", got)
	}
}

func TestEvaluate_ScoreDropBelowPctNeverFires(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreDrop,
		Conditions: Conditions{CondDropPct: float64(20), CondDays: float64(3)},
	}

	fired := runWindowSeries(rule, []int{85, 80, 75, 70}, 3)
	if len(fired) != 0 {
		t.Fatalf("fired at %v, want none for a sub-threshold windowed drop", fired)
	}
}

func TestEvaluate_ScoreRise(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerScoreRise,
		Conditions: Conditions{CondRisePct: float64(25), CondDays: float64(1)},
	}

	fired := runSeries(rule, []int{40, 60, 60, 40, 55})
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 4 {
		t.Fatalf("fired at %v, want [1 4]", fired)
	}
}

func TestEvaluate_NoBaselineNeverFiresChangeRules(t *testing.T) {
	t.Parallel()

	drop := Rule{Trigger: TriggerScoreDrop, Conditions: Conditions{CondDropPct: float64(1), CondDays: float64(1)}}
	prev := snapshot(100)
	fire, next := Evaluate(drop, false, Observation{Prev: &prev, Cur: snapshot(5), Now: time.Now().UTC()})
	if fire || next {
		t.Fatalf("score_drop with no baseline: fire=%v next=%v, want false/false", fire, next)
	}
}

func TestEvaluate_AccountInactive(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerAccountInactive,
		Conditions: Conditions{CondDays: float64(14)},
	}
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// quiet for 20 days: fires once, stays suppressed while still quiet
	obs := Observation{Cur: snapshot(10), LastSignalAt: now.AddDate(0, 0, -20), Now: now}
	fire, active := Evaluate(rule, false, obs)
	if !fire || !active {
		t.Fatalf("first crossing: fire=%v active=%v, want true/true", fire, active)
	}
	fire, active = Evaluate(rule, active, obs)
	if fire || !active {
		t.Fatalf("still inactive: fire=%v active=%v, want false/true", fire, active)
	}

	// fresh signal clears the state, a later quiet spell fires again
	fresh := Observation{Cur: snapshot(30), LastSignalAt: now.AddDate(0, 0, -1), Now: now}
	fire, active = Evaluate(rule, active, fresh)
	if fire || active {
		t.Fatalf("after recovery: fire=%v active=%v, want false/false", fire, active)
	}
	fire, _ = Evaluate(rule, active, obs)
	if !fire {
		t.Fatal("second quiet spell should fire again")
	}
}

func TestEvaluate_InactiveWithNoSignalsEver(t *testing.T) {
	t.Parallel()

	rule := Rule{Trigger: TriggerEngagementDrop, Conditions: Conditions{CondDays: float64(7)}}
	fire, _ := Evaluate(rule, false, Observation{Cur: snapshot(0), Now: time.Now().UTC()})
	if !fire {
		t.Fatal("zero LastSignalAt should count as inactive")
	}
}

func TestMatchesSignal(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Trigger:    TriggerNewHotSignal,
		Conditions: Conditions{CondSourceTypes: []any{"github", "npm"}},
	}
	if !MatchesSignal(rule, "github") {
		t.Fatal("github should match")
	}
	if MatchesSignal(rule, "website") {
		t.Fatal("website should not match")
	}

	other := Rule{Trigger: TriggerScoreDrop, Conditions: Conditions{CondSourceTypes: []any{"github"}}}
	if MatchesSignal(other, "github") {
		t.Fatal("non new_hot_signal rules never match signals")
	}
}
