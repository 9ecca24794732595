package domain

import (
	"time"

	scoredom "sigscore/internal/services/scoring/domain"
)

// Observation is one evaluation input for the score driven triggers
// Baseline is the snapshot at the start of the rule's window; the change
// triggers compare Cur against it, so a gradual slide across several
// recomputes still counts. Prev is the immediately preceding snapshot and
// anchors the threshold crossing
type Observation struct {
	Prev         *scoredom.AccountScore
	Baseline     *scoredom.AccountScore
	Cur          scoredom.AccountScore
	LastSignalAt time.Time
	Now          time.Time
}

// Evaluate runs one rule against one observation
// Returns whether the rule fires and the next active flag for the
// (rule, account) state row. All score driven triggers are edge triggered:
// a fire flips active on and the rule stays silent until the condition
// clears. new_hot_signal never goes through here, see MatchesSignal
func Evaluate(rule Rule, active bool, obs Observation) (fire bool, nextActive bool) {
	trigger, hold := conditions(rule, obs)
	fire = trigger && !active
	return fire, fire || (active && hold)
}

// conditions reports the trigger predicate (fires the rule when it turns on)
// and the hold predicate (keeps an already active rule suppressed)
func conditions(rule Rule, obs Observation) (trigger, hold bool) {
	switch rule.Trigger {
	case TriggerScoreDrop:
		if obs.Baseline == nil {
			return false, false
		}
		// suppressed until the windowed change recovers above the pct
		trigger = relChangePct(obs.Baseline.Score, obs.Cur.Score) <= -rule.Conditions.Float(CondDropPct)
		return trigger, trigger

	case TriggerScoreRise:
		if obs.Baseline == nil {
			return false, false
		}
		trigger = relChangePct(obs.Baseline.Score, obs.Cur.Score) >= rule.Conditions.Float(CondRisePct)
		return trigger, trigger

	case TriggerScoreThreshold:
		threshold := rule.Conditions.Float(CondThreshold)
		above := rule.Conditions.String(CondDirection) == DirectionAbove
		crossed := pastThreshold(obs.Cur.Score, threshold, above)
		// a crossing needs the prior snapshot on the other side; an account
		// first observed already past the line stays quiet
		trigger = crossed && obs.Prev != nil && !pastThreshold(obs.Prev.Score, threshold, above)
		return trigger, crossed

	case TriggerEngagementDrop, TriggerAccountInactive:
		days := rule.Conditions.Float(CondDays)
		inactive := obs.LastSignalAt.IsZero() ||
			obs.Now.Sub(obs.LastSignalAt) >= time.Duration(days*24)*time.Hour
		return inactive, inactive
	}
	return false, false
}

// MatchesSignal reports whether a new_hot_signal rule matches the source type
// fires per matching signal, independent of score state
func MatchesSignal(rule Rule, sourceType string) bool {
	if rule.Trigger != TriggerNewHotSignal {
		return false
	}
	for _, s := range rule.Conditions.Strings(CondSourceTypes) {
		if s == sourceType {
			return true
		}
	}
	return false
}

func pastThreshold(score int, threshold float64, above bool) bool {
	if above {
		return float64(score) > threshold
	}
	return float64(score) < threshold
}

// relChangePct is the signed percent change from prev to cur
func relChangePct(prev, cur int) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return float64(cur-prev) / float64(prev) * 100
}
