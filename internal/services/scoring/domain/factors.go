package domain

import "time"

// WindowStats is the deterministic input for one score computation
// the engine has no hidden randomness; the window boundary is the only
// wall-clock dependency and it is fixed by the caller via Now
type WindowStats struct {
	SignalCount    int
	PriorCount     int
	DistinctActors int
	DistinctTypes  int
	LastSignalAt   time.Time
	Now            time.Time
	WindowDays     int
}

// knownTypeCount is the size of the signal type vocabulary diversity
// normalizes against
const knownTypeCount = 14

// Velocity compares the current window rate against the preceding window
// of equal length. r/(1+r) maps equal activity to 0.5 and growth toward 1
func Velocity(cur, prior int) float64 {
	if cur == 0 {
		return 0
	}
	if prior == 0 {
		return 1
	}
	r := float64(cur) / float64(prior)
	return r / (1 + r)
}

// Breadth saturates with the count of distinct engaged actors
// actors/(actors+3) reaches ~0.77 at 10 actors without needing account size
func Breadth(actors int) float64 {
	if actors <= 0 {
		return 0
	}
	a := float64(actors)
	return a / (a + 3)
}

// Recency decays linearly from 1 at the last signal to 0 at the window edge
func Recency(last, now time.Time, windowDays int) float64 {
	if last.IsZero() || windowDays <= 0 {
		return 0
	}
	age := now.Sub(last).Hours() / 24
	if age < 0 {
		age = 0
	}
	v := 1 - age/float64(windowDays)
	if v < 0 {
		return 0
	}
	return v
}

// Diversity normalizes distinct signal types against the known vocabulary
func Diversity(types int) float64 {
	if types <= 0 {
		return 0
	}
	v := float64(types) / knownTypeCount
	if v > 1 {
		return 1
	}
	return v
}

// FactorsFor computes the full factor vector for one window
func FactorsFor(w Weights, st WindowStats) []Factor {
	return []Factor{
		{
			Name:        "signal_velocity",
			Weight:      w.Velocity,
			Value:       Velocity(st.SignalCount, st.PriorCount),
			Description: "recent signal rate against the preceding window",
		},
		{
			Name:        "user_breadth",
			Weight:      w.Breadth,
			Value:       Breadth(st.DistinctActors),
			Description: "distinct engaged actors",
		},
		{
			Name:        "recency",
			Weight:      w.Recency,
			Value:       Recency(st.LastSignalAt, st.Now, st.WindowDays),
			Description: "time since the last signal",
		},
		{
			Name:        "diversity",
			Weight:      w.Diversity,
			Value:       Diversity(st.DistinctTypes),
			Description: "distinct signal types touched",
		},
	}
}
