// Package domain holds the scoring model: factors, tiers, and trends
package domain

import (
	"math"
	"time"
)

// Tier is the discrete classification of an account score
type Tier string

// Tier bands; boundaries are inclusive on the lower bound of each band
const (
	TierHot      Tier = "HOT"
	TierWarm     Tier = "WARM"
	TierCold     Tier = "COLD"
	TierInactive Tier = "INACTIVE"
)

// TierFor is a pure step function of score
// >=80 HOT, 50..79 WARM, 20..49 COLD, <20 INACTIVE
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierHot
	case score >= 50:
		return TierWarm
	case score >= 20:
		return TierCold
	default:
		return TierInactive
	}
}

// Trend is the directional change against the prior snapshot
type Trend string

// Trend values
const (
	TrendRising  Trend = "RISING"
	TrendStable  Trend = "STABLE"
	TrendFalling Trend = "FALLING"
)

// TrendFor compares cur against prev using a relative threshold
// strictly greater than threshold moves the needle; exactly at threshold is
// STABLE by convention. A zero prev with a positive cur is RISING
func TrendFor(prev, cur int, threshold float64) Trend {
	if prev == cur {
		return TrendStable
	}
	if prev == 0 {
		if cur > 0 {
			return TrendRising
		}
		return TrendStable
	}
	rel := float64(cur-prev) / float64(prev)
	if rel > threshold {
		return TrendRising
	}
	if rel < -threshold {
		return TrendFalling
	}
	return TrendStable
}

// Factor is one named, weighted component of the composite score
type Factor struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// AccountScore is one immutable snapshot in the per-account series
// "current" is the latest snapshot by computed_at; rows are never mutated
type AccountScore struct {
	AccountID   string    `json:"account_id"`
	OrgID       string    `json:"organization_id"`
	Score       int       `json:"score"`
	Tier        Tier      `json:"tier"`
	Trend       Trend     `json:"trend"`
	Factors     []Factor  `json:"factors"`
	SignalCount int       `json:"signal_count"`
	UserCount   int       `json:"user_count"`
	Version     int64     `json:"version"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Weights carries the factor weights; they must sum to 1.0
type Weights struct {
	Velocity  float64
	Breadth   float64
	Recency   float64
	Diversity float64
}

// DefaultWeights is the shipped weighting
func DefaultWeights() Weights {
	return Weights{Velocity: 0.35, Breadth: 0.25, Recency: 0.25, Diversity: 0.15}
}

// Valid reports whether the weights sum to 1.0 within epsilon
func (w Weights) Valid() bool {
	sum := w.Velocity + w.Breadth + w.Recency + w.Diversity
	return math.Abs(sum-1.0) < 1e-9
}

// Composite folds weighted factor values into the 0..100 score
func Composite(factors []Factor) int {
	var sum float64
	for _, f := range factors {
		sum += f.Weight * f.Value
	}
	score := int(math.Round(100 * sum))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
