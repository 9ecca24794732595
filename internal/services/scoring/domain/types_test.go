package domain

import (
	"testing"
)

func TestTierFor_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score int
		want  Tier
	}{
		{0, TierInactive},
		{19, TierInactive},
		{20, TierCold},
		{49, TierCold},
		{50, TierWarm},
		{79, TierWarm},
		{80, TierHot},
		{100, TierHot},
	}
	for _, c := range cases {
		if got := TierFor(c.score); got != c.want {
			t.Fatalf("TierFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestTrendFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		prev, cur int
		threshold float64
		want      Trend
	}{
		{"equal is stable", 60, 60, 0.20, TrendStable},
		{"25pct rise over 20pct threshold", 80, 100, 0.20, TrendRising},
		{"exactly at threshold is stable", 100, 120, 0.20, TrendStable},
		{"exactly at negative threshold is stable", 100, 80, 0.20, TrendStable},
		{"past negative threshold falls", 100, 79, 0.20, TrendFalling},
		{"small move is stable", 100, 110, 0.20, TrendStable},
		{"zero prev rising", 0, 5, 0.20, TrendRising},
	}
	for _, c := range cases {
		if got := TrendFor(c.prev, c.cur, c.threshold); got != c.want {
			t.Fatalf("%s: TrendFor(%d, %d, %v) = %s, want %s", c.name, c.prev, c.cur, c.threshold, got, c.want)
		}
	}
}

func TestComposite(t *testing.T) {
	t.Parallel()

	factors := []Factor{
		{Name: "a", Weight: 0.5, Value: 1},
		{Name: "b", Weight: 0.5, Value: 0.5},
	}
	if got := Composite(factors); got != 75 {
		t.Fatalf("Composite = %d, want 75", got)
	}

	// identical input always yields the identical score
	for i := 0; i < 10; i++ {
		if got := Composite(factors); got != 75 {
			t.Fatalf("Composite not deterministic, got %d on run %d", got, i)
		}
	}
}

func TestComposite_Clamped(t *testing.T) {
	t.Parallel()

	over := []Factor{{Weight: 2, Value: 1}}
	if got := Composite(over); got != 100 {
		t.Fatalf("Composite over = %d, want 100", got)
	}
	under := []Factor{{Weight: 1, Value: -1}}
	if got := Composite(under); got != 0 {
		t.Fatalf("Composite under = %d, want 0", got)
	}
	if got := Composite(nil); got != 0 {
		t.Fatalf("Composite(nil) = %d, want 0", got)
	}
}

func TestWeightsValid(t *testing.T) {
	t.Parallel()

	if !DefaultWeights().Valid() {
		t.Fatal("default weights should sum to 1.0")
	}
	bad := Weights{Velocity: 0.5, Breadth: 0.5, Recency: 0.5}
	if bad.Valid() {
		t.Fatal("weights summing to 1.5 should be invalid")
	}
}
