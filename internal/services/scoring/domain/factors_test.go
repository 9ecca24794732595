package domain

import (
	"math"
	"testing"
	"time"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestVelocity(t *testing.T) {
	t.Parallel()

	if got := Velocity(0, 10); got != 0 {
		t.Fatalf("Velocity(0, 10) = %v, want 0", got)
	}
	if got := Velocity(5, 0); got != 1 {
		t.Fatalf("Velocity(5, 0) = %v, want 1", got)
	}
	if got := Velocity(5, 5); !almost(got, 0.5) {
		t.Fatalf("Velocity(5, 5) = %v, want 0.5", got)
	}
	if got := Velocity(30, 10); !almost(got, 0.75) {
		t.Fatalf("Velocity(30, 10) = %v, want 0.75", got)
	}
}

func TestBreadth(t *testing.T) {
	t.Parallel()

	if got := Breadth(0); got != 0 {
		t.Fatalf("Breadth(0) = %v, want 0", got)
	}
	if got := Breadth(3); !almost(got, 0.5) {
		t.Fatalf("Breadth(3) = %v, want 0.5", got)
	}
	if Breadth(100) >= 1 {
		t.Fatal("Breadth should stay below 1")
	}
}

func TestRecency(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if got := Recency(time.Time{}, now, 90); got != 0 {
		t.Fatalf("Recency(zero) = %v, want 0", got)
	}
	if got := Recency(now, now, 90); !almost(got, 1) {
		t.Fatalf("Recency(now) = %v, want 1", got)
	}
	half := now.AddDate(0, 0, -45)
	if got := Recency(half, now, 90); !almost(got, 0.5) {
		t.Fatalf("Recency(half window) = %v, want 0.5", got)
	}
	old := now.AddDate(0, 0, -120)
	if got := Recency(old, now, 90); got != 0 {
		t.Fatalf("Recency(past window) = %v, want 0", got)
	}
}

func TestDiversity(t *testing.T) {
	t.Parallel()

	if got := Diversity(0); got != 0 {
		t.Fatalf("Diversity(0) = %v, want 0", got)
	}
	if got := Diversity(7); !almost(got, 0.5) {
		t.Fatalf("Diversity(7) = %v, want 0.5", got)
	}
	if got := Diversity(50); got != 1 {
		t.Fatalf("Diversity(50) = %v, want 1 (capped)", got)
	}
}

func TestFactorsFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	st := WindowStats{
		SignalCount:    20,
		PriorCount:     10,
		DistinctActors: 3,
		DistinctTypes:  7,
		LastSignalAt:   now,
		Now:            now,
		WindowDays:     90,
	}
	factors := FactorsFor(DefaultWeights(), st)
	if len(factors) != 4 {
		t.Fatalf("FactorsFor returned %d factors, want 4", len(factors))
	}

	wantNames := []string{"signal_velocity", "user_breadth", "recency", "diversity"}
	var weightSum float64
	for i, f := range factors {
		if f.Name != wantNames[i] {
			t.Fatalf("factor %d name = %q, want %q", i, f.Name, wantNames[i])
		}
		if f.Value < 0 || f.Value > 1 {
			t.Fatalf("factor %s value %v out of [0,1]", f.Name, f.Value)
		}
		weightSum += f.Weight
	}
	if !almost(weightSum, 1) {
		t.Fatalf("factor weights sum to %v, want 1", weightSum)
	}
}
