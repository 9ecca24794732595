package domain

import "testing"

func TestConfidenceOrdering(t *testing.T) {
	t.Parallel()

	c := DefaultConfidence()
	verifiedEmail := c.For(IdentEmail, true)
	email := c.For(IdentEmail, false)
	verifiedHandle := c.For(IdentGitHub, true)
	handle := c.For(IdentGitHub, false)
	dom := c.For(IdentDomain, false)
	ip := c.For(IdentIP, false)

	if !(verifiedEmail > email && email > verifiedHandle && verifiedHandle > handle && handle > dom && dom > ip) {
		t.Fatalf("confidence ordering broken: %v %v %v %v %v %v",
			verifiedEmail, email, verifiedHandle, handle, dom, ip)
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	t.Parallel()

	tables := []ConfidenceTable{
		DefaultConfidence(),
		{VerifiedEmail: 1.5, Email: -0.2, Handle: 2},
		{},
	}
	types := []IdentityType{IdentEmail, IdentGitHub, IdentNPM, IdentTwitter, IdentLinkedIn, IdentIP, IdentDomain}
	for _, tbl := range tables {
		for _, typ := range types {
			for _, verified := range []bool{false, true} {
				v := tbl.For(typ, verified)
				if v < 0 || v > 1 {
					t.Fatalf("For(%s, %v) = %v out of [0,1]", typ, verified, v)
				}
			}
		}
	}
}

func TestGroupConfidence(t *testing.T) {
	t.Parallel()

	if got := GroupConfidence(nil); got != 0 {
		t.Fatalf("GroupConfidence(nil) = %v, want 0", got)
	}

	// weighted toward the strongest shared identity
	got := GroupConfidence([]float64{0.9, 0.3})
	want := 0.6*0.9 + 0.4*0.6
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("GroupConfidence = %v, want %v", got, want)
	}

	// single high-confidence identity dominates a pile of weak ones
	strong := GroupConfidence([]float64{0.95, 0.35, 0.35})
	weak := GroupConfidence([]float64{0.5, 0.5, 0.5})
	if strong <= weak {
		t.Fatalf("strong shared identity should outweigh uniform weak ones: %v <= %v", strong, weak)
	}

	for _, in := range [][]float64{{2, 2}, {0.99, 0.99, 0.99}, {0}} {
		v := GroupConfidence(in)
		if v < 0 || v > 1 {
			t.Fatalf("GroupConfidence(%v) = %v out of [0,1]", in, v)
		}
	}
}
