package domain

import "testing"

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	if got := NormalizeValue(IdentEmail, "  Dev@Example.COM "); got != "dev@example.com" {
		t.Fatalf("email normalize = %q", got)
	}
	if got := NormalizeValue(IdentIP, " 10.0.0.1 "); got != "10.0.0.1" {
		t.Fatalf("ip normalize = %q", got)
	}
}

func TestPairsOrderedByConfidence(t *testing.T) {
	t.Parallel()

	h := ActorHints{
		Email:   "Dev@Example.com",
		GitHub:  "Octocat",
		Domain:  "Example.com",
		IP:      "10.0.0.1",
		Twitter: "dev_tw",
	}
	pairs := h.Pairs()
	want := []IdentityType{IdentEmail, IdentGitHub, IdentTwitter, IdentDomain, IdentIP}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i, p := range pairs {
		if p.Type != want[i] {
			t.Fatalf("pair %d type = %s, want %s", i, p.Type, want[i])
		}
	}
	if pairs[0].Value != "dev@example.com" {
		t.Fatalf("email pair not normalized: %q", pairs[0].Value)
	}
}

func TestActorHintsEmpty(t *testing.T) {
	t.Parallel()

	if !(ActorHints{}).Empty() {
		t.Fatal("zero hints should be empty")
	}
	if (ActorHints{GitHub: "x"}).Empty() {
		t.Fatal("github hint should not be empty")
	}
}
