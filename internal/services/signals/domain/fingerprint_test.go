package domain

import (
	"strings"
	"testing"
)

func TestCanonicalize_SortsObjectKeys(t *testing.T) {
	t.Parallel()

	got := Canonicalize(map[string]any{"zeta": "z", "alpha": float64(1), "mid": true})
	want := "{alpha:1,mid:true,zeta:z}"
	if got != want {
		t.Fatalf("Canonicalize = %q, want %q", got, want)
	}
}

func TestCanonicalize_NestedAndArrays(t *testing.T) {
	t.Parallel()

	got := Canonicalize(map[string]any{
		"items": []any{"b", "a"},
		"inner": map[string]any{"y": nil, "x": float64(2.5)},
	})
	want := "{inner:{x:2.5,y:},items:[b,a]}"
	if got != want {
		t.Fatalf("Canonicalize = %q, want %q", got, want)
	}
}

func TestCanonicalize_ArrayOrderMatters(t *testing.T) {
	t.Parallel()

	a := Canonicalize(map[string]any{"tags": []any{"go", "db"}})
	b := Canonicalize(map[string]any{"tags": []any{"db", "go"}})
	if a == b {
		t.Fatalf("array order should affect the canonical form, both %q", a)
	}
}

func TestCanonicalize_NilIsEmpty(t *testing.T) {
	t.Parallel()

	if got := Canonicalize(nil); got != "" {
		t.Fatalf("Canonicalize(nil) = %q, want empty", got)
	}
}

func TestFingerprint_PermutationInvariant(t *testing.T) {
	t.Parallel()

	m1 := map[string]any{"repo": "acme/api", "stars": float64(41), "meta": map[string]any{"lang": "go", "fork": false}}
	m2 := map[string]any{"meta": map[string]any{"fork": false, "lang": "go"}, "stars": float64(41), "repo": "acme/api"}

	f1 := Fingerprint(SourceGitHub, "octocat", TypeRepoStar, m1)
	f2 := Fingerprint(SourceGitHub, "octocat", TypeRepoStar, m2)
	if f1 != f2 {
		t.Fatalf("fingerprints differ for permuted metadata: %q vs %q", f1, f2)
	}
}

func TestFingerprint_AnonymousActor(t *testing.T) {
	t.Parallel()

	f := Fingerprint(SourceWebsite, "", TypePageView, map[string]any{"path": "/pricing"})
	if !strings.Contains(f, ":"+AnonymousActor+":") {
		t.Fatalf("fingerprint %q missing anonymous placeholder", f)
	}
}

func TestFingerprint_Shape(t *testing.T) {
	t.Parallel()

	f := Fingerprint(SourceNPM, "dev1", TypePackageInstall, nil)
	parts := strings.Split(f, ":")
	if len(parts) != 4 {
		t.Fatalf("fingerprint %q should have 4 segments, got %d", f, len(parts))
	}
	if parts[0] != string(SourceNPM) || parts[1] != "dev1" || parts[2] != string(TypePackageInstall) {
		t.Fatalf("fingerprint segments wrong: %v", parts)
	}
	if len(parts[3]) != 8 {
		t.Fatalf("hash segment %q should be 8 hex chars", parts[3])
	}
}

func TestFingerprint_MetadataChangesHash(t *testing.T) {
	t.Parallel()

	f1 := Fingerprint(SourceGitHub, "dev1", TypePROpened, map[string]any{"pr": float64(1)})
	f2 := Fingerprint(SourceGitHub, "dev1", TypePROpened, map[string]any{"pr": float64(2)})
	if f1 == f2 {
		t.Fatalf("different metadata should change the fingerprint, both %q", f1)
	}
}
