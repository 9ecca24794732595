package domain

import (
	"sort"
	"testing"
)

func TestCluster_Transitive(t *testing.T) {
	t.Parallel()

	groups := Cluster([][2]string{
		{"a", "b"},
		{"b", "c"},
		{"x", "y"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	var sizes []int
	for _, members := range groups {
		sizes = append(sizes, len(members))
	}
	sort.Ints(sizes)
	if sizes[0] != 2 || sizes[1] != 3 {
		t.Fatalf("group sizes = %v, want [2 3]", sizes)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{{"c1", "c2"}, {"c2", "c3"}, {"c4", "c5"}}
	first := Cluster(pairs)
	for i := 0; i < 5; i++ {
		again := Cluster(pairs)
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d groups, first run %d", i, len(again), len(first))
		}
		for root, members := range again {
			if len(first[root]) != len(members) {
				t.Fatalf("run %d group %s size changed", i, root)
			}
		}
	}
}

func TestCluster_Empty(t *testing.T) {
	t.Parallel()

	if got := Cluster(nil); len(got) != 0 {
		t.Fatalf("Cluster(nil) = %v, want empty", got)
	}
}
