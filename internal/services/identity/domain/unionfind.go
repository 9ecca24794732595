package domain

// unionFind clusters contact ids linked transitively via shared identity values
// computed on demand so merges stay auditable and side-effect bounded
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}}
}

func (u *unionFind) find(x string) string {
	p, ok := u.parent[x]
	if !ok {
		u.parent[x] = x
		return x
	}
	if p == x {
		return x
	}
	root := u.find(p)
	u.parent[x] = root
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// Cluster groups linked ids; pairs is a list of (a, b) edges
// singletons never appear in the output
func Cluster(pairs [][2]string) map[string][]string {
	u := newUnionFind()
	for _, p := range pairs {
		u.union(p[0], p[1])
	}
	groups := map[string][]string{}
	for id := range u.parent {
		root := u.find(id)
		groups[root] = append(groups[root], id)
	}
	for root, members := range groups {
		if len(members) < 2 {
			delete(groups, root)
		}
	}
	return groups
}
