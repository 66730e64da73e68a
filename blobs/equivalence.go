package blobs

import (
	"cmp"
	"slices"
)

// Equivalence states that two provisional labels belong to the same blob. Greater is always
// the larger label.
type Equivalence struct {
	Greater int
	Lesser  int
}

// EquivalenceList accumulates equivalences found during a scan or a collision pass
type EquivalenceList []Equivalence

// Register records that labels a and b touch. Equal labels are ignored.
func (list *EquivalenceList) Register(a, b int) {
	if a == b {
		return
	}
	*list = append(*list, Equivalence{Greater: max(a, b), Lesser: min(a, b)})
}

// Normalize sorts pairs by (Greater, Lesser) and drops duplicates
func (list EquivalenceList) Normalize() EquivalenceList {
	sorted := slices.Clone(list)
	slices.SortFunc(sorted, func(a, b Equivalence) int {
		if c := cmp.Compare(a.Greater, b.Greater); c != 0 {
			return c
		}
		return cmp.Compare(a.Lesser, b.Lesser)
	})
	return slices.Compact(sorted)
}

// Resolve unions every pair and maps each label to the smallest label of its class.
// Labels that are already canonical are absent from the result.
func (list EquivalenceList) Resolve() map[int]int {
	set := newDisjointSet()
	for _, eq := range list.Normalize() {
		set.union(eq.Greater, eq.Lesser)
	}
	mapping := make(map[int]int)
	for label := range set.parent {
		if canonical := set.canonical(label); canonical != label {
			mapping[label] = canonical
		}
	}
	return mapping
}

// disjointSet is a union-find over labels with path compression and union by rank.
// Every root also tracks the smallest label of its set.
type disjointSet struct {
	parent   map[int]int
	rank     map[int]int
	smallest map[int]int
}

func newDisjointSet() *disjointSet {
	return &disjointSet{
		parent:   make(map[int]int),
		rank:     make(map[int]int),
		smallest: make(map[int]int),
	}
}

func (set *disjointSet) add(label int) {
	if _, ok := set.parent[label]; ok {
		return
	}
	set.parent[label] = label
	set.smallest[label] = label
}

func (set *disjointSet) find(label int) int {
	root := label
	for set.parent[root] != root {
		root = set.parent[root]
	}
	for label != root {
		next := set.parent[label]
		set.parent[label] = root
		label = next
	}
	return root
}

func (set *disjointSet) union(a, b int) {
	set.add(a)
	set.add(b)
	ra, rb := set.find(a), set.find(b)
	if ra == rb {
		return
	}
	if set.rank[ra] < set.rank[rb] {
		ra, rb = rb, ra
	}
	set.parent[rb] = ra
	if set.rank[ra] == set.rank[rb] {
		set.rank[ra]++
	}
	set.smallest[ra] = min(set.smallest[ra], set.smallest[rb])
	delete(set.smallest, rb)
}

func (set *disjointSet) canonical(label int) int {
	return set.smallest[set.find(label)]
}
