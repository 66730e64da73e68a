package blobs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestEquivalenceRegister(t *testing.T) {
	var list EquivalenceList
	list.Register(3, 7)
	list.Register(7, 3)
	list.Register(5, 5)
	list.Register(9, 2)
	assert.Equal(t, EquivalenceList{{Greater: 7, Lesser: 3}, {Greater: 7, Lesser: 3}, {Greater: 9, Lesser: 2}}, list)
	assert.Equal(t, EquivalenceList{{Greater: 7, Lesser: 3}, {Greater: 9, Lesser: 2}}, list.Normalize())
}

func TestEquivalenceNormalizeOrder(t *testing.T) {
	list := EquivalenceList{{9, 4}, {5, 1}, {9, 2}, {5, 1}, {6, 3}}
	assert.Equal(t, EquivalenceList{{5, 1}, {6, 3}, {9, 2}, {9, 4}}, list.Normalize())
	// Original list is untouched
	assert.Equal(t, Equivalence{9, 4}, list[0])
}

func TestEquivalenceChain(t *testing.T) {
	// A > B > C discovered as (A, B) and (B, C) only
	var list EquivalenceList
	list.Register(30, 20)
	list.Register(20, 10)
	mapping := list.Resolve()
	assert.Equal(t, map[int]int{30: 10, 20: 10}, mapping)
}

func TestEquivalenceLongChain(t *testing.T) {
	var list EquivalenceList
	for label := 100; label > 1; label-- {
		list.Register(label, label-1)
	}
	mapping := list.Resolve()
	assert.Len(t, mapping, 99)
	for label, canonical := range mapping {
		assert.Equal(t, 1, canonical, "label %d", label)
	}
}

func TestEquivalenceResolveClasses(t *testing.T) {
	var list EquivalenceList
	list.Register(8, 5)
	list.Register(12, 8)
	list.Register(4, 2)
	list.Register(7, 4)
	list.Register(11, 13)
	list.Register(13, 12)
	expected := map[int]int{
		8: 5, 12: 5, 11: 5, 13: 5,
		4: 2, 7: 2,
	}
	if diff := cmp.Diff(expected, list.Resolve()); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestEquivalenceResolveOrderIndependent(t *testing.T) {
	pairs := [][2]int{{6, 2}, {9, 6}, {4, 3}, {9, 4}, {15, 14}}
	var forward, backward EquivalenceList
	for _, p := range pairs {
		forward.Register(p[0], p[1])
	}
	for i := len(pairs) - 1; i >= 0; i-- {
		backward.Register(pairs[i][1], pairs[i][0])
	}
	if diff := cmp.Diff(forward.Resolve(), backward.Resolve()); diff != "" {
		t.Errorf("Resolution depends on registration order (-forward +backward):\n%s", diff)
	}
	assert.Equal(t, 2, forward.Resolve()[3])
}

func TestEquivalenceResolveEmpty(t *testing.T) {
	var list EquivalenceList
	assert.Empty(t, list.Resolve())
}
