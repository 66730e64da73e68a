package blobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOctree(t *testing.T, depth, storage int) *Octree {
	t.Helper()
	tree, err := NewOctree(NewPoint(0, 0, 0), NewPoint(100, 100, 100))
	require.NoError(t, err)
	require.NoError(t, tree.SetMaxDepth(depth))
	require.NoError(t, tree.SetMaxStorage(storage))
	return tree
}

func TestNewOctreeInvalidWorld(t *testing.T) {
	_, err := NewOctree(NewPoint(0, 0, 0), NewPoint(10, 0, 10))
	require.ErrorIs(t, err, ErrInvalidWorld)
}

func TestOctreeSettersValidate(t *testing.T) {
	tree, err := NewOctree(NewPoint(0, 0, 0), NewPoint(10, 10, 10))
	require.NoError(t, err)
	assert.ErrorIs(t, tree.SetMaxDepth(0), ErrInvalidMaxDepth)
	assert.ErrorIs(t, tree.SetMaxDepth(11), ErrInvalidMaxDepth)
	assert.ErrorIs(t, tree.SetMaxStorage(0), ErrInvalidMaxStorage)
	assert.NoError(t, tree.SetMaxDepth(10))
	assert.NoError(t, tree.SetMaxStorage(1))
}

func TestOctreeSplit(t *testing.T) {
	tree := newTestOctree(t, 6, 2)
	tree.AddData(NewSphere(NewPoint(10, 10, 10), 1))
	tree.AddData(NewSphere(NewPoint(90, 10, 10), 1))
	assert.Equal(t, 1, tree.NumLeaves())

	tree.AddData(NewSphere(NewPoint(10, 90, 90), 1))
	assert.Equal(t, 8, tree.NumLeaves())
	assert.Len(t, tree.Voxels(), 9)
	assert.Equal(t, tree.World(), tree.Voxels()[0])

	stored := 0
	for box, data := range tree.Leaves() {
		for _, handle := range data {
			assert.True(t, box.Intersects(tree.Shape(handle).BoundingBox()))
		}
		stored += len(data)
	}
	assert.Equal(t, 3, stored)
}

func TestOctreeDepthLimit(t *testing.T) {
	tree := newTestOctree(t, 1, 1)
	for i := 0; i < 5; i++ {
		tree.AddData(NewSphere(NewPoint(10, 10, 10), 1))
	}
	assert.Equal(t, 8, tree.NumLeaves(), "leaves at max depth keep absorbing data")

	largest := 0
	for _, data := range tree.Leaves() {
		largest = max(largest, len(data))
	}
	assert.Equal(t, 5, largest)
}

func TestOctreeLeavesVisitsEveryLeaf(t *testing.T) {
	tree := newTestOctree(t, 4, 1)
	centers := [][3]float64{
		{5, 5, 5}, {7, 5, 5}, {20, 5, 5}, {5, 30, 5},
		{60, 60, 60}, {62, 61, 60}, {95, 95, 95}, {30, 80, 10},
	}
	for _, c := range centers {
		tree.AddData(NewSphere(NewPoint(c[0], c[1], c[2]), 0.5))
	}
	visited := 0
	for range tree.Leaves() {
		visited++
	}
	assert.Equal(t, tree.NumLeaves(), visited)
	assert.Greater(t, visited, 8)

	// Early exit from the iterator
	stopped := 0
	for range tree.Leaves() {
		stopped++
		if stopped == 3 {
			break
		}
	}
	assert.Equal(t, 3, stopped)
}

func TestOctreeCollisions(t *testing.T) {
	tree := newTestOctree(t, 6, 1)
	a := tree.AddData(NewSphere(NewPoint(10, 10, 10), 1))
	b := tree.AddData(NewSphere(NewPoint(11.5, 10, 10), 1))
	tree.AddData(NewSphere(NewPoint(80, 80, 80), 1))
	// Both straddle the root center and end up in all eight octants
	c := tree.AddData(NewSphere(NewPoint(50, 50, 50), 2))
	d := tree.AddData(NewSphere(NewPoint(51, 50, 50), 2))

	pairs := tree.Collisions()
	assert.Equal(t, []CollisionPair{{A: a, B: b}, {A: c, B: d}}, pairs)
}

func TestOctreeCollisionsWith(t *testing.T) {
	tree := newTestOctree(t, 6, 2)
	first := tree.AddData(NewSphere(NewPoint(20, 20, 20), 3))
	second := tree.AddData(NewSphere(NewPoint(25, 20, 20), 3))
	tree.AddData(NewSphere(NewPoint(70, 20, 20), 3))

	probe := NewSphere(NewPoint(22.5, 20, 20), 1)
	assert.Equal(t, []int{first, second}, tree.CollisionsWith(probe))
	assert.Equal(t, []int{second}, tree.CollisionsWith(tree.Shape(first)))
	assert.Empty(t, tree.CollisionsWith(NewSphere(NewPoint(50, 90, 90), 1)))
}

func TestOctreeIsInsideObject(t *testing.T) {
	tree := newTestOctree(t, 6, 1)
	tree.AddData(NewSphere(NewPoint(20, 20, 20), 3))
	tree.AddData(NewSphere(NewPoint(70, 70, 70), 3))

	assert.True(t, tree.IsInsideObject(NewPoint(21, 21, 21)))
	assert.True(t, tree.IsInsideObject(NewPoint(70, 70, 72.5)))
	assert.False(t, tree.IsInsideObject(NewPoint(50, 50, 50)))
	assert.False(t, tree.IsInsideObject(NewPoint(120, 20, 20)))
}

func TestOctreeRemoveData(t *testing.T) {
	tree := newTestOctree(t, 6, 1)
	a := tree.AddData(NewSphere(NewPoint(10, 10, 10), 1))
	b := tree.AddData(NewSphere(NewPoint(10.9, 10, 10), 1))
	c := tree.AddData(NewSphere(NewPoint(11.8, 10, 10), 1))
	require.Len(t, tree.Collisions(), 3)

	tree.RemoveData(b)
	assert.Nil(t, tree.Shape(b))
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, []CollisionPair{{A: a, B: c}}, tree.Collisions())

	// Removing twice or an unknown handle is a no-op
	tree.RemoveData(b)
	tree.RemoveData(42)
	assert.Equal(t, 2, tree.Len())
}
