package blobs

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	octreeChildren    = 8
	defaultMaxDepth   = 6
	defaultMaxStorage = 6
	noNode            = -1
)

type octreeNode struct {
	box AABB
	// Index of the first of eight contiguous children, noNode for leaves
	firstChild int
	// Index of the parent, noNode for the root
	parent int
	// Position among siblings, see AABB.octant
	sector int
	depth  int
	// Shape handles stored at a leaf
	data []int
}

func (node *octreeNode) isLeaf() bool {
	return node.firstChild == noNode
}

// CollisionPair is a pair of colliding shape handles with A < B
type CollisionPair struct {
	A int
	B int
}

// Octree is a spatial index over ellipsoids. Nodes live in a single slice and refer to each
// other by index; shapes are addressed by the handle returned from AddData.
type Octree struct {
	nodes      []octreeNode
	shapes     []*Ellipsoid
	removed    []bool
	maxDepth   int
	maxStorage int
}

// NewOctree creates tree spanning the box between lower and upper
func NewOctree(lower, upper r3.Vec) (*Octree, error) {
	world := NewAABB(lower, upper)
	ext := world.Extents()
	if !(ext.X > 0 && ext.Y > 0 && ext.Z > 0) {
		return nil, errors.Wrapf(ErrInvalidWorld, "lower %v, upper %v", lower, upper)
	}
	return &Octree{
		nodes: []octreeNode{{
			box:        world,
			firstChild: noNode,
			parent:     noNode,
		}},
		maxDepth:   defaultMaxDepth,
		maxStorage: defaultMaxStorage,
	}, nil
}

// SetMaxDepth sets how many times a branch may be split
func (tree *Octree) SetMaxDepth(depth int) error {
	if err := validateMaxDepth(depth); err != nil {
		return err
	}
	tree.maxDepth = depth
	return nil
}

// SetMaxStorage sets how many shapes a leaf holds before it splits
func (tree *Octree) SetMaxStorage(storage int) error {
	if err := validateMaxStorage(storage); err != nil {
		return err
	}
	tree.maxStorage = storage
	return nil
}

// World returns the box spanned by the tree
func (tree *Octree) World() AABB {
	return tree.nodes[0].box
}

// AddData inserts shape into every leaf its bounding box intersects and returns its handle
func (tree *Octree) AddData(shape *Ellipsoid) int {
	handle := len(tree.shapes)
	tree.shapes = append(tree.shapes, shape)
	tree.removed = append(tree.removed, false)
	tree.insert(0, handle)
	return handle
}

func (tree *Octree) insert(idx, handle int) {
	if !tree.nodes[idx].box.Intersects(tree.shapes[handle].BoundingBox()) {
		return
	}
	if !tree.nodes[idx].isLeaf() {
		first := tree.nodes[idx].firstChild
		for i := 0; i < octreeChildren; i++ {
			tree.insert(first+i, handle)
		}
		return
	}
	tree.nodes[idx].data = append(tree.nodes[idx].data, handle)
	if len(tree.nodes[idx].data) > tree.maxStorage && tree.nodes[idx].depth < tree.maxDepth {
		tree.split(idx)
	}
}

// split turns leaf idx into an interior node and pushes its data down to eight new children
func (tree *Octree) split(idx int) {
	first := len(tree.nodes)
	parent := tree.nodes[idx]
	for i := 0; i < octreeChildren; i++ {
		tree.nodes = append(tree.nodes, octreeNode{
			box:        parent.box.octant(i),
			firstChild: noNode,
			parent:     idx,
			sector:     i,
			depth:      parent.depth + 1,
		})
	}
	tree.nodes[idx].firstChild = first
	tree.nodes[idx].data = nil
	for _, handle := range parent.data {
		for i := 0; i < octreeChildren; i++ {
			tree.insert(first+i, handle)
		}
	}
}

// RemoveData drops shape from every leaf holding it. The handle is not reused.
func (tree *Octree) RemoveData(handle int) {
	if handle < 0 || handle >= len(tree.shapes) || tree.removed[handle] {
		return
	}
	tree.removed[handle] = true
	for idx := range tree.nodes {
		tree.nodes[idx].data = slices.DeleteFunc(tree.nodes[idx].data, func(h int) bool {
			return h == handle
		})
	}
}

// Shape returns shape stored under handle, nil if unknown or removed
func (tree *Octree) Shape(handle int) *Ellipsoid {
	if handle < 0 || handle >= len(tree.shapes) || tree.removed[handle] {
		return nil
	}
	return tree.shapes[handle]
}

// Len returns number of shapes currently stored
func (tree *Octree) Len() int {
	n := 0
	for _, removed := range tree.removed {
		if !removed {
			n++
		}
	}
	return n
}

// NumLeaves returns number of leaf chambers
func (tree *Octree) NumLeaves() int {
	n := 0
	for idx := range tree.nodes {
		if tree.nodes[idx].isLeaf() {
			n++
		}
	}
	return n
}

// Voxels returns boxes of every node, root first
func (tree *Octree) Voxels() []AABB {
	voxels := make([]AABB, 0, len(tree.nodes))
	for idx := range tree.nodes {
		voxels = append(voxels, tree.nodes[idx].box)
	}
	return voxels
}

func (tree *Octree) leftmostLeaf(idx int) int {
	for !tree.nodes[idx].isLeaf() {
		idx = tree.nodes[idx].firstChild
	}
	return idx
}

// nextLeaf climbs parent links until a node with an unvisited sibling is found
func (tree *Octree) nextLeaf(idx int) int {
	for idx != 0 {
		node := &tree.nodes[idx]
		if node.sector < octreeChildren-1 {
			return tree.leftmostLeaf(tree.nodes[node.parent].firstChild + node.sector + 1)
		}
		idx = node.parent
	}
	return noNode
}

// Leaves iterates over leaves in depth-first order yielding each leaf's box and the handles
// stored there. Handles slice must not be modified.
func (tree *Octree) Leaves() iter.Seq2[AABB, []int] {
	return func(yield func(AABB, []int) bool) {
		for idx := tree.leftmostLeaf(0); idx != noNode; idx = tree.nextLeaf(idx) {
			if !yield(tree.nodes[idx].box, tree.nodes[idx].data) {
				return
			}
		}
	}
}

// Collisions returns every pair of stored shapes that collide. Pairs are unique and sorted.
func (tree *Octree) Collisions() []CollisionPair {
	seen := make(map[CollisionPair]struct{})
	tested := make(map[CollisionPair]struct{})
	for _, data := range tree.Leaves() {
		for i := 0; i < len(data); i++ {
			for j := i + 1; j < len(data); j++ {
				pair := CollisionPair{A: min(data[i], data[j]), B: max(data[i], data[j])}
				if _, ok := tested[pair]; ok {
					continue
				}
				tested[pair] = struct{}{}
				if tree.shapes[pair.A].Collide(tree.shapes[pair.B]) {
					seen[pair] = struct{}{}
				}
			}
		}
	}
	pairs := make([]CollisionPair, 0, len(seen))
	for pair := range seen {
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, compareCollisionPairs)
	return pairs
}

// CollisionsWith returns sorted handles of stored shapes colliding with given one
func (tree *Octree) CollisionsWith(shape *Ellipsoid) []int {
	box := shape.BoundingBox()
	found := make(map[int]bool)
	var walk func(idx int)
	walk = func(idx int) {
		node := &tree.nodes[idx]
		if !node.box.Intersects(box) {
			return
		}
		if !node.isLeaf() {
			for i := 0; i < octreeChildren; i++ {
				walk(node.firstChild + i)
			}
			return
		}
		for _, handle := range node.data {
			if _, ok := found[handle]; ok {
				continue
			}
			found[handle] = tree.shapes[handle] != shape && tree.shapes[handle].Collide(shape)
		}
	}
	walk(0)
	handles := make([]int, 0, len(found))
	for handle, hit := range found {
		if hit {
			handles = append(handles, handle)
		}
	}
	slices.Sort(handles)
	return handles
}

// IsInsideObject reports whether point lies inside any stored shape
func (tree *Octree) IsInsideObject(point r3.Vec) bool {
	var search func(idx int) bool
	search = func(idx int) bool {
		node := &tree.nodes[idx]
		if !node.box.IsInside(point) {
			return false
		}
		if !node.isLeaf() {
			for i := 0; i < octreeChildren; i++ {
				if search(node.firstChild + i) {
					return true
				}
			}
			return false
		}
		for _, handle := range node.data {
			if tree.shapes[handle].IsInside(point) {
				return true
			}
		}
		return false
	}
	return search(0)
}

func compareCollisionPairs(a, b CollisionPair) int {
	if a.A != b.A {
		return a.A - b.A
	}
	return a.B - b.B
}
