package blobs

import (
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// MatchingAlgorithm is for algorithm type used to pair blobs of two runs
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy pairs closest blobs first
	MatchingAlgorithmGreedy
)

// BlobMatch is a pair of blobs of two runs describing the same region
type BlobMatch struct {
	LabelA   int
	LabelB   int
	IDA      uuid.UUID
	IDB      uuid.UUID
	Distance float64
	// IoU of the bounding boxes of both blobs' ellipsoids, zero when either fit is degenerate
	Overlap float64
}

// Comparison is the outcome of CompareCollections
type Comparison struct {
	// Matched pairs ordered by LabelA
	Matched []BlobMatch
	// Labels present in only one of the runs, in increasing order
	OnlyA []int
	OnlyB []int
}

// CompareCollections pairs blobs of two detection runs one-to-one by center distance. Blobs
// further apart than maxDistance are never paired. Blobs without a defined center end up
// unmatched.
func CompareCollections(a, b Collection, maxDistance float64, algorithm MatchingAlgorithm) (Comparison, error) {
	if !(maxDistance > 0) {
		return Comparison{}, errors.Wrapf(ErrInvalidMatchDistance, "max distance %v: must be positive", maxDistance)
	}
	labelsA, centersA := blobCenters(a)
	labelsB, centersB := blobCenters(b)

	distances := make([][]float64, len(centersA))
	for i := range centersA {
		distances[i] = make([]float64, len(centersB))
		for j := range centersB {
			distances[i][j] = euclideanDistance(centersA[i], centersB[j])
		}
	}

	var pairs [][2]int
	switch algorithm {
	case MatchingAlgorithmGreedy:
		pairs = performGreedyMatching(distances, maxDistance)
	default:
		pairs = performHungarianMatching(distances, maxDistance)
	}

	matchedA := make(map[int]struct{}, len(pairs))
	matchedB := make(map[int]struct{}, len(pairs))
	result := Comparison{
		Matched: make([]BlobMatch, 0, len(pairs)),
	}
	for _, pair := range pairs {
		labelA, labelB := labelsA[pair[0]], labelsB[pair[1]]
		matchedA[labelA] = struct{}{}
		matchedB[labelB] = struct{}{}
		result.Matched = append(result.Matched, BlobMatch{
			LabelA:   labelA,
			LabelB:   labelB,
			IDA:      a[labelA].GetID(),
			IDB:      b[labelB].GetID(),
			Distance: distances[pair[0]][pair[1]],
			Overlap:  shapeOverlap(a[labelA], b[labelB]),
		})
	}
	slices.SortFunc(result.Matched, func(x, y BlobMatch) int {
		return x.LabelA - y.LabelA
	})
	result.OnlyA = unmatchedLabels(a, matchedA)
	result.OnlyB = unmatchedLabels(b, matchedB)
	return result, nil
}

// blobCenters returns labels and centers of blobs with a defined center, ordered by label
func blobCenters(collection Collection) ([]int, []r3.Vec) {
	labels := make([]int, 0, len(collection))
	centers := make([]r3.Vec, 0, len(collection))
	for _, label := range collection.Labels() {
		blob := collection[label]
		center := blob.Center()
		if !blob.IsValid() {
			continue
		}
		labels = append(labels, label)
		centers = append(centers, center)
	}
	return labels, centers
}

func shapeOverlap(a, b *Blob3D) float64 {
	shapeA, err := a.ToEllipsoid(1.0)
	if err != nil || shapeA.IsDegenerate() {
		return 0
	}
	shapeB, err := b.ToEllipsoid(1.0)
	if err != nil || shapeB.IsDegenerate() {
		return 0
	}
	return shapeA.BoundingBox().IoU(shapeB.BoundingBox())
}

func unmatchedLabels(collection Collection, matched map[int]struct{}) []int {
	labels := make([]int, 0)
	for _, label := range collection.Labels() {
		if _, ok := matched[label]; !ok {
			labels = append(labels, label)
		}
	}
	return labels
}

// performHungarianMatching finds the assignment with the most pairs closer than maxDistance and,
// among those, the smallest total distance.
// Returns (rowIndex, columnIndex) pairs.
func performHungarianMatching(distances [][]float64, maxDistance float64) [][2]int {
	numRows := len(distances)
	if numRows == 0 || len(distances[0]) == 0 {
		return [][2]int{}
	}
	// Any assignment using a forbidden pair costs more than all allowed pairs together
	forbidden := maxDistance * float64(max(numRows, len(distances[0]))+1)
	cost := make([][]float64, numRows)
	for i := range distances {
		cost[i] = make([]float64, len(distances[i]))
		for j, d := range distances[i] {
			if d < maxDistance {
				cost[i][j] = d
			} else {
				cost[i][j] = forbidden
			}
		}
	}
	matches := make([][2]int, 0, numRows)
	for rowIndex, colIndex := range solveAssignment(cost, forbidden) {
		if colIndex >= 0 {
			matches = append(matches, [2]int{rowIndex, colIndex})
		}
	}
	return matches
}

// performGreedyMatching repeatedly pairs the closest blobs which are both still free
func performGreedyMatching(distances [][]float64, maxDistance float64) [][2]int {
	priorityQueue := make(distanceHeap, 0)
	for i := range distances {
		for j := range distances[i] {
			if distances[i][j] < maxDistance {
				priorityQueue.Push(&candidatePair{i: i, j: j, distance: distances[i][j]})
			}
		}
	}
	matches := make([][2]int, 0)
	// We need to prevent double matching
	reservedRows := make(map[int]struct{})
	reservedCols := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		pair := priorityQueue.Pop()
		if _, ok := reservedRows[pair.i]; ok {
			continue
		}
		if _, ok := reservedCols[pair.j]; ok {
			continue
		}
		reservedRows[pair.i] = struct{}{}
		reservedCols[pair.j] = struct{}{}
		matches = append(matches, [2]int{pair.i, pair.j})
	}
	return matches
}
