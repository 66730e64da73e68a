package blobs

import (
	"maps"
	"slices"
)

// Collection holds blobs keyed by their canonical label
type Collection map[int]*Blob3D

// Labels returns labels in increasing order
func (collection Collection) Labels() []int {
	return slices.Sorted(maps.Keys(collection))
}

// Blobs returns blobs ordered by label
func (collection Collection) Blobs() []*Blob3D {
	labels := collection.Labels()
	blobs := make([]*Blob3D, 0, len(labels))
	for _, label := range labels {
		blobs = append(blobs, collection[label])
	}
	return blobs
}
