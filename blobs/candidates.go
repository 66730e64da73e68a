package blobs

import (
	"github.com/google/uuid"
)

// CandidateConfig holds shape limits applied when blobs are turned into peak candidates
type CandidateConfig struct {
	// Scale passed to Blob3D.ToEllipsoid
	Scale float64
	// Bounding box widths must lie within [MinExtent, MaxExtent]
	MinExtent float64
	MaxExtent float64
	// Bounding box width along frames must not exceed MaxFrames
	MaxFrames float64
}

// DefaultCandidateConfig returns default candidate limits
func DefaultCandidateConfig() CandidateConfig {
	return CandidateConfig{
		Scale:     1.0,
		MinExtent: 1e-5,
		MaxExtent: 1e5,
		MaxFrames: 10,
	}
}

// Candidate is a blob with its fitted shape
type Candidate struct {
	Label int
	ID    uuid.UUID
	Blob  *Blob3D
	Shape *Ellipsoid
	// Selected is false when the shape's bounding box leaves the detector volume
	Selected bool
}

// ExtractCandidates fits an ellipsoid to every blob of collection and keeps the ones with
// sensible extents. Candidates are ordered by label.
func ExtractCandidates(collection Collection, nrows, ncols, nframes int, cfg CandidateConfig) []Candidate {
	detector := AABB{
		Lower: NewPoint(0, 0, 0),
		Upper: NewPoint(float64(ncols-1), float64(nrows-1), float64(nframes-1)),
	}
	candidates := make([]Candidate, 0, len(collection))
	for _, label := range collection.Labels() {
		blob := collection[label]
		shape, err := blob.ToEllipsoid(cfg.Scale)
		if err != nil {
			continue
		}
		box := shape.BoundingBox()
		ext := box.Extents()
		// Too small or too large
		if max(ext.X, ext.Y, ext.Z) > cfg.MaxExtent || min(ext.X, ext.Y, ext.Z) < cfg.MinExtent {
			continue
		}
		if ext.Z > cfg.MaxFrames {
			continue
		}
		candidates = append(candidates, Candidate{
			Label:    label,
			ID:       blob.GetID(),
			Blob:     blob,
			Shape:    shape,
			Selected: detector.Contains(box),
		})
	}
	return candidates
}
