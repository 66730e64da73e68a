package blobs

import "github.com/pkg/errors"

const (
	maxOctreeDepthLimit = 10
)

// Config holds blob search parameters
type Config struct {
	// Intensity threshold. Interpreted as a multiple of Median when Relative is set
	Threshold float64
	// Relative switches threshold to Threshold*Median
	Relative bool
	// Median intensity of the data, used only for relative thresholding
	Median float64
	// Inclusive range of point counts a blob must have to survive filtering
	MinComponents int
	MaxComponents int
	// Covariance of a blob is divided by Confidence^2 before the ellipsoid fit
	Confidence float64
	// Octree parameters for the collision pass
	MaxDepth   int
	MaxStorage int
}

// DefaultConfig returns default search parameters
func DefaultConfig() Config {
	return Config{
		Threshold:     3.0,
		Relative:      false,
		Median:        1.0,
		MinComponents: 30,
		MaxComponents: 10000,
		Confidence:    1.0,
		MaxDepth:      6,
		MaxStorage:    6,
	}
}

// EffectiveThreshold returns the absolute intensity threshold
func (cfg Config) EffectiveThreshold() float64 {
	if cfg.Relative {
		return cfg.Threshold * cfg.Median
	}
	return cfg.Threshold
}

// Validate checks parameters and names the offending one on failure
func (cfg Config) Validate() error {
	if err := validateMaxDepth(cfg.MaxDepth); err != nil {
		return err
	}
	if err := validateMaxStorage(cfg.MaxStorage); err != nil {
		return err
	}
	if cfg.MinComponents < 0 || cfg.MaxComponents < cfg.MinComponents {
		return errors.Wrapf(ErrInvalidComponentRange, "min components %d, max components %d", cfg.MinComponents, cfg.MaxComponents)
	}
	if !(cfg.Confidence > 0) {
		return errors.Wrapf(ErrInvalidConfidence, "confidence %v: must be positive", cfg.Confidence)
	}
	return nil
}

func validateMaxDepth(depth int) error {
	if depth < 1 || depth > maxOctreeDepthLimit {
		return errors.Wrapf(ErrInvalidMaxDepth, "octree max depth %d: must be within [1, %d]", depth, maxOctreeDepthLimit)
	}
	return nil
}

func validateMaxStorage(storage int) error {
	if storage < 1 {
		return errors.Wrapf(ErrInvalidMaxStorage, "octree max storage %d: must be at least 1", storage)
	}
	return nil
}
