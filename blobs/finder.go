package blobs

import (
	"context"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BlobFinder searches a DataSet for connected regions above threshold and consolidates them
// into 3D blobs.
//
// The search scans frames strictly in order keeping only the current and previous frame labels,
// resolves label equivalences, drops blobs outside the component range and finally merges blobs
// whose fitted ellipsoids collide.
type BlobFinder struct {
	data     DataSet
	config   Config
	filter   FilterFunc
	progress ProgressHandler
	logger   *zap.Logger

	nrows        int
	ncols        int
	currentLabel int
}

// NewBlobFinder creates finder over data with DefaultConfig
func NewBlobFinder(data DataSet) *BlobFinder {
	return &BlobFinder{
		data:     data,
		config:   DefaultConfig(),
		progress: noopProgress{},
		logger:   zap.NewNop(),
		nrows:    data.NRows(),
		ncols:    data.NCols(),
	}
}

// SetThreshold sets intensity threshold
func (finder *BlobFinder) SetThreshold(threshold float64) {
	finder.config.Threshold = threshold
}

// SetRelative makes threshold a multiple of the median
func (finder *BlobFinder) SetRelative(relative bool) {
	finder.config.Relative = relative
}

// SetMedian sets median used for relative threshold
func (finder *BlobFinder) SetMedian(median float64) {
	finder.config.Median = median
}

// SetMinComp sets the smallest accepted number of points per blob
func (finder *BlobFinder) SetMinComp(minComp int) {
	finder.config.MinComponents = minComp
}

// SetMaxComp sets the largest accepted number of points per blob
func (finder *BlobFinder) SetMaxComp(maxComp int) {
	finder.config.MaxComponents = maxComp
}

// SetConfidence sets scale applied to blob covariance before the ellipsoid fit
func (finder *BlobFinder) SetConfidence(confidence float64) {
	finder.config.Confidence = confidence
}

// SetMaxDepth sets octree max depth of the collision pass
func (finder *BlobFinder) SetMaxDepth(depth int) {
	finder.config.MaxDepth = depth
}

// SetMaxStorage sets octree max leaf storage of the collision pass
func (finder *BlobFinder) SetMaxStorage(storage int) {
	finder.config.MaxStorage = storage
}

// SetConfig replaces all search parameters
func (finder *BlobFinder) SetConfig(cfg Config) {
	finder.config = cfg
}

// GetConfig returns current search parameters
func (finder *BlobFinder) GetConfig() Config {
	return finder.config
}

// SetFilter sets frame filter used for the threshold test. Nil disables filtering.
func (finder *BlobFinder) SetFilter(filter FilterFunc) {
	finder.filter = filter
}

// SetProgressHandler sets progress sink. Nil disables reporting.
func (finder *BlobFinder) SetProgressHandler(handler ProgressHandler) {
	if handler == nil {
		handler = noopProgress{}
	}
	finder.progress = handler
}

// SetLogger sets logger. Nil disables logging.
func (finder *BlobFinder) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	finder.logger = logger
}

// Find searches frames [begin, end) and returns surviving blobs keyed by label
func (finder *BlobFinder) Find(ctx context.Context, begin, end int) (Collection, error) {
	if err := finder.config.Validate(); err != nil {
		return nil, err
	}
	if finder.data.NFrames() < 2 || end-begin < 2 {
		return nil, errors.Wrapf(ErrTooFewFrames, "frames [%d, %d) of %d", begin, end, finder.data.NFrames())
	}
	if begin < 0 || end > finder.data.NFrames() {
		return nil, errors.Wrapf(ErrInvalidFrameRange, "frames [%d, %d) of %d", begin, end, finder.data.NFrames())
	}
	finder.currentLabel = 0

	blobs, equivalences, err := finder.findBlobs(ctx, begin, end)
	if err != nil {
		return nil, err
	}
	finder.logger.Info("Frames scanned",
		zap.Int("blobs", len(blobs)),
		zap.Int("equivalences", len(equivalences)),
	)

	finder.mergeBlobs(blobs, equivalences)
	finder.logger.Info("Equivalences merged", zap.Int("blobs", len(blobs)))

	finder.eliminateBlobs(blobs)

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "Can't start collision pass %d", pass)
		}
		numBlobs := len(blobs)
		collisions, err := finder.findCollisions(blobs)
		if err != nil {
			return nil, err
		}
		finder.mergeBlobs(blobs, collisions)
		finder.logger.Info("Collision pass done",
			zap.Int("pass", pass),
			zap.Int("collisions", len(collisions)),
			zap.Int("blobs", len(blobs)),
		)
		if len(blobs) == numBlobs {
			break
		}
	}

	finder.eliminateBlobs(blobs)

	finder.progress.SetStatus("Blob finding complete.")
	finder.progress.SetProgress(100)
	finder.logger.Info("Blob finding complete", zap.Int("blobs", len(blobs)))
	return blobs, nil
}

// findBlobs labels super-threshold pixels frame by frame and accumulates them into blobs.
// Touching regions with different labels are reported as equivalences.
func (finder *BlobFinder) findBlobs(ctx context.Context, begin, end int) (Collection, EquivalenceList, error) {
	finder.progress.SetStatus("Finding blobs...")
	finder.progress.SetProgress(0)

	threshold := finder.config.EffectiveThreshold()
	blobs := make(Collection)
	var equivalences EquivalenceList

	labels := make([]int, finder.nrows*finder.ncols)
	previous := make([]int, finder.nrows*finder.ncols)

	it, err := finder.data.Iterator(begin)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't iterate from frame %d", begin)
	}
	for idx := begin; idx < end; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrapf(err, "Can't scan frame %d", idx)
		}
		if idx > begin {
			if err := it.Advance(); err != nil {
				return nil, nil, errors.Wrapf(err, "Can't advance to frame %d", idx)
			}
		}
		frame := it.Frame()
		if r, c := frame.Dims(); r != finder.nrows || c != finder.ncols {
			return nil, nil, errors.Wrapf(ErrFrameShape, "frame %d is %dx%d, expected %dx%d", idx, r, c, finder.nrows, finder.ncols)
		}
		filtered := frame
		if finder.filter != nil {
			filtered = finder.filter(frame)
			if r, c := filtered.Dims(); r != finder.nrows || c != finder.ncols {
				return nil, nil, errors.Wrapf(ErrFrameShape, "filtered frame %d is %dx%d, expected %dx%d", idx, r, c, finder.nrows, finder.ncols)
			}
		}

		// Labels of the frame just scanned become the previous frame
		labels, previous = previous, labels

		index := 0
		for row := 0; row < finder.nrows; row++ {
			for col := 0; col < finder.ncols; col++ {
				if filtered.At(row, col) < threshold {
					labels[index] = 0
					index++
					continue
				}
				var left, top, prev int
				if col > 0 {
					left = labels[index-1]
				}
				if row > 0 {
					top = labels[index-finder.ncols]
				}
				if idx > begin {
					prev = previous[index]
				}
				label := finder.resolveLabel(left, top, prev, &equivalences)
				labels[index] = label
				index++

				value := frame.At(row, col)
				if blob, ok := blobs[label]; ok {
					blob.AddPoint(float64(col), float64(row), float64(idx), value)
				} else {
					blobs[label] = NewBlob3D(float64(col), float64(row), float64(idx), value)
				}
			}
		}
		finder.progress.SetProgress(100 * (idx - begin + 1) / (end - begin))
	}
	return blobs, equivalences, nil
}

// resolveLabel picks label of a super-threshold pixel from its left, top and previous-frame
// neighbours (0 means unlabeled). Bits of the neighbour code: left, top, previous.
// Top wins over left, left wins over previous; every disagreeing pair is registered.
func (finder *BlobFinder) resolveLabel(left, top, previous int, equivalences *EquivalenceList) int {
	code := 0
	if left != 0 {
		code |= 1
	}
	if top != 0 {
		code |= 2
	}
	if previous != 0 {
		code |= 4
	}
	switch code {
	case 0:
		finder.currentLabel++
		return finder.currentLabel
	case 1:
		return left
	case 2:
		return top
	case 3:
		equivalences.Register(top, left)
		return top
	case 4:
		return previous
	case 5:
		equivalences.Register(left, previous)
		return left
	case 6:
		equivalences.Register(top, previous)
		return top
	default:
		equivalences.Register(top, left)
		equivalences.Register(top, previous)
		equivalences.Register(left, previous)
		return top
	}
}

// mergeBlobs folds every blob into the blob of its canonical label
func (finder *BlobFinder) mergeBlobs(blobs Collection, equivalences EquivalenceList) {
	mapping := equivalences.Resolve()
	for _, label := range slices.Sorted(maps.Keys(mapping)) {
		source, ok := blobs[label]
		if !ok {
			continue
		}
		target := mapping[label]
		if dest, ok := blobs[target]; ok {
			dest.Merge(source)
		} else {
			blobs[target] = source
		}
		delete(blobs, label)
	}
}

// eliminateBlobs removes blobs with a point count outside [MinComponents, MaxComponents]
func (finder *BlobFinder) eliminateBlobs(blobs Collection) {
	finder.progress.SetStatus("Eliminating blobs which are too small or too large...")
	labels := blobs.Labels()
	for i, label := range labels {
		n := blobs[label].GetComponents()
		if n < finder.config.MinComponents || n > finder.config.MaxComponents {
			delete(blobs, label)
		}
		finder.progress.SetProgress(100 * (i + 1) / len(labels))
	}
	finder.logger.Info("Blobs eliminated",
		zap.Int("removed", len(labels)-len(blobs)),
		zap.Int("blobs", len(blobs)),
	)
}

// findCollisions fits ellipsoids to blobs and reports pairs of labels whose ellipsoids collide.
// Blobs with degenerate fits take no part but stay in the collection.
func (finder *BlobFinder) findCollisions(blobs Collection) (EquivalenceList, error) {
	finder.progress.SetStatus("Finding blob collisions...")
	finder.progress.SetProgress(0)

	tree, err := NewOctree(NewPoint(0, 0, 0), NewPoint(float64(finder.ncols), float64(finder.nrows), float64(finder.data.NFrames())))
	if err != nil {
		return nil, errors.Wrap(err, "Can't create octree")
	}
	if err := tree.SetMaxDepth(finder.config.MaxDepth); err != nil {
		return nil, err
	}
	if err := tree.SetMaxStorage(finder.config.MaxStorage); err != nil {
		return nil, err
	}

	labels := blobs.Labels()
	byHandle := make([]int, 0, len(labels))
	skipped := 0
	for i, label := range labels {
		ellipsoid, err := blobs[label].ToEllipsoid(finder.config.Confidence)
		if err != nil || ellipsoid.IsDegenerate() {
			skipped++
			continue
		}
		// Handles are issued sequentially
		tree.AddData(ellipsoid)
		byHandle = append(byHandle, label)
		finder.progress.SetProgress(50 * (i + 1) / len(labels))
	}

	var equivalences EquivalenceList
	for _, pair := range tree.Collisions() {
		equivalences.Register(byHandle[pair.A], byHandle[pair.B])
	}
	finder.progress.SetProgress(100)
	finder.logger.Debug("Collision candidates",
		zap.Int("ellipsoids", tree.Len()),
		zap.Int("degenerate", skipped),
		zap.Int("leaves", tree.NumLeaves()),
	)
	return equivalences, nil
}
