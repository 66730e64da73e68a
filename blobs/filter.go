package blobs

import (
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default radii of the annular filter: disc of 5 pixels against the 10..15 pixel ring
const (
	DefaultAnnularR1 = 5.0
	DefaultAnnularR2 = 10.0
	DefaultAnnularR3 = 15.0
)

// FilterFunc transforms a frame before the threshold test. The returned matrix must have the
// same shape as the input and input must not be modified.
type FilterFunc func(frame *mat.Dense) *mat.Dense

type kernelOffset struct {
	dr int
	dc int
}

// NewAnnularFilter returns filter computing, for every pixel, the mean over a disc of radius r1
// minus the mean over the ring r2 <= d <= r3. Pixels outside the frame are mirrored.
func NewAnnularFilter(r1, r2, r3 float64) (FilterFunc, error) {
	if !(r1 > 0 && r2 >= r1 && r3 > r2) {
		return nil, errors.Wrapf(ErrInvalidFilter, "annular radii %v, %v, %v: need 0 < r1 <= r2 < r3", r1, r2, r3)
	}
	var disc, ring []kernelOffset
	reach := int(r3)
	for dr := -reach; dr <= reach; dr++ {
		for dc := -reach; dc <= reach; dc++ {
			d2 := float64(dr*dr + dc*dc)
			switch {
			case d2 <= r1*r1:
				disc = append(disc, kernelOffset{dr, dc})
			case d2 >= r2*r2 && d2 <= r3*r3:
				ring = append(ring, kernelOffset{dr, dc})
			}
		}
	}
	if len(ring) == 0 {
		return nil, errors.Wrapf(ErrInvalidFilter, "annular radii %v, %v, %v: ring holds no pixels", r1, r2, r3)
	}
	return func(frame *mat.Dense) *mat.Dense {
		nrows, ncols := frame.Dims()
		out := mat.NewDense(nrows, ncols, nil)
		for row := 0; row < nrows; row++ {
			for col := 0; col < ncols; col++ {
				inner := kernelMean(frame, row, col, disc)
				outer := kernelMean(frame, row, col, ring)
				out.Set(row, col, inner-outer)
			}
		}
		return out
	}, nil
}

// NewBoxFilter returns filter replacing every pixel by the mean of the square of given
// half-width around it. Pixels outside the frame are mirrored.
func NewBoxFilter(halfWidth int) (FilterFunc, error) {
	if halfWidth < 0 {
		return nil, errors.Wrapf(ErrInvalidFilter, "box half-width %d: must not be negative", halfWidth)
	}
	box := make([]kernelOffset, 0, (2*halfWidth+1)*(2*halfWidth+1))
	for dr := -halfWidth; dr <= halfWidth; dr++ {
		for dc := -halfWidth; dc <= halfWidth; dc++ {
			box = append(box, kernelOffset{dr, dc})
		}
	}
	return func(frame *mat.Dense) *mat.Dense {
		nrows, ncols := frame.Dims()
		out := mat.NewDense(nrows, ncols, nil)
		for row := 0; row < nrows; row++ {
			for col := 0; col < ncols; col++ {
				out.Set(row, col, kernelMean(frame, row, col, box))
			}
		}
		return out
	}, nil
}

func kernelMean(frame *mat.Dense, row, col int, kernel []kernelOffset) float64 {
	nrows, ncols := frame.Dims()
	var sum float64
	for _, k := range kernel {
		sum += frame.At(mirror(row+k.dr, nrows), mirror(col+k.dc, ncols))
	}
	return sum / float64(len(kernel))
}

// mirror folds index i back into [0, n) reflecting about the edge pixels
func mirror(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// EstimateMedian returns the (lower) median pixel intensity over frames [begin, end). It is meant to feed
// Config.Median for relative thresholding.
func EstimateMedian(data DataSet, begin, end int) (float64, error) {
	if begin < 0 || end > data.NFrames() || end <= begin {
		return 0, errors.Wrapf(ErrInvalidFrameRange, "frames [%d, %d) of %d", begin, end, data.NFrames())
	}
	it, err := data.Iterator(begin)
	if err != nil {
		return 0, errors.Wrap(err, "Can't iterate data set")
	}
	values := make([]float64, 0, (end-begin)*data.NRows()*data.NCols())
	for idx := begin; idx < end; idx++ {
		if idx > begin {
			if err := it.Advance(); err != nil {
				return 0, errors.Wrapf(err, "Can't read frame %d", idx)
			}
		}
		frame := it.Frame()
		nrows, _ := frame.Dims()
		for row := 0; row < nrows; row++ {
			values = append(values, frame.RawRowView(row)...)
		}
	}
	slices.Sort(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil), nil
}
