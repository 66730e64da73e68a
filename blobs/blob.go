package blobs

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Blobs lighter than this have no meaningful center or shape
	blobMassEpsilon = 1e-7
)

// Blob3D is a connected region of a frame stack stored as intensity-weighted moments.
//
// Moments are accumulated relative to the first point added to the blob, which keeps the
// covariance free of the cancellation that absolute coordinates (often hundreds of pixels)
// would introduce. Exported accessors convert back to absolute coordinates.
type Blob3D struct {
	id     uuid.UUID
	origin r3.Vec
	// Zeroth, first and second moments relative to origin
	m0 float64
	m1 r3.Vec
	m2 [3][3]float64
	// Number of points and intensity bounds
	nPoints  int
	minValue float64
	maxValue float64
	valid    bool
}

// NewBlob3D creates blob holding a single point
func NewBlob3D(x, y, z, value float64) *Blob3D {
	blob := Blob3D{
		id:       uuid.New(),
		origin:   NewPoint(x, y, z),
		minValue: value,
		maxValue: value,
		valid:    true,
	}
	blob.accumulate(r3.Vec{}, value)
	return &blob
}

// GetID returns blob's identifier
func (blob *Blob3D) GetID() uuid.UUID {
	return blob.id
}

// AddPoint accumulates point (x, y, z) with given intensity
func (blob *Blob3D) AddPoint(x, y, z, value float64) {
	blob.accumulate(r3.Sub(NewPoint(x, y, z), blob.origin), value)
	if value < blob.minValue {
		blob.minValue = value
	}
	if value > blob.maxValue {
		blob.maxValue = value
	}
}

func (blob *Blob3D) accumulate(d r3.Vec, value float64) {
	v := [3]float64{d.X, d.Y, d.Z}
	blob.m0 += value
	blob.m1 = r3.Add(blob.m1, r3.Scale(value, d))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			blob.m2[i][j] += value * v[i] * v[j]
		}
	}
	blob.nPoints++
}

// Merge accumulates other blob into this one. Other blob is consumed and marked invalid.
func (blob *Blob3D) Merge(other *Blob3D) {
	if other == nil || other == blob {
		return
	}
	// Shift other's moments to our origin
	d := r3.Sub(other.origin, blob.origin)
	dv := [3]float64{d.X, d.Y, d.Z}
	ov := [3]float64{other.m1.X, other.m1.Y, other.m1.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			blob.m2[i][j] += other.m2[i][j] + dv[i]*ov[j] + ov[i]*dv[j] + other.m0*dv[i]*dv[j]
		}
	}
	blob.m1 = r3.Add(blob.m1, r3.Add(other.m1, r3.Scale(other.m0, d)))
	blob.m0 += other.m0
	blob.nPoints += other.nPoints
	blob.minValue = math.Min(blob.minValue, other.minValue)
	blob.maxValue = math.Max(blob.maxValue, other.maxValue)
	other.valid = false
}

// GetMass returns blob's zeroth moment (total intensity)
func (blob *Blob3D) GetMass() float64 {
	return blob.m0
}

// GetFirstMoment returns intensity-weighted sum of positions
func (blob *Blob3D) GetFirstMoment() r3.Vec {
	return r3.Add(blob.m1, r3.Scale(blob.m0, blob.origin))
}

// GetSecondMoment returns intensity-weighted sum of position outer products
func (blob *Blob3D) GetSecondMoment() *mat.SymDense {
	o := [3]float64{blob.origin.X, blob.origin.Y, blob.origin.Z}
	m := [3]float64{blob.m1.X, blob.m1.Y, blob.m1.Z}
	moment := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			moment.SetSym(i, j, blob.m2[i][j]+o[i]*m[j]+m[i]*o[j]+blob.m0*o[i]*o[j])
		}
	}
	return moment
}

// GetComponents returns number of points in blob
func (blob *Blob3D) GetComponents() int {
	return blob.nPoints
}

// GetMinValue returns the lowest point intensity seen
func (blob *Blob3D) GetMinValue() float64 {
	return blob.minValue
}

// GetMaxValue returns the highest point intensity seen
func (blob *Blob3D) GetMaxValue() float64 {
	return blob.maxValue
}

// IsValid reports whether blob still describes a region. Blobs become invalid when consumed
// by Merge or when Center finds their mass too small.
func (blob *Blob3D) IsValid() bool {
	return blob.valid
}

// Center returns center of mass. The result is meaningless when the blob has (nearly) no mass;
// in that case blob is flagged invalid and callers must check IsValid.
func (blob *Blob3D) Center() r3.Vec {
	if blob.m0 < blobMassEpsilon {
		blob.valid = false
		return r3.Vec{}
	}
	return r3.Add(blob.origin, r3.Scale(1/blob.m0, blob.m1))
}

// Covariance returns intensity-weighted covariance of point positions
func (blob *Blob3D) Covariance() (*mat.SymDense, error) {
	if blob.m0 < blobMassEpsilon {
		return nil, errors.Wrapf(ErrDegenerateBlob, "mass %g", blob.m0)
	}
	c := [3]float64{blob.m1.X / blob.m0, blob.m1.Y / blob.m0, blob.m1.Z / blob.m0}
	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov.SetSym(i, j, blob.m2[i][j]/blob.m0-c[i]*c[j])
		}
	}
	return cov, nil
}

// ToEllipsoid fits an ellipsoid to blob's moments. The covariance is scaled by 1/scale^2,
// semi-axes are square roots of absolute eigenvalues and axes are the eigenvectors.
func (blob *Blob3D) ToEllipsoid(scale float64) (*Ellipsoid, error) {
	cov, err := blob.Covariance()
	if err != nil {
		return nil, err
	}
	cov.ScaleSym(1/(scale*scale), cov)
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, errors.New("eigen-decomposition of blob covariance did not converge")
	}
	values := eig.Values(nil)
	var axes mat.Dense
	eig.VectorsTo(&axes)
	extents := NewPoint(
		math.Sqrt(math.Abs(values[0])),
		math.Sqrt(math.Abs(values[1])),
		math.Sqrt(math.Abs(values[2])),
	)
	return NewEllipsoid(blob.Center(), extents, &axes), nil
}
