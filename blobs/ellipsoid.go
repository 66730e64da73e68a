package blobs

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Ellipsoids with a semi-axis below this are flat or point-like and carry no volume
	minEllipsoidExtent = 1e-6
	// Tolerance used when classifying roots of the characteristic polynomial
	rootTolerance = 1e-5
)

// Ellipsoid is a center, three semi-axis lengths and an orientation whose columns are the
// principal axes matching the extents.
type Ellipsoid struct {
	center  r3.Vec
	extents r3.Vec
	axes    *mat.Dense
	box     AABB
}

// NewEllipsoid creates ellipsoid. Axes columns are normalized.
func NewEllipsoid(center r3.Vec, extents r3.Vec, axes mat.Matrix) *Ellipsoid {
	orientation := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		col := mat.Col(nil, j, axes)
		norm := math.Sqrt(col[0]*col[0] + col[1]*col[1] + col[2]*col[2])
		if norm == 0 {
			norm = 1
		}
		for i := 0; i < 3; i++ {
			orientation.Set(i, j, col[i]/norm)
		}
	}
	ell := Ellipsoid{
		center:  center,
		extents: extents,
		axes:    orientation,
	}
	ell.box = ell.boundingBox()
	return &ell
}

// NewSphere creates sphere with given radius
func NewSphere(center r3.Vec, radius float64) *Ellipsoid {
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	return NewEllipsoid(center, NewPoint(radius, radius, radius), identity)
}

// Center returns ellipsoid's center
func (ell *Ellipsoid) Center() r3.Vec {
	return ell.center
}

// Extents returns semi-axis lengths
func (ell *Ellipsoid) Extents() r3.Vec {
	return ell.extents
}

// Axes returns a copy of the orientation matrix
func (ell *Ellipsoid) Axes() *mat.Dense {
	return mat.DenseCopyOf(ell.axes)
}

// MinExtent returns the shortest semi-axis
func (ell *Ellipsoid) MinExtent() float64 {
	return math.Min(ell.extents.X, math.Min(ell.extents.Y, ell.extents.Z))
}

// IsDegenerate reports whether any semi-axis is (nearly) zero
func (ell *Ellipsoid) IsDegenerate() bool {
	return ell.MinExtent() < minEllipsoidExtent
}

// Volume returns ellipsoid's volume
func (ell *Ellipsoid) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * ell.extents.X * ell.extents.Y * ell.extents.Z
}

// BoundingBox returns the tightest axis-aligned box around ellipsoid
func (ell *Ellipsoid) BoundingBox() AABB {
	return ell.box
}

// Half-width of the box along axis i is the norm of row i of R*S
func (ell *Ellipsoid) boundingBox() AABB {
	s := [3]float64{ell.extents.X, ell.extents.Y, ell.extents.Z}
	var w [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := ell.axes.At(i, j) * s[j]
			w[i] += v * v
		}
		w[i] = math.Sqrt(w[i])
	}
	half := NewPoint(w[0], w[1], w[2])
	return AABB{Lower: r3.Sub(ell.center, half), Upper: r3.Add(ell.center, half)}
}

// shapeMatrix returns R * diag(1/s^2) * R^T so that interior points satisfy d^T M d <= 1
func (ell *Ellipsoid) shapeMatrix() *mat.SymDense {
	s := [3]float64{ell.extents.X, ell.extents.Y, ell.extents.Z}
	m := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += ell.axes.At(i, k) * ell.axes.At(j, k) / (s[k] * s[k])
			}
			m.SetSym(i, j, sum)
		}
	}
	return m
}

// Quadric returns the 4x4 homogeneous matrix Q with X^T Q X < 0 inside the ellipsoid
func (ell *Ellipsoid) Quadric() (*mat.SymDense, error) {
	if ell.IsDegenerate() {
		return nil, errors.Wrapf(ErrDegenerateBlob, "ellipsoid extents %v", ell.extents)
	}
	m := ell.shapeMatrix()
	c := mat.NewVecDense(3, []float64{ell.center.X, ell.center.Y, ell.center.Z})
	var mc mat.VecDense
	mc.MulVec(m, c)
	q := mat.NewSymDense(4, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			q.SetSym(i, j, m.At(i, j))
		}
		q.SetSym(i, 3, -mc.AtVec(i))
	}
	q.SetSym(3, 3, mat.Dot(c, &mc)-1)
	return q, nil
}

// IsInside reports whether point lies inside or on the ellipsoid
func (ell *Ellipsoid) IsInside(point r3.Vec) bool {
	d := r3.Sub(point, ell.center)
	if ell.IsDegenerate() {
		return r3.Norm(d) <= minEllipsoidExtent
	}
	dv := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
	return mat.Inner(dv, ell.shapeMatrix(), dv) <= 1.0
}

// Collide reports whether two ellipsoids intersect.
//
// The test follows Wang, Wang and Kim's algebraic condition: with A and B the quadrics of the two
// ellipsoids, the ellipsoids are separated exactly when det(lambda*A - B) = 0 has two distinct
// negative real roots. Roots are the eigenvalues of A^-1 * B.
func (ell *Ellipsoid) Collide(other *Ellipsoid) bool {
	if !ell.box.Intersects(other.box) {
		return false
	}
	if ell.IsDegenerate() || other.IsDegenerate() {
		return ell.IsInside(other.center) || other.IsInside(ell.center)
	}
	qa, err := ell.Quadric()
	if err != nil {
		return false
	}
	qb, err := other.Quadric()
	if err != nil {
		return false
	}
	var pencil mat.Dense
	if err := pencil.Solve(qa, qb); err != nil {
		var cond mat.Condition
		// A singular system leaves pencil unset
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return ell.IsInside(other.center) || other.IsInside(ell.center)
		}
	}
	var eig mat.Eigen
	if ok := eig.Factorize(&pencil, mat.EigenNone); !ok {
		return ell.IsInside(other.center) || other.IsInside(ell.center)
	}
	negative := make([]float64, 0, 4)
	for _, root := range eig.Values(nil) {
		if math.Abs(imag(root)) < rootTolerance*math.Max(1, cmplx.Abs(root)) && real(root) < 0 {
			negative = append(negative, real(root))
		}
	}
	if len(negative) != 2 {
		return true
	}
	gap := math.Abs(negative[0] - negative[1])
	return gap <= rootTolerance*math.Max(1, math.Max(math.Abs(negative[0]), math.Abs(negative[1])))
}
