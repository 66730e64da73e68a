package blobs

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Coordinates throughout the package follow the detector convention:
// X is the column, Y is the row and Z is the frame index.

// NewPoint returns a point at (x, y, z)
func NewPoint(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// AABB is an axis-aligned bounding box. Bounds are inclusive.
type AABB struct {
	Lower r3.Vec
	Upper r3.Vec
}

// NewAABB creates box from two corners given in any order
func NewAABB(a, b r3.Vec) AABB {
	return AABB{
		Lower: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Upper: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Center returns box's center point
func (box AABB) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(box.Lower, box.Upper))
}

// Extents returns box's full widths along each axis
func (box AABB) Extents() r3.Vec {
	return r3.Sub(box.Upper, box.Lower)
}

// Volume returns box's volume
func (box AABB) Volume() float64 {
	ext := box.Extents()
	return ext.X * ext.Y * ext.Z
}

// Intersects reports whether two boxes overlap. Touching faces count as overlap.
func (box AABB) Intersects(other AABB) bool {
	return box.Lower.X <= other.Upper.X && other.Lower.X <= box.Upper.X &&
		box.Lower.Y <= other.Upper.Y && other.Lower.Y <= box.Upper.Y &&
		box.Lower.Z <= other.Upper.Z && other.Lower.Z <= box.Upper.Z
}

// Contains reports whether other lies completely inside box
func (box AABB) Contains(other AABB) bool {
	return box.IsInside(other.Lower) && box.IsInside(other.Upper)
}

// IsInside reports whether point lies inside box
func (box AABB) IsInside(point r3.Vec) bool {
	return point.X >= box.Lower.X && point.X <= box.Upper.X &&
		point.Y >= box.Lower.Y && point.Y <= box.Upper.Y &&
		point.Z >= box.Lower.Z && point.Z <= box.Upper.Z
}

// IoU calculates Intersection over Union between two boxes
func (box AABB) IoU(other AABB) float64 {
	lower := NewPoint(math.Max(box.Lower.X, other.Lower.X), math.Max(box.Lower.Y, other.Lower.Y), math.Max(box.Lower.Z, other.Lower.Z))
	upper := NewPoint(math.Min(box.Upper.X, other.Upper.X), math.Min(box.Upper.Y, other.Upper.Y), math.Min(box.Upper.Z, other.Upper.Z))
	interVolume := math.Max(0, upper.X-lower.X) * math.Max(0, upper.Y-lower.Y) * math.Max(0, upper.Z-lower.Z)
	if interVolume == 0 {
		return 0.0
	}
	return interVolume / (box.Volume() + other.Volume() - interVolume)
}

// octant returns one of the eight sub-boxes obtained by cutting the box at its center.
// Bits of sector select the upper half along X (bit 0), Y (bit 1) and Z (bit 2).
func (box AABB) octant(sector int) AABB {
	center := box.Center()
	sub := AABB{Lower: box.Lower, Upper: center}
	if sector&1 != 0 {
		sub.Lower.X, sub.Upper.X = center.X, box.Upper.X
	}
	if sector&2 != 0 {
		sub.Lower.Y, sub.Upper.Y = center.Y, box.Upper.Y
	}
	if sector&4 != 0 {
		sub.Lower.Z, sub.Upper.Z = center.Z, box.Upper.Z
	}
	return sub
}

func euclideanDistance(p1, p2 r3.Vec) float64 {
	return r3.Norm(r3.Sub(p1, p2))
}
