package blobs

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := NewPoint(341, 264, 3)
	p2 := NewPoint(421, 427, 7)
	correnctAnswer := 181.61773
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}
}

func TestAABBIntersects(t *testing.T) {
	a := NewAABB(NewPoint(0, 0, 0), NewPoint(2, 2, 2))
	b := NewAABB(NewPoint(2, 1, 1), NewPoint(3, 3, 3))
	c := NewAABB(NewPoint(2.5, 0, 0), NewPoint(3, 1, 1))
	if !a.Intersects(b) || !b.Intersects(a) {
		t.Errorf("Boxes %v and %v share a face and should intersect", a, b)
	}
	if a.Intersects(c) {
		t.Errorf("Boxes %v and %v should not intersect", a, c)
	}
}

func TestAABBCornersOrder(t *testing.T) {
	box := NewAABB(NewPoint(3, 0, 5), NewPoint(1, 2, -1))
	if box.Lower != NewPoint(1, 0, -1) || box.Upper != NewPoint(3, 2, 5) {
		t.Errorf("Wrong bounds: %v", box)
	}
	if math.Abs(box.Volume()-24) > eps {
		t.Errorf("Wrong volume: %v, correct answer: 24", box.Volume())
	}
	if !box.Contains(NewAABB(NewPoint(1, 0, 0), NewPoint(2, 1, 5))) {
		t.Errorf("Box %v should contain inner box", box)
	}
}

func TestAABBOctants(t *testing.T) {
	box := NewAABB(NewPoint(0, 0, 0), NewPoint(4, 2, 8))
	total := 0.0
	for sector := 0; sector < 8; sector++ {
		sub := box.octant(sector)
		total += sub.Volume()
		if !box.Contains(sub) {
			t.Errorf("Octant %d (%v) escapes parent box", sector, sub)
		}
	}
	if math.Abs(total-box.Volume()) > eps {
		t.Errorf("Octants volume %v does not sum to parent volume %v", total, box.Volume())
	}
	upper := box.octant(7)
	if upper.Lower != NewPoint(2, 1, 4) || upper.Upper != NewPoint(4, 2, 8) {
		t.Errorf("Wrong upper octant: %v", upper)
	}
}

func TestAABBIoU(t *testing.T) {
	box := NewAABB(NewPoint(0, 0, 0), NewPoint(2, 2, 2))
	other := NewAABB(NewPoint(1, 0, 0), NewPoint(3, 2, 2))
	correctAnswer := 1.0 / 3.0
	answer := box.IoU(other)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("IoU should be %f, but got %f", correctAnswer, answer)
	}
	far := NewAABB(NewPoint(5, 5, 5), NewPoint(6, 6, 6))
	if box.IoU(far) != 0 {
		t.Errorf("Disjoint boxes should have zero IoU, but got %f", box.IoU(far))
	}
}
