package core

import (
	"math"
	"testing"
)

func TestAABBIntersect(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		hit      bool
		distance float64
		axis     int
	}{
		{"front face", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), true, 4, 2},
		{"side face", NewRay(NewVec3(-5, 0.5, 0), NewVec3(1, 0, 0)), true, 4, 0},
		{"miss", NewRay(NewVec3(0, 5, 5), NewVec3(0, 0, -1)), false, 0, 0},
		{"pointing away", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)), false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance, axis, hit := box.Intersect(tt.ray, 0, math.Inf(1))
			if hit != tt.hit {
				t.Fatalf("Expected hit %v, got %v", tt.hit, hit)
			}
			if !hit {
				return
			}
			if math.Abs(distance-tt.distance) > tolerance {
				t.Errorf("Expected distance %v, got %v", tt.distance, distance)
			}
			if axis != tt.axis {
				t.Errorf("Expected axis %d, got %d", tt.axis, axis)
			}
		})
	}
}

func TestAABBUnion(t *testing.T) {
	a := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b := NewAABB(NewVec3(-1, 2, 0), NewVec3(0, 3, 4))

	u := a.Union(b)
	if u.Min != NewVec3(-1, 0, 0) || u.Max != NewVec3(1, 3, 4) {
		t.Errorf("Unexpected union %v", u)
	}
	if EmptyAABB().Union(a) != a {
		t.Error("The empty box should be the identity for Union")
	}
	if EmptyAABB().IsValid() {
		t.Error("The empty box should not be valid")
	}
	if u.LongestAxis() != 2 {
		t.Errorf("Expected longest axis 2, got %d", u.LongestAxis())
	}
}
