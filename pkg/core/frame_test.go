package core

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func closeVec3(a, b Vec3) bool {
	return a.Subtract(b).Length() <= tolerance
}

func TestRotateFrame(t *testing.T) {
	tests := []struct {
		name     string
		axis     Vec3
		degrees  float64
		vector   Vec3
		expected Vec3
	}{
		{
			name:     "No rotation",
			axis:     NewVec3(0, 0, 1),
			degrees:  0,
			vector:   NewVec3(1, 0, 0),
			expected: NewVec3(1, 0, 0),
		},
		{
			name:     "90 degree rotation around Z axis",
			axis:     NewVec3(0, 0, 1),
			degrees:  90,
			vector:   NewVec3(1, 0, 0),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "90 degree rotation around Y axis",
			axis:     NewVec3(0, 1, 0),
			degrees:  90,
			vector:   NewVec3(1, 0, 0),
			expected: NewVec3(0, 0, -1),
		},
		{
			name:     "90 degree rotation around X axis",
			axis:     NewVec3(1, 0, 0),
			degrees:  90,
			vector:   NewVec3(0, 1, 0),
			expected: NewVec3(0, 0, 1),
		},
		{
			name:     "Unnormalized axis",
			axis:     NewVec3(0, 5, 0),
			degrees:  180,
			vector:   NewVec3(1, 0, 0),
			expected: NewVec3(-1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RotateFrame(tt.axis, tt.degrees).TransformPoint(tt.vector)
			if !closeVec3(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFrameCompose(t *testing.T) {
	// Scale, then rotate, then translate
	f := TranslateFrame(NewVec3(10, 0, 0)).Compose(RotateFrame(NewVec3(0, 0, 1), 90).Compose(ScaleFrame(2)))

	result := f.TransformPoint(NewVec3(1, 0, 0))
	expected := NewVec3(10, 2, 0)
	if !closeVec3(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}

	// Directions ignore the translation
	direction := f.TransformDirection(NewVec3(1, 0, 0))
	if !closeVec3(direction, NewVec3(0, 2, 0)) {
		t.Errorf("Expected direction (0, 2, 0), got %v", direction)
	}

	// Identity is neutral on both sides
	if f.Compose(IdentityFrame()) != f || IdentityFrame().Compose(f) != f {
		t.Error("Composing with the identity should not change the frame")
	}
}

func TestLookAtFrame(t *testing.T) {
	from := NewVec3(0, 0, 3)
	f := LookAtFrame(from, NewVec3(0, 0, 0), NewVec3(0, 1, 0))

	if !closeVec3(f.O, from) {
		t.Errorf("Expected origin %v, got %v", from, f.O)
	}
	// The view direction is -Z
	view := f.TransformDirection(NewVec3(0, 0, -1))
	if !closeVec3(view, NewVec3(0, 0, -1)) {
		t.Errorf("Expected view direction (0, 0, -1), got %v", view)
	}
	if !closeVec3(f.Y, NewVec3(0, 1, 0)) {
		t.Errorf("Expected up axis (0, 1, 0), got %v", f.Y)
	}
	if math.Abs(f.X.Dot(f.Y)) > tolerance || math.Abs(f.Y.Dot(f.Z)) > tolerance {
		t.Error("Frame axes should be orthogonal")
	}
}

func TestTransformBox(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	f := TranslateFrame(NewVec3(5, 0, 0)).Compose(RotateFrame(NewVec3(0, 1, 0), 45))

	result := f.TransformBox(box)
	half := math.Sqrt2
	expected := NewAABB(NewVec3(5-half, -1, -half), NewVec3(5+half, 1, half))
	if !closeVec3(result.Min, expected.Min) || !closeVec3(result.Max, expected.Max) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}
