package core

import "math"

// Frame is an affine frame: three axes and an origin.
// Cameras, instances and environments are placed in the world with a Frame.
type Frame struct {
	X, Y, Z Vec3 // Axes
	O       Vec3 // Origin
}

// IdentityFrame returns the frame aligned with the world axes at the origin
func IdentityFrame() Frame {
	return Frame{
		X: NewVec3(1, 0, 0),
		Y: NewVec3(0, 1, 0),
		Z: NewVec3(0, 0, 1),
	}
}

// LookAtFrame builds a frame at from, whose Z axis points away from to.
// This matches the camera convention where the view direction is -Z.
func LookAtFrame(from, to, up Vec3) Frame {
	w := from.Subtract(to).Normalize()
	u := up.Cross(w).Normalize()
	v := w.Cross(u).Normalize()
	return Frame{X: u, Y: v, Z: w, O: from}
}

// TransformPoint maps a point from local to world coordinates
func (f Frame) TransformPoint(p Vec3) Vec3 {
	return f.X.Multiply(p.X).Add(f.Y.Multiply(p.Y)).Add(f.Z.Multiply(p.Z)).Add(f.O)
}

// TransformDirection maps a direction from local to world coordinates
func (f Frame) TransformDirection(d Vec3) Vec3 {
	return f.X.Multiply(d.X).Add(f.Y.Multiply(d.Y)).Add(f.Z.Multiply(d.Z))
}

// TransformBox returns the world bounds of a local box
func (f Frame) TransformBox(b AABB) AABB {
	corners := make([]Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		corners = append(corners, f.TransformPoint(c))
	}
	return NewAABBFromPoints(corners...)
}

// TranslateFrame returns a frame that moves points by t
func TranslateFrame(t Vec3) Frame {
	f := IdentityFrame()
	f.O = t
	return f
}

// ScaleFrame returns a frame that scales points uniformly about the origin
func ScaleFrame(s float64) Frame {
	return Frame{
		X: NewVec3(s, 0, 0),
		Y: NewVec3(0, s, 0),
		Z: NewVec3(0, 0, s),
	}
}

// RotateFrame returns a frame rotating by degrees around axis
func RotateFrame(axis Vec3, degrees float64) Frame {
	a := axis.Normalize()
	angle := degrees * math.Pi / 180
	s, c := math.Sin(angle), math.Cos(angle)

	// Rodrigues' rotation of each basis vector
	rotate := func(v Vec3) Vec3 {
		return v.Multiply(c).Add(a.Cross(v).Multiply(s)).Add(a.Multiply(a.Dot(v) * (1 - c)))
	}
	return Frame{
		X: rotate(NewVec3(1, 0, 0)),
		Y: rotate(NewVec3(0, 1, 0)),
		Z: rotate(NewVec3(0, 0, 1)),
	}
}

// Compose returns the frame applying g first and then f
func (f Frame) Compose(g Frame) Frame {
	return Frame{
		X: f.TransformDirection(g.X),
		Y: f.TransformDirection(g.Y),
		Z: f.TransformDirection(g.Z),
		O: f.TransformPoint(g.O),
	}
}
