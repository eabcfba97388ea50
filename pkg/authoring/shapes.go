package authoring

import (
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// MakeQuad returns a unit quad in the XY plane facing +Z, scaled by size
func MakeQuad(name string, size float64) *Shape {
	h := size / 2
	return &Shape{
		Name: name,
		Positions: []core.Vec3{
			{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h},
		},
		Normals: []core.Vec3{
			{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1},
		},
		Texcoords: []core.Vec2{
			{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
		},
		Quads: [][4]int{{0, 1, 2, 3}},
	}
}

// MakeCube returns an axis-aligned cube centered at the origin, scaled by size
func MakeCube(name string, size float64) *Shape {
	h := size / 2
	shape := &Shape{Name: name}

	faces := []struct{ normal, u, v core.Vec3 }{
		{core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 0, -1), core.NewVec3(-1, 0, 0), core.NewVec3(0, 1, 0)},
		{core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1), core.NewVec3(0, 1, 0)},
		{core.NewVec3(-1, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1)},
		{core.NewVec3(0, -1, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1)},
	}
	for _, f := range faces {
		base := len(shape.Positions)
		center := f.normal.Multiply(h)
		for _, corner := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := center.Add(f.u.Multiply(corner[0] * h)).Add(f.v.Multiply(corner[1] * h))
			shape.Positions = append(shape.Positions, p)
			shape.Normals = append(shape.Normals, f.normal)
			shape.Texcoords = append(shape.Texcoords, core.NewVec2((corner[0]+1)/2, (1-corner[1])/2))
		}
		shape.Quads = append(shape.Quads, [4]int{base, base + 1, base + 2, base + 3})
	}
	return shape
}

// MakeSphere returns a quad-tessellated sphere centered at the origin.
// steps is the number of subdivisions around the equator.
func MakeSphere(name string, radius float64, steps int) *Shape {
	steps = max(steps, 4)
	rows := steps / 2
	shape := &Shape{Name: name, Smooth: true}

	for j := 0; j <= rows; j++ {
		v := float64(j) / float64(rows)
		theta := math.Pi * v
		for i := 0; i <= steps; i++ {
			u := float64(i) / float64(steps)
			phi := 2 * math.Pi * u
			n := core.NewVec3(math.Cos(phi)*math.Sin(theta), math.Cos(theta), -math.Sin(phi)*math.Sin(theta))
			shape.Positions = append(shape.Positions, n.Multiply(radius))
			shape.Normals = append(shape.Normals, n)
			shape.Texcoords = append(shape.Texcoords, core.NewVec2(u, v))
		}
	}

	stride := steps + 1
	for j := 0; j < rows; j++ {
		for i := 0; i < steps; i++ {
			a := j*stride + i
			shape.Quads = append(shape.Quads, [4]int{a, a + stride, a + stride + 1, a + 1})
		}
	}
	return shape
}
