// Package accel builds the ray intersection acceleration structure for a
// render scene.
package accel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// ErrInvalidShape is returned when an instance references a shape index
// that is not in the scene
var ErrInvalidShape = errors.New("invalid shape reference")

// Leaf thresholds: if a node has this many or fewer primitives it becomes a leaf
const (
	leafThreshold            = 8
	highQualityLeafThreshold = 2
)

// defaultPointRadius is used for points that carry no radius
const defaultPointRadius = 0.001

// Hit describes the closest intersection found by Intersect
type Hit struct {
	Instance scene.InstanceID // Instance that was hit
	Element  int              // Triangle, quad or point index within the shape
	T        float64          // Ray parameter of the hit
	Position core.Vec3        // World-space hit position
	Normal   core.Vec3        // Unit geometric normal, not oriented to the ray
	UV       core.Vec2        // Interpolated texture coordinates
}

// primitive is a world-space triangle or sphere
type primitive struct {
	instance   scene.InstanceID
	element    int
	p0, p1, p2 core.Vec3
	t0, t1, t2 core.Vec2
	radius     float64 // > 0 for points rendered as spheres
	bounds     core.AABB
}

// Node represents a node in the Bounding Volume Hierarchy
type Node struct {
	Bounds core.AABB
	Left   *Node
	Right  *Node

	primitives []primitive // Leaf primitives (nil for internal nodes)
}

// IsLeaf reports whether the node stores primitives directly
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// BVH is a Bounding Volume Hierarchy over every instance of one scene
type BVH struct {
	Scene *scene.Scene // Scene the hierarchy was built from
	Root  *Node        // nil for scenes without geometry
}

// Build constructs a BVH over all instances of s.
// Lines are not intersectable and are skipped.
func Build(s *scene.Scene, params config.Params) (*BVH, error) {
	var prims []primitive
	for i := range s.Instances {
		id := scene.InstanceID(i)
		instance := &s.Instances[i]
		if instance.Shape == scene.NoShape {
			continue
		}
		shape := s.Shape(instance.Shape)
		if shape == nil {
			return nil, fmt.Errorf("%w: instance %q references shape %d", ErrInvalidShape, instance.Name, instance.Shape)
		}
		instancePrims, err := shapePrimitives(id, instance, shape)
		if err != nil {
			return nil, err
		}
		prims = append(prims, instancePrims...)
	}

	bvh := &BVH{Scene: s}
	if len(prims) == 0 {
		return bvh, nil
	}

	threshold := leafThreshold
	if params.HighQualityBVH {
		threshold = highQualityLeafThreshold
	}
	bvh.Root = buildNode(prims, threshold)
	return bvh, nil
}

// shapePrimitives transforms the elements of a shape to world space
func shapePrimitives(id scene.InstanceID, instance *scene.Instance, shape *scene.Shape) ([]primitive, error) {
	var prims []primitive
	frame := instance.Frame
	positions := shape.Positions
	hasTexcoords := len(shape.Texcoords) == len(positions)

	vertex := func(index int) (core.Vec3, error) {
		if index < 0 || index >= len(positions) {
			return core.Vec3{}, fmt.Errorf("shape %q: vertex index %d out of range", shape.Name, index)
		}
		return frame.TransformPoint(positions[index]), nil
	}
	texcoord := func(index int, fallback core.Vec2) core.Vec2 {
		if hasTexcoords {
			return shape.Texcoords[index]
		}
		return fallback
	}
	triangle := func(element, a, b, c int) error {
		p0, err := vertex(a)
		if err != nil {
			return err
		}
		p1, err := vertex(b)
		if err != nil {
			return err
		}
		p2, err := vertex(c)
		if err != nil {
			return err
		}
		prims = append(prims, primitive{
			instance: id,
			element:  element,
			p0:       p0,
			p1:       p1,
			p2:       p2,
			t0:       texcoord(a, core.NewVec2(0, 0)),
			t1:       texcoord(b, core.NewVec2(1, 0)),
			t2:       texcoord(c, core.NewVec2(0, 1)),
			bounds:   core.NewAABBFromPoints(p0, p1, p2),
		})
		return nil
	}

	for e, t := range shape.Triangles {
		if err := triangle(e, t[0], t[1], t[2]); err != nil {
			return nil, err
		}
	}
	for e, q := range shape.Quads {
		if err := triangle(e, q[0], q[1], q[3]); err != nil {
			return nil, err
		}
		// Quads with a repeated last vertex are triangles
		if q[2] != q[3] {
			if err := triangle(e, q[2], q[3], q[1]); err != nil {
				return nil, err
			}
		}
	}

	scale := frame.X.Length()
	for e, p := range shape.Points {
		center, err := vertex(p)
		if err != nil {
			return nil, err
		}
		radius := defaultPointRadius
		if p < len(shape.Radius) && shape.Radius[p] > 0 {
			radius = shape.Radius[p]
		}
		radius *= scale
		r := core.NewVec3(radius, radius, radius)
		prims = append(prims, primitive{
			instance: id,
			element:  e,
			p0:       center,
			radius:   radius,
			bounds:   core.NewAABB(center.Subtract(r), center.Add(r)),
		})
	}
	return prims, nil
}

// buildNode recursively builds the hierarchy with a median split along the
// longest axis of the primitive centers
func buildNode(prims []primitive, threshold int) *Node {
	bounds := prims[0].bounds
	centers := core.NewAABBFromPoints(prims[0].bounds.Center())
	for i := 1; i < len(prims); i++ {
		bounds = bounds.Union(prims[i].bounds)
		c := prims[i].bounds.Center()
		centers = centers.Union(core.NewAABB(c, c))
	}

	if len(prims) <= threshold {
		return &Node{Bounds: bounds, primitives: prims}
	}

	axis := centers.LongestAxis()
	sort.Slice(prims, func(i, j int) bool {
		return core.Axis(prims[i].bounds.Center(), axis) < core.Axis(prims[j].bounds.Center(), axis)
	})

	mid := len(prims) / 2
	return &Node{
		Bounds: bounds,
		Left:   buildNode(prims[:mid], threshold),
		Right:  buildNode(prims[mid:], threshold),
	}
}

// Intersect returns the closest hit along ray within [tMin, tMax]
func (b *BVH) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if b.Root == nil {
		return Hit{}, false
	}
	var hit Hit
	found := false
	b.intersectNode(b.Root, ray, tMin, &tMax, &hit, &found)
	return hit, found
}

// intersectNode walks the tree, shrinking tMax as closer hits are found
func (b *BVH) intersectNode(node *Node, ray core.Ray, tMin float64, tMax *float64, hit *Hit, found *bool) {
	if !node.Bounds.Hit(ray, tMin, *tMax) {
		return
	}

	if node.IsLeaf() {
		for i := range node.primitives {
			if h, ok := node.primitives[i].intersect(ray, tMin, *tMax); ok {
				*hit = h
				*tMax = h.T
				*found = true
			}
		}
		return
	}

	b.intersectNode(node.Left, ray, tMin, tMax, hit, found)
	b.intersectNode(node.Right, ray, tMin, tMax, hit, found)
}

// intersect tests one primitive
func (p *primitive) intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if p.radius > 0 {
		return p.intersectSphere(ray, tMin, tMax)
	}

	// Möller-Trumbore
	edge1 := p.p1.Subtract(p.p0)
	edge2 := p.p2.Subtract(p.p0)
	pv := ray.Direction.Cross(edge2)
	det := edge1.Dot(pv)
	if math.Abs(det) < 1e-12 {
		return Hit{}, false
	}
	inv := 1 / det
	tv := ray.Origin.Subtract(p.p0)
	u := tv.Dot(pv) * inv
	if u < 0 || u > 1 {
		return Hit{}, false
	}
	qv := tv.Cross(edge1)
	v := ray.Direction.Dot(qv) * inv
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}
	t := edge2.Dot(qv) * inv
	if t < tMin || t > tMax {
		return Hit{}, false
	}

	w := 1 - u - v
	return Hit{
		Instance: p.instance,
		Element:  p.element,
		T:        t,
		Position: ray.At(t),
		Normal:   edge1.Cross(edge2).Normalize(),
		UV: core.NewVec2(
			p.t0.X*w+p.t1.X*u+p.t2.X*v,
			p.t0.Y*w+p.t1.Y*u+p.t2.Y*v,
		),
	}, true
}

func (p *primitive) intersectSphere(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	oc := ray.Origin.Subtract(p.p0)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - p.radius*p.radius
	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return Hit{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return Hit{}, false
		}
	}

	position := ray.At(root)
	normal := position.Subtract(p.p0).Multiply(1 / p.radius)
	return Hit{
		Instance: p.instance,
		Element:  p.element,
		T:        root,
		Position: position,
		Normal:   normal,
		UV: core.NewVec2(
			math.Atan2(-normal.Z, normal.X)/(2*math.Pi)+0.5,
			math.Acos(max(-1, min(1, normal.Y)))/math.Pi,
		),
	}, true
}

// Stats describes the shape of a hierarchy
type Stats struct {
	Nodes      int
	Leaves     int
	Primitives int
	MaxDepth   int
}

// Stats walks the hierarchy and counts nodes, leaves and primitives
func (b *BVH) Stats() Stats {
	var stats Stats
	var walk func(node *Node, depth int)
	walk = func(node *Node, depth int) {
		if node == nil {
			return
		}
		stats.Nodes++
		stats.MaxDepth = max(stats.MaxDepth, depth)
		if node.IsLeaf() {
			stats.Leaves++
			stats.Primitives += len(node.primitives)
			return
		}
		walk(node.Left, depth+1)
		walk(node.Right, depth+1)
	}
	walk(b.Root, 0)
	return stats
}

// Instances returns the set of instances referenced by the hierarchy's leaves
func (b *BVH) Instances() map[scene.InstanceID]bool {
	instances := map[scene.InstanceID]bool{}
	var walk func(node *Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		for i := range node.primitives {
			instances[node.primitives[i].instance] = true
		}
		walk(node.Left)
		walk(node.Right)
	}
	walk(b.Root)
	return instances
}
