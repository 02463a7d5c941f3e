// pkg/physics/boundary.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Corner indices into Boundary.Corners, in canonical order.
const (
	CornerBackLeft = iota
	CornerFrontLeft
	CornerBackRight
	CornerFrontRight
)

const (
	// DefaultPlaneTolerance is the half-width of the band around the plane, measured
	// in pseudo-distance units of the unnormalized normal.
	DefaultPlaneTolerance = 0.75
	// DefaultContainmentEpsilon is the relative slack allowed when comparing triangle areas.
	DefaultContainmentEpsilon = 1e-9
)

// topFace is the top face of the unit cube in canonical corner order.
var topFace = [4]mgl64.Vec4{
	{-1, 1, 1, 1},
	{-1, 1, -1, 1},
	{1, 1, 1, 1},
	{1, 1, -1, 1},
}

// Boundary is a static rectangular platform: the top face of a transformed unit cube.
//
// The normal is the pose applied to the up vector and is not renormalized, so
// PseudoDistance scales with the platform's scale. Tolerance is calibrated against that.
type Boundary struct {
	Tolerance float64
	Epsilon   float64

	pose    mgl64.Mat4
	normal  mgl64.Vec3
	corners [4]mgl64.Vec4
	offset  float64
}

// NewBoundary builds a platform whose pose is translation·rotation·scale.
func NewBoundary(translation, rotation, scale mgl64.Mat4) *Boundary {
	b := &Boundary{
		Tolerance: DefaultPlaneTolerance,
		Epsilon:   DefaultContainmentEpsilon,
	}
	b.setPose(translation, rotation, scale)
	for i, c := range topFace {
		b.corners[i] = b.pose.Mul4x1(c)
	}
	b.offset = b.normal.Dot(b.corners[CornerBackLeft].Vec3())
	return b
}

func (b *Boundary) setPose(translation, rotation, scale mgl64.Mat4) {
	b.pose = translation.Mul4(rotation).Mul4(scale)
	b.normal = b.pose.Mul4x1(Up.Vec4(0)).Vec3()
}

// Move replaces the pose and normal. The corners and plane offset keep their values
// from construction; rebuild with NewBoundary when the collision surface must follow.
func (b *Boundary) Move(translation, rotation, scale mgl64.Mat4) {
	b.setPose(translation, rotation, scale)
}

// Pose returns the composed transform applied to the unit cube.
func (b *Boundary) Pose() mgl64.Mat4 {
	return b.pose
}

// Normal returns the unnormalized plane normal.
func (b *Boundary) Normal() mgl64.Vec3 {
	return b.normal
}

// Corners returns the four top-face corners in world space.
func (b *Boundary) Corners() [4]mgl64.Vec4 {
	return b.corners
}

// Offset returns d in the plane equation normal·p = d.
func (b *Boundary) Offset() float64 {
	return b.offset
}

// PseudoDistance evaluates normal·p − d. It is not a metric distance unless the normal has unit length.
func (b *Boundary) PseudoDistance(p mgl64.Vec3) float64 {
	return b.normal.Dot(p) - b.offset
}

// OnPlane reports whether p lies inside the tolerance band around the plane.
func (b *Boundary) OnPlane(p mgl64.Vec3) bool {
	s := b.PseudoDistance(p)
	return s >= -b.Tolerance && s <= b.Tolerance
}

// Contains reports whether p, projected onto the X-Z plane, falls inside the quad.
// The quad is split along its diagonal into triangles (0,1,2) and (3,1,2).
func (b *Boundary) Contains(p mgl64.Vec3) bool {
	c := b.corners
	first := [3][2]float64{
		{c[0][0], c[0][2]},
		{c[1][0], c[1][2]},
		{c[2][0], c[2][2]},
	}
	second := [3][2]float64{
		{c[3][0], c[3][2]},
		{c[1][0], c[1][2]},
		{c[2][0], c[2][2]},
	}
	x, y := p[0], p[2]
	return insideTriangle(first, x, y, b.Epsilon) || insideTriangle(second, x, y, b.Epsilon)
}

// CheckCollision reports whether p is both on the plane band and over the quad.
func (b *Boundary) CheckCollision(p mgl64.Vec3) bool {
	return b.OnPlane(p) && b.Contains(p)
}

func triangleArea(x1, y1, x2, y2, x3, y3 float64) float64 {
	return math.Abs((x1*(y2-y3) + x2*(y3-y1) + x3*(y1-y2)) / 2.0)
}

// insideTriangle compares the triangle's area with the sum of the three sub-triangles
// the point forms with its edges. Degenerate triangles contain nothing.
func insideTriangle(tri [3][2]float64, x, y, epsilon float64) bool {
	x1, y1 := tri[0][0], tri[0][1]
	x2, y2 := tri[1][0], tri[1][1]
	x3, y3 := tri[2][0], tri[2][1]

	whole := triangleArea(x1, y1, x2, y2, x3, y3)
	if whole <= epsilon {
		return false
	}
	a1 := triangleArea(x, y, x2, y2, x3, y3)
	a2 := triangleArea(x1, y1, x, y, x3, y3)
	a3 := triangleArea(x1, y1, x2, y2, x, y)

	return math.Abs(whole-(a1+a2+a3)) <= epsilon*math.Max(1, whole)
}
