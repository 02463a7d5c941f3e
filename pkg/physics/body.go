// pkg/physics/body.go
package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrZeroSpinAxis is returned when a body is emplaced with a spin axis that cannot be normalized.
var ErrZeroSpinAxis = errors.New("spin axis has zero length")

// Pose is one physical state slot of a body. Rotation never carries a translation.
type Pose struct {
	Center   mgl64.Vec3
	Rotation mgl64.Mat4
}

// Body is a moving point mass integrated with forward Euler at a fixed tick.
// Previous always holds the state from exactly one tick before Current.
type Body struct {
	Current  Pose
	Previous Pose

	LinearVelocity  mgl64.Vec3
	AngularVelocity float64
	Size            mgl64.Vec3

	spinAxis mgl64.Vec3
	drawn    mgl64.Mat4
}

// NewBody returns an empty body of the given draw size. Call Emplace before simulating it.
func NewBody(size mgl64.Vec3) *Body {
	return &Body{
		Current:  Pose{Rotation: mgl64.Ident4()},
		Previous: Pose{Rotation: mgl64.Ident4()},
		Size:     size,
		spinAxis: Up,
		drawn:    mgl64.Ident4(),
	}
}

// Emplace assigns the body's initial state, or overwrites it. The center is taken from
// the location's translation and the rotation is the location with that translation removed.
func (b *Body) Emplace(location mgl64.Mat4, linear mgl64.Vec3, angular float64, spinAxis mgl64.Vec3) error {
	axis, ok := SafeNormalize(spinAxis)
	if !ok {
		return ErrZeroSpinAxis
	}

	center := TranslationOf(location)
	b.Current = Pose{
		Center:   center,
		Rotation: mgl64.Translate3D(-center[0], -center[1], -center[2]).Mul4(location),
	}
	b.Previous = b.Current
	b.drawn = location
	b.LinearVelocity = linear
	b.AngularVelocity = angular
	b.spinAxis = axis
	return nil
}

// Advance integrates one step of dt seconds: linear velocity first, then angular.
func (b *Body) Advance(dt float64) {
	b.Previous = b.Current
	b.Current.Center = b.Current.Center.Add(b.LinearVelocity.Mul(dt))
	b.Current.Rotation = mgl64.HomogRotate3D(dt*b.AngularVelocity, b.spinAxis).Mul4(b.Current.Rotation)
}

// BlendRotation linearly mixes the previous and current rotation matrices.
func (b *Body) BlendRotation(alpha float64) mgl64.Mat4 {
	return LerpMat4(b.Previous.Rotation, b.Current.Rotation, alpha)
}

// Blend computes the transform to draw this frame from the two latest physical states.
func (b *Body) Blend(alpha float64) {
	center := Lerp(b.Previous.Center, b.Current.Center, alpha)
	b.drawn = mgl64.Translate3D(center[0], center[1], center[2]).
		Mul4(b.BlendRotation(alpha)).
		Mul4(mgl64.Scale3D(b.Size[0], b.Size[1], b.Size[2]))
}

// DrawnLocation is the interpolated transform produced by the last Blend.
func (b *Body) DrawnLocation() mgl64.Mat4 {
	return b.drawn
}

// Center returns the current world position.
func (b *Body) Center() mgl64.Vec3 {
	return b.Current.Center
}

// SetCenter moves the body without touching its previous state.
func (b *Body) SetCenter(c mgl64.Vec3) {
	b.Current.Center = c
}

// SpinAxis returns the unit axis of angular velocity.
func (b *Body) SpinAxis() mgl64.Vec3 {
	return b.spinAxis
}

// Speed is the magnitude of the linear velocity.
func (b *Body) Speed() float64 {
	return b.LinearVelocity.Len()
}
