// pkg/physics/vector.go
package physics

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the canonical up direction of a platform before its pose is applied.
var Up = mgl64.Vec3{0, 1, 0}

// Sign returns -1, 0 or 1 according to the sign of x.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Lerp blends a toward b by alpha. alpha 0 yields a exactly and alpha 1 yields b exactly.
func Lerp(a, b mgl64.Vec3, alpha float64) mgl64.Vec3 {
	return a.Mul(1 - alpha).Add(b.Mul(alpha))
}

// LerpMat4 blends two matrices element by element. The result is not a rotation
// in general; it shears when the inputs differ by a large angle.
func LerpMat4(a, b mgl64.Mat4, alpha float64) mgl64.Mat4 {
	var out mgl64.Mat4
	for i := range out {
		out[i] = a[i]*(1-alpha) + b[i]*alpha
	}
	return out
}

// Randomized offsets every component of v by spread*(u-0.5), u uniform in [0,1).
func Randomized(v mgl64.Vec3, spread float64, rng *rand.Rand) mgl64.Vec3 {
	for i := range v {
		v[i] += spread * (rng.Float64() - 0.5)
	}
	return v
}

// SafeNormalize returns the unit vector along v, or false when v has no usable length.
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	length := v.Len()
	if length < 1e-12 || math.IsNaN(length) || math.IsInf(length, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / length), true
}

// TranslationOf returns the image of the origin under m.
func TranslationOf(m mgl64.Mat4) mgl64.Vec3 {
	return m.Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
}

// Rotation returns the homogeneous rotation of angle radians about axis.
// The axis is normalized first; a degenerate axis yields the identity.
func Rotation(angle float64, axis mgl64.Vec3) mgl64.Mat4 {
	unit, ok := SafeNormalize(axis)
	if !ok {
		return mgl64.Ident4()
	}
	return mgl64.HomogRotate3D(angle, unit)
}

// Compose builds translation·rotation·scale from the three pieces.
func Compose(translation mgl64.Vec3, rotation mgl64.Mat4, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rotation).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}
