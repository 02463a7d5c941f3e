// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera maps the course's x-y plane onto window pixels and can follow a
// marble around the course.
type Camera struct {
	// Target to follow
	target    mgl64.Vec2
	targetSet bool

	// Pixels per world unit
	zoom    float64
	minZoom float64
	maxZoom float64

	// Smooth following
	followSpeed float64
	smoothing   bool

	// World position in the middle of the window
	center     mgl64.Vec2
	homeCenter mgl64.Vec2
	homeZoom   float64
}

// NewCamera creates a camera looking at center with the given zoom.
func NewCamera(center mgl64.Vec2, zoom float64) *Camera {
	if zoom <= 0 {
		zoom = 1
	}
	return &Camera{
		zoom:        zoom,
		minZoom:     zoom / 10,
		maxZoom:     zoom * 10,
		followSpeed: 2.0,
		smoothing:   true,
		center:      center,
		homeCenter:  center,
		homeZoom:    zoom,
	}
}

// Remove satisfies the ecs.System interface
func (c *Camera) Remove(basic ecs.BasicEntity) {}

// Priority orders the system within the ecs world
func (c *Camera) Priority() int { return cameraPriority }

// Update moves the camera toward its target
func (c *Camera) Update(dt float32) {
	if !c.targetSet {
		return
	}
	if !c.smoothing {
		c.center = c.target
		return
	}
	k := min(c.followSpeed*float64(dt), 1)
	c.center = c.center.Add(c.target.Sub(c.center).Mul(k))
}

// SetTarget sets the world position to follow
func (c *Camera) SetTarget(target mgl64.Vec2) {
	c.target = target
	c.targetSet = true
}

// ClearTarget stops following and returns to the home view
func (c *Camera) ClearTarget() {
	c.targetSet = false
	c.center = c.homeCenter
}

// Following reports whether a target is set
func (c *Camera) Following() bool {
	return c.targetSet
}

// SetZoom sets pixels per world unit, clamped to the zoom limits
func (c *Camera) SetZoom(zoom float64) {
	c.zoom = c.clampZoom(zoom)
}

// Zoom returns pixels per world unit
func (c *Camera) Zoom() float64 {
	return c.zoom
}

// ResetZoom restores the zoom the camera was created with
func (c *Camera) ResetZoom() {
	c.zoom = c.homeZoom
}

func (c *Camera) clampZoom(zoom float64) float64 {
	if zoom < c.minZoom {
		return c.minZoom
	}
	if zoom > c.maxZoom {
		return c.maxZoom
	}
	return zoom
}

// EnableSmoothing enables or disables smooth following
func (c *Camera) EnableSmoothing(enabled bool) {
	c.smoothing = enabled
}

// Center returns the world position in the middle of the window
func (c *Camera) Center() mgl64.Vec2 {
	return c.center
}

// WorldToScreen converts a world position to window pixels for a window of
// the given size. Screen y grows downward; world z is ignored.
func (c *Camera) WorldToScreen(p mgl64.Vec3, width, height float32) engo.Point {
	x := (p[0]-c.center[0])*c.zoom + float64(width)/2
	y := float64(height)/2 - (p[1]-c.center[1])*c.zoom
	return engo.Point{X: float32(x), Y: float32(y)}
}

// ScreenToWorld is the inverse of WorldToScreen on the z=0 plane
func (c *Camera) ScreenToWorld(p engo.Point, width, height float32) mgl64.Vec3 {
	x := (float64(p.X)-float64(width)/2)/c.zoom + c.center[0]
	y := (float64(height)/2-float64(p.Y))/c.zoom + c.center[1]
	return mgl64.Vec3{x, y, 0}
}
