// pkg/entity/platform.go
package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/physics"
)

// Platform adapts a physics boundary for drawing. The boundary itself only knows
// its corners and normal; the mesh and surfaces live here.
type Platform struct {
	*physics.Boundary
	ID      ID
	Name    string
	surface Surface
	// Overlay is drawn over the base surface when set (the glass panes on the course).
	Overlay *Surface
}

// NewPlatform wraps a boundary with its surface
func NewPlatform(id ID, name string, boundary *physics.Boundary, surface Surface) *Platform {
	return &Platform{
		Boundary: boundary,
		ID:       id,
		Name:     name,
		surface:  surface,
	}
}

// GetID returns the platform's identifier
func (p *Platform) GetID() ID {
	return p.ID
}

// Pose returns the boundary transform applied to the unit cube mesh
func (p *Platform) Pose() mgl64.Mat4 {
	return p.Boundary.Pose()
}

// Surface returns the base material
func (p *Platform) Surface() Surface {
	return p.surface
}

// Mesh implements Drawable; platforms are always cubes
func (p *Platform) Mesh() MeshHandle {
	return MeshCube
}

// Render implements Drawable
func (p *Platform) Render(r Renderer) {
	r.RenderPlatform(p)
}
