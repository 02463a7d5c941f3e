// pkg/entity/marble.go
package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/physics"
)

// Marble is a simulated body together with what it looks like.
// The world owns every marble exclusively; renderers only read it.
type Marble struct {
	*physics.Body
	ID      ID
	Label   string
	mesh    MeshHandle
	surface Surface
}

// NewMarble wraps a body with a mesh and surface
func NewMarble(id ID, label string, body *physics.Body, mesh MeshHandle, surface Surface) *Marble {
	return &Marble{
		Body:    body,
		ID:      id,
		Label:   label,
		mesh:    mesh,
		surface: surface,
	}
}

// GetID returns the marble's identifier
func (m *Marble) GetID() ID {
	return m.ID
}

// Pose returns the interpolated transform to draw this frame
func (m *Marble) Pose() mgl64.Mat4 {
	return m.DrawnLocation()
}

// Surface returns the marble's material
func (m *Marble) Surface() Surface {
	return m.surface
}

// SetSurface swaps the material, e.g. on a recolor request
func (m *Marble) SetSurface(s Surface) {
	m.surface = s
}

// Mesh returns the shape the marble wears
func (m *Marble) Mesh() MeshHandle {
	return m.mesh
}

// Render implements Drawable
func (m *Marble) Render(r Renderer) {
	r.RenderMarble(m)
}
