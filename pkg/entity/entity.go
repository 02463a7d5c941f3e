// pkg/entity/entity.go
package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ID is a unique identifier for an entity within one world
type ID uint64

// Drawable is the narrow view a renderer gets of anything in the scene.
// Marble and Platform are the only implementations.
type Drawable interface {
	GetID() ID
	Pose() mgl64.Mat4
	Surface() Surface
	Mesh() MeshHandle
	Render(r Renderer)
}

// IDSource hands out increasing IDs. The zero value starts at 1.
type IDSource struct {
	last ID
}

// Next returns the next unused ID
func (s *IDSource) Next() ID {
	s.last++
	return s.last
}
