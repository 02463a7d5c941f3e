// pkg/entity/shape.go
package entity

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// MeshHandle names a mesh owned by the rendering side. Physics never looks inside it.
type MeshHandle string

// Mesh handles for the built-in primitives.
const (
	MeshSphere MeshHandle = "sphere"
	MeshCube   MeshHandle = "cube"
)

// ShapeProvider returns some valid mesh handle for a newly spawned marble.
type ShapeProvider interface {
	Shape(rng *rand.Rand) MeshHandle
}

// SelectionPolicy controls how a ShapePool picks its next shape.
type SelectionPolicy string

const (
	PolicyRandom     SelectionPolicy = "random"
	PolicyRoundRobin SelectionPolicy = "round_robin"
)

// ErrEmptyShapePool is returned when a shape pool is built with no shapes.
var ErrEmptyShapePool = errors.New("shape pool is empty")

// ShapePool is a ShapeProvider over a fixed, non-empty set of handles.
type ShapePool struct {
	shapes []MeshHandle
	policy SelectionPolicy
	next   int
}

// NewShapePool creates a pool. An empty policy means random selection.
func NewShapePool(shapes []MeshHandle, policy SelectionPolicy) (*ShapePool, error) {
	if len(shapes) == 0 {
		return nil, ErrEmptyShapePool
	}
	switch policy {
	case "":
		policy = PolicyRandom
	case PolicyRandom, PolicyRoundRobin:
	default:
		return nil, fmt.Errorf("unknown shape selection policy %q", policy)
	}
	pool := &ShapePool{shapes: make([]MeshHandle, len(shapes)), policy: policy}
	copy(pool.shapes, shapes)
	return pool, nil
}

// Shape implements ShapeProvider. Round robin ignores rng.
func (p *ShapePool) Shape(rng *rand.Rand) MeshHandle {
	if p.policy == PolicyRoundRobin {
		s := p.shapes[p.next]
		p.next = (p.next + 1) % len(p.shapes)
		return s
	}
	return p.shapes[rng.IntN(len(p.shapes))]
}

// Len returns the number of shapes in the pool
func (p *ShapePool) Len() int {
	return len(p.shapes)
}
