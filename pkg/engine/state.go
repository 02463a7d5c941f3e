// pkg/engine/state.go
package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// State is a snapshot of the world for renderers and traces. It shares no
// memory with the world.
type State struct {
	T         float64         `json:"t"`
	Alpha     float64         `json:"alpha"`
	Steps     uint64          `json:"steps"`
	TimeScale float64         `json:"timeScale"`
	Marbles   []MarbleState   `json:"marbles"`
	Platforms []PlatformState `json:"platforms,omitempty"`
}

// MarbleState is one marble as drawn this frame
type MarbleState struct {
	ID       entity.ID         `json:"id"`
	Label    string            `json:"label"`
	Drawn    mgl64.Vec3        `json:"drawn"`
	Center   mgl64.Vec3        `json:"center"`
	Velocity mgl64.Vec3        `json:"velocity"`
	Pose     mgl64.Mat4        `json:"-"`
	Mesh     entity.MeshHandle `json:"mesh"`
	Color    string            `json:"color"`
}

// PlatformState is one platform's top face
type PlatformState struct {
	ID      entity.ID     `json:"id"`
	Name    string        `json:"name"`
	Normal  mgl64.Vec3    `json:"normal"`
	Corners [4]mgl64.Vec3 `json:"corners"`
	Color   string        `json:"color"`
	Glass   bool          `json:"glass,omitempty"`
}

// Snapshot copies the current world state, including platforms.
func (w *World) Snapshot() State {
	s := w.MarbleSnapshot()
	s.Platforms = make([]PlatformState, len(w.platforms))
	for i, p := range w.platforms {
		var corners [4]mgl64.Vec3
		for j, c := range p.Corners() {
			corners[j] = c.Vec3()
		}
		s.Platforms[i] = PlatformState{
			ID:      p.ID,
			Name:    p.Name,
			Normal:  p.Normal(),
			Corners: corners,
			Color:   p.Surface().Hex(),
			Glass:   p.Overlay != nil,
		}
	}
	return s
}

// MarbleSnapshot copies the time and marble state only. Platforms never move,
// so per-frame consumers use this.
func (w *World) MarbleSnapshot() State {
	s := State{
		T:         w.stepper.T(),
		Alpha:     w.stepper.Alpha(),
		Steps:     w.stepper.StepsTaken(),
		TimeScale: w.stepper.TimeScale(),
		Marbles:   make([]MarbleState, len(w.marbles)),
	}
	for i, m := range w.marbles {
		pose := m.DrawnLocation()
		s.Marbles[i] = MarbleState{
			ID:       m.ID,
			Label:    m.Label,
			Drawn:    physics.TranslationOf(pose),
			Center:   m.Center(),
			Velocity: m.LinearVelocity,
			Pose:     pose,
			Mesh:     m.Mesh(),
			Color:    m.Surface().Hex(),
		}
	}
	return s
}
