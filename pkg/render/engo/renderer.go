// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

const (
	platformZ = 0
	marbleZ   = 1
)

// spriteSystem is the part of common.RenderSystem the renderer needs.
type spriteSystem interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// sprite is one engo entity standing in for a marble or platform.
type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// EngoRenderer implements entity.Renderer by keeping one engo entity per
// drawable and updating its components every frame.
type EngoRenderer struct {
	system   spriteSystem
	camera   *Camera
	viewport func() (float32, float32)

	sprites map[entity.ID]*sprite
	seen    map[entity.ID]bool
}

// NewEngoRenderer creates a renderer that feeds the given render system.
func NewEngoRenderer(system spriteSystem, camera *Camera) *EngoRenderer {
	return &EngoRenderer{
		system:   system,
		camera:   camera,
		viewport: func() (float32, float32) { return engo.GameWidth(), engo.GameHeight() },
		sprites:  make(map[entity.ID]*sprite),
		seen:     make(map[entity.ID]bool),
	}
}

// Clear implements entity.Renderer
func (r *EngoRenderer) Clear() {
	clear(r.seen)
}

// Present implements entity.Renderer. Entities not drawn since Clear are
// removed from the render system.
func (r *EngoRenderer) Present() {
	for id, s := range r.sprites {
		if !r.seen[id] {
			r.system.Remove(s.BasicEntity)
			delete(r.sprites, id)
		}
	}
}

// RenderMarble implements entity.Renderer
func (r *EngoRenderer) RenderMarble(marble *entity.Marble) {
	s := r.getOrCreate(marble.GetID(), marbleDrawable(marble.Mesh()), marbleZ)
	w, h := r.viewport()

	diameter := float32(2 * marble.Size[0] * r.camera.Zoom())
	center := r.camera.WorldToScreen(physics.TranslationOf(marble.Pose()), w, h)
	s.SpaceComponent.Position = engo.Point{X: center.X - diameter/2, Y: center.Y - diameter/2}
	s.SpaceComponent.Width = diameter
	s.SpaceComponent.Height = diameter
	s.RenderComponent.Color = toColor(marble.Surface().Color)
}

// RenderPlatform implements entity.Renderer. The platform is drawn as a
// rectangle hanging below its top face, rotated to the face's slope.
func (r *EngoRenderer) RenderPlatform(platform *entity.Platform) {
	s := r.getOrCreate(platform.GetID(), platformDrawable(platform), platformZ)
	w, h := r.viewport()

	corners := platform.Corners()
	left := corners[physics.CornerBackLeft].Vec3().Add(corners[physics.CornerFrontLeft].Vec3()).Mul(0.5)
	right := corners[physics.CornerBackRight].Vec3().Add(corners[physics.CornerFrontRight].Vec3()).Mul(0.5)
	p0 := r.camera.WorldToScreen(left, w, h)
	p1 := r.camera.WorldToScreen(right, w, h)

	dx, dy := float64(p1.X-p0.X), float64(p1.Y-p0.Y)
	s.SpaceComponent.Position = p0
	s.SpaceComponent.Width = float32(math.Hypot(dx, dy))
	s.SpaceComponent.Height = float32(2 * platform.Normal().Len() * r.camera.Zoom())
	s.SpaceComponent.Rotation = float32(mgl64.RadToDeg(math.Atan2(dy, dx)))
	s.RenderComponent.Color = toColor(platform.Surface().Color)
}

func (r *EngoRenderer) getOrCreate(id entity.ID, drawable common.Drawable, z float32) *sprite {
	r.seen[id] = true
	if s, ok := r.sprites[id]; ok {
		return s
	}

	s := &sprite{BasicEntity: ecs.NewBasic()}
	s.RenderComponent = common.RenderComponent{
		Drawable: drawable,
		Color:    color.White,
		Scale:    engo.Point{X: 1, Y: 1},
	}
	s.RenderComponent.SetZIndex(z)
	r.sprites[id] = s
	r.system.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	return s
}

// Sprites returns how many engo entities the renderer currently owns
func (r *EngoRenderer) Sprites() int {
	return len(r.sprites)
}

func marbleDrawable(mesh entity.MeshHandle) common.Drawable {
	if mesh == entity.MeshCube {
		return common.Rectangle{}
	}
	return common.Circle{}
}

// Glass platforms get a border in the overlay colour.
func platformDrawable(platform *entity.Platform) common.Drawable {
	if platform.Overlay == nil {
		return common.Rectangle{}
	}
	return common.Rectangle{BorderWidth: 2, BorderColor: toColor(platform.Overlay.Color)}
}

func toColor(c colorful.Color) color.Color {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
