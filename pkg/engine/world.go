// pkg/engine/world.go
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/event"
	"github.com/opd-ai/go-marbles/pkg/logging"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

const (
	platformAmbient = 0.4
	marbleAmbient   = 0.3
	glassAmbient    = 0.8
	glassTexture    = "glass.png"
)

var glassColor = colorful.Color{R: 0.85, G: 0.92, B: 1}

// World is the marble run: a fixed course of platforms and a population of
// marbles that fall through it. It implements Simulation and owns every body;
// nothing else mutates marble state.
//
// A World is not safe for concurrent use. Drive it from one goroutine.
type World struct {
	Config   *config.SimConfig
	EventBus *event.Bus

	stepper *Stepper
	rng     *rand.Rand
	shapes  entity.ShapeProvider
	logger  *logging.Logger
	ctx     context.Context
	ids     entity.IDSource

	marbles   []*entity.Marble
	platforms []*entity.Platform
	bodies    []*physics.Body
}

// Option customises a World at construction.
type Option func(*World)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(w *World) { w.logger = l }
}

// WithEventBus publishes world events on bus instead of a private one.
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.EventBus = bus }
}

// WithShapeProvider replaces the pool built from the shapes config.
func WithShapeProvider(p entity.ShapeProvider) Option {
	return func(w *World) { w.shapes = p }
}

// WithRand replaces the generator seeded from spawn.seed.
func WithRand(rng *rand.Rand) Option {
	return func(w *World) { w.rng = rng }
}

// WithContext sets the context used for logging, normally one carrying a run ID.
func WithContext(ctx context.Context) Option {
	return func(w *World) { w.ctx = ctx }
}

// NewRand returns the generator a world uses for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewWorld validates cfg and builds the course. Marbles appear on the first tick.
func NewWorld(cfg *config.SimConfig, opts ...Option) (*World, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	stepper, err := NewStepper(cfg.Timing)
	if err != nil {
		return nil, err
	}

	w := &World{
		Config:  cfg,
		stepper: stepper,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.EventBus == nil {
		w.EventBus = event.NewEventBus()
	}
	if w.logger == nil {
		w.logger = logging.Discard()
	}
	if w.rng == nil {
		w.rng = NewRand(cfg.Spawn.Seed)
	}
	if w.shapes == nil {
		w.shapes, err = shapePoolFromConfig(cfg.Shapes)
		if err != nil {
			return nil, err
		}
	}

	if err := w.initPlatforms(); err != nil {
		return nil, err
	}

	w.logger.Info(w.ctx, "world created",
		"platforms", len(w.platforms),
		"population", cfg.Spawn.Population,
		"fixed_tick", stepper.FixedTick(),
		"time_scale", stepper.TimeScale(),
		"seed", cfg.Spawn.Seed,
	)
	return w, nil
}

func shapePoolFromConfig(cfg config.ShapeConfig) (*entity.ShapePool, error) {
	handles := make([]entity.MeshHandle, len(cfg.Pool))
	for i, name := range cfg.Pool {
		handles[i] = entity.MeshHandle(name)
	}
	pool, err := entity.NewShapePool(handles, entity.SelectionPolicy(cfg.Policy))
	if err != nil {
		return nil, fmt.Errorf("failed to build shape pool: %w", err)
	}
	return pool, nil
}

// initPlatforms builds one boundary per configured platform, in order.
// This is the only place boundaries enter the world.
func (w *World) initPlatforms() error {
	for i, pc := range w.Config.Platforms {
		name := pc.Name
		if name == "" {
			name = fmt.Sprintf("platform-%d", i)
		}

		boundary := physics.NewBoundary(
			mgl64.Translate3D(pc.Translation[0], pc.Translation[1], pc.Translation[2]),
			physics.Rotation(pc.RotationAngle, mgl64.Vec3(pc.RotationAxis)),
			mgl64.Scale3D(pc.Scale[0], pc.Scale[1], pc.Scale[2]),
		)
		boundary.Tolerance = w.Config.Physics.PlaneTolerance
		boundary.Epsilon = w.Config.Physics.ContainmentEpsilon

		surface, err := entity.ParseSurface(name, pc.Color, pc.Texture, platformAmbient)
		if err != nil {
			return fmt.Errorf("platform %d: %w", i, err)
		}

		platform := entity.NewPlatform(w.ids.Next(), name, boundary, surface)
		if pc.Glass {
			platform.Overlay = &entity.Surface{
				Name:    name + "-glass",
				Texture: glassTexture,
				Color:   glassColor,
				Ambient: glassAmbient,
			}
		}
		w.platforms = append(w.platforms, platform)
	}
	return nil
}

// Step advances the world by one wall-clock delta and returns the blend factor.
func (w *World) Step(wallDelta float64) float64 {
	return w.stepper.Step(w, wallDelta)
}

// Update runs the marble rules for one fixed tick of dt seconds. Bodies are
// integrated by the Stepper after this returns.
func (w *World) Update(dt float64) {
	w.topUp()
	w.resolvePlatformCollisions()

	p := w.Config.Physics
	for _, m := range w.marbles {
		m.LinearVelocity[1] += dt * p.Gravity
		w.applyVolumeRules(m)
		w.recycleIfLost(m)
	}
}

// topUp spawns marbles until the population is reached.
func (w *World) topUp() {
	for len(w.marbles) < w.Config.Spawn.Population {
		w.spawn()
	}
}

func (w *World) spawn() {
	sc := w.Config.Spawn
	slot := len(w.marbles)

	center := physics.Randomized(mgl64.Vec3(sc.Point), sc.PositionJitter, w.rng)
	// Jitter stays horizontal.
	dir := mgl64.Vec3(sc.Direction)
	dir[0] += sc.VelocityJitter * (w.rng.Float64() - 0.5)
	dir[2] += sc.VelocityJitter * (w.rng.Float64() - 0.5)
	unit, ok := physics.SafeNormalize(dir)
	if !ok {
		unit = mgl64.Vec3{-1, 0, 0}
	}
	angular := w.rng.Float64() * sc.MaxAngularVelocity
	axis := w.randomSpinAxis()

	body := physics.NewBody(mgl64.Vec3(sc.Size))
	// The axis is non-zero by construction, so Emplace cannot fail here.
	_ = body.Emplace(mgl64.Translate3D(center[0], center[1], center[2]), unit.Mul(sc.Speed), angular, axis)

	surface := entity.Surface{
		Name:    fmt.Sprintf("marble-%d", slot+1),
		Texture: sc.Texture,
		Color:   entity.RandomColor(w.rng),
		Ambient: marbleAmbient,
	}
	marble := entity.NewMarble(w.ids.Next(), fmt.Sprintf("p%d", slot+1), body, w.shapes.Shape(w.rng), surface)

	w.marbles = append(w.marbles, marble)
	w.bodies = append(w.bodies, body)

	w.logger.Debug(w.ctx, "marble spawned", "marble", marble.Label, "center", center, "shape", string(marble.Mesh()))
	w.EventBus.Publish(event.NewMarbleEvent(event.MarbleSpawned, w, uint64(marble.ID), center, body.LinearVelocity))
}

// randomSpinAxis draws each component in [-0.5, 0.5) and falls back to up
// when the draw is too short to normalise.
func (w *World) randomSpinAxis() mgl64.Vec3 {
	axis, ok := physics.SafeNormalize(physics.Randomized(mgl64.Vec3{}, 1, w.rng))
	if !ok {
		return physics.Up
	}
	return axis
}

// resolvePlatformCollisions checks every marble against every platform, in
// order, and applies the response for each hit.
func (w *World) resolvePlatformCollisions() {
	restitution := w.Config.Physics.PlatformRestitution
	for _, m := range w.marbles {
		for _, p := range w.platforms {
			if !p.CheckCollision(m.Center()) {
				continue
			}
			n := p.Normal()
			m.LinearVelocity = ApplyPlatformResponse(m.LinearVelocity, n, restitution)
			w.EventBus.Publish(event.NewCollisionEvent(w, uint64(m.ID), uint64(p.ID), n))
		}
	}
}

// ApplyPlatformResponse returns the velocity after touching a platform with
// the given (unnormalised) normal. On a slope the downhill component is kept
// and uphill motion is stopped; on a level platform only the vertical speed
// bounces. Slope normals of a platform with y scale 0.5 have length 0.5, which
// the factors of 2 undo.
func ApplyPlatformResponse(v, normal mgl64.Vec3, restitution float64) mgl64.Vec3 {
	switch {
	case normal[0] < 0:
		if v[0] > 0 {
			v[0] = 0
		}
		v = slopeResponse(v, normal, restitution)
	case normal[0] > 0:
		if v[0] < 0 {
			v[0] = 0
		}
		v = slopeResponse(v, normal, restitution)
	case v[1] < 0:
		v[1] *= -restitution
	}
	return v
}

func slopeResponse(v, normal mgl64.Vec3, restitution float64) mgl64.Vec3 {
	if v[1] < 0 {
		v[1] *= normal[1] * 2 * -restitution
	}
	v[0] += v[1] * normal[0] * 2
	return v
}

// applyVolumeRules bounces a marble off the floor and the side walls of the play volume.
func (w *World) applyVolumeRules(m *entity.Marble) {
	p := w.Config.Physics
	c := m.Center()

	if c[1] < p.FloorHeight && m.LinearVelocity[1] < 0 {
		m.LinearVelocity[1] *= -p.FloorRestitution
		w.EventBus.Publish(event.NewMarbleEvent(event.FloorBounce, w, uint64(m.ID), c, m.LinearVelocity))
	}
	if math.Abs(c[0]) > p.HalfWidth {
		m.LinearVelocity[0] *= -p.WallRestitution
		w.EventBus.Publish(event.NewMarbleEvent(event.WallBounce, w, uint64(m.ID), c, m.LinearVelocity))
	}
	if math.Abs(c[2]) > p.HalfDepth {
		m.LinearVelocity[2] *= -p.WallRestitution
		w.EventBus.Publish(event.NewMarbleEvent(event.WallBounce, w, uint64(m.ID), c, m.LinearVelocity))
	}
}

// recycleIfLost returns a marble that left the course or came to rest to the
// spawn point with a fresh horizontal velocity.
func (w *World) recycleIfLost(m *entity.Marble) {
	p := w.Config.Physics
	if m.Center().Len() <= p.RecycleDistance && m.Speed() >= p.RecycleSpeed {
		return
	}

	lost := m.Center()
	m.SetCenter(mgl64.Vec3(w.Config.Spawn.Point))
	m.LinearVelocity = w.recycleVelocity()

	w.logger.Debug(w.ctx, "marble recycled", "marble", m.Label, "from", lost)
	w.EventBus.Publish(event.NewMarbleEvent(event.MarbleRecycled, w, uint64(m.ID), m.Center(), m.LinearVelocity))
}

// recycleVelocity draws x in [-0.5, 0.5) and z in [-1, 1), redrawing the
// (practically impossible) zero vector.
func (w *World) recycleVelocity() mgl64.Vec3 {
	for {
		v := mgl64.Vec3{w.rng.Float64() - 0.5, 0, w.rng.Float64()*2 - 1}
		if v[0] != 0 || v[2] != 0 {
			return v
		}
	}
}

// SpeedUp multiplies the time scale by the configured factor.
func (w *World) SpeedUp() {
	w.setTimeScale(w.stepper.TimeScale() * w.Config.Timing.TimeScaleFactor)
}

// SlowDown divides the time scale by the configured factor.
func (w *World) SlowDown() {
	w.setTimeScale(w.stepper.TimeScale() / w.Config.Timing.TimeScaleFactor)
}

// ReverseTime negates the time scale. The clock then counts down, but bodies
// still advance by the positive tick; this is a debugging aid, not a rewind.
func (w *World) ReverseTime() {
	w.setTimeScale(-w.stepper.TimeScale())
}

func (w *World) setTimeScale(scale float64) {
	old := w.stepper.TimeScale()
	w.stepper.SetTimeScale(scale)
	w.logger.Info(w.ctx, "time scale changed", "from", old, "to", scale)
	w.EventBus.Publish(event.NewTimeScaleEvent(w, old, scale))
}

// Recolor gives the marble in slot i a new random colour.
func (w *World) Recolor(i int) error {
	if i < 0 || i >= len(w.marbles) {
		return fmt.Errorf("no marble in slot %d (have %d)", i, len(w.marbles))
	}
	m := w.marbles[i]
	s := m.Surface()
	s.Color = entity.RandomColor(w.rng)
	m.SetSurface(s)
	w.EventBus.Publish(event.NewMarbleEvent(event.MarbleRecolored, w, uint64(m.ID), m.Center(), m.LinearVelocity))
	return nil
}

// Stepper exposes the world's time stepper for read access.
func (w *World) Stepper() *Stepper {
	return w.stepper
}

// Marbles returns the marbles in spawn order.
func (w *World) Marbles() []*entity.Marble {
	return w.marbles
}

// Platforms returns the platforms in course order.
func (w *World) Platforms() []*entity.Platform {
	return w.platforms
}

// Bodies implements Simulation.
func (w *World) Bodies() []*physics.Body {
	return w.bodies
}

// Drawables lists platforms then marbles, the order they are drawn in.
func (w *World) Drawables() []entity.Drawable {
	out := make([]entity.Drawable, 0, len(w.platforms)+len(w.marbles))
	for _, p := range w.platforms {
		out = append(out, p)
	}
	for _, m := range w.marbles {
		out = append(out, m)
	}
	return out
}

// Render draws one frame: clear, platforms, marbles, present.
func (w *World) Render(r entity.Renderer) {
	r.Clear()
	for _, d := range w.Drawables() {
		d.Render(r)
	}
	r.Present()
}
