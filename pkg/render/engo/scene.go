// pkg/render/engo/scene.go
package engo

import (
	"context"
	"fmt"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/logging"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// homeCenter is the world point in the middle of the window at start, about
// halfway down the classic course.
var homeCenter = mgl64.Vec2{0, 55}

// homeSpan is how many world units fit the window height at start.
const homeSpan = 120.0

// System priorities; engo runs higher first and the render system last.
const (
	inputPriority  = 20
	stepPriority   = 10
	cameraPriority = 0
)

// sky is the window background
var sky = color.RGBA{R: 0xb0, G: 0xd8, B: 0xf0, A: 0xff}

// Scene is the windowed side view of a running world
type Scene struct {
	sim    *engine.World
	cfg    config.RenderConfig
	logger *logging.Logger
	ctx    context.Context

	renderer *EngoRenderer
	camera   *Camera
	input    *InputSystem
	stepper  *SimulationSystem
}

// NewScene creates a scene that steps and draws the given world
func NewScene(ctx context.Context, sim *engine.World, cfg config.RenderConfig, logger *logging.Logger) *Scene {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scene{
		sim:    sim,
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
	}
}

// Type returns the scene type (required by Engo)
func (scene *Scene) Type() string {
	return "MarbleScene"
}

// Preload is called before the scene starts (required by Engo). Every shape
// is drawn procedurally, so there is nothing to load.
func (scene *Scene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *Scene) Setup(u engo.Updater) {
	world, ok := u.(*ecs.World)
	if !ok {
		scene.logger.Warn(scene.ctx, "viewer needs an ecs world", "updater", fmt.Sprintf("%T", u))
		return
	}
	common.SetBackground(sky)

	renderSystem := &common.RenderSystem{}
	world.AddSystem(renderSystem)

	zoom := float64(scene.cfg.Height) / homeSpan
	scene.camera = NewCamera(homeCenter, zoom)
	scene.renderer = NewEngoRenderer(renderSystem, scene.camera)
	scene.input = NewInputSystem(scene.sim, scene.camera)
	scene.input.onErr = func(err error) {
		scene.logger.Warn(scene.ctx, "key ignored", "error", err.Error())
	}
	scene.stepper = NewSimulationSystem(scene.sim, scene.renderer, scene.input, scene.camera)

	SetupInputBindings()
	world.AddSystem(scene.input)
	world.AddSystem(scene.stepper)
	world.AddSystem(scene.camera)

	scene.logger.Info(scene.ctx, "viewer started",
		"width", scene.cfg.Width,
		"height", scene.cfg.Height,
		"zoom", zoom,
	)
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *Scene) Exit() {
	scene.logger.Info(scene.ctx, "viewer closed", "steps", scene.sim.Stepper().StepsTaken())
}

// SimulationSystem advances the world by engo's frame delta and redraws it
type SimulationSystem struct {
	sim      *engine.World
	renderer *EngoRenderer
	input    *InputSystem
	camera   *Camera
	frames   uint64
}

// NewSimulationSystem wires a world to a renderer. input and camera may be
// nil when the view never follows a marble.
func NewSimulationSystem(sim *engine.World, renderer *EngoRenderer, input *InputSystem, camera *Camera) *SimulationSystem {
	return &SimulationSystem{
		sim:      sim,
		renderer: renderer,
		input:    input,
		camera:   camera,
	}
}

// Remove satisfies the ecs.System interface
func (s *SimulationSystem) Remove(basic ecs.BasicEntity) {}

// Priority runs the simulation after input and before the camera
func (s *SimulationSystem) Priority() int { return stepPriority }

// Update steps the world by dt seconds of wall time and draws the result
func (s *SimulationSystem) Update(dt float32) {
	s.sim.Step(float64(dt))
	s.track()
	s.sim.Render(s.renderer)
	s.frames++
}

// track points the camera at the followed marble
func (s *SimulationSystem) track() {
	if s.input == nil || s.camera == nil {
		return
	}
	marbles := s.sim.Marbles()
	slot := s.input.Following(len(marbles))
	if slot < 0 {
		return
	}
	c := physics.TranslationOf(marbles[slot].Pose())
	s.camera.SetTarget(mgl64.Vec2{c[0], c[1]})
}

// Frames returns how many frames have been drawn
func (s *SimulationSystem) Frames() uint64 {
	return s.frames
}

// Run opens a window and runs the world in it until the window closes
func Run(ctx context.Context, sim *engine.World, cfg config.RenderConfig, logger *logging.Logger) {
	opts := engo.RunOptions{
		Title:    cfg.Title,
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPSLimit: cfg.FrameRate,
		VSync:    true,
	}
	engo.Run(opts, NewScene(ctx, sim, cfg, logger))
}
