// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SimConfig contains configuration for a marble run
type SimConfig struct {
	Timing    TimingConfig     `json:"timing" yaml:"timing"`
	Physics   PhysicsConfig    `json:"physics" yaml:"physics"`
	Spawn     SpawnConfig      `json:"spawn" yaml:"spawn"`
	Shapes    ShapeConfig      `json:"shapes" yaml:"shapes"`
	Platforms []PlatformConfig `json:"platforms" yaml:"platforms"`
	Render    RenderConfig     `json:"render" yaml:"render"`
}

// TimingConfig controls the fixed-timestep stepper
type TimingConfig struct {
	FixedTick       float64 `json:"fixedTick" yaml:"fixedTick"`
	TimeScale       float64 `json:"timeScale" yaml:"timeScale"`
	MaxFrameTime    float64 `json:"maxFrameTime" yaml:"maxFrameTime"`
	TimeScaleFactor float64 `json:"timeScaleFactor" yaml:"timeScaleFactor"`
}

// PhysicsConfig contains forces, restitution and play-volume limits
type PhysicsConfig struct {
	Gravity             float64 `json:"gravity" yaml:"gravity"`
	PlatformRestitution float64 `json:"platformRestitution" yaml:"platformRestitution"`
	FloorRestitution    float64 `json:"floorRestitution" yaml:"floorRestitution"`
	WallRestitution     float64 `json:"wallRestitution" yaml:"wallRestitution"`
	FloorHeight         float64 `json:"floorHeight" yaml:"floorHeight"`
	HalfWidth           float64 `json:"halfWidth" yaml:"halfWidth"`
	HalfDepth           float64 `json:"halfDepth" yaml:"halfDepth"`
	RecycleDistance     float64 `json:"recycleDistance" yaml:"recycleDistance"`
	RecycleSpeed        float64 `json:"recycleSpeed" yaml:"recycleSpeed"`
	PlaneTolerance      float64 `json:"planeTolerance" yaml:"planeTolerance"`
	ContainmentEpsilon  float64 `json:"containmentEpsilon" yaml:"containmentEpsilon"`
}

// SpawnConfig describes where and how new marbles enter the course
type SpawnConfig struct {
	Population         int        `json:"population" yaml:"population"`
	Point              [3]float64 `json:"point" yaml:"point"`
	PositionJitter     float64    `json:"positionJitter" yaml:"positionJitter"`
	Direction          [3]float64 `json:"direction" yaml:"direction"`
	Speed              float64    `json:"speed" yaml:"speed"`
	VelocityJitter     float64    `json:"velocityJitter" yaml:"velocityJitter"`
	MaxAngularVelocity float64    `json:"maxAngularVelocity" yaml:"maxAngularVelocity"`
	Size               [3]float64 `json:"size" yaml:"size"`
	Seed               uint64     `json:"seed" yaml:"seed"`
	Texture            string     `json:"texture" yaml:"texture"`
}

// ShapeConfig lists the meshes marbles may wear
type ShapeConfig struct {
	Pool   []string `json:"pool" yaml:"pool"`
	Policy string   `json:"policy" yaml:"policy"`
}

// PlatformConfig is one translation/rotation/scale triple plus its look
type PlatformConfig struct {
	Name          string     `json:"name" yaml:"name"`
	Translation   [3]float64 `json:"translation" yaml:"translation"`
	RotationAngle float64    `json:"rotationAngle" yaml:"rotationAngle"`
	RotationAxis  [3]float64 `json:"rotationAxis" yaml:"rotationAxis"`
	Scale         [3]float64 `json:"scale" yaml:"scale"`
	Color         string     `json:"color" yaml:"color"`
	Texture       string     `json:"texture" yaml:"texture"`
	Glass         bool       `json:"glass,omitempty" yaml:"glass,omitempty"`
}

// RenderConfig selects and sizes the output
type RenderConfig struct {
	Renderer         string  `json:"renderer" yaml:"renderer"`
	Width            int     `json:"width" yaml:"width"`
	Height           int     `json:"height" yaml:"height"`
	ViewScale        float64 `json:"viewScale" yaml:"viewScale"`
	Title            string  `json:"title" yaml:"title"`
	FrameRate        int     `json:"frameRate" yaml:"frameRate"`
	TraceMaxFailures int     `json:"traceMaxFailures" yaml:"traceMaxFailures"`
}

// Renderer names accepted in RenderConfig.Renderer
const (
	RendererNull     = "null"
	RendererTerminal = "terminal"
	RendererEngo     = "engo"
	RendererTrace    = "trace"
)

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a configuration from a JSON or YAML file, chosen by extension
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Lists are replaced, never merged element by element into the defaults.
	config := DefaultConfig()
	defaults := *config
	config.Platforms = nil
	config.Shapes.Pool = nil

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Platforms == nil {
		config.Platforms = defaults.Platforms
	}
	if config.Shapes.Pool == nil {
		config.Shapes.Pool = defaults.Shapes.Pool
	}
	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *SimConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the classic course with its tuned constants
func DefaultConfig() *SimConfig {
	return &SimConfig{
		Timing: TimingConfig{
			FixedTick:       1.0 / 20.0,
			TimeScale:       1.6,
			MaxFrameTime:    0.1,
			TimeScaleFactor: 5,
		},
		Physics: PhysicsConfig{
			Gravity:             -9.8,
			PlatformRestitution: 0.8,
			FloorRestitution:    0.6,
			WallRestitution:     1.0,
			FloorHeight:         -8,
			HalfWidth:           24,
			HalfDepth:           10,
			RecycleDistance:     150,
			RecycleSpeed:        0.3,
			PlaneTolerance:      0.75,
			ContainmentEpsilon:  1e-9,
		},
		Spawn: SpawnConfig{
			Population:         4,
			Point:              [3]float64{15, 120, 0},
			PositionJitter:     1,
			Direction:          [3]float64{-0.5, 0, 0},
			Speed:              3,
			VelocityJitter:     0.2,
			MaxAngularVelocity: 1,
			Size:               [3]float64{1, 1, 1},
			Seed:               1,
			Texture:            "kirby.png",
		},
		Shapes: ShapeConfig{
			Pool:   []string{"sphere"},
			Policy: "random",
		},
		Platforms: ClassicCourse(),
		Render: RenderConfig{
			Renderer:         RendererTerminal,
			Width:            1024,
			Height:           768,
			ViewScale:        4,
			Title:            "Tiny Marbles",
			FrameRate:        60,
			TraceMaxFailures: 5,
		},
	}
}

// Validate checks the values that would make the simulation undefined.
// Errors name the offending field.
func (c *SimConfig) Validate() error {
	var errs []error
	if c.Timing.FixedTick <= 0 {
		errs = append(errs, fmt.Errorf("timing.fixedTick must be positive, got %v", c.Timing.FixedTick))
	}
	if c.Timing.MaxFrameTime <= 0 {
		errs = append(errs, fmt.Errorf("timing.maxFrameTime must be positive, got %v", c.Timing.MaxFrameTime))
	}
	if c.Timing.TimeScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("timing.timeScaleFactor must be positive, got %v", c.Timing.TimeScaleFactor))
	}
	if c.Spawn.Population < 0 {
		errs = append(errs, fmt.Errorf("spawn.population must not be negative, got %d", c.Spawn.Population))
	}
	if c.Physics.RecycleDistance <= 0 {
		errs = append(errs, fmt.Errorf("physics.recycleDistance must be positive, got %v", c.Physics.RecycleDistance))
	}
	if c.Physics.PlaneTolerance < 0 {
		errs = append(errs, fmt.Errorf("physics.planeTolerance must not be negative, got %v", c.Physics.PlaneTolerance))
	}
	if len(c.Shapes.Pool) == 0 {
		errs = append(errs, errors.New("shapes.pool must name at least one shape"))
	}
	for i, p := range c.Platforms {
		if p.RotationAngle != 0 && p.RotationAxis == [3]float64{} {
			errs = append(errs, fmt.Errorf("platforms[%d] (%s): rotationAxis is zero", i, p.Name))
		}
	}
	switch c.Render.Renderer {
	case "", RendererNull, RendererTerminal, RendererEngo, RendererTrace:
	default:
		errs = append(errs, fmt.Errorf("render.renderer %q is not one of null, terminal, engo, trace", c.Render.Renderer))
	}
	return errors.Join(errs...)
}
