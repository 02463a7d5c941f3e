// pkg/engine/stepper.go
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

var (
	// ErrInvalidFixedTick is returned when the fixed tick is not a positive number.
	ErrInvalidFixedTick = errors.New("fixed tick must be positive")
	// ErrInvalidMaxFrameTime is returned when the per-frame clamp is not a positive number.
	ErrInvalidMaxFrameTime = errors.New("max frame time must be positive")
)

// Simulation is what a Stepper drives: a per-tick rule update and the bodies
// to integrate after it.
type Simulation interface {
	Update(dt float64)
	Bodies() []*physics.Body
}

// Stepper turns variable wall-clock deltas into whole fixed ticks and leaves the
// remainder in an accumulator, which becomes the blend factor for drawing.
//
// After every Step, |Accumulator()| < FixedTick() and Alpha() is in (-1, 1).
type Stepper struct {
	fixedTick    float64
	timeScale    float64
	maxFrameTime float64

	t     float64
	acc   float64
	alpha float64
	steps uint64
}

// NewStepper validates the timing values and returns a stepper at t = 0.
func NewStepper(cfg config.TimingConfig) (*Stepper, error) {
	if !(cfg.FixedTick > 0) || math.IsInf(cfg.FixedTick, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidFixedTick, cfg.FixedTick)
	}
	if !(cfg.MaxFrameTime > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMaxFrameTime, cfg.MaxFrameTime)
	}
	return &Stepper{
		fixedTick:    cfg.FixedTick,
		timeScale:    cfg.TimeScale,
		maxFrameTime: cfg.MaxFrameTime,
	}, nil
}

// Step feeds one wall-clock delta (seconds) into the accumulator, runs as many
// fixed ticks as it covers and blends every body by the leftover fraction.
// It returns that fraction.
func (s *Stepper) Step(sim Simulation, wallDelta float64) float64 {
	delta := wallDelta * s.timeScale
	if math.IsNaN(delta) {
		delta = 0
	}
	delta = math.Max(-s.maxFrameTime, math.Min(s.maxFrameTime, delta))

	s.acc += delta
	// The accumulator always has the sign of delta when it holds a whole tick,
	// so stepping by its sign matches stepping by sign(delta).
	for math.Abs(s.acc) >= s.fixedTick {
		dir := physics.Sign(s.acc)
		sim.Update(s.fixedTick)
		for _, b := range sim.Bodies() {
			b.Advance(s.fixedTick)
		}
		s.t += dir * s.fixedTick
		s.acc -= dir * s.fixedTick
		s.steps++
	}

	s.alpha = s.acc / s.fixedTick
	for _, b := range sim.Bodies() {
		b.Blend(s.alpha)
	}
	return s.alpha
}

// T is the simulated time. It runs backwards while the time scale is negative.
func (s *Stepper) T() float64 { return s.t }

// Accumulator is the simulated time not yet consumed by a tick.
func (s *Stepper) Accumulator() float64 { return s.acc }

// Alpha is the blend factor produced by the last Step.
func (s *Stepper) Alpha() float64 { return s.alpha }

// StepsTaken counts fixed ticks run since construction.
func (s *Stepper) StepsTaken() uint64 { return s.steps }

// FixedTick is the duration of one physics update.
func (s *Stepper) FixedTick() float64 { return s.fixedTick }

// TimeScale is the multiplier applied to wall deltas.
func (s *Stepper) TimeScale() float64 { return s.timeScale }

// SetTimeScale changes the multiplier. Negative values play time backwards.
func (s *Stepper) SetTimeScale(scale float64) {
	s.timeScale = scale
}
