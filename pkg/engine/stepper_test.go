package engine

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// countingSim records the ticks it receives and carries one moving body.
type countingSim struct {
	ticks []float64
	body  *physics.Body
}

func newCountingSim(t *testing.T) *countingSim {
	t.Helper()
	body := physics.NewBody(mgl64.Vec3{1, 1, 1})
	if err := body.Emplace(mgl64.Ident4(), mgl64.Vec3{1, 0, 0}, 0.5, physics.Up); err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	return &countingSim{body: body}
}

func (s *countingSim) Update(dt float64) { s.ticks = append(s.ticks, dt) }

func (s *countingSim) Bodies() []*physics.Body { return []*physics.Body{s.body} }

func timing(tick, scale, maxFrame float64) config.TimingConfig {
	return config.TimingConfig{FixedTick: tick, TimeScale: scale, MaxFrameTime: maxFrame, TimeScaleFactor: 5}
}

func TestNewStepper_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TimingConfig
		wantErr error
	}{
		{"valid", timing(0.05, 1.6, 0.1), nil},
		{"zero tick", timing(0, 1, 0.1), ErrInvalidFixedTick},
		{"negative tick", timing(-0.05, 1, 0.1), ErrInvalidFixedTick},
		{"nan tick", timing(math.NaN(), 1, 0.1), ErrInvalidFixedTick},
		{"infinite tick", timing(math.Inf(1), 1, 0.1), ErrInvalidFixedTick},
		{"zero max frame time", timing(0.05, 1, 0), ErrInvalidMaxFrameTime},
		{"negative scale is fine", timing(0.05, -1.6, 0.1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStepper(tt.cfg)
			if tt.wantErr == nil {
				if err != nil || s == nil {
					t.Fatalf("NewStepper() = %v, %v", s, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewStepper() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStepper_Step_WholeTicksAndRemainder(t *testing.T) {
	s, err := NewStepper(timing(0.05, 1, 0.25))
	if err != nil {
		t.Fatal(err)
	}
	sim := newCountingSim(t)

	alpha := s.Step(sim, 0.125)

	if len(sim.ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(sim.ticks))
	}
	for _, dt := range sim.ticks {
		if dt != 0.05 {
			t.Errorf("Update received dt %v, want 0.05", dt)
		}
	}
	if math.Abs(alpha-0.5) > 1e-9 {
		t.Errorf("alpha = %v, want 0.5", alpha)
	}
	if math.Abs(s.T()-0.1) > 1e-12 {
		t.Errorf("T() = %v, want 0.1", s.T())
	}
	if s.StepsTaken() != 2 {
		t.Errorf("StepsTaken() = %d, want 2", s.StepsTaken())
	}

	// Drawn center sits halfway between the last two physical states.
	want := sim.body.Previous.Center[0] + 0.5*(sim.body.Current.Center[0]-sim.body.Previous.Center[0])
	got := physics.TranslationOf(sim.body.DrawnLocation())[0]
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("drawn x = %v, want %v", got, want)
	}
}

func TestStepper_Step_ClampsLongFrames(t *testing.T) {
	s, _ := NewStepper(timing(0.05, 1, 0.1))
	sim := newCountingSim(t)

	s.Step(sim, 10)

	if len(sim.ticks) != 2 {
		t.Errorf("a 10 s frame should be clamped to 2 ticks, got %d", len(sim.ticks))
	}
}

func TestStepper_Step_ZeroDeltaIsIdempotent(t *testing.T) {
	s, _ := NewStepper(timing(0.05, 1.6, 0.1))
	sim := newCountingSim(t)
	s.Step(sim, 0.04)

	before := struct {
		t, acc, alpha float64
		steps         uint64
		drawn         mgl64.Mat4
	}{s.T(), s.Accumulator(), s.Alpha(), s.StepsTaken(), sim.body.DrawnLocation()}
	ticks := len(sim.ticks)

	for i := 0; i < 3; i++ {
		s.Step(sim, 0)
	}

	if len(sim.ticks) != ticks {
		t.Errorf("Step(0) ran %d extra ticks", len(sim.ticks)-ticks)
	}
	if s.T() != before.t || s.Accumulator() != before.acc || s.Alpha() != before.alpha || s.StepsTaken() != before.steps {
		t.Error("Step(0) changed stepper state")
	}
	if sim.body.DrawnLocation() != before.drawn {
		t.Error("Step(0) changed the drawn pose")
	}
}

func TestStepper_Step_NaNDeltaRunsNothing(t *testing.T) {
	s, _ := NewStepper(timing(0.05, 1, 0.1))
	sim := newCountingSim(t)

	s.Step(sim, math.NaN())

	if len(sim.ticks) != 0 || s.Accumulator() != 0 {
		t.Errorf("NaN delta ran %d ticks, acc %v", len(sim.ticks), s.Accumulator())
	}
}

func TestStepper_Step_AccumulatorStaysBounded(t *testing.T) {
	s, _ := NewStepper(timing(0.05, 1.6, 0.1))
	sim := newCountingSim(t)
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 2000; i++ {
		delta := rng.Float64() * 0.2
		if i%300 == 299 {
			s.SetTimeScale(-s.TimeScale())
		}
		alpha := s.Step(sim, delta)

		if math.Abs(s.Accumulator()) >= s.FixedTick() {
			t.Fatalf("step %d: |acc| = %v not below tick", i, math.Abs(s.Accumulator()))
		}
		if alpha <= -1 || alpha >= 1 {
			t.Fatalf("step %d: alpha %v out of (-1, 1)", i, alpha)
		}
	}
}

func TestStepper_NegativeTimeScaleRunsBackwards(t *testing.T) {
	s, _ := NewStepper(timing(0.05, -1, 0.1))
	sim := newCountingSim(t)

	s.Step(sim, 0.1)

	if math.Abs(s.T()+0.1) > 1e-12 {
		t.Errorf("T() = %v, want -0.1", s.T())
	}
	if len(sim.ticks) != 2 {
		t.Errorf("expected 2 ticks, got %d", len(sim.ticks))
	}
	// Update still receives the positive tick.
	for _, dt := range sim.ticks {
		if dt <= 0 {
			t.Errorf("Update received non-positive dt %v", dt)
		}
	}
}
