package engine

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/event"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// openConfig returns a course-free config with gravity switched off so single
// rules can be observed in isolation.
func openConfig(population int) *config.SimConfig {
	cfg := config.DefaultConfig()
	cfg.Platforms = nil
	cfg.Spawn.Population = population
	cfg.Physics.Gravity = 0
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.SimConfig, opts ...Option) *World {
	t.Helper()
	w, err := NewWorld(cfg, opts...)
	if err != nil {
		t.Fatalf("NewWorld() failed: %v", err)
	}
	return w
}

func approxVec(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-9)
}

func TestNewWorld_DefaultCourse(t *testing.T) {
	w := newTestWorld(t, config.DefaultConfig())

	if len(w.Platforms()) != 21 {
		t.Errorf("expected 21 platforms, got %d", len(w.Platforms()))
	}
	if len(w.Marbles()) != 0 {
		t.Errorf("marbles should appear on the first tick, got %d before it", len(w.Marbles()))
	}

	glass := 0
	for _, p := range w.Platforms() {
		if p.Overlay != nil {
			glass++
		}
	}
	if glass != 8 {
		t.Errorf("expected 8 glass platforms, got %d", glass)
	}
}

func TestNewWorld_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.SimConfig)
	}{
		{"zero tick", func(c *config.SimConfig) { c.Timing.FixedTick = 0 }},
		{"negative tick", func(c *config.SimConfig) { c.Timing.FixedTick = -1 }},
		{"bad platform colour", func(c *config.SimConfig) { c.Platforms[0].Color = "green" }},
		{"unknown shape policy", func(c *config.SimConfig) { c.Shapes.Policy = "weighted" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := NewWorld(cfg); err == nil {
				t.Error("expected NewWorld() to fail")
			}
		})
	}
}

func TestWorld_FirstTickSpawnsPopulation(t *testing.T) {
	cfg := config.DefaultConfig()
	bus := event.NewEventBus()
	var spawned []*event.MarbleEvent
	bus.Subscribe(event.MarbleSpawned, func(e event.Event) {
		spawned = append(spawned, e.(*event.MarbleEvent))
	})

	w := newTestWorld(t, cfg, WithEventBus(bus))
	w.Step(0.1)

	if len(w.Marbles()) != 4 || len(w.Bodies()) != 4 {
		t.Fatalf("expected 4 marbles and bodies, got %d and %d", len(w.Marbles()), len(w.Bodies()))
	}
	if len(spawned) != 4 {
		t.Fatalf("expected 4 spawn events, got %d", len(spawned))
	}
	for i, e := range spawned {
		d := e.Position.Sub(mgl64.Vec3{15, 120, 0})
		if math.Abs(d[0]) > 0.5 || math.Abs(d[1]) > 0.5 || math.Abs(d[2]) > 0.5 {
			t.Errorf("marble %d spawned at %v, outside the jitter box", i, e.Position)
		}
		if speed := e.Velocity.Len(); math.Abs(speed-3) > 1e-9 {
			t.Errorf("marble %d spawn speed %v, want 3", i, speed)
		}
		if e.Velocity[1] != 0 {
			t.Errorf("marble %d launched with vertical velocity %v", i, e.Velocity[1])
		}
	}

	for i, m := range w.Marbles() {
		if want := "p" + string(rune('1'+i)); m.Label != want {
			t.Errorf("marble %d label %q, want %q", i, m.Label, want)
		}
		if m.Mesh() != entity.MeshSphere {
			t.Errorf("marble %d mesh %q, want sphere", i, m.Mesh())
		}
		if n := m.SpinAxis().Len(); math.Abs(n-1) > 1e-9 {
			t.Errorf("marble %d spin axis length %v", i, n)
		}
	}

	// A 0.1 s frame at scale 1.6 is clamped to 0.1 s: two ticks.
	if w.Stepper().StepsTaken() != 2 {
		t.Errorf("StepsTaken() = %d, want 2", w.Stepper().StepsTaken())
	}
}

func TestWorld_SameSeedSameRun(t *testing.T) {
	deltas := []float64{0.016, 0.017, 0.033, 0.2, 0.001, 0.05, 0.016}

	type trace struct {
		poses []physics.Pose
		drawn []mgl64.Mat4
		final State
	}

	run := func(seed uint64) trace {
		cfg := config.DefaultConfig()
		cfg.Spawn.Seed = seed
		w := newTestWorld(t, cfg)
		var tr trace
		for i := 0; i < 200; i++ {
			w.Step(deltas[i%len(deltas)])
			for _, b := range w.Bodies() {
				tr.poses = append(tr.poses, b.Current)
				tr.drawn = append(tr.drawn, b.DrawnLocation())
			}
		}
		tr.final = w.Snapshot()
		return tr
	}

	a, b := run(42), run(42)
	if len(a.poses) == 0 || len(a.poses) != len(b.poses) {
		t.Fatalf("recorded %d and %d poses", len(a.poses), len(b.poses))
	}
	for i := range a.poses {
		if a.poses[i] != b.poses[i] {
			t.Fatalf("pose %d diverged: %v vs %v", i, a.poses[i], b.poses[i])
		}
		if a.drawn[i] != b.drawn[i] {
			t.Fatalf("drawn location %d diverged: %v vs %v", i, a.drawn[i], b.drawn[i])
		}
	}
	if !reflect.DeepEqual(a.final, b.final) {
		t.Error("two runs with the same seed and deltas diverged")
	}

	c := run(43)
	if reflect.DeepEqual(a.final.Marbles, c.final.Marbles) {
		t.Error("runs with different seeds should differ")
	}
}

func TestApplyPlatformResponse(t *testing.T) {
	const r = 0.8
	tests := []struct {
		name   string
		v      mgl64.Vec3
		normal mgl64.Vec3
		want   mgl64.Vec3
	}{
		{"level, falling bounces", mgl64.Vec3{1, -2, 0.5}, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 1.6, 0.5}},
		{"level, rising untouched", mgl64.Vec3{1, 2, 0}, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 2, 0}},
		{"faces left, rightward motion stopped", mgl64.Vec3{2, -3, 0}, mgl64.Vec3{-0.25, 0.433, 0}, mgl64.Vec3{-1.0392, 2.0784, 0}},
		{"faces left, leftward motion kept", mgl64.Vec3{-1, 1, 0}, mgl64.Vec3{-0.25, 0.433, 0}, mgl64.Vec3{-1.5, 1, 0}},
		{"faces right, leftward motion stopped", mgl64.Vec3{-2, 1, 0}, mgl64.Vec3{0.25, 0.433, 0}, mgl64.Vec3{0.5, 1, 0}},
		{"faces right, falling", mgl64.Vec3{0, -1, 2}, mgl64.Vec3{0.25, 0.433, 0}, mgl64.Vec3{0.3464, 0.6928, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyPlatformResponse(tt.v, tt.normal, r)
			if !got.ApproxEqualThreshold(tt.want, 1e-9) {
				t.Errorf("ApplyPlatformResponse(%v, %v) = %v, want %v", tt.v, tt.normal, got, tt.want)
			}
		})
	}
}

func TestWorld_PlatformHitBouncesMarble(t *testing.T) {
	cfg := openConfig(1)
	cfg.Platforms = []config.PlatformConfig{{
		Name:         "floor",
		RotationAxis: [3]float64{0, 0, 1},
		Scale:        [3]float64{10, 0.5, 10},
		Color:        "#4cbb17",
	}}

	bus := event.NewEventBus()
	var hits []*event.CollisionEvent
	bus.Subscribe(event.PlatformHit, func(e event.Event) {
		hits = append(hits, e.(*event.CollisionEvent))
	})
	w := newTestWorld(t, cfg, WithEventBus(bus))
	w.Update(0.05)

	m := w.Marbles()[0]
	m.SetCenter(mgl64.Vec3{2, 0.6, -3})
	m.LinearVelocity = mgl64.Vec3{0.5, -2, 0}
	w.Update(0.05)

	if !approxVec(m.LinearVelocity, mgl64.Vec3{0.5, 1.6, 0}) {
		t.Errorf("velocity after hit = %v, want [0.5 1.6 0]", m.LinearVelocity)
	}
	if len(hits) != 1 || hits[0].PlatformID != uint64(w.Platforms()[0].ID) {
		t.Errorf("expected one hit on the floor platform, got %+v", hits)
	}
}

func TestWorld_OverlappingPlatformsApplyInOrder(t *testing.T) {
	cfg := openConfig(1)
	cfg.Platforms = []config.PlatformConfig{
		{Name: "left", RotationAngle: 0.3, RotationAxis: [3]float64{0, 0, 1}, Scale: [3]float64{10, 0.5, 10}, Color: "#4cbb17"},
		{Name: "right", RotationAngle: -0.3, RotationAxis: [3]float64{0, 0, 1}, Scale: [3]float64{10, 0.5, 10}, Color: "#4cbb17"},
	}

	bus := event.NewEventBus()
	var hits []uint64
	bus.Subscribe(event.PlatformHit, func(e event.Event) {
		hits = append(hits, e.(*event.CollisionEvent).PlatformID)
	})
	w := newTestWorld(t, cfg, WithEventBus(bus))
	w.Update(0.05)

	first, second := w.Platforms()[0].Normal(), w.Platforms()[1].Normal()
	if first[0] >= 0 || second[0] <= 0 {
		t.Fatalf("expected normals facing opposite ways, got %v and %v", first, second)
	}

	v := mgl64.Vec3{1, -2, 0}
	m := w.Marbles()[0]
	m.SetCenter(mgl64.Vec3{0, 0.5, 0})
	m.LinearVelocity = v
	w.Update(0.05)

	want := ApplyPlatformResponse(ApplyPlatformResponse(v, first, 0.8), second, 0.8)
	if !approxVec(m.LinearVelocity, want) {
		t.Errorf("velocity after both hits = %v, want %v", m.LinearVelocity, want)
	}
	if !want.ApproxEqualThreshold(mgl64.Vec3{0.4517, 1.5285, 0}, 1e-3) {
		t.Errorf("composed response = %v, want about [0.4517 1.5285 0]", want)
	}
	reversed := ApplyPlatformResponse(ApplyPlatformResponse(v, second, 0.8), first, 0.8)
	if approxVec(m.LinearVelocity, reversed) {
		t.Error("responses were applied in reverse platform order")
	}

	wantHits := []uint64{uint64(w.Platforms()[0].ID), uint64(w.Platforms()[1].ID)}
	if !reflect.DeepEqual(hits, wantHits) {
		t.Errorf("hit order = %v, want %v", hits, wantHits)
	}
}

func TestWorld_VolumeRules(t *testing.T) {
	tests := []struct {
		name   string
		center mgl64.Vec3
		v      mgl64.Vec3
		want   mgl64.Vec3
		kind   event.Type
	}{
		{"floor bounce", mgl64.Vec3{0, -9, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 0.6, 0}, event.FloorBounce},
		{"below floor rising", mgl64.Vec3{0, -9, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}, ""},
		{"right wall", mgl64.Vec3{25, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{-2, 0, 0}, event.WallBounce},
		{"left wall", mgl64.Vec3{-25, 0, 0}, mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{2, 0, 0}, event.WallBounce},
		{"back wall", mgl64.Vec3{0, 0, -11}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}, event.WallBounce},
		{"inside", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 1}, mgl64.Vec3{1, 0, 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := event.NewEventBus()
			var seen []event.Type
			for _, k := range []event.Type{event.FloorBounce, event.WallBounce} {
				bus.Subscribe(k, func(e event.Event) { seen = append(seen, e.GetType()) })
			}
			w := newTestWorld(t, openConfig(1), WithEventBus(bus))
			w.Update(0.05)

			m := w.Marbles()[0]
			m.SetCenter(tt.center)
			m.LinearVelocity = tt.v
			w.Update(0.05)

			if !approxVec(m.LinearVelocity, tt.want) {
				t.Errorf("velocity = %v, want %v", m.LinearVelocity, tt.want)
			}
			if tt.kind == "" && len(seen) != 0 {
				t.Errorf("unexpected events %v", seen)
			}
			if tt.kind != "" && (len(seen) != 1 || seen[0] != tt.kind) {
				t.Errorf("events %v, want [%s]", seen, tt.kind)
			}
		})
	}
}

func TestWorld_WallFlipSurvivesStep(t *testing.T) {
	w := newTestWorld(t, openConfig(1))
	w.Step(0.05)

	m := w.Marbles()[0]
	m.SetCenter(mgl64.Vec3{24.5, 0, 0})
	m.LinearVelocity = mgl64.Vec3{3, 0, 0}
	w.Step(0.05)

	if m.LinearVelocity[0] >= 0 {
		t.Errorf("horizontal velocity should be flipped after a tick, got %v", m.LinearVelocity)
	}
}

func TestWorld_RecycleLostMarbles(t *testing.T) {
	tests := []struct {
		name   string
		center mgl64.Vec3
		v      mgl64.Vec3
	}{
		{"too far", mgl64.Vec3{0, 200, 0}, mgl64.Vec3{5, 0, 0}},
		{"too slow", mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0.1, 0, 0}},
		{"stopped", mgl64.Vec3{3, 3, 3}, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := event.NewEventBus()
			recycled := 0
			bus.Subscribe(event.MarbleRecycled, func(e event.Event) { recycled++ })

			w := newTestWorld(t, openConfig(1), WithEventBus(bus))
			w.Update(0.05)
			m := w.Marbles()[0]
			m.SetCenter(tt.center)
			m.LinearVelocity = tt.v
			w.Update(0.05)

			if recycled != 1 {
				t.Fatalf("expected 1 recycle, got %d", recycled)
			}
			if m.Center() != (mgl64.Vec3{15, 120, 0}) {
				t.Errorf("center = %v, want spawn point", m.Center())
			}
			v := m.LinearVelocity
			if v[1] != 0 || math.Abs(v[0]) > 0.5 || math.Abs(v[2]) > 1 || (v[0] == 0 && v[2] == 0) {
				t.Errorf("recycle velocity %v out of range", v)
			}
		})
	}
}

func TestWorld_TimeControls(t *testing.T) {
	bus := event.NewEventBus()
	var changes []*event.TimeScaleEvent
	bus.Subscribe(event.TimeScaleChanged, func(e event.Event) {
		changes = append(changes, e.(*event.TimeScaleEvent))
	})
	w := newTestWorld(t, config.DefaultConfig(), WithEventBus(bus))

	w.SpeedUp()
	if got := w.Stepper().TimeScale(); math.Abs(got-8) > 1e-12 {
		t.Errorf("after SpeedUp time scale = %v, want 8", got)
	}
	w.SlowDown()
	w.SlowDown()
	if got := w.Stepper().TimeScale(); math.Abs(got-0.32) > 1e-12 {
		t.Errorf("after two SlowDowns time scale = %v, want 0.32", got)
	}
	w.ReverseTime()
	if got := w.Stepper().TimeScale(); math.Abs(got+0.32) > 1e-12 {
		t.Errorf("after ReverseTime time scale = %v, want -0.32", got)
	}

	if len(changes) != 4 {
		t.Fatalf("expected 4 time scale events, got %d", len(changes))
	}
	if changes[3].Old != -changes[3].New {
		t.Errorf("reverse event should negate: %+v", changes[3])
	}
}

func TestWorld_Recolor(t *testing.T) {
	w := newTestWorld(t, openConfig(2))
	w.Update(0.05)

	if err := w.Recolor(5); err == nil || !strings.Contains(err.Error(), "slot 5") {
		t.Errorf("Recolor(5) error = %v", err)
	}
	if err := w.Recolor(-1); err == nil {
		t.Error("Recolor(-1) should fail")
	}

	before := w.Marbles()[1].Surface()
	if err := w.Recolor(1); err != nil {
		t.Fatalf("Recolor(1) failed: %v", err)
	}
	after := w.Marbles()[1].Surface()
	if before.Color == after.Color {
		t.Error("Recolor did not change the colour")
	}
	if before.Name != after.Name || before.Texture != after.Texture {
		t.Error("Recolor should only change the colour")
	}
}

type recordingRenderer struct {
	calls []string
}

func (r *recordingRenderer) RenderMarble(m *entity.Marble) {
	r.calls = append(r.calls, "marble:"+m.Label)
}

func (r *recordingRenderer) RenderPlatform(p *entity.Platform) {
	r.calls = append(r.calls, "platform:"+p.Name)
}

func (r *recordingRenderer) Clear()   { r.calls = append(r.calls, "clear") }
func (r *recordingRenderer) Present() { r.calls = append(r.calls, "present") }

func TestWorld_RenderOrder(t *testing.T) {
	cfg := openConfig(2)
	cfg.Platforms = config.SandboxCourse()[:2]
	w := newTestWorld(t, cfg)
	w.Update(0.05)

	r := &recordingRenderer{}
	w.Render(r)

	want := []string{"clear", "platform:s1", "platform:s2", "marble:p1", "marble:p2", "present"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("render calls = %v, want %v", r.calls, want)
	}
}

func TestWorld_Snapshot(t *testing.T) {
	w := newTestWorld(t, config.DefaultConfig())
	w.Step(0.07)

	s := w.Snapshot()
	if len(s.Marbles) != 4 || len(s.Platforms) != 21 {
		t.Fatalf("snapshot has %d marbles and %d platforms", len(s.Marbles), len(s.Platforms))
	}
	if s.Steps != w.Stepper().StepsTaken() || s.T != w.Stepper().T() || s.Alpha != w.Stepper().Alpha() {
		t.Error("snapshot clock does not match the stepper")
	}

	m := w.Marbles()[0]
	if s.Marbles[0].Center != m.Center() || s.Marbles[0].Color != m.Surface().Hex() {
		t.Error("snapshot marble does not match the world")
	}

	// Mutating the snapshot leaves the world alone.
	s.Marbles[0].Velocity[0] = 1e6
	if m.LinearVelocity[0] == 1e6 {
		t.Error("snapshot shares memory with the world")
	}

	if ms := w.MarbleSnapshot(); ms.Platforms != nil {
		t.Error("MarbleSnapshot should not include platforms")
	}
}
