// pkg/render/trace.go
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/logging"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// TraceFrame is one line of a trace: the clock and every marble as drawn.
// Platforms are written once, on the first frame.
type TraceFrame struct {
	Frame     uint64          `json:"frame"`
	T         float64         `json:"t"`
	Steps     uint64          `json:"steps"`
	Alpha     float64         `json:"alpha"`
	Marbles   []TraceMarble   `json:"marbles"`
	Platforms []TracePlatform `json:"platforms,omitempty"`
}

// TraceMarble is a marble in a trace frame
type TraceMarble struct {
	ID    entity.ID  `json:"id"`
	Label string     `json:"label"`
	Pos   mgl64.Vec3 `json:"pos"`
	Color string     `json:"color"`
}

// TracePlatform is a platform's edge-on segment and normal
type TracePlatform struct {
	ID     entity.ID  `json:"id"`
	Name   string     `json:"name"`
	Left   mgl64.Vec3 `json:"left"`
	Right  mgl64.Vec3 `json:"right"`
	Normal mgl64.Vec3 `json:"normal"`
}

// TraceSettings tunes the circuit breaker in front of the trace writer
type TraceSettings struct {
	// MaxConsecutiveFailures trips the breaker.
	MaxConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a trial write.
	Timeout time.Duration
}

// TraceRenderer writes one JSON line per presented frame. Writes go through a
// circuit breaker so a broken sink costs one failed write per Timeout instead
// of one per frame; frames offered while it is open are dropped and counted.
type TraceRenderer struct {
	w       io.Writer
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	ctx     context.Context

	frame         TraceFrame
	wrotePlatform bool
	written       uint64
	dropped       uint64
	lastErr       error
}

// NewTraceRenderer creates a trace renderer writing to w.
func NewTraceRenderer(w io.Writer, settings TraceSettings, logger *logging.Logger) *TraceRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	if settings.MaxConsecutiveFailures == 0 {
		settings.MaxConsecutiveFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 5 * time.Second
	}

	r := &TraceRenderer{
		w:      w,
		logger: logger,
		ctx:    context.Background(),
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marbles-trace",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(r.ctx, "trace circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return r
}

// Annotate implements Annotator.
func (r *TraceRenderer) Annotate(state engine.State) {
	r.frame.T = state.T
	r.frame.Steps = state.Steps
	r.frame.Alpha = state.Alpha
}

// Clear implements entity.Renderer.
func (r *TraceRenderer) Clear() {
	r.frame.Marbles = r.frame.Marbles[:0]
	r.frame.Platforms = nil
}

// RenderPlatform implements entity.Renderer.
func (r *TraceRenderer) RenderPlatform(platform *entity.Platform) {
	if r.wrotePlatform {
		return
	}
	c := platform.Corners()
	r.frame.Platforms = append(r.frame.Platforms, TracePlatform{
		ID:     platform.ID,
		Name:   platform.Name,
		Left:   c[physics.CornerBackLeft].Vec3().Add(c[physics.CornerFrontLeft].Vec3()).Mul(0.5),
		Right:  c[physics.CornerBackRight].Vec3().Add(c[physics.CornerFrontRight].Vec3()).Mul(0.5),
		Normal: platform.Normal(),
	})
}

// RenderMarble implements entity.Renderer.
func (r *TraceRenderer) RenderMarble(marble *entity.Marble) {
	r.frame.Marbles = append(r.frame.Marbles, TraceMarble{
		ID:    marble.ID,
		Label: marble.Label,
		Pos:   physics.TranslationOf(marble.Pose()),
		Color: marble.Surface().Hex(),
	})
}

// Present implements entity.Renderer. Write errors are logged and counted,
// never returned; Err reports the latest one.
func (r *TraceRenderer) Present() {
	r.frame.Frame++

	line, err := json.Marshal(r.frame)
	if err != nil {
		r.fail(fmt.Errorf("failed to encode trace frame: %w", err))
		return
	}
	line = append(line, '\n')

	_, err = r.breaker.Execute(func() (interface{}, error) {
		_, werr := r.w.Write(line)
		return nil, werr
	})
	if err != nil {
		r.fail(err)
		return
	}
	if len(r.frame.Platforms) > 0 {
		r.wrotePlatform = true
	}
	r.written++
}

func (r *TraceRenderer) fail(err error) {
	r.dropped++
	r.lastErr = err
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return
	}
	r.logger.Error(r.ctx, "trace write failed", err, "frame", r.frame.Frame)
}

// Written returns how many frames reached the writer.
func (r *TraceRenderer) Written() uint64 { return r.written }

// Dropped returns how many frames were lost to errors or an open breaker.
func (r *TraceRenderer) Dropped() uint64 { return r.dropped }

// Err returns the most recent write error, if any.
func (r *TraceRenderer) Err() error { return r.lastErr }

// State returns the breaker state.
func (r *TraceRenderer) State() gobreaker.State { return r.breaker.State() }
