// cmd/marbles/loop.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/logging"
	"github.com/opd-ai/go-marbles/pkg/render"
)

// frame draws the world once, annotating renderers that show the clock
func frame(world *engine.World, r entity.Renderer) {
	if a, ok := r.(render.Annotator); ok {
		a.Annotate(world.MarbleSnapshot())
	}
	world.Render(r)
}

func frameDelta(cfg config.RenderConfig) float64 {
	if cfg.FrameRate <= 0 {
		return 1.0 / 60
	}
	return 1 / float64(cfg.FrameRate)
}

// runFixed steps the world by a constant frame delta as fast as possible.
// Runs are reproducible: the same config and seed give the same frames.
func runFixed(ctx context.Context, world *engine.World, r entity.Renderer, delta float64, frames int) {
	for n := 0; frames <= 0 || n < frames; n++ {
		if ctx.Err() != nil {
			return
		}
		world.Step(delta)
		frame(world, r)
	}
}

func runNull(ctx context.Context, world *engine.World, cfg config.RenderConfig, frames int, logger *logging.Logger) error {
	r := render.NewNullRenderer(logger)
	runFixed(ctx, world, r, frameDelta(cfg), frames)
	logger.Info(ctx, "Headless run complete", "frames", r.Frames())
	return nil
}

func runTrace(ctx context.Context, world *engine.World, cfg config.RenderConfig, opts *options, logger *logging.Logger) error {
	var out io.Writer = os.Stdout
	if opts.tracePath != "-" && opts.tracePath != "" {
		f, err := os.Create(opts.tracePath)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		out = f
	}

	r := render.NewTraceRenderer(out, render.TraceSettings{
		MaxConsecutiveFailures: uint32(max(cfg.TraceMaxFailures, 0)),
	}, logger)
	runFixed(ctx, world, r, frameDelta(cfg), opts.frames)

	logger.Info(ctx, "Trace complete",
		"written", r.Written(),
		"dropped", r.Dropped(),
	)
	if r.Written() == 0 && r.Err() != nil {
		return fmt.Errorf("no trace frames written: %w", r.Err())
	}
	return nil
}

// keyCommand is what a terminal key asks for
type keyCommand int

const (
	keyNone keyCommand = iota
	keyFaster
	keySlower
	keyReverse
	keyRecolor
	keyQuit
)

// mapKey turns a terminal key into a command; slot is set for recolor.
func mapKey(ev *tcell.EventKey) (cmd keyCommand, slot int) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return keyQuit, 0
	case tcell.KeyRune:
	default:
		return keyNone, 0
	}

	switch r := ev.Rune(); {
	case r == 'T':
		return keyFaster, 0
	case r == 't':
		return keySlower, 0
	case r == 'r' || r == 'R':
		return keyReverse, 0
	case r >= '1' && r <= '4':
		return keyRecolor, int(r - '1')
	case r == 'q' || r == 'Q':
		return keyQuit, 0
	}
	return keyNone, 0
}

// applyKey carries out a terminal key; it reports false when the run should stop.
func applyKey(ctx context.Context, world *engine.World, ev *tcell.EventKey, logger *logging.Logger) bool {
	cmd, slot := mapKey(ev)
	switch cmd {
	case keyFaster:
		world.SpeedUp()
	case keySlower:
		world.SlowDown()
	case keyReverse:
		world.ReverseTime()
	case keyRecolor:
		if err := world.Recolor(slot); err != nil {
			logger.Debug(ctx, "recolor ignored", "error", err.Error())
		}
	case keyQuit:
		return false
	}
	return true
}

func runTerminal(ctx context.Context, world *engine.World, cfg config.RenderConfig, logger *logging.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialise terminal screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	return terminalLoop(ctx, world, screen, cfg, logger)
}

// terminalLoop steps the world by measured wall time at the configured frame
// rate and reacts to keys until quit or cancellation.
func terminalLoop(ctx context.Context, world *engine.World, screen tcell.Screen, cfg config.RenderConfig, logger *logging.Logger) error {
	r := render.NewTerminalRenderer(screen, cfg.ViewScale)

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(time.Duration(frameDelta(cfg) * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !applyKey(ctx, world, ev, logger) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case now := <-ticker.C:
			world.Step(now.Sub(last).Seconds())
			last = now
			frame(world, r)
		}
	}
}
