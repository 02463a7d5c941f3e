// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/logging"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// Annotator is implemented by renderers that show the simulation clock.
// The frame loop calls Annotate before World.Render.
type Annotator interface {
	Annotate(state engine.State)
}

// NullRenderer is an entity.Renderer that only logs at debug level.
// It is the headless renderer.
type NullRenderer struct {
	logger *logging.Logger
	ctx    context.Context
	frames uint64
}

// NewNullRenderer creates a NullRenderer. A nil logger discards everything.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{
		logger: logger,
		ctx:    context.Background(),
	}
}

// Frames returns how many frames have been presented.
func (d *NullRenderer) Frames() uint64 {
	return d.frames
}

// Clear implements entity.Renderer.
func (d *NullRenderer) Clear() {
	d.logger.Debug(d.ctx, "Clear called", "frame", d.frames)
}

// Present implements entity.Renderer.
func (d *NullRenderer) Present() {
	d.frames++
	d.logger.Debug(d.ctx, "Present called", "frame", d.frames)
}

// RenderMarble implements entity.Renderer.
func (d *NullRenderer) RenderMarble(marble *entity.Marble) {
	if marble == nil {
		d.logger.Debug(d.ctx, "RenderMarble called with nil marble")
		return
	}
	d.logger.Debug(d.ctx, "RenderMarble called",
		"marble_id", uint64(marble.ID),
		"label", marble.Label,
		"drawn", physics.TranslationOf(marble.Pose()),
	)
}

// RenderPlatform implements entity.Renderer.
func (d *NullRenderer) RenderPlatform(platform *entity.Platform) {
	if platform == nil {
		d.logger.Debug(d.ctx, "RenderPlatform called with nil platform")
		return
	}
	d.logger.Debug(d.ctx, "RenderPlatform called",
		"platform_id", uint64(platform.ID),
		"name", platform.Name,
		"glass", platform.Overlay != nil,
	)
}
