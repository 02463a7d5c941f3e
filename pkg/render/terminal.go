// pkg/render/terminal.go
package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/physics"
)

// cellAspect is how much taller a terminal cell is than it is wide.
const cellAspect = 2.0

// TerminalRenderer draws a side view (x right, y up) of the course on a tcell
// screen. The bottom row is a status line.
type TerminalRenderer struct {
	screen tcell.Screen
	width  int
	height int
	scale  float64 // world units per cell, horizontally
	center mgl64.Vec2
	status string
}

// NewTerminalRenderer creates a renderer over an initialised screen.
// scale is world units per character cell.
func NewTerminalRenderer(screen tcell.Screen, scale float64) *TerminalRenderer {
	if scale <= 0 {
		scale = 1
	}
	w, h := screen.Size()
	return &TerminalRenderer{
		screen: screen,
		width:  w,
		height: h,
		scale:  scale,
		center: mgl64.Vec2{0, 55},
	}
}

// SetCenter sets the world x-y position shown in the middle of the view
func (r *TerminalRenderer) SetCenter(x, y float64) {
	r.center = mgl64.Vec2{x, y}
}

// SetScale changes world units per cell
func (r *TerminalRenderer) SetScale(scale float64) {
	if scale > 0 {
		r.scale = scale
	}
}

// Annotate implements Annotator.
func (r *TerminalRenderer) Annotate(state engine.State) {
	r.status = FormatStatus(state)
}

// FormatStatus renders the clock line shown under the view.
func FormatStatus(state engine.State) string {
	return fmt.Sprintf("t=%.2fs  steps=%d  scale=%.4g  marbles=%d  [T]faster [t]slower [r]everse [1-4]recolor [q]uit",
		state.T, state.Steps, state.TimeScale, len(state.Marbles))
}

// worldToScreen converts a world position to a cell. Screen y grows downward.
func (r *TerminalRenderer) worldToScreen(p mgl64.Vec3) (int, int) {
	viewHeight := r.height - 1
	x := (p[0]-r.center[0])/r.scale + float64(r.width)/2
	y := float64(viewHeight)/2 - (p[1]-r.center[1])/(r.scale*cellAspect)
	return int(math.Floor(x)), int(math.Floor(y))
}

func (r *TerminalRenderer) inView(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height-1
}

// Clear implements entity.Renderer
func (r *TerminalRenderer) Clear() {
	r.width, r.height = r.screen.Size()
	r.screen.Clear()
}

// Present implements entity.Renderer
func (r *TerminalRenderer) Present() {
	style := tcell.StyleDefault.Reverse(true)
	row := r.height - 1
	for x, ch := range []rune(r.status) {
		if x >= r.width {
			break
		}
		r.screen.SetContent(x, row, ch, nil, style)
	}
	r.screen.Show()
}

// RenderPlatform implements entity.Renderer. The top face is drawn edge-on as
// a line from its left edge to its right edge.
func (r *TerminalRenderer) RenderPlatform(platform *entity.Platform) {
	corners := platform.Corners()
	left := corners[physics.CornerBackLeft].Vec3().Add(corners[physics.CornerFrontLeft].Vec3()).Mul(0.5)
	right := corners[physics.CornerBackRight].Vec3().Add(corners[physics.CornerFrontRight].Vec3()).Mul(0.5)

	c := platform.Surface().Color
	if platform.Overlay != nil {
		c = c.BlendLab(platform.Overlay.Color, 0.5)
	}
	style := tcell.StyleDefault.Foreground(toTcell(c))
	glyph := slopeGlyph(right[1] - left[1])

	x0, y0 := r.worldToScreen(left)
	x1, y1 := r.worldToScreen(right)
	r.line(x0, y0, x1, y1, glyph, style)
}

// RenderMarble implements entity.Renderer
func (r *TerminalRenderer) RenderMarble(marble *entity.Marble) {
	x, y := r.worldToScreen(physics.TranslationOf(marble.Pose()))
	if !r.inView(x, y) {
		return
	}
	glyph := 'o'
	if marble.Mesh() == entity.MeshCube {
		glyph = '■'
	}
	style := tcell.StyleDefault.Foreground(toTcell(marble.Surface().Color)).Bold(true)
	r.screen.SetContent(x, y, glyph, nil, style)
}

// line rasterises a segment with a simple DDA, clipping per cell.
func (r *TerminalRenderer) line(x0, y0, x1, y1 int, glyph rune, style tcell.Style) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		if r.inView(x0, y0) {
			r.screen.SetContent(x0, y0, glyph, nil, style)
		}
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + int(math.Round(float64(dx*i)/float64(steps)))
		y := y0 + int(math.Round(float64(dy*i)/float64(steps)))
		if r.inView(x, y) {
			r.screen.SetContent(x, y, glyph, nil, style)
		}
	}
}

func slopeGlyph(rise float64) rune {
	switch {
	case rise > 1e-9:
		return '/'
	case rise < -1e-9:
		return '\\'
	default:
		return '='
	}
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
