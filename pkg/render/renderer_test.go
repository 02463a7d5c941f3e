package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/entity"
	"github.com/opd-ai/go-marbles/pkg/logging"
)

func TestNullRenderer_ImplementsRenderer(t *testing.T) {
	var _ entity.Renderer = NewNullRenderer(nil)
	var _ entity.Renderer = &TerminalRenderer{}
	var _ entity.Renderer = &TraceRenderer{}
	var _ Annotator = &TerminalRenderer{}
	var _ Annotator = &TraceRenderer{}
}

func TestNullRenderer_CountsFrames(t *testing.T) {
	w, err := engine.NewWorld(nil)
	if err != nil {
		t.Fatal(err)
	}
	r := NewNullRenderer(nil)

	for i := 0; i < 3; i++ {
		w.Step(0.05)
		w.Render(r)
	}

	if r.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", r.Frames())
	}
}

func TestNullRenderer_LogsAtDebug(t *testing.T) {
	t.Setenv(logging.LevelEnv, "DEBUG")
	var buf bytes.Buffer
	r := NewNullRenderer(logging.NewLoggerWithWriter(&buf))

	r.RenderMarble(nil)
	r.RenderPlatform(nil)
	r.RenderMarble(testMarble(t, mgl64.Vec3{1, 2, 3}, entity.MeshSphere))
	r.Present()

	out := buf.String()
	for _, want := range []string{"called with nil marble", "called with nil platform", `"label":"p1"`, `"drawn":"[1.000 2.000 3.000]"`, `"frame":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
