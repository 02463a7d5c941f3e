// pkg/entity/surface.go
package entity

import (
	"fmt"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// Surface is the opaque material handle a renderer draws with.
type Surface struct {
	Name    string
	Texture string
	Color   colorful.Color
	Ambient float64
}

// Hex returns the surface colour as #rrggbb
func (s Surface) Hex() string {
	return s.Color.Clamped().Hex()
}

// RGB255 returns the surface colour clamped to 8-bit channels.
func (s Surface) RGB255() (r, g, b uint8) {
	return s.Color.Clamped().RGB255()
}

// ParseSurface builds a surface from a #rrggbb colour string.
func ParseSurface(name, hex, texture string, ambient float64) (Surface, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Surface{}, fmt.Errorf("surface %q: invalid colour %q: %w", name, hex, err)
	}
	return Surface{Name: name, Texture: texture, Color: c, Ambient: ambient}, nil
}

// RandomColor draws a bright, saturated colour from rng.
func RandomColor(rng *rand.Rand) colorful.Color {
	h := rng.Float64() * 360
	s := 0.45 + 0.45*rng.Float64()
	v := 0.7 + 0.3*rng.Float64()
	return colorful.Hsv(h, s, v)
}
