// pkg/config/course.go
package config

import "math"

// CourseTemplate is a named, ready-made platform layout
type CourseTemplate struct {
	Name        string
	Description string
	Platforms   []PlatformConfig
}

const (
	platformColor   = "#4cbb17"
	platformTexture = "bush.jpg"
)

var zAxis = [3]float64{0, 0, 1}

func platform(name string, x, y, angle, sx float64) PlatformConfig {
	return PlatformConfig{
		Name:          name,
		Translation:   [3]float64{x, y, 0},
		RotationAngle: angle,
		RotationAxis:  zAxis,
		Scale:         [3]float64{sx, 0.5, 10},
		Color:         platformColor,
		Texture:       platformTexture,
	}
}

func glass(p PlatformConfig) PlatformConfig {
	p.Glass = true
	return p
}

// ClassicCourse returns the full 21-platform marble run
func ClassicCourse() []PlatformConfig {
	return []PlatformConfig{
		platform("p0", 15, 100, math.Pi/6, 10),
		platform("p1", -15, 90, 0, 10),
		platform("p2", -25, 95, math.Pi/2, 5),
		platform("p3", -2, 87, -math.Pi/6, 5),
		glass(platform("p6", -25, 75, -math.Pi/3, 10)),
		glass(platform("p7", -15, 65, -math.Pi/6, 5)),
		platform("p8", 25, 75, math.Pi/3, 10),
		platform("p9", 15, 65, math.Pi/6, 5),
		platform("p10", -17, 50, -math.Pi/4, 10),
		glass(platform("p11", -4, 55, math.Pi/4, 5)),
		glass(platform("p12", 4, 55, -math.Pi/4, 5)),
		glass(platform("p13", 18, 45, math.Pi/6, 10)),
		glass(platform("p14", -15, 35, -math.Pi/6, 7)),
		glass(platform("p17", 15, 25, -math.Pi/4, 5)),
		glass(platform("p18", 25, 28, math.Pi/4, 10)),
		platform("p19", -5, 25, math.Pi/6, 5),
		platform("p20", 2, 23, -math.Pi/3, 5),
		platform("p21", -18, 20, -math.Pi/6, 8),
		platform("p22", 8, 15, -math.Pi/6, 5),
		platform("p23", 20, 5, math.Pi/6, 15),
		platform("p26", -20, 5, -math.Pi/6, 15),
	}
}

// SandboxCourse is a small four-platform layout for experiments
func SandboxCourse() []PlatformConfig {
	return []PlatformConfig{
		platform("s1", 0, 40, math.Pi/6, 10),
		platform("s2", -20, 30, -math.Pi/6, 10),
		platform("s3", -5, 18, 0, 5),
		platform("s4", 5, 23, math.Pi/4, 5),
	}
}

var courseTemplates = map[string]CourseTemplate{
	"classic": {
		Name:        "Classic",
		Description: "The full marble run from the start gate at the top to the twin ramps at the bottom",
		Platforms:   ClassicCourse(),
	},
	"sandbox": {
		Name:        "Sandbox",
		Description: "Four platforms around the origin",
		Platforms:   SandboxCourse(),
	},
	"empty": {
		Name:        "Empty",
		Description: "No platforms; marbles only meet the floor and walls",
	},
}

// GetCourseTemplate returns a copy of the named template, or nil if unknown
func GetCourseTemplate(name string) *CourseTemplate {
	tmpl, ok := courseTemplates[name]
	if !ok {
		return nil
	}
	tmpl.Platforms = append([]PlatformConfig{}, tmpl.Platforms...)
	return &tmpl
}

// ListCourseTemplates returns template keys mapped to their descriptions
func ListCourseTemplates() map[string]string {
	out := make(map[string]string, len(courseTemplates))
	for key, tmpl := range courseTemplates {
		out[key] = tmpl.Description
	}
	return out
}
