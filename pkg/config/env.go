// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by ApplyEnv
const (
	EnvFixedTick    = "MARBLES_FIXED_TICK"
	EnvTimeScale    = "MARBLES_TIME_SCALE"
	EnvMaxFrameTime = "MARBLES_MAX_FRAME_TIME"
	EnvSeed         = "MARBLES_SEED"
	EnvPopulation   = "MARBLES_POPULATION"
	EnvRenderer     = "MARBLES_RENDERER"
	EnvCourse       = "MARBLES_COURSE"
)

// ApplyEnv overrides fields from MARBLES_* environment variables.
// Unset or empty variables leave the field alone; malformed values are errors.
func (c *SimConfig) ApplyEnv() error {
	if err := envFloat(EnvFixedTick, &c.Timing.FixedTick); err != nil {
		return err
	}
	if err := envFloat(EnvTimeScale, &c.Timing.TimeScale); err != nil {
		return err
	}
	if err := envFloat(EnvMaxFrameTime, &c.Timing.MaxFrameTime); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		c.Spawn.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvPopulation); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPopulation, err)
		}
		c.Spawn.Population = n
	}
	if v, ok := os.LookupEnv(EnvRenderer); ok && v != "" {
		c.Render.Renderer = v
	}
	if v, ok := os.LookupEnv(EnvCourse); ok && v != "" {
		tmpl := GetCourseTemplate(v)
		if tmpl == nil {
			return fmt.Errorf("invalid %s: unknown course %q", EnvCourse, v)
		}
		c.Platforms = tmpl.Platforms
	}
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}
