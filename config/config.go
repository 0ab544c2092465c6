// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads and saves volray settings as YAML.
//
// A missing file yields the defaults, so a fresh installation runs without
// any configuration:
//
//	cfg, err := config.Load("volray.yaml")
//	if err != nil {
//		return err
//	}
//	m, err := volray.NewMapper(backend, volray.WithConfig(cfg))
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the complete configuration.
type Config struct {
	Renderer  Renderer  `yaml:"renderer"`
	Sampling  Sampling  `yaml:"sampling"`
	Tables    Tables    `yaml:"tables"`
	Mask      Mask      `yaml:"mask"`
	Noise     Noise     `yaml:"noise"`
	DepthPass DepthPass `yaml:"depth_pass"`
	Logging   Logging   `yaml:"logging"`
}

// Renderer selects the backend and the output.
type Renderer struct {
	// Backend is a registered backend name; empty selects the best available.
	Backend string `yaml:"backend"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// RenderToImage renders into offscreen colour and depth textures.
	RenderToImage bool `yaml:"render_to_image"`

	// Blend is the blend mode name (composite, additive, mip, minip,
	// average, isosurface, slice).
	Blend string `yaml:"blend"`

	// Jitter offsets ray starts with the noise texture.
	Jitter bool `yaml:"jitter"`
}

// Sampling controls the ray step and the image sample distance.
type Sampling struct {
	// SampleDistance is the world space step used when AutoAdjust is off.
	SampleDistance float64 `yaml:"sample_distance"`

	// AutoAdjust derives the step from the voxel spacing and the frame
	// time budget.
	AutoAdjust bool `yaml:"auto_adjust"`

	// LockToInputSpacing snaps the step to the spacing-derived distance.
	LockToInputSpacing bool `yaml:"lock_to_input_spacing"`

	ImageSampleDistance        float64 `yaml:"image_sample_distance"`
	MinimumImageSampleDistance float64 `yaml:"minimum_image_sample_distance"`
	MaximumImageSampleDistance float64 `yaml:"maximum_image_sample_distance"`

	// InteractiveUpdateRate is the target frame rate while interacting.
	InteractiveUpdateRate float64 `yaml:"interactive_update_rate"`
}

// Tables sizes the transfer function lookup tables.
type Tables struct {
	Width int `yaml:"width"`
}

// Mask bounds mask texture memory.
type Mask struct {
	MaxMemoryBytes    int64   `yaml:"max_memory_bytes"`
	MaxMemoryFraction float64 `yaml:"max_memory_fraction"`
	MaxEntries        int     `yaml:"max_entries"`
}

// Noise sizes the jitter texture.
type Noise struct {
	Size int    `yaml:"size"`
	Seed uint64 `yaml:"seed"`
}

// DepthPass enables the isosurface depth pre-pass.
type DepthPass struct {
	Enabled bool `yaml:"enabled"`

	// Contours are the isovalues of the pre-pass, in data units.
	Contours []float64 `yaml:"contours"`
}

// Logging configures the default logger built by NewLogger.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Renderer: Renderer{
			Width:  512,
			Height: 512,
			Blend:  "composite",
		},
		Sampling: Sampling{
			SampleDistance:             1.0,
			AutoAdjust:                 true,
			ImageSampleDistance:        1.0,
			MinimumImageSampleDistance: 1.0,
			MaximumImageSampleDistance: 10.0,
			InteractiveUpdateRate:      15,
		},
		Tables: Tables{Width: 1024},
		Mask: Mask{
			MaxMemoryBytes:    256 * 1024 * 1024,
			MaxMemoryFraction: 0.75,
			MaxEntries:        16,
		},
		Noise: Noise{Size: 128, Seed: 1},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path, creating the directory when needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: config is not secret
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// maxContours matches the isovalue slots of the ray caster.
const maxContours = 4

var blendNames = map[string]bool{
	"composite": true, "additive": true, "mip": true, "minip": true,
	"average": true, "isosurface": true, "slice": true,
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	r, s := c.Renderer, c.Sampling
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: renderer size %dx%d", ErrInvalid, r.Width, r.Height)
	case r.Blend != "" && !blendNames[r.Blend]:
		return fmt.Errorf("%w: renderer blend %q", ErrInvalid, r.Blend)
	case s.SampleDistance <= 0:
		return fmt.Errorf("%w: sample_distance %g", ErrInvalid, s.SampleDistance)
	case s.ImageSampleDistance <= 0:
		return fmt.Errorf("%w: image_sample_distance %g", ErrInvalid, s.ImageSampleDistance)
	case s.MinimumImageSampleDistance <= 0 || s.MinimumImageSampleDistance > s.MaximumImageSampleDistance:
		return fmt.Errorf("%w: image sample distance bounds [%g, %g]", ErrInvalid,
			s.MinimumImageSampleDistance, s.MaximumImageSampleDistance)
	case s.InteractiveUpdateRate < 0:
		return fmt.Errorf("%w: interactive_update_rate %g", ErrInvalid, s.InteractiveUpdateRate)
	case c.Tables.Width < 2:
		return fmt.Errorf("%w: table width %d", ErrInvalid, c.Tables.Width)
	case c.Mask.MaxMemoryBytes < 0 || c.Mask.MaxEntries < 0:
		return fmt.Errorf("%w: negative mask budget", ErrInvalid)
	case c.Mask.MaxMemoryFraction < 0 || c.Mask.MaxMemoryFraction > 1:
		return fmt.Errorf("%w: max_memory_fraction %g", ErrInvalid, c.Mask.MaxMemoryFraction)
	case c.Noise.Size < 1:
		return fmt.Errorf("%w: noise size %d", ErrInvalid, c.Noise.Size)
	case len(c.DepthPass.Contours) > maxContours:
		return fmt.Errorf("%w: %d depth pass contours, at most %d", ErrInvalid, len(c.DepthPass.Contours), maxContours)
	case c.DepthPass.Enabled && len(c.DepthPass.Contours) == 0:
		return fmt.Errorf("%w: depth pass enabled without contours", ErrInvalid)
	}
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	if f := c.Logging.Format; f != "" && f != "text" && f != "json" {
		return fmt.Errorf("%w: logging format %q", ErrInvalid, f)
	}
	return nil
}

func (l Logging) level() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: logging level %q", ErrInvalid, l.Level)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to stderr as configured.
func (l Logging) NewLogger() (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
