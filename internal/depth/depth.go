// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package depth captures the scene depth buffer into a texture the ray
// caster samples to stop rays at opaque geometry.
package depth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/logging"
)

// ErrUnsupported is returned by Capture when the context lacks the
// capabilities depth capture needs. The caller disables early ray
// termination against scene depth.
var ErrUnsupported = errors.New("depth: depth texture capture not supported")

// Probe is the cached result of the capability check for one context.
type Probe struct {
	ContextID  uint64
	Supported  bool
	Diagnostic string
}

// Check inspects caps for everything depth capture needs.
func Check(caps gpucore.Capabilities) Probe {
	var missing []string
	if !caps.NPOTTextures {
		missing = append(missing, "non-power-of-two textures")
	}
	if !caps.FloatTextures {
		missing = append(missing, "float textures")
	}
	if !caps.FramebufferObjects {
		missing = append(missing, "framebuffer objects")
	}
	if !caps.DepthCopy {
		missing = append(missing, "depth copy")
	}
	p := Probe{ContextID: caps.ContextID, Supported: len(missing) == 0}
	if !p.Supported {
		p.Diagnostic = "missing " + strings.Join(missing, ", ")
		if caps.Diagnostic != "" {
			p.Diagnostic += "; " + caps.Diagnostic
		}
	}
	return p
}

// Capture owns the Depth32Float copy of the scene depth buffer.
type Capture struct {
	backend gpucore.Backend
	name    string
	log     *slog.Logger

	probe  *Probe
	id     gpucore.TextureID
	width  int
	height int
	copies uint64
}

// NewCapture returns a capture that binds to slot name.
func NewCapture(b gpucore.Backend, name string) *Capture {
	return &Capture{backend: b, name: name, log: logging.Nop()}
}

// SetLogger sets the logger. Nil silences logging.
func (c *Capture) SetLogger(l *slog.Logger) { c.log = logging.OrNop(l) }

// Probe returns the capability check for the current context, running it
// on first use and again after the context changed. A failed check is
// logged once per context.
func (c *Capture) Probe() Probe {
	caps := c.backend.Capabilities()
	if c.probe != nil && c.probe.ContextID == caps.ContextID {
		return *c.probe
	}
	if c.probe != nil {
		// The old texture went away with its context.
		c.id = gpucore.InvalidID
	}
	p := Check(caps)
	c.probe = &p
	if !p.Supported {
		c.log.Warn("depth: capture disabled", "context", p.ContextID, "reason", p.Diagnostic)
	}
	return p
}

// Supported reports whether capture works in the current context.
func (c *Capture) Supported() bool { return c.Probe().Supported }

// Capture copies the viewport region of the current depth buffer into the
// depth texture, reallocating it when the viewport size changed.
func (c *Capture) Capture(vp gpucore.Viewport) error {
	p := c.Probe()
	if !p.Supported {
		return fmt.Errorf("%w: %s", ErrUnsupported, p.Diagnostic)
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("depth: empty viewport %dx%d", vp.Width, vp.Height)
	}
	if c.id == gpucore.InvalidID || c.width != vp.Width || c.height != vp.Height {
		if c.id != gpucore.InvalidID {
			c.backend.DestroyTexture(c.id)
			c.id = gpucore.InvalidID
		}
		id, err := c.backend.CreateTexture(&gpucore.TextureDescriptor{
			Label:     c.name,
			Dimension: gpucore.TextureDimension2D,
			Width:     vp.Width,
			Height:    vp.Height,
			Depth:     1,
			Format:    gpucore.TextureFormatDepth32Float,
			Filter:    gpucore.FilterLinear,
			Wrap:      gpucore.WrapClampToEdge,
		})
		if err != nil {
			return fmt.Errorf("depth: create texture: %w", err)
		}
		c.id, c.width, c.height = id, vp.Width, vp.Height
	}
	if err := c.backend.CopyDepth(c.id, vp); err != nil {
		return fmt.Errorf("depth: copy: %w", err)
	}
	c.copies++
	return nil
}

// ID returns the depth texture, or InvalidID before the first capture.
func (c *Capture) ID() gpucore.TextureID { return c.id }

// Copies returns the number of successful captures.
func (c *Capture) Copies() uint64 { return c.copies }

// Bind binds the depth texture to its slot in p, if p samples it.
func (c *Capture) Bind(p *gpucore.Program) error {
	slot := p.SlotOf(c.name)
	if slot < 0 {
		return nil
	}
	if c.id == gpucore.InvalidID {
		return fmt.Errorf("depth: bind %s: %w", c.name, gpucore.ErrUnknownResource)
	}
	return c.backend.BindTexture(slot, c.id)
}

// Release destroys the depth texture.
func (c *Capture) Release() {
	if c.id != gpucore.InvalidID && c.probe != nil &&
		c.probe.ContextID == c.backend.Capabilities().ContextID {
		c.backend.DestroyTexture(c.id)
	}
	c.id = gpucore.InvalidID
	c.width, c.height = 0, 0
}
