// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lut

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/volray/gpucore"
)

// DefaultWidth is the number of entries of a 1D lookup table.
const DefaultWidth = 1024

// texture is the GPU side shared by every table kind: one texture that is
// recreated on context loss or size change and overwritten on rebuild.
type texture struct {
	backend gpucore.Backend
	name    string

	id        gpucore.TextureID
	dim       gpucore.TextureDimension
	width     int
	height    int
	channels  int
	format    gpucore.TextureFormat
	filter    gpucore.FilterMode
	contextID uint64

	buildTime uint64
	loaded    bool
}

func newTexture(b gpucore.Backend, name string, channels int) texture {
	return texture{backend: b, name: name, channels: channels, dim: gpucore.TextureDimension2D, height: 1}
}

// lost reports whether the backend context changed since the upload.
func (t *texture) lost() bool {
	return t.loaded && t.contextID != t.backend.Capabilities().ContextID
}

// upload writes values (channels per texel) into the texture, creating it
// when needed.
func (t *texture) upload(values []float32, width, height int, filter gpucore.FilterMode) error {
	caps := t.backend.Capabilities()
	format := gpucore.UnormFormat(t.channels)
	if caps.FloatTextures {
		format = gpucore.FloatFormat(t.channels)
	}

	if t.id == gpucore.InvalidID || t.contextID != caps.ContextID ||
		t.width != width || t.height != height || t.format != format {
		if t.id != gpucore.InvalidID && t.contextID == caps.ContextID {
			t.backend.DestroyTexture(t.id)
		}
		// 1D tables are stored as one-row 2D textures: the ray marcher
		// samples them with an explicit level, which 1D textures lack.
		dim := gpucore.TextureDimension2D
		id, err := t.backend.CreateTexture(&gpucore.TextureDescriptor{
			Label:     t.name,
			Dimension: dim,
			Width:     width,
			Height:    height,
			Depth:     1,
			Format:    format,
			Filter:    filter,
			Wrap:      gpucore.WrapClampToEdge,
		})
		if err != nil {
			t.id = gpucore.InvalidID
			t.loaded = false
			return fmt.Errorf("lut: create %s: %w", t.name, err)
		}
		t.id, t.dim, t.width, t.height, t.format = id, dim, width, height, format
		t.contextID = caps.ContextID
		t.filter = filter
	} else if t.filter != filter {
		if err := t.backend.SetTextureFilter(t.id, filter); err != nil {
			return fmt.Errorf("lut: filter %s: %w", t.name, err)
		}
		t.filter = filter
	}

	region := gpucore.TextureRegion{Width: width, Height: height, Depth: 1}
	if err := t.backend.WriteTexture(t.id, region, pack(format, values)); err != nil {
		return fmt.Errorf("lut: upload %s: %w", t.name, err)
	}
	t.loaded = true
	return nil
}

// pack converts float values into texel bytes of format.
func pack(format gpucore.TextureFormat, values []float32) []byte {
	if format.BytesPerTexel()/format.Components() == 4 {
		out := make([]byte, 4*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	}
	out := make([]byte, len(values))
	for i, v := range values {
		switch {
		case v <= 0:
			out[i] = 0
		case v >= 1:
			out[i] = 255
		default:
			out[i] = byte(math.Round(float64(v) * 255))
		}
	}
	return out
}

// Name returns the shader slot name the table binds to.
func (t *texture) Name() string { return t.name }

// ID returns the backend texture, or InvalidID before the first upload.
func (t *texture) ID() gpucore.TextureID { return t.id }

// IsLoaded reports whether an upload has succeeded in the current context.
func (t *texture) IsLoaded() bool {
	return t.loaded && !t.lost()
}

// BuildTime returns the modification time of the last successful build.
func (t *texture) BuildTime() uint64 { return t.buildTime }

// Bind binds the texture to its slot in p. Tables the program does not
// sample are skipped.
func (t *texture) Bind(p *gpucore.Program) error {
	slot := p.SlotOf(t.name)
	if slot < 0 {
		return nil
	}
	if !t.IsLoaded() {
		return fmt.Errorf("lut: bind %s: %w", t.name, gpucore.ErrUnknownResource)
	}
	return t.backend.BindTexture(slot, t.id)
}

// Release destroys the texture.
func (t *texture) Release() {
	if t.id != gpucore.InvalidID && !t.lost() {
		t.backend.DestroyTexture(t.id)
	}
	t.id = gpucore.InvalidID
	t.loaded = false
}

func checkRange(rng [2]float64) error {
	if rng[0] == rng[1] || math.IsNaN(rng[0]) || math.IsNaN(rng[1]) {
		return fmt.Errorf("%w: [%g, %g]", ErrDegenerateRange, rng[0], rng[1])
	}
	return nil
}
