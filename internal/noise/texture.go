// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noise

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/volray/gpucore"
)

// Texture defaults.
const (
	DefaultSize      = 128
	DefaultCells     = 16
	DefaultAmplitude = 0.5
	DefaultSeed      = 1
)

// Texture is the square jitter texture. It stores the noise field shifted
// into [0, 1] so the fragment stage reads a jitter fraction directly.
// The field is generated once; the GPU texture is recreated only after a
// context loss.
type Texture struct {
	backend gpucore.Backend
	name    string
	size    int
	seed    uint64

	id        gpucore.TextureID
	texSize   int
	contextID uint64
	field     []float32
}

// NewTexture returns an unallocated noise texture bound to slot name.
// A size of 0 selects DefaultSize.
func NewTexture(b gpucore.Backend, name string, size int) *Texture {
	if size <= 0 {
		size = DefaultSize
	}
	return &Texture{backend: b, name: name, size: size, seed: DefaultSeed}
}

// SetSeed changes the noise seed. The next Ensure regenerates and
// uploads the field when the seed differs.
func (t *Texture) SetSeed(seed uint64) {
	if seed == t.seed {
		return
	}
	t.seed = seed
	t.field = nil
	t.Release()
}

// Ensure creates and uploads the texture if it does not exist in the
// current context. It reports whether an upload happened.
func (t *Texture) Ensure() (bool, error) {
	caps := t.backend.Capabilities()
	if t.id != gpucore.InvalidID && t.contextID == caps.ContextID {
		return false, nil
	}

	size := t.size
	if limit := caps.MaxTextureSize2D; limit > 0 && size > limit {
		size = limit
	}
	if t.field == nil || t.texSize != size {
		t.field = Field(t.seed, size, DefaultCells, DefaultAmplitude)
		t.texSize = size
	}

	format := gpucore.TextureFormatR8Unorm
	if caps.FloatTextures {
		format = gpucore.TextureFormatR32Float
	}
	desc := &gpucore.TextureDescriptor{
		Label:     t.name,
		Dimension: gpucore.TextureDimension2D,
		Width:     size,
		Height:    size,
		Depth:     1,
		Format:    format,
		Filter:    gpucore.FilterNearest,
		Wrap:      gpucore.WrapRepeat,
	}
	id, err := t.backend.CreateTexture(desc)
	if err != nil {
		return false, fmt.Errorf("noise: create texture: %w", err)
	}
	if err := t.backend.WriteTexture(id, gpucore.FullRegion(desc), encode(format, t.field)); err != nil {
		t.backend.DestroyTexture(id)
		return false, fmt.Errorf("noise: upload: %w", err)
	}
	t.id = id
	t.contextID = caps.ContextID
	return true, nil
}

func encode(format gpucore.TextureFormat, field []float32) []byte {
	if format == gpucore.TextureFormatR32Float {
		out := make([]byte, 4*len(field))
		for i, v := range field {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v+0.5))
		}
		return out
	}
	out := make([]byte, len(field))
	for i, v := range field {
		out[i] = byte(math.Round(math.Max(0, math.Min(1, float64(v)+0.5)) * 255))
	}
	return out
}

// Field returns the noise values in [-0.5, 0.5], or nil before Ensure.
func (t *Texture) Field() []float32 { return t.field }

// ID returns the backend texture.
func (t *Texture) ID() gpucore.TextureID { return t.id }

// Size returns the texture edge length of the last upload.
func (t *Texture) Size() int { return t.texSize }

// Bind binds the texture to its slot in p, if p samples it.
func (t *Texture) Bind(p *gpucore.Program) error {
	slot := p.SlotOf(t.name)
	if slot < 0 {
		return nil
	}
	return t.backend.BindTexture(slot, t.id)
}

// Release destroys the texture. The generated field is kept.
func (t *Texture) Release() {
	if t.id != gpucore.InvalidID && t.contextID == t.backend.Capabilities().ContextID {
		t.backend.DestroyTexture(t.id)
	}
	t.id = gpucore.InvalidID
}
