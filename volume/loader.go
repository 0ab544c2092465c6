// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/parallel"
)

// Texture is a volume image resident on the GPU.
type Texture struct {
	// ID is the backend texture handle.
	ID gpucore.TextureID

	// Size is the texel extent, equal to the image's sample dimensions.
	Size [3]int

	// Format is the texel format chosen for the element type.
	Format gpucore.TextureFormat

	// Streamed reports that samples were converted and uploaded slice by
	// slice with normalization applied on the CPU.
	Streamed bool

	// Norm holds the normalization of every image component.
	Norm []Normalization

	// Filter is the current sampling filter.
	Filter gpucore.FilterMode

	// Uploads counts the WriteTexture calls of the last load.
	Uploads int

	image     *Image
	loadTime  uint64
	contextID uint64
}

// ShaderScaleBias returns the per-component scale and bias the fragment
// stage applies to texture reads. Streamed textures already hold
// normalized values, and dependent colour components (3 or 4 dependent
// components) are read unscaled.
func (t *Texture) ShaderScaleBias(independent bool) (scale, bias [4]float32) {
	scale = [4]float32{1, 1, 1, 1}
	n := len(t.Norm)
	if t.Streamed || !(n == 1 || n == 2 || independent) {
		return scale, bias
	}
	for i := 0; i < n; i++ {
		scale[i] = float32(t.Norm[i].Scale)
		bias[i] = float32(t.Norm[i].Bias)
	}
	return scale, bias
}

// Image returns the image the texture was loaded from.
func (t *Texture) Image() *Image { return t.image }

// Loader uploads volume images into 3D textures. A Loader owns at most one
// texture at a time; loading a new image replaces it.
type Loader struct {
	backend gpucore.Backend
	tex     *Texture
}

// NewLoader creates a loader that allocates textures on b.
func NewLoader(b gpucore.Backend) *Loader {
	return &Loader{backend: b}
}

// Texture returns the current texture, or nil before the first load.
func (l *Loader) Texture() *Texture { return l.tex }

// NeedsLoad reports whether img differs from what is resident: a different
// image, a newer modification time, or a lost context.
func (l *Loader) NeedsLoad(img *Image) bool {
	t := l.tex
	return t == nil || t.image != img || img.MTime() > t.loadTime ||
		t.contextID != l.backend.Capabilities().ContextID
}

// Load uploads img using filter and replaces the current texture.
//
// 8-bit integers (as unorm or snorm) and float32 data (when the backend
// has float textures) are uploaded in one call and normalized by the
// shader. 16-bit integers have no filterable normalized format in core
// WebGPU, so they, the 32- and 64-bit types and every 3-component image
// are converted slice by slice to float32 (or 8-bit when float textures
// are unavailable) with the normalization applied on the CPU. Host memory
// never holds more than one converted slice.
//
// Returns ErrTextureTooLarge before allocating anything when the sample
// dimensions exceed the backend's 3D texture limit.
func (l *Loader) Load(img *Image, filter gpucore.FilterMode) (*Texture, error) {
	typ := img.ScalarType()
	if !typ.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScalarType, typ)
	}
	nc := img.Components()
	if nc < 1 || nc > 4 {
		return nil, fmt.Errorf("%w: %d", ErrComponentCount, nc)
	}

	caps := l.backend.Capabilities()
	dims := img.Shape().SampleDims()
	if limit := caps.MaxTextureSize3D; limit > 0 {
		for _, d := range dims {
			if d > limit {
				return nil, fmt.Errorf("%w: %dx%dx%d > %d", ErrTextureTooLarge, dims[0], dims[1], dims[2], limit)
			}
		}
	}

	ranges := img.Ranges()
	norm := make([]Normalization, nc)
	for c := range norm {
		norm[c] = ComputeNormalization(typ, ranges[c])
	}

	texComps := nc
	if texComps == 3 {
		texComps = 4
	}
	format, streamed := chooseFormat(typ, nc, caps.FloatTextures)
	if !streamed {
		texComps = nc
	}
	if format == 0 {
		format = gpucore.UnormFormat(texComps)
		if caps.FloatTextures {
			format = gpucore.FloatFormat(texComps)
		}
	}

	desc := &gpucore.TextureDescriptor{
		Label:     "volume",
		Dimension: gpucore.TextureDimension3D,
		Width:     dims[0],
		Height:    dims[1],
		Depth:     dims[2],
		Format:    format,
		Filter:    filter,
		Wrap:      gpucore.WrapClampToEdge,
	}
	id, err := l.backend.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("volume: create texture: %w", err)
	}

	tex := &Texture{
		ID:        id,
		Size:      dims,
		Format:    format,
		Streamed:  streamed,
		Norm:      norm,
		Filter:    filter,
		image:     img,
		loadTime:  img.MTime(),
		contextID: caps.ContextID,
	}
	if streamed {
		err = l.stream(tex, img, texComps)
	} else {
		err = l.backend.WriteTexture(id, gpucore.FullRegion(desc), img.Bytes())
		tex.Uploads = 1
	}
	if err != nil {
		l.backend.DestroyTexture(id)
		return nil, fmt.Errorf("volume: upload: %w", err)
	}

	l.Release()
	l.tex = tex
	return tex, nil
}

// chooseFormat returns the direct-upload format for typ, or streamed=true
// when samples must be converted first. A zero format with streamed=true
// leaves the choice to the caller.
func chooseFormat(typ ScalarType, nc int, floatTextures bool) (gpucore.TextureFormat, bool) {
	if nc == 3 {
		return 0, true
	}
	switch {
	case typ == Uint8:
		return gpucore.UnormFormat(nc), false
	case typ == Int8:
		return gpucore.SnormFormat(nc), false
	case typ == Float32 && floatTextures:
		return gpucore.FloatFormat(nc), false
	}
	return 0, true
}

// stream converts and uploads one z slice at a time.
func (l *Loader) stream(tex *Texture, img *Image, texComps int) error {
	dims := tex.Size
	nc := img.Components()
	bpc := tex.Format.BytesPerTexel() / texComps
	slice := make([]byte, dims[0]*dims[1]*texComps*bpc)

	pool := parallel.Shared()
	texels := dims[0] * dims[1]
	for z := 0; z < dims[2]; z++ {
		src := z * texels
		pool.For(texels, sliceGrain, func(_, start, end int) {
			for i := start; i < end; i++ {
				for c := 0; c < texComps; c++ {
					var v float64
					if c < nc {
						v = tex.Norm[c].Apply(img.Value(src+i, c))
					}
					off := (i*texComps + c) * bpc
					if bpc == 4 {
						binary.LittleEndian.PutUint32(slice[off:], math.Float32bits(float32(v)))
					} else {
						slice[off] = quantize(v)
					}
				}
			}
		})
		region := gpucore.TextureRegion{Z: z, Width: dims[0], Height: dims[1], Depth: 1}
		if err := l.backend.WriteTexture(tex.ID, region, slice); err != nil {
			return err
		}
		tex.Uploads++
	}
	return nil
}

const sliceGrain = 1 << 14

// quantize maps [0,1] onto an 8-bit normalized value.
func quantize(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(math.Round(v * 255))
}

// SetFilter changes the sampling filter without re-uploading.
func (l *Loader) SetFilter(filter gpucore.FilterMode) error {
	if l.tex == nil || l.tex.Filter == filter {
		return nil
	}
	if err := l.backend.SetTextureFilter(l.tex.ID, filter); err != nil {
		return fmt.Errorf("volume: set filter: %w", err)
	}
	l.tex.Filter = filter
	return nil
}

// Release destroys the current texture.
func (l *Loader) Release() {
	if l.tex == nil {
		return
	}
	l.backend.DestroyTexture(l.tex.ID)
	l.tex = nil
}

// Forget drops the current texture without destroying it. Used after a
// context loss, when the backend has already discarded every resource.
func (l *Loader) Forget() {
	l.tex = nil
}
