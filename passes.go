package volray

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/volray/gpucore"
)

// offscreen is a colour plus depth render target sized to the viewport.
type offscreen struct {
	backend gpucore.Backend
	label   string

	color, depth  gpucore.TextureID
	width, height int
	contextID     uint64
}

func newOffscreen(b gpucore.Backend, label string) *offscreen {
	return &offscreen{backend: b, label: label}
}

// ensure allocates the attachments, recreating them when the size or
// the graphics context changed. It reports whether it allocated.
func (o *offscreen) ensure(width, height int) (bool, error) {
	ctx := o.backend.Capabilities().ContextID
	if o.color != gpucore.InvalidID && o.contextID == ctx && o.width == width && o.height == height {
		return false, nil
	}
	if o.contextID == ctx {
		o.release()
	}
	o.color, o.depth = gpucore.InvalidID, gpucore.InvalidID

	usage := gpucore.TextureUsageRenderAttachment | gpucore.TextureUsageTextureBinding | gpucore.TextureUsageCopySrc
	desc := gpucore.TextureDescriptor{
		Dimension: gpucore.TextureDimension2D,
		Width:     width,
		Height:    height,
		Depth:     1,
		Filter:    gpucore.FilterNearest,
		Wrap:      gpucore.WrapClampToEdge,
		Usage:     usage,
	}

	desc.Label, desc.Format = o.label+"-color", gpucore.TextureFormatRGBA8Unorm
	color, err := o.backend.CreateTexture(&desc)
	if err != nil {
		return false, fmt.Errorf("volray: %s colour target: %w", o.label, err)
	}
	desc.Label, desc.Format = o.label+"-depth", gpucore.TextureFormatDepth32Float
	depth, err := o.backend.CreateTexture(&desc)
	if err != nil {
		o.backend.DestroyTexture(color)
		return false, fmt.Errorf("volray: %s depth target: %w", o.label, err)
	}
	o.color, o.depth = color, depth
	o.width, o.height = width, height
	o.contextID = ctx
	return true, nil
}

// target returns the attachments, cleared before drawing.
func (o *offscreen) target() gpucore.Target {
	return gpucore.Target{Color: o.color, Depth: o.depth, Clear: true}
}

// viewport covers the whole target.
func (o *offscreen) viewport() gpucore.Viewport {
	return gpucore.Viewport{Width: o.width, Height: o.height}
}

func (o *offscreen) allocated() bool {
	return o.color != gpucore.InvalidID && o.contextID == o.backend.Capabilities().ContextID
}

// release destroys the attachments if they belong to the current context.
func (o *offscreen) release() {
	if o.contextID == o.backend.Capabilities().ContextID {
		if o.color != gpucore.InvalidID {
			o.backend.DestroyTexture(o.color)
		}
		if o.depth != gpucore.InvalidID {
			o.backend.DestroyTexture(o.depth)
		}
	}
	o.color, o.depth = gpucore.InvalidID, gpucore.InvalidID
	o.width, o.height = 0, 0
}

// readColor reads the colour attachment as a premultiplied RGBA image.
func (o *offscreen) readColor() (*image.RGBA, error) {
	if !o.allocated() {
		return nil, ErrNoImage
	}
	pix, err := o.backend.ReadTexture(o.color)
	if err != nil {
		return nil, fmt.Errorf("volray: read colour: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, o.width, o.height))
	copy(img.Pix, pix)
	return img, nil
}

// DepthBuffer is window depth in [0, 1] per pixel, rows top to bottom.
// Pixels no ray stopped in hold 1.
type DepthBuffer struct {
	Width, Height int
	Depth         []float32
}

// At returns the depth of pixel (x, y).
func (d *DepthBuffer) At(x, y int) float32 {
	return d.Depth[y*d.Width+x]
}

func (o *offscreen) readDepth() (*DepthBuffer, error) {
	if !o.allocated() {
		return nil, ErrNoImage
	}
	raw, err := o.backend.ReadTexture(o.depth)
	if err != nil {
		return nil, fmt.Errorf("volray: read depth: %w", err)
	}
	out := &DepthBuffer{Width: o.width, Height: o.height, Depth: make([]float32, o.width*o.height)}
	for i := range out.Depth {
		if 4*i+4 > len(raw) {
			break
		}
		out.Depth[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
