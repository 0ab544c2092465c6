//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/volray/gpucore"
)

// copyPitchAlignment is the row alignment of texture to buffer copies.
const copyPitchAlignment = 256

// createFrame allocates the offscreen frame that stands in for the default
// framebuffer.
func (b *Backend) createFrame(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	color, err := b.createTexture(&gpucore.TextureDescriptor{
		Label:     "volray_frame",
		Dimension: gpucore.TextureDimension2D,
		Width:     width, Height: height, Depth: 1,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	depth, err := b.createTexture(&gpucore.TextureDescriptor{
		Label:     "volray_frame_depth",
		Dimension: gpucore.TextureDimension2D,
		Width:     width, Height: height, Depth: 1,
		Format: gpucore.TextureFormatDepth32Float,
		Filter: gpucore.FilterNearest,
	})
	if err != nil {
		b.destroyTexture(color)
		return err
	}
	b.frame, b.frameDepth = color, depth
	b.viewport = gpucore.Viewport{Width: width, Height: height}
	return nil
}

// Frame returns the offscreen color and depth textures.
func (b *Backend) Frame() (color, depth gpucore.TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame, b.frameDepth
}

// ResizeFrame replaces the offscreen frame.
func (b *Backend) ResizeFrame(width, height int) error {
	b.mu.Lock()
	b.destroyTexture(b.frame)
	b.destroyTexture(b.frameDepth)
	b.mu.Unlock()
	return b.createFrame(width, height)
}

// ReadFrame reads back the offscreen frame as RGBA8 pixels.
func (b *Backend) ReadFrame() (pixels []byte, width, height int, err error) {
	b.mu.Lock()
	t, ok := b.textures[b.frame]
	b.mu.Unlock()
	if !ok {
		return nil, 0, 0, gpucore.ErrClosed
	}
	pixels, err = b.ReadTexture(b.frame)
	return pixels, t.desc.Width, t.desc.Height, err
}

// ClearFrame marks the frame attachments so the next draw clears them.
func (b *Backend) ClearFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range []gpucore.TextureID{b.frame, b.frameDepth} {
		if t, ok := b.textures[id]; ok {
			t.cleared = false
		}
	}
}

func loadOp(t *texture) gputypes.LoadOp {
	if t.cleared {
		return gputypes.LoadOpLoad
	}
	t.cleared = true
	return gputypes.LoadOpClear
}

// DrawIndexed records one render pass drawing the bound geometry with the
// active program, submits it and waits.
func (b *Backend) DrawIndexed(call gpucore.DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.ErrClosed
	}
	p, ok := b.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, call.Program)
	}
	vb, ok := b.buffers[call.VertexBuffer]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.VertexBuffer)
	}
	ib, ok := b.buffers[call.IndexBuffer]
	if !ok {
		return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.IndexBuffer)
	}

	colorID, depthID := b.target.Color, b.target.Depth
	if colorID == gpucore.InvalidID {
		colorID = b.frame
	}
	if depthID == gpucore.InvalidID {
		depthID = b.frameDepth
	}
	color, err := b.texture(colorID)
	if err != nil {
		return err
	}
	depth, err := b.texture(depthID)
	if err != nil {
		return err
	}

	pl, err := b.pipeline(p, newPipelineKey(b.state, textureFormat(color.desc.Format)))
	if err != nil {
		return err
	}
	group, err := b.bindGroup(p)
	if err != nil {
		return err
	}
	defer b.device.DestroyBindGroup(group)

	enc, err := b.encoder(p.desc.Label)
	if err != nil {
		return err
	}
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       color.view,
			LoadOp:     loadOp(color),
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     loadOp(depth),
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, group, nil)
	rp.SetVertexBuffer(0, vb.buf, 0)
	rp.SetIndexBuffer(ib.buf, gputypes.IndexFormatUint32, 0)
	if v := b.viewport; !v.Empty() {
		rp.SetViewport(float32(v.X), float32(v.Y), float32(v.Width), float32(v.Height), 0, 1)
	}
	rp.DrawIndexed(uint32(call.IndexCount), 1, 0, 0, 0) //nolint:gosec // G115: index counts are small
	rp.End()
	return b.submit(enc)
}

// bindGroup binds the uniform buffer and the texture bound at each slot.
func (b *Backend) bindGroup(p *program) (hal.BindGroup, error) {
	entries := []gputypes.BindGroupEntry{{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Offset: 0, Size: p.uniformSize},
	}}
	for i, s := range p.desc.Textures {
		id, ok := b.slots[i]
		if !ok {
			return nil, fmt.Errorf("%w: slot %d (%s) has no texture", gpucore.ErrUnknownResource, i, s.Name)
		}
		t, err := b.texture(id)
		if err != nil {
			return nil, err
		}
		if s.Depth != t.desc.Format.IsDepth() {
			return nil, fmt.Errorf("%w: slot %d (%s) bound to %s texture", gpucore.ErrInvalidDescriptor, i, s.Name, t.desc.Format)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(s.Binding), //nolint:gosec // G115: bindings are small
			Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
		})
		if s.SamplerBinding >= 0 {
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  uint32(s.SamplerBinding), //nolint:gosec // G115: bindings are small
				Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()},
			})
		}
	}
	g, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.desc.Label + "_bind",
		Layout:  p.bgl,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	return g, nil
}

// CopyDepth copies the viewport region of the frame depth into id.
func (b *Backend) CopyDepth(id gpucore.TextureID, viewport gpucore.Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dst, err := b.texture(id)
	if err != nil {
		return err
	}
	src, err := b.texture(b.frameDepth)
	if err != nil {
		return err
	}
	if !dst.desc.Format.IsDepth() {
		return fmt.Errorf("%w: CopyDepth into %s texture", gpucore.ErrInvalidDescriptor, dst.desc.Format)
	}
	if viewport.Width != dst.desc.Width || viewport.Height != dst.desc.Height {
		return fmt.Errorf("%w: viewport %dx%d, texture %dx%d", gpucore.ErrInvalidDescriptor,
			viewport.Width, viewport.Height, dst.desc.Width, dst.desc.Height)
	}

	enc, err := b.encoder("volray_depth_copy")
	if err != nil {
		return err
	}
	if !src.cleared {
		// Nothing was drawn into the frame yet: its depth is the clear value.
		src.cleared = true
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "volray_depth_clear",
			DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
				View:            src.view,
				DepthLoadOp:     gputypes.LoadOpClear,
				DepthStoreOp:    gputypes.StoreOpStore,
				DepthClearValue: 1.0,
			},
		})
		rp.End()
	}
	transition(enc, src.tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
	//nolint:gosec // G115: viewport extents are bounded by the frame
	enc.CopyTextureToTexture(src.tex, dst.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{
			Texture: src.tex,
			Origin:  hal.Origin3D{X: uint32(viewport.X), Y: uint32(viewport.Y)},
		},
		DstBase: hal.ImageCopyTexture{Texture: dst.tex},
		Size:    extent(viewport.Width, viewport.Height, 1),
	}})
	transition(enc, src.tex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
	return b.submit(enc)
}

// transition inserts a usage barrier for tex.
func transition(enc hal.CommandEncoder, tex hal.Texture, from, to gputypes.TextureUsage) {
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

// ReadTexture copies a 2D texture into a staging buffer and reads it back.
// Rows are padded to 256 bytes on the GPU and unpadded here.
func (b *Backend) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.texture(id)
	if err != nil {
		return nil, err
	}
	if t.desc.Dimension != gpucore.TextureDimension2D {
		return nil, fmt.Errorf("%w: ReadTexture of a %s texture", gpucore.ErrInvalidDescriptor, t.desc.Dimension)
	}
	w, h := t.desc.Width, t.desc.Height
	rowBytes := uint32(w * t.desc.Format.BytesPerTexel()) //nolint:gosec // G115: texture sizes are bounded
	stride := align(rowBytes, copyPitchAlignment)
	size := uint64(stride) * uint64(h) //nolint:gosec // G115: texture sizes are bounded

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "volray_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	enc, err := b.encoder("volray_readback")
	if err != nil {
		return nil, err
	}
	usage := gputypes.TextureUsageTextureBinding
	if t.desc.Usage&gpucore.TextureUsageRenderAttachment != 0 || t.desc.Format.IsDepth() {
		usage = gputypes.TextureUsageRenderAttachment
	}
	transition(enc, t.tex, usage, gputypes.TextureUsageCopySrc)
	//nolint:gosec // G115: texture sizes are bounded
	enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: stride, RowsPerImage: uint32(h)},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         extent(w, h, 1),
	}})
	transition(enc, t.tex, gputypes.TextureUsageCopySrc, usage)
	if err := b.submit(enc); err != nil {
		return nil, err
	}

	readback := make([]byte, size)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return unpadRows(readback, int(rowBytes), int(stride), h), nil
}

// unpadRows drops the per-row padding of a buffer copy.
func unpadRows(src []byte, rowBytes, stride, rows int) []byte {
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], src[y*stride:y*stride+rowBytes])
	}
	return out
}
