//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/volray/gpucore"
)

// textureFormat maps a gpucore format to WebGPU.
func textureFormat(f gpucore.TextureFormat) gputypes.TextureFormat {
	switch f {
	case gpucore.TextureFormatR8Unorm:
		return gputypes.TextureFormatR8Unorm
	case gpucore.TextureFormatRG8Unorm:
		return gputypes.TextureFormatRG8Unorm
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case gpucore.TextureFormatR16Float:
		return gputypes.TextureFormatR16Float
	case gpucore.TextureFormatRG16Float:
		return gputypes.TextureFormatRG16Float
	case gpucore.TextureFormatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float
	case gpucore.TextureFormatR32Float:
		return gputypes.TextureFormatR32Float
	case gpucore.TextureFormatRG32Float:
		return gputypes.TextureFormatRG32Float
	case gpucore.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float
	case gpucore.TextureFormatDepth32Float:
		return gputypes.TextureFormatDepth32Float
	case gpucore.TextureFormatR8Snorm:
		return gputypes.TextureFormatR8Snorm
	case gpucore.TextureFormatRG8Snorm:
		return gputypes.TextureFormatRG8Snorm
	case gpucore.TextureFormatRGBA8Snorm:
		return gputypes.TextureFormatRGBA8Snorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

func textureDimension(d gpucore.TextureDimension) (gputypes.TextureDimension, gputypes.TextureViewDimension) {
	switch d {
	case gpucore.TextureDimension1D:
		return gputypes.TextureDimension1D, gputypes.TextureViewDimension1D
	case gpucore.TextureDimension3D:
		return gputypes.TextureDimension3D, gputypes.TextureViewDimension3D
	default:
		return gputypes.TextureDimension2D, gputypes.TextureViewDimension2D
	}
}

// textureUsage always allows sampling, uploads and readback. Depth
// textures and requested render targets can also be attached.
func textureUsage(desc *gpucore.TextureDescriptor) gputypes.TextureUsage {
	u := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if desc.Usage&gpucore.TextureUsageRenderAttachment != 0 || desc.Format.IsDepth() {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

func samplerDescriptor(label string, filter gpucore.FilterMode, wrap gpucore.WrapMode) *hal.SamplerDescriptor {
	f := gputypes.FilterModeLinear
	if filter == gpucore.FilterNearest {
		f = gputypes.FilterModeNearest
	}
	a := gputypes.AddressModeClampToEdge
	if wrap == gpucore.WrapRepeat {
		a = gputypes.AddressModeRepeat
	}
	return &hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: a,
		AddressModeV: a,
		AddressModeW: a,
		MagFilter:    f,
		MinFilter:    f,
		MipmapFilter: gputypes.FilterModeNearest,
	}
}

func bufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageIndex != 0 {
		out |= gputypes.BufferUsageIndex
	}
	if u&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	return out
}

// bindGroupLayoutEntries describes binding 0 (the uniform block, visible
// to both stages) and one texture plus optional sampler per slot.
func bindGroupLayoutEntries(p *gpucore.Program) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	for _, s := range p.Textures {
		_, view := textureDimension(s.Dimension)
		sample := gputypes.TextureSampleTypeFloat
		if s.Depth {
			sample = gputypes.TextureSampleTypeDepth
			view = gputypes.TextureViewDimension2D
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(s.Binding), //nolint:gosec // G115: bindings are small
			Visibility: gputypes.ShaderStageFragment,
			Texture:    &gputypes.TextureBindingLayout{SampleType: sample, ViewDimension: view},
		})
		if s.SamplerBinding >= 0 {
			entries = append(entries, gputypes.BindGroupLayoutEntry{
				Binding:    uint32(s.SamplerBinding), //nolint:gosec // G115: bindings are small
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			})
		}
	}
	return entries
}

// pipelineKey selects a cached render pipeline of a program.
type pipelineKey struct {
	depthTest  bool
	depthWrite bool
	blend      bool
	blendFunc  gpucore.BlendFunc
	cull       bool
	color      gputypes.TextureFormat
}

func newPipelineKey(s gpucore.RenderState, color gputypes.TextureFormat) pipelineKey {
	return pipelineKey{
		depthTest:  s.DepthTest,
		depthWrite: s.DepthWrite,
		blend:      s.Blend,
		blendFunc:  s.BlendFunc,
		cull:       s.CullFace,
		color:      color,
	}
}

func (k pipelineKey) blendState() *gputypes.BlendState {
	if !k.blend || k.blendFunc == gpucore.BlendReplace {
		return nil
	}
	src := gputypes.BlendFactorOne
	if k.blendFunc == gpucore.BlendSourceOver {
		src = gputypes.BlendFactorSrcAlpha
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: src,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

func (k pipelineKey) primitive() gputypes.PrimitiveState {
	cull := gputypes.CullModeNone
	if k.cull {
		cull = gputypes.CullModeBack
	}
	return gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  cull,
	}
}

func (k pipelineKey) depthStencil() *hal.DepthStencilState {
	cmp := gputypes.CompareFunctionAlways
	if k.depthTest {
		cmp = gputypes.CompareFunctionLess
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            gputypes.TextureFormatDepth32Float,
		DepthWriteEnabled: k.depthWrite,
		DepthCompare:      cmp,
		StencilFront:      keep,
		StencilBack:       keep,
	}
}

// vertexLayout is the bounding geometry layout: tightly packed float32 xyz.
var vertexLayout = []gputypes.VertexBufferLayout{{
	ArrayStride: 12,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{{
		Format:         gputypes.VertexFormatFloat32x3,
		Offset:         0,
		ShaderLocation: 0,
	}},
}}

func align(n, a uint32) uint32 {
	return (n + a - 1) / a * a
}
