//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/volray/gpucore"
)

// program is a compiled gpucore.Program: two shader modules, the layout
// shared by every pipeline variant and the uniform buffer.
type program struct {
	desc        *gpucore.Program
	vs, fs      hal.ShaderModule
	bgl         hal.BindGroupLayout
	layout      hal.PipelineLayout
	uniforms    hal.Buffer
	uniformSize uint64
	pipelines   map[pipelineKey]hal.RenderPipeline
}

// release destroys the program's resources in reverse creation order.
func (p *program) release(device hal.Device) {
	for k, pl := range p.pipelines {
		delete(p.pipelines, k)
		device.DestroyRenderPipeline(pl)
	}
	if p.uniforms != nil {
		device.DestroyBuffer(p.uniforms)
		p.uniforms = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.bgl != nil {
		device.DestroyBindGroupLayout(p.bgl)
		p.bgl = nil
	}
	if p.fs != nil {
		device.DestroyShaderModule(p.fs)
		p.fs = nil
	}
	if p.vs != nil {
		device.DestroyShaderModule(p.vs)
		p.vs = nil
	}
}

// checkWGSL compiles one stage with naga so WGSL errors carry the stage
// and the naga diagnostic before the driver sees the source.
func checkWGSL(stage, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return &gpucore.CompileError{Stage: stage, Log: err.Error()}
	}
	return nil
}

// CompileProgram validates both stages with naga and creates the shader
// modules, bind group layout and uniform buffer. Pipelines are built on
// first draw.
func (b *Backend) CompileProgram(desc *gpucore.Program) (gpucore.ProgramID, error) {
	if err := checkWGSL("vertex", desc.Vertex); err != nil {
		return gpucore.InvalidID, err
	}
	if err := checkWGSL("fragment", desc.Fragment); err != nil {
		return gpucore.InvalidID, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}

	p := &program{desc: desc, pipelines: make(map[pipelineKey]hal.RenderPipeline)}
	var err error
	if p.vs, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_vs",
		Source: hal.ShaderSource{WGSL: desc.Vertex},
	}); err != nil {
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "vertex", Log: err.Error()}
	}
	if p.fs, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_fs",
		Source: hal.ShaderSource{WGSL: desc.Fragment},
	}); err != nil {
		p.release(b.device)
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "fragment", Log: err.Error()}
	}
	if p.bgl, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_layout",
		Entries: bindGroupLayoutEntries(desc),
	}); err != nil {
		p.release(b.device)
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "link", Log: err.Error()}
	}
	if p.layout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bgl},
	}); err != nil {
		p.release(b.device)
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "link", Log: err.Error()}
	}
	p.uniformSize = uint64(max(desc.Uniforms.Size, 16)) //nolint:gosec // G115: layout sizes are small
	if p.uniforms, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label + "_uniforms",
		Size:  p.uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	}); err != nil {
		p.release(b.device)
		return gpucore.InvalidID, fmt.Errorf("wgpu: uniform buffer: %w", err)
	}

	id := gpucore.ProgramID(b.id())
	b.programs[id] = p
	b.log.Debug("wgpu: program compiled", "label", desc.Label, "textures", len(desc.Textures), "uniformBytes", p.uniformSize)
	return id, nil
}

// pipeline returns the cached pipeline for k, creating it on first use.
func (b *Backend) pipeline(p *program, k pipelineKey) (hal.RenderPipeline, error) {
	if pl, ok := p.pipelines[k]; ok {
		return pl, nil
	}
	pl, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.desc.Label + "_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vs,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fs,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    k.color,
				Blend:     k.blendState(),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		DepthStencil: k.depthStencil(),
		Multisample:  gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive:    k.primitive(),
	})
	if err != nil {
		return nil, &gpucore.CompileError{Stage: "link", Log: err.Error()}
	}
	p.pipelines[k] = pl
	return pl, nil
}

// DestroyProgram releases a program and its pipelines.
func (b *Backend) DestroyProgram(id gpucore.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyProgram(id)
}

func (b *Backend) destroyProgram(id gpucore.ProgramID) {
	p, ok := b.programs[id]
	if !ok {
		return
	}
	delete(b.programs, id)
	if b.active == id {
		b.active = gpucore.InvalidID
	}
	p.release(b.device)
}

// UseProgram makes id the active program.
func (b *Backend) UseProgram(id gpucore.ProgramID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.programs[id]; !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, id)
	}
	b.active = id
	return nil
}

// SetUniforms uploads the program's uniform block.
func (b *Backend) SetUniforms(id gpucore.ProgramID, block []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, id)
	}
	if len(block) != p.desc.Uniforms.Size {
		return fmt.Errorf("%w: uniform block of %d bytes, layout has %d", gpucore.ErrInvalidDescriptor, len(block), p.desc.Uniforms.Size)
	}
	if len(block) == 0 {
		return nil
	}
	b.queue.WriteBuffer(p.uniforms, 0, block)
	return nil
}
