// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/volray/gpucore"
)

// Texture is the in-memory copy of a texture held by the recording backend.
type Texture struct {
	Desc gpucore.TextureDescriptor
	Data []byte
}

// Stats counts recorded calls by category.
type Stats struct {
	TextureUploads int
	BufferUploads  int
	DepthCopies    int
	Compiles       int
	Draws          int
	Binds          int
}

// Uploads returns the number of calls that moved data to the GPU.
func (s Stats) Uploads() int {
	return s.TextureUploads + s.BufferUploads + s.DepthCopies
}

// Backend implements gpucore.Backend by recording every call and keeping
// resource contents in host memory. It is the upload counter used by the
// frame driver tests and the headless backend of the demo.
//
// Backend is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	caps     gpucore.Capabilities
	nextID   uint64
	closed   bool
	commands []Command
	stats    Stats

	textures map[gpucore.TextureID]*Texture
	buffers  map[gpucore.BufferID][]byte
	programs map[gpucore.ProgramID]*gpucore.Program
	uniforms map[gpucore.ProgramID][]byte
	slots    map[int]gpucore.TextureID

	active   gpucore.ProgramID
	target   gpucore.Target
	viewport gpucore.Viewport
	state    gpucore.RenderState

	sceneDepth  float32
	compileFail string
}

var _ gpucore.Backend = (*Backend)(nil)

// Option configures a recording Backend.
type Option func(*Backend)

// WithCapabilities replaces the default capability set.
func WithCapabilities(c gpucore.Capabilities) Option {
	return func(b *Backend) {
		b.caps = c
	}
}

// WithCompileFailure makes every CompileProgram call fail with log.
func WithCompileFailure(log string) Option {
	return func(b *Backend) {
		b.compileFail = log
	}
}

// DefaultCapabilities returns a capability set that supports every feature.
func DefaultCapabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		ContextID:          1,
		MaxTextureSize1D:   16384,
		MaxTextureSize2D:   16384,
		MaxTextureSize3D:   2048,
		FloatTextures:      true,
		NPOTTextures:       true,
		FramebufferObjects: true,
		DepthCopy:          true,
	}
}

// NewBackend creates a recording backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		caps:       DefaultCapabilities(),
		nextID:     1,
		sceneDepth: 1,
	}
	b.reset()
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) reset() {
	b.textures = make(map[gpucore.TextureID]*Texture)
	b.buffers = make(map[gpucore.BufferID][]byte)
	b.programs = make(map[gpucore.ProgramID]*gpucore.Program)
	b.uniforms = make(map[gpucore.ProgramID][]byte)
	b.slots = make(map[int]gpucore.TextureID)
	b.active = gpucore.InvalidID
	b.target = gpucore.Target{}
}

// Name returns "recording".
func (b *Backend) Name() string { return "recording" }

// Capabilities returns the configured capability set.
func (b *Backend) Capabilities() gpucore.Capabilities {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caps
}

// LoseContext simulates a lost graphics context: every resource is dropped
// and ContextID changes.
func (b *Backend) LoseContext() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	b.caps.ContextID++
}

// SetSceneDepth sets the value CopyDepth writes into depth textures.
func (b *Backend) SetSceneDepth(d float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sceneDepth = d
}

func (b *Backend) id() uint64 {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Backend) record(c Command) {
	b.commands = append(b.commands, c)
	switch c.Type {
	case CmdWriteTexture:
		b.stats.TextureUploads++
	case CmdWriteBuffer:
		b.stats.BufferUploads++
	case CmdCopyDepth:
		b.stats.DepthCopies++
	case CmdCompileProgram:
		b.stats.Compiles++
	case CmdDrawIndexed:
		b.stats.Draws++
	case CmdBindTexture:
		b.stats.Binds++
	}
}

// CreateTexture allocates a zeroed host copy.
func (b *Backend) CreateTexture(desc *gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return gpucore.InvalidID, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	if err := b.checkLimits(desc); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(b.id())
	b.textures[id] = &Texture{Desc: *desc, Data: make([]byte, desc.Size())}
	b.record(Command{Type: CmdCreateTexture, Texture: id, Label: desc.Label})
	return id, nil
}

func (b *Backend) checkLimits(desc *gpucore.TextureDescriptor) error {
	var limit int
	switch desc.Dimension {
	case gpucore.TextureDimension1D:
		limit = b.caps.MaxTextureSize1D
	case gpucore.TextureDimension2D:
		limit = b.caps.MaxTextureSize2D
	default:
		limit = b.caps.MaxTextureSize3D
	}
	if limit > 0 && (desc.Width > limit || desc.Height > limit || desc.Depth > limit) {
		return fmt.Errorf("%w: %s %dx%dx%d exceeds %d", gpucore.ErrInvalidDescriptor,
			desc.Label, desc.Width, desc.Height, desc.Depth, limit)
	}
	return nil
}

// WriteTexture copies data into the host copy.
func (b *Backend) WriteTexture(id gpucore.TextureID, region gpucore.TextureRegion, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	d := &tex.Desc
	bpt := d.Format.BytesPerTexel()
	if region.X < 0 || region.Y < 0 || region.Z < 0 ||
		region.X+region.Width > d.Width || region.Y+region.Height > d.Height || region.Z+region.Depth > d.Depth {
		return fmt.Errorf("%w: region %+v outside %dx%dx%d", gpucore.ErrInvalidDescriptor, region, d.Width, d.Height, d.Depth)
	}
	if len(data) != region.Texels()*bpt {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrInvalidDescriptor, len(data), region.Texels()*bpt)
	}
	row := region.Width * bpt
	src := 0
	for z := 0; z < region.Depth; z++ {
		for y := 0; y < region.Height; y++ {
			dst := (((region.Z+z)*d.Height+(region.Y+y))*d.Width + region.X) * bpt
			copy(tex.Data[dst:dst+row], data[src:src+row])
			src += row
		}
	}
	b.record(Command{Type: CmdWriteTexture, Texture: id, Bytes: len(data), Label: d.Label})
	return nil
}

// SetTextureFilter records the new filter.
func (b *Backend) SetTextureFilter(id gpucore.TextureID, filter gpucore.FilterMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	tex.Desc.Filter = filter
	b.record(Command{Type: CmdSetFilter, Texture: id, Label: tex.Desc.Label})
	return nil
}

// BindTexture records the slot binding.
func (b *Backend) BindTexture(slot int, id gpucore.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures[id]; !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	b.slots[slot] = id
	b.record(Command{Type: CmdBindTexture, Texture: id, Slot: slot})
	return nil
}

// CopyDepth fills the texture with the scene depth value.
func (b *Backend) CopyDepth(id gpucore.TextureID, viewport gpucore.Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if !tex.Desc.Format.IsDepth() {
		return fmt.Errorf("%w: CopyDepth into %s texture", gpucore.ErrInvalidDescriptor, tex.Desc.Format)
	}
	if viewport.Width != tex.Desc.Width || viewport.Height != tex.Desc.Height {
		return fmt.Errorf("%w: viewport %dx%d, texture %dx%d", gpucore.ErrInvalidDescriptor,
			viewport.Width, viewport.Height, tex.Desc.Width, tex.Desc.Height)
	}
	bits := math.Float32bits(b.sceneDepth)
	for i := 0; i+4 <= len(tex.Data); i += 4 {
		binary.LittleEndian.PutUint32(tex.Data[i:], bits)
	}
	b.record(Command{Type: CmdCopyDepth, Texture: id, Bytes: len(tex.Data)})
	return nil
}

// ReadTexture returns a copy of the host data.
func (b *Backend) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tex, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	out := make([]byte, len(tex.Data))
	copy(out, tex.Data)
	b.record(Command{Type: CmdReadTexture, Texture: id, Bytes: len(out)})
	return out, nil
}

// DestroyTexture drops the texture.
func (b *Backend) DestroyTexture(id gpucore.TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures[id]; !ok {
		return
	}
	delete(b.textures, id)
	for slot, bound := range b.slots {
		if bound == id {
			delete(b.slots, slot)
		}
	}
	b.record(Command{Type: CmdDestroyTexture, Texture: id})
}

// CreateBuffer allocates a zeroed buffer.
func (b *Backend) CreateBuffer(size int, _ gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer size %d", gpucore.ErrInvalidDescriptor, size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	id := gpucore.BufferID(b.id())
	b.buffers[id] = make([]byte, size)
	b.record(Command{Type: CmdCreateBuffer, Buffer: id, Bytes: size})
	return id, nil
}

// WriteBuffer copies data into the buffer.
func (b *Backend) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("%w: write %d bytes at %d into %d", gpucore.ErrInvalidDescriptor, len(data), offset, len(buf))
	}
	copy(buf[offset:], data)
	b.record(Command{Type: CmdWriteBuffer, Buffer: id, Bytes: len(data)})
	return nil
}

// DestroyBuffer drops the buffer.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buffers[id]; !ok {
		return
	}
	delete(b.buffers, id)
	b.record(Command{Type: CmdDestroyBuffer, Buffer: id})
}

// CompileProgram stores the program. Sources must define vs_main and fs_main.
func (b *Backend) CompileProgram(p *gpucore.Program) (gpucore.ProgramID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	b.record(Command{Type: CmdCompileProgram, Label: p.Label})
	if b.compileFail != "" {
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "link", Log: b.compileFail}
	}
	if p.Vertex == "" {
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "vertex", Log: "empty source"}
	}
	if p.Fragment == "" {
		return gpucore.InvalidID, &gpucore.CompileError{Stage: "fragment", Log: "empty source"}
	}
	id := gpucore.ProgramID(b.id())
	cp := *p
	b.programs[id] = &cp
	b.uniforms[id] = make([]byte, p.Uniforms.Size)
	return id, nil
}

// DestroyProgram drops the program.
func (b *Backend) DestroyProgram(id gpucore.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.programs[id]; !ok {
		return
	}
	delete(b.programs, id)
	delete(b.uniforms, id)
	if b.active == id {
		b.active = gpucore.InvalidID
	}
	b.record(Command{Type: CmdDestroyProgram, Program: id})
}

// UseProgram activates the program.
func (b *Backend) UseProgram(id gpucore.ProgramID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.programs[id]; !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, id)
	}
	b.active = id
	b.record(Command{Type: CmdUseProgram, Program: id})
	return nil
}

// SetUniforms stores a copy of the block.
func (b *Backend) SetUniforms(id gpucore.ProgramID, block []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, id)
	}
	if len(block) != p.Uniforms.Size {
		return fmt.Errorf("%w: uniform block %d bytes, want %d", gpucore.ErrInvalidDescriptor, len(block), p.Uniforms.Size)
	}
	copy(b.uniforms[id], block)
	b.record(Command{Type: CmdSetUniforms, Program: id, Bytes: len(block)})
	return nil
}

// SetRenderTarget records the attachments.
func (b *Backend) SetRenderTarget(t gpucore.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range []gpucore.TextureID{t.Color, t.Depth} {
		if id == gpucore.InvalidID {
			continue
		}
		if _, ok := b.textures[id]; !ok {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
		}
	}
	if t.Clear {
		b.clear(t)
	}
	b.target = t
	b.record(Command{Type: CmdSetRenderTarget, Texture: t.Color})
	return nil
}

// clear zeroes the colour attachment and fills the depth attachment with one.
func (b *Backend) clear(t gpucore.Target) {
	if tex, ok := b.textures[t.Color]; ok {
		clear(tex.Data)
	}
	if tex, ok := b.textures[t.Depth]; ok {
		bits := math.Float32bits(1)
		for i := 0; i+4 <= len(tex.Data); i += 4 {
			binary.LittleEndian.PutUint32(tex.Data[i:], bits)
		}
	}
}

// SetViewport records the viewport.
func (b *Backend) SetViewport(v gpucore.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = v
	b.record(Command{Type: CmdSetViewport})
}

// RenderState returns the current state.
func (b *Backend) RenderState() gpucore.RenderState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetRenderState replaces the current state.
func (b *Backend) SetRenderState(s gpucore.RenderState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
	b.record(Command{Type: CmdSetRenderState})
}

// DrawIndexed validates the call against bound resources.
func (b *Backend) DrawIndexed(call gpucore.DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, call.Program)
	}
	if _, ok := b.buffers[call.VertexBuffer]; !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.VertexBuffer)
	}
	idx, ok := b.buffers[call.IndexBuffer]
	if !ok {
		return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.IndexBuffer)
	}
	if call.IndexCount <= 0 || call.IndexCount*4 > len(idx) {
		return fmt.Errorf("%w: index count %d for %d byte buffer", gpucore.ErrInvalidDescriptor, call.IndexCount, len(idx))
	}
	for i := range p.Textures {
		if _, ok := b.slots[i]; !ok {
			return fmt.Errorf("%w: slot %d (%s) not bound", gpucore.ErrUnknownResource, i, p.Textures[i].Name)
		}
	}
	b.record(Command{Type: CmdDrawIndexed, Program: call.Program, Bytes: call.IndexCount})
	return nil
}

// Close drops every resource.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	b.closed = true
}

// Commands returns a copy of the recorded commands.
func (b *Backend) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return out
}

// Stats returns the call counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// ResetStats clears the counters and the command log.
func (b *Backend) ResetStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = Stats{}
	b.commands = nil
}

// Texture returns the host copy of a texture, or nil.
func (b *Backend) Texture(id gpucore.TextureID) *Texture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.textures[id]
}

// TextureCount returns the number of live textures.
func (b *Backend) TextureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

// Bound returns the texture bound at slot.
func (b *Backend) Bound(slot int) gpucore.TextureID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots[slot]
}

// Program returns the compiled program, or nil.
func (b *Backend) Program(id gpucore.ProgramID) *gpucore.Program {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.programs[id]
}

// Uniforms returns a copy of the program's last uniform block.
func (b *Backend) Uniforms(id gpucore.ProgramID) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.uniforms[id]))
	copy(out, b.uniforms[id])
	return out
}

// Buffer returns the contents of a buffer, or nil.
func (b *Backend) Buffer(id gpucore.BufferID) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffers[id]
}

// Viewport returns the last viewport.
func (b *Backend) Viewport() gpucore.Viewport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

// Target returns the current render target.
func (b *Backend) Target() gpucore.Target {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}
