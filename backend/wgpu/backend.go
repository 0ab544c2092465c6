// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/volray/backend"
	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/logging"
)

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() (gpucore.Backend, error) {
		return New()
	})
}

// Option configures a Backend.
type Option func(*options)

type options struct {
	width, height   int
	api             gputypes.Backend
	highPerformance bool
	log             *slog.Logger
}

// WithFrameSize sets the size of the offscreen frame. The default is 512x512.
func WithFrameSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithAPI selects the HAL backend. The default is Vulkan; other APIs must
// be registered by a blank import of their hal package.
func WithAPI(api gputypes.Backend) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithHighPerformance prefers a discrete GPU.
func WithHighPerformance() Option {
	return func(o *options) {
		o.highPerformance = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

type texture struct {
	desc    gpucore.TextureDescriptor
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	// cleared is set once the texture was attached; the first render pass
	// clears it.
	cleared bool
}

type buffer struct {
	buf  hal.Buffer
	size uint64
}

// Backend implements gpucore.Backend on a wgpu HAL device.
//
// Backend is safe for concurrent use; calls are serialized.
type Backend struct {
	mu  sync.Mutex
	log *slog.Logger

	instance        hal.Instance
	device          hal.Device
	queue           hal.Queue
	limits          gputypes.Limits
	floatFilterable bool
	owned           bool
	info            GPUInfo
	ctxID           uint64
	closed          bool

	nextID   uint64
	textures map[gpucore.TextureID]*texture
	buffers  map[gpucore.BufferID]*buffer
	programs map[gpucore.ProgramID]*program
	slots    map[int]gpucore.TextureID

	active   gpucore.ProgramID
	target   gpucore.Target
	viewport gpucore.Viewport
	state    gpucore.RenderState

	frame      gpucore.TextureID
	frameDepth gpucore.TextureID
}

var _ gpucore.Backend = (*Backend)(nil)

func newOptions(opts []Option) *options {
	o := &options{width: 512, height: 512, api: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logging.OrNop(o.log)
	return o
}

// New opens a GPU device and creates the offscreen frame.
func New(opts ...Option) (*Backend, error) {
	o := newOptions(opts)
	d, err := openDevice(o)
	if err != nil {
		return nil, err
	}
	b := newBackend(d.device, d.queue, d.info, o)
	b.instance, b.owned = d.instance, true
	b.limits, b.floatFilterable = d.limits, d.floatFilterable
	if err := b.createFrame(o.width, o.height); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// halProvider is implemented by hosts that expose their HAL device.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider renders with the device of a host application. The
// provider must also expose HalDevice and HalQueue returning hal.Device
// and hal.Queue; the device is not destroyed by Close.
func NewFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNoDevice)
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider %T does not expose HAL types", ErrNoDevice, p)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoDevice)
	}
	o := newOptions(opts)
	b := newBackend(device, queue, GPUInfo{Name: "shared device", DeviceType: "host"}, o)
	b.limits = gputypes.DefaultLimits()
	if err := b.createFrame(o.width, o.height); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func newBackend(device hal.Device, queue hal.Queue, info GPUInfo, o *options) *Backend {
	b := &Backend{
		log:      o.log,
		device:   device,
		queue:    queue,
		info:     info,
		ctxID:    contextSeq.Add(1),
		nextID:   1,
		textures: make(map[gpucore.TextureID]*texture),
		buffers:  make(map[gpucore.BufferID]*buffer),
		programs: make(map[gpucore.ProgramID]*program),
		slots:    make(map[int]gpucore.TextureID),
	}
	logGPUInfo(b.log, info)
	return b
}

// Name returns "wgpu".
func (b *Backend) Name() string { return backend.BackendWGPU }

// Info returns the adapter description.
func (b *Backend) Info() GPUInfo { return b.info }

// Capabilities reports the limits the device was opened with.
func (b *Backend) Capabilities() gpucore.Capabilities {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.Capabilities{Diagnostic: "wgpu: backend closed"}
	}
	c := gpucore.Capabilities{
		ContextID:          b.ctxID,
		MaxTextureSize1D:   int(b.limits.MaxTextureDimension1D),
		MaxTextureSize2D:   int(b.limits.MaxTextureDimension2D),
		MaxTextureSize3D:   int(b.limits.MaxTextureDimension3D),
		FloatTextures:      b.floatFilterable,
		NPOTTextures:       true,
		FramebufferObjects: true,
		DepthCopy:          true,
	}
	if !c.FloatTextures {
		c.Diagnostic = "float32 textures are not filterable on " + b.info.Name
	}
	return c
}

func (b *Backend) id() uint64 {
	id := b.nextID
	b.nextID++
	return id
}

// === Textures ===

// CreateTexture allocates a texture, its view and, for color formats, a sampler.
func (b *Backend) CreateTexture(desc *gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return gpucore.InvalidID, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	return b.createTexture(desc)
}

func (b *Backend) createTexture(desc *gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	format := textureFormat(desc.Format)
	if format == gputypes.TextureFormatUndefined {
		return gpucore.InvalidID, fmt.Errorf("%w: format %s", gpucore.ErrInvalidDescriptor, desc.Format)
	}
	dim, viewDim := textureDimension(desc.Dimension)
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          extent(desc.Width, desc.Height, desc.Depth),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     dim,
		Format:        format,
		Usage:         textureUsage(desc),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     viewDim,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create view %q: %w", desc.Label, err)
	}
	t := &texture{desc: *desc, tex: tex, view: view}
	if !desc.Format.IsDepth() {
		if t.sampler, err = b.device.CreateSampler(samplerDescriptor(desc.Label, desc.Filter, desc.Wrap)); err != nil {
			b.device.DestroyTextureView(view)
			b.device.DestroyTexture(tex)
			return gpucore.InvalidID, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
		}
	}
	id := gpucore.TextureID(b.id())
	b.textures[id] = t
	return id, nil
}

func (b *Backend) texture(id gpucore.TextureID) (*texture, error) {
	t, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	return t, nil
}

// WriteTexture uploads a region through the queue.
func (b *Backend) WriteTexture(id gpucore.TextureID, region gpucore.TextureRegion, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.texture(id)
	if err != nil {
		return err
	}
	bpt := t.desc.Format.BytesPerTexel()
	if want := region.Texels() * bpt; len(data) != want {
		return fmt.Errorf("%w: %d bytes for a %dx%dx%d region, want %d", gpucore.ErrInvalidDescriptor,
			len(data), region.Width, region.Height, region.Depth, want)
	}
	size := extent(region.Width, region.Height, region.Depth)
	//nolint:gosec // G115: region extents are bounded by the texture size
	b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(region.X), Y: uint32(region.Y), Z: uint32(region.Z)},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(region.Width * bpt),
			RowsPerImage: uint32(region.Height),
		},
		&size,
	)
	return nil
}

// SetTextureFilter replaces the texture's sampler.
func (b *Backend) SetTextureFilter(id gpucore.TextureID, filter gpucore.FilterMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.texture(id)
	if err != nil {
		return err
	}
	if t.sampler == nil || t.desc.Filter == filter {
		t.desc.Filter = filter
		return nil
	}
	s, err := b.device.CreateSampler(samplerDescriptor(t.desc.Label, filter, t.desc.Wrap))
	if err != nil {
		return fmt.Errorf("wgpu: create sampler %q: %w", t.desc.Label, err)
	}
	b.device.DestroySampler(t.sampler)
	t.sampler = s
	t.desc.Filter = filter
	return nil
}

// BindTexture records the texture for slot; bind groups are built per draw.
func (b *Backend) BindTexture(slot int, id gpucore.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.texture(id); err != nil {
		return err
	}
	b.slots[slot] = id
	return nil
}

// DestroyTexture releases a texture.
func (b *Backend) DestroyTexture(id gpucore.TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyTexture(id)
}

func (b *Backend) destroyTexture(id gpucore.TextureID) {
	t, ok := b.textures[id]
	if !ok {
		return
	}
	delete(b.textures, id)
	for slot, bound := range b.slots {
		if bound == id {
			delete(b.slots, slot)
		}
	}
	if t.sampler != nil {
		b.device.DestroySampler(t.sampler)
	}
	b.device.DestroyTextureView(t.view)
	b.device.DestroyTexture(t.tex)
}

// === Buffers ===

// CreateBuffer creates a buffer. Sizes are rounded up to four bytes.
func (b *Backend) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer size %d", gpucore.ErrInvalidDescriptor, size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return gpucore.InvalidID, gpucore.ErrClosed
	}
	n := uint64(align(uint32(size), 4)) //nolint:gosec // G115: size checked positive
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "volray_geometry",
		Size:  n,
		Usage: bufferUsage(usage | gpucore.BufferUsageCopyDst),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	id := gpucore.BufferID(b.id())
	b.buffers[id] = &buffer{buf: buf, size: n}
	return id, nil
}

// WriteBuffer uploads data at offset.
func (b *Backend) WriteBuffer(id gpucore.BufferID, offset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if pad := len(data) % 4; pad != 0 {
		data = append(data[:len(data):len(data)], make([]byte, 4-pad)...)
	}
	if offset < 0 || uint64(offset)+uint64(len(data)) > buf.size {
		return fmt.Errorf("%w: write of %d bytes at %d overflows a %d byte buffer",
			gpucore.ErrInvalidDescriptor, len(data), offset, buf.size)
	}
	b.queue.WriteBuffer(buf.buf, uint64(offset), data) //nolint:gosec // G115: offset checked non-negative
	return nil
}

// DestroyBuffer releases a buffer.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.buffers[id]; ok {
		delete(b.buffers, id)
		b.device.DestroyBuffer(buf.buf)
	}
}

// === State ===

// SetRenderTarget selects the attachments; an empty color means the frame.
func (b *Backend) SetRenderTarget(t gpucore.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range []gpucore.TextureID{t.Color, t.Depth} {
		if id == gpucore.InvalidID {
			continue
		}
		if _, err := b.texture(id); err != nil {
			return err
		}
	}
	if t.Depth != gpucore.InvalidID && !b.textures[t.Depth].desc.Format.IsDepth() {
		return fmt.Errorf("%w: depth attachment is not a depth texture", gpucore.ErrInvalidDescriptor)
	}
	if t.Clear {
		for _, id := range []gpucore.TextureID{t.Color, t.Depth} {
			if tex, ok := b.textures[id]; ok {
				tex.cleared = false
			}
		}
	}
	b.target = t
	return nil
}

// SetViewport sets the viewport rectangle.
func (b *Backend) SetViewport(v gpucore.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = v
}

// RenderState returns the current fixed-function state.
func (b *Backend) RenderState() gpucore.RenderState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetRenderState replaces the fixed-function state.
func (b *Backend) SetRenderState(s gpucore.RenderState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// Close releases every resource. The device is destroyed only when the
// backend opened it.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id := range b.programs {
		b.destroyProgram(id)
	}
	for id := range b.textures {
		b.destroyTexture(id)
	}
	for id, buf := range b.buffers {
		delete(b.buffers, id)
		b.device.DestroyBuffer(buf.buf)
	}
	if b.owned {
		b.device.Destroy()
		b.instance.Destroy()
	}
	b.device, b.queue, b.instance = nil, nil, nil
}

func extent(w, h, d int) hal.Extent3D {
	//nolint:gosec // G115: extents are validated positive and bounded by device limits
	return hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: uint32(max(d, 1))}
}
