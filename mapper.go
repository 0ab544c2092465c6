// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volray

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/volray/geometry"
	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/cache"
	"github.com/gogpu/volray/internal/depth"
	"github.com/gogpu/volray/internal/noise"
	"github.com/gogpu/volray/mask"
	"github.com/gogpu/volray/shader"
	"github.com/gogpu/volray/volume"
)

// programCacheSize bounds the compiled programs kept per mapper.
const programCacheSize = 16

// Mapper draws volumes by casting a ray per fragment of their bounding
// geometry. It owns every GPU resource it creates and must be used from
// the goroutine that owns the backend's graphics context.
//
// Each Render call runs the same sequence: validate the frame, make sure
// resources exist in the current context, refresh the volume and mask
// textures, the bounding geometry, the program and the lookup tables,
// capture scene depth, then bind everything and draw. The caller's render
// state is restored on every exit path.
type Mapper struct {
	backend gpucore.Backend
	opts    options
	log     *slog.Logger

	cropping     Cropping
	clipping     []Plane
	maskImage    *volume.Image
	maskType     shader.MaskType
	maskBlend    float64
	averageRange [2]float64

	initialized bool
	contextID   uint64

	loaders   [shader.MaxVolumes]*volume.Loader
	tables    *tableSet
	masks     *mask.Manager
	noise     *noise.Texture
	depth     *depth.Capture
	geometry  *geometry.Builder
	template  *shader.Template
	programs  *cache.Cache[shader.Features, *program]
	image     *offscreen
	depthPass *offscreen

	frame uint64
	timer frameTimer
	stats Stats
}

// program is a compiled program with its uniform block.
type program struct {
	id        gpucore.ProgramID
	desc      *gpucore.Program
	uniforms  *gpucore.UniformBlock
	contextID uint64
}

// Stats summarizes the mapper's work.
type Stats struct {
	// Frames counts Render calls and Rendered the frames that drew.
	Frames   uint64
	Rendered uint64

	// LastRendered reports whether the last frame drew. LastError holds
	// the reason it did not.
	LastRendered bool
	LastError    string

	VolumeLoads     uint64
	TableBuilds     uint64
	GeometryBuilds  uint64
	ShaderBuilds    uint64
	ProgramCompiles uint64

	// SampleDistance and ReductionFactor are the values of the last frame.
	SampleDistance  float64
	ReductionFactor float64

	Geometry geometry.State

	// Program is the label of the last program drawn with.
	Program string

	Masks mask.Stats
}

// NewMapper creates a mapper drawing on b. No GPU resources are created
// until the first Render.
func NewMapper(b gpucore.Backend, opts ...Option) (*Mapper, error) {
	if b == nil {
		return nil, ErrNoBackend
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, fmt.Errorf("volray: %w", o.err)
	}
	m := &Mapper{
		backend:   b,
		opts:      o,
		maskBlend: 1,
		timer:     newFrameTimer(),
	}
	m.log = m.logger()
	return m, nil
}

// logger returns the mapper's own logger or the package logger.
func (m *Mapper) logger() *slog.Logger {
	if m.opts.logger != nil {
		return m.opts.logger
	}
	return Logger()
}

// Render draws one frame. It returns nil when the frame was drawn and an
// error describing why it was skipped otherwise. A skipped frame leaves
// the render target untouched; the next Render retries every stale
// resource.
func (m *Mapper) Render(f *Frame) (err error) {
	start := time.Now()
	m.frame++
	m.stats.Frames++
	m.syncLogger()
	defer func() { m.finishFrame(start, err) }()

	if err := f.validate(); err != nil {
		return err
	}
	m.ensureInitialized()

	vols := f.volumes()
	texs, err := m.refreshVolumes(vols)
	if err != nil {
		return err
	}
	maskTex, maskType := m.refreshMask(vols)

	fc := &frameContext{
		frame:    f,
		volumes:  vols,
		textures: texs,
		mask:     maskTex,
	}
	for _, v := range vols {
		fc.frames = append(fc.frames, newVolumeFrame(v.Image, v.matrix()))
	}
	vf := &fc.frames[0]
	aspect := float64(f.Viewport.Width) / float64(f.Viewport.Height)
	fc.eye = newEyeTransforms(f.Camera, vf, aspect)

	built, err := m.geometry.Update(vf.bounds, vols[0].Image.MTime(), f.Camera.geometryView(vf.volumeMatrix))
	if err != nil {
		return fmt.Errorf("volray: bounding geometry: %w", err)
	}
	if built {
		m.stats.GeometryBuilds++
		m.log.Debug("volray: geometry rebuilt", "state", m.geometry.State(), "triangles", m.geometry.Triangles())
	}

	fc.features = m.features(f, vols, maskType)
	if fc.main, err = m.program(fc.features); err != nil {
		return err
	}
	if fc.features.DepthPass == shader.DepthPassComposite {
		pre := fc.features
		pre.DepthPass = shader.DepthPassRender
		if fc.pre, err = m.program(pre); err != nil {
			return err
		}
	}

	img := vols[0].Image
	reduction := m.timer.update(m.opts.sampling, f.AllocatedRenderTime)
	fc.sampleDistance = sampleDistance(m.opts.sampling, img.Spacing, img.Shape().Extent, vf.volumeMatrix, reduction)
	m.stats.SampleDistance, m.stats.ReductionFactor = fc.sampleDistance, reduction

	n, err := m.tables.refresh(tableUpdate{features: fc.features, volumes: vols, sampleDistance: fc.sampleDistance})
	m.stats.TableBuilds += uint64(n) //nolint:gosec // G115: n is non-negative
	if err != nil {
		return err
	}

	if fc.features.Jitter {
		if _, err := m.noise.Ensure(); err != nil {
			return fmt.Errorf("volray: noise texture: %w", err)
		}
	}
	if fc.features.SceneDepth {
		if err := m.depth.Capture(f.Viewport); err != nil {
			return fmt.Errorf("volray: scene depth: %w", err)
		}
	}

	return m.draw(fc)
}

func (m *Mapper) finishFrame(start time.Time, err error) {
	m.stats.LastRendered = err == nil
	if err != nil {
		m.stats.LastError = err.Error()
		m.log.Error("volray: frame skipped", "frame", m.frame, "err", err)
		return
	}
	m.stats.Rendered++
	m.stats.LastError = ""
	m.timer.record(time.Since(start).Seconds())
}

// syncLogger follows the package logger when the mapper has none of its
// own.
func (m *Mapper) syncLogger() {
	l := m.logger()
	if l == m.log {
		return
	}
	m.log = l
	if m.initialized {
		propagateLogger(l, m.masks, m.depth)
	}
}

// ensureInitialized creates the resource owners on first use and drops
// handles that died with a previous graphics context.
func (m *Mapper) ensureInitialized() {
	if !m.initialized {
		b := m.backend
		for i := range m.loaders {
			m.loaders[i] = volume.NewLoader(b)
		}
		m.tables = newTableSet(b, m.opts.tableWidth)
		m.masks = mask.NewManager(b, m.opts.mask)
		m.noise = noise.NewTexture(b, shader.NoiseTexture, m.opts.noiseSize)
		m.noise.SetSeed(m.opts.noiseSeed)
		m.depth = depth.NewCapture(b, shader.DepthTexture)
		m.geometry = geometry.NewBuilder(b)
		m.template = shader.DefaultTemplate()
		m.programs = cache.New[shader.Features, *program](programCacheSize)
		m.programs.OnEvict(func(_ shader.Features, p *program) {
			if p.contextID == m.backend.Capabilities().ContextID {
				m.backend.DestroyProgram(p.id)
			}
		})
		m.image = newOffscreen(b, "volray-image")
		m.depthPass = newOffscreen(b, "volray-depth-pass")
		m.initialized = true
		propagateLogger(m.log, m.masks, m.depth)
	}

	ctx := m.backend.Capabilities().ContextID
	if ctx == m.contextID {
		return
	}
	if m.contextID != 0 {
		m.log.Info("volray: graphics context changed", "from", m.contextID, "to", ctx)
		for _, l := range m.loaders {
			l.Forget()
		}
		m.programs.Clear()
	}
	m.contextID = ctx
}

// refreshVolumes uploads images that changed and applies the
// interpolation of each property.
func (m *Mapper) refreshVolumes(vols []*Volume) ([]*volume.Texture, error) {
	texs := make([]*volume.Texture, len(vols))
	for i, v := range vols {
		l := m.loaders[i]
		filter := v.Property.Interpolation
		if !l.NeedsLoad(v.Image) {
			if err := l.SetFilter(filter); err != nil {
				return nil, err
			}
			texs[i] = l.Texture()
			continue
		}
		tex, err := l.Load(v.Image, filter)
		if err != nil {
			if errors.Is(err, volume.ErrTextureTooLarge) {
				m.log.Warn("volray: volume not loaded", "volume", i, "err", err)
			}
			return nil, fmt.Errorf("volray: volume %d: %w", i, err)
		}
		m.stats.VolumeLoads++
		m.log.Debug("volray: volume uploaded", "volume", i, "size", tex.Size,
			"format", tex.Format, "streamed", tex.Streamed, "writes", tex.Uploads)
		texs[i] = tex
	}
	return texs, nil
}

// refreshMask loads the attached mask. A mask that cannot be loaded is
// left out of the frame.
func (m *Mapper) refreshMask(vols []*Volume) (*mask.Texture, shader.MaskType) {
	if m.maskImage == nil || m.maskType == shader.MaskNone {
		return nil, shader.MaskNone
	}
	if len(vols) > 1 {
		m.log.Debug("volray: mask ignored with several volumes", "volumes", len(vols))
		return nil, shader.MaskNone
	}
	shape := vols[0].Image.Shape()
	t, err := m.masks.Load(m.maskImage, shape.Extent, shape.CellData, m.frame)
	if err != nil {
		m.log.Warn("volray: rendering without mask", "err", err)
		return nil, shader.MaskNone
	}
	typ := m.maskType
	if typ == shader.MaskLabelMap && (shape.Components != 1 || m.opts.blend != shader.BlendComposite) {
		typ = shader.MaskBinary
	}
	return t, typ
}

// features derives the program features of a frame. Requests the shader
// cannot serve together are dropped here, so that only genuinely
// unsupported data reaches the composer.
func (m *Mapper) features(f *Frame, vols []*Volume, maskType shader.MaskType) shader.Features {
	img, prop := vols[0].Image, vols[0].Property
	nc := img.Components()
	blend := m.opts.blend
	single := len(vols) == 1

	feat := shader.Features{
		Components:    nc,
		Independent:   nc > 1 && prop.Independent,
		Volumes:       len(vols),
		Blend:         blend,
		Cropping:      m.cropping.Enabled,
		Clipping:      len(m.clipping) > 0,
		Mask:          maskType,
		Jitter:        m.opts.jitter,
		SceneDepth:    m.depth.Supported(),
		Projection:    f.Camera.Projection(),
		Picking:       f.Picking,
		RenderToImage: m.opts.renderToImage,
	}

	tables := 1
	if feat.Independent {
		tables = nc
	}
	gradients := single && (blend == shader.BlendComposite || blend == shader.BlendIsosurface || blend == shader.BlendSlice)

	if prop.TransferMode == shader.Transfer2D {
		ok := single && blend == shader.BlendComposite && (nc == 1 || feat.Independent)
		for i := 0; ok && i < tables; i++ {
			ok = prop.Transfer2D[i] != nil
		}
		if ok {
			feat.Transfer = shader.Transfer2D
		} else {
			m.log.Debug("volray: 2D transfer functions unavailable, using 1D", "blend", blend, "components", nc)
		}
	}
	if gradients && feat.Transfer == shader.Transfer1D {
		for i := 0; i < tables; i++ {
			if prop.hasGradientOpacity(i) {
				feat.GradientOpacity |= 1 << i
			}
		}
	}
	if lc := LightComplexity(f.Lights); prop.Shade && lc > 0 && gradients {
		feat.Shade, feat.Lights = true, lc
	}

	if m.opts.depthPass && len(m.opts.contours) > 0 && single && nc == 1 &&
		blend == shader.BlendComposite && f.Picking == shader.PickingNone && !m.opts.renderToImage {
		feat.DepthPass = shader.DepthPassComposite
	}
	return feat
}

// program returns the compiled program for f, composing and compiling it
// on a cache miss.
func (m *Mapper) program(f shader.Features) (*program, error) {
	if p, ok := m.programs.Get(f, m.frame); ok {
		return p, nil
	}
	desc, err := shader.Compose(m.template, f)
	if err != nil {
		if errors.Is(err, shader.ErrUnsupportedFeature) {
			m.log.Warn("volray: unsupported feature combination", "features", f.String(), "err", err)
		}
		return nil, fmt.Errorf("volray: compose: %w", err)
	}
	m.stats.ShaderBuilds++

	id, err := m.backend.CompileProgram(desc)
	if err != nil {
		var ce *gpucore.CompileError
		if errors.As(err, &ce) {
			m.log.Error("volray: program build failed", "program", desc.Label, "stage", ce.Stage, "log", ce.Log)
		}
		return nil, fmt.Errorf("volray: compile %s: %w", desc.Label, err)
	}
	m.stats.ProgramCompiles++
	m.log.Debug("volray: program compiled", "program", desc.Label, "textures", len(desc.Textures),
		"uniform_bytes", desc.Uniforms.Size)

	p := &program{
		id:        id,
		desc:      desc,
		uniforms:  gpucore.NewUniformBlock(&desc.Uniforms),
		contextID: m.backend.Capabilities().ContextID,
	}
	m.programs.Set(f, p, m.frame)
	return p, nil
}

// frameContext carries what the draw step needs from the refresh steps.
type frameContext struct {
	frame          *Frame
	volumes        []*Volume
	textures       []*volume.Texture
	frames         []volumeFrame
	eye            eyeTransforms
	features       shader.Features
	mask           *mask.Texture
	sampleDistance float64

	main, pre *program
}

// draw runs the optional depth pre-pass and the ray casting pass.
func (m *Mapper) draw(fc *frameContext) (err error) {
	guard := gpucore.SaveState(m.backend)
	defer guard.Restore()

	call := m.geometry.DrawCall(fc.main.id)
	base := gpucore.VolumeRenderState(guard.Saved())
	base.VertexBuffer, base.IndexBuffer = call.VertexBuffer, call.IndexBuffer

	retargeted := false
	defer func() {
		if !retargeted {
			return
		}
		if rerr := m.backend.SetRenderTarget(gpucore.Target{}); rerr != nil && err == nil {
			err = fmt.Errorf("volray: reset render target: %w", rerr)
		}
		m.backend.SetViewport(fc.frame.Viewport)
	}()

	if fc.pre != nil {
		if _, err := m.depthPass.ensure(fc.frame.Viewport.Width, fc.frame.Viewport.Height); err != nil {
			return err
		}
		if err := m.backend.SetRenderTarget(m.depthPass.target()); err != nil {
			return fmt.Errorf("volray: depth pass target: %w", err)
		}
		retargeted = true
		vp := m.depthPass.viewport()
		m.backend.SetViewport(vp)
		s := base
		s.DepthWrite = true
		s.Blend = false
		m.backend.SetRenderState(s)
		if err := m.drawPass(fc.pre, fc, vp, m.opts.contours); err != nil {
			return fmt.Errorf("volray: depth pass: %w", err)
		}
	}

	vp := fc.frame.Viewport
	switch {
	case m.opts.renderToImage:
		if _, err := m.image.ensure(vp.Width, vp.Height); err != nil {
			return err
		}
		if err := m.backend.SetRenderTarget(m.image.target()); err != nil {
			return fmt.Errorf("volray: image target: %w", err)
		}
		retargeted = true
		vp = m.image.viewport()
		m.backend.SetViewport(vp)
	case retargeted:
		if err := m.backend.SetRenderTarget(gpucore.Target{}); err != nil {
			return fmt.Errorf("volray: reset render target: %w", err)
		}
		m.backend.SetViewport(vp)
	}

	s := base
	if fc.features.RenderToImage {
		s.DepthWrite = true
	}
	if fc.features.Picking != shader.PickingNone {
		s.BlendFunc = gpucore.BlendReplace
	}
	m.backend.SetRenderState(s)

	var iso []float64
	if fc.features.Blend == shader.BlendIsosurface {
		iso = fc.volumes[0].Property.IsoValues
	}
	if err := m.drawPass(fc.main, fc, vp, iso); err != nil {
		return err
	}
	m.stats.Program = fc.main.desc.Label
	return nil
}

// drawPass draws the bounding geometry with p.
func (m *Mapper) drawPass(p *program, fc *frameContext, vp gpucore.Viewport, iso []float64) error {
	if err := m.backend.UseProgram(p.id); err != nil {
		return fmt.Errorf("volray: use program: %w", err)
	}
	if err := m.bindTextures(p.desc, fc); err != nil {
		return fmt.Errorf("volray: bind: %w", err)
	}
	m.setUniforms(p.uniforms, fc, vp, iso)
	if err := m.backend.SetUniforms(p.id, p.uniforms.Bytes()); err != nil {
		return fmt.Errorf("volray: uniforms: %w", err)
	}
	if err := m.backend.DrawIndexed(m.geometry.DrawCall(p.id)); err != nil {
		return fmt.Errorf("volray: draw: %w", err)
	}
	return nil
}

// bindTextures binds every texture p samples to its slot.
func (m *Mapper) bindTextures(p *gpucore.Program, fc *frameContext) error {
	bind := func(name string, id gpucore.TextureID) error {
		slot := p.SlotOf(name)
		if slot < 0 {
			return nil
		}
		if id == gpucore.InvalidID {
			return fmt.Errorf("%s: %w", name, gpucore.ErrUnknownResource)
		}
		return m.backend.BindTexture(slot, id)
	}
	for i, t := range fc.textures {
		if err := bind(shader.Indexed(shader.VolumePrefix, i), t.ID); err != nil {
			return err
		}
	}
	if fc.mask != nil {
		if err := bind(shader.MaskTexture, fc.mask.ID); err != nil {
			return err
		}
	}
	if err := bind(shader.DepthPassTexture, m.depthPass.depth); err != nil {
		return err
	}
	if err := m.tables.bind(p); err != nil {
		return err
	}
	if err := m.noise.Bind(p); err != nil {
		return err
	}
	return m.depth.Bind(p)
}

// ReleaseGraphicsResources destroys every GPU resource the mapper holds.
// The next Render recreates what it needs.
func (m *Mapper) ReleaseGraphicsResources() {
	if !m.initialized {
		return
	}
	for _, l := range m.loaders {
		l.Release()
	}
	m.tables.release()
	m.masks.ReleaseAll()
	m.noise.Release()
	m.depth.Release()
	m.geometry.Release()
	m.programs.Clear()
	m.image.release()
	m.depthPass.release()
	m.log.Debug("volray: graphics resources released")
}

// Stats returns a summary of the work done so far.
func (m *Mapper) Stats() Stats {
	s := m.stats
	if m.initialized {
		s.Geometry = m.geometry.State()
		s.Masks = m.masks.Stats()
	}
	return s
}

// ColorImage reads back the colour of the last frame rendered to image.
func (m *Mapper) ColorImage() (*image.RGBA, error) {
	if !m.initialized {
		return nil, ErrNoImage
	}
	return m.image.readColor()
}

// DepthImage reads back the depth of the last frame rendered to image.
func (m *Mapper) DepthImage() (*DepthBuffer, error) {
	if !m.initialized {
		return nil, ErrNoImage
	}
	return m.image.readDepth()
}

// MaxAttributeID returns the largest voxel id an id picking pass can
// report for the loaded volume. Ids start at 1.
func (m *Mapper) MaxAttributeID() int {
	if !m.initialized || m.loaders[0].Texture() == nil {
		return 0
	}
	s := m.loaders[0].Texture().Size
	return s[0] * s[1] * s[2]
}
