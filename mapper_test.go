package volray

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/mask"
	"github.com/gogpu/volray/recording"
	"github.com/gogpu/volray/shader"
	"github.com/gogpu/volray/volume"
)

// rampVolume returns an n^3 uint8 volume whose samples rise from 0 to 255
// along x.
func rampVolume(t *testing.T, n int) *volume.Image {
	t.Helper()
	data := make([]uint8, n*n*n)
	for i := range data {
		data[i] = uint8((i % n) * 255 / (n - 1)) //nolint:gosec // G115: at most 255
	}
	img, err := volume.FromSlice(volume.Shape{Extent: [6]int{0, n - 1, 0, n - 1, 0, n - 1}, Components: 1}, data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	return img
}

// testFrame frames img from outside its bounds.
func testFrame(img *volume.Image) *Frame {
	b := img.Bounds()
	center := mgl64.Vec3{(b[0] + b[1]) / 2, (b[2] + b[3]) / 2, (b[4] + b[5]) / 2}
	cam := NewCamera()
	cam.FocalPoint = center
	cam.Position = center.Add(mgl64.Vec3{0, 0, 40})
	return &Frame{
		Volume:   Volume{Image: img, Property: NewProperty()},
		Camera:   cam,
		Viewport: gpucore.Viewport{Width: 64, Height: 48},
	}
}

func newTestMapper(t *testing.T, b gpucore.Backend, opts ...Option) *Mapper {
	t.Helper()
	m, err := NewMapper(b, opts...)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewMapperErrors(t *testing.T) {
	if _, err := NewMapper(nil); !errors.Is(err, ErrNoBackend) {
		t.Errorf("NewMapper(nil) error = %v, want ErrNoBackend", err)
	}
	_, err := NewMapper(recording.NewBackend(), WithBlendName("bogus"))
	if !errors.Is(err, shader.ErrUnsupportedFeature) {
		t.Errorf("NewMapper(WithBlendName(bogus)) error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestRenderRejectsIncompleteFrames(t *testing.T) {
	img := rampVolume(t, 4)
	tests := []struct {
		name   string
		modify func(f *Frame)
		want   error
	}{
		{"no image", func(f *Frame) { f.Volume.Image = nil }, ErrNoInput},
		{"no property", func(f *Frame) { f.Volume.Property = nil }, ErrNoProperty},
		{"no camera", func(f *Frame) { f.Camera = nil }, ErrNoCamera},
		{"empty viewport", func(f *Frame) { f.Viewport.Height = 0 }, ErrInvalidViewport},
		{"other without property", func(f *Frame) { f.Others = []Volume{{Image: img}} }, ErrNoProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := recording.NewBackend()
			m := newTestMapper(t, b)
			f := testFrame(img)
			tt.modify(f)

			if err := m.Render(f); !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
			if got := b.Stats(); got.Uploads() != 0 || got.Compiles != 0 || got.Draws != 0 {
				t.Errorf("backend stats after rejected frame = %+v, want no GPU work", got)
			}
			if s := m.Stats(); s.LastRendered || s.LastError == "" {
				t.Errorf("Stats() = {LastRendered: %v, LastError: %q}, want skipped frame", s.LastRendered, s.LastError)
			}
		})
	}
}

func TestRenderSecondFrameUploadsNothing(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b)
	f := testFrame(rampVolume(t, 10))

	if err := m.Render(f); err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	first := b.Stats()
	if first.Compiles != 1 || first.Draws != 1 {
		t.Errorf("first frame Compiles = %d, Draws = %d, want 1 and 1", first.Compiles, first.Draws)
	}
	if first.TextureUploads == 0 || first.BufferUploads == 0 {
		t.Errorf("first frame uploads = %+v, want textures and buffers", first)
	}

	b.ResetStats()
	if err := m.Render(f); err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	second := b.Stats()
	if second.TextureUploads != 0 {
		t.Errorf("second frame TextureUploads = %d, want 0", second.TextureUploads)
	}
	if second.BufferUploads != 0 {
		t.Errorf("second frame BufferUploads = %d, want 0", second.BufferUploads)
	}
	if second.Compiles != 0 {
		t.Errorf("second frame Compiles = %d, want 0", second.Compiles)
	}
	if second.Draws != 1 {
		t.Errorf("second frame Draws = %d, want 1", second.Draws)
	}
	if second.DepthCopies != 1 {
		t.Errorf("second frame DepthCopies = %d, want 1", second.DepthCopies)
	}

	s := m.Stats()
	if s.Frames != 2 || s.Rendered != 2 {
		t.Errorf("Stats() Frames = %d, Rendered = %d, want 2 and 2", s.Frames, s.Rendered)
	}
	if s.VolumeLoads != 1 || s.ProgramCompiles != 1 || s.GeometryBuilds != 1 {
		t.Errorf("Stats() loads = %d, compiles = %d, geometry = %d, want 1 each",
			s.VolumeLoads, s.ProgramCompiles, s.GeometryBuilds)
	}
	if s.Geometry.String() != "CameraOutside" {
		t.Errorf("Stats().Geometry = %v, want CameraOutside", s.Geometry)
	}
}

func TestRenderSeedsDefaultTables(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b)
	f := testFrame(rampVolume(t, 10))

	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := m.Stats().SampleDistance; got != 1 {
		t.Errorf("SampleDistance = %v, want 1", got)
	}

	op := m.tables.opacities.Table(0).Values()
	if len(op) == 0 {
		t.Fatal("opacity table not built")
	}
	if op[0] != 0 {
		t.Errorf("opacity at 0 = %v, want 0", op[0])
	}
	if last := op[len(op)-1]; math.Abs(float64(last)-0.5) > 1e-4 {
		t.Errorf("opacity at 255 = %v, want 0.5", last)
	}

	rgb := m.tables.colors.Table(0).Values()
	n := len(rgb)
	for i, c := range rgb[n-3:] {
		if math.Abs(float64(c)-1) > 1e-6 {
			t.Errorf("colour at 255 channel %d = %v, want 1", i, c)
		}
	}
	for i, c := range rgb[:3] {
		if c != 0 {
			t.Errorf("colour at 0 channel %d = %v, want 0", i, c)
		}
	}

	prop := f.Volume.Property
	if prop.Color[0] == nil || prop.Color[0].Size() != 2 {
		t.Error("default colour function not seeded on the property")
	}
	if prop.ScalarOpacity[0] == nil || prop.ScalarOpacity[0].Size() != 2 {
		t.Error("default opacity function not seeded on the property")
	}
}

func TestRenderNegativeSpacing(t *testing.T) {
	img := rampVolume(t, 10)
	img.Spacing = [3]float64{-1, 1, 1}
	img.Origin = [3]float64{9, 0, 0}
	img.Modified()

	m := newTestMapper(t, recording.NewBackend())
	if err := m.Render(testFrame(img)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	vf := newVolumeFrame(img, mgl64.Ident4())
	want := [6]float64{0, 9, 0, 9, 0, 9}
	if vf.bounds != want {
		t.Errorf("bounds = %v, want %v", vf.bounds, want)
	}
	if !vf.flipped[0] || vf.flipped[1] {
		t.Errorf("flipped = %v, want x only", vf.flipped)
	}
	if vf.texCoord(0, 9) >= vf.texCoord(0, 0) {
		t.Errorf("texCoord(x=9) = %v, texCoord(x=0) = %v, want x reversed",
			vf.texCoord(0, 9), vf.texCoord(0, 0))
	}
}

func TestRenderMaskOverBudget(t *testing.T) {
	var logs bytes.Buffer
	b := recording.NewBackend()
	m := newTestMapper(t, b,
		WithLogger(bufferLogger(&logs)),
		WithMaskConfig(mask.Config{MaxMemoryBytes: 100, MaxMemoryFraction: 1}))
	img := rampVolume(t, 10)
	m.SetMask(rampVolume(t, 10), shader.MaskBinary)

	if err := m.Render(testFrame(img)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	s := m.Stats()
	if s.Masks.Refused != 1 {
		t.Errorf("Masks.Refused = %d, want 1", s.Masks.Refused)
	}
	if strings.Contains(s.Program, "mask:") {
		t.Errorf("Program = %q, want no mask", s.Program)
	}
	if !strings.Contains(logs.String(), "rendering without mask") {
		t.Errorf("log = %q, want a mask warning", logs.String())
	}
}

func TestRenderMask(t *testing.T) {
	tests := []struct {
		name  string
		blend shader.BlendMode
		typ   shader.MaskType
		want  string
	}{
		{"binary", shader.BlendComposite, shader.MaskBinary, "-mask:binary"},
		{"label map", shader.BlendComposite, shader.MaskLabelMap, "-mask:labelmap"},
		{"label map with mip", shader.BlendMaximumIntensity, shader.MaskLabelMap, "-mask:binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, recording.NewBackend(), WithBlendMode(tt.blend))
			m.SetMask(rampVolume(t, 8), tt.typ)
			if err := m.Render(testFrame(rampVolume(t, 8))); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got := m.Stats().Program; !strings.Contains(got, tt.want) {
				t.Errorf("Program = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetachMask(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b)
	mk := rampVolume(t, 8)
	m.SetMask(mk, shader.MaskBinary)
	f := testFrame(rampVolume(t, 8))
	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := m.Stats().Masks.Entries; got != 1 {
		t.Fatalf("Masks.Entries = %d, want 1", got)
	}

	m.DetachMask(mk)
	if got := m.Stats().Masks.Entries; got != 0 {
		t.Errorf("Masks.Entries after DetachMask = %d, want 0", got)
	}
	if err := m.Render(f); err != nil {
		t.Fatalf("Render() after DetachMask error = %v", err)
	}
	if got := m.Stats().Program; strings.Contains(got, "mask:") {
		t.Errorf("Program = %q, want no mask", got)
	}
}

func TestRenderCompileFailure(t *testing.T) {
	var logs bytes.Buffer
	b := recording.NewBackend(recording.WithCompileFailure("syntax error at line 3"))
	m := newTestMapper(t, b, WithLogger(bufferLogger(&logs)))
	saved := gpucore.RenderState{DepthTest: true, CullFace: false, BlendFunc: gpucore.BlendSourceOver}
	b.SetRenderState(saved)

	err := m.Render(testFrame(rampVolume(t, 6)))
	var ce *gpucore.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Render() error = %v, want *gpucore.CompileError", err)
	}
	if !strings.Contains(logs.String(), "syntax error at line 3") {
		t.Errorf("log = %q, want the compile log", logs.String())
	}
	if got := b.RenderState(); got != saved {
		t.Errorf("RenderState() = %+v, want %+v", got, saved)
	}
	if got := b.Stats().Draws; got != 0 {
		t.Errorf("Draws = %d, want 0", got)
	}
	if s := m.Stats(); s.LastRendered || s.Rendered != 0 {
		t.Errorf("Stats() = %+v, want no rendered frame", s)
	}
}

func TestRenderRestoresState(t *testing.T) {
	b := recording.NewBackend()
	saved := gpucore.RenderState{DepthWrite: true, BlendFunc: gpucore.BlendSourceOver}
	b.SetRenderState(saved)
	m := newTestMapper(t, b)

	for _, picking := range []shader.PickingPass{shader.PickingNone, shader.PickingActor} {
		f := testFrame(rampVolume(t, 6))
		f.Picking = picking
		if err := m.Render(f); err != nil {
			t.Fatalf("Render(picking %v) error = %v", picking, err)
		}
		if got := b.RenderState(); got != saved {
			t.Errorf("RenderState() after picking %v = %+v, want %+v", picking, got, saved)
		}
	}
}

func TestRenderAfterContextLoss(t *testing.T) {
	var logs bytes.Buffer
	b := recording.NewBackend()
	m := newTestMapper(t, b, WithLogger(bufferLogger(&logs)), WithJitter(true))
	f := testFrame(rampVolume(t, 8))

	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	b.LoseContext()
	b.ResetStats()

	if err := m.Render(f); err != nil {
		t.Fatalf("Render() after context loss error = %v", err)
	}
	got := b.Stats()
	if got.Compiles != 1 {
		t.Errorf("Compiles after context loss = %d, want 1", got.Compiles)
	}
	if got.TextureUploads == 0 || got.BufferUploads == 0 {
		t.Errorf("uploads after context loss = %+v, want textures and buffers", got)
	}
	if s := m.Stats(); s.VolumeLoads != 2 {
		t.Errorf("VolumeLoads = %d, want 2", s.VolumeLoads)
	}
	if !strings.Contains(logs.String(), "graphics context changed") {
		t.Errorf("log = %q, want a context change message", logs.String())
	}
}

func TestRenderToImage(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b, WithRenderToImage(true))

	if _, err := m.ColorImage(); !errors.Is(err, ErrNoImage) {
		t.Errorf("ColorImage() before Render error = %v, want ErrNoImage", err)
	}

	f := testFrame(rampVolume(t, 8))
	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := b.Target(); got != (gpucore.Target{}) {
		t.Errorf("Target() after Render = %+v, want default target", got)
	}
	if got := b.Viewport(); got != f.Viewport {
		t.Errorf("Viewport() after Render = %+v, want %+v", got, f.Viewport)
	}
	if got := m.Stats().Program; !strings.Contains(got, "-rti") {
		t.Errorf("Program = %q, want render to image", got)
	}

	img, err := m.ColorImage()
	if err != nil {
		t.Fatalf("ColorImage() error = %v", err)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 64 || h != 48 {
		t.Errorf("ColorImage() size = %dx%d, want 64x48", w, h)
	}

	depth, err := m.DepthImage()
	if err != nil {
		t.Fatalf("DepthImage() error = %v", err)
	}
	if depth.Width != 64 || depth.Height != 48 {
		t.Errorf("DepthImage() size = %dx%d, want 64x48", depth.Width, depth.Height)
	}
	if got := depth.At(10, 10); got != 1 {
		t.Errorf("DepthImage().At(10, 10) = %v, want 1 (cleared)", got)
	}
}

func TestRenderThreeDependentComponents(t *testing.T) {
	n := 4
	data := make([]uint8, 3*n*n*n)
	img, err := volume.FromSlice(volume.Shape{Extent: [6]int{0, n - 1, 0, n - 1, 0, n - 1}, Components: 3}, data)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	b := recording.NewBackend()
	m := newTestMapper(t, b)

	err = m.Render(testFrame(img))
	if !errors.Is(err, shader.ErrUnsupportedFeature) {
		t.Errorf("Render() error = %v, want ErrUnsupportedFeature", err)
	}
	if got := b.Stats().Draws; got != 0 {
		t.Errorf("Draws = %d, want 0", got)
	}

	f := testFrame(img)
	f.Volume.Property.Independent = true
	if err := m.Render(f); err != nil {
		t.Errorf("Render(independent) error = %v", err)
	}
}

func TestRenderFallsBackTo1DTransfer(t *testing.T) {
	var logs bytes.Buffer
	m := newTestMapper(t, recording.NewBackend(), WithLogger(bufferLogger(&logs)))
	f := testFrame(rampVolume(t, 6))
	f.Volume.Property.TransferMode = shader.Transfer2D

	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := m.Stats().Program; !strings.Contains(got, "-1d-") {
		t.Errorf("Program = %q, want 1D transfer", got)
	}
	if !strings.Contains(logs.String(), "using 1D") {
		t.Errorf("log = %q, want a fallback message", logs.String())
	}
}

func TestRenderDepthPass(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b, WithDepthPass(128))

	if err := m.Render(testFrame(rampVolume(t, 8))); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := b.Stats(); got.Draws != 2 || got.Compiles != 2 {
		t.Errorf("Draws = %d, Compiles = %d, want 2 and 2", got.Draws, got.Compiles)
	}
	if got := b.Target(); got != (gpucore.Target{}) {
		t.Errorf("Target() after Render = %+v, want default target", got)
	}

	m.SetDepthPass()
	b.ResetStats()
	if err := m.Render(testFrame(rampVolume(t, 8))); err != nil {
		t.Fatalf("Render() without depth pass error = %v", err)
	}
	if got := b.Stats().Draws; got != 1 {
		t.Errorf("Draws without depth pass = %d, want 1", got)
	}
}

func TestRenderFeatureFlags(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Mapper, f *Frame)
		want  string
	}{
		{"clipping", func(m *Mapper, _ *Frame) {
			m.SetClippingPlanes(Plane{Origin: mgl64.Vec3{3, 3, 3}, Normal: mgl64.Vec3{1, 0, 0}})
		}, "-clip"},
		{"cropping", func(m *Mapper, _ *Frame) {
			m.SetCropping(Cropping{Enabled: true, Planes: [6]float64{1, 5, 1, 5, 1, 5}, Flags: CropSubVolume})
		}, "-crop"},
		{"jitter", func(m *Mapper, _ *Frame) { m.SetJitter(true) }, "-jitter"},
		{"parallel", func(_ *Mapper, f *Frame) { f.Camera.Parallel = true }, "-parallel"},
		{"mip", func(m *Mapper, _ *Frame) { m.SetBlendMode(shader.BlendMaximumIntensity) }, "-mip-"},
		{"shaded", func(_ *Mapper, f *Frame) {
			f.Volume.Property.Shade = true
			f.Lights = []*Light{NewLight()}
		}, "-l1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMapper(t, recording.NewBackend())
			f := testFrame(rampVolume(t, 8))
			tt.setup(m, f)
			if err := m.Render(f); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got := m.Stats().Program; !strings.Contains(got, tt.want) {
				t.Errorf("Program = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetClippingPlanesWarnsOverLimit(t *testing.T) {
	var logs bytes.Buffer
	m := newTestMapper(t, recording.NewBackend(), WithLogger(bufferLogger(&logs)))
	planes := make([]Plane, shader.MaxClippingPlanes+1)
	for i := range planes {
		planes[i] = Plane{Normal: mgl64.Vec3{0, 0, 1}}
	}
	m.SetClippingPlanes(planes...)
	if !strings.Contains(logs.String(), "extra clipping planes ignored") {
		t.Errorf("log = %q, want a clipping plane warning", logs.String())
	}
}

func TestMultipleVolumes(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b)
	f := testFrame(rampVolume(t, 8))
	f.Others = []Volume{{
		Image:    rampVolume(t, 6),
		Property: NewProperty(),
		Matrix:   mgl64.Translate3D(1, 1, 1),
	}}

	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := m.Stats().Program; !strings.Contains(got, "-v2") {
		t.Errorf("Program = %q, want two volumes", got)
	}
	if got := m.Stats().VolumeLoads; got != 2 {
		t.Errorf("VolumeLoads = %d, want 2", got)
	}
}

func TestReleaseGraphicsResources(t *testing.T) {
	b := recording.NewBackend()
	m := newTestMapper(t, b, WithRenderToImage(true))
	f := testFrame(rampVolume(t, 8))

	m.ReleaseGraphicsResources()
	if err := m.Render(f); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	m.ReleaseGraphicsResources()
	if got := b.TextureCount(); got != 0 {
		t.Errorf("TextureCount() after release = %d, want 0", got)
	}
	if _, err := m.ColorImage(); !errors.Is(err, ErrNoImage) {
		t.Errorf("ColorImage() after release error = %v, want ErrNoImage", err)
	}

	b.ResetStats()
	if err := m.Render(f); err != nil {
		t.Fatalf("Render() after release error = %v", err)
	}
	if got := b.Stats().Compiles; got != 1 {
		t.Errorf("Compiles after release = %d, want 1", got)
	}
}

func TestMaxAttributeID(t *testing.T) {
	m := newTestMapper(t, recording.NewBackend())
	if got := m.MaxAttributeID(); got != 0 {
		t.Errorf("MaxAttributeID() before Render = %d, want 0", got)
	}
	if err := m.Render(testFrame(rampVolume(t, 10))); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := m.MaxAttributeID(); got != 1000 {
		t.Errorf("MaxAttributeID() = %d, want 1000", got)
	}
}

func TestMapperUsesPackageLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var logs bytes.Buffer
	m := newTestMapper(t, recording.NewBackend())
	SetLogger(bufferLogger(&logs))

	f := testFrame(rampVolume(t, 4))
	f.Camera = nil
	_ = m.Render(f)
	if !strings.Contains(logs.String(), "frame skipped") {
		t.Errorf("package log = %q, want a skipped frame", logs.String())
	}
}
