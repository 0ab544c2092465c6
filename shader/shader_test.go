package shader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/gogpu/volray/gpucore"
)

func base() Features {
	return Features{Components: 1, Volumes: 1}
}

func mustCompose(t *testing.T, f Features) *gpucore.Program {
	t.Helper()
	p, err := Compose(DefaultTemplate(), f)
	if err != nil {
		t.Fatalf("Compose(%s) error = %v", f, err)
	}
	return p
}

func slotNames(p *gpucore.Program) []string {
	names := make([]string, len(p.Textures))
	for i, s := range p.Textures {
		names[i] = s.Name
	}
	return names
}

func TestComposeDeterministic(t *testing.T) {
	f := base()
	f.Shade, f.Lights = true, 3
	f.Cropping = true
	f.Clipping = true
	f.GradientOpacity = 1

	a := mustCompose(t, f)
	b := mustCompose(t, f)
	if a.Vertex != b.Vertex || a.Fragment != b.Fragment {
		t.Error("identical features produced different sources")
	}
	if !reflect.DeepEqual(a.Uniforms, b.Uniforms) || !reflect.DeepEqual(a.Textures, b.Textures) {
		t.Error("identical features produced different interfaces")
	}
}

func TestComposeReplacesEveryMarker(t *testing.T) {
	all := []Features{
		base(),
		{Components: 2, Independent: true, Volumes: 1, Blend: BlendMaximumIntensity},
		{Components: 4, Volumes: 1, Shade: true, Lights: 2, Projection: Parallel},
		{Components: 1, Volumes: 3, Cropping: true, Clipping: true, Jitter: true, SceneDepth: true},
		{Components: 1, Volumes: 1, Blend: BlendIsosurface, RenderToImage: true, Picking: PickingIDLow24},
		{Components: 1, Volumes: 1, DepthPass: DepthPassRender, SceneDepth: true},
	}
	for _, f := range all {
		p := mustCompose(t, f)
		for _, src := range []string{p.Vertex, p.Fragment} {
			if strings.Contains(src, markerPrefix) {
				t.Errorf("%s: output still contains a marker", f)
			}
		}
		if !strings.Contains(p.Vertex, "fn vs_main") || !strings.Contains(p.Fragment, "fn fs_main") {
			t.Errorf("%s: entry points missing", f)
		}
	}
}

func TestComposeTextureSlots(t *testing.T) {
	tests := []struct {
		name string
		f    Features
		want []string
	}{
		{"single", base(), []string{"volume0", "opacityTable0", "colorTable0"}},
		{
			"jitter and scene depth",
			Features{Components: 1, Volumes: 1, Jitter: true, SceneDepth: true},
			[]string{"volume0", "depthTex", "opacityTable0", "colorTable0", "noiseTex"},
		},
		{
			"independent with gradient opacity",
			Features{Components: 2, Independent: true, Volumes: 1, GradientOpacity: 0b10},
			[]string{"volume0", "opacityTable0", "opacityTable1", "gradientTable1", "colorTable0", "colorTable1"},
		},
		{
			"dependent rgba",
			Features{Components: 4, Volumes: 1},
			[]string{"volume0", "opacityTable0"},
		},
		{
			"binary mask",
			Features{Components: 1, Volumes: 1, Mask: MaskBinary},
			[]string{"volume0", "opacityTable0", "colorTable0", "maskTex"},
		},
		{
			"label map",
			Features{Components: 1, Volumes: 1, Mask: MaskLabelMap},
			[]string{"volume0", "opacityTable0", "colorTable0", "maskTex", "maskColor1", "maskColor2"},
		},
		{
			"three volumes",
			Features{Components: 1, Volumes: 3},
			[]string{"volume0", "volume1", "volume2", "colorTable0", "opacityTable0", "colorTable1", "opacityTable1", "colorTable2", "opacityTable2"},
		},
		{
			"2D transfer function",
			Features{Components: 1, Volumes: 1, Transfer: Transfer2D},
			[]string{"volume0", "transfer2D0"},
		},
		{
			"depth pass composite",
			Features{Components: 1, Volumes: 1, DepthPass: DepthPassComposite},
			[]string{"volume0", "depthPassTex", "opacityTable0", "colorTable0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompose(t, tt.f)
			if got := slotNames(p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("slots = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeBindingsMatchSlots(t *testing.T) {
	f := Features{Components: 1, Volumes: 1, SceneDepth: true, Mask: MaskLabelMap}
	p := mustCompose(t, f)
	for _, s := range p.Textures {
		decl := fmt.Sprintf("@binding(%d) var %s:", s.Binding, s.Name)
		if !strings.Contains(p.Fragment, decl) {
			t.Errorf("fragment lacks %q", decl)
		}
		if s.Depth {
			if s.SamplerBinding != -1 {
				t.Errorf("%s: SamplerBinding = %d, want -1", s.Name, s.SamplerBinding)
			}
			continue
		}
		decl = fmt.Sprintf("@binding(%d) var %s: sampler;", s.SamplerBinding, SamplerName(s.Name))
		if !strings.Contains(p.Fragment, decl) {
			t.Errorf("fragment lacks %q", decl)
		}
	}
	if strings.Contains(p.Vertex, "texture_3d") {
		t.Error("vertex stage declares textures")
	}
	if p.SlotOf(DepthTexture) < 0 || !p.Textures[p.SlotOf(DepthTexture)].Depth {
		t.Error("depth texture slot missing or not a depth binding")
	}
}

func TestComposeUniformLayout(t *testing.T) {
	f := base()
	f.Shade, f.Lights = true, 3
	f.Cropping = true
	p := mustCompose(t, f)

	if p.Uniforms.Size%16 != 0 {
		t.Errorf("Size = %d, not a multiple of 16", p.Uniforms.Size)
	}
	first := p.Uniforms.Fields[0]
	if first.Name != UniformProjection || first.Offset != 0 {
		t.Errorf("first field = %+v, want %s at 0", first, UniformProjection)
	}
	for _, name := range []string{UniformLightCone, UniformLightPosition, UniformNumLights, UniformCroppingFlags} {
		if _, ok := p.Uniforms.Field(name); !ok {
			t.Errorf("layout lacks %s", name)
		}
	}
	if fl, _ := p.Uniforms.Field(UniformCroppingFlags); fl.Count != 8 || fl.Type != gpucore.UniformIVec4 {
		t.Errorf("%s = %+v, want 8 x ivec4", UniformCroppingFlags, fl)
	}
	if !strings.Contains(p.Vertex, "struct Params {") || !strings.Contains(p.Fragment, "struct Params {") {
		t.Error("uniform struct missing from a stage")
	}
}

func TestComposeLightComplexity(t *testing.T) {
	tests := []struct {
		lights LightComplexity
		want   []string
		absent []string
	}{
		{1, []string{"computeLighting"}, []string{UniformNumLights, UniformLightCone}},
		{2, []string{UniformNumLights}, []string{UniformLightCone}},
		{3, []string{UniformNumLights, UniformLightCone, UniformLightAttenuation}, nil},
	}
	for _, tt := range tests {
		f := base()
		f.Shade, f.Lights = true, tt.lights
		p := mustCompose(t, f)
		for _, w := range tt.want {
			if !strings.Contains(p.Fragment, w) {
				t.Errorf("lights %d: fragment lacks %s", tt.lights, w)
			}
		}
		for _, a := range tt.absent {
			if strings.Contains(p.Fragment, a) {
				t.Errorf("lights %d: fragment contains %s", tt.lights, a)
			}
		}
	}
}

func TestComposeProjection(t *testing.T) {
	persp := mustCompose(t, base())
	f := base()
	f.Projection = Parallel
	par := mustCompose(t, f)

	if !strings.Contains(persp.Fragment, UniformCameraPosition) || strings.Contains(persp.Fragment, UniformProjectionDir) {
		t.Error("perspective ray direction does not use the camera position")
	}
	if !strings.Contains(par.Fragment, UniformProjectionDir) || strings.Contains(par.Fragment, UniformCameraPosition) {
		t.Error("parallel ray direction does not use the projection direction")
	}
}

// TestSingleFlagTouchesOnlyItsPoints flips one feature at a time and checks
// which generators change.
func TestSingleFlagTouchesOnlyItsPoints(t *testing.T) {
	tests := []struct {
		name string
		flip func(*Features)
		want []Point
	}{
		{"cropping", func(f *Features) { f.Cropping = true }, []Point{PointCroppingDec, PointCroppingImpl}},
		{"clipping", func(f *Features) { f.Clipping = true }, []Point{PointClippingDec, PointClippingInit, PointClippingImpl}},
		{"binary mask", func(f *Features) { f.Mask = MaskBinary }, []Point{PointMaskImpl}},
		{"jitter", func(f *Features) { f.Jitter = true }, []Point{PointBaseInit}},
		{"scene depth", func(f *Features) { f.SceneDepth = true }, []Point{PointTerminationDec, PointTerminationInit}},
		{"parallel", func(f *Features) { f.Projection = Parallel }, []Point{PointRayDirectionDec}},
		{"actor picking", func(f *Features) { f.Picking = PickingActor }, []Point{PointPickingExit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base()
			b := base()
			tt.flip(&b)

			var changed []Point
			for p := Point(0); p < numPoints; p++ {
				gen := generators[p]
				if gen == nil {
					continue
				}
				sa, errA := gen(a)
				sb, errB := gen(b)
				if errA != nil || errB != nil {
					t.Fatalf("%s: errors %v, %v", p, errA, errB)
				}
				if !reflect.DeepEqual(sa, sb) {
					changed = append(changed, p)
				}
			}
			if !reflect.DeepEqual(changed, tt.want) {
				t.Errorf("changed points = %v, want %v", changed, tt.want)
			}
		})
	}
}

func TestComposeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		f    Features
	}{
		{"no components", Features{Volumes: 1}},
		{"five volumes", Features{Components: 1, Volumes: 5}},
		{"three dependent components", Features{Components: 3, Volumes: 1}},
		{"shading without lights", Features{Components: 1, Volumes: 1, Shade: true}},
		{"lights without shading", Features{Components: 1, Volumes: 1, Lights: 1}},
		{"mip with shading", Features{Components: 1, Volumes: 1, Blend: BlendMaximumIntensity, Shade: true, Lights: 1}},
		{"dependent additive", Features{Components: 2, Volumes: 1, Blend: BlendAdditive}},
		{"isosurface of two components", Features{Components: 2, Independent: true, Volumes: 1, Blend: BlendIsosurface}},
		{"2D with mip", Features{Components: 1, Volumes: 1, Transfer: Transfer2D, Blend: BlendMaximumIntensity}},
		{"2D with gradient opacity", Features{Components: 1, Volumes: 1, Transfer: Transfer2D, GradientOpacity: 1}},
		{"multi-volume shading", Features{Components: 1, Volumes: 2, Shade: true, Lights: 1}},
		{"multi-volume mask", Features{Components: 1, Volumes: 2, Mask: MaskBinary}},
		{"label map of two components", Features{Components: 2, Independent: true, Volumes: 1, Mask: MaskLabelMap}},
		{"gradient opacity bit out of range", Features{Components: 1, Volumes: 1, GradientOpacity: 0b10}},
		{"depth pass with render to image", Features{Components: 1, Volumes: 1, DepthPass: DepthPassRender, RenderToImage: true}},
		{"unknown blend", Features{Components: 1, Volumes: 1, Blend: BlendMode(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compose(DefaultTemplate(), tt.f)
			if !errors.Is(err, ErrUnsupportedFeature) {
				t.Errorf("Compose() error = %v, want ErrUnsupportedFeature", err)
			}
			if p != nil {
				t.Error("Compose() returned a program for an unsupported combination")
			}
		})
	}
}

func TestComposeWritesDepth(t *testing.T) {
	f := base()
	f.RenderToImage = true
	p := mustCompose(t, f)
	if !p.WritesDepth || !strings.Contains(p.Fragment, "@builtin(frag_depth)") {
		t.Error("render to image program does not write depth")
	}
	if q := mustCompose(t, base()); q.WritesDepth || strings.Contains(q.Fragment, "frag_depth") {
		t.Error("plain program writes depth")
	}
}

func TestComposeBlendModes(t *testing.T) {
	tests := []struct {
		blend BlendMode
		want  string
	}{
		{BlendComposite, "compositeSample(fragColor"},
		{BlendMaximumIntensity, "max(extremeValue"},
		{BlendMinimumIntensity, "min(extremeValue"},
		{BlendAdditive, "sumValue"},
		{BlendAverageIntensity, "numSamples"},
		{BlendIsosurface, "isoValues"},
		{BlendSlice, "slicePlane"},
	}
	for _, tt := range tests {
		t.Run(tt.blend.String(), func(t *testing.T) {
			f := base()
			f.Blend = tt.blend
			p := mustCompose(t, f)
			if !strings.Contains(p.Fragment, tt.want) {
				t.Errorf("fragment lacks %q", tt.want)
			}
		})
	}
}

func TestParseTemplate(t *testing.T) {
	vs := "//VR::Bindings\nfn vs_main() {}\n"
	fs := "//VR::Bindings\n//VR::Output::Dec\n//VR::Base::Exit\n//VR::Base::Exit\n"

	tmpl, err := ParseTemplate(vs, fs)
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compose(tmpl, base())
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(p.Fragment, "out.color = fragColor;"); n != 2 {
		t.Errorf("repeated point inserted %d times, want 2", n)
	}

	errs := []struct {
		name   string
		vs, fs string
	}{
		{"unknown point", vs, "//VR::Bogus::Dec\n"},
		{"fragment point in vertex stage", "//VR::Base::Init\n", fs},
	}
	for _, tt := range errs {
		if _, err := ParseTemplate(tt.vs, tt.fs); !errors.Is(err, ErrTemplate) {
			t.Errorf("%s: error = %v, want ErrTemplate", tt.name, err)
		}
	}

	noBindings, err := ParseTemplate("fn vs_main() {}\n", fs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compose(noBindings, base()); !errors.Is(err, ErrTemplate) {
		t.Errorf("Compose() without bindings error = %v, want ErrTemplate", err)
	}
}

func TestFeaturesAsMapKey(t *testing.T) {
	cache := map[Features]int{}
	a := base()
	b := base()
	cache[a] = 1
	cache[b] = 2
	b.Cropping = true
	cache[b] = 3
	if len(cache) != 2 || cache[base()] != 2 {
		t.Errorf("cache = %v", cache)
	}
}
