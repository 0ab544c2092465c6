package shader

import (
	"testing"

	"github.com/gogpu/naga"
)

// featureMatrix returns valid feature vectors covering every blend mode,
// component layout, volume count, transfer mode and light complexity.
// Each base vector is paired with one of the per-frame toggles in turn,
// plus a variant with every toggle that still validates.
func featureMatrix() []Features {
	toggles := []func(*Features){
		func(f *Features) { f.Cropping = true },
		func(f *Features) { f.Clipping = true },
		func(f *Features) { f.Mask = MaskBinary },
		func(f *Features) { f.Mask = MaskLabelMap },
		func(f *Features) { f.Jitter = true },
		func(f *Features) { f.SceneDepth = true },
		func(f *Features) { f.Projection = Parallel },
		func(f *Features) { f.Picking = PickingActor },
		func(f *Features) { f.Picking = PickingIDLow24 },
		func(f *Features) { f.Picking = PickingIDMid24 },
		func(f *Features) { f.RenderToImage = true },
		func(f *Features) { f.DepthPass = DepthPassRender },
		func(f *Features) { f.DepthPass = DepthPassComposite },
	}

	var out []Features
	add := func(f Features) {
		if f.Validate() == nil {
			out = append(out, f)
		}
	}
	n := 0
	for comps := 1; comps <= MaxComponents; comps++ {
		for _, indep := range []bool{false, true} {
			for _, vols := range []int{1, 2, MaxVolumes} {
				for blend := BlendComposite; int(blend) < len(blendNames); blend++ {
					for _, transfer := range []TransferMode{Transfer1D, Transfer2D} {
						for lights := LightComplexity(0); lights <= 3; lights++ {
							for _, grad := range []ComponentMask{0, 1} {
								f := Features{
									Components:      comps,
									Independent:     indep,
									Volumes:         vols,
									Blend:           blend,
									Transfer:        transfer,
									Shade:           lights > 0,
									Lights:          lights,
									GradientOpacity: grad,
								}
								if f.Validate() != nil {
									continue
								}
								add(f)

								one := f
								toggles[n%len(toggles)](&one)
								add(one)
								n++

								every := f
								for _, tg := range toggles {
									next := every
									tg(&next)
									if next.Validate() == nil {
										every = next
									}
								}
								add(every)
							}
						}
					}
				}
			}
		}
	}
	return out
}

func TestComposedProgramsCompileWithNaga(t *testing.T) {
	matrix := featureMatrix()
	if len(matrix) < 100 {
		t.Fatalf("feature matrix has %d entries, want at least 100", len(matrix))
	}
	failures := 0
	for _, f := range matrix {
		p, err := Compose(DefaultTemplate(), f)
		if err != nil {
			t.Errorf("Compose(%s) error = %v", f, err)
			continue
		}
		for _, stage := range []struct{ name, src string }{
			{"vertex", p.Vertex},
			{"fragment", p.Fragment},
		} {
			if _, err := naga.Compile(stage.src); err != nil {
				failures++
				if failures <= 5 {
					t.Errorf("naga.Compile(%s %s) error = %v", f, stage.name, err)
				}
			}
		}
	}
	if failures > 5 {
		t.Errorf("%d more stages failed to compile", failures-5)
	}
}

func TestOutsideBox(t *testing.T) {
	got := outsideBox("p", "lo", "hi")
	want := "p.x > hi.x || p.x < lo.x || p.y > hi.y || p.y < lo.y || p.z > hi.z || p.z < lo.z"
	if got != want {
		t.Errorf("outsideBox() = %q, want %q", got, want)
	}
}

func TestComposedFragmentAvoidsVectorReductions(t *testing.T) {
	for _, f := range featureMatrix() {
		p := mustCompose(t, f)
		for _, builtin := range []string{"all(", "any("} {
			if containsCall(p.Fragment, builtin) || containsCall(p.Vertex, builtin) {
				t.Errorf("Compose(%s) uses %s", f, builtin)
			}
		}
	}
}

// containsCall reports whether src calls name as a standalone builtin,
// not as the suffix of a longer identifier.
func containsCall(src, name string) bool {
	for i := 0; i+len(name) <= len(src); i++ {
		if src[i:i+len(name)] != name {
			continue
		}
		if i == 0 {
			return true
		}
		c := src[i-1]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return true
		}
	}
	return false
}
