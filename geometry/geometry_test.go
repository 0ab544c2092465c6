package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/recording"
)

var unitBounds = [6]float64{0, 1, 0, 1, 0, 1}

func viewFrom(pos, focal mgl64.Vec3) View {
	return View{
		Position:      pos,
		FocalPoint:    focal,
		ClippingRange: [2]float64{0.1, 100},
		VolumeMatrix:  mgl64.Ident4(),
	}
}

// triangles expands a mesh back into vertex triples.
func triangles(m *Mesh) [][3]mgl64.Vec3 {
	out := make([][3]mgl64.Vec3, 0, m.Triangles())
	at := func(i uint32) mgl64.Vec3 {
		return mgl64.Vec3{float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2])}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		out = append(out, [3]mgl64.Vec3{at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])})
	}
	return out
}

// outward reports whether every triangle faces away from center.
func outward(m *Mesh, center mgl64.Vec3) bool {
	for _, t := range triangles(m) {
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		c := t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3)
		if n.Dot(c.Sub(center)) <= 0 {
			return false
		}
	}
	return true
}

func TestBuildMeshOutside(t *testing.T) {
	v := viewFrom(mgl64.Vec3{0.5, 0.5, -5}, mgl64.Vec3{0.5, 0.5, 0})
	m := BuildMesh(unitBounds, v, false)

	if got := m.Triangles(); got != 72 {
		t.Errorf("Triangles() = %d, want 72", got)
	}
	if got := len(m.Vertices) / 3; got != 38 {
		t.Errorf("vertices = %d, want 38", got)
	}
	if !outward(m, mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Error("box triangles are not wound outward")
	}
}

func TestBuildMeshMirroredFlipsWinding(t *testing.T) {
	v := viewFrom(mgl64.Vec3{0.5, 0.5, -5}, mgl64.Vec3{0.5, 0.5, 0})
	v.VolumeMatrix = mgl64.Scale3D(-1, 1, 1)
	if PreservesOrientation(v.VolumeMatrix) {
		t.Fatal("PreservesOrientation(mirror) = true")
	}
	m := BuildMesh(unitBounds, v, false)
	for _, tri := range triangles(m) {
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		c := tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3)
		if n.Dot(c.Sub(mgl64.Vec3{0.5, 0.5, 0.5})) >= 0 {
			t.Fatal("mirrored volume kept outward winding")
		}
	}
}

func TestClipAddsCap(t *testing.T) {
	faces := Clip(Box(unitBounds), mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{0, 0, 1})
	if len(faces) != 6 {
		t.Fatalf("len(Clip()) = %d, want 6 (5 faces + cap)", len(faces))
	}
	m := Index(Densify(faces, Subdivisions), false)
	for i := 2; i < len(m.Vertices); i += 3 {
		if m.Vertices[i] < 0.5-1e-6 {
			t.Fatalf("vertex z = %v below the plane", m.Vertices[i])
		}
	}
	if !outward(m, mgl64.Vec3{0.5, 0.5, 0.75}) {
		t.Error("clipped box triangles are not wound outward")
	}
}

func TestIsCameraInside(t *testing.T) {
	tests := []struct {
		name string
		pos  mgl64.Vec3
		want bool
	}{
		{"outside", mgl64.Vec3{0.5, 0.5, -5}, false},
		{"inside", mgl64.Vec3{0.5, 0.5, 0.5}, true},
		{"near point enters", mgl64.Vec3{0.5, 0.5, -0.05}, true},
		{"far outside x", mgl64.Vec3{-50, 0.5, 0.5}, false},
		{"far outside +x", mgl64.Vec3{50, 0.5, 0.5}, false},
		{"far outside y", mgl64.Vec3{0.5, 80, 0.5}, false},
		{"far outside -y", mgl64.Vec3{0.5, -80, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viewFrom(tt.pos, tt.pos.Add(mgl64.Vec3{0, 0, 1}))
			if got := IsCameraInside(v, unitBounds); got != tt.want {
				t.Errorf("IsCameraInside() = %v, want %v", got, tt.want)
			}
		})
	}

	// A translated volume moves the test into its local frame.
	v := viewFrom(mgl64.Vec3{10.5, 0.5, 0.5}, mgl64.Vec3{10.5, 0.5, 1.5})
	v.VolumeMatrix = mgl64.Translate3D(10, 0, 0)
	if !IsCameraInside(v, unitBounds) {
		t.Error("IsCameraInside() ignored the volume matrix")
	}
}

func TestNearPlaneOffset(t *testing.T) {
	v := viewFrom(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 0.5, 1.5})
	origin, normal := NearPlane(v)
	if !normal.ApproxEqual(mgl64.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, want +z", normal)
	}
	// near point z = 0.6, far z = 100.5, offset = 99.9/1000
	if want := 0.6 + 0.0999; math.Abs(origin[2]-want) > 1e-9 {
		t.Errorf("origin z = %v, want %v", origin[2], want)
	}

	v.ClippingRange = [2]float64{0.1, 0.1001}
	origin, _ = NearPlane(v)
	minOffset := float64(math.Nextafter32(1, 2)-1) * 1000
	if math.Abs(origin[2]-(0.6+minOffset)) > 1e-12 {
		t.Errorf("origin z = %v, want minimum offset %v", origin[2], minOffset)
	}
}

func TestBuilderStateMachine(t *testing.T) {
	b := recording.NewBackend()
	g := NewBuilder(b)
	outside := viewFrom(mgl64.Vec3{0.5, 0.5, -5}, mgl64.Vec3{0.5, 0.5, 0})
	inside := viewFrom(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 0.5, 1.5})

	steps := []struct {
		name    string
		view    View
		input   uint64
		rebuild bool
		state   State
	}{
		{"first build", outside, 1, true, StateCameraOutside},
		{"unchanged", outside, 1, false, StateCameraOutside},
		{"input modified", outside, 2, true, StateCameraOutside},
		{"enter", inside, 2, true, StateCameraInside},
		{"stay inside", inside, 2, true, StateCameraInside},
		{"leave", outside, 2, true, StateCameraOutside},
		{"stay outside", outside, 2, false, StateCameraOutside},
	}
	for _, s := range steps {
		rebuilt, err := g.Update(unitBounds, s.input, s.view)
		if err != nil {
			t.Fatalf("%s: Update() error = %v", s.name, err)
		}
		if rebuilt != s.rebuild {
			t.Errorf("%s: rebuilt = %v, want %v", s.name, rebuilt, s.rebuild)
		}
		if g.State() != s.state {
			t.Errorf("%s: State() = %v, want %v", s.name, g.State(), s.state)
		}
	}
	if g.Builds() != 5 {
		t.Errorf("Builds() = %d, want 5", g.Builds())
	}

	b.LoseContext()
	if rebuilt, _ := g.Update(unitBounds, 2, outside); !rebuilt {
		t.Error("context loss did not rebuild")
	}
	call := g.DrawCall(0)
	if b.Buffer(call.IndexBuffer) == nil || call.IndexCount != 3*72 {
		t.Errorf("DrawCall() = %+v", call)
	}
}

func TestBuilderBoundsChange(t *testing.T) {
	g := NewBuilder(recording.NewBackend())
	v := viewFrom(mgl64.Vec3{0.5, 0.5, -5}, mgl64.Vec3{0.5, 0.5, 0})
	if _, err := g.Update(unitBounds, 1, v); err != nil {
		t.Fatal(err)
	}
	if rebuilt, _ := g.Update([6]float64{0, 2, 0, 1, 0, 1}, 1, v); !rebuilt {
		t.Error("bounds change did not rebuild")
	}
	g.Release()
	if g.State() != StateStale {
		t.Errorf("State() after Release = %v, want Stale", g.State())
	}
}

func TestBuilderBoundaryCameraStable(t *testing.T) {
	// The near point sits on the z-min face at 2 when the camera is at
	// z = 1 with near distance 1.
	bounds := [6]float64{0, 1, 0, 1, 2, 3}
	tests := []struct {
		name   string
		offset float64
		inside bool
	}{
		{"on face", 0, true},
		{"just inside", 0.5e-12, true},
		{"just outside", -0.5e-12, true},
		{"beyond tolerance", -4e-12, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mgl64.Vec3{0.5, 0.5, 1 + tt.offset}
			v := View{
				Position:      pos,
				FocalPoint:    pos.Add(mgl64.Vec3{0, 0, 1}),
				ClippingRange: [2]float64{1, 100},
				VolumeMatrix:  mgl64.Ident4(),
			}
			if got := IsCameraInside(v, bounds); got != tt.inside {
				t.Fatalf("IsCameraInside() = %v, want %v", got, tt.inside)
			}
			want := StateCameraOutside
			if tt.inside {
				want = StateCameraInside
			}

			g := NewBuilder(recording.NewBackend())
			tris := -1
			for frame := 0; frame < 8; frame++ {
				rebuilt, err := g.Update(bounds, 1, v)
				if err != nil {
					t.Fatalf("frame %d: Update() error = %v", frame, err)
				}
				if g.State() != want {
					t.Fatalf("frame %d: State() = %v, want %v", frame, g.State(), want)
				}
				// Inside rebuilds every frame; outside only builds once.
				if wantRebuild := tt.inside || frame == 0; rebuilt != wantRebuild {
					t.Errorf("frame %d: rebuilt = %v, want %v", frame, rebuilt, wantRebuild)
				}
				if tris >= 0 && g.Triangles() != tris {
					t.Errorf("frame %d: Triangles() = %d, want %d", frame, g.Triangles(), tris)
				}
				tris = g.Triangles()
			}
		})
	}
}
