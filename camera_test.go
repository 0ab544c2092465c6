package volray

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/shader"
)

func TestCameraProjectionDepthRange(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cam := NewCamera()
		cam.Parallel = parallel
		cam.ClippingRange = [2]float64{1, 100}
		p := cam.ProjectionMatrix(1.5)

		for _, tt := range []struct {
			dist float64
			want float64
		}{{1, 0}, {100, 1}} {
			clip := p.Mul4x1(mgl64.Vec4{0, 0, -tt.dist, 1})
			if got := clip[2] / clip[3]; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parallel=%v: depth at %v = %v, want %v", parallel, tt.dist, got, tt.want)
			}
		}
	}
}

func TestCameraProjection(t *testing.T) {
	cam := NewCamera()
	if got := cam.Projection(); got != shader.Perspective {
		t.Errorf("Projection() = %v, want perspective", got)
	}
	cam.Parallel = true
	if got := cam.Projection(); got != shader.Parallel {
		t.Errorf("Projection() = %v, want parallel", got)
	}
}

func TestCameraDirectionOfProjection(t *testing.T) {
	cam := NewCamera()
	cam.Position = mgl64.Vec3{0, 0, 10}
	cam.FocalPoint = mgl64.Vec3{0, 0, 4}
	if got := cam.DirectionOfProjection(); !got.ApproxEqual(mgl64.Vec3{0, 0, -1}) {
		t.Errorf("DirectionOfProjection() = %v, want (0, 0, -1)", got)
	}

	cam.FocalPoint = cam.Position
	if got := cam.DirectionOfProjection(); got != (mgl64.Vec3{0, 0, -1}) {
		t.Errorf("DirectionOfProjection() for coincident points = %v, want (0, 0, -1)", got)
	}
}

func TestEyeTransformsDatasetCamera(t *testing.T) {
	img := rampVolume(t, 10)
	vf := newVolumeFrame(img, mgl64.Translate3D(10, 0, 0))
	cam := NewCamera()
	cam.Position = mgl64.Vec3{14.5, 4.5, 40}
	cam.FocalPoint = mgl64.Vec3{14.5, 4.5, 4.5}

	et := newEyeTransforms(cam, &vf, 1)
	if want := (mgl64.Vec3{4.5, 4.5, 40}); !et.cameraPosition.ApproxEqual(want) {
		t.Errorf("cameraPosition = %v, want %v", et.cameraPosition, want)
	}
	if !et.projectionDirection.ApproxEqual(mgl64.Vec3{0, 0, -1}) {
		t.Errorf("projectionDirection = %v, want (0, 0, -1)", et.projectionDirection)
	}

	// The texture centre sits on the view axis.
	eye := et.textureToEye.Mul4x1(mgl64.Vec4{0.5, 0.5, 0.5, 1})
	if math.Abs(eye[0]) > 1e-9 || math.Abs(eye[1]) > 1e-9 || math.Abs(eye[2]+35.5) > 1e-9 {
		t.Errorf("texture centre in eye coordinates = %v, want (0, 0, -35.5)", eye)
	}
	back := et.eyeToTexture.Mul4x1(eye)
	if !back.ApproxEqualThreshold(mgl64.Vec4{0.5, 0.5, 0.5, 1}, 1e-9) {
		t.Errorf("eyeToTexture round trip = %v, want the texture centre", back)
	}
}
