package volray

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/shader"
)

func TestLightComplexity(t *testing.T) {
	off := NewLight()
	off.On = false
	dim := NewLight()
	dim.Intensity = 0.5
	scene := NewLight()
	scene.Kind = LightScene
	positional := NewLight()
	positional.Positional = true

	tests := []struct {
		name   string
		lights []*Light
		want   shader.LightComplexity
	}{
		{"none", nil, 0},
		{"switched off", []*Light{off}, 0},
		{"nil entry", []*Light{nil}, 0},
		{"headlight", []*Light{NewLight()}, 1},
		{"headlight and off light", []*Light{NewLight(), off}, 1},
		{"dim headlight", []*Light{dim}, 2},
		{"scene light", []*Light{scene}, 2},
		{"two headlights", []*Light{NewLight(), NewLight()}, 2},
		{"positional", []*Light{NewLight(), positional}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LightComplexity(tt.lights); got != tt.want {
				t.Errorf("LightComplexity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLightEyePlacement(t *testing.T) {
	view := mgl64.Translate3D(0, 0, -5)

	head := NewLight()
	pos, focal := head.eyePlacement(view)
	if pos != (mgl64.Vec3{}) || focal != (mgl64.Vec3{0, 0, -1}) {
		t.Errorf("headlight eyePlacement() = %v, %v, want origin looking down -z", pos, focal)
	}

	scene := NewLight()
	scene.Kind = LightScene
	scene.Position = mgl64.Vec3{1, 2, 3}
	pos, _ = scene.eyePlacement(view)
	if want := (mgl64.Vec3{1, 2, -2}); !pos.ApproxEqual(want) {
		t.Errorf("scene light position = %v, want %v", pos, want)
	}

	cam := NewLight()
	cam.Kind = LightCamera
	cam.Position = mgl64.Vec3{1, 2, 3}
	if pos, _ = cam.eyePlacement(view); pos != cam.Position {
		t.Errorf("camera light position = %v, want %v unchanged", pos, cam.Position)
	}
}
