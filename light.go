package volray

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/shader"
)

// LightKind places a light relative to the camera or the scene.
type LightKind uint8

// Light kinds.
const (
	// LightHeadlight sits at the camera and shines along the view
	// direction. Position and FocalPoint are ignored.
	LightHeadlight LightKind = iota

	// LightCamera is given in eye coordinates and moves with the camera.
	LightCamera

	// LightScene is given in world coordinates.
	LightScene
)

// Light is one light source of a frame.
type Light struct {
	On        bool
	Kind      LightKind
	Intensity float64

	AmbientColor  [3]float64
	DiffuseColor  [3]float64
	SpecularColor [3]float64

	Position   mgl64.Vec3
	FocalPoint mgl64.Vec3

	// Positional lights attenuate with distance and may be spot lights
	// (ConeAngle below 90).
	Positional  bool
	ConeAngle   float64
	Exponent    float64
	Attenuation [3]float64
}

// NewLight returns a white unit-intensity headlight.
func NewLight() *Light {
	return &Light{
		On:            true,
		Kind:          LightHeadlight,
		Intensity:     1,
		DiffuseColor:  [3]float64{1, 1, 1},
		SpecularColor: [3]float64{1, 1, 1},
		Position:      mgl64.Vec3{0, 0, 1},
		ConeAngle:     30,
		Exponent:      1,
		Attenuation:   [3]float64{1, 0, 0},
	}
}

func (l *Light) lit() bool { return l != nil && l.On && l.Intensity > 0 }

// LightComplexity grades lights for the shader: 0 without lights, 1 for a
// single white unit-intensity headlight, 3 when any light is positional
// and 2 otherwise.
func LightComplexity(lights []*Light) shader.LightComplexity {
	var c shader.LightComplexity
	n := 0
	for _, l := range lights {
		if !l.lit() {
			continue
		}
		n++
		if c == 0 {
			c = 1
		}
		if c == 1 && (n > 1 || l.Intensity != 1 || l.Kind != LightHeadlight) {
			c = 2
		}
		if l.Positional {
			return 3
		}
	}
	return c
}

// setLightUniforms writes up to shader.MaxLights lit lights in eye
// coordinates.
func setLightUniforms(u *gpucore.UniformBlock, lights []*Light, view mgl64.Mat4, twoSided bool) int {
	n := 0
	for _, l := range lights {
		if !l.lit() || n == shader.MaxLights {
			continue
		}
		k := l.Intensity
		u.SetVec4At(shader.UniformLightAmbient, n, scaled(l.AmbientColor, k))
		u.SetVec4At(shader.UniformLightDiffuse, n, scaled(l.DiffuseColor, k))
		u.SetVec4At(shader.UniformLightSpecular, n, scaled(l.SpecularColor, k))

		pos, focal := l.eyePlacement(view)
		dir := focal.Sub(pos)
		if dir.Len() == 0 {
			dir = mgl64.Vec3{0, 0, -1}
		}
		u.SetVec4At(shader.UniformLightDirection, n, vec4f(dir, 0))
		u.SetVec4At(shader.UniformLightPosition, n, vec4f(pos, 1))
		u.SetVec4At(shader.UniformLightAttenuation, n, [4]float32{
			float32(l.Attenuation[0]), float32(l.Attenuation[1]), float32(l.Attenuation[2]), 0,
		})
		positional := float32(0)
		if l.Positional {
			positional = 1
		}
		u.SetVec4At(shader.UniformLightCone, n, [4]float32{float32(l.ConeAngle), float32(l.Exponent), positional, 0})
		n++
	}
	u.SetInt(shader.UniformNumLights, int32(n)) //nolint:gosec // G115: at most MaxLights
	two := int32(0)
	if twoSided {
		two = 1
	}
	u.SetInt(shader.UniformTwoSided, two)
	return n
}

// eyePlacement returns the light's position and focal point in eye
// coordinates.
func (l *Light) eyePlacement(view mgl64.Mat4) (pos, focal mgl64.Vec3) {
	switch l.Kind {
	case LightHeadlight:
		return mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}
	case LightCamera:
		return l.Position, l.FocalPoint
	default:
		return view.Mul4x1(l.Position.Vec4(1)).Vec3(), view.Mul4x1(l.FocalPoint.Vec4(1)).Vec3()
	}
}

func scaled(c [3]float64, k float64) [4]float32 {
	return [4]float32{float32(c[0] * k), float32(c[1] * k), float32(c[2] * k), 1}
}
