package volray

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/shader"
)

// unboundedRange is the average intensity range used when none is set.
const unboundedRange = 1e30

// setUniforms fills u for a pass drawn into vp. iso holds the contour
// values in data units, if the pass needs any. Names the program does not
// declare are skipped by the block.
func (m *Mapper) setUniforms(u *gpucore.UniformBlock, fc *frameContext, vp gpucore.Viewport, iso []float64) {
	et, vf := &fc.eye, &fc.frames[0]
	img, prop := fc.volumes[0].Image, fc.volumes[0].Property
	tex := fc.textures[0]

	u.SetMat4(shader.UniformProjection, mat4f(et.projection))
	u.SetMat4(shader.UniformInverseProjection, mat4f(et.projection.Inv()))
	u.SetMat4(shader.UniformModelView, mat4f(et.view))
	u.SetMat4(shader.UniformVolumeMatrix, mat4f(vf.volumeMatrix))
	u.SetMat4(shader.UniformDatasetToTexture, mat4f(vf.datasetToTexture))
	u.SetMat4(shader.UniformTextureToEye, mat4f(et.textureToEye))
	u.SetMat4(shader.UniformEyeToTexture, mat4f(et.eyeToTexture))
	u.SetMat4(shader.UniformTextureToEyeIT, mat4f(et.eyeToTexture.Transpose()))

	u.SetVec4(shader.UniformTexMin, vec4of(vf.texMin))
	u.SetVec4(shader.UniformTexMax, vec4of(vf.texMax))
	scale, bias := tex.ShaderScaleBias(prop.Independent)
	u.SetVec4(shader.UniformScale, scale)
	u.SetVec4(shader.UniformBias, bias)
	u.SetFloat(shader.UniformSampleDistance, float32(fc.sampleDistance))

	u.SetVec3(shader.UniformCameraPosition, vec3f(et.cameraPosition))
	u.SetVec3(shader.UniformProjectionDir, vec3f(et.projectionDirection))
	u.SetVec2(shader.UniformViewportOrigin, float32(vp.X), float32(vp.Y))
	u.SetVec2(shader.UniformInvViewportSize, 1/float32(vp.Width), 1/float32(vp.Height))

	var step, cellScale [3]float32
	minSpacing := math.MaxFloat64
	for i := 0; i < 3; i++ {
		if s := math.Abs(img.Spacing[i]); s > 0 {
			minSpacing = math.Min(minSpacing, s)
		}
	}
	if minSpacing == math.MaxFloat64 {
		minSpacing = 1
	}
	for i := 0; i < 3; i++ {
		step[i] = 1 / float32(max(tex.Size[i], 1))
		cellScale[i] = float32(2 * math.Abs(img.Spacing[i]) / minSpacing)
		if cellScale[i] == 0 {
			cellScale[i] = 2
		}
	}
	u.SetVec3(shader.UniformCellStep, step)
	u.SetVec3(shader.UniformCellScale, cellScale)

	u.SetVec4(shader.UniformComponentWeight, vec4of(prop.ComponentWeight))
	u.SetVec4(shader.UniformAmbient, vec4of(prop.Ambient))
	u.SetVec4(shader.UniformDiffuse, vec4of(prop.Diffuse))
	u.SetVec4(shader.UniformSpecular, vec4of(prop.Specular))
	u.SetVec4(shader.UniformSpecularPower, vec4of(prop.SpecularPower))
	if fc.features.Shade {
		setLightUniforms(u, fc.frame.Lights, et.view, fc.frame.TwoSidedLighting)
	}

	lo, hi := float32(-unboundedRange), float32(unboundedRange)
	if r := m.averageRange; r[0] < r[1] {
		lo, hi = float32(tex.Norm[0].Apply(r[0])), float32(tex.Norm[0].Apply(r[1]))
	}
	u.SetVec2(shader.UniformAverageRange, lo, hi)

	if fc.features.Cropping {
		m.cropping.setUniforms(u, vf)
	}
	if fc.features.Clipping {
		setClippingUniforms(u, m.clipping, vf)
	}
	if fc.features.Blend == shader.BlendSlice {
		setSlicePlane(u, slicePlane(prop, vf), vf)
	}
	u.SetFloat(shader.UniformMaskBlendFactor, float32(m.maskBlend))

	id := fc.frame.PropID
	u.SetVec3(shader.UniformPropID, [3]float32{
		float32(id&0xff) / 255, float32(id>>8&0xff) / 255, float32(id>>16&0xff) / 255,
	})
	u.SetVec3(shader.UniformTextureExtents, [3]float32{float32(tex.Size[0]), float32(tex.Size[1]), float32(tex.Size[2])})

	if len(fc.volumes) > 1 {
		textureToWorld0 := vf.textureToWorld()
		for i := range fc.volumes {
			vi := &fc.frames[i]
			t := vi.datasetToTexture.Mul4(vi.volumeMatrix.Inv()).Mul4(textureToWorld0)
			u.SetMat4At(shader.UniformVolumeTransforms, i, mat4f(t))
			s, b := fc.textures[i].ShaderScaleBias(false)
			u.SetVec4At(shader.UniformVolumeScaleBias, i, [4]float32{s[0], b[0], 0, 0})
		}
	}

	var isoValues [4]float32
	n := min(len(iso), shader.MaxIsoValues)
	for i := 0; i < n; i++ {
		isoValues[i] = float32(tex.Norm[0].Apply(iso[i]))
	}
	u.SetVec4(shader.UniformIsoValues, isoValues)
	u.SetInt(shader.UniformIsoCount, int32(n)) //nolint:gosec // G115: at most MaxIsoValues
}

// slicePlane returns the property's slice plane, or the plane through the
// volume centre facing +z in dataset coordinates.
func slicePlane(prop *Property, vf *volumeFrame) Plane {
	if prop.SlicePlane != nil {
		return *prop.SlicePlane
	}
	b := vf.bounds
	center := mgl64.Vec3{(b[0] + b[1]) / 2, (b[2] + b[3]) / 2, (b[4] + b[5]) / 2}
	return Plane{
		Origin: vf.volumeMatrix.Mul4x1(center.Vec4(1)).Vec3(),
		Normal: vf.volumeMatrix.Mul4x1(mgl64.Vec4{0, 0, 1, 0}).Vec3(),
	}
}

func vec4of(v [4]float64) [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}
