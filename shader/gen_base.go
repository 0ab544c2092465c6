package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/volray/gpucore"
)

func genClipPosition(Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformProjection, gpucore.UniformMat4)
	s.uniform(UniformModelView, gpucore.UniformMat4)
	s.uniform(UniformVolumeMatrix, gpucore.UniformMat4)
	s.line("  out.position = u.%s * u.%s * u.%s * vec4<f32>(vertexPos, 1.0);",
		UniformProjection, UniformModelView, UniformVolumeMatrix)
	return s.done()
}

func genTextureCoords(Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformDatasetToTexture, gpucore.UniformMat4)
	s.line("  out.textureCoords = (u.%s * vec4<f32>(vertexPos, 1.0)).xyz;", UniformDatasetToTexture)
	return s.done()
}

func genOutputDec(f Features) (Snippet, error) {
	var s snippet
	s.line("struct FragmentOutput {")
	s.line("  @location(0) color: vec4<f32>,")
	if writesDepth(f) {
		s.line("  @builtin(frag_depth) depth: f32,")
	}
	s.line("};")
	return s.done()
}

// writesDepth reports whether the fragment stage writes frag_depth.
func writesDepth(f Features) bool {
	return f.RenderToImage || f.DepthPass == DepthPassRender
}

func genBaseDec(f Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformTexMin, gpucore.UniformVec4)
	s.uniform(UniformTexMax, gpucore.UniformVec4)
	s.uniform(UniformScale, gpucore.UniformVec4)
	s.uniform(UniformBias, gpucore.UniformVec4)
	s.uniform(UniformSampleDistance, gpucore.UniformFloat)

	v0 := Indexed(VolumePrefix, 0)
	s.texture(v0, gpucore.TextureDimension3D)
	s.line("fn sampleVolume0(p: vec3<f32>) -> vec4<f32> {")
	s.line("  return textureSampleLevel(%s, %s, p, 0.0) * u.%s + u.%s;", v0, SamplerName(v0), UniformScale, UniformBias)
	s.line("}")

	if f.Volumes > 1 {
		s.array(UniformVolumeTransforms, gpucore.UniformMat4, MaxVolumes)
		s.array(UniformVolumeScaleBias, gpucore.UniformVec4, MaxVolumes)
		for i := 1; i < f.Volumes; i++ {
			vi := Indexed(VolumePrefix, i)
			s.texture(vi, gpucore.TextureDimension3D)
			s.line("")
			s.line("fn sampleVolume%d(p: vec3<f32>) -> f32 {", i)
			s.line("  let sb = u.%s[%d];", UniformVolumeScaleBias, i)
			s.line("  return textureSampleLevel(%s, %s, p, 0.0).r * sb.x + sb.y;", vi, SamplerName(vi))
			s.line("}")
		}
		s.text(`
// volumePosition maps the ray position into the texture of another
// volume.
fn volumePosition(i: i32, p: vec3<f32>) -> vec3<f32> {
  return (u.volumeTransforms[i] * vec4<f32>(p, 1.0)).xyz;
}

fn insideVolume(p: vec3<f32>) -> bool {
  return p.x >= 0.0 && p.y >= 0.0 && p.z >= 0.0 && p.x <= 1.0 && p.y <= 1.0 && p.z <= 1.0;
}`)
	}
	return s.done()
}

func genRayDirectionDec(f Features) (Snippet, error) {
	var s snippet
	s.line("fn rayDirection(vertexPos: vec3<f32>) -> vec3<f32> {")
	if f.Projection == Parallel {
		s.uniform(UniformProjectionDir, gpucore.UniformVec3)
		s.line("  return normalize(u.%s);", UniformProjectionDir)
	} else {
		s.uniform(UniformCameraPosition, gpucore.UniformVec3)
		s.line("  return normalize(vertexPos - u.%s);", UniformCameraPosition)
	}
	s.line("}")
	return s.done()
}

func genBaseInit(f Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformDatasetToTexture, gpucore.UniformMat4)
	s.line("  dirStep = (u.%s * vec4<f32>(rayDirection(frag.vertexPos), 0.0)).xyz * u.%s;",
		UniformDatasetToTexture, UniformSampleDistance)
	if f.Jitter {
		s.texture(NoiseTexture, gpucore.TextureDimension2D)
		s.line("  let noiseUV = fragCoord.xy / vec2<f32>(textureDimensions(%s));", NoiseTexture)
		s.line("  dataPos += dirStep * textureSampleLevel(%s, %s, noiseUV, 0.0).r;", NoiseTexture, SamplerName(NoiseTexture))
	}
	return s.done()
}

func genBaseExit(Features) (Snippet, error) {
	var s snippet
	s.line("  out.color = fragColor;")
	return s.done()
}

func genTerminationDec(f Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformViewportOrigin, gpucore.UniformVec2)
	s.uniform(UniformInvViewportSize, gpucore.UniformVec2)
	s.line("// stopDepth returns the window depth rays may not pass.")
	s.line("fn stopDepth() -> f32 {")
	s.line("  var depth = 1.0;")
	if f.SceneDepth || f.DepthPass == DepthPassComposite {
		s.line("  let pixel = vec2<i32>(fragCoord.xy - u.%s);", UniformViewportOrigin)
	}
	if f.SceneDepth {
		s.depthTexture(DepthTexture)
		s.line("  depth = textureLoad(%s, pixel, 0);", DepthTexture)
	}
	if f.DepthPass == DepthPassComposite {
		s.depthTexture(DepthPassTexture)
		s.line("  depth = min(depth, textureLoad(%s, pixel, 0));", DepthPassTexture)
	}
	s.line("  return depth;")
	s.line("}")
	return s.done()
}

func genTerminationInit(f Features) (Snippet, error) {
	var s snippet
	s.uniform(UniformInverseProjection, gpucore.UniformMat4)
	s.uniform(UniformEyeToTexture, gpucore.UniformMat4)
	s.line("  let depth = stopDepth();")
	if f.SceneDepth {
		s.line("  if (fragCoord.z >= depth) {")
		s.line("    discard;")
		s.line("  }")
	}
	s.line("  let uv = (fragCoord.xy - u.%s) * u.%s;", UniformViewportOrigin, UniformInvViewportSize)
	s.line("  var stop = u.%s * vec4<f32>(uv.x * 2.0 - 1.0, 1.0 - uv.y * 2.0, depth, 1.0);", UniformInverseProjection)
	s.line("  stop = u.%s * (stop / stop.w);", UniformEyeToTexture)
	s.line("  terminateMax = length(stop.xyz - dataPos) / length(dirStep);")
	return s.done()
}

func genTerminationImpl(Features) (Snippet, error) {
	var s snippet
	s.line("    if (%s) {", outsideBox("dataPos", "u."+UniformTexMin, "u."+UniformTexMax))
	s.line("      break;")
	s.line("    }")
	s.line("    if (currentT >= terminateMax || fragColor.a > 1.0 - 1.0 / 255.0) {")
	s.line("      break;")
	s.line("    }")
	return s.done()
}

// outsideBox returns a WGSL expression that is true when vector p lies
// outside [lo, hi] on any axis. Comparisons are written per component
// since naga does not lower the all and any builtins.
func outsideBox(p, lo, hi string) string {
	var terms []string
	for _, c := range "xyz" {
		terms = append(terms, fmt.Sprintf("%s.%c > %s.%c", p, c, hi, c), fmt.Sprintf("%s.%c < %s.%c", p, c, lo, c))
	}
	return strings.Join(terms, " || ")
}
