package shader

import "github.com/gogpu/volray/gpucore"

// pickThreshold is the accumulated opacity a fragment needs to be
// selectable.
const pickThreshold = "3.0 / 255.0"

func genPickingExit(f Features) (Snippet, error) {
	var s snippet
	switch f.Picking {
	case PickingNone:
		return empty()
	case PickingActor:
		s.uniform(UniformPropID, gpucore.UniformVec3)
		s.line("  if (fragColor.a <= %s) {", pickThreshold)
		s.line("    discard;")
		s.line("  }")
		s.line("  out.color = vec4<f32>(u.%s, 1.0);", UniformPropID)
	case PickingIDLow24, PickingIDMid24:
		s.uniform(UniformTextureExtents, gpucore.UniformVec3)
		s.line("  if (fragColor.a <= %s) {", pickThreshold)
		s.line("    discard;")
		s.line("  }")
		s.text(`  let dims = vec3<u32>(u.textureExtents);
  let voxel = min(vec3<u32>(clamp(dataPos, vec3<f32>(0.0), vec3<f32>(1.0)) * u.textureExtents), dims - vec3<u32>(1u));
  let id = dims.x * dims.y * voxel.z + dims.x * voxel.y + voxel.x + 1u;`)
		if f.Picking == PickingIDLow24 {
			s.line("  out.color = vec4<f32>(f32(id & 0xffu), f32((id >> 8u) & 0xffu), f32((id >> 16u) & 0xffu), 255.0) / 255.0;")
		} else {
			s.line("  out.color = vec4<f32>(f32((id >> 24u) & 0xffu), 0.0, 0.0, 255.0) / 255.0;")
		}
	default:
		return Snippet{}, errPoint(PointPickingExit, f.Picking.String())
	}
	return s.done()
}

func genRenderToImageInit(f Features) (Snippet, error) {
	if !f.RenderToImage {
		return empty()
	}
	var s snippet
	s.line("  var opaqueFound = false;")
	s.line("  var opaquePos = vec3<f32>(0.0);")
	return s.done()
}

func genRenderToImageImpl(f Features) (Snippet, error) {
	if !f.RenderToImage {
		return empty()
	}
	var s snippet
	s.line("    if (!opaqueFound && fragColor.a > 0.0) {")
	s.line("      opaqueFound = true;")
	s.line("      opaquePos = dataPos;")
	s.line("    }")
	return s.done()
}

func genRenderToImageExit(f Features) (Snippet, error) {
	if !f.RenderToImage {
		return empty()
	}
	var s snippet
	s.uniform(UniformProjection, gpucore.UniformMat4)
	s.uniform(UniformTextureToEye, gpucore.UniformMat4)
	s.line("  out.depth = 1.0;")
	s.line("  if (opaqueFound) {")
	s.line("    let clip = u.%s * u.%s * vec4<f32>(opaquePos, 1.0);", UniformProjection, UniformTextureToEye)
	s.line("    out.depth = clamp(clip.z / clip.w, 0.0, 1.0);")
	s.line("  }")
	return s.done()
}

func genDepthPassInit(f Features) (Snippet, error) {
	if f.DepthPass != DepthPassRender {
		return empty()
	}
	var s snippet
	s.uniform(UniformIsoValues, gpucore.UniformVec4)
	s.uniform(UniformIsoCount, gpucore.UniformInt)
	s.line("  var isoFound = false;")
	s.line("  var isoPos = vec3<f32>(0.0);")
	s.line("  var prevScalar = 0.0;")
	s.line("  var firstSample = true;")
	return s.done()
}

func genDepthPassImpl(f Features) (Snippet, error) {
	if f.DepthPass != DepthPassRender {
		return empty()
	}
	var s snippet
	s.text(`    {
      let scalar = sampleVolume0(dataPos).x;
      if (!firstSample) {
        for (var i = 0; i < u.isoCount; i++) {
          let iso = u.isoValues[i];
          if (prevScalar != scalar && (prevScalar - iso) * (scalar - iso) <= 0.0) {
            isoFound = true;
          }
        }
      }
      if (isoFound) {
        isoPos = dataPos;
        break;
      }
      prevScalar = scalar;
      firstSample = false;
    }`)
	return s.done()
}

func genDepthPassExit(f Features) (Snippet, error) {
	if f.DepthPass != DepthPassRender {
		return empty()
	}
	var s snippet
	s.uniform(UniformProjection, gpucore.UniformMat4)
	s.uniform(UniformTextureToEye, gpucore.UniformMat4)
	s.line("  if (!isoFound) {")
	s.line("    discard;")
	s.line("  }")
	s.line("  let clip = u.%s * u.%s * vec4<f32>(isoPos, 1.0);", UniformProjection, UniformTextureToEye)
	s.line("  out.depth = clamp(clip.z / clip.w, 0.0, 1.0);")
	s.line("  out.color = vec4<f32>(vec3<f32>(out.depth), 1.0);")
	return s.done()
}
