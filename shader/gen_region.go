package shader

import "github.com/gogpu/volray/gpucore"

func genCroppingDec(f Features) (Snippet, error) {
	if !f.Cropping {
		return empty()
	}
	var s snippet
	s.array(UniformCroppingPlanes, gpucore.UniformVec4, 2)
	s.array(UniformCroppingFlags, gpucore.UniformIVec4, 8)
	s.text(`// croppingRegion returns the region (1 to 27) of the 3x3x3 grid the
// cropping planes cut the volume into.
fn croppingRegion(p: vec3<f32>) -> i32 {
  let lo = vec3<f32>(u.croppingPlanes[0].x, u.croppingPlanes[0].z, u.croppingPlanes[1].x);
  let hi = vec3<f32>(u.croppingPlanes[0].y, u.croppingPlanes[0].w, u.croppingPlanes[1].y);
  let r = select(vec3<i32>(1), select(vec3<i32>(3), vec3<i32>(2), p < hi), p >= lo);
  return r.x + (r.y - 1) * 3 + (r.z - 1) * 9;
}

fn croppingFlag(region: i32) -> i32 {
  return u.croppingFlags[region / 4][region % 4];
}`)
	return s.done()
}

func genCroppingImpl(f Features) (Snippet, error) {
	if !f.Cropping {
		return empty()
	}
	var s snippet
	s.line("    if (croppingFlag(croppingRegion(dataPos)) == 0) {")
	s.line("      continue;")
	s.line("    }")
	return s.done()
}

func genClippingDec(f Features) (Snippet, error) {
	if !f.Clipping {
		return empty()
	}
	var s snippet
	s.uniform(UniformClippingCount, gpucore.UniformInt)
	s.array(UniformClippingPlanes, gpucore.UniformVec4, 2*MaxClippingPlanes)
	s.text(`// clipSide returns 0 when p is inside every plane, 1 when it is outside
// a plane the ray is entering and 2 when it is outside a plane the ray is
// leaving.
fn clipSide(p: vec3<f32>) -> i32 {
  for (var i = 0; i < u.clippingPlaneCount; i++) {
    let origin = u.clippingPlanes[2 * i].xyz;
    let normal = u.clippingPlanes[2 * i + 1].xyz;
    if (dot(p - origin, normal) < 0.0) {
      return select(1, 2, dot(dirStep, normal) < 0.0);
    }
  }
  return 0;
}`)
	return s.done()
}

func genClippingInit(f Features) (Snippet, error) {
	if !f.Clipping {
		return empty()
	}
	var s snippet
	s.text(`  {
    var enter = currentT;
    var leave = terminateMax;
    for (var i = 0; i < u.clippingPlaneCount; i++) {
      let origin = u.clippingPlanes[2 * i].xyz;
      let normal = u.clippingPlanes[2 * i + 1].xyz;
      let dist = dot(dataPos - origin, normal);
      let rate = dot(dirStep, normal);
      if (abs(rate) < 1.0e-12) {
        if (dist < 0.0) {
          discard;
        }
        continue;
      }
      let crossing = currentT - dist / rate;
      if (rate > 0.0) {
        enter = max(enter, crossing);
      } else {
        leave = min(leave, crossing);
      }
    }
    if (enter > leave) {
      discard;
    }
    dataPos += dirStep * (enter - currentT);
    currentT = enter;
    if (dataPos.x > u.texMax.x || dataPos.x < u.texMin.x || dataPos.y > u.texMax.y || dataPos.y < u.texMin.y || dataPos.z > u.texMax.z || dataPos.z < u.texMin.z) {
      discard;
    }
  }`)
	return s.done()
}

func genClippingImpl(f Features) (Snippet, error) {
	if !f.Clipping {
		return empty()
	}
	var s snippet
	s.line("    {")
	s.line("      let side = clipSide(dataPos);")
	s.line("      if (side == 2) {")
	s.line("        break;")
	s.line("      }")
	s.line("      if (side == 1) {")
	s.line("        continue;")
	s.line("      }")
	s.line("    }")
	return s.done()
}

func genMaskDec(f Features) (Snippet, error) {
	if f.Mask != MaskLabelMap {
		return empty()
	}
	var s snippet
	s.texture(MaskTexture, gpucore.TextureDimension3D)
	s.texture(MaskColorTable1, gpucore.TextureDimension2D)
	s.texture(MaskColorTable2, gpucore.TextureDimension2D)
	s.uniform(UniformMaskBlendFactor, gpucore.UniformFloat)
	s.line("// labelMapColor blends in the colour of labels 1 and 2.")
	s.line("fn labelMapColor(scalar: vec4<f32>, rgb: vec3<f32>) -> vec3<f32> {")
	s.line("  let label = i32(round(textureSampleLevel(%s, %s, dataPos, 0.0).r * 255.0));", MaskTexture, SamplerName(MaskTexture))
	s.line("  if (label == 1) {")
	s.line("    return mix(rgb, %s.rgb, u.%s);", sample1D(MaskColorTable1, "scalar.x"), UniformMaskBlendFactor)
	s.line("  }")
	s.line("  if (label == 2) {")
	s.line("    return mix(rgb, %s.rgb, u.%s);", sample1D(MaskColorTable2, "scalar.x"), UniformMaskBlendFactor)
	s.line("  }")
	s.line("  return rgb;")
	s.line("}")
	return s.done()
}

func genMaskImpl(f Features) (Snippet, error) {
	if f.Mask != MaskBinary {
		return empty()
	}
	var s snippet
	s.texture(MaskTexture, gpucore.TextureDimension3D)
	s.line("    if (textureSampleLevel(%s, %s, dataPos, 0.0).r <= 0.0) {", MaskTexture, SamplerName(MaskTexture))
	s.line("      continue;")
	s.line("    }")
	return s.done()
}
