package shader

import (
	"fmt"

	"github.com/gogpu/volray/gpucore"
)

// branches writes an if/else chain returning body(ch) for each channel,
// keyed by the table index c. Sampler arrays cannot be indexed at run
// time, so every channel gets its own branch.
func branches(s *snippet, chans []channel, body func(ch channel) string) {
	for i, ch := range chans {
		if i == len(chans)-1 {
			s.line("  return %s;", body(ch))
			break
		}
		s.line("  if (c == %d) {", ch.table)
		s.line("    return %s;", body(ch))
		s.line("  }")
	}
}

func scalarOf(ch channel) string { return fmt.Sprintf("scalar[%d]", ch.comp) }

func genOpacityDec(f Features) (Snippet, error) {
	var s snippet
	if f.Volumes > 1 {
		return volumeRGBA(f)
	}
	chans := f.channels()

	if f.Transfer == Transfer2D {
		for _, ch := range chans {
			s.texture(Indexed(Transfer2DPrefix, ch.table), gpucore.TextureDimension2D)
		}
		s.line("fn lookup2D(scalar: vec4<f32>, c: i32, gradient: vec4<f32>) -> vec4<f32> {")
		branches(&s, chans, func(ch channel) string {
			t := Indexed(Transfer2DPrefix, ch.table)
			return fmt.Sprintf("textureSampleLevel(%s, %s, vec2<f32>(%s, gradient.w), 0.0)", t, SamplerName(t), scalarOf(ch))
		})
		s.line("}")
		s.line("")
		s.line("fn sampleOpacity(scalar: vec4<f32>, c: i32, gradient: vec4<f32>) -> f32 {")
		s.line("  return lookup2D(scalar, c, gradient).a;")
		s.line("}")
		return s.done()
	}

	for _, ch := range chans {
		s.texture(Indexed(OpacityTablePrefix, ch.table), gpucore.TextureDimension2D)
	}
	s.line("fn scalarOpacity(scalar: vec4<f32>, c: i32) -> f32 {")
	branches(&s, chans, func(ch channel) string {
		return sample1D(Indexed(OpacityTablePrefix, ch.table), scalarOf(ch)) + ".r"
	})
	s.line("}")
	s.line("")

	var withGradient []channel
	for _, ch := range chans {
		if f.GradientOpacity.Has(ch.table) {
			withGradient = append(withGradient, ch)
		}
	}
	if len(withGradient) > 0 {
		for _, ch := range withGradient {
			s.texture(Indexed(GradientTablePrefix, ch.table), gpucore.TextureDimension2D)
		}
		s.line("fn gradientOpacity(gradient: vec4<f32>, c: i32) -> f32 {")
		for _, ch := range withGradient {
			s.line("  if (c == %d) {", ch.table)
			s.line("    return %s.r;", sample1D(Indexed(GradientTablePrefix, ch.table), "gradient.w"))
			s.line("  }")
		}
		s.line("  return 1.0;")
		s.line("}")
		s.line("")
	}

	s.line("fn sampleOpacity(scalar: vec4<f32>, c: i32, gradient: vec4<f32>) -> f32 {")
	if len(withGradient) > 0 {
		s.line("  return scalarOpacity(scalar, c) * gradientOpacity(gradient, c);")
	} else {
		s.line("  return scalarOpacity(scalar, c);")
	}
	s.line("}")
	return s.done()
}

// volumeRGBA declares the lookup of every volume's own tables.
func volumeRGBA(f Features) (Snippet, error) {
	var s snippet
	s.line("fn volumeRGBA(i: i32, value: f32) -> vec4<f32> {")
	for i := 0; i < f.Volumes; i++ {
		color, opacity := Indexed(ColorTablePrefix, i), Indexed(OpacityTablePrefix, i)
		s.texture(color, gpucore.TextureDimension2D)
		s.texture(opacity, gpucore.TextureDimension2D)
		expr := fmt.Sprintf("vec4<f32>(%s.rgb, %s.r)", sample1D(color, "value"), sample1D(opacity, "value"))
		if i == f.Volumes-1 {
			s.line("  return %s;", expr)
			break
		}
		s.line("  if (i == %d) {", i)
		s.line("    return %s;", expr)
		s.line("  }")
	}
	s.line("}")
	return s.done()
}

func genGradientDec(f Features) (Snippet, error) {
	if !f.usesGradient() {
		return empty()
	}
	var s snippet
	s.uniform(UniformCellStep, gpucore.UniformVec3)
	s.uniform(UniformCellScale, gpucore.UniformVec3)
	s.line("// computeGradient returns the texture space gradient of component c")
	s.line("// in xyz and the gradient table coordinate in w. The gradient table")
	s.line("// spans a quarter of the scalar range.")
	s.text(`fn computeGradient(p: vec3<f32>, c: i32) -> vec4<f32> {
  let dx = vec3<f32>(u.cellStep.x, 0.0, 0.0);
  let dy = vec3<f32>(0.0, u.cellStep.y, 0.0);
  let dz = vec3<f32>(0.0, 0.0, u.cellStep.z);
  let ahead = vec3<f32>(sampleVolume0(p + dx)[c], sampleVolume0(p + dy)[c], sampleVolume0(p + dz)[c]);
  let behind = vec3<f32>(sampleVolume0(p - dx)[c], sampleVolume0(p - dy)[c], sampleVolume0(p - dz)[c]);
  let delta = ahead - behind;
  let magnitude = clamp(length(delta / u.cellScale) * 4.0, 0.0, 1.0);
  return vec4<f32>(delta / (2.0 * u.cellStep), magnitude);
}`)
	return s.done()
}

func genLightingDec(f Features) (Snippet, error) {
	if !f.Shade {
		return empty()
	}
	var s snippet
	s.uniform(UniformTextureToEye, gpucore.UniformMat4)
	s.uniform(UniformTextureToEyeIT, gpucore.UniformMat4)
	s.uniform(UniformAmbient, gpucore.UniformVec4)
	s.uniform(UniformDiffuse, gpucore.UniformVec4)
	s.uniform(UniformSpecular, gpucore.UniformVec4)
	s.uniform(UniformSpecularPower, gpucore.UniformVec4)
	s.array(UniformLightAmbient, gpucore.UniformVec4, MaxLights)
	s.array(UniformLightDiffuse, gpucore.UniformVec4, MaxLights)
	s.array(UniformLightSpecular, gpucore.UniformVec4, MaxLights)
	s.uniform(UniformTwoSided, gpucore.UniformInt)

	s.line("fn computeLighting(color: vec4<f32>, c: i32, gradient: vec4<f32>) -> vec4<f32> {")
	s.line("  let posEye = (u.textureToEye * vec4<f32>(dataPos, 1.0)).xyz;")
	if f.Projection == Parallel {
		s.line("  let viewDir = vec3<f32>(0.0, 0.0, 1.0);")
	} else {
		s.line("  let viewDir = normalize(-posEye);")
	}
	s.text(`  var normal = (u.textureToEyeIT * vec4<f32>(gradient.xyz, 0.0)).xyz;
  let normalLength = length(normal);
  if (normalLength > 0.0) {
    normal = -normal / normalLength;
  }
  let shininess = u.specularPower[c];
  var ambient = vec3<f32>(0.0);
  var diffuse = vec3<f32>(0.0);
  var specular = vec3<f32>(0.0);`)

	switch f.Lights {
	case 1:
		s.text(`  ambient = u.lightAmbientColor[0].rgb;
  var nDotL = dot(normal, viewDir);
  if (u.twoSidedLighting != 0) {
    nDotL = abs(nDotL);
  }
  if (nDotL > 0.0) {
    diffuse = nDotL * u.lightDiffuseColor[0].rgb;
    specular = pow(nDotL, shininess) * u.lightSpecularColor[0].rgb;
  }`)
	default:
		s.array(UniformLightDirection, gpucore.UniformVec4, MaxLights)
		s.uniform(UniformNumLights, gpucore.UniformInt)
		s.line("  for (var i = 0; i < u.numLights; i++) {")
		s.line("    var l = -normalize(u.lightDirection[i].xyz);")
		s.line("    var atten = 1.0;")
		if f.Lights >= 3 {
			s.array(UniformLightPosition, gpucore.UniformVec4, MaxLights)
			s.array(UniformLightAttenuation, gpucore.UniformVec4, MaxLights)
			s.array(UniformLightCone, gpucore.UniformVec4, MaxLights)
			s.text(`    let cone = u.lightCone[i];
    if (cone.z != 0.0) {
      let toLight = u.lightPosition[i].xyz - posEye;
      let dist = length(toLight);
      l = toLight / dist;
      let k = u.lightAttenuation[i].xyz;
      atten = 1.0 / (k.x + dist * (k.y + dist * k.z));
      if (cone.x < 90.0) {
        let cosAngle = dot(-l, normalize(u.lightDirection[i].xyz));
        if (cosAngle < cos(radians(cone.x))) {
          atten = 0.0;
        } else {
          atten *= pow(cosAngle, cone.y);
        }
      }
    }`)
		}
		s.text(`    ambient += u.lightAmbientColor[i].rgb;
    var nDotL = dot(normal, l);
    var nDotH = dot(normal, normalize(l + viewDir));
    if (u.twoSidedLighting != 0) {
      nDotL = abs(nDotL);
      nDotH = abs(nDotH);
    }
    if (nDotL > 0.0) {
      diffuse += atten * nDotL * u.lightDiffuseColor[i].rgb;
    }
    if (nDotH > 0.0) {
      specular += atten * pow(nDotH, shininess) * u.lightSpecularColor[i].rgb;
    }
  }`)
	}
	s.text(`  let rgb = u.ambient[c] * ambient * color.rgb + u.diffuse[c] * diffuse * color.rgb + u.specular[c] * specular;
  return vec4<f32>(rgb, color.a);
}`)
	return s.done()
}

func genColorDec(f Features) (Snippet, error) {
	if f.Volumes > 1 {
		return empty()
	}
	var s snippet
	chans := f.channels()
	s.line("fn sampleColor(scalar: vec4<f32>, opacity: f32, c: i32, gradient: vec4<f32>) -> vec4<f32> {")
	s.line("  var rgb: vec3<f32>;")
	switch {
	case f.Transfer == Transfer2D:
		s.line("  rgb = lookup2D(scalar, c, gradient).rgb;")
	case f.Components == 4 && !f.Independent:
		s.line("  rgb = scalar.rgb;")
	case f.Components == 2 && !f.Independent:
		t := Indexed(ColorTablePrefix, 0)
		s.texture(t, gpucore.TextureDimension2D)
		s.line("  rgb = %s.rgb;", sample1D(t, "scalar.x"))
	default:
		for i, ch := range chans {
			t := Indexed(ColorTablePrefix, ch.table)
			s.texture(t, gpucore.TextureDimension2D)
			lookup := sample1D(t, scalarOf(ch)) + ".rgb"
			switch {
			case len(chans) == 1:
				s.line("  rgb = %s;", lookup)
			case i == 0:
				s.line("  if (c == %d) {", ch.table)
				s.line("    rgb = %s;", lookup)
			case i == len(chans)-1:
				s.line("  } else {")
				s.line("    rgb = %s;", lookup)
				s.line("  }")
			default:
				s.line("  } else if (c == %d) {", ch.table)
				s.line("    rgb = %s;", lookup)
			}
		}
	}
	if f.Mask == MaskLabelMap {
		s.line("  rgb = labelMapColor(scalar, rgb);")
	}
	if f.Shade {
		s.line("  return computeLighting(vec4<f32>(rgb, opacity), c, gradient);")
	} else {
		s.line("  return vec4<f32>(rgb, opacity);")
	}
	s.line("}")
	return s.done()
}
