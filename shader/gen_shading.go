package shader

import (
	"fmt"

	"github.com/gogpu/volray/gpucore"
)

const zeroGradient = "vec4<f32>(0.0)"

// gradientAt returns the gradient expression of component comp at the
// current ray position.
func gradientAt(f Features, comp int) string {
	if !f.usesGradient() {
		return zeroGradient
	}
	return fmt.Sprintf("computeGradient(dataPos, %d)", comp)
}

// shadingActive reports whether the blend snippets run. The depth pre-pass
// replaces them.
func shadingActive(f Features) bool { return f.DepthPass != DepthPassRender }

func genShadingDec(f Features) (Snippet, error) {
	if !shadingActive(f) {
		return empty()
	}
	var s snippet
	s.text(`fn compositeSample(dst: vec4<f32>, src: vec4<f32>) -> vec4<f32> {
  return (1.0 - dst.a) * vec4<f32>(src.rgb * src.a, src.a) + dst;
}`)
	if len(f.channels()) > 1 || f.Blend == BlendAdditive || f.Blend == BlendAverageIntensity {
		s.uniform(UniformComponentWeight, gpucore.UniformVec4)
	}
	return s.done()
}

func genShadingInit(f Features) (Snippet, error) {
	if !shadingActive(f) {
		return empty()
	}
	var s snippet
	switch f.Blend {
	case BlendComposite:
		return empty()
	case BlendMaximumIntensity:
		s.line("  var extremeValue = vec4<f32>(-1.0e30);")
	case BlendMinimumIntensity:
		s.line("  var extremeValue = vec4<f32>(1.0e30);")
	case BlendAdditive:
		s.line("  var sumValue = vec4<f32>(0.0);")
	case BlendAverageIntensity:
		s.uniform(UniformAverageRange, gpucore.UniformVec2)
		s.line("  var avgValue = vec4<f32>(0.0);")
		s.line("  var numSamples = vec4<u32>(0u);")
	case BlendIsosurface:
		s.uniform(UniformIsoValues, gpucore.UniformVec4)
		s.uniform(UniformIsoCount, gpucore.UniformInt)
		s.line("  var prevScalar = 0.0;")
		s.line("  var firstSample = true;")
	case BlendSlice:
		s.array(UniformSlicePlane, gpucore.UniformVec4, 2)
		s.text(`  {
    let normal = u.slicePlane[1].xyz;
    let rate = dot(normal, dirStep);
    if (abs(rate) < 1.0e-12) {
      discard;
    }
    let steps = dot(normal, u.slicePlane[0].xyz - dataPos) / rate;
    if (steps < 0.0) {
      discard;
    }
    dataPos += dirStep * steps;
    currentT = steps;
  }`)
	default:
		return Snippet{}, fmt.Errorf("%w: blend mode %s", ErrUnsupportedFeature, f.Blend)
	}
	return s.done()
}

func genShadingImpl(f Features) (Snippet, error) {
	if !shadingActive(f) {
		return empty()
	}
	var s snippet
	switch f.Blend {
	case BlendComposite:
		compositeImpl(&s, f)
	case BlendSlice:
		compositeImpl(&s, f)
		s.line("    break;")
	case BlendMaximumIntensity, BlendMinimumIntensity:
		pick := "max"
		cmp := ">"
		if f.Blend == BlendMinimumIntensity {
			pick, cmp = "min", "<"
		}
		if f.Components == 1 || f.Independent {
			s.line("    extremeValue = %s(extremeValue, sampleVolume0(dataPos));", pick)
			break
		}
		k := f.Components - 1
		s.line("    {")
		s.line("      let scalar = sampleVolume0(dataPos);")
		s.line("      if (scalar[%d] %s extremeValue[%d]) {", k, cmp, k)
		s.line("        extremeValue = scalar;")
		s.line("      }")
		s.line("    }")
	case BlendAdditive:
		s.line("    {")
		s.line("      let scalar = sampleVolume0(dataPos);")
		for _, ch := range f.channels() {
			s.line("      sumValue[%d] += sampleOpacity(scalar, %d, %s) * scalar[%d];", ch.comp, ch.table, zeroGradient, ch.comp)
		}
		s.line("    }")
	case BlendAverageIntensity:
		s.line("    {")
		s.line("      let scalar = sampleVolume0(dataPos);")
		for _, ch := range f.channels() {
			s.line("      if (scalar[%d] >= u.averageRange.x && scalar[%d] <= u.averageRange.y) {", ch.comp, ch.comp)
			s.line("        avgValue[%d] += sampleOpacity(scalar, %d, %s) * scalar[%d];", ch.comp, ch.table, zeroGradient, ch.comp)
			s.line("        numSamples[%d] += 1u;", ch.comp)
			s.line("      }")
		}
		s.line("    }")
	case BlendIsosurface:
		s.line("    {")
		s.line("      let scalar = sampleVolume0(dataPos);")
		s.line("      if (!firstSample) {")
		s.line("        for (var i = 0; i < u.isoCount; i++) {")
		s.line("          let iso = u.isoValues[i];")
		s.line("          if (prevScalar != scalar.x && (prevScalar - iso) * (scalar.x - iso) <= 0.0) {")
		s.line("            let isoScalar = vec4<f32>(iso);")
		s.line("            let gradient = %s;", gradientAt(f, 0))
		s.line("            let opacity = sampleOpacity(isoScalar, 0, gradient);")
		s.line("            fragColor = compositeSample(fragColor, sampleColor(isoScalar, opacity, 0, gradient));")
		s.line("          }")
		s.line("        }")
		s.line("      }")
		s.line("      prevScalar = scalar.x;")
		s.line("      firstSample = false;")
		s.line("    }")
	default:
		return Snippet{}, fmt.Errorf("%w: blend mode %s", ErrUnsupportedFeature, f.Blend)
	}
	return s.done()
}

// compositeImpl writes front-to-back compositing of one sample.
func compositeImpl(s *snippet, f Features) {
	s.line("    {")
	s.line("      let scalar = sampleVolume0(dataPos);")
	switch chans := f.channels(); {
	case f.Volumes > 1:
		s.line("      fragColor = compositeSample(fragColor, volumeRGBA(0, scalar.x));")
		for i := 1; i < f.Volumes; i++ {
			s.line("      let p%d = volumePosition(%d, dataPos);", i, i)
			s.line("      if (insideVolume(p%d)) {", i)
			s.line("        fragColor = compositeSample(fragColor, volumeRGBA(%d, sampleVolume%d(p%d)));", i, i, i)
			s.line("      }")
		}
	case len(chans) == 1:
		ch := chans[0]
		s.line("      let gradient = %s;", gradientAt(f, ch.comp))
		s.line("      let opacity = sampleOpacity(scalar, %d, gradient);", ch.table)
		s.line("      if (opacity > 0.0) {")
		s.line("        fragColor = compositeSample(fragColor, sampleColor(scalar, opacity, %d, gradient));", ch.table)
		s.line("      }")
	default:
		s.line("      var totalAlpha = 0.0;")
		for _, ch := range chans {
			s.line("      let gradient%d = %s;", ch.table, gradientAt(f, ch.comp))
			s.line("      let alpha%d = sampleOpacity(scalar, %d, gradient%d) * u.componentWeight[%d];", ch.table, ch.table, ch.table, ch.table)
			s.line("      totalAlpha += alpha%d;", ch.table)
		}
		s.line("      if (totalAlpha > 0.0) {")
		s.line("        var src = vec4<f32>(0.0);")
		for _, ch := range chans {
			c := ch.table
			s.line("        if (alpha%d > 0.0) {", c)
			s.line("          let color%d = sampleColor(scalar, alpha%d, %d, gradient%d);", c, c, c, c)
			s.line("          src = vec4<f32>(src.rgb + color%d.rgb * alpha%d, src.a + alpha%d * alpha%d / totalAlpha);", c, c, c, c)
			s.line("        }")
		}
		s.line("        fragColor = (1.0 - fragColor.a) * src + fragColor;")
		s.line("      }")
	}
	s.line("    }")
}

func genShadingExit(f Features) (Snippet, error) {
	if !shadingActive(f) {
		return empty()
	}
	var s snippet
	chans := f.channels()
	switch f.Blend {
	case BlendComposite, BlendIsosurface, BlendSlice:
		return empty()
	case BlendMaximumIntensity, BlendMinimumIntensity:
		s.line("  {")
		if len(chans) == 1 {
			c := chans[0].table
			s.line("    let opacity = sampleOpacity(extremeValue, %d, %s);", c, zeroGradient)
			s.line("    let color = sampleColor(extremeValue, opacity, %d, %s);", c, zeroGradient)
			s.line("    fragColor = vec4<f32>(color.rgb * color.a, color.a);")
		} else {
			s.line("    var src = vec4<f32>(0.0);")
			for _, ch := range chans {
				c := ch.table
				s.line("    let opacity%d = sampleOpacity(extremeValue, %d, %s);", c, c, zeroGradient)
				s.line("    let color%d = sampleColor(extremeValue, opacity%d, %d, %s);", c, c, c, zeroGradient)
				s.line("    src += vec4<f32>(color%d.rgb * color%d.a, color%d.a) * u.componentWeight[%d];", c, c, c, c)
			}
			s.line("    fragColor = src;")
		}
		s.line("  }")
	case BlendAdditive:
		if len(chans) == 1 {
			s.line("  let total = clamp(sumValue.x, 0.0, 1.0);")
		} else {
			s.line("  let total = clamp(dot(sumValue, u.componentWeight), 0.0, 1.0);")
		}
		s.line("  fragColor = vec4<f32>(vec3<f32>(total), 1.0);")
	case BlendAverageIntensity:
		s.line("  if (numSamples.x + numSamples.y + numSamples.z + numSamples.w == 0u) {")
		s.line("    discard;")
		s.line("  }")
		s.line("  var average = 0.0;")
		for _, ch := range chans {
			weight := "1.0"
			if len(chans) > 1 {
				weight = fmt.Sprintf("u.componentWeight[%d]", ch.comp)
			}
			s.line("  if (numSamples[%d] > 0u) {", ch.comp)
			s.line("    average += avgValue[%d] * %s / f32(numSamples[%d]);", ch.comp, weight, ch.comp)
			s.line("  }")
		}
		s.line("  fragColor = vec4<f32>(vec3<f32>(average), 1.0);")
	default:
		return Snippet{}, fmt.Errorf("%w: blend mode %s", ErrUnsupportedFeature, f.Blend)
	}
	return s.done()
}
