// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/volray/gpucore"
)

// generators holds one generator per insertion point. PointBindings is
// filled by Compose itself.
var generators = [numPoints]generator{
	PointClipPosition:  genClipPosition,
	PointTextureCoords: genTextureCoords,

	PointOutputDec:       genOutputDec,
	PointBaseDec:         genBaseDec,
	PointRayDirectionDec: genRayDirectionDec,
	PointTerminationDec:  genTerminationDec,
	PointOpacityDec:      genOpacityDec,
	PointGradientDec:     genGradientDec,
	PointLightingDec:     genLightingDec,
	PointColorDec:        genColorDec,
	PointShadingDec:      genShadingDec,
	PointCroppingDec:     genCroppingDec,
	PointClippingDec:     genClippingDec,
	PointMaskDec:         genMaskDec,

	PointBaseInit:          genBaseInit,
	PointTerminationInit:   genTerminationInit,
	PointShadingInit:       genShadingInit,
	PointClippingInit:      genClippingInit,
	PointRenderToImageInit: genRenderToImageInit,
	PointDepthPassInit:     genDepthPassInit,

	PointTerminationImpl:   genTerminationImpl,
	PointCroppingImpl:      genCroppingImpl,
	PointClippingImpl:      genClippingImpl,
	PointMaskImpl:          genMaskImpl,
	PointShadingImpl:       genShadingImpl,
	PointRenderToImageImpl: genRenderToImageImpl,
	PointDepthPassImpl:     genDepthPassImpl,

	PointBaseExit:          genBaseExit,
	PointShadingExit:       genShadingExit,
	PointPickingExit:       genPickingExit,
	PointRenderToImageExit: genRenderToImageExit,
	PointDepthPassExit:     genDepthPassExit,
}

// uniformStruct and uniformVar name the uniform block in WGSL.
const (
	uniformStruct = "Params"
	uniformVar    = "u"
)

func errPoint(p Point, what string) error {
	return fmt.Errorf("%w: %s has no code for %s", ErrUnsupportedFeature, p, what)
}

// Compose builds the program for f from t. It is a pure function: equal
// arguments give byte-identical sources, layouts and slots.
//
// Points are generated in declaration order. Uniforms are laid out in the
// order snippets first declare them, and textures take slots the same way.
// Combinations without generator code return ErrUnsupportedFeature; a
// template missing the Bindings or Output::Dec points returns ErrTemplate.
func Compose(t *Template, f Features) (*gpucore.Program, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := checkTemplate(t); err != nil {
		return nil, err
	}

	var (
		code     [numPoints]string
		fields   []gpucore.UniformField
		types    = make(map[string]gpucore.UniformField)
		textures []TextureRef
		seenTex  = make(map[string]TextureRef)
	)
	for p := Point(0); p < numPoints; p++ {
		gen := generators[p]
		if gen == nil {
			continue
		}
		sn, err := gen(f)
		if err != nil {
			return nil, fmt.Errorf("shader: %s: %w", p, err)
		}
		code[p] = sn.Code
		for _, u := range sn.Uniforms {
			if prev, ok := types[u.Name]; ok {
				if prev.Type != u.Type || prev.Count != u.Count {
					return nil, fmt.Errorf("%w: uniform %q declared as %s and %s", ErrTemplate, u.Name, prev.Type.WGSL(), u.Type.WGSL())
				}
				continue
			}
			types[u.Name] = u
			fields = append(fields, u)
		}
		for _, tex := range sn.Textures {
			if prev, ok := seenTex[tex.Name]; ok {
				if prev != tex {
					return nil, fmt.Errorf("%w: texture %q declared twice with different types", ErrTemplate, tex.Name)
				}
				continue
			}
			seenTex[tex.Name] = tex
			textures = append(textures, tex)
		}
	}

	layout, err := gpucore.NewUniformLayout(fields)
	if err != nil {
		return nil, fmt.Errorf("shader: uniform layout: %w", err)
	}
	slots := assignSlots(textures)

	code[PointBindings] = bindings(&layout, nil)
	vs := render(t.Vertex, &code)
	code[PointBindings] = bindings(&layout, slots)
	fs := render(t.Fragment, &code)

	return &gpucore.Program{
		Label:       "volray/" + f.String(),
		Vertex:      vs,
		Fragment:    fs,
		Uniforms:    layout,
		Textures:    slots,
		WritesDepth: writesDepth(f),
	}, nil
}

func checkTemplate(t *Template) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrTemplate)
	}
	has := func(parts []Part, p Point) bool {
		for _, part := range parts {
			if part.IsPoint && part.Point == p {
				return true
			}
		}
		return false
	}
	switch {
	case !has(t.Vertex, PointBindings):
		return fmt.Errorf("%w: vertex stage lacks %s", ErrTemplate, PointBindings.Marker())
	case !has(t.Fragment, PointBindings):
		return fmt.Errorf("%w: fragment stage lacks %s", ErrTemplate, PointBindings.Marker())
	case !has(t.Fragment, PointOutputDec):
		return fmt.Errorf("%w: fragment stage lacks %s", ErrTemplate, PointOutputDec.Marker())
	}
	return nil
}

// assignSlots gives each texture a binding and, unless it is a depth
// texture, a sampler binding. Binding 0 is the uniform block.
func assignSlots(textures []TextureRef) []gpucore.TextureSlot {
	slots := make([]gpucore.TextureSlot, len(textures))
	next := 1
	for i, tex := range textures {
		slots[i] = gpucore.TextureSlot{
			Name:           tex.Name,
			Binding:        next,
			SamplerBinding: -1,
			Dimension:      tex.Dimension,
			Depth:          tex.Depth,
		}
		next++
		if !tex.Depth {
			slots[i].SamplerBinding = next
			next++
		}
	}
	return slots
}

// bindings renders the resource declarations of a stage.
func bindings(layout *gpucore.UniformLayout, slots []gpucore.TextureSlot) string {
	var b strings.Builder
	b.WriteString(layout.WGSLStruct(uniformStruct))
	fmt.Fprintf(&b, "\n@group(0) @binding(0) var<uniform> %s: %s;\n", uniformVar, uniformStruct)
	for _, s := range slots {
		if s.Depth {
			fmt.Fprintf(&b, "@group(0) @binding(%d) var %s: texture_depth_2d;\n", s.Binding, s.Name)
			continue
		}
		fmt.Fprintf(&b, "@group(0) @binding(%d) var %s: texture_%s<f32>;\n", s.Binding, s.Name, dimSuffix(s.Dimension))
		fmt.Fprintf(&b, "@group(0) @binding(%d) var %s: sampler;\n", s.SamplerBinding, SamplerName(s.Name))
	}
	return b.String()
}

func dimSuffix(d gpucore.TextureDimension) string {
	switch d {
	case gpucore.TextureDimension1D:
		return "1d"
	case gpucore.TextureDimension3D:
		return "3d"
	default:
		return "2d"
	}
}

// render joins template parts, substituting point code.
func render(parts []Part, code *[numPoints]string) string {
	var b strings.Builder
	for _, part := range parts {
		if part.IsPoint {
			b.WriteString(code[part.Point])
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
