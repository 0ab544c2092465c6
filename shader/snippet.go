package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/volray/gpucore"
)

// Snippet is the output of one generator: WGSL text plus the uniforms and
// textures the text refers to.
type Snippet struct {
	Code     string
	Uniforms []gpucore.UniformField
	Textures []TextureRef
}

// TextureRef is a texture a snippet samples.
type TextureRef struct {
	Name      string
	Dimension gpucore.TextureDimension

	// Depth marks texture_depth_2d, read with textureLoad and no sampler.
	Depth bool
}

// SamplerName returns the WGSL name of the sampler paired with a texture.
func SamplerName(texture string) string { return texture + "Sampler" }

// generator produces the snippet of one insertion point.
type generator func(f Features) (Snippet, error)

// snippet accumulates a Snippet.
type snippet struct {
	b        strings.Builder
	uniforms []gpucore.UniformField
	textures []TextureRef
}

// line writes one formatted line.
func (s *snippet) line(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
	s.b.WriteByte('\n')
}

// text writes literal WGSL.
func (s *snippet) text(code string) {
	s.b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		s.b.WriteByte('\n')
	}
}

func (s *snippet) uniform(name string, t gpucore.UniformType) {
	s.uniforms = append(s.uniforms, gpucore.UniformField{Name: name, Type: t})
}

func (s *snippet) array(name string, t gpucore.UniformType, n int) {
	s.uniforms = append(s.uniforms, gpucore.UniformField{Name: name, Type: t, Count: n})
}

func (s *snippet) texture(name string, dim gpucore.TextureDimension) {
	s.textures = append(s.textures, TextureRef{Name: name, Dimension: dim})
}

func (s *snippet) depthTexture(name string) {
	s.textures = append(s.textures, TextureRef{Name: name, Dimension: gpucore.TextureDimension2D, Depth: true})
}

func (s *snippet) done() (Snippet, error) {
	return Snippet{Code: s.b.String(), Uniforms: s.uniforms, Textures: s.textures}, nil
}

// empty is the generator result for points a feature set does not use.
func empty() (Snippet, error) { return Snippet{}, nil }

// sample1D returns the WGSL expression sampling a one-row table at x.
func sample1D(table, x string) string {
	return fmt.Sprintf("textureSampleLevel(%s, %s, vec2<f32>(%s, 0.5), 0.0)", table, SamplerName(table), x)
}
