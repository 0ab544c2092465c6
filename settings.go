package volray

import (
	"github.com/gogpu/volray/shader"
	"github.com/gogpu/volray/volume"
)

// BlendMode returns how samples along a ray are combined.
func (m *Mapper) BlendMode() shader.BlendMode { return m.opts.blend }

// SetBlendMode changes how samples along a ray are combined.
func (m *Mapper) SetBlendMode(b shader.BlendMode) { m.opts.blend = b }

// Sampling returns the ray step policy.
func (m *Mapper) Sampling() Sampling { return m.opts.sampling }

// SetSampling changes the ray step policy.
func (m *Mapper) SetSampling(s Sampling) { m.opts.sampling = s }

// SetCropping sets the cropping region. Cropping applies while c.Enabled
// is set.
func (m *Mapper) SetCropping(c Cropping) { m.cropping = c }

// SetClippingPlanes replaces the clipping planes, given in world
// coordinates. Only the first shader.MaxClippingPlanes planes apply.
func (m *Mapper) SetClippingPlanes(planes ...Plane) {
	if len(planes) > shader.MaxClippingPlanes {
		m.log.Warn("volray: extra clipping planes ignored",
			"planes", len(planes), "max", shader.MaxClippingPlanes)
	}
	m.clipping = append(m.clipping[:0], planes...)
}

// SetMask attaches a single-component uint8 mask covering the volume's
// extent. Binary masks hide samples where the mask is zero; label maps
// tint labels 1 and 2 with the property's LabelColors. A nil image or
// shader.MaskNone detaches the current mask.
func (m *Mapper) SetMask(img *volume.Image, typ shader.MaskType) {
	if m.maskImage != nil && m.maskImage != img {
		m.DetachMask(m.maskImage)
	}
	if img == nil || typ == shader.MaskNone {
		m.maskImage, m.maskType = nil, shader.MaskNone
		return
	}
	m.maskImage, m.maskType = img, typ
}

// DetachMask releases the texture of img. It is detached from the mapper
// too if it is the current mask.
func (m *Mapper) DetachMask(img *volume.Image) {
	if img == nil {
		return
	}
	if m.initialized {
		m.masks.Release(img)
	}
	if m.maskImage == img {
		m.maskImage, m.maskType = nil, shader.MaskNone
	}
}

// SetMaskBlendFactor sets how strongly label colours replace the
// transfer function colour, from 0 to 1.
func (m *Mapper) SetMaskBlendFactor(f float64) {
	m.maskBlend = min(max(f, 0), 1)
}

// SetAverageRange limits average intensity blending to samples within
// [lo, hi] in data units. An empty range (lo >= hi) accepts every sample.
func (m *Mapper) SetAverageRange(lo, hi float64) {
	m.averageRange = [2]float64{lo, hi}
}

// SetJitter turns ray start jittering on or off.
func (m *Mapper) SetJitter(on bool) { m.opts.jitter = on }

// SetRenderToImage turns offscreen rendering on or off.
func (m *Mapper) SetRenderToImage(on bool) { m.opts.renderToImage = on }

// SetDepthPass sets the contour values of the depth pre-pass. No
// contours turns the pass off.
func (m *Mapper) SetDepthPass(contours ...float64) {
	m.opts.depthPass = len(contours) > 0
	m.opts.contours = append([]float64(nil), contours...)
}
