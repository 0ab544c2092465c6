// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"
)

// Limits of the ray caster.
const (
	MaxComponents     = 4
	MaxVolumes        = 4
	MaxLights         = 6
	MaxClippingPlanes = 6
	MaxIsoValues      = 4
)

// BlendMode selects how samples along a ray are combined.
type BlendMode uint8

// Blend modes.
const (
	BlendComposite BlendMode = iota
	BlendAdditive
	BlendMaximumIntensity
	BlendMinimumIntensity
	BlendAverageIntensity
	BlendIsosurface
	BlendSlice
)

var blendNames = [...]string{"composite", "additive", "mip", "minip", "average", "isosurface", "slice"}

// String returns the blend mode name.
func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", m)
}

// ParseBlendMode returns the blend mode named s.
func ParseBlendMode(s string) (BlendMode, error) {
	for i, n := range blendNames {
		if n == s {
			return BlendMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown blend mode %q", ErrUnsupportedFeature, s)
}

// MaskType selects the mask evaluation.
type MaskType uint8

// Mask types.
const (
	MaskNone MaskType = iota
	MaskBinary
	MaskLabelMap
)

// String returns the mask type name.
func (m MaskType) String() string {
	switch m {
	case MaskNone:
		return "none"
	case MaskBinary:
		return "binary"
	case MaskLabelMap:
		return "labelmap"
	default:
		return fmt.Sprintf("MaskType(%d)", m)
	}
}

// TransferMode is the dimensionality of the transfer functions.
type TransferMode uint8

// Transfer modes.
const (
	Transfer1D TransferMode = iota
	Transfer2D
)

// String returns "1d" or "2d".
func (m TransferMode) String() string {
	switch m {
	case Transfer1D:
		return "1d"
	case Transfer2D:
		return "2d"
	default:
		return fmt.Sprintf("TransferMode(%d)", m)
	}
}

// PickingPass selects a hardware selection pass.
type PickingPass uint8

// Picking passes.
const (
	PickingNone PickingPass = iota
	PickingActor
	PickingIDLow24
	PickingIDMid24
)

// String returns the pass name.
func (p PickingPass) String() string {
	switch p {
	case PickingNone:
		return "none"
	case PickingActor:
		return "actor"
	case PickingIDLow24:
		return "idlow24"
	case PickingIDMid24:
		return "idmid24"
	default:
		return fmt.Sprintf("PickingPass(%d)", p)
	}
}

// Projection is the camera projection. It changes how ray directions are
// computed.
type Projection uint8

// Projections.
const (
	Perspective Projection = iota
	Parallel
)

// String returns the projection name.
func (p Projection) String() string {
	if p == Parallel {
		return "parallel"
	}
	return "perspective"
}

// LightComplexity grades the lighting code.
//
//	0: no lighting
//	1: a single unit-intensity headlight
//	2: directional lights
//	3: at least one positional light
type LightComplexity uint8

// DepthPassStage selects the role of a program in depth-pass rendering.
type DepthPassStage uint8

// Depth pass stages.
const (
	// DepthPassOff renders normally.
	DepthPassOff DepthPassStage = iota

	// DepthPassRender is the isosurface pre-pass that writes depth.
	DepthPassRender

	// DepthPassComposite is the composite pass that stops rays at the
	// pre-pass depth.
	DepthPassComposite
)

// String returns the stage name.
func (s DepthPassStage) String() string {
	switch s {
	case DepthPassOff:
		return "off"
	case DepthPassRender:
		return "depth"
	case DepthPassComposite:
		return "composite"
	default:
		return fmt.Sprintf("DepthPassStage(%d)", s)
	}
}

// ComponentMask has bit i set for component i.
type ComponentMask uint8

// Has reports whether component i is set.
func (m ComponentMask) Has(i int) bool { return m&(1<<i) != 0 }

// Features selects every snippet of a composed program. It is comparable
// and used as a program cache key: equal Features compose byte-identical
// programs.
type Features struct {
	// Components is the number of scalar components (1 to 4).
	Components int

	// Independent treats components as separate fields with their own
	// transfer functions. Dependent components map to colour directly.
	Independent bool

	// Volumes is the number of volumes sharing the ray (1 to 4).
	Volumes int

	Blend    BlendMode
	Transfer TransferMode

	// GradientOpacity marks components with a gradient opacity function.
	GradientOpacity ComponentMask

	Shade  bool
	Lights LightComplexity

	Cropping bool
	Clipping bool
	Mask     MaskType

	// Jitter offsets ray starts by a noise texture.
	Jitter bool

	// SceneDepth terminates rays at the captured scene depth.
	SceneDepth bool

	Projection    Projection
	Picking       PickingPass
	RenderToImage bool
	DepthPass     DepthPassStage
}

// usesGradient reports whether the per-sample gradient is evaluated.
func (f Features) usesGradient() bool {
	return f.Shade || f.GradientOpacity != 0 || f.Transfer == Transfer2D
}

// channel is one opacity-carrying scalar: comp indexes the sample vector
// and table the transfer function tables.
type channel struct {
	comp, table int
}

// channels lists the channels composited per sample. Dependent
// components carry opacity in their last component only.
func (f Features) channels() []channel {
	switch {
	case f.Components == 1:
		return []channel{{0, 0}}
	case f.Independent:
		out := make([]channel, f.Components)
		for i := range out {
			out[i] = channel{i, i}
		}
		return out
	default:
		return []channel{{f.Components - 1, 0}}
	}
}

// Validate reports combinations no generator handles. The returned error
// wraps ErrUnsupportedFeature and names the concern.
func (f Features) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrUnsupportedFeature}, args...)...)
	}
	switch {
	case f.Components < 1 || f.Components > MaxComponents:
		return fail("%d components", f.Components)
	case f.Volumes < 1 || f.Volumes > MaxVolumes:
		return fail("%d volumes", f.Volumes)
	case f.Components == 3 && !f.Independent:
		return fail("three dependent components")
	case int(f.Blend) >= len(blendNames):
		return fail("blend mode %d", f.Blend)
	case f.Transfer > Transfer2D:
		return fail("transfer mode %d", f.Transfer)
	case f.Mask > MaskLabelMap:
		return fail("mask type %d", f.Mask)
	case f.Picking > PickingIDMid24:
		return fail("picking pass %d", f.Picking)
	case f.DepthPass > DepthPassComposite:
		return fail("depth pass stage %d", f.DepthPass)
	case f.Lights > 3:
		return fail("light complexity %d", f.Lights)
	case f.Shade != (f.Lights > 0):
		return fail("shading %t with light complexity %d", f.Shade, f.Lights)
	case f.GradientOpacity>>f.Components != 0:
		return fail("gradient opacity mask %04b for %d components", f.GradientOpacity, f.Components)
	}

	multi := f.Components > 1
	dependent := multi && !f.Independent
	switch f.Blend {
	case BlendAdditive, BlendAverageIntensity, BlendMaximumIntensity, BlendMinimumIntensity:
		if dependent && (f.Blend == BlendAdditive || f.Blend == BlendAverageIntensity) {
			return fail("%s blending of dependent components", f.Blend)
		}
		if f.Shade || f.GradientOpacity != 0 {
			return fail("gradients with %s blending", f.Blend)
		}
	case BlendIsosurface:
		if multi {
			return fail("isosurface blending of %d components", f.Components)
		}
	}

	if f.Transfer == Transfer2D {
		switch {
		case dependent:
			return fail("2D transfer functions with dependent components")
		case f.Blend != BlendComposite:
			return fail("2D transfer functions with %s blending", f.Blend)
		case f.GradientOpacity != 0:
			return fail("gradient opacity with 2D transfer functions")
		}
	}

	if f.Volumes > 1 {
		switch {
		case multi:
			return fail("multi-volume rendering of %d components", f.Components)
		case f.Blend != BlendComposite:
			return fail("multi-volume rendering with %s blending", f.Blend)
		case f.Shade || f.GradientOpacity != 0:
			return fail("gradients in multi-volume rendering")
		case f.Transfer == Transfer2D:
			return fail("2D transfer functions in multi-volume rendering")
		case f.Mask != MaskNone:
			return fail("masks in multi-volume rendering")
		}
	}

	if f.Mask == MaskLabelMap && (multi || f.Blend != BlendComposite) {
		return fail("label map masks need one component and composite blending")
	}

	if f.DepthPass != DepthPassOff {
		switch {
		case f.Blend != BlendComposite:
			return fail("depth pass with %s blending", f.Blend)
		case f.DepthPass == DepthPassRender && multi:
			return fail("depth pass of %d components", f.Components)
		case f.DepthPass == DepthPassRender && (f.RenderToImage || f.Picking != PickingNone):
			return fail("depth pass combined with render to image or picking")
		}
	}
	return nil
}

// String returns a compact description, used as the program label.
func (f Features) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "c%d", f.Components)
	if f.Components > 1 {
		if f.Independent {
			b.WriteString("i")
		} else {
			b.WriteString("d")
		}
	}
	if f.Volumes > 1 {
		fmt.Fprintf(&b, "-v%d", f.Volumes)
	}
	fmt.Fprintf(&b, "-%s-%s-%s", f.Blend, f.Transfer, f.Projection)
	if f.GradientOpacity != 0 {
		fmt.Fprintf(&b, "-go%04b", f.GradientOpacity)
	}
	if f.Shade {
		fmt.Fprintf(&b, "-l%d", f.Lights)
	}
	flags := []struct {
		on   bool
		name string
	}{
		{f.Cropping, "crop"},
		{f.Clipping, "clip"},
		{f.Jitter, "jitter"},
		{f.SceneDepth, "depth"},
		{f.RenderToImage, "rti"},
	}
	for _, fl := range flags {
		if fl.on {
			b.WriteString("-" + fl.name)
		}
	}
	if f.Mask != MaskNone {
		b.WriteString("-mask:" + f.Mask.String())
	}
	if f.Picking != PickingNone {
		b.WriteString("-pick:" + f.Picking.String())
	}
	if f.DepthPass != DepthPassOff {
		b.WriteString("-dp:" + f.DepthPass.String())
	}
	return b.String()
}
