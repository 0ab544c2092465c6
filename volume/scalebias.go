package volume

// TypeNormalization returns the affine map the texture hardware applies
// when it reads an element of type t: normalized = raw*scale + bias.
//
// Unsigned 8- and 16-bit integers map their full range onto [0,1]. Int8
// follows snorm textures: raw/127, with -128 clamped to -1 on read (see
// Normalization.Hardware). Int16 maps its asymmetric range exactly onto
// [-1,1]; it is streamed, so the map is applied on the CPU. Float types and
// types wider than 16 bits are not normalized.
func TypeNormalization(t ScalarType) (scale, bias float64) {
	switch t {
	case Uint8:
		return 1.0 / 255, 0
	case Int8:
		return 1.0 / 127, 0
	case Uint16:
		return 1.0 / 65535, 0
	case Int16:
		scale = 2.0 / 65535
		return scale, -1 - (-32768)*scale
	default:
		return 1, 0
	}
}

// Normalization maps raw samples of one component into [0,1] over that
// component's value range.
type Normalization struct {
	// Scale and Bias map the hardware-normalized value onto [0,1]:
	// v = hw*Scale + Bias. These are the values the shader applies.
	Scale, Bias float64

	// TypeScale and TypeBias are the hardware normalization of the
	// element type (see TypeNormalization).
	TypeScale, TypeBias float64

	// Low is the hardware value of the range minimum. Apply and Invert
	// subtract it before scaling, which keeps 64-bit integers near 2^53
	// exact.
	Low float64

	// Clamp limits hardware values to [-1, 1], as snorm reads do.
	Clamp bool
}

// Hardware returns the value the texture unit reads for raw.
func (n Normalization) Hardware(raw float64) float64 {
	hw := raw*n.TypeScale + n.TypeBias
	if n.Clamp {
		hw = max(-1, min(1, hw))
	}
	return hw
}

// ComputeNormalization returns the normalization of a component of type t
// with value range rng. A degenerate range (min == max) yields a unit
// scale so that every sample maps to 0.
func ComputeNormalization(t ScalarType, rng [2]float64) Normalization {
	ts, tb := TypeNormalization(t)
	n := Normalization{TypeScale: ts, TypeBias: tb, Scale: 1, Clamp: t == Int8}
	a, b := n.Hardware(rng[0]), n.Hardware(rng[1])
	if b != a {
		n.Scale = 1 / (b - a)
	}
	n.Low = a
	n.Bias = -a * n.Scale
	return n
}

// Apply maps a raw sample into [0,1].
func (n Normalization) Apply(raw float64) float64 {
	return (n.Hardware(raw) - n.Low) * n.Scale
}

// Invert recovers the raw sample from a normalized value.
func (n Normalization) Invert(v float64) float64 {
	return (v/n.Scale + n.Low - n.TypeBias) / n.TypeScale
}
