package lut

import (
	"math"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/stamp"
)

// Correction selects how opacities are adjusted for the ray step size.
type Correction uint8

const (
	// CorrectionNone stores opacities unchanged (maximum, minimum,
	// average, isosurface and slice blending).
	CorrectionNone Correction = iota

	// CorrectionBeerLambert replaces a with 1-(1-a)^(d/u), so that
	// composite blending keeps its density when the step d changes.
	CorrectionBeerLambert

	// CorrectionScale multiplies a by d/u, for additive blending.
	CorrectionScale
)

// String returns the correction name.
func (c Correction) String() string {
	switch c {
	case CorrectionBeerLambert:
		return "BeerLambert"
	case CorrectionScale:
		return "Scale"
	default:
		return "None"
	}
}

// Correct applies c to opacity a for sample distance d and unit distance u.
// A non-positive unit distance is treated as 1.
func (c Correction) Correct(a, d, u float64) float64 {
	if u <= 0 {
		u = 1
	}
	switch c {
	case CorrectionBeerLambert:
		return 1 - math.Pow(1-a, d/u)
	case CorrectionScale:
		return a * d / u
	default:
		return a
	}
}

// OpacityTable is a 1D scalar opacity lookup texture.
type OpacityTable struct {
	texture
	width        int
	lastRange    [2]float64
	lastCorr     Correction
	lastDistance float64
	lastUnit     float64
	values       []float32
}

// NewOpacityTable creates a table with width entries bound to the shader
// texture called name. A width of 0 selects DefaultWidth.
func NewOpacityTable(b gpucore.Backend, name string, width int) *OpacityTable {
	if width <= 0 {
		width = DefaultWidth
	}
	return &OpacityTable{texture: newTexture(b, name, 1), width: width}
}

// Update rebuilds the table when fn changed since the last build, or when
// the range, correction, unit distance or filter differ from the last build.
// The sample distance is compared only when a correction applies, since
// uncorrected tables do not depend on it.
func (t *OpacityTable) Update(fn *PiecewiseFunction, rng [2]float64, corr Correction,
	sampleDistance, unitDistance float64, filter gpucore.FilterMode) (bool, error) {
	if err := checkRange(rng); err != nil {
		return false, err
	}
	if t.IsLoaded() && fn.MTime() <= t.buildTime && rng == t.lastRange &&
		corr == t.lastCorr && unitDistance == t.lastUnit && filter == t.filter &&
		(corr == CorrectionNone || sampleDistance == t.lastDistance) {
		return false, nil
	}

	if t.values == nil {
		t.values = make([]float32, t.width)
	}
	fn.Table(rng[0], rng[1], t.values)
	if corr != CorrectionNone {
		for i, a := range t.values {
			t.values[i] = float32(corr.Correct(float64(a), sampleDistance, unitDistance))
		}
	}
	if err := t.upload(t.values, t.width, 1, filter); err != nil {
		return false, err
	}
	t.lastRange = rng
	t.lastCorr = corr
	t.lastDistance = sampleDistance
	t.lastUnit = unitDistance
	t.buildTime = stamp.Next()
	return true, nil
}

// Values returns the last built opacities.
func (t *OpacityTable) Values() []float32 { return t.values }

// GradientOpacityTable is a 1D lookup texture over gradient magnitude.
// The table spans [0, Span(range)] in data units per voxel; the shader
// indexes it with the normalized gradient magnitude times four.
type GradientOpacityTable struct {
	texture
	width     int
	lastRange [2]float64
	values    []float32
}

// GradientSpan returns the gradient magnitude covered by a gradient
// opacity table built for a scalar range.
func GradientSpan(rng [2]float64) float64 {
	return 0.25 * (rng[1] - rng[0])
}

// NewGradientOpacityTable creates a table with width entries bound to the
// shader texture called name. A width of 0 selects DefaultWidth.
func NewGradientOpacityTable(b gpucore.Backend, name string, width int) *GradientOpacityTable {
	if width <= 0 {
		width = DefaultWidth
	}
	return &GradientOpacityTable{texture: newTexture(b, name, 1), width: width}
}

// Update rebuilds the table when fn changed since the last build, or when
// the scalar range or filter differ from the last build.
func (t *GradientOpacityTable) Update(fn *PiecewiseFunction, rng [2]float64, filter gpucore.FilterMode) (bool, error) {
	if err := checkRange(rng); err != nil {
		return false, err
	}
	if t.IsLoaded() && fn.MTime() <= t.buildTime && rng == t.lastRange && filter == t.filter {
		return false, nil
	}
	if t.values == nil {
		t.values = make([]float32, t.width)
	}
	fn.Table(0, GradientSpan(rng), t.values)
	if err := t.upload(t.values, t.width, 1, filter); err != nil {
		return false, err
	}
	t.lastRange = rng
	t.buildTime = stamp.Next()
	return true, nil
}

// Values returns the last built opacities.
func (t *GradientOpacityTable) Values() []float32 { return t.values }
