package volray

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/stamp"
	"github.com/gogpu/volray/lut"
	"github.com/gogpu/volray/shader"
)

// Plane is an oriented plane. Points on the side the normal points to
// are kept.
type Plane struct {
	Origin mgl64.Vec3
	Normal mgl64.Vec3
}

// Property is the optical model of a volume. Transfer functions are
// per component; a nil function is created and seeded with defaults on
// first use. Call Modified after changing any field.
type Property struct {
	stamp.Time

	Color           [shader.MaxComponents]*lut.ColorTransferFunction
	ScalarOpacity   [shader.MaxComponents]*lut.PiecewiseFunction
	GradientOpacity [shader.MaxComponents]*lut.PiecewiseFunction
	Transfer2D      [shader.MaxComponents]*lut.TransferFunction2D

	// TransferMode selects 1D tables or the 2D tables over scalar and
	// gradient magnitude.
	TransferMode shader.TransferMode

	// ScalarOpacityUnitDistance is the distance over which the opacity
	// table values apply unchanged.
	ScalarOpacityUnitDistance [shader.MaxComponents]float64

	// Independent treats multiple components as separate fields.
	Independent     bool
	ComponentWeight [shader.MaxComponents]float64

	Interpolation gpucore.FilterMode

	Shade         bool
	Ambient       [shader.MaxComponents]float64
	Diffuse       [shader.MaxComponents]float64
	Specular      [shader.MaxComponents]float64
	SpecularPower [shader.MaxComponents]float64

	// IsoValues are the contour values of isosurface blending, in data
	// units.
	IsoValues []float64

	// SlicePlane is the plane of slice blending, in world coordinates.
	SlicePlane *Plane

	// LabelColors colour labels 1 and 2 of a label map mask.
	LabelColors [2]*lut.ColorTransferFunction
}

// NewProperty returns a property with unit weights and distances and the
// default material.
func NewProperty() *Property {
	p := &Property{}
	for i := 0; i < shader.MaxComponents; i++ {
		p.ScalarOpacityUnitDistance[i] = 1
		p.ComponentWeight[i] = 1
		p.Ambient[i] = 0.1
		p.Diffuse[i] = 0.7
		p.Specular[i] = 0.2
		p.SpecularPower[i] = 10
	}
	p.Modified()
	return p
}

// colorFunc returns the colour function of component i, creating it and
// seeding black-to-white points over rng when it has none.
func (p *Property) colorFunc(i int, rng [2]float64) *lut.ColorTransferFunction {
	if p.Color[i] == nil {
		p.Color[i] = lut.NewColorTransferFunction()
	}
	seedColor(p.Color[i], rng)
	return p.Color[i]
}

// opacityFunc returns the scalar opacity function of component i, seeded
// with a ramp from 0 to 0.5 over rng when it has no points.
func (p *Property) opacityFunc(i int, rng [2]float64) *lut.PiecewiseFunction {
	if p.ScalarOpacity[i] == nil {
		p.ScalarOpacity[i] = lut.NewPiecewiseFunction()
	}
	if p.ScalarOpacity[i].Size() == 0 {
		p.ScalarOpacity[i].AddPoint(rng[0], 0)
		p.ScalarOpacity[i].AddPoint(rng[1], 0.5)
	}
	return p.ScalarOpacity[i]
}

// labelColorFunc returns the colour function of label k (0 or 1).
func (p *Property) labelColorFunc(k int, rng [2]float64) *lut.ColorTransferFunction {
	if p.LabelColors[k] == nil {
		p.LabelColors[k] = lut.NewColorTransferFunction()
	}
	seedColor(p.LabelColors[k], rng)
	return p.LabelColors[k]
}

func seedColor(fn *lut.ColorTransferFunction, rng [2]float64) {
	if fn.Size() == 0 {
		fn.AddRGBPoint(rng[0], 0, 0, 0)
		fn.AddRGBPoint(rng[1], 1, 1, 1)
	}
}

// unitDistance returns the opacity unit distance of component i.
func (p *Property) unitDistance(i int) float64 {
	if d := p.ScalarOpacityUnitDistance[i]; d > 0 {
		return d
	}
	return 1
}

// hasGradientOpacity reports whether component i has a non-empty gradient
// opacity function.
func (p *Property) hasGradientOpacity(i int) bool {
	return p.GradientOpacity[i] != nil && p.GradientOpacity[i].Size() > 0
}
