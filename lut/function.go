package lut

import (
	"sort"

	"github.com/gogpu/volray/internal/stamp"
)

// Point is a control point of a PiecewiseFunction.
type Point struct {
	X, Y float64
}

// PiecewiseFunction is a piecewise-linear scalar function, used for scalar
// opacity and gradient opacity. Values outside the point range clamp to
// the first and last point.
type PiecewiseFunction struct {
	stamp.Time
	points []Point
}

// NewPiecewiseFunction returns an empty function.
func NewPiecewiseFunction() *PiecewiseFunction {
	f := &PiecewiseFunction{}
	f.Modified()
	return f
}

// AddPoint inserts a control point, replacing any point at the same x.
func (f *PiecewiseFunction) AddPoint(x, y float64) {
	i := sort.Search(len(f.points), func(i int) bool { return f.points[i].X >= x })
	if i < len(f.points) && f.points[i].X == x {
		f.points[i].Y = y
	} else {
		f.points = append(f.points, Point{})
		copy(f.points[i+1:], f.points[i:])
		f.points[i] = Point{X: x, Y: y}
	}
	f.Modified()
}

// RemoveAllPoints clears the function.
func (f *PiecewiseFunction) RemoveAllPoints() {
	f.points = f.points[:0]
	f.Modified()
}

// Size returns the number of control points.
func (f *PiecewiseFunction) Size() int { return len(f.points) }

// Points returns the control points in ascending x order.
func (f *PiecewiseFunction) Points() []Point { return f.points }

// Range returns the x range covered by the points.
func (f *PiecewiseFunction) Range() [2]float64 {
	if len(f.points) == 0 {
		return [2]float64{}
	}
	return [2]float64{f.points[0].X, f.points[len(f.points)-1].X}
}

// Value evaluates the function at x.
func (f *PiecewiseFunction) Value(x float64) float64 {
	n := len(f.points)
	switch {
	case n == 0:
		return 0
	case x <= f.points[0].X:
		return f.points[0].Y
	case x >= f.points[n-1].X:
		return f.points[n-1].Y
	}
	i := sort.Search(n, func(i int) bool { return f.points[i].X > x })
	a, b := f.points[i-1], f.points[i]
	t := (x - a.X) / (b.X - a.X)
	return a.Y + t*(b.Y-a.Y)
}

// Table samples n evenly spaced values over [lo, hi] into out.
func (f *PiecewiseFunction) Table(lo, hi float64, out []float32) {
	n := len(out)
	for i := range out {
		out[i] = float32(f.Value(sampleAt(lo, hi, i, n)))
	}
}

// ColorPoint is a control point of a ColorTransferFunction.
type ColorPoint struct {
	X       float64
	R, G, B float64
}

// ColorTransferFunction maps scalars to RGB by linear interpolation
// between control points.
type ColorTransferFunction struct {
	stamp.Time
	points []ColorPoint
}

// NewColorTransferFunction returns an empty function.
func NewColorTransferFunction() *ColorTransferFunction {
	f := &ColorTransferFunction{}
	f.Modified()
	return f
}

// AddRGBPoint inserts a control point, replacing any point at the same x.
func (f *ColorTransferFunction) AddRGBPoint(x, r, g, b float64) {
	p := ColorPoint{X: x, R: r, G: g, B: b}
	i := sort.Search(len(f.points), func(i int) bool { return f.points[i].X >= x })
	if i < len(f.points) && f.points[i].X == x {
		f.points[i] = p
	} else {
		f.points = append(f.points, ColorPoint{})
		copy(f.points[i+1:], f.points[i:])
		f.points[i] = p
	}
	f.Modified()
}

// RemoveAllPoints clears the function.
func (f *ColorTransferFunction) RemoveAllPoints() {
	f.points = f.points[:0]
	f.Modified()
}

// Size returns the number of control points.
func (f *ColorTransferFunction) Size() int { return len(f.points) }

// Range returns the x range covered by the points.
func (f *ColorTransferFunction) Range() [2]float64 {
	if len(f.points) == 0 {
		return [2]float64{}
	}
	return [2]float64{f.points[0].X, f.points[len(f.points)-1].X}
}

// Color evaluates the function at x.
func (f *ColorTransferFunction) Color(x float64) [3]float64 {
	n := len(f.points)
	switch {
	case n == 0:
		return [3]float64{}
	case x <= f.points[0].X:
		p := f.points[0]
		return [3]float64{p.R, p.G, p.B}
	case x >= f.points[n-1].X:
		p := f.points[n-1]
		return [3]float64{p.R, p.G, p.B}
	}
	i := sort.Search(n, func(i int) bool { return f.points[i].X > x })
	a, b := f.points[i-1], f.points[i]
	t := (x - a.X) / (b.X - a.X)
	return [3]float64{
		a.R + t*(b.R-a.R),
		a.G + t*(b.G-a.G),
		a.B + t*(b.B-a.B),
	}
}

// Table samples n evenly spaced colours over [lo, hi] into out, which
// holds 3*n values.
func (f *ColorTransferFunction) Table(lo, hi float64, out []float32) {
	n := len(out) / 3
	for i := 0; i < n; i++ {
		c := f.Color(sampleAt(lo, hi, i, n))
		out[3*i] = float32(c[0])
		out[3*i+1] = float32(c[1])
		out[3*i+2] = float32(c[2])
	}
}

// TransferFunction2D is a colour and opacity image indexed by scalar
// value (x) and gradient magnitude (y). RGBA holds Width*Height texels.
type TransferFunction2D struct {
	stamp.Time
	Width, Height int
	RGBA          []float32
}

// NewTransferFunction2D returns a transparent 2D function.
func NewTransferFunction2D(width, height int) *TransferFunction2D {
	f := &TransferFunction2D{Width: width, Height: height, RGBA: make([]float32, 4*width*height)}
	f.Modified()
	return f
}

// Set stores the texel at (x, y). It does not call Modified.
func (f *TransferFunction2D) Set(x, y int, rgba [4]float32) {
	copy(f.RGBA[4*(y*f.Width+x):], rgba[:])
}

func sampleAt(lo, hi float64, i, n int) float64 {
	if n <= 1 {
		return lo
	}
	return lo + float64(i)*(hi-lo)/float64(n-1)
}
