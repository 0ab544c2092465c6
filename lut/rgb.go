package lut

import (
	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/stamp"
)

// RGBTable is a 1D colour lookup texture sampled from a
// ColorTransferFunction over a scalar range.
type RGBTable struct {
	texture
	width     int
	lastRange [2]float64
	staging   []float32
	rgb       []float32
}

// NewRGBTable creates a table with width entries bound to the shader
// texture called name. A width of 0 selects DefaultWidth.
func NewRGBTable(b gpucore.Backend, name string, width int) *RGBTable {
	if width <= 0 {
		width = DefaultWidth
	}
	return &RGBTable{texture: newTexture(b, name, 4), width: width}
}

// Update rebuilds the table when fn changed since the last build, or when
// the range or filter differ from the last build. It reports whether an
// upload happened. A degenerate range returns ErrDegenerateRange and keeps
// the previous table.
func (t *RGBTable) Update(fn *ColorTransferFunction, rng [2]float64, filter gpucore.FilterMode) (bool, error) {
	if err := checkRange(rng); err != nil {
		return false, err
	}
	if t.IsLoaded() && fn.MTime() <= t.buildTime && rng == t.lastRange && filter == t.filter {
		return false, nil
	}

	if t.rgb == nil {
		t.rgb = make([]float32, 3*t.width)
		t.staging = make([]float32, 4*t.width)
	}
	fn.Table(rng[0], rng[1], t.rgb)
	for i := 0; i < t.width; i++ {
		copy(t.staging[4*i:4*i+3], t.rgb[3*i:3*i+3])
		t.staging[4*i+3] = 1
	}
	if err := t.upload(t.staging, t.width, 1, filter); err != nil {
		return false, err
	}
	t.lastRange = rng
	t.buildTime = stamp.Next()
	return true, nil
}

// Width returns the number of table entries.
func (t *RGBTable) Width() int { return t.width }

// Values returns the last built RGB values (3 per entry).
func (t *RGBTable) Values() []float32 { return t.rgb }
