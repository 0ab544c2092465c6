package lut

import (
	"fmt"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/stamp"
)

// Table2D uploads a TransferFunction2D as a 2D RGBA texture indexed by
// (scalar, gradient magnitude).
type Table2D struct {
	texture
}

// NewTable2D creates a 2D table bound to the shader texture called name.
func NewTable2D(b gpucore.Backend, name string) *Table2D {
	return &Table2D{texture: newTexture(b, name, 4)}
}

// Update re-uploads fn when it changed since the last build or the filter
// differs.
func (t *Table2D) Update(fn *TransferFunction2D, filter gpucore.FilterMode) (bool, error) {
	if fn.Width <= 0 || fn.Height <= 0 || len(fn.RGBA) != 4*fn.Width*fn.Height {
		return false, fmt.Errorf("lut: 2D transfer function %dx%d with %d values", fn.Width, fn.Height, len(fn.RGBA))
	}
	if t.IsLoaded() && fn.MTime() <= t.buildTime && filter == t.filter {
		return false, nil
	}
	if err := t.upload(fn.RGBA, fn.Width, fn.Height, filter); err != nil {
		return false, err
	}
	t.buildTime = stamp.Next()
	return true, nil
}
