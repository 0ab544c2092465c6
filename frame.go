package volray

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/shader"
	"github.com/gogpu/volray/volume"
)

// Volume places an image with its optical model in the world.
type Volume struct {
	Image    *volume.Image
	Property *Property

	// Matrix maps the image's local frame to world coordinates. The zero
	// matrix means identity.
	Matrix mgl64.Mat4
}

func (v *Volume) matrix() mgl64.Mat4 {
	if v.Matrix == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return v.Matrix
}

// Frame is everything Render reads from the scene for one frame.
type Frame struct {
	// Volume is the rendered volume.
	Volume Volume

	// Others are additional single-component volumes composited along
	// the same rays as Volume.
	Others []Volume

	Camera           *Camera
	Lights           []*Light
	TwoSidedLighting bool

	// Viewport is the region of the render target drawn into, with a
	// top-left origin.
	Viewport gpucore.Viewport

	// Picking selects a hardware selection pass. PropID is written by the
	// actor pass.
	Picking shader.PickingPass
	PropID  uint32

	// AllocatedRenderTime is the frame time budget in seconds used by the
	// reduction factor. Zero means 10 seconds.
	AllocatedRenderTime float64
}

// validate checks the inputs every frame needs.
func (f *Frame) validate() error {
	switch {
	case f == nil || f.Volume.Image == nil:
		return ErrNoInput
	case f.Volume.Property == nil:
		return ErrNoProperty
	case f.Camera == nil:
		return ErrNoCamera
	case f.Viewport.Empty():
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, f.Viewport.Width, f.Viewport.Height)
	}
	for i, v := range f.Others {
		if v.Image == nil {
			return fmt.Errorf("%w: volume %d", ErrNoInput, i+1)
		}
		if v.Property == nil {
			return fmt.Errorf("%w: volume %d", ErrNoProperty, i+1)
		}
	}
	if n := 1 + len(f.Others); n > shader.MaxVolumes {
		return fmt.Errorf("%w: %d volumes", shader.ErrUnsupportedFeature, n)
	}
	return nil
}

// volumes returns Volume followed by Others.
func (f *Frame) volumes() []*Volume {
	out := make([]*Volume, 0, 1+len(f.Others))
	out = append(out, &f.Volume)
	for i := range f.Others {
		out = append(out, &f.Others[i])
	}
	return out
}
