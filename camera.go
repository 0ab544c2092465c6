package volray

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/geometry"
	"github.com/gogpu/volray/shader"
)

// Camera is the viewpoint of a frame. Angles are in degrees.
type Camera struct {
	Position   mgl64.Vec3
	FocalPoint mgl64.Vec3
	ViewUp     mgl64.Vec3

	// ClippingRange is the {near, far} distance from Position along the
	// direction of projection.
	ClippingRange [2]float64

	// ViewAngle is the vertical field of view of a perspective camera.
	ViewAngle float64

	// Parallel selects an orthographic projection of half height
	// ParallelScale.
	Parallel      bool
	ParallelScale float64
}

// NewCamera returns a perspective camera at (0, 0, 1) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position:      mgl64.Vec3{0, 0, 1},
		ViewUp:        mgl64.Vec3{0, 1, 0},
		ClippingRange: [2]float64{0.01, 1000.01},
		ViewAngle:     30,
		ParallelScale: 1,
	}
}

// ViewMatrix maps world coordinates to eye coordinates.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.FocalPoint, c.ViewUp)
}

// ProjectionMatrix maps eye coordinates to clip coordinates with depth in
// [0, 1].
func (c *Camera) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	near, far := c.ClippingRange[0], c.ClippingRange[1]
	var p mgl64.Mat4
	if c.Parallel {
		s := c.ParallelScale
		p = mgl64.Ortho(-s*aspect, s*aspect, -s, s, near, far)
	} else {
		p = mgl64.Perspective(mgl64.DegToRad(c.ViewAngle), aspect, near, far)
	}
	return depthZeroToOne.Mul4(p)
}

// depthZeroToOne remaps clip depth from [-w, w] to [0, w].
var depthZeroToOne = mgl64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// DirectionOfProjection returns the unit vector from Position to
// FocalPoint.
func (c *Camera) DirectionOfProjection() mgl64.Vec3 {
	d := c.FocalPoint.Sub(c.Position)
	if l := d.Len(); l > 0 {
		return d.Mul(1 / l)
	}
	return mgl64.Vec3{0, 0, -1}
}

// Projection returns the projection the ray caster compiles for.
func (c *Camera) Projection() shader.Projection {
	if c.Parallel {
		return shader.Parallel
	}
	return shader.Perspective
}

// geometryView returns the camera as seen by the bounding geometry.
func (c *Camera) geometryView(volumeMatrix mgl64.Mat4) geometry.View {
	return geometry.View{
		Position:      c.Position,
		FocalPoint:    c.FocalPoint,
		ClippingRange: c.ClippingRange,
		VolumeMatrix:  volumeMatrix,
	}
}
