package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// insideTolerance is the slack of the point-in-box test.
const insideTolerance = 1e-12

// View is the camera and volume placement the bounding geometry depends on.
type View struct {
	// Position and FocalPoint are in world coordinates.
	Position   mgl64.Vec3
	FocalPoint mgl64.Vec3

	// ClippingRange is the {near, far} distance along the view direction.
	ClippingRange [2]float64

	// VolumeMatrix maps volume-local coordinates to world coordinates.
	VolumeMatrix mgl64.Mat4
}

// local returns the camera position, near point, far point and normalized
// view direction in volume-local coordinates.
func (v View) local() (near, far, dir mgl64.Vec3) {
	inv := v.VolumeMatrix.Inv()
	worldDir := v.FocalPoint.Sub(v.Position)

	dir = inv.Mul4x1(worldDir.Vec4(0)).Vec3()
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	if l := worldDir.Len(); l > 0 {
		worldDir = worldDir.Mul(1 / l)
	}

	nearWorld := v.Position.Add(worldDir.Mul(v.ClippingRange[0]))
	farWorld := v.Position.Add(worldDir.Mul(v.ClippingRange[1]))
	near = inv.Mul4x1(nearWorld.Vec4(1)).Vec3()
	far = inv.Mul4x1(farWorld.Vec4(1)).Vec3()
	return near, far, dir
}

// IsCameraInside reports whether the camera's near-plane point, taken in
// volume-local coordinates, lies within bounds.
func IsCameraInside(v View, bounds [6]float64) bool {
	near, _, _ := v.local()
	for i := 0; i < 3; i++ {
		if near[i] < bounds[2*i]-insideTolerance || near[i] > bounds[2*i+1]+insideTolerance {
			return false
		}
	}
	return true
}

// NearPlane returns the plane that clips the bounding box when the camera
// is inside it. The plane passes through the near point, pushed away from
// the camera by a thousandth of the near-far distance (at least 1000 float32
// epsilons), and its normal points along the view direction.
func NearPlane(v View) (origin, normal mgl64.Vec3) {
	near, far, dir := v.local()
	offset := near.Sub(far).Len() / 1000
	if minOffset := float64(math.Nextafter32(1, 2)-1) * 1000; offset < minOffset {
		offset = minOffset
	}
	return near.Add(dir.Mul(offset)), dir
}

// PreservesOrientation reports whether m keeps the handedness of the
// volume frame (positive upper-left 3x3 determinant).
func PreservesOrientation(m mgl64.Mat4) bool {
	return m.Mat3().Det() > 0
}
