package volray

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/volray/volume"
)

// volumeFrame relates the coordinate systems of one volume. Dataset
// coordinates are the image's local frame, texture coordinates address
// the 3D texture and include the half-texel adjustment of point data.
type volumeFrame struct {
	bounds           [6]float64
	volumeMatrix     mgl64.Mat4
	datasetToTexture mgl64.Mat4
	texMin, texMax   mgl64.Vec4
	flipped          [3]bool
}

func newVolumeFrame(img *volume.Image, m mgl64.Mat4) volumeFrame {
	shape := img.Shape()
	vf := volumeFrame{bounds: img.Bounds(), volumeMatrix: m}

	textureToDataset := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		t0, t1 := vf.bounds[2*i], vf.bounds[2*i+1]
		if img.Spacing[i] < 0 {
			t0, t1 = t1, t0
			vf.flipped[i] = true
		}
		scale := t1 - t0
		if scale == 0 {
			scale = 1
		}
		textureToDataset.Set(i, i, scale)
		textureToDataset.Set(i, 3, t0)
	}
	cellToPoint, texMin, texMax := volume.CellToPoint(shape.Extent, shape.CellData)
	vf.datasetToTexture = cellToPoint.Mul4(textureToDataset.Inv())
	vf.texMin, vf.texMax = texMin, texMax
	return vf
}

// textureToWorld maps texture coordinates to world coordinates.
func (vf *volumeFrame) textureToWorld() mgl64.Mat4 {
	return vf.volumeMatrix.Mul4(vf.datasetToTexture.Inv())
}

// texCoord maps a dataset coordinate along axis i to texture space.
func (vf *volumeFrame) texCoord(i int, v float64) float64 {
	return vf.datasetToTexture.At(i, i)*v + vf.datasetToTexture.At(i, 3)
}

// planeToTexture maps a world plane into texture space.
func (vf *volumeFrame) planeToTexture(p Plane) (origin, normal mgl64.Vec3) {
	t2w := vf.textureToWorld()
	origin = t2w.Inv().Mul4x1(p.Origin.Vec4(1)).Vec3()
	normal = t2w.Mat3().Transpose().Mul3x1(p.Normal)
	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	}
	return origin, normal
}

// eyeTransforms holds the matrices shared by every pass of a frame.
type eyeTransforms struct {
	view, projection mgl64.Mat4
	modelView        mgl64.Mat4
	textureToEye     mgl64.Mat4
	eyeToTexture     mgl64.Mat4

	// cameraPosition and projectionDirection are in dataset coordinates.
	cameraPosition      mgl64.Vec3
	projectionDirection mgl64.Vec3
}

func newEyeTransforms(cam *Camera, vf *volumeFrame, aspect float64) eyeTransforms {
	et := eyeTransforms{
		view:       cam.ViewMatrix(),
		projection: cam.ProjectionMatrix(aspect),
	}
	et.modelView = et.view.Mul4(vf.volumeMatrix)
	et.textureToEye = et.modelView.Mul4(vf.datasetToTexture.Inv())
	et.eyeToTexture = et.textureToEye.Inv()

	worldToDataset := vf.volumeMatrix.Inv()
	et.cameraPosition = worldToDataset.Mul4x1(cam.Position.Vec4(1)).Vec3()
	et.projectionDirection = worldToDataset.Mul4x1(cam.DirectionOfProjection().Vec4(0)).Vec3()
	return et
}

func mat4f(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func vec3f(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func vec4f(v mgl64.Vec3, w float32) [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), w}
}
