package volray

import (
	"math"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/shader"
)

// Cropping region flags. Region x + 3y + 9z (x, y, z in 0..2, counted
// from the low side of each pair of cropping planes) is kept when bit
// x + 3y + 9z is set.
const (
	CropSubVolume   uint32 = 0x0002000
	CropFence       uint32 = 0x2ebfeba
	CropInvertFence uint32 = 0x5140145
	CropCross       uint32 = 0x0417410
	CropInvertCross uint32 = 0x7be8bef
	CropAll         uint32 = 0x7ffffff
)

// Cropping restricts rendering to regions of the 3x3x3 grid cut by two
// planes per axis.
type Cropping struct {
	Enabled bool

	// Planes are xmin, xmax, ymin, ymax, zmin, zmax in dataset
	// coordinates.
	Planes [6]float64

	// Flags select the kept regions.
	Flags uint32
}

// texturePlanes clamps the cropping planes to the volume bounds and maps
// them to texture coordinates in ascending order per axis.
func (c *Cropping) texturePlanes(vf *volumeFrame) [6]float64 {
	var out [6]float64
	for i := 0; i < 3; i++ {
		lo, hi := vf.bounds[2*i], vf.bounds[2*i+1]
		a := vf.texCoord(i, math.Min(math.Max(c.Planes[2*i], lo), hi))
		b := vf.texCoord(i, math.Min(math.Max(c.Planes[2*i+1], lo), hi))
		out[2*i], out[2*i+1] = math.Min(a, b), math.Max(a, b)
	}
	return out
}

// regionFlags expands Flags into the 32 shader flags indexed by region
// 1..27 in texture order. Axes with negative spacing run backwards in
// texture space, so their region index is mirrored.
func (c *Cropping) regionFlags(vf *volumeFrame) [32]int32 {
	var out [32]int32
	for z := 0; z < 3; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				d := [3]int{x, y, z}
				for i := range d {
					if vf.flipped[i] {
						d[i] = 2 - d[i]
					}
				}
				if c.Flags&(1<<(d[0]+3*d[1]+9*d[2])) != 0 {
					out[1+x+3*y+9*z] = 1
				}
			}
		}
	}
	return out
}

func (c *Cropping) setUniforms(u *gpucore.UniformBlock, vf *volumeFrame) {
	p := c.texturePlanes(vf)
	u.SetVec4At(shader.UniformCroppingPlanes, 0, [4]float32{float32(p[0]), float32(p[1]), float32(p[2]), float32(p[3])})
	u.SetVec4At(shader.UniformCroppingPlanes, 1, [4]float32{float32(p[4]), float32(p[5]), 0, 0})
	flags := c.regionFlags(vf)
	for i := 0; i < 8; i++ {
		u.SetIVec4At(shader.UniformCroppingFlags, i, [4]int32(flags[4*i:4*i+4]))
	}
}

// setClippingUniforms writes up to shader.MaxClippingPlanes planes and
// returns the number written.
func setClippingUniforms(u *gpucore.UniformBlock, planes []Plane, vf *volumeFrame) int {
	n := min(len(planes), shader.MaxClippingPlanes)
	for i := 0; i < n; i++ {
		o, nrm := vf.planeToTexture(planes[i])
		u.SetVec4At(shader.UniformClippingPlanes, 2*i, vec4f(o, 1))
		u.SetVec4At(shader.UniformClippingPlanes, 2*i+1, vec4f(nrm, 0))
	}
	u.SetInt(shader.UniformClippingCount, int32(n)) //nolint:gosec // G115: at most MaxClippingPlanes
	return n
}

// setSlicePlane writes the slice plane in texture coordinates.
func setSlicePlane(u *gpucore.UniformBlock, p Plane, vf *volumeFrame) {
	o, n := vf.planeToTexture(p)
	u.SetVec4At(shader.UniformSlicePlane, 0, vec4f(o, 1))
	u.SetVec4At(shader.UniformSlicePlane, 1, vec4f(n, 0))
}
