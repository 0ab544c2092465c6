package volray

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCroppingRegionFlags(t *testing.T) {
	img := rampVolume(t, 10)
	vf := newVolumeFrame(img, mgl64.Ident4())

	c := Cropping{Enabled: true, Flags: CropSubVolume}
	flags := c.regionFlags(&vf)
	kept := 0
	for i, f := range flags {
		if f != 0 {
			kept++
			if i != 14 {
				t.Errorf("region %d kept, want only the centre region 14", i)
			}
		}
	}
	if kept != 1 {
		t.Errorf("kept %d regions, want 1", kept)
	}

	c.Flags = CropAll
	flags = c.regionFlags(&vf)
	for i := 1; i <= 27; i++ {
		if flags[i] != 1 {
			t.Errorf("CropAll region %d = %d, want 1", i, flags[i])
		}
	}
	if flags[0] != 0 {
		t.Errorf("region 0 = %d, want 0", flags[0])
	}
}

func TestCroppingRegionFlagsFlippedAxis(t *testing.T) {
	img := rampVolume(t, 10)
	img.Spacing = [3]float64{-1, 1, 1}
	img.Origin = [3]float64{9, 0, 0}
	vf := newVolumeFrame(img, mgl64.Ident4())

	// Region x=0 (low x in dataset space) is x=2 in texture order.
	c := Cropping{Enabled: true, Flags: 1}
	flags := c.regionFlags(&vf)
	if flags[1+2] != 1 {
		t.Errorf("flags = %v, want texture region 3 kept", flags)
	}
}

func TestCroppingTexturePlanesClamped(t *testing.T) {
	img := rampVolume(t, 10)
	vf := newVolumeFrame(img, mgl64.Ident4())
	c := Cropping{Planes: [6]float64{-5, 20, 0, 9, 3, 6}}
	p := c.texturePlanes(&vf)

	if p[0] != vf.texCoord(0, 0) || p[1] != vf.texCoord(0, 9) {
		t.Errorf("x planes = %v, %v, want clamped to the bounds", p[0], p[1])
	}
	for i := 0; i < 3; i++ {
		if p[2*i] > p[2*i+1] {
			t.Errorf("axis %d planes %v > %v, want ascending", i, p[2*i], p[2*i+1])
		}
	}
}

func TestPlaneToTexture(t *testing.T) {
	img := rampVolume(t, 10)
	vf := newVolumeFrame(img, mgl64.Ident4())
	origin, normal := vf.planeToTexture(Plane{Origin: mgl64.Vec3{4.5, 4.5, 4.5}, Normal: mgl64.Vec3{0, 0, 2}})

	if !origin.ApproxEqualThreshold(mgl64.Vec3{0.5, 0.5, 0.5}, 1e-9) {
		t.Errorf("origin = %v, want the texture centre", origin)
	}
	if !normal.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("normal = %v, want unit +z", normal)
	}
}
