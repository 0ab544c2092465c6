// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import "github.com/go-gl/mathgl/mgl64"

// ComputeBounds returns {xmin,xmax,ymin,ymax,zmin,zmax} of an image with
// the given point extent in its local frame. An axis with negative spacing
// swaps its min and max so that bounds[2i] <= bounds[2i+1].
func ComputeBounds(extent [6]int, spacing, origin [3]float64, cellFlag bool) [6]float64 {
	loaded := extent
	if cellFlag {
		loaded[1]--
		loaded[3]--
		loaded[5]--
	}
	return ComputeLoadedBounds(loaded, loaded, spacing, origin, cellFlag)
}

// ComputeLoadedBounds returns the bounds of a loaded sub-extent of a whole
// sample extent. Both extents index samples: points for point data, cells
// for cell data.
//
// Point data spans the first to the last loaded point. Cell data spans the
// outer faces of the first and last cell where the loaded extent touches
// the whole extent, and the cell centres where it was cut.
func ComputeLoadedBounds(loaded, whole [6]int, spacing, origin [3]float64, cellFlag bool) [6]float64 {
	var b [6]float64
	for i := 0; i < 3; i++ {
		swap := 0
		if spacing[i] < 0 {
			swap = 1
		}
		lo := float64(loaded[2*i])
		hi := float64(loaded[2*i+1])
		if cellFlag {
			if loaded[2*i] != whole[2*i] {
				lo += 0.5
			}
			if loaded[2*i+1] == whole[2*i+1] {
				hi += 1
			} else {
				hi += 0.5
			}
		}
		b[2*i+swap] = origin[i] + lo*spacing[i]
		b[2*i+1-swap] = origin[i] + hi*spacing[i]
	}
	return b
}

// CellToPoint returns the texture-coordinate transform that maps the unit
// cube onto the centres of the first and last texels, together with the
// transformed texture limits.
//
// Cell data samples the full texture, so the transform is the identity and
// the limits are 0 and 1. Point data keeps rays half a texel inside each
// face so that linear filtering never blends in the clamped border.
func CellToPoint(extent [6]int, cellFlag bool) (m mgl64.Mat4, texMin, texMax mgl64.Vec4) {
	m = mgl64.Ident4()
	texMin = mgl64.Vec4{0, 0, 0, 1}
	texMax = mgl64.Vec4{1, 1, 1, 1}
	if cellFlag {
		return m, texMin, texMax
	}
	for i := 0; i < 3; i++ {
		delta := float64(extent[2*i+1] - extent[2*i])
		if delta <= 0 {
			continue
		}
		lo := 0.5 / delta
		rng := (delta-0.5)/delta - lo
		m.Set(i, i, rng)
		m.Set(i, 3, lo)
	}
	return m, m.Mul4x1(texMin), m.Mul4x1(texMax)
}
