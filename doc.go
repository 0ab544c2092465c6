// Package volray renders volumes by GPU ray casting.
//
// # Overview
//
// A [Mapper] draws a 3D image as seen through a [Camera]. The front faces
// of the volume's bounding box start one ray per fragment; the fragment
// program marches the ray through a 3D texture and blends samples looked
// up in colour and opacity tables built from the volume's [Property].
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/volray"
//		"github.com/gogpu/volray/backend"
//		_ "github.com/gogpu/volray/backend/wgpu"
//		"github.com/gogpu/volray/volume"
//	)
//
//	b, err := backend.Default()
//	if err != nil {
//		return err
//	}
//	m, err := volray.NewMapper(b)
//	if err != nil {
//		return err
//	}
//	img, _ := volume.FromSlice(volume.Shape{Extent: [6]int{0, 63, 0, 63, 0, 63}, Components: 1}, samples)
//	err = m.Render(&volray.Frame{
//		Volume:   volray.Volume{Image: img, Property: volray.NewProperty()},
//		Camera:   cam,
//		Viewport: gpucore.Viewport{Width: 512, Height: 512},
//	})
//
// # Frames
//
// Render runs a fixed sequence each frame. It validates the frame and
// makes sure resources exist in the current graphics context. It then
// refreshes the volume and mask textures, the bounding geometry, the
// program and the lookup tables, and captures scene depth. Finally it binds
// everything and draws. Each step rebuilds only what changed since the last
// frame, so a repeated frame uploads nothing. A frame that cannot be drawn
// returns an error and leaves the target untouched; the caller's render
// state is restored on every path.
//
// # Blending
//
// Composite blending accumulates premultiplied colour front to back.
// Maximum, minimum, average and additive blending project intensities.
// Isosurface and slice blending stop at contour values or a plane.
// Programs are composed from [shader.Features] and cached per feature set.
//
// # Packages
//
//   - gpucore: the backend interface and render state
//   - backend: backend registry; backend/wgpu draws on gogpu/wgpu
//   - recording: an in-memory backend that records every call
//   - volume: images and their 3D textures
//   - lut: transfer functions and lookup tables
//   - mask: the mask texture budget
//   - geometry: the bounding box proxy
//   - shader: WGSL program composition
//   - config: YAML settings
package volray
