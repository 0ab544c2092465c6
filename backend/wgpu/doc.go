// Package wgpu implements the ray caster's gpucore.Backend on the gogpu/wgpu
// hardware abstraction layer.
//
// gogpu/wgpu is a Pure Go WebGPU implementation. This package talks to its
// hal layer directly: devices, textures, pipelines and command encoders are
// hal objects, and every submission waits on a fence. Importing the package
// registers the "wgpu" backend with the backend registry and the Vulkan hal
// backend with wgpu:
//
//	import _ "github.com/gogpu/volray/backend/wgpu"
//
// Other APIs are selected with WithAPI after a blank import of their hal
// package. Building with the nogpu tag leaves the package empty, so only the
// recording backend is registered.
//
// # Device Ownership
//
// New creates its own instance and device and renders into an offscreen
// frame (color plus Depth32Float) of the configured size. The frame stands in
// for the default framebuffer: draws with an empty Target write it, CopyDepth
// reads its depth, and ReadFrame returns its pixels.
//
// NewFromProvider shares the device of a host application. The provider is
// a gpucontext.DeviceProvider that also exposes HalDevice and HalQueue; the
// device stays owned by the host.
//
// # Programs
//
// Composed programs are compiled with naga before the driver sees them, so
// WGSL errors surface as *gpucore.CompileError with the stage and the naga
// diagnostic. Render pipelines are created lazily per fixed-function state
// and color format and cached on the program.
//
// # Limitations
//
// Render attachments are cleared on first use (color to zero, depth to
// one) and loaded afterwards. Float32 textures are only filterable when the
// adapter exposes the float32-filterable feature; Capabilities reports it.
package wgpu
