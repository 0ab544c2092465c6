// Package gpucore provides the graphics backend abstraction of the volume
// ray caster.
//
// This package defines the [Backend] interface, which abstracts over
// different GPU bindings so that the frame driver, lookup tables, texture
// loaders and bounding geometry are implemented once:
//   - gogpu/wgpu (Pure Go WebGPU via HAL), see backend/wgpu
//   - an in-memory recorder for tests and headless runs, see recording
//
// # Architecture
//
//	               +-----------------+
//	               |     volray      |
//	               |  (frame driver) |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |  gpucore.Backend|
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/wgpu   |          |    recording    |
//	|  (hal.Device)   |          |  (test double)  |
//	+-----------------+          +-----------------+
//
// # Programs and uniforms
//
// A [Program] carries WGSL sources together with a [UniformLayout] and the
// list of [TextureSlot] bindings. The frame driver fills a [UniformBlock]
// by name; the backend uploads the packed bytes unchanged.
//
// # State
//
// [SaveState] and [StateGuard.Restore] bracket every draw so that the
// caller's fixed-function state survives early returns.
package gpucore
