// Package backend selects the graphics backend the ray caster draws with.
//
// Backends register a Factory from init() and are opened by name or by
// priority. The recording backend is registered by this package and is
// always available; the GPU backend registers itself when imported:
//
//	import _ "github.com/gogpu/volray/backend/wgpu"
//
// # Backend Selection
//
// Default opens the best available backend, trying "wgpu" before
// "recording". Open requests a specific backend:
//
//	b, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	m := volray.NewMapper(b)
//
// # Available Backends
//
//   - "wgpu": GPU rendering via gogpu/wgpu (Vulkan, Metal, DX12, GLES)
//   - "recording": host-memory backend that records calls (headless, tests)
package backend
