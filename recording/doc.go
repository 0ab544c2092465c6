// Package recording provides an in-memory gpucore.Backend that records
// every call.
//
// The recording backend keeps texture, buffer and uniform contents in host
// memory and logs each call as a typed [Command]. It serves two purposes:
//
//   - Tests: [Stats] counts uploads, so "nothing changed, nothing uploaded"
//     properties of the frame driver are checked without a GPU.
//   - Headless runs: the demo binary falls back to it when no GPU adapter
//     is available.
//
// # Basic Usage
//
//	b := recording.NewBackend()
//	m, _ := volray.NewMapper(b)
//	_ = m.Render(frame)
//	_ = m.Render(frame)
//	fmt.Println(b.Stats().Uploads())
//
// # Simulating context loss
//
// [Backend.LoseContext] drops every resource and bumps ContextID, which is
// how the frame driver detects that GPU resources must be recreated.
package recording
