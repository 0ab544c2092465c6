// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// BlendFunc is the color blend equation applied when blending is enabled.
type BlendFunc uint8

// Blend functions.
const (
	// BlendSourceOver is (SRC_ALPHA, ONE_MINUS_SRC_ALPHA), the usual
	// convention for straight-alpha geometry.
	BlendSourceOver BlendFunc = iota

	// BlendPremultipliedOver is (ONE, ONE_MINUS_SRC_ALPHA), used for the
	// premultiplied output of the ray caster.
	BlendPremultipliedOver

	// BlendReplace writes the source unchanged (picking passes).
	BlendReplace
)

// String returns the blend function name.
func (f BlendFunc) String() string {
	switch f {
	case BlendSourceOver:
		return "SourceOver"
	case BlendPremultipliedOver:
		return "PremultipliedOver"
	case BlendReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// RenderState is the fixed-function state the ray caster changes while drawing.
type RenderState struct {
	DepthTest  bool
	DepthWrite bool
	Blend      bool
	BlendFunc  BlendFunc
	CullFace   bool

	// VertexBuffer and IndexBuffer are the geometry buffers bound for drawing.
	VertexBuffer BufferID
	IndexBuffer  BufferID
}

// VolumeRenderState returns the state used while drawing the bounding
// geometry: depth test on without depth writes, premultiplied over
// blending and back-face culling.
func VolumeRenderState(prev RenderState) RenderState {
	s := prev
	s.DepthTest = true
	s.DepthWrite = false
	s.Blend = true
	s.BlendFunc = BlendPremultipliedOver
	s.CullFace = true
	return s
}

// StateGuard restores a saved RenderState. Use it with defer so that every
// exit path of a draw puts the caller's state back:
//
//	guard := gpucore.SaveState(b)
//	defer guard.Restore()
type StateGuard struct {
	backend  Backend
	saved    RenderState
	restored bool
}

// SaveState snapshots the backend's current state.
func SaveState(b Backend) *StateGuard {
	return &StateGuard{backend: b, saved: b.RenderState()}
}

// Saved returns the snapshot taken by SaveState.
func (g *StateGuard) Saved() RenderState {
	return g.saved
}

// Restore puts the saved state back and unbinds geometry buffers.
// Calling Restore more than once is a no-op.
func (g *StateGuard) Restore() {
	if g == nil || g.restored {
		return
	}
	g.restored = true
	s := g.saved
	s.VertexBuffer = InvalidID
	s.IndexBuffer = InvalidID
	g.backend.SetRenderState(s)
}
