// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geometry builds the proxy mesh whose rasterized front faces
// start the rays: the volume's bounding box, clipped at the near plane
// while the camera is inside the volume.
package geometry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/volray/gpucore"
)

// State is the bounding geometry state.
type State uint8

// Geometry states.
const (
	// StateStale means the buffers must be rebuilt before drawing.
	StateStale State = iota

	// StateCameraOutside holds the full box.
	StateCameraOutside

	// StateCameraInside holds the box clipped at the near plane.
	StateCameraInside
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStale:
		return "Stale"
	case StateCameraOutside:
		return "CameraOutside"
	case StateCameraInside:
		return "CameraInside"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Builder owns the vertex and index buffers of the bounding geometry.
type Builder struct {
	backend gpucore.Backend
	state   State

	bounds    [6]float64
	inputTime uint64
	preserve  bool
	contextID uint64

	vbo, ibo     gpucore.BufferID
	vboSize      int
	iboSize      int
	indexCount   int
	builds       uint64
	lastTriangle int
}

// NewBuilder returns a builder in the Stale state.
func NewBuilder(b gpucore.Backend) *Builder {
	return &Builder{backend: b}
}

// State returns the current state.
func (g *Builder) State() State { return g.state }

// Invalidate forces a rebuild on the next Update.
func (g *Builder) Invalidate() { g.state = StateStale }

// Update rebuilds the geometry when needed and reports whether it did.
//
// A rebuild happens when the builder is stale, the graphics context
// changed, bounds or the volume orientation changed, the input was modified
// after the last build (inputTime), the camera is inside the volume, or it
// was inside at the previous build. The last rule rebuilds the full box
// once after the camera leaves.
func (g *Builder) Update(bounds [6]float64, inputTime uint64, v View) (bool, error) {
	inside := IsCameraInside(v, bounds)
	preserve := PreservesOrientation(v.VolumeMatrix)
	contextID := g.backend.Capabilities().ContextID

	if g.state != StateStale &&
		contextID == g.contextID &&
		bounds == g.bounds &&
		preserve == g.preserve &&
		inputTime <= g.inputTime &&
		!inside &&
		g.state != StateCameraInside {
		return false, nil
	}

	if contextID != g.contextID {
		g.vbo, g.ibo = gpucore.InvalidID, gpucore.InvalidID
		g.vboSize, g.iboSize = 0, 0
	}
	g.contextID = contextID

	mesh := BuildMesh(bounds, v, inside)
	if err := g.upload(mesh); err != nil {
		g.state = StateStale
		return false, err
	}

	g.bounds = bounds
	g.inputTime = inputTime
	g.preserve = preserve
	g.builds++
	g.lastTriangle = mesh.Triangles()
	if inside {
		g.state = StateCameraInside
	} else {
		g.state = StateCameraOutside
	}
	return true, nil
}

func (g *Builder) upload(m *Mesh) error {
	verts := make([]byte, 4*len(m.Vertices))
	for i, f := range m.Vertices {
		binary.LittleEndian.PutUint32(verts[4*i:], math.Float32bits(f))
	}
	idx := make([]byte, 4*len(m.Indices))
	for i, n := range m.Indices {
		binary.LittleEndian.PutUint32(idx[4*i:], n)
	}

	var err error
	g.vbo, g.vboSize, err = g.ensure(g.vbo, g.vboSize, len(verts), gpucore.BufferUsageVertex)
	if err != nil {
		return fmt.Errorf("geometry: vertex buffer: %w", err)
	}
	g.ibo, g.iboSize, err = g.ensure(g.ibo, g.iboSize, len(idx), gpucore.BufferUsageIndex)
	if err != nil {
		return fmt.Errorf("geometry: index buffer: %w", err)
	}
	if err := g.backend.WriteBuffer(g.vbo, 0, verts); err != nil {
		return fmt.Errorf("geometry: write vertices: %w", err)
	}
	if err := g.backend.WriteBuffer(g.ibo, 0, idx); err != nil {
		return fmt.Errorf("geometry: write indices: %w", err)
	}
	g.indexCount = len(m.Indices)
	return nil
}

// ensure returns a buffer of at least size bytes, replacing id when it is
// too small.
func (g *Builder) ensure(id gpucore.BufferID, have, size int, usage gpucore.BufferUsage) (gpucore.BufferID, int, error) {
	if id != gpucore.InvalidID && have >= size {
		return id, have, nil
	}
	if id != gpucore.InvalidID {
		g.backend.DestroyBuffer(id)
	}
	nid, err := g.backend.CreateBuffer(size, usage|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, 0, err
	}
	return nid, size, nil
}

// DrawCall returns the draw of the current geometry with program p.
func (g *Builder) DrawCall(p gpucore.ProgramID) gpucore.DrawCall {
	return gpucore.DrawCall{
		Program:      p,
		VertexBuffer: g.vbo,
		IndexBuffer:  g.ibo,
		IndexCount:   g.indexCount,
	}
}

// Builds returns the number of rebuilds so far.
func (g *Builder) Builds() uint64 { return g.builds }

// Triangles returns the triangle count of the current geometry.
func (g *Builder) Triangles() int { return g.lastTriangle }

// Release destroys the buffers and marks the builder stale.
func (g *Builder) Release() {
	if g.contextID == g.backend.Capabilities().ContextID {
		if g.vbo != gpucore.InvalidID {
			g.backend.DestroyBuffer(g.vbo)
		}
		if g.ibo != gpucore.InvalidID {
			g.backend.DestroyBuffer(g.ibo)
		}
	}
	g.vbo, g.ibo = gpucore.InvalidID, gpucore.InvalidID
	g.vboSize, g.iboSize, g.indexCount = 0, 0, 0
	g.state = StateStale
}
