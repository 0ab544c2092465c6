package gpucore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Program is a vertex+fragment shader pair with the resource interface
// the fragment stage expects. Programs are produced by the shader composer
// and compiled by a Backend.
type Program struct {
	// Label is an optional debug label.
	Label string

	// Vertex and Fragment are WGSL sources. The vertex entry point is
	// vs_main and the fragment entry point is fs_main.
	Vertex   string
	Fragment string

	// Uniforms describes the single uniform block at group 0, binding 0.
	Uniforms UniformLayout

	// Textures lists sampled textures in slot order.
	Textures []TextureSlot

	// WritesDepth reports that the fragment stage writes frag_depth.
	WritesDepth bool
}

// SlotOf returns the slot index of the named texture, or -1.
func (p *Program) SlotOf(name string) int {
	for i := range p.Textures {
		if p.Textures[i].Name == name {
			return i
		}
	}
	return -1
}

// TextureSlot is one texture (and its sampler) visible to the fragment stage.
type TextureSlot struct {
	// Name is the shader variable name.
	Name string

	// Binding is the texture binding index in group 0.
	Binding int

	// SamplerBinding is the sampler binding index, or -1 for textures read
	// with textureLoad (depth textures).
	SamplerBinding int

	// Dimension is 1D, 2D or 3D.
	Dimension TextureDimension

	// Depth marks texture_depth_2d bindings.
	Depth bool
}

// UniformType is the WGSL type of a uniform field.
type UniformType uint8

// Uniform types.
const (
	UniformFloat UniformType = iota + 1
	UniformInt
	UniformVec2
	UniformVec3
	UniformVec4
	UniformIVec4
	UniformMat4
)

// WGSL returns the WGSL spelling of the type.
func (t UniformType) WGSL() string {
	switch t {
	case UniformFloat:
		return "f32"
	case UniformInt:
		return "i32"
	case UniformVec2:
		return "vec2<f32>"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformIVec4:
		return "vec4<i32>"
	case UniformMat4:
		return "mat4x4<f32>"
	default:
		return fmt.Sprintf("unknown%d", t)
	}
}

// align and size follow the WGSL uniform address space rules.
func (t UniformType) layout() (align, size int) {
	switch t {
	case UniformFloat, UniformInt:
		return 4, 4
	case UniformVec2:
		return 8, 8
	case UniformVec3:
		return 16, 12
	case UniformVec4, UniformIVec4:
		return 16, 16
	case UniformMat4:
		return 16, 64
	default:
		return 4, 0
	}
}

// UniformField is one member of the uniform block.
type UniformField struct {
	Name string
	Type UniformType

	// Count is the array length; 0 means a scalar member. Arrays are only
	// allowed for 16-byte element types so the stride matches WGSL.
	Count int

	// Offset is the byte offset in the block, assigned by NewUniformLayout.
	Offset int
}

// UniformLayout is an ordered uniform block.
type UniformLayout struct {
	Fields []UniformField
	Size   int
}

// NewUniformLayout assigns offsets to fields following WGSL alignment.
func NewUniformLayout(fields []UniformField) (UniformLayout, error) {
	out := make([]UniformField, len(fields))
	offset := 0
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if seen[f.Name] {
			return UniformLayout{}, fmt.Errorf("%w: duplicate uniform %q", ErrInvalidDescriptor, f.Name)
		}
		seen[f.Name] = true
		align, size := f.Type.layout()
		if size == 0 {
			return UniformLayout{}, fmt.Errorf("%w: uniform %q has unknown type", ErrInvalidDescriptor, f.Name)
		}
		if f.Count > 0 {
			if align != 16 || (size != 16 && size != 64) {
				return UniformLayout{}, fmt.Errorf("%w: uniform array %q must use a 16-byte element type", ErrInvalidDescriptor, f.Name)
			}
			size *= f.Count
		}
		offset = roundUp(offset, align)
		f.Offset = offset
		out[i] = f
		offset += size
	}
	return UniformLayout{Fields: out, Size: roundUp(offset, 16)}, nil
}

// Field returns the named field.
func (l *UniformLayout) Field(name string) (UniformField, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return UniformField{}, false
}

// WGSLStruct renders the layout as a WGSL struct declaration.
func (l *UniformLayout) WGSLStruct(name string) string {
	s := "struct " + name + " {\n"
	for _, f := range l.Fields {
		if f.Count > 0 {
			s += fmt.Sprintf("  %s: array<%s, %d>,\n", f.Name, f.Type.WGSL(), f.Count)
		} else {
			s += fmt.Sprintf("  %s: %s,\n", f.Name, f.Type.WGSL())
		}
	}
	return s + "};\n"
}

func roundUp(v, align int) int {
	return (v + align - 1) / align * align
}

// UniformBlock is a CPU-side uniform buffer packed according to a layout.
// Setters for names that are not in the layout are ignored, so the frame
// driver can set every value it knows about regardless of which features
// the active program was composed with.
type UniformBlock struct {
	layout *UniformLayout
	data   []byte
}

// NewUniformBlock allocates a zeroed block for layout.
func NewUniformBlock(layout *UniformLayout) *UniformBlock {
	return &UniformBlock{layout: layout, data: make([]byte, layout.Size)}
}

// Bytes returns the packed block.
func (b *UniformBlock) Bytes() []byte { return b.data }

// Has reports whether the layout declares name.
func (b *UniformBlock) Has(name string) bool {
	_, ok := b.layout.Field(name)
	return ok
}

func (b *UniformBlock) putFloats(name string, want UniformType, index int, v ...float32) {
	f, ok := b.layout.Field(name)
	if !ok || f.Type != want {
		return
	}
	if index > 0 && index >= f.Count {
		return
	}
	_, size := f.Type.layout()
	off := f.Offset + index*size
	for i, x := range v {
		binary.LittleEndian.PutUint32(b.data[off+4*i:], math.Float32bits(x))
	}
}

// SetFloat sets an f32 member.
func (b *UniformBlock) SetFloat(name string, v float32) {
	b.putFloats(name, UniformFloat, 0, v)
}

// SetInt sets an i32 member.
func (b *UniformBlock) SetInt(name string, v int32) {
	f, ok := b.layout.Field(name)
	if !ok || f.Type != UniformInt {
		return
	}
	binary.LittleEndian.PutUint32(b.data[f.Offset:], uint32(v)) //nolint:gosec // G115: bit pattern copy
}

// SetVec2 sets a vec2<f32> member.
func (b *UniformBlock) SetVec2(name string, x, y float32) {
	b.putFloats(name, UniformVec2, 0, x, y)
}

// SetVec3 sets a vec3<f32> member.
func (b *UniformBlock) SetVec3(name string, v [3]float32) {
	b.putFloats(name, UniformVec3, 0, v[0], v[1], v[2])
}

// SetVec4 sets a vec4<f32> member.
func (b *UniformBlock) SetVec4(name string, v [4]float32) {
	b.putFloats(name, UniformVec4, 0, v[0], v[1], v[2], v[3])
}

// SetVec4At sets element i of an array<vec4<f32>, N> member.
func (b *UniformBlock) SetVec4At(name string, i int, v [4]float32) {
	b.putFloats(name, UniformVec4, i, v[0], v[1], v[2], v[3])
}

// SetIVec4At sets element i of an array<vec4<i32>, N> member.
func (b *UniformBlock) SetIVec4At(name string, i int, v [4]int32) {
	f, ok := b.layout.Field(name)
	if !ok || f.Type != UniformIVec4 {
		return
	}
	if i > 0 && i >= f.Count {
		return
	}
	off := f.Offset + i*16
	for k, x := range v {
		binary.LittleEndian.PutUint32(b.data[off+4*k:], uint32(x)) //nolint:gosec // G115: bit pattern copy
	}
}

// SetMat4 sets a mat4x4<f32> member from a column-major array.
func (b *UniformBlock) SetMat4(name string, m [16]float32) {
	b.putFloats(name, UniformMat4, 0, m[:]...)
}

// SetMat4At sets element i of an array<mat4x4<f32>, N> member.
func (b *UniformBlock) SetMat4At(name string, i int, m [16]float32) {
	b.putFloats(name, UniformMat4, i, m[:]...)
}

// Float reads back an f32 member. Intended for tests and diagnostics.
func (b *UniformBlock) Float(name string) (float32, bool) {
	f, ok := b.layout.Field(name)
	if !ok || f.Type != UniformFloat {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[f.Offset:])), true
}

// Int reads back an i32 member.
func (b *UniformBlock) Int(name string) (int32, bool) {
	f, ok := b.layout.Field(name)
	if !ok || f.Type != UniformInt {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(b.data[f.Offset:])), true //nolint:gosec // G115: bit pattern copy
}
