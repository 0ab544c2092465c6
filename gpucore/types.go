package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend maintains a mapping
// between IDs and actual driver resources. IDs are uint64 to accommodate
// various backend handle sizes.

// TextureID is an opaque handle to a GPU texture (1D, 2D or 3D).
type TextureID uint64

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ProgramID is an opaque handle to a compiled and linked shader program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// TextureDimension is the dimensionality of a texture.
type TextureDimension uint8

// Texture dimensions.
const (
	TextureDimension1D TextureDimension = iota + 1
	TextureDimension2D
	TextureDimension3D
)

// String returns the dimension name.
func (d TextureDimension) String() string {
	switch d {
	case TextureDimension1D:
		return "1D"
	case TextureDimension2D:
		return "2D"
	case TextureDimension3D:
		return "3D"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatR8Unorm is 8-bit red channel only, normalized unsigned integer.
	TextureFormatR8Unorm TextureFormat = iota + 1

	// TextureFormatRG8Unorm is 8-bit RG, normalized unsigned integer.
	TextureFormatRG8Unorm

	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm

	// TextureFormatR16Float is 16-bit red channel only, floating point.
	TextureFormatR16Float

	// TextureFormatRG16Float is 16-bit RG, floating point.
	TextureFormatRG16Float

	// TextureFormatRGBA16Float is 16-bit RGBA, floating point.
	TextureFormatRGBA16Float

	// TextureFormatR32Float is 32-bit red channel only, floating point.
	TextureFormatR32Float

	// TextureFormatRG32Float is 32-bit RG, floating point.
	TextureFormatRG32Float

	// TextureFormatRGBA32Float is 32-bit RGBA, floating point.
	TextureFormatRGBA32Float

	// TextureFormatDepth32Float is a 32-bit floating point depth format.
	TextureFormatDepth32Float

	// TextureFormatR8Snorm is 8-bit red channel only, normalized signed
	// integer. -128 and -127 both read as -1.
	TextureFormatR8Snorm

	// TextureFormatRG8Snorm is 8-bit RG, normalized signed integer.
	TextureFormatRG8Snorm

	// TextureFormatRGBA8Snorm is 8-bit RGBA, normalized signed integer.
	TextureFormatRGBA8Snorm
)

// String returns a human-readable format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatR8Unorm:
		return "R8Unorm"
	case TextureFormatRG8Unorm:
		return "RG8Unorm"
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatR16Float:
		return "R16Float"
	case TextureFormatRG16Float:
		return "RG16Float"
	case TextureFormatRGBA16Float:
		return "RGBA16Float"
	case TextureFormatR32Float:
		return "R32Float"
	case TextureFormatRG32Float:
		return "RG32Float"
	case TextureFormatRGBA32Float:
		return "RGBA32Float"
	case TextureFormatDepth32Float:
		return "Depth32Float"
	case TextureFormatR8Snorm:
		return "R8Snorm"
	case TextureFormatRG8Snorm:
		return "RG8Snorm"
	case TextureFormatRGBA8Snorm:
		return "RGBA8Snorm"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerTexel returns the number of bytes a single texel occupies.
// Returns 0 for unknown formats.
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TextureFormatR8Unorm, TextureFormatR8Snorm:
		return 1
	case TextureFormatRG8Unorm, TextureFormatRG8Snorm, TextureFormatR16Float:
		return 2
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8Snorm, TextureFormatRG16Float, TextureFormatR32Float, TextureFormatDepth32Float:
		return 4
	case TextureFormatRGBA16Float, TextureFormatRG32Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Components returns the number of channels stored per texel.
func (f TextureFormat) Components() int {
	switch f {
	case TextureFormatR8Unorm, TextureFormatR8Snorm, TextureFormatR16Float, TextureFormatR32Float, TextureFormatDepth32Float:
		return 1
	case TextureFormatRG8Unorm, TextureFormatRG8Snorm, TextureFormatRG16Float, TextureFormatRG32Float:
		return 2
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8Snorm, TextureFormatRGBA16Float, TextureFormatRGBA32Float:
		return 4
	default:
		return 0
	}
}

// IsDepth reports whether the format holds depth values.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << 1

	// TextureUsageTextureBinding indicates the texture can be bound as a sampled texture.
	TextureUsageTextureBinding TextureUsage = 1 << 2

	// TextureUsageRenderAttachment indicates the texture can be used as a render target.
	TextureUsageRenderAttachment TextureUsage = 1 << 4
)

// DefaultTextureUsage is the usage for textures sampled by the ray caster.
const DefaultTextureUsage = TextureUsageTextureBinding | TextureUsageCopyDst

// FilterMode selects how a texture is sampled between texels.
type FilterMode uint8

// Filter modes.
const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// String returns the filter name.
func (m FilterMode) String() string {
	if m == FilterNearest {
		return "Nearest"
	}
	return "Linear"
}

// WrapMode selects texture addressing outside [0,1].
type WrapMode uint8

// Wrap modes.
const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Dimension is 1D, 2D or 3D.
	Dimension TextureDimension

	// Width, Height and Depth are the texel extents. Unused extents must be 1.
	Width  int
	Height int
	Depth  int

	// Format is the texel format.
	Format TextureFormat

	// Filter is the magnification and minification filter.
	Filter FilterMode

	// Wrap is applied on all axes.
	Wrap WrapMode

	// Usage flags. Zero means DefaultTextureUsage.
	Usage TextureUsage
}

// Size returns the number of bytes the full texture occupies.
func (d *TextureDescriptor) Size() int64 {
	return int64(d.Width) * int64(d.Height) * int64(d.Depth) * int64(d.Format.BytesPerTexel())
}

// Validate checks extents and format.
func (d *TextureDescriptor) Validate() error {
	if d.Format.BytesPerTexel() == 0 {
		return fmt.Errorf("%w: format %s", ErrInvalidDescriptor, d.Format)
	}
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
		return fmt.Errorf("%w: %s texture %dx%dx%d", ErrInvalidDescriptor, d.Dimension, d.Width, d.Height, d.Depth)
	}
	switch d.Dimension {
	case TextureDimension1D:
		if d.Height != 1 || d.Depth != 1 {
			return fmt.Errorf("%w: 1D texture with height %d depth %d", ErrInvalidDescriptor, d.Height, d.Depth)
		}
	case TextureDimension2D:
		if d.Depth != 1 {
			return fmt.Errorf("%w: 2D texture with depth %d", ErrInvalidDescriptor, d.Depth)
		}
	case TextureDimension3D:
	default:
		return fmt.Errorf("%w: dimension %s", ErrInvalidDescriptor, d.Dimension)
	}
	return nil
}

// TextureRegion is a box of texels inside a texture, used for partial uploads.
type TextureRegion struct {
	X, Y, Z              int
	Width, Height, Depth int
}

// FullRegion returns the region covering the whole texture.
func FullRegion(d *TextureDescriptor) TextureRegion {
	return TextureRegion{Width: d.Width, Height: d.Height, Depth: d.Depth}
}

// Texels returns the number of texels in the region.
func (r TextureRegion) Texels() int {
	return r.Width * r.Height * r.Depth
}

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 4

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6
)

// Viewport is a rectangle of the render target in pixels.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the viewport has no area.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Target selects where DrawIndexed writes.
type Target struct {
	// Color is the color attachment. InvalidID means the backend's default framebuffer.
	Color TextureID

	// Depth is an optional depth attachment written by the fragment stage.
	Depth TextureID

	// Clear resets the attachments before the next draw: colour to zero
	// and depth to one.
	Clear bool
}

// DrawCall describes one indexed triangle draw over the bounding geometry.
type DrawCall struct {
	Program      ProgramID
	VertexBuffer BufferID
	IndexBuffer  BufferID
	IndexCount   int
}

// UnormFormat returns the 8-bit normalized format with n channels, or 0
// when no such format exists (n == 3).
func UnormFormat(n int) TextureFormat {
	switch n {
	case 1:
		return TextureFormatR8Unorm
	case 2:
		return TextureFormatRG8Unorm
	case 4:
		return TextureFormatRGBA8Unorm
	}
	return 0
}

// SnormFormat returns the 8-bit signed normalized format with n channels,
// or 0 when no such format exists (n == 3).
func SnormFormat(n int) TextureFormat {
	switch n {
	case 1:
		return TextureFormatR8Snorm
	case 2:
		return TextureFormatRG8Snorm
	case 4:
		return TextureFormatRGBA8Snorm
	}
	return 0
}

// FloatFormat returns the 32-bit float format with n channels, or 0 when
// no such format exists (n == 3).
func FloatFormat(n int) TextureFormat {
	switch n {
	case 1:
		return TextureFormatR32Float
	case 2:
		return TextureFormatRG32Float
	case 4:
		return TextureFormatRGBA32Float
	}
	return 0
}
