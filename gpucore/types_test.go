package gpucore

import (
	"errors"
	"testing"
)

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		format         TextureFormat
		wantString     string
		wantBytes      int
		wantComponents int
	}{
		{TextureFormatR8Unorm, "R8Unorm", 1, 1},
		{TextureFormatRG8Unorm, "RG8Unorm", 2, 2},
		{TextureFormatRGBA8Unorm, "RGBA8Unorm", 4, 4},
		{TextureFormatR16Float, "R16Float", 2, 1},
		{TextureFormatRGBA16Float, "RGBA16Float", 8, 4},
		{TextureFormatR32Float, "R32Float", 4, 1},
		{TextureFormatRG32Float, "RG32Float", 8, 2},
		{TextureFormatRGBA32Float, "RGBA32Float", 16, 4},
		{TextureFormatDepth32Float, "Depth32Float", 4, 1},
		{TextureFormatR8Snorm, "R8Snorm", 1, 1},
		{TextureFormatRG8Snorm, "RG8Snorm", 2, 2},
		{TextureFormatRGBA8Snorm, "RGBA8Snorm", 4, 4},
		{TextureFormat(99), "Unknown(99)", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			if got := tt.format.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := tt.format.BytesPerTexel(); got != tt.wantBytes {
				t.Errorf("BytesPerTexel() = %d, want %d", got, tt.wantBytes)
			}
			if got := tt.format.Components(); got != tt.wantComponents {
				t.Errorf("Components() = %d, want %d", got, tt.wantComponents)
			}
		})
	}
}

func TestTextureDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    TextureDescriptor
		wantErr bool
	}{
		{"1D table", TextureDescriptor{Dimension: TextureDimension1D, Width: 1024, Height: 1, Depth: 1, Format: TextureFormatRGBA32Float}, false},
		{"2D noise", TextureDescriptor{Dimension: TextureDimension2D, Width: 128, Height: 128, Depth: 1, Format: TextureFormatR32Float}, false},
		{"3D volume", TextureDescriptor{Dimension: TextureDimension3D, Width: 10, Height: 10, Depth: 10, Format: TextureFormatR8Unorm}, false},
		{"1D with height", TextureDescriptor{Dimension: TextureDimension1D, Width: 16, Height: 2, Depth: 1, Format: TextureFormatR8Unorm}, true},
		{"2D with depth", TextureDescriptor{Dimension: TextureDimension2D, Width: 16, Height: 2, Depth: 3, Format: TextureFormatR8Unorm}, true},
		{"zero width", TextureDescriptor{Dimension: TextureDimension3D, Width: 0, Height: 2, Depth: 3, Format: TextureFormatR8Unorm}, true},
		{"unknown format", TextureDescriptor{Dimension: TextureDimension2D, Width: 2, Height: 2, Depth: 1}, true},
		{"unknown dimension", TextureDescriptor{Width: 2, Height: 2, Depth: 1, Format: TextureFormatR8Unorm}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("Validate() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestTextureDescriptorSize(t *testing.T) {
	d := TextureDescriptor{Dimension: TextureDimension3D, Width: 4, Height: 5, Depth: 6, Format: TextureFormatRG16Float}
	if got, want := d.Size(), int64(4*5*6*4); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	if got := FullRegion(&d).Texels(); got != 120 {
		t.Errorf("FullRegion().Texels() = %d, want 120", got)
	}
}

func TestCompileErrorUnwrap(t *testing.T) {
	var err error = &CompileError{Stage: "fragment", Log: "unknown identifier"}
	if !errors.Is(err, ErrCompile) {
		t.Errorf("errors.Is(%v, ErrCompile) = false", err)
	}
	if got, want := err.Error(), "gpucore: fragment stage: unknown identifier"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestChannelFormats(t *testing.T) {
	tests := []struct {
		n                   int
		unorm, snorm, float TextureFormat
	}{
		{1, TextureFormatR8Unorm, TextureFormatR8Snorm, TextureFormatR32Float},
		{2, TextureFormatRG8Unorm, TextureFormatRG8Snorm, TextureFormatRG32Float},
		{3, 0, 0, 0},
		{4, TextureFormatRGBA8Unorm, TextureFormatRGBA8Snorm, TextureFormatRGBA32Float},
	}
	for _, tt := range tests {
		if got := UnormFormat(tt.n); got != tt.unorm {
			t.Errorf("UnormFormat(%d) = %v, want %v", tt.n, got, tt.unorm)
		}
		if got := SnormFormat(tt.n); got != tt.snorm {
			t.Errorf("SnormFormat(%d) = %v, want %v", tt.n, got, tt.snorm)
		}
		if got := FloatFormat(tt.n); got != tt.float {
			t.Errorf("FloatFormat(%d) = %v, want %v", tt.n, got, tt.float)
		}
	}
}
