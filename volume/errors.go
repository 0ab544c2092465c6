package volume

import "errors"

var (
	// ErrTextureTooLarge is returned when the texture extent exceeds the
	// backend's maximum 3D texture size. Nothing is allocated.
	ErrTextureTooLarge = errors.New("volume: texture exceeds maximum 3D size")

	// ErrUnsupportedScalarType is returned for bit, string and id-type
	// samples, which have no texture representation.
	ErrUnsupportedScalarType = errors.New("volume: unsupported scalar type")

	// ErrComponentCount is returned for images with fewer than 1 or more
	// than 4 components per sample.
	ErrComponentCount = errors.New("volume: unsupported number of components")

	// ErrDataSize is returned when the sample buffer does not match the
	// image extent.
	ErrDataSize = errors.New("volume: data size does not match extent")
)
