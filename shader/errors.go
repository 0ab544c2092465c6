package shader

import "errors"

var (
	// ErrUnsupportedFeature is returned for feature combinations the
	// composer has no code for.
	ErrUnsupportedFeature = errors.New("shader: unsupported feature combination")

	// ErrTemplate is returned for malformed templates.
	ErrTemplate = errors.New("shader: invalid template")
)
