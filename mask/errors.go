package mask

import "errors"

var (
	// ErrBudgetExceeded is returned when a mask texture would not fit the
	// memory budget even after evicting every other mask. Nothing is
	// allocated and the caller renders without the mask.
	ErrBudgetExceeded = errors.New("mask: texture exceeds memory budget")

	// ErrInvalidMask is returned for masks that are not single-component
	// unsigned 8-bit images, or that do not cover the requested extent.
	ErrInvalidMask = errors.New("mask: invalid mask image")
)
