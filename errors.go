package volray

import "errors"

// Configuration errors returned by Render before any GPU work.
var (
	ErrNoBackend       = errors.New("volray: no backend")
	ErrNoInput         = errors.New("volray: no input volume")
	ErrNoProperty      = errors.New("volray: no volume property")
	ErrNoCamera        = errors.New("volray: no active camera")
	ErrInvalidViewport = errors.New("volray: empty viewport")
)

// ErrNoImage is returned by ColorImage and DepthImage before a frame was
// rendered to image.
var ErrNoImage = errors.New("volray: no rendered image")
