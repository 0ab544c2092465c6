package backend

import (
	"errors"

	"github.com/gogpu/volray/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered
	// or its factory could not create a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendWGPU is the Pure Go GPU backend (gogpu/wgpu HAL).
	BackendWGPU = "wgpu"
	// BackendRecording is the host-memory backend that records every call.
	BackendRecording = "recording"
)

// Factory creates a backend instance. A factory returns an error when the
// backend cannot run on this machine (no adapter, no device).
type Factory func() (gpucore.Backend, error)
