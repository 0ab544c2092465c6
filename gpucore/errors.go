package gpucore

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrInvalidDescriptor is returned for malformed texture or buffer descriptors.
	ErrInvalidDescriptor = errors.New("gpucore: invalid descriptor")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrCompile is wrapped by CompileError.
	ErrCompile = errors.New("gpucore: shader compile failed")

	// ErrClosed is returned by backends after Close.
	ErrClosed = errors.New("gpucore: backend closed")
)

// CompileError carries the driver's compile or link log.
type CompileError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string

	// Log is the driver diagnostic output.
	Log string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("gpucore: %s stage: %s", e.Stage, e.Log)
}

// Unwrap makes errors.Is(err, ErrCompile) hold.
func (e *CompileError) Unwrap() error { return ErrCompile }
