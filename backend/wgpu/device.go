//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan registers itself with hal on import.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoDevice is returned when no usable GPU device could be obtained.
var ErrNoDevice = errors.New("wgpu: no device")

// submitTimeout bounds the fence wait after each submission.
const submitTimeout = 5 * time.Second

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType string
	// API is the graphics API in use (Vulkan, Metal, DX12, GL).
	API string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	if g.API == "" {
		return fmt.Sprintf("%s (%s)", g.Name, g.DeviceType)
	}
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.API)
}

// logGPUInfo logs information about the selected GPU.
func logGPUInfo(log *slog.Logger, info GPUInfo) {
	log.Info("wgpu: GPU selected", "gpu", info.String())
}

// contextSeq numbers devices so Capabilities.ContextID changes whenever a
// backend is created over a new device.
var contextSeq atomic.Uint64

// openedDevice is what openDevice hands to the backend.
type openedDevice struct {
	instance        hal.Instance
	device          hal.Device
	queue           hal.Queue
	limits          gputypes.Limits
	floatFilterable bool
	info            GPUInfo
}

// openDevice creates an instance of the requested API, picks an adapter
// and opens a device on it.
func openDevice(o *options) (*openedDevice, error) {
	api, ok := hal.GetBackend(o.api)
	if !ok {
		return nil, fmt.Errorf("%w: %v backend not available", ErrNoDevice, o.api)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoDevice, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", ErrNoDevice)
	}
	selected := pickAdapter(adapters, o.highPerformance)

	var features gputypes.Features
	filterable := selected.Features.Contains(gputypes.FeatureFloat32Filterable)
	if filterable {
		features |= gputypes.Features(gputypes.FeatureFloat32Filterable)
	}
	limits := gputypes.DefaultLimits()
	opened, err := selected.Adapter.Open(features, limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoDevice, err)
	}
	return &openedDevice{
		instance:        instance,
		device:          opened.Device,
		queue:           opened.Queue,
		limits:          limits,
		floatFilterable: filterable,
		info: GPUInfo{
			Name:       selected.Info.Name,
			DeviceType: fmt.Sprint(selected.Info.DeviceType),
			API:        fmt.Sprint(o.api),
		},
	}, nil
}

// pickAdapter prefers a discrete GPU when asked to, then any hardware
// GPU, then whatever comes first.
func pickAdapter(adapters []hal.ExposedAdapter, highPerformance bool) *hal.ExposedAdapter {
	if highPerformance {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
				return &adapters[i]
			}
		}
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// encoder creates a command encoder and begins recording.
func (b *Backend) encoder(label string) (hal.CommandEncoder, error) {
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	return enc, nil
}

// submit ends enc, submits it and waits for the GPU to finish.
func (b *Backend) submit(enc hal.CommandEncoder) error {
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmd)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	done, err := b.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !done {
		return fmt.Errorf("wgpu: wait for GPU: timed out after %v", submitTimeout)
	}
	return nil
}
