// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mask

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/internal/cache"
	"github.com/gogpu/volray/internal/logging"
	"github.com/gogpu/volray/volume"
)

// Default budget values.
const (
	DefaultMaxMemoryBytes    = 256 * 1024 * 1024
	DefaultMaxMemoryFraction = 0.75
	DefaultMaxEntries        = 16
)

// Config bounds the memory held by mask textures.
type Config struct {
	// MaxMemoryBytes is the memory available to masks (0 = unlimited).
	MaxMemoryBytes int64

	// MaxMemoryFraction is the share of MaxMemoryBytes masks may use.
	MaxMemoryFraction float64

	// MaxEntries is the maximum number of resident masks (0 = unlimited).
	MaxEntries int
}

// DefaultConfig returns the default budget.
func DefaultConfig() Config {
	return Config{
		MaxMemoryBytes:    DefaultMaxMemoryBytes,
		MaxMemoryFraction: DefaultMaxMemoryFraction,
		MaxEntries:        DefaultMaxEntries,
	}
}

// Budget returns the number of bytes masks may occupy.
func (c Config) Budget() int64 {
	f := c.MaxMemoryFraction
	if f <= 0 || f > 1 {
		f = 1
	}
	return int64(float64(c.MaxMemoryBytes) * f)
}

// Texture is a mask resident on the GPU.
type Texture struct {
	// ID is the backend texture handle.
	ID gpucore.TextureID

	// Size is the texel extent.
	Size [3]int

	// Bounds is the mask's world bounding box, computed like the volume's.
	Bounds [6]float64

	// Extent is the point extent the texture was loaded for.
	Extent [6]int

	// CellFlag is the cell/point mode of the load.
	CellFlag bool

	bytes     int64
	loadTime  uint64
	contextID uint64
	lastFrame uint64
}

// Bytes returns the texture's memory footprint.
func (t *Texture) Bytes() int64 { return t.bytes }

// Manager owns the mask textures of one frame driver.
//
// Manager is safe for concurrent use, although the frame driver only
// calls it from the goroutine that owns the graphics context.
type Manager struct {
	mu      sync.Mutex
	backend gpucore.Backend
	cfg     Config
	entries *cache.Cache[*volume.Image, *Texture]
	used    int64
	uploads uint64
	refused uint64
	log     *slog.Logger
}

// NewManager creates a manager allocating textures on b.
func NewManager(b gpucore.Backend, cfg Config) *Manager {
	m := &Manager{
		backend: b,
		cfg:     cfg,
		entries: cache.New[*volume.Image, *Texture](cfg.MaxEntries),
		log:     logging.Nop(),
	}
	m.entries.OnEvict(func(img *volume.Image, t *Texture) {
		m.destroy(t)
		m.log.Debug("mask: released", "size", t.Size, "bytes", t.bytes)
	})
	return m
}

// SetLogger sets the logger for mask diagnostics. Nil silences logging.
func (m *Manager) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = logging.OrNop(l)
}

// Load returns the texture for img covering the point extent, uploading
// it when it is missing or out of date. frame stamps the entry for LRU
// eviction.
//
// A mask must be a single-component uint8 image whose samples cover the
// extent; anything else returns ErrInvalidMask. A texture larger than the
// budget returns ErrBudgetExceeded. In both cases nothing is allocated.
func (m *Manager) Load(img *volume.Image, extent [6]int, cellFlag bool, frame uint64) (*Texture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if img.Components() != 1 || img.ScalarType() != volume.Uint8 {
		return nil, fmt.Errorf("%w: %d components of %s, want 1 of uint8",
			ErrInvalidMask, img.Components(), img.ScalarType())
	}

	caps := m.backend.Capabilities()
	if t, ok := m.entries.Get(img, frame); ok {
		if !m.stale(t, img, extent, cellFlag, caps.ContextID) {
			t.lastFrame = frame
			return t, nil
		}
		m.entries.Delete(img)
	}

	shape := volume.Shape{Extent: extent, Components: 1, CellData: cellFlag}
	size := shape.SampleDims()
	if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
		return nil, fmt.Errorf("%w: empty extent %v", ErrInvalidMask, extent)
	}
	if limit := caps.MaxTextureSize3D; limit > 0 && (size[0] > limit || size[1] > limit || size[2] > limit) {
		return nil, fmt.Errorf("mask: %w", volume.ErrTextureTooLarge)
	}

	data, err := extract(img, shape)
	if err != nil {
		return nil, err
	}
	bytes := int64(len(data))
	if err := m.reserve(img, bytes); err != nil {
		m.refused++
		m.log.Warn("mask: refused", "bytes", bytes, "budget", m.cfg.Budget(), "err", err)
		return nil, err
	}

	desc := &gpucore.TextureDescriptor{
		Label:     "mask",
		Dimension: gpucore.TextureDimension3D,
		Width:     size[0],
		Height:    size[1],
		Depth:     size[2],
		Format:    gpucore.TextureFormatR8Unorm,
		Filter:    gpucore.FilterNearest,
		Wrap:      gpucore.WrapClampToEdge,
	}
	id, err := m.backend.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("mask: create texture: %w", err)
	}
	if err := m.backend.WriteTexture(id, gpucore.FullRegion(desc), data); err != nil {
		m.backend.DestroyTexture(id)
		return nil, fmt.Errorf("mask: upload: %w", err)
	}

	t := &Texture{
		ID:        id,
		Size:      size,
		Bounds:    volume.ComputeBounds(extent, img.Spacing, img.Origin, cellFlag),
		Extent:    extent,
		CellFlag:  cellFlag,
		bytes:     bytes,
		loadTime:  img.MTime(),
		contextID: caps.ContextID,
		lastFrame: frame,
	}
	m.used += bytes
	m.uploads++
	m.entries.Set(img, t, frame)
	m.log.Debug("mask: uploaded", "size", size, "bytes", bytes, "frame", frame)
	return t, nil
}

// stale reports whether t no longer matches the request.
func (m *Manager) stale(t *Texture, img *volume.Image, extent [6]int, cellFlag bool, contextID uint64) bool {
	return img.MTime() > t.loadTime ||
		t.CellFlag != cellFlag ||
		t.Extent != extent ||
		t.contextID != contextID
}

// reserve evicts least recently used masks until bytes fit the budget.
// Caller must hold m.mu.
func (m *Manager) reserve(keep *volume.Image, bytes int64) error {
	budget := m.cfg.Budget()
	if budget <= 0 {
		return nil
	}
	if bytes > budget {
		return fmt.Errorf("%w: %d bytes > %d", ErrBudgetExceeded, bytes, budget)
	}
	for m.used+bytes > budget {
		if _, _, ok := m.entries.RemoveOldest(keep); !ok {
			return fmt.Errorf("%w: %d bytes in use", ErrBudgetExceeded, m.used)
		}
	}
	return nil
}

// destroy releases t. Textures from a lost context are already gone.
func (m *Manager) destroy(t *Texture) {
	if t.contextID == m.backend.Capabilities().ContextID {
		m.backend.DestroyTexture(t.ID)
	}
	m.used -= t.bytes
}

// extract copies the samples of shape's extent out of img.
func extract(img *volume.Image, shape volume.Shape) ([]byte, error) {
	src := img.Shape().SampleExtent()
	dst := shape.SampleExtent()
	for i := 0; i < 3; i++ {
		if dst[2*i] < src[2*i] || dst[2*i+1] > src[2*i+1] {
			return nil, fmt.Errorf("%w: extent %v outside mask extent %v", ErrInvalidMask, dst, src)
		}
	}
	if src == dst {
		return append([]byte(nil), img.Bytes()...), nil
	}

	size := shape.SampleDims()
	raw := img.Bytes()
	out := make([]byte, 0, size[0]*size[1]*size[2])
	x0, y0, z0 := dst[0]-src[0], dst[2]-src[2], dst[4]-src[4]
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			start := img.Index(x0, y0+y, z0+z)
			out = append(out, raw[start:start+size[0]]...)
		}
	}
	return out, nil
}

// Texture returns the resident texture of img without loading it.
func (m *Manager) Texture(img *volume.Image) (*Texture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Peek(img)
}

// Release destroys the texture of img, if any.
func (m *Manager) Release(img *volume.Image) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Delete(img)
}

// EvictBefore releases every mask last used before frame.
func (m *Manager) EvictBefore(frame uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.EvictBefore(frame)
}

// ReleaseAll destroys every mask texture.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Clear()
	m.used = 0
}

// Stats returns a snapshot of the manager's usage.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs := m.entries.Stats()
	return Stats{
		Entries:   cs.Len,
		UsedBytes: m.used,
		Budget:    m.cfg.Budget(),
		Uploads:   m.uploads,
		Refused:   m.refused,
		Evictions: cs.Evictions,
	}
}

// Stats describes mask memory usage.
type Stats struct {
	Entries   int
	UsedBytes int64
	Budget    int64
	Uploads   uint64
	Refused   uint64
	Evictions uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	pct := 0.0
	if s.Budget > 0 {
		pct = float64(s.UsedBytes) / float64(s.Budget) * 100
	}
	return fmt.Sprintf("Masks: %d entries, %.1f/%.1f MB (%.1f%%), %d uploads, %d refused, %d evicted",
		s.Entries,
		float64(s.UsedBytes)/(1024*1024),
		float64(s.Budget)/(1024*1024),
		pct, s.Uploads, s.Refused, s.Evictions)
}
