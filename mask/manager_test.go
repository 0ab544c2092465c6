package mask

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/volray/recording"
	"github.com/gogpu/volray/volume"
)

func newMask(t *testing.T, n int) *volume.Image {
	t.Helper()
	data := make([]uint8, n*n*n)
	for i := range data {
		data[i] = uint8(i % 3)
	}
	img, err := volume.FromSlice(volume.Shape{Extent: [6]int{0, n - 1, 0, n - 1, 0, n - 1}, Components: 1}, data)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func extentOf(n int) [6]int { return [6]int{0, n - 1, 0, n - 1, 0, n - 1} }

func TestLoadReuploadRules(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, DefaultConfig())
	img := newMask(t, 4)

	tex, err := m.Load(img, extentOf(4), false, 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tex.Size != [3]int{4, 4, 4} {
		t.Errorf("Size = %v, want [4 4 4]", tex.Size)
	}

	b.ResetStats()
	if _, err := m.Load(img, extentOf(4), false, 2); err != nil {
		t.Fatal(err)
	}
	if got := b.Stats().Uploads(); got != 0 {
		t.Errorf("unchanged Load() uploads = %d, want 0", got)
	}

	tests := []struct {
		name   string
		change func() ([6]int, bool)
		size   [3]int
	}{
		{"modified", func() ([6]int, bool) { img.Modified(); return extentOf(4), false }, [3]int{4, 4, 4}},
		{"cell flag", func() ([6]int, bool) { return extentOf(4), true }, [3]int{3, 3, 3}},
		{"extent", func() ([6]int, bool) { return [6]int{0, 1, 0, 3, 0, 3}, false }, [3]int{2, 4, 4}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.ResetStats()
			extent, cell := tt.change()
			tex, err := m.Load(img, extent, cell, uint64(3+i))
			if err != nil {
				t.Fatal(err)
			}
			if got := b.Stats().TextureUploads; got != 1 {
				t.Errorf("TextureUploads = %d, want 1", got)
			}
			if tex.Size != tt.size {
				t.Errorf("Size = %v, want %v", tex.Size, tt.size)
			}
		})
	}
	if b.TextureCount() != 1 {
		t.Errorf("TextureCount() = %d, want 1", b.TextureCount())
	}
}

func TestLoadAfterContextLoss(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, DefaultConfig())
	img := newMask(t, 2)
	if _, err := m.Load(img, extentOf(2), false, 1); err != nil {
		t.Fatal(err)
	}
	b.LoseContext()
	tex, err := m.Load(img, extentOf(2), false, 2)
	if err != nil {
		t.Fatal(err)
	}
	if b.Texture(tex.ID) == nil {
		t.Error("mask not recreated in the new context")
	}
}

func TestLoadBudgetExceeded(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, Config{MaxMemoryBytes: 100, MaxMemoryFraction: 1})
	img := newMask(t, 5) // 125 bytes

	tex, err := m.Load(img, extentOf(5), false, 1)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("Load() error = %v, want ErrBudgetExceeded", err)
	}
	if tex != nil {
		t.Error("Load() returned a texture for a refused mask")
	}
	if b.TextureCount() != 0 {
		t.Errorf("TextureCount() = %d, want 0", b.TextureCount())
	}
	if s := m.Stats(); s.Refused != 1 {
		t.Errorf("Refused = %d, want 1", s.Refused)
	}
}

func TestLoadEvictsLeastRecentlyUsed(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, Config{MaxMemoryBytes: 20, MaxMemoryFraction: 1})
	a, c, d := newMask(t, 2), newMask(t, 2), newMask(t, 2) // 8 bytes each

	if _, err := m.Load(a, extentOf(2), false, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(c, extentOf(2), false, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(a, extentOf(2), false, 3); err != nil { // a is now newer
		t.Fatal(err)
	}
	if _, err := m.Load(d, extentOf(2), false, 4); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Texture(c); ok {
		t.Error("least recently used mask survived")
	}
	if _, ok := m.Texture(a); !ok {
		t.Error("recently used mask was evicted")
	}
	s := m.Stats()
	if s.Entries != 2 || s.UsedBytes != 16 {
		t.Errorf("Stats() = %+v, want 2 entries, 16 bytes", s)
	}
	if b.TextureCount() != 2 {
		t.Errorf("TextureCount() = %d, want 2", b.TextureCount())
	}
}

func TestMaxEntries(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, Config{MaxEntries: 1})
	first, second := newMask(t, 2), newMask(t, 2)
	if _, err := m.Load(first, extentOf(2), false, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(second, extentOf(2), false, 2); err != nil {
		t.Fatal(err)
	}
	if b.TextureCount() != 1 {
		t.Errorf("TextureCount() = %d, want 1", b.TextureCount())
	}
	if m.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", m.Stats().Evictions)
	}
}

func TestInvalidMask(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, DefaultConfig())

	wide, err := volume.FromSlice(volume.Shape{Extent: extentOf(2), Components: 1}, make([]uint16, 8))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(wide, extentOf(2), false, 1); !errors.Is(err, ErrInvalidMask) {
		t.Errorf("Load(uint16) error = %v, want ErrInvalidMask", err)
	}
	if _, err := m.Load(newMask(t, 2), extentOf(3), false, 1); !errors.Is(err, ErrInvalidMask) {
		t.Errorf("Load(larger extent) error = %v, want ErrInvalidMask", err)
	}
}

func TestReleaseAndStatsString(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, DefaultConfig())
	img := newMask(t, 2)
	if _, err := m.Load(img, extentOf(2), false, 1); err != nil {
		t.Fatal(err)
	}
	if !m.Release(img) {
		t.Error("Release() = false, want true")
	}
	if b.TextureCount() != 0 || m.Stats().UsedBytes != 0 {
		t.Errorf("after Release: %d textures, %d bytes", b.TextureCount(), m.Stats().UsedBytes)
	}
	if s := m.Stats().String(); !strings.HasPrefix(s, "Masks: 0 entries") {
		t.Errorf("String() = %q", s)
	}
}

func TestSubExtentBounds(t *testing.T) {
	b := recording.NewBackend()
	m := NewManager(b, DefaultConfig())
	img := newMask(t, 4)
	img.Spacing = [3]float64{2, 2, 2}
	tex, err := m.Load(img, [6]int{1, 2, 0, 3, 0, 3}, false, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := [6]float64{2, 4, 0, 6, 0, 6}
	if tex.Bounds != want {
		t.Errorf("Bounds = %v, want %v", tex.Bounds, want)
	}
	data := b.Texture(tex.ID).Data
	// row (y=0,z=0) of the sub-box starts at x=1 of the source
	if len(data) != 2*4*4 || data[0] != img.Bytes()[1] {
		t.Errorf("texture data = %v", data[:4])
	}
}
