package depth

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/recording"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*gpucore.Capabilities)
		want    bool
		missing string
	}{
		{"all", func(*gpucore.Capabilities) {}, true, ""},
		{"no float", func(c *gpucore.Capabilities) { c.FloatTextures = false }, false, "float textures"},
		{"no npot", func(c *gpucore.Capabilities) { c.NPOTTextures = false }, false, "non-power-of-two"},
		{"no fbo", func(c *gpucore.Capabilities) { c.FramebufferObjects = false }, false, "framebuffer objects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := recording.DefaultCapabilities()
			tt.modify(&caps)
			p := Check(caps)
			if p.Supported != tt.want {
				t.Errorf("Supported = %v, want %v", p.Supported, tt.want)
			}
			if !strings.Contains(p.Diagnostic, tt.missing) {
				t.Errorf("Diagnostic = %q, want it to mention %q", p.Diagnostic, tt.missing)
			}
		})
	}
}

func TestCaptureResizesWithViewport(t *testing.T) {
	b := recording.NewBackend()
	b.SetSceneDepth(0.25)
	c := NewCapture(b, "in_depthSampler")

	if err := c.Capture(gpucore.Viewport{Width: 8, Height: 4}); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	first := c.ID()
	if err := c.Capture(gpucore.Viewport{Width: 8, Height: 4}); err != nil {
		t.Fatal(err)
	}
	if c.ID() != first {
		t.Error("same viewport reallocated the texture")
	}
	if err := c.Capture(gpucore.Viewport{Width: 16, Height: 4}); err != nil {
		t.Fatal(err)
	}
	desc := b.Texture(c.ID()).Desc
	if desc.Width != 16 || desc.Format != gpucore.TextureFormatDepth32Float {
		t.Errorf("texture = %+v, want 16 wide Depth32Float", desc)
	}
	if b.TextureCount() != 1 {
		t.Errorf("TextureCount() = %d, want 1", b.TextureCount())
	}
	if c.Copies() != 3 {
		t.Errorf("Copies() = %d, want 3", c.Copies())
	}
}

func TestCaptureUnsupportedLogsOncePerContext(t *testing.T) {
	caps := recording.DefaultCapabilities()
	caps.DepthCopy = false
	b := recording.NewBackend(recording.WithCapabilities(caps))
	var buf bytes.Buffer
	c := NewCapture(b, "in_depthSampler")
	c.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	for i := 0; i < 3; i++ {
		err := c.Capture(gpucore.Viewport{Width: 4, Height: 4})
		if !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Capture() error = %v, want ErrUnsupported", err)
		}
	}
	if n := strings.Count(buf.String(), "capture disabled"); n != 1 {
		t.Errorf("warning logged %d times, want 1", n)
	}

	b.LoseContext()
	_ = c.Capture(gpucore.Viewport{Width: 4, Height: 4})
	if n := strings.Count(buf.String(), "capture disabled"); n != 2 {
		t.Errorf("warning logged %d times after context change, want 2", n)
	}
}

func TestBindSkipsUnusedSlot(t *testing.T) {
	b := recording.NewBackend()
	c := NewCapture(b, "in_depthSampler")
	if err := c.Bind(&gpucore.Program{}); err != nil {
		t.Errorf("Bind() error = %v", err)
	}
	p := &gpucore.Program{Textures: []gpucore.TextureSlot{{Name: "in_depthSampler"}}}
	if err := c.Bind(p); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("Bind() before capture error = %v, want ErrUnknownResource", err)
	}
}
