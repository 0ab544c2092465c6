// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command volray ray casts a synthetic volume offscreen and saves it as PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/volray"
	"github.com/gogpu/volray/backend"
	_ "github.com/gogpu/volray/backend/wgpu"
	"github.com/gogpu/volray/config"
	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/lut"
	"github.com/gogpu/volray/volume"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file")
		output     = flag.String("output", "volray.png", "output file")
		size       = flag.Int("size", 64, "samples per axis of the synthetic volume")
		frames     = flag.Int("frames", 1, "frames to render while orbiting; the last one is saved")
		blend      = flag.String("blend", "", "blend mode, overrides the settings file")
		scale      = flag.Int("scale", 1, "integer upscale of the saved image")
		caption    = flag.Bool("caption", true, "draw the blend mode and timing onto the image")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}
	if *blend != "" {
		cfg.Renderer.Blend = *blend
	}
	cfg.Renderer.RenderToImage = true

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	volray.SetLogger(logger)

	b, err := backend.OpenNamed(cfg.Renderer.Backend)
	if err != nil {
		log.Fatalf("Failed to open backend %q: %v (available: %v)", cfg.Renderer.Backend, err, backend.Available())
	}
	defer b.Close()

	m, err := volray.NewMapper(b, volray.WithConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create mapper: %v", err)
	}
	defer m.ReleaseGraphicsResources()

	img, err := shellVolume(*size)
	if err != nil {
		log.Fatalf("Failed to build volume: %v", err)
	}

	prop := shellProperty()
	lights := []*volray.Light{volray.NewLight()}
	n := max(*frames, 1)
	start := time.Now()
	for i := 0; i < n; i++ {
		err = m.Render(&volray.Frame{
			Volume:   volray.Volume{Image: img, Property: prop},
			Camera:   orbitCamera(img, 30+360*float64(i)/float64(n), 20),
			Lights:   lights,
			Viewport: gpucore.Viewport{Width: cfg.Renderer.Width, Height: cfg.Renderer.Height},
		})
		if err != nil {
			log.Fatalf("Failed to render frame %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	out, err := m.ColorImage()
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	final := upscale(out, *scale)

	p := message.NewPrinter(language.English)
	st := m.Stats()
	summary := p.Sprintf("%s, %d samples, %d frames in %v", m.BlendMode(), img.Shape().Samples(), st.Frames, elapsed.Round(time.Millisecond))
	if *caption {
		drawCaption(final, summary)
	}

	if err := savePNG(*output, final); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Print(p.Sprintf("Volume saved to %s (%dx%d): %s, %d volume loads, %d table builds, %d program compiles, step %.3f",
		*output, final.Bounds().Dx(), final.Bounds().Dy(), summary, st.VolumeLoads, st.TableBuilds, st.ProgramCompiles, st.SampleDistance))
}

// shellVolume builds an n³ uint8 volume: a spherical shell whose density
// rises towards its inner surface, plus a dense core.
func shellVolume(n int) (*volume.Image, error) {
	n = max(n, 8)
	data := make([]uint8, n*n*n)
	c := float64(n-1) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy, dz := float64(x)-c, float64(y)-c, float64(z)-c
				r := math.Sqrt(dx*dx+dy*dy+dz*dz) / c
				var v float64
				switch {
				case r < 0.25:
					v = 255
				case r > 0.55 && r < 0.9:
					v = 200 * (0.9 - r) / 0.35
				}
				data[(z*n+y)*n+x] = uint8(v)
			}
		}
	}
	shape := volume.Shape{Extent: [6]int{0, n - 1, 0, n - 1, 0, n - 1}, Components: 1}
	return volume.FromSlice(shape, data)
}

// shellProperty colours the core warm and the shell cool.
func shellProperty() *volray.Property {
	prop := volray.NewProperty()
	ctf := lut.NewColorTransferFunction()
	ctf.AddRGBPoint(0, 0, 0, 0)
	ctf.AddRGBPoint(60, 0.1, 0.3, 0.8)
	ctf.AddRGBPoint(200, 0.6, 0.9, 1)
	ctf.AddRGBPoint(255, 1, 0.5, 0.1)
	prop.Color[0] = ctf

	otf := lut.NewPiecewiseFunction()
	otf.AddPoint(0, 0)
	otf.AddPoint(20, 0)
	otf.AddPoint(120, 0.05)
	otf.AddPoint(255, 0.8)
	prop.ScalarOpacity[0] = otf
	prop.Shade = true
	return prop
}

// orbitCamera looks at the volume centre from azimuth and elevation
// degrees, far enough away for the volume to fill most of the view.
func orbitCamera(img *volume.Image, azimuth, elevation float64) *volray.Camera {
	ext := img.Shape().Extent
	center := mgl64.Vec3{}
	var radius float64
	for i := 0; i < 3; i++ {
		lo := img.Origin[i] + float64(ext[2*i])*img.Spacing[i]
		hi := img.Origin[i] + float64(ext[2*i+1])*img.Spacing[i]
		center[i] = (lo + hi) / 2
		radius = math.Max(radius, math.Abs(hi-lo)/2)
	}
	az, el := mgl64.DegToRad(azimuth), mgl64.DegToRad(elevation)
	dir := mgl64.Vec3{math.Cos(el) * math.Sin(az), math.Sin(el), math.Cos(el) * math.Cos(az)}
	dist := 4 * radius

	cam := volray.NewCamera()
	cam.FocalPoint = center
	cam.Position = center.Add(dir.Mul(dist))
	cam.ClippingRange = [2]float64{dist - 2*radius, dist + 2*radius}
	return cam
}

func upscale(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func drawCaption(img *image.RGBA, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(6, img.Bounds().Dy()-6),
	}
	d.DrawString(text)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
