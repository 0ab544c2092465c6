package volray

import (
	"log/slog"

	"github.com/gogpu/volray/config"
	"github.com/gogpu/volray/internal/noise"
	"github.com/gogpu/volray/lut"
	"github.com/gogpu/volray/mask"
	"github.com/gogpu/volray/shader"
)

// Option configures a Mapper during creation.
//
// Example:
//
//	// Defaults: composite blending, auto-adjusted sampling
//	m, err := volray.NewMapper(b)
//
//	// Settings from a YAML file, with a debug logger
//	m, err := volray.NewMapper(b, volray.WithConfig(cfg), volray.WithLogger(l))
type Option func(*options)

// options holds the settings NewMapper starts from. Most can be changed
// later through Mapper setters.
type options struct {
	logger        *slog.Logger
	sampling      Sampling
	blend         shader.BlendMode
	tableWidth    int
	mask          mask.Config
	noiseSize     int
	noiseSeed     uint64
	jitter        bool
	renderToImage bool
	depthPass     bool
	contours      []float64

	// err is the first invalid option, returned by NewMapper.
	err error
}

func defaultOptions() options {
	return options{
		sampling:   DefaultSampling(),
		blend:      shader.BlendComposite,
		tableWidth: lut.DefaultWidth,
		mask:       mask.DefaultConfig(),
		noiseSize:  noise.DefaultSize,
		noiseSeed:  noise.DefaultSeed,
	}
}

// WithConfig applies every section of cfg except logging, which the
// caller builds with cfg.Logging.NewLogger and passes to WithLogger. An
// invalid cfg makes NewMapper fail.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			o.fail(err)
			return
		}
		s := cfg.Sampling
		o.sampling = Sampling{
			SampleDistance:             s.SampleDistance,
			AutoAdjust:                 s.AutoAdjust,
			LockToInputSpacing:         s.LockToInputSpacing,
			ImageSampleDistance:        s.ImageSampleDistance,
			MinimumImageSampleDistance: s.MinimumImageSampleDistance,
			MaximumImageSampleDistance: s.MaximumImageSampleDistance,
		}
		if cfg.Renderer.Blend != "" {
			WithBlendName(cfg.Renderer.Blend)(o)
		}
		o.jitter = cfg.Renderer.Jitter
		o.renderToImage = cfg.Renderer.RenderToImage
		o.tableWidth = cfg.Tables.Width
		o.mask = mask.Config{
			MaxMemoryBytes:    cfg.Mask.MaxMemoryBytes,
			MaxMemoryFraction: cfg.Mask.MaxMemoryFraction,
			MaxEntries:        cfg.Mask.MaxEntries,
		}
		o.noiseSize, o.noiseSeed = cfg.Noise.Size, cfg.Noise.Seed
		o.depthPass = cfg.DepthPass.Enabled
		o.contours = append([]float64(nil), cfg.DepthPass.Contours...)
	}
}

// WithLogger gives the mapper its own logger instead of the package
// logger set by SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSampling sets the ray step policy.
func WithSampling(s Sampling) Option {
	return func(o *options) {
		o.sampling = s
	}
}

// WithBlendMode sets how samples along a ray are combined.
func WithBlendMode(b shader.BlendMode) Option {
	return func(o *options) {
		o.blend = b
	}
}

// WithBlendName sets the blend mode by name ("composite", "mip", ...).
// An unknown name makes NewMapper fail.
func WithBlendName(name string) Option {
	return func(o *options) {
		b, err := shader.ParseBlendMode(name)
		if err != nil {
			o.fail(err)
			return
		}
		o.blend = b
	}
}

// WithTableWidth sets the number of entries of 1D lookup tables.
func WithTableWidth(n int) Option {
	return func(o *options) {
		o.tableWidth = n
	}
}

// WithMaskConfig sets the memory budget of mask textures.
func WithMaskConfig(c mask.Config) Option {
	return func(o *options) {
		o.mask = c
	}
}

// WithNoise sets the size and seed of the jitter texture.
func WithNoise(size int, seed uint64) Option {
	return func(o *options) {
		o.noiseSize, o.noiseSeed = size, seed
	}
}

// WithJitter offsets ray starts by the noise texture to hide
// wood-grain artifacts.
func WithJitter(on bool) Option {
	return func(o *options) {
		o.jitter = on
	}
}

// WithRenderToImage renders into offscreen colour and depth textures
// read back with Mapper.ColorImage and Mapper.DepthImage.
func WithRenderToImage(on bool) Option {
	return func(o *options) {
		o.renderToImage = on
	}
}

// WithDepthPass enables the isosurface depth pre-pass with the given
// contour values in data units. Without contours the pass stays off.
func WithDepthPass(contours ...float64) Option {
	return func(o *options) {
		o.depthPass = len(contours) > 0
		o.contours = append([]float64(nil), contours...)
	}
}

func (o *options) fail(err error) {
	if o.err == nil {
		o.err = err
	}
}
