// Package pipeline is the stable request/response boundary of the
// processing core. A Context owns one instance of each engine,
// constructed lazily on first use and torn down by an explicit,
// idempotent Close; there is no hidden process-wide state. After Close
// every operation reports ErrClosed together with an empty buffer;
// the context never resurrects itself.
//
// Fallback policy lives here, not in the stages: the stages return
// plain errors, and the facade decides per operation whether to
// substitute the identity result (blur and mask refinement) or the
// empty-buffer failure sentinel (compositing), logging every
// substitution.
package pipeline

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/blur"
	"github.com/Fepozopo/blurcore/pkg/compose"
	"github.com/Fepozopo/blurcore/pkg/execpool"
	"github.com/Fepozopo/blurcore/pkg/maskproc"
	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// Version is the core version, used by the host's update check.
const Version = "0.5.0"

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("pipeline: context closed")

// Context owns the engine instances and the execution layer.
type Context struct {
	mu     sync.Mutex
	closed bool
	opts   Options
	log    *logrus.Logger

	blurEngine *blur.Engine
	maskProc   *maskproc.Processor
	compositor *compose.Engine
	exec       *execpool.Engine

	// accelSeen tracks how many accelerated blur completions have
	// already been folded into the GPU-operation counter.
	accelSeen uint64
}

// NewContext constructs a context. Engines are created lazily on
// first use.
func NewContext(opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Context{opts: opts, log: logger}
}

// engines returns the lazily-constructed engine set, or ErrClosed.
func (c *Context) engines() (*blur.Engine, *maskproc.Processor, *compose.Engine, *execpool.Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, nil, nil, ErrClosed
	}
	if c.exec == nil {
		c.exec = execpool.New(execpool.Options{
			Workers:   c.opts.Workers,
			MaxBlocks: c.opts.MaxBlocks,
			Logger:    c.log,
		})
		c.blurEngine = blur.New(c.log)
		c.maskProc = maskproc.New(c.log)
		c.compositor = compose.New(c.log)
		c.log.WithFields(logrus.Fields{
			"workers":     c.exec.Workers(),
			"accelerated": c.blurEngine.AccelAvailable(),
		}).Info("pipeline engines initialized")
	}
	return c.blurEngine, c.maskProc, c.compositor, c.exec, nil
}

// Close tears down the execution layer and invalidates the context.
// Idempotent; safe to call concurrently with operations (in-flight
// work completes first).
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	exec := c.exec
	c.mu.Unlock()
	if exec != nil {
		exec.Close()
		c.log.Info("pipeline closed")
	}
}

// Accelerated reports whether an accelerated blur backend is compiled
// in. Answered from the build configuration; no engines are
// constructed and no state changes.
func (c *Context) Accelerated() bool {
	return blur.AccelCompiled()
}

// Version returns the core version string.
func (c *Context) Version() string { return Version }

// GPUAvailable reports whether a GPU compute path is present. The
// current backends run on the CPU, so this is false unless a future
// backend says otherwise. No side effects.
func (c *Context) GPUAvailable() bool {
	return false
}

// Metrics returns the performance counters. Readable after Close.
func (c *Context) Metrics() execpool.MetricsSnapshot {
	c.mu.Lock()
	exec := c.exec
	c.mu.Unlock()
	if exec == nil {
		return execpool.MetricsSnapshot{}
	}
	return exec.Metrics()
}

// Report renders the performance counters. Readable after Close.
func (c *Context) Report() string {
	c.mu.Lock()
	exec := c.exec
	c.mu.Unlock()
	if exec == nil {
		return "execution engine not initialized"
	}
	return exec.Report()
}

// syncAccelOps folds newly-completed accelerated blur operations into
// the GPU counter.
func (c *Context) syncAccelOps(b *blur.Engine, exec *execpool.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := b.AccelOps()
	if now > c.accelSeen {
		exec.RecordGPUOps(now - c.accelSeen)
		c.accelSeen = now
	}
}

// empty is the failure sentinel: a zero-length buffer, distinct from
// an unchanged full-size copy.
func empty() *pixbuf.Image { return &pixbuf.Image{} }

// Blur runs the convolution blur engine. Invalid input is a hard
// error; any later stage failure degrades to the identity result.
func (c *Context) Blur(img *pixbuf.Image, params blur.Params) (*pixbuf.Image, error) {
	b, _, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := img.Validate(); err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := b.Apply(img, params)
	if err != nil {
		c.log.WithError(err).Warn("blur failed, returning input unchanged")
		return img.Clone(), nil
	}
	c.syncAccelOps(b, exec)
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	c.log.WithFields(logrus.Fields{
		"kernel": params.Kernel.String(),
		"sigma":  params.Sigma,
		"ms":     time.Since(start).Milliseconds(),
	}).Debug("blur completed")
	return out, nil
}

// SelectiveBlur renders two Gaussian variants of img (foreground and
// background sigma) and blends them per pixel through the normalized
// mask, tiling the blend across the worker pool. A mask at a different
// resolution than the image is resized first.
func (c *Context) SelectiveBlur(img, mask *pixbuf.Image, fgSigma, bgSigma float64, accelerated bool) (*pixbuf.Image, error) {
	b, _, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := img.Validate(); err != nil {
		return empty(), err
	}
	mask, err = c.adaptMask(mask, img)
	if err != nil {
		return empty(), err
	}

	start := time.Now()
	fg, err := c.renderVariant(b, img, fgSigma, accelerated)
	if err != nil {
		c.log.WithError(err).Warn("selective blur failed, returning input unchanged")
		return img.Clone(), nil
	}
	bg, err := c.renderVariant(b, img, bgSigma, accelerated)
	if err != nil {
		c.log.WithError(err).Warn("selective blur failed, returning input unchanged")
		return img.Clone(), nil
	}
	c.syncAccelOps(b, exec)

	// out = fg*mask + bg*(1-mask), per channel, in float; the blend is
	// pointwise so row bands are safe to run in parallel
	maskPix := mask.Pix
	bgPix := bg.Pix
	out, err := exec.ProcessTiled(fg, func(pix []byte, width, height, channels, startRow, endRow int) {
		for y := startRow; y < endRow; y++ {
			for x := 0; x < width; x++ {
				m := float64(maskPix[y*width+x]) / 255.0
				i := (y*width + x) * channels
				for ch := 0; ch < channels; ch++ {
					v := float64(pix[i+ch])*m + float64(bgPix[i+ch])*(1-m)
					pix[i+ch] = pixbuf.ClampUint8(v)
				}
			}
		}
	})
	if err != nil {
		c.log.WithError(err).Warn("selective blend failed, returning input unchanged")
		return img.Clone(), nil
	}
	c.log.WithFields(logrus.Fields{
		"fgSigma": fgSigma,
		"bgSigma": bgSigma,
		"ms":      time.Since(start).Milliseconds(),
	}).Debug("selective blur completed")
	return out, nil
}

func (c *Context) renderVariant(b *blur.Engine, img *pixbuf.Image, sigma float64, accelerated bool) (*pixbuf.Image, error) {
	if sigma <= 0.1 {
		// degenerate kernel guard: treat as "no blur"
		return img.Clone(), nil
	}
	return b.Apply(img, blur.Params{Kernel: blur.KernelGaussian, Sigma: sigma, Accelerated: accelerated})
}

// adaptMask validates the mask and resizes it to the image resolution
// when the segmenter produced it at model resolution.
func (c *Context) adaptMask(mask *pixbuf.Image, img *pixbuf.Image) (*pixbuf.Image, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if pixbuf.SameSize(mask, img) {
		return mask, nil
	}
	binary := true
	for _, v := range mask.Pix {
		if v != 0 && v != 255 {
			binary = false
			break
		}
	}
	c.log.WithFields(logrus.Fields{
		"from":   []int{mask.Width, mask.Height},
		"to":     []int{img.Width, img.Height},
		"binary": binary,
	}).Debug("resizing mask to image resolution")
	return pixbuf.ResizeMask(mask, img.Width, img.Height, binary)
}

// RefineMask applies a morphological operator. Identity fallback on
// stage failure; invalid geometry is a hard error.
func (c *Context) RefineMask(mask *pixbuf.Image, op maskproc.Op, kernelSize, iterations int) (*pixbuf.Image, error) {
	_, mp, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := mask.Validate(); err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := mp.Refine(mask, op, kernelSize, iterations)
	if err != nil {
		c.log.WithError(err).WithField("op", op.String()).Warn("mask refine failed, returning input unchanged")
		return mask.Clone(), nil
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// SmoothMaskEdges Gaussian-softens mask edges, with the distance-ramp
// refinement for feather radii above 3.
func (c *Context) SmoothMaskEdges(mask *pixbuf.Image, sigma float64, featherRadius int) (*pixbuf.Image, error) {
	_, mp, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := mask.Validate(); err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := mp.SmoothEdges(mask, sigma, featherRadius)
	if err != nil {
		c.log.WithError(err).Warn("mask smoothing failed, returning input unchanged")
		return mask.Clone(), nil
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// OptimizeMask prunes small components and cleans the boundary.
func (c *Context) OptimizeMask(mask *pixbuf.Image, minComponentArea int) (*pixbuf.Image, error) {
	_, mp, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := mask.Validate(); err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := mp.Optimize(mask, minComponentArea)
	if err != nil {
		c.log.WithError(err).Warn("mask optimization failed, returning input unchanged")
		return mask.Clone(), nil
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// FeatherMask builds a soft-edged alpha mask from a hard one.
func (c *Context) FeatherMask(mask *pixbuf.Image, innerFeather, outerFeather int) (*pixbuf.Image, error) {
	_, mp, _, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	if err := mask.Validate(); err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := mp.Feather(mask, innerFeather, outerFeather)
	if err != nil {
		c.log.WithError(err).Warn("mask feathering failed, returning input unchanged")
		return mask.Clone(), nil
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// BlendLayers composites overlay over base through mask. Compositing
// failures return the empty sentinel, never a partial image.
func (c *Context) BlendLayers(base, overlay, mask *pixbuf.Image, blendStrength float64) (*pixbuf.Image, error) {
	_, _, comp, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := comp.BlendLayers(base, overlay, mask, blendStrength)
	if err != nil {
		c.log.WithError(err).Warn("blend failed")
		return empty(), err
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// ColorBlend composites in the requested color space.
func (c *Context) ColorBlend(base, overlay, mask *pixbuf.Image, space compose.ColorSpace) (*pixbuf.Image, error) {
	_, _, comp, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := comp.ColorBlend(base, overlay, mask, space)
	if err != nil {
		c.log.WithError(err).WithField("space", space.String()).Warn("color blend failed")
		return empty(), err
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}

// GradientComposite composites through blended image gradients.
func (c *Context) GradientComposite(base, overlay, mask *pixbuf.Image) (*pixbuf.Image, error) {
	_, _, comp, exec, err := c.engines()
	if err != nil {
		return empty(), err
	}
	start := time.Now()
	out, err := comp.GradientComposite(base, overlay, mask)
	if err != nil {
		c.log.WithError(err).Warn("gradient composite failed")
		return empty(), err
	}
	exec.RecordOperation(uint64(time.Since(start).Milliseconds()))
	return out, nil
}
