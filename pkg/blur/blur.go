// Package blur implements the convolution blur engine: separable
// Gaussian, box and motion kernels over packed pixel buffers, an
// optional accelerated backend with inline CPU fallback, and the
// mask-driven selective blur.
package blur

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// KernelType selects the blur algorithm.
type KernelType int

const (
	// KernelGaussian is a true separable Gaussian convolution.
	KernelGaussian KernelType = iota
	// KernelBox is a uniform box filter, cheapest and lowest quality.
	KernelBox
	// KernelMotion is a single-row averaging kernel, which degenerates
	// to a horizontal motion blur.
	KernelMotion
)

func (k KernelType) String() string {
	switch k {
	case KernelGaussian:
		return "gaussian"
	case KernelBox:
		return "box"
	case KernelMotion:
		return "motion"
	}
	return fmt.Sprintf("kernel(%d)", int(k))
}

// Params configures a blur call. Accelerated requests the accelerated
// backend when one is compiled in; the call falls back to the CPU path
// on any backend failure instead of failing.
type Params struct {
	Kernel      KernelType
	Sigma       float64
	Accelerated bool
}

// ErrAccelUnavailable is returned by the accelerated backend when no
// acceleration library is compiled in or the backend cannot serve the
// request. Callers fall back to the CPU path on this error.
var ErrAccelUnavailable = errors.New("blur: acceleration unavailable")

// accelerator is the strategy interface for an accelerated Gaussian
// backend. The engine tries it first and runs the CPU path on error.
type accelerator interface {
	Name() string
	Gaussian(img *pixbuf.Image, kernelSize int, sigma float64) (*pixbuf.Image, error)
}

// Engine is the convolution blur engine. The zero value is not usable;
// construct with New.
type Engine struct {
	log      *logrus.Logger
	accel    accelerator
	accelOps uint64
}

// New constructs a blur engine. logger may be nil, in which case log
// output is discarded.
func New(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Engine{log: logger, accel: newAccelerator()}
}

// AccelAvailable reports whether an accelerated backend is compiled in.
func (e *Engine) AccelAvailable() bool {
	return e.accel != nil
}

// AccelCompiled reports the same fact from the build configuration
// alone, without constructing an engine or touching the backend.
func AccelCompiled() bool { return accelCompiled }

// AccelOps returns the number of operations served by the accelerated
// backend so far.
func (e *Engine) AccelOps() uint64 {
	return atomic.LoadUint64(&e.accelOps)
}

// Apply blurs img according to params and returns a new buffer of the
// same geometry. The input is never modified.
func (e *Engine) Apply(img *pixbuf.Image, params Params) (*pixbuf.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if params.Sigma < 0 {
		return nil, fmt.Errorf("blur: negative sigma %v", params.Sigma)
	}
	kernelSize := KernelSizeForSigma(params.Sigma)

	switch params.Kernel {
	case KernelGaussian:
		if params.Accelerated && e.accel != nil {
			out, err := e.accel.Gaussian(img, kernelSize, params.Sigma)
			if err == nil {
				atomic.AddUint64(&e.accelOps, 1)
				return out, nil
			}
			// Fall back to CPU inline; the call itself must not fail
			// because the backend did.
			e.log.WithFields(logrus.Fields{
				"backend": e.accel.Name(),
				"error":   err,
			}).Warn("accelerated blur failed, falling back to CPU")
		}
		return gaussianBlur(img, params.Sigma), nil

	case KernelBox:
		return boxBlur(img, kernelSize), nil

	case KernelMotion:
		return motionBlur(img, kernelSize), nil

	default:
		return nil, fmt.Errorf("blur: unknown kernel type %d", int(params.Kernel))
	}
}

// gaussianBlur applies a separable Gaussian convolution with
// clamp-to-edge borders. sigma <= 0 yields a copy of the input.
func gaussianBlur(src *pixbuf.Image, sigma float64) *pixbuf.Image {
	kern, radius := gaussianKernel1D(sigma)
	if radius == 0 {
		return src.Clone()
	}
	w, h, ch := src.Width, src.Height, src.Channels
	tmp := pixbuf.New(w, h, ch)
	dst := pixbuf.New(w, h, ch)

	// horizontal pass
	var wg sync.WaitGroup
	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < w; x++ {
				di := tmp.Offset(x, y)
				for c := 0; c < ch; c++ {
					sum := 0.0
					for k := -radius; k <= radius; k++ {
						ix := x + k
						if ix < 0 {
							ix = 0
						} else if ix >= w {
							ix = w - 1
						}
						sum += float64(src.Pix[src.Offset(ix, y)+c]) * kern[k+radius]
					}
					tmp.Pix[di+c] = pixbuf.ClampUint8(sum)
				}
			}
		}(y)
	}
	wg.Wait()

	// vertical pass
	for x := 0; x < w; x++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			for y := 0; y < h; y++ {
				di := dst.Offset(x, y)
				for c := 0; c < ch; c++ {
					sum := 0.0
					for k := -radius; k <= radius; k++ {
						iy := y + k
						if iy < 0 {
							iy = 0
						} else if iy >= h {
							iy = h - 1
						}
						sum += float64(tmp.Pix[tmp.Offset(x, iy)+c]) * kern[k+radius]
					}
					dst.Pix[di+c] = pixbuf.ClampUint8(sum)
				}
			}
		}(x)
	}
	wg.Wait()
	return dst
}

// boxBlur applies a uniform box filter of the given kernel size as two
// separable averaging passes with clamp-to-edge borders.
func boxBlur(src *pixbuf.Image, kernelSize int) *pixbuf.Image {
	radius := kernelSize / 2
	if radius == 0 {
		return src.Clone()
	}
	w, h, ch := src.Width, src.Height, src.Channels
	tmp := pixbuf.New(w, h, ch)
	dst := pixbuf.New(w, h, ch)
	window := float64(2*radius + 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := tmp.Offset(x, y)
			for c := 0; c < ch; c++ {
				sum := 0.0
				for k := -radius; k <= radius; k++ {
					ix := clampIndex(x+k, w)
					sum += float64(src.Pix[src.Offset(ix, y)+c])
				}
				tmp.Pix[di+c] = pixbuf.ClampUint8(sum / window)
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := dst.Offset(x, y)
			for c := 0; c < ch; c++ {
				sum := 0.0
				for k := -radius; k <= radius; k++ {
					iy := clampIndex(y+k, h)
					sum += float64(tmp.Pix[tmp.Offset(x, iy)+c])
				}
				dst.Pix[di+c] = pixbuf.ClampUint8(sum / window)
			}
		}
	}
	return dst
}

// motionBlur convolves with a single-row averaging kernel of the given
// size, i.e. a horizontal motion streak.
func motionBlur(src *pixbuf.Image, kernelSize int) *pixbuf.Image {
	radius := kernelSize / 2
	if radius == 0 {
		return src.Clone()
	}
	w, h, ch := src.Width, src.Height, src.Channels
	dst := pixbuf.New(w, h, ch)
	window := float64(2*radius + 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := dst.Offset(x, y)
			for c := 0; c < ch; c++ {
				sum := 0.0
				for k := -radius; k <= radius; k++ {
					ix := clampIndex(x+k, w)
					sum += float64(src.Pix[src.Offset(ix, y)+c])
				}
				dst.Pix[di+c] = pixbuf.ClampUint8(sum / window)
			}
		}
	}
	return dst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
