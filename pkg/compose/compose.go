// Package compose combines a base image, an overlay (typically a
// blurred render of the base) and a mask into one 3-channel output:
// edge-aware alpha blending, blending in a perceptual color space, and
// a simplified gradient-domain blend.
package compose

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// ColorSpace selects the space a color-aware blend operates in.
type ColorSpace int

const (
	SpaceRGB ColorSpace = iota
	SpaceHSV
	SpaceLAB
)

func (s ColorSpace) String() string {
	switch s {
	case SpaceRGB:
		return "RGB"
	case SpaceHSV:
		return "HSV"
	case SpaceLAB:
		return "LAB"
	}
	return fmt.Sprintf("space(%d)", int(s))
}

// Engine is the compositing engine.
type Engine struct {
	log *logrus.Logger
}

// New constructs a compositing engine. logger may be nil.
func New(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Engine{log: logger}
}

// validateTriple checks the base/overlay/mask contract shared by every
// compositing variant: 3-channel base and overlay, 1-channel mask, all
// the same width and height.
func validateTriple(base, overlay, mask *pixbuf.Image) error {
	for _, im := range []*pixbuf.Image{base, overlay} {
		if err := im.Validate(); err != nil {
			return err
		}
		if im.Channels != 3 {
			return fmt.Errorf("compose: base and overlay must be 3-channel, got %d", im.Channels)
		}
	}
	if err := mask.Validate(); err != nil {
		return err
	}
	if !mask.IsMask() {
		return fmt.Errorf("compose: mask must be 1-channel, got %d", mask.Channels)
	}
	if !pixbuf.SameGeometry(base, overlay) || !pixbuf.SameSize(base, mask) {
		return fmt.Errorf("compose: geometry mismatch: base %dx%d, overlay %dx%d, mask %dx%d",
			base.Width, base.Height, overlay.Width, overlay.Height, mask.Width, mask.Height)
	}
	return nil
}

// luminance601 returns the Rec.601 luminance of a 3-channel image,
// normalized to [0,1].
func luminance601(im *pixbuf.Image) []float64 {
	w, h := im.Width, im.Height
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := im.Offset(x, y)
			r := float64(im.Pix[i+0])
			g := float64(im.Pix[i+1])
			b := float64(im.Pix[i+2])
			out[y*w+x] = (0.299*r + 0.587*g + 0.114*b) / 255.0
		}
	}
	return out
}

// sobel computes horizontal and vertical 3x3 Sobel responses of a
// scalar field with clamp-to-edge borders.
func sobel(lum []float64, w, h int) (gx, gy []float64) {
	kx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	ky := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := 0.0, 0.0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ix, iy := x+dx, y+dy
					if ix < 0 {
						ix = 0
					} else if ix >= w {
						ix = w - 1
					}
					if iy < 0 {
						iy = 0
					} else if iy >= h {
						iy = h - 1
					}
					v := lum[iy*w+ix]
					sx += v * kx[dy+1][dx+1]
					sy += v * ky[dy+1][dx+1]
				}
			}
			gx[y*w+x] = sx
			gy[y*w+x] = sy
		}
	}
	return gx, gy
}

// blurField applies a small separable Gaussian to a scalar field.
func blurField(f []float64, w, h int, sigma float64, radius int) []float64 {
	kern := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	tmp := make([]float64, w*h)
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for k := -radius; k <= radius; k++ {
				ix := x + k
				if ix < 0 {
					ix = 0
				} else if ix >= w {
					ix = w - 1
				}
				s += f[y*w+ix] * kern[k+radius]
			}
			tmp[y*w+x] = s
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for k := -radius; k <= radius; k++ {
				iy := y + k
				if iy < 0 {
					iy = 0
				} else if iy >= h {
					iy = h - 1
				}
				s += tmp[iy*w+x] * kern[k+radius]
			}
			out[y*w+x] = s
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
