package maskproc

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// SmoothEdges Gaussian-blurs the mask with a kernel of size
// 2*featherRadius+1 at the given sigma. For featherRadius > 3 it also
// computes the Euclidean distance transform of the input mask,
// normalizes it to 0-255, and blends 70% blurred with 30% normalized
// distance. The secondary blend is a quality refinement, not just more
// smoothing; both paths are load-bearing.
func (p *Processor) SmoothEdges(mask *pixbuf.Image, sigma float64, featherRadius int) (*pixbuf.Image, error) {
	if err := validateMask(mask); err != nil {
		return nil, err
	}
	if featherRadius < 0 {
		return nil, fmt.Errorf("maskproc: negative feather radius %d", featherRadius)
	}
	if sigma <= 0 || featherRadius == 0 {
		return mask.Clone(), nil
	}
	start := time.Now()

	out := gaussianBlurMask(mask, sigma, featherRadius)

	if featherRadius > 3 {
		w, h := mask.Width, mask.Height
		inside := make([]bool, w*h)
		for i, v := range mask.Pix {
			inside[i] = v > 0
		}
		dist := euclideanDistance(inside, w, h)
		maxDist := 0.0
		for _, d := range dist {
			if d > maxDist {
				maxDist = d
			}
		}
		if maxDist > 0 {
			for i := range out.Pix {
				norm := dist[i] * 255.0 / maxDist
				out.Pix[i] = pixbuf.ClampUint8(0.7*float64(out.Pix[i]) + 0.3*norm)
			}
		}
	}
	p.log.WithFields(logrus.Fields{
		"sigma":  sigma,
		"radius": featherRadius,
		"ms":     time.Since(start).Milliseconds(),
	}).Debug("mask edge smoothing complete")
	return out, nil
}

// gaussianBlurMask blurs a 1-channel mask with an explicit kernel
// radius (unlike the image blur, where the radius derives from sigma).
func gaussianBlurMask(mask *pixbuf.Image, sigma float64, radius int) *pixbuf.Image {
	sz := radius*2 + 1
	kern := make([]float64, sz)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * (float64(i) * float64(i)) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}

	w, h := mask.Width, mask.Height
	tmp := pixbuf.New(w, h, 1)
	out := pixbuf.New(w, h, 1)
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
				s += float64(mask.Pix[y*w+ix]) * kern[k+radius]
			}
			tmp.Pix[y*w+x] = pixbuf.ClampUint8(s)
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
				s += float64(tmp.Pix[iy*w+x]) * kern[k+radius]
			}
			out.Pix[y*w+x] = pixbuf.ClampUint8(s)
		}
	}
	return out
}
