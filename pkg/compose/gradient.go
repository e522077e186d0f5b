package compose

import (
	"math"
	"time"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// GradientComposite blends base and overlay through the gradient
// domain: Sobel gradients of both luminances are mixed by the mask,
// and the min-max-normalized magnitude of the mixed gradient, scaled
// by the mask, becomes the per-pixel blend weight.
//
// This is a magnitude-weighted approximation, not a full Poisson
// reconstruction; the approximation is the intended behavior.
func (e *Engine) GradientComposite(base, overlay, mask *pixbuf.Image) (*pixbuf.Image, error) {
	if err := validateTriple(base, overlay, mask); err != nil {
		return nil, err
	}
	start := time.Now()
	w, h := base.Width, base.Height

	m := make([]float64, w*h)
	for i, v := range mask.Pix {
		m[i] = float64(v) / 255.0
	}

	gxB, gyB := sobel(luminance601(base), w, h)
	gxO, gyO := sobel(luminance601(overlay), w, h)

	mag := make([]float64, w*h)
	minMag, maxMag := math.Inf(1), math.Inf(-1)
	for i := range mag {
		gx := gxB[i]*(1-m[i]) + gxO[i]*m[i]
		gy := gyB[i]*(1-m[i]) + gyO[i]*m[i]
		v := math.Hypot(gx, gy)
		mag[i] = v
		if v < minMag {
			minMag = v
		}
		if v > maxMag {
			maxMag = v
		}
	}

	span := maxMag - minMag
	out := pixbuf.New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			wt := 0.0
			if span > 0 {
				wt = (mag[idx] - minMag) / span
			}
			wt *= m[idx]
			i := out.Offset(x, y)
			for c := 0; c < 3; c++ {
				b := float64(base.Pix[i+c]) / 255.0
				o := float64(overlay.Pix[i+c]) / 255.0
				out.Pix[i+c] = pixbuf.ClampUint8((b*(1-wt) + o*wt) * 255.0)
			}
		}
	}
	e.log.WithField("ms", time.Since(start).Milliseconds()).Debug("gradient composite complete")
	return out, nil
}
