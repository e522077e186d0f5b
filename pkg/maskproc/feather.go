package maskproc

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// Feather turns a hard mask into a soft-edged alpha mask usable
// directly as a blend weight. Two distance transforms drive the ramps:
// one measured from the foreground (fade-in over innerFeather pixels
// inside the shape) and one from its complement (fade-out over
// outerFeather pixels beyond the edge). Output alpha is scaled to
// 0-255; each side ramps monotonically over its own feather width.
func (p *Processor) Feather(mask *pixbuf.Image, innerFeather, outerFeather int) (*pixbuf.Image, error) {
	if err := validateMask(mask); err != nil {
		return nil, err
	}
	if innerFeather <= 0 || outerFeather <= 0 {
		return nil, fmt.Errorf("maskproc: feather widths must be positive, got inner=%d outer=%d",
			innerFeather, outerFeather)
	}

	start := time.Now()
	w, h := mask.Width, mask.Height
	fg := make([]bool, w*h)
	bg := make([]bool, w*h)
	for i, v := range mask.Pix {
		if v > 127 {
			fg[i] = true
		} else {
			bg[i] = true
		}
	}
	distIn := euclideanDistance(fg, w, h)
	distOut := euclideanDistance(bg, w, h)

	out := pixbuf.New(w, h, 1)
	inner := float64(innerFeather)
	outer := float64(outerFeather)
	for i := range out.Pix {
		var alpha float64
		if fg[i] {
			alpha = 1.0
			if distIn[i] < inner {
				alpha = distIn[i] / inner
			}
		} else {
			if distOut[i] < outer {
				alpha = 1.0 - distOut[i]/outer
			}
		}
		out.Pix[i] = pixbuf.ClampUint8(alpha * 255)
	}
	p.log.WithFields(logrus.Fields{
		"inner": innerFeather,
		"outer": outerFeather,
		"ms":    time.Since(start).Milliseconds(),
	}).Debug("mask feathering complete")
	return out, nil
}
