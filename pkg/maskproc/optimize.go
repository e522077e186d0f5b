package maskproc

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// Optimize cleans up a noisy binary mask. The order of the stages
// matters: remove small components, bilateral-smooth, re-binarize,
// then close to round off the boundary.
func (p *Processor) Optimize(mask *pixbuf.Image, minComponentArea int) (*pixbuf.Image, error) {
	if err := validateMask(mask); err != nil {
		return nil, err
	}
	if minComponentArea < 0 {
		return nil, fmt.Errorf("maskproc: negative component area %d", minComponentArea)
	}
	start := time.Now()

	// 1. drop 8-connected components smaller than minComponentArea
	out := pruneComponents(mask, minComponentArea)

	// 2. edge-preserving smoothing
	out = bilateralFilter(out, 9, 75, 75)

	// 3. restore a strict binary mask
	for i, v := range out.Pix {
		if v > 127 {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}

	// 4. close with a 5x5 elliptical kernel to smooth the boundary
	elem := ellipseElement(5)
	out = erode(dilate(out, elem), elem)
	p.log.WithFields(logrus.Fields{
		"minArea": minComponentArea,
		"ms":      time.Since(start).Milliseconds(),
	}).Debug("mask optimization complete")
	return out, nil
}

// pruneComponents labels 8-connected nonzero components and zeroes any
// component with area strictly below minArea.
func pruneComponents(mask *pixbuf.Image, minArea int) *pixbuf.Image {
	w, h := mask.Width, mask.Height
	out := mask.Clone()
	labels := make([]int32, w*h)
	next := int32(1)
	var stack []int

	for start := 0; start < w*h; start++ {
		if out.Pix[start] == 0 || labels[start] != 0 {
			continue
		}
		label := next
		next++
		area := 0
		var members []int
		stack = append(stack[:0], start)
		labels[start] = label
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			area++
			members = append(members, i)
			x, y := i%w, i/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if out.Pix[ni] != 0 && labels[ni] == 0 {
						labels[ni] = label
						stack = append(stack, ni)
					}
				}
			}
		}
		if area < minArea {
			for _, i := range members {
				out.Pix[i] = 0
			}
		}
	}
	return out
}

// bilateralFilter applies an edge-preserving smoothing over a d x d
// window: each neighbor is weighted by both its spatial distance and
// its intensity difference from the center pixel.
func bilateralFilter(mask *pixbuf.Image, d int, sigmaColor, sigmaSpace float64) *pixbuf.Image {
	radius := d / 2
	w, h := mask.Width, mask.Height
	out := pixbuf.New(w, h, 1)

	// precompute weights for the spatial term and the 256 possible
	// intensity deltas
	spatial := make([]float64, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			spatial[(dy+radius)*(2*radius+1)+(dx+radius)] =
				math.Exp(-float64(dx*dx+dy*dy) / (2 * sigmaSpace * sigmaSpace))
		}
	}
	intensity := make([]float64, 256)
	for i := range intensity {
		intensity[i] = math.Exp(-float64(i*i) / (2 * sigmaColor * sigmaColor))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := float64(mask.Pix[y*w+x])
			sum, wsum := 0.0, 0.0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
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
					v := float64(mask.Pix[iy*w+ix])
					delta := int(math.Abs(v - center))
					wt := spatial[(dy+radius)*(2*radius+1)+(dx+radius)] * intensity[delta]
					sum += v * wt
					wsum += wt
				}
			}
			out.Pix[y*w+x] = pixbuf.ClampUint8(sum / wsum)
		}
	}
	return out
}
