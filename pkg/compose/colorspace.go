package compose

import (
	"math"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// 8-bit color space encodings follow the OpenCV conventions the
// surrounding tooling expects: HSV stores hue as degrees/2 in [0,180),
// LAB stores L scaled to [0,255] and a/b offset by +128.

func rgbToHSV(im *pixbuf.Image) *pixbuf.Image {
	out := pixbuf.New(im.Width, im.Height, 3)
	for i := 0; i < len(im.Pix); i += 3 {
		r := float64(im.Pix[i+0])
		g := float64(im.Pix[i+1])
		b := float64(im.Pix[i+2])
		mx := math.Max(r, math.Max(g, b))
		mn := math.Min(r, math.Min(g, b))
		d := mx - mn

		v := mx
		s := 0.0
		if mx > 0 {
			s = 255.0 * d / mx
		}
		hdeg := 0.0
		if d > 0 {
			switch mx {
			case r:
				hdeg = 60 * (g - b) / d
			case g:
				hdeg = 120 + 60*(b-r)/d
			default:
				hdeg = 240 + 60*(r-g)/d
			}
			if hdeg < 0 {
				hdeg += 360
			}
		}
		out.Pix[i+0] = uint8(math.Mod(hdeg/2+0.5, 180))
		out.Pix[i+1] = pixbuf.ClampUint8(s)
		out.Pix[i+2] = pixbuf.ClampUint8(v)
	}
	return out
}

func hsvToRGB(im *pixbuf.Image) *pixbuf.Image {
	out := pixbuf.New(im.Width, im.Height, 3)
	for i := 0; i < len(im.Pix); i += 3 {
		h := float64(im.Pix[i+0]) * 2.0 // degrees
		s := float64(im.Pix[i+1]) / 255.0
		v := float64(im.Pix[i+2]) / 255.0

		c := v * s
		hp := h / 60.0
		x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
		var r, g, b float64
		switch {
		case hp < 1:
			r, g, b = c, x, 0
		case hp < 2:
			r, g, b = x, c, 0
		case hp < 3:
			r, g, b = 0, c, x
		case hp < 4:
			r, g, b = 0, x, c
		case hp < 5:
			r, g, b = x, 0, c
		default:
			r, g, b = c, 0, x
		}
		m := v - c
		out.Pix[i+0] = pixbuf.ClampUint8((r + m) * 255.0)
		out.Pix[i+1] = pixbuf.ClampUint8((g + m) * 255.0)
		out.Pix[i+2] = pixbuf.ClampUint8((b + m) * 255.0)
	}
	return out
}

// D65 white point.
const (
	labXn = 0.950456
	labZn = 1.088754
)

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func labFInv(t float64) float64 {
	if t3 := t * t * t; t3 > 0.008856 {
		return t3
	}
	return (t - 16.0/116.0) / 7.787
}

func rgbToLAB(im *pixbuf.Image) *pixbuf.Image {
	out := pixbuf.New(im.Width, im.Height, 3)
	for i := 0; i < len(im.Pix); i += 3 {
		r := float64(im.Pix[i+0]) / 255.0
		g := float64(im.Pix[i+1]) / 255.0
		b := float64(im.Pix[i+2]) / 255.0

		x := 0.412453*r + 0.357580*g + 0.180423*b
		y := 0.212671*r + 0.715160*g + 0.072169*b
		z := 0.019334*r + 0.119193*g + 0.950227*b

		fx := labF(x / labXn)
		fy := labF(y)
		fz := labF(z / labZn)

		l := 116*fy - 16
		if l < 0 {
			l = 0
		}
		out.Pix[i+0] = pixbuf.ClampUint8(l * 255.0 / 100.0)
		out.Pix[i+1] = pixbuf.ClampUint8(500*(fx-fy) + 128)
		out.Pix[i+2] = pixbuf.ClampUint8(200*(fy-fz) + 128)
	}
	return out
}

func labToRGB(im *pixbuf.Image) *pixbuf.Image {
	out := pixbuf.New(im.Width, im.Height, 3)
	for i := 0; i < len(im.Pix); i += 3 {
		l := float64(im.Pix[i+0]) * 100.0 / 255.0
		a := float64(im.Pix[i+1]) - 128.0
		bb := float64(im.Pix[i+2]) - 128.0

		fy := (l + 16) / 116
		fx := fy + a/500
		fz := fy - bb/200

		x := labFInv(fx) * labXn
		y := labFInv(fy)
		z := labFInv(fz) * labZn

		r := 3.240479*x - 1.537150*y - 0.498535*z
		g := -0.969256*x + 1.875992*y + 0.041556*z
		b := 0.055648*x - 0.204043*y + 1.057311*z

		out.Pix[i+0] = pixbuf.ClampUint8(r * 255.0)
		out.Pix[i+1] = pixbuf.ClampUint8(g * 255.0)
		out.Pix[i+2] = pixbuf.ClampUint8(b * 255.0)
	}
	return out
}
