//go:build magick

package blur

import (
	"fmt"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// magickInit guards the one-time ImageMagick environment setup. The
// environment stays alive for the life of the process; Terminate is
// deliberately never called because wands may outlive any one engine.
var magickInit sync.Once

// magickAccelerator serves Gaussian blurs through ImageMagick.
type magickAccelerator struct{}

func newAccelerator() accelerator {
	magickInit.Do(imagick.Initialize)
	return &magickAccelerator{}
}

const accelCompiled = true

func (a *magickAccelerator) Name() string { return "imagick" }

func (a *magickAccelerator) Gaussian(img *pixbuf.Image, kernelSize int, sigma float64) (*pixbuf.Image, error) {
	pmap, err := pixelMap(img.Channels)
	if err != nil {
		return nil, err
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ConstituteImage(uint(img.Width), uint(img.Height), pmap, imagick.PIXEL_CHAR, img.Pix); err != nil {
		return nil, fmt.Errorf("%w: constitute: %v", ErrAccelUnavailable, err)
	}
	radius := float64(kernelSize-1) / 2
	if err := mw.GaussianBlurImage(radius, sigma); err != nil {
		return nil, fmt.Errorf("%w: gaussian: %v", ErrAccelUnavailable, err)
	}
	raw, err := mw.ExportImagePixels(0, 0, uint(img.Width), uint(img.Height), pmap, imagick.PIXEL_CHAR)
	if err != nil {
		return nil, fmt.Errorf("%w: export: %v", ErrAccelUnavailable, err)
	}
	pix, ok := raw.([]byte)
	if !ok || len(pix) != img.Width*img.Height*img.Channels {
		return nil, fmt.Errorf("%w: unexpected export shape", ErrAccelUnavailable)
	}
	return &pixbuf.Image{
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Pix:      pix,
	}, nil
}

func pixelMap(channels int) (string, error) {
	switch channels {
	case 1:
		return "I", nil
	case 3:
		return "RGB", nil
	case 4:
		return "RGBA", nil
	}
	return "", fmt.Errorf("%w: unsupported channel count %d", ErrAccelUnavailable, channels)
}
