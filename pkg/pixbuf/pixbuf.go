// Package pixbuf defines the raw pixel buffer type shared by every
// processing stage: a contiguous row-major interleaved byte buffer with
// explicit width, height and channel count. It carries no processing
// logic of its own.
package pixbuf

import (
	"fmt"
)

// Image is a packed 8-bit-per-channel pixel buffer. Channels is 1
// (grayscale/mask), 3 (RGB) or 4 (RGBA). Pix is row-major with
// interleaved channels and must have length Width*Height*Channels.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// New allocates a zeroed image of the given geometry.
func New(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// Validate checks the buffer geometry contract. A mismatch between the
// declared dimensions and the buffer length is a hard error, never a
// recoverable state.
func (im *Image) Validate() error {
	if im == nil {
		return fmt.Errorf("pixbuf: nil image")
	}
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("pixbuf: invalid dimensions %dx%d", im.Width, im.Height)
	}
	switch im.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("pixbuf: unsupported channel count %d", im.Channels)
	}
	if want := im.Width * im.Height * im.Channels; len(im.Pix) != want {
		return fmt.Errorf("pixbuf: buffer length %d does not match %dx%dx%d (want %d)",
			len(im.Pix), im.Width, im.Height, im.Channels, want)
	}
	return nil
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	if im == nil {
		return nil
	}
	out := &Image{Width: im.Width, Height: im.Height, Channels: im.Channels}
	out.Pix = make([]byte, len(im.Pix))
	copy(out.Pix, im.Pix)
	return out
}

// IsMask reports whether the image is single-channel.
func (im *Image) IsMask() bool {
	return im != nil && im.Channels == 1
}

// Empty reports whether the buffer carries no pixels. An empty buffer is
// the sentinel for "operation unavailable or failed" at the facade
// boundary and must be distinguished from an unchanged full-size copy.
func (im *Image) Empty() bool {
	return im == nil || len(im.Pix) == 0
}

// Offset returns the index of the first channel of pixel (x, y).
func (im *Image) Offset(x, y int) int {
	return (y*im.Width + x) * im.Channels
}

// SameGeometry reports whether a and b agree on all three dimensions.
func SameGeometry(a, b *Image) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Width == b.Width && a.Height == b.Height && a.Channels == b.Channels
}

// SameSize reports whether a and b agree on width and height, ignoring
// channel count. Used when pairing an image with its mask.
func SameSize(a, b *Image) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Width == b.Width && a.Height == b.Height
}

// ClampUint8 rounds v to the nearest integer and clamps it to [0,255].
func ClampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
