package pixbuf

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// FromNRGBA copies a stdlib NRGBA image into a 4-channel buffer.
func FromNRGBA(src *image.NRGBA) *Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := New(w, h, 4)
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := out.Offset(0, y)
		copy(out.Pix[di:di+w*4], src.Pix[si:si+w*4])
	}
	return out
}

// ToNRGBA converts a 3- or 4-channel buffer into a stdlib NRGBA image.
// 3-channel input gets an opaque alpha channel.
func ToNRGBA(im *Image) (*image.NRGBA, error) {
	if err := im.Validate(); err != nil {
		return nil, err
	}
	if im.Channels != 3 && im.Channels != 4 {
		return nil, fmt.Errorf("pixbuf: cannot convert %d-channel buffer to NRGBA", im.Channels)
	}
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			si := im.Offset(x, y)
			di := out.PixOffset(x, y)
			out.Pix[di+0] = im.Pix[si+0]
			out.Pix[di+1] = im.Pix[si+1]
			out.Pix[di+2] = im.Pix[si+2]
			if im.Channels == 4 {
				out.Pix[di+3] = im.Pix[si+3]
			} else {
				out.Pix[di+3] = 255
			}
		}
	}
	return out, nil
}

// FromGray copies a stdlib grayscale image into a 1-channel buffer.
func FromGray(src *image.Gray) *Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := New(w, h, 1)
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*w:(y+1)*w], src.Pix[si:si+w])
	}
	return out
}

// ToGray converts a 1-channel buffer into a stdlib grayscale image.
func ToGray(im *Image) (*image.Gray, error) {
	if err := im.Validate(); err != nil {
		return nil, err
	}
	if im.Channels != 1 {
		return nil, fmt.Errorf("pixbuf: cannot convert %d-channel buffer to Gray", im.Channels)
	}
	out := image.NewGray(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+im.Width], im.Pix[y*im.Width:(y+1)*im.Width])
	}
	return out, nil
}

// ResizeMask scales a single-channel mask to the given dimensions.
// Segmenters usually emit masks at model resolution, so the facade
// resizes them before pairing with a full-size image. Binary masks use
// nearest-neighbor sampling so values stay 0/255; probability masks use
// bilinear sampling.
func ResizeMask(mask *Image, width, height int, binary bool) (*Image, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if !mask.IsMask() {
		return nil, fmt.Errorf("pixbuf: resize expects a 1-channel mask, got %d channels", mask.Channels)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixbuf: invalid resize target %dx%d", width, height)
	}
	if mask.Width == width && mask.Height == height {
		return mask.Clone(), nil
	}
	src, err := ToGray(mask)
	if err != nil {
		return nil, err
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	var scaler xdraw.Interpolator = xdraw.ApproxBiLinear
	if binary {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return FromGray(dst), nil
}
