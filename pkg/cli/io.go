package cli

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// PromptLine displays a prompt and reads a full line of input from the user.
// The returned string is trimmed of surrounding whitespace (including the newline).
func PromptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptLineOrFzf reads a full line from stdin and treats a single "/"
// as a request to pick a file with fzf instead of typing the path.
// Reading the whole line keeps paths with spaces intact.
func PromptLineOrFzf(prompt string) (string, error) {
	line, err := PromptLine(prompt)
	if err != nil {
		return "", err
	}
	if line == "/" {
		sel, selErr := SelectFileWithFzf(".")
		if selErr == nil && sel != "" {
			fmt.Printf(" [fzf] %s\n", sel)
			return sel, nil
		}
		return PromptLine("Enter path: ")
	}
	return line, nil
}

// LoadImage decodes a PNG or JPEG file into a 3-channel buffer.
func LoadImage(path string) (*pixbuf.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := src.Bounds()
	out := pixbuf.New(b.Dx(), b.Dy(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := out.Offset(x, y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
		}
	}
	return out, nil
}

// LoadMask decodes a PNG or JPEG file into a single-channel mask,
// converting color input to luma.
func LoadMask(path string) (*pixbuf.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return pixbuf.FromGray(gray), nil
}

// SaveImage encodes a buffer to disk, choosing the format from the
// file extension (.png default, .jpg/.jpeg as JPEG quality 95).
// Single-channel buffers are written as grayscale.
func SaveImage(path string, im *pixbuf.Image) error {
	if err := im.Validate(); err != nil {
		return err
	}
	var encodable image.Image
	if im.IsMask() {
		g, err := pixbuf.ToGray(im)
		if err != nil {
			return err
		}
		encodable = g
	} else {
		n, err := pixbuf.ToNRGBA(im)
		if err != nil {
			return err
		}
		encodable = n
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, encodable, &jpeg.Options{Quality: 95})
	default:
		return png.Encode(f, encodable)
	}
}
