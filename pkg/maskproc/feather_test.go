package maskproc

import (
	"testing"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

func TestFeatherRampAcrossBoundary(t *testing.T) {
	p := New(nil)
	// left half foreground
	w, h := 32, 8
	m := pixbuf.New(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < 16; x++ {
			m.Pix[y*w+x] = 255
		}
	}

	out, err := p.Feather(m, 4, 4)
	if err != nil {
		t.Fatalf("feather failed: %v", err)
	}

	y := 4
	// deep foreground is fully opaque
	if out.Pix[y*w+0] != 255 {
		t.Fatalf("deep foreground = %d, want 255", out.Pix[y*w+0])
	}
	// deep background is fully transparent
	if out.Pix[y*w+31] != 0 {
		t.Fatalf("deep background = %d, want 0", out.Pix[y*w+31])
	}
	// inside the shape alpha ramps down toward the boundary over the
	// inner feather width
	for x := 12; x < 15; x++ {
		if out.Pix[y*w+x] <= out.Pix[y*w+x+1] {
			t.Fatalf("inner ramp not decreasing at x=%d: %d <= %d",
				x, out.Pix[y*w+x], out.Pix[y*w+x+1])
		}
	}
	// outside the shape alpha ramps down away from the boundary over
	// the outer feather width
	for x := 16; x < 19; x++ {
		if out.Pix[y*w+x] <= out.Pix[y*w+x+1] {
			t.Fatalf("outer ramp not decreasing at x=%d: %d <= %d",
				x, out.Pix[y*w+x], out.Pix[y*w+x+1])
		}
	}
	// pixels near the boundary hold intermediate alpha on both sides
	in := out.Pix[y*w+14]
	if in == 0 || in == 255 {
		t.Fatalf("inner ramp pixel = %d, expected intermediate", in)
	}
	bg := out.Pix[y*w+17]
	if bg == 0 || bg == 255 {
		t.Fatalf("outer ramp pixel = %d, expected intermediate", bg)
	}
}

func TestFeatherRange(t *testing.T) {
	p := New(nil)
	m := makeSquareMask(24, 24, 10)
	out, err := p.Feather(m, 3, 5)
	if err != nil {
		t.Fatalf("feather failed: %v", err)
	}
	if out.Width != 24 || out.Height != 24 || out.Channels != 1 {
		t.Fatalf("unexpected geometry %dx%dx%d", out.Width, out.Height, out.Channels)
	}
	// input untouched
	if m.Pix[12*24+12] != 255 {
		t.Fatal("input mask was modified")
	}
}

func TestFeatherValidation(t *testing.T) {
	p := New(nil)
	m := makeSquareMask(8, 8, 4)
	if _, err := p.Feather(m, 0, 4); err == nil {
		t.Fatal("zero inner feather accepted")
	}
	if _, err := p.Feather(m, 4, 0); err == nil {
		t.Fatal("zero outer feather accepted")
	}
	if _, err := p.Feather(pixbuf.New(8, 8, 3), 2, 2); err == nil {
		t.Fatal("3-channel mask accepted")
	}
}
