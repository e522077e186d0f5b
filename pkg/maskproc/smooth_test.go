package maskproc

import (
	"bytes"
	"testing"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

func TestSmoothEdgesNoOpCases(t *testing.T) {
	p := New(nil)
	m := makeSquareMask(16, 16, 6)

	out, err := p.SmoothEdges(m, 0, 2)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	if !bytes.Equal(out.Pix, m.Pix) {
		t.Fatal("sigma 0 changed the mask")
	}

	out, err = p.SmoothEdges(m, 2.0, 0)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	if !bytes.Equal(out.Pix, m.Pix) {
		t.Fatal("zero feather radius changed the mask")
	}
	// and the no-op is still a copy
	out.Pix[0] = 9
	if m.Pix[0] == 9 {
		t.Fatal("no-op output shares memory with input")
	}
}

func TestSmoothEdgesSoftensBoundary(t *testing.T) {
	p := New(nil)
	m := makeSquareMask(24, 24, 10)
	out, err := p.SmoothEdges(m, 2.0, 2)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	// a pixel just outside the hard boundary picks up intermediate mass
	x0 := (24 - 10) / 2
	v := out.Pix[x0*24+(x0-1)]
	if v == 0 || v == 255 {
		t.Fatalf("boundary pixel = %d, expected an intermediate value", v)
	}
	// deep interior stays fully selected
	if out.Pix[12*24+12] != 255 {
		t.Fatalf("interior pixel = %d, want 255", out.Pix[12*24+12])
	}
}

func TestSmoothEdgesLargeFeatherBlendsDistance(t *testing.T) {
	p := New(nil)
	m := makeSquareMask(32, 32, 12)
	out, err := p.SmoothEdges(m, 2.0, 5)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	if out.Width != 32 || out.Height != 32 || out.Channels != 1 {
		t.Fatalf("unexpected geometry %dx%dx%d", out.Width, out.Height, out.Channels)
	}
	// far outside the square both terms are zero
	if out.Pix[0] != 0 {
		t.Fatalf("far corner = %d, want 0", out.Pix[0])
	}
	// deep interior keeps nearly full mass
	if out.Pix[16*32+16] < 200 {
		t.Fatalf("center = %d, want close to 255", out.Pix[16*32+16])
	}
	// just inside the boundary the distance ramp pulls the value down
	x0 := (32 - 12) / 2
	edge := out.Pix[16*32+x0]
	if edge == 0 || edge > 200 {
		t.Fatalf("inner boundary pixel = %d, expected an intermediate value", edge)
	}
}

func TestSmoothEdgesValidation(t *testing.T) {
	p := New(nil)
	if _, err := p.SmoothEdges(makeSquareMask(8, 8, 4), 1.0, -1); err == nil {
		t.Fatal("negative feather radius accepted")
	}
	if _, err := p.SmoothEdges(pixbuf.New(8, 8, 3), 1.0, 2); err == nil {
		t.Fatal("3-channel mask accepted")
	}
}
