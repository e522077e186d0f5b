package compose

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

func makeSolidRGB(w, h int, r, g, b byte) *pixbuf.Image {
	im := pixbuf.New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := im.Offset(x, y)
			im.Pix[i+0] = r
			im.Pix[i+1] = g
			im.Pix[i+2] = b
		}
	}
	return im
}

func makeSolidMask(w, h int, v byte) *pixbuf.Image {
	m := pixbuf.New(w, h, 1)
	for i := range m.Pix {
		m.Pix[i] = v
	}
	return m
}

func TestBlendLayersMaskExtremes(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(16, 16, 100, 100, 100)
	overlay := makeSolidRGB(16, 16, 200, 200, 200)

	// zero mask: base comes through untouched
	out, err := e.BlendLayers(base, overlay, makeSolidMask(16, 16, 0), 1.0)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, base.Pix) {
		t.Fatal("zero mask did not return the base")
	}

	// full mask on uniform layers: no edges, so no damping, overlay wins
	out, err = e.BlendLayers(base, overlay, makeSolidMask(16, 16, 255), 1.0)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, overlay.Pix) {
		t.Fatal("full mask did not return the overlay")
	}
}

func TestBlendLayersStrengthScales(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(8, 8, 0, 0, 0)
	overlay := makeSolidRGB(8, 8, 200, 200, 200)
	mask := makeSolidMask(8, 8, 255)

	half, err := e.BlendLayers(base, overlay, mask, 0.5)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if half.Pix[0] != 100 {
		t.Fatalf("half strength pixel = %d, want 100", half.Pix[0])
	}

	// strength above 1 clamps to 1
	full, err := e.BlendLayers(base, overlay, mask, 5.0)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if full.Pix[0] != 200 {
		t.Fatalf("clamped strength pixel = %d, want 200", full.Pix[0])
	}
}

func TestBlendLayersDampsAtEdges(t *testing.T) {
	e := New(nil)
	// base with a strong vertical edge down the middle
	base := pixbuf.New(16, 16, 3)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			i := base.Offset(x, y)
			base.Pix[i+0] = 255
			base.Pix[i+1] = 255
			base.Pix[i+2] = 255
		}
	}
	overlay := makeSolidRGB(16, 16, 200, 0, 0)
	mask := makeSolidMask(16, 16, 255)

	out, err := e.BlendLayers(base, overlay, mask, 1.0)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	// away from the edge the overlay wins outright
	far := out.Offset(1, 8)
	if out.Pix[far] != 200 {
		t.Fatalf("far pixel = %d, want 200", out.Pix[far])
	}
	// at the edge the damped weight lets some base through: the blended
	// red channel lands between the two layers
	at := out.Offset(8, 8)
	if out.Pix[at+1] == 0 {
		t.Fatal("edge pixel ignored the base entirely")
	}
}

func TestBlendLayersValidation(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(8, 8, 1, 2, 3)
	if _, err := e.BlendLayers(base, makeSolidRGB(4, 4, 0, 0, 0), makeSolidMask(8, 8, 255), 1); err == nil {
		t.Fatal("mismatched overlay accepted")
	}
	if _, err := e.BlendLayers(base, makeSolidRGB(8, 8, 0, 0, 0), makeSolidMask(4, 4, 255), 1); err == nil {
		t.Fatal("mismatched mask accepted")
	}
	if _, err := e.BlendLayers(base, makeSolidRGB(8, 8, 0, 0, 0), makeSolidRGB(8, 8, 0, 0, 0), 1); err == nil {
		t.Fatal("3-channel mask accepted")
	}
	if _, err := e.BlendLayers(pixbuf.New(8, 8, 1), makeSolidRGB(8, 8, 0, 0, 0), makeSolidMask(8, 8, 0), 1); err == nil {
		t.Fatal("1-channel base accepted")
	}
}

func TestColorBlendRGBMatchesLinear(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(8, 8, 40, 80, 120)
	overlay := makeSolidRGB(8, 8, 200, 160, 40)
	mask := makeSolidMask(8, 8, 255)

	out, err := e.ColorBlend(base, overlay, mask, SpaceRGB)
	if err != nil {
		t.Fatalf("color blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, overlay.Pix) {
		t.Fatal("full mask in RGB space did not return the overlay")
	}
}

func TestColorBlendSpacesHoldExtremes(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(8, 8, 30, 60, 90)
	overlay := makeSolidRGB(8, 8, 210, 180, 20)

	for _, space := range []ColorSpace{SpaceHSV, SpaceLAB} {
		// zero mask keeps base, up to conversion rounding
		out, err := e.ColorBlend(base, overlay, makeSolidMask(8, 8, 0), space)
		if err != nil {
			t.Fatalf("%s blend failed: %v", space, err)
		}
		for c := 0; c < 3; c++ {
			diff := int(out.Pix[c]) - int(base.Pix[c])
			if diff < -3 || diff > 3 {
				t.Fatalf("%s zero mask channel %d drifted: %d vs %d", space, c, out.Pix[c], base.Pix[c])
			}
		}
		// full mask lands on the overlay, up to conversion rounding
		out, err = e.ColorBlend(base, overlay, makeSolidMask(8, 8, 255), space)
		if err != nil {
			t.Fatalf("%s blend failed: %v", space, err)
		}
		for c := 0; c < 3; c++ {
			diff := int(out.Pix[c]) - int(overlay.Pix[c])
			if diff < -3 || diff > 3 {
				t.Fatalf("%s full mask channel %d drifted: %d vs %d", space, c, out.Pix[c], overlay.Pix[c])
			}
		}
	}
}

func TestGradientCompositeUniformReturnsBase(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(8, 8, 10, 20, 30)
	overlay := makeSolidRGB(8, 8, 200, 100, 50)

	// uniform layers have no gradients anywhere, so the weight field is
	// zero and the base survives even under a full mask
	out, err := e.GradientComposite(base, overlay, makeSolidMask(8, 8, 255))
	if err != nil {
		t.Fatalf("gradient composite failed: %v", err)
	}
	if !bytes.Equal(out.Pix, base.Pix) {
		t.Fatal("uniform gradient composite did not return the base")
	}
}

func TestGradientCompositePullsOverlayAtEdges(t *testing.T) {
	e := New(nil)
	base := makeSolidRGB(16, 16, 0, 0, 0)
	// overlay with a hard vertical edge
	overlay := pixbuf.New(16, 16, 3)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			i := overlay.Offset(x, y)
			overlay.Pix[i+0] = 255
		}
	}

	out, err := e.GradientComposite(base, overlay, makeSolidMask(16, 16, 255))
	if err != nil {
		t.Fatalf("gradient composite failed: %v", err)
	}
	// at the overlay's edge the blended gradient is strong, so overlay
	// content shows through
	edge := out.Offset(8, 8)
	if out.Pix[edge] == 0 {
		t.Fatal("edge pixel took nothing from the overlay")
	}
	// far from any edge the weight is minimal and the base survives
	far := out.Offset(1, 1)
	if out.Pix[far] != 0 {
		t.Fatalf("far pixel = %d, want 0", out.Pix[far])
	}
}

func TestCompositingLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	e := New(logger)

	base := makeSolidRGB(8, 8, 10, 20, 30)
	overlay := makeSolidRGB(8, 8, 200, 200, 200)
	mask := makeSolidMask(8, 8, 128)

	if _, err := e.BlendLayers(base, overlay, mask, 1.0); err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("layer blend completion was not logged")
	}

	buf.Reset()
	if _, err := e.ColorBlend(base, overlay, mask, SpaceLAB); err != nil {
		t.Fatalf("color blend failed: %v", err)
	}
	if !strings.Contains(buf.String(), "LAB") {
		t.Fatalf("color blend log missing the space:\n%s", buf.String())
	}

	buf.Reset()
	if _, err := e.GradientComposite(base, overlay, mask); err != nil {
		t.Fatalf("gradient composite failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("gradient composite completion was not logged")
	}
}
