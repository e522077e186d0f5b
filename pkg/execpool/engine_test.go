package execpool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

func makeGradient(w, h, ch int) *pixbuf.Image {
	im := pixbuf.New(w, h, ch)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := im.Offset(x, y)
			for c := 0; c < ch; c++ {
				im.Pix[i+c] = byte((x + y*3 + c*7) % 256)
			}
		}
	}
	return im
}

func invertTile(pix []byte, width, height, channels, startRow, endRow int) {
	for y := startRow; y < endRow; y++ {
		row := y * width * channels
		for i := row; i < row+width*channels; i++ {
			pix[i] = 255 - pix[i]
		}
	}
}

func TestProcessTiledCoversAllRows(t *testing.T) {
	e := New(Options{Workers: 4})
	defer e.Close()

	img := makeGradient(16, 13, 3)
	out, err := e.ProcessTiled(img, invertTile)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	for i := range img.Pix {
		if out.Pix[i] != 255-img.Pix[i] {
			t.Fatalf("pixel %d not processed: in=%d out=%d", i, img.Pix[i], out.Pix[i])
		}
	}
}

func TestProcessTiledWorkerCountInvariance(t *testing.T) {
	img := makeGradient(32, 17, 3)

	var outputs [][]byte
	for _, workers := range []int{1, 3, 8, 64} {
		e := New(Options{Workers: workers})
		out, err := e.ProcessTiled(img, invertTile)
		e.Close()
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		outputs = append(outputs, out.Pix)
	}
	for i := 1; i < len(outputs); i++ {
		if !bytes.Equal(outputs[0], outputs[i]) {
			t.Fatalf("output differs between worker counts")
		}
	}
}

func TestProcessTiledLeavesInputUntouched(t *testing.T) {
	e := New(Options{Workers: 2})
	defer e.Close()

	img := makeGradient(8, 8, 1)
	orig := append([]byte(nil), img.Pix...)
	if _, err := e.ProcessTiled(img, invertTile); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !bytes.Equal(img.Pix, orig) {
		t.Fatal("input buffer was modified")
	}
}

func TestProcessTiledAfterClose(t *testing.T) {
	e := New(Options{Workers: 2})
	e.Close()
	if _, err := e.ProcessTiled(makeGradient(4, 4, 1), invertTile); err != ErrClosed {
		t.Fatalf("process after close = %v, want ErrClosed", err)
	}
	// close is idempotent
	e.Close()
}

func TestProcessTiledValidation(t *testing.T) {
	e := New(Options{Workers: 2})
	defer e.Close()
	if _, err := e.ProcessTiled(nil, invertTile); err == nil {
		t.Fatal("nil image accepted")
	}
	if _, err := e.ProcessTiled(&pixbuf.Image{}, invertTile); err == nil {
		t.Fatal("empty image accepted")
	}
}

func TestMetricsAccumulate(t *testing.T) {
	e := New(Options{Workers: 2})
	defer e.Close()

	img := makeGradient(8, 8, 3)
	for i := 0; i < 3; i++ {
		if _, err := e.ProcessTiled(img, invertTile); err != nil {
			t.Fatalf("process failed: %v", err)
		}
	}
	e.RecordGPUOps(2)

	m := e.Metrics()
	if m.TotalOperations != 3 {
		t.Fatalf("total operations = %d, want 3", m.TotalOperations)
	}
	if m.MemoryAllocations == 0 {
		t.Fatal("pooled allocations were not counted")
	}
	if m.GPUOperations != 2 {
		t.Fatalf("gpu operations = %d, want 2", m.GPUOperations)
	}

	report := e.Report()
	for _, want := range []string{
		"Performance Report:",
		"Total Operations: 3",
		"GPU Operations: 2",
		"Memory Pool Size:",
		"Memory Allocations:",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestMetricsSnapshotAverage(t *testing.T) {
	var s MetricsSnapshot
	if s.AverageProcessingMs() != 0 {
		t.Fatal("empty snapshot average should be 0")
	}
	s = MetricsSnapshot{TotalOperations: 4, TotalProcessingMs: 10}
	if got := s.AverageProcessingMs(); got != 2.5 {
		t.Fatalf("average = %v, want 2.5", got)
	}
}
