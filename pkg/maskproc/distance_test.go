package maskproc

import (
	"math"
	"testing"
)

func TestEuclideanDistanceSinglePoint(t *testing.T) {
	// everything inside except one background pixel at (0,0)
	w, h := 5, 5
	inside := make([]bool, w*h)
	for i := range inside {
		inside[i] = true
	}
	inside[0] = false

	d := euclideanDistance(inside, w, h)
	if d[0] != 0 {
		t.Fatalf("background pixel distance = %v, want 0", d[0])
	}
	cases := []struct {
		x, y int
		want float64
	}{
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, math.Sqrt2},
		{3, 4, 5},
	}
	for _, c := range cases {
		got := d[c.y*w+c.x]
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("distance at (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestEuclideanDistanceAllInside(t *testing.T) {
	// no background anywhere: distances are clamped, not infinite
	w, h := 4, 3
	inside := make([]bool, w*h)
	for i := range inside {
		inside[i] = true
	}
	d := euclideanDistance(inside, w, h)
	for i, v := range d {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("distance at %d is %v", i, v)
		}
		if v > float64(w+h) {
			t.Fatalf("distance at %d = %v exceeds clamp", i, v)
		}
	}
}

func TestEuclideanDistanceHalfPlane(t *testing.T) {
	// left half background, right half inside: distance is the column
	// offset from the boundary
	w, h := 8, 4
	inside := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 4; x < w; x++ {
			inside[y*w+x] = true
		}
	}
	d := euclideanDistance(inside, w, h)
	for y := 0; y < h; y++ {
		for x := 4; x < w; x++ {
			want := float64(x - 3)
			if math.Abs(d[y*w+x]-want) > 1e-9 {
				t.Fatalf("distance at (%d,%d) = %v, want %v", x, y, d[y*w+x], want)
			}
		}
	}
}
