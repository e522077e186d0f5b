package maskproc

import "math"

// distInf is the "no boundary seen yet" squared distance. Large enough
// to dominate any real squared distance, small enough that the envelope
// arithmetic stays finite.
const distInf = 1e20

// euclideanDistance computes, for every pixel, the exact Euclidean
// distance to the nearest pixel where inside is false. Pixels outside
// the region get 0. Uses the Felzenszwalb-Huttenlocher separable
// squared distance transform (two 1D lower-envelope passes), O(n).
//
// If the region covers the whole buffer there is no boundary to
// measure against; distances are then clamped to width+height.
func euclideanDistance(inside []bool, width, height int) []float64 {
	n := width * height
	f := make([]float64, n)
	for i := 0; i < n; i++ {
		if inside[i] {
			f[i] = distInf
		}
	}

	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	v := make([]int, maxDim)
	z := make([]float64, maxDim+1)
	row := make([]float64, maxDim)

	// horizontal pass
	for y := 0; y < height; y++ {
		copy(row[:width], f[y*width:(y+1)*width])
		distanceTransform1D(row[:width], f[y*width:(y+1)*width], v, z)
	}
	// vertical pass
	col := make([]float64, height)
	colOut := make([]float64, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = f[y*width+x]
		}
		distanceTransform1D(col, colOut, v, z)
		for y := 0; y < height; y++ {
			f[y*width+x] = colOut[y]
		}
	}

	limit := float64(width + height)
	for i := 0; i < n; i++ {
		d := math.Sqrt(f[i])
		if d > limit {
			d = limit
		}
		f[i] = d
	}
	return f
}

// distanceTransform1D computes the 1D squared distance transform of
// input into output using the parabola lower-envelope method. v and z
// are scratch buffers of length >= n and n+1.
func distanceTransform1D(input, output []float64, v []int, z []float64) {
	n := len(input)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		// intersection of the parabola rooted at q with the rightmost
		// parabola of the envelope
		s := intersect(input, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(input, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		d := float64(q - v[k])
		output[q] = d*d + input[v[k]]
	}
}

func intersect(input []float64, q, p int) float64 {
	return ((input[q] + float64(q*q)) - (input[p] + float64(p*p))) /
		(2.0 * float64(q-p))
}
