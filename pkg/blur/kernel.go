package blur

import "math"

// KernelSizeForSigma derives the convolution kernel size from sigma as
// k = 2*ceil(3*sigma)+1, forced odd. The round-up and odd-forcing must
// not change: downstream output depends on it bit-for-bit.
func KernelSizeForSigma(sigma float64) int {
	k := int(2*math.Ceil(3*sigma) + 1)
	if k%2 == 0 {
		k++
	}
	if k < 1 {
		k = 1
	}
	return k
}

// gaussianKernel1D generates a normalized 1D Gaussian kernel with the
// given sigma. Returns the kernel and its half-width radius.
func gaussianKernel1D(sigma float64) ([]float64, int) {
	if sigma <= 0 {
		return []float64{1.0}, 0
	}
	radius := int(math.Ceil(3 * sigma))
	sz := radius*2 + 1
	kern := make([]float64, sz)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * (float64(i) * float64(i)) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern, radius
}
