//go:build !magick

package blur

// Without the magick build tag there is no accelerated backend; every
// call runs the pure-Go path and AccelAvailable reports false.
func newAccelerator() accelerator { return nil }

const accelCompiled = false
