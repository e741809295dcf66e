// SPDX-License-Identifier: MIT
//
// Package bitint holds the small power-of-two helpers used to size FFT
// frames. Frame lengths are configured in seconds and rounded up to the
// next power of two so every sample rate gets a radix-2 friendly FFT.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Values <= 0
// map to 1. Subtracting one first keeps exact powers of two unchanged
// (8 -> bits.Len(7) = 3 -> 1<<3 = 8).
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of
// two has exactly one bit set, so clearing the lowest set bit leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PowerOfTwoFor returns the FFT length covering seconds of audio at
// sampleRate, never smaller than minSize.
func PowerOfTwoFor(seconds float64, sampleRate, minSize int) int {
	n := int(seconds*float64(sampleRate) + 0.5)
	if n < minSize {
		n = minSize
	}
	return NextPowerOfTwo(n)
}
