// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{1, 1},       // One
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{1000, 1024}, // Large number
		{2046, 2048}, // 46ms at 44.1kHz
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{8, true},       // Power of two
		{10, false},     // Not power of two
		{1 << 20, true}, // Large power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			result := IsPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func TestPowerOfTwoFor(t *testing.T) {
	tests := []struct {
		seconds    float64
		sampleRate int
		minSize    int
		expected   int
	}{
		{0.046, 44100, 2, 2048},
		{0.046, 22050, 2, 1024},
		{0.0, 22050, 64, 64},
		{0.001, 8000, 16, 16},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%gs@%d", tt.seconds, tt.sampleRate), func(t *testing.T) {
			got := PowerOfTwoFor(tt.seconds, tt.sampleRate, tt.minSize)
			if got != tt.expected {
				t.Errorf("PowerOfTwoFor(%g, %d, %d) = %d, expected %d", tt.seconds, tt.sampleRate, tt.minSize, got, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}
