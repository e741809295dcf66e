// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/Brian099/music-rhythm-test/internal/audio"
	"github.com/Brian099/music-rhythm-test/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// onsetEpsilon is the peak flux below which input counts as silent.
const onsetEpsilon = 1e-10

// onsetRelativeFloor is the peak flux, as a fraction of the loudest frame's
// summed magnitude, below which input counts as free of onsets. Steady
// tones only produce window leakage far below it.
const onsetRelativeFloor = 1e-2

// OnsetEnvelope is a series of non-negative onset strengths, one per hop.
// Strength[i] is located at Offset + i*Hop seconds.
type OnsetEnvelope struct {
	Strength []float64
	Hop      float64 // Seconds between consecutive values, > 0.
	Offset   float64 // Time of Strength[0] in seconds.
}

// Time returns the timestamp in seconds of envelope index i.
func (e OnsetEnvelope) Time(i int) float64 {
	return e.Offset + float64(i)*e.Hop
}

// Len returns the number of envelope values.
func (e OnsetEnvelope) Len() int {
	return len(e.Strength)
}

// OnsetOptions configures the spectral flux extractor.
type OnsetOptions struct {
	FrameSeconds float64    // Analysis window length, rounded up to a power of two in samples.
	HopSeconds   float64    // Distance between frame starts.
	Window       WindowFunc // Window applied to each frame.
	LogCompress  bool       // Apply log1p(gamma*|X|) before differencing.
	LogGamma     float64    // Compression strength when LogCompress is set.
}

// DefaultOnsetOptions returns ~46ms Hann frames every 10ms.
func DefaultOnsetOptions() OnsetOptions {
	return OnsetOptions{
		FrameSeconds: 0.046,
		HopSeconds:   0.01,
		Window:       Hann,
		LogCompress:  false,
		LogGamma:     100,
	}
}

// OnsetExtractor computes a half-wave rectified spectral flux envelope.
type OnsetExtractor struct {
	opts OnsetOptions
}

// NewOnsetExtractor validates opts and returns an extractor.
func NewOnsetExtractor(opts OnsetOptions) (*OnsetExtractor, error) {
	if opts.HopSeconds <= 0 {
		return nil, fmt.Errorf("onset hop must be positive, got %g", opts.HopSeconds)
	}
	if opts.FrameSeconds <= 0 {
		return nil, fmt.Errorf("onset frame length must be positive, got %g", opts.FrameSeconds)
	}
	if opts.LogCompress && opts.LogGamma <= 0 {
		return nil, fmt.Errorf("log compression gamma must be positive, got %g", opts.LogGamma)
	}
	return &OnsetExtractor{opts: opts}, nil
}

// frameGeometry returns the FFT size and hop in samples for sampleRate.
func (e *OnsetExtractor) frameGeometry(sampleRate int) (frameSize, hop int) {
	hop = int(math.Round(e.opts.HopSeconds * float64(sampleRate)))
	if hop < 1 {
		hop = 1
	}
	return bitint.PowerOfTwoFor(e.opts.FrameSeconds, sampleRate, 2), hop
}

// Extract returns one flux value per pair of consecutive frames. Signals
// shorter than two frames give an empty envelope; near-silent signals and
// steady tones without onsets give an all-zero one. The envelope is
// peak-normalised, so scaling the input amplitude does not change it.
func (e *OnsetExtractor) Extract(sig audio.Signal) OnsetEnvelope {
	if sig.SampleRate <= 0 {
		return OnsetEnvelope{Hop: e.opts.HopSeconds}
	}
	sr := float64(sig.SampleRate)
	frameSize, hop := e.frameGeometry(sig.SampleRate)
	env := OnsetEnvelope{
		Hop:    float64(hop) / sr,
		Offset: float64(hop+frameSize/2) / sr,
	}
	if len(sig.Samples) < frameSize {
		return env
	}
	frames := 1 + (len(sig.Samples)-frameSize)/hop
	if frames < 2 {
		return env
	}

	fft := fourier.NewFFT(frameSize)
	win := windowCoefficients(frameSize, e.opts.Window)
	input := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)
	prev := make([]float64, len(coeffs))
	cur := make([]float64, len(coeffs))
	strength := make([]float64, frames-1)
	var loudest float64

	for f := range frames {
		frame := sig.Samples[f*hop : f*hop+frameSize]
		for i, s := range frame {
			input[i] = s * win[i]
		}
		fft.Coefficients(coeffs, input)
		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			if e.opts.LogCompress {
				mag = math.Log1p(e.opts.LogGamma * mag)
			}
			cur[k] = mag
		}
		loudest = math.Max(loudest, floats.Sum(cur))
		if f > 0 {
			var flux float64
			for k := range cur {
				if d := cur[k] - prev[k]; d > 0 {
					flux += d
				}
			}
			strength[f-1] = flux
		}
		prev, cur = cur, prev
	}

	peak := floats.Max(strength)
	if peak < onsetEpsilon || peak < onsetRelativeFloor*loudest {
		for i := range strength {
			strength[i] = 0
		}
	} else {
		floats.Scale(1/peak, strength)
	}
	env.Strength = strength
	return env
}
