// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// tempoEpsilon is the envelope energy (after mean removal) below which
// there is no periodicity to measure.
const tempoEpsilon = 1e-12

// TempoOptions bounds the tempo search and shapes the tempo prior.
type TempoOptions struct {
	MinBPM       float64 // Slowest tempo considered.
	MaxBPM       float64 // Fastest tempo considered.
	PriorBPM     float64 // Centre of the log-normal tempo prior.
	PriorOctaves float64 // Prior standard deviation in octaves.
	TieTolerance float64 // Relative strength within which lags count as tied.
}

// DefaultTempoOptions searches 30-300 BPM with a prior peaking at 120 BPM.
func DefaultTempoOptions() TempoOptions {
	return TempoOptions{
		MinBPM:       30,
		MaxBPM:       300,
		PriorBPM:     120,
		PriorOctaves: 1.0,
		TieTolerance: 0.01,
	}
}

// TempoEstimator picks the global tempo from the autocorrelation of the
// onset envelope, weighted by a tempo prior to suppress octave errors.
type TempoEstimator struct {
	opts TempoOptions
}

// NewTempoEstimator validates opts and returns an estimator.
func NewTempoEstimator(opts TempoOptions) (*TempoEstimator, error) {
	if opts.MinBPM <= 0 || opts.MaxBPM <= opts.MinBPM {
		return nil, fmt.Errorf("invalid tempo range [%g, %g]", opts.MinBPM, opts.MaxBPM)
	}
	if opts.PriorBPM <= 0 {
		return nil, fmt.Errorf("tempo prior must be positive, got %g", opts.PriorBPM)
	}
	if opts.PriorOctaves <= 0 {
		return nil, fmt.Errorf("tempo prior width must be positive, got %g", opts.PriorOctaves)
	}
	if opts.TieTolerance < 0 || opts.TieTolerance >= 1 {
		return nil, fmt.Errorf("tie tolerance must be in [0, 1), got %g", opts.TieTolerance)
	}
	return &TempoEstimator{opts: opts}, nil
}

// prior weights a candidate tempo by its log2 distance from the prior centre.
func (t *TempoEstimator) prior(bpm float64) float64 {
	z := math.Log2(bpm/t.opts.PriorBPM) / t.opts.PriorOctaves
	return math.Exp(-0.5 * z * z)
}

// Estimate returns the tempo in BPM, or 0 when the envelope is empty,
// silent or carries no periodicity.
func (t *TempoEstimator) Estimate(env OnsetEnvelope) float64 {
	n := len(env.Strength)
	if n < 2 || env.Hop <= 0 {
		return 0
	}

	mean := stat.Mean(env.Strength, nil)
	centered := make([]float64, n)
	for i, v := range env.Strength {
		centered[i] = v - mean
	}
	if floats.Dot(centered, centered) <= tempoEpsilon {
		return 0
	}

	minLag := int(math.Ceil(60 / (t.opts.MaxBPM * env.Hop)))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(math.Floor(60 / (t.opts.MinBPM * env.Hop)))
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if minLag > maxLag {
		return 0
	}

	// One extra lag on each side feeds the parabolic refinement.
	ac := make([]float64, maxLag+2)
	for lag := max(1, minLag-1); lag <= min(maxLag+1, n-1); lag++ {
		ac[lag] = floats.Dot(centered[:n-lag], centered[lag:])
	}

	weighted := make([]float64, maxLag+1)
	best := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		weighted[lag] = ac[lag] * t.prior(lagToBPM(float64(lag), env.Hop))
		if weighted[lag] > best {
			best = weighted[lag]
		}
	}
	if best <= 0 {
		return 0
	}

	// Near-ties go to the lag closest to the prior centre.
	chosen := -1
	closest := math.Inf(1)
	floor := best - t.opts.TieTolerance*best
	for lag := minLag; lag <= maxLag; lag++ {
		if weighted[lag] < floor {
			continue
		}
		dist := math.Abs(math.Log2(lagToBPM(float64(lag), env.Hop) / t.opts.PriorBPM))
		if dist < closest {
			closest = dist
			chosen = lag
		}
	}

	lag := float64(chosen)
	if chosen-1 >= 1 && chosen+1 <= n-1 {
		a, b, c := ac[chosen-1], ac[chosen], ac[chosen+1]
		if denom := a - 2*b + c; denom < 0 {
			delta := 0.5 * (a - c) / denom
			lag += math.Max(-0.5, math.Min(0.5, delta))
		}
	}
	return lagToBPM(lag, env.Hop)
}

// lagToBPM converts an autocorrelation lag in envelope frames to BPM.
func lagToBPM(lag, hop float64) float64 {
	return 60 / (lag * hop)
}
