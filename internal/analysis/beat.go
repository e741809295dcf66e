// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BeatOptions configures the dynamic-programming beat tracker.
type BeatOptions struct {
	Tightness    float64 // Weight of the squared log deviation from the beat period.
	StartPenalty float64 // Cost of starting the chain late within the first period.
	Trim         bool    // Drop weak beats at either end of the sequence.
}

// DefaultBeatOptions mirrors the usual tightness of 100.
func DefaultBeatOptions() BeatOptions {
	return BeatOptions{
		Tightness:    100,
		StartPenalty: 0.5,
		Trim:         true,
	}
}

// BeatTracker places beats by maximising the sum of onset strengths at the
// chosen instants minus a penalty for inter-beat intervals that stray from
// the tempo period.
type BeatTracker struct {
	opts BeatOptions
}

// NewBeatTracker validates opts and returns a tracker.
func NewBeatTracker(opts BeatOptions) (*BeatTracker, error) {
	if opts.Tightness <= 0 {
		return nil, fmt.Errorf("beat tightness must be positive, got %g", opts.Tightness)
	}
	if opts.StartPenalty < 0 {
		return nil, fmt.Errorf("beat start penalty must not be negative, got %g", opts.StartPenalty)
	}
	return &BeatTracker{opts: opts}, nil
}

// Track returns beat times in seconds, strictly increasing. It returns nil
// when bpm is not positive or the envelope carries no onsets.
func (b *BeatTracker) Track(env OnsetEnvelope, bpm float64) []float64 {
	n := len(env.Strength)
	if n == 0 || env.Hop <= 0 || !(bpm > 0) || math.IsInf(bpm, 1) {
		return nil
	}
	period := 60 / (bpm * env.Hop)

	local := localScore(env.Strength, period)
	if local == nil {
		return nil
	}

	// Predecessors are searched in [i-2p, i-p/2] only.
	minGap := max(1, int(math.Round(period/2)))
	maxGap := max(minGap, int(math.Round(2*period)))
	penalty := make([]float64, maxGap+1)
	for d := minGap; d <= maxGap; d++ {
		r := math.Log(float64(d) / period)
		penalty[d] = b.opts.Tightness * r * r
	}
	startWindow := max(1, int(math.Ceil(period)))

	score := make([]float64, n)
	back := make([]int, n)
	for i := range n {
		best := math.Inf(-1)
		bestJ := -1
		for j := max(0, i-maxGap); j <= i-minGap; j++ {
			if v := score[j] - penalty[i-j]; v > best {
				best = v
				bestJ = j
			}
		}
		if i < startWindow {
			if start := -b.opts.StartPenalty * float64(i) / period; bestJ < 0 || start >= best {
				best = start
				bestJ = -1
			}
		}
		if math.IsInf(best, -1) {
			best = 0
		}
		score[i] = local[i] + best
		back[i] = bestJ
	}

	var idx []int
	for i := floats.MaxIdx(score); i >= 0; i = back[i] {
		idx = append(idx, i)
	}
	slices.Reverse(idx)

	if b.opts.Trim {
		idx = trimWeakBeats(idx, local)
	}

	beats := make([]float64, len(idx))
	for k, i := range idx {
		beats[k] = env.Time(i)
	}
	return beats
}

// localScore smooths the envelope with a Gaussian of width period/32 and
// scales it to unit standard deviation. Returns nil for a flat envelope.
func localScore(strength []float64, period float64) []float64 {
	sigma := period / 32
	half := int(math.Ceil(4 * sigma))
	kernel := make([]float64, 2*half+1)
	for k := -half; k <= half; k++ {
		if sigma > 0 {
			z := float64(k) / sigma
			kernel[k+half] = math.Exp(-0.5 * z * z)
		}
	}
	if half == 0 {
		kernel[0] = 1
	}

	n := len(strength)
	local := make([]float64, n)
	for i := range n {
		var acc float64
		for k := -half; k <= half; k++ {
			if j := i + k; j >= 0 && j < n {
				acc += strength[j] * kernel[k+half]
			}
		}
		local[i] = acc
	}

	_, std := stat.PopMeanStdDev(local, nil)
	if std < onsetEpsilon || math.IsNaN(std) {
		return nil
	}
	floats.Scale(1/std, local)
	return local
}

// trimWeakBeats drops leading and trailing beats whose local score is
// below half the RMS of the local score.
func trimWeakBeats(idx []int, local []float64) []int {
	if len(idx) == 0 {
		return idx
	}
	threshold := 0.5 * math.Sqrt(floats.Dot(local, local)/float64(len(local)))
	lo, hi := 0, len(idx)
	for lo < hi && local[idx[lo]] < threshold {
		lo++
	}
	for hi > lo && local[idx[hi-1]] < threshold {
		hi--
	}
	return idx[lo:hi]
}
