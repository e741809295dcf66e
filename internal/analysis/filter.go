// SPDX-License-Identifier: MIT
package analysis

// beatTolerance absorbs binary floating point error when comparing gaps,
// so 0.3-0.2 still counts as a 0.1s gap.
const beatTolerance = 1e-9

// FilterBeats enforces a minimum gap between consecutive beats. The output
// always starts with a synthetic beat at 0.0, whether or not raw contains
// one; downstream players rely on that anchor. A beat is kept only if it
// lies at least minBeatDuration after the last kept beat, compared with a
// 1e-9s tolerance: a kept gap may fall short of minBeatDuration by at most
// that much. Callers must pass minBeatDuration > 0.
func FilterBeats(raw []float64, minBeatDuration float64) []float64 {
	out := make([]float64, 1, len(raw)+1)
	last := 0.0
	for _, t := range raw {
		if t > last && t-last >= minBeatDuration-beatTolerance {
			out = append(out, t)
			last = t
		}
	}
	return out
}
