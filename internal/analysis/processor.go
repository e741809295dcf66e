// SPDX-License-Identifier: MIT
/*
Package analysis implements the offline beat-detection engine:

	Signal -> OnsetExtractor -> OnsetEnvelope -> TempoEstimator -> BPM
	                                   \______________________________\
	                                                   BeatTracker -> raw beats -> FilterBeats

Every stage is pure and synchronous. Stages never mutate their inputs and
have no filesystem awareness, so a single Analyzer can be shared by
concurrent batch workers.
*/
package analysis

import "github.com/Brian099/music-rhythm-test/internal/audio"

// OnsetDetector converts PCM samples into an onset strength envelope.
type OnsetDetector interface {
	Extract(sig audio.Signal) OnsetEnvelope
}

// TempoDetector derives a single global tempo from an onset envelope. It
// returns 0 when no tempo can be detected.
type TempoDetector interface {
	Estimate(env OnsetEnvelope) float64
}

// BeatPlacer picks beat instants (seconds) consistent with a tempo.
type BeatPlacer interface {
	Track(env OnsetEnvelope, bpm float64) []float64
}

// Compile-time checks for interface implementations.
var _ OnsetDetector = (*OnsetExtractor)(nil)
var _ TempoDetector = (*TempoEstimator)(nil)
var _ BeatPlacer = (*BeatTracker)(nil)
