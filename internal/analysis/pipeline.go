// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"

	"github.com/Brian099/music-rhythm-test/internal/audio"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
)

// ErrInvalidSpacing is returned when the minimum beat gap is not positive.
var ErrInvalidSpacing = errors.New("min beat duration must be positive")

// Options bundles the settings of every pipeline stage.
type Options struct {
	Onset OnsetOptions
	Tempo TempoOptions
	Beat  BeatOptions
}

// DefaultOptions returns the default settings of every stage.
func DefaultOptions() Options {
	return Options{
		Onset: DefaultOnsetOptions(),
		Tempo: DefaultTempoOptions(),
		Beat:  DefaultBeatOptions(),
	}
}

// Result is the outcome of one analysis run.
type Result struct {
	BPM      float64   // Global tempo, 0 when undetected.
	Beats    []float64 // Filtered beats, empty when undetected.
	RawBeats []float64 // Tracker output before filtering.
	Frames   int       // Onset envelope length.
	Duration float64   // Signal length in seconds.
}

// Degenerate reports whether no beats were detected.
func (r Result) Degenerate() bool {
	return len(r.Beats) == 0
}

// Analyzer chains onset extraction, tempo estimation, beat placement and
// filtering. It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	onset OnsetDetector
	tempo TempoDetector
	beats BeatPlacer
}

// NewAnalyzer builds the default stage implementations from opts.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	onset, err := NewOnsetExtractor(opts.Onset)
	if err != nil {
		return nil, err
	}
	tempo, err := NewTempoEstimator(opts.Tempo)
	if err != nil {
		return nil, err
	}
	tracker, err := NewBeatTracker(opts.Beat)
	if err != nil {
		return nil, err
	}
	applog.Debugf("Analysis: Initializing Analyzer (Frame: %.3fs, Hop: %.3fs, Window: %v, Tempo: %g-%g BPM, Tightness: %g)",
		opts.Onset.FrameSeconds, opts.Onset.HopSeconds, opts.Onset.Window,
		opts.Tempo.MinBPM, opts.Tempo.MaxBPM, opts.Beat.Tightness)
	return NewAnalyzerWith(onset, tempo, tracker), nil
}

// NewAnalyzerWith assembles an Analyzer from custom stage implementations.
func NewAnalyzerWith(onset OnsetDetector, tempo TempoDetector, beats BeatPlacer) *Analyzer {
	return &Analyzer{onset: onset, tempo: tempo, beats: beats}
}

// Analyze runs the full pipeline on sig.
func (a *Analyzer) Analyze(sig audio.Signal, minBeatDuration float64) (Result, error) {
	if !(minBeatDuration > 0) {
		return Result{}, fmt.Errorf("%w, got %g", ErrInvalidSpacing, minBeatDuration)
	}
	res, err := a.AnalyzeEnvelope(a.onset.Extract(sig), minBeatDuration)
	res.Duration = sig.Duration()
	return res, err
}

// AnalyzeEnvelope runs tempo estimation, beat placement and filtering on a
// precomputed onset envelope. An undetected tempo or an empty raw beat
// sequence yields a degenerate Result; that is not an error.
func (a *Analyzer) AnalyzeEnvelope(env OnsetEnvelope, minBeatDuration float64) (Result, error) {
	if !(minBeatDuration > 0) {
		return Result{}, fmt.Errorf("%w, got %g", ErrInvalidSpacing, minBeatDuration)
	}
	res := Result{Frames: env.Len()}

	bpm := a.tempo.Estimate(env)
	if bpm <= 0 {
		applog.Debugf("Analysis: No tempo detected (%d onset frames)", env.Len())
		return res, nil
	}

	raw := a.beats.Track(env, bpm)
	if len(raw) == 0 {
		applog.Debugf("Analysis: Tempo %.2f BPM but no beats placed", bpm)
		return res, nil
	}

	res.BPM = bpm
	res.RawBeats = raw
	res.Beats = FilterBeats(raw, minBeatDuration)
	return res, nil
}
