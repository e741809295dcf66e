// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"github.com/Brian099/music-rhythm-test/pkg/utils"
)

func newTestTempoEstimator(t *testing.T) *TempoEstimator {
	t.Helper()
	est, err := NewTempoEstimator(DefaultTempoOptions())
	if err != nil {
		t.Fatalf("NewTempoEstimator() error = %v", err)
	}
	return est
}

func TestTempoEstimatorImpulseTrain(t *testing.T) {
	tests := []struct {
		every int
		bpm   float64
	}{
		{50, 120}, // 0.5s period at 10ms hop
		{60, 100},
		{40, 150},
	}

	est := newTestTempoEstimator(t)
	for _, tt := range tests {
		env := OnsetEnvelope{Strength: utils.ImpulseEnvelope(1000, tt.every), Hop: 0.01}
		got := est.Estimate(env)
		if math.Abs(got-tt.bpm) > 1 {
			t.Errorf("Estimate(impulse every %d) = %.3f BPM, want %.0f±1", tt.every, got, tt.bpm)
		}
	}
}

func TestTempoEstimatorTieBreak(t *testing.T) {
	// Impulses every 40 frames give nearly equal strength at lags 40 and 80.
	// A flat prior leaves the tie to the tolerance and the prior centre.
	tests := []struct {
		name      string
		tolerance float64
		bpm       float64
	}{
		{"strongest lag wins without tolerance", 0, 150},
		{"near tie goes to the lag closest to the prior", 0.1, 75},
	}

	env := OnsetEnvelope{Strength: utils.ImpulseEnvelope(1000, 40), Hop: 0.01}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := NewTempoEstimator(TempoOptions{
				MinBPM:       30,
				MaxBPM:       300,
				PriorBPM:     70,
				PriorOctaves: 100,
				TieTolerance: tt.tolerance,
			})
			if err != nil {
				t.Fatalf("NewTempoEstimator() error = %v", err)
			}
			if got := est.Estimate(env); math.Abs(got-tt.bpm) > 0.5 {
				t.Errorf("Estimate() = %.3f BPM, want %.0f", got, tt.bpm)
			}
		})
	}
}

func TestTempoEstimatorDegenerate(t *testing.T) {
	constant := make([]float64, 500)
	for i := range constant {
		constant[i] = 0.7
	}

	tests := []struct {
		name string
		env  OnsetEnvelope
	}{
		{"empty", OnsetEnvelope{Hop: 0.01}},
		{"single value", OnsetEnvelope{Strength: []float64{1}, Hop: 0.01}},
		{"all zero", OnsetEnvelope{Strength: make([]float64, 500), Hop: 0.01}},
		{"constant", OnsetEnvelope{Strength: constant, Hop: 0.01}},
		{"too short for any lag", OnsetEnvelope{Strength: []float64{1, 0, 1}, Hop: 0.01}},
		{"zero hop", OnsetEnvelope{Strength: utils.ImpulseEnvelope(100, 10)}},
	}

	est := newTestTempoEstimator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.Estimate(tt.env); got != 0 {
				t.Errorf("Estimate() = %v, want 0", got)
			}
		})
	}
}

func TestTempoEstimatorStaysInRange(t *testing.T) {
	// A 400 BPM pulse is faster than the search range allows; the result
	// must still be a tempo within [MinBPM, MaxBPM].
	opts := DefaultTempoOptions()
	est := newTestTempoEstimator(t)
	env := OnsetEnvelope{Strength: utils.ImpulseEnvelope(2000, 15), Hop: 0.01}
	got := est.Estimate(env)
	// Parabolic refinement may move the lag by up to half a frame.
	if got < opts.MinBPM*0.9 || got > opts.MaxBPM*1.1 {
		t.Errorf("Estimate() = %v, outside [%v, %v]", got, opts.MinBPM, opts.MaxBPM)
	}
}

func TestNewTempoEstimatorValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TempoOptions)
	}{
		{"zero min", func(o *TempoOptions) { o.MinBPM = 0 }},
		{"inverted range", func(o *TempoOptions) { o.MaxBPM = o.MinBPM }},
		{"zero prior", func(o *TempoOptions) { o.PriorBPM = 0 }},
		{"zero width", func(o *TempoOptions) { o.PriorOctaves = 0 }},
		{"tie tolerance 1", func(o *TempoOptions) { o.TieTolerance = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultTempoOptions()
			tt.modify(&opts)
			if _, err := NewTempoEstimator(opts); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLagToBPM(t *testing.T) {
	if got := lagToBPM(50, 0.01); math.Abs(got-120) > 1e-9 {
		t.Errorf("lagToBPM(50, 0.01) = %v, want 120", got)
	}
}
