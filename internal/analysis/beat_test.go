// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"github.com/Brian099/music-rhythm-test/pkg/utils"
)

func newTestBeatTracker(t *testing.T) *BeatTracker {
	t.Helper()
	bt, err := NewBeatTracker(DefaultBeatOptions())
	if err != nil {
		t.Fatalf("NewBeatTracker() error = %v", err)
	}
	return bt
}

func TestBeatTrackerImpulseTrain(t *testing.T) {
	env := OnsetEnvelope{Strength: utils.ImpulseEnvelope(1000, 50), Hop: 0.01}
	beats := newTestBeatTracker(t).Track(env, 120)

	if len(beats) != 20 {
		t.Fatalf("Track() returned %d beats, want 20: %v", len(beats), beats)
	}
	for k, b := range beats {
		if want := float64(k) * 0.5; math.Abs(b-want) > 0.011 {
			t.Errorf("beat %d = %.3f, want %.3f±0.011", k, b, want)
		}
	}
}

func TestBeatTrackerAppliesOffset(t *testing.T) {
	env := OnsetEnvelope{Strength: utils.ImpulseEnvelope(1000, 50), Hop: 0.01, Offset: 0.0565}
	beats := newTestBeatTracker(t).Track(env, 120)
	if len(beats) == 0 {
		t.Fatal("Track() returned no beats")
	}
	if math.Abs(beats[0]-0.0565) > 1e-9 {
		t.Errorf("first beat = %v, want 0.0565", beats[0])
	}
}

func TestBeatTrackerStrictlyIncreasing(t *testing.T) {
	// Irregular onsets with some jitter around a 0.5s period.
	strength := make([]float64, 1200)
	for k, i := range []int{3, 52, 101, 155, 198, 251, 300, 349, 402, 455, 500, 548, 603, 650, 699, 751, 800, 852, 901, 949, 1003, 1050, 1101, 1149} {
		strength[i] = 0.5 + 0.5*float64(k%3)/2
	}
	beats := newTestBeatTracker(t).Track(OnsetEnvelope{Strength: strength, Hop: 0.01}, 120)
	if len(beats) < 2 {
		t.Fatalf("Track() returned %d beats", len(beats))
	}
	for i := 1; i < len(beats); i++ {
		if beats[i] <= beats[i-1] {
			t.Fatalf("beats not strictly increasing at %d: %v", i, beats)
		}
	}
}

func TestBeatTrackerDegenerate(t *testing.T) {
	impulses := OnsetEnvelope{Strength: utils.ImpulseEnvelope(500, 50), Hop: 0.01}
	tests := []struct {
		name string
		env  OnsetEnvelope
		bpm  float64
	}{
		{"zero tempo", impulses, 0},
		{"negative tempo", impulses, -120},
		{"NaN tempo", impulses, math.NaN()},
		{"empty envelope", OnsetEnvelope{Hop: 0.01}, 120},
		{"flat envelope", OnsetEnvelope{Strength: make([]float64, 500), Hop: 0.01}, 120},
	}

	bt := newTestBeatTracker(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bt.Track(tt.env, tt.bpm); got != nil {
				t.Errorf("Track() = %v, want nil", got)
			}
		})
	}
}

func TestTrimWeakBeats(t *testing.T) {
	local := []float64{0, 2, 0, 2, 0, 2, 0}
	got := trimWeakBeats([]int{0, 1, 3, 5, 6}, local)
	if len(got) != 3 || got[0] != 1 || got[2] != 5 {
		t.Errorf("trimWeakBeats() = %v, want [1 3 5]", got)
	}
	if got := trimWeakBeats(nil, local); len(got) != 0 {
		t.Errorf("trimWeakBeats(nil) = %v, want empty", got)
	}
}

func TestNewBeatTrackerValidation(t *testing.T) {
	if _, err := NewBeatTracker(BeatOptions{Tightness: 0}); err == nil {
		t.Error("expected error for zero tightness")
	}
	if _, err := NewBeatTracker(BeatOptions{Tightness: 100, StartPenalty: -1}); err == nil {
		t.Error("expected error for negative start penalty")
	}
}
