// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/Brian099/music-rhythm-test/internal/audio"
)

const testSampleRate = 22050

func TestGenerateClickTrack(t *testing.T) {
	sig := GenerateClickTrack(testSampleRate, 2, 120, 0.8)

	if sig.SampleRate != testSampleRate {
		t.Fatalf("sample rate = %d, want %d", sig.SampleRate, testSampleRate)
	}
	if got, want := len(sig.Samples), 2*testSampleRate; got != want {
		t.Fatalf("len = %d, want %d", got, want)
	}

	// Silence between clicks, energy right after each beat.
	quietAt := 0.25 * testSampleRate
	quiet := sig.Samples[int(quietAt)]
	if quiet != 0 {
		t.Errorf("expected silence between clicks, got %v", quiet)
	}
	var peak float64
	for _, s := range sig.Samples[int(0.5*testSampleRate) : int(0.52*testSampleRate)] {
		peak = math.Max(peak, math.Abs(s))
	}
	if peak < 0.3 {
		t.Errorf("expected a click at 0.5s, peak = %v", peak)
	}
}

func TestImpulseEnvelope(t *testing.T) {
	env := ImpulseEnvelope(10, 4)
	want := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 0}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("ImpulseEnvelope = %v, want %v", env, want)
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tone.wav")
	sig := GenerateSineWave(8000, 0.5, 440, 0.5)

	if err := WriteWAV(filename, sig); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := audio.WAVDecoder{}.Decode(filename)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.SampleRate != 8000 || len(got.Samples) != len(sig.Samples) {
		t.Fatalf("decoded %d samples at %d Hz, want %d at 8000 Hz", len(got.Samples), got.SampleRate, len(sig.Samples))
	}
	for i := range sig.Samples {
		if math.Abs(got.Samples[i]-sig.Samples[i]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], sig.Samples[i])
		}
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	store.Put("music/b.mp3", []byte("b"))
	store.Put("music/a.wav", []byte("a"))
	store.Put("music/sub/c.ogg", []byte("c"))
	store.Put("playlist.json", []byte("{}"))

	if store.Accesses() != 0 {
		t.Errorf("Put should not count as access, got %d", store.Accesses())
	}

	names, err := store.ReadDir("music")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if want := []string{"b.mp3", "a.wav"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ReadDir() = %v, want %v", names, want)
	}

	if _, err := store.ReadDir("missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadDir(missing) error = %v, want fs.ErrNotExist", err)
	}

	if _, err := store.ReadFile("nope.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want fs.ErrNotExist", err)
	}

	if err := store.WriteFile("music/a.json", []byte("x")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	ok, _ := store.Exists("music/a.json")
	if !ok {
		t.Error("expected music/a.json to exist after write")
	}

	store.WriteErr = errors.New("disk full")
	if err := store.WriteFile("music/b.json", nil); err == nil {
		t.Error("expected WriteErr to be returned")
	}
	if store.Accesses() != 6 {
		t.Errorf("Accesses() = %d, want 6", store.Accesses())
	}

	store.WriteErr = nil
	if err := store.Remove("music/a.json"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if ok, _ := store.Exists("music/a.json"); ok {
		t.Error("music/a.json still present after Remove")
	}
	if err := store.Remove("music/none.json"); err != nil {
		t.Errorf("Remove(missing) error = %v, want nil", err)
	}
	if slices.Contains(store.Files(), "music/a.json") {
		t.Errorf("Files() = %v still lists the removed file", store.Files())
	}
}

func TestStaticDecoder(t *testing.T) {
	dec := NewStaticDecoder()
	dec.Signals["music/a.wav"] = GenerateSilence(100, 1)
	dec.Errors["music/bad.mp3"] = audio.ErrDecode

	if sig, err := dec.Decode("music/a.wav"); err != nil || len(sig.Samples) != 100 {
		t.Errorf("Decode(a.wav) = %d samples, %v", len(sig.Samples), err)
	}
	if _, err := dec.Decode("music/bad.mp3"); !errors.Is(err, audio.ErrDecode) {
		t.Errorf("Decode(bad.mp3) error = %v, want ErrDecode", err)
	}
	if _, err := dec.Decode("music/unknown.flac"); !errors.Is(err, audio.ErrDecode) {
		t.Errorf("Decode(unknown) error = %v, want ErrDecode", err)
	}
	if got := dec.Calls(); len(got) != 3 {
		t.Errorf("Calls() = %v, want 3 calls", got)
	}
}

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}
	for _, ev := range []any{"a", 1, map[string]any{"type": "x"}} {
		if err := mt.Send(ev); err != nil {
			t.Errorf("Send() error = %v", err)
		}
	}
	if len(mt.Events()) != 3 {
		t.Errorf("Events() len = %d, want 3", len(mt.Events()))
	}
	_ = mt.Close()
	if !mt.Closed() {
		t.Error("expected Closed() after Close()")
	}
}
