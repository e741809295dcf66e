// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and in-memory test doubles shared
// by the package tests: a Store backed by a map, a Decoder returning canned
// signals and a Transport that records events.
package utils

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/Brian099/music-rhythm-test/internal/audio"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// --- Signal generators ---

// GenerateClickTrack returns a mono signal with a short decaying 1kHz burst
// on every beat of a bpm grid starting at t=0.
func GenerateClickTrack(sampleRate int, seconds, bpm, amplitude float64) audio.Signal {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	interval := 60 / bpm
	clickLen := int(0.03 * float64(sampleRate))
	for beat := 0.0; beat < seconds; beat += interval {
		start := int(beat * float64(sampleRate))
		for k := 0; k < clickLen && start+k < n; k++ {
			t := float64(k) / float64(sampleRate)
			samples[start+k] += amplitude * math.Exp(-t/0.005) * math.Sin(2*math.Pi*1000*t)
		}
	}
	return audio.Signal{Samples: samples, SampleRate: sampleRate}
}

// GenerateSilence returns an all-zero signal.
func GenerateSilence(sampleRate int, seconds float64) audio.Signal {
	return audio.Signal{Samples: make([]float64, int(seconds*float64(sampleRate))), SampleRate: sampleRate}
}

// GenerateSineWave returns a steady tone.
func GenerateSineWave(sampleRate int, seconds, frequency, amplitude float64) audio.Signal {
	samples := make([]float64, int(seconds*float64(sampleRate)))
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return audio.Signal{Samples: samples, SampleRate: sampleRate}
}

// ImpulseEnvelope returns onset strengths with a unit impulse every
// `every` frames, `frames` values long.
func ImpulseEnvelope(frames, every int) []float64 {
	strength := make([]float64, frames)
	for i := 0; i < frames; i += every {
		strength[i] = 1
	}
	return strength
}

// WriteWAV encodes sig as a 16-bit mono WAV file.
func WriteWAV(filename string, sig audio.Signal) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := wav.NewEncoder(file, sig.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sig.SampleRate},
		Data:           make([]int, len(sig.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range sig.Samples {
		buf.Data[i] = int(math.Max(-1, math.Min(1, s)) * math.MaxInt16)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// --- MemStore ---

// MemStore is an in-memory file store keyed by slash-separated names. It
// satisfies catalog.Store and counts every access so tests can assert that
// nothing touched storage.
type MemStore struct {
	mu       sync.RWMutex
	files    map[string][]byte
	order    []string
	accesses int

	// WriteErr, when set, is returned by every WriteFile call.
	WriteErr error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// Put stores data without counting it as an access.
func (m *MemStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(name, data)
}

func (m *MemStore) put(name string, data []byte) {
	name = path.Clean(name)
	if _, ok := m.files[name]; !ok {
		m.order = append(m.order, name)
	}
	m.files[name] = append([]byte(nil), data...)
}

// ReadFile returns a copy of the named file or fs.ErrNotExist.
func (m *MemStore) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	data, ok := m.files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// WriteFile replaces the named file.
func (m *MemStore) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.put(name, data)
	return nil
}

// ReadDir lists the files directly inside dir in insertion order.
func (m *MemStore) ReadDir(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	prefix := path.Clean(dir) + "/"
	if path.Clean(dir) == "." {
		prefix = ""
	}
	var names []string
	found := false
	for _, name := range m.order {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		found = true
		if rest := strings.TrimPrefix(name, prefix); !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	if !found && prefix != "" {
		return nil, fmt.Errorf("read dir %s: %w", dir, fs.ErrNotExist)
	}
	return names, nil
}

// Exists reports whether the named file is present.
func (m *MemStore) Exists(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	_, ok := m.files[path.Clean(name)]
	return ok, nil
}

// Remove deletes the named file if present.
func (m *MemStore) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accesses++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	name = path.Clean(name)
	if _, ok := m.files[name]; !ok {
		return nil
	}
	delete(m.files, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
	return nil
}

// Accesses returns how many store operations ran.
func (m *MemStore) Accesses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accesses
}

// Files returns the stored names in insertion order.
func (m *MemStore) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// --- StaticDecoder ---

// StaticDecoder returns canned signals keyed by path and records calls.
type StaticDecoder struct {
	mu      sync.Mutex
	Signals map[string]audio.Signal
	Errors  map[string]error
	Default *audio.Signal
	calls   []string
}

// NewStaticDecoder returns a decoder with no canned signals.
func NewStaticDecoder() *StaticDecoder {
	return &StaticDecoder{
		Signals: make(map[string]audio.Signal),
		Errors:  make(map[string]error),
	}
}

// Decode returns the configured signal or error for path.
func (d *StaticDecoder) Decode(p string) (audio.Signal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	d.calls = append(d.calls, p)
	if err, ok := d.Errors[p]; ok {
		return audio.Signal{}, err
	}
	if sig, ok := d.Signals[p]; ok {
		return sig, nil
	}
	if d.Default != nil {
		return *d.Default, nil
	}
	return audio.Signal{}, fmt.Errorf("%w: no signal for %s", audio.ErrDecode, p)
}

// Calls returns the decoded paths in call order.
func (d *StaticDecoder) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// --- MockTransport ---

// MockTransport records every event instead of transmitting it.
type MockTransport struct {
	mu     sync.Mutex
	events []any
	closed bool
}

// Send stores the event for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns the recorded events.
func (m *MockTransport) Events() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.events...)
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
