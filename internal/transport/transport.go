// SPDX-License-Identifier: MIT
//
// Package transport publishes rhythm generation events to listeners: the
// websocket hub on /ws, UDP receivers and the log. Publishing is best
// effort; a failing transport never fails the generation that produced
// the event.
package transport

import (
	"errors"
	"sync"

	applog "github.com/Brian099/music-rhythm-test/internal/log"
)

// EventRhythmGenerated is the type of the event sent after a rhythm record
// has been persisted.
const EventRhythmGenerated = "rhythm_generated"

// Transport defines a generic interface for sending events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// RhythmEvent announces a newly written rhythm record.
type RhythmEvent struct {
	Type    string  `json:"type"`
	Name    string  `json:"name"`
	DataSrc string  `json:"data_src"`
	BPM     float64 `json:"bpm"`
	Beats   int     `json:"beats"`
}

// NewRhythmEvent builds a rhythm_generated event.
func NewRhythmEvent(name, dataSrc string, bpm float64, beats int) RhythmEvent {
	return RhythmEvent{
		Type:    EventRhythmGenerated,
		Name:    name,
		DataSrc: dataSrc,
		BPM:     bpm,
		Beats:   beats,
	}
}

// Multi fans every event out to a set of transports. Send errors are
// joined; one failing transport does not stop the others.
type Multi struct {
	mu         sync.RWMutex
	transports []Transport
}

// NewMulti returns a fan-out over ts. Nil entries are ignored.
func NewMulti(ts ...Transport) *Multi {
	m := &Multi{}
	for _, t := range ts {
		m.Add(t)
	}
	return m
}

// Add registers another transport.
func (m *Multi) Add(t Transport) {
	if t == nil {
		return
	}
	m.mu.Lock()
	m.transports = append(m.transports, t)
	m.mu.Unlock()
}

// Len returns the number of registered transports.
func (m *Multi) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transports)
}

// Send delivers data to every transport.
func (m *Multi) Send(data any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []error
	for _, t := range m.transports {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport.
func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, t := range m.transports {
		if err := t.Close(); err != nil {
			applog.Warnf("Transport: Error closing %T: %v", t, err)
			errs = append(errs, err)
		}
	}
	m.transports = nil
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Send(any) error { return nil }
func (Nop) Close() error   { return nil }

// Ensure implementations satisfy the interface at compile time.
var _ Transport = (*Multi)(nil)
var _ Transport = Nop{}
