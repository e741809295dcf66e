// SPDX-License-Identifier: MIT
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Record is the persisted rhythm data of one song.
type Record struct {
	AudioSrc string    `json:"audio_src"`
	Beats    []float64 `json:"beats"`
	BPM      float64   `json:"bpm"`
}

// ManifestEntry points the player at one song's record.
type ManifestEntry struct {
	Name    string `json:"name"`
	DataSrc string `json:"data_src"`
}

// Manifest is the playlist written by batch export and updated by
// on-demand generation.
type Manifest struct {
	Songs []ManifestEntry `json:"songs"`
}

// Upsert replaces the entry with the same name or appends a new one.
func (m *Manifest) Upsert(entry ManifestEntry) {
	for i := range m.Songs {
		if m.Songs[i].Name == entry.Name {
			m.Songs[i] = entry
			return
		}
	}
	m.Songs = append(m.Songs, entry)
}

// Remove drops the entry called name and reports whether it was present.
func (m *Manifest) Remove(name string) bool {
	n := len(m.Songs)
	m.Songs = slices.DeleteFunc(m.Songs, func(e ManifestEntry) bool { return e.Name == name })
	return len(m.Songs) != n
}

// Song is one row of the catalogue listing.
type Song struct {
	Name      string `json:"name"`
	DataSrc   string `json:"data_src"`
	AudioFile string `json:"audio_file"`
	HasData   bool   `json:"has_data"`
	Title     string `json:"title,omitempty"`
}

// Listing is the catalogue listing served as /playlist.json.
type Listing struct {
	Songs []Song `json:"songs"`
}

// EncodeRecord renders r as indented JSON.
func EncodeRecord(r Record) ([]byte, error) {
	if r.Beats == nil {
		r.Beats = []float64{}
	}
	return encodeJSON(r)
}

// DecodeRecord parses a record written by EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decoding rhythm record: %w", err)
	}
	return r, nil
}

// EncodeManifest renders m as indented JSON.
func EncodeManifest(m Manifest) ([]byte, error) {
	if m.Songs == nil {
		m.Songs = []ManifestEntry{}
	}
	return encodeJSON(m)
}

// DecodeManifest parses a manifest written by EncodeManifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding playlist manifest: %w", err)
	}
	return m, nil
}

// encodeJSON indents by two spaces and leaves non-ASCII and HTML
// characters unescaped, so song names stay readable.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
