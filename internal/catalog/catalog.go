// SPDX-License-Identifier: MIT
/*
Package catalog turns analysis results into persisted rhythm records and
the playlist manifest the player loads.

Records live next to the audio as <music_dir>/<name>.json; the manifest
lists every song with a record. Batch export rebuilds the manifest from
scratch, on-demand generation upserts a single entry. Every file is
replaced atomically by the Store, and manifest read-modify-write cycles
are serialised, so static readers never see a partial file.
*/
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Brian099/music-rhythm-test/internal/analysis"
	"github.com/Brian099/music-rhythm-test/internal/audio"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/internal/transport"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrPathTraversal is returned when a requested filename resolves
	// outside the music directory.
	ErrPathTraversal = errors.New("path escapes music directory")
	// ErrNotFound is returned when the requested audio file is absent.
	ErrNotFound = errors.New("audio file not found")
	// ErrPersist wraps failures to write a record or the manifest.
	ErrPersist = errors.New("persisting rhythm data failed")
)

// Order controls the order batch export visits songs in.
type Order string

const (
	OrderSorted    Order = "sorted"    // By filename; deterministic everywhere.
	OrderDirectory Order = "directory" // As the store lists them.
)

// Analyzer runs the beat pipeline on a decoded signal.
type Analyzer interface {
	Analyze(sig audio.Signal, minBeatDuration float64) (analysis.Result, error)
}

// Options configures a Catalog.
type Options struct {
	Root            string  // Filesystem path of the store root, used for decoding.
	MusicDir        string  // Store-relative audio directory; also the URL prefix of data_src.
	PlaylistFile    string  // Store-relative manifest name.
	MinBeatDuration float64 // Default minimum gap for batch export.
	Workers         int     // Songs analysed concurrently by Export.
	Order           Order   // Export order.
	ReadTitles      bool    // Read ID3 titles for List.
}

// Catalog owns persistence of rhythm records and the manifest.
type Catalog struct {
	opts      Options
	store     Store
	decoder   audio.Decoder
	analyzer  Analyzer
	transport transport.Transport
	titles    func(path string) string

	manifestMu sync.Mutex
}

// New validates opts and assembles a catalog. A nil transport discards
// events.
func New(opts Options, store Store, decoder audio.Decoder, analyzer Analyzer, tr transport.Transport) (*Catalog, error) {
	if store == nil || decoder == nil || analyzer == nil {
		return nil, errors.New("catalog: store, decoder and analyzer are required")
	}
	if strings.TrimSpace(opts.MusicDir) == "" {
		return nil, errors.New("catalog: music directory must be set")
	}
	if strings.TrimSpace(opts.PlaylistFile) == "" {
		return nil, errors.New("catalog: playlist file must be set")
	}
	if !(opts.MinBeatDuration > 0) {
		return nil, fmt.Errorf("catalog: %w, got %g", analysis.ErrInvalidSpacing, opts.MinBeatDuration)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	switch opts.Order {
	case "":
		opts.Order = OrderSorted
	case OrderSorted, OrderDirectory:
	default:
		return nil, fmt.Errorf("catalog: unknown order %q", opts.Order)
	}
	opts.MusicDir = slashDir(opts.MusicDir)
	if tr == nil {
		tr = transport.Nop{}
	}
	c := &Catalog{
		opts:      opts,
		store:     store,
		decoder:   decoder,
		analyzer:  analyzer,
		transport: tr,
	}
	if opts.ReadTitles {
		c.titles = readID3Title
	}
	applog.Debugf("Catalog: Initializing (Music: %s, Playlist: %s, Workers: %d, Order: %s)",
		opts.MusicDir, opts.PlaylistFile, opts.Workers, opts.Order)
	return c, nil
}

// Options returns the effective options.
func (c *Catalog) Options() Options {
	return c.opts
}

// Generation summarises one on-demand or batch analysis.
type Generation struct {
	Filename  string  // Music-dir relative audio filename.
	Name      string  // Manifest name (filename without extension).
	AudioSrc  string  // Forward-slash path of the audio.
	DataSrc   string  // Forward-slash path of the record.
	BPM       float64 // 0 when no tempo was found.
	Beats     int     // Filtered beat count.
	Persisted bool    // False for songs without beats.
}

// decodePath maps a store name to the path handed to the decoder.
func (c *Catalog) decodePath(name string) string {
	return filepath.Join(c.opts.Root, filepath.FromSlash(name))
}

// Analyze decodes a song from the music directory and runs the pipeline.
// It returns the record that would be persisted; nothing is written.
func (c *Catalog) Analyze(filename string, minBeatDuration float64) (Record, analysis.Result, error) {
	if !(minBeatDuration > 0) {
		return Record{}, analysis.Result{}, fmt.Errorf("%w, got %g", analysis.ErrInvalidSpacing, minBeatDuration)
	}
	audioName, err := ResolveAudio(c.opts.MusicDir, filename)
	if err != nil {
		return Record{}, analysis.Result{}, err
	}
	ok, err := c.store.Exists(audioName)
	if err != nil {
		return Record{}, analysis.Result{}, fmt.Errorf("checking %s: %w", audioName, err)
	}
	if !ok {
		return Record{}, analysis.Result{}, fmt.Errorf("%w: %s", ErrNotFound, audioName)
	}
	return c.analyze(audioName, minBeatDuration)
}

func (c *Catalog) analyze(audioName string, minBeatDuration float64) (Record, analysis.Result, error) {
	sig, err := c.decoder.Decode(c.decodePath(audioName))
	if err != nil {
		if !errors.Is(err, audio.ErrDecode) {
			err = fmt.Errorf("%w: %v", audio.ErrDecode, err)
		}
		return Record{}, analysis.Result{}, err
	}
	res, err := c.analyzer.Analyze(sig, minBeatDuration)
	if err != nil {
		return Record{}, analysis.Result{}, err
	}
	return Record{AudioSrc: audioName, Beats: res.Beats, BPM: res.BPM}, res, nil
}

// Generate analyses one song on demand, writes its record and upserts its
// manifest entry. The filename is checked against the music directory
// before anything is read. Songs without beats persist nothing.
func (c *Catalog) Generate(filename string, minBeatDuration float64) (Generation, error) {
	if !(minBeatDuration > 0) {
		return Generation{}, fmt.Errorf("%w, got %g", analysis.ErrInvalidSpacing, minBeatDuration)
	}
	audioName, err := ResolveAudio(c.opts.MusicDir, filename)
	if err != nil {
		return Generation{}, err
	}
	ok, err := c.store.Exists(audioName)
	if err != nil {
		return Generation{}, fmt.Errorf("checking %s: %w", audioName, err)
	}
	if !ok {
		return Generation{}, fmt.Errorf("%w: %s", ErrNotFound, audioName)
	}

	applog.Infof("Catalog: Generating rhythm for %s (min beat duration %gs)", filename, minBeatDuration)
	gen, err := c.generate(audioName, minBeatDuration)
	if err != nil {
		return gen, err
	}
	if !gen.Persisted {
		c.manifestMu.Lock()
		err = c.dropManifestEntry(gen.Name)
		c.manifestMu.Unlock()
		return gen, err
	}

	c.manifestMu.Lock()
	err = c.upsertManifest(ManifestEntry{Name: gen.Name, DataSrc: gen.DataSrc})
	c.manifestMu.Unlock()
	if err != nil {
		return gen, err
	}

	c.publish(gen)
	return gen, nil
}

// generate analyses and persists one record without touching the manifest.
func (c *Catalog) generate(audioName string, minBeatDuration float64) (Generation, error) {
	rel := strings.TrimPrefix(audioName, c.opts.MusicDir+"/")
	gen := Generation{
		Filename: rel,
		Name:     baseName(rel),
		AudioSrc: audioName,
		DataSrc:  recordName(c.opts.MusicDir, rel),
	}

	rec, res, err := c.analyze(audioName, minBeatDuration)
	if err != nil {
		return gen, err
	}
	gen.BPM = res.BPM
	gen.Beats = len(res.Beats)
	if res.Degenerate() {
		// A record from an earlier run would otherwise outlive this result.
		if err := c.store.Remove(gen.DataSrc); err != nil {
			return gen, fmt.Errorf("%w: removing stale %s: %v", ErrPersist, gen.DataSrc, err)
		}
		applog.Infof("Catalog: No beats detected in %s, nothing written", rel)
		return gen, nil
	}

	data, err := EncodeRecord(rec)
	if err != nil {
		return gen, fmt.Errorf("%w: encoding %s: %v", ErrPersist, gen.DataSrc, err)
	}
	if err := c.store.WriteFile(gen.DataSrc, data); err != nil {
		return gen, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	gen.Persisted = true
	applog.Infof("Catalog: %s -> %d beats, %.2f BPM, saved to %s", rel, gen.Beats, gen.BPM, gen.DataSrc)
	return gen, nil
}

// upsertManifest must be called with manifestMu held. A missing or
// unreadable manifest is replaced by a fresh one.
func (c *Catalog) upsertManifest(entry ManifestEntry) error {
	var m Manifest
	data, err := c.store.ReadFile(c.opts.PlaylistFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("%w: reading %s: %v", ErrPersist, c.opts.PlaylistFile, err)
	default:
		if m, err = DecodeManifest(data); err != nil {
			applog.Warnf("Catalog: Replacing unreadable %s: %v", c.opts.PlaylistFile, err)
			m = Manifest{}
		}
	}
	m.Upsert(entry)
	return c.writeManifest(m)
}

// dropManifestEntry must be called with manifestMu held. The manifest is
// only rewritten when it lists name.
func (c *Catalog) dropManifestEntry(name string) error {
	data, err := c.store.ReadFile(c.opts.PlaylistFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrPersist, c.opts.PlaylistFile, err)
	}
	m, err := DecodeManifest(data)
	if err != nil || !m.Remove(name) {
		return nil
	}
	applog.Infof("Catalog: Removed %s from %s", name, c.opts.PlaylistFile)
	return c.writeManifest(m)
}

func (c *Catalog) writeManifest(m Manifest) error {
	data, err := EncodeManifest(m)
	if err != nil {
		return fmt.Errorf("%w: encoding manifest: %v", ErrPersist, err)
	}
	if err := c.store.WriteFile(c.opts.PlaylistFile, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (c *Catalog) publish(gen Generation) {
	ev := transport.NewRhythmEvent(gen.Filename, gen.DataSrc, gen.BPM, gen.Beats)
	if err := c.transport.Send(ev); err != nil {
		applog.Warnf("Catalog: Publishing event for %s failed: %v", gen.Filename, err)
	}
}

// ExportItem is the outcome for one song of a batch export.
type ExportItem struct {
	Generation
	Err error
}

// ExportSummary is the outcome of a batch export.
type ExportSummary struct {
	Items    []ExportItem // In processing order.
	Manifest Manifest
}

// Written returns the number of records persisted.
func (s ExportSummary) Written() int {
	return len(s.Manifest.Songs)
}

// Failed returns the number of songs that errored.
func (s ExportSummary) Failed() int {
	n := 0
	for _, it := range s.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// audioFiles lists the recognised audio files in the music directory.
func (c *Catalog) audioFiles(sorted bool) ([]string, error) {
	names, err := c.store.ReadDir(c.opts.MusicDir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(names))
	for _, name := range names {
		if audio.IsAudioFile(name) {
			files = append(files, name)
		}
	}
	if sorted {
		slices.Sort(files)
	}
	return files, nil
}

// Export analyses every audio file with the default minimum beat gap,
// writes a record for each song with beats and rebuilds the manifest.
// Per-song failures are logged and skipped. onItem, if set, is called
// from worker goroutines after each song. Cancelling ctx stops new songs
// from being scheduled; the manifest is then left untouched.
func (c *Catalog) Export(ctx context.Context, onItem func(ExportItem)) (ExportSummary, error) {
	files, err := c.audioFiles(c.opts.Order == OrderSorted)
	if err != nil {
		return ExportSummary{}, fmt.Errorf("listing %s: %w", c.opts.MusicDir, err)
	}
	applog.Infof("Catalog: Exporting %d songs from %s (%d workers)", len(files), c.opts.MusicDir, c.opts.Workers)

	items := make([]ExportItem, len(files))
	done := make([]bool, len(files))

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, name := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A song may still be queued when cancellation arrives.
			if ctx.Err() != nil {
				return nil
			}
			gen, err := c.generate(path.Join(c.opts.MusicDir, name), c.opts.MinBeatDuration)
			if err != nil {
				applog.Errorf("Catalog: Skipping %s: %v", name, err)
			}
			items[i] = ExportItem{Generation: gen, Err: err}
			done[i] = true
			if onItem != nil {
				onItem(items[i])
			}
			return nil
		})
	}
	_ = g.Wait() // Workers never return errors.

	summary := ExportSummary{}
	for i := range items {
		if !done[i] {
			continue
		}
		summary.Items = append(summary.Items, items[i])
		if items[i].Persisted {
			summary.Manifest.Songs = append(summary.Manifest.Songs, ManifestEntry{
				Name:    items[i].Name,
				DataSrc: items[i].DataSrc,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		applog.Warnf("Catalog: Export cancelled after %d of %d songs; %s not updated", len(summary.Items), len(files), c.opts.PlaylistFile)
		return summary, err
	}

	c.manifestMu.Lock()
	err = c.writeManifest(summary.Manifest)
	c.manifestMu.Unlock()
	if err != nil {
		return summary, err
	}

	for _, it := range summary.Items {
		if it.Persisted {
			c.publish(it.Generation)
		}
	}
	applog.Infof("Catalog: All done! %d of %d songs written, playlist saved to %s", summary.Written(), len(files), c.opts.PlaylistFile)
	return summary, nil
}

// List returns every audio file in the music directory sorted by
// filename, with whether its record exists. A missing music directory
// yields an empty listing.
func (c *Catalog) List() (Listing, error) {
	files, err := c.audioFiles(true)
	if errors.Is(err, fs.ErrNotExist) {
		return Listing{Songs: []Song{}}, nil
	}
	if err != nil {
		return Listing{}, fmt.Errorf("listing %s: %w", c.opts.MusicDir, err)
	}

	songs := make([]Song, 0, len(files))
	for _, name := range files {
		song := Song{
			Name:      baseName(name),
			DataSrc:   recordName(c.opts.MusicDir, name),
			AudioFile: name,
		}
		if song.HasData, err = c.store.Exists(song.DataSrc); err != nil {
			applog.Warnf("Catalog: Checking %s: %v", song.DataSrc, err)
		}
		if c.titles != nil {
			song.Title = c.titles(c.decodePath(path.Join(c.opts.MusicDir, name)))
		}
		songs = append(songs, song)
	}
	return Listing{Songs: songs}, nil
}
