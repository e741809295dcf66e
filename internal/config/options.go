// SPDX-License-Identifier: MIT
package config

import (
	"github.com/Brian099/music-rhythm-test/internal/analysis"
	"github.com/Brian099/music-rhythm-test/internal/audio"
	"github.com/Brian099/music-rhythm-test/internal/catalog"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/internal/server"
)

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() applog.LogLevel {
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// AnalysisOptions returns the analysis pipeline settings. The window name
// is assumed valid; Validate rejects unknown names.
func (c *Config) AnalysisOptions() analysis.Options {
	a := c.Analysis
	window, _ := analysis.ParseWindowFunc(a.Window)
	return analysis.Options{
		Onset: analysis.OnsetOptions{
			FrameSeconds: a.FrameSeconds,
			HopSeconds:   a.HopSeconds,
			Window:       window,
			LogCompress:  a.LogCompress,
			LogGamma:     a.LogGamma,
		},
		Tempo: analysis.TempoOptions{
			MinBPM:       a.MinBPM,
			MaxBPM:       a.MaxBPM,
			PriorBPM:     a.PriorBPM,
			PriorOctaves: a.PriorOctaves,
			TieTolerance: a.TieTolerance,
		},
		Beat: analysis.BeatOptions{
			Tightness:    a.Tightness,
			StartPenalty: a.StartPenalty,
			Trim:         a.Trim,
		},
	}
}

// DecoderOptions returns the audio decoder settings.
func (c *Config) DecoderOptions() audio.DecoderOptions {
	return audio.DecoderOptions{
		FFmpegPath: c.Decoder.FFmpegPath,
		SampleRate: c.Decoder.SampleRate,
	}
}

// CatalogOptions returns the catalog settings. Titles are only read for
// the service listing.
func (c *Config) CatalogOptions(readTitles bool) catalog.Options {
	return catalog.Options{
		Root:            c.Library.Root,
		MusicDir:        c.Library.MusicDir,
		PlaylistFile:    c.Library.PlaylistFile,
		MinBeatDuration: c.Analysis.MinBeatDuration,
		Workers:         c.Batch.Workers,
		Order:           catalog.Order(c.Batch.Order),
		ReadTitles:      readTitles,
	}
}

// ServerOptions returns the HTTP service settings.
func (c *Config) ServerOptions() server.Options {
	return server.Options{
		Addr:      c.Server.Addr,
		Root:      c.Library.Root,
		MusicDir:  c.Library.MusicDir,
		IndexFile: c.Library.IndexFile,
		MaxJobs:   c.Server.MaxJobs,
	}
}
