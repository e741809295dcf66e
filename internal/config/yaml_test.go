// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brian099/music-rhythm-test/internal/analysis"
	"github.com/Brian099/music-rhythm-test/internal/catalog"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Library.MusicDir != "music" || cfg.Library.PlaylistFile != "playlist.json" {
		t.Errorf("library = %+v", cfg.Library)
	}
	if cfg.Analysis.MinBeatDuration != 0.1 {
		t.Errorf("min_beat_duration = %g, want 0.1", cfg.Analysis.MinBeatDuration)
	}
	if cfg.Batch.Workers != 1 || cfg.Batch.Order != OrderSorted {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if cfg.Transport.UDPEnabled {
		t.Error("UDP must be off by default")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
library:
  music_dir: songs
analysis:
  min_beat_duration: 0.25
  window: hamming
  trim: false
server:
  addr: ":9000"
  max_jobs: 4
batch:
  workers: 3
  order: directory
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Level() != applog.LevelDebug {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Library.MusicDir != "songs" {
		t.Errorf("music_dir = %q", cfg.Library.MusicDir)
	}
	// Unset keys keep their defaults.
	if cfg.Library.PlaylistFile != DefaultPlaylistFile {
		t.Errorf("playlist_file = %q, want default", cfg.Library.PlaylistFile)
	}
	if cfg.Analysis.MinBeatDuration != 0.25 || cfg.Analysis.Trim {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.HopSeconds != DefaultHopSeconds {
		t.Errorf("hop_seconds = %g, want default", cfg.Analysis.HopSeconds)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.MaxJobs != 4 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Batch.Workers != 3 || cfg.Batch.Order != OrderDirectory {
		t.Errorf("batch = %+v", cfg.Batch)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
analysis:
  min_beat_duration: 0
batch:
  order: random
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid configuration", "min_beat_duration", "batch.order"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

// Environment tests cannot run in parallel.
func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "library:\n  music_dir: songs\n")
	t.Setenv("RHYTHM_MUSIC_DIR", "tracks")
	t.Setenv("RHYTHM_MIN_BEAT_DURATION", "0.3")
	t.Setenv("RHYTHM_BATCH_WORKERS", "4")
	t.Setenv("RHYTHM_UDP_ENABLED", "true")
	t.Setenv("RHYTHM_UDP_TARGET_ADDRESS", "10.0.0.2:7000")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Library.MusicDir != "tracks" {
		t.Errorf("music_dir = %q, env should win over file", cfg.Library.MusicDir)
	}
	if cfg.Analysis.MinBeatDuration != 0.3 {
		t.Errorf("min_beat_duration = %g", cfg.Analysis.MinBeatDuration)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:7000" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_BadEnvIgnored(t *testing.T) {
	t.Setenv("RHYTHM_MIN_BEAT_DURATION", "fast")
	t.Setenv("RHYTHM_BATCH_WORKERS", "many")

	cfg, err := LoadConfig(writeTempConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Analysis.MinBeatDuration != DefaultMinBeatDuration || cfg.Batch.Workers != DefaultWorkers {
		t.Errorf("unparseable env values should be ignored, got %g and %d",
			cfg.Analysis.MinBeatDuration, cfg.Batch.Workers)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"music dir", func(c *Config) { c.Library.MusicDir = " " }, "music_dir"},
		{"playlist", func(c *Config) { c.Library.PlaylistFile = "" }, "playlist_file"},
		{"hop", func(c *Config) { c.Analysis.HopSeconds = 0 }, "hop_seconds"},
		{"frame", func(c *Config) { c.Analysis.FrameSeconds = 0.001 }, "frame_seconds"},
		{"window", func(c *Config) { c.Analysis.Window = "kaiser" }, "analysis.window"},
		{"gamma", func(c *Config) { c.Analysis.LogCompress = true; c.Analysis.LogGamma = 0 }, "log_gamma"},
		{"tempo range", func(c *Config) { c.Analysis.MaxBPM = 20 }, "tempo range"},
		{"prior", func(c *Config) { c.Analysis.PriorOctaves = 0 }, "tempo prior"},
		{"tie", func(c *Config) { c.Analysis.TieTolerance = 1 }, "tie_tolerance"},
		{"tightness", func(c *Config) { c.Analysis.Tightness = 0 }, "tightness"},
		{"start penalty", func(c *Config) { c.Analysis.StartPenalty = -1 }, "start_penalty"},
		{"sample rate", func(c *Config) { c.Decoder.SampleRate = 0 }, "sample_rate"},
		{"max jobs", func(c *Config) { c.Server.MaxJobs = 0 }, "max_jobs"},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"udp address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "udp_target_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestOptionsConversion(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Analysis.Window = "blackman"
	cfg.Analysis.LogCompress = true
	cfg.Batch.Order = OrderDirectory
	cfg.Batch.Workers = 3

	a := cfg.AnalysisOptions()
	if a.Onset.Window != analysis.Blackman || !a.Onset.LogCompress {
		t.Errorf("onset options = %+v", a.Onset)
	}
	if a.Tempo.MinBPM != DefaultMinBPM || a.Beat.Tightness != DefaultTightness || !a.Beat.Trim {
		t.Errorf("analysis options = %+v", a)
	}
	if _, err := analysis.NewAnalyzer(a); err != nil {
		t.Errorf("NewAnalyzer(default options) error = %v", err)
	}

	c := cfg.CatalogOptions(true)
	if c.Order != catalog.OrderDirectory || c.Workers != 3 || !c.ReadTitles || c.MinBeatDuration != 0.1 {
		t.Errorf("catalog options = %+v", c)
	}

	d := cfg.DecoderOptions()
	if d.FFmpegPath != "ffmpeg" || d.SampleRate != 22050 {
		t.Errorf("decoder options = %+v", d)
	}

	s := cfg.ServerOptions()
	if s.Addr != ":8000" || s.MusicDir != "music" || s.IndexFile != "index.html" || s.MaxJobs != 2 {
		t.Errorf("server options = %+v", s)
	}
}
