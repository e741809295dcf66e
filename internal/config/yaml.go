// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Brian099/music-rhythm-test/internal/analysis"
	applog "github.com/Brian099/music-rhythm-test/internal/log"

	"gopkg.in/yaml.v3"
)

// candidatePaths are searched, in order, when no config path is given.
var candidatePaths = []string{
	"rhythm.yaml",
	"config.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the default locations; if no file is found, it uses
// built-in defaults. Environment overrides are applied after the file and
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range candidatePaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every value a component would otherwise reject at
// construction time, so bad configuration fails before any work starts.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	// Library
	if strings.TrimSpace(c.Library.MusicDir) == "" {
		errs = append(errs, errors.New("library.music_dir must be set"))
	}
	if strings.TrimSpace(c.Library.PlaylistFile) == "" {
		errs = append(errs, errors.New("library.playlist_file must be set"))
	}

	// Analysis
	a := c.Analysis
	if !(a.MinBeatDuration > 0) {
		errs = append(errs, fmt.Errorf("analysis.min_beat_duration must be positive, got %g", a.MinBeatDuration))
	}
	if !(a.HopSeconds > 0) {
		errs = append(errs, fmt.Errorf("analysis.hop_seconds must be positive, got %g", a.HopSeconds))
	}
	if a.FrameSeconds < a.HopSeconds {
		errs = append(errs, fmt.Errorf("analysis.frame_seconds (%g) must be at least hop_seconds (%g)", a.FrameSeconds, a.HopSeconds))
	}
	if _, err := analysis.ParseWindowFunc(a.Window); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	}
	if a.LogCompress && !(a.LogGamma > 0) {
		errs = append(errs, fmt.Errorf("analysis.log_gamma must be positive, got %g", a.LogGamma))
	}
	if !(a.MinBPM > 0) || a.MaxBPM <= a.MinBPM {
		errs = append(errs, fmt.Errorf("analysis tempo range [%g, %g] is invalid", a.MinBPM, a.MaxBPM))
	}
	if !(a.PriorBPM > 0) || !(a.PriorOctaves > 0) {
		errs = append(errs, fmt.Errorf("analysis tempo prior (%g BPM, %g octaves) must be positive", a.PriorBPM, a.PriorOctaves))
	}
	if a.TieTolerance < 0 || a.TieTolerance >= 1 {
		errs = append(errs, fmt.Errorf("analysis.tie_tolerance must be in [0, 1), got %g", a.TieTolerance))
	}
	if !(a.Tightness > 0) {
		errs = append(errs, fmt.Errorf("analysis.tightness must be positive, got %g", a.Tightness))
	}
	if a.StartPenalty < 0 {
		errs = append(errs, fmt.Errorf("analysis.start_penalty must not be negative, got %g", a.StartPenalty))
	}

	// Decoder
	if c.Decoder.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("decoder.sample_rate must be positive, got %d", c.Decoder.SampleRate))
	}

	// Server
	if c.Server.MaxJobs < 1 {
		errs = append(errs, fmt.Errorf("server.max_jobs must be at least 1, got %d", c.Server.MaxJobs))
	}

	// Batch
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers))
	}
	if c.Batch.Order != OrderSorted && c.Batch.Order != OrderDirectory {
		errs = append(errs, fmt.Errorf("batch.order must be %q or %q, got %q", OrderSorted, OrderDirectory, c.Batch.Order))
	}

	// Transport
	if c.Transport.UDPEnabled && !strings.Contains(c.Transport.UDPTargetAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies RHYTHM_* environment variables on top of the
// file values. Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("RHYTHM_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Debugf("Config: Overriding log_level from env: %s", val)
	}

	// RHYTHM_LIBRARY_{...}
	if val, ok := os.LookupEnv("RHYTHM_ROOT"); ok {
		c.Library.Root = val
		applog.Debugf("Config: Overriding library.root from env: %s", val)
	}
	if val, ok := os.LookupEnv("RHYTHM_MUSIC_DIR"); ok {
		c.Library.MusicDir = val
		applog.Debugf("Config: Overriding library.music_dir from env: %s", val)
	}
	if val, ok := os.LookupEnv("RHYTHM_PLAYLIST_FILE"); ok {
		c.Library.PlaylistFile = val
		applog.Debugf("Config: Overriding library.playlist_file from env: %s", val)
	}

	if val, ok := os.LookupEnv("RHYTHM_MIN_BEAT_DURATION"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Analysis.MinBeatDuration = f
			applog.Debugf("Config: Overriding analysis.min_beat_duration from env: %g", f)
		} else {
			applog.Warnf("Config: Ignoring RHYTHM_MIN_BEAT_DURATION=%q: %v", val, err)
		}
	}

	if val, ok := os.LookupEnv("RHYTHM_FFMPEG_PATH"); ok {
		c.Decoder.FFmpegPath = val
		applog.Debugf("Config: Overriding decoder.ffmpeg_path from env: %s", val)
	}

	if val, ok := os.LookupEnv("RHYTHM_SERVER_ADDR"); ok {
		c.Server.Addr = val
		applog.Debugf("Config: Overriding server.addr from env: %s", val)
	}

	if val, ok := os.LookupEnv("RHYTHM_BATCH_WORKERS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Batch.Workers = n
			applog.Debugf("Config: Overriding batch.workers from env: %d", n)
		} else {
			applog.Warnf("Config: Ignoring RHYTHM_BATCH_WORKERS=%q: %v", val, err)
		}
	}

	// RHYTHM_UDP_{...}
	if val, ok := os.LookupEnv("RHYTHM_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
			applog.Debugf("Config: Overriding transport.udp_enabled from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("RHYTHM_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Debugf("Config: Overriding transport.udp_target_address from env: %s", val)
	}
}
