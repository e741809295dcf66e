// SPDX-License-Identifier: MIT
package config

// Defaults for every configuration value: music under ./music, manifest in
// ./playlist.json, 0.1s minimum gap between beats.
const (
	DefaultLogLevel = "info"

	// Library layout
	DefaultRoot         = "."
	DefaultMusicDir     = "music"
	DefaultPlaylistFile = "playlist.json"
	DefaultIndexFile    = "index.html"

	// Analysis
	DefaultMinBeatDuration = 0.1   // Seconds between emitted beats (anti-flicker).
	DefaultFrameSeconds    = 0.046 // ~1024 samples at 22050 Hz.
	DefaultHopSeconds      = 0.01  // 10ms onset resolution.
	DefaultWindow          = "hann"
	DefaultLogGamma        = 100.0
	DefaultMinBPM          = 30.0
	DefaultMaxBPM          = 300.0
	DefaultPriorBPM        = 120.0
	DefaultPriorOctaves    = 1.0
	DefaultTieTolerance    = 0.01
	DefaultTightness       = 100.0
	DefaultStartPenalty    = 0.5

	// Decoder
	DefaultFFmpegPath = "ffmpeg"
	DefaultSampleRate = 22050

	// Server
	DefaultServerAddr = ":8000"
	DefaultMaxJobs    = 2

	// Batch
	DefaultWorkers = 1 // Sequential unless asked otherwise.
	OrderSorted    = "sorted"
	OrderDirectory = "directory"

	// Transport
	DefaultUDPTargetAddress = "127.0.0.1:9090"
)

// Config is the complete runtime configuration. It is built from defaults,
// an optional YAML file, RHYTHM_* environment variables and finally CLI
// flags, then passed explicitly to every component.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn or error.
	Library   LibraryConfig   `yaml:"library"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Server    ServerConfig    `yaml:"server"`
	Batch     BatchConfig     `yaml:"batch"`
	Transport TransportConfig `yaml:"transport"`
}

// LibraryConfig describes where audio, records and the manifest live.
type LibraryConfig struct {
	Root         string `yaml:"root"`          // Base directory every other path is relative to.
	MusicDir     string `yaml:"music_dir"`     // Audio files and their rhythm records.
	PlaylistFile string `yaml:"playlist_file"` // Playlist manifest written by batch export.
	IndexFile    string `yaml:"index_file"`    // Page served at "/".
}

// AnalysisConfig holds the beat detection settings.
type AnalysisConfig struct {
	MinBeatDuration float64 `yaml:"min_beat_duration"` // Default anti-flicker gap in seconds.
	FrameSeconds    float64 `yaml:"frame_seconds"`     // STFT window length.
	HopSeconds      float64 `yaml:"hop_seconds"`       // STFT hop.
	Window          string  `yaml:"window"`            // STFT window function name.
	LogCompress     bool    `yaml:"log_compress"`      // Log-compress magnitudes before flux.
	LogGamma        float64 `yaml:"log_gamma"`         // Log compression strength.
	MinBPM          float64 `yaml:"min_bpm"`           // Slowest tempo considered.
	MaxBPM          float64 `yaml:"max_bpm"`           // Fastest tempo considered.
	PriorBPM        float64 `yaml:"prior_bpm"`         // Tempo prior centre.
	PriorOctaves    float64 `yaml:"prior_octaves"`     // Tempo prior width.
	TieTolerance    float64 `yaml:"tie_tolerance"`     // Relative strength treated as a tie.
	Tightness       float64 `yaml:"tightness"`         // Beat tracker tempo adherence.
	StartPenalty    float64 `yaml:"start_penalty"`     // Cost of a late first beat.
	Trim            bool    `yaml:"trim"`              // Drop weak beats at both ends.
}

// DecoderConfig configures audio decoding.
type DecoderConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"` // ffmpeg binary for mp3/flac/ogg.
	SampleRate int    `yaml:"sample_rate"` // ffmpeg output rate in Hz.
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr      string `yaml:"addr"`      // Listen address.
	MaxJobs   int    `yaml:"max_jobs"`  // Concurrent generation requests.
	WebSocket bool   `yaml:"websocket"` // Serve generation events on /ws.
}

// BatchConfig configures batch export.
type BatchConfig struct {
	Workers  int    `yaml:"workers"`  // Songs analysed in parallel.
	Order    string `yaml:"order"`    // "sorted" or "directory".
	Progress bool   `yaml:"progress"` // Show a progress bar.
}

// TransportConfig configures where generation events are published.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send events as UDP datagrams.
	UDPTargetAddress string `yaml:"udp_target_address"` // host:port of the receiver.
	LogEvents        bool   `yaml:"log_events"`         // Log every published event.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Library: LibraryConfig{
			Root:         DefaultRoot,
			MusicDir:     DefaultMusicDir,
			PlaylistFile: DefaultPlaylistFile,
			IndexFile:    DefaultIndexFile,
		},
		Analysis: AnalysisConfig{
			MinBeatDuration: DefaultMinBeatDuration,
			FrameSeconds:    DefaultFrameSeconds,
			HopSeconds:      DefaultHopSeconds,
			Window:          DefaultWindow,
			LogCompress:     false,
			LogGamma:        DefaultLogGamma,
			MinBPM:          DefaultMinBPM,
			MaxBPM:          DefaultMaxBPM,
			PriorBPM:        DefaultPriorBPM,
			PriorOctaves:    DefaultPriorOctaves,
			TieTolerance:    DefaultTieTolerance,
			Tightness:       DefaultTightness,
			StartPenalty:    DefaultStartPenalty,
			Trim:            true,
		},
		Decoder: DecoderConfig{
			FFmpegPath: DefaultFFmpegPath,
			SampleRate: DefaultSampleRate,
		},
		Server: ServerConfig{
			Addr:      DefaultServerAddr,
			MaxJobs:   DefaultMaxJobs,
			WebSocket: true,
		},
		Batch: BatchConfig{
			Workers: DefaultWorkers,
			Order:   OrderSorted,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}
