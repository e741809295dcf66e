// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"

	"github.com/Brian099/music-rhythm-test/internal/config"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/pkg/build"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand and override the loaded
// configuration when set explicitly.
type globalFlags struct {
	configPath      string
	logLevel        string
	verbose         bool
	root            string
	musicDir        string
	playlistFile    string
	minBeatDuration float64
	ffmpegPath      string
}

// Execute parses args and runs the selected command until it finishes or
// ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	buildInfo := build.GetInfo()
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Configuration
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./rhythm.yaml or ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")

	// Library Configuration
	rootCmd.PersistentFlags().StringVarP(&flags.root, "root", "r", config.DefaultRoot,
		"Directory the music directory and playlist live in")
	rootCmd.PersistentFlags().StringVarP(&flags.musicDir, "music-dir", "m", config.DefaultMusicDir,
		"Audio directory, relative to --root")
	rootCmd.PersistentFlags().StringVar(&flags.playlistFile, "playlist", config.DefaultPlaylistFile,
		"Playlist manifest, relative to --root")

	// Analysis Configuration
	rootCmd.PersistentFlags().Float64VarP(&flags.minBeatDuration, "min-beat-duration", "d", config.DefaultMinBeatDuration,
		"Minimum seconds between emitted beats")
	rootCmd.PersistentFlags().StringVar(&flags.ffmpegPath, "ffmpeg", config.DefaultFFmpegPath,
		"ffmpeg binary used to decode mp3, flac and ogg")

	rootCmd.AddCommand(
		newExportCmd(flags),
		newServeCmd(flags),
		newAnalyzeCmd(flags),
		newListCmd(flags),
	)
	return rootCmd
}

// load builds the configuration for cmd: defaults, config file,
// environment, then any flag the user set. It also applies the log level.
func (f *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	if changed("root") {
		cfg.Library.Root = f.root
	}
	if changed("music-dir") {
		cfg.Library.MusicDir = f.musicDir
	}
	if changed("playlist") {
		cfg.Library.PlaylistFile = f.playlistFile
	}
	if changed("min-beat-duration") {
		cfg.Analysis.MinBeatDuration = f.minBeatDuration
	}
	if changed("ffmpeg") {
		cfg.Decoder.FFmpegPath = f.ffmpegPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applog.SetLevel(cfg.Level())
	return cfg, nil
}
