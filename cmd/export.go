// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/Brian099/music-rhythm-test/internal/catalog"
	"github.com/Brian099/music-rhythm-test/internal/config"
	applog "github.com/Brian099/music-rhythm-test/internal/log"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		workers  int
		order    string
		progress bool
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Analyse every song in the music directory and rebuild the playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers = workers
			}
			if cmd.Flags().Changed("order") {
				cfg.Batch.Order = order
			}
			if cmd.Flags().Changed("progress") {
				cfg.Batch.Progress = progress
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runExport(cmd, cfg)
		},
	}

	exportCmd.Flags().IntVarP(&workers, "workers", "w", config.DefaultWorkers,
		"Songs analysed in parallel")
	exportCmd.Flags().StringVar(&order, "order", config.OrderSorted,
		"Processing order: sorted or directory")
	exportCmd.Flags().BoolVarP(&progress, "progress", "p", false,
		"Show a progress bar")
	return exportCmd
}

func runExport(cmd *cobra.Command, cfg *config.Config) error {
	tr, err := newTransports(cfg, nil)
	if err != nil {
		return err
	}
	defer tr.Close()

	cat, err := newCatalog(cfg, false, tr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	onItem, finish := exportReporter(cat, cfg.Batch.Progress, out)
	summary, err := cat.Export(cmd.Context(), onItem)
	finish()

	for _, it := range summary.Items {
		switch {
		case it.Err != nil:
			fmt.Fprintf(out, "  %s: failed: %v\n", it.Filename, it.Err)
		case !it.Persisted:
			fmt.Fprintf(out, "  %s: no beats detected, skipped\n", it.Filename)
		default:
			fmt.Fprintf(out, "  %s: %d beats, BPM %.1f -> %s\n", it.Filename, it.Beats, it.BPM, it.DataSrc)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "All done! %d songs written, %d failed. Playlist saved to %s\n",
		summary.Written(), summary.Failed(), filepath.Join(cfg.Library.Root, cfg.Library.PlaylistFile))
	return nil
}

// exportReporter returns the per-song callback for Export and a function
// to call once it returns. With progress enabled it drives a progress
// bar; otherwise songs are logged as they finish.
func exportReporter(cat *catalog.Catalog, progress bool, out io.Writer) (func(catalog.ExportItem), func()) {
	if !progress {
		return func(it catalog.ExportItem) {
			if it.Err == nil {
				applog.Infof("Export: Processed %s (%d beats)", it.Filename, it.Beats)
			}
		}, func() {}
	}

	total := 0
	if listing, err := cat.List(); err == nil {
		total = len(listing.Songs)
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Exporting: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
	return func(catalog.ExportItem) {
			bar.Increment()
		}, func() {
			// Completes the bar on cancellation or when the listing raced
			// with changes to the directory.
			bar.SetTotal(-1, true)
			p.Wait()
		}
}
