// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/Brian099/music-rhythm-test/internal/catalog"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the rhythm record of one song without saving it",
		Long: "Analyse a file from the music directory and print its rhythm record as JSON.\n" +
			"The file name is relative to the music directory; nothing is written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cat, err := newCatalog(cfg, false, nil)
			if err != nil {
				return err
			}

			rec, result, err := cat.Analyze(args[0], cfg.Analysis.MinBeatDuration)
			if err != nil {
				return err
			}
			if result.Degenerate() {
				cmd.PrintErrln("No beats detected")
			}
			data, err := catalog.EncodeRecord(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the songs in the music directory and whether they have rhythm data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cat, err := newCatalog(cfg, true, nil)
			if err != nil {
				return err
			}
			listing, err := cat.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFILE\tDATA\tTITLE")
			for _, song := range listing.Songs {
				data := "-"
				if song.HasData {
					data = song.DataSrc
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", song.Name, song.AudioFile, data, song.Title)
			}
			return w.Flush()
		},
	}

	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON, as served on /playlist.json")
	return listCmd
}
