package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/go-radio-catalog/internal/export"
	"github.com/justestif/go-radio-catalog/internal/track"
)

func cmdResolve(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <playlist.csv>",
		Short: "Resolve a playlist against the library and reference index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := track.ReadPlaylistFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.newResolver(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			matches := res.Resolve(rows)
			printMatches(cmd.OutOrStdout(), matches)
			return nil
		},
	}
	addResolverFlags(cmd)
	return cmd
}

func cmdExport(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <playlist.csv>",
		Short: "Resolve a playlist and write VirtualDJ and M3U8 exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			formats, err := export.ParseFormats(formatFlag)
			if err != nil {
				return err
			}
			modeFlag, _ := cmd.Flags().GetString("mode")
			mode, err := export.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			newName, _ := cmd.Flags().GetString("name")
			generic, _ := cmd.Flags().GetBool("generic-search")

			rows, err := track.ReadPlaylistFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.newResolver(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			matches := res.Resolve(rows)

			listName, _ := cmd.Flags().GetString("list")
			if strings.TrimSpace(listName) == "" {
				listName = track.InferPlaylistName(args[0])
			}
			opts := export.Options{Mode: mode, NewName: newName, GenericSearch: generic}

			for _, f := range formats {
				dir := a.exportDir(cmd, f)
				path, err := export.New(dir, export.WithLogger(a.log)).Export(f, listName, matches, opts)
				if err != nil {
					return fmt.Errorf("exporting %s: %w", f, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			printSummary(cmd.OutOrStdout(), matches)
			return nil
		},
	}
	cmd.Flags().String("format", "both", "Output format: vdjfolder, m3u8 or both")
	cmd.Flags().String("mode", "replace", "Write mode: replace, add or save_as_new")
	cmd.Flags().String("list", "", "List name (default inferred from the CSV name)")
	cmd.Flags().String("name", "", "Alternate list name for save_as_new")
	cmd.Flags().Bool("generic-search", false, "Export unresolved rows as search:// URIs in folders")
	cmd.Flags().String("out", "", "Output directory for every format")
	addResolverFlags(cmd)
	return cmd
}

func (a *app) exportDir(cmd *cobra.Command, f export.Format) string {
	if d, _ := cmd.Flags().GetString("out"); d != "" {
		return d
	}
	if f == export.FormatVDJFolder && a.cfg.VDJMyListDir != "" {
		return a.cfg.VDJMyListDir
	}
	return a.cfg.PlaylistDir
}
