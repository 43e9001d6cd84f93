package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/justestif/go-radio-catalog/internal/library"
	"github.com/justestif/go-radio-catalog/internal/reference"
	"github.com/justestif/go-radio-catalog/internal/resolver"
)

func cmdScan(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan library roots and refresh the local index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roots, _ := cmd.Flags().GetStringArray("root")
			if len(roots) == 0 {
				var err error
				if roots, err = a.cfg.Roots(); err != nil {
					return err
				}
			}
			indexPath := a.indexPath(cmd)

			store := library.NewStore(indexPath)
			existing, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading library index: %w", err)
			}

			scanner := library.NewScanner(library.WithLogger(a.log))
			idx, stats, err := scanner.Scan(cmd.Context(), roots, existing)
			if err != nil {
				return fmt.Errorf("scanning library: %w", err)
			}
			if err := store.Save(cmd.Context(), idx); err != nil {
				return fmt.Errorf("saving library index: %w", err)
			}

			printScanStats(cmd.OutOrStdout(), stats, idx.Len())
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Index saved to %s\n", indexPath)
			return nil
		},
	}
	cmd.Flags().StringArrayP("root", "r", nil, "Library root to scan (repeatable)")
	cmd.Flags().String("index", "", "Library index path")
	return cmd
}

func cmdReference(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Parse the VirtualDJ database and report reference entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.vdjPath(cmd)
			if path == "" {
				return fmt.Errorf("no VirtualDJ database configured (--vdj-db or RADIOCAT_VDJ_DATABASE)")
			}
			idx := reference.Load(path, a.log)
			fmt.Fprintf(cmd.OutOrStdout(), "%d reference entries, %d with a NetSearch id\n",
				idx.Len(), len(idx.ReferenceIDs()))
			return nil
		},
	}
	cmd.Flags().String("vdj-db", "", "VirtualDJ database.xml path")
	return cmd
}

func (a *app) indexPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("index"); p != "" {
		return p
	}
	return a.cfg.IndexPath
}

func (a *app) vdjPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("vdj-db"); p != "" {
		return p
	}
	return a.cfg.VDJDatabasePath
}

// newResolver loads the persisted library index and the reference
// database. Either may be empty; resolution then degrades.
func (a *app) newResolver(ctx context.Context, cmd *cobra.Command) (*resolver.Resolver, error) {
	lib, err := library.NewStore(a.indexPath(cmd)).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading library index: %w", err)
	}
	if lib.Len() == 0 {
		a.log.Warn("library index is empty; run `radiocat scan` first")
	}

	ref := reference.NewIndex()
	if path := a.vdjPath(cmd); path != "" {
		ref = reference.Load(path, a.log)
	}

	cfg := a.cfg.Resolver()
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold, _ = cmd.Flags().GetInt("threshold")
	}
	return resolver.New(lib, ref, resolver.WithConfig(cfg), resolver.WithLogger(a.log)), nil
}

func addResolverFlags(cmd *cobra.Command) {
	cmd.Flags().String("index", "", "Library index path")
	cmd.Flags().String("vdj-db", "", "VirtualDJ database.xml path")
	cmd.Flags().Int("threshold", resolver.DefaultConfig().Threshold, "Fuzzy match threshold (0-100)")
}
