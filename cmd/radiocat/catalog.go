package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/justestif/go-radio-catalog/internal/catalog"
)

func cmdMerge(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge per-run tables into the cumulative catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, _ := cmd.Flags().GetStringArray("run")
			if len(runs) == 0 {
				return errors.New("at least one --run table is required")
			}
			runDate, err := parseDateFlag(cmd, "date", time.Now())
			if err != nil {
				return err
			}
			source, _ := cmd.Flags().GetString("source")

			var obs []catalog.Observation
			for _, path := range runs {
				o, err := catalog.ReadRunFile(path, source)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				obs = append(obs, o...)
			}
			obs = catalog.Consolidate(obs)

			if out, _ := cmd.Flags().GetString("consolidated"); out != "" {
				if err := writeRunTable(out, obs); err != nil {
					return err
				}
			}

			lock, err := catalog.AcquireLock(a.lockPath(cmd))
			if err != nil {
				return err
			}
			defer a.releaseLock(lock)

			res, err := a.merger(cmd).Apply(obs, runDate)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run %s: %d tracks (%s added, %d updated)\n",
				runDate.Format(catalog.DateLayout), len(obs),
				color.GreenString("%d", res.Stats.Added), res.Stats.Updated)
			fmt.Fprintf(w, "Catalog %s now has %d rows\n", res.Path, res.Catalog.Len())
			return nil
		},
	}
	cmd.Flags().StringArray("run", nil, "Per-run table to merge (repeatable)")
	cmd.Flags().String("date", "", "Run date YYYY-MM-DD (default today)")
	cmd.Flags().String("source", "", "Station tag for tables without a Stations column")
	cmd.Flags().String("consolidated", "", "Also write the consolidated per-run table here")
	addCatalogFlags(cmd)
	return cmd
}

func cmdBackfill(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay dated per-run tables into the catalog in date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			pattern, _ := cmd.Flags().GetString("glob")
			paths, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return fmt.Errorf("listing run tables: %w", err)
			}
			start, err := parseDateFlag(cmd, "start", time.Time{})
			if err != nil {
				return err
			}
			end, err := parseDateFlag(cmd, "end", time.Time{})
			if err != nil {
				return err
			}

			files := catalog.DatedFiles(paths, start, end)
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No dated run tables found")
				return nil
			}

			lock, err := catalog.AcquireLock(a.lockPath(cmd))
			if err != nil {
				return err
			}
			defer a.releaseLock(lock)

			source, _ := cmd.Flags().GetString("source")
			res, err := a.merger(cmd).Backfill(files, source)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d run tables (%d skipped); catalog has %d rows\n",
				len(res.Applied), len(res.Skipped), res.Rows)
			return nil
		},
	}
	cmd.Flags().String("dir", ".", "Directory holding per-run tables")
	cmd.Flags().String("glob", "*.csv", "File pattern within --dir")
	cmd.Flags().String("start", "", "First run date to replay (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last run date to replay (YYYY-MM-DD)")
	cmd.Flags().String("source", "", "Station tag for tables without a Stations column")
	addCatalogFlags(cmd)
	return cmd
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog-dir", "", "Directory of the cumulative catalog")
	cmd.Flags().String("stations", "", "Station set name used in the catalog file name")
	cmd.Flags().Bool("no-snapshot", false, "Skip the dated snapshot copy")
}

func (a *app) catalogDir(cmd *cobra.Command) string {
	if d, _ := cmd.Flags().GetString("catalog-dir"); d != "" {
		return d
	}
	return a.cfg.CatalogDir
}

func (a *app) stations(cmd *cobra.Command) string {
	if s, _ := cmd.Flags().GetString("stations"); s != "" {
		return s
	}
	return a.cfg.Stations
}

func (a *app) catalogPath(cmd *cobra.Command) string {
	return catalog.StablePath(a.catalogDir(cmd), a.stations(cmd))
}

func (a *app) lockPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("catalog-dir") {
		return filepath.Join(a.catalogDir(cmd), catalog.LockFileName)
	}
	return a.cfg.LockPath
}

func (a *app) merger(cmd *cobra.Command) *catalog.Merger {
	opts := []catalog.MergerOption{catalog.WithLogger(a.log)}
	if skip, _ := cmd.Flags().GetBool("no-snapshot"); skip {
		opts = append(opts, catalog.WithoutSnapshots())
	}
	return catalog.NewMerger(a.catalogDir(cmd), a.stations(cmd), opts...)
}

func parseDateFlag(cmd *cobra.Command, name string, def time.Time) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(catalog.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: %w", name, v, err)
	}
	return t, nil
}

func writeRunTable(path string, obs []catalog.Observation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating consolidated table: %w", err)
	}
	if err := catalog.WriteRunTable(f, obs); err != nil {
		f.Close()
		return fmt.Errorf("writing consolidated table: %w", err)
	}
	return f.Close()
}

// releaseLock removes the run lock. A lock left behind blocks every later
// run, so a failure is logged.
func (a *app) releaseLock(lock *catalog.Lock) {
	if err := lock.Release(); err != nil {
		a.log.WithError(err).WithField("path", lock.Path()).Warn("could not remove run lock")
	}
}
