package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-radio-catalog/internal/catalog"
	"github.com/justestif/go-radio-catalog/internal/db"
	"github.com/justestif/go-radio-catalog/internal/sync"
	"github.com/justestif/go-radio-catalog/internal/web"
)

func cmdSync(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the cumulative catalog into PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DatabaseURL == "" {
				return errors.New("no database configured (RADIOCAT_DATABASE_URL)")
			}
			ctx := cmd.Context()

			c, err := catalog.Load(a.catalogPath(cmd))
			if err != nil {
				return err
			}

			database, err := db.New(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.EnsureSchema(ctx); err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool("force")
			svc := sync.New(database,
				sync.WithSyncCooldown(a.cfg.SyncCooldown),
				sync.WithLogger(a.log),
			)
			res, err := svc.SyncCatalog(ctx, c.Rows(), force)
			if err != nil {
				return err
			}

			total, err := database.Catalog().Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d rows in %d batches; mirror holds %d rows\n",
				res.RowsCount, res.Batches, total)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Ignore the sync cooldown")
	cmd.Flags().String("catalog-dir", "", "Directory of the cumulative catalog")
	cmd.Flags().String("stations", "", "Station set name used in the catalog file name")
	return cmd
}

func cmdServe(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and resolver over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.newResolver(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			server, err := web.NewServer(web.ServerConfig{
				Addr:     addr,
				Catalog:  web.CatalogFile(a.catalogPath(cmd)),
				Resolver: res,
				Logger:   a.log,
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			return server.Run()
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default RADIOCAT_LISTEN_ADDR)")
	cmd.Flags().String("catalog-dir", "", "Directory of the cumulative catalog")
	cmd.Flags().String("stations", "", "Station set name used in the catalog file name")
	addResolverFlags(cmd)
	return cmd
}
