package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lostfound/internal/item/store"
	"lostfound/internal/platform/config"
	"lostfound/internal/platform/database"
)

func newMigrateCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if err := migrateUp(cmd.Context(), cfg.Store); err != nil {
				return err
			}
			cmd.Println("schema up to date")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations (postgres only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requirePostgres(*cfgFile)
			if err != nil {
				return err
			}
			if err := database.Rollback(cfg.Store.DatabaseURL, steps); err != nil {
				return err
			}
			cmd.Printf("reverted %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version (postgres only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requirePostgres(*cfgFile)
			if err != nil {
				return err
			}
			v, dirty, err := database.Version(cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(down, versionCmd)
	return cmd
}

func migrateUp(ctx context.Context, cfg config.StoreConfig) error {
	switch cfg.Driver {
	case config.StorePostgres:
		return database.Migrate(cfg.DatabaseURL)
	case config.StoreSQLite:
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.EnsureSchema(ctx)
	case config.StoreMemory:
		return nil
	}
	return fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func requirePostgres(cfgFile string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver != config.StorePostgres {
		return nil, fmt.Errorf("this command needs the postgres store, configured driver is %q", cfg.Store.Driver)
	}
	return cfg, nil
}
