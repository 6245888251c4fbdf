package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/config"
)

// migrateCmd applies the SQL schema in migrations/ against DATABASE_URL.
// "down" rolls back exactly one step; anything else (including no args)
// migrates up to the latest version.
func migrateCmd() *cobra.Command {
	var migrationsPath string
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the database schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			return runMigrate(migrationsPath, direction)
		},
	}
	cmd.Flags().StringVar(&migrationsPath, "path", "migrations", "directory containing the migration SQL files")
	return cmd
}

func runMigrate(path, direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", path), pgx5URL(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "down":
		err = m.Steps(-1)
	default:
		err = m.Up()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	fmt.Printf("migrate %s: ok\n", direction)
	return nil
}

// pgx5URL rewrites a postgres://... or postgresql://... DSN's scheme to
// pgx5, the scheme the golang-migrate pgx/v5 driver registers itself
// under, so the same DATABASE_URL used for the application pool also
// drives migrations.
func pgx5URL(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return "pgx5" + dsn[i:]
	}
	return dsn
}
