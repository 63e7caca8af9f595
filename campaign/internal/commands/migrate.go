package commands

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back database migrations",
	Long: `Apply database migrations from database.migrations_path.

Examples:
  # Apply all pending migrations
  campaign migrate

  # Roll back every migration
  campaign migrate down`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := "up"
		if len(args) == 1 {
			direction = args[0]
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		if err := runMigrations(cfg.Database.MigrationsPath, cfg.Database.Postgres.ConnString(), direction); err != nil {
			return err
		}
		logger.Info("database migrations completed", "direction", direction)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// runMigrations applies migrations from source in direction. An up-to-date
// database is not an error.
func runMigrations(source, connString, direction string) error {
	m, err := migrate.New(source, connString)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
