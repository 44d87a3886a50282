package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/logging"
	"github.com/Rrens/smm-bot/internal/repository/postgres"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the SMM bot database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(mg *postgres.Migrator) error {
			return mg.Up()
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration, dropping all tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if force, _ := cmd.Flags().GetBool("yes"); !force {
			return fmt.Errorf("refusing to drop all tables without --yes")
		}
		return withMigrator(func(mg *postgres.Migrator) error {
			return mg.Down()
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(mg *postgres.Migrator) error {
			version, dirty, err := mg.Version()
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	downCmd.Flags().Bool("yes", false, "confirm dropping all tables")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func withMigrator(fn func(mg *postgres.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(cfg.Logging, os.Getenv("ENV")); err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	mg, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
