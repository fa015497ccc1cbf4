package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/patentbot/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "PATENTBOT_DB_DSN"

var dsn string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the patentbot database schema",
	Long: `migrate applies the embedded schema migrations. The connection is
taken from --dsn, then PATENTBOT_DB_DSN, then the database section of
the server configuration (config.toml with its environment overlay).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("revert migrations: %w", err)
		}
		fmt.Println("migrations reverted")
		return nil
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps <n>",
	Short: "Apply n migrations (negative n reverts)",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("steps must be a non-zero integer")
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("run %d steps: %w", n, err)
		}
		fmt.Printf("applied %d migration steps\n", n)
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Printf("forced to version %d\n", v)
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres connection url")
	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withMigrator(fn func(*migrate.Migrate, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url, err := resolveDSN()
		if err != nil {
			return err
		}

		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return fmt.Errorf("create migration source: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", source, url)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer m.Close()

		return fn(m, args)
	}
}

func resolveDSN() (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("no --dsn or %s, and config load failed: %w", envDSN, err)
	}
	return cfg.Database.URL(), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
