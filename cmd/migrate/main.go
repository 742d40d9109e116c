package main

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/regwatch/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	var dsn string
	var verbose bool

	open := func() (*migrate.Migrate, error) {
		if dsn == "" {
			db, err := config.LoadDatabase()
			if err != nil {
				return nil, err
			}
			dsn = db.Dsn()
		}

		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("migration source: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
		if err != nil {
			return nil, fmt.Errorf("open migrator: %w", err)
		}
		m.Log = migrateLogger{logger: logger, verbose: verbose}
		return m, nil
	}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or inspect regwatch database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "Connection URL (defaults to the [database] config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each migration as it runs")

	run := func(use, short string, args cobra.PositionalArgs, fn func(m *migrate.Migrate, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer closeMigrator(m, logger)
				return fn(m, args)
			},
		}
	}

	root.AddCommand(
		run("up", "Apply all pending migrations", cobra.NoArgs, func(m *migrate.Migrate, _ []string) error {
			return report(logger, m, "up", m.Up())
		}),
		run("down", "Revert all migrations", cobra.NoArgs, func(m *migrate.Migrate, _ []string) error {
			return report(logger, m, "down", m.Down())
		}),
		run("steps N", "Apply N migrations (negative N reverts)", cobra.ExactArgs(1), func(m *migrate.Migrate, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("steps: %q is not a non-zero integer", args[0])
			}
			return report(logger, m, "steps "+args[0], m.Steps(n))
		}),
		run("force VERSION", "Set the version without running migrations, clearing the dirty flag", cobra.ExactArgs(1), func(m *migrate.Migrate, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("force: %q is not an integer", args[0])
			}
			if err := m.Force(v); err != nil {
				return fmt.Errorf("force %d: %w", v, err)
			}
			logger.Warn("migration version forced", "version", v)
			return nil
		}),
		run("version", "Print the current migration version", cobra.NoArgs, func(m *migrate.Migrate, _ []string) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("version: none")
				return nil
			}
			if err != nil {
				return fmt.Errorf("version: %w", err)
			}
			fmt.Printf("version: %d, dirty: %v\n", v, dirty)
			return nil
		}),
	)

	return root
}

func report(logger *slog.Logger, m *migrate.Migrate, op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply", "op", op)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	v, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		logger.Info("migrations complete", "op", op, "version", "none")
	case verr != nil:
		logger.Warn("migrations complete, version unavailable", "op", op, "error", verr)
	default:
		logger.Info("migrations complete", "op", op, "version", v, "dirty", dirty)
	}
	return nil
}

func closeMigrator(m *migrate.Migrate, logger *slog.Logger) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.Warn("migrator close failed", "error", err)
	}
}

// migrateLogger adapts slog to the migrate.Logger interface.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "migrate")
}

func (l migrateLogger) Verbose() bool {
	return l.verbose
}
