package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/config"
	"github.com/bryan-buckman/feedcolumns/internal/database"
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/migration/all"
	"github.com/bryan-buckman/feedcolumns/internal/rss"
	"github.com/bryan-buckman/feedcolumns/internal/server"
	"github.com/bryan-buckman/feedcolumns/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// version is set at build time.
var version = "dev"

const shutdownTimeout = 10 * time.Second

var errNoDocument = errors.New("no state document stored")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:          "feedcolumns",
		Short:        "Feed columns server and state document tooling",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.DBPath, "db", a.cfg.DBPath, "SQLite database path")
	flags.StringVar(&a.cfg.DatabaseURL, "database-url", a.cfg.DatabaseURL, "PostgreSQL connection URL; overrides --db")

	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.checkCmd(), a.versionCmd())
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func (a *app) openDB(ctx context.Context) (database.Store, error) {
	if a.cfg.DatabaseURL == "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := database.Open(ctx, a.cfg.DatabaseURL, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Database opened", zap.String("type", db.DatabaseType()))
	return db, nil
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the stored state and serve the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, db.Close()) }()

			store, err := state.Open(ctx, a.logger, db, migration.NewMigrator(a.logger, all.Registry()))
			if err != nil {
				return err
			}

			fetcher := rss.NewFetcher(a.logger, store, db, a.cfg.GitHubFeedURL)
			var poller *rss.Poller
			if a.cfg.Poll {
				poller = rss.NewPoller(a.logger, fetcher, db)
			}
			srv := server.New(a.logger, db, store, fetcher, poller)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(a.cfg.Addr) }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			var serveErr error
			select {
			case serveErr = <-errCh:
			case s := <-sig:
				a.logger.Info("Shutting down", zap.String("signal", s.String()))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return multierr.Append(serveErr, srv.Stop(shutdownCtx))
		},
	}
	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "listen address")
	cmd.Flags().BoolVar(&a.cfg.Poll, "poll", a.cfg.Poll, "fetch subscriptions in the background")
	cmd.Flags().StringVar(&a.cfg.GitHubFeedURL, "feed-url", a.cfg.GitHubFeedURL, "host serving activity feeds")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	var (
		dryRun bool
		file   string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the stored state document to the latest schema",
		Long: `Migrate upgrades the stored state document and records the applied steps.
With --file it migrates a JSON document on disk instead and writes the result to
stdout or --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator := migration.NewMigrator(a.logger, all.Registry())
			if file != "" {
				return a.migrateFile(cmd.OutOrStdout(), migrator, file, out, dryRun)
			}
			return a.migrateDatabase(cmd.Context(), cmd.OutOrStdout(), migrator, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending steps without applying them")
	cmd.Flags().StringVar(&file, "file", "", "migrate a JSON document file instead of the database")
	cmd.Flags().StringVar(&out, "out", "", "output path for --file (default stdout)")
	return cmd
}

func printPlan(w io.Writer, migrator *migration.Migrator, doc document.Object) {
	steps := migrator.Plan(doc)
	fmt.Fprintf(w, "version %d, latest %d, %d pending\n", document.Version(doc), migrator.Latest(), len(steps))
	for _, s := range steps {
		fmt.Fprintf(w, "  %04d %s\n", s.Version(), s.MigrationName())
	}
}

func (a *app) migrateFile(w io.Writer, migrator *migration.Migrator, path, out string, dryRun bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := document.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if dryRun {
		printPlan(w, migrator, doc)
		return nil
	}

	migrated, _, err := migrator.Migrate(doc)
	if err != nil {
		return err
	}
	if err := state.Check(migrated); err != nil {
		return err
	}
	b, err := document.Encode(migrated)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

func (a *app) loadDocument(ctx context.Context, db database.Store) (document.Object, error) {
	data, _, found, err := db.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNoDocument
	}
	return document.Parse(data)
}

func (a *app) migrateDatabase(ctx context.Context, w io.Writer, migrator *migration.Migrator, dryRun bool) (err error) {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	doc, err := a.loadDocument(ctx, db)
	if err != nil {
		return err
	}
	if dryRun {
		printPlan(w, migrator, doc)
		return nil
	}

	migrated, res, err := migrator.Migrate(doc)
	if err != nil {
		return err
	}
	if res.Ahead {
		fmt.Fprintf(w, "document version %d is newer than this build (%d); nothing to do\n", res.From, migrator.Latest())
		return nil
	}
	if len(res.Applied) == 0 {
		fmt.Fprintf(w, "document is at version %d\n", res.From)
		return nil
	}
	if err := state.Check(migrated); err != nil {
		return err
	}
	b, err := document.Encode(migrated)
	if err != nil {
		return err
	}
	if err := db.SaveMigration(ctx, b, res.To, state.Records(res.Applied)); err != nil {
		return err
	}
	fmt.Fprintf(w, "migrated %d -> %d (%d steps)\n", res.From, res.To, len(res.Applied))
	return nil
}

func (a *app) checkCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Migrate the state document in memory and verify its invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (retErr error) {
			ctx := cmd.Context()
			var doc document.Object
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if doc, err = document.Parse(data); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			} else {
				db, err := a.openDB(ctx)
				if err != nil {
					return err
				}
				defer func() { retErr = multierr.Append(retErr, db.Close()) }()
				if doc, err = a.loadDocument(ctx, db); err != nil {
					return err
				}
			}

			migrator := migration.NewMigrator(a.logger, all.Registry())
			printPlan(cmd.OutOrStdout(), migrator, doc)
			migrated, _, err := migrator.Migrate(doc)
			if err != nil {
				return err
			}
			if err := state.Check(migrated); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "check a JSON document file instead of the database")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build and schema versions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedcolumns %s (schema %d)\n", version, all.Latest())
		},
	}
}
