package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpggio/arcview/internal/config"
	"github.com/rpggio/arcview/internal/firestore"
	"github.com/rpggio/arcview/internal/repository"
	"github.com/rpggio/arcview/internal/sqlite"
)

type flags struct {
	logLevel  string
	dbPath    string
	backend   string
	transport string
}

// env is the runtime shared by every subcommand.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
}

func rootCommand() *cobra.Command {
	f := &flags{}
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "arcview",
		Short:         "Browse archaeological sherd data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&f.dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&f.backend, "backend", "", "document store: sqlite or firestore")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		f.apply(&cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		e.cfg = cfg

		logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		e.logger = logger
		e.closer = closer
		return nil
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if e.closer != nil {
			return e.closer.Close()
		}
		return nil
	}

	rootCmd.AddCommand(
		serveCommand(e, f),
		projectsCommand(e),
		aggregateCommand(e),
		queryCommand(e),
		seedCommand(e),
	)
	return rootCmd
}

func (f *flags) apply(cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Log.Level = strings.ToLower(f.logLevel)
	}
	if f.dbPath != "" {
		cfg.DB.Path = f.dbPath
	}
	if f.backend != "" {
		cfg.Store.Backend = strings.ToLower(f.backend)
	}
	if f.transport != "" {
		cfg.Transport.Mode = strings.ToLower(f.transport)
	}
}

// newLogger writes to stderr so stdout stays clean for JSON output and the
// stdio transport. ARC_LOG_PATH redirects logs to a size-capped file.
func newLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var (
		w      = stderr
		closer io.Closer
	)
	if logPath := os.Getenv("ARC_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			return nil, nil, fmt.Errorf("log file error: %w", err)
		}
		w, closer = fileWriter, file
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closer, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// stores are the opened storage backends of one command.
type stores struct {
	db        *sqlite.DB
	documents interface {
		repository.DocumentStore
		repository.DocumentWriter
	}
	activity *sqlite.ActivityRepository
	closeFns []func() error
}

func (s *stores) Close() error {
	var firstErr error
	for i := len(s.closeFns) - 1; i >= 0; i-- {
		if err := s.closeFns[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openStores opens the SQLite database, which always holds the activity
// log, and the configured document store.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &stores{db: db, closeFns: []func() error{db.Close}}

	if err := db.RunMigrations(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.activity = sqlite.NewActivityRepository(db)

	switch cfg.Store.Backend {
	case config.BackendFirestore:
		fs, err := firestore.New(ctx, firestore.Config{
			ProjectID:       cfg.Store.Firestore.ProjectID,
			Database:        cfg.Store.Firestore.Database,
			CredentialsFile: cfg.Store.Firestore.CredentialsFile,
		})
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.documents = fs
		s.closeFns = append(s.closeFns, fs.Close)
	default:
		s.documents = sqlite.NewDocumentRepository(db)
	}
	return s, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
