// Package cli defines the cobra command tree for itrack.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/issue-tracker/internal/client"
	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/config"
	"github.com/evcraddock/issue-tracker/internal/db"
	"github.com/evcraddock/issue-tracker/internal/logging"
	"github.com/evcraddock/issue-tracker/internal/version"
	"github.com/evcraddock/issue-tracker/internal/web"
)

var (
	flagFormat string
	flagDB     string
	flagDriver string
	flagConfig string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "itrack",
		Short:         "Manage issue comments and project versions",
		Long:          "A tool to record comments on issues and the versions of projects, from the command line or over a JSON API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "database path or DSN (default: ~/.config/itrack/tracker.db)")
	root.PersistentFlags().StringVar(&flagDriver, "driver", "", "database driver (sqlite3|sqlite|pgx)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.config/itrack/config.yaml)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL; when set, commands go over HTTP instead of the database")

	root.AddCommand(
		newCommentsCmd(),
		newCommentCmd(),
		newVersionsCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// session bundles what a command needs to reach storage: the local
// repositories, or the API client when a server URL is configured.
type session struct {
	cfg      config.Config
	log      *slog.Logger
	db       *db.DB
	comments web.CommentStore
	versions web.VersionStore
	closers  []io.Closer
}

// openSession loads configuration, applies the global flags, sets up
// logging and opens the database or the API client.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.Setup(logging.Options{
		Dev:        cfg.Log.Dev,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Server.URL != "" {
		c := client.New(cfg.Server.URL)
		return &session{
			cfg:      cfg,
			log:      logger,
			comments: c,
			versions: c.Versions(),
			closers:  []io.Closer{logCloser},
		}, nil
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		closeQuietly(logCloser)
		return nil, err
	}

	return &session{
		cfg:      cfg,
		log:      logger,
		db:       database,
		comments: comment.NewRepository(database, logger),
		versions: version.NewRepository(database, logger),
		closers:  []io.Closer{database, logCloser},
	}, nil
}

// loadConfig returns the effective configuration: the config file, .env and
// environment, then the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDriver != "" {
		cfg.Database.Driver = flagDriver
	}
	if flagDB != "" {
		cfg.Database.DSN = flagDB
	}
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}
	return cfg, nil
}

// Close releases the database (if open) and the log file.
func (s *session) Close() {
	for _, c := range s.closers {
		closeQuietly(c)
	}
}

// closeQuietly closes c, reporting any error to stderr.
func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing: %v\n", err)
	}
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
