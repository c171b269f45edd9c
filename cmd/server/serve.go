package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/server"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	port     string
	host     string
	dev      bool
	level    string
	store    string
	fixtures string
	sqlite   string
	debounce time.Duration
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and editor server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg, f)

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.port, "port", "", "server port (PORT)")
	flags.StringVar(&f.host, "host", "", "bind address (HOST)")
	flags.BoolVar(&f.dev, "dev", false, "development logging (LOG_DEV)")
	flags.StringVar(&f.level, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.StringVar(&f.store, "store", "", "memory, sqlite or remote (STORE_BACKEND)")
	flags.StringVar(&f.fixtures, "fixtures", "", "glob of fixture files to seed the store (STORE_FIXTURES)")
	flags.StringVar(&f.sqlite, "sqlite", "", "SQLite database path (STORE_SQLITE_PATH)")
	flags.DurationVar(&f.debounce, "debounce", 0, "editor quiet period before remount; 0 remounts on every edit (PREVIEW_DEBOUNCE)")

	return cmd
}

// applyServeFlags overrides cfg with the flags the user actually set
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, f serveFlags) {
	changed := cmd.Flags().Changed

	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("dev") {
		cfg.Logging.Development = f.dev
		if f.dev && !changed("log-level") {
			cfg.Logging.Level = "debug"
		}
	}
	if changed("log-level") {
		cfg.Logging.Level = f.level
	}
	if changed("store") {
		cfg.Store.Backend = f.store
	}
	if changed("fixtures") {
		cfg.Store.Fixtures = f.fixtures
	}
	if changed("sqlite") {
		cfg.Store.SQLitePath = f.sqlite
	}
	if changed("debounce") {
		cfg.Preview.Debounce = f.debounce
	}
}
