/*
main.go - Operator CLI for the child care policy database

PURPOSE:
  Data maintenance that does not go through the HTTP API: seeding,
  bulk CSV import, one-off updates, guided entry and the quality report.
  Every command talks to the same store the server uses.

COMMANDS:
  seed states|catalog|sample|generate|all
  import-csv <file> [--yes]
  update <state_code> <metric_slug> <value> [source] [source_url] [confidence]
  enter
  report [--json]

FLAGS:
  --config   YAML config file (same format as the server)
  --driver   Database driver override ("sqlite3" or "pgx")
  --db       Database DSN or SQLite path override
  --verbose  Development logging instead of warnings only

SEE ALSO:
  - cmd/server/main.go
  - config/config.go
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zachtilly/childcare-api/config"
	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
	"github.com/zachtilly/childcare-api/store/sqlstore"
)

var (
	configPath string
	driver     string
	dsn        string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "policyctl",
	Short:         "Maintain child care policy data",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Database driver (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "Database DSN or SQLite path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(enterCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// app is what every subcommand needs: an open store behind a service.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *sqlstore.Store
	svc   *policy.Service
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	log, err := newCLILogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	svc := policy.NewService(store, log, policy.WithHistoryMode(policy.HistoryMode(cfg.Policy.HistoryMode)))
	return &app{cfg: cfg, log: log, store: store, svc: svc}, nil
}

// newCLILogger keeps the console quiet unless --verbose is set, since the
// commands print their own progress.
func newCLILogger(cfg *config.Config) (*logger.Logger, error) {
	if verbose {
		return logger.New(cfg.Logging.Mode)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &logger.Logger{SugaredLogger: zl.Sugar()}, nil
}

func (a *app) Close() {
	a.log.Sync()
	_ = a.store.Close()
}
