package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docsite/config"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	dbPath    string
	tokenPath string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "docsite",
	Short: "Static site generator for a Google Drive folder of Docs",
	Long: `Publishes every Google Doc in a Drive folder as a static HTML page.

Authorize once with 'docsite auth', then run 'docsite build' to write one
page per document plus an index into the output directory.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to the environment file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite page index (default INDEX_DB)")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token", "", "Path to the OAuth credential file (default TOKEN_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default LOG_LEVEL)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.IndexDB = dbPath
	}
	if tokenPath != "" {
		cfg.TokenPath = tokenPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "docsite",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
