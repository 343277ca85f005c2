package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	cfgpkg "github.com/wagner-austin/tree-bot/internal/config"
	"github.com/wagner-austin/tree-bot/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	flagLogLevel  string
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "treebot",
	Short: "TreeBot: standardize GC-MS result workbooks and summarize compounds",
	Long: `TreeBot ingests GC-MS instrument spreadsheets, locates the result table on every sheet,
normalizes headers and compound names, resolves compound classes and plant species, and
writes a standardized workbook with per-site, per-species compound summaries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.treebot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text or json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		logging.Setup(flagLogLevel, flagLogFormat)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
}

// requireConfig returns a copy of the loaded configuration.
func requireConfig() (cfgpkg.Global, error) {
	if cfg == nil {
		return cfgpkg.Global{}, fmt.Errorf("configuration not loaded (see warning above)")
	}
	return *cfg, nil
}
