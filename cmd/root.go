package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/ccsdb/internal/config"
	"github.com/KaramelBytes/ccsdb/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// HTTP flag (overrides config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger receives diagnostics; user-facing output goes to stdout.
	logger = logging.Default
)

var rootCmd = &cobra.Command{
	Use:   "ccsdb",
	Short: "Browse, filter and export collision cross section tables",
	Long: `ccsdb loads a metabolite CCS dataset, groups it by class and subclass,
filters it by class, subclass, KEGG pathway and free text, and exports the
matching rows from the original data files. It can also serve the same table
over a small read-only HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ccsdb/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config show/set can still run
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = logging.LevelDebug
	}
	logger = logging.New(os.Stderr, level)
}
