package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/garagekb/garagekb/internal/config"
)

const version = "1.0.0"

var (
	// Global flags (wired to config on initialize)
	cfgFile     string
	flagDataDir string
	flagPort    int
	flagDebug   bool

	// Loaded configuration
	cfg *cfgpkg.Config
)

var rootCmd = &cobra.Command{
	Use:     "garagekb",
	Short:   "GARAGE Knowledge Base: serve a folder of markdown instructions",
	Long:    `garagekb turns a data directory into a searchable knowledge base. Every subfolder is one instruction: a markdown file plus the images it references. The serve command publishes the set over HTTP; the other commands work with the same documents from the terminal.`,
	Version: version,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./garagekb.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory with instruction folders (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "HTTP listen port (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("port") && flagPort > 0 {
		cfg.Port = flagPort
	}
	if f.Changed("debug") {
		cfg.Debug = flagDebug
	}
}

// activeConfig returns the loaded configuration after validating it.
func activeConfig() (*cfgpkg.Config, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the service logger; debug mode switches to the
// development config.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
