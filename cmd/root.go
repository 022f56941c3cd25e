package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/internal/config"
	"github.com/teenyweeny/urlshortener/internal/logger"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// Log is the application logger, configured from Cfg.Log.Level
var Log = zerolog.Nop()

// configDir is where config.yaml is looked up, set by --config-dir
var configDir string

// RootCmd is the base command for the CLI application
// All other commands (run-server, create, list, stats, ...) are added as subcommands
var RootCmd = &cobra.Command{
	Use:   "teenyweeny",
	Short: "A URL shortener application",
	Long: `A URL shortener application that creates short links with optional custom codes,
custom domains and expirations, redirects visitors and counts their clicks.`,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// init() sets up command initialization hooks.
// Subcommands register themselves via their own init() functions to prevent import cycles.
func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./configs", "directory containing config.yaml")
}

// initConfig loads the application configuration before any command runs.
func initConfig() {
	var err error

	// Load configuration from file, environment variables, and defaults
	Cfg, err = config.Load(configDir, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	Log = logger.New(Cfg.Log.Level)
	Log.Debug().Str("driver", Cfg.Store.Driver).Str("config_dir", configDir).Msg("configuration loaded")
}
