package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"truthkit/pkg/auth"
	"truthkit/pkg/config"
	"truthkit/pkg/logger"
	"truthkit/pkg/truthsocial"
)

var (
	// Version information, overridden at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	accountName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "truthkit",
	Short: "A resilient Truth Social client for crawling, posting and sampling",
	Long: `truthkit is a command-line client for the Truth Social API.

Features:
  - Cursor-based crawling of timelines, comments and follower graphs
  - Automatic retry with exponential backoff and rate-limit awareness
  - Media uploads with server-side processing polls
  - Post composition with visibility control and polls
  - Weighted sampling of crawled collections
  - Secure token storage using the system keychain
  - Optional sqlite archive for crawled items`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.truthkit.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")

	rootCmd.SetVersionTemplate(`truthkit {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the layered configuration and initializes logging.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File}); err != nil {
		return nil, nil, err
	}
	return cfg, logger.GetLogger(), nil
}

// newSession resolves a token and opens an authenticated API session.
func newSession() (*truthsocial.Session, *config.Config, logger.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, nil, nil, err
	}

	label := accountName
	if label == "" {
		label = auth.DefaultLabel
	}
	cred, err := manager.Retrieve(label)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("no stored token for account %q: run 'truthkit auth login' or set TRUTHKIT_TOKEN: %w", label, err)
	}

	session, err := truthsocial.NewSession(cred.Token, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return session, cfg, log, nil
}

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
