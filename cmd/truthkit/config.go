package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"truthkit/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage truthkit configuration files.

Configuration is loaded in layers, later layers overriding earlier ones:
  - Default values
  - Configuration file
  - .env file
  - Environment variables (TRUTHKIT_*)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with defaults",
	Long: `Create a configuration file populated with default values.

The file is created as '.truthkit.yaml' in the current directory unless
a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = ".truthkit.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		fatal("configuration file already exists: "+path, nil)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		fatal("failed to create configuration file", err)
	}

	fmt.Println("Configuration file created:", path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the file as needed (all values have working defaults)")
	fmt.Println("2. Store your access token with 'truthkit auth login'")
	fmt.Println("3. Try 'truthkit crawl statuses <handle> --limit 5'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fatal("failed to load configuration", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fatal("failed to format configuration", err)
	}
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Environment variables (TRUTHKIT_*)")
	fmt.Println("2. .env file")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-discovered)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fatal("configuration validation failed", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Println("\nSummary:")
	fmt.Printf("  API base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("  Rate limit: %d requests per %s\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Crawl page size: %d\n", cfg.Crawl.PageSize)
	if cfg.Archive.Path != "" {
		fmt.Printf("  Archive: %s\n", cfg.Archive.Path)
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
