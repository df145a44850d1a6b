package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pastescraper/pkg/config"
	"pastescraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pastescraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (PASTESCRAPER_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'pastescraper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Show the effective configuration after merging all sources.`,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Output and log paths`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# pastescraper configuration file
#
# Every option can also be set with an environment variable prefixed with
# PASTESCRAPER_, for example PASTESCRAPER_OUTPUT_DIR or PASTESCRAPER_DOWNLOAD_DELAY.

site:
  # Site root used to build paste, raw and author URLs
  base_url: "https://pastebin.com"

  # User agent sent with every request
  user_agent: ""

  # Skip targets disallowed by the site's robots.txt
  respect_robots: false

  # CSS selectors; each list is tried in order and the first match wins
  selectors:
    listing_rows: [".maintable tr:not(:first-child)"]
    listing_link: ["td:first-child a"]
    pagination: [".pagination"]
    notice: ["#notice"]
    paste_title: ["div.paste_box_line1", ".info-top h1"]
    paste_info: ["div.paste_box_line2", ".info-bottom"]

http:
  # Per-request timeout
  timeout: 30s

  # Upper bound on requests per minute, 0 disables the cap
  requests_per_minute: 0

crawl:
  # Maximum paginated listing pages fetched per target
  max_pages: 500

  # Consecutive listing page failures before a target's walk stops
  max_consecutive_failures: 3

  # Pause between consecutive pastes when downloading
  download_delay: 5s

  # sequential or parallel
  target_policy: "sequential"
  max_parallel_targets: 4

output:
  # Pastes are saved under <base_directory>/<author>/
  base_directory: "./output"

  # Keep non-ASCII characters in file names
  allow_unicode: false

  # Write <base_directory>/<author>.report.json after each download
  save_report: false

logging:
  # debug, info, warn, error
  level: "info"

  # Optional JSON log file, rotated by size
  file: ""
  max_size: 100
  max_backups: 3
  max_age: 7
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "pastescraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		return errSilent
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.PrintInfo("Next", "run 'pastescraper config validate' to check it")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none, defaults and environment only)"
	}
	ui.PrintInfo("Configuration file", source)

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		ui.PrintError("No configuration file found", "specify a file with --config")
		return errSilent
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return errSilent
	}

	var problems []string
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			ui.PrintError("  - " + p)
		}
		return errSilent
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Output directory", cfg.Output.BaseDirectory)
	ui.PrintInfo("Target policy", fmt.Sprintf("%s (%d worker(s))", cfg.Crawl.TargetPolicy, cfg.Workers()))
	ui.PrintInfo("Download delay", cfg.Crawl.DownloadDelay.String())
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
