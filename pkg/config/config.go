package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Target policies for runs with more than one crawl target
const (
	PolicySequential = "sequential"
	PolicyParallel   = "parallel"
)

// Config holds all configuration options for the paste scraper
type Config struct {
	// Paste site location and page structure
	Site SiteConfig `yaml:"site" json:"site"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Crawl bounds and pacing
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the paste site being crawled
type SiteConfig struct {
	BaseURL       string          `yaml:"base_url" json:"base_url"`
	UserAgent     string          `yaml:"user_agent" json:"user_agent"`
	RespectRobots bool            `yaml:"respect_robots" json:"respect_robots"`
	Selectors     SelectorsConfig `yaml:"selectors" json:"selectors"`
}

// SelectorsConfig holds CSS selectors for each piece of page structure.
// Every entry is a list tried in order; the first selector that matches wins.
type SelectorsConfig struct {
	ListingRows []string `yaml:"listing_rows" json:"listing_rows"`
	ListingLink []string `yaml:"listing_link" json:"listing_link"`
	Pagination  []string `yaml:"pagination" json:"pagination"`
	Notice      []string `yaml:"notice" json:"notice"`
	PasteTitle  []string `yaml:"paste_title" json:"paste_title"`
	PasteInfo   []string `yaml:"paste_info" json:"paste_info"`
}

// HTTPConfig holds request settings
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// CrawlConfig holds pagination bounds, pacing and multi-target policy
type CrawlConfig struct {
	MaxPages               int           `yaml:"max_pages" json:"max_pages"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	DownloadDelay          time.Duration `yaml:"download_delay" json:"download_delay"`
	TargetPolicy           string        `yaml:"target_policy" json:"target_policy"`
	MaxParallelTargets     int           `yaml:"max_parallel_targets" json:"max_parallel_targets"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	AllowUnicode  bool   `yaml:"allow_unicode" json:"allow_unicode"`
	SaveReport    bool   `yaml:"save_report" json:"save_report"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
	NoColor    bool   `yaml:"no_color" json:"no_color"`
}

// DefaultSelectors returns the selectors matching the classic pastebin layout,
// with the current layout as a fallback for paste pages
func DefaultSelectors() SelectorsConfig {
	return SelectorsConfig{
		ListingRows: []string{".maintable tr:not(:first-child)"},
		ListingLink: []string{"td:first-child a"},
		Pagination:  []string{".pagination"},
		Notice:      []string{"#notice"},
		PasteTitle:  []string{"div.paste_box_line1", ".info-top h1"},
		PasteInfo:   []string{"div.paste_box_line2", ".info-bottom"},
	}
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "https://pastebin.com",
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RespectRobots: false,
			Selectors:     DefaultSelectors(),
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			RequestsPerMinute: 0, // 0 means no cap beyond the download delay
		},
		Crawl: CrawlConfig{
			MaxPages:               500,
			MaxConsecutiveFailures: 3,
			DownloadDelay:          5 * time.Second,
			TargetPolicy:           PolicySequential,
			MaxParallelTargets:     4,
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
			AllowUnicode:  false,
			SaveReport:    false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Site
	if baseURL := os.Getenv("PASTESCRAPER_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("PASTESCRAPER_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if robots := os.Getenv("PASTESCRAPER_RESPECT_ROBOTS"); robots != "" {
		c.Site.RespectRobots = parseBool(robots)
	}

	// HTTP
	if timeout := os.Getenv("PASTESCRAPER_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("PASTESCRAPER_TIMEOUT: %w", err))
		} else {
			c.HTTP.Timeout = d
		}
	}
	if rpm := os.Getenv("PASTESCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.HTTP.RequestsPerMinute = val
		}
	}

	// Crawl
	if maxPages := os.Getenv("PASTESCRAPER_MAX_PAGES"); maxPages != "" {
		var val int
		fmt.Sscanf(maxPages, "%d", &val)
		if val > 0 {
			c.Crawl.MaxPages = val
		}
	}
	if delay := os.Getenv("PASTESCRAPER_DOWNLOAD_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("PASTESCRAPER_DOWNLOAD_DELAY: %w", err))
		} else {
			c.Crawl.DownloadDelay = d
		}
	}
	if policy := os.Getenv("PASTESCRAPER_TARGET_POLICY"); policy != "" {
		c.Crawl.TargetPolicy = strings.ToLower(policy)
	}
	if parallel := os.Getenv("PASTESCRAPER_MAX_PARALLEL_TARGETS"); parallel != "" {
		var val int
		fmt.Sscanf(parallel, "%d", &val)
		if val > 0 {
			c.Crawl.MaxParallelTargets = val
		}
	}

	// Output
	if outputDir := os.Getenv("PASTESCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if unicode := os.Getenv("PASTESCRAPER_ALLOW_UNICODE"); unicode != "" {
		c.Output.AllowUnicode = parseBool(unicode)
	}
	if report := os.Getenv("PASTESCRAPER_SAVE_REPORT"); report != "" {
		c.Output.SaveReport = parseBool(report)
	}

	// Logging
	if logLevel := os.Getenv("PASTESCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PASTESCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Logging.NoColor = true
	}

	return errors.Join(errs...)
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations and
// returns the first one found, or "" if there is none
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"pastescraper.yaml",
		".pastescraper.yaml",
		".pastescraper.yml",
		filepath.Join(home, ".config", "pastescraper", "config.yaml"),
		filepath.Join(home, ".config", "pastescraper", "config.yml"),
		filepath.Join(home, ".pastescraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Site
	if u, err := url.Parse(c.Site.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.Site.BaseURL))
	}
	sel := c.Site.Selectors
	for name, list := range map[string][]string{
		"listing_rows": sel.ListingRows,
		"listing_link": sel.ListingLink,
		"pagination":   sel.Pagination,
		"notice":       sel.Notice,
		"paste_title":  sel.PasteTitle,
		"paste_info":   sel.PasteInfo,
	} {
		if len(list) == 0 {
			errs = append(errs, fmt.Errorf("selectors.%s must not be empty", name))
		}
	}

	// HTTP
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	// Crawl
	if c.Crawl.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Crawl.MaxConsecutiveFailures <= 0 {
		errs = append(errs, errors.New("max consecutive failures must be positive"))
	}
	if c.Crawl.DownloadDelay < 0 {
		errs = append(errs, errors.New("download delay cannot be negative"))
	}
	switch c.Crawl.TargetPolicy {
	case PolicySequential, PolicyParallel:
	default:
		errs = append(errs, fmt.Errorf("target policy must be %q or %q", PolicySequential, PolicyParallel))
	}
	if c.Crawl.MaxParallelTargets <= 0 {
		errs = append(errs, errors.New("max parallel targets must be positive"))
	}

	// Output
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Workers returns the number of targets that may run at once under the
// configured policy
func (c *Config) Workers() int {
	if c.Crawl.TargetPolicy == PolicyParallel {
		return c.Crawl.MaxParallelTargets
	}
	return 1
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if robots, ok := flags["respect-robots"].(bool); ok {
		c.Site.RespectRobots = robots
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.HTTP.Timeout = timeout
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm >= 0 {
		c.HTTP.RequestsPerMinute = rpm
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages > 0 {
		c.Crawl.MaxPages = maxPages
	}
	if delay, ok := flags["delay"].(time.Duration); ok && delay >= 0 {
		c.Crawl.DownloadDelay = delay
	}
	if policy, ok := flags["target-policy"].(string); ok && policy != "" {
		c.Crawl.TargetPolicy = strings.ToLower(policy)
	}
	if parallel, ok := flags["max-parallel"].(int); ok && parallel > 0 {
		c.Crawl.MaxParallelTargets = parallel
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if unicode, ok := flags["allow-unicode"].(bool); ok {
		c.Output.AllowUnicode = unicode
	}
	if report, ok := flags["save-report"].(bool); ok {
		c.Output.SaveReport = report
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pastescraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
