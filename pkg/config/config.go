package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"p95status/pkg/scanner"
)

// Config holds all configuration options for p95status
type Config struct {
	// Where to look for save files
	Scan ScanConfig `yaml:"scan" json:"scan"`

	// Decoder worker pool
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Console report
	Report ReportConfig `yaml:"report" json:"report"`

	// Structured export
	Export ExportConfig `yaml:"export" json:"export"`

	// Watch mode
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScanConfig selects the directory and file names to decode
type ScanConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Pattern   string `yaml:"pattern" json:"pattern"`
}

// BatchConfig holds worker pool configuration
type BatchConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// ReportConfig controls the console report
type ReportConfig struct {
	Format      string `yaml:"format" json:"format"`
	MaxFailures int    `yaml:"max_failures" json:"max_failures"`
	Color       bool   `yaml:"color" json:"color"`
}

// ExportConfig holds structured export settings. An empty path disables export.
type ExportConfig struct {
	Path   string `yaml:"path" json:"path"`
	Format string `yaml:"format" json:"format"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Debounce      time.Duration `yaml:"debounce" json:"debounce"`
	Notifications bool          `yaml:"notifications" json:"notifications"`
	TUI           bool          `yaml:"tui" json:"tui"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultPattern matches the save file names the client writes
const DefaultPattern = scanner.DefaultPattern

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Directory: ".",
			Pattern:   DefaultPattern,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Report: ReportConfig{
			Format:      "text",
			MaxFailures: 10,
			Color:       true,
		},
		Export: ExportConfig{},
		Watch: WatchConfig{
			Debounce:      2 * time.Second,
			Notifications: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from P95STATUS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if dir := os.Getenv("P95STATUS_DIRECTORY"); dir != "" {
		c.Scan.Directory = dir
	}
	if pattern := os.Getenv("P95STATUS_PATTERN"); pattern != "" {
		c.Scan.Pattern = pattern
	}

	if workers := os.Getenv("P95STATUS_WORKERS"); workers != "" {
		val, err := strconv.Atoi(workers)
		if err != nil {
			errs = append(errs, fmt.Errorf("P95STATUS_WORKERS: %w", err))
		} else if val > 0 {
			c.Batch.Workers = val
		}
	}

	if format := os.Getenv("P95STATUS_FORMAT"); format != "" {
		c.Report.Format = format
	}
	if maxFailures := os.Getenv("P95STATUS_MAX_FAILURES"); maxFailures != "" {
		val, err := strconv.Atoi(maxFailures)
		if err != nil {
			errs = append(errs, fmt.Errorf("P95STATUS_MAX_FAILURES: %w", err))
		} else {
			c.Report.MaxFailures = val
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Report.Color = false
	}

	if path := os.Getenv("P95STATUS_EXPORT"); path != "" {
		c.Export.Path = path
	}
	if format := os.Getenv("P95STATUS_EXPORT_FORMAT"); format != "" {
		c.Export.Format = format
	}

	if debounce := os.Getenv("P95STATUS_DEBOUNCE"); debounce != "" {
		val, err := time.ParseDuration(debounce)
		if err != nil {
			errs = append(errs, fmt.Errorf("P95STATUS_DEBOUNCE: %w", err))
		} else {
			c.Watch.Debounce = val
		}
	}
	if notify := os.Getenv("P95STATUS_NOTIFICATIONS"); notify != "" {
		c.Watch.Notifications = strings.ToLower(notify) == "true"
	}

	if logLevel := os.Getenv("P95STATUS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("P95STATUS_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
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

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "p95status", "config.yaml")
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".p95status.yaml",
		".p95status.yml",
		DefaultPath(),
		filepath.Join(os.Getenv("HOME"), ".config", "p95status", "config.yml"),
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

	if c.Scan.Directory == "" {
		errs = append(errs, errors.New("scan directory is required"))
	}
	if c.Scan.Pattern == "" {
		errs = append(errs, errors.New("file pattern is required"))
	} else if _, err := regexp.Compile(c.Scan.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("invalid file pattern: %w", err))
	}

	if c.Batch.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Batch.Workers > 64 {
		errs = append(errs, errors.New("workers should not exceed 64"))
	}

	validFormats := map[string]bool{"text": true, "table": true}
	if !validFormats[strings.ToLower(c.Report.Format)] {
		errs = append(errs, fmt.Errorf("invalid report format %q", c.Report.Format))
	}
	if c.Report.MaxFailures < 0 {
		errs = append(errs, errors.New("max failures cannot be negative"))
	}

	validExportFormats := map[string]bool{"": true, "json": true, "yaml": true, "msgpack": true}
	if !validExportFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, fmt.Errorf("invalid export format %q", c.Export.Format))
	}

	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("debounce cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges explicitly set command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["directory"].(string); ok && dir != "" {
		c.Scan.Directory = dir
	}
	if pattern, ok := flags["pattern"].(string); ok && pattern != "" {
		c.Scan.Pattern = pattern
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Batch.Workers = workers
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Report.Format = format
	}
	if maxFailures, ok := flags["max-failures"].(int); ok {
		c.Report.MaxFailures = maxFailures
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Report.Color = false
	}
	if path, ok := flags["export"].(string); ok && path != "" {
		c.Export.Path = path
	}
	if format, ok := flags["export-format"].(string); ok && format != "" {
		c.Export.Format = format
	}
	if debounce, ok := flags["debounce"].(time.Duration); ok {
		c.Watch.Debounce = debounce
	}
	if notify, ok := flags["notify"].(bool); ok {
		c.Watch.Notifications = notify
	}
	if tui, ok := flags["tui"].(bool); ok {
		c.Watch.TUI = tui
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".p95status.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
