package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"p95status/pkg/config"
	"p95status/pkg/export"
	"p95status/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage p95status configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (P95STATUS_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to ~/.config/p95status/config.yaml unless a different
path is given with the --config flag. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration after merging every source:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - The file name pattern compiles
  - The scan directory and log file location are usable`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# p95status configuration file
#
# Every option can also be set with a P95STATUS_ environment variable,
# for example P95STATUS_DIRECTORY or P95STATUS_WORKERS.

# Where the Prime95/mprime client keeps its save files
scan:
  directory: "."

  # Regular expression a file name must match to be decoded
  pattern: '^[emp][0-9]+(_[0-9]+){0,2}(\.bu[0-9]*)?$'

# Decoder worker pool
batch:
  # Files decoded concurrently
  # Range: 1-64
  workers: 4

# Console report
report:
  # text or table
  format: "text"

  # Failed files listed before the rest are summarised (0 lists all)
  max_failures: 10

  # Colored output on a terminal
  color: true

# Structured export of the decoded records
export:
  # Leave empty to disable
  path: ""

  # json, yaml or msgpack; inferred from the path when empty
  format: ""

# watch command
watch:
  # Quiet time before a changed file is decoded again
  debounce: 2s

  # Desktop notification when a status line changes
  notifications: false

  # Interactive dashboard
  tui: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error, disabled
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Green("Configuration file created: "+configPath))
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set scan.directory to your Prime95/mprime working directory")
	fmt.Fprintln(out, "2. Run 'p95status config validate' to check the configuration")
	fmt.Fprintln(out, "3. Run 'p95status' or 'p95status watch'")
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

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Magenta("Current Configuration"))
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (P95STATUS_*)")
	if configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	warnings, problems := checkEnvironment(cfg)

	out := cmd.OutOrStdout()
	if len(problems) > 0 {
		fmt.Fprintln(out, ui.Red("Configuration has errors:"))
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d error(s)", len(problems))
	}

	if len(warnings) > 0 {
		fmt.Fprintln(out, ui.Yellow("Configuration warnings:"))
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, ui.Green("Configuration is valid"))

	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Directory: %s\n", cfg.Scan.Directory)
	fmt.Fprintf(out, "  Workers: %d\n", cfg.Batch.Workers)
	fmt.Fprintf(out, "  Report format: %s\n", cfg.Report.Format)
	fmt.Fprintf(out, "  Watch debounce: %s\n", cfg.Watch.Debounce)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkEnvironment looks for settings that are valid but will not work on
// this machine
func checkEnvironment(cfg *config.Config) (warnings, problems []string) {
	info, err := os.Stat(cfg.Scan.Directory)
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("scan directory is not accessible: %v", err))
	case !info.IsDir():
		problems = append(problems, fmt.Sprintf("scan directory is not a directory: %s", cfg.Scan.Directory))
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if cfg.Export.Path != "" && cfg.Export.Format == "" {
		if _, err := export.FormatFromPath(cfg.Export.Path); err != nil {
			problems = append(problems, err.Error())
		}
	}

	return warnings, problems
}
