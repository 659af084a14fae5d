package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"p95status/pkg/config"
	"p95status/pkg/logger"
	"p95status/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it behaves like `status`.
var rootCmd = &cobra.Command{
	Use:   "p95status [directory]",
	Short: "Report the progress stored in Prime95/mprime save files",
	Long: `p95status reads the save files a Prime95 or mprime client leaves in its
working directory and prints one status line per file.

Supported work types:
  - ECM curves (stage, curve number and stage 2 progress)
  - P-1 factoring (bounds reached and stage progress)
  - Lucas-Lehmer and PRP tests (iteration and percent complete)

Files that cannot be decoded are listed under FAILED with the reason.`,
	Example: `  # Report on the current directory
  p95status

  # Report on a client directory as a table
  p95status ~/mprime --format table

  # Also write a JSON document for other tools
  p95status ~/mprime --export status.json`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runStatus,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.p95status.yaml or ~/.config/p95status/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the report and all logs except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs")

	addStatusFlags(rootCmd)

	// Version template
	rootCmd.SetVersionTemplate(`p95status {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	logger.Version = version
}

// changedFlags collects the flags the user set explicitly, keyed the way
// config.MergeCommandLineFlags expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	fs := cmd.Flags()
	flags := make(map[string]interface{})

	for _, name := range []string{"pattern", "format", "export", "export-format", "log-level"} {
		if fs.Changed(name) {
			if v, err := fs.GetString(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range []string{"workers", "max-failures"} {
		if fs.Changed(name) {
			if v, err := fs.GetInt(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range []string{"no-color", "notify", "tui"} {
		if fs.Changed(name) {
			if v, err := fs.GetBool(name); err == nil {
				flags[name] = v
			}
		}
	}
	if fs.Changed("debounce") {
		if v, err := fs.GetDuration("debounce"); err == nil {
			flags["debounce"] = v
		}
	}

	return flags
}

// loadConfig merges config sources with the command line. A positional
// argument names the directory to scan.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := changedFlags(cmd)
	if len(args) == 1 {
		flags["directory"] = args[0]
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	applyVerbosity(cfg, cmd.Flags().Changed("log-level"))
	return cfg, nil
}

// applyVerbosity lowers the log level so the report stays readable,
// unless the user asked for a level or for verbose output
func applyVerbosity(cfg *config.Config, levelSet bool) {
	switch {
	case verbose:
		cfg.Logging.Level = "debug"
	case quiet:
		cfg.Logging.Level = "error"
	case !levelSet:
		cfg.Logging.Level = "error"
	}
}

// setupOutput initialises the global logger and terminal colors. Console
// logs go to logOut.
func setupOutput(cfg *config.Config, logOut io.Writer) error {
	log, err := logger.NewWithWriter(&cfg.Logging, logOut)
	if err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}
	logger.SetLogger(log)

	ui.SetColorEnabled(cfg.Report.Color && term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}
