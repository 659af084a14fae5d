package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"p95status/internal/batch"
	"p95status/pkg/config"
	"p95status/pkg/export"
	"p95status/pkg/logger"
	"p95status/pkg/scanner"
	"p95status/pkg/status"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [directory]",
	Short: "Decode every save file in a directory and print its status",
	Long: `Decode every save file in a directory and print one status line per file.

Save files are recognised by name (e.g. p9000001, m86243, e1277.bu2). Files
that cannot be decoded are listed under FAILED; they do not change the exit
code.`,
	Example: `  # Table output with at most 5 failures listed
  p95status status ~/mprime --format table --max-failures 5

  # Export as MessagePack without printing the report
  p95status status ~/mprime --export status.msgpack --quiet`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addStatusFlags(statusCmd)
}

// addStatusFlags registers the report flags shared by root, status and watch
func addStatusFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", status.FormatText, "report format (text, table)")
	cmd.Flags().String("export", "", "also write the decoded records to this file")
	cmd.Flags().String("export-format", "", "export format (json, yaml, msgpack); inferred from the extension when empty")
	cmd.Flags().Int("workers", 4, "number of files decoded concurrently")
	cmd.Flags().Int("max-failures", status.DefaultMaxFailures, "failed files to list before summarising (0 lists all)")
	cmd.Flags().String("pattern", config.DefaultPattern, "regular expression save file names must match")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := setupOutput(cfg, os.Stderr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	}
	_, err = executeStatus(ctx, out, cfg, logger.GetLogger())
	return err
}

// executeStatus runs one pass over the configured directory, writes the
// report to out and the export file when one is configured
func executeStatus(ctx context.Context, out io.Writer, cfg *config.Config, log logger.Logger) (*status.Report, error) {
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	sc, err := scanner.New(cfg.Scan.Pattern)
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(sc, cfg.Batch.Workers, nil, log)
	rep, err := runner.Run(ctx, cfg.Scan.Directory)
	if err != nil {
		return nil, fmt.Errorf("status run failed: %w", err)
	}

	if err := status.Write(out, rep, reportOptions(cfg)); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	if err := exportReport(cfg, rep, runID); err != nil {
		return nil, err
	}
	return rep, nil
}

func reportOptions(cfg *config.Config) status.Options {
	return status.Options{
		Format:      strings.ToLower(cfg.Report.Format),
		MaxFailures: cfg.Report.MaxFailures,
	}
}

// exportReport writes rep to the configured export path, if any
func exportReport(cfg *config.Config, rep *status.Report, runID string) error {
	if cfg.Export.Path == "" {
		return nil
	}
	if err := export.Write(cfg.Export.Path, strings.ToLower(cfg.Export.Format), export.NewDocument(rep, runID)); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
