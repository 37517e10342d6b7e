package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mrighosting/pkg/batch"
	"mrighosting/pkg/config"
	"mrighosting/pkg/dicomio"
	"mrighosting/pkg/ghosting"
	"mrighosting/pkg/report"
	"mrighosting/pkg/store"
	"mrighosting/pkg/visualization"
)

// errNothingAnalysed is returned when every input failed
var errNothingAnalysed = errors.New("no acquisition could be analysed")

// NewAnalyzeCmd creates the analyze subcommand
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <dir|file>...",
		Short: "Compute the ghosting percentage of DICOM phantom images",
		Long: `Analyze computes the ghosting percentage of every DICOM file given.
Directories are expanded to the regular, non-hidden files they contain.

A report named ghosting.<ext> is written to the output directory. Results
can additionally be stored in a SQLite database and rendered as overlay
images showing every region used by the measurement.`,
		Example: `  mrighosting analyze ./phantom
  mrighosting analyze --overlays --report markdown -o out ./phantom/*.dcm
  mrighosting analyze --db results.db ./phantom`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("output", "o", "", "Directory for reports and overlays")
	cmd.Flags().Bool("overlays", false, "Write an overlay image per acquisition")
	cmd.Flags().StringP("report", "r", "", "Report format (json, markdown, parquet)")
	cmd.Flags().String("db", "", "SQLite database to store results in")
	cmd.Flags().IntP("workers", "w", 0, "Number of acquisitions analysed at once")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := initLogger(cfg, verbose)

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files found in %v", args)
	}

	pipeline, err := ghosting.New(cfg.PipelineOptions())
	if err != nil {
		return err
	}

	var db *store.Store
	if cfg.Output.Database != "" {
		db, err = store.Open(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	ctx := cmd.Context()
	hook := func(o batch.Outcome) error {
		if cfg.Output.Overlays {
			name := o.Acquisition.FigureName() + overlayExtension(cfg.Output.OverlayFormat)
			if err := visualization.SaveOverlay(o.Acquisition.Pixels, o.Result.Regions, filepath.Join(cfg.Output.Dir, name)); err != nil {
				return err
			}
		}
		if db != nil {
			if _, err := db.SaveResult(ctx, o.Acquisition, o.Result); err != nil {
				return err
			}
		}
		return nil
	}

	processor := batch.NewProcessor(pipeline, dicomio.Load,
		batch.WithConcurrency(cfg.Processing.NumCores),
		batch.WithLogger(logger),
		batch.WithResultHook(hook),
	)

	outcomes, err := processor.Process(ctx, paths)
	if err != nil {
		return err
	}

	reportPath, err := writeReport(cfg, outcomes)
	if err != nil {
		return err
	}

	summary := batch.Summary(outcomes)
	logger.WithFields(logrus.Fields{
		"analysed": len(summary),
		"failed":   len(outcomes) - len(summary),
		"report":   reportPath,
	}).Info("report written")

	printSummary(cmd, summary)

	if len(summary) == 0 {
		return errNothingAnalysed
	}
	return nil
}

// applyAnalyzeFlags overrides config values with the flags that were set
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("overlays") {
		cfg.Output.Overlays, _ = flags.GetBool("overlays")
	}
	if flags.Changed("report") {
		cfg.Output.ReportFormat, _ = flags.GetString("report")
	}
	if flags.Changed("db") {
		cfg.Output.Database, _ = flags.GetString("db")
	}
	if flags.Changed("workers") {
		cfg.Processing.NumCores, _ = flags.GetInt("workers")
	}
}

// collectPaths expands directories and keeps plain files as given
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := dicomio.ListFiles(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func overlayExtension(format string) string {
	if format == "jpeg" || format == "jpg" {
		return ".jpg"
	}
	return ".png"
}

func writeReport(cfg *config.Config, outcomes []batch.Outcome) (string, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(cfg.Output.Dir, "ghosting"+report.Extension(cfg.Output.ReportFormat))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	w, err := report.NewWriter(cfg.Output.ReportFormat, file)
	if err != nil {
		return "", err
	}
	if err := w.Write(report.FromOutcomes(outcomes, time.Now())); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func printSummary(cmd *cobra.Command, summary map[string]float64) {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(out, "%-60s %8.3f%%\n", k, summary[k])
	}
}
