package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
	"github.com/Plant-Net/Metabolomic-project/internal/data"
	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
	"github.com/Plant-Net/Metabolomic-project/internal/models"
	"github.com/Plant-Net/Metabolomic-project/internal/report"
)

func run(ctx context.Context, opts config.Options, out, errOut io.Writer) error {
	if err := config.Validate(opts); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	cfg, err := config.LoadModelConfig(opts.ConfigFile)
	if err != nil {
		return err
	}

	logger := newLogger(errOut, opts.LogLevel, opts.LogFormat).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	analysis := models.ParseAnalysis(opts.AnalysisName)
	params := models.CreateModel(analysis, cfg, logger).Params()

	logger.InfoContext(ctx, "starting cross-validation",
		"input", opts.InputFile,
		"analysis", analysis.String(),
		"params", report.FormatParams(params),
		"tissue", opts.TissueType,
		"omics", opts.OmicsType,
		"folds", opts.Folds,
		"repeats", opts.Repeats,
	)

	start := time.Now()

	reader := data.NewCSVReader(opts.InputFile, data.IndexColumnFor(opts.OmicsType))
	ds, err := reader.LoadData()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if err := data.NewDataValidator().ValidateDataset(ds); err != nil {
		return fmt.Errorf("data validation failed: %w", err)
	}
	logger.InfoContext(ctx, "dataset loaded", "samples", ds.NumSamples(), "features", ds.NumFeatures())

	cv := evaluation.NewCrossValidator(opts.Folds, opts.Repeats, analysis, cfg, logger)
	table, err := cv.Run(ds)
	if err != nil {
		return fmt.Errorf("cross-validation failed: %w", err)
	}

	summary, err := report.Summarize(table, cfg.Report.LowerPercentile, cfg.Report.UpperPercentile)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	info := report.RunInfo{
		TissueType:    opts.TissueType,
		OmicsType:     opts.OmicsType,
		NumSamples:    ds.NumSamples(),
		NumFeatures:   ds.NumFeatures(),
		ExecutionTime: elapsed,
		Params:        params,
		Features:      ds.Features,
	}

	written, err := report.NewReporter(opts, logger).WriteAll(info, table, summary)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "cross-validation finished", "folds", table.Len(), "duration", elapsed)
	printSummary(out, analysis, info, summary, written)
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func printSummary(w io.Writer, analysis models.Analysis, info report.RunInfo, summary *report.Summary, written []string) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s %s on %s/%s: %d samples, %d features, %s\n",
		green("✓"), bold(analysis.String()), info.TissueType, info.OmicsType,
		info.NumSamples, info.NumFeatures, info.ExecutionTime.Round(time.Millisecond))

	fmt.Fprintf(w, "\n%-20s %-16s %s\n", bold("Metric"), bold("Mean (±SD) %"), bold("CI"))
	for _, m := range summary.Metrics {
		fmt.Fprintf(w, "%-20s %-16s %s\n", cyan(m.Name), m.MeanSD(), m.Interval())
	}

	fmt.Fprintln(w)
	for _, path := range written {
		fmt.Fprintf(w, "%s %s\n", green("→"), path)
	}
}
