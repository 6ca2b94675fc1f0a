package report

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
	"github.com/Plant-Net/Metabolomic-project/internal/evaluation"
)

// Reporter writes the artifacts of one run under Options.OutputDir.
type Reporter struct {
	Options config.Options
	Logger  *slog.Logger
}

type artifact struct {
	path  string
	write func(path string) error
}

func NewReporter(opts config.Options, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{Options: opts, Logger: logger}
}

// WriteAll writes the metrics table, the statistics table and the summary
// file, then the optional box plot, feature importance and metrics textfile.
// It returns the paths written so far, even on error.
func (r *Reporter) WriteAll(info RunInfo, table *evaluation.MetricsTable, summary *Summary) ([]string, error) {
	if err := os.MkdirAll(r.Options.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := []artifact{
		{r.Options.ArtifactPath(MetricsTableSuffix), func(p string) error { return WriteMetricsTable(p, table) }},
		{r.Options.ArtifactPath(StatisticsTableSuffix), func(p string) error { return WriteStatisticsTable(p, summary) }},
		{r.Options.ArtifactPath(SummaryFileSuffix), func(p string) error { return WriteSummaryFile(p, info, summary) }},
	}

	if r.Options.Plot {
		title := fmt.Sprintf("%s %s %s", r.Options.TissueType, r.Options.OmicsType, r.Options.AnalysisName)
		artifacts = append(artifacts, artifact{
			r.Options.ArtifactPath(BoxPlotSuffix),
			func(p string) error { return PlotMetrics(p, title, table) },
		})
	}

	if r.Options.FeatureImportance {
		if importance := table.MeanImportance(); importance != nil {
			artifacts = append(artifacts, artifact{
				r.Options.ArtifactPath(ImportanceSuffix),
				func(p string) error { return WriteFeatureImportance(p, info.Features, importance) },
			})
		} else {
			r.Logger.Warn("classifier does not rank features, skipping feature importance",
				"analysis", r.Options.AnalysisName)
		}
	}

	if r.Options.MetricsTextfile != "" {
		labels := map[string]string{
			"tissue":   r.Options.TissueType,
			"omics":    r.Options.OmicsType,
			"analysis": r.Options.AnalysisName,
		}
		artifacts = append(artifacts, artifact{
			r.Options.MetricsTextfile,
			func(p string) error { return WriteTextfile(p, labels, table, summary, info.ExecutionTime) },
		})
	}

	written := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := a.write(a.path); err != nil {
			return written, err
		}
		written = append(written, a.path)
		r.Logger.Debug("artifact written", "path", a.path)
	}

	return written, nil
}
