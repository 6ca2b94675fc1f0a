package main

import (
	"github.com/spf13/cobra"

	"github.com/Plant-Net/Metabolomic-project/internal/config"
)

func newRootCmd() *cobra.Command {
	opts := config.Options{}

	cmd := &cobra.Command{
		Use:   "omicscv",
		Short: "Cross-validate XGBoost, LDA or PLS-DA on a labelled omics table",
		Long: `Runs repeated stratified k-fold cross-validation of one classifier on a
CSV table with a binary "Label" column, then writes per-fold metrics,
mean/SD and confidence-interval statistics and a text summary.

Examples:
  omicscv -i brca_rna.csv -o results -a LDA -t BRCA -m transcriptomics
  omicscv -i luad.csv -o results -a PLSDA -t LUAD -m metabolomics -n 5 -r 10 --plot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.InputFile, "input_file", "i", "", "path to the input CSV file")
	flags.StringVarP(&opts.OutputDir, "output_folder_path", "o", "", "directory receiving the result files")
	flags.StringVarP(&opts.AnalysisName, "analysis_name", "a", "", "classifier: LDA, PLSDA, anything else runs XGBoost")
	flags.StringVarP(&opts.TissueType, "tissue_type", "t", "", "tissue or cancer type, used in file names and the summary")
	flags.StringVarP(&opts.OmicsType, "omics_type", "m", "", `omics type; "metabolomics" tables have no index column`)
	flags.IntVarP(&opts.Folds, "fold_number", "n", config.DefaultFolds, "number of folds per repetition")
	flags.IntVarP(&opts.Repeats, "repetition_number", "r", config.DefaultRepeats, "number of repetitions")
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML file with hyperparameters and seeds")
	flags.BoolVar(&opts.Plot, "plot", false, "also save a box plot of the fold metrics")
	flags.BoolVar(&opts.FeatureImportance, "feature-importance", false, "also save the split gain per feature averaged over folds (XGBoost only)")
	flags.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write run metrics in Prometheus text format to this path")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "log format: text or json")

	for _, name := range []string{"input_file", "output_folder_path", "analysis_name", "tissue_type", "omics_type"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
