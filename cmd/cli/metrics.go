package main

import (
	"fmt"

	accadapter "gocnwi/adapters/accuracy"
	"gocnwi/adapters/excel"
	"gocnwi/adapters/export"
	"gocnwi/adapters/featurecollection"
	"gocnwi/app"
	"gocnwi/internal/config"

	"github.com/spf13/cobra"
)

func newMetricsCmd(cfg *config.Config) *cobra.Command {
	var outdir, xlsx, reportPath, title string
	var names export.MetricFileNames
	var verify bool
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "metrics [metrics.geojson]",
		Short: "Write the confusion matrix and accuracy tables of an evaluation export",
		Long: `Read a FeatureCollection carrying the confusion_matrix, labels, producers, consumers,
overall and order blocks and write one CSV per table: the labeled confusion matrix, the
producer's and consumer's accuracies and the overall accuracy.

With --verify the reported accuracies are recomputed from the matrix and any disagreement
is printed; the command then exits non-zero.

Example: gocnwi metrics rf_metrics.geojson --out tables --xlsx metrics.xlsx --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := featurecollection.DecodeFile(args[0])
			if err != nil {
				return err
			}

			svc := app.NewAccuracyService(accadapter.NewFormatter(), nil, tolerance)
			result, err := svc.Evaluate(cmd.Context(), app.AccuracyRequest{
				Name: title,
				Bags: collection.PropertyBags(),
			})
			if err != nil {
				return err
			}

			paths, err := export.WriteMetricTables(outdir, result.Bundle, names)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			if xlsx != "" {
				if err := excel.WriteWorkbook(xlsx, result.Tables()...); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := writeMarkdown(cmd.OutOrStdout(), reportPath, result.Markdown); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "overall accuracy: %.4f\n", result.Overall)
			if verify && len(result.Discrepancies) > 0 {
				for _, d := range result.Discrepancies {
					fmt.Fprintf(cmd.ErrOrStderr(), "discrepancy: %s\n", d)
				}
				return fmt.Errorf("%d reported accuracies disagree with the confusion matrix", len(result.Discrepancies))
			}
			return nil
		},
	}

	defaults := export.DefaultMetricFileNames()
	cmd.Flags().StringVar(&outdir, "out", cfg.Paths.OutputDir, "Output directory")
	cmd.Flags().StringVar(&names.Confusion, "confusion-file", defaults.Confusion, "Confusion matrix file name")
	cmd.Flags().StringVar(&names.Producers, "producers-file", defaults.Producers, "Producer's accuracy file name")
	cmd.Flags().StringVar(&names.Consumers, "consumers-file", defaults.Consumers, "Consumer's accuracy file name")
	cmd.Flags().StringVar(&names.Overall, "overall-file", defaults.Overall, "Overall accuracy file name")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also write every table to this workbook")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a markdown report to this file, - for stdout")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().BoolVar(&verify, "verify", false, "Fail when reported accuracies disagree with the matrix")
	cmd.Flags().Float64Var(&tolerance, "tolerance", cfg.Accuracy.VerifyTolerance, "Absolute tolerance for --verify")
	return cmd
}
