package main

import (
	"fmt"
	"io"
	"os"

	"gocnwi/adapters/excel"
	"gocnwi/adapters/export"
	sepadapter "gocnwi/adapters/stats/separability"
	"gocnwi/app"
	"gocnwi/domain/sample"
	"gocnwi/domain/table"
	"gocnwi/internal/config"

	"github.com/spf13/cobra"
)

// sampleFlags are shared by every command that reads a sampling export
type sampleFlags struct {
	sheet           string
	labelField      string
	classValueField string
	exclude         []string
	predictors      []string
}

func (f *sampleFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read from a workbook (default Sheet1)")
	cmd.Flags().StringVar(&f.labelField, "label", cfg.Samples.LabelField, "Class label field")
	cmd.Flags().StringVar(&f.classValueField, "class-value-field", cfg.Samples.ClassValueField, "Integer class code field, empty to ignore")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", cfg.Samples.ExcludeFields, "Fields that are never predictors")
	cmd.Flags().StringSliceVar(&f.predictors, "predictors", nil, "Explicit predictor list (default: every non-excluded field)")
}

func (f *sampleFlags) options() sample.Options {
	return sample.Options{
		LabelField:      f.labelField,
		ClassValueField: f.classValueField,
		Exclude:         f.exclude,
		Predictors:      f.predictors,
	}
}

func (f *sampleFlags) readRecords(path string) (sample.Records, error) {
	src, err := app.OpenSamples(path, f.sheet)
	if err != nil {
		return sample.Records{}, err
	}
	return src.ReadRecords()
}

func (f *sampleFlags) readSet(path string) (*sample.Set, error) {
	records, err := f.readRecords(path)
	if err != nil {
		return nil, err
	}
	return sample.FromRecords(records, f.options())
}

type analysisFlags struct {
	policy  string
	workers int
}

func (f *analysisFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.policy, "policy", cfg.Separability.VariancePolicy, "Zero-variance policy: infinity|strict")
	cmd.Flags().IntVar(&f.workers, "workers", cfg.Separability.Workers, "Class pairs scored concurrently")
}

func (f *analysisFlags) service() (*app.SeparabilityService, error) {
	policy, err := sepadapter.ParseVariancePolicy(f.policy)
	if err != nil {
		return nil, err
	}
	analyzer := sepadapter.NewAnalyzer(sepadapter.Config{VariancePolicy: policy, Workers: f.workers})
	return app.NewSeparabilityService(analyzer, nil), nil
}

func newSeparabilityCmd(cfg *config.Config) *cobra.Command {
	var samples sampleFlags
	var analysis analysisFlags
	var out, xlsx, reportPath, title string
	var topK int

	cmd := &cobra.Command{
		Use:   "separability [samples.csv|xlsx|geojson]",
		Short: "Score and rank every predictor for every pair of classes",
		Long: `Compute the separability table of a labeled sampling export.

Each predictor is scored per class pair as |mean(B) - mean(A)| / std(A ∪ B) and ranked
within its pair, highest first.

Example: gocnwi separability training.geojson --label land_cover --out separability.csv --xlsx separability.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := analysis.service()
			if err != nil {
				return err
			}
			records, err := samples.readRecords(args[0])
			if err != nil {
				return err
			}

			result, err := svc.Analyze(cmd.Context(), app.SeparabilityRequest{
				Name:    title,
				Records: records,
				Options: samples.options(),
				TopK:    topK,
			})
			if err != nil {
				return err
			}

			tbl := result.Table.ToTable()
			if err := writeTableTo(cmd.OutOrStdout(), out, tbl); err != nil {
				return err
			}
			if xlsx != "" {
				if err := excel.WriteWorkbook(xlsx, tbl); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := writeMarkdown(cmd.OutOrStdout(), reportPath, result.Markdown); err != nil {
					return err
				}
			}
			for _, w := range result.Table.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}

	samples.register(cmd, cfg)
	analysis.register(cmd, cfg)
	cmd.Flags().StringVar(&out, "out", "", "CSV output file (default stdout)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also write the table to this workbook")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a markdown report to this file, - for stdout")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().IntVar(&topK, "top", 0, "List the predictors ranked 1..k in any pair in the report")
	return cmd
}

func newRankCmd(cfg *config.Config) *cobra.Command {
	var samples sampleFlags
	var analysis analysisFlags
	var rank, topK int

	cmd := &cobra.Command{
		Use:   "rank [samples]",
		Short: "Print the predictors holding a rank in any class pair",
		Long: `Print, one per line, the predictors that hold the given rank for at least one class
pair. With --top k the predictors holding any rank from 1 to k are printed instead.

Example: gocnwi rank training.csv --rank 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rank < 1 && topK < 1 {
				return fmt.Errorf("--rank or --top must be at least 1")
			}
			svc, err := analysis.service()
			if err != nil {
				return err
			}
			records, err := samples.readRecords(args[0])
			if err != nil {
				return err
			}

			result, err := svc.Analyze(cmd.Context(), app.SeparabilityRequest{
				Records: records,
				Options: samples.options(),
				Rank:    rank,
				TopK:    topK,
			})
			if err != nil {
				return err
			}

			names := result.Extracted
			if topK > 0 {
				names = result.Top
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	samples.register(cmd, cfg)
	analysis.register(cmd, cfg)
	cmd.Flags().IntVar(&rank, "rank", 1, "Rank to extract")
	cmd.Flags().IntVar(&topK, "top", 0, "Extract ranks 1..k instead of a single rank")
	return cmd
}

func newProfileCmd(cfg *config.Config) *cobra.Command {
	var samples sampleFlags
	var predictor, out string
	var bins int

	cmd := &cobra.Command{
		Use:   "profile [samples]",
		Short: "Describe each class per predictor, or bin one predictor into a histogram",
		Long: `Without --predictor, print count, mean, standard deviation, min, max and median for
every class and predictor. With --predictor, print that predictor's histogram with one
count column per class.

Example: gocnwi profile training.xlsx --predictor ndvi --bins 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := samples.readSet(args[0])
			if err != nil {
				return err
			}

			if predictor != "" {
				h, err := sepadapter.ComputeHistogram(set, predictor, bins)
				if err != nil {
					return err
				}
				return writeTableTo(cmd.OutOrStdout(), out, h.Table())
			}

			profiles, err := sepadapter.Profiles(set)
			if err != nil {
				return err
			}
			return writeTableTo(cmd.OutOrStdout(), out, sepadapter.ProfilesTable(profiles))
		},
	}

	samples.register(cmd, cfg)
	cmd.Flags().StringVar(&predictor, "predictor", "", "Predictor to bin")
	cmd.Flags().IntVar(&bins, "bins", cfg.Separability.HistogramBins, "Histogram bins")
	cmd.Flags().StringVar(&out, "out", "", "CSV output file (default stdout)")
	return cmd
}

// writeTableTo writes CSV to path, or to w when path is empty
func writeTableTo(w io.Writer, path string, t *table.Table) error {
	if path == "" {
		return export.WriteTable(w, t)
	}
	return export.WriteTableFile(path, t)
}

// writeMarkdown writes md to path, or to w when path is "-"
func writeMarkdown(w io.Writer, path, md string) error {
	if path == "-" {
		_, err := io.WriteString(w, md)
		return err
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
