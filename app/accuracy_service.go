package app

import (
	"context"

	accadapter "gocnwi/adapters/accuracy"
	"gocnwi/adapters/featurecollection"
	"gocnwi/domain/accuracy"
	"gocnwi/domain/core"
	"gocnwi/domain/table"
	"gocnwi/internal"
	"gocnwi/internal/render"
	"gocnwi/ports"
)

// AccuracyService parses classifier evaluation exports into metric tables
type AccuracyService struct {
	formatter *accadapter.Formatter
	reports   ports.ReportRepository
	tolerance float64
	logger    *internal.Logger
}

// AccuracyRequest defines the inputs of one evaluation
type AccuracyRequest struct {
	Name    string
	Bags    []featurecollection.Properties
	Persist bool
}

// AccuracyResult holds the parsed bundle and its rendered tables
type AccuracyResult struct {
	ReportID      core.ReportID           `json:"report_id,omitempty"`
	InputHash     core.Hash               `json:"input_hash"`
	Bundle        *accuracy.MetricsBundle `json:"bundle"`
	Confusion     *table.Table            `json:"confusion_matrix"`
	Producers     *table.Table            `json:"producers"`
	Consumers     *table.Table            `json:"consumers"`
	OverallTable  *table.Table            `json:"overall_table"`
	Overall       float64                 `json:"overall"`
	Discrepancies []accuracy.Discrepancy  `json:"discrepancies,omitempty"`
	Markdown      string                  `json:"-"`
}

// Tables returns the metric tables in export order
func (r *AccuracyResult) Tables() []*table.Table {
	return []*table.Table{r.Confusion, r.Producers, r.Consumers, r.OverallTable}
}

// NewAccuracyService creates an accuracy service; reports may be nil
func NewAccuracyService(formatter *accadapter.Formatter, reports ports.ReportRepository, tolerance float64) *AccuracyService {
	return &AccuracyService{
		formatter: formatter,
		reports:   reports,
		tolerance: tolerance,
		logger:    internal.DefaultLogger.With("AccuracyService"),
	}
}

// Evaluate loads the metric blocks, renders the tables and checks them against the matrix
func (s *AccuracyService) Evaluate(ctx context.Context, req AccuracyRequest) (*AccuracyResult, error) {
	bundle, err := s.formatter.Load(req.Bags)
	if err != nil {
		return nil, err
	}

	tables, err := s.formatter.Tables(bundle)
	if err != nil {
		return nil, err
	}

	result := &AccuracyResult{
		InputHash:     bagsHash(req.Bags),
		Bundle:        bundle,
		Confusion:     tables[0],
		Producers:     tables[1],
		Consumers:     tables[2],
		OverallTable:  tables[3],
		Overall:       s.formatter.OverallValue(bundle),
		Discrepancies: s.formatter.Verify(bundle, s.tolerance),
	}

	title := req.Name
	if title == "" {
		title = "Accuracy assessment"
	}
	result.Markdown = render.AccuracyReport(title, bundle, tables, result.Discrepancies)

	if req.Persist {
		id, err := persistReport(ctx, s.reports, core.ReportAccuracy, req.Name, result.InputHash, result, result.Markdown)
		if err != nil {
			return nil, err
		}
		result.ReportID = id
	}

	s.logger.Info("evaluated %d classes, overall %.4f, %d discrepancies",
		len(bundle.Labels), result.Overall, len(result.Discrepancies))
	return result, nil
}

func bagsHash(bags []featurecollection.Properties) core.Hash {
	rows := make([]map[string]interface{}, len(bags))
	for i, b := range bags {
		rows[i] = b.Values
	}
	return core.ComputeRecordsHash(rows)
}
