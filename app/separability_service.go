package app

import (
	"context"
	"fmt"
	"time"

	sepadapter "gocnwi/adapters/stats/separability"
	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/domain/sample"
	"gocnwi/domain/separability"
	"gocnwi/internal"
	"gocnwi/internal/render"
	"gocnwi/ports"
)

// SeparabilityService ranks predictors for a sample set and optionally stores the result
type SeparabilityService struct {
	analyzer *sepadapter.Analyzer
	reports  ports.ReportRepository
	logger   *internal.Logger
}

// SeparabilityRequest defines the inputs of one separability analysis
type SeparabilityRequest struct {
	Name    string
	Records sample.Records
	Options sample.Options
	// Rank, when positive, extracts the predictors holding that rank in any pair
	Rank int
	// TopK, when positive, selects the union of ranks 1..TopK
	TopK    int
	Persist bool
}

// SeparabilityResult is the outcome of one analysis
type SeparabilityResult struct {
	ReportID  core.ReportID       `json:"report_id,omitempty"`
	InputHash core.Hash           `json:"input_hash"`
	Table     *separability.Table `json:"table"`
	Extracted []string            `json:"extracted,omitempty"`
	Top       []string            `json:"top,omitempty"`
	Markdown  string              `json:"-"`
	RuntimeMs int64               `json:"runtime_ms"`
}

// NewSeparabilityService creates a separability service; reports may be nil
func NewSeparabilityService(analyzer *sepadapter.Analyzer, reports ports.ReportRepository) *SeparabilityService {
	return &SeparabilityService{
		analyzer: analyzer,
		reports:  reports,
		logger:   internal.DefaultLogger.With("SeparabilityService"),
	}
}

// Analyze builds the sample set, scores it and renders the report
func (s *SeparabilityService) Analyze(ctx context.Context, req SeparabilityRequest) (*SeparabilityResult, error) {
	startTime := time.Now()

	set, err := sample.FromRecords(req.Records, req.Options)
	if err != nil {
		return nil, err
	}

	tbl, err := s.analyzer.Compute(ctx, set)
	if err != nil {
		return nil, err
	}

	result := &SeparabilityResult{
		InputHash: recordsHash(req.Records),
		Table:     tbl,
	}
	if req.Rank > 0 {
		result.Extracted = tbl.ExtractByRank(req.Rank)
	}
	if req.TopK > 0 {
		result.Top = tbl.TopPredictors(req.TopK)
	}

	title := req.Name
	if title == "" {
		title = "Class separability"
	}
	result.Markdown = render.SeparabilityReport(title, tbl, req.TopK)

	if req.Persist {
		id, err := persistReport(ctx, s.reports, core.ReportSeparability, req.Name, result.InputHash, result, result.Markdown)
		if err != nil {
			return nil, err
		}
		result.ReportID = id
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	s.logger.Info("analyzed %d samples (input %s) in %dms", len(set.Samples), result.InputHash.Short(), result.RuntimeMs)
	return result, nil
}

func persistReport(ctx context.Context, repo ports.ReportRepository, kind core.ReportKind, name string, hash core.Hash, payload interface{}, md string) (core.ReportID, error) {
	if repo == nil {
		return "", errUnavailable
	}
	rep, err := report.New(kind, name, hash, payload, md)
	if err != nil {
		return "", err
	}
	if err := repo.Create(ctx, rep); err != nil {
		return "", fmt.Errorf("failed to store %s report: %w", kind, err)
	}
	return rep.ID, nil
}

func recordsHash(records sample.Records) core.Hash {
	rows := make([]map[string]interface{}, len(records.Rows))
	for i, r := range records.Rows {
		rows[i] = r
	}
	return core.ComputeRecordsHash(rows)
}
