package app

import (
	"context"

	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/internal/errors"
	"gocnwi/internal/render"
	"gocnwi/ports"
)

var errUnavailable = errors.Unavailable("report store is not configured")

// ReportService reads stored reports
type ReportService struct {
	reports ports.ReportRepository
}

// NewReportService creates a report service; reports may be nil
func NewReportService(reports ports.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// Enabled reports whether a store is configured
func (s *ReportService) Enabled() bool {
	return s.reports != nil
}

// Get returns one report
func (s *ReportService) Get(ctx context.Context, rawID string) (*report.Report, error) {
	if s.reports == nil {
		return nil, errUnavailable
	}
	id, err := core.ParseReportID(rawID)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.reports.GetByID(ctx, id)
}

// HTML returns the report's markdown rendered as HTML
func (s *ReportService) HTML(ctx context.Context, rawID string) ([]byte, error) {
	rep, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return render.HTML(rep.Markdown), nil
}

// List returns summaries newest first; kind may be empty
func (s *ReportService) List(ctx context.Context, kind string, limit, offset int) ([]report.Summary, error) {
	if s.reports == nil {
		return nil, errUnavailable
	}
	k := core.ReportKind(kind)
	if kind != "" && !k.Valid() {
		return nil, errors.InvalidInput("unknown report kind " + kind)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reports.List(ctx, k, limit, offset)
}

// Delete removes one report
func (s *ReportService) Delete(ctx context.Context, rawID string) error {
	if s.reports == nil {
		return errUnavailable
	}
	id, err := core.ParseReportID(rawID)
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	return s.reports.Delete(ctx, id)
}
