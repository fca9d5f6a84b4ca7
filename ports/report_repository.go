package ports

import (
	"context"

	"gocnwi/domain/core"
	"gocnwi/domain/report"
)

// ReportRepository defines the interface for report storage operations
type ReportRepository interface {
	Create(ctx context.Context, r *report.Report) error
	GetByID(ctx context.Context, id core.ReportID) (*report.Report, error)
	List(ctx context.Context, kind core.ReportKind, limit, offset int) ([]report.Summary, error)
	Delete(ctx context.Context, id core.ReportID) error
}
