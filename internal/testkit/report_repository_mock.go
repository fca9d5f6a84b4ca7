package testkit

import (
	"context"

	"gocnwi/domain/core"
	"gocnwi/domain/report"

	"github.com/stretchr/testify/mock"
)

// MockReportRepository is a testify mock of ports.ReportRepository that records the reports
// it accepts
type MockReportRepository struct {
	mock.Mock
	Reports []*report.Report
}

func (m *MockReportRepository) Create(ctx context.Context, r *report.Report) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		m.Reports = append(m.Reports, r)
	}
	return args.Error(0)
}

func (m *MockReportRepository) GetByID(ctx context.Context, id core.ReportID) (*report.Report, error) {
	args := m.Called(ctx, id)
	if rep, ok := args.Get(0).(*report.Report); ok {
		return rep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, kind core.ReportKind, limit, offset int) ([]report.Summary, error) {
	args := m.Called(ctx, kind, limit, offset)
	if out, ok := args.Get(0).([]report.Summary); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportRepository) Delete(ctx context.Context, id core.ReportID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
