package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/ports"

	"github.com/jmoiron/sqlx"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

type reportRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Name      string    `db:"name"`
	InputHash string    `db:"input_hash"`
	Payload   []byte    `db:"payload"`
	Markdown  string    `db:"markdown"`
	CreatedAt time.Time `db:"created_at"`
}

// Create inserts a new report into the database
func (r *reportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `INSERT INTO reports (
		id, kind, name, input_hash, payload, markdown, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7
	)`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID.String(), string(rep.Kind), rep.Name, rep.InputHash.String(),
		[]byte(rep.Payload), rep.Markdown, rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by its ID
func (r *reportRepository) GetByID(ctx context.Context, id core.ReportID) (*report.Report, error) {
	query := `SELECT
		id, kind, name, COALESCE(input_hash, '') as input_hash, payload, COALESCE(markdown, '') as markdown, created_at
	FROM reports WHERE id = $1`

	var row reportRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("report", id.String())
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report.Report{
		ID:        core.ReportID(row.ID),
		Kind:      core.ReportKind(row.Kind),
		Name:      row.Name,
		InputHash: core.Hash(row.InputHash),
		Payload:   row.Payload,
		Markdown:  row.Markdown,
		CreatedAt: row.CreatedAt,
	}, nil
}

// List returns report summaries, newest first; an empty kind lists every kind
func (r *reportRepository) List(ctx context.Context, kind core.ReportKind, limit, offset int) ([]report.Summary, error) {
	query := `SELECT id, kind, name, created_at
	FROM reports
	WHERE ($1::text = '' OR kind = $1)
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	var summaries []report.Summary
	if err := r.db.SelectContext(ctx, &summaries, query, string(kind), limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return summaries, nil
}

// Delete removes a report
func (r *reportRepository) Delete(ctx context.Context, id core.ReportID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("report", id.String())
	}
	return nil
}
