package postgres

import (
	"context"
	"os"
	"testing"

	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, skipping the test when it is unset
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func TestReportRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	rep, err := report.New(core.ReportAccuracy, "rf-test", core.NewHash([]byte("bags")), map[string]float64{"overall": 0.875}, "# rf\n")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rep))
	t.Cleanup(func() { _ = repo.Delete(ctx, rep.ID) })

	got, err := repo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Name, got.Name)
	assert.Equal(t, rep.InputHash, got.InputHash)
	assert.JSONEq(t, string(rep.Payload), string(got.Payload))

	summaries, err := repo.List(ctx, core.ReportAccuracy, 100, 0)
	require.NoError(t, err)
	var ids []core.ReportID
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, rep.ID)

	require.NoError(t, repo.Delete(ctx, rep.ID))
	_, err = repo.GetByID(ctx, rep.ID)
	assert.True(t, core.IsNotFoundError(err))
	assert.True(t, core.IsNotFoundError(repo.Delete(ctx, rep.ID)))
}
