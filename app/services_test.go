package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	accadapter "gocnwi/adapters/accuracy"
	"gocnwi/adapters/excel"
	"gocnwi/adapters/featurecollection"
	sepadapter "gocnwi/adapters/stats/separability"
	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/domain/sample"
	apperrors "gocnwi/internal/errors"
	"gocnwi/internal/testkit"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSeparabilityService_Analyze(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*report.Report")).Return(nil)

	svc := NewSeparabilityService(sepadapter.NewAnalyzer(sepadapter.DefaultConfig()), repo)
	records := testkit.NewSampleGenerator(testkit.DefaultWetlandConfig()).GenerateRecords()

	result, err := svc.Analyze(context.Background(), SeparabilityRequest{
		Name:    "wetland",
		Records: records,
		Options: sample.DefaultOptions(),
		Rank:    1,
		TopK:    2,
		Persist: true,
	})
	require.NoError(t, err)

	assert.Len(t, result.Table.Pairs, 6)
	assert.NotEmpty(t, result.Extracted)
	assert.Subset(t, result.Top, result.Extracted)
	assert.Contains(t, result.Markdown, "# wetland")
	assert.False(t, result.InputHash.IsEmpty())
	assert.NotEmpty(t, result.ReportID)

	repo.AssertExpectations(t)
	require.Len(t, repo.Reports, 1)
	stored := repo.Reports[0]
	assert.Equal(t, core.ReportSeparability, stored.Kind)
	assert.Equal(t, "wetland", stored.Name)
	assert.Equal(t, result.ReportID, stored.ID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(stored.Payload, &payload))
	assert.Contains(t, payload, "table")
}

func TestSeparabilityService_WithoutStore(t *testing.T) {
	svc := NewSeparabilityService(sepadapter.NewAnalyzer(sepadapter.DefaultConfig()), nil)
	records := testkit.NewSampleGenerator(testkit.DefaultWetlandConfig()).GenerateRecords()

	result, err := svc.Analyze(context.Background(), SeparabilityRequest{Records: records, Options: sample.DefaultOptions()})
	require.NoError(t, err)
	assert.Empty(t, result.ReportID)
	assert.Nil(t, result.Extracted)

	_, err = svc.Analyze(context.Background(), SeparabilityRequest{Records: records, Options: sample.DefaultOptions(), Persist: true})
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.GetCode(err))
}

func TestSeparabilityService_InvalidSamples(t *testing.T) {
	svc := NewSeparabilityService(sepadapter.NewAnalyzer(sepadapter.DefaultConfig()), nil)

	_, err := svc.Analyze(context.Background(), SeparabilityRequest{Options: sample.DefaultOptions()})
	assert.True(t, errors.Is(err, core.ErrEmptySampleSet))
}

func TestAccuracyService_Evaluate(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*report.Report")).Return(nil)

	svc := NewAccuracyService(accadapter.NewFormatter(), repo, 1e-6)
	bags := testkit.EvaluationFeatures([]string{"bog", "fen", "water"}, [][]int{{5, 1, 0}, {0, 4, 1}, {0, 0, 6}})

	result, err := svc.Evaluate(context.Background(), AccuracyRequest{Name: "rf-2024", Bags: bags, Persist: true})
	require.NoError(t, err)

	assert.InDelta(t, 15.0/17.0, result.Overall, 1e-12)
	assert.Empty(t, result.Discrepancies)
	assert.Len(t, result.Tables(), 4)
	assert.Equal(t, "overall", result.Tables()[3].Name)
	assert.Contains(t, result.Markdown, "## confusion matrix")
	require.Len(t, repo.Reports, 1)
	assert.Equal(t, core.ReportAccuracy, repo.Reports[0].Kind)
}

func TestAccuracyService_StoreFailure(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := NewAccuracyService(accadapter.NewFormatter(), repo, 1e-6)
	bags := testkit.EvaluationFeatures([]string{"bog", "fen"}, [][]int{{3, 1}, {0, 4}})

	_, err := svc.Evaluate(context.Background(), AccuracyRequest{Bags: bags, Persist: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, repo.Reports)
}

func TestAccuracyService_MissingBlock(t *testing.T) {
	svc := NewAccuracyService(accadapter.NewFormatter(), nil, 1e-6)
	bags := testkit.EvaluationFeatures([]string{"bog", "fen"}, [][]int{{3, 1}, {0, 4}})

	_, err := svc.Evaluate(context.Background(), AccuracyRequest{Bags: bags[1:]})
	assert.True(t, errors.Is(err, core.ErrMissingMetricBlock))
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(apperrors.Wrap(err, "evaluate")))
}

func TestReportService(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	rep, err := report.New(core.ReportAccuracy, "rf", core.NewHash([]byte("x")), map[string]int{"n": 1}, "# rf\n")
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, rep.ID).Return(rep, nil)
	repo.On("List", mock.Anything, core.ReportKind(""), 20, 0).Return([]report.Summary{{ID: rep.ID, Kind: rep.Kind, Name: rep.Name}}, nil)
	repo.On("Delete", mock.Anything, rep.ID).Return(nil)

	svc := NewReportService(repo)
	assert.True(t, svc.Enabled())

	got, err := svc.Get(context.Background(), rep.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "rf", got.Name)

	html, err := svc.HTML(context.Background(), rep.ID.String())
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")

	list, err := svc.List(context.Background(), "", 0, -5)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(context.Background(), rep.ID.String()))
	repo.AssertExpectations(t)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.List(context.Background(), "histogram", 10, 0)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestReportService_Disabled(t *testing.T) {
	svc := NewReportService(nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Get(context.Background(), core.NewID().String())
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.GetCode(err))
}

func TestOpenSamples(t *testing.T) {
	src, err := OpenSamples(filepath.Join("data", "samples.geojson"), "")
	require.NoError(t, err)
	assert.IsType(t, &featurecollection.FileReader{}, src)

	src, err = OpenSamples("samples.XLSX", "training")
	require.NoError(t, err)
	assert.IsType(t, &excel.DataReader{}, src)

	_, err = OpenSamples("samples.shp", "")
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))
}
