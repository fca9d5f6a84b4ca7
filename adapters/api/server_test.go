package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	accadapter "gocnwi/adapters/accuracy"
	sepadapter "gocnwi/adapters/stats/separability"
	"gocnwi/app"
	"gocnwi/domain/core"
	"gocnwi/domain/report"
	"gocnwi/domain/sample"
	"gocnwi/internal/errors"
	"gocnwi/internal/testkit"
	"gocnwi/ports"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(repo ports.ReportRepository) *Server {
	return NewServer(
		app.NewSeparabilityService(sepadapter.NewAnalyzer(sepadapter.DefaultConfig()), repo),
		app.NewAccuracyService(accadapter.NewFormatter(), repo, 1e-6),
		app.NewReportService(repo),
		Options{Samples: sample.DefaultOptions()},
	)
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const twoClassBody = `{
	"name": "wetland",
	"records": [
		{"land_cover": "bog", "value": 1, "ndvi": 0.10, "vh": -18.0},
		{"land_cover": "bog", "value": 1, "ndvi": 0.20, "vh": -17.5},
		{"land_cover": "bog", "value": 1, "ndvi": 0.15, "vh": -18.2},
		{"land_cover": "fen", "value": 2, "ndvi": 0.60, "vh": -17.9},
		{"land_cover": "fen", "value": 2, "ndvi": 0.70, "vh": -17.7},
		{"land_cover": "fen", "value": 2, "ndvi": 0.65, "vh": -18.1}
	]
}`

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","report_store":false}`, rec.Body.String())
}

func TestSeparability(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/separability?rank=1&top=1", []byte(twoClassBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Table struct {
			Predictors []string `json:"predictors"`
			Rows       []struct {
				Rank      int    `json:"rank"`
				Predictor string `json:"predictor"`
			} `json:"rows"`
		} `json:"table"`
		Extracted []string `json:"extracted"`
		Top       []string `json:"top"`
		ReportID  string   `json:"report_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	assert.Equal(t, []string{"ndvi", "vh"}, out.Table.Predictors)
	require.Len(t, out.Table.Rows, 2)
	assert.Equal(t, "ndvi", out.Table.Rows[0].Predictor)
	assert.Equal(t, []string{"ndvi"}, out.Extracted)
	assert.Equal(t, []string{"ndvi"}, out.Top)
	assert.Empty(t, out.ReportID)
}

func TestSeparability_ExplicitPredictors(t *testing.T) {
	body := strings.Replace(twoClassBody, `"name": "wetland",`, `"predictors": ["vh"],`, 1)
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/separability", []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, rec.Body.String(), `"predictors":["vh"]`)
}

func TestSeparability_Errors(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"malformed body", "/api/separability", `{"records": [`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad rank", "/api/separability?rank=first", twoClassBody, http.StatusBadRequest, errors.CodeInvalidInput},
		{"no records", "/api/separability", `{"records": []}`, http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"single class", "/api/separability", `{"records": [{"land_cover": "bog", "ndvi": 0.1}, {"land_cover": "bog", "ndvi": 0.2}]}`, http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"persist without store", "/api/separability", strings.Replace(twoClassBody, `"name"`, `"persist": true, "name"`, 1), http.StatusServiceUnavailable, errors.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, []byte(tt.body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestAccuracy(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*report.Report")).Return(nil)

	body, err := json.Marshal(testkit.EvaluationCollection([]string{"bog", "fen"}, [][]int{{3, 1}, {0, 4}}))
	require.NoError(t, err)

	rec := do(t, newTestServer(repo), http.MethodPost, "/api/accuracy?name=rf&persist=true", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		ReportID string  `json:"report_id"`
		Overall  float64 `json:"overall"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.InDelta(t, 7.0/8.0, out.Overall, 1e-12)
	require.Len(t, repo.Reports, 1)
	assert.Equal(t, repo.Reports[0].ID.String(), out.ReportID)
	assert.Equal(t, "rf", repo.Reports[0].Name)
}

func TestAccuracy_InvalidDocument(t *testing.T) {
	s := newTestServer(nil)

	rec := do(t, s, http.MethodPost, "/api/accuracy", []byte(`{"type": "Feature"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidInput, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/accuracy", []byte(`{"type": "FeatureCollection", "features": []}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "confusion_matrix")
}

func TestReports_WithoutStore(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/api/reports", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.CodeUnavailable, decodeError(t, rec).Code)
}

func TestReports(t *testing.T) {
	repo := new(testkit.MockReportRepository)
	rep, err := report.New(core.ReportSeparability, "wetland", core.NewHash([]byte("x")), map[string]int{"n": 1}, "# Wetland\n")
	require.NoError(t, err)
	missing := core.ReportID(core.NewID())

	repo.On("GetByID", mock.Anything, rep.ID).Return(rep, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, core.NewNotFoundError("report", missing.String()))
	repo.On("List", mock.Anything, core.ReportSeparability, 5, 10).Return([]report.Summary{{ID: rep.ID, Kind: rep.Kind, Name: rep.Name}}, nil)
	repo.On("Delete", mock.Anything, rep.ID).Return(nil)

	s := newTestServer(repo)

	rec := do(t, s, http.MethodGet, "/api/reports/"+rep.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"wetland"`)

	rec = do(t, s, http.MethodGet, "/api/reports/"+rep.ID.String()+"/html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Wetland</h1>")

	rec = do(t, s, http.MethodGet, "/api/reports?kind=separability&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), rep.ID.String())

	rec = do(t, s, http.MethodGet, "/api/reports/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/api/reports/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/reports/"+rep.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	repo.AssertExpectations(t)
}
