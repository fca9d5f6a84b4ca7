package api

import (
	"net/http"
	"strconv"

	"gocnwi/adapters/featurecollection"
	"gocnwi/app"
	"gocnwi/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// separabilityRequest carries the samples inline; fields left empty fall back to the server
// defaults
type separabilityRequest struct {
	Name            string                          `json:"name"`
	LabelField      string                          `json:"label_field"`
	ClassValueField *string                         `json:"class_value_field"`
	Exclude         []string                        `json:"exclude"`
	Predictors      []string                        `json:"predictors"`
	Records         []featurecollection.Properties `json:"records"`
	Persist         bool                            `json:"persist"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"report_store": s.reports.Enabled(),
	})
}

func (s *Server) handleSeparability(w http.ResponseWriter, r *http.Request) {
	var body separabilityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	rank, err := queryInt(r, "rank")
	if err != nil {
		s.writeError(w, err)
		return
	}
	top, err := queryInt(r, "top")
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.options.Samples
	if body.LabelField != "" {
		opts.LabelField = body.LabelField
	}
	if body.ClassValueField != nil {
		opts.ClassValueField = *body.ClassValueField
	}
	if body.Exclude != nil {
		opts.Exclude = body.Exclude
	}
	opts.Predictors = body.Predictors

	result, err := s.separability.Analyze(r.Context(), app.SeparabilityRequest{
		Name:    body.Name,
		Records: featurecollection.RecordsFromProperties(body.Records),
		Options: opts,
		Rank:    rank,
		TopK:    top,
		Persist: body.Persist,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	collection, err := featurecollection.Decode(http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}

	persist, _ := strconv.ParseBool(r.URL.Query().Get("persist"))
	result, err := s.accuracy.Evaluate(r.Context(), app.AccuracyRequest{
		Name:    r.URL.Query().Get("name"),
		Bags:    collection.PropertyBags(),
		Persist: persist,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, err)
		return
	}

	summaries, err := s.reports.List(r.Context(), r.URL.Query().Get("kind"), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	out, err := s.reports.HTML(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an optional integer query parameter; absent means zero
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput("query parameter " + name + " must be an integer")
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response: %v", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Code: errors.GetCode(err), Error: err.Error()})
}
