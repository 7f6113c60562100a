package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mediconnect/backend/internal/models"
	"github.com/mediconnect/backend/internal/triage"
)

type stubAssessor struct {
	verdict models.TriageVerdict
	err     error
}

func (s stubAssessor) Assess(_ context.Context, _ string, symptoms string) (models.TriageVerdict, error) {
	if s.err != nil {
		return models.TriageVerdict{}, s.err
	}
	return s.verdict, nil
}

type stubHistory struct {
	logs      []models.SymptomLog
	updateErr error
	updated   []string
}

func (s *stubHistory) GetRecentHistory(_ context.Context, _ string, limit int) ([]models.SymptomLog, error) {
	if limit < len(s.logs) {
		return s.logs[:limit], nil
	}
	return s.logs, nil
}

func (s *stubHistory) UpdateResolution(_ context.Context, logID string, _ string, status string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, logID+":"+status)
	return nil
}

type stubIngestIndex struct {
	added []string
}

func (s *stubIngestIndex) SearchReference(context.Context, string, int) ([]models.RetrievalHit, error) {
	return nil, nil
}

func (s *stubIngestIndex) SearchSimilarHistory(context.Context, string, string, int) ([]models.RetrievalHit, error) {
	return nil, nil
}

func (s *stubIngestIndex) AddDocument(_ context.Context, _ string, text string, _ map[string]string) (string, error) {
	s.added = append(s.added, text)
	return "ref-1", nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/triage/assess", h.Assess)
	r.GET("/api/triage/urgency-levels", h.UrgencyLevels)
	r.GET("/api/history", h.HistoryList)
	r.GET("/api/history/recent", h.HistoryRecent)
	r.GET("/api/history/stats", h.HistoryStats)
	r.PUT("/api/history/resolution", h.UpdateResolution)
	r.POST("/api/admin/reference/ingest", h.ReferenceIngest)
	return r
}

func newTestHandler() *Handler {
	return &Handler{
		Triage: stubAssessor{verdict: models.TriageVerdict{
			UrgencyLevel:      models.Emergency,
			Explanation:       "seek emergency care",
			Confidence:        0.95,
			ESIClassification: "ESI-1",
		}},
		History:   &stubHistory{},
		Index:     &stubIngestIndex{},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
}

func TestAssessSuccess(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"symptoms": "chest pain and shortness of breath"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/triage/assess", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			UrgencyLevel string  `json:"urgency_level"`
			Confidence   float64 `json:"confidence"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" || resp.Data.UrgencyLevel != "Emergency" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestAssessRequiresSubjectHeader(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"symptoms": "headache"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/triage/assess", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAssessEmptySymptoms(t *testing.T) {
	h := newTestHandler()
	h.Triage = stubAssessor{err: triage.ErrEmptySymptoms}
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"symptoms": " "}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/triage/assess", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty symptoms, got %d", w.Code)
	}
}

func TestAssessMissingBody(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/triage/assess", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing symptoms field, got %d", w.Code)
	}
}

func TestUrgencyLevelsCatalog(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/triage/urgency-levels", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		UrgencyLevels map[string]struct {
			Description string `json:"description"`
			Color       string `json:"color"`
			Priority    int    `json:"priority"`
		} `json:"urgency_levels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.UrgencyLevels) != 5 {
		t.Fatalf("expected 5 urgency levels, got %d", len(resp.UrgencyLevels))
	}
	if resp.UrgencyLevels["Emergency"].Priority != 5 {
		t.Fatalf("expected Emergency priority 5, got %d", resp.UrgencyLevels["Emergency"].Priority)
	}
}

func TestHistoryStats(t *testing.T) {
	h := newTestHandler()
	h.History = &stubHistory{logs: []models.SymptomLog{
		{UrgencyLevel: models.PrimaryCare},
		{UrgencyLevel: models.PrimaryCare},
		{UrgencyLevel: models.Emergency},
	}}
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/history/stats", nil)
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		TotalAssessments  int            `json:"total_assessments"`
		Distribution      map[string]int `json:"urgency_distribution"`
		MostCommonUrgency string         `json:"most_common_urgency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalAssessments != 3 {
		t.Fatalf("expected 3 assessments, got %d", resp.TotalAssessments)
	}
	if resp.MostCommonUrgency != string(models.PrimaryCare) {
		t.Fatalf("expected Primary Care most common, got %q", resp.MostCommonUrgency)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Logs       []models.SymptomLog `json:"logs"`
		TotalCount int                 `json:"total_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Logs == nil || resp.TotalCount != 0 {
		t.Fatalf("expected empty list, got %s", w.Body.String())
	}
}

func TestUpdateResolutionRejectsUnknownStatus(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"symptom_log_id": "log-1", "resolution_status": "Cured"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/history/resolution", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestUpdateResolutionNotFound(t *testing.T) {
	h := newTestHandler()
	h.History = &stubHistory{updateErr: errors.New("no rows")}
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"symptom_log_id": "log-1", "resolution_status": "Resolved"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/history/resolution", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReferenceIngest(t *testing.T) {
	h := newTestHandler()
	idx := &stubIngestIndex{}
	h.Index = idx
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"documents": [
		{"text": "Chest pain with dyspnea requires emergency evaluation.", "metadata": {"source": "triage-protocol"}},
		{"text": "Uncomplicated nasal congestion is self-limited."}
	]}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/admin/reference/ingest", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(idx.added) != 2 {
		t.Fatalf("expected 2 documents ingested, got %d", len(idx.added))
	}
	var resp struct {
		Ingested int      `json:"ingested"`
		IDs      []string `json:"ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ingested != 2 || len(resp.IDs) != 2 {
		t.Fatalf("unexpected ingest summary: %s", w.Body.String())
	}
}

func TestReferenceIngestRequiresDocuments(t *testing.T) {
	h := newTestHandler()
	r := newTestRouter(h)

	body := bytes.NewBufferString(`{"documents": []}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/admin/reference/ingest", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty documents, got %d", w.Code)
	}
}
