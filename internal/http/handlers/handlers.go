package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mediconnect/backend/internal/models"
	"github.com/mediconnect/backend/internal/retrieval"
	"github.com/mediconnect/backend/internal/triage"
)

// SubjectHeader carries the subject id; session handling lives upstream of
// this service.
const SubjectHeader = "X-Subject-Id"

// Assessor runs one symptom report through the triage pipeline.
type Assessor interface {
	Assess(ctx context.Context, subjectID string, symptoms string) (models.TriageVerdict, error)
}

// HistoryReader is the slice of the store the history endpoints need.
type HistoryReader interface {
	GetRecentHistory(ctx context.Context, subjectID string, limit int) ([]models.SymptomLog, error)
	UpdateResolution(ctx context.Context, logID string, subjectID string, status string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Triage    Assessor
	History   HistoryReader
	Index     retrieval.Index
	DB        Pinger
	Validator *validator.Validate
	Logger    zerolog.Logger
}

type AssessRequest struct {
	Symptoms string `json:"symptoms" validate:"required"`
}

type ResolutionRequest struct {
	SymptomLogID     string `json:"symptom_log_id" validate:"required"`
	ResolutionStatus string `json:"resolution_status" validate:"required,oneof=Ongoing Improved Resolved Worsened Unknown"`
}

type IngestDocument struct {
	Text     string            `json:"text" validate:"required"`
	Metadata map[string]string `json:"metadata"`
}

type IngestRequest struct {
	Documents []IngestDocument `json:"documents" validate:"required,min=1,dive"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Assess symptoms
// @Description Run a free-text symptom description through the triage pipeline
// @Tags triage
// @Accept json
// @Produce json
// @Param X-Subject-Id header string true "subject id"
// @Param request body AssessRequest true "symptom report"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/triage/assess [post]
func (h *Handler) Assess(c *gin.Context) {
	subjectID := c.GetHeader(SubjectHeader)
	if subjectID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "X-Subject-Id header required", nil)
		return
	}

	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "symptoms are required", err.Error())
		return
	}

	verdict, err := h.Triage.Assess(c.Request.Context(), subjectID, req.Symptoms)
	if err != nil {
		if errors.Is(err, triage.ErrEmptySymptoms) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "symptoms are required", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("assessment failed")
		writeError(c, http.StatusInternalServerError, "ASSESSMENT_FAILED", "Triage assessment failed", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"urgency_level":      verdict.UrgencyLevel,
			"explanation":        verdict.Explanation,
			"confidence":         verdict.Confidence,
			"esi_classification": verdict.ESIClassification,
			"reasoning_chain":    verdict.ReasoningChain,
			"snomed_codes":       verdict.SnomedCodes,
			"next_steps":         verdict.NextSteps,
			"timestamp":          time.Now().UTC(),
		},
	})
}

// @Summary List urgency levels
// @Tags triage
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/triage/urgency-levels [get]
func (h *Handler) UrgencyLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"urgency_levels": gin.H{
			string(models.Emergency): gin.H{
				"description": "Life-threatening conditions requiring immediate ER visit",
				"color":       "#DC2626",
				"priority":    5,
			},
			string(models.Urgent): gin.H{
				"description": "Serious conditions requiring same-day medical attention",
				"color":       "#EA580C",
				"priority":    4,
			},
			string(models.PrimaryCare): gin.H{
				"description": "Non-urgent conditions suitable for routine doctor visit",
				"color":       "#D97706",
				"priority":    3,
			},
			string(models.Telehealth): gin.H{
				"description": "Minor conditions that can be addressed via remote consultation",
				"color":       "#059669",
				"priority":    2,
			},
			string(models.SelfCare): gin.H{
				"description": "Minor conditions manageable with home care",
				"color":       "#0284C7",
				"priority":    1,
			},
		},
	})
}

// @Summary Get symptom history
// @Tags history
// @Produce json
// @Param X-Subject-Id header string true "subject id"
// @Param limit query int false "max rows"
// @Success 200 {object} map[string]any
// @Router /api/history [get]
func (h *Handler) HistoryList(c *gin.Context) {
	subjectID := c.GetHeader(SubjectHeader)
	if subjectID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "X-Subject-Id header required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	logs, err := h.History.GetRecentHistory(c.Request.Context(), subjectID, limit)
	if err != nil {
		h.Logger.Error().Err(err).Msg("history fetch failed")
		writeError(c, http.StatusInternalServerError, "HISTORY_FAILED", "Failed to retrieve history", nil)
		return
	}
	if logs == nil {
		logs = []models.SymptomLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total_count": len(logs)})
}

// @Summary Get recent symptom texts
// @Tags history
// @Produce json
// @Param X-Subject-Id header string true "subject id"
// @Success 200 {object} map[string]any
// @Router /api/history/recent [get]
func (h *Handler) HistoryRecent(c *gin.Context) {
	subjectID := c.GetHeader(SubjectHeader)
	if subjectID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "X-Subject-Id header required", nil)
		return
	}

	logs, err := h.History.GetRecentHistory(c.Request.Context(), subjectID, 5)
	if err != nil {
		h.Logger.Error().Err(err).Msg("recent symptoms fetch failed")
		writeError(c, http.StatusInternalServerError, "HISTORY_FAILED", "Failed to retrieve recent symptoms", nil)
		return
	}
	recent := make([]string, 0, len(logs))
	for _, l := range logs {
		recent = append(recent, l.Symptoms)
	}
	c.JSON(http.StatusOK, gin.H{"recent_symptoms": recent})
}

// @Summary Get assessment statistics
// @Tags history
// @Produce json
// @Param X-Subject-Id header string true "subject id"
// @Success 200 {object} map[string]any
// @Router /api/history/stats [get]
func (h *Handler) HistoryStats(c *gin.Context) {
	subjectID := c.GetHeader(SubjectHeader)
	if subjectID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "X-Subject-Id header required", nil)
		return
	}

	logs, err := h.History.GetRecentHistory(c.Request.Context(), subjectID, 50)
	if err != nil {
		h.Logger.Error().Err(err).Msg("stats fetch failed")
		writeError(c, http.StatusInternalServerError, "HISTORY_FAILED", "Failed to retrieve stats", nil)
		return
	}

	urgencyCounts := map[string]int{}
	for _, l := range logs {
		urgencyCounts[string(l.UrgencyLevel)]++
	}
	mostCommon := ""
	best := 0
	for level, n := range urgencyCounts {
		if n > best || (n == best && level < mostCommon) {
			mostCommon = level
			best = n
		}
	}

	recent := len(logs)
	if recent > 10 {
		recent = 10
	}
	c.JSON(http.StatusOK, gin.H{
		"total_assessments":    len(logs),
		"urgency_distribution": urgencyCounts,
		"most_common_urgency":  mostCommon,
		"recent_activity":      recent,
	})
}

// @Summary Update resolution status
// @Tags history
// @Accept json
// @Produce json
// @Param X-Subject-Id header string true "subject id"
// @Param request body ResolutionRequest true "resolution update"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/history/resolution [put]
func (h *Handler) UpdateResolution(c *gin.Context) {
	subjectID := c.GetHeader(SubjectHeader)
	if subjectID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "X-Subject-Id header required", nil)
		return
	}

	var req ResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid resolution update", err.Error())
		return
	}

	if err := h.History.UpdateResolution(c.Request.Context(), req.SymptomLogID, subjectID, req.ResolutionStatus); err != nil {
		h.Logger.Error().Err(err).Str("log_id", req.SymptomLogID).Msg("resolution update failed")
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Symptom log not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// @Summary Ingest clinical reference documents
// @Description Bulk-load reference snippets into the retrieval index
// @Tags admin
// @Accept json
// @Produce json
// @Param request body IngestRequest true "reference documents"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/admin/reference/ingest [post]
func (h *Handler) ReferenceIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "documents are required", err.Error())
		return
	}

	ids := make([]string, 0, len(req.Documents))
	failed := 0
	for _, doc := range req.Documents {
		id, err := h.Index.AddDocument(c.Request.Context(), "", doc.Text, doc.Metadata)
		if err != nil {
			h.Logger.Error().Err(err).Msg("reference ingest failed for document")
			failed++
			continue
		}
		ids = append(ids, id)
	}
	c.JSON(http.StatusOK, gin.H{"ingested": len(ids), "failed": failed, "ids": ids})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	body := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if details != nil {
		body["error"].(gin.H)["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}
