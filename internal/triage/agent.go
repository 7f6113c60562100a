package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediconnect/backend/internal/models"
	"github.com/mediconnect/backend/internal/oracle"
	"github.com/mediconnect/backend/internal/retrieval"
)

// ErrEmptySymptoms is the only error Assess returns; everything else
// degrades to a deterministic verdict.
var ErrEmptySymptoms = errors.New("symptom text is required")

// HistoryStore is the relational collaborator the agent reads context from
// and writes verdicts to.
type HistoryStore interface {
	GetRecentHistory(ctx context.Context, subjectID string, limit int) ([]models.SymptomLog, error)
	GetUnresolved(ctx context.Context, subjectID string, limit int, statuses []string) ([]models.SymptomLog, error)
	FindRelated(ctx context.Context, subjectID string, text string, daysBack int) ([]models.SymptomLog, error)
	SaveVerdict(ctx context.Context, subjectID string, symptoms string, v models.TriageVerdict) error
}

// Agent drives the four-stage triage pipeline. The collaborators must
// tolerate concurrent use; the agent itself holds no mutable state.
type Agent struct {
	Store  HistoryStore
	Index  retrieval.Index
	Oracle oracle.Client
	Logger zerolog.Logger
}

// Assess runs one report through GatherContext, Reason, Classify and
// Synthesize, then persists and indexes the verdict best-effort. Any
// unexpected failure inside the pipeline resolves to the fallback engine's
// verdict, so valid input always yields a complete verdict.
func (a *Agent) Assess(ctx context.Context, subjectID string, symptoms string) (models.TriageVerdict, error) {
	if strings.TrimSpace(symptoms) == "" {
		return models.TriageVerdict{}, ErrEmptySymptoms
	}

	verdict := a.runPipeline(ctx, subjectID, symptoms)
	a.persistAndIndex(ctx, subjectID, symptoms, verdict)
	return verdict, nil
}

// runPipeline executes the four classification stages. A panic in any stage
// resolves to the fallback engine's verdict; persistence is not covered here
// because a storage failure must never replace a computed verdict.
func (a *Agent) runPipeline(ctx context.Context, subjectID string, symptoms string) (verdict models.TriageVerdict) {
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error().Interface("panic", r).Msg("triage pipeline panicked, using fallback verdict")
			verdict = FallbackTriage(symptoms)
		}
	}()

	rc := a.gatherContext(ctx, subjectID, symptoms)
	reasoning := a.reason(ctx, symptoms, rc)
	tier := ClassifyESI(symptoms, reasoning)
	return a.synthesize(ctx, symptoms, rc, reasoning, tier)
}

// reason calls the oracle with the chain-of-thought prompt. Oracle failure
// drops to local fallback reasoning; unstructured output is wrapped by
// parseReasoning. The stage itself never fails.
func (a *Agent) reason(ctx context.Context, symptoms string, rc ReasoningContext) ReasoningResult {
	prompt := buildReasoningPrompt(symptoms, rc)
	res, err := a.Oracle.Generate(ctx, prompt)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("oracle reasoning failed, using local rules")
		return fallbackReasoning(symptoms)
	}
	out := parseReasoning(res)
	if out.Degraded {
		a.Logger.Info().Msg("oracle returned unstructured reasoning output")
	}
	return out
}

// synthesize produces the final verdict with a three-rung degradation
// ladder: structured oracle output, then an ESI-derived description, then a
// minimal ESI description.
func (a *Agent) synthesize(ctx context.Context, symptoms string, rc ReasoningContext, reasoning ReasoningResult, tier EsiTier) models.TriageVerdict {
	base := models.TriageVerdict{
		UrgencyLevel:      tier.Urgency,
		ESIClassification: tier.Level,
		ReasoningChain:    reasoning.Steps,
		SnomedCodes:       rc.Signals.SnomedCodes,
	}

	res, err := a.Oracle.Generate(ctx, buildSynthesisPrompt(symptoms, tier, reasoning))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("oracle synthesis failed, using minimal ESI description")
		base.Explanation = fmt.Sprintf("ESI %s: %s. %s", tier.Level, tier.Description, tier.Timeframe)
		base.Confidence = 0.6
		return base
	}

	if res.Structured {
		var payload struct {
			UrgencyLevel string            `json:"urgency_level"`
			Explanation  string            `json:"explanation"`
			Confidence   *float64          `json:"confidence"`
			NextSteps    *models.NextSteps `json:"next_steps"`
		}
		if jsonErr := json.Unmarshal(res.JSON, &payload); jsonErr == nil {
			urgency := models.UrgencyLevel(payload.UrgencyLevel)
			if urgency.Valid() && confidenceUsable(payload.Confidence) {
				base.UrgencyLevel = urgency
				base.Explanation = payload.Explanation
				base.Confidence = 0.8
				if payload.Confidence != nil {
					base.Confidence = *payload.Confidence
				}
				base.NextSteps = payload.NextSteps
				return base
			}
		}
	}

	base.Explanation = fmt.Sprintf("Based on ESI classification %s: %s", tier.Level, tier.Description)
	base.Confidence = 0.7
	return base
}

// confidenceUsable accepts an absent confidence (the default applies) or one
// inside [0,1]. Anything else marks the whole payload as unusable.
func confidenceUsable(c *float64) bool {
	return c == nil || (*c >= 0 && *c <= 1)
}

// persistAndIndex writes the verdict and feeds the raw text into the
// similar-case index. Both writes are best-effort: failures are logged and
// never surfaced to the caller.
func (a *Agent) persistAndIndex(ctx context.Context, subjectID string, symptoms string, v models.TriageVerdict) {
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error().Interface("panic", r).Str("subject_id", subjectID).Msg("verdict persistence panicked")
		}
	}()

	if err := a.Store.SaveVerdict(ctx, subjectID, symptoms, v); err != nil {
		a.Logger.Error().Err(err).Str("subject_id", subjectID).Msg("verdict save failed")
	}

	metadata := map[string]string{
		"urgency_level":      string(v.UrgencyLevel),
		"esi_classification": v.ESIClassification,
		"confidence":         fmt.Sprintf("%.2f", v.Confidence),
	}
	if _, err := a.Index.AddDocument(ctx, subjectID, symptoms, metadata); err != nil {
		a.Logger.Error().Err(err).Str("subject_id", subjectID).Msg("history indexing failed")
	}
}
