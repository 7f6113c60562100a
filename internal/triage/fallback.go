package triage

import "github.com/mediconnect/backend/internal/models"

// FallbackTriage is the fully local, deterministic classifier. It uses only
// the extractor and the safety cascade, always terminates, and never returns
// anything below Primary Care except through the minor-symptom allow-list.
// It serves both as the orchestrator's last resort and as the safety net a
// caller can invoke directly when the pipeline is unavailable.
func FallbackTriage(symptoms string) models.TriageVerdict {
	sig := Extract(symptoms)
	match := EvaluateCascade(symptoms, sig)

	return models.TriageVerdict{
		UrgencyLevel:      match.Urgency,
		Explanation:       match.Explanation,
		Confidence:        match.Confidence,
		ESIClassification: match.ESILevel,
		ReasoningChain: []models.ReasoningStep{
			{Step: 1, Analysis: "Deterministic safety cascade", Findings: "Matched rule: " + match.Rule},
		},
		SnomedCodes: sig.SnomedCodes,
	}
}
