package triage

import (
	"encoding/json"
	"strings"

	"github.com/mediconnect/backend/internal/models"
	"github.com/mediconnect/backend/internal/oracle"
)

// ReasoningResult is the typed outcome of the reasoning stage. Degraded is
// set when the oracle returned unusable output or failed and local rules
// produced the result instead.
type ReasoningResult struct {
	Steps              []models.ReasoningStep
	RedFlags           []string
	RiskFactors        []string
	PreliminaryUrgency models.UrgencyLevel
	Confidence         float64
	Degraded           bool
}

// parseReasoning turns an oracle result into a ReasoningResult. Well-formed
// structured output is used as-is; anything else becomes a single-step
// low-confidence trace.
func parseReasoning(res oracle.Result) ReasoningResult {
	if res.Structured {
		var payload struct {
			ReasoningSteps []struct {
				Step     int    `json:"step"`
				Analysis string `json:"analysis"`
				Findings string `json:"findings"`
			} `json:"reasoning_steps"`
			RedFlags           []string `json:"red_flags"`
			RiskFactors        []string `json:"risk_factors"`
			PreliminaryUrgency string   `json:"preliminary_urgency"`
			Confidence         float64  `json:"confidence"`
		}
		if err := json.Unmarshal(res.JSON, &payload); err == nil && len(payload.ReasoningSteps) > 0 {
			out := ReasoningResult{
				RedFlags:           payload.RedFlags,
				RiskFactors:        payload.RiskFactors,
				PreliminaryUrgency: models.UrgencyLevel(payload.PreliminaryUrgency),
				Confidence:         payload.Confidence,
			}
			for _, s := range payload.ReasoningSteps {
				out.Steps = append(out.Steps, models.ReasoningStep{Step: s.Step, Analysis: s.Analysis, Findings: s.Findings})
			}
			return out
		}
	}

	findings := res.Text
	if len(findings) > 200 {
		findings = findings[:200]
	}
	return ReasoningResult{
		Steps:              []models.ReasoningStep{{Step: 1, Analysis: "Basic analysis", Findings: findings}},
		PreliminaryUrgency: models.PrimaryCare,
		Confidence:         0.6,
		Degraded:           true,
	}
}

// fallbackReasoning is the local stand-in when the oracle call itself fails.
// It compresses the safety cascade's danger logic into a one-step trace.
func fallbackReasoning(symptoms string) ReasoningResult {
	lower := strings.ToLower(symptoms)

	if anyPattern(bloodEmergencyPatterns, lower) {
		return ReasoningResult{
			Steps:              []models.ReasoningStep{{Step: 1, Analysis: "Blood symptom detected", Findings: "Blood in cough/vomit/stool requires emergency care"}},
			RedFlags:           []string{"blood symptoms"},
			PreliminaryUrgency: models.Emergency,
			Confidence:         0.9,
			Degraded:           true,
		}
	}

	hasChest := anyPattern(chestPainPatterns, lower)
	hasBreathing := anyPattern(breathingPatterns, lower)
	switch {
	case hasChest && hasBreathing:
		return ReasoningResult{
			Steps:              []models.ReasoningStep{{Step: 1, Analysis: "Chest pain with breathing difficulty", Findings: "Potential cardiac or pulmonary emergency"}},
			RedFlags:           []string{"chest pain", "breathing difficulty"},
			PreliminaryUrgency: models.Emergency,
			Confidence:         0.95,
			Degraded:           true,
		}
	case hasChest || hasBreathing:
		flag := "breathing difficulty"
		if hasChest {
			flag = "chest symptoms"
		}
		return ReasoningResult{
			Steps:              []models.ReasoningStep{{Step: 1, Analysis: "Cardiopulmonary symptom detected", Findings: "Requires emergency evaluation"}},
			RedFlags:           []string{flag},
			PreliminaryUrgency: models.Emergency,
			Confidence:         0.9,
			Degraded:           true,
		}
	}

	urgency := models.PrimaryCare
	confidence := 0.5
	if anyKeyword([]string{"chest pain", "difficulty breathing", "severe", "blood"}, lower) {
		urgency = models.Emergency
		confidence = 0.7
	} else if anyKeyword([]string{"pain", "fever", "headache"}, lower) {
		urgency = models.Urgent
		confidence = 0.6
	}
	return ReasoningResult{
		Steps:              []models.ReasoningStep{{Step: 1, Analysis: "Keyword-based analysis", Findings: "Classified as " + string(urgency)}},
		PreliminaryUrgency: urgency,
		Confidence:         confidence,
		Degraded:           true,
	}
}
