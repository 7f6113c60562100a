package triage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mediconnect/backend/internal/models"
)

// buildReasoningPrompt assembles the chain-of-thought prompt for the first
// oracle call. It embeds the full context bundle and spells out the
// co-occurrence escalations so the model cannot miss them.
func buildReasoningPrompt(symptoms string, rc ReasoningContext) string {
	var b strings.Builder

	b.WriteString("You are an expert medical triage AI agent. Analyze the following case using step-by-step reasoning.\n\n")
	fmt.Fprintf(&b, "CURRENT SYMPTOMS: %s\n\n", symptoms)

	b.WriteString("UNRESOLVED SYMPTOMS (CRITICAL - these may be related or worsening):\n")
	b.WriteString(formatLogs(rc.Unresolved, 3, true))
	b.WriteString("\n\nRELATED SYMPTOMS FROM HISTORY:\n")
	b.WriteString(formatLogs(rc.Related, 3, false))

	b.WriteString("\n\nPATIENT HISTORY (last assessments):\n")
	if len(rc.History) == 0 {
		b.WriteString("No previous history available")
	} else {
		for i, l := range rc.History {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", l.Symptoms)
		}
	}

	b.WriteString("\n\nRELEVANT CLINICAL GUIDELINES:\n")
	for i, hit := range rc.Guidelines {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", truncate(hit.Document, 200))
	}

	b.WriteString("\nSIMILAR PAST CASES:\n")
	if len(rc.SimilarCases) == 0 {
		b.WriteString("No similar cases found\n")
	} else {
		for _, hit := range rc.SimilarCases {
			fmt.Fprintf(&b, "- %s (urgency: %s)\n", truncate(hit.Document, 150), hit.Metadata["urgency_level"])
		}
	}

	fmt.Fprintf(&b, "\nSNOMED CODES IDENTIFIED: %s\n", strings.Join(rc.Signals.SnomedCodes, ", "))

	b.WriteString(`
CRITICAL SAFETY CONSIDERATIONS:
- If current symptoms could be related to unresolved symptoms, consider escalation
- Coffee ground stool + dizziness/weakness = EMERGENCY (GI bleeding)
- Blood symptoms + hemodynamic instability = EMERGENCY
- Worsening of previously unresolved symptoms = Higher urgency

Provide a structured analysis in exactly this JSON format:

{
    "reasoning_steps": [
        {"step": 1, "analysis": "Initial symptom assessment and red flag identification", "findings": "..."},
        {"step": 2, "analysis": "Unresolved symptom correlation and progression analysis", "findings": "..."},
        {"step": 3, "analysis": "Clinical guideline application and risk stratification", "findings": "..."},
        {"step": 4, "analysis": "Differential diagnosis consideration with historical context", "findings": "..."}
    ],
    "red_flags": ["list of concerning symptoms including GI bleeding indicators"],
    "risk_factors": ["list of risk factors from history and unresolved symptoms"],
    "preliminary_urgency": "Emergency|Urgent|Primary Care|Telehealth|Self-Care",
    "confidence": 0.0-1.0
}

Think through each step carefully, prioritizing patient safety and considering symptom progression.
`)
	return b.String()
}

// buildSynthesisPrompt assembles the second oracle call: symptoms, ESI tier,
// and the full reasoning trace, asking for the final recommendation.
func buildSynthesisPrompt(symptoms string, tier EsiTier, reasoning ReasoningResult) string {
	trace, _ := json.MarshalIndent(struct {
		Steps              []models.ReasoningStep `json:"reasoning_steps"`
		RedFlags           []string               `json:"red_flags"`
		RiskFactors        []string               `json:"risk_factors"`
		PreliminaryUrgency models.UrgencyLevel    `json:"preliminary_urgency"`
		Confidence         float64                `json:"confidence"`
	}{reasoning.Steps, reasoning.RedFlags, reasoning.RiskFactors, reasoning.PreliminaryUrgency, reasoning.Confidence}, "", "  ")

	var b strings.Builder
	b.WriteString("Based on the comprehensive analysis, provide the final triage recommendation:\n\n")
	fmt.Fprintf(&b, "SYMPTOMS: %s\n", symptoms)
	fmt.Fprintf(&b, "ESI CLASSIFICATION: %s - %s\n", tier.Level, tier.Description)
	fmt.Fprintf(&b, "REASONING ANALYSIS: %s\n", trace)
	b.WriteString(`
Provide response in exactly this JSON format:
{
    "urgency_level": "Emergency|Urgent|Primary Care|Telehealth|Self-Care",
    "explanation": "Comprehensive explanation incorporating patient history, clinical guidelines, and ESI classification",
    "confidence": 0.0-1.0,
    "next_steps": {
        "action": "Specific recommended action",
        "timeframe": "When to seek care",
        "additional_info": "Additional guidance and precautions",
        "booking_url": "Appropriate care booking URL"
    }
}

Ensure the recommendation is consistent with ESI guidelines and incorporates patient history patterns.
`)
	return b.String()
}

func formatLogs(logs []models.SymptomLog, max int, withStatus bool) string {
	if len(logs) == 0 {
		if withStatus {
			return "No unresolved symptoms"
		}
		return "No related symptoms found"
	}
	var b strings.Builder
	for i, l := range logs {
		if i == max {
			break
		}
		if withStatus {
			fmt.Fprintf(&b, "- %s (%s, %s, %s)\n", l.Symptoms, l.UrgencyLevel, l.ResolutionStatus, l.CreatedAt.Format("2006-01-02"))
		} else {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", l.Symptoms, l.UrgencyLevel, l.CreatedAt.Format("2006-01-02"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
