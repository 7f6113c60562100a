package triage

import (
	"strings"

	"github.com/mediconnect/backend/internal/models"
)

// EsiTier is one level of the Emergency Severity Index. The table below is
// fixed at init and read-only afterwards; every tier maps to exactly one
// urgency level.
type EsiTier struct {
	Level       string
	Description string
	Urgency     models.UrgencyLevel
	Timeframe   string
	Examples    []string
}

var esiGuidelines = []EsiTier{
	{
		Level:       "ESI-1",
		Description: "Resuscitation - Life-threatening conditions requiring immediate intervention",
		Urgency:     models.Emergency,
		Timeframe:   "Immediate (0 minutes)",
		Examples:    []string{"cardiac arrest", "respiratory failure", "severe trauma", "anaphylaxis"},
	},
	{
		Level:       "ESI-2",
		Description: "Emergent - High-risk situations requiring rapid assessment",
		Urgency:     models.Emergency,
		Timeframe:   "Immediate (≤10 minutes)",
		Examples:    []string{"chest pain with cardiac risk", "severe difficulty breathing", "altered mental status", "severe pain"},
	},
	{
		Level:       "ESI-3",
		Description: "Urgent - Stable but requiring multiple resources",
		Urgency:     models.Urgent,
		Timeframe:   "Within 30 minutes",
		Examples:    []string{"moderate pain", "fever with concerning symptoms", "minor trauma requiring imaging"},
	},
	{
		Level:       "ESI-4",
		Description: "Less urgent - Stable, requiring one resource or primary care evaluation",
		Urgency:     models.PrimaryCare,
		Timeframe:   "Within 1-2 hours or primary care appointment",
		Examples:    []string{"minor injuries", "simple infections", "routine follow-up", "persistent symptoms"},
	},
	{
		Level:       "ESI-5",
		Description: "Non-urgent - Minor symptoms manageable with self-care",
		Urgency:     models.SelfCare,
		Timeframe:   "Self-care appropriate, monitor symptoms",
		Examples:    []string{"stuffy nose", "minor cold symptoms", "mild congestion", "minor skin irritation"},
	},
}

// TierByLevel returns the guideline entry for a level like "ESI-3".
// Unknown levels fall back to ESI-4, the safety default.
func TierByLevel(level string) EsiTier {
	for _, t := range esiGuidelines {
		if t.Level == level {
			return t
		}
	}
	return esiGuidelines[3]
}

// Tiers returns the full guideline table in severity order.
func Tiers() []EsiTier {
	out := make([]EsiTier, len(esiGuidelines))
	copy(out, esiGuidelines)
	return out
}

var esi1Keywords = []string{
	"cardiac arrest", "not breathing", "unresponsive", "severe trauma",
	"anaphylaxis", "severe allergic reaction", "respiratory failure",
	"unconscious", "choking", "major bleeding", "severe burns",
}

var esi2Keywords = []string{
	"chest pain", "difficulty breathing", "severe pain", "altered mental status",
	"high fever", "severe headache", "stroke symptoms", "vomiting blood",
	"hematemesis", "coughing up blood", "hemoptysis", "severe bleeding",
	"severe abdominal pain", "severe burns", "head trauma", "seizure",
	"severe allergic reaction", "overdose", "suicide", "severe dehydration",
}

var highResourceIndicators = []string{"imaging", "lab work", "specialist", "procedure"}

var mediumResourceIndicators = []string{"examination", "medication", "monitoring"}

// ClassifyESI maps symptom text plus the reasoning outcome to one tier.
// Checks run most-acute first; the default is ESI-4, never ESI-5.
func ClassifyESI(text string, reasoning ReasoningResult) EsiTier {
	lower := strings.ToLower(text)
	sig := Extract(text)

	if matchesESI1(lower, sig, reasoning.RedFlags) {
		return esiGuidelines[0]
	}
	if matchesESI2(lower, sig, reasoning.RedFlags) {
		return esiGuidelines[1]
	}
	if matchesESI5(lower, reasoning.RedFlags) {
		return esiGuidelines[4]
	}
	if resourceScore(lower) >= 2 {
		return esiGuidelines[2]
	}
	return esiGuidelines[3]
}

func matchesESI1(lower string, sig Signals, redFlags []string) bool {
	if sig.HasTemperature && sig.Temperature >= 104.0 {
		return true
	}
	if anyPattern(chestPainPatterns, lower) && anyPattern(breathingPatterns, lower) {
		return true
	}
	if anyPattern(bloodEmergencyPatterns, lower) {
		return true
	}
	if anyIndicator(giBleedIndicators, lower) && anyIndicator(hemodynamicIndicators, lower) {
		return true
	}
	if anyKeyword(esi1Keywords, lower) {
		return true
	}
	return flagContains(redFlags, "life-threatening")
}

func matchesESI2(lower string, sig Signals, redFlags []string) bool {
	if sig.HasTemperature && sig.Temperature >= 102.0 {
		return true
	}
	if anyPattern(chestPainPatterns, lower) || anyPattern(breathingPatterns, lower) {
		return true
	}
	if anyPattern(bloodEmergencyPatterns, lower) {
		return true
	}
	if anyPattern(persistentHeadachePatterns, lower) {
		return true
	}
	if anyKeyword(esi2Keywords, lower) {
		return true
	}
	return flagContains(redFlags, "emergency") || flagContains(redFlags, "urgent")
}

func matchesESI5(lower string, redFlags []string) bool {
	if !anyPattern(minorColdPatterns, strings.TrimSpace(lower)) {
		return false
	}
	// no conflicting red flags allowed on the self-care path
	for _, f := range redFlags {
		if !strings.Contains(strings.ToLower(f), "minor") {
			return false
		}
	}
	return true
}

func resourceScore(lower string) int {
	if anyIndicator(highResourceIndicators, lower) {
		return 2
	}
	if anyIndicator(mediumResourceIndicators, lower) {
		return 1
	}
	return 0
}

func flagContains(flags []string, substr string) bool {
	for _, f := range flags {
		if strings.Contains(strings.ToLower(f), substr) {
			return true
		}
	}
	return false
}
