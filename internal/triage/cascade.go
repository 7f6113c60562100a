package triage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mediconnect/backend/internal/models"
)

// Pattern tables shared by the safety cascade and the ESI classifier.
// Specific and severe patterns are kept separate from the generic keyword
// vocabularies so ordering stays explicit.

var chestPainPatterns = compileAll(
	`chest.*pain`, `chest.*discomfort`, `chest.*pressure`, `chest.*tightness`,
	`chest.*ache`, `chest.*burning`, `heart.*pain`, `cardiac.*pain`,
	`angina`, `myocardial`,
)

var breathingPatterns = compileAll(
	`shortness.*breath`, `short.*breath`, `difficulty.*breathing`, `trouble.*breathing`,
	`hard.*breathe`, `can'?t.*breathe`, `cannot.*breathe`, `breathless`,
	`dyspnea`, `respiratory.*distress`,
	// common typo for "breath"
	`shortness.*breat`, `short.*breat`,
)

var bloodEmergencyPatterns = compileAll(
	`cough.*blood`, `blood.*cough`, `coughing.*blood`,
	`vomit.*blood`, `blood.*vomit`, `vomiting.*blood`,
	`spit.*blood`, `blood.*spit`, `spitting.*blood`,
	`hematemesis`, `hemoptysis`, `bloody.*cough`,
	`blood.*phlegm`, `phlegm.*blood`,
	// upper GI bleeding presentations
	`coffee.*ground.*stool`, `stool.*coffee.*ground`, `coffee.*ground.*bowel`,
	`black.*tarry.*stool`, `tarry.*stool`, `melena`,
	`dark.*stool.*dizzy`, `black.*stool.*weak`, `coffee.*ground.*dizzy`,
	`coffee.*ground.*weak`, `bloody.*stool.*dizzy`, `bloody.*stool.*weak`,
)

var dangerPhrasePatterns = compileAll(
	`worst.*headache.*(?:of.*)?(?:my.*)?life`, `worst.*headache.*ever`,
	`thunderclap.*headache`, `sudden.*(?:severe|worst).*headache`,
	`headache.*worst.*(?:of.*)?(?:my.*)?life`, `headache.*worst.*ever`,
	`crushing.*chest.*pain`, `severe.*chest.*pain`,
	`chest.*pain.*radiating`, `elephant.*(?:on.*)?chest`,
	`can'?t.*breathe`, `unable.*(?:to.*)?breathe`, `gasping.*(?:for.*)?air`,
	`severe.*shortness.*(?:of.*)?breath`, `respiratory.*distress`,
	`severe.*bleeding`, `massive.*bleeding`,
	`loss.*(?:of.*)?consciousness`, `unconscious`,
	`seizure`, `convulsion`,
)

var persistentHeadachePatterns = compileAll(
	`headache.*(?:for|lasting).*(?:days|weeks)`,
	`(?:persistent|chronic|ongoing).*headache`,
	`headache.*(?:five|5|six|6|seven|7).*days`,
	`throbbing.*headache.*(?:days|weeks)`,
	`severe.*headache.*(?:days|weeks)`,
)

// minorColdPatterns is the strict self-care allow-list. Anchored so only a
// bare minor complaint qualifies; anything longer falls through to the
// keyword vocabularies and the primary-care floor. Checked before the
// generic vocabularies so an exact minor complaint like "minor cold
// symptoms" is not swallowed by the "cold symptoms" keyword.
var minorColdPatterns = compileAll(
	`^stuffy nose$`, `^runny nose$`, `^mild congestion$`,
	`^minor cold symptoms$`, `^slight congestion$`,
	`^blocked nose$`, `^nasal congestion$`,
)

var giBleedIndicators = []string{"coffee ground", "tarry stool", "black stool", "melena"}

var hemodynamicIndicators = []string{"dizzy", "dizziness", "weak", "weakness", "lightheaded", "faint"}

var emergencyKeywords = []string{
	"chest pain", "heart attack", "stroke", "difficulty breathing", "can't breathe",
	"severe bleeding", "unconscious", "unresponsive", "severe allergic reaction",
	"suicide", "overdose", "severe trauma", "cannot breathe", "choking",
	"vomiting blood", "hematemesis", "coughing up blood", "hemoptysis",
	"severe head injury", "seizure", "anaphylaxis", "cardiac arrest",
	"respiratory failure", "severe burns", "major trauma",
}

var urgentKeywords = []string{
	"high fever", "severe pain", "severe headache", "broken bone",
	"severe abdominal pain", "severe nausea", "persistent vomiting",
	"signs of infection", "severe diarrhea", "dehydration",
	"moderate bleeding", "eye injury",
	"mental health crisis", "severe depression", "panic attack",
}

var primaryCareKeywords = []string{
	"fever", "headache", "pain", "nausea", "vomiting", "diarrhea",
	"cough", "cold symptoms", "minor injury", "rash", "fatigue",
	"mild infection", "routine check", "medication refill",
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func anyPattern(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func anyKeyword(keywords []string, text string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func anyIndicator(indicators []string, text string) bool {
	return anyKeyword(indicators, text)
}

// CascadeMatch is the outcome of one safety-cascade rule.
type CascadeMatch struct {
	Rule        string
	Urgency     models.UrgencyLevel
	ESILevel    string
	Confidence  float64
	Explanation string
}

type cascadeInput struct {
	text    string // lowered, trimmed
	signals Signals
}

type cascadeRule struct {
	name    string
	match   func(in cascadeInput) bool
	verdict func(in cascadeInput) CascadeMatch
}

func fixedVerdict(name string, urgency models.UrgencyLevel, esi string, confidence float64, explanation string) func(cascadeInput) CascadeMatch {
	return func(cascadeInput) CascadeMatch {
		return CascadeMatch{Rule: name, Urgency: urgency, ESILevel: esi, Confidence: confidence, Explanation: explanation}
	}
}

// safetyCascade is evaluated top to bottom; the first matching rule wins.
// Ordering matters: specific and severe patterns come before the generic
// keyword vocabularies so "worst headache of my life" never resolves through
// the plain "headache" rule, and the anchored self-care allow-list runs
// before the keyword vocabularies so a bare minor complaint is not caught
// by a substring keyword.
var safetyCascade = []cascadeRule{
	{
		name:  "extreme_fever",
		match: func(in cascadeInput) bool { return in.signals.HasTemperature && in.signals.Temperature >= 104.0 },
		verdict: func(in cascadeInput) CascadeMatch {
			return CascadeMatch{
				Rule:       "extreme_fever",
				Urgency:    models.Emergency,
				ESILevel:   "ESI-1",
				Confidence: 0.95,
				Explanation: fmt.Sprintf("A fever of %.1f°F is extremely dangerous and potentially life-threatening. "+
					"Please call 911 or go to the nearest emergency room immediately.", in.signals.Temperature),
			}
		},
	},
	{
		name: "chest_pain_with_breathing_difficulty",
		match: func(in cascadeInput) bool {
			return anyPattern(chestPainPatterns, in.text) && anyPattern(breathingPatterns, in.text)
		},
		verdict: fixedVerdict("chest_pain_with_breathing_difficulty", models.Emergency, "ESI-1", 0.98,
			"Chest discomfort combined with shortness of breath is a medical emergency that could indicate a heart attack, "+
				"pulmonary embolism, or other life-threatening condition. Call 911 or go to the nearest emergency room "+
				"immediately - do not delay or drive yourself."),
	},
	{
		name: "gi_bleed_with_instability",
		match: func(in cascadeInput) bool {
			return anyIndicator(giBleedIndicators, in.text) && anyIndicator(hemodynamicIndicators, in.text)
		},
		verdict: fixedVerdict("gi_bleed_with_instability", models.Emergency, "ESI-1", 0.98,
			"Coffee ground stool appearance with dizziness and weakness strongly suggests upper gastrointestinal bleeding "+
				"with significant blood loss. This is a life-threatening emergency. Call 911 or go to the nearest emergency "+
				"room immediately - do not delay."),
	},
	{
		name:  "blood_symptoms",
		match: func(in cascadeInput) bool { return anyPattern(bloodEmergencyPatterns, in.text) },
		verdict: fixedVerdict("blood_symptoms", models.Emergency, "ESI-1", 0.95,
			"Coughing up blood, vomiting blood, or blood in stool is a serious medical emergency that requires immediate "+
				"attention. Please call 911 or go to the nearest emergency room immediately."),
	},
	{
		name:  "danger_phrase",
		match: func(in cascadeInput) bool { return anyPattern(dangerPhrasePatterns, in.text) },
		verdict: fixedVerdict("danger_phrase", models.Emergency, "ESI-1", 0.95,
			"Based on your symptoms, this appears to be a medical emergency. Please call 911 or go to the nearest "+
				"emergency room immediately. Do not delay seeking care."),
	},
	{
		name: "high_fever",
		match: func(in cascadeInput) bool {
			return in.signals.HasTemperature && in.signals.Temperature >= 102.0
		},
		verdict: func(in cascadeInput) CascadeMatch {
			return CascadeMatch{
				Rule:       "high_fever",
				Urgency:    models.Urgent,
				ESILevel:   "ESI-2",
				Confidence: 0.9,
				Explanation: fmt.Sprintf("A fever of %.1f°F is concerning and requires prompt medical attention. "+
					"Please contact your doctor immediately or visit an urgent care center today.", in.signals.Temperature),
			}
		},
	},
	{
		name: "isolated_cardiopulmonary",
		match: func(in cascadeInput) bool {
			return anyPattern(chestPainPatterns, in.text) || anyPattern(breathingPatterns, in.text)
		},
		verdict: func(in cascadeInput) CascadeMatch {
			explanation := "Difficulty breathing or shortness of breath requires immediate medical attention as it could " +
				"indicate serious respiratory or cardiac problems. Please call 911 or go to the nearest emergency room immediately."
			if anyPattern(chestPainPatterns, in.text) {
				explanation = "Chest pain or discomfort requires immediate medical evaluation to rule out heart attack or " +
					"other serious cardiac conditions. Please call 911 or go to the nearest emergency room immediately."
			}
			return CascadeMatch{
				Rule:        "isolated_cardiopulmonary",
				Urgency:     models.Emergency,
				ESILevel:    "ESI-2",
				Confidence:  0.95,
				Explanation: explanation,
			}
		},
	},
	{
		name:  "persistent_headache",
		match: func(in cascadeInput) bool { return anyPattern(persistentHeadachePatterns, in.text) },
		verdict: fixedVerdict("persistent_headache", models.Urgent, "ESI-2", 0.85,
			"A persistent headache lasting several days requires medical evaluation to rule out serious conditions. "+
				"Please contact your doctor today or visit an urgent care center for assessment."),
	},
	{
		name: "moderate_fever",
		match: func(in cascadeInput) bool {
			return in.signals.HasTemperature && in.signals.Temperature >= 100.4
		},
		verdict: func(in cascadeInput) CascadeMatch {
			return CascadeMatch{
				Rule:       "moderate_fever",
				Urgency:    models.PrimaryCare,
				ESILevel:   "ESI-4",
				Confidence: 0.8,
				Explanation: fmt.Sprintf("A fever of %.1f°F should be evaluated by a healthcare provider, "+
					"especially if accompanied by other symptoms.", in.signals.Temperature),
			}
		},
	},
	{
		name:  "minor_self_care",
		match: func(in cascadeInput) bool { return anyPattern(minorColdPatterns, in.text) },
		verdict: fixedVerdict("minor_self_care", models.SelfCare, "ESI-5", 0.8,
			"This appears to be a minor cold symptom that can typically be managed with self-care. Try rest, fluids, and "+
				"over-the-counter remedies. If symptoms worsen or persist beyond a week, consider seeing a healthcare provider."),
	},
	{
		name:  "emergency_keyword",
		match: func(in cascadeInput) bool { return anyKeyword(emergencyKeywords, in.text) },
		verdict: fixedVerdict("emergency_keyword", models.Emergency, "ESI-2", 0.9,
			"Your symptoms indicate a potential medical emergency. Please call 911 or go to the nearest emergency room "+
				"immediately. Do not delay seeking care."),
	},
	{
		name:  "urgent_keyword",
		match: func(in cascadeInput) bool { return anyKeyword(urgentKeywords, in.text) },
		verdict: fixedVerdict("urgent_keyword", models.Urgent, "ESI-3", 0.8,
			"Your symptoms suggest you need medical attention today. Please contact your doctor, visit an urgent care "+
				"center, or go to the emergency room if symptoms worsen."),
	},
	{
		name:  "primary_care_keyword",
		match: func(in cascadeInput) bool { return anyKeyword(primaryCareKeywords, in.text) },
		verdict: fixedVerdict("primary_care_keyword", models.PrimaryCare, "ESI-4", 0.7,
			"Based on your symptoms, consider scheduling an appointment with your primary care provider for evaluation "+
				"within the next few days."),
	},
	{
		name:  "default_primary_care",
		match: func(cascadeInput) bool { return true },
		verdict: fixedVerdict("default_primary_care", models.PrimaryCare, "ESI-4", 0.6,
			"Based on your symptoms, we recommend scheduling an appointment with your primary care provider for proper "+
				"evaluation. If symptoms worsen or you develop concerning signs, seek immediate medical attention."),
	},
}

// EvaluateCascade runs the safety cascade over raw text plus its extracted
// signals. The trailing default means it always returns a match; Self-Care is
// reachable only through the minor allow-list rule.
func EvaluateCascade(text string, sig Signals) CascadeMatch {
	in := cascadeInput{text: strings.TrimSpace(strings.ToLower(text)), signals: sig}
	for _, r := range safetyCascade {
		if r.match(in) {
			return r.verdict(in)
		}
	}
	// unreachable: the default rule always matches
	return CascadeMatch{Rule: "default_primary_care", Urgency: models.PrimaryCare, ESILevel: "ESI-4", Confidence: 0.6}
}
