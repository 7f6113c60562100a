package triage

import (
	"testing"

	"github.com/mediconnect/backend/internal/models"
)

func evaluate(text string) CascadeMatch {
	return EvaluateCascade(text, Extract(text))
}

func TestCascadeChestPainWithBreathingDifficulty(t *testing.T) {
	m := evaluate("I have chest pain and shortness of breath")
	if m.Rule != "chest_pain_with_breathing_difficulty" {
		t.Fatalf("expected combined cardiopulmonary rule, got %s", m.Rule)
	}
	if m.Urgency != models.Emergency || m.ESILevel != "ESI-1" {
		t.Fatalf("expected Emergency/ESI-1, got %s/%s", m.Urgency, m.ESILevel)
	}
	if m.Confidence < 0.95 {
		t.Fatalf("expected confidence >= 0.95, got %.2f", m.Confidence)
	}
}

func TestCascadeGIBleedWithInstability(t *testing.T) {
	m := evaluate("coffee ground stool and feeling dizzy")
	if m.Rule != "gi_bleed_with_instability" {
		t.Fatalf("expected GI bleed rule, got %s", m.Rule)
	}
	if m.Urgency != models.Emergency || m.ESILevel != "ESI-1" {
		t.Fatalf("expected Emergency/ESI-1, got %s/%s", m.Urgency, m.ESILevel)
	}
	if m.Confidence < 0.9 {
		t.Fatalf("expected confidence >= 0.9, got %.2f", m.Confidence)
	}
}

func TestCascadeDangerPhraseBeatsPlainKeyword(t *testing.T) {
	danger := evaluate("this is the worst headache of my life")
	if danger.Rule != "danger_phrase" || danger.Urgency != models.Emergency {
		t.Fatalf("expected danger phrase to escalate, got %s/%s", danger.Rule, danger.Urgency)
	}

	plain := evaluate("I have a headache")
	if plain.Rule != "primary_care_keyword" || plain.Urgency != models.PrimaryCare {
		t.Fatalf("expected plain headache to stay primary care, got %s/%s", plain.Rule, plain.Urgency)
	}
}

func TestCascadeFeverThresholds(t *testing.T) {
	cases := []struct {
		text    string
		rule    string
		urgency models.UrgencyLevel
		esi     string
	}{
		{"fever of 104.5", "extreme_fever", models.Emergency, "ESI-1"},
		{"fever of 102.5", "high_fever", models.Urgent, "ESI-2"},
		{"fever of 100.5", "moderate_fever", models.PrimaryCare, "ESI-4"},
	}
	for _, tc := range cases {
		m := evaluate(tc.text)
		if m.Rule != tc.rule {
			t.Fatalf("%q: expected rule %s, got %s", tc.text, tc.rule, m.Rule)
		}
		if m.Urgency != tc.urgency || m.ESILevel != tc.esi {
			t.Fatalf("%q: expected %s/%s, got %s/%s", tc.text, tc.urgency, tc.esi, m.Urgency, m.ESILevel)
		}
	}
}

func TestCascadeCelsiusFeverEquivalence(t *testing.T) {
	celsius := evaluate("my temperature is 40°C")
	fahrenheit := evaluate("my temperature is 104°F")
	if celsius.Rule != "extreme_fever" || fahrenheit.Rule != "extreme_fever" {
		t.Fatalf("expected both readings to trigger extreme fever, got %s and %s", celsius.Rule, fahrenheit.Rule)
	}
	if celsius.Urgency != fahrenheit.Urgency {
		t.Fatalf("expected equivalent urgency, got %s vs %s", celsius.Urgency, fahrenheit.Urgency)
	}
}

func TestCascadeSelfCareOnlyThroughAllowList(t *testing.T) {
	minor := evaluate("stuffy nose")
	if minor.Rule != "minor_self_care" || minor.Urgency != models.SelfCare || minor.ESILevel != "ESI-5" {
		t.Fatalf("expected self-care for bare minor complaint, got %s/%s/%s", minor.Rule, minor.Urgency, minor.ESILevel)
	}

	// anything beyond the bare complaint falls off the allow-list
	mixed := evaluate("stuffy nose and chest pain")
	if mixed.Urgency == models.SelfCare {
		t.Fatalf("expected escalation when minor complaint has company, got %s", mixed.Rule)
	}
}

func TestCascadeMinorColdBeatsKeywordVocabulary(t *testing.T) {
	m := evaluate("minor cold symptoms")
	if m.Rule != "minor_self_care" || m.Urgency != models.SelfCare || m.ESILevel != "ESI-5" {
		t.Fatalf("expected allow-list to win over the cold-symptoms keyword, got %s/%s/%s", m.Rule, m.Urgency, m.ESILevel)
	}

	// same words in a longer complaint miss the anchored allow-list
	longer := evaluate("minor cold symptoms for two weeks now")
	if longer.Rule != "primary_care_keyword" || longer.Urgency != models.PrimaryCare {
		t.Fatalf("expected longer complaint to stay on the keyword path, got %s/%s", longer.Rule, longer.Urgency)
	}
}

func TestCascadeDefaultFloor(t *testing.T) {
	m := evaluate("itchy elbow")
	if m.Rule != "default_primary_care" {
		t.Fatalf("expected default rule, got %s", m.Rule)
	}
	if m.Urgency != models.PrimaryCare || m.ESILevel != "ESI-4" {
		t.Fatalf("expected Primary Care/ESI-4 floor, got %s/%s", m.Urgency, m.ESILevel)
	}
	if m.Confidence != 0.6 {
		t.Fatalf("expected default confidence 0.6, got %.2f", m.Confidence)
	}
}

func TestCascadeAlwaysReturnsMatch(t *testing.T) {
	inputs := []string{"", "zzz", "feeling a bit off today", "general malaise"}
	for _, text := range inputs {
		m := evaluate(text)
		if m.Rule == "" || m.ESILevel == "" || !m.Urgency.Valid() {
			t.Fatalf("%q: expected a complete match, got %+v", text, m)
		}
	}
}
