package triage

import (
	"strings"
	"testing"

	"github.com/mediconnect/backend/internal/models"
)

func TestFallbackTriageEmergency(t *testing.T) {
	v := FallbackTriage("chest pain and shortness of breath")
	if v.UrgencyLevel != models.Emergency || v.ESIClassification != "ESI-1" {
		t.Fatalf("expected Emergency/ESI-1, got %s/%s", v.UrgencyLevel, v.ESIClassification)
	}
	if v.Confidence < 0.95 {
		t.Fatalf("expected confidence >= 0.95, got %.2f", v.Confidence)
	}
	if len(v.ReasoningChain) != 1 || !strings.Contains(v.ReasoningChain[0].Findings, "chest_pain_with_breathing_difficulty") {
		t.Fatalf("expected single cascade reasoning step, got %+v", v.ReasoningChain)
	}
	found := false
	for _, code := range v.SnomedCodes {
		if code == "chest pain:29857009" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected chest pain SNOMED code, got %v", v.SnomedCodes)
	}
}

func TestFallbackTriageSelfCare(t *testing.T) {
	v := FallbackTriage("runny nose")
	if v.UrgencyLevel != models.SelfCare || v.ESIClassification != "ESI-5" {
		t.Fatalf("expected Self-Care/ESI-5, got %s/%s", v.UrgencyLevel, v.ESIClassification)
	}
}

func TestFallbackTriageAlwaysComplete(t *testing.T) {
	inputs := []string{
		"chest pain",
		"fever of 103",
		"stuffy nose",
		"vague discomfort",
		"qwerty asdf",
	}
	for _, text := range inputs {
		v := FallbackTriage(text)
		if !v.UrgencyLevel.Valid() {
			t.Fatalf("%q: invalid urgency %q", text, v.UrgencyLevel)
		}
		if v.ESIClassification == "" || v.Explanation == "" {
			t.Fatalf("%q: incomplete verdict %+v", text, v)
		}
		if v.Confidence <= 0 || v.Confidence > 1 {
			t.Fatalf("%q: confidence out of range: %.2f", text, v.Confidence)
		}
		if len(v.ReasoningChain) == 0 {
			t.Fatalf("%q: expected a reasoning chain", text)
		}
	}
}
