package triage

import (
	"math"
	"reflect"
	"testing"
)

func TestExtractSnomedCodes(t *testing.T) {
	sig := Extract("I have chest pain and a fever")

	want := []string{"chest pain:29857009", "fever:386661006", "pain:22253000"}
	if !reflect.DeepEqual(sig.SnomedCodes, want) {
		t.Fatalf("expected codes %v, got %v", want, sig.SnomedCodes)
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Severe headache with nausea and a temperature of 101.2"
	first := Extract(text)
	second := Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical input: %+v vs %+v", first, second)
	}
}

func TestExtractTemperature(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"my temp is 102 F", 102, true},
		{"temperature is 103.5 fahrenheit", 103.5, true},
		{"fever of 104", 104, true},
		{"temperature of 98.6", 98.6, true},
		{"running a 101 degree fever", 101, true},
		{"I measured 40°C this morning", 104, true},
		{"40 degrees celsius", 104, true},
		{"38.5C fever", 101.3, true},
		{"turned the thermostat to 5 degrees", 0, false},
		{"no temperature mentioned", 0, false},
	}
	for _, tc := range cases {
		got, ok := ExtractTemperature(tc.text)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.text, tc.ok, ok)
		}
		if ok && math.Abs(got-tc.want) > 0.01 {
			t.Fatalf("%q: expected %.2f°F, got %.2f°F", tc.text, tc.want, got)
		}
	}
}

func TestExtractCelsiusFahrenheitEquivalence(t *testing.T) {
	c, okC := ExtractTemperature("fever of 40°C")
	f, okF := ExtractTemperature("fever of 104°F")
	if !okC || !okF {
		t.Fatalf("expected both readings to parse, got okC=%v okF=%v", okC, okF)
	}
	if math.Abs(c-f) > 0.01 {
		t.Fatalf("expected 40°C to normalize to 104°F, got %.2f vs %.2f", c, f)
	}
}
