package triage

import (
	"regexp"
	"strconv"
	"strings"
)

// Signals holds the structured signals pulled from raw symptom text.
type Signals struct {
	SnomedCodes    []string
	Temperature    float64
	HasTemperature bool
}

// snomedVocabulary maps recognized clinical terms to SNOMED CT codes. The
// slice is ordered so extraction output is deterministic.
var snomedVocabulary = []struct {
	Term string
	Code string
}{
	// Cardiovascular
	{"chest pain", "29857009"},
	{"shortness of breath", "267036007"},
	{"palpitations", "80313002"},
	{"dizziness", "404640003"},

	// Respiratory
	{"cough", "49727002"},
	{"wheezing", "56018004"},
	{"difficulty breathing", "267036007"},

	// Neurological
	{"headache", "25064002"},
	{"confusion", "40917007"},
	{"seizure", "91175000"},
	{"weakness", "13791008"},

	// Gastrointestinal
	{"nausea", "422587007"},
	{"vomiting", "422400008"},
	{"abdominal pain", "21522001"},
	{"diarrhea", "62315008"},

	// General
	{"fever", "386661006"},
	{"fatigue", "84229001"},
	{"pain", "22253000"},
}

// temperaturePatterns are tried in priority order; the first numeric match
// wins. Unit-explicit patterns come before bare "degrees" forms.
var temperaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:degrees?\s*)?(?:fahrenheit|f)\b`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°\s*f\b`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:degrees?\s*)?(?:celsius|c)\b`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°\s*c\b`),
	regexp.MustCompile(`fever\s+of\s+(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`temperature\s+(?:of\s+)?(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*degrees?`),
}

// Extract pulls coded terms and an optional temperature from raw text. It is
// a pure function: identical input always yields identical output.
func Extract(text string) Signals {
	lower := strings.ToLower(text)

	var codes []string
	for _, entry := range snomedVocabulary {
		if strings.Contains(lower, entry.Term) {
			codes = append(codes, entry.Term+":"+entry.Code)
		}
	}

	sig := Signals{SnomedCodes: codes}
	if temp, ok := ExtractTemperature(text); ok {
		sig.Temperature = temp
		sig.HasTemperature = true
	}
	return sig
}

// ExtractTemperature returns a temperature in Fahrenheit when one can be read
// from the text. Values above 80 are taken as Fahrenheit; values strictly
// between 35 and 45 are taken as Celsius and converted; anything else is
// discarded as implausible.
func ExtractTemperature(text string) (float64, bool) {
	lower := strings.ToLower(text)
	for _, pattern := range temperaturePatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch {
		case value > 80:
			return value, true
		case value > 35 && value < 45:
			return value*9/5 + 32, true
		}
	}
	return 0, false
}
