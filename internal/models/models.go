package models

import "time"

// UrgencyLevel is the closed set of care-navigation outcomes, ordered from
// most to least acute.
type UrgencyLevel string

const (
	Emergency   UrgencyLevel = "Emergency"
	Urgent      UrgencyLevel = "Urgent"
	PrimaryCare UrgencyLevel = "Primary Care"
	Telehealth  UrgencyLevel = "Telehealth"
	SelfCare    UrgencyLevel = "Self-Care"
)

// Rank orders urgency levels; higher means more acute. Unknown values rank 0.
func (u UrgencyLevel) Rank() int {
	switch u {
	case Emergency:
		return 5
	case Urgent:
		return 4
	case PrimaryCare:
		return 3
	case Telehealth:
		return 2
	case SelfCare:
		return 1
	}
	return 0
}

func (u UrgencyLevel) Valid() bool {
	return u.Rank() > 0
}

// Resolution statuses for historical symptom logs. Ongoing, Worsened and
// Unknown count as unresolved when building triage context.
const (
	ResolutionOngoing  = "Ongoing"
	ResolutionImproved = "Improved"
	ResolutionResolved = "Resolved"
	ResolutionWorsened = "Worsened"
	ResolutionUnknown  = "Unknown"
)

// UnresolvedStatuses is the status filter used when pulling open symptom
// logs into triage context.
var UnresolvedStatuses = []string{ResolutionOngoing, ResolutionWorsened, ResolutionUnknown}

type SymptomReport struct {
	SubjectID   string    `json:"subject_id"`
	Symptoms    string    `json:"symptoms"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type SymptomLog struct {
	ID                string       `json:"id"`
	SubjectID         string       `json:"subject_id"`
	Symptoms          string       `json:"symptoms"`
	UrgencyLevel      UrgencyLevel `json:"urgency_level"`
	Explanation       string       `json:"explanation"`
	Confidence        float64      `json:"confidence"`
	ESIClassification string       `json:"esi_classification"`
	ResolutionStatus  string       `json:"resolution_status"`
	CreatedAt         time.Time    `json:"created_at"`
}

// ReasoningStep is one entry in the ordered reasoning trace carried into the
// final verdict.
type ReasoningStep struct {
	Step     int    `json:"step"`
	Analysis string `json:"analysis"`
	Findings string `json:"findings"`
}

type NextSteps struct {
	Action         string `json:"action"`
	Timeframe      string `json:"timeframe"`
	AdditionalInfo string `json:"additional_info,omitempty"`
	BookingURL     string `json:"booking_url,omitempty"`
}

// TriageVerdict is the immutable result of one assessment. Every path,
// including the deterministic fallback, produces a complete verdict.
type TriageVerdict struct {
	UrgencyLevel      UrgencyLevel    `json:"urgency_level"`
	Explanation       string          `json:"explanation"`
	Confidence        float64         `json:"confidence"`
	ESIClassification string          `json:"esi_classification"`
	ReasoningChain    []ReasoningStep `json:"reasoning_chain"`
	SnomedCodes       []string        `json:"snomed_codes"`
	NextSteps         *NextSteps      `json:"next_steps,omitempty"`
}

// RetrievalHit is one result from the vector index. Lower distance means
// more similar; the index makes no absolute numeric promise.
type RetrievalHit struct {
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}
